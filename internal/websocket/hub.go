package websocket

import (
	"context"
	"log"
	"sync"

	"github.com/google/uuid"
)

// Hub ведёт реестр комнат и единолично владеет их состоянием. Всё
// членство живёт только в памяти процесса; пустая комната удаляется
// и лениво пересоздаётся при следующем join.
//
// Мьютекс реестра не удерживается через вызовы авторизации: Gate
// опрашивается до обращения к Hub
type Hub struct {
	clients map[uuid.UUID]*Client

	// Сессии по UserID: у пользователя может быть несколько устройств
	userClients map[string]map[uuid.UUID]*Client

	// Членство комнат по детерминированному ключу комнаты
	rooms map[string]map[uuid.UUID]*Client

	register   chan *Client
	unregister chan *Client

	mu sync.RWMutex

	// Контекст для graceful shutdown
	ctx    context.Context
	cancel context.CancelFunc
}

func NewHub() *Hub {
	ctx, cancel := context.WithCancel(context.Background())
	return &Hub{
		clients:     make(map[uuid.UUID]*Client),
		userClients: make(map[string]map[uuid.UUID]*Client),
		rooms:       make(map[string]map[uuid.UUID]*Client),
		register:    make(chan *Client),
		unregister:  make(chan *Client),
		ctx:         ctx,
		cancel:      cancel,
	}
}

// Run обслуживает регистрацию и снятие сессий
func (h *Hub) Run() {
	for {
		select {
		case <-h.ctx.Done():
			return

		case client := <-h.register:
			h.registerClient(client)

		case client := <-h.unregister:
			h.unregisterClient(client)
		}
	}
}

// Stop останавливает hub и закрывает все сессии
func (h *Hub) Stop() {
	h.cancel()

	h.mu.Lock()
	defer h.mu.Unlock()

	for _, client := range h.clients {
		client.close()
		if client.Conn != nil {
			client.Conn.Close()
		}
	}
	h.clients = make(map[uuid.UUID]*Client)
	h.userClients = make(map[string]map[uuid.UUID]*Client)
	h.rooms = make(map[string]map[uuid.UUID]*Client)
}

// Register регистрирует новую сессию
func (h *Hub) Register(client *Client) {
	select {
	case h.register <- client:
	case <-h.ctx.Done():
	}
}

// Unregister снимает сессию; очистку выполняет цикл Run
func (h *Hub) Unregister(client *Client) {
	select {
	case h.unregister <- client:
	case <-h.ctx.Done():
	}
}

func (h *Hub) registerClient(client *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.clients[client.ID] = client
	client.advance(StateAuthenticated)

	if _, ok := h.userClients[client.UserID]; !ok {
		h.userClients[client.UserID] = make(map[uuid.UUID]*Client)
	}
	h.userClients[client.UserID][client.ID] = client

	// Автовход в персональную комнату уведомлений
	h.joinRoomLocked(client, UserRoomKey(client.UserID))

	log.Printf("Client registered: %s (user: %s)", client.ID, client.UserID)
}

// unregisterClient атомарно (под мьютексом реестра) снимает сессию со
// всех комнат: параллельная рассылка либо видит сессию участником,
// либо не видит вовсе
func (h *Hub) unregisterClient(client *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if _, ok := h.clients[client.ID]; !ok {
		return
	}

	for _, roomKey := range client.JoinedRooms() {
		h.leaveRoomLocked(client, roomKey)
	}

	if userClients, ok := h.userClients[client.UserID]; ok {
		delete(userClients, client.ID)
		if len(userClients) == 0 {
			delete(h.userClients, client.UserID)
		}
	}

	delete(h.clients, client.ID)
	client.close()

	log.Printf("Client unregistered: %s (user: %s)", client.ID, client.UserID)
}

// JoinRoom добавляет сессию в комнату, создавая её при необходимости.
// Повторный join той же комнаты ничего не меняет; возвращает, было ли членство
// добавлено
func (h *Hub) JoinRoom(client *Client, roomKey string) bool {
	h.mu.Lock()
	defer h.mu.Unlock()

	return h.joinRoomLocked(client, roomKey)
}

func (h *Hub) joinRoomLocked(client *Client, roomKey string) bool {
	room, ok := h.rooms[roomKey]
	if !ok {
		room = make(map[uuid.UUID]*Client)
		h.rooms[roomKey] = room
	}

	if _, ok := room[client.ID]; ok {
		return false
	}

	room[client.ID] = client
	client.addRoom(roomKey)
	return true
}

// LeaveRoom удаляет сессию из комнаты
func (h *Hub) LeaveRoom(client *Client, roomKey string) {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.leaveRoomLocked(client, roomKey)
}

func (h *Hub) leaveRoomLocked(client *Client, roomKey string) {
	room, ok := h.rooms[roomKey]
	if !ok {
		return
	}

	if _, ok := room[client.ID]; !ok {
		return
	}

	delete(room, client.ID)
	client.removeRoom(roomKey)

	// Ленивая уборка пустой комнаты
	if len(room) == 0 {
		delete(h.rooms, roomKey)
	}
}

// SendToRoom доставляет сообщение каждой сессии в комнате ровно один
// раз; порядок между участниками не определён
func (h *Hub) SendToRoom(roomKey string, message []byte) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	room, ok := h.rooms[roomKey]
	if !ok {
		return
	}

	for _, client := range room {
		if err := client.deliver(message); err != nil {
			log.Printf("Drop message for client %s: %v", client.ID, err)
		}
	}
}

// SendToUser доставляет сообщение всем сессиям пользователя
func (h *Hub) SendToUser(userID string, message []byte) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	for _, client := range h.userClients[userID] {
		if err := client.deliver(message); err != nil {
			log.Printf("Drop message for client %s: %v", client.ID, err)
		}
	}
}

// Members возвращает id пользователей, чьи сессии сейчас в комнате
func (h *Hub) Members(roomKey string) []string {
	h.mu.RLock()
	defer h.mu.RUnlock()

	userSet := make(map[string]bool)
	for _, client := range h.rooms[roomKey] {
		userSet[client.UserID] = true
	}

	users := make([]string, 0, len(userSet))
	for userID := range userSet {
		users = append(users, userID)
	}
	return users
}

// HasRoom сообщает, существует ли комната в данный момент
func (h *Hub) HasRoom(roomKey string) bool {
	h.mu.RLock()
	defer h.mu.RUnlock()

	_, ok := h.rooms[roomKey]
	return ok
}

// OnlineUsers возвращает пользователей хотя бы с одной живой сессией
func (h *Hub) OnlineUsers() []string {
	h.mu.RLock()
	defer h.mu.RUnlock()

	users := make([]string, 0, len(h.userClients))
	for userID := range h.userClients {
		users = append(users, userID)
	}
	return users
}
