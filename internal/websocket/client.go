package websocket

import (
	"context"
	"encoding/json"
	"log"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
)

const (
	// Время ожидания записи
	writeWait = 10 * time.Second

	// Время ожидания pong от клиента
	pongWait = 60 * time.Second

	// Интервал отправки ping
	pingPeriod = (pongWait * 9) / 10

	// Максимальный размер сообщения
	maxMessageSize = 64 * 1024 // 64KB
)

// State кодирует состояние сессии. Переходы только вперёд:
// Connecting -> Authenticated -> Active -> Closed
type State int

const (
	StateConnecting State = iota
	StateAuthenticated
	StateActive
	StateClosed
)

// Client хранит серверную сессию одного живого соединения. Ровно один
// пользователь на сессию; у пользователя может быть несколько сессий
type Client struct {
	ID     uuid.UUID
	UserID string
	Conn   *websocket.Conn
	Send   chan []byte
	Hub    *Hub

	mu    sync.RWMutex
	rooms map[string]bool
	state State

	// ctx живёт ровно столько, сколько сессия; отменяется в close
	ctx    context.Context
	cancel context.CancelFunc
}

func NewClient(hub *Hub, conn *websocket.Conn, userID string) *Client {
	ctx, cancel := context.WithCancel(context.Background())
	return &Client{
		ID:     uuid.New(),
		UserID: userID,
		Conn:   conn,
		Send:   make(chan []byte, 256),
		Hub:    hub,
		rooms:  make(map[string]bool),
		state:  StateConnecting,
		ctx:    ctx,
		cancel: cancel,
	}
}

func (c *Client) State() State {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.state
}

// Context отменяется при закрытии сессии; передаётся во внешние
// проверки, чтобы они не переживали соединение
func (c *Client) Context() context.Context {
	return c.ctx
}

// advance двигает состояние только вперёд; терминальное состояние
// устанавливает исключительно close
func (c *Client) advance(s State) {
	c.mu.Lock()
	if c.state < s && s != StateClosed {
		c.state = s
	}
	c.mu.Unlock()
}

func (c *Client) IsInRoom(roomKey string) bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.rooms[roomKey]
}

func (c *Client) JoinedRooms() []string {
	c.mu.RLock()
	defer c.mu.RUnlock()

	rooms := make([]string, 0, len(c.rooms))
	for roomKey := range c.rooms {
		rooms = append(rooms, roomKey)
	}
	return rooms
}

func (c *Client) addRoom(roomKey string) {
	c.mu.Lock()
	c.rooms[roomKey] = true
	c.mu.Unlock()
}

func (c *Client) removeRoom(roomKey string) {
	c.mu.Lock()
	delete(c.rooms, roomKey)
	c.mu.Unlock()
}

// deliver кладёт сообщение в очередь отправки без блокировки.
// Доставка закрывающейся сессии считается допустимым best-effort отказом
func (c *Client) deliver(message []byte) error {
	c.mu.RLock()
	defer c.mu.RUnlock()

	if c.state == StateClosed {
		return ErrClientClosed
	}

	select {
	case c.Send <- message:
		return nil
	default:
		return ErrClientQueueFull
	}
}

// close переводит сессию в терминальное состояние и закрывает очередь.
// Повторный вызов безопасен
func (c *Client) close() {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.state == StateClosed {
		return
	}
	c.state = StateClosed
	c.cancel()
	close(c.Send)
}

// SendEvent сериализует событие и отправляет его клиенту
func (c *Client) SendEvent(eventType EventType, payload interface{}) error {
	ev, err := NewEvent(eventType, payload)
	if err != nil {
		return err
	}

	data, err := json.Marshal(ev)
	if err != nil {
		return err
	}

	return c.deliver(data)
}

// ReadPump читает события от клиента и передаёт их обработчику.
// Завершение цикла по любой причине ведёт к одному и тому же пути
// очистки: unregister снимает сессию со всех комнат
func (c *Client) ReadPump(handler EventHandler) {
	defer func() {
		c.Hub.Unregister(c)
		c.Conn.Close()
	}()

	c.advance(StateActive)

	c.Conn.SetReadLimit(maxMessageSize)
	c.Conn.SetReadDeadline(time.Now().Add(pongWait))
	c.Conn.SetPongHandler(func(string) error {
		c.Conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		var ev Event
		err := c.Conn.ReadJSON(&ev)
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				log.Printf("WebSocket error: %v", err)
			}
			break
		}

		if ev.Type == EventPong {
			continue
		}

		if handler != nil {
			if err := handler.HandleEvent(c, &ev); err != nil {
				// Ошибка обработки одного события не роняет сессию
				// и не эхо-ответится клиенту
				log.Printf("Error handling %s from user %s: %v", ev.Type, c.UserID, err)
			}
		}
	}
}

// WritePump отправляет сообщения клиенту и поддерживает ping
func (c *Client) WritePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.Conn.Close()
	}()

	for {
		select {
		case message, ok := <-c.Send:
			c.Conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				// Hub закрыл канал
				c.Conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}

			if err := c.Conn.WriteMessage(websocket.TextMessage, message); err != nil {
				return
			}

		case <-ticker.C:
			c.Conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.Conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
