package handlers

import (
	"encoding/json"
	"log"
	"strconv"
	"strings"
	"time"

	"github.com/avolkov/relay/internal/handlers/dto"
	"github.com/avolkov/relay/internal/models"
	"github.com/avolkov/relay/internal/services"
	ws "github.com/avolkov/relay/internal/websocket"
)

// EventRouter валидирует входящие события, штампует исходящие
// сообщения и рассылает их через реестр комнат. Отказ авторизации и
// пустой текст молча отбрасываются: клиенту не сообщается, существует
// ли адресат и есть ли у него права
type EventRouter struct {
	hub  *ws.Hub
	gate services.Gate
	sink services.MessageSink // может быть nil
}

func NewEventRouter(hub *ws.Hub, gate services.Gate, sink services.MessageSink) *EventRouter {
	return &EventRouter{hub: hub, gate: gate, sink: sink}
}

func (r *EventRouter) HandleEvent(client *ws.Client, ev *ws.Event) error {
	switch ev.Type {
	case ws.EventJoinDirect:
		return r.handleJoinDirect(client, ev)

	case ws.EventJoinGroup:
		return r.handleJoinGroup(client, ev)

	case ws.EventMessageDirect:
		return r.handleSendDirect(client, ev)

	case ws.EventMessageGroup:
		return r.handleSendGroup(client, ev)

	default:
		log.Printf("Unknown event type: %s", ev.Type)
		return nil
	}
}

func (r *EventRouter) handleJoinDirect(client *ws.Client, ev *ws.Event) error {
	var payload dto.JoinDirectPayload
	if err := json.Unmarshal(ev.Data, &payload); err != nil {
		return ws.ErrInvalidEvent
	}

	otherID := strings.TrimSpace(payload.OtherUserID)
	if otherID == "" {
		return nil
	}

	allowed, err := r.gate.CanChatDirect(client.Context(), client.UserID, otherID)
	if err != nil {
		return err
	}
	if !allowed {
		log.Printf("User %s not allowed to chat with %s", client.UserID, otherID)
		return nil
	}

	roomKey := ws.DirectRoomKey(client.UserID, otherID)
	r.hub.JoinRoom(client, roomKey)

	return client.SendEvent(ws.EventJoinedDirect, dto.JoinedPayload{RoomID: roomKey})
}

func (r *EventRouter) handleJoinGroup(client *ws.Client, ev *ws.Event) error {
	var payload dto.JoinGroupPayload
	if err := json.Unmarshal(ev.Data, &payload); err != nil {
		return ws.ErrInvalidEvent
	}

	groupID := strings.TrimSpace(payload.GroupID)
	if groupID == "" {
		return nil
	}

	allowed, err := r.gate.IsMemberOfGroup(client.Context(), client.UserID, groupID)
	if err != nil {
		return err
	}
	if !allowed {
		log.Printf("User %s not in group %s", client.UserID, groupID)
		return nil
	}

	roomKey := ws.GroupRoomKey(groupID)
	r.hub.JoinRoom(client, roomKey)

	return client.SendEvent(ws.EventJoinedGroup, dto.JoinedPayload{RoomID: roomKey})
}

func (r *EventRouter) handleSendDirect(client *ws.Client, ev *ws.Event) error {
	var payload dto.SendDirectPayload
	if err := json.Unmarshal(ev.Data, &payload); err != nil {
		return ws.ErrInvalidEvent
	}

	to := strings.TrimSpace(payload.To)
	text := strings.TrimSpace(payload.Text)
	if to == "" || text == "" {
		return nil
	}

	from := client.UserID

	allowed, err := r.gate.CanChatDirect(client.Context(), from, to)
	if err != nil {
		return err
	}
	if !allowed {
		return nil
	}

	roomKey := ws.DirectRoomKey(from, to)

	message := dto.DirectMessage{
		ID:      newMessageID(),
		Type:    "direct",
		ConvoID: roomKey,
		From:    from,
		To:      to,
		Text:    text,
		TS:      time.Now(),
	}

	data, err := marshalEvent(ws.EventMessageDirect, message)
	if err != nil {
		return err
	}
	r.hub.SendToRoom(roomKey, data)

	// Уведомляем все устройства получателя, даже не вошедшие в беседу
	notify, err := marshalEvent(ws.EventNotify, dto.Notification{
		From:    from,
		ConvoID: roomKey,
	})
	if err != nil {
		return err
	}
	r.hub.SendToUser(to, notify)

	r.archive(&models.ArchivedMessage{
		ID:      message.ID,
		Kind:    "direct",
		RoomKey: roomKey,
		FromID:  from,
		ToID:    to,
		Text:    text,
		SentAt:  message.TS,
	})

	return nil
}

func (r *EventRouter) handleSendGroup(client *ws.Client, ev *ws.Event) error {
	var payload dto.SendGroupPayload
	if err := json.Unmarshal(ev.Data, &payload); err != nil {
		return ws.ErrInvalidEvent
	}

	groupID := strings.TrimSpace(payload.GroupID)
	text := strings.TrimSpace(payload.Text)
	if groupID == "" || text == "" {
		return nil
	}

	from := client.UserID

	allowed, err := r.gate.IsMemberOfGroup(client.Context(), from, groupID)
	if err != nil {
		return err
	}
	if !allowed {
		return nil
	}

	roomKey := ws.GroupRoomKey(groupID)

	message := dto.GroupMessage{
		ID:      newMessageID(),
		Type:    "group",
		GroupID: groupID,
		From:    from,
		Text:    text,
		TS:      time.Now(),
	}

	data, err := marshalEvent(ws.EventMessageGroup, message)
	if err != nil {
		return err
	}
	r.hub.SendToRoom(roomKey, data)

	r.archive(&models.ArchivedMessage{
		ID:      message.ID,
		Kind:    "group",
		RoomKey: roomKey,
		FromID:  from,
		GroupID: groupID,
		Text:    text,
		SentAt:  message.TS,
	})

	return nil
}

// archive пишет сообщение в архив после рассылки; ошибка записи
// логируется и не влияет на доставку
func (r *EventRouter) archive(message *models.ArchivedMessage) {
	if r.sink == nil {
		return
	}

	go func() {
		if err := r.sink.ArchiveMessage(message); err != nil {
			log.Printf("Failed to archive message %s: %v", message.ID, err)
		}
	}()
}

// newMessageID выдаёт миллисекунды эпохи в base36: локально уникально
// и монотонно различимо
func newMessageID() string {
	return strconv.FormatInt(time.Now().UnixMilli(), 36)
}

func marshalEvent(eventType ws.EventType, payload interface{}) ([]byte, error) {
	ev, err := ws.NewEvent(eventType, payload)
	if err != nil {
		return nil, err
	}
	return json.Marshal(ev)
}
