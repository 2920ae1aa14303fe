package websocket

import "encoding/json"

// EventType определяет закрытый набор событий протокола
type EventType string

const (
	// Входящие события (клиент -> сервер)
	EventJoinDirect    EventType = "join:direct"
	EventJoinGroup     EventType = "join:group"
	EventMessageDirect EventType = "message:direct"
	EventMessageGroup  EventType = "message:group"

	// Исходящие события (сервер -> клиент)
	EventJoinedDirect EventType = "joined:direct"
	EventJoinedGroup  EventType = "joined:group"
	EventNotify       EventType = "notify:new-message"

	// Служебные
	EventPong EventType = "pong"
)

// Event задаёт конверт протокола: тег события и полезная нагрузка
type Event struct {
	Type EventType       `json:"event"`
	Data json.RawMessage `json:"data,omitempty"`
}

// NewEvent собирает событие с сериализованной нагрузкой
func NewEvent(eventType EventType, payload interface{}) (*Event, error) {
	ev := &Event{Type: eventType}
	if payload != nil {
		data, err := json.Marshal(payload)
		if err != nil {
			return nil, err
		}
		ev.Data = data
	}
	return ev, nil
}

// EventHandler получает события сессии из читающего цикла
type EventHandler interface {
	HandleEvent(client *Client, ev *Event) error
}
