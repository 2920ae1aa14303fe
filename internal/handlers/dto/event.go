package dto

import "time"

// Входящие нагрузки событий

type JoinDirectPayload struct {
	OtherUserID string `json:"otherUserId"`
}

type JoinGroupPayload struct {
	GroupID string `json:"groupId"`
}

type SendDirectPayload struct {
	To   string `json:"to"`
	Text string `json:"text"`
}

type SendGroupPayload struct {
	GroupID string `json:"groupId"`
	Text    string `json:"text"`
}

// Исходящие нагрузки событий

type JoinedPayload struct {
	RoomID string `json:"roomId"`
}

// DirectMessage описывает сообщение личной беседы. Неизменяемо после сборки
type DirectMessage struct {
	ID      string    `json:"id"`
	Type    string    `json:"type"`
	ConvoID string    `json:"convoId"`
	From    string    `json:"from"`
	To      string    `json:"to"`
	Text    string    `json:"text"`
	TS      time.Time `json:"ts"`
}

// GroupMessage описывает сообщение групповой беседы
type GroupMessage struct {
	ID      string    `json:"id"`
	Type    string    `json:"type"`
	GroupID string    `json:"groupId"`
	From    string    `json:"from"`
	Text    string    `json:"text"`
	TS      time.Time `json:"ts"`
}

// Notification шлётся в персональную комнату получателя:
// только отправитель и ключ беседы, без текста
type Notification struct {
	From    string `json:"from"`
	ConvoID string `json:"convoId"`
}
