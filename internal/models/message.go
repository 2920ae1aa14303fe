package models

import (
	"time"
)

// ArchivedMessage хранит копию доставленного сообщения для write-behind
// архива. Пишется после рассылки и никогда не является условием доставки
type ArchivedMessage struct {
	ID      string `gorm:"primaryKey"`
	Kind    string `gorm:"not null;check:kind IN ('direct','group')"`
	RoomKey string `gorm:"index;not null"`
	FromID  string `gorm:"not null"`
	ToID    string
	GroupID string
	Text    string `gorm:"not null"`
	SentAt  time.Time
}
