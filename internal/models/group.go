package models

import (
	"time"
)

// Group описывает групповую беседу. ID задаётся извне,
// он же входит в ключ комнаты group:<id>
type Group struct {
	ID        string `gorm:"primaryKey"`
	Name      string `gorm:"not null"`
	CreatedBy string `gorm:"not null"`
	CreatedAt time.Time

	Members []GroupMember `gorm:"foreignKey:GroupID"`
}

// GroupMember хранит членство в группе; таблицу опрашивает Gate
// на каждом join и каждом send
type GroupMember struct {
	GroupID  string `gorm:"primaryKey"`
	UserID   string `gorm:"primaryKey"`
	JoinedAt time.Time
}
