package services

import "github.com/avolkov/relay/internal/models"

// MessageSink описывает необязательный write-behind архив доставленных
// сообщений. Реализуется database.Database
type MessageSink interface {
	ArchiveMessage(message *models.ArchivedMessage) error
}
