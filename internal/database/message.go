package database

import (
	"github.com/avolkov/relay/internal/models"
)

// ArchiveMessage сохраняет доставленное сообщение. Вызывается после
// рассылки, ошибка записи не влияет на доставку
func (d *Database) ArchiveMessage(message *models.ArchivedMessage) error {
	return d.db.Create(message).Error
}
