package database

import (
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/avolkov/relay/internal/models"
)

func (d *Database) CreateGroup(group *models.Group) error {
	return d.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(group).Error; err != nil {
			return err
		}
		// Создатель сразу становится участником
		member := models.GroupMember{
			GroupID:  group.ID,
			UserID:   group.CreatedBy,
			JoinedAt: time.Now(),
		}
		return tx.Create(&member).Error
	})
}

func (d *Database) GetGroup(id string) (*models.Group, error) {
	var group models.Group
	if err := d.db.Preload("Members").First(&group, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &group, nil
}

func (d *Database) AddGroupMember(groupID, userID string) error {
	if err := d.db.First(&models.Group{}, "id = ?", groupID).Error; err != nil {
		return err
	}

	member := models.GroupMember{
		GroupID:  groupID,
		UserID:   userID,
		JoinedAt: time.Now(),
	}

	// Повторное добавление не считаем ошибкой
	return d.db.Clauses(clause.OnConflict{DoNothing: true}).Create(&member).Error
}

func (d *Database) RemoveGroupMember(groupID, userID string) error {
	return d.db.Delete(&models.GroupMember{}, "group_id = ? AND user_id = ?", groupID, userID).Error
}

// IsGroupMember опрашивается Gate на каждом join/send, без кэширования
func (d *Database) IsGroupMember(groupID, userID string) (bool, error) {
	var count int64
	err := d.db.Model(&models.GroupMember{}).
		Where("group_id = ? AND user_id = ?", groupID, userID).
		Count(&count).Error
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

func (d *Database) GetUserGroups(userID string) ([]models.Group, error) {
	var ids []string
	err := d.db.Model(&models.GroupMember{}).
		Where("user_id = ?", userID).
		Pluck("group_id", &ids).Error
	if err != nil {
		return nil, err
	}
	if len(ids) == 0 {
		return []models.Group{}, nil
	}

	var groups []models.Group
	err = d.db.Where("id IN ?", ids).Find(&groups).Error
	return groups, err
}
