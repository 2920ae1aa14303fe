package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/avolkov/relay/internal/database"
	"github.com/avolkov/relay/internal/middleware"
	"github.com/avolkov/relay/internal/models"
)

// GroupHandler управляет группами и их членством, тем самым стором,
// который Gate опрашивает на каждом join/send
type GroupHandler struct {
	db *database.Database
}

func NewGroupHandler(db *database.Database) *GroupHandler {
	return &GroupHandler{db: db}
}

// CreateGroup создает новую группу; создатель сразу участник
func (h *GroupHandler) CreateGroup(c *gin.Context) {
	userID := c.MustGet(middleware.UserIDKey).(string)

	var req struct {
		ID   string `json:"id"`
		Name string `json:"name" binding:"required"`
	}

	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	groupID := req.ID
	if groupID == "" {
		groupID = uuid.NewString()
	}

	group := &models.Group{
		ID:        groupID,
		Name:      req.Name,
		CreatedBy: userID,
		CreatedAt: time.Now(),
	}

	if err := h.db.CreateGroup(group); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to create group"})
		return
	}

	c.JSON(http.StatusCreated, gin.H{"id": group.ID, "name": group.Name})
}

// AddMember добавляет пользователя в группу
func (h *GroupHandler) AddMember(c *gin.Context) {
	userID := c.MustGet(middleware.UserIDKey).(string)
	groupID := c.Param("id")

	var req struct {
		UserID string `json:"user_id" binding:"required"`
	}

	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	// Добавлять может только действующий участник
	isMember, err := h.db.IsGroupMember(groupID, userID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to check membership"})
		return
	}
	if !isMember {
		c.JSON(http.StatusForbidden, gin.H{"error": "not a group member"})
		return
	}

	if err := h.db.AddGroupMember(groupID, req.UserID); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to add member"})
		return
	}

	c.Status(http.StatusOK)
}

// RemoveMember исключает пользователя из группы; выйти самому можно
// всегда, исключить другого может только создатель
func (h *GroupHandler) RemoveMember(c *gin.Context) {
	userID := c.MustGet(middleware.UserIDKey).(string)
	groupID := c.Param("id")
	targetID := c.Param("userId")

	if targetID != userID {
		group, err := h.db.GetGroup(groupID)
		if err != nil {
			c.JSON(http.StatusNotFound, gin.H{"error": "group not found"})
			return
		}
		if group.CreatedBy != userID {
			c.JSON(http.StatusForbidden, gin.H{"error": "only creator can remove members"})
			return
		}
	}

	if err := h.db.RemoveGroupMember(groupID, targetID); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to remove member"})
		return
	}

	c.Status(http.StatusOK)
}

// GetMyGroups возвращает группы пользователя
func (h *GroupHandler) GetMyGroups(c *gin.Context) {
	userID := c.MustGet(middleware.UserIDKey).(string)

	groups, err := h.db.GetUserGroups(userID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to get groups"})
		return
	}

	resp := make([]gin.H, len(groups))
	for i, group := range groups {
		resp[i] = gin.H{
			"id":         group.ID,
			"name":       group.Name,
			"created_by": group.CreatedBy,
			"created_at": group.CreatedAt,
		}
	}

	c.JSON(http.StatusOK, gin.H{"groups": resp})
}
