package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/go-redis/redis/v8"

	"github.com/avolkov/relay/internal/database"
	"github.com/avolkov/relay/internal/middleware"
	"github.com/avolkov/relay/internal/services"
	ws "github.com/avolkov/relay/internal/websocket"
)

type UserHandler struct {
	db    *database.Database
	redis *redis.Client
	hub   *ws.Hub
}

func NewUserHandler(db *database.Database, rdb *redis.Client, hub *ws.Hub) *UserHandler {
	return &UserHandler{db: db, redis: rdb, hub: hub}
}

// GetOnline возвращает пользователей хотя бы с одной живой сессией
func (h *UserHandler) GetOnline(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"users": h.hub.OnlineUsers()})
}

// GetMe возвращает информацию о текущем пользователе
func (h *UserHandler) GetMe(c *gin.Context) {
	userID := c.MustGet(middleware.UserIDKey).(string)

	user, err := h.db.GetUser(userID)
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "user not found"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"id":           user.ID,
		"username":     user.Username,
		"email":        user.Email,
		"created_at":   user.CreatedAt,
		"last_seen_at": user.LastSeenAt,
	})
}

// BlockUser добавляет пользователя в блок-лист; после этого Gate
// запрещает обоим личную переписку
func (h *UserHandler) BlockUser(c *gin.Context) {
	userID := c.MustGet(middleware.UserIDKey).(string)
	targetID := c.Param("userId")

	if targetID == userID {
		c.JSON(http.StatusBadRequest, gin.H{"error": "cannot block yourself"})
		return
	}

	if err := h.redis.SAdd(c.Request.Context(), services.BlockedKey(userID), targetID).Err(); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to block user"})
		return
	}

	c.Status(http.StatusOK)
}

// UnblockUser убирает пользователя из блок-листа
func (h *UserHandler) UnblockUser(c *gin.Context) {
	userID := c.MustGet(middleware.UserIDKey).(string)
	targetID := c.Param("userId")

	if err := h.redis.SRem(c.Request.Context(), services.BlockedKey(userID), targetID).Err(); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to unblock user"})
		return
	}

	c.Status(http.StatusOK)
}

// GetBlocked возвращает блок-лист текущего пользователя
func (h *UserHandler) GetBlocked(c *gin.Context) {
	userID := c.MustGet(middleware.UserIDKey).(string)

	blocked, err := h.redis.SMembers(c.Request.Context(), services.BlockedKey(userID)).Result()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to get block list"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"blocked": blocked})
}
