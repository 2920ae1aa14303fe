package main

import (
	"github.com/gin-gonic/gin"
	"github.com/go-redis/redis/v8"

	"github.com/avolkov/relay/internal/handlers"
	"github.com/avolkov/relay/internal/middleware"
	"github.com/avolkov/relay/pkg/auth"
)

func APIEndpoints(
	r *gin.Engine,
	allowedOrigin string,
	jwtMgr *auth.JWTManager,
	rdb *redis.Client,
	authH *handlers.AuthHandler,
	groupH *handlers.GroupHandler,
	userH *handlers.UserHandler,
	wsH *handlers.WebSocketHandler,
) {
	r.Use(middleware.CORS(allowedOrigin))

	// Auth endpoints
	authGroup := r.Group("/auth")
	{
		authGroup.POST("/register", authH.Register)
		authGroup.POST("/login", authH.Login)
		authGroup.POST("/logout", middleware.AuthMiddleware(jwtMgr, rdb), authH.Logout)
	}

	// API endpoints
	api := r.Group("/api/v1", middleware.AuthMiddleware(jwtMgr, rdb))
	{
		api.GET("/users/me", userH.GetMe)
		api.GET("/users/online", userH.GetOnline)
		api.GET("/users/me/blocked", userH.GetBlocked)
		api.POST("/users/:userId/block", userH.BlockUser)
		api.DELETE("/users/:userId/block", userH.UnblockUser)

		api.POST("/groups", groupH.CreateGroup)
		api.GET("/groups", groupH.GetMyGroups)
		api.POST("/groups/:id/members", groupH.AddMember)
		api.DELETE("/groups/:id/members/:userId", groupH.RemoveMember)
	}

	// WebSocket endpoint
	r.GET("/ws", middleware.WSIdentityMiddleware(jwtMgr, rdb), wsH.HandleWebSocket)
}
