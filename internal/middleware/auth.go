package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/go-redis/redis/v8"

	"github.com/avolkov/relay/pkg/auth"
)

const UserIDKey = "userID"

// AuthMiddleware проверяет JWT токен на REST-маршрутах
func AuthMiddleware(jwtManager *auth.JWTManager, redisClient *redis.Client) gin.HandlerFunc {
	return func(c *gin.Context) {
		token, err := auth.ExtractTokenFromHeader(c.Request)
		if err != nil {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "missing or invalid token"})
			c.Abort()
			return
		}

		userID, ok := resolveToken(c.Request.Context(), token, jwtManager, redisClient)
		if !ok {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid token"})
			c.Abort()
			return
		}

		c.Set(UserIDKey, userID)
		c.Next()
	}
}

// WSIdentityMiddleware извлекает заявленную личность пользователя из
// рукопожатия до апгрейда соединения. Принимает либо JWT (query-параметр
// token или Authorization header), либо голый user_id; последний
// доверяется как есть и больше не перепроверяется за время жизни
// соединения. При отсутствии личности соединение отклоняется
func WSIdentityMiddleware(jwtManager *auth.JWTManager, redisClient *redis.Client) gin.HandlerFunc {
	return func(c *gin.Context) {
		token := c.Query("token")
		if token == "" {
			authHeader := c.GetHeader("Authorization")
			if authHeader != "" {
				parts := strings.SplitN(authHeader, " ", 2)
				if len(parts) == 2 && strings.ToLower(parts[0]) == "bearer" {
					token = parts[1]
				}
			}
		}

		if token != "" {
			userID, ok := resolveToken(c.Request.Context(), token, jwtManager, redisClient)
			if !ok {
				c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid token"})
				c.Abort()
				return
			}
			c.Set(UserIDKey, userID)
			c.Next()
			return
		}

		userID := strings.TrimSpace(c.Query("user_id"))
		if userID == "" {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
			c.Abort()
			return
		}

		c.Set(UserIDKey, userID)
		c.Next()
	}
}

func resolveToken(ctx context.Context, token string, jwtManager *auth.JWTManager, redisClient *redis.Client) (string, bool) {
	// Проверяем, не в черном списке ли токен
	if redisClient != nil {
		exists, err := redisClient.Exists(ctx, "blacklist:"+token).Result()
		if err != nil || exists > 0 {
			return "", false
		}
	}

	claims, err := jwtManager.Verify(token)
	if err != nil {
		return "", false
	}

	if claims.Subject == "" {
		return "", false
	}

	return claims.Subject, true
}
