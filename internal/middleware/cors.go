package middleware

import (
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
)

// CORS открывает REST-поверхность настроенному фронтенд-origin.
// Пустое значение или "*" разрешает любой origin
func CORS(origin string) gin.HandlerFunc {
	config := cors.DefaultConfig()
	config.AllowHeaders = append(config.AllowHeaders, "Authorization")

	if origin == "" || origin == "*" {
		config.AllowAllOrigins = true
	} else {
		config.AllowOrigins = []string{origin}
	}

	return cors.New(config)
}
