package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-redis/redis/v8"
	"github.com/joho/godotenv"

	"github.com/avolkov/relay/internal/database"
	"github.com/avolkov/relay/internal/handlers"
	"github.com/avolkov/relay/internal/services"
	ws "github.com/avolkov/relay/internal/websocket"
	"github.com/avolkov/relay/pkg/auth"
)

type Server struct {
	Router     *gin.Engine
	DB         *database.Database
	Redis      *redis.Client
	JWTManager *auth.JWTManager
	Hub        *ws.Hub
}

func NewServer() *Server {
	if err := godotenv.Load(".env.local"); err != nil {
		if err := godotenv.Load(); err != nil {
			log.Println(".env not found, using environment variables")
		}
	}

	dbConn := &database.Database{}
	if err := dbConn.Connect(); err != nil {
		log.Fatalf("Postgres connect failed: %v", err)
	}

	redisOpts, err := redis.ParseURL(os.Getenv("REDIS_URL"))
	if err != nil {
		log.Fatalf("invalid REDIS_URL: %v", err)
	}
	rdb := redis.NewClient(redisOpts)
	if err := rdb.Ping(context.Background()).Err(); err != nil {
		log.Fatalf("Redis connect failed: %v", err)
	}

	jwtMgr := auth.NewJWTManager(
		os.Getenv("JWT_SECRET"),
		24*time.Hour,
	)

	hub := ws.NewHub()
	gate := services.NewStoreGate(dbConn, rdb)
	eventRouter := handlers.NewEventRouter(hub, gate, dbConn)

	allowedOrigin := os.Getenv("ALLOWED_ORIGIN")

	authH := handlers.NewAuthHandler(dbConn, jwtMgr, rdb)
	groupH := handlers.NewGroupHandler(dbConn)
	userH := handlers.NewUserHandler(dbConn, rdb, hub)
	wsH := handlers.NewWebSocketHandler(hub, eventRouter, allowedOrigin)

	router := gin.Default()
	APIEndpoints(router, allowedOrigin, jwtMgr, rdb, authH, groupH, userH, wsH)

	return &Server{
		Router:     router,
		DB:         dbConn,
		Redis:      rdb,
		JWTManager: jwtMgr,
		Hub:        hub,
	}
}

// Run запускает hub и HTTP-сервер, останавливает их по SIGINT/SIGTERM
func (s *Server) Run() {
	go s.Hub.Run()

	port := os.Getenv("PORT")
	if port == "" {
		port = "5000"
	}

	httpServer := &http.Server{
		Addr:    ":" + port,
		Handler: s.Router,
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	go func() {
		log.Printf("Relay server listening on :%s", port)
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("HTTP server failed: %v", err)
		}
	}()

	<-ctx.Done()
	log.Println("Shutting down...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		log.Printf("HTTP shutdown: %v", err)
	}
	s.Hub.Stop()
}
