package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"clarity-gateway/internal/config"
	"clarity-gateway/internal/database"
	"clarity-gateway/internal/handlers"
	"clarity-gateway/internal/middleware"
	"clarity-gateway/internal/router"
	"clarity-gateway/internal/services"
	"clarity-gateway/internal/session"
	"clarity-gateway/internal/store"
	"clarity-gateway/internal/websocket"
	"clarity-gateway/internal/worker"
)

func main() {
	log.Println("🚀 Starting Clarity Gateway...")

	// ──── Step 1: Load Environment Variables ────
	cfg := config.Load()
	log.Println("✓ Environment variables loaded")

	// ──── Step 2: Initialize Redis Clients ────
	redisClients, err := database.NewRedisClients(cfg.RedisURL)
	if err != nil {
		log.Fatalf("✗ Redis connection failed: %v", err)
	}
	defer redisClients.Close()
	log.Println("✓ Redis connected")

	// ──── Step 3: Initialize Collaborator Clients ────
	timeout := time.Duration(cfg.RequestTimeoutSeconds) * time.Second
	amigoService := services.NewAmigoService(cfg.AmigoAPIURL, timeout)
	chatStoreService := services.NewChatStoreService(cfg.ChatAPIURL, timeout)
	authService := services.NewAuthService(cfg.ChatAPIURL, timeout)
	learningService := services.NewLearningService(cfg.LearningAPIURL, timeout)
	log.Println("✓ Collaborator clients initialized")

	// ──── Step 4: Start WebSocket Hub ────
	wsHub := websocket.NewHub(redisClients.PubSub)
	log.Println("✓ WebSocket hub started")

	// ──── Step 5: Initialize Session Registry ────
	bufferStore := store.NewRedisStore(redisClients.Queue)
	registry := session.NewRegistry(bufferStore, chatStoreService, wsHub)
	log.Println("✓ Session registry initialized")

	// ──── Step 6: Start Learning-Item Worker Pool ────
	workerPool := worker.NewPool(redisClients.Queue, learningService, cfg.WorkerCount)
	workerPool.Start()
	log.Printf("✓ Worker pool started (%d goroutines)", cfg.WorkerCount)

	// ──── Step 7: Initialize Handlers ────
	jwtAuth := middleware.NewJWTAuth(cfg.JWTSecret)
	authHandler := handlers.NewAuthHandler(authService, registry)
	chatHandler := handlers.NewChatHandler(registry, amigoService, chatStoreService, workerPool)

	// ──── Step 8: Start HTTP Server ────
	r := router.New(jwtAuth, authHandler, chatHandler, wsHub, cfg.FrontendURL)

	server := &http.Server{
		Addr:         fmt.Sprintf(":%s", cfg.Port),
		Handler:      r,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Graceful shutdown
	go func() {
		sigChan := make(chan os.Signal, 1)
		signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
		<-sigChan

		log.Println("Shutting down...")
		workerPool.Stop()

		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		server.Shutdown(ctx)
	}()

	log.Printf("✓ Clarity Gateway ready on http://localhost:%s", cfg.Port)
	log.Printf("  API: http://localhost:%s/api/v1", cfg.Port)
	log.Printf("  WS:  ws://localhost:%s/api/v1/ws", cfg.Port)

	if err := server.ListenAndServe(); err != http.ErrServerClosed {
		log.Fatalf("✗ Server failed: %v", err)
	}
}
