package router

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"

	"clarity-gateway/internal/handlers"
	"clarity-gateway/internal/middleware"
	"clarity-gateway/internal/websocket"
)

func New(
	jwtAuth *middleware.JWTAuth,
	authHandler *handlers.AuthHandler,
	chatHandler *handlers.ChatHandler,
	wsHub *websocket.Hub,
	frontendURL string,
) http.Handler {
	r := chi.NewRouter()

	// Global middleware
	r.Use(chimiddleware.Logger)
	r.Use(chimiddleware.Recoverer)
	r.Use(chimiddleware.RealIP)
	r.Use(middleware.RequestID)
	r.Use(middleware.CORS(frontendURL))
	r.Use(middleware.ClientID)

	// Auth rate limiter (10 req/min per IP)
	authLimiter := middleware.NewRateLimiter(10, time.Minute)

	// Health check
	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"status":"ok"}`))
	})

	r.Route("/api/v1", func(r chi.Router) {

		// ──── Auth Routes ────
		r.Route("/auth", func(r chi.Router) {
			r.Use(authLimiter.Middleware)
			r.Post("/signup", authHandler.Signup)
			r.Post("/login", authHandler.Login)
			r.Post("/logout", authHandler.Logout)
		})

		// ──── Chat Routes ────
		r.Route("/chat", func(r chi.Router) {
			// Anonymous and authenticated clients share the send path;
			// a present token routes exchanges to the backend instead
			// of the local buffer.
			r.Group(func(r chi.Router) {
				r.Use(jwtAuth.OptionalAuth)
				r.Post("/send", chatHandler.Send)
				r.Post("/new", chatHandler.NewChat)
				r.Get("/skills", chatHandler.Skills)
			})

			r.Group(func(r chi.Router) {
				r.Use(jwtAuth.RequireAuth)
				r.Get("/history", chatHandler.History)
				r.Get("/current", chatHandler.Current)
				r.Post("/select/{id}", chatHandler.Select)
				r.Get("/message/{id}", chatHandler.MessageDetail)
			})
		})

		// ──── WebSocket ────
		r.Get("/ws", wsHub.HandleWebSocket)
	})

	return r
}
