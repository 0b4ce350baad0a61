package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/isdelr/replydesk/internal/api/handlers"
	"github.com/isdelr/replydesk/internal/api/ratelimit"
	"github.com/isdelr/replydesk/internal/auth"
	"github.com/isdelr/replydesk/internal/logger"
	"github.com/isdelr/replydesk/internal/metrics"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Dependencies are the collaborators the router wires into handlers.
type Dependencies struct {
	Users       *handlers.AuthHandler
	Business    *handlers.BusinessHandler
	Chat        *handlers.ChatHandler
	WebSocket   *handlers.WebSocketHandler
	Health      *handlers.HealthHandler
	Tokens      auth.TokenValidator
	AuthLimiter *ratelimit.Limiter
	CORSOrigins []string
}

// NewRouter creates and configures a new Chi router.
func NewRouter(deps Dependencies) *chi.Mux {
	r := chi.NewRouter()

	// Basic middleware stack
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(logger.RequestLogger)
	r.Use(middleware.Recoverer)
	r.Use(metrics.HTTPMetricsMiddleware)

	origins := deps.CORSOrigins
	if len(origins) == 0 {
		origins = []string{"*"}
	}
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: origins,
		AllowedMethods: []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Authorization", "Content-Type", "X-Request-Id"},
		ExposedHeaders: []string{"X-Request-Id"},
		// Tokens travel in headers, never cookies.
		AllowCredentials: false,
		MaxAge:           300,
	}))

	r.Get("/healthz", deps.Health.Healthz)
	r.Get("/readyz", deps.Health.Readyz)
	r.Get("/status", deps.Health.Status)
	r.Method(http.MethodGet, "/metrics", promhttp.Handler())

	r.Group(func(r chi.Router) { mountAPI(r, deps) })
	r.Route("/api/v1", func(r chi.Router) { mountAPI(r, deps) })

	return r
}

func mountAPI(r chi.Router, deps Dependencies) {
	r.Group(func(r chi.Router) {
		if deps.AuthLimiter != nil {
			r.Use(deps.AuthLimiter.Handler(handlers.WriteError))
		}
		r.Post("/signup", deps.Users.Signup)
		r.Post("/login", deps.Users.Login)
	})

	r.Group(func(r chi.Router) {
		r.Use(auth.JWTMiddleware(deps.Tokens, false, handlers.WriteError))
		r.Get("/me", deps.Users.Me)
		r.Post("/train-business", deps.Business.Train)
		r.Get("/business", deps.Business.Get)
		r.Post("/chat", deps.Chat.Chat)
		r.Get("/chat/history", deps.Chat.History)
	})

	// Browsers cannot set headers on a websocket handshake.
	r.With(auth.JWTMiddleware(deps.Tokens, true, handlers.WriteError)).Get("/ws", deps.WebSocket.Serve)
}
