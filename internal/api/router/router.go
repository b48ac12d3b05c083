package router

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	httpmiddleware "github.com/rishimehra/portfolio-api/internal/http/middleware"
	"github.com/rishimehra/portfolio-api/internal/leads"
	"github.com/rishimehra/portfolio-api/internal/notify"
	"github.com/rishimehra/portfolio-api/pkg/logging"
)

// Config holds router configuration
type Config struct {
	Logger         *logging.Logger
	LeadsHandler   *leads.Handler
	NotifyHandler  *notify.Handler
	MetricsHandler http.Handler

	CORSAllowedOrigins []string
	// RateLimiter guards /api/*; nil disables limiting.
	RateLimiter *httpmiddleware.RateLimiter
}

// New creates a new Chi router with all routes configured
func New(cfg *Config) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(httpmiddleware.RequestLogger(cfg.Logger))
	r.Use(middleware.Recoverer)
	r.Use(middleware.Compress(5))
	if len(cfg.CORSAllowedOrigins) > 0 {
		r.Use(httpmiddleware.CORS(cfg.CORSAllowedOrigins))
	}

	r.Get("/health", health)
	if cfg.MetricsHandler != nil {
		r.Handle("/metrics", cfg.MetricsHandler)
	}

	r.Route("/api", func(api chi.Router) {
		if cfg.RateLimiter != nil {
			api.Use(httpmiddleware.RateLimit(cfg.RateLimiter))
		}
		// Registered for every method: the handlers answer non-POST
		// requests with their own JSON 405.
		if cfg.LeadsHandler != nil {
			api.HandleFunc("/leadform", cfg.LeadsHandler.SubmitLead)
		}
		if cfg.NotifyHandler != nil {
			api.HandleFunc("/send-email", cfg.NotifyHandler.SendFailureEmail)
		}
	})

	return r
}

func health(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(map[string]string{"status": "ok"})
}
