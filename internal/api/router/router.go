package router

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/leadboard/leadboard/internal/chat"
	"github.com/leadboard/leadboard/internal/conversations"
	httpmiddleware "github.com/leadboard/leadboard/internal/http/middleware"
	"github.com/leadboard/leadboard/internal/leads"
	"github.com/leadboard/leadboard/internal/users"
	"github.com/leadboard/leadboard/pkg/logging"
)

// Config holds router configuration.
type Config struct {
	Logger               *logging.Logger
	LeadsHandler         *leads.Handler
	UsersHandler         *users.Handler
	ChatHandler          *chat.Handler
	ConversationsHandler *conversations.Handler
	SessionSecret        string
	MetricsHandler       http.Handler
	CORSAllowedOrigins   []string
	RateLimitPerSecond   float64
	RateLimitBurst       int
}

// New creates a Chi router with all routes configured.
func New(cfg *Config) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Compress(5))
	if len(cfg.CORSAllowedOrigins) > 0 {
		r.Use(httpmiddleware.CORS(cfg.CORSAllowedOrigins))
	}
	if cfg.Logger != nil {
		r.Use(httpmiddleware.RequestLogger(cfg.Logger))
	}
	if cfg.RateLimitPerSecond > 0 {
		r.Use(httpmiddleware.RateLimit(cfg.RateLimitPerSecond, cfg.RateLimitBurst))
	}

	// Public endpoints
	r.Group(func(public chi.Router) {
		public.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusOK)
			_, _ = w.Write([]byte(`{"status":"ok"}`))
		})
		if cfg.MetricsHandler != nil {
			public.Handle("/metrics", cfg.MetricsHandler)
		}
		if cfg.UsersHandler != nil {
			public.Post("/auth/login", cfg.UsersHandler.Login)
		}
	})

	// Session-scoped endpoints
	r.Group(func(private chi.Router) {
		private.Use(httpmiddleware.RequireSession(cfg.SessionSecret))

		if cfg.UsersHandler != nil {
			private.Post("/auth/logout", cfg.UsersHandler.Logout)
			private.Get("/auth/user", cfg.UsersHandler.CurrentUser)
		}

		if cfg.LeadsHandler != nil {
			private.Route("/leads", func(r chi.Router) {
				r.Get("/", cfg.LeadsHandler.ListLeads)
				r.Post("/", cfg.LeadsHandler.CreateLead)
				r.Route("/{leadID}", func(r chi.Router) {
					r.Get("/", cfg.LeadsHandler.GetLead)
					r.Put("/", cfg.LeadsHandler.UpdateLead)
					r.Delete("/", cfg.LeadsHandler.DeleteLead)
					r.Put("/status", cfg.LeadsHandler.UpdateStatus)
				})
			})
		}

		if cfg.ChatHandler != nil {
			private.Route("/chat", func(r chi.Router) {
				r.Post("/", cfg.ChatHandler.SendMessage)
				r.Get("/status/{taskID}", cfg.ChatHandler.TaskStatus)
				r.Post("/clear", cfg.ChatHandler.ClearSession)
			})
		}

		if cfg.ConversationsHandler != nil {
			private.Route("/conversations", func(r chi.Router) {
				r.Get("/", cfg.ConversationsHandler.ListConversations)
				r.Post("/", cfg.ConversationsHandler.CreateConversation)
				r.Route("/{conversationID}", func(r chi.Router) {
					r.Get("/", cfg.ConversationsHandler.GetConversation)
					r.Put("/", cfg.ConversationsHandler.RenameConversation)
					r.Delete("/", cfg.ConversationsHandler.DeleteConversation)
					r.Get("/messages", cfg.ConversationsHandler.ListMessages)
				})
			})
		}
	})

	return r
}
