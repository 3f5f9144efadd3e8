package server

import (
	"database/sql"
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/gracebay/prayerwall/internal/email"
	"github.com/gracebay/prayerwall/internal/handler"
	"github.com/gracebay/prayerwall/internal/middleware"
	"github.com/gracebay/prayerwall/internal/model"
	"github.com/gracebay/prayerwall/internal/reminder"
	"github.com/gracebay/prayerwall/internal/store"
	"github.com/gracebay/prayerwall/internal/timeline"
	ws "github.com/gracebay/prayerwall/internal/websocket"
)

type Server struct {
	db           *sql.DB
	hub          *ws.Hub
	authH        *handler.AuthHandler
	prayerH      *handler.PrayerHandler
	timelineH    *handler.TimelineHandler
	settingsH    *handler.SettingsHandler
	sessionStore *store.SessionStore
	userStore    *store.UserStore
	codeStore    *store.VerificationCodeStore
	timelineSvc  *timeline.Service
	scheduler    *reminder.Scheduler
	rateLimiter  *middleware.RateLimiter
	logger       *slog.Logger
}

func New(db *sql.DB, emailClient *email.Client, timezone string, logger *slog.Logger) *Server {
	hub := ws.NewHub(logger.With("component", "websocket"))

	prayerStore := store.NewPrayerStore(db)
	settingsStore := store.NewSettingsStore(db)

	// Auth stores
	userStore := store.NewUserStore(db)
	sessionStore := store.NewSessionStore(db)
	codeStore := store.NewVerificationCodeStore(db)

	// The stored timezone wins over the environment default.
	if tz, err := settingsStore.Get("timezone"); err == nil && tz != "" {
		timezone = tz
	}

	timelineSvc := timeline.NewService(
		&prayerSnapshotSource{prayers: prayerStore},
		&storedSettings{settings: settingsStore},
		timezone,
		logger.With("component", "timeline"),
	)

	scheduler := reminder.NewScheduler(
		prayerStore, userStore, settingsStore,
		emailClient, hub, logger.With("component", "reminder"),
	)

	return &Server{
		db:           db,
		hub:          hub,
		authH:        handler.NewAuthHandler(userStore, sessionStore, codeStore, emailClient, logger.With("component", "auth")),
		prayerH:      handler.NewPrayerHandler(prayerStore, hub, logger.With("component", "prayer")),
		timelineH:    handler.NewTimelineHandler(timelineSvc, logger.With("component", "timeline_handler")),
		settingsH:    handler.NewSettingsHandler(settingsStore, hub),
		sessionStore: sessionStore,
		userStore:    userStore,
		codeStore:    codeStore,
		timelineSvc:  timelineSvc,
		scheduler:    scheduler,
		rateLimiter:  middleware.NewRateLimiter(),
		logger:       logger,
	}
}

// SessionStore returns the session store for cleanup tasks.
func (s *Server) SessionStore() *store.SessionStore {
	return s.sessionStore
}

// VerificationCodeStore returns the code store for cleanup tasks.
func (s *Server) VerificationCodeStore() *store.VerificationCodeStore {
	return s.codeStore
}

// RateLimiter returns the rate limiter for cleanup tasks.
func (s *Server) RateLimiter() *middleware.RateLimiter {
	return s.rateLimiter
}

// Scheduler returns the reminder scheduler.
func (s *Server) Scheduler() *reminder.Scheduler {
	return s.scheduler
}

func (s *Server) Router() http.Handler {
	outerMux := http.NewServeMux()

	// Public routes (no auth required)
	outerMux.HandleFunc("POST /login", s.rateLimitedHandler(s.authH.Login))
	outerMux.HandleFunc("POST /login/verify", s.rateLimitedHandler(s.authH.LoginVerify))
	outerMux.HandleFunc("GET /health", s.healthHandler)

	// Protected routes wrapped with RequireAuth middleware
	protectedMux := http.NewServeMux()
	s.registerProtectedRoutes(protectedMux)

	authMiddleware := middleware.RequireAuth(s.sessionStore, s.userStore)
	outerMux.Handle("/", authMiddleware(protectedMux))

	return middleware.RequestLogger(s.logger.With("component", "http"))(outerMux)
}

func (s *Server) healthHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]string{"status": "ok"})
}

func (s *Server) rateLimitedHandler(h http.HandlerFunc) http.HandlerFunc {
	keyFunc := func(r *http.Request) string {
		return middleware.RealIP(r)
	}
	rl := middleware.RateLimit(s.rateLimiter, keyFunc, 10, time.Minute)
	return func(w http.ResponseWriter, r *http.Request) {
		rl(http.HandlerFunc(h)).ServeHTTP(w, r)
	}
}

func (s *Server) registerProtectedRoutes(mux *http.ServeMux) {
	mux.HandleFunc("POST /logout", s.authH.Logout)

	// Prayer API routes
	mux.HandleFunc("POST /api/prayers", s.prayerH.Create)
	mux.HandleFunc("GET /api/prayers", s.prayerH.List)
	mux.HandleFunc("GET /api/prayers/{id}", s.prayerH.Get)
	mux.HandleFunc("PUT /api/prayers/{id}", s.prayerH.Update)
	mux.HandleFunc("POST /api/prayers/{id}/updates", s.prayerH.AddUpdate)
	mux.HandleFunc("GET /api/prayers/{id}/updates", s.prayerH.ListUpdates)

	// Moderation routes (admin only)
	mux.Handle("POST /api/prayers/{id}/approve", middleware.RequireAdmin(s.prayerH.SetStatus("approve", model.StatusCurrent)))
	mux.Handle("POST /api/prayers/{id}/deny", middleware.RequireAdmin(s.prayerH.SetStatus("deny", model.StatusDenied)))
	mux.Handle("POST /api/prayers/{id}/answer", middleware.RequireAdmin(s.prayerH.SetStatus("answer", model.StatusAnswered)))
	mux.Handle("POST /api/prayers/{id}/archive", middleware.RequireAdmin(s.prayerH.SetStatus("archive", model.StatusArchived)))

	// Timeline API routes
	mux.HandleFunc("GET /api/timeline", s.timelineH.Get)
	mux.HandleFunc("POST /api/timeline/previous", s.timelineH.Previous)
	mux.HandleFunc("POST /api/timeline/next", s.timelineH.Next)
	mux.HandleFunc("GET /api/timeline/settings", s.timelineH.Settings)

	// Settings API routes (admin only)
	mux.Handle("GET /api/settings/timeline", middleware.RequireAdmin(http.HandlerFunc(s.settingsH.GetTimeline)))
	mux.Handle("PUT /api/settings/timeline", middleware.RequireAdmin(http.HandlerFunc(s.settingsH.UpdateTimeline)))

	// WebSocket
	mux.HandleFunc("GET /ws", ws.HandleWebSocket(s.hub))
}
