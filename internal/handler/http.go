package handler

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-playground/validator/v10"

	"github.com/snake-arena/internal/domain"
	"github.com/snake-arena/internal/games"
	"github.com/snake-arena/internal/service"
	"github.com/snake-arena/internal/websocket"
)

// Handler provides the HTTP surface of the service
type Handler struct {
	auth        *service.AuthService
	leaderboard *service.LeaderboardService
	games       *games.Registry
	hub         *websocket.Hub
	validate    *validator.Validate
	logger      *slog.Logger
}

// NewHandler creates a new HTTP handler
func NewHandler(
	auth *service.AuthService,
	leaderboard *service.LeaderboardService,
	registry *games.Registry,
	hub *websocket.Hub,
	logger *slog.Logger,
) *Handler {
	return &Handler{
		auth:        auth,
		leaderboard: leaderboard,
		games:       registry,
		hub:         hub,
		validate:    validator.New(),
		logger:      logger,
	}
}

// errorResponse is the body of every non-2xx response: a
// machine-readable kind plus a human-readable message.
type errorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}

// Router creates and configures the HTTP router
func (h *Handler) Router() http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Compress(5))
	r.Use(corsMiddleware)

	r.Get("/", h.Root)
	r.Get("/health", h.HealthCheck)
	r.Get("/ready", h.ReadyCheck)

	r.Get("/ws", h.HandleWebSocket)

	r.Route("/auth", func(r chi.Router) {
		r.Post("/signup", h.SignUp)
		r.Post("/login", h.LogIn)

		r.Group(func(r chi.Router) {
			r.Use(h.RequireUser)
			r.Post("/logout", h.LogOut)
			r.Get("/me", h.Me)
		})
	})

	r.Route("/leaderboard", func(r chi.Router) {
		r.Get("/", h.GetLeaderboard)
		r.With(h.RequireUser).Post("/", h.SubmitScore)
	})

	r.Route("/games", func(r chi.Router) {
		r.Get("/active", h.ListActiveGames)
		r.Get("/active/{playerID}", h.WatchGame)
	})

	return r
}

// corsMiddleware adds CORS headers
func corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Accept, Authorization, Content-Type, X-Request-ID")

		if r.Method == "OPTIONS" {
			w.WriteHeader(http.StatusOK)
			return
		}

		next.ServeHTTP(w, r)
	})
}

// writeJSON writes a JSON response
func (h *Handler) writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

// writeError writes an error JSON response with an explicit kind
func (h *Handler) writeError(w http.ResponseWriter, status int, kind string, err error) {
	h.writeJSON(w, status, errorResponse{
		Error:   kind,
		Message: err.Error(),
	})
}

// writeDomainError maps a service error onto the HTTP taxonomy.
// Anything unclassified is a storage/internal failure: logged in full,
// surfaced opaquely.
func (h *Handler) writeDomainError(w http.ResponseWriter, err error) {
	switch {
	case domain.IsValidation(err):
		h.writeError(w, http.StatusBadRequest, "validation", err)
	case domain.IsConflict(err):
		h.writeError(w, http.StatusBadRequest, "conflict", err)
	case domain.IsAuth(err):
		w.Header().Set("WWW-Authenticate", "Bearer")
		h.writeError(w, http.StatusUnauthorized, "unauthorized", err)
	case domain.IsNotFound(err):
		h.writeError(w, http.StatusNotFound, "not_found", err)
	default:
		h.logger.Error("request failed", "error", err)
		h.writeError(w, http.StatusInternalServerError, "internal", domain.ErrInternalError)
	}
}

// decode unmarshals and validates a request body.
func (h *Handler) decode(r *http.Request, v interface{}) error {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		return domain.ErrInvalidRequest
	}
	if err := h.validate.Struct(v); err != nil {
		return domain.ErrInvalidRequest
	}
	return nil
}

// Root returns the API welcome message
func (h *Handler) Root(w http.ResponseWriter, r *http.Request) {
	h.writeJSON(w, http.StatusOK, map[string]string{"message": "Welcome to Snake Arena API"})
}

// HealthCheck returns service health status
func (h *Handler) HealthCheck(w http.ResponseWriter, r *http.Request) {
	h.writeJSON(w, http.StatusOK, map[string]string{"status": "healthy"})
}

// ReadyCheck returns service readiness status
func (h *Handler) ReadyCheck(w http.ResponseWriter, r *http.Request) {
	h.writeJSON(w, http.StatusOK, map[string]string{"status": "ready"})
}

// HandleWebSocket handles websocket upgrade requests
func (h *Handler) HandleWebSocket(w http.ResponseWriter, r *http.Request) {
	websocket.ServeWs(h.hub, h.logger, w, r)
}

// SignUp handles POST /auth/signup
func (h *Handler) SignUp(w http.ResponseWriter, r *http.Request) {
	var req domain.SignUpRequest
	if err := h.decode(r, &req); err != nil {
		h.writeDomainError(w, err)
		return
	}

	resp, err := h.auth.SignUp(r.Context(), req)
	if err != nil {
		h.writeDomainError(w, err)
		return
	}

	h.writeJSON(w, http.StatusCreated, resp)
}

// LogIn handles POST /auth/login
func (h *Handler) LogIn(w http.ResponseWriter, r *http.Request) {
	var req domain.LogInRequest
	if err := h.decode(r, &req); err != nil {
		h.writeDomainError(w, err)
		return
	}

	resp, err := h.auth.LogIn(r.Context(), req)
	if err != nil {
		h.writeDomainError(w, err)
		return
	}

	h.writeJSON(w, http.StatusOK, resp)
}

// LogOut handles POST /auth/logout. Tokens are stateless, so there is
// nothing to invalidate server-side; the client discards its copy.
func (h *Handler) LogOut(w http.ResponseWriter, r *http.Request) {
	h.writeJSON(w, http.StatusOK, map[string]string{"message": "Logout successful"})
}

// Me handles GET /auth/me
func (h *Handler) Me(w http.ResponseWriter, r *http.Request) {
	user, ok := UserFromContext(r.Context())
	if !ok {
		h.writeDomainError(w, domain.ErrUnauthorized)
		return
	}
	h.writeJSON(w, http.StatusOK, user)
}

// GetLeaderboard handles GET /leaderboard/. Reads are public.
func (h *Handler) GetLeaderboard(w http.ResponseWriter, r *http.Request) {
	var mode *domain.GameMode
	if raw := r.URL.Query().Get("mode"); raw != "" {
		m := domain.GameMode(raw)
		if !m.Valid() {
			h.writeDomainError(w, domain.ErrInvalidMode)
			return
		}
		mode = &m
	}

	limit := 0
	if raw := r.URL.Query().Get("limit"); raw != "" {
		l, err := strconv.Atoi(raw)
		if err != nil || l < 0 {
			h.writeDomainError(w, domain.ErrInvalidRequest)
			return
		}
		limit = l
	}

	entries, err := h.leaderboard.Top(r.Context(), mode, limit)
	if err != nil {
		h.writeDomainError(w, err)
		return
	}

	h.writeJSON(w, http.StatusOK, entries)
}

// SubmitScore handles POST /leaderboard/
func (h *Handler) SubmitScore(w http.ResponseWriter, r *http.Request) {
	user, ok := UserFromContext(r.Context())
	if !ok {
		h.writeDomainError(w, domain.ErrUnauthorized)
		return
	}

	var req domain.SubmitScoreRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeDomainError(w, domain.ErrInvalidRequest)
		return
	}

	entry, err := h.leaderboard.SubmitScore(r.Context(), user, req)
	if err != nil {
		h.writeDomainError(w, err)
		return
	}

	h.writeJSON(w, http.StatusCreated, entry)
}

// ListActiveGames handles GET /games/active
func (h *Handler) ListActiveGames(w http.ResponseWriter, r *http.Request) {
	h.writeJSON(w, http.StatusOK, h.games.List())
}

// WatchGame handles GET /games/active/{playerID}
func (h *Handler) WatchGame(w http.ResponseWriter, r *http.Request) {
	player, err := h.games.Get(chi.URLParam(r, "playerID"))
	if err != nil {
		h.writeDomainError(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, player)
}
