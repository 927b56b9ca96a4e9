package handler

import (
	"bytes"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/snake-arena/internal/auth"
	"github.com/snake-arena/internal/config"
	"github.com/snake-arena/internal/domain"
	"github.com/snake-arena/internal/games"
	"github.com/snake-arena/internal/memory"
	"github.com/snake-arena/internal/service"
)

func newTestRouter(t *testing.T) http.Handler {
	t.Helper()

	store := memory.NewStore()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	tokens := auth.NewTokenIssuer("test-secret", "snake-arena")

	authService := service.NewAuthService(store, tokens, logger)
	cfg := &config.LeaderboardConfig{DefaultLimit: 10, MaxLimit: 100}
	leaderboardService := service.NewLeaderboardService(store, store, cfg, logger)

	h := NewHandler(authService, leaderboardService, games.NewRegistry(), nil, logger)
	return h.Router()
}

func doJSON(t *testing.T, router http.Handler, method, path, token string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()

	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(data)
	}

	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

func decodeBody(t *testing.T, rec *httptest.ResponseRecorder, v interface{}) {
	t.Helper()
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), v))
}

func signUp(t *testing.T, router http.Handler, username, email string) domain.AuthResponse {
	t.Helper()
	rec := doJSON(t, router, http.MethodPost, "/auth/signup", "", domain.SignUpRequest{
		Username: username,
		Email:    email,
		Password: "s3cret",
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	var resp domain.AuthResponse
	decodeBody(t, rec, &resp)
	return resp
}

func TestSignupLoginMe(t *testing.T) {
	router := newTestRouter(t)

	signup := signUp(t, router, "alice", "alice@example.com")
	assert.Equal(t, "alice", signup.User.Username)
	assert.Equal(t, 0, signup.User.HighScore)
	assert.NotEmpty(t, signup.Token)

	rec := doJSON(t, router, http.MethodPost, "/auth/login", "", domain.LogInRequest{
		Email: "alice@example.com", Password: "s3cret",
	})
	require.Equal(t, http.StatusOK, rec.Code)
	var login domain.AuthResponse
	decodeBody(t, rec, &login)
	assert.Equal(t, signup.User.ID, login.User.ID)

	rec = doJSON(t, router, http.MethodGet, "/auth/me", login.Token, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var me domain.User
	decodeBody(t, rec, &me)
	assert.Equal(t, "alice", me.Username)
}

func TestSignupConflicts(t *testing.T) {
	router := newTestRouter(t)
	signUp(t, router, "alice", "alice@example.com")

	rec := doJSON(t, router, http.MethodPost, "/auth/signup", "", domain.SignUpRequest{
		Username: "alice2", Email: "alice@example.com", Password: "s3cret",
	})
	require.Equal(t, http.StatusBadRequest, rec.Code)
	var resp errorResponse
	decodeBody(t, rec, &resp)
	assert.Equal(t, "conflict", resp.Error)

	rec = doJSON(t, router, http.MethodPost, "/auth/signup", "", domain.SignUpRequest{
		Username: "alice", Email: "other@example.com", Password: "s3cret",
	})
	require.Equal(t, http.StatusBadRequest, rec.Code)
	decodeBody(t, rec, &resp)
	assert.Equal(t, "conflict", resp.Error)
}

func TestLoginRejectsBadCredentials(t *testing.T) {
	router := newTestRouter(t)
	signUp(t, router, "alice", "alice@example.com")

	// Wrong password and unknown email produce identical responses.
	for _, req := range []domain.LogInRequest{
		{Email: "alice@example.com", Password: "wrong"},
		{Email: "nobody@example.com", Password: "s3cret"},
	} {
		rec := doJSON(t, router, http.MethodPost, "/auth/login", "", req)
		require.Equal(t, http.StatusUnauthorized, rec.Code)
		assert.Equal(t, "Bearer", rec.Header().Get("WWW-Authenticate"))

		var resp errorResponse
		decodeBody(t, rec, &resp)
		assert.Equal(t, "unauthorized", resp.Error)
	}
}

func TestSubmitScoreRequiresAuth(t *testing.T) {
	router := newTestRouter(t)

	body := domain.SubmitScoreRequest{Score: 100, Mode: domain.GameModeWalls}

	rec := doJSON(t, router, http.MethodPost, "/leaderboard/", "", body)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, "Bearer", rec.Header().Get("WWW-Authenticate"))

	rec = doJSON(t, router, http.MethodPost, "/leaderboard/", "bogus-token", body)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestSubmitAndReadLeaderboard(t *testing.T) {
	router := newTestRouter(t)
	signup := signUp(t, router, "alice", "alice@example.com")

	for _, score := range []int{100, 300, 200} {
		rec := doJSON(t, router, http.MethodPost, "/leaderboard/", signup.Token, domain.SubmitScoreRequest{
			Score: score, Mode: domain.GameModeWalls,
		})
		require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	}

	// Leaderboard reads are public and ranked score-descending.
	rec := doJSON(t, router, http.MethodGet, "/leaderboard/", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var entries []domain.LeaderboardEntry
	decodeBody(t, rec, &entries)
	require.Len(t, entries, 3)
	assert.Equal(t, 300, entries[0].Score)
	assert.Equal(t, 200, entries[1].Score)
	assert.Equal(t, 100, entries[2].Score)

	// The user's high score reconciled to the best submission.
	rec = doJSON(t, router, http.MethodGet, "/auth/me", signup.Token, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var me domain.User
	decodeBody(t, rec, &me)
	assert.Equal(t, 300, me.HighScore)
}

func TestLeaderboardModeFilterAndLimit(t *testing.T) {
	router := newTestRouter(t)
	signup := signUp(t, router, "alice", "alice@example.com")

	for i, mode := range []domain.GameMode{
		domain.GameModeWalls, domain.GameModePassThrough, domain.GameModeWalls,
	} {
		rec := doJSON(t, router, http.MethodPost, "/leaderboard/", signup.Token, domain.SubmitScoreRequest{
			Score: (i + 1) * 100, Mode: mode,
		})
		require.Equal(t, http.StatusCreated, rec.Code)
	}

	rec := doJSON(t, router, http.MethodGet, "/leaderboard/?mode=walls", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var entries []domain.LeaderboardEntry
	decodeBody(t, rec, &entries)
	require.Len(t, entries, 2)
	for _, e := range entries {
		assert.Equal(t, domain.GameModeWalls, e.Mode)
	}

	rec = doJSON(t, router, http.MethodGet, "/leaderboard/?limit=1", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	decodeBody(t, rec, &entries)
	assert.Len(t, entries, 1)

	rec = doJSON(t, router, http.MethodGet, "/leaderboard/?mode=turbo", "", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = doJSON(t, router, http.MethodGet, "/leaderboard/?limit=abc", "", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestSubmitScoreValidation(t *testing.T) {
	router := newTestRouter(t)
	signup := signUp(t, router, "alice", "alice@example.com")

	rec := doJSON(t, router, http.MethodPost, "/leaderboard/", signup.Token, domain.SubmitScoreRequest{
		Score: -5, Mode: domain.GameModeWalls,
	})
	require.Equal(t, http.StatusBadRequest, rec.Code)
	var resp errorResponse
	decodeBody(t, rec, &resp)
	assert.Equal(t, "validation", resp.Error)

	rec = doJSON(t, router, http.MethodPost, "/leaderboard/", signup.Token, domain.SubmitScoreRequest{
		Score: 100, Mode: "turbo",
	})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestSpectatorFeed(t *testing.T) {
	router := newTestRouter(t)

	rec := doJSON(t, router, http.MethodGet, "/games/active", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var players []domain.ActivePlayer
	decodeBody(t, rec, &players)
	require.NotEmpty(t, players)

	rec = doJSON(t, router, http.MethodGet, "/games/active/"+players[0].ID, "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var player domain.ActivePlayer
	decodeBody(t, rec, &player)
	assert.Equal(t, players[0].Username, player.Username)
	assert.NotEmpty(t, player.Snake)

	rec = doJSON(t, router, http.MethodGet, "/games/active/no-such-game", "", nil)
	require.Equal(t, http.StatusNotFound, rec.Code)
	var resp errorResponse
	decodeBody(t, rec, &resp)
	assert.Equal(t, "not_found", resp.Error)
}

func TestLogout(t *testing.T) {
	router := newTestRouter(t)
	signup := signUp(t, router, "alice", "alice@example.com")

	rec := doJSON(t, router, http.MethodPost, "/auth/logout", signup.Token, nil)
	require.Equal(t, http.StatusOK, rec.Code)

	rec = doJSON(t, router, http.MethodPost, "/auth/logout", "", nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestHealthEndpoints(t *testing.T) {
	router := newTestRouter(t)

	for _, path := range []string{"/", "/health", "/ready"} {
		rec := doJSON(t, router, http.MethodGet, path, "", nil)
		assert.Equal(t, http.StatusOK, rec.Code, path)
	}
}
