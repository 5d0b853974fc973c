package main

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/praaatap/vibeedit-backend/internal/api"
	"github.com/praaatap/vibeedit-backend/internal/config"
	"github.com/praaatap/vibeedit-backend/internal/mocks"
	"github.com/praaatap/vibeedit-backend/internal/platform/storage"
	"github.com/praaatap/vibeedit-backend/internal/service"
	"github.com/praaatap/vibeedit-backend/internal/service/auth"
	"github.com/praaatap/vibeedit-backend/internal/task"
)

// newTestApplication wires an application the way newApplication does, but
// with mocks standing in for everything that leaves the process. The JWT
// service is real so issued tokens round-trip through the auth middleware.
func newTestApplication(t *testing.T) (*application, sqlmock.Sqlmock) {
	t.Helper()

	cfg := &config.Config{
		Server: config.ServerConfig{
			Port:                   8080,
			LogLevel:               "info",
			ShutdownTimeoutSeconds: 1,
		},
		Auth: config.AuthConfig{
			JWTSecret:                   strings.Repeat("k", 32),
			TokenLifetimeMinutes:        60,
			RefreshTokenLifetimeMinutes: 1440,
			BCryptCost:                  4,
		},
	}

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	db, dbMock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	jwtService, err := auth.NewJWTService(cfg.Auth)
	require.NoError(t, err)

	registry := prometheus.NewRegistry()
	scheduler := task.NewScheduler(task.DefaultConfig(), logger, task.NewMetrics(registry))
	scheduler.Start()
	t.Cleanup(scheduler.Stop)

	media, err := storage.NewStore(t.TempDir(), logger)
	require.NoError(t, err)

	runner := mocks.NewMockMediaRunner()
	runner.WriteOutputs = true

	userStore := mocks.NewMockUserStore()
	videoStore := mocks.NewMockVideoStore()
	hasher := auth.NewBcryptHasher(cfg.Auth.BCryptCost)

	userService, err := service.NewUserService(userStore, hasher, jwtService, db, logger)
	require.NoError(t, err)

	videoService, err := service.NewVideoService(videoStore, media, runner, scheduler, db, 0, logger)
	require.NoError(t, err)

	return &application{
		config:         cfg,
		logger:         logger,
		db:             db,
		userStore:      userStore,
		videoStore:     videoStore,
		media:          media,
		registry:       registry,
		scheduler:      scheduler,
		jwtService:     jwtService,
		passwordHasher: hasher,
		userService:    userService,
		videoService:   videoService,
	}, dbMock
}

func doJSON(t *testing.T, client *http.Client, method, url, token string, payload any) *http.Response {
	t.Helper()

	var body io.Reader
	if payload != nil {
		raw, err := json.Marshal(payload)
		require.NoError(t, err)
		body = bytes.NewReader(raw)
	}

	req, err := http.NewRequest(method, url, body)
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := client.Do(req)
	require.NoError(t, err)
	return resp
}

func readBody(t *testing.T, resp *http.Response) string {
	t.Helper()
	defer func() { _ = resp.Body.Close() }()
	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return string(raw)
}

func TestRouterHealthAndMetrics(t *testing.T) {
	app, _ := newTestApplication(t)
	srv := httptest.NewServer(app.setupRouter())
	defer srv.Close()

	resp, err := srv.Client().Get(srv.URL + "/healthz")
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "OK", readBody(t, resp))

	resp, err = srv.Client().Get(srv.URL + "/metrics")
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, readBody(t, resp), "vibeedit_scheduler_tasks_pending")
}

func TestRouterAuthFlow(t *testing.T) {
	app, dbMock := newTestApplication(t)
	srv := httptest.NewServer(app.setupRouter())
	defer srv.Close()

	dbMock.ExpectBegin()
	dbMock.ExpectCommit()

	resp := doJSON(t, srv.Client(), http.MethodPost, srv.URL+"/api/auth/register", "", map[string]string{
		"email":    "creator@example.com",
		"password": "a-long-enough-password",
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	var registered api.AuthResponse
	require.NoError(t, json.Unmarshal([]byte(readBody(t, resp)), &registered))
	require.NotEmpty(t, registered.AccessToken)

	// The issued token authenticates follow-up requests.
	resp = doJSON(t, srv.Client(), http.MethodGet, srv.URL+"/api/users/me", registered.AccessToken, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var me struct {
		Email string `json:"email"`
	}
	require.NoError(t, json.Unmarshal([]byte(readBody(t, resp)), &me))
	assert.Equal(t, "creator@example.com", me.Email)

	resp = doJSON(t, srv.Client(), http.MethodPost, srv.URL+"/api/auth/login", "", map[string]string{
		"email":    "creator@example.com",
		"password": "a-long-enough-password",
	})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	_ = readBody(t, resp)
}

func TestRouterRequiresAuthentication(t *testing.T) {
	app, _ := newTestApplication(t)
	srv := httptest.NewServer(app.setupRouter())
	defer srv.Close()

	protected := []string{
		"/api/users/me",
		"/api/videos",
		"/api/tasks",
		"/api/effects/presets",
		"/api/export/formats",
		"/api/ai/providers",
	}
	for _, path := range protected {
		resp, err := srv.Client().Get(srv.URL + path)
		require.NoError(t, err)
		assert.Equal(t, http.StatusUnauthorized, resp.StatusCode, path)
		_ = readBody(t, resp)
	}

	// A syntactically valid but forged token is rejected too.
	resp := doJSON(t, srv.Client(), http.MethodGet, srv.URL+"/api/tasks", "not-a-real-token", nil)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	_ = readBody(t, resp)
}

func TestRouterProtectedEndpoints(t *testing.T) {
	app, _ := newTestApplication(t)
	srv := httptest.NewServer(app.setupRouter())
	defer srv.Close()

	token, err := app.jwtService.GenerateToken(context.Background(), uuid.New())
	require.NoError(t, err)

	resp := doJSON(t, srv.Client(), http.MethodGet, srv.URL+"/api/effects/presets", token, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, readBody(t, resp), "vibrant")

	resp = doJSON(t, srv.Client(), http.MethodGet, srv.URL+"/api/tasks", token, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, readBody(t, resp), `"tasks"`)

	// No AI provider is wired in this fixture, so the endpoint reports the
	// feature disabled rather than 404ing.
	resp = doJSON(t, srv.Client(), http.MethodGet, srv.URL+"/api/ai/providers", token, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.JSONEq(t, `{"provider":"none","transcription":false}`, readBody(t, resp))

	resp = doJSON(t, srv.Client(), http.MethodGet, srv.URL+"/api/export/platforms", token, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, readBody(t, resp), "instagram_reels")
}

func TestRouterUnknownRoute(t *testing.T) {
	app, _ := newTestApplication(t)
	srv := httptest.NewServer(app.setupRouter())
	defer srv.Close()

	resp, err := srv.Client().Get(srv.URL + "/api/nope")
	require.NoError(t, err)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	_ = readBody(t, resp)
}
