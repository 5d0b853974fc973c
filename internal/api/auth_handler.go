package api

import (
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/praaatap/vibeedit-backend/internal/api/shared"
	"github.com/praaatap/vibeedit-backend/internal/platform/logger"
	"github.com/praaatap/vibeedit-backend/internal/service"
)

// AuthHandler handles authentication-related API requests.
type AuthHandler struct {
	userService service.UserService
	tokenTTL    time.Duration
	logger      *slog.Logger
}

// NewAuthHandler creates a new AuthHandler. tokenTTL is the access token
// lifetime, used only to report expiry timestamps to clients.
func NewAuthHandler(
	userService service.UserService,
	tokenTTL time.Duration,
	logger *slog.Logger,
) *AuthHandler {
	if logger == nil {
		// ALLOW-PANIC: Constructor enforcing required dependency
		panic("logger cannot be nil for AuthHandler")
	}

	return &AuthHandler{
		userService: userService,
		tokenTTL:    tokenTTL,
		logger:      logger.With(slog.String("component", "auth_handler")),
	}
}

// expiresAt reports when a token issued now will expire, as RFC 3339.
func (h *AuthHandler) expiresAt() string {
	if h.tokenTTL <= 0 {
		return ""
	}
	return time.Now().UTC().Add(h.tokenTTL).Format(time.RFC3339)
}

// Register handles POST /auth/register requests.
// It creates the account and issues an initial token pair so the client is
// signed in immediately after registration.
func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	log := logger.FromContextOrDefault(r.Context(), h.logger)

	var req RegisterRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}

	user, pair, err := h.userService.Register(r.Context(), req.Email, req.Password)
	if err != nil {
		HandleAPIError(w, r, err, "Failed to register user")
		return
	}

	log.Info("user registered", slog.String("user_id", user.ID.String()))

	shared.RespondWithJSON(w, r, http.StatusCreated, AuthResponse{
		UserID:       user.ID,
		AccessToken:  pair.AccessToken,
		RefreshToken: pair.RefreshToken,
		ExpiresAt:    h.expiresAt(),
	})
}

// Login handles POST /auth/login requests.
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	log := logger.FromContextOrDefault(r.Context(), h.logger)

	var req LoginRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}

	user, pair, err := h.userService.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		// Failed logins are logged at WARN so repeated attempts stand out.
		if errors.Is(err, service.ErrInvalidCredentials) {
			shared.RespondWithErrorAndLog(w, r, http.StatusUnauthorized,
				"Invalid email or password", err, shared.WithElevatedLogLevel())
			return
		}
		HandleAPIError(w, r, err, "Failed to authenticate user")
		return
	}

	log.Debug("user logged in", slog.String("user_id", user.ID.String()))

	shared.RespondWithJSON(w, r, http.StatusOK, AuthResponse{
		UserID:       user.ID,
		AccessToken:  pair.AccessToken,
		RefreshToken: pair.RefreshToken,
		ExpiresAt:    h.expiresAt(),
	})
}

// RefreshToken handles POST /auth/refresh requests.
// It validates the refresh token and issues a fresh token pair.
func (h *AuthHandler) RefreshToken(w http.ResponseWriter, r *http.Request) {
	var req RefreshTokenRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}

	pair, err := h.userService.Refresh(r.Context(), req.RefreshToken)
	if err != nil {
		HandleAPIError(w, r, err, "Failed to refresh token")
		return
	}

	shared.RespondWithJSON(w, r, http.StatusOK, RefreshTokenResponse{
		AccessToken:  pair.AccessToken,
		RefreshToken: pair.RefreshToken,
		ExpiresAt:    h.expiresAt(),
	})
}

// Me handles GET /users/me requests, returning the authenticated user's
// profile.
func (h *AuthHandler) Me(w http.ResponseWriter, r *http.Request) {
	log := logger.FromContextOrDefault(r.Context(), h.logger)

	userID, ok := requireUserID(w, r, log)
	if !ok {
		return
	}

	user, err := h.userService.GetUser(r.Context(), userID)
	if err != nil {
		HandleAPIError(w, r, err, "Failed to load user")
		return
	}

	shared.RespondWithJSON(w, r, http.StatusOK, user)
}
