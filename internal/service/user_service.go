package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
	"github.com/praaatap/vibeedit-backend/internal/domain"
	"github.com/praaatap/vibeedit-backend/internal/service/auth"
	"github.com/praaatap/vibeedit-backend/internal/store"
)

// UserService provides account registration, login, and token refresh.
type UserService interface {
	// Register creates a new user account and issues an initial token pair.
	// Returns ErrEmailTaken if the email is already registered.
	Register(ctx context.Context, email, password string) (*domain.User, *TokenPair, error)

	// Login authenticates a user by email and password and issues a token pair.
	// Returns ErrInvalidCredentials when the email is unknown or the password
	// does not match; the two cases are indistinguishable to the caller so
	// registered emails cannot be probed.
	Login(ctx context.Context, email, password string) (*domain.User, *TokenPair, error)

	// Refresh validates a refresh token and issues a fresh token pair.
	// Token validation failures surface as the auth package's sentinel errors.
	Refresh(ctx context.Context, refreshToken string) (*TokenPair, error)

	// GetUser retrieves a user by their ID.
	// Returns ErrUserNotFound if the user does not exist.
	GetUser(ctx context.Context, userID uuid.UUID) (*domain.User, error)
}

// TokenPair is a freshly issued access/refresh token pair.
type TokenPair struct {
	AccessToken  string `json:"token"`
	RefreshToken string `json:"refresh_token"`
}

// Common sentinel errors for UserService
var (
	// ErrUserNotFound indicates that the user does not exist
	ErrUserNotFound = errors.New("user not found")

	// ErrEmailTaken indicates that the email address is already registered
	ErrEmailTaken = errors.New("email is already registered")

	// ErrInvalidCredentials indicates a failed login attempt. It deliberately
	// covers both unknown emails and wrong passwords.
	ErrInvalidCredentials = errors.New("invalid credentials")
)

// UserServiceError wraps errors from the user service with context.
type UserServiceError struct {
	// Operation is the operation that failed (e.g., "register", "login")
	Operation string
	// Message is a human-readable description of the error
	Message string
	// Err is the underlying error that caused the failure
	Err error
}

// Error implements the error interface for UserServiceError.
func (e *UserServiceError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("user service %s failed: %s: %v", e.Operation, e.Message, e.Err)
	}
	return fmt.Sprintf("user service %s failed: %s", e.Operation, e.Message)
}

// Unwrap returns the wrapped error to support errors.Is/errors.As.
func (e *UserServiceError) Unwrap() error {
	return e.Err
}

// NewUserServiceError creates a new UserServiceError.
// It returns known sentinel errors directly without wrapping, and maps
// store-level sentinels to their service-level equivalents.
func NewUserServiceError(operation, message string, err error) error {
	if err == nil {
		return nil
	}

	// Service-defined sentinels pass through untouched
	if errors.Is(err, ErrUserNotFound) || errors.Is(err, ErrEmailTaken) ||
		errors.Is(err, ErrInvalidCredentials) {
		return err
	}

	// Store-level sentinels map to service-level ones
	if errors.Is(err, store.ErrUserNotFound) {
		return ErrUserNotFound
	}
	if errors.Is(err, store.ErrEmailExists) {
		return ErrEmailTaken
	}

	return &UserServiceError{
		Operation: operation,
		Message:   message,
		Err:       err,
	}
}

// userServiceImpl implements the UserService interface
type userServiceImpl struct {
	userStore  store.UserStore
	hasher     auth.PasswordHasher
	jwtService auth.JWTService
	db         *sql.DB
	logger     *slog.Logger
}

// Ensure userServiceImpl implements the UserService interface
var _ UserService = (*userServiceImpl)(nil)

// NewUserService creates a new UserService.
// It returns an error if any of the required dependencies are nil.
func NewUserService(
	userStore store.UserStore,
	hasher auth.PasswordHasher,
	jwtService auth.JWTService,
	db *sql.DB,
	logger *slog.Logger,
) (UserService, error) {
	if userStore == nil {
		return nil, &UserServiceError{Operation: "create_service", Message: "userStore cannot be nil"}
	}
	if hasher == nil {
		return nil, &UserServiceError{Operation: "create_service", Message: "hasher cannot be nil"}
	}
	if jwtService == nil {
		return nil, &UserServiceError{Operation: "create_service", Message: "jwtService cannot be nil"}
	}
	if db == nil {
		return nil, &UserServiceError{Operation: "create_service", Message: "db cannot be nil"}
	}

	if logger == nil {
		logger = slog.Default()
	}

	return &userServiceImpl{
		userStore:  userStore,
		hasher:     hasher,
		jwtService: jwtService,
		db:         db,
		logger:     logger.With(slog.String("component", "user_service")),
	}, nil
}

// Register implements UserService.Register.
func (s *userServiceImpl) Register(
	ctx context.Context,
	email, password string,
) (*domain.User, *TokenPair, error) {
	user, err := domain.NewUser(email, password)
	if err != nil {
		s.logger.Debug("rejected invalid registration data",
			"error", err)
		return nil, nil, NewUserServiceError("register", "invalid user data", err)
	}

	hashed, err := s.hasher.Hash(user.Password)
	if err != nil {
		s.logger.Error("failed to hash password",
			"error", err,
			"user_id", user.ID)
		return nil, nil, NewUserServiceError("register", "failed to hash password", err)
	}
	user.HashedPassword = hashed
	// The plaintext is only needed for hashing; drop it before the user
	// object travels any further.
	user.Password = ""

	err = store.RunInTransaction(ctx, s.db, func(ctx context.Context, tx *sql.Tx) error {
		return s.userStore.WithTx(tx).Create(ctx, user)
	})
	if err != nil {
		if errors.Is(err, store.ErrEmailExists) {
			s.logger.Debug("attempted to register existing email",
				"user_id", user.ID)
		} else {
			s.logger.Error("failed to save user",
				"error", err,
				"user_id", user.ID)
		}
		return nil, nil, NewUserServiceError("register", "failed to save user", err)
	}

	pair, err := s.issueTokens(ctx, user.ID)
	if err != nil {
		return nil, nil, err
	}

	s.logger.Info("user registered",
		"user_id", user.ID)

	return user, pair, nil
}

// Login implements UserService.Login.
func (s *userServiceImpl) Login(
	ctx context.Context,
	email, password string,
) (*domain.User, *TokenPair, error) {
	user, err := s.userStore.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, store.ErrUserNotFound) {
			s.logger.Debug("login attempt for unknown email")
			return nil, nil, ErrInvalidCredentials
		}
		s.logger.Error("failed to look up user by email",
			"error", err)
		return nil, nil, NewUserServiceError("login", "failed to look up user", err)
	}

	if err := s.hasher.Compare(user.HashedPassword, password); err != nil {
		if errors.Is(err, auth.ErrPasswordMismatch) {
			s.logger.Debug("login attempt with wrong password",
				"user_id", user.ID)
			return nil, nil, ErrInvalidCredentials
		}
		s.logger.Error("failed to verify password",
			"error", err,
			"user_id", user.ID)
		return nil, nil, NewUserServiceError("login", "failed to verify password", err)
	}

	pair, err := s.issueTokens(ctx, user.ID)
	if err != nil {
		return nil, nil, err
	}

	s.logger.Info("user logged in",
		"user_id", user.ID)

	return user, pair, nil
}

// Refresh implements UserService.Refresh.
func (s *userServiceImpl) Refresh(ctx context.Context, refreshToken string) (*TokenPair, error) {
	claims, err := s.jwtService.ValidateRefreshToken(ctx, refreshToken)
	if err != nil {
		s.logger.Debug("refresh token rejected",
			"error", err)
		// Auth sentinels (expired, invalid, wrong type) pass through for the
		// API layer to map.
		return nil, err
	}

	pair, err := s.issueTokens(ctx, claims.UserID)
	if err != nil {
		return nil, err
	}

	s.logger.Debug("token pair refreshed",
		"user_id", claims.UserID)

	return pair, nil
}

// GetUser implements UserService.GetUser.
func (s *userServiceImpl) GetUser(ctx context.Context, userID uuid.UUID) (*domain.User, error) {
	user, err := s.userStore.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, store.ErrUserNotFound) {
			return nil, ErrUserNotFound
		}
		s.logger.Error("failed to retrieve user",
			"error", err,
			"user_id", userID)
		return nil, NewUserServiceError("get_user", "failed to retrieve user", err)
	}

	return user, nil
}

// issueTokens generates an access/refresh token pair for the user.
func (s *userServiceImpl) issueTokens(ctx context.Context, userID uuid.UUID) (*TokenPair, error) {
	access, err := s.jwtService.GenerateToken(ctx, userID)
	if err != nil {
		s.logger.Error("failed to generate access token",
			"error", err,
			"user_id", userID)
		return nil, NewUserServiceError("issue_tokens", "failed to generate access token", err)
	}

	refresh, err := s.jwtService.GenerateRefreshToken(ctx, userID)
	if err != nil {
		s.logger.Error("failed to generate refresh token",
			"error", err,
			"user_id", userID)
		return nil, NewUserServiceError("issue_tokens", "failed to generate refresh token", err)
	}

	return &TokenPair{AccessToken: access, RefreshToken: refresh}, nil
}
