package usecase

import (
	"context"
	"fmt"
	"regexp"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/kirillkom/resumind-client/internal/core/domain"
	"github.com/kirillkom/resumind-client/internal/core/ports"
)

const (
	msgUsernameRequired = "Username is required"
	msgUsernameFormat   = "Username must be 3-20 characters long (letters, numbers, underscore)"
	msgEmailFormat      = "Invalid email format"
	msgPasswordStrength = "Password must be at least 6 characters and include uppercase, lowercase, number, and special character"
	msgPasswordMismatch = "Passwords do not match"

	minPasswordLength = 6
	passwordSpecials  = `!@#$%^&*()_+-=[]{};':"\|,.<>/?`
)

var (
	usernamePattern = regexp.MustCompile(`^[a-zA-Z0-9_]{3,20}$`)
	emailPattern    = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)
)

// TokenExpiry reports the expiry embedded in an access token, if any.
type TokenExpiry func(token string) (time.Time, bool)

type AuthUseCase struct {
	api     ports.AuthAPI
	creds   ports.CredentialReader
	session ports.SessionStore
	expiry  TokenExpiry
	logger  *zap.Logger
}

func NewAuthUseCase(
	api ports.AuthAPI,
	creds ports.CredentialReader,
	session ports.SessionStore,
	expiry TokenExpiry,
	logger *zap.Logger,
) *AuthUseCase {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AuthUseCase{
		api:     api,
		creds:   creds,
		session: session,
		expiry:  expiry,
		logger:  logger,
	}
}

func (uc *AuthUseCase) Login(ctx context.Context, username, password string) error {
	if strings.TrimSpace(username) == "" {
		return domain.Invalid("login", msgUsernameRequired)
	}
	if err := uc.api.Login(ctx, username, password); err != nil {
		return fmt.Errorf("login: %w", err)
	}
	uc.logger.Info("login_succeeded", zap.String("username", username))
	return nil
}

// Register validates input locally, creates the account and logs in with it.
func (uc *AuthUseCase) Register(ctx context.Context, input domain.RegisterInput) error {
	if err := validateRegistration(input); err != nil {
		return err
	}
	if err := uc.api.Register(ctx, input.Username, input.Email, input.Password); err != nil {
		return fmt.Errorf("register: %w", err)
	}
	if err := uc.api.Login(ctx, input.Username, input.Password); err != nil {
		return fmt.Errorf("login after register: %w", err)
	}
	uc.logger.Info("registration_succeeded", zap.String("username", input.Username))
	return nil
}

func validateRegistration(input domain.RegisterInput) error {
	switch {
	case !usernamePattern.MatchString(input.Username):
		return domain.Invalid("register", msgUsernameFormat)
	case !emailPattern.MatchString(input.Email):
		return domain.Invalid("register", msgEmailFormat)
	case !strongPassword(input.Password):
		return domain.Invalid("register", msgPasswordStrength)
	case input.Password != input.ConfirmPassword:
		return domain.Invalid("register", msgPasswordMismatch)
	}
	return nil
}

func strongPassword(password string) bool {
	if len([]rune(password)) < minPasswordLength {
		return false
	}
	var lower, upper, digit, special bool
	for _, r := range password {
		switch {
		case r >= 'a' && r <= 'z':
			lower = true
		case r >= 'A' && r <= 'Z':
			upper = true
		case r >= '0' && r <= '9':
			digit = true
		case strings.ContainsRune(passwordSpecials, r):
			special = true
		}
	}
	return lower && upper && digit && special
}

// Logout keeps local state when the server call fails.
func (uc *AuthUseCase) Logout(ctx context.Context) error {
	if err := uc.api.Logout(ctx); err != nil {
		return fmt.Errorf("logout: %w", err)
	}
	if err := uc.session.Clear(ctx); err != nil {
		return fmt.Errorf("clear session: %w", err)
	}
	return nil
}

func (uc *AuthUseCase) Status() domain.AuthStatus {
	creds := uc.creds.Credentials()
	status := domain.AuthStatus{
		Authenticated: creds.Authenticated(),
		CanRefresh:    creds.CanRefresh(),
	}
	if uc.expiry != nil && creds.Access != "" {
		if exp, ok := uc.expiry(creds.Access); ok {
			status.AccessExpiry = exp
		}
	}
	return status
}
