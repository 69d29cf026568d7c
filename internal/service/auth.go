package service

import (
	"context"
	"crypto/subtle"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"golang.org/x/crypto/bcrypt"

	"github.com/TeerapatAnanpaisansin/shorten-link-generator/internal/grist"
	"github.com/TeerapatAnanpaisansin/shorten-link-generator/internal/models"
)

// CredentialScheme identifies how a stored credential must be compared.
type CredentialScheme int

const (
	// SchemeBcrypt covers values with a recognized bcrypt prefix.
	SchemeBcrypt CredentialScheme = iota
	// SchemePlaintextLegacy covers raw passwords stored before hashing was
	// introduced. Kept for compatibility with existing rows; flagged for
	// removal once those rows are re-hashed.
	SchemePlaintextLegacy
)

// SchemeOf classifies a stored credential value.
func SchemeOf(stored string) CredentialScheme {
	if strings.HasPrefix(stored, "$2a$") || strings.HasPrefix(stored, "$2b$") {
		return SchemeBcrypt
	}
	return SchemePlaintextLegacy
}

func verifyCredential(stored, supplied string) bool {
	switch SchemeOf(stored) {
	case SchemeBcrypt:
		return bcrypt.CompareHashAndPassword([]byte(stored), []byte(supplied)) == nil
	default:
		return subtle.ConstantTimeCompare([]byte(stored), []byte(supplied)) == 1
	}
}

// UserStore defines the record store operations the auth gate needs.
type UserStore interface {
	// FindUserByIdentifier looks a user up by email, then by user name.
	// Returns grist.ErrNotFound if neither matches.
	FindUserByIdentifier(ctx context.Context, identifier string) (*models.User, error)

	// UpdateLastLogin stamps the user's last login time.
	UpdateLastLogin(ctx context.Context, rowID int64) error

	// AppendLoginLog writes an append-only audit entry.
	AppendLoginLog(ctx context.Context, attempt models.LoginAttempt) error
}

// Auth verifies credentials against the user table and records every
// attempt.
type Auth struct {
	store  UserStore
	logger *slog.Logger
}

func NewAuth(store UserStore, logger *slog.Logger) *Auth {
	return &Auth{
		store:  store,
		logger: logger,
	}
}

// LoginInput carries the submitted credentials plus request metadata for the
// audit log.
type LoginInput struct {
	Identifier string
	Password   string
	IP         string
	UserAgent  string
}

// Login authenticates a user. Unknown identifiers and wrong passwords both
// yield ErrInvalidCredentials. Every attempt is logged best-effort; a log
// write failure never changes the outcome.
func (a *Auth) Login(ctx context.Context, in LoginInput) (*models.User, error) {
	const op = "service.Auth.Login"

	if in.Identifier == "" || in.Password == "" {
		return nil, fmt.Errorf("%s: %w", op, ErrMissingCredentials)
	}

	user, err := a.store.FindUserByIdentifier(ctx, in.Identifier)
	if err != nil && !errors.Is(err, grist.ErrNotFound) {
		return nil, fmt.Errorf("%s: failed to look up user: %w", op, err)
	}

	success := user != nil && verifyCredential(user.Password, in.Password)

	a.logAttempt(ctx, in, success)

	if !success {
		return nil, fmt.Errorf("%s: %w", op, ErrInvalidCredentials)
	}

	if err := a.store.UpdateLastLogin(ctx, user.RowID); err != nil {
		a.logger.Error("failed to update last login",
			slog.Int64("user_id", user.UserID),
			slog.Any("err", err),
		)
	}

	return user, nil
}

func (a *Auth) logAttempt(ctx context.Context, in LoginInput, success bool) {
	note := "invalid credentials"
	if success {
		note = "login ok"
	}

	err := a.store.AppendLoginLog(ctx, models.LoginAttempt{
		Username:  in.Identifier,
		Success:   success,
		IP:        in.IP,
		UserAgent: in.UserAgent,
		Note:      note,
	})
	if err != nil {
		a.logger.Error("failed to append login log",
			slog.String("username", in.Identifier),
			slog.Any("err", err),
		)
	}
}
