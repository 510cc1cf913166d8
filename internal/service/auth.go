package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"golang.org/x/crypto/bcrypt"

	"github.com/Skotchmaster/security_backend/internal/hash"
	"github.com/Skotchmaster/security_backend/internal/logging"
	"github.com/Skotchmaster/security_backend/internal/models"
	"github.com/Skotchmaster/security_backend/internal/mykafka"
	"github.com/Skotchmaster/security_backend/internal/repo"
	"github.com/Skotchmaster/security_backend/internal/token"
)

var (
	ErrValidation         = errors.New("validation failed")
	ErrConflict           = fmt.Errorf("%w: username already taken", ErrValidation)
	ErrInvalidCredentials = errors.New("invalid username or password")
	ErrUnauthenticated    = errors.New("unauthenticated")
)

// UserStore is the storage side of credential verification.
type UserStore interface {
	FindCredentialByUsername(ctx context.Context, username string) (*models.User, error)
	SaveCredentialRecord(ctx context.Context, u *models.User) error
}

type EventPublisher interface {
	PublishEvent(ctx context.Context, topic, key string, event any) error
}

// Identity is who a request or a login resolved to.
type Identity struct {
	Username string `json:"username"`
	Role     string `json:"role"`
}

type LoginResult struct {
	Identity
	Token     string
	IssuedAt  time.Time
	ExpiresAt time.Time
}

type AuthService struct {
	users  UserStore
	hasher *hash.Hasher
	tokens *token.Service
	events EventPublisher

	// dummyHash is compared against when the username is unknown.
	dummyHash string
}

func NewAuthService(users UserStore, hasher *hash.Hasher, tokens *token.Service, events EventPublisher) (*AuthService, error) {
	dummy, err := hasher.HashPassword("not-a-real-password")
	if err != nil {
		return nil, fmt.Errorf("prepare dummy hash: %w", err)
	}
	if events == nil {
		events = &mykafka.Producer{}
	}
	return &AuthService{
		users:     users,
		hasher:    hasher,
		tokens:    tokens,
		events:    events,
		dummyHash: dummy,
	}, nil
}

func normalizeRole(role string) (string, error) {
	role = strings.ToUpper(strings.TrimSpace(role))
	switch role {
	case "":
		return models.RoleUser, nil
	case models.RoleUser, models.RoleAdmin:
		return role, nil
	default:
		return "", fmt.Errorf("%w: unknown role %q", ErrValidation, role)
	}
}

func (s *AuthService) Register(ctx context.Context, username, password, role string) (*Identity, error) {
	l := logging.FromContext(ctx).With("op", "register")

	username = strings.TrimSpace(username)
	if username == "" {
		return nil, fmt.Errorf("%w: username is required", ErrValidation)
	}
	if password == "" {
		return nil, fmt.Errorf("%w: password is required", ErrValidation)
	}
	role, err := normalizeRole(role)
	if err != nil {
		return nil, err
	}

	hashed, err := s.hasher.HashPassword(password)
	if err != nil {
		if errors.Is(err, bcrypt.ErrPasswordTooLong) {
			return nil, fmt.Errorf("%w: password is too long", ErrValidation)
		}
		return nil, err
	}

	user := &models.User{
		Username:     username,
		PasswordHash: hashed,
		Role:         role,
	}
	if err := s.users.SaveCredentialRecord(ctx, user); err != nil {
		if errors.Is(err, repo.ErrUserAlreadyExist) {
			l.Info("register", "status", "fail", "reason", "username_taken", "username", username)
			return nil, ErrConflict
		}
		return nil, err
	}

	s.publish(ctx, username, mykafka.NewEvent("user_registered", map[string]any{
		"user_id":  user.ID,
		"username": user.Username,
		"role":     user.Role,
	}))
	l.Info("register", "status", "success", "username", username, "role", role)

	return &Identity{Username: user.Username, Role: user.Role}, nil
}

// Verify checks the password against the stored hash. Unknown users and wrong
// passwords are indistinguishable to the caller.
func (s *AuthService) Verify(ctx context.Context, username, password string) (*Identity, error) {
	l := logging.FromContext(ctx).With("op", "verify")

	user, err := s.users.FindCredentialByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, repo.ErrUserNotFound) {
			s.hasher.CheckPassword(s.dummyHash, password)
			l.Info("verify", "status", "fail", "reason", "unknown_user", "username", username)
			return nil, ErrInvalidCredentials
		}
		return nil, err
	}

	if !s.hasher.CheckPassword(user.PasswordHash, password) {
		l.Info("verify", "status", "fail", "reason", "bad_password", "username", username)
		return nil, ErrInvalidCredentials
	}

	role := user.Role
	if role == "" {
		role = models.RoleUser
	}
	return &Identity{Username: user.Username, Role: role}, nil
}

func (s *AuthService) Login(ctx context.Context, username, password string) (*LoginResult, error) {
	id, err := s.Verify(ctx, username, password)
	if err != nil {
		return nil, err
	}

	issued, err := s.tokens.Mint(id.Username, id.Role)
	if err != nil {
		return nil, fmt.Errorf("issue token: %w", err)
	}

	s.publish(ctx, id.Username, mykafka.NewEvent("user_logged_in", map[string]any{
		"username": id.Username,
		"role":     id.Role,
	}))
	logging.FromContext(ctx).Info("login", "status", "success", "username", id.Username)

	return &LoginResult{
		Identity:  *id,
		Token:     issued.Token,
		IssuedAt:  issued.IssuedAt,
		ExpiresAt: issued.ExpiresAt,
	}, nil
}

// AuthenticateRequest resolves a bearer token to an identity. The role is the
// one carried by the token.
func (s *AuthService) AuthenticateRequest(ctx context.Context, raw string) (*Identity, error) {
	if raw == "" {
		return nil, ErrUnauthenticated
	}
	claims, err := s.tokens.Authenticate(raw)
	if err != nil {
		logging.FromContext(ctx).Info("authenticate", "status", "fail", "reason", tokenFailure(err))
		return nil, fmt.Errorf("%w: %w", ErrUnauthenticated, err)
	}
	return &Identity{Username: claims.Subject, Role: claims.Role}, nil
}

func tokenFailure(err error) string {
	switch {
	case errors.Is(err, token.ErrExpired):
		return "expired"
	case errors.Is(err, token.ErrBadSignature):
		return "bad_signature"
	default:
		return "malformed"
	}
}

func (s *AuthService) publish(ctx context.Context, key string, ev mykafka.Event) {
	if err := s.events.PublishEvent(ctx, mykafka.TopicUserEvents, key, ev); err != nil {
		logging.FromContext(ctx).Error("kafka_publish", "status", "fail", "topic", mykafka.TopicUserEvents, "event", ev.Type, "error", err)
	}
}
