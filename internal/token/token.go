// Package token issues and validates the stateless session tokens handed out
// at login. Tokens are compact HS256 JWTs carrying the username as subject and
// the role as a custom claim. Expiry is the only invalidation mechanism.
package token

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// MinKeyBytes is the smallest HMAC key accepted for HS256.
const MinKeyBytes = 32

var (
	ErrWeakKey         = fmt.Errorf("signing key must be at least %d bytes", MinKeyBytes)
	ErrMalformed       = errors.New("token malformed")
	ErrBadSignature    = errors.New("token signature invalid")
	ErrExpired         = errors.New("token expired")
	ErrSubjectMismatch = errors.New("token subject mismatch")
	ErrUnknownClaim    = errors.New("unknown claim")
	ErrEmptySubject    = errors.New("token subject is empty")
)

var signingMethod = jwt.SigningMethodHS256

type Claims struct {
	Role string `json:"role"`
	jwt.RegisteredClaims
}

// Issued is a freshly minted token with its lifetime bounds.
type Issued struct {
	Token     string
	IssuedAt  time.Time
	ExpiresAt time.Time
}

type Service struct {
	key    []byte
	ttl    time.Duration
	issuer string
	now    func() time.Time
	parser *jwt.Parser
}

type Option func(*Service)

// WithClock replaces time.Now.
func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

func New(key []byte, ttl time.Duration, issuer string, opts ...Option) (*Service, error) {
	if len(key) < MinKeyBytes {
		return nil, ErrWeakKey
	}
	if ttl <= 0 {
		return nil, fmt.Errorf("token ttl must be positive, got %s", ttl)
	}

	s := &Service{
		key:    append([]byte(nil), key...),
		ttl:    ttl,
		issuer: issuer,
		now:    time.Now,
		// The algorithm is pinned here; the header's alg is never trusted.
		// Strict decoding stops altered trailing bits in the signature segment
		// from decoding to the same bytes.
		parser: jwt.NewParser(
			jwt.WithValidMethods([]string{signingMethod.Alg()}),
			jwt.WithoutClaimsValidation(),
			jwt.WithStrictDecoding(),
		),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

func (s *Service) TTL() time.Duration { return s.ttl }

// Issue mints a token for username carrying role.
func (s *Service) Issue(username, role string) (string, error) {
	issued, err := s.Mint(username, role)
	if err != nil {
		return "", err
	}
	return issued.Token, nil
}

// Mint is Issue with the lifetime bounds returned alongside the token.
func (s *Service) Mint(username, role string) (*Issued, error) {
	if username == "" {
		return nil, ErrEmptySubject
	}

	now := s.now()
	iat := jwt.NewNumericDate(now)
	exp := jwt.NewNumericDate(now.Add(s.ttl))

	claims := Claims{
		Role: role,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   username,
			Issuer:    s.issuer,
			IssuedAt:  iat,
			ExpiresAt: exp,
		},
	}

	signed, err := jwt.NewWithClaims(signingMethod, claims).SignedString(s.key)
	if err != nil {
		return nil, fmt.Errorf("sign token: %w", err)
	}

	return &Issued{Token: signed, IssuedAt: iat.Time, ExpiresAt: exp.Time}, nil
}

// Parse checks structure and signature only. Expiry is left to IsExpired.
func (s *Service) Parse(raw string) (*Claims, error) {
	claims := &Claims{}
	tkn, err := s.parser.ParseWithClaims(raw, claims, func(*jwt.Token) (any, error) {
		return s.key, nil
	})
	if err != nil {
		return nil, classify(err)
	}
	if !tkn.Valid {
		return nil, ErrBadSignature
	}
	return claims, nil
}

func classify(err error) error {
	switch {
	case errors.Is(err, jwt.ErrTokenSignatureInvalid), errors.Is(err, jwt.ErrTokenUnverifiable):
		return fmt.Errorf("%w: %v", ErrBadSignature, err)
	default:
		return fmt.Errorf("%w: %v", ErrMalformed, err)
	}
}

// IsExpired is true from the expiry instant on. A token without exp never validates.
func (s *Service) IsExpired(c *Claims) bool {
	if c == nil || c.ExpiresAt == nil {
		return true
	}
	return !s.now().Before(c.ExpiresAt.Time)
}

// Authenticate parses raw and rejects it once expired.
func (s *Service) Authenticate(raw string) (*Claims, error) {
	c, err := s.Parse(raw)
	if err != nil {
		return nil, err
	}
	if c.Subject == "" {
		return nil, fmt.Errorf("%w: missing subject", ErrMalformed)
	}
	if s.IsExpired(c) {
		return nil, ErrExpired
	}
	return c, nil
}

// AuthenticateAs is Authenticate plus a check that the token belongs to expectedUsername.
func (s *Service) AuthenticateAs(raw, expectedUsername string) (*Claims, error) {
	c, err := s.Authenticate(raw)
	if err != nil {
		return nil, err
	}
	if c.Subject != expectedUsername {
		return nil, ErrSubjectMismatch
	}
	return c, nil
}

// Validate reports whether raw is intact, unexpired and issued to expectedUsername.
// The role inside is trusted as issued; it is not re-checked against storage.
func (s *Service) Validate(raw, expectedUsername string) bool {
	_, err := s.AuthenticateAs(raw, expectedUsername)
	return err == nil
}

// ExtractClaim reads one claim from already parsed claims.
func ExtractClaim(c *Claims, name string) (any, error) {
	if c == nil {
		return nil, ErrMalformed
	}
	switch name {
	case "sub", "subject":
		return c.Subject, nil
	case "role":
		return c.Role, nil
	case "iss", "issuer":
		return c.Issuer, nil
	case "iat", "issuedAt":
		if c.IssuedAt == nil {
			return time.Time{}, nil
		}
		return c.IssuedAt.Time, nil
	case "exp", "expiresAt":
		if c.ExpiresAt == nil {
			return time.Time{}, nil
		}
		return c.ExpiresAt.Time, nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownClaim, name)
	}
}
