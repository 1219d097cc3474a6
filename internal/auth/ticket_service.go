package auth

import (
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"

	apperrors "github.com/ivgeniay/jointpresentation/pkg/errors"
)

// DefaultTicketTTL defines the fallback validity period for session tickets.
const DefaultTicketTTL = 12 * time.Hour

// TicketConfig bundles the configuration required to build a TicketService.
type TicketConfig struct {
	Secret string
	Issuer string
	TTL    time.Duration
	Clock  func() time.Time
}

// Claims carries the nickname identity of a realtime session. Editor rights are
// deliberately absent; they are re-read from storage on every join.
type Claims struct {
	UserID   string `json:"uid"`
	Nickname string `json:"nick"`
	jwt.RegisteredClaims
}

// Ticket is a signed identity handed to a client after connectUser.
type Ticket struct {
	Token     string    `json:"token"`
	UserID    string    `json:"userId"`
	Nickname  string    `json:"nickname"`
	ExpiresAt time.Time `json:"expiresAt"`
}

// TicketService issues and validates session tickets.
type TicketService struct {
	secret []byte
	issuer string
	ttl    time.Duration
	now    func() time.Time
}

// NewTicketService constructs a TicketService. An empty secret is replaced by a random
// one, which invalidates outstanding tickets on restart.
func NewTicketService(cfg TicketConfig) (*TicketService, error) {
	secret := strings.TrimSpace(cfg.Secret)
	if secret == "" {
		generated, err := randomSecret()
		if err != nil {
			return nil, err
		}
		secret = generated
	}

	ttl := cfg.TTL
	if ttl <= 0 {
		ttl = DefaultTicketTTL
	}

	now := time.Now
	if cfg.Clock != nil {
		now = cfg.Clock
	}

	return &TicketService{
		secret: []byte(secret),
		issuer: cfg.Issuer,
		ttl:    ttl,
		now:    now,
	}, nil
}

// Issue signs a ticket for the given identity.
func (s *TicketService) Issue(userID, nickname string) (*Ticket, error) {
	if userID == "" {
		return nil, errors.New("ticket: user id is required")
	}

	now := s.now()
	expiresAt := now.Add(s.ttl)

	claims := &Claims{
		UserID:   userID,
		Nickname: nickname,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   userID,
			Issuer:    s.issuer,
			ExpiresAt: jwt.NewNumericDate(expiresAt),
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
		},
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
	if err != nil {
		return nil, fmt.Errorf("ticket: sign: %w", err)
	}

	return &Ticket{
		Token:     signed,
		UserID:    userID,
		Nickname:  nickname,
		ExpiresAt: expiresAt.UTC(),
	}, nil
}

// Validate parses a ticket. Every failure is reported as Unauthenticated.
func (s *TicketService) Validate(token string) (*Claims, error) {
	token = strings.TrimSpace(token)
	if token == "" {
		return nil, apperrors.ErrUnauthenticated.WithMessage("session ticket is required")
	}

	parser := jwt.NewParser(
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithTimeFunc(s.now),
	)

	var claims Claims
	_, err := parser.ParseWithClaims(token, &claims, func(*jwt.Token) (interface{}, error) {
		return s.secret, nil
	})
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, apperrors.ErrUnauthenticated.WithMessage("session ticket expired").WithInternal(err)
		}
		return nil, apperrors.ErrUnauthenticated.WithMessage("invalid session ticket").WithInternal(err)
	}

	if s.issuer != "" && claims.Issuer != s.issuer {
		return nil, apperrors.ErrUnauthenticated.WithMessage("invalid session ticket issuer")
	}
	if claims.UserID == "" {
		return nil, apperrors.ErrUnauthenticated.WithMessage("session ticket has no user")
	}

	return &claims, nil
}

func randomSecret() (string, error) {
	buf := make([]byte, 32)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("ticket: generate secret: %w", err)
	}
	return hex.EncodeToString(buf), nil
}
