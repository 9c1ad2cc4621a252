package ticket

import (
	"errors"
	"fmt"
	"strings"
	"time"

	jwtlib "github.com/golang-jwt/jwt/v5"
)

// Issuer is stamped into every ticket and checked on parse.
const Issuer = "dalnoboi-map"

var (
	ErrInvalidSigningAlgo = errors.New("unexpected signing method")
	ErrInvalidTicket      = errors.New("invalid session ticket")
	ErrSessionMismatch    = errors.New("ticket belongs to another session")
)

// Manager signs and verifies HS256 session tickets. Tickets only let a client resume a
// map session it created; they are not user authentication.
type Manager struct {
	secret []byte
	ttl    time.Duration
}

// NewManager creates a ticket manager. It panics on an empty secret.
func NewManager(secret string, ttl time.Duration) *Manager {
	s := strings.TrimSpace(secret)
	if s == "" {
		panic("ticket: empty secret key")
	}
	if ttl <= 0 {
		ttl = 15 * time.Minute
	}
	return &Manager{secret: []byte(s), ttl: ttl}
}

func (m *Manager) TTL() time.Duration { return m.ttl }

// Issue returns a signed ticket for sessionID owned by driverID.
func (m *Manager) Issue(sessionID, driverID string) (string, *Claims, error) {
	if strings.TrimSpace(sessionID) == "" || strings.TrimSpace(driverID) == "" {
		return "", nil, fmt.Errorf("%w: session and driver ids are required", ErrInvalidTicket)
	}

	claims := NewClaims(sessionID, driverID, m.ttl)
	signed, err := jwtlib.NewWithClaims(jwtlib.SigningMethodHS256, claims).SignedString(m.secret)
	if err != nil {
		return "", nil, fmt.Errorf("sign ticket: %w", err)
	}
	return signed, claims, nil
}

// ParseAndValidate verifies the signature, expiry and issuer.
func (m *Manager) ParseAndValidate(raw string) (*Claims, error) {
	parser := jwtlib.NewParser(
		jwtlib.WithValidMethods([]string{jwtlib.SigningMethodHS256.Alg()}),
		jwtlib.WithIssuer(Issuer),
		jwtlib.WithExpirationRequired(),
	)

	claims := &Claims{}
	token, err := parser.ParseWithClaims(raw, claims, func(t *jwtlib.Token) (any, error) {
		if t.Method != jwtlib.SigningMethodHS256 {
			return nil, ErrInvalidSigningAlgo
		}
		return m.secret, nil
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidTicket, err)
	}
	if !token.Valid || claims.SessionID == "" || claims.Subject == "" {
		return nil, ErrInvalidTicket
	}
	return claims, nil
}
