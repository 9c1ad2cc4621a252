package ticket

import (
	"time"

	jwtlib "github.com/golang-jwt/jwt/v5"
)

// Claims bind a ticket to one map session and the anonymous driver id that owns it.
type Claims struct {
	SessionID string `json:"sid"`
	jwtlib.RegisteredClaims
}

var _ jwtlib.Claims = (*Claims)(nil)

// NewClaims constructs session claims; the subject is the driver id.
func NewClaims(sessionID, driverID string, ttl time.Duration) *Claims {
	now := time.Now().UTC()
	return &Claims{
		SessionID: sessionID,
		RegisteredClaims: jwtlib.RegisteredClaims{
			Subject:   driverID,
			Issuer:    Issuer,
			ExpiresAt: jwtlib.NewNumericDate(now.Add(ttl)),
			IssuedAt:  jwtlib.NewNumericDate(now),
		},
	}
}

// DriverID is the ticket subject.
func (c *Claims) DriverID() string { return c.Subject }
