package cli

import (
	"fmt"
	"time"

	"dalnoboi/internal/general/ticket"

	"github.com/google/uuid"
)

// GenerateSessionTicket mints a session ticket for manual socket testing. Empty ids are
// generated. The ticket only attaches to a session the running service knows about.
//
// Keep this package dev/internal only. Do not call it from production code paths.
func GenerateSessionTicket(secret, sessionID, driverID string, ttl time.Duration) (string, ticket.Claims, error) {
	if sessionID == "" {
		sessionID = uuid.NewString()
	}
	if driverID == "" {
		driverID = "DRV-" + uuid.NewString()
	}

	mgr := ticket.NewManager(secret, ttl)
	raw, claims, err := mgr.Issue(sessionID, driverID)
	if err != nil {
		return "", ticket.Claims{}, fmt.Errorf("issue ticket: %w", err)
	}
	return raw, *claims, nil
}
