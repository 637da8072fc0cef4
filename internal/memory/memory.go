// Package memory holds per-session conversation history with a sliding
// expiry. Every save refreshes the TTL; clear removes the key immediately.
package memory

import (
	"context"
	"fmt"
	"time"

	"github.com/coursebuddy/coursebuddy/models"
)

// DefaultTTL is the sliding expiry applied on every save.
const DefaultTTL = 1800 * time.Second

// Key builds the storage key for one (course, session) conversation.
func Key(courseID int, sessionID string) string {
	return fmt.Sprintf("chat:%d:%s", courseID, sessionID)
}

// Store is the session memory capability.
type Store interface {
	// Get returns the stored turns, or an empty slice when the key is
	// absent or expired.
	Get(ctx context.Context, courseID int, sessionID string) ([]models.ConversationTurn, error)
	// Save stores the full turn sequence and resets the expiry window.
	Save(ctx context.Context, courseID int, sessionID string, turns []models.ConversationTurn, ttl time.Duration) error
	// Clear deletes the key immediately, independent of TTL.
	Clear(ctx context.Context, courseID int, sessionID string) error
}
