// Package credstore persists the bearer credential between process runs. It
// is the durable projection of the session: written when the session becomes
// authenticated, erased when it leaves that state, and consulted only at cold
// start.
package credstore

import (
	"context"
	"errors"
	"time"
)

// ErrNotFound is returned by Load when no credential is stored.
var ErrNotFound = errors.New("credstore: no credential stored")

// Record is the durable slice of a session.
type Record struct {
	// Token is the opaque bearer credential.
	Token string
	// IdentityID is the id of the identity the token was issued for, used to
	// detect identity mismatch on hydration.
	IdentityID string
	// SavedAt is when the record was written.
	SavedAt time.Time
}

// Store holds at most one credential record.
type Store interface {
	// Load returns the stored record or ErrNotFound.
	Load(ctx context.Context) (*Record, error)
	// Save replaces the stored record.
	Save(ctx context.Context, record Record) error
	// Clear removes any stored record. Clearing an empty store is a no-op.
	Clear(ctx context.Context) error
}
