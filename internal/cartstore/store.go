// Package cartstore holds the per-session named slots the storefront keeps
// on the client: the staged cart draft consumed by checkout, and the last
// email/phone the customer used to look up order history.
package cartstore

import (
	"context"
	"errors"

	"github.com/passosalansilva-lab/brasil-simple-display/internal/model"
)

// ErrNotFound is returned when a slot holds no value for the session.
var ErrNotFound = errors.New("cartstore: slot is empty")

// Store provides last-write-wins access to the session slots. Writes replace
// the slot wholesale; there is no merging with prior content.
type Store interface {
	// SaveDraft overwrites the session's cart draft.
	SaveDraft(ctx context.Context, sessionID string, draft *model.CartDraft) error

	// GetDraft returns the session's cart draft, or ErrNotFound.
	GetDraft(ctx context.Context, sessionID string) (*model.CartDraft, error)

	// ClearDraft removes the session's cart draft. Clearing an already
	// empty slot is not an error.
	ClearDraft(ctx context.Context, sessionID string) error

	// SaveLastIdentifier overwrites the session's last-used order lookup
	// identifier.
	SaveLastIdentifier(ctx context.Context, sessionID, identifier string) error

	// GetLastIdentifier returns the session's last-used identifier, or
	// ErrNotFound.
	GetLastIdentifier(ctx context.Context, sessionID string) (string, error)
}
