// Package store persists contact rows. Implementations return
// sentinel.ErrNotFound for missing rows; the resolution service translates
// those into domain errors.
package store

import (
	"context"

	"coalesce/internal/identity"
)

// Store is the storage contract the resolution engine requires. Implementations
// must make AtomicUpdateLinked all-or-nothing: a partially applied cascade
// would split a cluster and violate the one-hop link invariant.
type Store interface {
	// FindOneByEmail returns a single non-deleted contact with this exact
	// email. Which one is unspecified; resolution to the cluster primary is
	// idempotent per cluster, so any match serves.
	FindOneByEmail(ctx context.Context, email string) (*identity.Contact, error)

	// FindOneByPhone is FindOneByEmail for phone numbers.
	FindOneByPhone(ctx context.Context, phone string) (*identity.Contact, error)

	// FindByID returns the contact with this primary key.
	FindByID(ctx context.Context, id identity.ContactID) (*identity.Contact, error)

	// FindAllByClusterRoot returns every row whose id or linked_id equals
	// primaryID, ordered by creation (oldest first).
	FindAllByClusterRoot(ctx context.Context, primaryID identity.ContactID) ([]identity.Contact, error)

	// CreateContact inserts a new row, stamping id and timestamps.
	CreateContact(ctx context.Context, fields identity.NewContact) (*identity.Contact, error)

	// AtomicUpdateLinked repoints every row with id = fromID or
	// linked_id = fromID to linked_id = toID, link_precedence = secondary,
	// as one unit.
	AtomicUpdateLinked(ctx context.Context, fromID, toID identity.ContactID) error
}
