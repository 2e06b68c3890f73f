package store

import (
	"context"
	"sync"

	"coalesce/internal/identity"
	"coalesce/pkg/platform/sentinel"
	"coalesce/pkg/requestcontext"
)

// InMemoryStore keeps contacts in process memory. It is the default backend
// for development and the test double for the service suites; it intentionally
// favors clarity over performance.
type InMemoryStore struct {
	mu       sync.RWMutex
	contacts []identity.Contact
	nextID   identity.ContactID
}

func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{nextID: 1}
}

func (s *InMemoryStore) FindOneByEmail(_ context.Context, email string) (*identity.Contact, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for i := range s.contacts {
		c := s.contacts[i]
		if c.DeletedAt == nil && c.Email == email {
			return &c, nil
		}
	}
	return nil, sentinel.ErrNotFound
}

func (s *InMemoryStore) FindOneByPhone(_ context.Context, phone string) (*identity.Contact, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for i := range s.contacts {
		c := s.contacts[i]
		if c.DeletedAt == nil && c.Phone == phone {
			return &c, nil
		}
	}
	return nil, sentinel.ErrNotFound
}

func (s *InMemoryStore) FindByID(_ context.Context, id identity.ContactID) (*identity.Contact, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for i := range s.contacts {
		if s.contacts[i].ID == id {
			c := s.contacts[i]
			return &c, nil
		}
	}
	return nil, sentinel.ErrNotFound
}

func (s *InMemoryStore) FindAllByClusterRoot(_ context.Context, primaryID identity.ContactID) ([]identity.Contact, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var cluster []identity.Contact
	for i := range s.contacts {
		c := s.contacts[i]
		if c.ID == primaryID || (c.LinkedID != nil && *c.LinkedID == primaryID) {
			cluster = append(cluster, c)
		}
	}
	// contacts is append-only and IDs are monotonic, so the slice is already
	// in creation order.
	return cluster, nil
}

func (s *InMemoryStore) CreateContact(ctx context.Context, fields identity.NewContact) (*identity.Contact, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	now := requestcontext.Now(ctx)
	c := identity.Contact{
		ID:             s.nextID,
		Email:          fields.Email,
		Phone:          fields.Phone,
		LinkedID:       fields.LinkedID,
		LinkPrecedence: fields.LinkPrecedence,
		CreatedAt:      now,
		UpdatedAt:      now,
	}
	s.nextID++
	s.contacts = append(s.contacts, c)
	return &c, nil
}

func (s *InMemoryStore) AtomicUpdateLinked(ctx context.Context, fromID, toID identity.ContactID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	now := requestcontext.Now(ctx)
	for i := range s.contacts {
		c := &s.contacts[i]
		if c.ID == fromID || (c.LinkedID != nil && *c.LinkedID == fromID) {
			linked := toID
			c.LinkedID = &linked
			c.LinkPrecedence = identity.LinkPrecedenceSecondary
			c.UpdatedAt = now
		}
	}
	return nil
}

// Count returns the number of stored rows. Test helper.
func (s *InMemoryStore) Count() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.contacts)
}
