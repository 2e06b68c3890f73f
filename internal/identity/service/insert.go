package service

import (
	"context"

	"coalesce/internal/audit"
	"coalesce/internal/identity"
	dErrors "coalesce/pkg/domain-errors"
)

// insert creates one contact row: a secondary attached to linkedID when given,
// otherwise a fresh primary. Storage failures come back as error values for the
// orchestrator to surface.
func (s *Service) insert(ctx context.Context, sub identity.Submission, linkedID *identity.ContactID) (*identity.Contact, error) {
	fields := identity.NewContact{
		Email:          sub.Email,
		Phone:          sub.Phone,
		LinkedID:       linkedID,
		LinkPrecedence: identity.LinkPrecedencePrimary,
	}
	if linkedID != nil {
		fields.LinkPrecedence = identity.LinkPrecedenceSecondary
	}

	created, err := s.store.CreateContact(ctx, fields)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "create contact")
	}

	s.metrics.IncrementContactsCreated()
	s.audit.Emit(ctx, audit.Event{
		Action:    audit.ActionContactCreated,
		ContactID: int64(created.ID),
		PrimaryID: int64(created.ClusterRoot()),
	})

	return created, nil
}
