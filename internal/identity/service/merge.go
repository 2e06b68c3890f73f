package service

import (
	"context"
	"errors"
	"fmt"

	"coalesce/internal/audit"
	"coalesce/internal/identity"
	dErrors "coalesce/pkg/domain-errors"
	"coalesce/pkg/platform/sentinel"
)

// merge unions two clusters bridged by one submission. The older primary
// (creation time, ties by id) survives; the other primary and everything
// pointing at it are repointed in one atomic batch so the one-hop invariant
// cannot be observed half-applied.
func (s *Service) merge(ctx context.Context, idA, idB identity.ContactID) (identity.ContactID, error) {
	a, err := s.fetchMergeContact(ctx, idA)
	if err != nil {
		return 0, err
	}
	b, err := s.fetchMergeContact(ctx, idB)
	if err != nil {
		return 0, err
	}

	survivor, demoted := *a, *b
	if demoted.Older(survivor) {
		survivor, demoted = demoted, survivor
	}

	if err := s.store.AtomicUpdateLinked(ctx, demoted.ID, survivor.ID); err != nil {
		return 0, dErrors.Wrap(err, dErrors.CodeInternal, "repoint demoted cluster")
	}

	s.audit.Emit(ctx, audit.Event{
		Action:    audit.ActionClustersMerged,
		ContactID: int64(demoted.ID),
		PrimaryID: int64(survivor.ID),
	})

	return survivor.ID, nil
}

func (s *Service) fetchMergeContact(ctx context.Context, id identity.ContactID) (*identity.Contact, error) {
	contact, err := s.store.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, dErrors.Wrap(err, dErrors.CodeNotFound, fmt.Sprintf("merge contact %d not found", id))
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, fmt.Sprintf("fetch merge contact %d", id))
	}
	return contact, nil
}
