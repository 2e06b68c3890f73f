package service

import (
	"context"
	"errors"

	"coalesce/internal/identity"
	dErrors "coalesce/pkg/domain-errors"
	"coalesce/pkg/platform/sentinel"
)

// resolveMatch finds the cluster primary id(s) the submission's fields imply.
// Read-only. When both fields resolve and disagree, the email-derived id takes
// the PrimaryID slot; the ordering is arbitrary but stable so the merger can
// apply its own age tie-break independently.
func (s *Service) resolveMatch(ctx context.Context, sub identity.Submission) (identity.Match, error) {
	var match identity.Match

	if sub.Email != "" {
		root, err := s.lookupRoot(ctx, s.store.FindOneByEmail, sub.Email)
		if err != nil {
			return identity.Match{}, err
		}
		match.PrimaryID = root
	}

	if sub.Phone != "" {
		root, err := s.lookupRoot(ctx, s.store.FindOneByPhone, sub.Phone)
		if err != nil {
			return identity.Match{}, err
		}
		if match.PrimaryID == 0 {
			match.PrimaryID = root
		} else if root != 0 && root != match.PrimaryID {
			match.SecondaryID = root
		}
	}

	return match, nil
}

// lookupRoot runs one exact-match lookup and resolves the row to its cluster
// primary. A missing row is an empty slot, not an error.
func (s *Service) lookupRoot(ctx context.Context, find func(context.Context, string) (*identity.Contact, error), value string) (identity.ContactID, error) {
	contact, err := find(ctx, value)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return 0, nil
		}
		return 0, dErrors.Wrap(err, dErrors.CodeInternal, "lookup contact")
	}
	return contact.ClusterRoot(), nil
}
