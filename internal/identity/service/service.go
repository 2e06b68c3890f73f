// Package service implements contact identity resolution: deciding whether an
// incoming (email, phone) pair belongs to an existing cluster, merging clusters
// a submission bridges, and producing the consolidated identity view.
package service

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"coalesce/internal/audit"
	"coalesce/internal/identity"
	"coalesce/internal/identity/lock"
	"coalesce/internal/identity/metrics"
	dErrors "coalesce/pkg/domain-errors"
	"coalesce/pkg/requestcontext"
)

// Store is the storage contract resolution requires. It matches
// internal/identity/store.Store; redeclared here so the service depends only on
// what it uses.
type Store interface {
	FindOneByEmail(ctx context.Context, email string) (*identity.Contact, error)
	FindOneByPhone(ctx context.Context, phone string) (*identity.Contact, error)
	FindByID(ctx context.Context, id identity.ContactID) (*identity.Contact, error)
	FindAllByClusterRoot(ctx context.Context, primaryID identity.ContactID) ([]identity.Contact, error)
	CreateContact(ctx context.Context, fields identity.NewContact) (*identity.Contact, error)
	AtomicUpdateLinked(ctx context.Context, fromID, toID identity.ContactID) error
}

// Terminal outcomes of one submission, used as metric labels and log fields.
const (
	outcomeCreated = "created" // fresh primary inserted
	outcomeLinked  = "linked"  // secondary added to an existing cluster
	outcomeMerged  = "merged"  // two clusters unioned
	outcomeNoop    = "noop"    // existing cluster returned unchanged
)

// Service sequences match, merge/insert, and view building for one submission.
// It holds no state between submissions; the lock is the only coordination.
type Service struct {
	store   Store
	locks   lock.SubmissionLock
	audit   *audit.Publisher
	metrics *metrics.Metrics
	logger  *slog.Logger
	tracer  trace.Tracer
}

// New constructs the resolution service. Store and locks are required; audit,
// metrics, and logger may be nil.
func New(store Store, locks lock.SubmissionLock, auditPub *audit.Publisher, m *metrics.Metrics, logger *slog.Logger) (*Service, error) {
	if store == nil {
		return nil, errors.New("contact store is required")
	}
	if locks == nil {
		return nil, errors.New("submission lock is required")
	}
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &Service{
		store:   store,
		locks:   locks,
		audit:   auditPub,
		metrics: m,
		logger:  logger,
		tracer:  otel.Tracer("coalesce/identity"),
	}, nil
}

// Identify resolves one submission to its consolidated identity, creating or
// merging contact rows as needed.
func (s *Service) Identify(ctx context.Context, sub identity.Submission) (*identity.IdentityView, error) {
	start := time.Now()
	ctx, span := s.tracer.Start(ctx, "identity.identify")
	defer span.End()

	if sub.Empty() {
		return nil, dErrors.New(dErrors.CodeValidation, "at least one of email or phoneNumber is required")
	}

	// The boundary spans from the match through the terminal mutation. Reads
	// done purely for the view do not need it, so it is released as soon as
	// the mutation phase ends.
	release, err := s.locks.Acquire(ctx, sub.LockKeys())
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeTimeout, "acquire submission lock")
	}
	defer release()

	primaryID, cluster, outcome, err := s.resolve(ctx, sub)
	release()
	if err != nil {
		return nil, err
	}

	view := buildView(orderForView(cluster, primaryID))

	duration := time.Since(start)
	span.SetAttributes(
		attribute.String("identity.outcome", outcome),
		attribute.Int64("identity.primary_id", int64(primaryID)),
	)
	s.metrics.IncrementSubmission(outcome)
	s.metrics.ObserveResolveLatency(duration)
	s.logger.InfoContext(ctx, "submission resolved",
		"request_id", requestcontext.RequestID(ctx),
		"outcome", outcome,
		"primary_id", primaryID,
		"cluster_size", len(cluster),
		"duration_ms", duration.Milliseconds(),
	)

	return &view, nil
}

// resolve runs the mutation phase under the submission lock and returns the
// cluster to build the view from.
func (s *Service) resolve(ctx context.Context, sub identity.Submission) (identity.ContactID, []identity.Contact, string, error) {
	match, err := s.resolveMatch(ctx, sub)
	if err != nil {
		return 0, nil, "", err
	}

	switch {
	case match.Bridged():
		survivorID, err := s.merge(ctx, match.PrimaryID, match.SecondaryID)
		if err != nil {
			return 0, nil, "", err
		}
		cluster, err := s.fetchCluster(ctx, survivorID)
		if err != nil {
			return 0, nil, "", err
		}
		return survivorID, cluster, outcomeMerged, nil

	case match.Found():
		primaryID := match.PrimaryID
		cluster, err := s.fetchCluster(ctx, primaryID)
		if err != nil {
			return 0, nil, "", err
		}
		// A new secondary is only warranted when the submission carries both
		// fields and that exact pair is not already in the cluster.
		if sub.Complete() && !clusterHasPair(cluster, sub) {
			created, err := s.insert(ctx, sub, &primaryID)
			if err != nil {
				return 0, nil, "", err
			}
			cluster = append(cluster, *created)
			return primaryID, cluster, outcomeLinked, nil
		}
		return primaryID, cluster, outcomeNoop, nil

	default:
		created, err := s.insert(ctx, sub, nil)
		if err != nil {
			return 0, nil, "", err
		}
		return created.ID, []identity.Contact{*created}, outcomeCreated, nil
	}
}

func (s *Service) fetchCluster(ctx context.Context, primaryID identity.ContactID) ([]identity.Contact, error) {
	cluster, err := s.store.FindAllByClusterRoot(ctx, primaryID)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "fetch cluster")
	}
	if len(cluster) == 0 {
		return nil, dErrors.New(dErrors.CodeInternal, "matched cluster has no rows")
	}
	return cluster, nil
}

// clusterHasPair reports whether any row carries exactly the submitted
// (email, phone) pair.
func clusterHasPair(cluster []identity.Contact, sub identity.Submission) bool {
	for _, c := range cluster {
		if c.Email == sub.Email && c.Phone == sub.Phone {
			return true
		}
	}
	return false
}
