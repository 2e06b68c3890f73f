package store

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"coalesce/internal/identity"
	"coalesce/pkg/platform/sentinel"
	"coalesce/pkg/requestcontext"
)

var _ Store = (*InMemoryStore)(nil)

type InMemoryStoreSuite struct {
	suite.Suite
	store *InMemoryStore
	ctx   context.Context
}

func TestInMemoryStoreSuite(t *testing.T) {
	suite.Run(t, new(InMemoryStoreSuite))
}

func (s *InMemoryStoreSuite) SetupTest() {
	s.store = NewInMemoryStore()
	s.ctx = context.Background()
}

func (s *InMemoryStoreSuite) create(email, phone string, linkedTo *identity.ContactID) *identity.Contact {
	precedence := identity.LinkPrecedencePrimary
	if linkedTo != nil {
		precedence = identity.LinkPrecedenceSecondary
	}
	c, err := s.store.CreateContact(s.ctx, identity.NewContact{
		Email:          email,
		Phone:          phone,
		LinkedID:       linkedTo,
		LinkPrecedence: precedence,
	})
	s.Require().NoError(err)
	return c
}

func (s *InMemoryStoreSuite) TestCreateContact() {
	s.Run("assigns sequential ids starting at one", func() {
		first := s.create("a@x.com", "111", nil)
		second := s.create("b@y.com", "", nil)

		s.Equal(identity.ContactID(1), first.ID)
		s.Equal(identity.ContactID(2), second.ID)
		s.Equal(2, s.store.Count())
	})

	s.Run("stamps timestamps from the request clock", func() {
		at := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
		ctx := requestcontext.WithTime(context.Background(), at)

		c, err := s.store.CreateContact(ctx, identity.NewContact{
			Email:          "c@z.com",
			LinkPrecedence: identity.LinkPrecedencePrimary,
		})
		s.Require().NoError(err)
		s.True(c.CreatedAt.Equal(at))
		s.True(c.UpdatedAt.Equal(at))
	})
}

func (s *InMemoryStoreSuite) TestFindOneByEmail() {
	s.Run("found", func() {
		created := s.create("a@x.com", "111", nil)

		got, err := s.store.FindOneByEmail(s.ctx, "a@x.com")
		s.Require().NoError(err)
		s.Equal(created.ID, got.ID)
	})

	s.Run("not found", func() {
		_, err := s.store.FindOneByEmail(s.ctx, "missing@x.com")
		s.ErrorIs(err, sentinel.ErrNotFound)
	})
}

func (s *InMemoryStoreSuite) TestFindOneByPhone() {
	s.Run("found", func() {
		created := s.create("a@x.com", "111", nil)

		got, err := s.store.FindOneByPhone(s.ctx, "111")
		s.Require().NoError(err)
		s.Equal(created.ID, got.ID)
	})

	s.Run("not found", func() {
		_, err := s.store.FindOneByPhone(s.ctx, "999")
		s.ErrorIs(err, sentinel.ErrNotFound)
	})
}

func (s *InMemoryStoreSuite) TestFindByID() {
	created := s.create("a@x.com", "111", nil)

	got, err := s.store.FindByID(s.ctx, created.ID)
	s.Require().NoError(err)
	s.Equal(created.Email, got.Email)

	_, err = s.store.FindByID(s.ctx, 42)
	s.ErrorIs(err, sentinel.ErrNotFound)
}

func (s *InMemoryStoreSuite) TestFindAllByClusterRoot() {
	primary := s.create("a@x.com", "111", nil)
	second := s.create("a@x.com", "222", &primary.ID)
	third := s.create("b@y.com", "111", &primary.ID)
	s.create("other@z.com", "999", nil) // unrelated cluster

	cluster, err := s.store.FindAllByClusterRoot(s.ctx, primary.ID)
	s.Require().NoError(err)
	s.Require().Len(cluster, 3)
	s.Equal(primary.ID, cluster[0].ID)
	s.Equal(second.ID, cluster[1].ID)
	s.Equal(third.ID, cluster[2].ID)
}

func (s *InMemoryStoreSuite) TestAtomicUpdateLinked() {
	survivor := s.create("a@x.com", "111", nil)
	demoted := s.create("b@y.com", "222", nil)
	tail := s.create("b@y.com", "333", &demoted.ID)

	err := s.store.AtomicUpdateLinked(s.ctx, demoted.ID, survivor.ID)
	s.Require().NoError(err)

	// The demoted primary and its whole subtree point one hop at the survivor.
	for _, id := range []identity.ContactID{demoted.ID, tail.ID} {
		c, err := s.store.FindByID(s.ctx, id)
		s.Require().NoError(err)
		s.Equal(identity.LinkPrecedenceSecondary, c.LinkPrecedence)
		s.Require().NotNil(c.LinkedID)
		s.Equal(survivor.ID, *c.LinkedID)
	}

	// The survivor itself is untouched.
	got, err := s.store.FindByID(s.ctx, survivor.ID)
	s.Require().NoError(err)
	s.True(got.IsPrimary())
	s.Nil(got.LinkedID)
}
