package service

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"coalesce/internal/identity"
)

func contact(id identity.ContactID, email, phone string, linkedTo *identity.ContactID, createdAt time.Time) identity.Contact {
	precedence := identity.LinkPrecedencePrimary
	if linkedTo != nil {
		precedence = identity.LinkPrecedenceSecondary
	}
	return identity.Contact{
		ID:             id,
		Email:          email,
		Phone:          phone,
		LinkedID:       linkedTo,
		LinkPrecedence: precedence,
		CreatedAt:      createdAt,
	}
}

func TestOrderForView(t *testing.T) {
	base := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
	root := identity.ContactID(5)

	t.Run("primary moves to the front", func(t *testing.T) {
		cluster := []identity.Contact{
			contact(2, "b@y.com", "", &root, base),
			contact(5, "a@x.com", "111", nil, base.Add(time.Minute)),
			contact(9, "", "222", &root, base.Add(2*time.Minute)),
		}

		ordered := orderForView(cluster, root)

		assert.Equal(t, identity.ContactID(5), ordered[0].ID)
		assert.Equal(t, identity.ContactID(2), ordered[1].ID)
		assert.Equal(t, identity.ContactID(9), ordered[2].ID)
	})

	t.Run("creation ties break by id", func(t *testing.T) {
		cluster := []identity.Contact{
			contact(9, "", "222", &root, base),
			contact(5, "a@x.com", "111", nil, base),
			contact(2, "b@y.com", "", &root, base),
		}

		ordered := orderForView(cluster, root)

		assert.Equal(t, identity.ContactID(5), ordered[0].ID)
		assert.Equal(t, identity.ContactID(2), ordered[1].ID)
		assert.Equal(t, identity.ContactID(9), ordered[2].ID)
	})

	t.Run("input slice is not mutated", func(t *testing.T) {
		cluster := []identity.Contact{
			contact(2, "b@y.com", "", &root, base),
			contact(5, "a@x.com", "111", nil, base.Add(time.Minute)),
		}

		orderForView(cluster, root)

		assert.Equal(t, identity.ContactID(2), cluster[0].ID)
	})
}

func TestBuildView(t *testing.T) {
	base := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
	root := identity.ContactID(1)

	t.Run("aggregates a multi-row cluster", func(t *testing.T) {
		view := buildView([]identity.Contact{
			contact(1, "a@x.com", "111", nil, base),
			contact(2, "a@x.com", "222", &root, base.Add(time.Minute)),
			contact(3, "b@y.com", "333", &root, base.Add(2*time.Minute)),
		})

		assert.Equal(t, root, view.PrimaryContactID)
		assert.Equal(t, []string{"a@x.com", "b@y.com"}, view.Emails)
		assert.Equal(t, []string{"111", "222", "333"}, view.PhoneNumbers)
		assert.Equal(t, []identity.ContactID{2, 3}, view.SecondaryContactIDs)
	})

	t.Run("skips empty fields", func(t *testing.T) {
		view := buildView([]identity.Contact{
			contact(1, "a@x.com", "", nil, base),
			contact(2, "", "222", &root, base.Add(time.Minute)),
		})

		assert.Equal(t, []string{"a@x.com"}, view.Emails)
		assert.Equal(t, []string{"222"}, view.PhoneNumbers)
	})

	t.Run("single primary yields empty lists not nil panics", func(t *testing.T) {
		view := buildView([]identity.Contact{
			contact(1, "", "111", nil, base),
		})

		assert.Equal(t, root, view.PrimaryContactID)
		assert.Empty(t, view.Emails)
		assert.Equal(t, []string{"111"}, view.PhoneNumbers)
		assert.Empty(t, view.SecondaryContactIDs)
	})
}
