package service

import (
	"sort"

	"coalesce/internal/identity"
	pkgstrings "coalesce/pkg/platform/strings"
)

// orderForView orders a cluster so the primary row comes first, then the rest
// by creation. The view's dedupe keeps first occurrences, so this puts the
// primary's own email and phone at the head of the lists.
func orderForView(cluster []identity.Contact, primaryID identity.ContactID) []identity.Contact {
	ordered := append([]identity.Contact(nil), cluster...)
	sort.SliceStable(ordered, func(i, j int) bool {
		if ordered[i].ID == primaryID {
			return ordered[j].ID != primaryID
		}
		if ordered[j].ID == primaryID {
			return false
		}
		return ordered[i].Older(ordered[j])
	})
	return ordered
}

// buildView aggregates a cluster into the consolidated identity. The supplied
// contacts must include the cluster's primary; insertion order controls list
// order.
func buildView(contacts []identity.Contact) identity.IdentityView {
	emails := make([]string, 0, len(contacts))
	phones := make([]string, 0, len(contacts))
	secondaries := make([]identity.ContactID, 0, len(contacts))

	var primaryID identity.ContactID
	seenSecondary := make(map[identity.ContactID]struct{}, len(contacts))
	for _, c := range contacts {
		if c.IsPrimary() {
			primaryID = c.ID
		} else if _, ok := seenSecondary[c.ID]; !ok {
			seenSecondary[c.ID] = struct{}{}
			secondaries = append(secondaries, c.ID)
		}
		emails = append(emails, c.Email)
		phones = append(phones, c.Phone)
	}

	return identity.IdentityView{
		PrimaryContactID:    primaryID,
		Emails:              pkgstrings.Dedupe(emails),
		PhoneNumbers:        pkgstrings.Dedupe(phones),
		SecondaryContactIDs: secondaries,
	}
}
