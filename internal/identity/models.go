// Package identity defines the contact model and the consolidated identity
// view produced by resolution.
package identity

import (
	"sort"
	"strings"
	"time"
)

// ContactID is the primary key of a contact row. IDs are assigned in creation
// order, which makes them the tie-break for "older" when two rows share a
// creation timestamp. Zero is never a valid ID.
type ContactID int64

// LinkPrecedence marks a contact as the root of its cluster or as a subordinate
// row contributing an extra email/phone.
type LinkPrecedence string

const (
	LinkPrecedencePrimary   LinkPrecedence = "primary"
	LinkPrecedenceSecondary LinkPrecedence = "secondary"
)

// Contact is the sole persisted entity. A cluster is one primary row plus every
// secondary whose LinkedID points at it; chains longer than one hop are never
// written.
type Contact struct {
	ID             ContactID
	Email          string
	Phone          string
	LinkedID       *ContactID
	LinkPrecedence LinkPrecedence
	CreatedAt      time.Time
	UpdatedAt      time.Time
	DeletedAt      *time.Time
}

// IsPrimary reports whether this row is the root of its cluster.
func (c Contact) IsPrimary() bool {
	return c.LinkPrecedence == LinkPrecedencePrimary
}

// ClusterRoot resolves the row to its cluster's primary ID: its own ID when
// primary, its LinkedID when secondary. Returns zero for a corrupt secondary
// with no link.
func (c Contact) ClusterRoot() ContactID {
	if c.IsPrimary() {
		return c.ID
	}
	if c.LinkedID != nil {
		return *c.LinkedID
	}
	return 0
}

// Older reports whether c was created before other, breaking creation-time ties
// by ID ascending.
func (c Contact) Older(other Contact) bool {
	if c.CreatedAt.Equal(other.CreatedAt) {
		return c.ID < other.ID
	}
	return c.CreatedAt.Before(other.CreatedAt)
}

// NewContact holds the fields for a contact insert. Precedence is decided by
// the caller: secondary when LinkedID is set, primary otherwise.
type NewContact struct {
	Email          string
	Phone          string
	LinkedID       *ContactID
	LinkPrecedence LinkPrecedence
}

// Submission is one incoming (email, phone) pair. Empty string means the field
// was not supplied.
type Submission struct {
	Email string
	Phone string
}

// Empty reports whether the submission carries neither field.
func (s Submission) Empty() bool {
	return s.Email == "" && s.Phone == ""
}

// Complete reports whether both fields were supplied.
func (s Submission) Complete() bool {
	return s.Email != "" && s.Phone != ""
}

// LockKeys returns the normalized lock keys for this submission, sorted so
// every resolver acquires them in the same order.
func (s Submission) LockKeys() []string {
	keys := make([]string, 0, 2)
	if s.Email != "" {
		keys = append(keys, "email:"+strings.ToLower(s.Email))
	}
	if s.Phone != "" {
		keys = append(keys, "phone:"+s.Phone)
	}
	sort.Strings(keys)
	return keys
}

// Match is the matcher's result. Zero means the slot is empty.
type Match struct {
	PrimaryID   ContactID
	SecondaryID ContactID
}

// Found reports whether at least one cluster matched.
func (m Match) Found() bool {
	return m.PrimaryID != 0
}

// Bridged reports whether the submission bridges two distinct clusters.
func (m Match) Bridged() bool {
	return m.PrimaryID != 0 && m.SecondaryID != 0
}

// IdentityView is the externally visible summary of a cluster. Emails and
// PhoneNumbers are deduplicated with the primary's own values first.
type IdentityView struct {
	PrimaryContactID    ContactID
	Emails              []string
	PhoneNumbers        []string
	SecondaryContactIDs []ContactID
}
