package handler

import (
	"strings"

	"coalesce/internal/identity"
)

// IdentifyRequest is the POST /identify body. Both fields are nullable; at
// least one must be present, which the service enforces.
type IdentifyRequest struct {
	Email       *string `json:"email"`
	PhoneNumber *string `json:"phoneNumber"`
}

// Submission converts the request into the domain submission, treating null
// and whitespace-only values as absent.
func (r IdentifyRequest) Submission() identity.Submission {
	var sub identity.Submission
	if r.Email != nil {
		sub.Email = strings.TrimSpace(*r.Email)
	}
	if r.PhoneNumber != nil {
		sub.Phone = strings.TrimSpace(*r.PhoneNumber)
	}
	return sub
}
