package handler

import "coalesce/internal/identity"

// IdentifyResponse wraps the consolidated identity in the "contact" envelope
// clients expect.
type IdentifyResponse struct {
	Contact ContactPayload `json:"contact"`
}

// ContactPayload is the wire form of an IdentityView.
type ContactPayload struct {
	PrimaryContactID    int64    `json:"primaryContactId"`
	Emails              []string `json:"emails"`
	PhoneNumbers        []string `json:"phoneNumbers"`
	SecondaryContactIDs []int64  `json:"secondaryContactIds"`
}

// FromView converts a domain view into the response payload. Slices are always
// non-nil so empty lists serialize as [] rather than null.
func FromView(view *identity.IdentityView) IdentifyResponse {
	secondaries := make([]int64, 0, len(view.SecondaryContactIDs))
	for _, id := range view.SecondaryContactIDs {
		secondaries = append(secondaries, int64(id))
	}
	emails := view.Emails
	if emails == nil {
		emails = []string{}
	}
	phones := view.PhoneNumbers
	if phones == nil {
		phones = []string{}
	}
	return IdentifyResponse{
		Contact: ContactPayload{
			PrimaryContactID:    int64(view.PrimaryContactID),
			Emails:              emails,
			PhoneNumbers:        phones,
			SecondaryContactIDs: secondaries,
		},
	}
}
