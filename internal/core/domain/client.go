package domain

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

// ClientProfile describes a person receiving services. UserID optionally
// links the profile to a login account.
type ClientProfile struct {
	ID                     uuid.UUID  `json:"id"`
	UserID                 *uuid.UUID `json:"user_id,omitempty"`
	FirstName              string     `json:"first_name"`
	LastName               string     `json:"last_name"`
	Email                  string     `json:"email"`
	PhoneNumber            string     `json:"phone_number"`
	AlternatePhoneNumber   string     `json:"alternate_phone_number"`
	PreferredContactMethod string     `json:"preferred_contact_method"`
	EmergencyContactName   string     `json:"emergency_contact_name"`
	EmergencyContactPhone  string     `json:"emergency_contact_phone"`
	Notes                  string     `json:"notes"`
	ClientStatus           string     `json:"client_status"`
	ReferralSource         string     `json:"referral_source"`
	IsActive               bool       `json:"is_active"`
	CreatedAt              time.Time  `json:"created_at"`
	UpdatedAt              time.Time  `json:"updated_at"`
}

func (c *ClientProfile) FullName() string {
	return strings.TrimSpace(c.FirstName + " " + c.LastName)
}

func (c *ClientProfile) String() string {
	return c.FullName()
}

// Check validates the canonical client schema.
func (c *ClientProfile) Check() error {
	ve := NewValidationError()
	checkPersonName(ve, "first_name", c.FirstName)
	checkPersonName(ve, "last_name", c.LastName)
	if c.Email != "" && !strings.Contains(c.Email, "@") {
		ve.Add("email", "enter a valid email address")
	}
	if len(c.Email) > EmailMaxLength {
		ve.Add("email", "ensure this field has no more than 255 characters")
	}
	return ve.OrNil()
}
