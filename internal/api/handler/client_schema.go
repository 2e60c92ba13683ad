package handler

import (
	"bytes"
	"encoding/json"
	"time"

	"github.com/google/uuid"

	"github.com/darkr4m/5StarK9/internal/core/domain"
	"github.com/darkr4m/5StarK9/internal/core/ports"
)

// nullableField tells an omitted key apart from an explicit JSON null.
type nullableField struct {
	Set   bool
	Value *string
}

func (f *nullableField) UnmarshalJSON(b []byte) error {
	f.Set = true
	if bytes.Equal(bytes.TrimSpace(b), []byte("null")) {
		f.Value = nil
		return nil
	}
	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		return err
	}
	f.Value = &s
	return nil
}

// clientRequest serves both create and partial update; omitted fields stay
// nil. user_id may be sent as null to unlink the profile.
type clientRequest struct {
	UserID                 nullableField `json:"user_id" swaggertype:"string" format:"uuid"`
	FirstName              *string       `json:"first_name" validate:"omitempty,max=100"`
	LastName               *string       `json:"last_name" validate:"omitempty,max=100"`
	Email                  *string       `json:"email" validate:"omitempty,email,max=255"`
	PhoneNumber            *string       `json:"phone_number" validate:"omitempty,max=30"`
	AlternatePhoneNumber   *string       `json:"alternate_phone_number" validate:"omitempty,max=30"`
	PreferredContactMethod *string       `json:"preferred_contact_method" validate:"omitempty,max=30"`
	EmergencyContactName   *string       `json:"emergency_contact_name" validate:"omitempty,max=200"`
	EmergencyContactPhone  *string       `json:"emergency_contact_phone" validate:"omitempty,max=30"`
	Notes                  *string       `json:"notes"`
	ClientStatus           *string       `json:"client_status" validate:"omitempty,max=30"`
	ReferralSource         *string       `json:"referral_source" validate:"omitempty,max=100"`
	IsActive               *bool         `json:"is_active"`
}

func (r clientRequest) toInput() (ports.ClientInput, error) {
	in := ports.ClientInput{
		FirstName:              r.FirstName,
		LastName:               r.LastName,
		Email:                  r.Email,
		PhoneNumber:            r.PhoneNumber,
		AlternatePhoneNumber:   r.AlternatePhoneNumber,
		PreferredContactMethod: r.PreferredContactMethod,
		EmergencyContactName:   r.EmergencyContactName,
		EmergencyContactPhone:  r.EmergencyContactPhone,
		Notes:                  r.Notes,
		ClientStatus:           r.ClientStatus,
		ReferralSource:         r.ReferralSource,
		IsActive:               r.IsActive,
	}
	switch {
	case r.UserID.Set && r.UserID.Value == nil:
		in.ClearUserID = true
	case r.UserID.Value != nil:
		id, err := uuid.Parse(*r.UserID.Value)
		if err != nil {
			return ports.ClientInput{}, domain.FieldError("user_id", "must be a valid UUID")
		}
		in.UserID = &id
	}
	return in, nil
}

type clientResponse struct {
	ID                     uuid.UUID  `json:"id"`
	UserID                 *uuid.UUID `json:"user_id"`
	FirstName              string     `json:"first_name"`
	LastName               string     `json:"last_name"`
	FullName               string     `json:"full_name"`
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
	CreatedAt              string     `json:"created_at"`
	UpdatedAt              string     `json:"updated_at"`
}

type listClientsResponse struct {
	Items      []clientResponse `json:"items"`
	Total      int64            `json:"total"`
	Page       int              `json:"page"`
	Limit      int              `json:"limit"`
	TotalPages int              `json:"total_pages"`
}

func toClientResponse(c *domain.ClientProfile) clientResponse {
	return clientResponse{
		ID:                     c.ID,
		UserID:                 c.UserID,
		FirstName:              c.FirstName,
		LastName:               c.LastName,
		FullName:               c.FullName(),
		Email:                  c.Email,
		PhoneNumber:            c.PhoneNumber,
		AlternatePhoneNumber:   c.AlternatePhoneNumber,
		PreferredContactMethod: c.PreferredContactMethod,
		EmergencyContactName:   c.EmergencyContactName,
		EmergencyContactPhone:  c.EmergencyContactPhone,
		Notes:                  c.Notes,
		ClientStatus:           c.ClientStatus,
		ReferralSource:         c.ReferralSource,
		IsActive:               c.IsActive,
		CreatedAt:              c.CreatedAt.UTC().Format(time.RFC3339),
		UpdatedAt:              c.UpdatedAt.UTC().Format(time.RFC3339),
	}
}
