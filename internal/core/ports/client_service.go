package ports

import (
	"context"

	"github.com/google/uuid"

	"github.com/darkr4m/5StarK9/internal/core/domain"
)

// ClientInput carries the writable client fields. Nil pointers mean "not
// provided" so the same DTO serves create and partial update.
type ClientInput struct {
	UserID                 *uuid.UUID
	FirstName              *string
	LastName               *string
	Email                  *string
	PhoneNumber            *string
	AlternatePhoneNumber   *string
	PreferredContactMethod *string
	EmergencyContactName   *string
	EmergencyContactPhone  *string
	Notes                  *string
	ClientStatus           *string
	ReferralSource         *string
	IsActive               *bool

	// ClearUserID unlinks the profile from its account. It wins over UserID.
	ClearUserID bool
}

// ListClientsInput carries listing parameters from the transport layer.
type ListClientsInput struct {
	Status   string
	IsActive *bool
	Search   string
	Page     int
	Limit    int
}

// ListClientsResult is a page of client profiles.
type ListClientsResult struct {
	Items      []*domain.ClientProfile
	Total      int64
	Page       int
	Limit      int
	TotalPages int
}

// ClientService defines use-case operations for client profiles. Every
// operation requires a caller with staff capabilities.
type ClientService interface {
	Create(ctx context.Context, caller *domain.User, in ClientInput) (*domain.ClientProfile, error)
	Get(ctx context.Context, caller *domain.User, id uuid.UUID) (*domain.ClientProfile, error)
	Update(ctx context.Context, caller *domain.User, id uuid.UUID, in ClientInput) (*domain.ClientProfile, error)
	Deactivate(ctx context.Context, caller *domain.User, id uuid.UUID) error
	List(ctx context.Context, caller *domain.User, in ListClientsInput) (*ListClientsResult, error)
}
