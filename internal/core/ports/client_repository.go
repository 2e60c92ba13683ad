package ports

import (
	"context"

	"github.com/google/uuid"

	"github.com/darkr4m/5StarK9/internal/core/domain"
)

// ListClientsFilter carries all query parameters for listing client profiles.
type ListClientsFilter struct {
	Status   string // optional: exact client_status
	IsActive *bool  // optional
	Search   string // optional: partial match on first/last name or email
	Page     int    // 1-based
	Limit    int
}

// ClientRepository defines persistence operations for client profiles.
type ClientRepository interface {
	Create(ctx context.Context, c *domain.ClientProfile) error
	FindByID(ctx context.Context, id uuid.UUID) (*domain.ClientProfile, error)
	Update(ctx context.Context, c *domain.ClientProfile) error
	List(ctx context.Context, filter ListClientsFilter) ([]*domain.ClientProfile, int64, error)
}
