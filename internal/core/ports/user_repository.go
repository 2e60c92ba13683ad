package ports

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/darkr4m/5StarK9/internal/core/domain"
)

// ListUsersFilter carries the admin listing parameters.
type ListUsersFilter struct {
	UserType domain.Role // optional
	IsActive *bool       // optional
	Search   string      // optional: partial match on first_name, last_name or email
	Page     int         // 1-based
	Limit    int
}

// UserRepository defines persistence operations for accounts.
type UserRepository interface {
	// CreateWithToken inserts the user and its first token in one transaction.
	// Returns domain.ErrUserExists when the email is already taken.
	CreateWithToken(ctx context.Context, user *domain.User, token *domain.AuthToken) error
	// CreateFirstAdmin behaves like CreateWithToken but only succeeds while no
	// ADMIN exists; the check and the insert are atomic. Returns
	// domain.ErrAdminExists otherwise.
	CreateFirstAdmin(ctx context.Context, user *domain.User, token *domain.AuthToken) error
	FindByEmail(ctx context.Context, email string) (*domain.User, error)
	FindByID(ctx context.Context, id uuid.UUID) (*domain.User, error)
	CountByRole(ctx context.Context, role domain.Role) (int64, error)
	TouchLastLogin(ctx context.Context, id uuid.UUID, at time.Time) error
	List(ctx context.Context, filter ListUsersFilter) ([]*domain.User, int64, error)
}

// TokenRepository defines persistence operations for bearer tokens.
type TokenRepository interface {
	FindByKey(ctx context.Context, key string) (*domain.AuthToken, error)
	// GetOrCreate returns the user's token, inserting one with newKey when
	// none exists. created reports which branch was taken.
	GetOrCreate(ctx context.Context, userID uuid.UUID, newKey string) (token *domain.AuthToken, created bool, err error)
	DeleteByKey(ctx context.Context, key string) error
}

// TokenCache maps token keys to user IDs in front of TokenRepository.
type TokenCache interface {
	Get(ctx context.Context, key string) (userID uuid.UUID, found bool, err error)
	Set(ctx context.Context, key string, userID uuid.UUID) error
	Delete(ctx context.Context, key string) error
}
