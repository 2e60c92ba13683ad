package ports

import (
	"context"

	"github.com/darkr4m/5StarK9/internal/core/domain"
)

// RegisterInput is the DTO passed from the transport layer for both
// self-registration and admin creation.
type RegisterInput struct {
	Email         string
	Password      string
	FirstName     string
	LastName      string
	UserType      string
	IsStaffMember bool
}

// AuthResult pairs an account with its raw bearer token.
type AuthResult struct {
	User  *domain.User
	Token string
}

// ListUsersInput carries admin listing parameters from the transport layer.
type ListUsersInput struct {
	UserType string
	IsActive *bool
	Search   string
	Page     int
	Limit    int
}

// ListUsersResult is a page of accounts.
type ListUsersResult struct {
	Items      []*domain.User
	Total      int64
	Page       int
	Limit      int
	TotalPages int
}

// AccountService defines the account and authentication use cases.
type AccountService interface {
	// Register creates a non-admin account. caller may be nil; only an active
	// admin caller may request STAFF or is_staff_member.
	Register(ctx context.Context, caller *domain.User, in RegisterInput) (*AuthResult, error)
	Login(ctx context.Context, email, password string) (*AuthResult, error)
	Logout(ctx context.Context, caller *domain.User, tokenKey string) error
	// Authenticate resolves a bearer token to its active user.
	Authenticate(ctx context.Context, tokenKey string) (*domain.User, error)
	// CreateAdmin creates an ADMIN account. caller may be nil for anonymous
	// requests, which are only honoured during bootstrap.
	CreateAdmin(ctx context.Context, caller *domain.User, in RegisterInput) (*AuthResult, error)
	ListUsers(ctx context.Context, in ListUsersInput) (*ListUsersResult, error)
}
