package service

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/darkr4m/5StarK9/internal/core/domain"
	"github.com/darkr4m/5StarK9/internal/core/ports"
)

type stubClientRepo struct {
	byID      map[uuid.UUID]*domain.ClientProfile
	updates   int
	lastList  ports.ListClientsFilter
	createErr error
}

func newStubClientRepo() *stubClientRepo {
	return &stubClientRepo{byID: make(map[uuid.UUID]*domain.ClientProfile)}
}

func (r *stubClientRepo) Create(_ context.Context, c *domain.ClientProfile) error {
	if r.createErr != nil {
		return r.createErr
	}
	clone := *c
	r.byID[c.ID] = &clone
	return nil
}

func (r *stubClientRepo) FindByID(_ context.Context, id uuid.UUID) (*domain.ClientProfile, error) {
	c, ok := r.byID[id]
	if !ok {
		return nil, domain.ErrClientNotFound
	}
	clone := *c
	return &clone, nil
}

func (r *stubClientRepo) Update(_ context.Context, c *domain.ClientProfile) error {
	if _, ok := r.byID[c.ID]; !ok {
		return domain.ErrClientNotFound
	}
	clone := *c
	r.byID[c.ID] = &clone
	r.updates++
	return nil
}

func (r *stubClientRepo) List(_ context.Context, f ports.ListClientsFilter) ([]*domain.ClientProfile, int64, error) {
	r.lastList = f
	out := make([]*domain.ClientProfile, 0, len(r.byID))
	for _, c := range r.byID {
		clone := *c
		out = append(out, &clone)
	}
	return out, int64(len(out)), nil
}

func strPtr(s string) *string { return &s }

func staffUser() *domain.User {
	u := &domain.User{ID: uuid.New(), Email: "staff@x.com", IsActive: true}
	u.ApplyRole(domain.RoleStaff)
	return u
}

func clientUser() *domain.User {
	u := &domain.User{ID: uuid.New(), Email: "client@x.com", IsActive: true}
	u.ApplyRole(domain.RoleClient)
	return u
}

func TestClientService_Create(t *testing.T) {
	repo := newStubClientRepo()
	audit := &stubAudit{}
	svc := NewClientService(repo, audit, zerolog.Nop())

	c, err := svc.Create(context.Background(), staffUser(), ports.ClientInput{
		FirstName:    strPtr("Mary"),
		LastName:     strPtr("O'Neil"),
		Email:        strPtr("Mary@Example.com"),
		ClientStatus: strPtr("new"),
	})
	if err != nil {
		t.Fatalf("create failed: %v", err)
	}
	if !c.IsActive || c.CreatedAt.IsZero() || c.ID == uuid.Nil {
		t.Fatalf("server-set fields missing: %+v", c)
	}
	if c.Email != "Mary@example.com" {
		t.Fatalf("expected normalized email, got %q", c.Email)
	}
	if c.FullName() != "Mary O'Neil" {
		t.Fatalf("unexpected full name %q", c.FullName())
	}
	if len(repo.byID) != 1 {
		t.Fatalf("expected one stored client")
	}
	if got := audit.actions(); len(got) != 1 || got[0] != domain.AuditClientCreated {
		t.Fatalf("unexpected audit trail: %v", got)
	}
}

func TestClientService_Create_ValidatesNames(t *testing.T) {
	svc := NewClientService(newStubClientRepo(), nil, zerolog.Nop())

	_, err := svc.Create(context.Background(), staffUser(), ports.ClientInput{
		FirstName: strPtr("R2D2"),
		LastName:  strPtr("Droid"),
	})
	var ve *domain.ValidationError
	if !errors.As(err, &ve) || len(ve.Fields["first_name"]) == 0 {
		t.Fatalf("expected first_name validation error, got %v", err)
	}
}

func TestClientService_RequiresStaff(t *testing.T) {
	svc := NewClientService(newStubClientRepo(), nil, zerolog.Nop())

	if _, err := svc.List(context.Background(), clientUser(), ports.ListClientsInput{}); err != domain.ErrForbidden {
		t.Fatalf("expected ErrForbidden for client caller, got %v", err)
	}
	if _, err := svc.List(context.Background(), nil, ports.ListClientsInput{}); err != domain.ErrUnauthenticated {
		t.Fatalf("expected ErrUnauthenticated for anonymous caller, got %v", err)
	}

	member := clientUser()
	member.IsStaffMember = true
	if _, err := svc.List(context.Background(), member, ports.ListClientsInput{}); err != nil {
		t.Fatalf("staff-member flag should grant access: %v", err)
	}
}

func TestClientService_UpdateAndDeactivate(t *testing.T) {
	repo := newStubClientRepo()
	svc := NewClientService(repo, nil, zerolog.Nop())
	staff := staffUser()

	c, err := svc.Create(context.Background(), staff, ports.ClientInput{FirstName: strPtr("Ann"), LastName: strPtr("Lee")})
	if err != nil {
		t.Fatalf("create failed: %v", err)
	}

	updated, err := svc.Update(context.Background(), staff, c.ID, ports.ClientInput{Notes: strPtr("prefers mornings")})
	if err != nil {
		t.Fatalf("update failed: %v", err)
	}
	if updated.Notes != "prefers mornings" || updated.FirstName != "Ann" {
		t.Fatalf("partial update lost fields: %+v", updated)
	}

	if _, err := svc.Update(context.Background(), staff, c.ID, ports.ClientInput{LastName: strPtr("  ")}); !errors.Is(err, domain.ErrValidation) {
		t.Fatalf("expected validation error on blank last name, got %v", err)
	}

	if err := svc.Deactivate(context.Background(), staff, c.ID); err != nil {
		t.Fatalf("deactivate failed: %v", err)
	}
	stored := repo.byID[c.ID]
	if stored == nil || stored.IsActive {
		t.Fatalf("expected row kept and inactive: %+v", stored)
	}

	before := repo.updates
	if err := svc.Deactivate(context.Background(), staff, c.ID); err != nil {
		t.Fatalf("second deactivate failed: %v", err)
	}
	if repo.updates != before {
		t.Fatalf("deactivating an inactive client should be a no-op")
	}

	if err := svc.Deactivate(context.Background(), staff, uuid.New()); err != domain.ErrClientNotFound {
		t.Fatalf("expected ErrClientNotFound, got %v", err)
	}
}

func TestClientService_Update_ClearUserID(t *testing.T) {
	repo := newStubClientRepo()
	svc := NewClientService(repo, nil, zerolog.Nop())
	staff := staffUser()
	owner := uuid.New()

	c, err := svc.Create(context.Background(), staff, ports.ClientInput{FirstName: strPtr("Ann"), LastName: strPtr("Lee"), UserID: &owner})
	if err != nil {
		t.Fatalf("create failed: %v", err)
	}
	if c.UserID == nil || *c.UserID != owner {
		t.Fatalf("expected link to owner: %+v", c)
	}

	if _, err := svc.Update(context.Background(), staff, c.ID, ports.ClientInput{Notes: strPtr("x")}); err != nil {
		t.Fatalf("update failed: %v", err)
	}
	if repo.byID[c.ID].UserID == nil {
		t.Fatalf("omitted user_id must keep the link")
	}

	updated, err := svc.Update(context.Background(), staff, c.ID, ports.ClientInput{ClearUserID: true, UserID: &owner})
	if err != nil {
		t.Fatalf("update failed: %v", err)
	}
	if updated.UserID != nil || repo.byID[c.ID].UserID != nil {
		t.Fatalf("expected link cleared: %+v", updated)
	}
}

func TestClientService_List(t *testing.T) {
	repo := newStubClientRepo()
	svc := NewClientService(repo, nil, zerolog.Nop())
	active := true

	res, err := svc.List(context.Background(), staffUser(), ports.ListClientsInput{Status: "new", IsActive: &active, Page: 0, Limit: 0})
	if err != nil {
		t.Fatalf("list failed: %v", err)
	}
	if repo.lastList.Page != 1 || repo.lastList.Limit != defaultPageSize || repo.lastList.Status != "new" {
		t.Fatalf("unexpected filter: %+v", repo.lastList)
	}
	if res.TotalPages != 0 {
		t.Fatalf("expected zero pages for empty result, got %d", res.TotalPages)
	}
}
