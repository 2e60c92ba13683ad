package service

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/darkr4m/5StarK9/internal/core/domain"
	"github.com/darkr4m/5StarK9/internal/core/ports"
)

// ClientService implements client-profile management for staff members.
type ClientService struct {
	repo  ports.ClientRepository
	audit ports.AuditRecorder
	log   zerolog.Logger
	now   func() time.Time
}

func NewClientService(repo ports.ClientRepository, audit ports.AuditRecorder, log zerolog.Logger) *ClientService {
	if audit == nil {
		audit = nopAuditRecorder{}
	}
	return &ClientService{repo: repo, audit: audit, log: log, now: time.Now}
}

func requireStaff(caller *domain.User) error {
	if caller == nil {
		return domain.ErrUnauthenticated
	}
	if !caller.CanManageClients() {
		return domain.ErrForbidden
	}
	return nil
}

func (s *ClientService) Create(ctx context.Context, caller *domain.User, in ports.ClientInput) (*domain.ClientProfile, error) {
	if err := requireStaff(caller); err != nil {
		return nil, err
	}

	now := s.now().UTC()
	c := &domain.ClientProfile{
		ID:        uuid.New(),
		IsActive:  true,
		CreatedAt: now,
		UpdatedAt: now,
	}
	applyClientInput(c, in)
	if err := c.Check(); err != nil {
		return nil, err
	}

	if err := s.repo.Create(ctx, c); err != nil {
		return nil, fmt.Errorf("create client: %w", err)
	}

	s.record(domain.AuditClientCreated, caller, c)
	return c, nil
}

func (s *ClientService) Get(ctx context.Context, caller *domain.User, id uuid.UUID) (*domain.ClientProfile, error) {
	if err := requireStaff(caller); err != nil {
		return nil, err
	}
	return s.repo.FindByID(ctx, id)
}

// Update applies only the provided fields, then re-validates the whole record.
func (s *ClientService) Update(ctx context.Context, caller *domain.User, id uuid.UUID, in ports.ClientInput) (*domain.ClientProfile, error) {
	if err := requireStaff(caller); err != nil {
		return nil, err
	}

	c, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}

	applyClientInput(c, in)
	if err := c.Check(); err != nil {
		return nil, err
	}
	c.UpdatedAt = s.now().UTC()

	if err := s.repo.Update(ctx, c); err != nil {
		return nil, fmt.Errorf("update client: %w", err)
	}

	s.record(domain.AuditClientUpdated, caller, c)
	return c, nil
}

// Deactivate is a soft delete: the row stays, is_active becomes false.
func (s *ClientService) Deactivate(ctx context.Context, caller *domain.User, id uuid.UUID) error {
	if err := requireStaff(caller); err != nil {
		return err
	}

	c, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return err
	}
	if !c.IsActive {
		return nil
	}

	c.IsActive = false
	c.UpdatedAt = s.now().UTC()
	if err := s.repo.Update(ctx, c); err != nil {
		return fmt.Errorf("deactivate client: %w", err)
	}

	s.record(domain.AuditClientClosed, caller, c)
	return nil
}

func (s *ClientService) List(ctx context.Context, caller *domain.User, in ports.ListClientsInput) (*ports.ListClientsResult, error) {
	if err := requireStaff(caller); err != nil {
		return nil, err
	}

	page, limit := normalizePage(in.Page, in.Limit)
	items, total, err := s.repo.List(ctx, ports.ListClientsFilter{
		Status:   in.Status,
		IsActive: in.IsActive,
		Search:   in.Search,
		Page:     page,
		Limit:    limit,
	})
	if err != nil {
		return nil, fmt.Errorf("list clients: %w", err)
	}

	return &ports.ListClientsResult{
		Items:      items,
		Total:      total,
		Page:       page,
		Limit:      limit,
		TotalPages: totalPages(total, limit),
	}, nil
}

func (s *ClientService) record(action domain.AuditAction, caller *domain.User, c *domain.ClientProfile) {
	s.audit.Record(domain.AuditEvent{
		Action:    action,
		Email:     caller.Email,
		ActorID:   caller.ID.String(),
		SubjectID: c.ID.String(),
		Timestamp: c.UpdatedAt,
	})
	s.log.Info().
		Str("action", string(action)).
		Str("client_id", c.ID.String()).
		Str("actor", caller.Email).
		Msg("client profile changed")
}

func applyClientInput(c *domain.ClientProfile, in ports.ClientInput) {
	switch {
	case in.ClearUserID:
		c.UserID = nil
	case in.UserID != nil:
		id := *in.UserID
		c.UserID = &id
	}
	setString(&c.FirstName, in.FirstName)
	setString(&c.LastName, in.LastName)
	setString(&c.Email, in.Email)
	setString(&c.PhoneNumber, in.PhoneNumber)
	setString(&c.AlternatePhoneNumber, in.AlternatePhoneNumber)
	setString(&c.PreferredContactMethod, in.PreferredContactMethod)
	setString(&c.EmergencyContactName, in.EmergencyContactName)
	setString(&c.EmergencyContactPhone, in.EmergencyContactPhone)
	setString(&c.Notes, in.Notes)
	setString(&c.ClientStatus, in.ClientStatus)
	setString(&c.ReferralSource, in.ReferralSource)
	if in.IsActive != nil {
		c.IsActive = *in.IsActive
	}
	if c.Email != "" {
		c.Email = domain.NormalizeEmail(c.Email)
	}
}

func setString(dst *string, v *string) {
	if v != nil {
		*dst = *v
	}
}
