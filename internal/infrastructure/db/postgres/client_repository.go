package postgres

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/darkr4m/5StarK9/internal/core/domain"
	"github.com/darkr4m/5StarK9/internal/core/ports"
)

type ClientRepository struct {
	db *gorm.DB
}

func NewClientRepository(db *gorm.DB) *ClientRepository {
	return &ClientRepository{db: db}
}

func (r *ClientRepository) Create(ctx context.Context, c *domain.ClientProfile) error {
	rec := toClientRecord(c)
	if err := r.db.WithContext(ctx).Omit(clause.Associations).Create(&rec).Error; err != nil {
		if isForeignKeyViolation(err) {
			return unknownLinkedUser()
		}
		return fmt.Errorf("insert client: %w", err)
	}
	return nil
}

func (r *ClientRepository) FindByID(ctx context.Context, id uuid.UUID) (*domain.ClientProfile, error) {
	var rec clientRecord
	err := r.db.WithContext(ctx).Where("id = ?", id).First(&rec).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.ErrClientNotFound
		}
		return nil, fmt.Errorf("find client: %w", err)
	}
	return rec.toDomain(), nil
}

// Update overwrites every column of an existing profile.
func (r *ClientRepository) Update(ctx context.Context, c *domain.ClientProfile) error {
	rec := toClientRecord(c)
	res := r.db.WithContext(ctx).
		Model(&clientRecord{}).
		Where("id = ?", c.ID).
		Select("*").
		Omit("id", "created_at", clause.Associations).
		Updates(&rec)
	if res.Error != nil {
		if isForeignKeyViolation(res.Error) {
			return unknownLinkedUser()
		}
		return fmt.Errorf("update client: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return domain.ErrClientNotFound
	}
	return nil
}

func unknownLinkedUser() error {
	return domain.FieldError("user_id", "user does not exist")
}

func (r *ClientRepository) List(ctx context.Context, f ports.ListClientsFilter) ([]*domain.ClientProfile, int64, error) {
	q := r.db.WithContext(ctx).Model(&clientRecord{})
	if f.Status != "" {
		q = q.Where("client_status = ?", f.Status)
	}
	if f.IsActive != nil {
		q = q.Where("is_active = ?", *f.IsActive)
	}
	if s := strings.TrimSpace(f.Search); s != "" {
		like := "%" + strings.ToLower(s) + "%"
		q = q.Where("(LOWER(last_name) LIKE ? OR LOWER(first_name) LIKE ? OR LOWER(email) LIKE ?)", like, like, like)
	}
	q = q.Session(&gorm.Session{})

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("count clients: %w", err)
	}

	var recs []clientRecord
	err := q.Order("last_name ASC, first_name ASC").
		Offset(pageOffset(f.Page, f.Limit)).
		Limit(f.Limit).
		Find(&recs).Error
	if err != nil {
		return nil, 0, fmt.Errorf("list clients: %w", err)
	}

	out := make([]*domain.ClientProfile, 0, len(recs))
	for i := range recs {
		out = append(out, recs[i].toDomain())
	}
	return out, total, nil
}

var (
	_ ports.UserRepository   = (*UserRepository)(nil)
	_ ports.TokenRepository  = (*TokenRepository)(nil)
	_ ports.ClientRepository = (*ClientRepository)(nil)
)
