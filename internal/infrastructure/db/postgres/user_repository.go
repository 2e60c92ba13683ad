package postgres

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/darkr4m/5StarK9/internal/core/domain"
	"github.com/darkr4m/5StarK9/internal/core/ports"
)

type UserRepository struct {
	db *gorm.DB
}

func NewUserRepository(db *gorm.DB) *UserRepository {
	return &UserRepository{db: db}
}

// bootstrapLockKey identifies the advisory lock held while the first admin
// is created.
const bootstrapLockKey = 5_000_001

// CreateWithToken inserts the user and its first token in one transaction.
// A failure on either insert leaves no rows behind.
func (r *UserRepository) CreateWithToken(ctx context.Context, user *domain.User, token *domain.AuthToken) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return insertUserWithToken(tx, user, token)
	})
}

// CreateFirstAdmin serialises bootstrap callers on a transaction-scoped
// advisory lock, then re-counts admins before inserting. SQLite has a single
// writer, so the lock is only taken on Postgres.
func (r *UserRepository) CreateFirstAdmin(ctx context.Context, user *domain.User, token *domain.AuthToken) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if tx.Dialector.Name() == "postgres" {
			if err := tx.Exec("SELECT pg_advisory_xact_lock(?)", bootstrapLockKey).Error; err != nil {
				return fmt.Errorf("lock admin bootstrap: %w", err)
			}
		}

		var n int64
		if err := tx.Model(&userRecord{}).Where("user_type = ?", string(domain.RoleAdmin)).Count(&n).Error; err != nil {
			return fmt.Errorf("count admins: %w", err)
		}
		if n > 0 {
			return domain.ErrAdminExists
		}
		return insertUserWithToken(tx, user, token)
	})
}

func insertUserWithToken(tx *gorm.DB, user *domain.User, token *domain.AuthToken) error {
	urec := toUserRecord(user)
	trec := tokenRecord{Key: token.Key, UserID: token.UserID, CreatedAt: token.CreatedAt}

	if err := tx.Create(&urec).Error; err != nil {
		if isDuplicate(err) {
			return domain.ErrUserExists
		}
		return fmt.Errorf("insert user: %w", err)
	}
	if err := tx.Omit(clause.Associations).Create(&trec).Error; err != nil {
		return fmt.Errorf("insert token: %w", err)
	}
	return nil
}

func (r *UserRepository) FindByEmail(ctx context.Context, email string) (*domain.User, error) {
	var rec userRecord
	err := r.db.WithContext(ctx).Where("email = ?", email).First(&rec).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.ErrUserNotFound
		}
		return nil, fmt.Errorf("find user by email: %w", err)
	}
	return rec.toDomain(), nil
}

func (r *UserRepository) FindByID(ctx context.Context, id uuid.UUID) (*domain.User, error) {
	var rec userRecord
	err := r.db.WithContext(ctx).Where("id = ?", id).First(&rec).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.ErrUserNotFound
		}
		return nil, fmt.Errorf("find user by id: %w", err)
	}
	return rec.toDomain(), nil
}

func (r *UserRepository) CountByRole(ctx context.Context, role domain.Role) (int64, error) {
	var n int64
	if err := r.db.WithContext(ctx).Model(&userRecord{}).Where("user_type = ?", string(role)).Count(&n).Error; err != nil {
		return 0, fmt.Errorf("count users: %w", err)
	}
	return n, nil
}

func (r *UserRepository) TouchLastLogin(ctx context.Context, id uuid.UUID, at time.Time) error {
	res := r.db.WithContext(ctx).Model(&userRecord{}).Where("id = ?", id).UpdateColumn("last_login", at)
	if res.Error != nil {
		return fmt.Errorf("update last login: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return domain.ErrUserNotFound
	}
	return nil
}

func (r *UserRepository) List(ctx context.Context, f ports.ListUsersFilter) ([]*domain.User, int64, error) {
	q := r.db.WithContext(ctx).Model(&userRecord{})
	if f.UserType != "" {
		q = q.Where("user_type = ?", string(f.UserType))
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
		return nil, 0, fmt.Errorf("count users: %w", err)
	}

	var recs []userRecord
	err := q.Order("last_name ASC, first_name ASC, email ASC").
		Offset(pageOffset(f.Page, f.Limit)).
		Limit(f.Limit).
		Find(&recs).Error
	if err != nil {
		return nil, 0, fmt.Errorf("list users: %w", err)
	}

	out := make([]*domain.User, 0, len(recs))
	for i := range recs {
		out = append(out, recs[i].toDomain())
	}
	return out, total, nil
}
