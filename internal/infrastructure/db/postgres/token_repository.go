package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/darkr4m/5StarK9/internal/core/domain"
)

type TokenRepository struct {
	db  *gorm.DB
	now func() time.Time
}

func NewTokenRepository(db *gorm.DB) *TokenRepository {
	return &TokenRepository{db: db, now: time.Now}
}

func (r *TokenRepository) FindByKey(ctx context.Context, key string) (*domain.AuthToken, error) {
	var rec tokenRecord
	err := r.db.WithContext(ctx).Where("key = ?", key).First(&rec).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.ErrTokenNotFound
		}
		return nil, fmt.Errorf("find token: %w", err)
	}
	return rec.toDomain(), nil
}

// GetOrCreate returns the user's existing token or stores newKey as a fresh
// one. The bool reports whether a row was inserted.
func (r *TokenRepository) GetOrCreate(ctx context.Context, userID uuid.UUID, newKey string) (*domain.AuthToken, bool, error) {
	db := r.db.WithContext(ctx)

	existing, err := r.findByUser(db, userID)
	if err == nil {
		return existing, false, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, false, fmt.Errorf("find token by user: %w", err)
	}

	rec := tokenRecord{Key: newKey, UserID: userID, CreatedAt: r.now().UTC()}
	if err := db.Omit(clause.Associations).Create(&rec).Error; err != nil {
		if !isDuplicate(err) {
			return nil, false, fmt.Errorf("insert token: %w", err)
		}
		// a concurrent login for the same user won the insert
		existing, err := r.findByUser(db, userID)
		if err != nil {
			return nil, false, fmt.Errorf("find token by user: %w", err)
		}
		return existing, false, nil
	}
	return rec.toDomain(), true, nil
}

func (r *TokenRepository) findByUser(db *gorm.DB, userID uuid.UUID) (*domain.AuthToken, error) {
	var rec tokenRecord
	if err := db.Where("user_id = ?", userID).First(&rec).Error; err != nil {
		return nil, err
	}
	return rec.toDomain(), nil
}

func (r *TokenRepository) DeleteByKey(ctx context.Context, key string) error {
	res := r.db.WithContext(ctx).Where("key = ?", key).Delete(&tokenRecord{})
	if res.Error != nil {
		return fmt.Errorf("delete token: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return domain.ErrTokenNotFound
	}
	return nil
}
