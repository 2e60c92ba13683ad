package postgres

import (
	"time"

	"github.com/google/uuid"

	"github.com/darkr4m/5StarK9/internal/core/domain"
)

type userRecord struct {
	ID            uuid.UUID  `gorm:"type:uuid;primaryKey"`
	Email         string     `gorm:"size:255;uniqueIndex;not null"`
	FirstName     string     `gorm:"size:100;not null;index:idx_users_name,priority:2"`
	LastName      string     `gorm:"size:100;not null;index:idx_users_name,priority:1"`
	Password      string     `gorm:"size:128;not null"`
	UserType      string     `gorm:"size:10;not null;index"`
	IsStaffMember bool       `gorm:"not null"`
	IsStaff       bool       `gorm:"not null"`
	IsSuperuser   bool       `gorm:"not null"`
	IsActive      bool       `gorm:"not null;index"`
	DateJoined    time.Time  `gorm:"not null"`
	LastLogin     *time.Time
	UpdatedAt     time.Time
}

func (userRecord) TableName() string {
	return "users"
}

type tokenRecord struct {
	Key       string     `gorm:"column:key;size:64;primaryKey"`
	UserID    uuid.UUID  `gorm:"type:uuid;uniqueIndex;not null"`
	User      userRecord `gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE"`
	CreatedAt time.Time  `gorm:"not null"`
}

func (tokenRecord) TableName() string {
	return "auth_tokens"
}

type clientRecord struct {
	ID                     uuid.UUID   `gorm:"type:uuid;primaryKey"`
	UserID                 *uuid.UUID  `gorm:"type:uuid;index"`
	User                   *userRecord `gorm:"foreignKey:UserID;constraint:OnDelete:SET NULL"`
	FirstName              string      `gorm:"size:100;not null;index:idx_clients_name,priority:2"`
	LastName               string      `gorm:"size:100;not null;index:idx_clients_name,priority:1"`
	Email                  string      `gorm:"size:255;index"`
	PhoneNumber            string      `gorm:"size:30"`
	AlternatePhoneNumber   string      `gorm:"size:30"`
	PreferredContactMethod string      `gorm:"size:30"`
	EmergencyContactName   string      `gorm:"size:200"`
	EmergencyContactPhone  string      `gorm:"size:30"`
	Notes                  string      `gorm:"type:text"`
	ClientStatus           string      `gorm:"size:30;index"`
	ReferralSource         string      `gorm:"size:100"`
	IsActive               bool        `gorm:"not null;index"`
	CreatedAt              time.Time   `gorm:"not null"`
	UpdatedAt              time.Time   `gorm:"not null"`
}

func (clientRecord) TableName() string {
	return "client_profiles"
}

func toUserRecord(u *domain.User) userRecord {
	return userRecord{
		ID:            u.ID,
		Email:         u.Email,
		FirstName:     u.FirstName,
		LastName:      u.LastName,
		Password:      u.PasswordHash,
		UserType:      string(u.UserType),
		IsStaffMember: u.IsStaffMember,
		IsStaff:       u.IsStaff,
		IsSuperuser:   u.IsSuperuser,
		IsActive:      u.IsActive,
		DateJoined:    u.DateJoined,
		LastLogin:     u.LastLogin,
		UpdatedAt:     u.UpdatedAt,
	}
}

func (r *userRecord) toDomain() *domain.User {
	return &domain.User{
		ID:            r.ID,
		Email:         r.Email,
		FirstName:     r.FirstName,
		LastName:      r.LastName,
		PasswordHash:  r.Password,
		UserType:      domain.Role(r.UserType),
		IsStaffMember: r.IsStaffMember,
		IsStaff:       r.IsStaff,
		IsSuperuser:   r.IsSuperuser,
		IsActive:      r.IsActive,
		DateJoined:    r.DateJoined.UTC(),
		LastLogin:     r.LastLogin,
		UpdatedAt:     r.UpdatedAt.UTC(),
	}
}

func (r *tokenRecord) toDomain() *domain.AuthToken {
	return &domain.AuthToken{Key: r.Key, UserID: r.UserID, CreatedAt: r.CreatedAt.UTC()}
}

func toClientRecord(c *domain.ClientProfile) clientRecord {
	return clientRecord{
		ID:                     c.ID,
		UserID:                 c.UserID,
		FirstName:              c.FirstName,
		LastName:               c.LastName,
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
		CreatedAt:              c.CreatedAt,
		UpdatedAt:              c.UpdatedAt,
	}
}

func (r *clientRecord) toDomain() *domain.ClientProfile {
	return &domain.ClientProfile{
		ID:                     r.ID,
		UserID:                 r.UserID,
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
		CreatedAt:              r.CreatedAt.UTC(),
		UpdatedAt:              r.UpdatedAt.UTC(),
	}
}
