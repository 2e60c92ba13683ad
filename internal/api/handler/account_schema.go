package handler

import (
	"time"

	"github.com/google/uuid"

	"github.com/darkr4m/5StarK9/internal/core/domain"
)

// --- Request types ---

type registerRequest struct {
	Email         string `json:"email" validate:"required,email,max=255"`
	Password      string `json:"password" validate:"required"`
	FirstName     string `json:"first_name" validate:"required,personname"`
	LastName      string `json:"last_name" validate:"required,personname"`
	UserType      string `json:"user_type,omitempty" validate:"omitempty,usertype"`
	IsStaffMember bool   `json:"is_staff_member,omitempty"`
}

type adminRequest struct {
	Email     string `json:"email" validate:"required,email,max=255"`
	Password  string `json:"password" validate:"required"`
	FirstName string `json:"first_name" validate:"required,personname"`
	LastName  string `json:"last_name" validate:"required,personname"`
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// --- Response types ---

type authResponse struct {
	User  string `json:"user"`
	Token string `json:"token"`
}

type adminResponse struct {
	AdminUser string `json:"admin_user"`
	Token     string `json:"token"`
}

type meResponse struct {
	Email string `json:"email"`
}

type userResponse struct {
	ID            uuid.UUID   `json:"id"`
	Email         string      `json:"email"`
	FirstName     string      `json:"first_name"`
	LastName      string      `json:"last_name"`
	FullName      string      `json:"full_name"`
	UserType      domain.Role `json:"user_type"`
	IsStaffMember bool        `json:"is_staff_member"`
	IsStaff       bool        `json:"is_staff"`
	IsActive      bool        `json:"is_active"`
	DateJoined    string      `json:"date_joined"`
	LastLogin     *string     `json:"last_login"`
}

type listUsersResponse struct {
	Items      []userResponse `json:"items"`
	Total      int64          `json:"total"`
	Page       int            `json:"page"`
	Limit      int            `json:"limit"`
	TotalPages int            `json:"total_pages"`
}

func toUserResponse(u *domain.User) userResponse {
	resp := userResponse{
		ID:            u.ID,
		Email:         u.Email,
		FirstName:     u.FirstName,
		LastName:      u.LastName,
		FullName:      u.FullName(),
		UserType:      u.UserType,
		IsStaffMember: u.IsStaffMember,
		IsStaff:       u.IsStaff,
		IsActive:      u.IsActive,
		DateJoined:    u.DateJoined.UTC().Format(time.RFC3339),
	}
	if u.LastLogin != nil {
		ts := u.LastLogin.UTC().Format(time.RFC3339)
		resp.LastLogin = &ts
	}
	return resp
}
