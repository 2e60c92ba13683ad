package domain

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

// Role categorises a user within the application.
type Role string

const (
	RoleClient Role = "CLIENT"
	RoleStaff  Role = "STAFF"
	RoleAdmin  Role = "ADMIN"
)

const EmailMaxLength = 255

// ParseRole accepts the canonical upper-case names; empty means CLIENT.
func ParseRole(s string) (Role, bool) {
	switch Role(strings.ToUpper(strings.TrimSpace(s))) {
	case "", RoleClient:
		return RoleClient, true
	case RoleStaff:
		return RoleStaff, true
	case RoleAdmin:
		return RoleAdmin, true
	}
	return "", false
}

// User models an account. Email is the login identifier.
type User struct {
	ID            uuid.UUID  `json:"id"`
	Email         string     `json:"email"`
	FirstName     string     `json:"first_name"`
	LastName      string     `json:"last_name"`
	PasswordHash  string     `json:"-"`
	UserType      Role       `json:"user_type"`
	IsStaffMember bool       `json:"is_staff_member"`
	IsStaff       bool       `json:"is_staff"`
	IsSuperuser   bool       `json:"-"`
	IsActive      bool       `json:"is_active"`
	DateJoined    time.Time  `json:"date_joined"`
	LastLogin     *time.Time `json:"-"`
	UpdatedAt     time.Time  `json:"-"`
}

// ApplyRole sets UserType and recomputes the permission flags derived from it:
//
//	ADMIN  → is_staff, is_superuser, is_staff_member
//	STAFF  → is_staff_member
//	CLIENT → neither platform flag; is_staff_member left as requested
func (u *User) ApplyRole(role Role) {
	u.UserType = role
	switch role {
	case RoleAdmin:
		u.IsStaff = true
		u.IsSuperuser = true
		u.IsStaffMember = true
	case RoleStaff:
		u.IsStaff = false
		u.IsSuperuser = false
		u.IsStaffMember = true
	default:
		u.IsStaff = false
		u.IsSuperuser = false
	}
}

func (u *User) IsClient() bool    { return u.UserType == RoleClient }
func (u *User) IsStaffUser() bool { return u.UserType == RoleStaff }
func (u *User) IsAdminUser() bool { return u.UserType == RoleAdmin }

// CanManageClients reports whether the user holds in-app staff capabilities.
func (u *User) CanManageClients() bool {
	return u.IsActive && (u.IsStaffMember || u.IsAdminUser())
}

func (u *User) FullName() string {
	return strings.TrimSpace(u.FirstName + " " + u.LastName)
}

// String returns the full name, falling back to the email.
func (u *User) String() string {
	if name := u.FullName(); name != "" {
		return name
	}
	return u.Email
}

// NormalizeEmail lower-cases the domain part and trims surrounding space.
// The local part is left untouched since some mail servers treat it as
// case-sensitive.
func NormalizeEmail(email string) string {
	email = strings.TrimSpace(email)
	at := strings.LastIndexByte(email, '@')
	if at < 0 {
		return email
	}
	return email[:at+1] + strings.ToLower(email[at+1:])
}

// NewUserInput is everything needed to build an account.
type NewUserInput struct {
	Email         string
	Password      string
	FirstName     string
	LastName      string
	UserType      string
	IsStaffMember bool
}

// Check runs the field rules shared by every account-creation path.
// allowAdmin controls whether user_type=ADMIN may be requested directly;
// allowStaff does the same for user_type=STAFF and is_staff_member.
func (in NewUserInput) Check(allowAdmin, allowStaff bool) (Role, error) {
	ve := NewValidationError()

	email := NormalizeEmail(in.Email)
	switch {
	case email == "":
		ve.Add("email", "this field is required")
	case len(email) > EmailMaxLength:
		ve.Add("email", "ensure this field has no more than 255 characters")
	case !strings.Contains(email, "@"):
		ve.Add("email", "enter a valid email address")
	}

	checkPersonName(ve, "first_name", in.FirstName)
	checkPersonName(ve, "last_name", in.LastName)

	if in.Password == "" {
		ve.Add("password", "this field is required")
	} else {
		for _, p := range PasswordProblems(in.Password, email, in.FirstName, in.LastName) {
			ve.Add("password", p)
		}
	}

	role, ok := ParseRole(in.UserType)
	switch {
	case !ok:
		ve.Add("user_type", `"`+in.UserType+`" is not a valid choice`)
	case role == RoleAdmin && !allowAdmin:
		ve.Add("user_type", "admin accounts must be created through the admin endpoint")
	case role == RoleStaff && !allowStaff:
		ve.Add("user_type", "staff accounts can only be created by an admin")
	}
	if in.IsStaffMember && !allowStaff {
		ve.Add("is_staff_member", "staff access can only be granted by an admin")
	}

	return role, ve.OrNil()
}
