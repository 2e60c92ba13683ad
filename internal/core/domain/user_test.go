package domain

import (
	"errors"
	"testing"
)

func TestApplyRole_Admin(t *testing.T) {
	u := &User{}
	u.ApplyRole(RoleAdmin)
	if !u.IsStaff || !u.IsSuperuser || !u.IsStaffMember {
		t.Fatalf("admin must carry all three flags: %+v", u)
	}
	if !u.IsAdminUser() {
		t.Fatalf("expected admin user")
	}
}

func TestApplyRole_DemotionClearsPlatformFlags(t *testing.T) {
	u := &User{}
	u.ApplyRole(RoleAdmin)
	u.ApplyRole(RoleClient)
	if u.IsStaff || u.IsSuperuser {
		t.Fatalf("client must not keep platform flags: %+v", u)
	}
	if !u.IsClient() {
		t.Fatalf("expected client")
	}
}

func TestApplyRole_StaffAndIndependentFlag(t *testing.T) {
	staff := &User{}
	staff.ApplyRole(RoleStaff)
	if !staff.IsStaffMember || staff.IsStaff || staff.IsSuperuser {
		t.Fatalf("unexpected staff flags: %+v", staff)
	}

	client := &User{IsStaffMember: true}
	client.ApplyRole(RoleClient)
	if !client.IsStaffMember {
		t.Fatalf("is_staff_member is independent for clients")
	}
}

func TestParseRole(t *testing.T) {
	cases := map[string]Role{"": RoleClient, "client": RoleClient, "STAFF": RoleStaff, " admin ": RoleAdmin}
	for in, want := range cases {
		got, ok := ParseRole(in)
		if !ok || got != want {
			t.Fatalf("ParseRole(%q) = %q, %v", in, got, ok)
		}
	}
	if _, ok := ParseRole("owner"); ok {
		t.Fatalf("expected owner to be rejected")
	}
}

func TestNormalizeEmail(t *testing.T) {
	if got := NormalizeEmail("  Ann.Lee@Example.COM "); got != "Ann.Lee@example.com" {
		t.Fatalf("unexpected normalized email %q", got)
	}
}

func TestUserString(t *testing.T) {
	if s := (&User{Email: "a@x.com"}).String(); s != "a@x.com" {
		t.Fatalf("expected email fallback, got %q", s)
	}
	if s := (&User{Email: "a@x.com", FirstName: "Ann", LastName: "Lee"}).String(); s != "Ann Lee" {
		t.Fatalf("expected full name, got %q", s)
	}
}

func TestNewUserInputCheck(t *testing.T) {
	good := NewUserInput{Email: "a@x.com", Password: "Str0ng!Pass", FirstName: "Ann", LastName: "Lee"}
	role, err := good.Check(false, false)
	if err != nil {
		t.Fatalf("expected valid input, got %v", err)
	}
	if role != RoleClient {
		t.Fatalf("expected default CLIENT role, got %s", role)
	}

	bad := NewUserInput{Email: "nope", Password: "123", FirstName: "John3", LastName: "   ", UserType: "ADMIN"}
	_, err = bad.Check(false, false)
	if !errors.Is(err, ErrValidation) {
		t.Fatalf("expected ErrValidation, got %v", err)
	}
	var ve *ValidationError
	if !errors.As(err, &ve) {
		t.Fatalf("expected *ValidationError")
	}
	for _, field := range []string{"email", "password", "first_name", "last_name", "user_type"} {
		if len(ve.Fields[field]) == 0 {
			t.Fatalf("expected %s to be rejected: %+v", field, ve.Fields)
		}
	}

	admin := good
	admin.UserType = "ADMIN"
	if role, err := admin.Check(true, true); err != nil || role != RoleAdmin {
		t.Fatalf("admin path should accept ADMIN: %v %v", role, err)
	}
}

func TestNewUserInputCheck_StaffNeedsAdmin(t *testing.T) {
	staff := NewUserInput{Email: "s@x.com", Password: "Str0ng!Pass", FirstName: "Sam", LastName: "Lee", UserType: "STAFF"}
	_, err := staff.Check(false, false)
	var ve *ValidationError
	if !errors.As(err, &ve) || len(ve.Fields["user_type"]) == 0 {
		t.Fatalf("expected user_type rejection, got %v", err)
	}
	if role, err := staff.Check(false, true); err != nil || role != RoleStaff {
		t.Fatalf("admin-granted STAFF should pass: %v %v", role, err)
	}

	member := NewUserInput{Email: "m@x.com", Password: "Str0ng!Pass", FirstName: "Mo", LastName: "Lee", IsStaffMember: true}
	_, err = member.Check(false, false)
	if !errors.As(err, &ve) || len(ve.Fields["is_staff_member"]) == 0 {
		t.Fatalf("expected is_staff_member rejection, got %v", err)
	}
	if _, err := member.Check(false, true); err != nil {
		t.Fatalf("admin-granted staff flag should pass: %v", err)
	}
}

func TestPasswordProblems(t *testing.T) {
	if p := PasswordProblems("Str0ng!Pass", "a@x.com", "Ann", "Lee"); len(p) != 0 {
		t.Fatalf("expected strong password to pass, got %v", p)
	}
	if p := PasswordProblems("12345678"); len(p) < 2 {
		t.Fatalf("expected numeric + common failures, got %v", p)
	}
	if p := PasswordProblems("annabelle99", "annabelle@x.com"); len(p) != 1 {
		t.Fatalf("expected similarity failure, got %v", p)
	}
}
