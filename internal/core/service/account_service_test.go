package service

import (
	"context"
	"errors"
	"regexp"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"golang.org/x/crypto/bcrypt"

	"github.com/darkr4m/5StarK9/internal/core/domain"
	"github.com/darkr4m/5StarK9/internal/core/ports"
)

// ---------------------------------------------------------------------------
// Stubs
// ---------------------------------------------------------------------------

type stubUserRepo struct {
	users     map[uuid.UUID]*domain.User
	tokens    *stubTokenRepo
	createErr error
	findErr   error
	lastList  ports.ListUsersFilter
	// staleCount makes CountByRole report zero, as a concurrent reader would
	// before another bootstrap request commits.
	staleCount bool
}

func newStubUserRepo(tokens *stubTokenRepo) *stubUserRepo {
	return &stubUserRepo{users: make(map[uuid.UUID]*domain.User), tokens: tokens}
}

func cloneUser(u *domain.User) *domain.User {
	if u == nil {
		return nil
	}
	clone := *u
	return &clone
}

func (r *stubUserRepo) CreateWithToken(_ context.Context, user *domain.User, token *domain.AuthToken) error {
	if r.createErr != nil {
		return r.createErr
	}
	for _, u := range r.users {
		if u.Email == user.Email {
			return domain.ErrUserExists
		}
	}
	r.users[user.ID] = cloneUser(user)
	t := *token
	r.tokens.byKey[token.Key] = &t
	return nil
}

func (r *stubUserRepo) CreateFirstAdmin(ctx context.Context, user *domain.User, token *domain.AuthToken) error {
	for _, u := range r.users {
		if u.UserType == domain.RoleAdmin {
			return domain.ErrAdminExists
		}
	}
	return r.CreateWithToken(ctx, user, token)
}

func (r *stubUserRepo) FindByEmail(_ context.Context, email string) (*domain.User, error) {
	if r.findErr != nil {
		return nil, r.findErr
	}
	for _, u := range r.users {
		if u.Email == email {
			return cloneUser(u), nil
		}
	}
	return nil, domain.ErrUserNotFound
}

func (r *stubUserRepo) FindByID(_ context.Context, id uuid.UUID) (*domain.User, error) {
	u, ok := r.users[id]
	if !ok {
		return nil, domain.ErrUserNotFound
	}
	return cloneUser(u), nil
}

func (r *stubUserRepo) CountByRole(_ context.Context, role domain.Role) (int64, error) {
	if r.staleCount {
		return 0, nil
	}
	var n int64
	for _, u := range r.users {
		if u.UserType == role {
			n++
		}
	}
	return n, nil
}

func (r *stubUserRepo) TouchLastLogin(_ context.Context, id uuid.UUID, at time.Time) error {
	if u, ok := r.users[id]; ok {
		u.LastLogin = &at
	}
	return nil
}

func (r *stubUserRepo) List(_ context.Context, f ports.ListUsersFilter) ([]*domain.User, int64, error) {
	r.lastList = f
	out := make([]*domain.User, 0, len(r.users))
	for _, u := range r.users {
		out = append(out, cloneUser(u))
	}
	return out, int64(len(out)), nil
}

type stubTokenRepo struct {
	byKey map[string]*domain.AuthToken
}

func newStubTokenRepo() *stubTokenRepo {
	return &stubTokenRepo{byKey: make(map[string]*domain.AuthToken)}
}

func (r *stubTokenRepo) FindByKey(_ context.Context, key string) (*domain.AuthToken, error) {
	t, ok := r.byKey[key]
	if !ok {
		return nil, domain.ErrTokenNotFound
	}
	c := *t
	return &c, nil
}

func (r *stubTokenRepo) GetOrCreate(_ context.Context, userID uuid.UUID, newKey string) (*domain.AuthToken, bool, error) {
	for _, t := range r.byKey {
		if t.UserID == userID {
			c := *t
			return &c, false, nil
		}
	}
	t := &domain.AuthToken{Key: newKey, UserID: userID, CreatedAt: time.Now().UTC()}
	r.byKey[newKey] = t
	c := *t
	return &c, true, nil
}

func (r *stubTokenRepo) DeleteByKey(_ context.Context, key string) error {
	if _, ok := r.byKey[key]; !ok {
		return domain.ErrTokenNotFound
	}
	delete(r.byKey, key)
	return nil
}

type stubCache struct {
	entries map[string]uuid.UUID
	getErr  error
	hits    int
}

func newStubCache() *stubCache {
	return &stubCache{entries: make(map[string]uuid.UUID)}
}

func (c *stubCache) Get(_ context.Context, key string) (uuid.UUID, bool, error) {
	if c.getErr != nil {
		return uuid.Nil, false, c.getErr
	}
	id, ok := c.entries[key]
	if ok {
		c.hits++
	}
	return id, ok, nil
}

func (c *stubCache) Set(_ context.Context, key string, id uuid.UUID) error {
	c.entries[key] = id
	return nil
}

func (c *stubCache) Delete(_ context.Context, key string) error {
	delete(c.entries, key)
	return nil
}

type stubAudit struct {
	events []domain.AuditEvent
}

func (a *stubAudit) Record(e domain.AuditEvent) {
	a.events = append(a.events, e)
}

func (a *stubAudit) actions() []domain.AuditAction {
	out := make([]domain.AuditAction, len(a.events))
	for i, e := range a.events {
		out[i] = e.Action
	}
	return out
}

// ---------------------------------------------------------------------------
// Helpers
// ---------------------------------------------------------------------------

type accountFixture struct {
	svc    ports.AccountService
	users  *stubUserRepo
	tokens *stubTokenRepo
	cache  *stubCache
	audit  *stubAudit
}

func newAccountFixture(bootstrap bool) *accountFixture {
	tokens := newStubTokenRepo()
	users := newStubUserRepo(tokens)
	cache := newStubCache()
	audit := &stubAudit{}
	svc := NewAccountService(users, tokens, cache, audit,
		AccountOptions{AdminBootstrap: bootstrap, BcryptCost: bcrypt.MinCost}, zerolog.Nop())
	return &accountFixture{svc: svc, users: users, tokens: tokens, cache: cache, audit: audit}
}

func validInput(email string) ports.RegisterInput {
	return ports.RegisterInput{Email: email, Password: "Str0ng!Pass", FirstName: "Ann", LastName: "Lee"}
}

var hexToken = regexp.MustCompile(`^[0-9a-f]{64}$`)

// ---------------------------------------------------------------------------
// Register
// ---------------------------------------------------------------------------

func TestAccountService_Register_Success(t *testing.T) {
	f := newAccountFixture(true)

	res, err := f.svc.Register(context.Background(), nil, validInput("a@x.com"))
	if err != nil {
		t.Fatalf("Register returned error: %v", err)
	}
	if res.User.Email != "a@x.com" {
		t.Fatalf("unexpected email %q", res.User.Email)
	}
	if !hexToken.MatchString(res.Token) {
		t.Fatalf("expected 64-char hex token, got %q", res.Token)
	}
	if res.User.UserType != domain.RoleClient || res.User.IsStaff || res.User.IsSuperuser {
		t.Fatalf("unexpected role flags: %+v", res.User)
	}
	if !res.User.IsActive {
		t.Fatalf("new users must be active")
	}
	if err := bcrypt.CompareHashAndPassword([]byte(res.User.PasswordHash), []byte("Str0ng!Pass")); err != nil {
		t.Fatalf("stored hash does not match password: %v", err)
	}
	if len(f.users.users) != 1 || len(f.tokens.byKey) != 1 {
		t.Fatalf("expected exactly one user and one token, got %d/%d", len(f.users.users), len(f.tokens.byKey))
	}
	if got := f.audit.actions(); len(got) != 1 || got[0] != domain.AuditRegistered {
		t.Fatalf("unexpected audit trail: %v", got)
	}
}

func TestAccountService_Register_Duplicate(t *testing.T) {
	f := newAccountFixture(true)

	if _, err := f.svc.Register(context.Background(), nil, validInput("a@x.com")); err != nil {
		t.Fatalf("first register failed: %v", err)
	}
	_, err := f.svc.Register(context.Background(), nil, validInput("a@X.COM"))

	var ve *domain.ValidationError
	if !errors.As(err, &ve) || len(ve.Fields["email"]) == 0 {
		t.Fatalf("expected email uniqueness error, got %v", err)
	}
	if len(f.users.users) != 1 {
		t.Fatalf("duplicate must not create a second user")
	}
}

func TestAccountService_Register_LostRace(t *testing.T) {
	f := newAccountFixture(true)
	f.users.createErr = domain.ErrUserExists

	_, err := f.svc.Register(context.Background(), nil, validInput("a@x.com"))
	if !errors.Is(err, domain.ErrValidation) {
		t.Fatalf("expected ErrValidation, got %v", err)
	}
}

func TestAccountService_Register_Validation(t *testing.T) {
	f := newAccountFixture(true)

	in := validInput("a@x.com")
	in.FirstName = "John3"
	if _, err := f.svc.Register(context.Background(), nil, in); !errors.Is(err, domain.ErrValidation) {
		t.Fatalf("expected ErrValidation for bad name, got %v", err)
	}

	in = validInput("a@x.com")
	in.UserType = "ADMIN"
	if _, err := f.svc.Register(context.Background(), nil, in); !errors.Is(err, domain.ErrValidation) {
		t.Fatalf("expected ErrValidation for self-assigned admin, got %v", err)
	}

	in = validInput("a@x.com")
	in.Password = "short"
	if _, err := f.svc.Register(context.Background(), nil, in); !errors.Is(err, domain.ErrValidation) {
		t.Fatalf("expected ErrValidation for weak password, got %v", err)
	}

	if len(f.users.users) != 0 {
		t.Fatalf("invalid input must not persist anything")
	}
}

func TestAccountService_Register_Staff(t *testing.T) {
	f := newAccountFixture(true)
	admin := &domain.User{ID: uuid.New(), Email: "root@x.com", IsActive: true}
	admin.ApplyRole(domain.RoleAdmin)

	in := validInput("s@x.com")
	in.UserType = "staff"
	res, err := f.svc.Register(context.Background(), admin, in)
	if err != nil {
		t.Fatalf("register failed: %v", err)
	}
	if res.User.UserType != domain.RoleStaff || !res.User.IsStaffMember || res.User.IsStaff {
		t.Fatalf("unexpected staff flags: %+v", res.User)
	}
}

func TestAccountService_Register_StaffRequiresAdmin(t *testing.T) {
	f := newAccountFixture(true)
	client := &domain.User{ID: uuid.New(), Email: "c@x.com", IsActive: true}
	client.ApplyRole(domain.RoleClient)

	staff := validInput("s@x.com")
	staff.UserType = "STAFF"
	member := validInput("m@x.com")
	member.IsStaffMember = true

	for _, caller := range []*domain.User{nil, client} {
		for _, in := range []ports.RegisterInput{staff, member} {
			if _, err := f.svc.Register(context.Background(), caller, in); !errors.Is(err, domain.ErrValidation) {
				t.Fatalf("expected ErrValidation for %+v by %v, got %v", in, caller, err)
			}
		}
	}
	if len(f.users.users) != 0 {
		t.Fatalf("rejected registrations must not persist anything")
	}
}

func TestAccountService_Register_StoreError(t *testing.T) {
	f := newAccountFixture(true)
	f.users.findErr = errors.New("connection refused")

	if _, err := f.svc.Register(context.Background(), nil, validInput("a@x.com")); err == nil || errors.Is(err, domain.ErrValidation) {
		t.Fatalf("expected an infrastructure error, got %v", err)
	}
}

// ---------------------------------------------------------------------------
// Login
// ---------------------------------------------------------------------------

func TestAccountService_Login_ReturnsSameToken(t *testing.T) {
	f := newAccountFixture(true)
	reg, err := f.svc.Register(context.Background(), nil, validInput("a@x.com"))
	if err != nil {
		t.Fatalf("register failed: %v", err)
	}

	first, err := f.svc.Login(context.Background(), "a@x.com", "Str0ng!Pass")
	if err != nil {
		t.Fatalf("login failed: %v", err)
	}
	second, err := f.svc.Login(context.Background(), "a@X.com", "Str0ng!Pass")
	if err != nil {
		t.Fatalf("second login failed: %v", err)
	}
	if first.Token != reg.Token || second.Token != reg.Token {
		t.Fatalf("expected stable token %q, got %q and %q", reg.Token, first.Token, second.Token)
	}
	if len(f.tokens.byKey) != 1 {
		t.Fatalf("expected a single token, got %d", len(f.tokens.byKey))
	}
	if f.users.users[reg.User.ID].LastLogin == nil {
		t.Fatalf("expected last login to be recorded")
	}
}

func TestAccountService_Login_CreatesTokenAfterLogout(t *testing.T) {
	f := newAccountFixture(true)
	reg, _ := f.svc.Register(context.Background(), nil, validInput("a@x.com"))

	if err := f.svc.Logout(context.Background(), reg.User, reg.Token); err != nil {
		t.Fatalf("logout failed: %v", err)
	}
	res, err := f.svc.Login(context.Background(), "a@x.com", "Str0ng!Pass")
	if err != nil {
		t.Fatalf("login failed: %v", err)
	}
	if res.Token == reg.Token || !hexToken.MatchString(res.Token) {
		t.Fatalf("expected a fresh token, got %q", res.Token)
	}
}

func TestAccountService_Login_FailuresAreIndistinguishable(t *testing.T) {
	f := newAccountFixture(true)
	_, _ = f.svc.Register(context.Background(), nil, validInput("a@x.com"))

	_, errUnknown := f.svc.Login(context.Background(), "ghost@x.com", "Str0ng!Pass")
	_, errWrong := f.svc.Login(context.Background(), "a@x.com", "wrong-password")
	_, errEmpty := f.svc.Login(context.Background(), "", "")

	for _, err := range []error{errUnknown, errWrong, errEmpty} {
		if err != domain.ErrInvalidCredentials {
			t.Fatalf("expected ErrInvalidCredentials, got %v", err)
		}
	}
}

func TestAccountService_Login_Inactive(t *testing.T) {
	f := newAccountFixture(true)
	reg, _ := f.svc.Register(context.Background(), nil, validInput("a@x.com"))
	f.users.users[reg.User.ID].IsActive = false

	if _, err := f.svc.Login(context.Background(), "a@x.com", "Str0ng!Pass"); err != domain.ErrInvalidCredentials {
		t.Fatalf("expected ErrInvalidCredentials, got %v", err)
	}
}

// ---------------------------------------------------------------------------
// Authenticate / Logout
// ---------------------------------------------------------------------------

func TestAccountService_Authenticate_CachesToken(t *testing.T) {
	f := newAccountFixture(true)
	reg, _ := f.svc.Register(context.Background(), nil, validInput("a@x.com"))

	user, err := f.svc.Authenticate(context.Background(), reg.Token)
	if err != nil || user.Email != "a@x.com" {
		t.Fatalf("authenticate failed: %v %+v", err, user)
	}
	if f.cache.entries[reg.Token] != reg.User.ID {
		t.Fatalf("expected token to be cached")
	}

	if _, err := f.svc.Authenticate(context.Background(), reg.Token); err != nil {
		t.Fatalf("cached authenticate failed: %v", err)
	}
	if f.cache.hits != 1 {
		t.Fatalf("expected one cache hit, got %d", f.cache.hits)
	}
}

func TestAccountService_Authenticate_CacheErrorFallsBack(t *testing.T) {
	f := newAccountFixture(true)
	reg, _ := f.svc.Register(context.Background(), nil, validInput("a@x.com"))
	f.cache.getErr = errors.New("redis down")

	if _, err := f.svc.Authenticate(context.Background(), reg.Token); err != nil {
		t.Fatalf("expected database fallback, got %v", err)
	}
}

func TestAccountService_Authenticate_Rejects(t *testing.T) {
	f := newAccountFixture(true)
	reg, _ := f.svc.Register(context.Background(), nil, validInput("a@x.com"))

	if _, err := f.svc.Authenticate(context.Background(), ""); err != domain.ErrUnauthenticated {
		t.Fatalf("expected ErrUnauthenticated for empty key, got %v", err)
	}
	if _, err := f.svc.Authenticate(context.Background(), "deadbeef"); err != domain.ErrUnauthenticated {
		t.Fatalf("expected ErrUnauthenticated for unknown key, got %v", err)
	}

	f.users.users[reg.User.ID].IsActive = false
	if _, err := f.svc.Authenticate(context.Background(), reg.Token); err != domain.ErrUnauthenticated {
		t.Fatalf("expected ErrUnauthenticated for inactive user, got %v", err)
	}
}

func TestAccountService_Logout_InvalidatesToken(t *testing.T) {
	f := newAccountFixture(true)
	reg, _ := f.svc.Register(context.Background(), nil, validInput("a@x.com"))

	caller, err := f.svc.Authenticate(context.Background(), reg.Token)
	if err != nil {
		t.Fatalf("authenticate failed: %v", err)
	}
	if err := f.svc.Logout(context.Background(), caller, reg.Token); err != nil {
		t.Fatalf("logout failed: %v", err)
	}

	if _, ok := f.cache.entries[reg.Token]; ok {
		t.Fatalf("expected cache entry to be evicted")
	}
	if _, err := f.svc.Authenticate(context.Background(), reg.Token); err != domain.ErrUnauthenticated {
		t.Fatalf("expected token to be dead after logout, got %v", err)
	}
	if err := f.svc.Logout(context.Background(), caller, reg.Token); err != domain.ErrUnauthenticated {
		t.Fatalf("expected second logout to fail, got %v", err)
	}
}

// ---------------------------------------------------------------------------
// CreateAdmin
// ---------------------------------------------------------------------------

func TestAccountService_CreateAdmin_Bootstrap(t *testing.T) {
	f := newAccountFixture(true)

	res, err := f.svc.CreateAdmin(context.Background(), nil, validInput("root@x.com"))
	if err != nil {
		t.Fatalf("bootstrap admin failed: %v", err)
	}
	u := res.User
	if !u.IsAdminUser() || !u.IsStaff || !u.IsSuperuser || !u.IsStaffMember {
		t.Fatalf("admin flags not set: %+v", u)
	}

	if _, err := f.svc.CreateAdmin(context.Background(), nil, validInput("second@x.com")); err != domain.ErrUnauthenticated {
		t.Fatalf("expected ErrUnauthenticated once an admin exists, got %v", err)
	}

	client, _ := f.svc.Register(context.Background(), nil, validInput("c@x.com"))
	if _, err := f.svc.CreateAdmin(context.Background(), client.User, validInput("third@x.com")); err != domain.ErrForbidden {
		t.Fatalf("expected ErrForbidden for client caller, got %v", err)
	}

	if _, err := f.svc.CreateAdmin(context.Background(), u, validInput("fourth@x.com")); err != nil {
		t.Fatalf("admin caller should be allowed: %v", err)
	}
}

func TestAccountService_CreateAdmin_BootstrapRace(t *testing.T) {
	f := newAccountFixture(true)

	if _, err := f.svc.CreateAdmin(context.Background(), nil, validInput("root@x.com")); err != nil {
		t.Fatalf("bootstrap admin failed: %v", err)
	}
	f.users.staleCount = true

	if _, err := f.svc.CreateAdmin(context.Background(), nil, validInput("late@x.com")); err != domain.ErrUnauthenticated {
		t.Fatalf("expected ErrUnauthenticated when another admin won, got %v", err)
	}
	if n := len(f.users.users); n != 1 {
		t.Fatalf("expected exactly one admin, got %d users", n)
	}
}

func TestAccountService_CreateAdmin_BootstrapDisabled(t *testing.T) {
	f := newAccountFixture(false)

	if _, err := f.svc.CreateAdmin(context.Background(), nil, validInput("root@x.com")); err != domain.ErrUnauthenticated {
		t.Fatalf("expected ErrUnauthenticated, got %v", err)
	}
	if len(f.users.users) != 0 {
		t.Fatalf("no account should have been created")
	}
}

// ---------------------------------------------------------------------------
// ListUsers
// ---------------------------------------------------------------------------

func TestAccountService_ListUsers(t *testing.T) {
	f := newAccountFixture(true)
	_, _ = f.svc.Register(context.Background(), nil, validInput("a@x.com"))
	_, _ = f.svc.Register(context.Background(), nil, validInput("b@x.com"))

	res, err := f.svc.ListUsers(context.Background(), ports.ListUsersInput{UserType: "client", Limit: 500})
	if err != nil {
		t.Fatalf("list failed: %v", err)
	}
	if f.users.lastList.UserType != domain.RoleClient || f.users.lastList.Limit != maxPageSize || f.users.lastList.Page != 1 {
		t.Fatalf("unexpected filter: %+v", f.users.lastList)
	}
	if res.Total != 2 || res.TotalPages != 1 {
		t.Fatalf("unexpected page: %+v", res)
	}

	if _, err := f.svc.ListUsers(context.Background(), ports.ListUsersInput{UserType: "owner"}); !errors.Is(err, domain.ErrValidation) {
		t.Fatalf("expected ErrValidation for bad user_type, got %v", err)
	}
}
