package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"golang.org/x/crypto/bcrypt"

	"github.com/darkr4m/5StarK9/internal/core/domain"
	"github.com/darkr4m/5StarK9/internal/core/ports"
)

// AccountOptions tunes the account service.
type AccountOptions struct {
	// AdminBootstrap lets anonymous callers create an admin while none exists.
	AdminBootstrap bool
	// BcryptCost defaults to bcrypt.DefaultCost.
	BcryptCost int
}

type accountService struct {
	users     ports.UserRepository
	tokens    ports.TokenRepository
	cache     ports.TokenCache
	audit     ports.AuditRecorder
	opts      AccountOptions
	log       zerolog.Logger
	dummyHash []byte

	now    func() time.Time
	newKey func() (string, error)
}

// NewAccountService returns an AccountService implementation. cache and audit
// may be nil.
func NewAccountService(
	users ports.UserRepository,
	tokens ports.TokenRepository,
	cache ports.TokenCache,
	audit ports.AuditRecorder,
	opts AccountOptions,
	log zerolog.Logger,
) ports.AccountService {
	if opts.BcryptCost == 0 {
		opts.BcryptCost = bcrypt.DefaultCost
	}
	if cache == nil {
		cache = nopTokenCache{}
	}
	if audit == nil {
		audit = nopAuditRecorder{}
	}

	// Compared against on unknown emails so both login failures cost the same.
	dummy, _ := bcrypt.GenerateFromPassword([]byte("unusable-password"), opts.BcryptCost)

	return &accountService{
		users:     users,
		tokens:    tokens,
		cache:     cache,
		audit:     audit,
		opts:      opts,
		log:       log,
		dummyHash: dummy,
		now:       time.Now,
		newKey:    domain.NewTokenKey,
	}
}

// Register creates a non-admin account together with its first token.
// Anonymous and non-admin callers can only create plain CLIENT accounts.
func (s *accountService) Register(ctx context.Context, caller *domain.User, in ports.RegisterInput) (*ports.AuthResult, error) {
	grantStaff := caller != nil && caller.IsActive && caller.IsAdminUser()
	res, err := s.createAccount(ctx, in, false, grantStaff, s.users.CreateWithToken)
	if err != nil {
		return nil, err
	}

	s.audit.Record(domain.AuditEvent{
		Action:    domain.AuditRegistered,
		Email:     res.User.Email,
		SubjectID: res.User.ID.String(),
		Timestamp: res.User.DateJoined,
		Details:   map[string]string{"user_type": string(res.User.UserType)},
	})
	s.log.Info().Str("email", res.User.Email).Str("user_type", string(res.User.UserType)).Msg("user registered")
	return res, nil
}

// CreateAdmin creates an ADMIN account. Only admins may call it, except
// during bootstrap when AdminBootstrap is set and no admin exists yet.
func (s *accountService) CreateAdmin(ctx context.Context, caller *domain.User, in ports.RegisterInput) (*ports.AuthResult, error) {
	bootstrap, denied, err := s.authorizeAdminCreation(ctx, caller)
	if err != nil {
		return nil, err
	}

	insert := s.users.CreateWithToken
	if bootstrap {
		insert = s.users.CreateFirstAdmin
	}

	in.UserType = string(domain.RoleAdmin)
	res, err := s.createAccount(ctx, in, true, true, insert)
	if err != nil {
		// Another bootstrap request created the first admin in the meantime.
		if errors.Is(err, domain.ErrAdminExists) {
			return nil, denied
		}
		return nil, err
	}

	actorID := ""
	if caller != nil {
		actorID = caller.ID.String()
	}
	s.audit.Record(domain.AuditEvent{
		Action:    domain.AuditAdminCreated,
		Email:     res.User.Email,
		ActorID:   actorID,
		SubjectID: res.User.ID.String(),
		Timestamp: res.User.DateJoined,
	})
	s.log.Info().Str("email", res.User.Email).Str("actor_id", actorID).Msg("admin user created")
	return res, nil
}

// authorizeAdminCreation reports whether the request goes through the
// bootstrap path, and the error to return if bootstrap turns out to be over.
func (s *accountService) authorizeAdminCreation(ctx context.Context, caller *domain.User) (bootstrap bool, denied, err error) {
	if caller != nil && caller.IsActive && caller.IsAdminUser() {
		return false, nil, nil
	}

	denied = domain.ErrForbidden
	if caller == nil {
		denied = domain.ErrUnauthenticated
	}
	if !s.opts.AdminBootstrap {
		return false, denied, denied
	}

	n, err := s.users.CountByRole(ctx, domain.RoleAdmin)
	if err != nil {
		return false, denied, fmt.Errorf("create admin: count admins: %w", err)
	}
	if n > 0 {
		return false, denied, denied
	}
	return true, denied, nil
}

type insertAccountFunc func(ctx context.Context, user *domain.User, token *domain.AuthToken) error

func (s *accountService) createAccount(
	ctx context.Context,
	in ports.RegisterInput,
	admin, grantStaff bool,
	insert insertAccountFunc,
) (*ports.AuthResult, error) {
	role, err := domain.NewUserInput{
		Email:         in.Email,
		Password:      in.Password,
		FirstName:     in.FirstName,
		LastName:      in.LastName,
		UserType:      in.UserType,
		IsStaffMember: in.IsStaffMember,
	}.Check(admin, grantStaff)
	if err != nil {
		return nil, err
	}

	email := domain.NormalizeEmail(in.Email)
	if _, err := s.users.FindByEmail(ctx, email); err == nil {
		return nil, domain.FieldError("email", domain.ErrUserExists.Error())
	} else if !errors.Is(err, domain.ErrUserNotFound) {
		return nil, fmt.Errorf("create account: %w", err)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(in.Password), s.opts.BcryptCost)
	if err != nil {
		return nil, fmt.Errorf("create account: hash password: %w", err)
	}

	key, err := s.newKey()
	if err != nil {
		return nil, err
	}

	now := s.now().UTC()
	user := &domain.User{
		ID:            uuid.New(),
		Email:         email,
		FirstName:     in.FirstName,
		LastName:      in.LastName,
		PasswordHash:  string(hash),
		IsStaffMember: in.IsStaffMember,
		IsActive:      true,
		DateJoined:    now,
		UpdatedAt:     now,
	}
	user.ApplyRole(role)

	token := &domain.AuthToken{Key: key, UserID: user.ID, CreatedAt: now}
	if err := insert(ctx, user, token); err != nil {
		// Lost a race with a concurrent registration for the same email.
		if errors.Is(err, domain.ErrUserExists) {
			return nil, domain.FieldError("email", domain.ErrUserExists.Error())
		}
		return nil, fmt.Errorf("create account: %w", err)
	}

	return &ports.AuthResult{User: user, Token: key}, nil
}

// Login verifies credentials and returns the user's token, creating it on
// first login. Every failure collapses into ErrInvalidCredentials.
func (s *accountService) Login(ctx context.Context, email, password string) (*ports.AuthResult, error) {
	email = domain.NormalizeEmail(email)
	if email == "" || password == "" {
		return nil, s.loginFailed(email, "missing_credentials")
	}

	user, err := s.users.FindByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, domain.ErrUserNotFound) {
			_ = bcrypt.CompareHashAndPassword(s.dummyHash, []byte(password))
			return nil, s.loginFailed(email, "unknown_email")
		}
		return nil, fmt.Errorf("login: %w", err)
	}

	if bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)) != nil {
		return nil, s.loginFailed(email, "wrong_password")
	}
	if !user.IsActive {
		return nil, s.loginFailed(email, "inactive")
	}

	key, err := s.newKey()
	if err != nil {
		return nil, err
	}
	token, created, err := s.tokens.GetOrCreate(ctx, user.ID, key)
	if err != nil {
		return nil, fmt.Errorf("login: %w", err)
	}

	now := s.now().UTC()
	if err := s.users.TouchLastLogin(ctx, user.ID, now); err != nil {
		s.log.Warn().Err(err).Str("email", email).Msg("failed to update last login")
	}

	s.audit.Record(domain.AuditEvent{
		Action:    domain.AuditLoginSuccess,
		Email:     user.Email,
		ActorID:   user.ID.String(),
		SubjectID: user.ID.String(),
		Timestamp: now,
		Details:   map[string]string{"token_created": fmt.Sprintf("%t", created)},
	})
	s.log.Debug().Str("email", email).Bool("token_created", created).Msg("login succeeded")

	return &ports.AuthResult{User: user, Token: token.Key}, nil
}

func (s *accountService) loginFailed(email, reason string) error {
	s.audit.Record(domain.AuditEvent{
		Action:    domain.AuditLoginFailure,
		Email:     email,
		Timestamp: s.now().UTC(),
		Details:   map[string]string{"reason": reason},
	})
	s.log.Info().Str("email", email).Str("reason", reason).Msg("login failed")
	return domain.ErrInvalidCredentials
}

// Logout deletes the caller's token. The cache entry is dropped before and
// after the row delete so a concurrent Authenticate cannot re-populate it.
func (s *accountService) Logout(ctx context.Context, caller *domain.User, tokenKey string) error {
	if caller == nil || tokenKey == "" {
		return domain.ErrUnauthenticated
	}

	if err := s.cache.Delete(ctx, tokenKey); err != nil {
		return fmt.Errorf("logout: evict token: %w", err)
	}
	if err := s.tokens.DeleteByKey(ctx, tokenKey); err != nil {
		if errors.Is(err, domain.ErrTokenNotFound) {
			return domain.ErrUnauthenticated
		}
		return fmt.Errorf("logout: %w", err)
	}
	if err := s.cache.Delete(ctx, tokenKey); err != nil {
		s.log.Warn().Err(err).Str("email", caller.Email).Msg("failed to evict token after logout")
	}

	s.audit.Record(domain.AuditEvent{
		Action:    domain.AuditLogout,
		Email:     caller.Email,
		ActorID:   caller.ID.String(),
		SubjectID: caller.ID.String(),
		Timestamp: s.now().UTC(),
	})
	return nil
}

// Authenticate resolves a token key to an active user, consulting the cache
// first. Cache failures fall through to the database.
func (s *accountService) Authenticate(ctx context.Context, tokenKey string) (*domain.User, error) {
	if tokenKey == "" {
		return nil, domain.ErrUnauthenticated
	}

	userID, found, err := s.cache.Get(ctx, tokenKey)
	if err != nil {
		s.log.Warn().Err(err).Msg("token cache lookup failed, falling back to database")
		found = false
	}

	if !found {
		token, err := s.tokens.FindByKey(ctx, tokenKey)
		if err != nil {
			if errors.Is(err, domain.ErrTokenNotFound) {
				return nil, domain.ErrUnauthenticated
			}
			return nil, fmt.Errorf("authenticate: %w", err)
		}
		userID = token.UserID
	}

	user, err := s.users.FindByID(ctx, userID)
	if err != nil {
		if errors.Is(err, domain.ErrUserNotFound) {
			_ = s.cache.Delete(ctx, tokenKey)
			return nil, domain.ErrUnauthenticated
		}
		return nil, fmt.Errorf("authenticate: %w", err)
	}
	if !user.IsActive {
		return nil, domain.ErrUnauthenticated
	}

	if !found {
		if err := s.cache.Set(ctx, tokenKey, user.ID); err != nil {
			s.log.Warn().Err(err).Msg("failed to cache token")
		}
	}
	return user, nil
}

// ListUsers returns one page of accounts ordered by last name, first name, email.
func (s *accountService) ListUsers(ctx context.Context, in ports.ListUsersInput) (*ports.ListUsersResult, error) {
	filter := ports.ListUsersFilter{IsActive: in.IsActive, Search: in.Search}
	if in.UserType != "" {
		role, ok := domain.ParseRole(in.UserType)
		if !ok {
			return nil, domain.FieldError("user_type", `"`+in.UserType+`" is not a valid choice`)
		}
		filter.UserType = role
	}
	filter.Page, filter.Limit = normalizePage(in.Page, in.Limit)

	users, total, err := s.users.List(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}

	return &ports.ListUsersResult{
		Items:      users,
		Total:      total,
		Page:       filter.Page,
		Limit:      filter.Limit,
		TotalPages: totalPages(total, filter.Limit),
	}, nil
}
