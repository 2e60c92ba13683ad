package handler

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/darkr4m/5StarK9/internal/api/metrics"
	"github.com/darkr4m/5StarK9/internal/api/middleware"
	"github.com/darkr4m/5StarK9/internal/core/domain"
	"github.com/darkr4m/5StarK9/internal/core/ports"
)

// AccountHandler serves registration, login, logout, who-am-i, admin
// creation and the admin user listing.
type AccountHandler struct {
	service ports.AccountService
}

func NewAccountHandler(service ports.AccountService) *AccountHandler {
	return &AccountHandler{service: service}
}

// Register creates an account and returns its first token. STAFF and
// is_staff_member are only honoured when an admin is calling.
//
// @Summary      Register a new user
// @Tags         auth
// @Accept       json
// @Produce      json
// @Param        body  body      registerRequest  true  "Registration details"
// @Security     TokenAuth
// @Success      201   {object}  authResponse
// @Failure      400   {object}  map[string]any
// @Failure      500   {object}  map[string]any
// @Router       /register [post]
func (h *AccountHandler) Register(c echo.Context) error {
	var req registerRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid payload")
	}
	if err := c.Validate(&req); err != nil {
		return err
	}

	res, err := h.service.Register(c.Request().Context(), middleware.CurrentUser(c), ports.RegisterInput{
		Email:         req.Email,
		Password:      req.Password,
		FirstName:     req.FirstName,
		LastName:      req.LastName,
		UserType:      req.UserType,
		IsStaffMember: req.IsStaffMember,
	})
	if err != nil {
		return err
	}

	metrics.RegistrationsTotal.WithLabelValues(string(res.User.UserType)).Inc()
	return c.JSON(http.StatusCreated, authResponse{User: res.User.Email, Token: res.Token})
}

// Login exchanges credentials for the account's token, creating one on first login.
//
// @Summary      Login
// @Tags         auth
// @Accept       json
// @Produce      json
// @Param        body  body      loginRequest  true  "Login credentials"
// @Success      200   {object}  authResponse
// @Failure      400   {object}  map[string]any
// @Failure      404   {object}  map[string]any
// @Router       /auth/login [post]
func (h *AccountHandler) Login(c echo.Context) error {
	var req loginRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid payload")
	}

	res, err := h.service.Login(c.Request().Context(), req.Email, req.Password)
	if err != nil {
		if errors.Is(err, domain.ErrInvalidCredentials) {
			metrics.LoginsTotal.WithLabelValues("failure").Inc()
		}
		return err
	}

	metrics.LoginsTotal.WithLabelValues("success").Inc()
	return c.JSON(http.StatusOK, authResponse{User: res.User.Email, Token: res.Token})
}

// Logout revokes the token used for this request.
//
// @Summary      Logout
// @Tags         auth
// @Security     TokenAuth
// @Success      204
// @Failure      401   {object}  map[string]any
// @Router       /auth/logout [post]
func (h *AccountHandler) Logout(c echo.Context) error {
	if err := h.service.Logout(c.Request().Context(), middleware.CurrentUser(c), middleware.CurrentToken(c)); err != nil {
		return err
	}

	metrics.LogoutsTotal.Inc()
	return c.NoContent(http.StatusNoContent)
}

// Me returns the caller's email.
//
// @Summary      Current user
// @Tags         auth
// @Produce      json
// @Security     TokenAuth
// @Success      200   {object}  meResponse
// @Failure      401   {object}  map[string]any
// @Router       / [get]
func (h *AccountHandler) Me(c echo.Context) error {
	user := middleware.CurrentUser(c)
	if user == nil {
		return domain.ErrUnauthenticated
	}
	return c.JSON(http.StatusOK, meResponse{Email: user.Email})
}

// CreateAdmin creates an ADMIN account. Anonymous callers are accepted only
// while no admin exists and bootstrap is enabled.
//
// @Summary      Create an admin user
// @Tags         auth
// @Accept       json
// @Produce      json
// @Security     TokenAuth
// @Param        body  body      adminRequest  true  "Admin details"
// @Success      201   {object}  adminResponse
// @Failure      400   {object}  map[string]any
// @Failure      401   {object}  map[string]any
// @Failure      403   {object}  map[string]any
// @Router       /auth/admin [post]
func (h *AccountHandler) CreateAdmin(c echo.Context) error {
	var req adminRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid payload")
	}
	if err := c.Validate(&req); err != nil {
		return err
	}

	res, err := h.service.CreateAdmin(c.Request().Context(), middleware.CurrentUser(c), ports.RegisterInput{
		Email:     req.Email,
		Password:  req.Password,
		FirstName: req.FirstName,
		LastName:  req.LastName,
	})
	if err != nil {
		return err
	}

	metrics.RegistrationsTotal.WithLabelValues(string(domain.RoleAdmin)).Inc()
	return c.JSON(http.StatusCreated, adminResponse{AdminUser: res.User.Email, Token: res.Token})
}

// ListUsers returns one page of accounts for administrators.
//
// @Summary      List users
// @Tags         users
// @Produce      json
// @Security     TokenAuth
// @Param        user_type  query     string  false  "CLIENT, STAFF or ADMIN"
// @Param        is_active  query     bool    false  "Filter by active flag"
// @Param        search     query     string  false  "Matches name or email"
// @Param        page       query     int     false  "Page number (1-based)"
// @Param        limit      query     int     false  "Page size (max 100)"
// @Success      200        {object}  listUsersResponse
// @Failure      400        {object}  map[string]any
// @Failure      403        {object}  map[string]any
// @Router       /users [get]
func (h *AccountHandler) ListUsers(c echo.Context) error {
	var in ports.ListUsersInput
	active, err := bindListParams(c, &in.Search, &in.Page, &in.Limit)
	if err != nil {
		return err
	}
	in.IsActive = active
	in.UserType = c.QueryParam("user_type")

	res, err := h.service.ListUsers(c.Request().Context(), in)
	if err != nil {
		return err
	}

	items := make([]userResponse, 0, len(res.Items))
	for _, u := range res.Items {
		items = append(items, toUserResponse(u))
	}
	return c.JSON(http.StatusOK, listUsersResponse{
		Items:      items,
		Total:      res.Total,
		Page:       res.Page,
		Limit:      res.Limit,
		TotalPages: res.TotalPages,
	})
}

// bindListParams reads search, page, limit and the optional is_active filter
// shared by the listing endpoints.
func bindListParams(c echo.Context, search *string, page, limit *int) (*bool, error) {
	var active bool
	err := echo.QueryParamsBinder(c).
		String("search", search).
		Int("page", page).
		Int("limit", limit).
		Bool("is_active", &active).
		BindError()
	if err != nil {
		return nil, echo.NewHTTPError(http.StatusBadRequest, "invalid query parameters")
	}
	if !c.QueryParams().Has("is_active") {
		return nil, nil
	}
	return &active, nil
}
