package handler

import (
	"net/http"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/darkr4m/5StarK9/internal/api/metrics"
	"github.com/darkr4m/5StarK9/internal/api/middleware"
	"github.com/darkr4m/5StarK9/internal/core/domain"
	"github.com/darkr4m/5StarK9/internal/core/ports"
)

// ClientHandler handles HTTP requests for client profiles.
type ClientHandler struct {
	service ports.ClientService
}

func NewClientHandler(service ports.ClientService) *ClientHandler {
	return &ClientHandler{service: service}
}

// Create handles POST /clients.
//
// @Summary      Create a client profile
// @Tags         clients
// @Accept       json
// @Produce      json
// @Security     TokenAuth
// @Param        body  body      clientRequest  true  "Client profile"
// @Success      201   {object}  clientResponse
// @Failure      400   {object}  map[string]any
// @Failure      401   {object}  map[string]any
// @Failure      403   {object}  map[string]any
// @Router       /clients [post]
func (h *ClientHandler) Create(c echo.Context) error {
	in, err := bindClient(c)
	if err != nil {
		return err
	}

	client, err := h.service.Create(c.Request().Context(), middleware.CurrentUser(c), in)
	if err != nil {
		return err
	}

	metrics.ClientChangesTotal.WithLabelValues("created").Inc()
	return c.JSON(http.StatusCreated, toClientResponse(client))
}

// Get handles GET /clients/:id.
//
// @Summary      Get a client profile
// @Tags         clients
// @Produce      json
// @Security     TokenAuth
// @Param        id   path      string  true  "Client ID"
// @Success      200  {object}  clientResponse
// @Failure      403  {object}  map[string]any
// @Failure      404  {object}  map[string]any
// @Router       /clients/{id} [get]
func (h *ClientHandler) Get(c echo.Context) error {
	id, err := clientID(c)
	if err != nil {
		return err
	}

	client, err := h.service.Get(c.Request().Context(), middleware.CurrentUser(c), id)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, toClientResponse(client))
}

// Update handles PATCH /clients/:id. Only the fields present in the body change.
//
// @Summary      Update a client profile
// @Tags         clients
// @Accept       json
// @Produce      json
// @Security     TokenAuth
// @Param        id    path      string         true  "Client ID"
// @Param        body  body      clientRequest  true  "Fields to change"
// @Success      200   {object}  clientResponse
// @Failure      400   {object}  map[string]any
// @Failure      404   {object}  map[string]any
// @Router       /clients/{id} [patch]
func (h *ClientHandler) Update(c echo.Context) error {
	id, err := clientID(c)
	if err != nil {
		return err
	}
	in, err := bindClient(c)
	if err != nil {
		return err
	}

	client, err := h.service.Update(c.Request().Context(), middleware.CurrentUser(c), id, in)
	if err != nil {
		return err
	}

	metrics.ClientChangesTotal.WithLabelValues("updated").Inc()
	return c.JSON(http.StatusOK, toClientResponse(client))
}

// Deactivate handles DELETE /clients/:id. The profile is kept with is_active=false.
//
// @Summary      Deactivate a client profile
// @Tags         clients
// @Security     TokenAuth
// @Param        id   path  string  true  "Client ID"
// @Success      204
// @Failure      404  {object}  map[string]any
// @Router       /clients/{id} [delete]
func (h *ClientHandler) Deactivate(c echo.Context) error {
	id, err := clientID(c)
	if err != nil {
		return err
	}

	if err := h.service.Deactivate(c.Request().Context(), middleware.CurrentUser(c), id); err != nil {
		return err
	}

	metrics.ClientChangesTotal.WithLabelValues("deactivated").Inc()
	return c.NoContent(http.StatusNoContent)
}

// List handles GET /clients.
//
// @Summary      List client profiles
// @Tags         clients
// @Produce      json
// @Security     TokenAuth
// @Param        status     query     string  false  "Client status"
// @Param        is_active  query     bool    false  "Filter by active flag"
// @Param        search     query     string  false  "Matches name or email"
// @Param        page       query     int     false  "Page number (1-based)"
// @Param        limit      query     int     false  "Page size (max 100)"
// @Success      200        {object}  listClientsResponse
// @Failure      403        {object}  map[string]any
// @Router       /clients [get]
func (h *ClientHandler) List(c echo.Context) error {
	var in ports.ListClientsInput
	active, err := bindListParams(c, &in.Search, &in.Page, &in.Limit)
	if err != nil {
		return err
	}
	in.IsActive = active
	in.Status = c.QueryParam("status")

	res, err := h.service.List(c.Request().Context(), middleware.CurrentUser(c), in)
	if err != nil {
		return err
	}

	items := make([]clientResponse, 0, len(res.Items))
	for _, cp := range res.Items {
		items = append(items, toClientResponse(cp))
	}
	return c.JSON(http.StatusOK, listClientsResponse{
		Items:      items,
		Total:      res.Total,
		Page:       res.Page,
		Limit:      res.Limit,
		TotalPages: res.TotalPages,
	})
}

func bindClient(c echo.Context) (ports.ClientInput, error) {
	var req clientRequest
	if err := c.Bind(&req); err != nil {
		return ports.ClientInput{}, echo.NewHTTPError(http.StatusBadRequest, "invalid payload")
	}
	if err := c.Validate(&req); err != nil {
		return ports.ClientInput{}, err
	}
	return req.toInput()
}

func clientID(c echo.Context) (uuid.UUID, error) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return uuid.Nil, domain.ErrClientNotFound
	}
	return id, nil
}
