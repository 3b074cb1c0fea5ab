package handler

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/labstack/echo/v4"
	"github.com/shopspring/decimal"

	"github.com/tidyhome/booking-api/internal/model"
	"github.com/tidyhome/booking-api/internal/repository"
)

// ServiceHandler exposes the service catalog: public list/show plus the
// admin-only management endpoints.
type ServiceHandler struct {
	Services *repository.ServiceRepo
}

func NewServiceHandler(services *repository.ServiceRepo) *ServiceHandler {
	if services == nil {
		panic("nil repository passed to NewServiceHandler")
	}
	return &ServiceHandler{Services: services}
}

type createServiceReq struct {
	Title       string           `json:"title"`
	Description *string          `json:"description"`
	Price       *decimal.Decimal `json:"price"`
}

type updateServiceReq struct {
	Title       *string          `json:"title"`
	Description *string          `json:"description"`
	Price       *decimal.Decimal `json:"price"`
}

// List handles GET /services (public). The catalog is ordered by title.
func (h *ServiceHandler) List(c echo.Context) error {
	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()
	services, err := h.Services.List(ctx)
	if err != nil {
		return respond(c, http.StatusInternalServerError, "Could not load services", nil)
	}
	out := make([]*serviceResource, len(services))
	for i, s := range services {
		out[i] = newServiceResource(s)
	}
	return respond(c, http.StatusOK, "", out)
}

// Show handles GET /services/:id (public).
func (h *ServiceHandler) Show(c echo.Context) error {
	id, err := pathID(c)
	if err != nil {
		return respond(c, http.StatusNotFound, "Service not found", nil)
	}
	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()
	s, err := h.Services.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrServiceNotFound) {
			return respond(c, http.StatusNotFound, "Service not found", nil)
		}
		return respond(c, http.StatusInternalServerError, "Could not load service", nil)
	}
	return respond(c, http.StatusOK, "", newServiceResource(s))
}

// Create handles POST /services (admin). Title and price are required;
// description is optional.
func (h *ServiceHandler) Create(c echo.Context) error {
	var req createServiceReq
	if err := c.Bind(&req); err != nil {
		return respond(c, http.StatusUnprocessableEntity, "Invalid request body", nil)
	}
	req.Title = strings.TrimSpace(req.Title)

	errs := map[string][]string{}
	if req.Title == "" {
		errs["title"] = append(errs["title"], "Service title is required.")
	} else if utf8.RuneCountInString(req.Title) > 255 {
		errs["title"] = append(errs["title"], "Service title cannot exceed 255 characters.")
	}
	if req.Price == nil {
		errs["price"] = append(errs["price"], "Service price is required.")
	} else if req.Price.Sign() < 0 {
		errs["price"] = append(errs["price"], "Service price cannot be negative.")
	}
	if len(errs) > 0 {
		return respond(c, http.StatusUnprocessableEntity, firstError(errs), echo.Map{"errors": errs})
	}

	s := &model.Service{
		Title:       req.Title,
		Description: req.Description,
		Price:       *req.Price,
	}
	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()
	if err := h.Services.Create(ctx, s); err != nil {
		return respond(c, http.StatusInternalServerError, "Could not create service", nil)
	}
	return respond(c, http.StatusCreated, "Service created successfully", newServiceResource(s))
}

// Update handles PUT /services/:id (admin). Fields are individually
// optional; absent fields stay untouched.
func (h *ServiceHandler) Update(c echo.Context) error {
	id, err := pathID(c)
	if err != nil {
		return respond(c, http.StatusNotFound, "Service not found", nil)
	}
	var req updateServiceReq
	if err := c.Bind(&req); err != nil {
		return respond(c, http.StatusUnprocessableEntity, "Invalid request body", nil)
	}

	errs := map[string][]string{}
	if req.Title != nil {
		t := strings.TrimSpace(*req.Title)
		req.Title = &t
		if t == "" {
			errs["title"] = append(errs["title"], "Service title is required.")
		} else if utf8.RuneCountInString(t) > 255 {
			errs["title"] = append(errs["title"], "Service title cannot exceed 255 characters.")
		}
	}
	if req.Price != nil && req.Price.Sign() < 0 {
		errs["price"] = append(errs["price"], "Service price cannot be negative.")
	}
	if len(errs) > 0 {
		return respond(c, http.StatusUnprocessableEntity, firstError(errs), echo.Map{"errors": errs})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()
	if _, err := h.Services.GetByID(ctx, id); err != nil {
		if errors.Is(err, repository.ErrServiceNotFound) {
			return respond(c, http.StatusNotFound, "Service not found", nil)
		}
		return respond(c, http.StatusInternalServerError, "Could not load service", nil)
	}
	s, err := h.Services.Update(ctx, id, repository.ServiceUpdate{
		Title:       req.Title,
		Description: req.Description,
		Price:       req.Price,
	})
	if err != nil {
		return respond(c, http.StatusInternalServerError, "Could not update service", nil)
	}
	return respond(c, http.StatusOK, "Service updated successfully", newServiceResource(s))
}

// Delete handles DELETE /services/:id (admin). Deletion does not cascade
// to bookings; the booking read path tolerates the dangling reference.
func (h *ServiceHandler) Delete(c echo.Context) error {
	id, err := pathID(c)
	if err != nil {
		return respond(c, http.StatusNotFound, "Service not found", nil)
	}
	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()
	if err := h.Services.Delete(ctx, id); err != nil {
		if errors.Is(err, repository.ErrServiceNotFound) {
			return respond(c, http.StatusNotFound, "Service not found", nil)
		}
		return respond(c, http.StatusInternalServerError, "Could not delete service", nil)
	}
	return c.NoContent(http.StatusNoContent)
}
