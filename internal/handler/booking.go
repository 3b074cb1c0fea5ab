package handler

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/tidyhome/booking-api/internal/booking"
	"github.com/tidyhome/booking-api/internal/model"
	"github.com/tidyhome/booking-api/internal/queue"
	"github.com/tidyhome/booking-api/internal/repository"
	queue_publisher "github.com/tidyhome/booking-api/internal/service"
)

// BookingHandler implements the booking lifecycle: create, list, show,
// admin status transition, self-cancel and delete.
type BookingHandler struct {
	Bookings *repository.BookingRepo
	Services *repository.ServiceRepo
}

func NewBookingHandler(bookings *repository.BookingRepo, services *repository.ServiceRepo) *BookingHandler {
	if bookings == nil || services == nil {
		panic("nil repository passed to NewBookingHandler")
	}
	return &BookingHandler{Bookings: bookings, Services: services}
}

type updateStatusReq struct {
	Status string `json:"status"`
}

// List handles GET /bookings. Administrators see every booking; everyone
// else sees only their own. Ordered newest requested date/time first.
func (h *BookingHandler) List(c echo.Context) error {
	a, err := actor(c)
	if err != nil {
		return respond(c, http.StatusUnauthorized, "Unauthorized", nil)
	}
	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	var details []*model.BookingDetail
	if a.IsAdmin {
		details, err = h.Bookings.ListAll(ctx)
	} else {
		details, err = h.Bookings.ListByUser(ctx, a.ID)
	}
	if err != nil {
		return respond(c, http.StatusInternalServerError, "Could not load bookings", nil)
	}
	return respond(c, http.StatusOK, "", newBookingCollection(details))
}

// Create handles POST /bookings. The new booking always starts as pending;
// any status supplied by the client is ignored.
func (h *BookingHandler) Create(c echo.Context) error {
	a, err := actor(c)
	if err != nil {
		return respond(c, http.StatusUnauthorized, "Unauthorized", nil)
	}
	var req createBookingReq
	if err := c.Bind(&req); err != nil {
		return respond(c, http.StatusUnprocessableEntity, "Invalid request body", nil)
	}
	date, errs := validateBookingInput(req, time.Now())
	if len(errs) > 0 {
		return respond(c, http.StatusUnprocessableEntity, firstError(errs), echo.Map{"errors": errs})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	if _, err := h.Services.GetByID(ctx, req.ServiceID); err != nil {
		if errors.Is(err, repository.ErrServiceNotFound) {
			errs := map[string][]string{"service_id": {"The selected service does not exist."}}
			return respond(c, http.StatusUnprocessableEntity, firstError(errs), echo.Map{"errors": errs})
		}
		return respond(c, http.StatusInternalServerError, "Could not verify service", nil)
	}

	b := &model.Booking{
		UserID:       a.ID,
		ServiceID:    req.ServiceID,
		CustomerName: strings.TrimSpace(req.CustomerName),
		Address:      strings.TrimSpace(req.Address),
		Date:         date,
		Time:         req.Time,
		Status:       booking.StatusPending,
	}
	if err := h.Bookings.Create(ctx, b); err != nil {
		return respond(c, http.StatusInternalServerError, "Could not create booking", nil)
	}
	det, err := h.Bookings.GetDetail(ctx, b.ID)
	if err != nil {
		return respond(c, http.StatusInternalServerError, "Could not load booking", nil)
	}
	return respond(c, http.StatusCreated, "Booking created successfully", newBookingResource(det))
}

// Show handles GET /bookings/:id, readable by the owner or an admin.
// Denial is a 403, not a 404: existence is not hidden from non-owners.
func (h *BookingHandler) Show(c echo.Context) error {
	a, det, errResp := h.loadForActor(c)
	if errResp != nil {
		return errResp()
	}
	if !booking.CanAccess(a, det.UserID) {
		return respond(c, http.StatusForbidden, "Unauthorized", nil)
	}
	return respond(c, http.StatusOK, "", newBookingResource(det))
}

// UpdateStatus handles PATCH /bookings/:id/status (admin). The requested
// value is validated before the transition table is consulted, so an
// unknown status and a disallowed transition yield distinct messages.
func (h *BookingHandler) UpdateStatus(c echo.Context) error {
	_, det, errResp := h.loadForActor(c)
	if errResp != nil {
		return errResp()
	}
	var req updateStatusReq
	if err := c.Bind(&req); err != nil {
		return respond(c, http.StatusUnprocessableEntity, "Invalid request body", nil)
	}

	next, err := booking.ParseStatus(req.Status)
	if err != nil {
		msg := fmt.Sprintf("Invalid status value. Allowed: %s", booking.StatusNames())
		return respond(c, http.StatusUnprocessableEntity, msg, nil)
	}
	if !booking.CanTransition(det.Status, next) {
		msg := fmt.Sprintf("Cannot transition from '%s' to '%s'. Allowed transitions: %s",
			det.Status, next, booking.AllowedTransitionNames(det.Status))
		return respond(c, http.StatusUnprocessableEntity, msg, nil)
	}

	return h.applyTransition(c, det, next, "Booking status updated successfully")
}

// Cancel handles PATCH /bookings/:id/cancel, the self-service path. Only
// the owner may use it; a non-owner gets an authorization failure, an owner
// with a terminal booking gets a domain-rule failure.
func (h *BookingHandler) Cancel(c echo.Context) error {
	a, det, errResp := h.loadForActor(c)
	if errResp != nil {
		return errResp()
	}
	if !booking.CanSelfCancel(a, det.UserID) {
		return respond(c, http.StatusForbidden, "Unauthorized", nil)
	}
	if !booking.CanTransition(det.Status, booking.StatusCancelled) {
		return respond(c, http.StatusUnprocessableEntity, "This booking cannot be cancelled", nil)
	}

	return h.applyTransition(c, det, booking.StatusCancelled, "Booking cancelled successfully")
}

// Delete handles DELETE /bookings/:id. No status check: any booking may be
// deleted by its owner or an admin.
func (h *BookingHandler) Delete(c echo.Context) error {
	a, det, errResp := h.loadForActor(c)
	if errResp != nil {
		return errResp()
	}
	if !booking.CanAccess(a, det.UserID) {
		return respond(c, http.StatusForbidden, "Unauthorized", nil)
	}
	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()
	if err := h.Bookings.Delete(ctx, det.ID); err != nil {
		if errors.Is(err, repository.ErrBookingNotFound) {
			return respond(c, http.StatusNotFound, "Booking not found", nil)
		}
		return respond(c, http.StatusInternalServerError, "Could not delete booking", nil)
	}
	return respond(c, http.StatusOK, "Booking deleted successfully", nil)
}

// loadForActor resolves the actor and the addressed booking. On failure it
// returns a deferred error response so callers can simply return it.
func (h *BookingHandler) loadForActor(c echo.Context) (booking.Actor, *model.BookingDetail, func() error) {
	a, err := actor(c)
	if err != nil {
		return a, nil, func() error { return respond(c, http.StatusUnauthorized, "Unauthorized", nil) }
	}
	id, err := pathID(c)
	if err != nil {
		return a, nil, func() error { return respond(c, http.StatusNotFound, "Booking not found", nil) }
	}
	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()
	det, err := h.Bookings.GetDetail(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrBookingNotFound) {
			return a, nil, func() error { return respond(c, http.StatusNotFound, "Booking not found", nil) }
		}
		return a, nil, func() error { return respond(c, http.StatusInternalServerError, "Could not load booking", nil) }
	}
	return a, det, nil
}

// applyTransition persists the guarded status change, reloads the booking
// and publishes the status event. Publishing is best effort and never
// blocks the response.
func (h *BookingHandler) applyTransition(c echo.Context, det *model.BookingDetail, next booking.Status, message string) error {
	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	if err := h.Bookings.UpdateStatus(ctx, det.ID, det.Status, next); err != nil {
		switch {
		case errors.Is(err, repository.ErrStatusConflict):
			return respond(c, http.StatusConflict, "Booking status changed, please retry", nil)
		case errors.Is(err, repository.ErrBookingNotFound):
			return respond(c, http.StatusNotFound, "Booking not found", nil)
		default:
			return respond(c, http.StatusInternalServerError, "Could not update booking", nil)
		}
	}
	fresh, err := h.Bookings.GetDetail(ctx, det.ID)
	if err != nil {
		return respond(c, http.StatusInternalServerError, "Could not load booking", nil)
	}

	ev := queue.BookingStatusEvent{
		BookingID:    fresh.ID,
		UserID:       fresh.UserID,
		ServiceID:    fresh.ServiceID,
		CustomerName: fresh.CustomerName,
		Date:         fresh.Date.Format("2006-01-02"),
		Time:         fresh.Time,
		OldStatus:    string(det.Status),
		NewStatus:    string(fresh.Status),
		ChangedAt:    time.Now().UTC().Format(time.RFC3339),
	}
	if fresh.Service != nil {
		ev.ServiceTitle = fresh.Service.Title
	}
	go func() {
		pubCtx, pubCancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer pubCancel()
		_ = queue_publisher.PublishStatusChanged(pubCtx, ev)
	}()

	return respond(c, http.StatusOK, message, newBookingResource(fresh))
}
