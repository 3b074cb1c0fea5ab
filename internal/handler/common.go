// Package handler contains the HTTP handlers: authentication, the public
// service catalog, admin catalog management and the booking lifecycle.
package handler

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	"github.com/tidyhome/booking-api/internal/booking"
)

// envelope is the uniform response wrapper. Success mirrors whether the
// HTTP status code is below 400; Message is null when there is nothing to
// say.
type envelope struct {
	Success bool        `json:"success"`
	Message *string     `json:"message"`
	Data    interface{} `json:"data"`
}

// respond writes the envelope with the given status code.
func respond(c echo.Context, code int, message string, data interface{}) error {
	var msg *string
	if message != "" {
		msg = &message
	}
	return c.JSON(code, envelope{
		Success: code < http.StatusBadRequest,
		Message: msg,
		Data:    data,
	})
}

// actor extracts the authenticated actor from the echo context, where the
// JWT middleware stored the token claims. JWT numeric claims decode as
// float64, so several representations are accepted.
func actor(c echo.Context) (booking.Actor, error) {
	var a booking.Actor
	switch t := c.Get("user_id").(type) {
	case uint64:
		a.ID = t
	case int:
		a.ID = uint64(t)
	case int64:
		a.ID = uint64(t)
	case float64:
		a.ID = uint64(t)
	case string:
		n, err := strconv.ParseUint(t, 10, 64)
		if err != nil {
			return a, errors.New("invalid user_id in context")
		}
		a.ID = n
	default:
		return a, errors.New("invalid user_id in context")
	}
	a.IsAdmin, _ = c.Get("is_admin").(bool)
	return a, nil
}

// pathID parses the numeric :id route parameter.
func pathID(c echo.Context) (uint64, error) {
	return strconv.ParseUint(c.Param("id"), 10, 64)
}
