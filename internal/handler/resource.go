package handler

import (
	"strings"
	"time"

	"github.com/tidyhome/booking-api/internal/booking"
	"github.com/tidyhome/booking-api/internal/model"
)

// serviceResource is the API shape of a catalog entry. Price is rendered
// with exactly two decimal places, as stored.
type serviceResource struct {
	ID          uint64  `json:"id"`
	Title       string  `json:"title"`
	Description *string `json:"description"`
	Price       string  `json:"price"`
	CreatedAt   string  `json:"created_at,omitempty"`
	UpdatedAt   string  `json:"updated_at,omitempty"`
}

// userResource is the API shape of a user profile. The password hash never
// leaves the repository layer.
type userResource struct {
	ID        uint64 `json:"id"`
	Name      string `json:"name"`
	Email     string `json:"email"`
	IsAdmin   bool   `json:"is_admin"`
	CreatedAt string `json:"created_at,omitempty"`
	UpdatedAt string `json:"updated_at,omitempty"`
}

// bookingResource is the API shape of a booking, including the transition
// hints the client shell uses to show or hide its action buttons.
type bookingResource struct {
	ID                 uint64           `json:"id"`
	UserID             uint64           `json:"user_id"`
	ServiceID          uint64           `json:"service_id"`
	CustomerName       string           `json:"customer_name"`
	Address            string           `json:"address"`
	Date               string           `json:"date"`
	Time               string           `json:"time"`
	Status             booking.Status   `json:"status"`
	StatusLabel        string           `json:"status_label"`
	CanCancel          bool             `json:"can_cancel"`
	CanConfirm         bool             `json:"can_confirm"`
	AllowedTransitions []booking.Status `json:"allowed_transitions"`
	Service            *serviceResource `json:"service"`
	User               *userResource    `json:"user"`
	CreatedAt          string           `json:"created_at"`
	UpdatedAt          string           `json:"updated_at"`
}

func newServiceResource(s *model.Service) *serviceResource {
	if s == nil {
		return nil
	}
	return &serviceResource{
		ID:          s.ID,
		Title:       s.Title,
		Description: s.Description,
		Price:       s.Price.StringFixed(2),
		CreatedAt:   isoTime(s.CreatedAt),
		UpdatedAt:   isoTime(s.UpdatedAt),
	}
}

func newUserResource(u *model.User) *userResource {
	if u == nil {
		return nil
	}
	return &userResource{
		ID:        u.ID,
		Name:      u.Name,
		Email:     u.Email,
		IsAdmin:   u.IsAdmin,
		CreatedAt: isoTime(u.CreatedAt),
		UpdatedAt: isoTime(u.UpdatedAt),
	}
}

func newBookingResource(d *model.BookingDetail) *bookingResource {
	res := &bookingResource{
		ID:                 d.ID,
		UserID:             d.UserID,
		ServiceID:          d.ServiceID,
		CustomerName:       d.CustomerName,
		Address:            d.Address,
		Date:               d.Date.Format("2006-01-02"),
		Time:               d.Time,
		Status:             d.Status,
		StatusLabel:        statusLabel(d.Status),
		CanCancel:          booking.CanTransition(d.Status, booking.StatusCancelled),
		CanConfirm:         booking.CanTransition(d.Status, booking.StatusConfirmed),
		AllowedTransitions: booking.AllowedTransitions(d.Status),
		CreatedAt:          isoTime(d.CreatedAt),
		UpdatedAt:          isoTime(d.UpdatedAt),
	}
	if d.Service != nil {
		res.Service = &serviceResource{
			ID:          d.Service.ID,
			Title:       d.Service.Title,
			Description: d.Service.Description,
			Price:       d.Service.Price.StringFixed(2),
		}
	}
	if d.User != nil {
		res.User = &userResource{
			ID:      d.User.ID,
			Name:    d.User.Name,
			Email:   d.User.Email,
			IsAdmin: d.User.IsAdmin,
		}
	}
	return res
}

func newBookingCollection(details []*model.BookingDetail) []*bookingResource {
	out := make([]*bookingResource, len(details))
	for i, d := range details {
		out[i] = newBookingResource(d)
	}
	return out
}

// statusLabel upper-cases the first letter for display ("pending" ->
// "Pending").
func statusLabel(s booking.Status) string {
	str := string(s)
	if str == "" {
		return ""
	}
	return strings.ToUpper(str[:1]) + str[1:]
}

func isoTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.UTC().Format(time.RFC3339)
}
