package handler

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"github.com/tidyhome/booking-api/internal/booking"
	"github.com/tidyhome/booking-api/internal/model"
)

func sampleDetail(status booking.Status) *model.BookingDetail {
	desc := "Standard cleaning"
	return &model.BookingDetail{
		Booking: model.Booking{
			ID:           42,
			UserID:       7,
			ServiceID:    3,
			CustomerName: "Jane Doe",
			Address:      "12 Elm Street",
			Date:         time.Date(2025, 6, 20, 0, 0, 0, 0, time.UTC),
			Time:         "14:30",
			Status:       status,
			CreatedAt:    time.Date(2025, 6, 1, 9, 0, 0, 0, time.UTC),
			UpdatedAt:    time.Date(2025, 6, 2, 9, 0, 0, 0, time.UTC),
		},
		Service: &model.ServicePart{
			ID:          3,
			Title:       "Basic House Cleaning",
			Description: &desc,
			Price:       decimal.RequireFromString("75.5"),
		},
		User: &model.UserPart{ID: 7, Name: "Jane Doe", Email: "jane@example.com"},
	}
}

func TestNewBookingResourcePending(t *testing.T) {
	res := newBookingResource(sampleDetail(booking.StatusPending))

	if res.ID != 42 || res.UserID != 7 || res.ServiceID != 3 {
		t.Fatalf("identity fields wrong: %+v", res)
	}
	if res.Date != "2025-06-20" {
		t.Errorf("date = %q", res.Date)
	}
	if res.Time != "14:30" {
		t.Errorf("time = %q", res.Time)
	}
	if res.StatusLabel != "Pending" {
		t.Errorf("status_label = %q", res.StatusLabel)
	}
	if !res.CanCancel || !res.CanConfirm {
		t.Errorf("pending must allow cancel and confirm: %+v", res)
	}
	if len(res.AllowedTransitions) != 2 {
		t.Errorf("allowed_transitions = %v", res.AllowedTransitions)
	}
	if res.Service == nil || res.Service.Price != "75.50" {
		t.Errorf("service price must render with two decimals: %+v", res.Service)
	}
	if res.User == nil || res.User.Email != "jane@example.com" {
		t.Errorf("owner missing: %+v", res.User)
	}
	if res.CreatedAt != "2025-06-01T09:00:00Z" {
		t.Errorf("created_at = %q", res.CreatedAt)
	}
}

func TestNewBookingResourceConfirmed(t *testing.T) {
	res := newBookingResource(sampleDetail(booking.StatusConfirmed))
	if !res.CanCancel {
		t.Error("confirmed must still be cancellable")
	}
	if res.CanConfirm {
		t.Error("confirmed must not re-confirm")
	}
	if res.StatusLabel != "Confirmed" {
		t.Errorf("status_label = %q", res.StatusLabel)
	}
}

func TestNewBookingResourceCancelled(t *testing.T) {
	res := newBookingResource(sampleDetail(booking.StatusCancelled))
	if res.CanCancel || res.CanConfirm {
		t.Error("cancelled is terminal")
	}
	if len(res.AllowedTransitions) != 0 {
		t.Errorf("allowed_transitions = %v", res.AllowedTransitions)
	}
}

func TestNewBookingResourceDeletedService(t *testing.T) {
	d := sampleDetail(booking.StatusPending)
	d.Service = nil
	res := newBookingResource(d)
	if res.Service != nil {
		t.Fatal("deleted service must serialize as null")
	}
	if res.ServiceID != 3 {
		t.Fatal("service_id must survive catalog deletion")
	}
}

func TestNewServiceResource(t *testing.T) {
	s := &model.Service{
		ID:    1,
		Title: "Window Cleaning",
		Price: decimal.RequireFromString("50"),
	}
	res := newServiceResource(s)
	if res.Price != "50.00" {
		t.Errorf("price = %q", res.Price)
	}
	if res.Description != nil {
		t.Errorf("description should stay null")
	}
	if newServiceResource(nil) != nil {
		t.Error("nil service must map to nil resource")
	}
}

func TestStatusLabel(t *testing.T) {
	if got := statusLabel(booking.StatusCancelled); got != "Cancelled" {
		t.Errorf("got %q", got)
	}
	if got := statusLabel(""); got != "" {
		t.Errorf("got %q", got)
	}
}
