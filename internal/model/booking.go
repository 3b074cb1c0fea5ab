package model

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/tidyhome/booking-api/internal/booking"
)

// Booking records a user's request for a catalog service on a given
// day and time, as stored in the `bookings` table. A booking links
// exactly one user (its owner, set once at creation) to exactly one
// service and moves through the pending/confirmed/cancelled lifecycle.
//
// Date holds only the calendar day; Time is the requested clock time
// in "HH:MM" form, stored verbatim so it is echoed back to clients
// exactly as submitted.
//
// Fields:
//
//	ID           – primary key identifier.
//	UserID       – user who owns the booking.
//	ServiceID    – catalog service being booked. The reference may
//	               dangle after catalog deletion.
//	CustomerName – name the appointment is booked under.
//	Address      – address the service is delivered to.
//	Date         – requested calendar day.
//	Time         – requested clock time, "HH:MM".
//	Status       – lifecycle state of the booking.
//	CreatedAt    – creation timestamp.
//	UpdatedAt    – last update timestamp.
type Booking struct {
	ID           uint64         // bookings.id
	UserID       uint64         // bookings.user_id
	ServiceID    uint64         // bookings.service_id
	CustomerName string         // bookings.customer_name
	Address      string         // bookings.address
	Date         time.Time      // bookings.date
	Time         string         // bookings.time
	Status       booking.Status // bookings.status
	CreatedAt    time.Time      // bookings.created_at
	UpdatedAt    time.Time      // bookings.updated_at
}

// ServicePart is the slice of a catalog entry embedded in a booking
// detail. It is nil when the referenced service has since been
// deleted.
type ServicePart struct {
	ID          uint64
	Title       string
	Description *string
	Price       decimal.Decimal
}

// UserPart is the owner summary embedded in a booking detail.
type UserPart struct {
	ID      uint64
	Name    string
	Email   string
	IsAdmin bool
}

// BookingDetail is a booking joined with its service and owner, the
// shape consumed by API serialization.
type BookingDetail struct {
	Booking
	Service *ServicePart
	User    *UserPart
}
