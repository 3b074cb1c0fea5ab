package repository

import (
	"context"
	"database/sql"
	"errors"

	"github.com/shopspring/decimal"

	"github.com/tidyhome/booking-api/internal/booking"
	"github.com/tidyhome/booking-api/internal/model"
)

// BookingRepo provides persistence for bookings. All timestamp columns are
// stored in UTC.
type BookingRepo struct {
	db *sql.DB
}

func NewBookingRepo(db *sql.DB) *BookingRepo { return &BookingRepo{db: db} }

const detailSelect = `SELECT b.id, b.user_id, b.service_id, b.customer_name, b.address,
                             b.date, b.time, b.status, b.created_at, b.updated_at,
                             s.id, s.title, s.description, s.price,
                             u.id, u.name, u.email, u.is_admin
                      FROM bookings b
                      LEFT JOIN services s ON s.id = b.service_id
                      JOIN users u ON u.id = b.user_id`

// Create inserts a new booking and selects the row back so timestamps and
// defaults are populated. The caller decides the status; handlers always
// force pending at creation.
func (r *BookingRepo) Create(ctx context.Context, b *model.Booking) error {
	const q = `INSERT INTO bookings (user_id, service_id, customer_name, address, date, time, status)
	           VALUES (?, ?, ?, ?, ?, ?, ?)`
	res, err := r.db.ExecContext(ctx, q,
		b.UserID, b.ServiceID, b.CustomerName, b.Address,
		b.Date.Format("2006-01-02"), b.Time, string(b.Status))
	if err != nil {
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	b.ID = uint64(id)
	const sel = `SELECT user_id, service_id, customer_name, address, date, time, status, created_at, updated_at
	             FROM bookings WHERE id = ?`
	return r.db.QueryRowContext(ctx, sel, b.ID).Scan(
		&b.UserID, &b.ServiceID, &b.CustomerName, &b.Address,
		&b.Date, &b.Time, &b.Status, &b.CreatedAt, &b.UpdatedAt)
}

// GetDetail returns a booking with its service and owner loaded. The
// service join is a LEFT JOIN: catalog deletion does not cascade, so a
// booking may outlive its service. Returns ErrBookingNotFound when no row
// exists.
func (r *BookingRepo) GetDetail(ctx context.Context, id uint64) (*model.BookingDetail, error) {
	row := r.db.QueryRowContext(ctx, detailSelect+" WHERE b.id = ?", id)
	det, err := scanDetail(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrBookingNotFound
		}
		return nil, err
	}
	return det, nil
}

// ListByUser returns all bookings owned by userID, newest requested
// date/time first.
func (r *BookingRepo) ListByUser(ctx context.Context, userID uint64) ([]*model.BookingDetail, error) {
	return r.list(ctx, detailSelect+" WHERE b.user_id = ? ORDER BY b.date DESC, b.time DESC", userID)
}

// ListAll returns every booking regardless of owner, same ordering as
// ListByUser. Reserved for administrators.
func (r *BookingRepo) ListAll(ctx context.Context) ([]*model.BookingDetail, error) {
	return r.list(ctx, detailSelect+" ORDER BY b.date DESC, b.time DESC")
}

func (r *BookingRepo) list(ctx context.Context, query string, args ...interface{}) ([]*model.BookingDetail, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]*model.BookingDetail, 0)
	for rows.Next() {
		det, err := scanDetail(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, det)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

// UpdateStatus moves a booking from one status to another. The WHERE clause
// carries the expected current status so two concurrent writers cannot both
// win a read-modify-write race; when zero rows match an existing booking,
// ErrStatusConflict is returned, and ErrBookingNotFound when the booking is
// gone entirely.
func (r *BookingRepo) UpdateStatus(ctx context.Context, id uint64, from, to booking.Status) error {
	const q = `UPDATE bookings SET status = ?, updated_at = CURRENT_TIMESTAMP
	           WHERE id = ? AND status = ?`
	res, err := r.db.ExecContext(ctx, q, string(to), id, string(from))
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		var exists bool
		if err := r.db.QueryRowContext(ctx, "SELECT EXISTS(SELECT 1 FROM bookings WHERE id = ?)", id).Scan(&exists); err != nil {
			return err
		}
		if !exists {
			return ErrBookingNotFound
		}
		return ErrStatusConflict
	}
	return nil
}

// Delete removes a booking unconditionally; any status may be deleted.
func (r *BookingRepo) Delete(ctx context.Context, id uint64) error {
	res, err := r.db.ExecContext(ctx, "DELETE FROM bookings WHERE id = ?", id)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrBookingNotFound
	}
	return nil
}

// scanner covers both *sql.Row and *sql.Rows.
type scanner interface {
	Scan(dest ...interface{}) error
}

func scanDetail(sc scanner) (*model.BookingDetail, error) {
	var det model.BookingDetail
	var (
		svcID    sql.NullInt64
		svcTitle sql.NullString
		svcDesc  sql.NullString
		svcPrice sql.NullString
		usr      model.UserPart
	)
	if err := sc.Scan(
		&det.ID, &det.UserID, &det.ServiceID, &det.CustomerName, &det.Address,
		&det.Date, &det.Time, &det.Status, &det.CreatedAt, &det.UpdatedAt,
		&svcID, &svcTitle, &svcDesc, &svcPrice,
		&usr.ID, &usr.Name, &usr.Email, &usr.IsAdmin,
	); err != nil {
		return nil, err
	}
	if svcID.Valid {
		part := &model.ServicePart{ID: uint64(svcID.Int64), Title: svcTitle.String}
		if svcDesc.Valid {
			d := svcDesc.String
			part.Description = &d
		}
		if svcPrice.Valid {
			p, err := decimal.NewFromString(svcPrice.String)
			if err != nil {
				return nil, err
			}
			part.Price = p
		}
		det.Service = part
	}
	det.User = &usr
	return &det, nil
}
