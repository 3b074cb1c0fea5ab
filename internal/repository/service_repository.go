// This file holds the repository methods for the catalog of bookable
// services. Catalog rows are created and maintained by administrators only;
// list and show are public.
package repository

import (
	"context"
	"database/sql"
	"errors"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/tidyhome/booking-api/internal/model"
)

// ServiceUpdate carries the optional fields of a partial catalog update.
// Nil fields are left untouched.
type ServiceUpdate struct {
	Title       *string
	Description *string
	Price       *decimal.Decimal
}

// ServiceRepo encapsulates all database queries related to the catalog.
type ServiceRepo struct {
	db *sql.DB
}

func NewServiceRepo(db *sql.DB) *ServiceRepo { return &ServiceRepo{db: db} }

// Create inserts a new catalog entry. On success the ID, CreatedAt and
// UpdatedAt fields are populated from the stored row so callers receive a
// fully populated record.
func (r *ServiceRepo) Create(ctx context.Context, s *model.Service) error {
	const qInsert = "INSERT INTO services (title, description, price) VALUES (?, ?, ?)"
	res, err := r.db.ExecContext(ctx, qInsert, s.Title, s.Description, s.Price.StringFixed(2))
	if err != nil {
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	s.ID = uint64(id)
	got, err := r.GetByID(ctx, s.ID)
	if err != nil {
		return err
	}
	*s = *got
	return nil
}

// GetByID fetches a catalog entry by its ID. It returns ErrServiceNotFound
// when no row exists.
func (r *ServiceRepo) GetByID(ctx context.Context, id uint64) (*model.Service, error) {
	const q = "SELECT id, title, description, price, created_at, updated_at FROM services WHERE id = ?"
	var s model.Service
	var desc sql.NullString
	if err := r.db.QueryRowContext(ctx, q, id).Scan(&s.ID, &s.Title, &desc, &s.Price, &s.CreatedAt, &s.UpdatedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrServiceNotFound
		}
		return nil, err
	}
	if desc.Valid {
		d := desc.String
		s.Description = &d
	}
	return &s, nil
}

// List returns the whole catalog ordered by title ascending.
func (r *ServiceRepo) List(ctx context.Context) ([]*model.Service, error) {
	const q = "SELECT id, title, description, price, created_at, updated_at FROM services ORDER BY title"
	rows, err := r.db.QueryContext(ctx, q)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]*model.Service, 0)
	for rows.Next() {
		s := new(model.Service)
		var desc sql.NullString
		if err := rows.Scan(&s.ID, &s.Title, &desc, &s.Price, &s.CreatedAt, &s.UpdatedAt); err != nil {
			return nil, err
		}
		if desc.Valid {
			d := desc.String
			s.Description = &d
		}
		out = append(out, s)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

// Update applies the non-nil fields of upd to the catalog entry and returns
// the refreshed row. Callers are expected to have verified existence first;
// an update against a missing row comes back as ErrServiceNotFound from the
// follow-up select.
func (r *ServiceRepo) Update(ctx context.Context, id uint64, upd ServiceUpdate) (*model.Service, error) {
	sets := make([]string, 0, 4)
	args := make([]interface{}, 0, 4)
	if upd.Title != nil {
		sets = append(sets, "title = ?")
		args = append(args, *upd.Title)
	}
	if upd.Description != nil {
		sets = append(sets, "description = ?")
		args = append(args, *upd.Description)
	}
	if upd.Price != nil {
		sets = append(sets, "price = ?")
		args = append(args, upd.Price.StringFixed(2))
	}
	if len(sets) == 0 {
		return r.GetByID(ctx, id)
	}
	sets = append(sets, "updated_at = CURRENT_TIMESTAMP")
	query := "UPDATE services SET " + strings.Join(sets, ", ") + " WHERE id = ?"
	args = append(args, id)
	if _, err := r.db.ExecContext(ctx, query, args...); err != nil {
		return nil, err
	}
	return r.GetByID(ctx, id)
}

// Delete removes a catalog entry. Existing bookings keep their service
// reference; the booking read path tolerates the dangling ID.
func (r *ServiceRepo) Delete(ctx context.Context, id uint64) error {
	res, err := r.db.ExecContext(ctx, "DELETE FROM services WHERE id = ?", id)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrServiceNotFound
	}
	return nil
}
