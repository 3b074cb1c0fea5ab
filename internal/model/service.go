package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// Service represents one entry of the bookable service catalog as
// stored in the `services` table. Catalog rows are created and
// maintained by administrators only; list and show are public.
//
// Price is a non-negative DECIMAL(10,2) column handled through
// shopspring/decimal so money never passes through binary floats.
//
// Fields:
//
//	ID          – primary key identifier.
//	Title       – display title of the service.
//	Description – optional free-text description (nullable).
//	Price       – price of the service.
//	CreatedAt   – creation timestamp.
//	UpdatedAt   – last update timestamp.
type Service struct {
	ID          uint64          // services.id
	Title       string          // services.title
	Description *string         // services.description (nullable)
	Price       decimal.Decimal // services.price
	CreatedAt   time.Time       // services.created_at
	UpdatedAt   time.Time       // services.updated_at
}
