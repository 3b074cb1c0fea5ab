package handler

import (
	"regexp"
	"strings"
	"time"
	"unicode/utf8"
)

// timePattern enforces the 24h HH:MM form the original booking form used.
var timePattern = regexp.MustCompile(`^([01][0-9]|2[0-3]):[0-5][0-9]$`)

// createBookingReq is the booking creation payload. Status is deliberately
// absent: creation never accepts an initial status from the caller.
type createBookingReq struct {
	ServiceID    uint64 `json:"service_id"`
	CustomerName string `json:"customer_name"`
	Address      string `json:"address"`
	Date         string `json:"date"`
	Time         string `json:"time"`
}

// validateBookingInput checks the creation payload against the booking
// rules: service selected, non-empty bounded name and address, date today
// or later, time in HH:MM. The reference instant now supplies "today";
// comparison is date-only in UTC. Returns the parsed date and a field
// error map, empty on success.
func validateBookingInput(req createBookingReq, now time.Time) (time.Time, map[string][]string) {
	errs := map[string][]string{}

	if req.ServiceID == 0 {
		errs["service_id"] = append(errs["service_id"], "Please select a service.")
	}

	name := strings.TrimSpace(req.CustomerName)
	if name == "" {
		errs["customer_name"] = append(errs["customer_name"], "Customer name is required.")
	} else if utf8.RuneCountInString(name) > 255 {
		errs["customer_name"] = append(errs["customer_name"], "Customer name cannot exceed 255 characters.")
	}

	address := strings.TrimSpace(req.Address)
	if address == "" {
		errs["address"] = append(errs["address"], "Address is required.")
	} else if utf8.RuneCountInString(address) > 500 {
		errs["address"] = append(errs["address"], "Address cannot exceed 500 characters.")
	}

	var date time.Time
	if req.Date == "" {
		errs["date"] = append(errs["date"], "Booking date is required.")
	} else {
		parsed, err := time.Parse("2006-01-02", req.Date)
		if err != nil {
			errs["date"] = append(errs["date"], "Booking date must be a valid date.")
		} else {
			today := time.Date(now.UTC().Year(), now.UTC().Month(), now.UTC().Day(), 0, 0, 0, 0, time.UTC)
			if parsed.Before(today) {
				errs["date"] = append(errs["date"], "Booking date must be today or in the future.")
			}
			date = parsed
		}
	}

	if req.Time == "" {
		errs["time"] = append(errs["time"], "Booking time is required.")
	} else if !timePattern.MatchString(req.Time) {
		errs["time"] = append(errs["time"], "Time must be in HH:MM format.")
	}

	return date, errs
}
