// Package queue defines message payloads exchanged over the message broker
// and the background consumer that records them.
package queue

// BookingStatusEvent is published whenever a booking changes status, by an
// admin transition or a self-cancel. It carries enough for downstream
// consumers to log or notify without querying the primary database.
type BookingStatusEvent struct {
	BookingID    uint64 `json:"booking_id"`
	UserID       uint64 `json:"user_id"`
	ServiceID    uint64 `json:"service_id"`
	ServiceTitle string `json:"service_title"`
	CustomerName string `json:"customer_name"`
	Date         string `json:"date"`
	Time         string `json:"time"`
	OldStatus    string `json:"old_status"`
	NewStatus    string `json:"new_status"`
	ChangedAt    string `json:"changed_at"`
}
