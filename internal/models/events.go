package models

import "time"

// Event types
const (
	EventTypeBookingCreated   = "BOOKING_CREATED"
	EventTypeBookingUpdated   = "BOOKING_UPDATED"
	EventTypeBookingCancelled = "BOOKING_CANCELLED"
	EventTypeBookingCompleted = "BOOKING_COMPLETED"
)

// BaseEvent contains common fields for all events
type BaseEvent struct {
	EventID   string    `json:"event_id"`
	EventType string    `json:"event_type"`
	Timestamp time.Time `json:"timestamp"`
}

// BookingCreatedEvent published when a booking is created
type BookingCreatedEvent struct {
	BaseEvent
	BookingID    string `json:"booking_id"`
	TicketNumber string `json:"ticket_number"`
	Status       string `json:"status"`
	TotalAmount  int64  `json:"total_amount"`
	Staff        bool   `json:"staff"`
}

// BookingUpdatedEvent published when a booking is patched
type BookingUpdatedEvent struct {
	BaseEvent
	BookingID  string `json:"booking_id"`
	FromStatus string `json:"from_status"`
	ToStatus   string `json:"to_status"`
}

// BookingCancelledEvent published when a booking moves to the cancelled archive
type BookingCancelledEvent struct {
	BaseEvent
	BookingID string `json:"booking_id"`
	Reason    string `json:"reason"`
}

// BookingCompletedEvent published when a booking moves to the completed archive
type BookingCompletedEvent struct {
	BaseEvent
	BookingID string `json:"booking_id"`
}
