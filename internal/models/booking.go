package models

import "time"

// Booking statuses
const (
	StatusPending    = "pending"
	StatusConfirmed  = "confirmed"
	StatusManual     = "manual"
	StatusCompleted  = "completed"
	StatusCancelled  = "cancelled"
	StatusIncomplete = "incomplete"
)

// Payment statuses
const (
	PaymentUnpaid  = "unpaid"
	PaymentPartial = "partial"
	PaymentPaid    = "paid"
)

// Booking types
const (
	BookingTypeOnline = "online"
	BookingTypeManual = "manual"
)

// CounterCategoryStaff tracks bookings entered by staff on top of the
// regular status categories. It has no matching booking status.
const CounterCategoryStaff = "staff"

// ServiceItem is one entry in a named service-item list attached to a
// booking (a selected movie, a decoration package, a cake, ...).
type ServiceItem struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	Price    int64  `json:"price"`
	Quantity int    `json:"quantity"`
}

// Booking is one reservation. The fixed fields are the queryable core;
// Occasion and Items carry the open-ended parts of the document (free-form
// occasion key-values and arbitrary named service-item lists) so the rest
// of the record stays strongly typed.
type Booking struct {
	ID                int64  `json:"internal_id,omitempty"`
	BookingID         string `json:"booking_id"`
	OriginalBookingID string `json:"original_booking_id,omitempty"`
	LegacyID          string `json:"id,omitempty"`
	TicketNumber      string `json:"ticket_number"`

	Status        string `json:"status"`
	PaymentStatus string `json:"payment_status"`
	BookingType   string `json:"booking_type"`

	CustomerName  string `json:"customer_name"`
	CustomerEmail string `json:"customer_email"`
	CustomerPhone string `json:"customer_phone"`

	TheaterName string `json:"theater_name"`
	BookingDate string `json:"booking_date"`
	TimeSlot    string `json:"time_slot"`

	TotalAmount int64 `json:"total_amount"`
	AdvancePaid int64 `json:"advance_paid"`

	Occasion map[string]string        `json:"occasion,omitempty"`
	Items    map[string][]ServiceItem `json:"items,omitempty"`

	CreatedByStaff bool   `json:"created_by_staff,omitempty"`
	CancelReason   string `json:"cancel_reason,omitempty"`

	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
	CancelledAt *time.Time `json:"cancelled_at,omitempty"`
	CompletedAt *time.Time `json:"completed_at,omitempty"`
}

// CounterSnapshot is the merged view of one category's rolling windows
// and its all-time total.
type CounterSnapshot struct {
	Today int64 `json:"today"`
	Week  int64 `json:"week"`
	Month int64 `json:"month"`
	Year  int64 `json:"year"`
	Total int64 `json:"total"`
}

// ProcessedEvent for consumer idempotency
type ProcessedEvent struct {
	EventID     string    `db:"event_id"`
	EventType   string    `db:"event_type"`
	ProcessedAt time.Time `db:"processed_at"`
}
