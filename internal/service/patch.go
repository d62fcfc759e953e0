package service

import "booking-service/internal/models"

// BookingPatch is a partial update. Nil pointers mean "keep the previous
// value"; maps are merged key-wise with the patch winning per key, so
// fields absent from a patch are preserved, never dropped.
type BookingPatch struct {
	Status        *string `json:"status"`
	PaymentStatus *string `json:"payment_status"`
	CustomerName  *string `json:"customer_name"`
	CustomerEmail *string `json:"customer_email"`
	CustomerPhone *string `json:"customer_phone"`
	TheaterName   *string `json:"theater_name"`
	BookingDate   *string `json:"booking_date"`
	TimeSlot      *string `json:"time_slot"`
	TotalAmount   *int64  `json:"total_amount"`
	AdvancePaid   *int64  `json:"advance_paid"`

	Occasion map[string]string               `json:"occasion"`
	Items    map[string][]models.ServiceItem `json:"items"`
}

// applyPatch merges a patch over the previous decompressed snapshot and
// returns the result. Pure function; prev is not mutated.
func applyPatch(prev models.Booking, patch BookingPatch) models.Booking {
	next := prev

	if patch.Status != nil {
		next.Status = *patch.Status
	}
	if patch.PaymentStatus != nil {
		next.PaymentStatus = *patch.PaymentStatus
	}
	if patch.CustomerName != nil {
		next.CustomerName = *patch.CustomerName
	}
	if patch.CustomerEmail != nil {
		next.CustomerEmail = *patch.CustomerEmail
	}
	if patch.CustomerPhone != nil {
		next.CustomerPhone = *patch.CustomerPhone
	}
	if patch.TheaterName != nil {
		next.TheaterName = *patch.TheaterName
	}
	if patch.BookingDate != nil {
		next.BookingDate = *patch.BookingDate
	}
	if patch.TimeSlot != nil {
		next.TimeSlot = *patch.TimeSlot
	}
	if patch.TotalAmount != nil {
		next.TotalAmount = *patch.TotalAmount
	}
	if patch.AdvancePaid != nil {
		next.AdvancePaid = *patch.AdvancePaid
	}

	if len(patch.Occasion) > 0 {
		merged := make(map[string]string, len(prev.Occasion)+len(patch.Occasion))
		for k, v := range prev.Occasion {
			merged[k] = v
		}
		for k, v := range patch.Occasion {
			merged[k] = v
		}
		next.Occasion = merged
	}

	if len(patch.Items) > 0 {
		merged := make(map[string][]models.ServiceItem, len(prev.Items)+len(patch.Items))
		for name, list := range prev.Items {
			merged[name] = list
		}
		for name, list := range patch.Items {
			merged[name] = list
		}
		next.Items = merged
	}

	return next
}
