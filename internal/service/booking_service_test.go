package service

import (
	"testing"
	"time"

	"booking-service/internal/codec"
	"booking-service/internal/models"
	"booking-service/internal/store"
	"booking-service/internal/util"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func strPtr(s string) *string { return &s }

func int64Ptr(n int64) *int64 { return &n }

func TestApplyPatchPreservesAbsentFields(t *testing.T) {
	prev := models.Booking{
		BookingID:     "FMT-2025-12",
		Status:        models.StatusConfirmed,
		PaymentStatus: models.PaymentPartial,
		CustomerName:  "Asha Rao",
		CustomerEmail: "asha@example.com",
		TheaterName:   "Galaxy",
		TotalAmount:   250000,
		Occasion:      map[string]string{"type": "birthday", "name": "Ira"},
		Items: map[string][]models.ServiceItem{
			"selectedMovies": {{ID: "m1", Name: "Interstellar", Quantity: 1}},
		},
	}

	next := applyPatch(prev, BookingPatch{
		PaymentStatus: strPtr(models.PaymentPaid),
		AdvancePaid:   int64Ptr(250000),
	})

	assert.Equal(t, models.PaymentPaid, next.PaymentStatus)
	assert.Equal(t, int64(250000), next.AdvancePaid)

	// Everything the patch did not mention survives.
	assert.Equal(t, "FMT-2025-12", next.BookingID)
	assert.Equal(t, models.StatusConfirmed, next.Status)
	assert.Equal(t, "Asha Rao", next.CustomerName)
	assert.Equal(t, "Galaxy", next.TheaterName)
	assert.Equal(t, prev.Occasion, next.Occasion)
	assert.Equal(t, prev.Items, next.Items)
}

func TestApplyPatchMergesMapsKeywise(t *testing.T) {
	prev := models.Booking{
		Occasion: map[string]string{"type": "birthday", "name": "Ira"},
		Items: map[string][]models.ServiceItem{
			"selectedMovies": {{ID: "m1", Name: "Interstellar", Quantity: 1}},
			"selectedCakes":  {{ID: "c1", Name: "Vanilla", Quantity: 1}},
		},
	}

	next := applyPatch(prev, BookingPatch{
		Occasion: map[string]string{"name": "Mira"},
		Items: map[string][]models.ServiceItem{
			"selectedCakes": {{ID: "c3", Name: "Chocolate Truffle", Quantity: 2}},
		},
	})

	assert.Equal(t, "birthday", next.Occasion["type"])
	assert.Equal(t, "Mira", next.Occasion["name"])
	assert.Equal(t, "m1", next.Items["selectedMovies"][0].ID)
	assert.Equal(t, "c3", next.Items["selectedCakes"][0].ID)

	// The previous snapshot is untouched.
	assert.Equal(t, "Ira", prev.Occasion["name"])
	assert.Equal(t, "c1", prev.Items["selectedCakes"][0].ID)
}

func TestApplyPatchEmptyPatchIsIdentity(t *testing.T) {
	prev := models.Booking{
		BookingID:    "FMT-2025-12",
		Status:       models.StatusConfirmed,
		CustomerName: "Asha Rao",
	}

	next := applyPatch(prev, BookingPatch{})
	assert.Equal(t, prev, next)
}

func TestResolveStatus(t *testing.T) {
	status, err := resolveStatus("")
	require.NoError(t, err)
	assert.Equal(t, models.StatusConfirmed, status)

	for _, want := range []string{
		models.StatusConfirmed, models.StatusManual, models.StatusPending, models.StatusIncomplete,
	} {
		status, err := resolveStatus(want)
		require.NoError(t, err)
		assert.Equal(t, want, status)
	}

	_, err = resolveStatus("cancelled")
	assert.Error(t, err, "terminal statuses cannot be created directly")

	_, err = resolveStatus("bogus")
	assert.Error(t, err)
}

func TestBookingType(t *testing.T) {
	assert.Equal(t, models.BookingTypeManual, bookingType(models.StatusManual))
	assert.Equal(t, models.BookingTypeOnline, bookingType(models.StatusConfirmed))
	assert.Equal(t, models.BookingTypeOnline, bookingType(models.StatusPending))
}

func TestBookingFromEnvelope(t *testing.T) {
	created := time.Date(2025, 8, 29, 10, 0, 0, 0, time.UTC)
	env := &store.Envelope{
		ID:            7,
		BookingID:     "FMT-2025-7",
		TicketNumber:  "TKT-000007",
		Status:        models.StatusConfirmed,
		PaymentStatus: models.PaymentUnpaid,
		BookingType:   models.BookingTypeOnline,
		CustomerName:  "Asha Rao",
		TheaterName:   "Galaxy",
		TotalAmount:   250000,
		Payload:       []byte("corrupted beyond recovery"),
		CreatedAt:     created,
		UpdatedAt:     created,
	}

	booking := bookingFromEnvelope(env)

	assert.Equal(t, int64(7), booking.ID)
	assert.Equal(t, "FMT-2025-7", booking.BookingID)
	assert.Equal(t, "Asha Rao", booking.CustomerName)
	assert.Equal(t, int64(250000), booking.TotalAmount)
	assert.Nil(t, booking.Items, "open maps are not recoverable from hot columns")
}

func TestDecodeRoundtripAndFallback(t *testing.T) {
	s := &BookingService{logger: util.GetLogger()}

	original := models.Booking{
		BookingID:    "FMT-2025-8",
		Status:       models.StatusConfirmed,
		CustomerName: "Asha Rao",
		Occasion:     map[string]string{"type": "anniversary"},
	}
	payload, err := codec.Compress(original)
	require.NoError(t, err)

	env := &store.Envelope{
		ID:        8,
		BookingID: "FMT-2025-8",
		Status:    models.StatusConfirmed,
		Payload:   payload,
	}
	decoded := s.decode(env)
	assert.Equal(t, "Asha Rao", decoded.CustomerName)
	assert.Equal(t, "anniversary", decoded.Occasion["type"])
	assert.Equal(t, int64(8), decoded.ID)

	// Corrupting the payload drops to the duplicated hot fields
	// instead of failing the read.
	env.Payload = []byte("corrupt")
	env.CustomerName = "Hot Column"
	fallback := s.decode(env)
	assert.Equal(t, "Hot Column", fallback.CustomerName)
	assert.Equal(t, models.StatusConfirmed, fallback.Status)
	assert.Nil(t, fallback.Occasion)
}

func TestIsStatusCategory(t *testing.T) {
	assert.True(t, isStatusCategory(models.StatusConfirmed))
	assert.True(t, isStatusCategory(models.StatusIncomplete))
	assert.False(t, isStatusCategory(""))
	assert.False(t, isStatusCategory(models.CounterCategoryStaff))
}
