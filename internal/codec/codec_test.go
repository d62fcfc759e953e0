package codec

import (
	"errors"
	"testing"
	"time"

	"booking-service/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleBooking() models.Booking {
	return models.Booking{
		BookingID:     "FMT-2025-57",
		TicketNumber:  "TKT-000057",
		Status:        models.StatusConfirmed,
		PaymentStatus: models.PaymentPartial,
		BookingType:   models.BookingTypeOnline,
		CustomerName:  "Asha Rao",
		CustomerEmail: "asha@example.com",
		TheaterName:   "Galaxy",
		BookingDate:   "2025-09-14",
		TimeSlot:      "18:00-21:00",
		TotalAmount:   250000,
		AdvancePaid:   100000,
		Occasion:      map[string]string{"type": "birthday", "name": "Ira"},
		Items: map[string][]models.ServiceItem{
			"selectedMovies": {
				{ID: "m1", Name: "Interstellar", Price: 0, Quantity: 1},
			},
			"selectedCakes": {
				{ID: "c3", Name: "Chocolate Truffle", Price: 60000, Quantity: 1},
			},
		},
		CreatedAt: time.Date(2025, 8, 29, 10, 0, 0, 0, time.UTC),
		UpdatedAt: time.Date(2025, 8, 29, 10, 0, 0, 0, time.UTC),
	}
}

func TestCompressDecompressRoundtrip(t *testing.T) {
	original := sampleBooking()

	compressed, err := Compress(original)
	require.NoError(t, err)
	require.NotEmpty(t, compressed)

	var decoded models.Booking
	require.NoError(t, Decompress(compressed, &decoded))

	assert.Equal(t, original, decoded)
}

func TestDecompressCoercesStringPayload(t *testing.T) {
	compressed, err := Compress(sampleBooking())
	require.NoError(t, err)

	var decoded models.Booking
	require.NoError(t, Decompress(string(compressed), &decoded))
	assert.Equal(t, "FMT-2025-57", decoded.BookingID)
}

func TestDecompressCorruptPayload(t *testing.T) {
	compressed, err := Compress(sampleBooking())
	require.NoError(t, err)

	// Flip bytes in the middle of the frame.
	corrupt := append([]byte(nil), compressed...)
	for i := len(corrupt) / 2; i < len(corrupt)/2+4 && i < len(corrupt); i++ {
		corrupt[i] ^= 0xFF
	}

	var decoded models.Booking
	err = Decompress(corrupt, &decoded)
	require.Error(t, err)

	var codecErr *CodecError
	assert.True(t, errors.As(err, &codecErr), "corruption must surface as *CodecError")
}

func TestDecompressEmptyPayload(t *testing.T) {
	var decoded models.Booking

	var codecErr *CodecError
	err := Decompress(nil, &decoded)
	require.Error(t, err)
	assert.True(t, errors.As(err, &codecErr))

	err = Decompress([]byte{}, &decoded)
	require.Error(t, err)
	assert.True(t, errors.As(err, &codecErr))
}

func TestDecompressGarbageBytes(t *testing.T) {
	var decoded models.Booking
	err := Decompress([]byte("definitely not a zstd frame"), &decoded)

	var codecErr *CodecError
	require.Error(t, err)
	assert.True(t, errors.As(err, &codecErr))
}
