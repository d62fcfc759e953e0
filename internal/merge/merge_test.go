package merge

import (
	"testing"
	"time"

	"booking-service/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func booking(id, status string, updated time.Time) models.Booking {
	return models.Booking{
		BookingID: id,
		Status:    status,
		UpdatedAt: updated,
	}
}

func TestMergeHigherRankWins(t *testing.T) {
	ts := time.Date(2025, 8, 1, 12, 0, 0, 0, time.UTC)

	confirmed := []models.Booking{booking("FMT-2025-57", models.StatusConfirmed, ts)}
	cancelled := []models.Booking{booking("FMT-2025-57", models.StatusCancelled, ts.Add(-time.Hour))}

	merged := Merge(confirmed, cancelled)
	require.Len(t, merged, 1)
	assert.Equal(t, models.StatusCancelled, merged[0].Status)
}

func TestMergeOrderIndependent(t *testing.T) {
	ts := time.Date(2025, 8, 1, 12, 0, 0, 0, time.UTC)

	confirmed := []models.Booking{booking("FMT-2025-3", models.StatusConfirmed, ts)}
	completed := []models.Booking{booking("FMT-2025-3", models.StatusCompleted, ts)}

	forward := Merge(confirmed, completed)
	backward := Merge(completed, confirmed)

	require.Len(t, forward, 1)
	assert.Equal(t, forward, backward)
	assert.Equal(t, models.StatusCompleted, forward[0].Status)
}

func TestMergeTieBreakLaterUpdateWins(t *testing.T) {
	earlier := booking("FMT-2025-9", models.StatusConfirmed, time.Date(2025, 8, 1, 9, 0, 0, 0, time.UTC))
	later := booking("FMT-2025-9", models.StatusConfirmed, time.Date(2025, 8, 1, 15, 0, 0, 0, time.UTC))
	later.CustomerName = "winner"

	merged := Merge([]models.Booking{earlier}, []models.Booking{later})
	require.Len(t, merged, 1)
	assert.Equal(t, "winner", merged[0].CustomerName)

	merged = Merge([]models.Booking{later}, []models.Booking{earlier})
	require.Len(t, merged, 1)
	assert.Equal(t, "winner", merged[0].CustomerName)
}

func TestMergeKeyPriority(t *testing.T) {
	withBookingID := models.Booking{BookingID: "FMT-2025-1", OriginalBookingID: "FMT-2025-2"}
	assert.Equal(t, "FMT-2025-1", Key(withBookingID))

	archived := models.Booking{OriginalBookingID: "FMT-2025-2"}
	assert.Equal(t, "FMT-2025-2", Key(archived))

	legacy := models.Booking{LegacyID: "abc123"}
	assert.Equal(t, "abc123", Key(legacy))

	internal := models.Booking{ID: 42}
	assert.Equal(t, "42", Key(internal))

	assert.Equal(t, "", Key(models.Booking{}))
}

func TestMergeArchiveCopyDedupesAgainstLive(t *testing.T) {
	ts := time.Date(2025, 8, 1, 12, 0, 0, 0, time.UTC)

	live := booking("FMT-2025-57", models.StatusConfirmed, ts)
	archive := models.Booking{
		OriginalBookingID: "FMT-2025-57",
		Status:            models.StatusCompleted,
		UpdatedAt:         ts.Add(time.Hour),
	}

	merged := Merge([]models.Booking{live}, []models.Booking{archive})
	require.Len(t, merged, 1)
	assert.Equal(t, models.StatusCompleted, merged[0].Status)
}

func TestMergeKeylessRecordsPassThrough(t *testing.T) {
	ts := time.Date(2025, 8, 1, 12, 0, 0, 0, time.UTC)

	keyed := booking("FMT-2025-5", models.StatusConfirmed, ts)
	keyless := models.Booking{Status: models.StatusIncomplete, UpdatedAt: ts}

	merged := Merge([]models.Booking{keyed}, []models.Booking{keyless})
	assert.Len(t, merged, 2)
}

func TestActivityTimePriority(t *testing.T) {
	updated := time.Date(2025, 8, 1, 12, 0, 0, 0, time.UTC)
	completed := time.Date(2025, 7, 1, 12, 0, 0, 0, time.UTC)
	created := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

	b := models.Booking{UpdatedAt: updated, CompletedAt: &completed, CreatedAt: created}
	assert.Equal(t, updated, ActivityTime(b))

	b.UpdatedAt = time.Time{}
	assert.Equal(t, completed, ActivityTime(b))

	b.CompletedAt = nil
	assert.Equal(t, created, ActivityTime(b))

	assert.Equal(t, time.Unix(0, 0), ActivityTime(models.Booking{}))
}

func TestRank(t *testing.T) {
	assert.Greater(t, Rank(models.StatusCompleted), Rank(models.StatusCancelled))
	assert.Greater(t, Rank(models.StatusCancelled), Rank(models.StatusConfirmed))
	assert.Greater(t, Rank(models.StatusConfirmed), Rank(models.StatusManual))
	assert.Greater(t, Rank(models.StatusManual), Rank(models.StatusPending))
	assert.Greater(t, Rank(models.StatusPending), Rank(models.StatusIncomplete))
	assert.Greater(t, Rank(models.StatusIncomplete), Rank("mystery"))
	assert.Equal(t, 0, Rank("mystery"))
}

func TestMergeManySources(t *testing.T) {
	base := time.Date(2025, 8, 1, 0, 0, 0, 0, time.UTC)

	confirmed := []models.Booking{
		booking("FMT-2025-1", models.StatusConfirmed, base.Add(1*time.Hour)),
		booking("FMT-2025-2", models.StatusConfirmed, base.Add(2*time.Hour)),
	}
	pending := []models.Booking{booking("FMT-2025-3", models.StatusPending, base)}
	completedArchive := []models.Booking{booking("FMT-2025-1", models.StatusCompleted, base)}
	cancelledArchive := []models.Booking{booking("FMT-2025-2", models.StatusCancelled, base)}
	incomplete := []models.Booking{booking("FMT-2025-3", models.StatusIncomplete, base.Add(3*time.Hour))}

	merged := Merge(confirmed, pending, completedArchive, cancelledArchive, incomplete)
	require.Len(t, merged, 3)

	statuses := map[string]string{}
	for _, b := range merged {
		statuses[b.BookingID] = b.Status
	}
	assert.Equal(t, models.StatusCompleted, statuses["FMT-2025-1"])
	assert.Equal(t, models.StatusCancelled, statuses["FMT-2025-2"])
	// Pending outranks incomplete even though the incomplete copy is newer.
	assert.Equal(t, models.StatusPending, statuses["FMT-2025-3"])
}
