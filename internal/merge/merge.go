package merge

import (
	"sort"
	"strconv"
	"time"

	"booking-service/internal/models"
)

// statusRank orders booking statuses by authority. When the same logical
// booking shows up in several source lists (its lifecycle moves it
// between stores), the highest-ranked copy is the truth.
var statusRank = map[string]int{
	models.StatusCompleted:  60,
	models.StatusCancelled:  55,
	models.StatusConfirmed:  50,
	models.StatusManual:     40,
	models.StatusPending:    30,
	models.StatusIncomplete: 10,
}

// Rank returns the merge priority of a status. Unknown statuses rank 0.
func Rank(status string) int {
	return statusRank[status]
}

// Key derives the dedup key for a record: explicit booking ID first, then
// the original booking ID an archive copy carries, then a legacy source
// id, then the internal store id. Records with no derivable key return ""
// and pass through unmerged.
func Key(b models.Booking) string {
	switch {
	case b.BookingID != "":
		return b.BookingID
	case b.OriginalBookingID != "":
		return b.OriginalBookingID
	case b.LegacyID != "":
		return b.LegacyID
	case b.ID != 0:
		return strconv.FormatInt(b.ID, 10)
	default:
		return ""
	}
}

// ActivityTime returns the record's most recent activity timestamp:
// UpdatedAt, then CompletedAt, then CreatedAt, defaulting to the epoch.
func ActivityTime(b models.Booking) time.Time {
	if !b.UpdatedAt.IsZero() {
		return b.UpdatedAt
	}
	if b.CompletedAt != nil && !b.CompletedAt.IsZero() {
		return *b.CompletedAt
	}
	if !b.CreatedAt.IsZero() {
		return b.CreatedAt
	}
	return time.Unix(0, 0)
}

// prefer reports whether a should win over b for a shared key. Higher
// rank wins; equal rank falls to the later activity timestamp. The
// relation is a total order over pairs, so folding records through it
// gives the same winner regardless of arrival order.
func prefer(a, b models.Booking) bool {
	ra, rb := Rank(a.Status), Rank(b.Status)
	if ra != rb {
		return ra > rb
	}
	return ActivityTime(a).After(ActivityTime(b))
}

// Merge collapses several source lists into one deduplicated list with
// exactly one representative per logical booking. The output is sorted
// by activity (newest first, key as tie-break) so it is independent of
// input array order. Each survivor's Status is authoritative.
func Merge(sources ...[]models.Booking) []models.Booking {
	byKey := make(map[string]models.Booking)
	var keyless []models.Booking
	var order []string

	for _, source := range sources {
		for _, record := range source {
			key := Key(record)
			if key == "" {
				keyless = append(keyless, record)
				continue
			}

			current, seen := byKey[key]
			if !seen {
				byKey[key] = record
				order = append(order, key)
				continue
			}
			if prefer(record, current) {
				byKey[key] = record
			}
		}
	}

	merged := make([]models.Booking, 0, len(order)+len(keyless))
	for _, key := range order {
		merged = append(merged, byKey[key])
	}
	merged = append(merged, keyless...)

	sort.SliceStable(merged, func(i, j int) bool {
		ti, tj := ActivityTime(merged[i]), ActivityTime(merged[j])
		if !ti.Equal(tj) {
			return ti.After(tj)
		}
		return Key(merged[i]) < Key(merged[j])
	})
	return merged
}
