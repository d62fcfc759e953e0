package counter

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"booking-service/internal/models"
	"booking-service/internal/redisclient"
	"booking-service/internal/util"

	"github.com/go-redis/redis/v8"
	"go.uber.org/zap"
)

// Civil time for all window boundaries is fixed at UTC+5:30.
var Zone = time.FixedZone("IST", 5*3600+30*60)

// Categories tracked by the counter store. Staff is a sub-counter on top
// of the status categories.
var Categories = []string{
	models.StatusConfirmed,
	models.StatusManual,
	models.StatusPending,
	models.StatusCompleted,
	models.StatusCancelled,
	models.StatusIncomplete,
	models.CounterCategoryStaff,
}

const (
	fieldToday = "today"
	fieldWeek  = "week"
	fieldMonth = "month"
	fieldYear  = "year"

	markerDay   = "last_reset_date"
	markerWeek  = "last_reset_week"
	markerMonth = "last_reset_month"
	markerYear  = "last_reset_year"
)

// windows pairs each rolling window with its boundary marker field.
var windows = []struct {
	field    string
	marker   string
	boundary func(time.Time) string
}{
	{fieldToday, markerDay, DayBoundary},
	{fieldWeek, markerWeek, WeekBoundary},
	{fieldMonth, markerMonth, MonthBoundary},
	{fieldYear, markerYear, YearBoundary},
}

// DayBoundary returns the civil-day boundary string for t.
func DayBoundary(t time.Time) string {
	return t.In(Zone).Format("2006-01-02")
}

// WeekBoundary returns the date of the Monday starting t's civil week.
func WeekBoundary(t time.Time) string {
	tt := t.In(Zone)
	shift := (int(tt.Weekday()) + 6) % 7
	return tt.AddDate(0, 0, -shift).Format("2006-01-02")
}

// MonthBoundary returns the civil-month boundary string for t.
func MonthBoundary(t time.Time) string {
	return t.In(Zone).Format("2006-01")
}

// YearBoundary returns the civil-year boundary string for t.
func YearBoundary(t time.Time) string {
	return t.In(Zone).Format("2006")
}

// Store keeps per-category counts in four rolling windows plus an
// independent all-time total. Window mutations are atomic per field
// (HINCRBY / Lua), never whole-document read-modify-write, so two
// bookings created in the same instant by different admins both land.
type Store struct {
	redis  *redisclient.Client
	now    func() time.Time
	logger *zap.Logger
}

// NewStore creates a new counter store
func NewStore(redis *redisclient.Client) *Store {
	return &Store{
		redis:  redis,
		now:    time.Now,
		logger: util.GetLogger(),
	}
}

func counterKey(category string) string {
	return fmt.Sprintf("counters:%s", category)
}

func totalKey(category string) string {
	return fmt.Sprintf("counters:%s:total", category)
}

// rollover compares each window's last-reset marker against the current
// boundary and zeroes any window whose boundary has passed. Windows roll
// over independently; totals are never touched here.
func (s *Store) rollover(ctx context.Context, category string) error {
	key := counterKey(category)
	rdb := s.redis.GetClient()

	current, err := rdb.HGetAll(ctx, key).Result()
	if err != nil {
		return fmt.Errorf("failed to read counter %s: %w", category, err)
	}

	now := s.now()
	pipe := rdb.Pipeline()
	stale := 0
	for _, w := range windows {
		boundary := w.boundary(now)
		if current[w.marker] == boundary {
			continue
		}
		pipe.HSet(ctx, key, w.field, 0)
		pipe.HSet(ctx, key, w.marker, boundary)
		stale++
	}

	if stale == 0 {
		return nil
	}
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("failed to roll over counter %s: %w", category, err)
	}

	s.logger.Debug("Counter windows rolled over",
		zap.String("category", category),
		zap.Int("windows", stale))
	return nil
}

// Increment runs the rollover check, then adds one to all four windows
// and, when withTotal is set, to the all-time total.
func (s *Store) Increment(ctx context.Context, category string, withTotal bool) error {
	if err := s.rollover(ctx, category); err != nil {
		return err
	}

	key := counterKey(category)
	pipe := s.redis.GetClient().Pipeline()
	for _, w := range windows {
		pipe.HIncrBy(ctx, key, w.field, 1)
	}
	if withTotal {
		pipe.Incr(ctx, totalKey(category))
	}

	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("failed to increment counter %s: %w", category, err)
	}
	return nil
}

// Decrement mirrors Increment, floored at zero for every window and for
// the total.
func (s *Store) Decrement(ctx context.Context, category string, withTotal bool) error {
	if err := s.rollover(ctx, category); err != nil {
		return err
	}

	key := counterKey(category)
	for _, w := range windows {
		if err := s.redis.DecrFieldFloor(ctx, key, w.field); err != nil {
			return fmt.Errorf("failed to decrement counter %s: %w", category, err)
		}
	}
	if withTotal {
		if err := s.redis.DecrKeyFloor(ctx, totalKey(category)); err != nil {
			return fmt.Errorf("failed to decrement total %s: %w", category, err)
		}
	}
	return nil
}

// Total returns the all-time total for a category. Missing keys read as
// zero.
func (s *Store) Total(ctx context.Context, category string) (int64, error) {
	total, err := s.redis.GetClient().Get(ctx, totalKey(category)).Int64()
	if err == redis.Nil {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("failed to read total %s: %w", category, err)
	}
	return total, nil
}

// Get returns one category's windows and total after rollover.
func (s *Store) Get(ctx context.Context, category string) (models.CounterSnapshot, error) {
	var snap models.CounterSnapshot

	if err := s.rollover(ctx, category); err != nil {
		return snap, err
	}

	fields, err := s.redis.GetClient().HGetAll(ctx, counterKey(category)).Result()
	if err != nil {
		return snap, fmt.Errorf("failed to read counter %s: %w", category, err)
	}

	snap.Today = parseField(fields, fieldToday)
	snap.Week = parseField(fields, fieldWeek)
	snap.Month = parseField(fields, fieldMonth)
	snap.Year = parseField(fields, fieldYear)

	snap.Total, err = s.Total(ctx, category)
	if err != nil {
		return snap, err
	}
	return snap, nil
}

// Snapshot returns every category's windows and totals.
func (s *Store) Snapshot(ctx context.Context) (map[string]models.CounterSnapshot, error) {
	out := make(map[string]models.CounterSnapshot, len(Categories))
	for _, category := range Categories {
		snap, err := s.Get(ctx, category)
		if err != nil {
			return nil, err
		}
		out[category] = snap
	}
	return out, nil
}

// ResetAll zeroes every window and total and stamps fresh boundary
// markers. Admin operation.
func (s *Store) ResetAll(ctx context.Context) error {
	now := s.now()
	pipe := s.redis.GetClient().Pipeline()
	for _, category := range Categories {
		key := counterKey(category)
		for _, w := range windows {
			pipe.HSet(ctx, key, w.field, 0)
			pipe.HSet(ctx, key, w.marker, w.boundary(now))
		}
		pipe.Set(ctx, totalKey(category), 0, 0)
	}

	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("failed to reset counters: %w", err)
	}

	s.logger.Info("All counters reset")
	return nil
}

// parseField reads one window field, treating missing or malformed
// values as zero.
func parseField(fields map[string]string, name string) int64 {
	v, err := strconv.ParseInt(fields[name], 10, 64)
	if err != nil {
		return 0
	}
	return v
}
