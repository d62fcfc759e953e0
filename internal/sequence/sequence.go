package sequence

import (
	"context"
	"fmt"
	"time"

	"booking-service/internal/redisclient"
	"booking-service/internal/util"

	"github.com/go-redis/redis/v8"
	"go.uber.org/zap"
)

// SequenceKey is the Redis key holding the persisted booking sequence.
const SequenceKey = "booking:seq"

// CountFunc returns a raw document count from the canonical store. Used
// as the second-to-last rung of the fallback ladder.
type CountFunc func(ctx context.Context) (int64, error)

// Generator issues booking sequence numbers. The primary path is a Lua
// script that bumps the stored sequence to max(stored, domainTotal) + 1
// atomically. When Redis is unavailable the generator walks a fallback
// ladder instead of failing: losing a booking is worse than issuing a
// slightly-less-clean identifier.
type Generator struct {
	redis   *redisclient.Client
	countFn CountFunc
	logger  *zap.Logger
}

// NewGenerator creates a new sequence generator
func NewGenerator(redis *redisclient.Client, countFn CountFunc) *Generator {
	return &Generator{
		redis:   redis,
		countFn: countFn,
		logger:  util.GetLogger(),
	}
}

// Next returns the next booking sequence number, strictly greater than
// every previously issued value and greater than domainTotal (the
// externally tracked confirmed+manual total). Never returns an error:
// each fallback step still produces a usable number.
func (g *Generator) Next(ctx context.Context, domainTotal int64) int64 {
	if g.redis != nil {
		seq, err := g.redis.NextSequence(ctx, SequenceKey, domainTotal)
		if err == nil {
			return seq
		}
		g.logger.Warn("Atomic sequence path unavailable, trying read-modify-write",
			zap.Error(err))

		// Read-max-then-increment. Two concurrent callers can race
		// between the GET and the SET; accepted as a documented
		// weaker guarantee when the script path is down.
		if seq, rmwErr := g.readModifyWrite(ctx, domainTotal); rmwErr == nil {
			util.SequenceFallbacksTotal.WithLabelValues("read_modify_write").Inc()
			return seq
		}
	}

	if domainTotal > 0 {
		util.SequenceFallbacksTotal.WithLabelValues("domain_total").Inc()
		g.logger.Warn("Sequence store unreachable, deriving from domain total",
			zap.Int64("domain_total", domainTotal))
		return domainTotal + 1
	}

	if g.countFn != nil {
		if count, err := g.countFn(ctx); err == nil {
			util.SequenceFallbacksTotal.WithLabelValues("doc_count").Inc()
			g.logger.Warn("Sequence derived from raw document count",
				zap.Int64("count", count))
			return count + 1
		}
	}

	util.SequenceFallbacksTotal.WithLabelValues("timestamp").Inc()
	suffix := time.Now().Unix() % 1_000_000
	g.logger.Warn("Sequence derived from timestamp", zap.Int64("suffix", suffix))
	return suffix
}

func (g *Generator) readModifyWrite(ctx context.Context, domainTotal int64) (int64, error) {
	rdb := g.redis.GetClient()

	stored, err := rdb.Get(ctx, SequenceKey).Int64()
	if err != nil && err != redis.Nil {
		return 0, err
	}
	if stored < domainTotal {
		stored = domainTotal
	}
	stored++

	if err := rdb.Set(ctx, SequenceKey, stored, 0).Err(); err != nil {
		return 0, err
	}
	return stored, nil
}

// FormatBookingID renders the human-readable prefix-year-sequence form,
// e.g. "FMT-2025-57".
func FormatBookingID(prefix string, year int, seq int64) string {
	return fmt.Sprintf("%s-%d-%d", prefix, year, seq)
}

// TicketNumber renders a ticket number from a sequence value. Callers
// reuse the sequence issued in the same logical request when available.
func TicketNumber(seq int64) string {
	return fmt.Sprintf("TKT-%06d", seq)
}
