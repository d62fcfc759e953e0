package worker

import (
	"context"
	"encoding/json"
	"log"
	"time"

	"booking-service/internal/broker"
	"booking-service/internal/counter"
	"booking-service/internal/models"
	"booking-service/internal/store"
	"booking-service/internal/util"

	"github.com/segmentio/kafka-go"
	"go.uber.org/zap"
)

// SweepWorker periodically removes expired rows: abandoned checkouts
// past their holding-area expiry, and cancelled-archive rows past their
// purge window.
type SweepWorker struct {
	store    *store.Store
	counters *counter.Store
	interval time.Duration
	logger   *zap.Logger
}

// NewSweepWorker creates a new sweep worker
func NewSweepWorker(st *store.Store, counters *counter.Store, interval time.Duration) *SweepWorker {
	return &SweepWorker{
		store:    st,
		counters: counters,
		interval: interval,
		logger:   util.GetLogger(),
	}
}

// Start runs the sweep loop until the context is cancelled
func (w *SweepWorker) Start(ctx context.Context) error {
	log.Println("Starting sweep worker...")

	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			log.Println("Sweep worker context cancelled, stopping...")
			return ctx.Err()
		case <-ticker.C:
			w.sweep(ctx)
		}
	}
}

func (w *SweepWorker) sweep(ctx context.Context) {
	now := time.Now()

	expired, err := w.store.DeleteExpiredIncomplete(ctx, now)
	if err != nil {
		w.logger.Error("Failed to sweep incomplete bookings", zap.Error(err))
	} else if expired > 0 {
		util.SweepDeletedTotal.WithLabelValues("incomplete").Add(float64(expired))
		w.logger.Info("Swept expired incomplete bookings", zap.Int64("count", expired))
		for i := int64(0); i < expired; i++ {
			if err := w.counters.Decrement(ctx, models.StatusIncomplete, true); err != nil {
				w.logger.Error("Failed to decrement incomplete counter", zap.Error(err))
				break
			}
		}
	}

	purged, err := w.store.PurgeCancelled(ctx, now)
	if err != nil {
		w.logger.Error("Failed to purge cancelled bookings", zap.Error(err))
	} else if purged > 0 {
		util.SweepDeletedTotal.WithLabelValues("cancelled").Add(float64(purged))
		w.logger.Info("Purged cancelled archive rows", zap.Int64("count", purged))
	}
}

// AuditWorker consumes booking lifecycle events and writes an audit
// trail, skipping events it has already seen.
type AuditWorker struct {
	consumer *broker.Consumer
	store    *store.Store
	logger   *zap.Logger
}

// NewAuditWorker creates a new audit worker
func NewAuditWorker(consumer *broker.Consumer, st *store.Store) *AuditWorker {
	return &AuditWorker{
		consumer: consumer,
		store:    st,
		logger:   util.GetLogger(),
	}
}

// Start starts the audit worker
func (w *AuditWorker) Start(ctx context.Context) error {
	log.Println("Starting audit worker...")
	return w.consumer.StartConsuming(ctx, w.handleMessage)
}

// Stop stops the audit worker
func (w *AuditWorker) Stop() error {
	log.Println("Stopping audit worker...")
	return w.consumer.Close()
}

func (w *AuditWorker) handleMessage(ctx context.Context, msg kafka.Message) error {
	var event models.BaseEvent
	if err := json.Unmarshal(msg.Value, &event); err != nil {
		w.logger.Error("Failed to unmarshal event", zap.Error(err))
		return err
	}

	processed, err := w.store.IsEventProcessed(ctx, event.EventID)
	if err != nil {
		return err
	}
	if processed {
		return nil
	}

	w.logger.Info("Booking event",
		zap.String("event_id", event.EventID),
		zap.String("event_type", event.EventType),
		zap.Time("timestamp", event.Timestamp))

	return w.store.MarkEventProcessed(ctx, event.EventID, event.EventType)
}
