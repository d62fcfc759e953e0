package service

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"sync"
	"time"

	"booking-service/config"
	"booking-service/internal/broker"
	"booking-service/internal/codec"
	"booking-service/internal/counter"
	"booking-service/internal/merge"
	"booking-service/internal/models"
	"booking-service/internal/sequence"
	"booking-service/internal/store"
	"booking-service/internal/util"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// BookingService owns the booking lifecycle: ID issuance, compressed
// persistence, counter upkeep, archive moves, and the merged read view.
type BookingService struct {
	store          *store.Store
	counters       *counter.Store
	seq            *sequence.Generator
	eventPublisher *broker.EventPublisher
	cfg            config.BookingConfig
	logger         *zap.Logger
}

// NewBookingService creates a new booking service
func NewBookingService(
	st *store.Store,
	counters *counter.Store,
	seq *sequence.Generator,
	eventPublisher *broker.EventPublisher,
	cfg config.BookingConfig,
) *BookingService {
	return &BookingService{
		store:          st,
		counters:       counters,
		seq:            seq,
		eventPublisher: eventPublisher,
		cfg:            cfg,
		logger:         util.GetLogger(),
	}
}

// CreateBookingRequest represents a request to create a booking
type CreateBookingRequest struct {
	Status        string `json:"status"`
	PaymentStatus string `json:"payment_status"`

	CustomerName  string `json:"customer_name" binding:"required"`
	CustomerEmail string `json:"customer_email"`
	CustomerPhone string `json:"customer_phone"`

	TheaterName string `json:"theater_name" binding:"required"`
	BookingDate string `json:"booking_date" binding:"required"`
	TimeSlot    string `json:"time_slot" binding:"required"`

	TotalAmount int64 `json:"total_amount"`
	AdvancePaid int64 `json:"advance_paid"`

	Occasion map[string]string               `json:"occasion"`
	Items    map[string][]models.ServiceItem `json:"items"`

	CreatedByStaff bool `json:"created_by_staff"`
}

// CreateBooking assigns a sequence-based booking ID and ticket number,
// persists the compressed envelope, and bumps the counters for the
// resulting status category.
func (s *BookingService) CreateBooking(ctx context.Context, req *CreateBookingRequest) (*models.Booking, error) {
	ctx, span := util.StartSpan(ctx, "BookingService.CreateBooking")
	defer span.End()

	status, err := resolveStatus(req.Status)
	if err != nil {
		util.BookingsFailedTotal.WithLabelValues("invalid_status").Inc()
		return nil, err
	}

	// Domain total (confirmed+manual) is the lower bound for the
	// sequence; a read failure here just weakens the floor to zero,
	// it never blocks the booking.
	domainTotal := s.domainTotal(ctx)
	seq := s.seq.Next(ctx, domainTotal)

	now := time.Now().In(counter.Zone)
	booking := models.Booking{
		BookingID:      sequence.FormatBookingID(s.cfg.IDPrefix, now.Year(), seq),
		TicketNumber:   sequence.TicketNumber(seq),
		Status:         status,
		PaymentStatus:  resolvePaymentStatus(req.PaymentStatus),
		BookingType:    bookingType(status),
		CustomerName:   req.CustomerName,
		CustomerEmail:  req.CustomerEmail,
		CustomerPhone:  req.CustomerPhone,
		TheaterName:    req.TheaterName,
		BookingDate:    req.BookingDate,
		TimeSlot:       req.TimeSlot,
		TotalAmount:    req.TotalAmount,
		AdvancePaid:    req.AdvancePaid,
		Occasion:       req.Occasion,
		Items:          req.Items,
		CreatedByStaff: req.CreatedByStaff,
		CreatedAt:      now,
		UpdatedAt:      now,
	}

	env := s.envelopeFromBooking(&booking)
	if err := s.persistNew(ctx, env, status, req.Items); err != nil {
		util.BookingsFailedTotal.WithLabelValues("db_error").Inc()
		return nil, fmt.Errorf("failed to create booking: %w", err)
	}
	booking.ID = env.ID

	if err := s.counters.Increment(ctx, status, true); err != nil {
		s.logger.Error("Failed to increment counter", zap.String("category", status), zap.Error(err))
	}
	if req.CreatedByStaff {
		if err := s.counters.Increment(ctx, models.CounterCategoryStaff, true); err != nil {
			s.logger.Error("Failed to increment staff counter", zap.Error(err))
		}
	}

	util.BookingsCreatedTotal.WithLabelValues(status).Inc()
	s.logger.Info("Booking created",
		zap.String("booking_id", booking.BookingID),
		zap.String("status", status),
		zap.Int64("seq", seq))

	event := &models.BookingCreatedEvent{
		BaseEvent: models.BaseEvent{
			EventID:   uuid.New().String(),
			EventType: models.EventTypeBookingCreated,
			Timestamp: time.Now(),
		},
		BookingID:    booking.BookingID,
		TicketNumber: booking.TicketNumber,
		Status:       status,
		TotalAmount:  booking.TotalAmount,
		Staff:        req.CreatedByStaff,
	}
	if err := s.eventPublisher.PublishBookingCreated(ctx, event); err != nil {
		s.logger.Error("Failed to publish BookingCreated event", zap.Error(err))
	}

	return &booking, nil
}

// persistNew routes the envelope and its item rows to the table the
// status belongs to. Each insert runs in one transaction, so a failure
// leaves no booking row behind.
func (s *BookingService) persistNew(ctx context.Context, env *store.Envelope, status string, items map[string][]models.ServiceItem) error {
	switch status {
	case models.StatusManual:
		return s.store.InsertManualBooking(ctx, env, items)
	case models.StatusIncomplete:
		return s.store.InsertIncomplete(ctx, env, time.Now().Add(s.cfg.IncompleteTTL), items)
	default:
		return s.store.InsertBooking(ctx, env, items)
	}
}

// UpdateBooking resolves the target through the lookup chain, merges the
// patch over the previous decompressed snapshot, and re-persists. A
// transition to completed bumps the completed counter and floors down
// the incomplete counter.
func (s *BookingService) UpdateBooking(ctx context.Context, idOrBookingID string, patch BookingPatch) (*models.Booking, error) {
	ctx, span := util.StartSpan(ctx, "BookingService.UpdateBooking")
	defer span.End()

	env, err := s.resolve(ctx, idOrBookingID, &patch)
	if err != nil {
		return nil, err
	}

	prev := s.decode(env)
	next := applyPatch(prev, patch)
	next.UpdatedAt = time.Now().In(counter.Zone)

	completed := prev.Status != models.StatusCompleted && next.Status == models.StatusCompleted
	if completed {
		now := next.UpdatedAt
		next.CompletedAt = &now
	}

	s.fillEnvelope(env, &next)
	if err := s.store.UpdateBooking(ctx, env); err != nil {
		return nil, fmt.Errorf("failed to update booking %s: %w", next.BookingID, err)
	}

	if completed {
		if err := s.counters.Increment(ctx, models.StatusCompleted, true); err != nil {
			s.logger.Error("Failed to increment completed counter", zap.Error(err))
		}
		// Models the incomplete -> confirmed -> completed funnel.
		if err := s.counters.Decrement(ctx, models.StatusIncomplete, true); err != nil {
			s.logger.Error("Failed to decrement incomplete counter", zap.Error(err))
		}
		util.BookingsCompletedTotal.Inc()
	}

	event := &models.BookingUpdatedEvent{
		BaseEvent: models.BaseEvent{
			EventID:   uuid.New().String(),
			EventType: models.EventTypeBookingUpdated,
			Timestamp: time.Now(),
		},
		BookingID:  next.BookingID,
		FromStatus: prev.Status,
		ToStatus:   next.Status,
	}
	if err := s.eventPublisher.PublishBookingUpdated(ctx, event); err != nil {
		s.logger.Error("Failed to publish BookingUpdated event", zap.Error(err))
	}

	return &next, nil
}

// CancelBooking moves the record into the cancelled archive with its
// cancellation metadata, deletes the canonical copy and its dependent
// item rows, and updates the counters. Cancelling an already-absent
// booking returns ErrBookingNotFound without touching state.
func (s *BookingService) CancelBooking(ctx context.Context, idOrBookingID, reason string) (*models.Booking, error) {
	ctx, span := util.StartSpan(ctx, "BookingService.CancelBooking")
	defer span.End()

	env, err := s.resolve(ctx, idOrBookingID, nil)
	if err != nil {
		return nil, err
	}

	booking := s.decode(env)
	prevStatus := booking.Status

	now := time.Now().In(counter.Zone)
	booking.Status = models.StatusCancelled
	booking.CancelReason = reason
	booking.CancelledAt = &now
	booking.OriginalBookingID = booking.BookingID
	booking.UpdatedAt = now

	s.fillEnvelope(env, &booking)
	if err := s.store.MoveToCancelled(ctx, env, reason, now, now.Add(s.cfg.CancelledPurgeTTL)); err != nil {
		if errors.Is(err, store.ErrBookingNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("failed to cancel booking %s: %w", booking.BookingID, err)
	}

	if err := s.counters.Increment(ctx, models.StatusCancelled, true); err != nil {
		s.logger.Error("Failed to increment cancelled counter", zap.Error(err))
	}
	if isStatusCategory(prevStatus) {
		if err := s.counters.Decrement(ctx, prevStatus, true); err != nil {
			s.logger.Error("Failed to decrement counter", zap.String("category", prevStatus), zap.Error(err))
		}
	}

	util.BookingsCancelledTotal.Inc()
	s.logger.Info("Booking cancelled",
		zap.String("booking_id", booking.BookingID),
		zap.String("reason", reason))

	event := &models.BookingCancelledEvent{
		BaseEvent: models.BaseEvent{
			EventID:   uuid.New().String(),
			EventType: models.EventTypeBookingCancelled,
			Timestamp: time.Now(),
		},
		BookingID: booking.BookingID,
		Reason:    reason,
	}
	if err := s.eventPublisher.PublishBookingCancelled(ctx, event); err != nil {
		s.logger.Error("Failed to publish BookingCancelled event", zap.Error(err))
	}

	return &booking, nil
}

// ArchiveCompleted moves a booking into the completed archive, the
// terminal-state analogue of CancelBooking.
func (s *BookingService) ArchiveCompleted(ctx context.Context, id int64) (*models.Booking, error) {
	ctx, span := util.StartSpan(ctx, "BookingService.ArchiveCompleted")
	defer span.End()

	env, err := s.store.GetByStoreID(ctx, id)
	if err != nil {
		return nil, err
	}

	booking := s.decode(env)
	prevStatus := booking.Status

	now := time.Now().In(counter.Zone)
	booking.Status = models.StatusCompleted
	booking.CompletedAt = &now
	booking.OriginalBookingID = booking.BookingID
	booking.UpdatedAt = now

	s.fillEnvelope(env, &booking)
	if err := s.store.MoveToCompleted(ctx, env, now); err != nil {
		return nil, fmt.Errorf("failed to archive booking %s: %w", booking.BookingID, err)
	}

	if err := s.counters.Increment(ctx, models.StatusCompleted, true); err != nil {
		s.logger.Error("Failed to increment completed counter", zap.Error(err))
	}
	if isStatusCategory(prevStatus) {
		if err := s.counters.Decrement(ctx, prevStatus, true); err != nil {
			s.logger.Error("Failed to decrement counter", zap.String("category", prevStatus), zap.Error(err))
		}
	}

	util.BookingsCompletedTotal.Inc()

	event := &models.BookingCompletedEvent{
		BaseEvent: models.BaseEvent{
			EventID:   uuid.New().String(),
			EventType: models.EventTypeBookingCompleted,
			Timestamp: time.Now(),
		},
		BookingID: booking.BookingID,
	}
	if err := s.eventPublisher.PublishBookingCompleted(ctx, event); err != nil {
		s.logger.Error("Failed to publish BookingCompleted event", zap.Error(err))
	}

	return &booking, nil
}

// GetBooking resolves and decodes a single booking.
func (s *BookingService) GetBooking(ctx context.Context, idOrBookingID string) (*models.Booking, error) {
	env, err := s.resolve(ctx, idOrBookingID, nil)
	if err != nil {
		return nil, err
	}
	booking := s.decode(env)
	return &booking, nil
}

// GetCounters returns every category's windows and totals.
func (s *BookingService) GetCounters(ctx context.Context) (map[string]models.CounterSnapshot, error) {
	return s.counters.Snapshot(ctx)
}

// ResetCounters zeroes all counters. Admin operation.
func (s *BookingService) ResetCounters(ctx context.Context) error {
	return s.counters.ResetAll(ctx)
}

// ListBookings fetches the five source lists concurrently and collapses
// them through the merge engine into one deduplicated, ranked view. The
// live tables are fetched without a status filter: a booking flipped to
// a terminal status in place must stay visible until it is archived.
func (s *BookingService) ListBookings(ctx context.Context) ([]models.Booking, error) {
	ctx, span := util.StartSpan(ctx, "BookingService.ListBookings")
	defer span.End()

	fetches := []func(context.Context) ([]store.Envelope, error){
		s.store.ListLive,
		s.store.ListManual,
		s.store.ListCompleted,
		s.store.ListCancelled,
		s.store.ListIncomplete,
	}

	sources := make([][]models.Booking, len(fetches))
	errs := make([]error, len(fetches))

	var wg sync.WaitGroup
	for i, fetch := range fetches {
		wg.Add(1)
		go func(i int, fetch func(context.Context) ([]store.Envelope, error)) {
			defer wg.Done()
			envs, err := fetch(ctx)
			if err != nil {
				errs[i] = err
				return
			}
			bookings := make([]models.Booking, 0, len(envs))
			for j := range envs {
				bookings = append(bookings, s.decode(&envs[j]))
			}
			sources[i] = bookings
		}(i, fetch)
	}
	wg.Wait()

	total := 0
	for i := range fetches {
		if errs[i] != nil {
			return nil, fmt.Errorf("failed to fetch booking sources: %w", errs[i])
		}
		total += len(sources[i])
	}
	util.MergeInputRecords.Observe(float64(total))

	return merge.Merge(sources...), nil
}

// resolve walks the ranked lookup chain: internal store id shape first,
// then the booking_id column, then ticket number, then a best-effort
// match on the contact details carried by the patch. First hit wins.
func (s *BookingService) resolve(ctx context.Context, idOrBookingID string, patch *BookingPatch) (*store.Envelope, error) {
	if id, convErr := strconv.ParseInt(idOrBookingID, 10, 64); convErr == nil {
		env, err := s.store.GetByStoreID(ctx, id)
		if err == nil {
			return env, nil
		}
		if !errors.Is(err, store.ErrBookingNotFound) {
			return nil, err
		}
	}

	env, err := s.store.GetByBookingID(ctx, idOrBookingID)
	if err == nil {
		return env, nil
	}
	if !errors.Is(err, store.ErrBookingNotFound) {
		return nil, err
	}

	env, err = s.store.GetByTicketNumber(ctx, idOrBookingID)
	if err == nil {
		return env, nil
	}
	if !errors.Is(err, store.ErrBookingNotFound) {
		return nil, err
	}

	if patch != nil && (patch.CustomerEmail != nil || patch.CustomerPhone != nil) {
		email, phone := "", ""
		if patch.CustomerEmail != nil {
			email = *patch.CustomerEmail
		}
		if patch.CustomerPhone != nil {
			phone = *patch.CustomerPhone
		}
		return s.store.GetByContact(ctx, email, phone)
	}

	return nil, store.ErrBookingNotFound
}

// decode decompresses an envelope's payload. On codec failure it falls
// back to the duplicated hot columns; a corrupt payload never fails a
// read. The hot-column status and store id stay authoritative either
// way.
func (s *BookingService) decode(env *store.Envelope) models.Booking {
	var booking models.Booking
	if err := codec.Decompress(env.Payload, &booking); err != nil {
		util.CodecFallbacksTotal.Inc()
		s.logger.Warn("Payload decode failed, using duplicated fields",
			zap.String("booking_id", env.BookingID),
			zap.Error(err))
		booking = bookingFromEnvelope(env)
	}
	booking.ID = env.ID
	booking.Status = env.Status
	return booking
}

// domainTotal reads the confirmed+manual totals that floor the sequence.
func (s *BookingService) domainTotal(ctx context.Context) int64 {
	confirmed, err := s.counters.Total(ctx, models.StatusConfirmed)
	if err != nil {
		s.logger.Warn("Failed to read confirmed total", zap.Error(err))
	}
	manual, err := s.counters.Total(ctx, models.StatusManual)
	if err != nil {
		s.logger.Warn("Failed to read manual total", zap.Error(err))
	}
	return confirmed + manual
}

// envelopeFromBooking builds a fresh envelope: compressed payload plus
// every duplicated hot field. A compression failure degrades to a
// hot-columns-only envelope rather than failing the write.
func (s *BookingService) envelopeFromBooking(booking *models.Booking) *store.Envelope {
	env := &store.Envelope{}
	s.fillEnvelope(env, booking)
	return env
}

// fillEnvelope syncs the duplicated hot fields and the compressed
// payload with the booking. Called on every write.
func (s *BookingService) fillEnvelope(env *store.Envelope, booking *models.Booking) {
	payload, err := codec.Compress(booking)
	if err != nil {
		util.CodecFallbacksTotal.Inc()
		s.logger.Warn("Payload compression failed, persisting hot fields only",
			zap.String("booking_id", booking.BookingID),
			zap.Error(err))
		payload = nil
	}

	env.BookingID = booking.BookingID
	env.TicketNumber = booking.TicketNumber
	env.Status = booking.Status
	env.PaymentStatus = booking.PaymentStatus
	env.BookingType = booking.BookingType
	env.CustomerName = booking.CustomerName
	env.CustomerEmail = booking.CustomerEmail
	env.CustomerPhone = booking.CustomerPhone
	env.TheaterName = booking.TheaterName
	env.BookingDate = booking.BookingDate
	env.TimeSlot = booking.TimeSlot
	env.TotalAmount = booking.TotalAmount
	env.AdvancePaid = booking.AdvancePaid
	env.Payload = payload
}

// bookingFromEnvelope rebuilds a booking from the duplicated hot fields.
// Open maps and occasion data are lost on this path; the queryable core
// survives.
func bookingFromEnvelope(env *store.Envelope) models.Booking {
	return models.Booking{
		ID:            env.ID,
		BookingID:     env.BookingID,
		TicketNumber:  env.TicketNumber,
		Status:        env.Status,
		PaymentStatus: env.PaymentStatus,
		BookingType:   env.BookingType,
		CustomerName:  env.CustomerName,
		CustomerEmail: env.CustomerEmail,
		CustomerPhone: env.CustomerPhone,
		TheaterName:   env.TheaterName,
		BookingDate:   env.BookingDate,
		TimeSlot:      env.TimeSlot,
		TotalAmount:   env.TotalAmount,
		AdvancePaid:   env.AdvancePaid,
		CreatedAt:     env.CreatedAt,
		UpdatedAt:     env.UpdatedAt,
	}
}

// resolveStatus defaults to confirmed unless the caller explicitly asks
// for a manual, pending, or incomplete booking.
func resolveStatus(requested string) (string, error) {
	switch requested {
	case "":
		return models.StatusConfirmed, nil
	case models.StatusConfirmed, models.StatusManual, models.StatusPending, models.StatusIncomplete:
		return requested, nil
	default:
		return "", fmt.Errorf("invalid booking status %q", requested)
	}
}

func resolvePaymentStatus(requested string) string {
	switch requested {
	case models.PaymentPartial, models.PaymentPaid:
		return requested
	default:
		return models.PaymentUnpaid
	}
}

// isStatusCategory reports whether a status has a matching counter
// category.
func isStatusCategory(status string) bool {
	switch status {
	case models.StatusConfirmed, models.StatusManual, models.StatusPending,
		models.StatusCompleted, models.StatusCancelled, models.StatusIncomplete:
		return true
	}
	return false
}

func bookingType(status string) string {
	if status == models.StatusManual {
		return models.BookingTypeManual
	}
	return models.BookingTypeOnline
}
