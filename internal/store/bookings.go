package store

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"booking-service/internal/models"

	"github.com/jmoiron/sqlx"
)

// Table names. bookings is the canonical live store; manual_bookings is
// the manual-entry satellite; the rest are archives and the incomplete
// holding area.
const (
	TableBookings   = "bookings"
	TableManual     = "manual_bookings"
	TableCancelled  = "cancelled_bookings"
	TableCompleted  = "completed_bookings"
	TableIncomplete = "incomplete_bookings"
)

// liveTables are searched, in order, by the lookup chain.
var liveTables = []string{TableBookings, TableManual}

// Envelope is the persisted shape of a booking: the zstd-compressed JSON
// payload plus duplicated hot columns for everything that must be
// queryable without decompression. Hot columns are rewritten on every
// write so a reader can fall back to them when the payload won't decode.
type Envelope struct {
	ID            int64     `db:"id"`
	BookingID     string    `db:"booking_id"`
	TicketNumber  string    `db:"ticket_number"`
	Status        string    `db:"status"`
	PaymentStatus string    `db:"payment_status"`
	BookingType   string    `db:"booking_type"`
	CustomerName  string    `db:"customer_name"`
	CustomerEmail string    `db:"customer_email"`
	CustomerPhone string    `db:"customer_phone"`
	TheaterName   string    `db:"theater_name"`
	BookingDate   string    `db:"booking_date"`
	TimeSlot      string    `db:"time_slot"`
	TotalAmount   int64     `db:"total_amount"`
	AdvancePaid   int64     `db:"advance_paid"`
	Payload       []byte    `db:"payload"`
	CreatedAt     time.Time `db:"created_at"`
	UpdatedAt     time.Time `db:"updated_at"`

	// Source is the table the envelope was read from, filled in by
	// lookups so updates and moves target the right table.
	Source string `db:"-"`
}

const envelopeColumns = `id, booking_id, ticket_number, status, payment_status, booking_type,
	customer_name, customer_email, customer_phone, theater_name, booking_date, time_slot,
	total_amount, advance_paid, payload, created_at, updated_at`

const envelopeInsertColumns = `booking_id, ticket_number, status, payment_status, booking_type,
	customer_name, customer_email, customer_phone, theater_name, booking_date, time_slot,
	total_amount, advance_paid, payload`

func envelopeArgs(env *Envelope) []any {
	return []any{
		env.BookingID, env.TicketNumber, env.Status, env.PaymentStatus, env.BookingType,
		env.CustomerName, env.CustomerEmail, env.CustomerPhone, env.TheaterName,
		env.BookingDate, env.TimeSlot, env.TotalAmount, env.AdvancePaid, env.Payload,
	}
}

// InsertBooking inserts a new envelope and its dependent item rows into
// the canonical store in one transaction.
func (s *Store) InsertBooking(ctx context.Context, env *Envelope, items map[string][]models.ServiceItem) error {
	return s.insert(ctx, TableBookings, env, items)
}

// InsertManualBooking inserts a new envelope and its dependent item rows
// into the manual-entry store in one transaction.
func (s *Store) InsertManualBooking(ctx context.Context, env *Envelope, items map[string][]models.ServiceItem) error {
	return s.insert(ctx, TableManual, env, items)
}

func (s *Store) insert(ctx context.Context, table string, env *Envelope, items map[string][]models.ServiceItem) error {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	query := fmt.Sprintf(`
		INSERT INTO %s (%s)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)
		RETURNING id, created_at, updated_at`, table, envelopeInsertColumns)

	row := tx.QueryRowxContext(ctx, query, envelopeArgs(env)...)
	if err := row.Scan(&env.ID, &env.CreatedAt, &env.UpdatedAt); err != nil {
		return fmt.Errorf("failed to insert into %s: %w", table, err)
	}
	env.Source = table

	if err := insertItemsTx(ctx, tx, env, items); err != nil {
		return err
	}
	return tx.Commit()
}

// InsertIncomplete inserts an abandoned-checkout envelope and its item
// rows into the holding area with its expiry stamp, in one transaction.
func (s *Store) InsertIncomplete(ctx context.Context, env *Envelope, expiresAt time.Time, items map[string][]models.ServiceItem) error {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	query := fmt.Sprintf(`
		INSERT INTO %s (%s, expires_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15)
		RETURNING id, created_at, updated_at`, TableIncomplete, envelopeInsertColumns)

	args := append(envelopeArgs(env), expiresAt)
	row := tx.QueryRowxContext(ctx, query, args...)
	if err := row.Scan(&env.ID, &env.CreatedAt, &env.UpdatedAt); err != nil {
		return fmt.Errorf("failed to insert incomplete booking: %w", err)
	}
	env.Source = TableIncomplete

	if err := insertItemsTx(ctx, tx, env, items); err != nil {
		return err
	}
	return tx.Commit()
}

// GetByStoreID looks up a live booking by internal store id.
func (s *Store) GetByStoreID(ctx context.Context, id int64) (*Envelope, error) {
	return s.getLiveBy(ctx, "id", id)
}

// GetByBookingID looks up a live booking by its human-readable booking id.
func (s *Store) GetByBookingID(ctx context.Context, bookingID string) (*Envelope, error) {
	return s.getLiveBy(ctx, "booking_id", bookingID)
}

// GetByTicketNumber looks up a live booking by ticket number.
func (s *Store) GetByTicketNumber(ctx context.Context, ticketNumber string) (*Envelope, error) {
	return s.getLiveBy(ctx, "ticket_number", ticketNumber)
}

// GetByContact looks up the most recently touched live booking matching a
// customer email or phone. Last rung of the lookup chain.
func (s *Store) GetByContact(ctx context.Context, email, phone string) (*Envelope, error) {
	where, args := contactPredicate(email, phone)
	if where == "" {
		return nil, ErrBookingNotFound
	}

	for _, table := range liveTables {
		query := fmt.Sprintf(`
			SELECT %s FROM %s
			WHERE %s
			ORDER BY updated_at DESC LIMIT 1`, envelopeColumns, table, where)

		var env Envelope
		err := s.db.GetContext(ctx, &env, query, args...)
		if err == sql.ErrNoRows {
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("failed to query %s by contact: %w", table, err)
		}
		env.Source = table
		return &env, nil
	}
	return nil, ErrBookingNotFound
}

// contactPredicate builds the lookup predicate from the non-empty
// contact terms only. An absent phone must never match rows whose phone
// column is simply empty, so empty terms are dropped, not compared.
func contactPredicate(email, phone string) (string, []any) {
	var clauses []string
	var args []any
	if email != "" {
		args = append(args, email)
		clauses = append(clauses, fmt.Sprintf("customer_email = $%d", len(args)))
	}
	if phone != "" {
		args = append(args, phone)
		clauses = append(clauses, fmt.Sprintf("customer_phone = $%d", len(args)))
	}
	return strings.Join(clauses, " OR "), args
}

func (s *Store) getLiveBy(ctx context.Context, column string, value any) (*Envelope, error) {
	for _, table := range liveTables {
		query := fmt.Sprintf("SELECT %s FROM %s WHERE %s = $1", envelopeColumns, table, column)

		var env Envelope
		err := s.db.GetContext(ctx, &env, query, value)
		if err == sql.ErrNoRows {
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("failed to query %s by %s: %w", table, column, err)
		}
		env.Source = table
		return &env, nil
	}
	return nil, ErrBookingNotFound
}

// UpdateBooking rewrites an envelope in place: payload and every hot
// column, in the table the envelope was read from.
func (s *Store) UpdateBooking(ctx context.Context, env *Envelope) error {
	if env.Source == "" {
		return fmt.Errorf("envelope has no source table")
	}

	query := fmt.Sprintf(`
		UPDATE %s SET
			booking_id = $1, ticket_number = $2, status = $3, payment_status = $4,
			booking_type = $5, customer_name = $6, customer_email = $7, customer_phone = $8,
			theater_name = $9, booking_date = $10, time_slot = $11, total_amount = $12,
			advance_paid = $13, payload = $14, updated_at = NOW()
		WHERE id = $15`, env.Source)

	args := append(envelopeArgs(env), env.ID)
	result, err := s.db.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("failed to update %s: %w", env.Source, err)
	}
	if rows, _ := result.RowsAffected(); rows == 0 {
		return ErrBookingNotFound
	}
	return nil
}

// MoveToCancelled copies a live envelope into the cancelled archive with
// its cancellation metadata, then deletes the live row and its dependent
// item rows. The whole move runs in one transaction: the booking is in
// exactly one of the two tables afterwards, never both.
func (s *Store) MoveToCancelled(ctx context.Context, env *Envelope, reason string, cancelledAt, purgeAfter time.Time) error {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	query := fmt.Sprintf(`
		INSERT INTO %s (%s, original_booking_id, cancel_reason, cancelled_at, purge_after)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18)`,
		TableCancelled, envelopeInsertColumns)

	args := append(envelopeArgs(env), env.BookingID, reason, cancelledAt, purgeAfter)
	if _, err := tx.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("failed to archive cancelled booking: %w", err)
	}

	if err := s.deleteLiveTx(ctx, tx, env); err != nil {
		return err
	}
	return tx.Commit()
}

// MoveToCompleted copies a live envelope into the completed archive and
// deletes the live row, same transactional contract as MoveToCancelled.
func (s *Store) MoveToCompleted(ctx context.Context, env *Envelope, completedAt time.Time) error {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	query := fmt.Sprintf(`
		INSERT INTO %s (%s, original_booking_id, completed_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16)`,
		TableCompleted, envelopeInsertColumns)

	args := append(envelopeArgs(env), env.BookingID, completedAt)
	if _, err := tx.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("failed to archive completed booking: %w", err)
	}

	if err := s.deleteLiveTx(ctx, tx, env); err != nil {
		return err
	}
	return tx.Commit()
}

// deleteLiveTx removes the live row and cascades to dependent item rows.
func (s *Store) deleteLiveTx(ctx context.Context, tx *sqlx.Tx, env *Envelope) error {
	result, err := tx.ExecContext(ctx,
		fmt.Sprintf("DELETE FROM %s WHERE id = $1", env.Source), env.ID)
	if err != nil {
		return fmt.Errorf("failed to delete from %s: %w", env.Source, err)
	}
	if rows, _ := result.RowsAffected(); rows == 0 {
		return ErrBookingNotFound
	}

	if _, err := tx.ExecContext(ctx,
		"DELETE FROM booking_items WHERE booking_ref = $1 AND source_table = $2",
		env.ID, env.Source); err != nil {
		return fmt.Errorf("failed to cascade delete booking items: %w", err)
	}
	return nil
}

// itemsInsertQuery builds one multi-row insert for a booking's dependent
// item rows. Empty input yields an empty query.
func itemsInsertQuery(env *Envelope, items map[string][]models.ServiceItem) (string, []any) {
	var rows []string
	var args []any
	for listName, list := range items {
		for _, item := range list {
			n := len(args)
			rows = append(rows, fmt.Sprintf("($%d, $%d, $%d, $%d, $%d, $%d, $%d)",
				n+1, n+2, n+3, n+4, n+5, n+6, n+7))
			args = append(args, env.ID, env.Source, listName, item.ID, item.Name, item.Price, item.Quantity)
		}
	}
	if len(rows) == 0 {
		return "", nil
	}
	query := "INSERT INTO booking_items (booking_ref, source_table, list_name, item_id, name, price, quantity) VALUES " +
		strings.Join(rows, ", ")
	return query, args
}

func insertItemsTx(ctx context.Context, tx *sqlx.Tx, env *Envelope, items map[string][]models.ServiceItem) error {
	query, args := itemsInsertQuery(env, items)
	if query == "" {
		return nil
	}
	if _, err := tx.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("failed to insert booking items: %w", err)
	}
	return nil
}

// ListLive lists every canonical-store envelope regardless of status, so
// in-place status transitions stay visible to the merged view.
func (s *Store) ListLive(ctx context.Context) ([]Envelope, error) {
	return s.list(ctx, TableBookings,
		fmt.Sprintf("SELECT %s FROM %s ORDER BY created_at DESC", envelopeColumns, TableBookings))
}

// ListManual lists the manual-entry store.
func (s *Store) ListManual(ctx context.Context) ([]Envelope, error) {
	return s.list(ctx, TableManual,
		fmt.Sprintf("SELECT %s FROM %s ORDER BY created_at DESC", envelopeColumns, TableManual))
}

// ListCancelled lists the cancelled archive.
func (s *Store) ListCancelled(ctx context.Context) ([]Envelope, error) {
	return s.list(ctx, TableCancelled,
		fmt.Sprintf("SELECT %s FROM %s ORDER BY created_at DESC", envelopeColumns, TableCancelled))
}

// ListCompleted lists the completed archive.
func (s *Store) ListCompleted(ctx context.Context) ([]Envelope, error) {
	return s.list(ctx, TableCompleted,
		fmt.Sprintf("SELECT %s FROM %s ORDER BY created_at DESC", envelopeColumns, TableCompleted))
}

// ListIncomplete lists the incomplete holding area.
func (s *Store) ListIncomplete(ctx context.Context) ([]Envelope, error) {
	return s.list(ctx, TableIncomplete,
		fmt.Sprintf("SELECT %s FROM %s ORDER BY created_at DESC", envelopeColumns, TableIncomplete))
}

func (s *Store) list(ctx context.Context, table, query string, args ...any) ([]Envelope, error) {
	var envs []Envelope
	if err := s.db.SelectContext(ctx, &envs, query, args...); err != nil {
		return nil, fmt.Errorf("failed to list %s: %w", table, err)
	}
	for i := range envs {
		envs[i].Source = table
	}
	return envs, nil
}

// CountLive returns the raw document count across the live tables. Used
// by the sequence generator's fallback ladder.
func (s *Store) CountLive(ctx context.Context) (int64, error) {
	var count int64
	err := s.db.GetContext(ctx, &count, fmt.Sprintf(
		"SELECT (SELECT COUNT(*) FROM %s) + (SELECT COUNT(*) FROM %s)",
		TableBookings, TableManual))
	return count, err
}

// DeleteExpiredIncomplete bulk-deletes holding-area rows past their
// expiry and returns how many were removed.
func (s *Store) DeleteExpiredIncomplete(ctx context.Context, now time.Time) (int64, error) {
	result, err := s.db.ExecContext(ctx,
		fmt.Sprintf("DELETE FROM %s WHERE expires_at <= $1", TableIncomplete), now)
	if err != nil {
		return 0, fmt.Errorf("failed to sweep incomplete bookings: %w", err)
	}
	return result.RowsAffected()
}

// PurgeCancelled bulk-deletes cancelled-archive rows past their purge
// window and returns how many were removed.
func (s *Store) PurgeCancelled(ctx context.Context, now time.Time) (int64, error) {
	result, err := s.db.ExecContext(ctx,
		fmt.Sprintf("DELETE FROM %s WHERE purge_after <= $1", TableCancelled), now)
	if err != nil {
		return 0, fmt.Errorf("failed to purge cancelled bookings: %w", err)
	}
	return result.RowsAffected()
}
