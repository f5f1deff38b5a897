package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/topclass/bookingguard/internal/catalog"
	"github.com/topclass/bookingguard/internal/database"
	"github.com/topclass/bookingguard/internal/metrics"
	"github.com/topclass/bookingguard/internal/models"
)

// uniqueViolation is the PostgreSQL error code for duplicate keys.
const uniqueViolation = "23505"

const bookingColumns = `id, package_id, package_name, tier, category, contact, property,
	add_on_ids, add_ons_total, extras, extras_total, total_price,
	booking_date, time_slot, payment_type, status, created_at, updated_at`

// PostgresBookingRepository implements BookingRepository using PostgreSQL.
// Contact, property, add-ons and extras are stored as JSONB.
type PostgresBookingRepository struct {
	pool *database.Pool
}

// NewPostgresBookingRepository creates a new PostgreSQL-backed repository.
func NewPostgresBookingRepository(pool *database.Pool) *PostgresBookingRepository {
	return &PostgresBookingRepository{pool: pool}
}

// execer is satisfied by the pool and by a transaction.
type execer interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
}

// Create stores a new booking.
func (r *PostgresBookingRepository) Create(ctx context.Context, b *models.Booking) error {
	defer observe("create_booking", time.Now())
	return insertBooking(ctx, r.pool, b)
}

// CreateIfSlotAvailable stores b unless its slot already holds maxPerSlot
// non-cancelled bookings. Inserts into the same slot are serialized with a
// transaction-scoped advisory lock keyed on date and slot.
func (r *PostgresBookingRepository) CreateIfSlotAvailable(ctx context.Context, b *models.Booking, maxPerSlot int) error {
	defer observe("create_booking_in_slot", time.Now())

	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	if _, err := tx.Exec(ctx, `SELECT pg_advisory_xact_lock(hashtext($1))`, b.Date+"|"+b.TimeSlot); err != nil {
		return fmt.Errorf("failed to lock slot: %w", err)
	}

	var taken int
	err = tx.QueryRow(ctx, `
		SELECT COUNT(*) FROM bookings
		WHERE booking_date = $1 AND time_slot = $2 AND status <> $3`,
		b.Date, b.TimeSlot, string(models.StatusCancelled),
	).Scan(&taken)
	if err != nil {
		return fmt.Errorf("failed to count slot bookings: %w", err)
	}
	if taken >= maxPerSlot {
		return models.ErrSlotFull
	}

	if err := insertBooking(ctx, tx, b); err != nil {
		return err
	}
	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit booking: %w", err)
	}
	return nil
}

func insertBooking(ctx context.Context, db execer, b *models.Booking) error {
	contact, err := json.Marshal(b.Contact)
	if err != nil {
		return fmt.Errorf("failed to encode contact: %w", err)
	}
	property, err := json.Marshal(b.Property)
	if err != nil {
		return fmt.Errorf("failed to encode property: %w", err)
	}
	addOns, err := json.Marshal(nonNil(b.AddOnIDs))
	if err != nil {
		return fmt.Errorf("failed to encode add-ons: %w", err)
	}
	extras, err := json.Marshal(b.Extras)
	if err != nil {
		return fmt.Errorf("failed to encode extras: %w", err)
	}

	_, err = db.Exec(ctx, `
		INSERT INTO bookings (`+bookingColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18)`,
		b.ID, b.PackageID, b.PackageName, string(b.Tier), string(b.Category), contact, property,
		addOns, b.AddOnsTotal, extras, b.ExtrasTotal, b.TotalPrice,
		b.Date, b.TimeSlot, string(b.PaymentType), string(b.Status), b.CreatedAt, b.UpdatedAt,
	)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
			return ErrDuplicateBooking
		}
		return fmt.Errorf("failed to create booking: %w", err)
	}
	return nil
}

// GetByID retrieves a booking.
func (r *PostgresBookingRepository) GetByID(ctx context.Context, id string) (*models.Booking, error) {
	defer observe("get_booking", time.Now())

	row := r.pool.QueryRow(ctx, `SELECT `+bookingColumns+` FROM bookings WHERE id = $1`, id)
	b, err := scanBooking(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, models.ErrBookingNotFound
		}
		return nil, fmt.Errorf("failed to get booking: %w", err)
	}
	return b, nil
}

// Exists reports whether a booking ID is taken.
func (r *PostgresBookingRepository) Exists(ctx context.Context, id string) (bool, error) {
	var exists bool
	err := r.pool.QueryRow(ctx, `SELECT EXISTS(SELECT 1 FROM bookings WHERE id = $1)`, id).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("failed to check existence: %w", err)
	}
	return exists, nil
}

// List returns one page of matching bookings, newest first.
func (r *PostgresBookingRepository) List(ctx context.Context, filter models.BookingFilter, page models.Page) ([]*models.Booking, int, error) {
	defer observe("list_bookings", time.Now())

	page = page.Normalize()
	where, args := filterClause(filter)

	var total int
	if err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM bookings`+where, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("failed to count bookings: %w", err)
	}

	n := len(args)
	query := `SELECT ` + bookingColumns + ` FROM bookings` + where +
		` ORDER BY created_at DESC, id DESC LIMIT $` + strconv.Itoa(n+1) + ` OFFSET $` + strconv.Itoa(n+2)
	rows, err := r.pool.Query(ctx, query, append(args, page.Limit, page.Offset())...)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list bookings: %w", err)
	}
	defer rows.Close()

	bookings := make([]*models.Booking, 0, page.Limit)
	for rows.Next() {
		b, err := scanBooking(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("failed to scan booking: %w", err)
		}
		bookings = append(bookings, b)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("failed to list bookings: %w", err)
	}

	return bookings, total, nil
}

// filterClause builds a WHERE clause and its arguments.
func filterClause(f models.BookingFilter) (string, []any) {
	var conds []string
	var args []any
	add := func(cond string, arg any) {
		args = append(args, arg)
		conds = append(conds, strings.ReplaceAll(cond, "?", "$"+strconv.Itoa(len(args))))
	}

	if f.Status != "" {
		add("status = ?", string(f.Status))
	}
	if f.Tier != "" {
		add("tier = ?", string(f.Tier))
	}
	if f.Date != "" {
		add("booking_date = ?", f.Date)
	}
	if f.Search != "" {
		add(`(id ILIKE ? OR package_name ILIKE ?
			OR contact->>'first_name' ILIKE ? OR contact->>'last_name' ILIKE ?
			OR contact->>'email' ILIKE ? OR contact->>'phone' ILIKE ?
			OR contact->>'city' ILIKE ?)`, "%"+escapeLike(f.Search)+"%")
	}

	if len(conds) == 0 {
		return "", nil
	}
	return " WHERE " + strings.Join(conds, " AND "), args
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

func escapeLike(s string) string {
	return likeEscaper.Replace(s)
}

// UpdateStatus moves a booking from one status to another.
func (r *PostgresBookingRepository) UpdateStatus(ctx context.Context, id string, from, to models.Status, at time.Time) (*models.Booking, error) {
	defer observe("update_booking_status", time.Now())

	row := r.pool.QueryRow(ctx, `
		UPDATE bookings SET status = $3, updated_at = $4
		WHERE id = $1 AND status = $2
		RETURNING `+bookingColumns,
		id, string(from), string(to), at,
	)
	b, err := scanBooking(row)
	if err == nil {
		return b, nil
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("failed to update booking status: %w", err)
	}

	exists, err := r.Exists(ctx, id)
	if err != nil {
		return nil, err
	}
	if !exists {
		return nil, models.ErrBookingNotFound
	}
	return nil, ErrStatusConflict
}

// CountBySlot returns non-cancelled bookings per slot on date.
func (r *PostgresBookingRepository) CountBySlot(ctx context.Context, date string) (map[string]int, error) {
	defer observe("count_by_slot", time.Now())

	rows, err := r.pool.Query(ctx, `
		SELECT time_slot, COUNT(*) FROM bookings
		WHERE booking_date = $1 AND status <> $2
		GROUP BY time_slot`,
		date, string(models.StatusCancelled),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to count bookings: %w", err)
	}
	defer rows.Close()

	counts := make(map[string]int)
	for rows.Next() {
		var slot string
		var n int
		if err := rows.Scan(&slot, &n); err != nil {
			return nil, fmt.Errorf("failed to scan slot count: %w", err)
		}
		counts[slot] = n
	}
	return counts, rows.Err()
}

// HealthCheck verifies the database connection is healthy.
func (r *PostgresBookingRepository) HealthCheck(ctx context.Context) error {
	return r.pool.HealthCheck(ctx)
}

func scanBooking(row pgx.Row) (*models.Booking, error) {
	var b models.Booking
	var tier, category, payment, status string
	var contact, property, addOns, extras []byte
	err := row.Scan(
		&b.ID, &b.PackageID, &b.PackageName, &tier, &category, &contact, &property,
		&addOns, &b.AddOnsTotal, &extras, &b.ExtrasTotal, &b.TotalPrice,
		&b.Date, &b.TimeSlot, &payment, &status, &b.CreatedAt, &b.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	b.Tier = catalog.Tier(tier)
	b.Category = catalog.Category(category)
	b.PaymentType = models.PaymentType(payment)
	b.Status = models.Status(status)

	if err := json.Unmarshal(contact, &b.Contact); err != nil {
		return nil, fmt.Errorf("decode contact: %w", err)
	}
	if err := json.Unmarshal(property, &b.Property); err != nil {
		return nil, fmt.Errorf("decode property: %w", err)
	}
	if err := json.Unmarshal(addOns, &b.AddOnIDs); err != nil {
		return nil, fmt.Errorf("decode add-ons: %w", err)
	}
	if err := json.Unmarshal(extras, &b.Extras); err != nil {
		return nil, fmt.Errorf("decode extras: %w", err)
	}
	return &b, nil
}

func nonNil(ids []string) []string {
	if ids == nil {
		return []string{}
	}
	return ids
}

func observe(operation string, start time.Time) {
	metrics.RecordDBQuery(operation, time.Since(start))
}
