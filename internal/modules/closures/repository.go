package closures

import (
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-sql/civil"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// Repository handles the adhoc_closures table
type Repository struct {
	db  *sql.DB
	log zerolog.Logger
}

// NewRepository creates a new closures repository
func NewRepository(db *sql.DB, log zerolog.Logger) *Repository {
	return &Repository{
		db:  db,
		log: log.With().Str("repository", "closures").Logger(),
	}
}

// Create inserts c, assigning an ID and creation time when missing
func (r *Repository) Create(c *Closure) error {
	if c.ID == "" {
		c.ID = uuid.NewString()
	}
	if c.CreatedAt.IsZero() {
		c.CreatedAt = time.Now().UTC().Truncate(time.Second)
	}

	_, err := r.db.Exec(`
		INSERT INTO adhoc_closures (id, exchange, date, kind, time, reason, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`, c.ID, c.Exchange, c.Date.String(), string(c.Kind), c.Time, c.Reason, c.CreatedAt.Unix())
	if err != nil {
		if strings.Contains(err.Error(), "UNIQUE constraint failed") {
			return fmt.Errorf("%w: %s %s on %s", ErrDuplicate, c.Exchange, c.Kind, c.Date)
		}
		return fmt.Errorf("failed to insert closure: %w", err)
	}

	r.log.Info().
		Str("id", c.ID).
		Str("exchange", c.Exchange).
		Str("date", c.Date.String()).
		Str("kind", string(c.Kind)).
		Msg("Ad hoc closure created")
	return nil
}

// Get returns the closure with id
func (r *Repository) Get(id string) (*Closure, error) {
	row := r.db.QueryRow(`
		SELECT id, exchange, date, kind, time, reason, created_at
		FROM adhoc_closures WHERE id = ?
	`, id)

	c, err := scanClosure(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get closure %s: %w", id, err)
	}
	return c, nil
}

// List returns the closures of exchange ordered by date, or of every
// exchange when exchange is empty.
func (r *Repository) List(exchange string) ([]Closure, error) {
	query := `
		SELECT id, exchange, date, kind, time, reason, created_at
		FROM adhoc_closures`
	var args []interface{}
	if exchange != "" {
		query += " WHERE exchange = ?"
		args = append(args, exchange)
	}
	query += " ORDER BY exchange, date, kind"

	rows, err := r.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list closures: %w", err)
	}
	defer rows.Close()

	result := make([]Closure, 0)
	for rows.Next() {
		c, err := scanClosure(rows)
		if err != nil {
			r.log.Warn().Err(err).Msg("Failed to scan closure row")
			continue
		}
		result = append(result, *c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate closures: %w", err)
	}
	return result, nil
}

// Delete removes the closure with id
func (r *Repository) Delete(id string) error {
	res, err := r.db.Exec("DELETE FROM adhoc_closures WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("failed to delete closure %s: %w", id, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to delete closure %s: %w", id, err)
	}
	if n == 0 {
		return fmt.Errorf("%w: %s", ErrNotFound, id)
	}

	r.log.Info().Str("id", id).Msg("Ad hoc closure deleted")
	return nil
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanClosure(row rowScanner) (*Closure, error) {
	var (
		c         Closure
		date      string
		kind      string
		createdAt int64
	)
	if err := row.Scan(&c.ID, &c.Exchange, &date, &kind, &c.Time, &c.Reason, &createdAt); err != nil {
		return nil, err
	}
	d, err := civil.ParseDate(date)
	if err != nil {
		return nil, fmt.Errorf("closure %s has invalid date %q: %w", c.ID, date, err)
	}
	c.Date = d
	c.Kind = Kind(kind)
	c.CreatedAt = time.Unix(createdAt, 0).UTC()
	return &c, nil
}
