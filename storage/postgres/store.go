package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	_ "github.com/lib/pq"

	"github.com/joanvup/rifa-app/raffle"
	"github.com/joanvup/rifa-app/storage"
)

// Store implements the storage interfaces backed by PostgreSQL.
type Store struct {
	db       *sql.DB
	defaults raffle.Settings
}

var _ storage.Store = (*Store)(nil)

// New creates a Store using the provided database handle. The defaults
// seed the raffle_settings singleton on first access.
func New(db *sql.DB, defaults raffle.Settings) *Store {
	return &Store{db: db, defaults: defaults}
}

// Open connects to PostgreSQL and verifies the connection.
func Open(ctx context.Context, dsn string, defaults raffle.Settings) (*Store, error) {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("open postgres: %w", err)
	}
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping postgres: %w", err)
	}
	return New(db, defaults), nil
}

// DB exposes the underlying handle for migrations.
func (s *Store) DB() *sql.DB {
	return s.db
}

// Close releases the database handle.
func (s *Store) Close() error {
	return s.db.Close()
}

// --- BookStore --------------------------------------------------------------

// CreateBook inserts the book and its 100 tickets in a single transaction.
func (s *Store) CreateBook(ctx context.Context, name string) (raffle.Book, error) {
	const op = "postgres.CreateBook"

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return raffle.Book{}, fmt.Errorf("%s: begin: %w", op, err)
	}
	defer tx.Rollback()

	var book raffle.Book
	book.Name = name
	err = tx.QueryRowContext(ctx, `
		INSERT INTO books (name) VALUES ($1) RETURNING id
	`, name).Scan(&book.ID)
	if err != nil {
		return raffle.Book{}, fmt.Errorf("%s: insert book: %w", op, err)
	}

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO tickets (book_id, number, state) VALUES ($1, $2, $3)
	`)
	if err != nil {
		return raffle.Book{}, fmt.Errorf("%s: prepare tickets: %w", op, err)
	}
	defer stmt.Close()

	for _, t := range raffle.NewTickets(book.ID) {
		if _, err := stmt.ExecContext(ctx, t.BookID, t.Number, t.State); err != nil {
			return raffle.Book{}, fmt.Errorf("%s: insert ticket %02d: %w", op, t.Number, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return raffle.Book{}, fmt.Errorf("%s: commit: %w", op, err)
	}
	return book, nil
}

func (s *Store) GetBook(ctx context.Context, id int64) (raffle.Book, error) {
	const op = "postgres.GetBook"

	var book raffle.Book
	err := s.db.QueryRowContext(ctx, `
		SELECT id, name FROM books WHERE id = $1
	`, id).Scan(&book.ID, &book.Name)
	if errors.Is(err, sql.ErrNoRows) {
		return raffle.Book{}, storage.ErrNotFound
	}
	if err != nil {
		return raffle.Book{}, fmt.Errorf("%s: %w", op, err)
	}
	return book, nil
}

func (s *Store) ListBooks(ctx context.Context) ([]raffle.Book, error) {
	const op = "postgres.ListBooks"

	rows, err := s.db.QueryContext(ctx, `
		SELECT id, name FROM books ORDER BY id
	`)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	defer rows.Close()

	var books []raffle.Book
	for rows.Next() {
		var book raffle.Book
		if err := rows.Scan(&book.ID, &book.Name); err != nil {
			return nil, fmt.Errorf("%s: scan: %w", op, err)
		}
		books = append(books, book)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%s: rows: %w", op, err)
	}
	return books, nil
}

// --- TicketStore ------------------------------------------------------------

func (s *Store) GetTicket(ctx context.Context, id int64) (raffle.Ticket, error) {
	const op = "postgres.GetTicket"

	var (
		t        raffle.Ticket
		assignee sql.NullString
	)
	err := s.db.QueryRowContext(ctx, `
		SELECT id, book_id, number, state, assignee
		FROM tickets WHERE id = $1
	`, id).Scan(&t.ID, &t.BookID, &t.Number, &t.State, &assignee)
	if errors.Is(err, sql.ErrNoRows) {
		return raffle.Ticket{}, storage.ErrNotFound
	}
	if err != nil {
		return raffle.Ticket{}, fmt.Errorf("%s: %w", op, err)
	}
	t.Assignee = assignee.String
	return t, nil
}

func (s *Store) ListTickets(ctx context.Context, bookID int64) ([]raffle.Ticket, error) {
	const op = "postgres.ListTickets"

	rows, err := s.db.QueryContext(ctx, `
		SELECT id, book_id, number, state, assignee
		FROM tickets WHERE book_id = $1 ORDER BY number
	`, bookID)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	defer rows.Close()

	var tickets []raffle.Ticket
	for rows.Next() {
		var (
			t        raffle.Ticket
			assignee sql.NullString
		)
		if err := rows.Scan(&t.ID, &t.BookID, &t.Number, &t.State, &assignee); err != nil {
			return nil, fmt.Errorf("%s: scan: %w", op, err)
		}
		t.Assignee = assignee.String
		tickets = append(tickets, t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%s: rows: %w", op, err)
	}
	return tickets, nil
}

func (s *Store) UpdateTicket(ctx context.Context, t raffle.Ticket) (raffle.Ticket, error) {
	const op = "postgres.UpdateTicket"

	var assignee interface{}
	if t.Assignee != "" {
		assignee = t.Assignee
	}

	result, err := s.db.ExecContext(ctx, `
		UPDATE tickets SET state = $2, assignee = $3 WHERE id = $1
	`, t.ID, t.State, assignee)
	if err != nil {
		return raffle.Ticket{}, fmt.Errorf("%s: %w", op, err)
	}
	if rows, _ := result.RowsAffected(); rows == 0 {
		return raffle.Ticket{}, storage.ErrNotFound
	}
	return t, nil
}

// --- SettingsStore ----------------------------------------------------------

func (s *Store) GetSettings(ctx context.Context) (raffle.Settings, error) {
	const op = "postgres.GetSettings"

	var settings raffle.Settings
	err := s.db.QueryRowContext(ctx, `
		SELECT ticket_price, first_percent, middle_percent, last_percent
		FROM raffle_settings WHERE id = 1
	`).Scan(&settings.TicketPrice, &settings.FirstPercent,
		&settings.MiddlePercent, &settings.LastPercent)
	if errors.Is(err, sql.ErrNoRows) {
		return s.seedSettings(ctx)
	}
	if err != nil {
		return raffle.Settings{}, fmt.Errorf("%s: %w", op, err)
	}
	return settings, nil
}

// seedSettings inserts the defaults on first access. A concurrent seeder
// may win the insert; the conflict clause makes that harmless.
func (s *Store) seedSettings(ctx context.Context) (raffle.Settings, error) {
	const op = "postgres.seedSettings"

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO raffle_settings (id, ticket_price, first_percent, middle_percent, last_percent)
		VALUES (1, $1, $2, $3, $4)
		ON CONFLICT (id) DO NOTHING
	`, s.defaults.TicketPrice, s.defaults.FirstPercent,
		s.defaults.MiddlePercent, s.defaults.LastPercent)
	if err != nil {
		return raffle.Settings{}, fmt.Errorf("%s: %w", op, err)
	}
	return s.defaults, nil
}

func (s *Store) UpdateSettings(ctx context.Context, settings raffle.Settings) (raffle.Settings, error) {
	const op = "postgres.UpdateSettings"

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO raffle_settings (id, ticket_price, first_percent, middle_percent, last_percent)
		VALUES (1, $1, $2, $3, $4)
		ON CONFLICT (id) DO UPDATE SET
			ticket_price   = EXCLUDED.ticket_price,
			first_percent  = EXCLUDED.first_percent,
			middle_percent = EXCLUDED.middle_percent,
			last_percent   = EXCLUDED.last_percent
	`, settings.TicketPrice, settings.FirstPercent,
		settings.MiddlePercent, settings.LastPercent)
	if err != nil {
		return raffle.Settings{}, fmt.Errorf("%s: %w", op, err)
	}
	return settings, nil
}

// --- DrawStore --------------------------------------------------------------

func (s *Store) CreateDraw(ctx context.Context, d raffle.Draw) (raffle.Draw, error) {
	const op = "postgres.CreateDraw"

	if d.DrawnAt.IsZero() {
		d.DrawnAt = time.Now().UTC()
	}
	err := s.db.QueryRowContext(ctx, `
		INSERT INTO draws (book_id, winning_number, drawn_at)
		VALUES ($1, $2, $3) RETURNING id
	`, d.BookID, d.WinningNumber, d.DrawnAt).Scan(&d.ID)
	if err != nil {
		return raffle.Draw{}, fmt.Errorf("%s: %w", op, err)
	}
	return d, nil
}

func (s *Store) GetDraw(ctx context.Context, id int64) (raffle.Draw, error) {
	const op = "postgres.GetDraw"

	var d raffle.Draw
	err := s.db.QueryRowContext(ctx, `
		SELECT id, book_id, winning_number, drawn_at FROM draws WHERE id = $1
	`, id).Scan(&d.ID, &d.BookID, &d.WinningNumber, &d.DrawnAt)
	if errors.Is(err, sql.ErrNoRows) {
		return raffle.Draw{}, storage.ErrNotFound
	}
	if err != nil {
		return raffle.Draw{}, fmt.Errorf("%s: %w", op, err)
	}
	return d, nil
}

func (s *Store) ListDraws(ctx context.Context, bookID int64) ([]raffle.Draw, error) {
	const op = "postgres.ListDraws"

	rows, err := s.db.QueryContext(ctx, `
		SELECT id, book_id, winning_number, drawn_at
		FROM draws WHERE book_id = $1 ORDER BY id
	`, bookID)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	defer rows.Close()

	var draws []raffle.Draw
	for rows.Next() {
		var d raffle.Draw
		if err := rows.Scan(&d.ID, &d.BookID, &d.WinningNumber, &d.DrawnAt); err != nil {
			return nil, fmt.Errorf("%s: scan: %w", op, err)
		}
		draws = append(draws, d)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%s: rows: %w", op, err)
	}
	return draws, nil
}
