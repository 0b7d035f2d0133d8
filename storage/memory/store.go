// Package memory provides an in-memory Store used by tests and by
// dsn-less development runs. It mirrors the semantics of the postgres
// store, including lazy settings seeding and ticket ordering.
package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/joanvup/rifa-app/raffle"
	"github.com/joanvup/rifa-app/storage"
)

// Store keeps all records in maps guarded by a single mutex.
type Store struct {
	mu       sync.RWMutex
	defaults raffle.Settings

	books    map[int64]raffle.Book
	tickets  map[int64]raffle.Ticket
	draws    map[int64]raffle.Draw
	settings *raffle.Settings

	nextBookID   int64
	nextTicketID int64
	nextDrawID   int64
}

var _ storage.Store = (*Store)(nil)

// New creates an empty in-memory store seeded with the given defaults.
func New(defaults raffle.Settings) *Store {
	return &Store{
		defaults: defaults,
		books:    make(map[int64]raffle.Book),
		tickets:  make(map[int64]raffle.Ticket),
		draws:    make(map[int64]raffle.Draw),
	}
}

// --- BookStore --------------------------------------------------------------

func (s *Store) CreateBook(_ context.Context, name string) (raffle.Book, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.nextBookID++
	book := raffle.Book{ID: s.nextBookID, Name: name}
	s.books[book.ID] = book

	for _, t := range raffle.NewTickets(book.ID) {
		s.nextTicketID++
		t.ID = s.nextTicketID
		s.tickets[t.ID] = t
	}
	return book, nil
}

func (s *Store) GetBook(_ context.Context, id int64) (raffle.Book, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	book, ok := s.books[id]
	if !ok {
		return raffle.Book{}, storage.ErrNotFound
	}
	return book, nil
}

func (s *Store) ListBooks(_ context.Context) ([]raffle.Book, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	books := make([]raffle.Book, 0, len(s.books))
	for _, b := range s.books {
		books = append(books, b)
	}
	sort.Slice(books, func(i, j int) bool { return books[i].ID < books[j].ID })
	return books, nil
}

// --- TicketStore ------------------------------------------------------------

func (s *Store) GetTicket(_ context.Context, id int64) (raffle.Ticket, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	ticket, ok := s.tickets[id]
	if !ok {
		return raffle.Ticket{}, storage.ErrNotFound
	}
	return ticket, nil
}

func (s *Store) ListTickets(_ context.Context, bookID int64) ([]raffle.Ticket, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var tickets []raffle.Ticket
	for _, t := range s.tickets {
		if t.BookID == bookID {
			tickets = append(tickets, t)
		}
	}
	sort.Slice(tickets, func(i, j int) bool { return tickets[i].Number < tickets[j].Number })
	return tickets, nil
}

func (s *Store) UpdateTicket(_ context.Context, t raffle.Ticket) (raffle.Ticket, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.tickets[t.ID]; !ok {
		return raffle.Ticket{}, storage.ErrNotFound
	}
	s.tickets[t.ID] = t
	return t, nil
}

// --- SettingsStore ----------------------------------------------------------

func (s *Store) GetSettings(_ context.Context) (raffle.Settings, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.settings == nil {
		seeded := s.defaults
		s.settings = &seeded
	}
	return *s.settings, nil
}

func (s *Store) UpdateSettings(_ context.Context, settings raffle.Settings) (raffle.Settings, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.settings = &settings
	return settings, nil
}

// --- DrawStore --------------------------------------------------------------

func (s *Store) CreateDraw(_ context.Context, d raffle.Draw) (raffle.Draw, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if d.DrawnAt.IsZero() {
		d.DrawnAt = time.Now().UTC()
	}
	s.nextDrawID++
	d.ID = s.nextDrawID
	s.draws[d.ID] = d
	return d, nil
}

func (s *Store) GetDraw(_ context.Context, id int64) (raffle.Draw, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	draw, ok := s.draws[id]
	if !ok {
		return raffle.Draw{}, storage.ErrNotFound
	}
	return draw, nil
}

func (s *Store) ListDraws(_ context.Context, bookID int64) ([]raffle.Draw, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var draws []raffle.Draw
	for _, d := range s.draws {
		if d.BookID == bookID {
			draws = append(draws, d)
		}
	}
	sort.Slice(draws, func(i, j int) bool { return draws[i].ID < draws[j].ID })
	return draws, nil
}
