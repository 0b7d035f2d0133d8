package storage

import (
	"context"
	"errors"

	"github.com/joanvup/rifa-app/raffle"
)

// ErrNotFound is returned when a book, ticket or draw id does not resolve.
var ErrNotFound = errors.New("record not found")

// BookStore persists ticket books
type BookStore interface {
	// CreateBook persists a book together with its 100 tickets in one
	// unit of work: either all 101 records exist afterwards or none do.
	CreateBook(ctx context.Context, name string) (raffle.Book, error)
	GetBook(ctx context.Context, id int64) (raffle.Book, error)
	ListBooks(ctx context.Context) ([]raffle.Book, error)
}

// TicketStore persists individual tickets
type TicketStore interface {
	GetTicket(ctx context.Context, id int64) (raffle.Ticket, error)
	// ListTickets returns a book's tickets ordered by number ascending.
	ListTickets(ctx context.Context, bookID int64) ([]raffle.Ticket, error)
	UpdateTicket(ctx context.Context, t raffle.Ticket) (raffle.Ticket, error)
}

// SettingsStore persists the singleton raffle configuration
type SettingsStore interface {
	// GetSettings returns the configuration, creating it with the store's
	// defaults on first access.
	GetSettings(ctx context.Context) (raffle.Settings, error)
	UpdateSettings(ctx context.Context, s raffle.Settings) (raffle.Settings, error)
}

// DrawStore persists draws
type DrawStore interface {
	CreateDraw(ctx context.Context, d raffle.Draw) (raffle.Draw, error)
	GetDraw(ctx context.Context, id int64) (raffle.Draw, error)
	ListDraws(ctx context.Context, bookID int64) ([]raffle.Draw, error)
}

// Store is the full persistence surface consumed by the raffle service
type Store interface {
	BookStore
	TicketStore
	SettingsStore
	DrawStore
}
