package raffle

import (
	"fmt"
	"time"

	"github.com/samber/lo"
	"github.com/shopspring/decimal"
)

// TicketsPerBook is the fixed number of tickets in every book (numbers 00-99).
const TicketsPerBook = 100

// TicketState represents the sale/payment state of a ticket
type TicketState string

const (
	StateAvailable TicketState = "available"
	StateAssigned  TicketState = "assigned"
	StatePaid      TicketState = "paid"
)

// Valid reports whether s is one of the known ticket states
func (s TicketState) Valid() bool {
	return s == StateAvailable || s == StateAssigned || s == StatePaid
}

// Book represents a raffle ticket book
type Book struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
}

// Ticket represents one numbered slot within a book
type Ticket struct {
	ID       int64       `json:"id"`
	BookID   int64       `json:"bookId"`
	Number   int         `json:"number"`
	State    TicketState `json:"state"`
	Assignee string      `json:"assignee,omitempty"`
}

// Label returns the ticket number zero-padded to two digits, e.g. 7 -> "07".
func (t Ticket) Label() string {
	return fmt.Sprintf("%02d", t.Number)
}

// NewTickets builds the fixed set of tickets for a new book,
// numbered 0..99 and all available.
func NewTickets(bookID int64) []Ticket {
	tickets := make([]Ticket, 0, TicketsPerBook)
	for i := 0; i < TicketsPerBook; i++ {
		tickets = append(tickets, Ticket{
			BookID: bookID,
			Number: i,
			State:  StateAvailable,
		})
	}
	return tickets
}

// Settings is the singleton raffle configuration: ticket price and the
// percentage of expected revenue paid out per matching window.
type Settings struct {
	TicketPrice   decimal.Decimal `json:"ticketPrice"`
	FirstPercent  decimal.Decimal `json:"firstPercent"`
	MiddlePercent decimal.Decimal `json:"middlePercent"`
	LastPercent   decimal.Decimal `json:"lastPercent"`
}

// DefaultSettings returns the initial configuration: price 100,
// percentages 25/10/40.
func DefaultSettings() Settings {
	return Settings{
		TicketPrice:   decimal.NewFromInt(100),
		FirstPercent:  decimal.NewFromInt(25),
		MiddlePercent: decimal.NewFromInt(10),
		LastPercent:   decimal.NewFromInt(40),
	}
}

// TotalExpected is the revenue of a fully paid book: 100 x ticket price.
func (s Settings) TotalExpected() decimal.Decimal {
	return s.TicketPrice.Mul(decimal.NewFromInt(TicketsPerBook))
}

// PercentagesSumTo100 reports whether the three window percentages add up
// to exactly 100. Nothing enforces this; callers may warn when it is false.
func (s Settings) PercentagesSumTo100() bool {
	sum := s.FirstPercent.Add(s.MiddlePercent).Add(s.LastPercent)
	return sum.Equal(decimal.NewFromInt(100))
}

// Draw represents a recorded 4-digit winning number tied to a book.
// A draw is immutable once created; a book may have any number of draws.
type Draw struct {
	ID            int64     `json:"id"`
	BookID        int64     `json:"bookId"`
	WinningNumber string    `json:"winningNumber"`
	DrawnAt       time.Time `json:"drawnAt"`
}

// BookTotals holds the derived money figures and state counts for a
// book view
type BookTotals struct {
	Available          int             `json:"available"`
	Assigned           int             `json:"assigned"`
	Paid               int             `json:"paid"`
	Expected           decimal.Decimal `json:"expected"`
	Collected          decimal.Decimal `json:"collected"`
	Outstanding        decimal.Decimal `json:"outstanding"`
	ExpectedDisplay    string          `json:"expectedDisplay"`
	CollectedDisplay   string          `json:"collectedDisplay"`
	OutstandingDisplay string          `json:"outstandingDisplay"`
}

// ComputeTotals derives the expected/collected/outstanding figures for a
// book from its tickets and the current settings.
func ComputeTotals(tickets []Ticket, settings Settings) BookTotals {
	available := lo.CountBy(tickets, func(t Ticket) bool { return t.State == StateAvailable })
	assigned := lo.CountBy(tickets, func(t Ticket) bool { return t.State == StateAssigned })
	paid := lo.CountBy(tickets, func(t Ticket) bool { return t.State == StatePaid })

	expected := settings.TotalExpected()
	collected := settings.TicketPrice.Mul(decimal.NewFromInt(int64(paid)))
	outstanding := expected.Sub(collected)

	return BookTotals{
		Available:          available,
		Assigned:           assigned,
		Paid:               paid,
		Expected:           expected,
		Collected:          collected,
		Outstanding:        outstanding,
		ExpectedDisplay:    FormatAmount(expected),
		CollectedDisplay:   FormatAmount(collected),
		OutstandingDisplay: FormatAmount(outstanding),
	}
}
