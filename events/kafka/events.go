package kafka

import (
	"strconv"
	"time"

	"github.com/joanvup/rifa-app/raffle"
)

// Topics for raffle lifecycle events.
const (
	TopicBooks   = "rifa.books"
	TopicTickets = "rifa.tickets"
	TopicDraws   = "rifa.draws"
)

// BookCreatedEvent is published when a new book is opened.
type BookCreatedEvent struct {
	BookID    int64     `json:"bookId"`
	Name      string    `json:"name"`
	CreatedAt time.Time `json:"createdAt"`
}

// TicketUpdatedEvent is published after a ticket action changes state.
type TicketUpdatedEvent struct {
	TicketID  int64     `json:"ticketId"`
	BookID    int64     `json:"bookId"`
	Number    int       `json:"number"`
	Action    string    `json:"action"`
	State     string    `json:"state"`
	Assignee  string    `json:"assignee,omitempty"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// DrawConductedEvent is published when a draw is recorded for a book.
type DrawConductedEvent struct {
	DrawID        int64     `json:"drawId"`
	BookID        int64     `json:"bookId"`
	WinningNumber string    `json:"winningNumber"`
	DrawnAt       time.Time `json:"drawnAt"`
}

// Emitter publishes raffle events through a Producer. A nil Emitter or
// an Emitter over a nil Producer silently drops events, so callers do
// not need to branch on whether Kafka is configured.
type Emitter struct {
	producer *Producer
}

// NewEmitter wraps producer. producer may be nil.
func NewEmitter(producer *Producer) *Emitter {
	return &Emitter{producer: producer}
}

func (e *Emitter) enabled() bool {
	return e != nil && e.producer != nil
}

// BookCreated emits a book creation event keyed by book ID.
func (e *Emitter) BookCreated(book raffle.Book) {
	if !e.enabled() {
		return
	}
	_ = e.producer.SendMessage(TopicBooks, strconv.FormatInt(book.ID, 10), BookCreatedEvent{
		BookID:    book.ID,
		Name:      book.Name,
		CreatedAt: time.Now().UTC(),
	})
}

// TicketUpdated emits a ticket state change keyed by book ID so all
// updates for one book land in order on the same partition.
func (e *Emitter) TicketUpdated(ticket raffle.Ticket, action raffle.Action) {
	if !e.enabled() {
		return
	}
	_ = e.producer.SendMessage(TopicTickets, strconv.FormatInt(ticket.BookID, 10), TicketUpdatedEvent{
		TicketID:  ticket.ID,
		BookID:    ticket.BookID,
		Number:    ticket.Number,
		Action:    string(action),
		State:     string(ticket.State),
		Assignee:  ticket.Assignee,
		UpdatedAt: time.Now().UTC(),
	})
}

// DrawConducted emits a draw event keyed by book ID.
func (e *Emitter) DrawConducted(draw raffle.Draw) {
	if !e.enabled() {
		return
	}
	_ = e.producer.SendMessage(TopicDraws, strconv.FormatInt(draw.BookID, 10), DrawConductedEvent{
		DrawID:        draw.ID,
		BookID:        draw.BookID,
		WinningNumber: draw.WinningNumber,
		DrawnAt:       draw.DrawnAt,
	})
}
