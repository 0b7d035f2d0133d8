package raffle

import (
	"testing"

	"github.com/shopspring/decimal"
)

func TestNewTickets(t *testing.T) {
	tickets := NewTickets(42)

	if len(tickets) != TicketsPerBook {
		t.Fatalf("expected %d tickets, got %d", TicketsPerBook, len(tickets))
	}

	seen := make(map[int]bool, TicketsPerBook)
	for i, ticket := range tickets {
		if ticket.BookID != 42 {
			t.Errorf("ticket %d: expected book id 42, got %d", i, ticket.BookID)
		}
		if ticket.Number != i {
			t.Errorf("ticket %d: expected number %d, got %d", i, i, ticket.Number)
		}
		if ticket.State != StateAvailable {
			t.Errorf("ticket %d: expected state %q, got %q", i, StateAvailable, ticket.State)
		}
		if ticket.Assignee != "" {
			t.Errorf("ticket %d: expected empty assignee, got %q", i, ticket.Assignee)
		}
		if seen[ticket.Number] {
			t.Errorf("duplicate ticket number %d", ticket.Number)
		}
		seen[ticket.Number] = true
	}
}

func TestTicketLabel(t *testing.T) {
	tests := []struct {
		number int
		want   string
	}{
		{0, "00"},
		{7, "07"},
		{10, "10"},
		{99, "99"},
	}
	for _, tt := range tests {
		got := Ticket{Number: tt.number}.Label()
		if got != tt.want {
			t.Errorf("Label(%d): expected %q, got %q", tt.number, tt.want, got)
		}
	}
}

func TestDefaultSettings(t *testing.T) {
	s := DefaultSettings()

	if !s.TicketPrice.Equal(decimal.NewFromInt(100)) {
		t.Errorf("expected price 100, got %s", s.TicketPrice)
	}
	if !s.FirstPercent.Equal(decimal.NewFromInt(25)) ||
		!s.MiddlePercent.Equal(decimal.NewFromInt(10)) ||
		!s.LastPercent.Equal(decimal.NewFromInt(40)) {
		t.Errorf("expected percentages 25/10/40, got %s/%s/%s",
			s.FirstPercent, s.MiddlePercent, s.LastPercent)
	}
	if !s.TotalExpected().Equal(decimal.NewFromInt(10000)) {
		t.Errorf("expected total 10000, got %s", s.TotalExpected())
	}
	if s.PercentagesSumTo100() {
		t.Errorf("default percentages sum to 75, not 100")
	}
}

func TestComputeTotals(t *testing.T) {
	settings := DefaultSettings()
	tickets := NewTickets(1)
	tickets[3].State = StatePaid
	tickets[3].Assignee = "Ana"
	tickets[40].State = StatePaid
	tickets[40].Assignee = "Luis"
	tickets[50].State = StateAssigned
	tickets[50].Assignee = "Sofia"

	totals := ComputeTotals(tickets, settings)

	if totals.Available != 97 || totals.Assigned != 1 || totals.Paid != 2 {
		t.Errorf("counts = %d/%d/%d, want 97/1/2",
			totals.Available, totals.Assigned, totals.Paid)
	}
	if !totals.Expected.Equal(decimal.NewFromInt(10000)) {
		t.Errorf("expected 10000, got %s", totals.Expected)
	}
	// Assigned but unpaid tickets do not count as collected.
	if !totals.Collected.Equal(decimal.NewFromInt(200)) {
		t.Errorf("expected collected 200, got %s", totals.Collected)
	}
	if !totals.Outstanding.Equal(decimal.NewFromInt(9800)) {
		t.Errorf("expected outstanding 9800, got %s", totals.Outstanding)
	}
	if totals.CollectedDisplay != "200" || totals.OutstandingDisplay != "9,800" {
		t.Errorf("unexpected display values: %q / %q",
			totals.CollectedDisplay, totals.OutstandingDisplay)
	}
}
