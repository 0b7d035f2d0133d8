package server

import (
	"context"
	"testing"

	"github.com/joanvup/rifa-app/errors"
	"github.com/joanvup/rifa-app/raffle"
	"github.com/joanvup/rifa-app/storage/memory"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
)

func newTestService() *RaffleService {
	store := memory.New(raffle.DefaultSettings())
	return NewRaffleService(store, nil, nil, zerolog.Nop())
}

func TestCreateAndGetBook(t *testing.T) {
	svc := newTestService()
	ctx := context.Background()

	book, err := svc.CreateBook(ctx, "Feria 2026")
	if err != nil {
		t.Fatalf("CreateBook returned error: %v", err)
	}

	view, err := svc.GetBook(ctx, book.ID)
	if err != nil {
		t.Fatalf("GetBook returned error: %v", err)
	}
	if view.Book.Name != "Feria 2026" {
		t.Errorf("book name = %q", view.Book.Name)
	}
	if len(view.Tickets) != raffle.TicketsPerBook {
		t.Fatalf("ticket count = %d, want %d", len(view.Tickets), raffle.TicketsPerBook)
	}
	if view.Totals.Available != raffle.TicketsPerBook {
		t.Errorf("available = %d, want %d", view.Totals.Available, raffle.TicketsPerBook)
	}
	if !view.Totals.Collected.IsZero() {
		t.Errorf("collected = %s, want 0", view.Totals.Collected)
	}
}

func TestGetBookNotFound(t *testing.T) {
	svc := newTestService()

	_, err := svc.GetBook(context.Background(), 99)
	if errors.GetCode(err) != errors.ErrNotFound {
		t.Fatalf("error code = %d, want %d (err: %v)", errors.GetCode(err), errors.ErrNotFound, err)
	}
}

func TestApplyTicketActionFlow(t *testing.T) {
	svc := newTestService()
	ctx := context.Background()

	book, _ := svc.CreateBook(ctx, "book")
	view, _ := svc.GetBook(ctx, book.ID)
	ticket := view.Tickets[7]

	assigned, err := svc.ApplyTicketAction(ctx, ticket.ID, raffle.ActionAssign, "Ana")
	if err != nil {
		t.Fatalf("assign returned error: %v", err)
	}
	if assigned.State != raffle.StateAssigned || assigned.Assignee != "Ana" {
		t.Errorf("after assign: %+v", assigned)
	}

	paid, err := svc.ApplyTicketAction(ctx, ticket.ID, raffle.ActionPay, "")
	if err != nil {
		t.Fatalf("pay returned error: %v", err)
	}
	if paid.State != raffle.StatePaid || paid.Assignee != "Ana" {
		t.Errorf("after pay: %+v", paid)
	}

	view, _ = svc.GetBook(ctx, book.ID)
	if view.Totals.Paid != 1 {
		t.Errorf("paid count = %d, want 1", view.Totals.Paid)
	}
}

func TestApplyTicketActionErrors(t *testing.T) {
	svc := newTestService()
	ctx := context.Background()

	book, _ := svc.CreateBook(ctx, "book")
	view, _ := svc.GetBook(ctx, book.ID)

	_, err := svc.ApplyTicketAction(ctx, view.Tickets[0].ID, raffle.Action("gift"), "Ana")
	if errors.GetCode(err) != errors.ErrInvalidAction {
		t.Errorf("unknown action code = %d, want %d", errors.GetCode(err), errors.ErrInvalidAction)
	}

	_, err = svc.ApplyTicketAction(ctx, 999999, raffle.ActionAssign, "Ana")
	if errors.GetCode(err) != errors.ErrNotFound {
		t.Errorf("missing ticket code = %d, want %d", errors.GetCode(err), errors.ErrNotFound)
	}
}

func TestUpdateSettingsValidation(t *testing.T) {
	svc := newTestService()
	ctx := context.Background()

	tests := []struct {
		name     string
		settings raffle.Settings
		wantCode int
	}{
		{
			name: "zero price rejected",
			settings: raffle.Settings{
				TicketPrice:   decimal.Zero,
				FirstPercent:  decimal.NewFromInt(25),
				MiddlePercent: decimal.NewFromInt(10),
				LastPercent:   decimal.NewFromInt(40),
			},
			wantCode: errors.ErrInvalidConfiguration,
		},
		{
			name: "negative percent rejected",
			settings: raffle.Settings{
				TicketPrice:   decimal.NewFromInt(100),
				FirstPercent:  decimal.NewFromInt(-1),
				MiddlePercent: decimal.NewFromInt(10),
				LastPercent:   decimal.NewFromInt(40),
			},
			wantCode: errors.ErrInvalidConfiguration,
		},
		{
			name: "percent above 100 rejected",
			settings: raffle.Settings{
				TicketPrice:   decimal.NewFromInt(100),
				FirstPercent:  decimal.NewFromInt(25),
				MiddlePercent: decimal.NewFromInt(101),
				LastPercent:   decimal.NewFromInt(40),
			},
			wantCode: errors.ErrInvalidConfiguration,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.UpdateSettings(ctx, tt.settings)
			if errors.GetCode(err) != tt.wantCode {
				t.Errorf("error code = %d, want %d (err: %v)", errors.GetCode(err), tt.wantCode, err)
			}
		})
	}
}

func TestUpdateSettingsPersistsWithoutSumConstraint(t *testing.T) {
	svc := newTestService()
	ctx := context.Background()

	// 20+20+20 does not sum to 100 and is still accepted.
	settings := raffle.Settings{
		TicketPrice:   decimal.NewFromInt(250),
		FirstPercent:  decimal.NewFromInt(20),
		MiddlePercent: decimal.NewFromInt(20),
		LastPercent:   decimal.NewFromInt(20),
	}

	if _, err := svc.UpdateSettings(ctx, settings); err != nil {
		t.Fatalf("UpdateSettings returned error: %v", err)
	}

	got, err := svc.GetSettings(ctx)
	if err != nil {
		t.Fatalf("GetSettings returned error: %v", err)
	}
	if !got.TicketPrice.Equal(decimal.NewFromInt(250)) {
		t.Errorf("ticket price = %s, want 250", got.TicketPrice)
	}
}

func TestConductDrawValidation(t *testing.T) {
	svc := newTestService()
	ctx := context.Background()

	book, _ := svc.CreateBook(ctx, "book")

	_, err := svc.ConductDraw(ctx, book.ID, "12a4")
	if errors.GetCode(err) != errors.ErrInvalidWinningNumber {
		t.Errorf("bad number code = %d, want %d", errors.GetCode(err), errors.ErrInvalidWinningNumber)
	}

	_, err = svc.ConductDraw(ctx, 999, "1234")
	if errors.GetCode(err) != errors.ErrNotFound {
		t.Errorf("missing book code = %d, want %d", errors.GetCode(err), errors.ErrNotFound)
	}

	draw, err := svc.ConductDraw(ctx, book.ID, "0712")
	if err != nil {
		t.Fatalf("ConductDraw returned error: %v", err)
	}
	if draw.WinningNumber != "0712" || draw.DrawnAt.IsZero() {
		t.Errorf("draw = %+v", draw)
	}

	draws, err := svc.ListDraws(ctx, book.ID)
	if err != nil {
		t.Fatalf("ListDraws returned error: %v", err)
	}
	if len(draws) != 1 {
		t.Errorf("draw count = %d, want 1", len(draws))
	}
}

func TestSettleDrawEndToEnd(t *testing.T) {
	svc := newTestService()
	ctx := context.Background()

	book, _ := svc.CreateBook(ctx, "book")
	view, _ := svc.GetBook(ctx, book.ID)

	// Ticket 07 wins the first window of 0712.
	if _, err := svc.ApplyTicketAction(ctx, view.Tickets[7].ID, raffle.ActionAssignAndPay, "Ana"); err != nil {
		t.Fatalf("assign_and_pay returned error: %v", err)
	}

	draw, err := svc.ConductDraw(ctx, book.ID, "0712")
	if err != nil {
		t.Fatalf("ConductDraw returned error: %v", err)
	}

	report, err := svc.SettleDraw(ctx, draw.ID)
	if err != nil {
		t.Fatalf("SettleDraw returned error: %v", err)
	}

	if report.DrawID != draw.ID || report.WinningNumber != "0712" {
		t.Errorf("report header = %+v", report)
	}
	if len(report.Windows) != 3 {
		t.Fatalf("window count = %d, want 3", len(report.Windows))
	}

	// Default settings: 100 price, first window pool 25% of 10,000.
	first := report.Windows[0]
	if len(first.Winners) != 1 {
		t.Fatalf("first window winners = %d, want 1", len(first.Winners))
	}
	if !first.Winners[0].Prize.Equal(decimal.NewFromInt(2500)) {
		t.Errorf("first window prize = %s, want 2500", first.Winners[0].Prize)
	}

	if len(report.People) != 1 || report.People[0].Name != "Ana" {
		t.Fatalf("people = %+v", report.People)
	}
	if !report.People[0].Total.Equal(decimal.NewFromInt(2500)) {
		t.Errorf("Ana total = %s, want 2500", report.People[0].Total)
	}

	_, err = svc.SettleDraw(ctx, 999)
	if errors.GetCode(err) != errors.ErrNotFound {
		t.Errorf("missing draw code = %d, want %d", errors.GetCode(err), errors.ErrNotFound)
	}
}
