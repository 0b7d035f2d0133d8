package raffle

import (
	"github.com/samber/lo"
	"github.com/shopspring/decimal"

	"github.com/joanvup/rifa-app/errors"
)

// WinningNumberLength is the required length of a winning number.
const WinningNumberLength = 4

// WindowKind identifies one of the three overlapping 2-digit windows
// derived from the winning number.
type WindowKind string

const (
	WindowFirst  WindowKind = "first"
	WindowMiddle WindowKind = "middle"
	WindowLast   WindowKind = "last"
)

// Window pairs a window kind with its 2-digit matching key
type Window struct {
	Kind   WindowKind `json:"kind"`
	Digits string     `json:"digits"`
}

// ValidateWinningNumber checks that s is exactly 4 decimal digits.
func ValidateWinningNumber(s string) error {
	if len(s) != WinningNumberLength {
		return errors.New(errors.ErrInvalidWinningNumber, "winning number must be 4 digits")
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return errors.New(errors.ErrInvalidWinningNumber, "winning number must be 4 digits")
		}
	}
	return nil
}

// Windows derives the three overlapping windows from a 4-digit winning
// number W = w0w1w2w3: first = w0w1, middle = w1w2, last = w2w3.
func Windows(winning string) []Window {
	return []Window{
		{Kind: WindowFirst, Digits: winning[0:2]},
		{Kind: WindowMiddle, Digits: winning[1:3]},
		{Kind: WindowLast, Digits: winning[2:4]},
	}
}

// TicketPrize is one winning ticket inside a window, with its share of
// that window's pool.
type TicketPrize struct {
	TicketNumber int             `json:"ticketNumber"`
	Label        string          `json:"label"`
	Assignee     string          `json:"assignee"`
	Prize        decimal.Decimal `json:"prize"`
	PrizeDisplay string          `json:"prizeDisplay"`
}

// WindowResult is the settlement outcome of a single window
type WindowResult struct {
	Kind         WindowKind      `json:"kind"`
	Digits       string          `json:"digits"`
	Pool         decimal.Decimal `json:"pool"`
	PoolDisplay  string          `json:"poolDisplay"`
	Share        decimal.Decimal `json:"share"`
	ShareDisplay string          `json:"shareDisplay"`
	Winners      []TicketPrize   `json:"winners"`
}

// PersonPrize aggregates one assignee's winnings across all windows
type PersonPrize struct {
	Name         string          `json:"name"`
	Total        decimal.Decimal `json:"total"`
	TotalDisplay string          `json:"totalDisplay"`
}

// SettlementReport is the full prize distribution for one draw
type SettlementReport struct {
	DrawID               int64           `json:"drawId"`
	BookID               int64           `json:"bookId"`
	WinningNumber        string          `json:"winningNumber"`
	TotalExpected        decimal.Decimal `json:"totalExpected"`
	TotalExpectedDisplay string          `json:"totalExpectedDisplay"`
	Windows              []WindowResult  `json:"windows"`
	People               []PersonPrize   `json:"people"`
}

var hundred = decimal.NewFromInt(100)

// Settle computes the prize distribution for a draw over the book's
// tickets with the given settings. It is a pure function: given the same
// inputs it always produces the same report.
//
// Per window, the pool is totalExpected x percent / 100 and every paid
// ticket whose zero-padded number equals the window digits takes an equal
// share. A window with no winners keeps its pool unclaimed: the share is
// zero and nothing reaches the per-person totals. Per-person totals are
// listed in first-seen order across the first, middle and last windows.
func Settle(draw Draw, tickets []Ticket, settings Settings) *SettlementReport {
	totalExpected := settings.TotalExpected()

	percentages := map[WindowKind]decimal.Decimal{
		WindowFirst:  settings.FirstPercent,
		WindowMiddle: settings.MiddlePercent,
		WindowLast:   settings.LastPercent,
	}

	report := &SettlementReport{
		DrawID:               draw.ID,
		BookID:               draw.BookID,
		WinningNumber:        draw.WinningNumber,
		TotalExpected:        totalExpected,
		TotalExpectedDisplay: FormatAmount(totalExpected),
		Windows:              make([]WindowResult, 0, 3),
		People:               []PersonPrize{},
	}

	personIndex := make(map[string]int)

	for _, window := range Windows(draw.WinningNumber) {
		pool := totalExpected.Mul(percentages[window.Kind]).Div(hundred)

		digits := window.Digits
		matches := lo.Filter(tickets, func(t Ticket, _ int) bool {
			return t.State == StatePaid && t.Label() == digits
		})

		share := decimal.Zero
		if len(matches) > 0 {
			share = pool.Div(decimal.NewFromInt(int64(len(matches))))
		}

		winners := lo.Map(matches, func(t Ticket, _ int) TicketPrize {
			return TicketPrize{
				TicketNumber: t.Number,
				Label:        t.Label(),
				Assignee:     t.Assignee,
				Prize:        share,
				PrizeDisplay: FormatAmount(share),
			}
		})

		report.Windows = append(report.Windows, WindowResult{
			Kind:         window.Kind,
			Digits:       digits,
			Pool:         pool,
			PoolDisplay:  FormatAmount(pool),
			Share:        share,
			ShareDisplay: FormatAmount(share),
			Winners:      winners,
		})

		for _, t := range matches {
			if t.Assignee == "" {
				// Paid tickets always carry an assignee; skip one that does not.
				continue
			}
			if idx, ok := personIndex[t.Assignee]; ok {
				report.People[idx].Total = report.People[idx].Total.Add(share)
			} else {
				personIndex[t.Assignee] = len(report.People)
				report.People = append(report.People, PersonPrize{
					Name:  t.Assignee,
					Total: share,
				})
			}
		}
	}

	for i := range report.People {
		report.People[i].TotalDisplay = FormatAmount(report.People[i].Total)
	}

	return report
}
