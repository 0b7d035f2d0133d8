package server

import (
	"context"
	stderrors "errors"

	"github.com/joanvup/rifa-app/cache/redis"
	"github.com/joanvup/rifa-app/errors"
	"github.com/joanvup/rifa-app/events/kafka"
	"github.com/joanvup/rifa-app/raffle"
	"github.com/joanvup/rifa-app/storage"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
)

// BookView is a book with its tickets and money totals.
type BookView struct {
	Book    raffle.Book       `json:"book"`
	Tickets []raffle.Ticket   `json:"tickets"`
	Totals  raffle.BookTotals `json:"totals"`
}

// SettlementCache stores computed settlement reports keyed by draw ID.
// A miss is reported as redis.ErrCacheMiss. Implemented by
// redis.ReportCache.
type SettlementCache interface {
	Get(ctx context.Context, drawID int64) (raffle.SettlementReport, error)
	Put(ctx context.Context, report raffle.SettlementReport) error
	Invalidate(ctx context.Context, drawIDs ...int64) error
}

// RaffleService implements the raffle operations over a store, with an
// optional settlement report cache and event emitter.
type RaffleService struct {
	store   storage.Store
	reports SettlementCache
	emitter *kafka.Emitter
	logger  zerolog.Logger
}

// NewRaffleService creates the service. reports and emitter may be nil.
func NewRaffleService(store storage.Store, reports SettlementCache, emitter *kafka.Emitter, logger zerolog.Logger) *RaffleService {
	return &RaffleService{
		store:   store,
		reports: reports,
		emitter: emitter,
		logger:  logger.With().Str("component", "raffle-service").Logger(),
	}
}

// CreateBook opens a new book with its full set of tickets.
func (s *RaffleService) CreateBook(ctx context.Context, name string) (raffle.Book, error) {
	book, err := s.store.CreateBook(ctx, name)
	if err != nil {
		return raffle.Book{}, errors.Wrap(err, errors.ErrStorageError, "failed to create book")
	}

	s.logger.Info().Int64("book_id", book.ID).Str("name", book.Name).Msg("Book created")
	s.emitter.BookCreated(book)
	return book, nil
}

// ListBooks returns all books ordered by ID.
func (s *RaffleService) ListBooks(ctx context.Context) ([]raffle.Book, error) {
	books, err := s.store.ListBooks(ctx)
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrStorageError, "failed to list books")
	}
	return books, nil
}

// GetBook returns a book with its tickets and totals computed against
// the current settings.
func (s *RaffleService) GetBook(ctx context.Context, bookID int64) (BookView, error) {
	book, err := s.store.GetBook(ctx, bookID)
	if err != nil {
		if stderrors.Is(err, storage.ErrNotFound) {
			return BookView{}, errors.Newf(errors.ErrNotFound, "book %d not found", bookID)
		}
		return BookView{}, errors.Wrap(err, errors.ErrStorageError, "failed to load book")
	}

	tickets, err := s.store.ListTickets(ctx, bookID)
	if err != nil {
		return BookView{}, errors.Wrap(err, errors.ErrStorageError, "failed to load tickets")
	}

	settings, err := s.store.GetSettings(ctx)
	if err != nil {
		return BookView{}, errors.Wrap(err, errors.ErrStorageError, "failed to load settings")
	}

	return BookView{
		Book:    book,
		Tickets: tickets,
		Totals:  raffle.ComputeTotals(tickets, settings),
	}, nil
}

// ApplyTicketAction applies a state transition to a ticket, persists
// the result, drops any cached settlements for the ticket's book and
// emits an update event.
func (s *RaffleService) ApplyTicketAction(ctx context.Context, ticketID int64, action raffle.Action, name string) (raffle.Ticket, error) {
	ticket, err := s.store.GetTicket(ctx, ticketID)
	if err != nil {
		if stderrors.Is(err, storage.ErrNotFound) {
			return raffle.Ticket{}, errors.Newf(errors.ErrNotFound, "ticket %d not found", ticketID)
		}
		return raffle.Ticket{}, errors.Wrap(err, errors.ErrStorageError, "failed to load ticket")
	}

	if err := raffle.Apply(&ticket, action, name); err != nil {
		return raffle.Ticket{}, err
	}

	updated, err := s.store.UpdateTicket(ctx, ticket)
	if err != nil {
		return raffle.Ticket{}, errors.Wrap(err, errors.ErrStorageError, "failed to update ticket")
	}

	s.logger.Info().
		Int64("ticket_id", updated.ID).
		Int64("book_id", updated.BookID).
		Str("action", string(action)).
		Str("state", string(updated.State)).
		Msg("Ticket updated")

	s.invalidateBookReports(ctx, updated.BookID)
	s.emitter.TicketUpdated(updated, action)

	return updated, nil
}

// invalidateBookReports drops cached settlement reports for every draw
// of the book. Cache errors are logged, not returned: the next read
// recomputes from the store either way.
func (s *RaffleService) invalidateBookReports(ctx context.Context, bookID int64) {
	if s.reports == nil {
		return
	}
	draws, err := s.store.ListDraws(ctx, bookID)
	if err != nil {
		s.logger.Warn().Err(err).Int64("book_id", bookID).Msg("Failed to list draws for cache invalidation")
		return
	}
	ids := make([]int64, len(draws))
	for i, d := range draws {
		ids[i] = d.ID
	}
	if err := s.reports.Invalidate(ctx, ids...); err != nil {
		s.logger.Warn().Err(err).Int64("book_id", bookID).Msg("Failed to invalidate settlement cache")
	}
}

// invalidateAllReports drops every cached settlement report. Settings
// feed into every pool, so a settings change stales all of them.
func (s *RaffleService) invalidateAllReports(ctx context.Context) {
	if s.reports == nil {
		return
	}
	books, err := s.store.ListBooks(ctx)
	if err != nil {
		s.logger.Warn().Err(err).Msg("Failed to list books for cache invalidation")
		return
	}
	for _, book := range books {
		s.invalidateBookReports(ctx, book.ID)
	}
}

// GetSettings returns the current raffle settings.
func (s *RaffleService) GetSettings(ctx context.Context) (raffle.Settings, error) {
	settings, err := s.store.GetSettings(ctx)
	if err != nil {
		return raffle.Settings{}, errors.Wrap(err, errors.ErrStorageError, "failed to load settings")
	}
	return settings, nil
}

// UpdateSettings validates and persists new settings. Percentages do
// not need to sum to 100 but a mismatch is logged.
func (s *RaffleService) UpdateSettings(ctx context.Context, settings raffle.Settings) (raffle.Settings, error) {
	if err := validateSettings(settings); err != nil {
		return raffle.Settings{}, err
	}

	if !settings.PercentagesSumTo100() {
		total := settings.FirstPercent.Add(settings.MiddlePercent).Add(settings.LastPercent)
		s.logger.Warn().Str("total_percent", total.String()).Msg("Prize percentages do not sum to 100")
	}

	updated, err := s.store.UpdateSettings(ctx, settings)
	if err != nil {
		return raffle.Settings{}, errors.Wrap(err, errors.ErrStorageError, "failed to update settings")
	}

	s.invalidateAllReports(ctx)

	s.logger.Info().
		Str("ticket_price", updated.TicketPrice.String()).
		Str("first_percent", updated.FirstPercent.String()).
		Str("middle_percent", updated.MiddlePercent.String()).
		Str("last_percent", updated.LastPercent.String()).
		Msg("Settings updated")

	return updated, nil
}

func validateSettings(settings raffle.Settings) error {
	if !settings.TicketPrice.IsPositive() {
		return errors.New(errors.ErrInvalidConfiguration, "ticket price must be positive")
	}
	hundred := decimal.NewFromInt(100)
	for _, pct := range []struct {
		name  string
		value decimal.Decimal
	}{
		{"first", settings.FirstPercent},
		{"middle", settings.MiddlePercent},
		{"last", settings.LastPercent},
	} {
		if pct.value.IsNegative() || pct.value.GreaterThan(hundred) {
			return errors.Newf(errors.ErrInvalidConfiguration, "%s prize percentage must be between 0 and 100", pct.name)
		}
	}
	return nil
}

// ConductDraw records a draw for a book after validating the winning
// number.
func (s *RaffleService) ConductDraw(ctx context.Context, bookID int64, winningNumber string) (raffle.Draw, error) {
	if err := raffle.ValidateWinningNumber(winningNumber); err != nil {
		return raffle.Draw{}, err
	}

	if _, err := s.store.GetBook(ctx, bookID); err != nil {
		if stderrors.Is(err, storage.ErrNotFound) {
			return raffle.Draw{}, errors.Newf(errors.ErrNotFound, "book %d not found", bookID)
		}
		return raffle.Draw{}, errors.Wrap(err, errors.ErrStorageError, "failed to load book")
	}

	draw, err := s.store.CreateDraw(ctx, raffle.Draw{BookID: bookID, WinningNumber: winningNumber})
	if err != nil {
		return raffle.Draw{}, errors.Wrap(err, errors.ErrStorageError, "failed to record draw")
	}

	s.logger.Info().
		Int64("draw_id", draw.ID).
		Int64("book_id", draw.BookID).
		Str("winning_number", draw.WinningNumber).
		Msg("Draw conducted")

	s.emitter.DrawConducted(draw)
	return draw, nil
}

// ListDraws returns the draws recorded for a book.
func (s *RaffleService) ListDraws(ctx context.Context, bookID int64) ([]raffle.Draw, error) {
	if _, err := s.store.GetBook(ctx, bookID); err != nil {
		if stderrors.Is(err, storage.ErrNotFound) {
			return nil, errors.Newf(errors.ErrNotFound, "book %d not found", bookID)
		}
		return nil, errors.Wrap(err, errors.ErrStorageError, "failed to load book")
	}

	draws, err := s.store.ListDraws(ctx, bookID)
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrStorageError, "failed to list draws")
	}
	return draws, nil
}

// SettleDraw computes the prize distribution for a draw. Results are
// served from the report cache when present.
func (s *RaffleService) SettleDraw(ctx context.Context, drawID int64) (raffle.SettlementReport, error) {
	if s.reports != nil {
		report, err := s.reports.Get(ctx, drawID)
		if err == nil {
			return report, nil
		}
		if !stderrors.Is(err, redis.ErrCacheMiss) {
			s.logger.Warn().Err(err).Int64("draw_id", drawID).Msg("Settlement cache read failed")
		}
	}

	draw, err := s.store.GetDraw(ctx, drawID)
	if err != nil {
		if stderrors.Is(err, storage.ErrNotFound) {
			return raffle.SettlementReport{}, errors.Newf(errors.ErrNotFound, "draw %d not found", drawID)
		}
		return raffle.SettlementReport{}, errors.Wrap(err, errors.ErrStorageError, "failed to load draw")
	}

	if _, err := s.store.GetBook(ctx, draw.BookID); err != nil {
		if stderrors.Is(err, storage.ErrNotFound) {
			return raffle.SettlementReport{}, errors.Newf(errors.ErrNotFound, "book %d not found", draw.BookID)
		}
		return raffle.SettlementReport{}, errors.Wrap(err, errors.ErrStorageError, "failed to load book")
	}

	tickets, err := s.store.ListTickets(ctx, draw.BookID)
	if err != nil {
		return raffle.SettlementReport{}, errors.Wrap(err, errors.ErrStorageError, "failed to load tickets")
	}

	settings, err := s.store.GetSettings(ctx)
	if err != nil {
		return raffle.SettlementReport{}, errors.Wrap(err, errors.ErrStorageError, "failed to load settings")
	}

	report := raffle.Settle(draw, tickets, settings)

	if s.reports != nil {
		if err := s.reports.Put(ctx, *report); err != nil {
			s.logger.Warn().Err(err).Int64("draw_id", drawID).Msg("Settlement cache write failed")
		}
	}

	return *report, nil
}
