package server

import (
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/joanvup/rifa-app/errors"
	"github.com/joanvup/rifa-app/raffle"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
)

// RaffleHandler exposes the raffle service over HTTP.
type RaffleHandler struct {
	service *RaffleService
	logger  zerolog.Logger
}

// NewRaffleHandler creates the handler.
func NewRaffleHandler(service *RaffleService, logger zerolog.Logger) *RaffleHandler {
	return &RaffleHandler{
		service: service,
		logger:  logger.With().Str("component", "raffle-handler").Logger(),
	}
}

// CreateBookRequest is the payload for opening a new book.
type CreateBookRequest struct {
	Name string `json:"name" binding:"required"`
}

// TicketActionRequest is the payload for a ticket state transition.
// Name is required for assignment actions and ignored otherwise.
type TicketActionRequest struct {
	Action string `json:"action" binding:"required"`
	Name   string `json:"name"`
}

// UpdateSettingsRequest is the payload for replacing the raffle
// configuration. Amounts accept JSON numbers or numeric strings.
type UpdateSettingsRequest struct {
	TicketPrice   decimal.Decimal `json:"ticketPrice"`
	FirstPercent  decimal.Decimal `json:"firstPercent"`
	MiddlePercent decimal.Decimal `json:"middlePercent"`
	LastPercent   decimal.Decimal `json:"lastPercent"`
}

// ConductDrawRequest is the payload for recording a draw.
type ConductDrawRequest struct {
	WinningNumber string `json:"winningNumber" binding:"required"`
}

// CreateBook handles POST /api/books.
func (h *RaffleHandler) CreateBook(c *gin.Context) {
	var req CreateBookRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, errors.New(errors.ErrInvalidRequest, "book name is required"))
		return
	}

	book, err := h.service.CreateBook(c.Request.Context(), req.Name)
	if err != nil {
		HandleAppError(c, err)
		return
	}
	Created(c, book)
}

// ListBooks handles GET /api/books.
func (h *RaffleHandler) ListBooks(c *gin.Context) {
	books, err := h.service.ListBooks(c.Request.Context())
	if err != nil {
		HandleAppError(c, err)
		return
	}
	OK(c, books)
}

// GetBook handles GET /api/books/:id.
func (h *RaffleHandler) GetBook(c *gin.Context) {
	bookID, ok := pathID(c, "id")
	if !ok {
		return
	}

	view, err := h.service.GetBook(c.Request.Context(), bookID)
	if err != nil {
		HandleAppError(c, err)
		return
	}
	OK(c, view)
}

// ApplyTicketAction handles POST /api/tickets/:id/action.
func (h *RaffleHandler) ApplyTicketAction(c *gin.Context) {
	ticketID, ok := pathID(c, "id")
	if !ok {
		return
	}

	var req TicketActionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, errors.New(errors.ErrInvalidRequest, "action is required"))
		return
	}

	ticket, err := h.service.ApplyTicketAction(c.Request.Context(), ticketID, raffle.Action(req.Action), req.Name)
	if err != nil {
		HandleAppError(c, err)
		return
	}
	OK(c, ticket)
}

// GetSettings handles GET /api/configuration.
func (h *RaffleHandler) GetSettings(c *gin.Context) {
	settings, err := h.service.GetSettings(c.Request.Context())
	if err != nil {
		HandleAppError(c, err)
		return
	}
	OK(c, settings)
}

// UpdateSettings handles PUT /api/configuration.
func (h *RaffleHandler) UpdateSettings(c *gin.Context) {
	var req UpdateSettingsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, errors.New(errors.ErrInvalidRequest, "invalid configuration payload"))
		return
	}

	settings, err := h.service.UpdateSettings(c.Request.Context(), raffle.Settings{
		TicketPrice:   req.TicketPrice,
		FirstPercent:  req.FirstPercent,
		MiddlePercent: req.MiddlePercent,
		LastPercent:   req.LastPercent,
	})
	if err != nil {
		HandleAppError(c, err)
		return
	}
	OK(c, settings)
}

// ConductDraw handles POST /api/books/:id/draws.
func (h *RaffleHandler) ConductDraw(c *gin.Context) {
	bookID, ok := pathID(c, "id")
	if !ok {
		return
	}

	var req ConductDrawRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, errors.New(errors.ErrInvalidRequest, "winning number is required"))
		return
	}

	draw, err := h.service.ConductDraw(c.Request.Context(), bookID, req.WinningNumber)
	if err != nil {
		HandleAppError(c, err)
		return
	}
	Created(c, draw)
}

// ListDraws handles GET /api/books/:id/draws.
func (h *RaffleHandler) ListDraws(c *gin.Context) {
	bookID, ok := pathID(c, "id")
	if !ok {
		return
	}

	draws, err := h.service.ListDraws(c.Request.Context(), bookID)
	if err != nil {
		HandleAppError(c, err)
		return
	}
	OK(c, draws)
}

// SettleDraw handles GET /api/draws/:id/settlement.
func (h *RaffleHandler) SettleDraw(c *gin.Context) {
	drawID, ok := pathID(c, "id")
	if !ok {
		return
	}

	report, err := h.service.SettleDraw(c.Request.Context(), drawID)
	if err != nil {
		HandleAppError(c, err)
		return
	}
	OK(c, report)
}

// pathID parses a numeric path parameter, answering 400 on failure.
func pathID(c *gin.Context, name string) (int64, bool) {
	id, err := strconv.ParseInt(c.Param(name), 10, 64)
	if err != nil || id <= 0 {
		BadRequest(c, errors.Newf(errors.ErrInvalidRequest, "invalid %s parameter", name))
		return 0, false
	}
	return id, true
}
