package server

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/joanvup/rifa-app/config"
	"github.com/joanvup/rifa-app/errors"
	"github.com/joanvup/rifa-app/raffle"
	"github.com/joanvup/rifa-app/storage/memory"
	"github.com/rs/zerolog"
)

func newTestApp(t *testing.T) *App {
	t.Helper()
	gin.SetMode(gin.TestMode)

	app := New(Options{
		Config: &config.Config{Environment: "test"},
		Logger: zerolog.Nop(),
		Store:  memory.New(raffle.DefaultSettings()),
	})
	app.RegisterRoutes()
	return app
}

func doRequest(t *testing.T, app *App, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()

	var reader *strings.Reader
	if body == "" {
		reader = strings.NewReader("")
	} else {
		reader = strings.NewReader(body)
	}

	req := httptest.NewRequest(method, path, reader)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}

	w := httptest.NewRecorder()
	app.Router().ServeHTTP(w, req)
	return w
}

type envelope struct {
	StatusCode int             `json:"status_code"`
	IsSuccess  bool            `json:"is_success"`
	Data       json.RawMessage `json:"data"`
	Error      struct {
		ErrorCode    int    `json:"error_code"`
		ErrorMessage string `json:"error_message"`
	} `json:"error"`
}

func decodeEnvelope(t *testing.T, w *httptest.ResponseRecorder) envelope {
	t.Helper()
	var env envelope
	if err := json.Unmarshal(w.Body.Bytes(), &env); err != nil {
		t.Fatalf("failed to decode response %q: %v", w.Body.String(), err)
	}
	return env
}

func TestHealthEndpoint(t *testing.T) {
	app := newTestApp(t)

	w := doRequest(t, app, http.MethodGet, "/health", "")
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", w.Code)
	}
}

func TestCreateBookEndpoint(t *testing.T) {
	app := newTestApp(t)

	w := doRequest(t, app, http.MethodPost, "/api/books", `{"name":"Feria 2026"}`)
	if w.Code != http.StatusCreated {
		t.Fatalf("status = %d, want 201 (body: %s)", w.Code, w.Body.String())
	}

	env := decodeEnvelope(t, w)
	if !env.IsSuccess {
		t.Fatal("expected success envelope")
	}

	var book raffle.Book
	if err := json.Unmarshal(env.Data, &book); err != nil {
		t.Fatalf("failed to decode book: %v", err)
	}
	if book.ID == 0 || book.Name != "Feria 2026" {
		t.Errorf("book = %+v", book)
	}
}

func TestCreateBookRequiresName(t *testing.T) {
	app := newTestApp(t)

	w := doRequest(t, app, http.MethodPost, "/api/books", `{}`)
	if w.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", w.Code)
	}

	env := decodeEnvelope(t, w)
	if env.IsSuccess {
		t.Fatal("expected error envelope")
	}
	if env.Error.ErrorCode != errors.ErrInvalidRequest {
		t.Errorf("error code = %d, want %d", env.Error.ErrorCode, errors.ErrInvalidRequest)
	}
}

func createBookForTest(t *testing.T, app *App) (raffle.Book, []raffle.Ticket) {
	t.Helper()

	w := doRequest(t, app, http.MethodPost, "/api/books", `{"name":"book"}`)
	if w.Code != http.StatusCreated {
		t.Fatalf("create book status = %d", w.Code)
	}
	env := decodeEnvelope(t, w)
	var book raffle.Book
	if err := json.Unmarshal(env.Data, &book); err != nil {
		t.Fatalf("failed to decode book: %v", err)
	}

	w = doRequest(t, app, http.MethodGet, "/api/books/"+strconv.FormatInt(book.ID, 10), "")
	if w.Code != http.StatusOK {
		t.Fatalf("get book status = %d", w.Code)
	}
	env = decodeEnvelope(t, w)
	var view BookView
	if err := json.Unmarshal(env.Data, &view); err != nil {
		t.Fatalf("failed to decode book view: %v", err)
	}
	return book, view.Tickets
}

func TestTicketActionEndpoint(t *testing.T) {
	app := newTestApp(t)
	_, tickets := createBookForTest(t, app)

	path := "/api/tickets/" + strconv.FormatInt(tickets[7].ID, 10) + "/action"

	w := doRequest(t, app, http.MethodPost, path, `{"action":"assign_and_pay","name":"Ana"}`)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200 (body: %s)", w.Code, w.Body.String())
	}

	env := decodeEnvelope(t, w)
	var ticket raffle.Ticket
	if err := json.Unmarshal(env.Data, &ticket); err != nil {
		t.Fatalf("failed to decode ticket: %v", err)
	}
	if ticket.State != raffle.StatePaid || ticket.Assignee != "Ana" {
		t.Errorf("ticket = %+v", ticket)
	}

	w = doRequest(t, app, http.MethodPost, path, `{"action":"gift","name":"Ana"}`)
	if w.Code != http.StatusBadRequest {
		t.Fatalf("unknown action status = %d, want 400", w.Code)
	}
	env = decodeEnvelope(t, w)
	if env.Error.ErrorCode != errors.ErrInvalidAction {
		t.Errorf("error code = %d, want %d", env.Error.ErrorCode, errors.ErrInvalidAction)
	}
}

func TestTicketActionUnknownTicket(t *testing.T) {
	app := newTestApp(t)

	w := doRequest(t, app, http.MethodPost, "/api/tickets/424242/action", `{"action":"assign","name":"Ana"}`)
	if w.Code != http.StatusNotFound {
		t.Fatalf("status = %d, want 404", w.Code)
	}
}

func TestConfigurationEndpoints(t *testing.T) {
	app := newTestApp(t)

	w := doRequest(t, app, http.MethodGet, "/api/configuration", "")
	if w.Code != http.StatusOK {
		t.Fatalf("get status = %d, want 200", w.Code)
	}

	w = doRequest(t, app, http.MethodPut, "/api/configuration",
		`{"ticketPrice":0,"firstPercent":25,"middlePercent":10,"lastPercent":40}`)
	if w.Code != http.StatusBadRequest {
		t.Fatalf("invalid put status = %d, want 400 (body: %s)", w.Code, w.Body.String())
	}
	env := decodeEnvelope(t, w)
	if env.Error.ErrorCode != errors.ErrInvalidConfiguration {
		t.Errorf("error code = %d, want %d", env.Error.ErrorCode, errors.ErrInvalidConfiguration)
	}

	w = doRequest(t, app, http.MethodPut, "/api/configuration",
		`{"ticketPrice":250,"firstPercent":30,"middlePercent":20,"lastPercent":50}`)
	if w.Code != http.StatusOK {
		t.Fatalf("put status = %d, want 200 (body: %s)", w.Code, w.Body.String())
	}

	w = doRequest(t, app, http.MethodGet, "/api/configuration", "")
	env = decodeEnvelope(t, w)
	var settings raffle.Settings
	if err := json.Unmarshal(env.Data, &settings); err != nil {
		t.Fatalf("failed to decode settings: %v", err)
	}
	if settings.TicketPrice.String() != "250" {
		t.Errorf("ticket price = %s, want 250", settings.TicketPrice)
	}
}

func TestDrawAndSettlementEndpoints(t *testing.T) {
	app := newTestApp(t)
	book, tickets := createBookForTest(t, app)

	payPath := "/api/tickets/" + strconv.FormatInt(tickets[7].ID, 10) + "/action"
	if w := doRequest(t, app, http.MethodPost, payPath, `{"action":"assign_and_pay","name":"Ana"}`); w.Code != http.StatusOK {
		t.Fatalf("pay status = %d", w.Code)
	}

	drawPath := "/api/books/" + strconv.FormatInt(book.ID, 10) + "/draws"

	w := doRequest(t, app, http.MethodPost, drawPath, `{"winningNumber":"071"}`)
	if w.Code != http.StatusBadRequest {
		t.Fatalf("short number status = %d, want 400", w.Code)
	}

	w = doRequest(t, app, http.MethodPost, drawPath, `{"winningNumber":"0712"}`)
	if w.Code != http.StatusCreated {
		t.Fatalf("draw status = %d, want 201 (body: %s)", w.Code, w.Body.String())
	}
	env := decodeEnvelope(t, w)
	var draw raffle.Draw
	if err := json.Unmarshal(env.Data, &draw); err != nil {
		t.Fatalf("failed to decode draw: %v", err)
	}

	w = doRequest(t, app, http.MethodGet, drawPath, "")
	if w.Code != http.StatusOK {
		t.Fatalf("list draws status = %d, want 200", w.Code)
	}

	w = doRequest(t, app, http.MethodGet, "/api/draws/"+strconv.FormatInt(draw.ID, 10)+"/settlement", "")
	if w.Code != http.StatusOK {
		t.Fatalf("settlement status = %d, want 200 (body: %s)", w.Code, w.Body.String())
	}
	env = decodeEnvelope(t, w)
	var report raffle.SettlementReport
	if err := json.Unmarshal(env.Data, &report); err != nil {
		t.Fatalf("failed to decode report: %v", err)
	}
	if report.WinningNumber != "0712" || len(report.Windows) != 3 {
		t.Errorf("report = %+v", report)
	}
	if len(report.Windows[0].Winners) != 1 || report.Windows[0].Winners[0].Assignee != "Ana" {
		t.Errorf("first window = %+v", report.Windows[0])
	}
}
