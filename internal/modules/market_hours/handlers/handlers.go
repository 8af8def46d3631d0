// Package handlers provides HTTP handlers for market hours operations.
package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/aristath/tradingcal/internal/modules/calendar"
	"github.com/aristath/tradingcal/internal/modules/closures"
	"github.com/aristath/tradingcal/internal/modules/exchanges"
	"github.com/aristath/tradingcal/internal/modules/market_hours"
	"github.com/golang-sql/civil"
	"github.com/rs/zerolog"
	"github.com/vmihailenco/msgpack/v5"
)

const msgpackContentType = "application/msgpack"

// Handler handles market hours HTTP requests
type Handler struct {
	service      *market_hours.MarketHoursService
	closures     *closures.Service
	maxRangeDays int
	now          func() time.Time
	log          zerolog.Logger
}

// NewHandler creates a new market hours handler. closureService may be nil,
// in which case the closure routes are not registered.
func NewHandler(
	service *market_hours.MarketHoursService,
	closureService *closures.Service,
	maxRangeDays int,
	log zerolog.Logger,
) *Handler {
	return &Handler{
		service:      service,
		closures:     closureService,
		maxRangeDays: maxRangeDays,
		now:          time.Now,
		log:          log.With().Str("handler", "market_hours").Logger(),
	}
}

// requestTime returns the instant named by the optional "at" query
// parameter (RFC 3339), or the current time.
func (h *Handler) requestTime(r *http.Request) (time.Time, error) {
	at := r.URL.Query().Get("at")
	if at == "" {
		return h.now(), nil
	}
	t, err := time.Parse(time.RFC3339, at)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid at parameter %q: expected RFC 3339", at)
	}
	return t, nil
}

// HandleGetStatus handles GET /api/market-hours/status
// Returns current market status for all configured exchanges
func (h *Handler) HandleGetStatus(w http.ResponseWriter, r *http.Request) {
	now, err := h.requestTime(r)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	codes := h.service.Codes()
	markets := make([]*market_hours.MarketStatus, 0, len(codes))
	for _, code := range codes {
		status, err := h.service.GetMarketStatus(code, now)
		if err != nil {
			h.log.Warn().Err(err).Str("exchange", code).Msg("Failed to get market status")
			continue
		}
		markets = append(markets, status)
	}

	h.writeJSON(w, http.StatusOK, envelope(map[string]interface{}{
		"timestamp": now.Format(time.RFC3339),
		"markets":   markets,
	}))
}

// HandleGetStatusByExchange handles GET /api/market-hours/status/{exchange}
// Returns current market status for a specific exchange
func (h *Handler) HandleGetStatusByExchange(w http.ResponseWriter, r *http.Request, exchange string) {
	now, err := h.requestTime(r)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	status, err := h.service.GetMarketStatus(exchange, now)
	if err != nil {
		h.writeError(w, err, "Failed to get market status")
		return
	}

	h.writeJSON(w, http.StatusOK, envelope(status))
}

// HandleGetOpenMarkets handles GET /api/market-hours/open-markets
// Returns list of currently open exchanges
func (h *Handler) HandleGetOpenMarkets(w http.ResponseWriter, r *http.Request) {
	now, err := h.requestTime(r)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	openMarkets := h.service.GetOpenMarkets(now)

	h.writeJSON(w, http.StatusOK, envelope(map[string]interface{}{
		"timestamp":    now.Format(time.RFC3339),
		"open_markets": openMarkets,
		"count":        len(openMarkets),
	}))
}

// HandleGetHolidays handles GET /api/market-hours/holidays
// Returns the named closures of one or all exchanges in a year
func (h *Handler) HandleGetHolidays(w http.ResponseWriter, r *http.Request) {
	// Get year from query param, default to current year
	year := h.now().Year()
	if yearStr := r.URL.Query().Get("year"); yearStr != "" {
		parsedYear, err := strconv.Atoi(yearStr)
		if err != nil || parsedYear <= 0 || parsedYear > 9999 {
			http.Error(w, "invalid year parameter", http.StatusBadRequest)
			return
		}
		year = parsedYear
	}

	// Get exchange from query param, default to all exchanges
	exchangesToCheck := h.service.Codes()
	if exchange := r.URL.Query().Get("exchange"); exchange != "" {
		exchangesToCheck = []string{exchange}
	}

	holidaysByExchange := make(map[string][]calendar.Holiday, len(exchangesToCheck))
	for _, name := range exchangesToCheck {
		holidays, err := h.service.Holidays(name, year)
		if err != nil {
			h.writeError(w, err, "Failed to list holidays")
			return
		}
		code, err := h.service.Code(name)
		if err != nil {
			h.writeError(w, err, "Failed to list holidays")
			return
		}
		holidaysByExchange[code] = holidays
	}

	h.writeJSON(w, http.StatusOK, envelope(map[string]interface{}{
		"year":     year,
		"holidays": holidaysByExchange,
	}))
}

// HandleValidateTradingWindow handles GET /api/market-hours/validate-trading-window
// Checks if an order on an exchange can be placed now
func (h *Handler) HandleValidateTradingWindow(w http.ResponseWriter, r *http.Request) {
	side := r.URL.Query().Get("side")
	exchange := r.URL.Query().Get("exchange")

	if side == "" {
		http.Error(w, "side parameter is required", http.StatusBadRequest)
		return
	}
	if exchange == "" {
		http.Error(w, "exchange parameter is required", http.StatusBadRequest)
		return
	}

	now, err := h.requestTime(r)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	// Unknown exchanges are rejected rather than reported closed
	if _, err := h.service.Code(exchange); err != nil {
		h.writeError(w, err, "Failed to validate trading window")
		return
	}

	isOpen := h.service.IsMarketOpen(exchange, now)
	shouldCheck := h.service.ShouldCheckMarketHours(exchange, side)

	h.writeJSON(w, http.StatusOK, envelope(map[string]interface{}{
		"side":                  side,
		"exchange":              exchange,
		"can_trade":             !shouldCheck || isOpen,
		"market_open":           isOpen,
		"requires_market_hours": shouldCheck,
		"checked_at":            now.Format(time.RFC3339),
	}))
}

// HandleGetSchedule handles GET /api/market-hours/schedule/{exchange}?start=&end=
// Returns the trading sessions of an exchange over an inclusive date range.
// format=msgpack switches the body to MessagePack.
func (h *Handler) HandleGetSchedule(w http.ResponseWriter, r *http.Request, exchange string) {
	start, err := parseDateParam(r, "start")
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	end, err := parseDateParam(r, "end")
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	if days := end.DaysSince(start); days > h.maxRangeDays {
		http.Error(w, fmt.Sprintf("range of %d days exceeds the maximum of %d", days, h.maxRangeDays), http.StatusBadRequest)
		return
	}

	schedule, err := h.service.Schedule(exchange, start, end)
	if err != nil {
		h.writeError(w, err, "Failed to resolve schedule")
		return
	}
	if len(schedule.Conflicts) > 0 {
		h.log.Debug().
			Str("exchange", schedule.Exchange).
			Int("conflicts", len(schedule.Conflicts)).
			Msg("Schedule has override conflicts")
	}

	switch format := r.URL.Query().Get("format"); format {
	case "", "json":
		h.writeJSON(w, http.StatusOK, envelope(schedule))
	case "msgpack":
		h.writeMsgpack(w, http.StatusOK, envelope(schedule))
	default:
		http.Error(w, fmt.Sprintf("unsupported format %q", format), http.StatusBadRequest)
	}
}

// HandleGetExchanges handles GET /api/market-hours/exchanges
func (h *Handler) HandleGetExchanges(w http.ResponseWriter, r *http.Request) {
	h.writeJSON(w, http.StatusOK, envelope(h.service.Exchanges()))
}

// HandleListClosures handles GET /api/market-hours/closures[?exchange=]
func (h *Handler) HandleListClosures(w http.ResponseWriter, r *http.Request) {
	rows, err := h.closures.List(r.URL.Query().Get("exchange"))
	if err != nil {
		h.writeError(w, err, "Failed to list closures")
		return
	}
	h.writeJSON(w, http.StatusOK, envelope(rows))
}

// HandleCreateClosure handles POST /api/market-hours/closures
func (h *Handler) HandleCreateClosure(w http.ResponseWriter, r *http.Request) {
	var req closures.CreateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}

	closure, err := h.closures.Create(req)
	if err != nil {
		h.writeError(w, err, "Failed to create closure")
		return
	}

	h.log.Info().
		Str("id", closure.ID).
		Str("exchange", closure.Exchange).
		Str("date", closure.Date.String()).
		Str("kind", string(closure.Kind)).
		Msg("Ad hoc closure created")
	h.writeJSON(w, http.StatusCreated, envelope(closure))
}

// HandleDeleteClosure handles DELETE /api/market-hours/closures/{id}
func (h *Handler) HandleDeleteClosure(w http.ResponseWriter, r *http.Request, id string) {
	if err := h.closures.Delete(id); err != nil {
		h.writeError(w, err, "Failed to delete closure")
		return
	}
	h.log.Info().Str("id", id).Msg("Ad hoc closure deleted")
	w.WriteHeader(http.StatusNoContent)
}

func parseDateParam(r *http.Request, name string) (civil.Date, error) {
	value := r.URL.Query().Get(name)
	if value == "" {
		return civil.Date{}, fmt.Errorf("%s parameter is required", name)
	}
	d, err := civil.ParseDate(value)
	if err != nil {
		return civil.Date{}, fmt.Errorf("invalid %s parameter %q: expected YYYY-MM-DD", name, value)
	}
	return d, nil
}

func envelope(data interface{}) map[string]interface{} {
	return map[string]interface{}{
		"data": data,
		"metadata": map[string]interface{}{
			"timestamp": time.Now().Format(time.RFC3339),
		},
	}
}

// writeError maps service errors to HTTP status codes
func (h *Handler) writeError(w http.ResponseWriter, err error, msg string) {
	switch {
	case errors.Is(err, closures.ErrInvalidClosure):
		http.Error(w, err.Error(), http.StatusBadRequest)
	case errors.Is(err, exchanges.ErrUnknownExchange), errors.Is(err, closures.ErrNotFound):
		http.Error(w, err.Error(), http.StatusNotFound)
	case errors.Is(err, closures.ErrDuplicate):
		http.Error(w, err.Error(), http.StatusConflict)
	default:
		h.log.Error().Err(err).Msg(msg)
		http.Error(w, msg, http.StatusInternalServerError)
	}
}

// writeJSON writes a JSON response
func (h *Handler) writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	if err := json.NewEncoder(w).Encode(data); err != nil {
		h.log.Error().Err(err).Msg("Failed to encode JSON response")
	}
}

// writeMsgpack writes a MessagePack response using the json field names
func (h *Handler) writeMsgpack(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", msgpackContentType)
	w.WriteHeader(status)

	enc := msgpack.NewEncoder(w)
	enc.SetCustomStructTag("json")
	if err := enc.Encode(data); err != nil {
		h.log.Error().Err(err).Msg("Failed to encode msgpack response")
	}
}
