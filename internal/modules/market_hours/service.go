// Package market_hours answers market-status questions (is an exchange open,
// when does it next open, which markets are open) on top of the calendar
// resolver and the exchange registry.
package market_hours

import (
	"fmt"
	"time"

	"github.com/aristath/tradingcal/internal/modules/calendar"
	"github.com/aristath/tradingcal/internal/modules/exchanges"
	"github.com/golang-sql/civil"
	"github.com/rs/zerolog"
)

// nextSessionHorizonDays bounds the search for the next session
const nextSessionHorizonDays = 14

// MarketHoursService provides market hours checking functionality
type MarketHoursService struct {
	registry *exchanges.Registry
	resolver *calendar.Resolver
	log      zerolog.Logger
}

// NewMarketHoursService creates a new market hours service
func NewMarketHoursService(registry *exchanges.Registry, resolver *calendar.Resolver, log zerolog.Logger) *MarketHoursService {
	return &MarketHoursService{
		registry: registry,
		resolver: resolver,
		log:      log.With().Str("service", "market_hours").Logger(),
	}
}

// Codes returns every configured exchange code
func (s *MarketHoursService) Codes() []string {
	return s.registry.Codes()
}

// Code resolves an exchange code or alias to its canonical code
func (s *MarketHoursService) Code(exchangeName string) (string, error) {
	return s.registry.Code(exchangeName)
}

// IsMarketOpen checks if a market is open for trading at t.
// Unknown exchanges are reported closed.
func (s *MarketHoursService) IsMarketOpen(exchangeName string, t time.Time) bool {
	p, err := s.registry.Lookup(exchangeName)
	if err != nil {
		return false
	}
	session, ok := s.sessionAt(p, t)
	return ok && session.Contains(t)
}

// sessionAt returns the session on the exchange-local date of t
func (s *MarketHoursService) sessionAt(p *calendar.Profile, t time.Time) (calendar.Session, bool) {
	return s.resolver.SessionOn(p, civil.DateOf(t.In(p.Location())))
}

// ShouldCheckMarketHours determines if market hours check is required for a trade
// Rules:
// - SELL orders: Always check market hours (all markets)
// - BUY orders: Only check if exchange requires strict market hours
func (s *MarketHoursService) ShouldCheckMarketHours(exchangeName, side string) bool {
	if side == "BUY" {
		return s.RequiresStrictMarketHours(exchangeName)
	}
	// SELL and unknown sides are always checked
	return true
}

// RequiresStrictMarketHours checks if an exchange requires strict market hours
func (s *MarketHoursService) RequiresStrictMarketHours(exchangeName string) bool {
	policy, err := s.registry.Policy(exchangeName)
	if err != nil {
		return false
	}
	return policy.StrictHours
}

// GetOpenMarkets returns the codes of exchanges open at t
func (s *MarketHoursService) GetOpenMarkets(t time.Time) []string {
	openMarkets := make([]string, 0)
	for _, code := range s.registry.Codes() {
		if s.IsMarketOpen(code, t) {
			openMarkets = append(openMarkets, code)
		}
	}
	return openMarkets
}

// GetMarketStatus returns detailed status for a market
func (s *MarketHoursService) GetMarketStatus(exchangeName string, t time.Time) (*MarketStatus, error) {
	p, err := s.registry.Lookup(exchangeName)
	if err != nil {
		return nil, err
	}

	loc := p.Location()
	status := &MarketStatus{
		Exchange: p.Code(),
		Name:     p.Name(),
		Timezone: loc.String(),
	}

	if session, ok := s.sessionAt(p, t); ok && session.Contains(t) {
		status.Open = true
		status.ClosesAt = session.Close.In(loc).Format("15:04")
		status.EarlyClose = session.SpecialClose
		return status, nil
	}

	next, ok := s.resolver.NextSession(p, t, nextSessionHorizonDays)
	if !ok {
		s.log.Warn().
			Str("exchange", p.Code()).
			Int("horizon_days", nextSessionHorizonDays).
			Msg("No trading session within horizon")
		return status, nil
	}
	status.OpensAt = next.Open.In(loc).Format("15:04")
	if next.Date != civil.DateOf(t.In(loc)) {
		status.OpensDate = next.Date.String()
	}
	return status, nil
}

// NextSession returns the first session of the exchange that has not closed by t
func (s *MarketHoursService) NextSession(exchangeName string, t time.Time) (*calendar.Session, error) {
	p, err := s.registry.Lookup(exchangeName)
	if err != nil {
		return nil, err
	}
	session, ok := s.resolver.NextSession(p, t, nextSessionHorizonDays)
	if !ok {
		return nil, fmt.Errorf("no %s session within %d days of %s", p.Code(), nextSessionHorizonDays, t.Format(time.RFC3339))
	}
	return &session, nil
}

// Schedule resolves the trading schedule of an exchange over [start, end]
func (s *MarketHoursService) Schedule(exchangeName string, start, end civil.Date) (*calendar.Schedule, error) {
	p, err := s.registry.Lookup(exchangeName)
	if err != nil {
		return nil, err
	}
	return s.resolver.Resolve(p, start, end), nil
}

// Holidays lists the named full closures of an exchange in year
func (s *MarketHoursService) Holidays(exchangeName string, year int) ([]calendar.Holiday, error) {
	p, err := s.registry.Lookup(exchangeName)
	if err != nil {
		return nil, err
	}
	start := civil.Date{Year: year, Month: time.January, Day: 1}
	end := civil.Date{Year: year, Month: time.December, Day: 31}
	return s.resolver.Holidays(p, start, end), nil
}

// Exchanges describes every configured exchange
func (s *MarketHoursService) Exchanges() []ExchangeInfo {
	profiles := s.registry.Profiles()
	infos := make([]ExchangeInfo, 0, len(profiles))
	for _, p := range profiles {
		policy, _ := s.registry.Policy(p.Code())
		infos = append(infos, ExchangeInfo{
			Code:        p.Code(),
			Name:        p.Name(),
			Aliases:     p.Aliases(),
			Timezone:    p.Location().String(),
			Open:        formatClock(p.Open()),
			Close:       formatClock(p.Close()),
			TradingDays: p.TradingWeekdays().String(),
			StrictHours: policy.StrictHours,
		})
	}
	return infos
}

func formatClock(t civil.Time) string {
	return fmt.Sprintf("%02d:%02d", t.Hour, t.Minute)
}
