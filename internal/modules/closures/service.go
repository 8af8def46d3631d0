package closures

import (
	"fmt"
	"reflect"
	"strings"
	"time"

	"github.com/aristath/tradingcal/internal/modules/calendar"
	"github.com/aristath/tradingcal/internal/modules/exchanges"
	"github.com/go-playground/validator/v10"
	"github.com/golang-sql/civil"
	"github.com/rs/zerolog"
)

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(field reflect.StructField) string {
		return strings.SplitN(field.Tag.Get("json"), ",", 2)[0]
	})
	return v
}

// Service validates closures against the registry and keeps the registry's
// ad hoc overlays in sync with the stored rows.
type Service struct {
	repo     *Repository
	registry *exchanges.Registry
	log      zerolog.Logger
}

// NewService creates a new closures service
func NewService(repo *Repository, registry *exchanges.Registry, log zerolog.Logger) *Service {
	return &Service{
		repo:     repo,
		registry: registry,
		log:      log.With().Str("service", "closures").Logger(),
	}
}

// Create validates req, stores it and reloads the registry overlays
func (s *Service) Create(req CreateRequest) (*Closure, error) {
	if err := validate.Struct(req); err != nil {
		return nil, fmt.Errorf("%w: %s", ErrInvalidClosure, exchanges.FormatValidationErrors(err))
	}

	code, err := s.registry.Code(req.Exchange)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidClosure, err)
	}

	d, err := civil.ParseDate(req.Date)
	if err != nil {
		return nil, fmt.Errorf("%w: date: %v", ErrInvalidClosure, err)
	}

	switch req.Kind {
	case KindClosed:
		if req.Time != "" {
			return nil, fmt.Errorf("%w: time must be empty for kind closed", ErrInvalidClosure)
		}
	default:
		if req.Time == "" {
			return nil, fmt.Errorf("%w: time is required for kind %s", ErrInvalidClosure, req.Kind)
		}
		p, err := s.registry.Lookup(code)
		if err != nil {
			return nil, err
		}
		if err := checkSessionTime(p, req.Kind, req.Time); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrInvalidClosure, err)
		}
	}

	c := &Closure{
		Exchange: code,
		Date:     d,
		Kind:     req.Kind,
		Time:     req.Time,
		Reason:   strings.TrimSpace(req.Reason),
	}
	if err := s.repo.Create(c); err != nil {
		return nil, err
	}
	if err := s.Reload(); err != nil {
		return nil, err
	}
	return c, nil
}

// Delete removes a closure and reloads the registry overlays
func (s *Service) Delete(id string) error {
	if err := s.repo.Delete(id); err != nil {
		return err
	}
	return s.Reload()
}

// List returns stored closures, optionally for one exchange code or alias
func (s *Service) List(exchange string) ([]Closure, error) {
	if exchange == "" {
		return s.repo.List("")
	}
	code, err := s.registry.Code(exchange)
	if err != nil {
		return nil, err
	}
	return s.repo.List(code)
}

// Reload rebuilds the overlays from storage and swaps them into the registry.
// Stored rows that no longer fit the registry, such as closures of an exchange
// removed from the definitions, are skipped with a warning.
func (s *Service) Reload() error {
	rows, err := s.repo.List("")
	if err != nil {
		return err
	}

	usable := make([]Closure, 0, len(rows))
	for _, c := range rows {
		if err := s.checkStored(c); err != nil {
			s.warnSkipped(c, err)
			continue
		}
		usable = append(usable, c)
	}

	overlays, invalid := BuildOverlays(usable)
	for _, c := range usable {
		if err, ok := invalid[c.ID]; ok {
			s.warnSkipped(c, err)
		}
	}
	for name, err := range s.registry.ApplyOverlays(overlays) {
		s.log.Warn().Err(err).Str("exchange", name).Msg("Ad hoc closures of exchange not applied")
	}

	s.log.Debug().
		Int("closures", len(rows)).
		Int("skipped", len(rows)-len(usable)+len(invalid)).
		Int("exchanges", len(overlays)).
		Msg("Ad hoc closures reloaded")
	return nil
}

// checkStored verifies a stored row against the current registry
func (s *Service) checkStored(c Closure) error {
	p, err := s.registry.Lookup(c.Exchange)
	if err != nil {
		return err
	}
	if c.Kind == KindClosed {
		return nil
	}
	return checkSessionTime(p, c.Kind, c.Time)
}

func (s *Service) warnSkipped(c Closure, err error) {
	s.log.Warn().
		Err(err).
		Str("id", c.ID).
		Str("exchange", c.Exchange).
		Str("date", c.Date.String()).
		Str("kind", string(c.Kind)).
		Msg("Stored closure skipped")
}

// checkSessionTime requires an early close or late open to fall strictly
// inside the default session of p
func checkSessionTime(p *calendar.Profile, kind Kind, clock string) error {
	at, err := parseClock(clock)
	if err != nil {
		return err
	}
	if minuteOfDay(at) <= minuteOfDay(p.Open()) || minuteOfDay(at) >= minuteOfDay(p.Close()) {
		return fmt.Errorf("%s at %s is outside the %s session %02d:%02d-%02d:%02d",
			strings.ReplaceAll(string(kind), "_", " "), clock, p.Code(),
			p.Open().Hour, p.Open().Minute, p.Close().Hour, p.Close().Minute)
	}
	return nil
}

func minuteOfDay(t civil.Time) int {
	return t.Hour*60 + t.Minute
}

func parseClock(s string) (civil.Time, error) {
	at, err := time.Parse("15:04", s)
	if err != nil {
		return civil.Time{}, fmt.Errorf("invalid time %q, want HH:MM", s)
	}
	return civil.Time{Hour: at.Hour(), Minute: at.Minute()}, nil
}

// BuildOverlays groups closures per exchange into calendar overlays. Every
// early close or late open becomes its own single-date override. Rows that
// cannot be converted are left out and returned in invalid, keyed by ID.
func BuildOverlays(rows []Closure) (overlays map[string]calendar.AdHocOverlay, invalid map[string]error) {
	overlays = make(map[string]calendar.AdHocOverlay)
	invalid = make(map[string]error)
	for _, c := range rows {
		overlay := overlays[c.Exchange]
		switch c.Kind {
		case KindClosed:
			if overlay.Closures == nil {
				overlay.Closures = calendar.NewDateSet()
			}
			overlay.Closures.Add(c.Date)
		case KindEarlyClose, KindLateOpen:
			override, err := sessionOverride(c)
			if err != nil {
				invalid[c.ID] = err
				continue
			}
			if c.Kind == KindEarlyClose {
				overlay.Closes = append(overlay.Closes, override)
			} else {
				overlay.Opens = append(overlay.Opens, override)
			}
		default:
			invalid[c.ID] = fmt.Errorf("closure %s has unknown kind %q", c.ID, c.Kind)
			continue
		}
		overlays[c.Exchange] = overlay
	}
	return overlays, invalid
}

func sessionOverride(c Closure) (calendar.SessionOverride, error) {
	at, err := parseClock(c.Time)
	if err != nil {
		return calendar.SessionOverride{}, fmt.Errorf("closure %s: %w", c.ID, err)
	}

	name := "Ad hoc " + strings.ReplaceAll(string(c.Kind), "_", " ")
	if c.Reason != "" {
		name += ": " + c.Reason
	}
	rules, err := calendar.NewRuleSetBuilder(name).
		AdHoc(name, []civil.Date{c.Date}).
		Build()
	if err != nil {
		return calendar.SessionOverride{}, fmt.Errorf("closure %s: %w", c.ID, err)
	}
	return calendar.SessionOverride{
		Name:  name,
		Time:  at,
		Rules: rules,
	}, nil
}
