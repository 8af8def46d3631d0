package calendar

import (
	"time"

	"github.com/golang-sql/civil"
)

// SessionOverride moves the open or close of the session to Time on every
// date resolved by Rules.
type SessionOverride struct {
	Name  string
	Time  civil.Time
	Rules *RuleSet
}

// ProfileConfig is the plain data describing one exchange
type ProfileConfig struct {
	Code            string
	Name            string
	Aliases         []string
	Location        *time.Location
	Open            civil.Time
	Close           civil.Time
	TradingWeekdays WeekdaySet // Monday to Friday when empty
	RegularHolidays *RuleSet
	AdHocClosures   DateSet
	SpecialCloses   []SessionOverride // earlier entries win on conflicts
	SpecialOpens    []SessionOverride // earlier entries win on conflicts
}

// Profile is the validated, immutable form of ProfileConfig
type Profile struct {
	code          string
	name          string
	aliases       []string
	location      *time.Location
	open          civil.Time
	close         civil.Time
	weekdays      WeekdaySet
	holidays      *RuleSet
	adHocClosures DateSet
	specialCloses []SessionOverride
	specialOpens  []SessionOverride
}

// AdHocOverlay carries exception data maintained outside the rule tables
type AdHocOverlay struct {
	Closures DateSet
	Closes   []SessionOverride
	Opens    []SessionOverride
}

// NewProfile validates cfg and copies it into an immutable profile
func NewProfile(cfg ProfileConfig) (*Profile, error) {
	if cfg.Code == "" {
		return nil, configErrorf(cfg.Name, "profile without a code")
	}
	if cfg.Location == nil {
		return nil, configErrorf(cfg.Code, "profile without a time zone")
	}
	if !cfg.Open.IsValid() || !cfg.Close.IsValid() {
		return nil, configErrorf(cfg.Code, "invalid default session %s-%s", cfg.Open, cfg.Close)
	}
	if !clockBefore(cfg.Open, cfg.Close) {
		return nil, configErrorf(cfg.Code, "default open %s is not before close %s", cfg.Open, cfg.Close)
	}

	closes, err := copyOverrides(cfg.Code, SpecialClose, cfg.SpecialCloses, cfg.Open, cfg.Close)
	if err != nil {
		return nil, err
	}
	opens, err := copyOverrides(cfg.Code, SpecialOpen, cfg.SpecialOpens, cfg.Open, cfg.Close)
	if err != nil {
		return nil, err
	}

	weekdays := cfg.TradingWeekdays
	if weekdays.Empty() {
		weekdays = MondayToFriday
	}
	name := cfg.Name
	if name == "" {
		name = cfg.Code
	}
	return &Profile{
		code:          cfg.Code,
		name:          name,
		aliases:       append([]string(nil), cfg.Aliases...),
		location:      cfg.Location,
		open:          cfg.Open,
		close:         cfg.Close,
		weekdays:      weekdays,
		holidays:      cfg.RegularHolidays,
		adHocClosures: cfg.AdHocClosures.Clone(),
		specialCloses: closes,
		specialOpens:  opens,
	}, nil
}

// copyOverrides validates overrides against the default session: a special
// close must fall after dayOpen and a special open before dayClose.
func copyOverrides(code string, kind OverrideKind, in []SessionOverride, dayOpen, dayClose civil.Time) ([]SessionOverride, error) {
	out := make([]SessionOverride, 0, len(in))
	for i, o := range in {
		if o.Rules == nil {
			return nil, configErrorf(code, "special %s %d has no rule set", kind, i)
		}
		if !o.Time.IsValid() {
			return nil, configErrorf(code, "special %s %q has invalid time %s", kind, o.Name, o.Time)
		}
		if o.Name == "" {
			o.Name = o.Rules.Name()
		}
		switch kind {
		case SpecialClose:
			if !clockBefore(dayOpen, o.Time) {
				return nil, configErrorf(code, "special close %q at %s is not after the open at %s",
					o.Name, formatClock(o.Time), formatClock(dayOpen))
			}
		case SpecialOpen:
			if !clockBefore(o.Time, dayClose) {
				return nil, configErrorf(code, "special open %q at %s is not before the close at %s",
					o.Name, formatClock(o.Time), formatClock(dayClose))
			}
		}
		out = append(out, o)
	}
	return out, nil
}

// WithAdHoc returns a copy of p with overlay merged in. Closures are unioned
// with the existing ones; overlay overrides rank after the declared ones.
func (p *Profile) WithAdHoc(overlay AdHocOverlay) (*Profile, error) {
	closes, err := copyOverrides(p.code, SpecialClose, overlay.Closes, p.open, p.close)
	if err != nil {
		return nil, err
	}
	opens, err := copyOverrides(p.code, SpecialOpen, overlay.Opens, p.open, p.close)
	if err != nil {
		return nil, err
	}

	cp := *p
	cp.aliases = append([]string(nil), p.aliases...)
	cp.adHocClosures = p.adHocClosures.Union(overlay.Closures)
	cp.specialCloses = append(append([]SessionOverride(nil), p.specialCloses...), closes...)
	cp.specialOpens = append(append([]SessionOverride(nil), p.specialOpens...), opens...)
	return &cp, nil
}

// Code returns the exchange code (e.g. XSTO)
func (p *Profile) Code() string { return p.code }

// Name returns the display name
func (p *Profile) Name() string { return p.name }

// Aliases returns alternative lookup names
func (p *Profile) Aliases() []string { return append([]string(nil), p.aliases...) }

// Location returns the exchange time zone
func (p *Profile) Location() *time.Location { return p.location }

// Open returns the default local opening time
func (p *Profile) Open() civil.Time { return p.open }

// Close returns the default local closing time
func (p *Profile) Close() civil.Time { return p.close }

// TradingWeekdays returns the days of the regular trading week
func (p *Profile) TradingWeekdays() WeekdaySet { return p.weekdays }

// RegularHolidays returns the full-closure rule set
func (p *Profile) RegularHolidays() *RuleSet { return p.holidays }

// AdHocClosures returns a copy of the extra closure dates
func (p *Profile) AdHocClosures() DateSet { return p.adHocClosures.Clone() }

// SpecialCloses returns the early close overrides in precedence order
func (p *Profile) SpecialCloses() []SessionOverride {
	return append([]SessionOverride(nil), p.specialCloses...)
}

// SpecialOpens returns the late open overrides in precedence order
func (p *Profile) SpecialOpens() []SessionOverride {
	return append([]SessionOverride(nil), p.specialOpens...)
}

// wallClock converts a local date and time to an instant using the offset in
// effect in loc on that date.
func wallClock(d civil.Date, t civil.Time, loc *time.Location) time.Time {
	return time.Date(d.Year, d.Month, d.Day, t.Hour, t.Minute, t.Second, t.Nanosecond, loc)
}

func clockBefore(a, b civil.Time) bool {
	return wallClock(civil.Date{Year: 2000, Month: 1, Day: 1}, a, time.UTC).
		Before(wallClock(civil.Date{Year: 2000, Month: 1, Day: 1}, b, time.UTC))
}
