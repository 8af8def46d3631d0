package calendar

import (
	"time"

	"github.com/golang-sql/civil"
	"github.com/rs/zerolog"
)

// AdHocClosureName labels closures that come from the ad hoc closure set
const AdHocClosureName = "Ad hoc closure"

// Diagnostic names of the default session bounds
const (
	regularOpen  = "regular open"
	regularClose = "regular close"
)

// Session is one trading day of a schedule
type Session struct {
	Date         civil.Date `json:"date" msgpack:"date"`
	Open         time.Time  `json:"open" msgpack:"open"`
	Close        time.Time  `json:"close" msgpack:"close"`
	SpecialOpen  bool       `json:"special_open,omitempty" msgpack:"special_open,omitempty"`
	SpecialClose bool       `json:"special_close,omitempty" msgpack:"special_close,omitempty"`
}

// Contains reports whether t is within [Open, Close)
func (s Session) Contains(t time.Time) bool {
	return !t.Before(s.Open) && t.Before(s.Close)
}

// Schedule is the ordered list of trading sessions of an exchange over a
// date range, plus any override conflicts detected while building it.
type Schedule struct {
	Exchange  string             `json:"exchange" msgpack:"exchange"`
	Start     civil.Date         `json:"start" msgpack:"start"`
	End       civil.Date         `json:"end" msgpack:"end"`
	Sessions  []Session          `json:"sessions" msgpack:"sessions"`
	Conflicts []OverrideConflict `json:"conflicts,omitempty" msgpack:"conflicts,omitempty"`
}

// Lookup returns the session on d
func (s *Schedule) Lookup(d civil.Date) (Session, bool) {
	for _, session := range s.Sessions {
		if session.Date == d {
			return session, true
		}
	}
	return Session{}, false
}

// Dates returns the trading dates in order
func (s *Schedule) Dates() []civil.Date {
	dates := make([]civil.Date, len(s.Sessions))
	for i, session := range s.Sessions {
		dates[i] = session.Date
	}
	return dates
}

// Resolver composes exchange profiles into trading schedules. It keeps no
// per-call state and is safe for concurrent use.
type Resolver struct {
	cache *Cache
	log   zerolog.Logger
}

// NewResolver creates a resolver. cache may be nil to disable memoisation.
func NewResolver(cache *Cache, log zerolog.Logger) *Resolver {
	return &Resolver{
		cache: cache,
		log:   log.With().Str("component", "calendar_resolver").Logger(),
	}
}

// datesIn resolves rs over the year range; the result must not be modified
func (r *Resolver) datesIn(rs *RuleSet, startYear, endYear int) DateSet {
	if r.cache != nil {
		return r.cache.shared(rs, startYear, endYear)
	}
	return rs.DatesIn(startYear, endYear)
}

// overrideDates resolves each override's rule set over the year range
func (r *Resolver) overrideDates(overrides []SessionOverride, startYear, endYear int) []DateSet {
	sets := make([]DateSet, len(overrides))
	for i, o := range overrides {
		sets[i] = r.datesIn(o.Rules, startYear, endYear)
	}
	return sets
}

// Resolve builds the trading schedule of p for every date in [start, end].
// A reversed range yields an empty schedule.
func (r *Resolver) Resolve(p *Profile, start, end civil.Date) *Schedule {
	schedule := &Schedule{
		Exchange: p.code,
		Start:    start,
		End:      end,
		Sessions: []Session{},
	}
	if end.Before(start) {
		return schedule
	}

	// Rolled and Easter-offset dates can cross a year boundary
	startYear, endYear := start.Year-1, end.Year+1

	holidays := r.datesIn(p.holidays, startYear, endYear)
	closeSets := r.overrideDates(p.specialCloses, startYear, endYear)
	openSets := r.overrideDates(p.specialOpens, startYear, endYear)

	for d := start; !d.After(end); d = d.AddDays(1) {
		if holidays.Contains(d) || p.adHocClosures.Contains(d) {
			continue
		}
		if !p.weekdays.Contains(WeekdayOf(d)) {
			continue
		}

		session := Session{
			Date:  d,
			Open:  wallClock(d, p.open, p.location),
			Close: wallClock(d, p.close, p.location),
		}

		openBy, openAt := regularOpen, p.open
		closeBy, closeAt := regularClose, p.close
		if o, ok := r.pickOverride(schedule, d, SpecialClose, p.specialCloses, closeSets); ok {
			session.Close = wallClock(d, o.Time, p.location)
			session.SpecialClose = true
			closeBy, closeAt = o.Name, o.Time
		}
		if o, ok := r.pickOverride(schedule, d, SpecialOpen, p.specialOpens, openSets); ok {
			session.Open = wallClock(d, o.Time, p.location)
			session.SpecialOpen = true
			openBy, openAt = o.Name, o.Time
		}

		// A late open and an early close on the same day can leave no trading time
		if !session.Open.Before(session.Close) {
			schedule.Conflicts = append(schedule.Conflicts, OverrideConflict{
				Date:       d,
				Kind:       InvertedSession,
				Winner:     openBy,
				Loser:      closeBy,
				WinnerTime: openAt,
				LoserTime:  closeAt,
			})
			r.log.Warn().
				Str("exchange", p.code).
				Str("date", d.String()).
				Str("open", openBy).
				Str("close", closeBy).
				Msg("Session overrides leave no trading time, date skipped")
			continue
		}

		schedule.Sessions = append(schedule.Sessions, session)
	}

	r.log.Debug().
		Str("exchange", p.code).
		Str("start", start.String()).
		Str("end", end.String()).
		Int("sessions", len(schedule.Sessions)).
		Int("conflicts", len(schedule.Conflicts)).
		Msg("Resolved trading schedule")

	return schedule
}

// pickOverride returns the first override matching d and records a conflict
// for every later one.
func (r *Resolver) pickOverride(
	schedule *Schedule,
	d civil.Date,
	kind OverrideKind,
	overrides []SessionOverride,
	sets []DateSet,
) (SessionOverride, bool) {
	var (
		winner SessionOverride
		found  bool
	)
	for i, o := range overrides {
		if !sets[i].Contains(d) {
			continue
		}
		if !found {
			winner, found = o, true
			continue
		}

		conflict := OverrideConflict{
			Date:       d,
			Kind:       kind,
			Winner:     winner.Name,
			Loser:      o.Name,
			WinnerTime: winner.Time,
			LoserTime:  o.Time,
		}
		schedule.Conflicts = append(schedule.Conflicts, conflict)
		r.log.Warn().
			Str("exchange", schedule.Exchange).
			Str("date", d.String()).
			Str("kind", string(kind)).
			Str("winner", winner.Name).
			Str("loser", o.Name).
			Msg("Conflicting session overrides, first defined wins")
	}
	return winner, found
}

// IsTradingDay reports whether d has a session
func (r *Resolver) IsTradingDay(p *Profile, d civil.Date) bool {
	_, ok := r.SessionOn(p, d)
	return ok
}

// SessionOn returns the session on d, if d is a trading day
func (r *Resolver) SessionOn(p *Profile, d civil.Date) (Session, bool) {
	schedule := r.Resolve(p, d, d)
	if len(schedule.Sessions) == 0 {
		return Session{}, false
	}
	return schedule.Sessions[0], true
}

// NextSession returns the first session that has not closed by t, searching
// at most horizonDays calendar days ahead.
func (r *Resolver) NextSession(p *Profile, t time.Time, horizonDays int) (Session, bool) {
	from := civil.DateOf(t.In(p.location))
	schedule := r.Resolve(p, from, from.AddDays(horizonDays))
	for _, session := range schedule.Sessions {
		if t.Before(session.Close) {
			return session, true
		}
	}
	return Session{}, false
}

// Holidays lists the named full closures of p within [start, end], ad hoc
// closures included. Weekend dates are listed too.
func (r *Resolver) Holidays(p *Profile, start, end civil.Date) []Holiday {
	if end.Before(start) {
		return []Holiday{}
	}
	out := make([]Holiday, 0)
	seen := make(DateSet)
	for _, h := range p.holidays.Holidays(start.Year-1, end.Year+1) {
		if h.Date.Before(start) || h.Date.After(end) {
			continue
		}
		seen.Add(h.Date)
		out = append(out, h)
	}
	for _, d := range p.adHocClosures.Between(start, end).Sorted() {
		if seen.Contains(d) {
			continue
		}
		out = append(out, Holiday{Date: d, Names: []string{AdHocClosureName}})
	}
	sortHolidays(out)
	return out
}
