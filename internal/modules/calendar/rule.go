package calendar

import (
	"fmt"
	"sort"
	"time"

	"github.com/golang-sql/civil"
)

// AnchorKind tags the way a rule derives its naive date for a year
type AnchorKind int

const (
	// AnchorFixed is a fixed month/day, optionally rolled forward to a weekday
	AnchorFixed AnchorKind = iota
	// AnchorEaster is a signed day offset from Easter Sunday
	AnchorEaster
	// AnchorAdHoc is an explicit list of dates, at most one per year
	AnchorAdHoc
)

func (k AnchorKind) String() string {
	switch k {
	case AnchorFixed:
		return "fixed"
	case AnchorEaster:
		return "easter"
	case AnchorAdHoc:
		return "adhoc"
	default:
		return fmt.Sprintf("AnchorKind(%d)", int(k))
	}
}

// maxEasterOffset bounds Easter offsets to roughly one year either side
const maxEasterOffset = 366

// Rule is an immutable recurrence that resolves to at most one
// date per year. Build rules with NewFixedRule, NewEasterRule or NewAdHocRule.
type Rule struct {
	name string
	kind AnchorKind

	// AnchorFixed
	month time.Month
	day   int

	// AnchorEaster
	offset int
	easter EasterCalendar

	// AnchorAdHoc
	adHoc map[int]civil.Date

	weekdays   WeekdaySet
	rollTo     time.Weekday
	hasRoll    bool
	validFrom  civil.Date
	validUntil civil.Date
}

// ruleOptions collects option values before validation
type ruleOptions struct {
	weekdays    WeekdaySet
	hasWeekdays bool
	rollTo      time.Weekday
	hasRoll     bool
	validFrom   civil.Date
	validUntil  civil.Date
	easter      EasterCalendar
	hasEaster   bool
}

// RuleOption customises a rule at construction time
type RuleOption func(*ruleOptions)

// OnWeekdays restricts the rule to years where its date falls on one of days.
// Other years yield no date; the date is never shifted.
func OnWeekdays(days ...time.Weekday) RuleOption {
	return func(o *ruleOptions) {
		o.weekdays = Weekdays(days...)
		o.hasWeekdays = true
	}
}

// OnWeekdaySet is OnWeekdays for a prebuilt set
func OnWeekdaySet(set WeekdaySet) RuleOption {
	return func(o *ruleOptions) {
		o.weekdays = set
		o.hasWeekdays = true
	}
}

// RollForwardTo moves a fixed date to the first given weekday on or after it
// (e.g. "the Friday between October 30 and November 5").
func RollForwardTo(day time.Weekday) RuleOption {
	return func(o *ruleOptions) {
		o.rollTo = day
		o.hasRoll = true
	}
}

// ValidFrom sets the inclusive lower date bound
func ValidFrom(d civil.Date) RuleOption {
	return func(o *ruleOptions) { o.validFrom = d }
}

// ValidUntil sets the inclusive upper date bound
func ValidUntil(d civil.Date) RuleOption {
	return func(o *ruleOptions) { o.validUntil = d }
}

// ValidFromYear is ValidFrom January 1 of year
func ValidFromYear(year int) RuleOption {
	return ValidFrom(civil.Date{Year: year, Month: time.January, Day: 1})
}

// ValidUntilYear is ValidUntil December 31 of year
func ValidUntilYear(year int) RuleOption {
	return ValidUntil(civil.Date{Year: year, Month: time.December, Day: 31})
}

// WithEasterCalendar selects the computus for Easter-relative rules
func WithEasterCalendar(cal EasterCalendar) RuleOption {
	return func(o *ruleOptions) {
		o.easter = cal
		o.hasEaster = true
	}
}

// NewFixedRule creates a rule on the same month/day every year
func NewFixedRule(name string, month time.Month, day int, opts ...RuleOption) (Rule, error) {
	o := collectOptions(opts)
	r := Rule{name: name, kind: AnchorFixed, month: month, day: day}
	if err := r.apply(o); err != nil {
		return Rule{}, err
	}
	if month < time.January || month > time.December {
		return Rule{}, configErrorf(name, "month %d out of range", int(month))
	}
	// Leap year so February 29 is accepted; other years simply yield nothing
	if day < 1 || day > daysIn(2000, month) {
		return Rule{}, configErrorf(name, "day %d out of range for %s", day, month)
	}
	if o.hasRoll && o.hasWeekdays && !o.weekdays.Contains(o.rollTo) {
		return Rule{}, configErrorf(name, "rolled to %s but filtered to %s: never observed", o.rollTo, o.weekdays)
	}
	return r, nil
}

// NewEasterRule creates a rule offset days from Easter Sunday
func NewEasterRule(name string, offset int, opts ...RuleOption) (Rule, error) {
	o := collectOptions(opts)
	r := Rule{name: name, kind: AnchorEaster, offset: offset}
	if err := r.apply(o); err != nil {
		return Rule{}, err
	}
	if o.hasRoll {
		return Rule{}, configErrorf(name, "roll-forward is only valid for fixed dates")
	}
	if offset < -maxEasterOffset || offset > maxEasterOffset {
		return Rule{}, configErrorf(name, "easter offset %d outside ±%d days", offset, maxEasterOffset)
	}
	// Easter is always a Sunday, so the weekday of the result never changes
	wd := time.Weekday(((offset % 7) + 7) % 7)
	if o.hasWeekdays && !o.weekdays.Contains(wd) {
		return Rule{}, configErrorf(name, "always falls on %s but filtered to %s: never observed", wd, o.weekdays)
	}
	return r, nil
}

// NewAdHocRule creates a rule from an explicit list of dates
func NewAdHocRule(name string, dates []civil.Date, opts ...RuleOption) (Rule, error) {
	o := collectOptions(opts)
	r := Rule{name: name, kind: AnchorAdHoc, adHoc: make(map[int]civil.Date, len(dates))}
	if err := r.apply(o); err != nil {
		return Rule{}, err
	}
	if o.hasRoll {
		return Rule{}, configErrorf(name, "roll-forward is only valid for fixed dates")
	}
	observable := len(dates) == 0
	for _, d := range dates {
		if !d.IsValid() {
			return Rule{}, configErrorf(name, "invalid date %s", d)
		}
		if prev, dup := r.adHoc[d.Year]; dup {
			return Rule{}, configErrorf(name, "two dates in %d (%s, %s)", d.Year, prev, d)
		}
		r.adHoc[d.Year] = d
		if !o.hasWeekdays || o.weekdays.Contains(WeekdayOf(d)) {
			observable = true
		}
	}
	if !observable {
		return Rule{}, configErrorf(name, "no listed date falls on %s: never observed", o.weekdays)
	}
	return r, nil
}

// MustRule panics on a construction error. Intended for static tables whose
// correctness is covered by tests.
func MustRule(r Rule, err error) Rule {
	if err != nil {
		panic(err)
	}
	return r
}

func collectOptions(opts []RuleOption) ruleOptions {
	var o ruleOptions
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

// apply copies validated common options onto the rule
func (r *Rule) apply(o ruleOptions) error {
	if r.name == "" {
		return configErrorf("", "%s rule without a name", r.kind)
	}
	if o.hasWeekdays && o.weekdays.Empty() {
		return configErrorf(r.name, "empty weekday filter: never observed")
	}
	if o.hasEaster && r.kind != AnchorEaster {
		return configErrorf(r.name, "easter calendar set on a %s rule", r.kind)
	}
	if o.validFrom != (civil.Date{}) && !o.validFrom.IsValid() {
		return configErrorf(r.name, "invalid valid-from date %s", o.validFrom)
	}
	if o.validUntil != (civil.Date{}) && !o.validUntil.IsValid() {
		return configErrorf(r.name, "invalid valid-until date %s", o.validUntil)
	}
	if o.validFrom.IsValid() && o.validUntil.IsValid() && o.validUntil.Before(o.validFrom) {
		return configErrorf(r.name, "valid-from %s after valid-until %s", o.validFrom, o.validUntil)
	}
	if o.hasWeekdays {
		r.weekdays = o.weekdays
	}
	r.rollTo, r.hasRoll = o.rollTo, o.hasRoll
	r.validFrom, r.validUntil = o.validFrom, o.validUntil
	r.easter = o.easter
	return nil
}

// Name returns the diagnostic name of the rule
func (r Rule) Name() string { return r.name }

// Kind returns the anchor kind
func (r Rule) Kind() AnchorKind { return r.kind }

// Resolve returns the rule's date for year, or false when the rule is not
// observed that year.
func (r Rule) Resolve(year int) (civil.Date, bool) {
	var (
		d  civil.Date
		ok bool
	)
	switch r.kind {
	case AnchorFixed:
		d, ok = r.resolveFixed(year)
	case AnchorEaster:
		d, ok = r.resolveEaster(year)
	case AnchorAdHoc:
		d, ok = r.resolveAdHoc(year)
	}
	if !ok {
		return civil.Date{}, false
	}
	if !r.weekdays.Empty() && !r.weekdays.Contains(WeekdayOf(d)) {
		return civil.Date{}, false
	}
	if r.validFrom.IsValid() && d.Before(r.validFrom) {
		return civil.Date{}, false
	}
	if r.validUntil.IsValid() && d.After(r.validUntil) {
		return civil.Date{}, false
	}
	return d, true
}

func (r Rule) resolveFixed(year int) (civil.Date, bool) {
	if r.day > daysIn(year, r.month) {
		return civil.Date{}, false
	}
	d := civil.Date{Year: year, Month: r.month, Day: r.day}
	if r.hasRoll {
		shift := (int(r.rollTo) - int(WeekdayOf(d)) + 7) % 7
		d = d.AddDays(shift)
	}
	return d, true
}

func (r Rule) resolveEaster(year int) (civil.Date, bool) {
	return Easter(year, r.easter).AddDays(r.offset), true
}

func (r Rule) resolveAdHoc(year int) (civil.Date, bool) {
	d, ok := r.adHoc[year]
	return d, ok
}

// AdHocDates returns the explicit dates of an ad hoc rule in ascending order
func (r Rule) AdHocDates() []civil.Date {
	dates := make([]civil.Date, 0, len(r.adHoc))
	for _, d := range r.adHoc {
		dates = append(dates, d)
	}
	sort.Slice(dates, func(i, j int) bool { return dates[i].Before(dates[j]) })
	return dates
}

// daysIn returns the number of days in month of year
func daysIn(year int, month time.Month) int {
	return time.Date(year, month+1, 0, 0, 0, 0, 0, time.UTC).Day()
}
