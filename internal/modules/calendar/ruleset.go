package calendar

import (
	"sort"
	"time"

	"github.com/golang-sql/civil"
	"github.com/google/uuid"
)

// RuleSet is an immutable, named collection of rules (a holiday calendar).
// A nil *RuleSet behaves as an empty set.
type RuleSet struct {
	id    uuid.UUID
	name  string
	rules []Rule
}

// Holiday is a resolved date with the names of every rule that produced it
type Holiday struct {
	Date  civil.Date `json:"date" msgpack:"date"`
	Names []string   `json:"names" msgpack:"names"`
}

// Name returns the first rule name, which is the one used for display
func (h Holiday) Name() string {
	if len(h.Names) == 0 {
		return ""
	}
	return h.Names[0]
}

// NewRuleSet creates a rule set. Rules must have been built by the rule
// constructors and carry unique names.
func NewRuleSet(name string, rules ...Rule) (*RuleSet, error) {
	seen := make(map[string]bool, len(rules))
	for i, r := range rules {
		if r.name == "" {
			return nil, configErrorf(name, "rule %d was not built by a rule constructor", i)
		}
		if seen[r.name] {
			return nil, configErrorf(name, "duplicate rule %q", r.name)
		}
		seen[r.name] = true
	}
	owned := make([]Rule, len(rules))
	copy(owned, rules)
	return &RuleSet{id: uuid.New(), name: name, rules: owned}, nil
}

// ID returns the identity used to key cached resolutions
func (rs *RuleSet) ID() uuid.UUID {
	if rs == nil {
		return uuid.Nil
	}
	return rs.id
}

// Name returns the rule set name
func (rs *RuleSet) Name() string {
	if rs == nil {
		return ""
	}
	return rs.name
}

// Len returns the number of rules
func (rs *RuleSet) Len() int {
	if rs == nil {
		return 0
	}
	return len(rs.rules)
}

// Rules returns a copy of the rules in definition order
func (rs *RuleSet) Rules() []Rule {
	if rs == nil {
		return nil
	}
	out := make([]Rule, len(rs.rules))
	copy(out, rs.rules)
	return out
}

// DatesIn resolves every rule for every year in [startYear, endYear] and
// returns the union of the results.
func (rs *RuleSet) DatesIn(startYear, endYear int) DateSet {
	dates := make(DateSet)
	if rs == nil {
		return dates
	}
	for year := startYear; year <= endYear; year++ {
		for _, r := range rs.rules {
			if d, ok := r.Resolve(year); ok {
				dates.Add(d)
			}
		}
	}
	return dates
}

// Holidays resolves the set over [startYear, endYear] keeping rule names.
// Dates produced by several rules are reported once.
func (rs *RuleSet) Holidays(startYear, endYear int) []Holiday {
	if rs == nil {
		return nil
	}
	byDate := make(map[civil.Date]*Holiday)
	for year := startYear; year <= endYear; year++ {
		for _, r := range rs.rules {
			d, ok := r.Resolve(year)
			if !ok {
				continue
			}
			if h, exists := byDate[d]; exists {
				h.Names = append(h.Names, r.name)
				continue
			}
			byDate[d] = &Holiday{Date: d, Names: []string{r.name}}
		}
	}

	holidays := make([]Holiday, 0, len(byDate))
	for _, h := range byDate {
		holidays = append(holidays, *h)
	}
	sortHolidays(holidays)
	return holidays
}

func sortHolidays(holidays []Holiday) {
	sort.Slice(holidays, func(i, j int) bool { return holidays[i].Date.Before(holidays[j].Date) })
}

// RuleSetBuilder accumulates rules and reports the first construction error
// from Build, so a broken table never yields a partial rule set.
type RuleSetBuilder struct {
	name  string
	rules []Rule
	err   error
}

// NewRuleSetBuilder starts a rule set named name
func NewRuleSetBuilder(name string) *RuleSetBuilder {
	return &RuleSetBuilder{name: name}
}

// Add appends a rule produced by a rule constructor
func (b *RuleSetBuilder) Add(r Rule, err error) *RuleSetBuilder {
	if b.err != nil {
		return b
	}
	if err != nil {
		b.err = err
		return b
	}
	b.rules = append(b.rules, r)
	return b
}

// Fixed adds a fixed month/day rule
func (b *RuleSetBuilder) Fixed(name string, month time.Month, day int, opts ...RuleOption) *RuleSetBuilder {
	return b.Add(NewFixedRule(name, month, day, opts...))
}

// Easter adds an Easter-relative rule
func (b *RuleSetBuilder) Easter(name string, offset int, opts ...RuleOption) *RuleSetBuilder {
	return b.Add(NewEasterRule(name, offset, opts...))
}

// AdHoc adds an explicit date list rule
func (b *RuleSetBuilder) AdHoc(name string, dates []civil.Date, opts ...RuleOption) *RuleSetBuilder {
	return b.Add(NewAdHocRule(name, dates, opts...))
}

// Build returns the rule set or the first error encountered
func (b *RuleSetBuilder) Build() (*RuleSet, error) {
	if b.err != nil {
		return nil, b.err
	}
	return NewRuleSet(b.name, b.rules...)
}
