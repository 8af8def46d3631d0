package calendar

import (
	"errors"
	"testing"
	"time"

	"github.com/golang-sql/civil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func date(year int, month time.Month, day int) civil.Date {
	return civil.Date{Year: year, Month: month, Day: day}
}

var weekdaysOnly = []time.Weekday{time.Monday, time.Tuesday, time.Wednesday, time.Thursday, time.Friday}

func TestFixedRule_Resolve(t *testing.T) {
	rule, err := NewFixedRule("Constitution Day", time.June, 5)
	require.NoError(t, err)

	d, ok := rule.Resolve(2024)
	require.True(t, ok)
	assert.Equal(t, date(2024, time.June, 5), d)
	assert.Equal(t, AnchorFixed, rule.Kind())
	assert.Equal(t, "Constitution Day", rule.Name())
}

func TestFixedRule_LeapDay(t *testing.T) {
	rule, err := NewFixedRule("Leap Day", time.February, 29)
	require.NoError(t, err)

	_, ok := rule.Resolve(2023)
	assert.False(t, ok, "no February 29 in 2023")

	d, ok := rule.Resolve(2024)
	require.True(t, ok)
	assert.Equal(t, date(2024, time.February, 29), d)
}

func TestEasterRule_Resolve(t *testing.T) {
	tests := []struct {
		name     string
		offset   int
		opts     []RuleOption
		year     int
		expected civil.Date
	}{
		{"Good Friday", -2, nil, 2024, date(2024, time.March, 29)},
		{"Easter Monday", 1, nil, 2025, date(2025, time.April, 21)},
		{"General Prayer Day", 26, nil, 2024, date(2024, time.April, 26)},
		{"Ascension Day", 39, nil, 2024, date(2024, time.May, 9)},
		{"Whit Monday", 50, nil, 2024, date(2024, time.May, 20)},
		{"Orthodox Good Friday", -2, []RuleOption{WithEasterCalendar(Julian)}, 2024, date(2024, time.May, 3)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rule, err := NewEasterRule(tt.name, tt.offset, tt.opts...)
			require.NoError(t, err)

			d, ok := rule.Resolve(tt.year)
			require.True(t, ok)
			assert.Equal(t, tt.expected, d)
		})
	}
}

func TestEasterRule_ReproducesEasterSunday(t *testing.T) {
	rule, err := NewEasterRule("Easter Sunday", 0)
	require.NoError(t, err)

	for year := 1950; year <= 2100; year++ {
		d, ok := rule.Resolve(year)
		require.True(t, ok)
		assert.Equal(t, Easter(year, Gregorian), d)
	}
}

func TestAdHocRule_Resolve(t *testing.T) {
	rule, err := NewAdHocRule("Market disruption", []civil.Date{
		date(2018, time.December, 27),
		date(2022, time.September, 19),
	})
	require.NoError(t, err)

	d, ok := rule.Resolve(2022)
	require.True(t, ok)
	assert.Equal(t, date(2022, time.September, 19), d)

	_, ok = rule.Resolve(2020)
	assert.False(t, ok)

	assert.Equal(t, []civil.Date{date(2018, time.December, 27), date(2022, time.September, 19)}, rule.AdHocDates())
}

func TestRule_WeekdayFilterNotShifted(t *testing.T) {
	rule, err := NewFixedRule("Day Before Epiphany", time.January, 5, OnWeekdays(weekdaysOnly...))
	require.NoError(t, err)

	// Saturday: not observed, and not moved to Friday
	_, ok := rule.Resolve(2019)
	assert.False(t, ok)

	d, ok := rule.Resolve(2024)
	require.True(t, ok)
	assert.Equal(t, date(2024, time.January, 5), d)
}

func TestRule_WeekdayFilterOverFiftyYears(t *testing.T) {
	filter := Weekdays(weekdaysOnly...)
	rules := []Rule{
		MustRule(NewFixedRule("Day Before Epiphany", time.January, 5, OnWeekdaySet(filter))),
		MustRule(NewFixedRule("Day Before Labour Day", time.April, 30, OnWeekdaySet(filter))),
		MustRule(NewFixedRule("Christmas Eve", time.December, 24, OnWeekdays(time.Saturday, time.Sunday))),
		MustRule(NewEasterRule("Maundy Thursday", -3, OnWeekdaySet(filter))),
	}

	for _, rule := range rules {
		t.Run(rule.Name(), func(t *testing.T) {
			observed := 0
			for year := 2000; year < 2050; year++ {
				d, ok := rule.Resolve(year)
				if !ok {
					continue
				}
				observed++
				assert.True(t, rule.weekdays.Contains(WeekdayOf(d)), "%s on %s", d, WeekdayOf(d))
			}
			assert.Greater(t, observed, 0)
		})
	}
}

func TestRule_RollForward(t *testing.T) {
	allSaintsEve, err := NewFixedRule("All Saints' Eve", time.October, 30, RollForwardTo(time.Friday))
	require.NoError(t, err)
	midsummerEve, err := NewFixedRule("Midsummer Eve", time.June, 19, RollForwardTo(time.Friday))
	require.NoError(t, err)

	d, ok := allSaintsEve.Resolve(2024)
	require.True(t, ok)
	assert.Equal(t, date(2024, time.November, 1), d)

	d, ok = midsummerEve.Resolve(2024)
	require.True(t, ok)
	assert.Equal(t, date(2024, time.June, 21), d)

	for year := 2000; year < 2050; year++ {
		d, ok := allSaintsEve.Resolve(year)
		require.True(t, ok)
		assert.Equal(t, time.Friday, WeekdayOf(d))
		assert.False(t, d.Before(date(year, time.October, 30)))
		assert.False(t, d.After(date(year, time.November, 5)))
	}
}

func TestRule_ValidityWindow(t *testing.T) {
	whitMonday, err := NewEasterRule("Whit Monday", 50, ValidUntil(date(2005, time.January, 1)))
	require.NoError(t, err)
	nationalDay, err := NewFixedRule("National Day", time.June, 6, ValidFromYear(2005))
	require.NoError(t, err)
	bankHoliday, err := NewEasterRule("Bank Holiday", 40, ValidFromYear(2009), ValidUntilYear(2010))
	require.NoError(t, err)

	tests := []struct {
		rule     Rule
		year     int
		observed bool
	}{
		{whitMonday, 2004, true},
		{whitMonday, 2005, false},
		{nationalDay, 2004, false},
		{nationalDay, 2005, true},
		{bankHoliday, 2008, false},
		{bankHoliday, 2009, true},
		{bankHoliday, 2010, true},
		{bankHoliday, 2011, false},
	}

	for _, tt := range tests {
		_, ok := tt.rule.Resolve(tt.year)
		assert.Equal(t, tt.observed, ok, "%s in %d", tt.rule.Name(), tt.year)
	}
}

func TestRule_ConfigurationErrors(t *testing.T) {
	tests := []struct {
		name  string
		build func() (Rule, error)
	}{
		{"missing name", func() (Rule, error) { return NewFixedRule("", time.January, 1) }},
		{"month out of range", func() (Rule, error) { return NewFixedRule("x", 13, 1) }},
		{"day out of range", func() (Rule, error) { return NewFixedRule("x", time.April, 31) }},
		{"february 30", func() (Rule, error) { return NewFixedRule("x", time.February, 30) }},
		{"empty weekday filter", func() (Rule, error) { return NewFixedRule("x", time.January, 5, OnWeekdays()) }},
		{"roll outside filter", func() (Rule, error) {
			return NewFixedRule("x", time.October, 30, RollForwardTo(time.Friday), OnWeekdays(time.Monday))
		}},
		{"roll on easter rule", func() (Rule, error) { return NewEasterRule("x", 1, RollForwardTo(time.Friday)) }},
		{"easter offset too large", func() (Rule, error) { return NewEasterRule("x", 400) }},
		{"easter weekday never in filter", func() (Rule, error) {
			// Good Friday is always a Friday
			return NewEasterRule("x", -2, OnWeekdays(time.Monday, time.Tuesday))
		}},
		{"window reversed", func() (Rule, error) {
			return NewFixedRule("x", time.June, 6, ValidFromYear(2010), ValidUntilYear(2005))
		}},
		{"invalid window date", func() (Rule, error) {
			return NewFixedRule("x", time.June, 6, ValidFrom(date(2010, time.February, 30)))
		}},
		{"two ad hoc dates in one year", func() (Rule, error) {
			return NewAdHocRule("x", []civil.Date{date(2020, time.March, 1), date(2020, time.April, 1)})
		}},
		{"invalid ad hoc date", func() (Rule, error) {
			return NewAdHocRule("x", []civil.Date{date(2020, time.April, 31)})
		}},
		{"ad hoc dates never in filter", func() (Rule, error) {
			// 2024-01-06 is a Saturday
			return NewAdHocRule("x", []civil.Date{date(2024, time.January, 6)}, OnWeekdays(weekdaysOnly...))
		}},
		{"easter calendar on fixed rule", func() (Rule, error) {
			return NewFixedRule("x", time.June, 6, WithEasterCalendar(Julian))
		}},
		{"easter calendar on ad hoc rule", func() (Rule, error) {
			return NewAdHocRule("x", []civil.Date{date(2024, time.January, 5)}, WithEasterCalendar(Gregorian))
		}},
		{"roll on ad hoc rule", func() (Rule, error) {
			return NewAdHocRule("x", []civil.Date{date(2024, time.January, 6)}, RollForwardTo(time.Monday))
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := tt.build()
			require.Error(t, err)

			var cfgErr *ConfigurationError
			assert.True(t, errors.As(err, &cfgErr), "want *ConfigurationError, got %T", err)
		})
	}
}

func TestMustRule_Panics(t *testing.T) {
	assert.Panics(t, func() {
		MustRule(NewFixedRule("x", 13, 1))
	})
}

func TestWeekdaySet(t *testing.T) {
	assert.Equal(t, "Mon,Tue,Wed,Thu,Fri", MondayToFriday.String())
	assert.True(t, MondayToFriday.Contains(time.Monday))
	assert.False(t, MondayToFriday.Contains(time.Sunday))
	assert.True(t, WeekdaySet(0).Empty())

	d, ok := ParseWeekday("fri")
	assert.True(t, ok)
	assert.Equal(t, time.Friday, d)

	d, ok = ParseWeekday(" Sunday ")
	assert.True(t, ok)
	assert.Equal(t, time.Sunday, d)

	_, ok = ParseWeekday("funday")
	assert.False(t, ok)
}
