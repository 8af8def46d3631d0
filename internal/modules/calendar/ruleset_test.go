package calendar

import (
	"errors"
	"testing"
	"time"

	"github.com/golang-sql/civil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRuleSet_DatesInMergesDuplicates(t *testing.T) {
	rs, err := NewRuleSetBuilder("regular").
		Fixed("Christmas Day", time.December, 25).
		AdHoc("Christmas again", []civil.Date{date(2024, time.December, 25)}).
		Easter("Good Friday", -2).
		Build()
	require.NoError(t, err)

	dates := rs.DatesIn(2024, 2025)
	assert.Equal(t, 4, dates.Len())
	assert.Equal(t, []civil.Date{
		date(2024, time.March, 29),
		date(2024, time.December, 25),
		date(2025, time.April, 18),
		date(2025, time.December, 25),
	}, dates.Sorted())
}

func TestRuleSet_DatesInReversedRange(t *testing.T) {
	rs, err := NewRuleSetBuilder("regular").Fixed("New Year's Day", time.January, 1).Build()
	require.NoError(t, err)

	assert.Equal(t, 0, rs.DatesIn(2025, 2024).Len())
}

func TestRuleSet_NilIsEmpty(t *testing.T) {
	var rs *RuleSet
	assert.Equal(t, 0, rs.DatesIn(2000, 2030).Len())
	assert.Nil(t, rs.Holidays(2000, 2030))
	assert.Equal(t, 0, rs.Len())
	assert.Empty(t, rs.Name())
}

func TestRuleSet_HolidaysKeepNames(t *testing.T) {
	rs, err := NewRuleSetBuilder("regular").
		Fixed("New Year's Day", time.January, 1).
		Fixed("Bank Closing", time.January, 1).
		Fixed("Epiphany", time.January, 6).
		Build()
	require.NoError(t, err)

	holidays := rs.Holidays(2024, 2024)
	require.Len(t, holidays, 2)
	assert.Equal(t, date(2024, time.January, 1), holidays[0].Date)
	assert.Equal(t, []string{"New Year's Day", "Bank Closing"}, holidays[0].Names)
	assert.Equal(t, "New Year's Day", holidays[0].Name())
	assert.Equal(t, "Epiphany", holidays[1].Name())
}

func TestRuleSet_BuilderStopsAtFirstError(t *testing.T) {
	_, err := NewRuleSetBuilder("broken").
		Fixed("New Year's Day", time.January, 1).
		Fixed("Bad", time.February, 30).
		Fixed("Also bad", 13, 1).
		Build()
	require.Error(t, err)

	var cfgErr *ConfigurationError
	require.True(t, errors.As(err, &cfgErr))
	assert.Equal(t, "Bad", cfgErr.Subject)
}

func TestNewRuleSet_Validation(t *testing.T) {
	_, err := NewRuleSet("zero", Rule{})
	assert.Error(t, err)

	r := MustRule(NewFixedRule("Christmas Day", time.December, 25))
	_, err = NewRuleSet("dup", r, r)
	assert.Error(t, err)

	a, err := NewRuleSet("a", r)
	require.NoError(t, err)
	b, err := NewRuleSet("b", r)
	require.NoError(t, err)
	assert.NotEqual(t, a.ID(), b.ID())
}

func TestDateSet_Operations(t *testing.T) {
	a := NewDateSet(date(2024, time.January, 1), date(2024, time.January, 6))
	b := NewDateSet(date(2024, time.January, 6), date(2024, time.December, 25))

	u := a.Union(b)
	assert.Equal(t, 3, u.Len())
	assert.Equal(t, 2, a.Len(), "union must not modify the receiver")

	between := u.Between(date(2024, time.January, 2), date(2024, time.December, 25))
	assert.Equal(t, []civil.Date{date(2024, time.January, 6), date(2024, time.December, 25)}, between.Sorted())

	var empty DateSet
	assert.Equal(t, 0, empty.Clone().Len())
	assert.NotNil(t, empty.Clone())
}
