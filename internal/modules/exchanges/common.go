package exchanges

import (
	"time"

	"github.com/aristath/tradingcal/internal/modules/calendar"
	"github.com/golang-sql/civil"
)

// Holidays shared by the Nordic exchanges. Each call builds a fresh rule.

func newYearsDay() (calendar.Rule, error) {
	return calendar.NewFixedRule("New Year's Day", time.January, 1)
}

func epiphany() (calendar.Rule, error) {
	return calendar.NewFixedRule("Epiphany", time.January, 6)
}

func maundyThursday(opts ...calendar.RuleOption) (calendar.Rule, error) {
	return calendar.NewEasterRule("Maundy Thursday", -3, opts...)
}

func goodFriday() (calendar.Rule, error) {
	return calendar.NewEasterRule("Good Friday", -2)
}

func easterMonday() (calendar.Rule, error) {
	return calendar.NewEasterRule("Easter Monday", 1)
}

func labourDay() (calendar.Rule, error) {
	return calendar.NewFixedRule("Labour Day", time.May, 1)
}

func ascensionDay() (calendar.Rule, error) {
	return calendar.NewEasterRule("Ascension Day", 39)
}

func whitMonday(opts ...calendar.RuleOption) (calendar.Rule, error) {
	return calendar.NewEasterRule("Whit Monday", 50, opts...)
}

// midsummerEve is the Friday between June 19 and June 25
func midsummerEve() (calendar.Rule, error) {
	return calendar.NewFixedRule("Midsummer Eve", time.June, 19, calendar.RollForwardTo(time.Friday))
}

func christmasEve() (calendar.Rule, error) {
	return calendar.NewFixedRule("Christmas Eve", time.December, 24)
}

func christmasDay() (calendar.Rule, error) {
	return calendar.NewFixedRule("Christmas Day", time.December, 25)
}

func boxingDay() (calendar.Rule, error) {
	return calendar.NewFixedRule("Boxing Day", time.December, 26)
}

func newYearsEve() (calendar.Rule, error) {
	return calendar.NewFixedRule("New Year's Eve", time.December, 31)
}

func clock(hour, minute int) civil.Time {
	return civil.Time{Hour: hour, Minute: minute}
}
