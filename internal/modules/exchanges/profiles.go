// Package exchanges holds the exchange profiles served by tradingcal: the
// built-in Nordic calendars, YAML-defined calendars and the registry that
// maps codes and aliases to profiles.
package exchanges

import (
	"fmt"
	"time"
	_ "time/tzdata" // profiles must resolve zones on hosts without zoneinfo

	"github.com/aristath/tradingcal/internal/modules/calendar"
	"github.com/golang-sql/civil"
)

var weekdaysOnly = calendar.OnWeekdaySet(calendar.MondayToFriday)

// Stockholm builds the Nasdaq Stockholm (XSTO) profile
func Stockholm() (*calendar.Profile, error) {
	loc, err := time.LoadLocation("Europe/Stockholm")
	if err != nil {
		return nil, fmt.Errorf("failed to load XSTO time zone: %w", err)
	}

	holidays, err := calendar.NewRuleSetBuilder("XSTO regular holidays").
		Add(newYearsDay()).
		Add(epiphany()).
		Add(goodFriday()).
		Add(easterMonday()).
		Add(labourDay()).
		Add(ascensionDay()).
		Add(whitMonday(calendar.ValidUntil(civil.Date{Year: 2005, Month: time.January, Day: 1}))).
		Fixed("Sweden National Day", time.June, 6, calendar.ValidFromYear(2004)).
		Add(midsummerEve()).
		Add(christmasEve()).
		Add(christmasDay()).
		Add(boxingDay()).
		Add(newYearsEve()).
		Build()
	if err != nil {
		return nil, err
	}

	halfDays, err := calendar.NewRuleSetBuilder("XSTO half days").
		Fixed("Day Before Epiphany", time.January, 5, weekdaysOnly).
		Add(maundyThursday(weekdaysOnly)).
		Fixed("Day Before Labour Day", time.April, 30, weekdaysOnly).
		Easter("Day Before Ascension Day", 38).
		// The Friday between October 30 and November 5
		Fixed("All Saints' Eve", time.October, 30, calendar.RollForwardTo(time.Friday)).
		Build()
	if err != nil {
		return nil, err
	}

	return calendar.NewProfile(calendar.ProfileConfig{
		Code:            "XSTO",
		Name:            "Nasdaq Stockholm",
		Aliases:         []string{"STO", "Stockholm"},
		Location:        loc,
		Open:            clock(9, 1),
		Close:           clock(17, 30),
		RegularHolidays: holidays,
		SpecialCloses: []calendar.SessionOverride{
			{Name: "Half day", Time: clock(13, 0), Rules: halfDays},
		},
	})
}

// Copenhagen builds the Nasdaq Copenhagen (XCSE) profile
func Copenhagen() (*calendar.Profile, error) {
	loc, err := time.LoadLocation("Europe/Copenhagen")
	if err != nil {
		return nil, fmt.Errorf("failed to load XCSE time zone: %w", err)
	}

	holidays, err := calendar.NewRuleSetBuilder("XCSE regular holidays").
		Add(newYearsDay()).
		Add(maundyThursday()).
		Add(goodFriday()).
		Add(easterMonday()).
		Easter("General Prayer Day", 26).
		Add(ascensionDay()).
		Easter("Bank Holiday", 40, calendar.ValidFromYear(2009)).
		Add(whitMonday()).
		Fixed("Constitution Day", time.June, 5).
		Add(christmasEve()).
		Add(christmasDay()).
		Add(boxingDay()).
		Add(newYearsEve()).
		Build()
	if err != nil {
		return nil, err
	}

	return calendar.NewProfile(calendar.ProfileConfig{
		Code:            "XCSE",
		Name:            "Nasdaq Copenhagen",
		Aliases:         []string{"CSE", "Copenhagen"},
		Location:        loc,
		Open:            clock(9, 1),
		Close:           clock(17, 0),
		RegularHolidays: holidays,
	})
}

// Helsinki builds the Nasdaq Helsinki (XHEL) profile
func Helsinki() (*calendar.Profile, error) {
	loc, err := time.LoadLocation("Europe/Helsinki")
	if err != nil {
		return nil, fmt.Errorf("failed to load XHEL time zone: %w", err)
	}

	holidays, err := calendar.NewRuleSetBuilder("XHEL regular holidays").
		Add(newYearsDay()).
		Add(epiphany()).
		Add(goodFriday()).
		Add(easterMonday()).
		Add(labourDay()).
		Add(ascensionDay()).
		Add(midsummerEve()).
		Fixed("Finland Independence Day", time.December, 6).
		Add(christmasEve()).
		Add(christmasDay()).
		Add(boxingDay()).
		Add(newYearsEve()).
		Build()
	if err != nil {
		return nil, err
	}

	return calendar.NewProfile(calendar.ProfileConfig{
		Code:            "XHEL",
		Name:            "Nasdaq Helsinki",
		Aliases:         []string{"HEL", "Helsinki"},
		Location:        loc,
		Open:            clock(10, 1),
		Close:           clock(18, 30),
		RegularHolidays: holidays,
	})
}

// Builtin builds every built-in profile
func Builtin() ([]*calendar.Profile, error) {
	constructors := []func() (*calendar.Profile, error){Stockholm, Copenhagen, Helsinki}

	profiles := make([]*calendar.Profile, 0, len(constructors))
	for _, build := range constructors {
		p, err := build()
		if err != nil {
			return nil, fmt.Errorf("failed to build built-in profile: %w", err)
		}
		profiles = append(profiles, p)
	}
	return profiles, nil
}
