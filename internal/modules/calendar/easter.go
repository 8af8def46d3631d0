package calendar

import (
	"time"

	"github.com/golang-sql/civil"
)

// EasterCalendar selects the computus used by Easter-relative rules
type EasterCalendar int

const (
	// Gregorian computus (Western churches)
	Gregorian EasterCalendar = iota
	// Julian computus (Orthodox churches), expressed as a Gregorian date
	Julian
)

// String returns the calendar name
func (c EasterCalendar) String() string {
	if c == Julian {
		return "julian"
	}
	return "gregorian"
}

// Easter returns the date of Easter Sunday in the given year
func Easter(year int, cal EasterCalendar) civil.Date {
	if cal == Julian {
		return julianEaster(year)
	}
	return gregorianEaster(year)
}

// gregorianEaster uses the Meeus/Jones/Butcher algorithm (proleptic Gregorian)
func gregorianEaster(year int) civil.Date {
	// Golden Number (position in 19-year Metonic cycle)
	a := year % 19

	// Century
	b := year / 100
	c := year % 100

	// Corrections
	d := b / 4
	e := b % 4
	f := (b + 8) / 25
	g := (b - f + 1) / 3
	h := (19*a + b - d - g + 15) % 30
	i := c / 4
	k := c % 4
	l := (32 + 2*e + 2*i - h - k) % 7
	m := (a + 11*h + 22*l) / 451

	month := (h + l - 7*m + 114) / 31
	day := ((h + l - 7*m + 114) % 31) + 1

	return civil.Date{Year: year, Month: time.Month(month), Day: day}
}

// julianEaster uses the Meeus Julian algorithm and shifts the result onto the
// Gregorian calendar.
func julianEaster(year int) civil.Date {
	a := year % 4
	b := year % 7
	c := year % 19
	d := (19*c + 15) % 30
	e := (2*a + 4*b - d + 34) % 7

	month := (d + e + 114) / 31
	day := ((d + e + 114) % 31) + 1

	// Normalises day overflow, e.g. April 31 + 13
	julian := civil.Date{Year: year, Month: time.Month(month), Day: day}
	return julian.AddDays(julianGregorianGap(year))
}

// julianGregorianGap is the number of days the Julian calendar trails the
// Gregorian one around March/April of the given year (13 for 1900-2099).
func julianGregorianGap(year int) int {
	century := year / 100
	return century - century/4 - 2
}
