package calendar

import (
	"strings"
	"time"

	"github.com/golang-sql/civil"
)

// WeekdaySet is a bitmask of time.Weekday values
type WeekdaySet uint8

// MondayToFriday is the default trading week
var MondayToFriday = Weekdays(time.Monday, time.Tuesday, time.Wednesday, time.Thursday, time.Friday)

// Weekdays builds a set from the given days
func Weekdays(days ...time.Weekday) WeekdaySet {
	var s WeekdaySet
	for _, d := range days {
		s |= 1 << uint(d%7)
	}
	return s
}

// Contains reports whether d is in the set
func (s WeekdaySet) Contains(d time.Weekday) bool {
	return s&(1<<uint(d%7)) != 0
}

// Empty reports whether no weekday is set
func (s WeekdaySet) Empty() bool {
	return s == 0
}

// Days lists the members from Sunday to Saturday
func (s WeekdaySet) Days() []time.Weekday {
	days := make([]time.Weekday, 0, 7)
	for d := time.Sunday; d <= time.Saturday; d++ {
		if s.Contains(d) {
			days = append(days, d)
		}
	}
	return days
}

func (s WeekdaySet) String() string {
	names := make([]string, 0, 7)
	for _, d := range s.Days() {
		names = append(names, d.String()[:3])
	}
	return strings.Join(names, ",")
}

// WeekdayOf returns the day of week of a civil date
func WeekdayOf(d civil.Date) time.Weekday {
	return d.In(time.UTC).Weekday()
}

// ParseWeekday accepts full or three-letter English day names
func ParseWeekday(s string) (time.Weekday, bool) {
	s = strings.ToLower(strings.TrimSpace(s))
	for d := time.Sunday; d <= time.Saturday; d++ {
		name := strings.ToLower(d.String())
		if s == name || s == name[:3] {
			return d, true
		}
	}
	return time.Sunday, false
}
