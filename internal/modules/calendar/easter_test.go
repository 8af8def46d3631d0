package calendar

import (
	"testing"
	"time"

	"github.com/golang-sql/civil"
)

func TestEaster_Gregorian(t *testing.T) {
	tests := []struct {
		year     int
		expected civil.Date
	}{
		{1961, civil.Date{Year: 1961, Month: time.April, Day: 2}},
		{2000, civil.Date{Year: 2000, Month: time.April, Day: 23}},
		{2019, civil.Date{Year: 2019, Month: time.April, Day: 21}},
		{2024, civil.Date{Year: 2024, Month: time.March, Day: 31}},
		{2025, civil.Date{Year: 2025, Month: time.April, Day: 20}},
		{2026, civil.Date{Year: 2026, Month: time.April, Day: 5}},
		{2027, civil.Date{Year: 2027, Month: time.March, Day: 28}},
		{2028, civil.Date{Year: 2028, Month: time.April, Day: 16}},
		{2029, civil.Date{Year: 2029, Month: time.April, Day: 1}},
		{2030, civil.Date{Year: 2030, Month: time.April, Day: 21}},
		{2038, civil.Date{Year: 2038, Month: time.April, Day: 25}},
	}

	for _, tt := range tests {
		t.Run(tt.expected.String(), func(t *testing.T) {
			result := Easter(tt.year, Gregorian)
			if result != tt.expected {
				t.Errorf("Easter(%d, Gregorian) = %v, want %v", tt.year, result, tt.expected)
			}
		})
	}
}

func TestEaster_Julian(t *testing.T) {
	tests := []struct {
		year     int
		expected civil.Date
	}{
		{2023, civil.Date{Year: 2023, Month: time.April, Day: 16}},
		{2024, civil.Date{Year: 2024, Month: time.May, Day: 5}},
		{2025, civil.Date{Year: 2025, Month: time.April, Day: 20}}, // Same as Gregorian in 2025
		{2026, civil.Date{Year: 2026, Month: time.April, Day: 12}},
	}

	for _, tt := range tests {
		t.Run(tt.expected.String(), func(t *testing.T) {
			result := Easter(tt.year, Julian)
			if result != tt.expected {
				t.Errorf("Easter(%d, Julian) = %v, want %v", tt.year, result, tt.expected)
			}
		})
	}
}

func TestEaster_AlwaysSunday(t *testing.T) {
	for year := 1900; year <= 2200; year++ {
		for _, cal := range []EasterCalendar{Gregorian, Julian} {
			d := Easter(year, cal)
			if WeekdayOf(d) != time.Sunday {
				t.Fatalf("Easter(%d, %s) = %v is a %v", year, cal, d, WeekdayOf(d))
			}
			if d.Month < time.March || d.Month > time.May {
				t.Fatalf("Easter(%d, %s) = %v outside March-May", year, cal, d)
			}
		}
	}
}
