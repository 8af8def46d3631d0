package exchanges

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"reflect"
	"strings"
	"time"

	"github.com/aristath/tradingcal/internal/modules/calendar"
	"github.com/go-playground/validator/v10"
	"github.com/golang-sql/civil"
	"gopkg.in/yaml.v3"
)

const clockLayout = "15:04"

// Document is the YAML form of a set of exchange profiles:
//
//	exchanges:
//	  - code: XSTO
//	    timezone: Europe/Stockholm
//	    open: "09:01"
//	    close: "17:30"
//	    holidays:
//	      - {name: Good Friday, easter_offset: -2}
//	      - {name: Epiphany, month: 1, day: 6}
type Document struct {
	Exchanges []ExchangeDoc `yaml:"exchanges" validate:"required,min=1,dive"`
}

// ExchangeDoc describes one exchange
type ExchangeDoc struct {
	Code          string        `yaml:"code" validate:"required,alphanum"`
	Name          string        `yaml:"name,omitempty"`
	Aliases       []string      `yaml:"aliases,omitempty" validate:"omitempty,dive,required"`
	Timezone      string        `yaml:"timezone" validate:"required,timezone"`
	Open          string        `yaml:"open" validate:"required,datetime=15:04"`
	Close         string        `yaml:"close" validate:"required,datetime=15:04"`
	TradingDays   []string      `yaml:"trading_days,omitempty" validate:"omitempty,dive,weekday"`
	StrictHours   bool          `yaml:"strict_hours,omitempty"`
	Holidays      []RuleDoc     `yaml:"holidays,omitempty" validate:"omitempty,dive"`
	SpecialCloses []OverrideDoc `yaml:"special_closes,omitempty" validate:"omitempty,dive"`
	SpecialOpens  []OverrideDoc `yaml:"special_opens,omitempty" validate:"omitempty,dive"`
}

// OverrideDoc moves the open or close to Time on the dates of Rules
type OverrideDoc struct {
	Name  string    `yaml:"name,omitempty"`
	Time  string    `yaml:"time" validate:"required,datetime=15:04"`
	Rules []RuleDoc `yaml:"rules" validate:"required,min=1,dive"`
}

// RuleDoc is a single rule. Exactly one anchor must be given: month and day,
// easter_offset, or dates.
type RuleDoc struct {
	Name           string   `yaml:"name" validate:"required"`
	Month          int      `yaml:"month,omitempty" validate:"omitempty,min=1,max=12"`
	Day            int      `yaml:"day,omitempty" validate:"omitempty,min=1,max=31"`
	EasterOffset   *int     `yaml:"easter_offset,omitempty"`
	Dates          []string `yaml:"dates,omitempty" validate:"omitempty,dive,datetime=2006-01-02"`
	Weekdays       []string `yaml:"weekdays,omitempty" validate:"omitempty,dive,weekday"`
	RollForwardTo  string   `yaml:"roll_forward_to,omitempty" validate:"omitempty,weekday"`
	ValidFrom      string   `yaml:"valid_from,omitempty" validate:"omitempty,datetime=2006-01-02"`
	ValidUntil     string   `yaml:"valid_until,omitempty" validate:"omitempty,datetime=2006-01-02"`
	EasterCalendar string   `yaml:"easter_calendar,omitempty" validate:"omitempty,oneof=gregorian julian"`
}

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(field reflect.StructField) string {
		name := strings.SplitN(field.Tag.Get("yaml"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	_ = v.RegisterValidation("weekday", func(fl validator.FieldLevel) bool {
		_, ok := calendar.ParseWeekday(fl.Field().String())
		return ok
	})
	return v
}

// validationMessages maps validator tags to readable messages
var validationMessages = map[string]string{
	"required": "is required",
	"min":      "must have at least %s entries",
	"max":      "must be at most %s",
	"alphanum": "must be alphanumeric",
	"timezone": "is not a known time zone",
	"datetime": "must match layout %s",
	"weekday":  "is not a weekday name",
	"oneof":    "must be one of: %s",
}

// FormatValidationErrors renders validator errors as one message per field
func FormatValidationErrors(err error) string {
	var validationErrors validator.ValidationErrors
	if !errors.As(err, &validationErrors) {
		return err.Error()
	}

	messages := make([]string, 0, len(validationErrors))
	for _, fe := range validationErrors {
		message, ok := validationMessages[fe.Tag()]
		if !ok {
			message = "is invalid"
		}
		if strings.Contains(message, "%s") {
			param := fe.Param()
			if fe.Tag() == "oneof" {
				param = strings.Join(strings.Fields(param), ", ")
			}
			message = fmt.Sprintf(message, param)
		}
		messages = append(messages, fe.Namespace()+" "+message)
	}
	return strings.Join(messages, "; ")
}

// ParseDocument decodes and validates a YAML document. Unknown keys are rejected.
func ParseDocument(data []byte) (*Document, error) {
	var doc Document
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&doc); err != nil {
		return nil, fmt.Errorf("failed to decode exchange definitions: %w", err)
	}
	if err := validate.Struct(&doc); err != nil {
		return nil, fmt.Errorf("invalid exchange definitions: %s", FormatValidationErrors(err))
	}
	return &doc, nil
}

// LoadFile reads and validates a YAML file of exchange definitions
func LoadFile(path string) (*Document, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read exchange definitions: %w", err)
	}
	doc, err := ParseDocument(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return doc, nil
}

// Policies returns the order-handling policy of every exchange, keyed by code
func (d *Document) Policies() map[string]Policy {
	policies := make(map[string]Policy, len(d.Exchanges))
	for _, ex := range d.Exchanges {
		policies[ex.Code] = Policy{StrictHours: ex.StrictHours}
	}
	return policies
}

// Profiles converts every exchange of the document
func (d *Document) Profiles() ([]*calendar.Profile, error) {
	profiles := make([]*calendar.Profile, 0, len(d.Exchanges))
	for _, ex := range d.Exchanges {
		p, err := ex.Profile()
		if err != nil {
			return nil, err
		}
		profiles = append(profiles, p)
	}
	return profiles, nil
}

// Profile converts the document into a validated calendar profile
func (d ExchangeDoc) Profile() (*calendar.Profile, error) {
	loc, err := time.LoadLocation(d.Timezone)
	if err != nil {
		return nil, fmt.Errorf("exchange %s: %w", d.Code, err)
	}
	open, err := parseClock(d.Open)
	if err != nil {
		return nil, fmt.Errorf("exchange %s: %w", d.Code, err)
	}
	closeTime, err := parseClock(d.Close)
	if err != nil {
		return nil, fmt.Errorf("exchange %s: %w", d.Code, err)
	}
	tradingDays, err := parseWeekdays(d.TradingDays)
	if err != nil {
		return nil, fmt.Errorf("exchange %s: %w", d.Code, err)
	}

	holidays, err := buildRuleSet(d.Code+" regular holidays", d.Holidays)
	if err != nil {
		return nil, err
	}
	closes, err := buildOverrides(d.Code, "special close", d.SpecialCloses)
	if err != nil {
		return nil, err
	}
	opens, err := buildOverrides(d.Code, "special open", d.SpecialOpens)
	if err != nil {
		return nil, err
	}

	return calendar.NewProfile(calendar.ProfileConfig{
		Code:            d.Code,
		Name:            d.Name,
		Aliases:         d.Aliases,
		Location:        loc,
		Open:            open,
		Close:           closeTime,
		TradingWeekdays: tradingDays,
		RegularHolidays: holidays,
		SpecialCloses:   closes,
		SpecialOpens:    opens,
	})
}

func buildOverrides(code, kind string, docs []OverrideDoc) ([]calendar.SessionOverride, error) {
	overrides := make([]calendar.SessionOverride, 0, len(docs))
	for i, doc := range docs {
		at, err := parseClock(doc.Time)
		if err != nil {
			return nil, fmt.Errorf("exchange %s: %s %d: %w", code, kind, i, err)
		}
		name := doc.Name
		if name == "" {
			name = fmt.Sprintf("%s %s %d", code, kind, i+1)
		}
		rules, err := buildRuleSet(name, doc.Rules)
		if err != nil {
			return nil, err
		}
		overrides = append(overrides, calendar.SessionOverride{Name: name, Time: at, Rules: rules})
	}
	return overrides, nil
}

func buildRuleSet(name string, docs []RuleDoc) (*calendar.RuleSet, error) {
	b := calendar.NewRuleSetBuilder(name)
	for _, doc := range docs {
		b.Add(doc.Rule())
	}
	return b.Build()
}

// Rule converts the document into a calendar rule
func (d RuleDoc) Rule() (calendar.Rule, error) {
	opts, err := d.options()
	if err != nil {
		return calendar.Rule{}, err
	}

	anchors := 0
	if d.Month != 0 || d.Day != 0 {
		anchors++
	}
	if d.EasterOffset != nil {
		anchors++
	}
	if len(d.Dates) > 0 {
		anchors++
	}
	if anchors != 1 {
		return calendar.Rule{}, &calendar.ConfigurationError{
			Subject: d.Name,
			Reason:  "exactly one of month/day, easter_offset or dates is required",
		}
	}

	switch {
	case d.EasterOffset != nil:
		return calendar.NewEasterRule(d.Name, *d.EasterOffset, opts...)
	case len(d.Dates) > 0:
		dates := make([]civil.Date, 0, len(d.Dates))
		for _, s := range d.Dates {
			date, err := civil.ParseDate(s)
			if err != nil {
				return calendar.Rule{}, &calendar.ConfigurationError{Subject: d.Name, Reason: err.Error()}
			}
			dates = append(dates, date)
		}
		return calendar.NewAdHocRule(d.Name, dates, opts...)
	default:
		return calendar.NewFixedRule(d.Name, time.Month(d.Month), d.Day, opts...)
	}
}

func (d RuleDoc) options() ([]calendar.RuleOption, error) {
	var opts []calendar.RuleOption
	// An explicit empty list is a filter that matches nothing, not a missing one
	if d.Weekdays != nil {
		set, err := parseWeekdays(d.Weekdays)
		if err != nil {
			return nil, &calendar.ConfigurationError{Subject: d.Name, Reason: err.Error()}
		}
		opts = append(opts, calendar.OnWeekdaySet(set))
	}
	if d.RollForwardTo != "" {
		day, ok := calendar.ParseWeekday(d.RollForwardTo)
		if !ok {
			return nil, &calendar.ConfigurationError{Subject: d.Name, Reason: "unknown weekday " + d.RollForwardTo}
		}
		opts = append(opts, calendar.RollForwardTo(day))
	}
	if d.ValidFrom != "" {
		from, err := civil.ParseDate(d.ValidFrom)
		if err != nil {
			return nil, &calendar.ConfigurationError{Subject: d.Name, Reason: err.Error()}
		}
		opts = append(opts, calendar.ValidFrom(from))
	}
	if d.ValidUntil != "" {
		until, err := civil.ParseDate(d.ValidUntil)
		if err != nil {
			return nil, &calendar.ConfigurationError{Subject: d.Name, Reason: err.Error()}
		}
		opts = append(opts, calendar.ValidUntil(until))
	}
	switch d.EasterCalendar {
	case "gregorian":
		opts = append(opts, calendar.WithEasterCalendar(calendar.Gregorian))
	case "julian":
		opts = append(opts, calendar.WithEasterCalendar(calendar.Julian))
	}
	return opts, nil
}

func parseClock(s string) (civil.Time, error) {
	t, err := time.Parse(clockLayout, s)
	if err != nil {
		return civil.Time{}, fmt.Errorf("invalid time %q, want HH:MM", s)
	}
	return civil.Time{Hour: t.Hour(), Minute: t.Minute()}, nil
}

func parseWeekdays(names []string) (calendar.WeekdaySet, error) {
	var set calendar.WeekdaySet
	for _, name := range names {
		day, ok := calendar.ParseWeekday(name)
		if !ok {
			return 0, fmt.Errorf("unknown weekday %q", name)
		}
		set |= calendar.Weekdays(day)
	}
	return set, nil
}
