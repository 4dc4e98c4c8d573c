package booking

import (
	"fmt"
	"strings"
	"time"
)

type Result struct {
	Valid  bool         `json:"valid"`
	Errors []FieldError `json:"errors,omitempty"`
}

// ErrorMap keys messages by field. The first message for a field wins.
func (r Result) ErrorMap() map[string]string {
	if len(r.Errors) == 0 {
		return nil
	}
	m := make(map[string]string, len(r.Errors))
	for _, e := range r.Errors {
		if _, ok := m[e.Field]; !ok {
			m[e.Field] = e.Message
		}
	}
	return m
}

// First is the message shown in the flow's error banner.
func (r Result) First() string {
	if len(r.Errors) == 0 {
		return ""
	}
	return r.Errors[0].Message
}

// rule returns the violations it finds, nil when satisfied.
type rule func(d *Draft, today time.Time) []FieldError

type ruleSet struct {
	rules []rule
	// stopAtFirst ends the check at the first failing rule.
	stopAtFirst bool
}

var stepRules = map[Step]ruleSet{
	StepDates: {rules: []rule{datesPresent, returnAfterDeparture, departureInFuture}},
	StepTravelers: {
		stopAtFirst: true,
		rules:       []rule{travelerCountInRange, travelersComplete, birthDatesInPast},
	},
	StepContact: {rules: []rule{emergencyContactPresent, contactEmailPresent}},
}

// Validate checks the draft against the rules of one step. Steps without rules are
// always valid.
func Validate(step Step, d *Draft, today time.Time) Result {
	rs, ok := stepRules[step]
	if !ok || d == nil {
		return Result{Valid: true}
	}
	today = calendarDay(today)

	var errs []FieldError
	for _, r := range rs.rules {
		found := r(d, today)
		errs = append(errs, found...)
		if len(found) > 0 && rs.stopAtFirst {
			break
		}
	}
	return Result{Valid: len(errs) == 0, Errors: errs}
}

const msgDatesRequired = "Please select both departure and return dates"

func datesPresent(d *Draft, _ time.Time) []FieldError {
	var errs []FieldError
	if _, ok := parseDay(d.DepartureDate); !ok {
		errs = append(errs, FieldError{Field: "departure_date", Message: msgDatesRequired})
	}
	if _, ok := parseDay(d.ReturnDate); !ok {
		errs = append(errs, FieldError{Field: "return_date", Message: msgDatesRequired})
	}
	return errs
}

func returnAfterDeparture(d *Draft, _ time.Time) []FieldError {
	dep, ok1 := parseDay(d.DepartureDate)
	ret, ok2 := parseDay(d.ReturnDate)
	if !ok1 || !ok2 || dep.Before(ret) {
		return nil
	}
	return []FieldError{{Field: "return_date", Message: "Return date must be after departure date"}}
}

func departureInFuture(d *Draft, today time.Time) []FieldError {
	dep, ok1 := parseDay(d.DepartureDate)
	_, ok2 := parseDay(d.ReturnDate)
	if !ok1 || !ok2 || dep.After(today) {
		return nil
	}
	return []FieldError{{Field: "departure_date", Message: "Departure date must be in the future"}}
}

func travelerCountInRange(d *Draft, _ time.Time) []FieldError {
	if d.TravelerCount >= MinTravelers && d.TravelerCount <= MaxTravelers {
		return nil
	}
	return []FieldError{{
		Field:   "traveler_count",
		Message: fmt.Sprintf("Number of travelers must be between %d and %d", MinTravelers, MaxTravelers),
	}}
}

var requiredTravelerFields = []struct {
	field string
	label string
	value func(*Traveler) string
}{
	{"first_name", "first name", func(t *Traveler) string { return t.FirstName }},
	{"last_name", "last name", func(t *Traveler) string { return t.LastName }},
	{"email", "email", func(t *Traveler) string { return t.Email }},
	{"date_of_birth", "date of birth", func(t *Traveler) string { return t.DateOfBirth }},
	{"nationality", "nationality", func(t *Traveler) string { return t.Nationality }},
}

func travelersComplete(d *Draft, _ time.Time) []FieldError {
	for i, t := range d.Travelers {
		if t == nil {
			t = &Traveler{}
		}
		for _, f := range requiredTravelerFields {
			if strings.TrimSpace(f.value(t)) == "" {
				return []FieldError{{
					Field:   travelerKey(i, f.field),
					Message: fmt.Sprintf("Please enter %s for traveler %d", f.label, i+1),
				}}
			}
		}
	}
	return nil
}

func birthDatesInPast(d *Draft, today time.Time) []FieldError {
	for i, t := range d.Travelers {
		dob, ok := parseDay(t.DateOfBirth)
		if ok && dob.Before(today) {
			continue
		}
		return []FieldError{{
			Field:   travelerKey(i, "date_of_birth"),
			Message: fmt.Sprintf("Date of birth for traveler %d must be in the past", i+1),
		}}
	}
	return nil
}

const msgEmergencyContact = "Emergency contact information is required"

func emergencyContactPresent(d *Draft, _ time.Time) []FieldError {
	var errs []FieldError
	if strings.TrimSpace(d.PrimaryContactName) == "" {
		errs = append(errs, FieldError{Field: "primary_contact_name", Message: msgEmergencyContact})
	}
	if strings.TrimSpace(d.PrimaryContactPhone) == "" {
		errs = append(errs, FieldError{Field: "primary_contact_phone", Message: msgEmergencyContact})
	}
	return errs
}

func contactEmailPresent(d *Draft, _ time.Time) []FieldError {
	if strings.TrimSpace(d.PrimaryContactEmail) != "" {
		return nil
	}
	return []FieldError{{Field: "primary_contact_email", Message: "Contact email is required"}}
}

func parseDay(s string) (time.Time, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, false
	}
	t, err := time.Parse(dateLayout, s)
	if err != nil {
		return time.Time{}, false
	}
	return t, true
}

// calendarDay drops the clock so comparisons happen on dates in the caller's zone.
func calendarDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
