package booking

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"
)

const (
	MinTravelers = 1
	MaxTravelers = 20

	// maxRoster bounds allocation; counts above MaxTravelers are still accepted
	// so the validator can report them.
	maxRoster = 99
)

// DefaultPricePerPerson applies when the destination carries no price.
var DefaultPricePerPerson = decimal.NewFromInt(1299)

type Destination struct {
	ID             int64           `json:"id" yaml:"id"`
	Name           string          `json:"name,omitempty" yaml:"name"`
	PricePerPerson decimal.Decimal `json:"price_per_person" yaml:"price_per_person"`
}

type Draft struct {
	Destination Destination `json:"destination" yaml:"destination"`

	DepartureDate string `json:"departure_date" yaml:"departure_date"`
	ReturnDate    string `json:"return_date" yaml:"return_date"`

	TravelerCount int         `json:"traveler_count" yaml:"traveler_count"`
	Travelers     []*Traveler `json:"travelers" yaml:"travelers"`

	PrimaryContactName  string `json:"primary_contact_name" yaml:"primary_contact_name"`
	PrimaryContactPhone string `json:"primary_contact_phone" yaml:"primary_contact_phone"`
	PrimaryContactEmail string `json:"primary_contact_email" yaml:"primary_contact_email"`

	GeneralDietaryRequirements string `json:"general_dietary_requirements" yaml:"general_dietary_requirements"`
	SpecialRequests            string `json:"special_requests" yaml:"special_requests"`
}

// NewDraft starts a one-traveler draft seeded from the profile.
func NewDraft(dest Destination, p Profile) *Draft {
	first := seedTraveler(p)
	return &Draft{
		Destination:         dest,
		TravelerCount:       1,
		Travelers:           []*Traveler{&first},
		PrimaryContactEmail: p.Email,
	}
}

func (d *Draft) PricePerPerson() decimal.Decimal {
	if d.Destination.PricePerPerson.IsZero() {
		return DefaultPricePerPerson
	}
	return d.Destination.PricePerPerson
}

func (d *Draft) Total() decimal.Decimal {
	return d.PricePerPerson().Mul(decimal.NewFromInt(int64(d.TravelerCount)))
}

// fieldAliases maps the booking form's input names onto draft fields.
var fieldAliases = map[string]string{
	"emergency_contact_name":  "primary_contact_name",
	"emergency_contact_phone": "primary_contact_phone",
	"emergency_contact_email": "primary_contact_email",
	"dietary_requirements":    "general_dietary_requirements",
	"number_of_travelers":     "traveler_count",
}

// SetField sets a draft-level field by name.
func (d *Draft) SetField(name, value string) error {
	if canonical, ok := fieldAliases[name]; ok {
		name = canonical
	}
	switch name {
	case "departure_date", "return_date":
		v, err := normalizeDate(value)
		if err != nil {
			return FieldError{Field: name, Message: "Dates must be formatted as YYYY-MM-DD"}
		}
		if name == "departure_date" {
			d.DepartureDate = v
		} else {
			d.ReturnDate = v
		}
	case "traveler_count":
		n, err := strconv.Atoi(strings.TrimSpace(value))
		if err != nil || n < 0 || n > maxRoster {
			return FieldError{Field: name, Message: "Number of travelers must be a whole number"}
		}
		d.TravelerCount = n
		d.Travelers = ResizeRoster(d.Travelers, n)
	case "primary_contact_name":
		d.PrimaryContactName = value
	case "primary_contact_phone":
		d.PrimaryContactPhone = value
	case "primary_contact_email":
		d.PrimaryContactEmail = value
	case "general_dietary_requirements":
		d.GeneralDietaryRequirements = value
	case "special_requests":
		d.SpecialRequests = value
	default:
		return fmt.Errorf("%w: %s", ErrUnknownField, name)
	}
	return nil
}

// SetTraveler replaces the record at index with an edited copy. The roster slice is
// replaced too; every other record keeps its identity.
func (d *Draft) SetTraveler(index int, field, value string) error {
	if index < 0 || index >= len(d.Travelers) {
		return fmt.Errorf("%w: %d", ErrTravelerIndex, index)
	}
	edited := *d.Travelers[index]
	if err := edited.set(field, value); err != nil {
		var fe FieldError
		if errors.As(err, &fe) {
			fe.Field = travelerKey(index, fe.Field)
			return fe
		}
		return err
	}
	roster := make([]*Traveler, len(d.Travelers))
	copy(roster, d.Travelers)
	roster[index] = &edited
	d.Travelers = roster
	return nil
}

// Clone copies the draft and its roster records.
func (d *Draft) Clone() *Draft {
	out := *d
	out.Travelers = make([]*Traveler, len(d.Travelers))
	for i, t := range d.Travelers {
		c := *t
		out.Travelers[i] = &c
	}
	return &out
}

func travelerKey(index int, field string) string {
	return fmt.Sprintf("travelers[%d].%s", index, field)
}
