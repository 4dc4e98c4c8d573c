package booking

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

const dateLayout = "2006-01-02"

type Gender string

const (
	GenderMale   Gender = "M"
	GenderFemale Gender = "F"
	GenderOther  Gender = "O"
)

const (
	DefaultAge    = 25
	DefaultGender = GenderMale
)

// Nationalities are the country codes offered by the booking form.
var Nationalities = []string{
	"US", "CA", "UK", "IN", "AU", "DE", "FR", "JP", "CN", "BR",
	"MX", "IT", "ES", "NL", "SE", "NO", "DK", "FI", "OTHER",
}

type Traveler struct {
	FirstName           string `json:"first_name" yaml:"first_name"`
	LastName            string `json:"last_name" yaml:"last_name"`
	Email               string `json:"email" yaml:"email"`
	Phone               string `json:"phone" yaml:"phone"`
	Age                 int    `json:"age" yaml:"age"`
	Gender              Gender `json:"gender" yaml:"gender"`
	DateOfBirth         string `json:"date_of_birth" yaml:"date_of_birth"`
	Nationality         string `json:"nationality" yaml:"nationality"`
	PassportNumber      string `json:"passport_number" yaml:"passport_number"`
	DietaryRestrictions string `json:"dietary_restrictions" yaml:"dietary_restrictions"`
	SpecialRequirements string `json:"special_requirements" yaml:"special_requirements"`
}

func DefaultTraveler() Traveler {
	return Traveler{Age: DefaultAge, Gender: DefaultGender}
}

// Profile is the signed-in user the first traveler and the contact email are seeded from.
type Profile struct {
	FirstName string
	LastName  string
	Name      string
	Email     string
}

// seedTraveler fills the first roster record from the profile. Missing first or last
// names fall back to the display name split on its first space.
func seedTraveler(p Profile) Traveler {
	t := DefaultTraveler()
	t.FirstName = p.FirstName
	t.LastName = p.LastName
	name := strings.TrimSpace(p.Name)
	if name != "" {
		head, tail, _ := strings.Cut(name, " ")
		if t.FirstName == "" {
			t.FirstName = head
		}
		if t.LastName == "" {
			t.LastName = strings.TrimSpace(tail)
		}
	}
	t.Email = p.Email
	return t
}

// ResizeRoster returns a new roster of length n. Surviving records are shared with the
// input; new slots get DefaultTraveler values.
func ResizeRoster(roster []*Traveler, n int) []*Traveler {
	if n < 0 {
		n = 0
	}
	out := make([]*Traveler, n)
	copy(out, roster)
	for i := len(roster); i < n; i++ {
		t := DefaultTraveler()
		out[i] = &t
	}
	return out
}

// set applies one form field to t. t must be a private copy.
func (t *Traveler) set(field, value string) error {
	switch field {
	case "first_name":
		t.FirstName = value
	case "last_name":
		t.LastName = value
	case "email":
		t.Email = value
	case "phone":
		t.Phone = value
	case "age":
		n, err := strconv.Atoi(strings.TrimSpace(value))
		if err != nil || n < 0 {
			return FieldError{Field: field, Message: "Age must be a whole number"}
		}
		t.Age = n
	case "gender":
		g := Gender(strings.ToUpper(strings.TrimSpace(value)))
		switch g {
		case GenderMale, GenderFemale, GenderOther:
			t.Gender = g
		default:
			return FieldError{Field: field, Message: "Gender must be M, F or O"}
		}
	case "date_of_birth":
		d, err := normalizeDate(value)
		if err != nil {
			return FieldError{Field: field, Message: "Date of birth must be a date (YYYY-MM-DD)"}
		}
		t.DateOfBirth = d
	case "nationality":
		code := strings.ToUpper(strings.TrimSpace(value))
		if code != "" && !isNationality(code) {
			return FieldError{Field: field, Message: fmt.Sprintf("Unknown nationality %q", value)}
		}
		t.Nationality = code
	case "passport_number":
		t.PassportNumber = value
	case "dietary_restrictions":
		t.DietaryRestrictions = value
	case "special_requirements":
		t.SpecialRequirements = value
	default:
		return fmt.Errorf("%w: traveler %s", ErrUnknownField, field)
	}
	return nil
}

func isNationality(code string) bool {
	for _, n := range Nationalities {
		if n == code {
			return true
		}
	}
	return false
}

// normalizeDate accepts an empty value (clears the field) or a YYYY-MM-DD date.
func normalizeDate(value string) (string, error) {
	v := strings.TrimSpace(value)
	if v == "" {
		return "", nil
	}
	d, err := time.Parse(dateLayout, v)
	if err != nil {
		return "", err
	}
	return d.Format(dateLayout), nil
}
