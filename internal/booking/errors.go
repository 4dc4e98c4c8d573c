package booking

import "errors"

var (
	ErrBusy          = errors.New("booking submission in progress")
	ErrUnknownField  = errors.New("unknown field")
	ErrTravelerIndex = errors.New("traveler index out of range")
	ErrConfirmed     = errors.New("booking already confirmed")
	ErrClosed        = errors.New("booking flow closed")
)

// FieldError is a single field-level problem, keyed by the form field name
// (travelers[i].<field> for roster entries).
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

func (e FieldError) Error() string {
	if e.Field == "" {
		return e.Message
	}
	return e.Field + ": " + e.Message
}
