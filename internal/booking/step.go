package booking

import "fmt"

type Step string

const (
	StepDates        Step = "dates"
	StepTravelers    Step = "travelers"
	StepContact      Step = "contact"
	StepConfirmation Step = "confirmation"
)

func ParseStep(s string) (Step, error) {
	switch Step(s) {
	case StepDates, StepTravelers, StepContact, StepConfirmation:
		return Step(s), nil
	default:
		return "", fmt.Errorf("unknown step: %s", s)
	}
}

// Number is the 1-based position shown to the traveler ("step 2 of 4").
func (s Step) Number() int {
	switch s {
	case StepDates:
		return 1
	case StepTravelers:
		return 2
	case StepContact:
		return 3
	case StepConfirmation:
		return 4
	default:
		return 0
	}
}

var allowedTransitions = map[Step]map[Step]bool{
	StepDates:        {StepTravelers: true},
	StepTravelers:    {StepContact: true, StepDates: true},
	StepContact:      {StepConfirmation: true, StepTravelers: true},
	StepConfirmation: {}, // terminal
}

var nextStep = map[Step]Step{
	StepDates:     StepTravelers,
	StepTravelers: StepContact,
	StepContact:   StepConfirmation,
}

var previousStep = map[Step]Step{
	StepTravelers: StepDates,
	StepContact:   StepTravelers,
}

func CanTransition(from, to Step) bool {
	m, ok := allowedTransitions[from]
	if !ok {
		return false
	}
	return m[to]
}
