package domain

import "strings"

// Step is a position in the fixed wizard sequence.
type Step int

const (
	StepBusiness Step = iota
	StepCustomer
	StepItems
	StepGenerate
)

const (
	StepCount = 4
	FirstStep = StepBusiness
	LastStep  = StepGenerate
)

var stepNames = [StepCount]string{"Business", "Customer", "Items", "Generate"}

// Steps returns every step in order.
func Steps() []Step {
	return []Step{StepBusiness, StepCustomer, StepItems, StepGenerate}
}

func (s Step) Index() int { return int(s) }

func (s Step) Valid() bool {
	return s >= FirstStep && s <= LastStep
}

func (s Step) String() string {
	if !s.Valid() {
		return "Unknown"
	}
	return stepNames[s]
}

// ParseStep resolves a case-insensitive step name.
func ParseStep(name string) (Step, bool) {
	name = strings.TrimSpace(name)
	for i, candidate := range stepNames {
		if strings.EqualFold(candidate, name) {
			return Step(i), true
		}
	}
	return 0, false
}

// ClampStep coerces any index into the valid step range.
func ClampStep(index int) Step {
	if index < int(FirstStep) {
		return FirstStep
	}
	if index > int(LastStep) {
		return LastStep
	}
	return Step(index)
}

// Direction records which way the last navigation intent pointed. It only
// selects a visual transition.
type Direction int

const (
	DirectionForward  Direction = 1
	DirectionBackward Direction = -1
)

func (d Direction) String() string {
	if d == DirectionBackward {
		return "backward"
	}
	return "forward"
}
