// Package gate decides whether a friction item may advance to Flow.
//
// The user gate is a four-valued client choice; the masters gate combines
// that choice with three verification booleans. Evaluation is pure.
package gate

import "fmt"

// Choice is the user gate answer for the current friction item.
type Choice string

const (
	ChoiceNone    Choice = ""
	ChoiceVerify  Choice = "A"
	ChoicePark    Choice = "B"
	ChoiceDiscard Choice = "C"
	ChoiceBypass  Choice = "D"
)

// ParseChoice validates a raw user gate value. Only the exact upper-case
// letters A, B, C and D are accepted.
func ParseChoice(raw string) (Choice, error) {
	switch c := Choice(raw); c {
	case ChoiceVerify, ChoicePark, ChoiceDiscard, ChoiceBypass:
		return c, nil
	default:
		return ChoiceNone, fmt.Errorf("gate: choice %q must be one of A, B, C, D", raw)
	}
}

// Valid reports whether c is one of the four enumerated answers.
func (c Choice) Valid() bool {
	switch c {
	case ChoiceVerify, ChoicePark, ChoiceDiscard, ChoiceBypass:
		return true
	}
	return false
}

// Escalates reports whether the choice moves a blue item to yellow.
func (c Choice) Escalates() bool {
	return c == ChoiceVerify || c == ChoiceBypass
}

// Result is the computed masters gate outcome.
type Result string

const (
	ResultNone     Result = ""
	ResultPassed   Result = "passed"
	ResultFailed   Result = "failed"
	ResultBypassed Result = "bypassed_by_user"
)

// Passable reports whether the result lets the cycle proceed to Flow.
func (r Result) Passable() bool {
	return r == ResultPassed || r == ResultBypassed
}

// Verification is the masters gate checklist.
type Verification struct {
	FactsVerified bool
	Feasible      bool
	WithinFrame   bool
}

// AllTrue reports whether every check holds.
func (v Verification) AllTrue() bool {
	return v.FactsVerified && v.Feasible && v.WithinFrame
}

// Evaluate computes the masters gate result. A bypass choice wins over the
// checklist entirely.
func Evaluate(choice Choice, v Verification) Result {
	if choice == ChoiceBypass {
		return ResultBypassed
	}
	if v.AllTrue() {
		return ResultPassed
	}
	return ResultFailed
}
