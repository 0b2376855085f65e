package ritual

import (
	"time"

	"github.com/kingrea/strad-mind/internal/gate"
	"github.com/kingrea/strad-mind/internal/memory"
)

// Status enumerates the frame lifecycle stages.
type Status string

const (
	StatusIdle       Status = "idle"
	StatusOpen       Status = "open"
	StatusInFriction Status = "in_friction"
	StatusInFlow     Status = "in_flow"
	StatusInFact     Status = "in_fact"
	StatusClosed     Status = "closed"
)

// Active reports whether a frame in this status is still live.
func (s Status) Active() bool {
	switch s {
	case StatusOpen, StatusInFriction, StatusInFlow, StatusInFact:
		return true
	}
	return false
}

// Semaphore is the ternary progress indicator of a friction item.
type Semaphore string

const (
	SemaphoreBlue   Semaphore = "blue"
	SemaphoreYellow Semaphore = "yellow"
	SemaphoreGreen  Semaphore = "green"
)

// Rank orders semaphores blue < yellow < green. Unknown values rank lowest.
func (s Semaphore) Rank() int {
	switch s {
	case SemaphoreBlue:
		return 1
	case SemaphoreYellow:
		return 2
	case SemaphoreGreen:
		return 3
	}
	return 0
}

// Glyph returns the display symbol for the semaphore.
func (s Semaphore) Glyph() string {
	switch s {
	case SemaphoreBlue:
		return "🔵"
	case SemaphoreYellow:
		return "🟡"
	case SemaphoreGreen:
		return "🟢"
	}
	return "·"
}

// Defaults applied to an opened frame when the caller leaves fields empty.
const (
	DefaultAngle  = "Conceito"
	DefaultMood   = "leve"
	DefaultRhythm = "⚡"

	// TransformationBlueToYellow marks a friction item escalated by the user gate.
	TransformationBlueToYellow = "blue_to_yellow"
)

// Frame is the current ritual cycle.
type Frame struct {
	ID       string     `json:"id"`
	Theme    string     `json:"theme"`
	Angle    string     `json:"angle"`
	Mood     string     `json:"mood"`
	Rhythm   string     `json:"rhythm"`
	OpenedAt *time.Time `json:"opened_at"`
	ClosedAt *time.Time `json:"closed_at"`
	Status   Status     `json:"status"`
}

// Friction is the idea under evaluation inside the frame.
type Friction struct {
	IdeaID            string      `json:"idea_id"`
	Idea              string      `json:"idea"`
	ProvisionalStatus Semaphore   `json:"provisional_status"`
	EvidenceRefs      []string    `json:"evidence_refs"`
	UserGate          gate.Choice `json:"user_gate"`
	FollowUpQuestions []string    `json:"follow_up_questions"`
	Transformation    string      `json:"transformation"`
}

// MastersGate records the verification outcome for the friction item.
// The booleans stay nil until a masters gate is submitted.
type MastersGate struct {
	FactsVerified *bool       `json:"facts_verified"`
	Feasible      *bool       `json:"feasible"`
	WithinFrame   *bool       `json:"within_frame"`
	Notes         string      `json:"notes"`
	FrictionGate  gate.Result `json:"friction_gate"`
	CheckedAt     *time.Time  `json:"checked_at"`
}

// NextAction is one follow-up owned by a role.
type NextAction struct {
	Action string `json:"acao"`
	Owner  string `json:"dono"`
	When   string `json:"quando"`
}

// Masters gate labels echoed in the decision artifact.
const (
	MastersLabelPassed   = "Passed"
	MastersLabelBypassed = "Bypassed"
)

// D6 is the decision artifact stamped when a fact is validated.
type D6 struct {
	Semaphore   Semaphore    `json:"semaphore"`
	Decision    string       `json:"decision"`
	Reasons     []string     `json:"reasons"`
	NextActions []NextAction `json:"next_actions"`
	UserGate    gate.Choice  `json:"user_gate"`
	MastersGate string       `json:"masters_gate"`
	StampedAt   time.Time    `json:"stamped_at"`
}

// State is the full ritual snapshot.
type State struct {
	Frame       Frame        `json:"frame"`
	Short       memory.Short `json:"short"`
	Friction    Friction     `json:"friction"`
	MastersGate MastersGate  `json:"masters_gate"`
	D6          *D6          `json:"d6"`
}

// DefaultState is the canonical starting point used by New, Reset and the
// per-frame friction reset.
func DefaultState() State {
	return State{
		Frame:       Frame{Rhythm: DefaultRhythm, Status: StatusIdle},
		Short:       memory.New(),
		Friction:    defaultFriction(),
		MastersGate: MastersGate{},
	}
}

func defaultFriction() Friction {
	return Friction{
		ProvisionalStatus: SemaphoreBlue,
		EvidenceRefs:      []string{},
		FollowUpQuestions: []string{},
	}
}

// Clone returns a deep copy of the snapshot.
func (s State) Clone() State {
	out := State{
		Frame:       s.Frame.clone(),
		Short:       s.Short.Clone(),
		Friction:    s.Friction.clone(),
		MastersGate: s.MastersGate.clone(),
	}
	if s.D6 != nil {
		d6 := s.D6.Clone()
		out.D6 = &d6
	}
	return out
}

func (f Frame) clone() Frame {
	f.OpenedAt = cloneTime(f.OpenedAt)
	f.ClosedAt = cloneTime(f.ClosedAt)
	return f
}

func (f Friction) clone() Friction {
	f.EvidenceRefs = cloneStrings(f.EvidenceRefs)
	f.FollowUpQuestions = cloneStrings(f.FollowUpQuestions)
	return f
}

func (m MastersGate) clone() MastersGate {
	m.FactsVerified = cloneBool(m.FactsVerified)
	m.Feasible = cloneBool(m.Feasible)
	m.WithinFrame = cloneBool(m.WithinFrame)
	m.CheckedAt = cloneTime(m.CheckedAt)
	return m
}

// Clone returns a deep copy of the artifact.
func (d D6) Clone() D6 {
	d.Reasons = cloneStrings(d.Reasons)
	if d.NextActions != nil {
		actions := make([]NextAction, len(d.NextActions))
		copy(actions, d.NextActions)
		d.NextActions = actions
	}
	return d
}

func cloneStrings(values []string) []string {
	if values == nil {
		return nil
	}
	out := make([]string, len(values))
	copy(out, values)
	return out
}

func cloneTime(v *time.Time) *time.Time {
	if v == nil {
		return nil
	}
	c := *v
	return &c
}

func cloneBool(v *bool) *bool {
	if v == nil {
		return nil
	}
	c := *v
	return &c
}
