// Package ritual runs the Frame → Friction → Flow → Fact lifecycle.
//
// A Machine owns the single live frame together with its friction item,
// masters gate record, short memory and last decision artifact. Every
// operation runs under one exclusive lock, so concurrent HTTP requests are
// serialized rather than interleaved.
package ritual

import (
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/kingrea/strad-mind/internal/gate"
	"github.com/kingrea/strad-mind/internal/memory"
)

// ErrGateNotPassed is returned by FlowCheck when the masters gate has not
// passed and was not bypassed. The machine state is left untouched.
var ErrGateNotPassed = errors.New("ritual: friction gate has not passed")

// ErrInvalidChoice is returned by UserGate for values outside A-D.
var ErrInvalidChoice = errors.New("ritual: invalid user gate choice")

// FollowUpQuestion is seeded on every submitted friction item.
const FollowUpQuestion = "O que provaria isso verdadeiro em 1 métrica?"

// Trail record types written to short memory.
const (
	TrailFrameCloseAuto = "frame_close_auto"
	TrailD6             = "d6"
)

// Transition describes one applied operation. Observers receive it while the
// machine lock is held and must not call back into the Machine.
type Transition struct {
	Op      string
	From    Status
	To      Status
	FrameID string
	At      time.Time
	Detail  string
}

// Observer is notified after each operation mutates the state.
type Observer interface {
	Observe(Transition)
}

// ObserverFunc adapts a function into an Observer.
type ObserverFunc func(Transition)

// Observe executes f(t).
func (f ObserverFunc) Observe(t Transition) {
	if f != nil {
		f(t)
	}
}

// Machine is the ritual state machine.
type Machine struct {
	mu       sync.Mutex
	state    State
	clock    func() time.Time
	observer Observer
}

// Option customizes the machine instance.
type Option func(*Machine)

// WithClock injects a deterministic clock (primarily for tests).
func WithClock(clock func() time.Time) Option {
	return func(m *Machine) {
		if clock != nil {
			m.clock = clock
		}
	}
}

// WithObserver registers a transition observer.
func WithObserver(o Observer) Option {
	return func(m *Machine) {
		if o != nil {
			m.observer = o
		}
	}
}

// New returns a machine in the idle state.
func New(opts ...Option) *Machine {
	m := &Machine{
		state: DefaultState(),
		clock: time.Now,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(m)
		}
	}
	return m
}

// OpenRequest carries the parameters of a new frame. A nil Angle, Mood or
// Rhythm takes the default; an explicit empty string is kept as sent.
type OpenRequest struct {
	Theme  string
	Angle  *string
	Mood   *string
	Rhythm *string
}

func (r OpenRequest) resolve() (angle, mood, rhythm string) {
	return orDefault(r.Angle, DefaultAngle), orDefault(r.Mood, DefaultMood), orDefault(r.Rhythm, DefaultRhythm)
}

func orDefault(v *string, def string) string {
	if v == nil {
		return def
	}
	return *v
}

// FrictionRequest carries an idea submitted for evaluation.
type FrictionRequest struct {
	IdeaID       string
	Idea         string
	EvidenceRefs []string
}

// MastersRequest carries the masters gate checklist.
type MastersRequest struct {
	Verification gate.Verification
	Notes        string
}

// FlowResult is returned by a successful FlowCheck.
type FlowResult struct {
	SignatureAlive bool
	State          State
}

// Snapshot returns a deep copy of the current state.
func (m *Machine) Snapshot() State {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state.Clone()
}

// Now reads the machine clock in UTC.
func (m *Machine) Now() time.Time {
	return m.now()
}

// Reset reinitializes the whole state, short memory included.
func (m *Machine) Reset() State {
	m.mu.Lock()
	defer m.mu.Unlock()
	from := m.state.Frame.Status
	m.state = DefaultState()
	m.notify("reset", from, "")
	return m.state.Clone()
}

// OpenFrame starts a new frame, auto-closing the previous one if it is
// still live, and launches drive.
func (m *Machine) OpenFrame(req OpenRequest) State {
	m.mu.Lock()
	defer m.mu.Unlock()
	angle, mood, rhythm := req.resolve()
	now := m.now()
	from := m.state.Frame.Status
	if from.Active() {
		m.closeFrame(now)
		m.state.Short.Append(memory.Record{
			"type":  TrailFrameCloseAuto,
			"at":    now,
			"theme": m.state.Frame.Theme,
		})
		m.notify(TrailFrameCloseAuto, from, m.state.Frame.Theme)
		from = StatusClosed
	}
	opened := now
	m.state.Frame = Frame{
		ID:       frameID(now),
		Theme:    req.Theme,
		Angle:    angle,
		Mood:     mood,
		Rhythm:   rhythm,
		OpenedAt: &opened,
		Status:   StatusOpen,
	}
	m.state.Short.SetDrive(now)
	m.resetFriction()
	m.notify("frame_open", from, req.Theme)
	return m.state.Clone()
}

// CloseFrame closes the current frame and stamps balance. It does not check
// the current status.
func (m *Machine) CloseFrame() State {
	m.mu.Lock()
	defer m.mu.Unlock()
	from := m.state.Frame.Status
	m.closeFrame(m.now())
	m.notify("frame_close", from, "")
	return m.state.Clone()
}

// SubmitFriction places an idea under evaluation with a blue semaphore.
func (m *Machine) SubmitFriction(req FrictionRequest) State {
	m.mu.Lock()
	defer m.mu.Unlock()
	from := m.state.Frame.Status
	refs := cloneStrings(req.EvidenceRefs)
	if refs == nil {
		refs = []string{}
	}
	m.state.Frame.Status = StatusInFriction
	f := &m.state.Friction
	f.IdeaID = req.IdeaID
	f.Idea = req.Idea
	f.EvidenceRefs = refs
	f.ProvisionalStatus = SemaphoreBlue
	f.FollowUpQuestions = []string{FollowUpQuestion}
	f.Transformation = ""
	m.notify("friction_submit", from, req.IdeaID)
	return m.state.Clone()
}

// UserGate records the user's choice. Verify and bypass escalate a blue item
// to yellow; the semaphore never moves backwards here.
func (m *Machine) UserGate(choice gate.Choice) (State, error) {
	if !choice.Valid() {
		return State{}, fmt.Errorf("%w: %q", ErrInvalidChoice, string(choice))
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	f := &m.state.Friction
	f.UserGate = choice
	if choice.Escalates() && f.ProvisionalStatus.Rank() < SemaphoreYellow.Rank() {
		f.ProvisionalStatus = SemaphoreYellow
		f.Transformation = TransformationBlueToYellow
	}
	status := m.state.Frame.Status
	m.notify("user_gate", status, string(choice))
	return m.state.Clone(), nil
}

// MastersGate evaluates the checklist against the recorded user choice.
func (m *Machine) MastersGate(req MastersRequest) State {
	m.mu.Lock()
	defer m.mu.Unlock()
	now := m.now()
	v := req.Verification
	m.state.MastersGate = MastersGate{
		FactsVerified: &v.FactsVerified,
		Feasible:      &v.Feasible,
		WithinFrame:   &v.WithinFrame,
		Notes:         req.Notes,
		FrictionGate:  gate.Evaluate(m.state.Friction.UserGate, v),
		CheckedAt:     &now,
	}
	status := m.state.Frame.Status
	m.notify("masters_gate", status, string(m.state.MastersGate.FrictionGate))
	return m.state.Clone()
}

// FlowCheck moves the frame into Flow. It is the one hard guard of the
// ritual: unless the friction gate passed or was bypassed it returns
// ErrGateNotPassed and changes nothing.
func (m *Machine) FlowCheck(note string) (FlowResult, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	from := m.state.Frame.Status
	if !m.state.MastersGate.FrictionGate.Passable() {
		m.notify("flow_check_rejected", from, string(m.state.MastersGate.FrictionGate))
		return FlowResult{}, ErrGateNotPassed
	}
	m.state.Frame.Status = StatusInFlow
	alive := m.signatureAlive()
	m.notify("flow_check", from, strings.TrimSpace(note))
	return FlowResult{SignatureAlive: alive, State: m.state.Clone()}, nil
}

func (m *Machine) closeFrame(now time.Time) {
	closed := now
	m.state.Frame.ClosedAt = &closed
	m.state.Frame.Status = StatusClosed
	m.state.Short.SetBalance(now)
}

func (m *Machine) resetFriction() {
	fresh := DefaultState()
	m.state.Friction = fresh.Friction
	m.state.MastersGate = fresh.MastersGate
}

// signatureAlive reports whether drive was launched for the current frame.
func (m *Machine) signatureAlive() bool {
	if m.state.Frame.OpenedAt == nil {
		return m.state.Short.DriveLaunch != nil
	}
	return m.state.Short.DriveSince(*m.state.Frame.OpenedAt)
}

func (m *Machine) notify(op string, from Status, detail string) {
	if m.observer == nil {
		return
	}
	m.observer.Observe(Transition{
		Op:      op,
		From:    from,
		To:      m.state.Frame.Status,
		FrameID: m.state.Frame.ID,
		At:      m.now(),
		Detail:  detail,
	})
}

func (m *Machine) now() time.Time {
	if m.clock == nil {
		return time.Now().UTC()
	}
	return m.clock().UTC()
}

func frameID(now time.Time) string {
	return "frame-" + now.UTC().Format("20060102-150405")
}
