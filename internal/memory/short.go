// Package memory holds the short rotating memory kept between ritual cycles.
package memory

import (
	"time"
)

// TrailLimit caps how many cycle records the trail retains.
const TrailLimit = 5

// Record is one trail entry. Keys are free-form so callers can attach
// whatever the event needs (type, at, theme, semaphore, decision).
type Record map[string]any

// Short is the short memory: last decision, one anchor number, one pending
// item, the balance/drive stamps of the current frame, and a trail of the
// most recent cycle events.
type Short struct {
	LastDecision *string    `json:"last_decision"`
	LastNumber   *string    `json:"last_number"`
	LastPending  *string    `json:"last_pending"`
	BalanceGate  *time.Time `json:"balance_gate"`
	DriveLaunch  *time.Time `json:"drive_launch"`
	Trail        []Record   `json:"trail"`
}

// New returns an empty short memory.
func New() Short {
	return Short{Trail: []Record{}}
}

// Append pushes rec onto the trail, evicting the oldest entries once the
// trail exceeds TrailLimit.
func (s *Short) Append(rec Record) {
	s.Trail = append(s.Trail, cloneRecord(rec))
	if over := len(s.Trail) - TrailLimit; over > 0 {
		kept := make([]Record, TrailLimit)
		copy(kept, s.Trail[over:])
		s.Trail = kept
	}
}

// SetBalance stamps the balance gate.
func (s *Short) SetBalance(now time.Time) {
	stamp := now.UTC()
	s.BalanceGate = &stamp
}

// SetDrive stamps the drive launch.
func (s *Short) SetDrive(now time.Time) {
	stamp := now.UTC()
	s.DriveLaunch = &stamp
}

// DriveSince reports whether drive was launched at or after t.
func (s Short) DriveSince(t time.Time) bool {
	if s.DriveLaunch == nil {
		return false
	}
	return !s.DriveLaunch.Before(t)
}

// Remember records the outcome of a completed cycle.
func (s *Short) Remember(decision, number string) {
	s.LastDecision = &decision
	s.LastNumber = &number
	s.LastPending = nil
}

// Clone returns a deep copy safe to hand outside the owning lock.
func (s Short) Clone() Short {
	out := Short{
		LastDecision: cloneString(s.LastDecision),
		LastNumber:   cloneString(s.LastNumber),
		LastPending:  cloneString(s.LastPending),
		BalanceGate:  cloneTime(s.BalanceGate),
		DriveLaunch:  cloneTime(s.DriveLaunch),
		Trail:        make([]Record, len(s.Trail)),
	}
	for i, rec := range s.Trail {
		out.Trail[i] = cloneRecord(rec)
	}
	return out
}

func cloneRecord(rec Record) Record {
	out := make(Record, len(rec))
	for k, v := range rec {
		out[k] = v
	}
	return out
}

func cloneString(v *string) *string {
	if v == nil {
		return nil
	}
	c := *v
	return &c
}

func cloneTime(v *time.Time) *time.Time {
	if v == nil {
		return nil
	}
	c := *v
	return &c
}
