package ritual

import (
	"encoding/json"
	"time"
)

// The state dump keeps a fixed key set. Values that have not been set yet are
// written as null rather than dropped or sent as empty strings.

// MarshalJSON writes id, theme, angle and mood as null until the frame has
// been opened; once opened they are written as stored, empty or not.
func (f Frame) MarshalJSON() ([]byte, error) {
	opened := f.OpenedAt != nil
	return json.Marshal(struct {
		ID       *string    `json:"id"`
		Theme    *string    `json:"theme"`
		Angle    *string    `json:"angle"`
		Mood     *string    `json:"mood"`
		Rhythm   string     `json:"rhythm"`
		OpenedAt *time.Time `json:"opened_at"`
		ClosedAt *time.Time `json:"closed_at"`
		Status   Status     `json:"status"`
	}{
		ID:       presentIf(opened, f.ID),
		Theme:    presentIf(opened, f.Theme),
		Angle:    presentIf(opened, f.Angle),
		Mood:     presentIf(opened, f.Mood),
		Rhythm:   f.Rhythm,
		OpenedAt: f.OpenedAt,
		ClosedAt: f.ClosedAt,
		Status:   f.Status,
	})
}

// MarshalJSON writes unset identifiers, gate choice and transformation as null.
func (f Friction) MarshalJSON() ([]byte, error) {
	submitted := len(f.FollowUpQuestions) > 0
	return json.Marshal(struct {
		IdeaID            *string   `json:"idea_id"`
		Idea              *string   `json:"idea"`
		ProvisionalStatus Semaphore `json:"provisional_status"`
		EvidenceRefs      []string  `json:"evidence_refs"`
		UserGate          *string   `json:"user_gate"`
		FollowUpQuestions []string  `json:"follow_up_questions"`
		Transformation    *string   `json:"transformation"`
	}{
		IdeaID:            presentIf(submitted || f.IdeaID != "", f.IdeaID),
		Idea:              presentIf(submitted || f.Idea != "", f.Idea),
		ProvisionalStatus: f.ProvisionalStatus,
		EvidenceRefs:      nonNil(f.EvidenceRefs),
		UserGate:          presentIf(f.UserGate != "", string(f.UserGate)),
		FollowUpQuestions: nonNil(f.FollowUpQuestions),
		Transformation:    presentIf(f.Transformation != "", f.Transformation),
	})
}

// MarshalJSON writes empty notes and an unevaluated gate as null.
func (m MastersGate) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		FactsVerified *bool      `json:"facts_verified"`
		Feasible      *bool      `json:"feasible"`
		WithinFrame   *bool      `json:"within_frame"`
		Notes         *string    `json:"notes"`
		FrictionGate  *string    `json:"friction_gate"`
		CheckedAt     *time.Time `json:"checked_at"`
	}{
		FactsVerified: m.FactsVerified,
		Feasible:      m.Feasible,
		WithinFrame:   m.WithinFrame,
		Notes:         presentIf(m.Notes != "", m.Notes),
		FrictionGate:  presentIf(m.FrictionGate != "", string(m.FrictionGate)),
		CheckedAt:     m.CheckedAt,
	})
}

func presentIf(ok bool, v string) *string {
	if !ok {
		return nil
	}
	return &v
}

func nonNil(v []string) []string {
	if v == nil {
		return []string{}
	}
	return v
}
