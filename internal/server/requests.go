package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/kingrea/strad-mind/internal/gate"
	"github.com/kingrea/strad-mind/internal/ritual"
)

// ValidationError reports a request rejected before reaching the machine.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return e.Reason
	}
	return fmt.Sprintf("%s: %s", e.Field, e.Reason)
}

func missing(field string) error {
	return &ValidationError{Field: field, Reason: "field required"}
}

// httpError carries a transport-level failure with its status code.
type httpError struct {
	status int
	msg    string
}

func (e *httpError) Error() string { return e.msg }

// decodeJSON reads the request body into dst. An empty body is accepted only
// when allowEmpty is set, leaving dst untouched.
func (s *Server) decodeJSON(w http.ResponseWriter, r *http.Request, dst any, allowEmpty bool) error {
	if r.Body == nil || r.Body == http.NoBody {
		if allowEmpty {
			return nil
		}
		return &ValidationError{Reason: "request body required"}
	}
	reader := http.MaxBytesReader(w, r.Body, s.settings.MaxBodyBytes)
	defer reader.Close()
	body, err := io.ReadAll(reader)
	if err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			return &httpError{status: http.StatusRequestEntityTooLarge, msg: "payload exceeds limit"}
		}
		return &httpError{status: http.StatusBadRequest, msg: "unable to read body"}
	}
	if len(strings.TrimSpace(string(body))) == 0 {
		if allowEmpty {
			return nil
		}
		return &ValidationError{Reason: "request body required"}
	}
	if err := json.Unmarshal(body, dst); err != nil {
		var typeErr *json.UnmarshalTypeError
		if errors.As(err, &typeErr) {
			return &ValidationError{Field: typeErr.Field, Reason: "expected " + typeErr.Type.String()}
		}
		return &httpError{status: http.StatusBadRequest, msg: "invalid JSON"}
	}
	return nil
}

// writeRequestError maps decode and validation failures to responses.
func writeRequestError(w http.ResponseWriter, err error) {
	var vErr *ValidationError
	if errors.As(err, &vErr) {
		writeJSON(w, http.StatusUnprocessableEntity, map[string]any{
			"ok":     false,
			"error":  "validation failed",
			"detail": vErr.Error(),
		})
		return
	}
	var hErr *httpError
	if errors.As(err, &hErr) {
		writeJSON(w, hErr.status, map[string]any{"ok": false, "error": hErr.msg})
		return
	}
	writeJSON(w, http.StatusBadRequest, map[string]any{"ok": false, "error": err.Error()})
}

type frameOpenRequest struct {
	Theme  *string `json:"theme"`
	Angle  *string `json:"angle"`
	Mood   *string `json:"mood"`
	Rhythm *string `json:"rhythm"`
}

func (req frameOpenRequest) validate() (ritual.OpenRequest, error) {
	if req.Theme == nil {
		return ritual.OpenRequest{}, missing("theme")
	}
	return ritual.OpenRequest{
		Theme:  *req.Theme,
		Angle:  req.Angle,
		Mood:   req.Mood,
		Rhythm: req.Rhythm,
	}, nil
}

type frictionSubmitRequest struct {
	IdeaID       *string  `json:"idea_id"`
	Idea         *string  `json:"idea"`
	EvidenceRefs []string `json:"evidence_refs"`
}

func (req frictionSubmitRequest) validate() (ritual.FrictionRequest, error) {
	if req.IdeaID == nil {
		return ritual.FrictionRequest{}, missing("idea_id")
	}
	if req.Idea == nil {
		return ritual.FrictionRequest{}, missing("idea")
	}
	return ritual.FrictionRequest{
		IdeaID:       *req.IdeaID,
		Idea:         *req.Idea,
		EvidenceRefs: req.EvidenceRefs,
	}, nil
}

type userGateRequest struct {
	Choice *string `json:"choice"`
}

func (req userGateRequest) validate() (gate.Choice, error) {
	if req.Choice == nil {
		return gate.ChoiceNone, missing("choice")
	}
	choice, err := gate.ParseChoice(*req.Choice)
	if err != nil {
		return gate.ChoiceNone, &ValidationError{Field: "choice", Reason: "must be one of A, B, C, D"}
	}
	return choice, nil
}

type mastersGateRequest struct {
	FactsVerified *bool   `json:"facts_verified"`
	Feasible      *bool   `json:"feasible"`
	WithinFrame   *bool   `json:"within_frame"`
	Notes         *string `json:"notes"`
}

func (req mastersGateRequest) validate() (ritual.MastersRequest, error) {
	switch {
	case req.FactsVerified == nil:
		return ritual.MastersRequest{}, missing("facts_verified")
	case req.Feasible == nil:
		return ritual.MastersRequest{}, missing("feasible")
	case req.WithinFrame == nil:
		return ritual.MastersRequest{}, missing("within_frame")
	}
	out := ritual.MastersRequest{
		Verification: gate.Verification{
			FactsVerified: *req.FactsVerified,
			Feasible:      *req.Feasible,
			WithinFrame:   *req.WithinFrame,
		},
	}
	if req.Notes != nil {
		out.Notes = *req.Notes
	}
	return out, nil
}

type flowCheckRequest struct {
	CoherenceNote *string `json:"coherence_note"`
}

type factValidateRequest struct {
	AcceptanceCriterion *string `json:"acceptance_criterion"`
}

func (req factValidateRequest) validate() (string, error) {
	if req.AcceptanceCriterion == nil {
		return "", missing("acceptance_criterion")
	}
	return *req.AcceptanceCriterion, nil
}
