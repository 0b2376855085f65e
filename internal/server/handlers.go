package server

import (
	"errors"
	"net/http"
	"time"

	"github.com/kingrea/strad-mind/internal/config"
	"github.com/kingrea/strad-mind/internal/eco"
	"github.com/kingrea/strad-mind/internal/ritual"
)

// GateNotPassedMessage is the soft failure returned by /v1/flow/check.
const GateNotPassedMessage = "Friction gate não passou."

// Stage hints returned to clients.
const (
	hintFrameOpen   = "Frame aberto — Drive lançado"
	hintFriction    = "Ideia recebida; peça o User Gate."
	hintUserGate    = "Se A, rode Masters’ Gate. Se D, irá como bypass."
	hintMastersGate = "Se passed/bypassed, siga para Flow."
	hintFlow        = "Se signature_alive, pode ir para Fact."
)

func (s *Server) respond(w http.ResponseWriter, payload eco.Payload) {
	writeJSON(w, http.StatusOK, eco.Filter(payload, s.settings.Eco))
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	state := s.machine.Snapshot()
	writeJSON(w, http.StatusOK, eco.Payload{
		"ok":             true,
		"name":           config.AppName,
		"version":        config.AppVersion,
		"eco":            s.settings.Eco,
		"time":           s.now(),
		"stage":          state.Frame.Status,
		"server_status":  s.Status(),
		"uptime_seconds": s.uptimeSeconds(),
	})
}

func (s *Server) handleState(w http.ResponseWriter, r *http.Request) {
	state := s.machine.Snapshot()
	writeJSON(w, http.StatusOK, eco.Payload{
		"version":      config.AppVersion,
		"eco":          s.settings.Eco,
		"time":         s.now(),
		"frame":        state.Frame,
		"short":        state.Short,
		"friction":     state.Friction,
		"masters_gate": state.MastersGate,
		"d6":           state.D6,
	})
}

func (s *Server) handleReset(w http.ResponseWriter, r *http.Request) {
	state := s.machine.Reset()
	writeJSON(w, http.StatusOK, eco.Payload{
		"ok":    true,
		"stage": state.Frame.Status,
		"time":  s.now(),
	})
}

func (s *Server) handlePing(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, eco.Payload{
		"ok":   true,
		"pong": true,
		"time": s.now(),
		"eco":  s.settings.Eco,
	})
}

func (s *Server) handlePulse(w http.ResponseWriter, r *http.Request) {
	state := s.machine.Snapshot()
	writeJSON(w, http.StatusOK, eco.Payload{
		"ok":            true,
		"time":          s.now(),
		"frame_status":  state.Frame.Status,
		"balance_gate":  state.Short.BalanceGate,
		"drive_launch":  state.Short.DriveLaunch,
		"last_decision": state.Short.LastDecision,
		"last_number":   state.Short.LastNumber,
	})
}

func (s *Server) handleFrameOpen(w http.ResponseWriter, r *http.Request) {
	var body frameOpenRequest
	if err := s.decodeJSON(w, r, &body, false); err != nil {
		writeRequestError(w, err)
		return
	}
	req, err := body.validate()
	if err != nil {
		writeRequestError(w, err)
		return
	}
	state := s.machine.OpenFrame(req)
	s.respond(w, eco.Payload{
		"ok":           true,
		"stage":        state.Frame.Status,
		"frame_id":     state.Frame.ID,
		"hint":         hintFrameOpen,
		"time":         s.now(),
		"balance_gate": state.Short.BalanceGate,
		"drive_launch": state.Short.DriveLaunch,
	})
}

func (s *Server) handleFrameClose(w http.ResponseWriter, r *http.Request) {
	state := s.machine.CloseFrame()
	s.respond(w, eco.Payload{
		"ok":           true,
		"stage":        state.Frame.Status,
		"frame_id":     nullable(state.Frame.ID),
		"time":         s.now(),
		"balance_gate": state.Short.BalanceGate,
	})
}

func (s *Server) handleFrictionSubmit(w http.ResponseWriter, r *http.Request) {
	var body frictionSubmitRequest
	if err := s.decodeJSON(w, r, &body, false); err != nil {
		writeRequestError(w, err)
		return
	}
	req, err := body.validate()
	if err != nil {
		writeRequestError(w, err)
		return
	}
	state := s.machine.SubmitFriction(req)
	s.respond(w, eco.Payload{
		"ok":        true,
		"stage":     state.Frame.Status,
		"semaphore": state.Friction.ProvisionalStatus,
		"time":      s.now(),
		"frame_id":  nullable(state.Frame.ID),
		"hint":      hintFriction,
	})
}

func (s *Server) handleUserGate(w http.ResponseWriter, r *http.Request) {
	var body userGateRequest
	if err := s.decodeJSON(w, r, &body, false); err != nil {
		writeRequestError(w, err)
		return
	}
	choice, err := body.validate()
	if err != nil {
		writeRequestError(w, err)
		return
	}
	state, err := s.machine.UserGate(choice)
	if err != nil {
		writeRequestError(w, &ValidationError{Field: "choice", Reason: err.Error()})
		return
	}
	s.respond(w, eco.Payload{
		"ok":        true,
		"stage":     ritual.StatusInFriction,
		"semaphore": state.Friction.ProvisionalStatus,
		"user_gate": state.Friction.UserGate,
		"time":      s.now(),
		"hint":      hintUserGate,
	})
}

func (s *Server) handleMastersGate(w http.ResponseWriter, r *http.Request) {
	var body mastersGateRequest
	if err := s.decodeJSON(w, r, &body, false); err != nil {
		writeRequestError(w, err)
		return
	}
	req, err := body.validate()
	if err != nil {
		writeRequestError(w, err)
		return
	}
	state := s.machine.MastersGate(req)
	s.respond(w, eco.Payload{
		"ok":            true,
		"stage":         ritual.StatusInFriction,
		"friction_gate": state.MastersGate.FrictionGate,
		"time":          s.now(),
		"hint":          hintMastersGate,
	})
}

func (s *Server) handleFlowCheck(w http.ResponseWriter, r *http.Request) {
	var body flowCheckRequest
	if err := s.decodeJSON(w, r, &body, true); err != nil {
		writeRequestError(w, err)
		return
	}
	note := ""
	if body.CoherenceNote != nil {
		note = *body.CoherenceNote
	}
	res, err := s.machine.FlowCheck(note)
	if errors.Is(err, ritual.ErrGateNotPassed) {
		writeJSON(w, http.StatusOK, eco.Payload{
			"ok":    false,
			"error": GateNotPassedMessage,
			"time":  s.now(),
		})
		return
	}
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, eco.Payload{"ok": false, "error": err.Error()})
		return
	}
	s.respond(w, eco.Payload{
		"ok":              true,
		"stage":           res.State.Frame.Status,
		"signature_alive": res.SignatureAlive,
		"coherence_note":  body.CoherenceNote,
		"time":            s.now(),
		"hint":            hintFlow,
	})
}

func (s *Server) handleFactValidate(w http.ResponseWriter, r *http.Request) {
	var body factValidateRequest
	if err := s.decodeJSON(w, r, &body, false); err != nil {
		writeRequestError(w, err)
		return
	}
	criterion, err := body.validate()
	if err != nil {
		writeRequestError(w, err)
		return
	}
	d6 := s.machine.ValidateFact(criterion)
	writeJSON(w, http.StatusOK, d6)
}

func (s *Server) uptimeSeconds() int64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.startTime.IsZero() {
		return 0
	}
	return int64(s.now().Sub(s.startTime) / time.Second)
}

// nullable renders an unset identifier as JSON null.
func nullable(v string) any {
	if v == "" {
		return nil
	}
	return v
}
