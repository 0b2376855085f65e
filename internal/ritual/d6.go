package ritual

import (
	"github.com/kingrea/strad-mind/internal/gate"
	"github.com/kingrea/strad-mind/internal/memory"
)

const decisionPrefix = "Validar ciclo com assinatura Balance and Drive e critério: "

var d6Reasons = []string{
	"Friction gate resolvido (passed/bypassed).",
	"Assinatura viva ao longo do Flow.",
	"Critério de aceitabilidade declarado (Fact).",
}

var d6NextActions = []NextAction{
	{Action: "Registrar número da semana", Owner: "Regenerador", When: "T+1d"},
	{Action: "Publicar rito (1 número, 1 decisão)", Owner: "Operacional", When: "T+2d"},
}

// ValidateFact seals the cycle: it emits the D6 artifact, records it in short
// memory and closes the frame. The entry status is not enforced; anything
// other than in_flow or in_fact is coerced to in_fact first. There is no
// rollback, so the frame closes even when the semaphore is not green.
func (m *Machine) ValidateFact(criterion string) D6 {
	m.mu.Lock()
	defer m.mu.Unlock()
	from := m.state.Frame.Status
	if from != StatusInFlow && from != StatusInFact {
		m.state.Frame.Status = StatusInFact
	}
	now := m.now()
	result := m.state.MastersGate.FrictionGate

	semaphore := m.state.Friction.ProvisionalStatus
	if result.Passable() && m.signatureAlive() {
		semaphore = SemaphoreGreen
	}
	choice := m.state.Friction.UserGate
	if choice == gate.ChoiceNone {
		choice = gate.ChoicePark
	}
	label := MastersLabelPassed
	if result == gate.ResultBypassed {
		label = MastersLabelBypassed
	}
	d6 := D6{
		Semaphore:   semaphore,
		Decision:    decisionPrefix + criterion,
		Reasons:     cloneStrings(d6Reasons),
		NextActions: append([]NextAction(nil), d6NextActions...),
		UserGate:    choice,
		MastersGate: label,
		StampedAt:   now,
	}
	m.state.D6 = &d6

	m.state.Short.Remember(d6.Decision, criterion)
	m.closeFrame(now)
	m.state.Short.Append(memory.Record{
		"type":      TrailD6,
		"at":        d6.StampedAt,
		"semaphore": string(semaphore),
		"decision":  d6.Decision,
	})
	m.notify("fact_validate", from, string(semaphore))
	return d6.Clone()
}
