// Package access decides whether a reporter may write an entry right now and
// derives the display lock state of stored entries.
package access

import "time"

// Reason is the machine-readable outcome code of a write decision.
type Reason string

const (
	ReasonOverrideActive  Reason = "OVERRIDE_ACTIVE"
	ReasonMonthClosed     Reason = "MONTH_CLOSED"
	ReasonEditLocked      Reason = "EDIT_LOCKED"
	ReasonInvalidTimeslot Reason = "INVALID_TIMESLOT"
	ReasonInWindow        Reason = "IN_WINDOW"
	ReasonWindowClosed    Reason = "WINDOW_CLOSED"
	ReasonNoRuleMatched   Reason = "NO_RULE_MATCHED"
)

// WriteGrace extends every window end for write decisions. The display
// sweep uses no grace, so a slot can show as locked for up to a minute while
// a late save still succeeds.
const WriteGrace = 59 * time.Second

// EditLockAfter is how long after creation an entry may be edited without
// an override.
const EditLockAfter = time.Hour

var messages = map[Reason]string{
	ReasonOverrideActive:  "Liberação ativa pelo Líder Máximo",
	ReasonMonthClosed:     "Mês fechado. Solicite reabertura ao Líder Máximo",
	ReasonEditLocked:      "Prazo de 1 hora para edição expirado. Solicite liberação ao Líder Máximo",
	ReasonInvalidTimeslot: "Horário de culto inválido",
	ReasonInWindow:        "Dentro do horário permitido",
	ReasonWindowClosed:    "Horário encerrado. Solicite liberação ao Líder Máximo",
	ReasonNoRuleMatched:   "Operação não permitida",
}

// Message returns the user-facing text for r.
func (r Reason) Message() string {
	if m, ok := messages[r]; ok {
		return m
	}
	return messages[ReasonNoRuleMatched]
}

// Verdict is the result of a write decision. Denials are values, not errors.
type Verdict struct {
	Allowed   bool   `json:"allowed"`
	Reason    Reason `json:"reason"`
	Message   string `json:"message"`
	WindowEnd string `json:"windowEnd,omitempty"`
}

func allow(r Reason) Verdict {
	return Verdict{Allowed: true, Reason: r, Message: r.Message()}
}

func deny(r Reason) Verdict {
	return Verdict{Allowed: false, Reason: r, Message: r.Message()}
}
