package domain

import "time"

// State es el estado del ciclo de vida de la entrevista del lado del cliente.
type State string

const (
	StateUnstarted             State = "unstarted"
	StateAwaitingFirstQuestion State = "awaiting_first_question"
	StateAwaitingAnswer        State = "awaiting_answer"
	StateSubmitting            State = "submitting"
	StateClosed                State = "closed"
)

// SummaryState es ortogonal a State: se puede pedir el resumen con la entrevista
// abierta o cerrada.
type SummaryState string

const (
	SummaryNone      SummaryState = "none"
	SummaryRequested SummaryState = "requested"
	SummaryShown     SummaryState = "shown"
)

// Session identifica una entrevista emitida por el Question Service.
type Session struct {
	ID        string    `json:"id"`
	StartedAt time.Time `json:"started_at"`
}

// Established indica si el servicio ya emitió un id.
func (s Session) Established() bool {
	return s.ID != ""
}
