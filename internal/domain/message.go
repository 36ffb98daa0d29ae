package domain

import "time"

// Speaker identifica quién emite un mensaje en la transcripción.
type Speaker string

const (
	SpeakerInterviewer Speaker = "interviewer"
	SpeakerCandidate   Speaker = "candidate"
)

// Kind distingue el encuadre con el que se muestra un mensaje.
type Kind string

const (
	KindQuestionAnswer Kind = "question_answer"
	KindSummary        Kind = "summary"
	// KindNotice se usa para errores visibles del servicio o del protocolo.
	KindNotice Kind = "notice"
)

// Message es una entrada del timeline. Revealed es siempre un prefijo de Content
// y sólo crece.
type Message struct {
	ID        string    `json:"id"`
	Speaker   Speaker   `json:"speaker"`
	Kind      Kind      `json:"kind"`
	Content   string    `json:"content"`
	Revealed  string    `json:"revealed"`
	CreatedAt time.Time `json:"created_at"`
}

// Complete indica si el mensaje ya se muestra entero.
func (m Message) Complete() bool {
	return len(m.Revealed) == len(m.Content)
}

// MessageView es lo que la superficie de render necesita para dibujar un mensaje.
type MessageView struct {
	Speaker  Speaker `json:"speaker"`
	Kind     Kind    `json:"kind"`
	Revealed string  `json:"revealed"`
	Complete bool    `json:"complete"`
}

// View es la foto completa que se entrega a la superficie de render en cada cambio.
type View struct {
	Messages     []MessageView `json:"messages"`
	Busy         bool          `json:"busy"`
	State        State         `json:"state"`
	SummaryState SummaryState  `json:"summary_state"`
}
