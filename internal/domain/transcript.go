package domain

import "time"

const (
	RoleAssistant = "assistant"
	RoleUser      = "user"
)

// Stage es la dificultad de la pregunta en curso (0 fácil, 1 media, 2 difícil).
type Stage int

const (
	StageEasy Stage = iota
	StageMedium
	StageHard
)

// MaxStage es la última etapa; al llegar aquí las respuestas se cierran con message.
const MaxStage = StageHard

func (s Stage) String() string {
	switch {
	case s <= StageEasy:
		return "EASY"
	case s == StageMedium:
		return "MEDIUM"
	default:
		return "HARD"
	}
}

// Turn es una entrada del historial del lado del servicio.
type Turn struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// InterviewRecord es el estado completo de una sesión en el Question Service.
type InterviewRecord struct {
	ID             string          `json:"id"`
	Stage          Stage           `json:"stage"`
	History        []Turn          `json:"history"`
	Answers        []string        `json:"answers"`
	SecurityEvents []SecurityEvent `json:"security_events"`
	CreatedAt      time.Time       `json:"created_at"`
}

// Questions devuelve cuántas preguntas hizo el entrevistador.
func (r InterviewRecord) Questions() int {
	n := 0
	for _, t := range r.History {
		if t.Role == RoleAssistant {
			n++
		}
	}
	return n
}
