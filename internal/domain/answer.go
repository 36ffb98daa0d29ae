package domain

// AnswerOutcome enumera las formas posibles de la respuesta a un answer.
type AnswerOutcome int

const (
	OutcomeNextQuestion AnswerOutcome = iota + 1
	OutcomeInterviewClosed
	OutcomeProtocolError
)

func (o AnswerOutcome) String() string {
	switch o {
	case OutcomeNextQuestion:
		return "next_question"
	case OutcomeInterviewClosed:
		return "interview_closed"
	case OutcomeProtocolError:
		return "protocol_error"
	default:
		return "unknown"
	}
}

// AnswerResult es el resultado etiquetado de la operación answer. Text lleva la
// siguiente pregunta o el mensaje de cierre; Reason sólo se llena en
// OutcomeProtocolError.
type AnswerResult struct {
	Outcome AnswerOutcome
	Text    string
	Reason  string
}

func NextQuestion(text string) AnswerResult {
	return AnswerResult{Outcome: OutcomeNextQuestion, Text: text}
}

func InterviewClosed(text string) AnswerResult {
	return AnswerResult{Outcome: OutcomeInterviewClosed, Text: text}
}

func MalformedAnswer(reason string) AnswerResult {
	return AnswerResult{Outcome: OutcomeProtocolError, Reason: reason}
}

// StartResult es la respuesta de start.
type StartResult struct {
	SessionID string `json:"session_id"`
	Question  string `json:"question"`
}

// SecurityEvent es un evento de proctoring reportado por el cliente.
type SecurityEvent struct {
	Type    string `json:"type"`
	Details string `json:"details,omitempty"`
	Time    string `json:"time"`
}
