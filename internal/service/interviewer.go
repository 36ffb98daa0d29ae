package service

import (
	"context"
	"fmt"
	"strings"

	"mock-interviewer/internal/domain"
	"mock-interviewer/internal/llm"
	"mock-interviewer/internal/questionbank"
)

// ReplyKind indica qué tipo de turno tiene que producir el entrevistador.
type ReplyKind int

const (
	ReplyNextQuestion ReplyKind = iota
	ReplyClarify
	ReplyClose
)

func (k ReplyKind) String() string {
	switch k {
	case ReplyNextQuestion:
		return "next_question"
	case ReplyClarify:
		return "clarify"
	default:
		return "close"
	}
}

// Interviewer produce el contenido de la entrevista. El InterviewService decide
// el flujo; el Interviewer sólo redacta.
type Interviewer interface {
	Opening(ctx context.Context) (string, error)
	Reply(ctx context.Context, rec domain.InterviewRecord, kind ReplyKind) (string, error)
	Summarize(ctx context.Context, rec domain.InterviewRecord) (string, error)
}

// ScriptedInterviewer usa un banco de preguntas fijo. No califica respuestas.
type ScriptedInterviewer struct {
	bank *questionbank.Bank
}

func NewScriptedInterviewer(bank *questionbank.Bank) *ScriptedInterviewer {
	return &ScriptedInterviewer{bank: bank}
}

func (s *ScriptedInterviewer) Opening(_ context.Context) (string, error) {
	return joinParagraphs(s.bank.Greeting, s.bank.Question(domain.StageEasy, 0)), nil
}

func (s *ScriptedInterviewer) Reply(_ context.Context, rec domain.InterviewRecord, kind ReplyKind) (string, error) {
	switch kind {
	case ReplyNextQuestion:
		next := rec.Stage + 1
		return joinParagraphs(s.bank.Acknowledgement(len(rec.Answers)-1), s.bank.Question(next, len(rec.Answers)-1)), nil
	case ReplyClarify:
		return s.bank.Clarification, nil
	default:
		return s.bank.Closing, nil
	}
}

func (s *ScriptedInterviewer) Summarize(_ context.Context, rec domain.InterviewRecord) (string, error) {
	clarifications := 0
	for _, a := range rec.Answers {
		if strings.HasSuffix(strings.TrimSpace(a), "?") {
			clarifications++
		}
	}
	var b strings.Builder
	b.WriteString("Performance Summary\n")
	fmt.Fprintf(&b, "Questions asked: %d\n", rec.Questions())
	fmt.Fprintf(&b, "Answers given: %d\n", len(rec.Answers))
	fmt.Fprintf(&b, "Highest stage reached: %s\n", rec.Stage)
	fmt.Fprintf(&b, "Clarifications requested: %d\n", clarifications)
	b.WriteString("Final Remark:\n")
	b.WriteString("This practice run used the scripted question bank, so answers were not scored.")
	return b.String(), nil
}

// LLMInterviewer redacta preguntas, réplicas y resumen con un LLM.
type LLMInterviewer struct {
	client llm.LLMClient
}

func NewLLMInterviewer(client llm.LLMClient) *LLMInterviewer {
	return &LLMInterviewer{client: client}
}

func (l *LLMInterviewer) Opening(ctx context.Context) (string, error) {
	out, err := l.client.Generate(ctx, openingPrompt)
	if err != nil {
		return "", err
	}
	return cleanPlainText(out), nil
}

func (l *LLMInterviewer) Reply(ctx context.Context, rec domain.InterviewRecord, kind ReplyKind) (string, error) {
	out, err := l.client.Generate(ctx, buildReplyPrompt(rec, kind))
	if err != nil {
		return "", err
	}
	return cleanPlainText(out), nil
}

func (l *LLMInterviewer) Summarize(ctx context.Context, rec domain.InterviewRecord) (string, error) {
	out, err := l.client.Generate(ctx, buildSummaryPrompt(rec))
	if err != nil {
		return "", err
	}
	return cleanPlainText(out), nil
}

func joinParagraphs(parts ...string) string {
	kept := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			kept = append(kept, p)
		}
	}
	return strings.Join(kept, "\n\n")
}
