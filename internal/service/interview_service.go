package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"mock-interviewer/internal/domain"
	"mock-interviewer/internal/repository"
)

var (
	ErrInterviewServiceNotConfigured = errors.New("interview service not configured")
	ErrInterviewInvalidInput         = errors.New("interview invalid input")
)

// InterviewService implementa start/answer/summary/log_event del Question Service.
type InterviewService struct {
	sessions    repository.SessionRepository
	transcripts repository.TranscriptRepository
	interviewer Interviewer
	logger      *zap.Logger

	locksMu sync.Mutex
	locks   map[string]*sessionLock
	now     func() time.Time
}

// NewInterviewService arma el servicio. transcripts puede ser nil: en ese caso no
// se archiva nada.
func NewInterviewService(
	sessions repository.SessionRepository,
	transcripts repository.TranscriptRepository,
	interviewer Interviewer,
	logger *zap.Logger,
) *InterviewService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &InterviewService{
		sessions:    sessions,
		transcripts: transcripts,
		interviewer: interviewer,
		logger:      logger,
		now:         func() time.Time { return time.Now().UTC() },
	}
}

func (s *InterviewService) configured() bool {
	return s != nil && s.sessions != nil && s.interviewer != nil
}

// Start crea la sesión en etapa fácil y hace la primera pregunta.
func (s *InterviewService) Start(ctx context.Context) (domain.StartResult, error) {
	if !s.configured() {
		return domain.StartResult{}, ErrInterviewServiceNotConfigured
	}

	question, err := s.interviewer.Opening(ctx)
	if err != nil {
		return domain.StartResult{}, fmt.Errorf("opening question: %w", err)
	}

	rec := domain.InterviewRecord{
		ID:        uuid.NewString(),
		Stage:     domain.StageEasy,
		History:   []domain.Turn{{Role: domain.RoleAssistant, Content: question}},
		CreatedAt: s.now(),
	}
	if err := s.sessions.Create(ctx, rec); err != nil {
		return domain.StartResult{}, fmt.Errorf("create session: %w", err)
	}

	s.logger.Info("interview session created", zap.String("session_id", rec.ID))
	return domain.StartResult{SessionID: rec.ID, Question: question}, nil
}

// Answer registra la respuesta y decide el siguiente turno. Una respuesta que
// termina en "?" o que llega en la última etapa se contesta con message; el resto
// avanza de etapa y se contesta con next_question.
func (s *InterviewService) Answer(ctx context.Context, sessionID, answer string) (domain.AnswerResult, error) {
	if !s.configured() {
		return domain.AnswerResult{}, ErrInterviewServiceNotConfigured
	}
	sessionID = strings.TrimSpace(sessionID)
	if sessionID == "" {
		return domain.AnswerResult{}, ErrInterviewInvalidInput
	}

	unlock := s.lock(sessionID)
	defer unlock()

	rec, err := s.sessions.GetByID(ctx, sessionID)
	if err != nil {
		return domain.AnswerResult{}, err
	}

	rec.History = append(rec.History, domain.Turn{Role: domain.RoleUser, Content: answer})
	rec.Answers = append(rec.Answers, answer)

	kind := ReplyClose
	switch {
	case strings.HasSuffix(strings.TrimSpace(answer), "?"):
		kind = ReplyClarify
	case rec.Stage < domain.MaxStage:
		kind = ReplyNextQuestion
	}

	reply, err := s.interviewer.Reply(ctx, rec, kind)
	if err != nil {
		return domain.AnswerResult{}, fmt.Errorf("interviewer reply: %w", err)
	}
	rec.History = append(rec.History, domain.Turn{Role: domain.RoleAssistant, Content: reply})
	if kind == ReplyNextQuestion {
		rec.Stage++
	}

	if err := s.sessions.Update(ctx, rec); err != nil {
		return domain.AnswerResult{}, fmt.Errorf("update session: %w", err)
	}

	s.logger.Info("answer recorded",
		zap.String("session_id", sessionID),
		zap.String("reply_kind", kind.String()),
		zap.Stringer("stage", rec.Stage),
	)
	if kind == ReplyNextQuestion {
		return domain.NextQuestion(reply), nil
	}
	return domain.InterviewClosed(reply), nil
}

// Summary genera el resumen de desempeño y archiva la transcripción.
func (s *InterviewService) Summary(ctx context.Context, sessionID string) (string, error) {
	if !s.configured() {
		return "", ErrInterviewServiceNotConfigured
	}
	sessionID = strings.TrimSpace(sessionID)
	if sessionID == "" {
		return "", ErrInterviewInvalidInput
	}

	rec, err := s.sessions.GetByID(ctx, sessionID)
	if err != nil {
		return "", err
	}

	summary, err := s.interviewer.Summarize(ctx, rec)
	if err != nil {
		return "", fmt.Errorf("summarize: %w", err)
	}
	s.archive(ctx, rec)
	return summary, nil
}

// LogEvent agrega un evento de proctoring a la sesión y archiva la transcripción.
func (s *InterviewService) LogEvent(ctx context.Context, sessionID, eventType, details string) (domain.SecurityEvent, error) {
	if !s.configured() {
		return domain.SecurityEvent{}, ErrInterviewServiceNotConfigured
	}
	sessionID = strings.TrimSpace(sessionID)
	eventType = strings.TrimSpace(eventType)
	if sessionID == "" || eventType == "" {
		return domain.SecurityEvent{}, ErrInterviewInvalidInput
	}

	unlock := s.lock(sessionID)
	defer unlock()

	rec, err := s.sessions.GetByID(ctx, sessionID)
	if err != nil {
		return domain.SecurityEvent{}, err
	}

	ev := domain.SecurityEvent{
		Type:    eventType,
		Details: details,
		Time:    s.now().Format(time.RFC3339Nano),
	}
	rec.SecurityEvents = append(rec.SecurityEvents, ev)
	if err := s.sessions.Update(ctx, rec); err != nil {
		return domain.SecurityEvent{}, fmt.Errorf("update session: %w", err)
	}
	s.archive(ctx, rec)
	return ev, nil
}

// archive guarda la transcripción sin afectar la respuesta al cliente.
func (s *InterviewService) archive(ctx context.Context, rec domain.InterviewRecord) {
	if s.transcripts == nil {
		return
	}
	if err := s.transcripts.Save(ctx, rec); err != nil {
		s.logger.Warn("archive transcript failed", zap.String("session_id", rec.ID), zap.Error(err))
	}
}

type sessionLock struct {
	mu   sync.Mutex
	refs int
}

// lock serializa las escrituras sobre una misma sesión. La entrada se borra
// cuando nadie la tiene ni la espera.
func (s *InterviewService) lock(sessionID string) func() {
	s.locksMu.Lock()
	if s.locks == nil {
		s.locks = make(map[string]*sessionLock)
	}
	l, ok := s.locks[sessionID]
	if !ok {
		l = &sessionLock{}
		s.locks[sessionID] = l
	}
	l.refs++
	s.locksMu.Unlock()

	l.mu.Lock()
	return func() {
		l.mu.Unlock()
		s.locksMu.Lock()
		l.refs--
		if l.refs == 0 {
			delete(s.locks, sessionID)
		}
		s.locksMu.Unlock()
	}
}
