package interview

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"

	"mock-interviewer/internal/domain"
	"mock-interviewer/internal/timeline"
)

var (
	ErrEmptyAnswer    = errors.New("interview empty answer")
	ErrBusy           = errors.New("interview request in flight")
	ErrNoSession      = errors.New("interview session not established")
	ErrNoQuestion     = errors.New("interview has not asked a question yet")
	ErrAlreadyStarted = errors.New("interview already started")
)

// QuestionService es el puerto hacia el servicio que genera preguntas y resúmenes.
type QuestionService interface {
	Start(ctx context.Context) (domain.StartResult, error)
	Answer(ctx context.Context, sessionID, answer string) (domain.AnswerResult, error)
	Summary(ctx context.Context, sessionID string) (string, error)
	LogEvent(ctx context.Context, sessionID, eventType, details string) error
}

// Controller conduce el protocolo de la entrevista y traduce respuestas del servicio
// en mensajes del timeline. Es el único que muta sesión, busy y timeline.
type Controller struct {
	mu       sync.Mutex
	svc      QuestionService
	timeline *timeline.Engine
	logger   *zap.Logger

	session  domain.Session
	state    domain.State
	summary  domain.SummaryState
	busy     bool
	draft    string
	listener func(domain.View)
}

// NewController crea un controlador en estado Unstarted sobre el timeline dado.
func NewController(svc QuestionService, tl *timeline.Engine, logger *zap.Logger) *Controller {
	if logger == nil {
		logger = zap.NewNop()
	}
	c := &Controller{
		svc:      svc,
		timeline: tl,
		logger:   logger,
		state:    domain.StateUnstarted,
		summary:  domain.SummaryNone,
	}
	tl.OnChange(c.publish)
	return c
}

// Subscribe registra la superficie de render. fn puede llamarse desde la goroutine
// del reveal y desde la del llamador, así que debe ser segura para uso concurrente.
func (c *Controller) Subscribe(fn func(domain.View)) {
	c.mu.Lock()
	c.listener = fn
	c.mu.Unlock()
}

// BeginInterview pide la primera pregunta y la revela.
func (c *Controller) BeginInterview(ctx context.Context) error {
	c.mu.Lock()
	if c.session.Established() || c.state != domain.StateUnstarted {
		c.mu.Unlock()
		return ErrAlreadyStarted
	}
	if c.busy {
		c.mu.Unlock()
		return ErrBusy
	}
	c.busy = true
	c.state = domain.StateAwaitingFirstQuestion
	c.mu.Unlock()
	defer c.release()
	c.publish()

	res, err := c.svc.Start(ctx)
	if err == nil {
		switch {
		case strings.TrimSpace(res.SessionID) == "":
			err = &domain.ProtocolError{Op: "start", Reason: "missing session_id"}
		case res.Question == "":
			err = &domain.ProtocolError{Op: "start", Reason: "missing question"}
		}
	}
	if err != nil {
		c.logger.Error("begin interview failed", zap.Error(err))
		c.settle()
		c.surface(err)
		c.setState(domain.StateUnstarted)
		return fmt.Errorf("begin interview: %w", err)
	}

	c.mu.Lock()
	c.session = domain.Session{ID: res.SessionID, StartedAt: time.Now().UTC()}
	c.mu.Unlock()

	c.logger.Info("interview started", zap.String("session_id", res.SessionID))
	c.settle()
	c.ask(res.Question)
	c.setState(domain.StateAwaitingAnswer)
	return nil
}

// SubmitAnswer envía la respuesta del candidato. Con texto vacío, sin sesión, sin
// pregunta previa o con una llamada en curso no hace nada y devuelve el error
// correspondiente.
func (c *Controller) SubmitAnswer(ctx context.Context, text string) error {
	if strings.TrimSpace(text) == "" {
		return ErrEmptyAnswer
	}

	c.mu.Lock()
	switch {
	case !c.session.Established():
		c.mu.Unlock()
		return ErrNoSession
	case c.busy, c.summary == domain.SummaryRequested:
		c.mu.Unlock()
		return ErrBusy
	case c.state != domain.StateAwaitingAnswer && c.state != domain.StateClosed:
		c.mu.Unlock()
		return ErrNoQuestion
	}
	prev := c.state
	sessionID := c.session.ID
	c.busy = true
	c.mu.Unlock()
	defer c.release()

	c.timeline.AppendImmediate(domain.Message{
		Speaker: domain.SpeakerCandidate,
		Kind:    domain.KindQuestionAnswer,
		Content: text,
	})

	c.mu.Lock()
	if c.draft == text {
		c.draft = ""
	}
	c.state = domain.StateSubmitting
	c.mu.Unlock()
	c.publish()

	res, err := c.svc.Answer(ctx, sessionID, text)
	if err == nil {
		switch res.Outcome {
		case domain.OutcomeNextQuestion:
			c.settle()
			c.ask(res.Text)
			c.setState(domain.StateAwaitingAnswer)
			return nil
		case domain.OutcomeInterviewClosed:
			c.logger.Info("interview closed", zap.String("session_id", sessionID))
			c.settle()
			c.ask(res.Text)
			c.setState(domain.StateClosed)
			return nil
		case domain.OutcomeProtocolError:
			err = &domain.ProtocolError{Op: "answer", Reason: res.Reason}
		default:
			err = &domain.ProtocolError{Op: "answer", Reason: "unknown outcome " + res.Outcome.String()}
		}
	}

	c.logger.Error("submit answer failed", zap.String("session_id", sessionID), zap.Error(err))
	c.settle()
	c.surface(err)
	c.setState(prev)
	return fmt.Errorf("submit answer: %w", err)
}

// SetDraft guarda el buffer de entrada pendiente. SubmitAnswer sólo lo limpia si
// es el texto enviado; lo tipeado después de enviar se conserva.
func (c *Controller) SetDraft(text string) {
	c.mu.Lock()
	c.draft = text
	c.mu.Unlock()
}

// Draft devuelve el buffer de entrada pendiente.
func (c *Controller) Draft() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.draft
}

// SubmitDraft envía el buffer pendiente como respuesta.
func (c *Controller) SubmitDraft(ctx context.Context) error {
	return c.SubmitAnswer(ctx, c.Draft())
}

// RequestSummary pide el resumen de desempeño y lo muestra completo, sin tipeo.
func (c *Controller) RequestSummary(ctx context.Context) error {
	c.mu.Lock()
	if !c.session.Established() {
		c.mu.Unlock()
		return ErrNoSession
	}
	if c.busy || c.summary == domain.SummaryRequested {
		c.mu.Unlock()
		return ErrBusy
	}
	prev := c.summary
	sessionID := c.session.ID
	c.busy = true
	c.summary = domain.SummaryRequested
	c.mu.Unlock()
	defer c.release()
	c.publish()

	text, err := c.svc.Summary(ctx, sessionID)
	if err != nil {
		c.logger.Error("request summary failed", zap.String("session_id", sessionID), zap.Error(err))
		c.settle()
		c.surface(err)
		c.mu.Lock()
		c.summary = prev
		c.mu.Unlock()
		return fmt.Errorf("request summary: %w", err)
	}

	c.settle()
	c.timeline.AppendImmediate(domain.Message{
		Speaker: domain.SpeakerInterviewer,
		Kind:    domain.KindSummary,
		Content: text,
	})
	c.mu.Lock()
	c.summary = domain.SummaryShown
	c.mu.Unlock()
	return nil
}

// ReportEvent reenvía un evento de proctoring. No toca el timeline ni el busy.
func (c *Controller) ReportEvent(ctx context.Context, eventType, details string) error {
	c.mu.Lock()
	sessionID := c.session.ID
	c.mu.Unlock()
	if sessionID == "" {
		return ErrNoSession
	}
	if err := c.svc.LogEvent(ctx, sessionID, eventType, details); err != nil {
		c.logger.Warn("report event failed", zap.String("event_type", eventType), zap.Error(err))
		return fmt.Errorf("report event: %w", err)
	}
	return nil
}

// View arma la foto para la superficie de render.
func (c *Controller) View() domain.View {
	c.mu.Lock()
	v := domain.View{
		Busy:         c.busy,
		State:        c.state,
		SummaryState: c.summary,
	}
	c.mu.Unlock()
	v.Messages = c.timeline.Snapshot()
	return v
}

// Busy indica si hay una llamada al servicio en curso.
func (c *Controller) Busy() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.busy
}

// State devuelve el estado de la entrevista.
func (c *Controller) State() domain.State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// Session devuelve la sesión actual (vacía si no se estableció).
func (c *Controller) Session() domain.Session {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.session
}

// SkipReveal muestra completo el mensaje que se está tipeando. Publica la vista,
// así que la superficie no debe llamarlo desde su propio loop de eventos.
func (c *Controller) SkipReveal() {
	c.timeline.Flush()
}

// Close detiene el efecto de tipeo. Se llama al desmontar la superficie.
func (c *Controller) Close() {
	c.timeline.Close()
}

func (c *Controller) ask(text string) {
	idx := c.timeline.Append(domain.Message{
		Speaker: domain.SpeakerInterviewer,
		Kind:    domain.KindQuestionAnswer,
		Content: text,
	})
	if err := c.timeline.Reveal(idx, text); err != nil {
		c.logger.Warn("reveal not scheduled", zap.Int("index", idx), zap.Error(err))
	}
}

func (c *Controller) surface(err error) {
	c.timeline.AppendImmediate(domain.Message{
		Speaker: domain.SpeakerInterviewer,
		Kind:    domain.KindNotice,
		Content: noticeText(err),
	})
}

func noticeText(err error) string {
	var protoErr *domain.ProtocolError
	if errors.As(err, &protoErr) {
		return "The interview service sent an unexpected response. Please try again."
	}
	var svcErr *domain.ServiceError
	if errors.As(err, &svcErr) && svcErr.Message != "" {
		return fmt.Sprintf("The interview service could not complete %s: %s", svcErr.Op, svcErr.Message)
	}
	return "Could not reach the interview service. Please try again."
}

func (c *Controller) setState(s domain.State) {
	c.mu.Lock()
	c.state = s
	c.mu.Unlock()
}

// settle baja busy antes de agregar el mensaje de respuesta. State sigue en una
// etapa intermedia hasta que el mensaje está en el timeline, así que ninguna
// acción nueva se cuela entre la respuesta y su mensaje.
func (c *Controller) settle() {
	c.mu.Lock()
	c.busy = false
	c.mu.Unlock()
}

func (c *Controller) release() {
	c.mu.Lock()
	c.busy = false
	c.mu.Unlock()
	c.publish()
}

func (c *Controller) publish() {
	c.mu.Lock()
	fn := c.listener
	c.mu.Unlock()
	if fn != nil {
		fn(c.View())
	}
}
