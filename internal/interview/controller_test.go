package interview

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"go.uber.org/zap"

	"mock-interviewer/internal/domain"
	"mock-interviewer/internal/timeline"
)

type mockQuestionService struct {
	startRes    domain.StartResult
	startErr    error
	answerRes   domain.AnswerResult
	answerErr   error
	summaryText string
	summaryErr  error
	eventErr    error

	onStart   func()
	onAnswer  func()
	onSummary func()

	answerCalls   int
	lastSession   string
	lastAnswer    string
	lastEventType string
	lastDetails   string
}

func (m *mockQuestionService) Start(_ context.Context) (domain.StartResult, error) {
	if m.onStart != nil {
		m.onStart()
	}
	return m.startRes, m.startErr
}

func (m *mockQuestionService) Answer(_ context.Context, sessionID, answer string) (domain.AnswerResult, error) {
	m.answerCalls++
	m.lastSession = sessionID
	m.lastAnswer = answer
	if m.onAnswer != nil {
		m.onAnswer()
	}
	return m.answerRes, m.answerErr
}

func (m *mockQuestionService) Summary(_ context.Context, sessionID string) (string, error) {
	m.lastSession = sessionID
	if m.onSummary != nil {
		m.onSummary()
	}
	return m.summaryText, m.summaryErr
}

func (m *mockQuestionService) LogEvent(_ context.Context, sessionID, eventType, details string) error {
	m.lastSession = sessionID
	m.lastEventType = eventType
	m.lastDetails = details
	return m.eventErr
}

type viewRecorder struct {
	mu    sync.Mutex
	views []domain.View
}

func (r *viewRecorder) record(v domain.View) {
	r.mu.Lock()
	r.views = append(r.views, v)
	r.mu.Unlock()
}

func (r *viewRecorder) snapshot() []domain.View {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]domain.View(nil), r.views...)
}

// setupController usa un intervalo largo: los reveals quedan activos sin avanzar.
func setupController(t *testing.T, svc *mockQuestionService) *Controller {
	t.Helper()
	tl := timeline.NewEngine(time.Hour, nil, zap.NewNop())
	c := NewController(svc, tl, zap.NewNop())
	t.Cleanup(c.Close)
	return c
}

func startedController(t *testing.T, svc *mockQuestionService) *Controller {
	t.Helper()
	svc.startRes = domain.StartResult{SessionID: "s1", Question: "Q1"}
	c := setupController(t, svc)
	if err := c.BeginInterview(context.Background()); err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	return c
}

func TestBeginInterview_ShowsFirstQuestion(t *testing.T) {
	svc := &mockQuestionService{startRes: domain.StartResult{SessionID: "s1", Question: "Q1"}}
	c := setupController(t, svc)

	var busyDuringCall bool
	svc.onStart = func() { busyDuringCall = c.Busy() }

	if err := c.BeginInterview(context.Background()); err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if !busyDuringCall {
		t.Fatalf("expected busy during start call")
	}
	if c.Busy() {
		t.Fatalf("expected busy cleared after start")
	}
	if c.Session().ID != "s1" {
		t.Fatalf("expected session s1, got %q", c.Session().ID)
	}
	if c.State() != domain.StateAwaitingAnswer {
		t.Fatalf("expected awaiting_answer, got %s", c.State())
	}

	v := c.View()
	if len(v.Messages) != 1 {
		t.Fatalf("expected one message, got %d", len(v.Messages))
	}
	m := v.Messages[0]
	if m.Speaker != domain.SpeakerInterviewer || m.Kind != domain.KindQuestionAnswer {
		t.Fatalf("unexpected message %+v", m)
	}
	if m.Complete || m.Revealed != "" {
		t.Fatalf("expected question to be revealing progressively, got %+v", m)
	}
	if _, ok := c.timeline.Active(); !ok {
		t.Fatalf("expected active reveal for the question")
	}

	c.timeline.Flush()
	if got := c.View().Messages[0].Revealed; got != "Q1" {
		t.Fatalf("expected Q1 after flush, got %q", got)
	}
}

func TestBeginInterview_ServiceFailureSurfacesAndAllowsRetry(t *testing.T) {
	svc := &mockQuestionService{startErr: &domain.ServiceError{Op: "start", StatusCode: 502, Message: "bad gateway"}}
	c := setupController(t, svc)

	err := c.BeginInterview(context.Background())
	var svcErr *domain.ServiceError
	if !errors.As(err, &svcErr) {
		t.Fatalf("expected ServiceError, got %v", err)
	}
	if c.Busy() {
		t.Fatalf("expected busy cleared on failure")
	}
	if c.State() != domain.StateUnstarted || c.Session().Established() {
		t.Fatalf("expected session unestablished, state=%s", c.State())
	}
	v := c.View()
	if len(v.Messages) != 1 || v.Messages[0].Kind != domain.KindNotice || !v.Messages[0].Complete {
		t.Fatalf("expected one visible notice, got %+v", v.Messages)
	}

	svc.startErr = nil
	svc.startRes = domain.StartResult{SessionID: "s2", Question: "Q1"}
	if err := c.BeginInterview(context.Background()); err != nil {
		t.Fatalf("expected retry to succeed, got %v", err)
	}
	if c.Session().ID != "s2" {
		t.Fatalf("expected session s2, got %q", c.Session().ID)
	}
}

func TestBeginInterview_MissingSessionIsProtocolError(t *testing.T) {
	svc := &mockQuestionService{startRes: domain.StartResult{Question: "Q1"}}
	c := setupController(t, svc)

	err := c.BeginInterview(context.Background())
	var protoErr *domain.ProtocolError
	if !errors.As(err, &protoErr) {
		t.Fatalf("expected ProtocolError, got %v", err)
	}
	if c.Busy() {
		t.Fatalf("expected busy cleared")
	}
}

func TestBeginInterview_Twice(t *testing.T) {
	svc := &mockQuestionService{}
	c := startedController(t, svc)

	if err := c.BeginInterview(context.Background()); !errors.Is(err, ErrAlreadyStarted) {
		t.Fatalf("expected ErrAlreadyStarted, got %v", err)
	}
}

func TestSubmitAnswer_NextQuestion(t *testing.T) {
	svc := &mockQuestionService{answerRes: domain.NextQuestion("Q2")}
	c := startedController(t, svc)
	c.timeline.Flush()

	rec := &viewRecorder{}
	c.Subscribe(rec.record)

	var candidateBeforeCall, busyDuringCall bool
	svc.onAnswer = func() {
		busyDuringCall = c.Busy()
		msgs := c.View().Messages
		last := msgs[len(msgs)-1]
		candidateBeforeCall = len(msgs) == 2 &&
			last.Speaker == domain.SpeakerCandidate &&
			last.Revealed == "42" && last.Complete
	}

	if err := c.SubmitAnswer(context.Background(), "42"); err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if !candidateBeforeCall {
		t.Fatalf("expected fully revealed candidate message before the service call")
	}
	if !busyDuringCall {
		t.Fatalf("expected busy during answer call")
	}
	if svc.lastSession != "s1" || svc.lastAnswer != "42" {
		t.Fatalf("unexpected call args session=%q answer=%q", svc.lastSession, svc.lastAnswer)
	}

	c.timeline.Flush()
	v := c.View()
	if len(v.Messages) != 3 {
		t.Fatalf("expected 3 messages, got %d", len(v.Messages))
	}
	want := []struct {
		speaker domain.Speaker
		text    string
	}{
		{domain.SpeakerInterviewer, "Q1"},
		{domain.SpeakerCandidate, "42"},
		{domain.SpeakerInterviewer, "Q2"},
	}
	for i, w := range want {
		if v.Messages[i].Speaker != w.speaker || v.Messages[i].Revealed != w.text {
			t.Fatalf("message %d expected %s %q, got %+v", i, w.speaker, w.text, v.Messages[i])
		}
	}
	if v.State != domain.StateAwaitingAnswer || v.Busy {
		t.Fatalf("unexpected final view state=%s busy=%v", v.State, v.Busy)
	}

	transitions := 0
	prevBusy := false
	for _, view := range rec.snapshot() {
		if prevBusy && !view.Busy {
			transitions++
		}
		prevBusy = view.Busy
	}
	if transitions != 1 {
		t.Fatalf("expected busy to toggle true->false once, got %d", transitions)
	}
}

func TestSubmitAnswer_ReplyAppendedAfterBusyCleared(t *testing.T) {
	svc := &mockQuestionService{answerRes: domain.NextQuestion("Q2")}
	c := startedController(t, svc)
	c.timeline.Flush()

	rec := &viewRecorder{}
	c.Subscribe(rec.record)

	if err := c.SubmitAnswer(context.Background(), "42"); err != nil {
		t.Fatalf("expected no error, got %v", err)
	}

	seen := false
	for _, view := range rec.snapshot() {
		if len(view.Messages) < 3 {
			continue
		}
		seen = true
		if view.Busy {
			t.Fatalf("expected busy cleared whenever the reply is visible, got %+v", view)
		}
	}
	if !seen {
		t.Fatalf("expected a view with the reply")
	}
}

func TestSubmitAnswer_EmptyIsNoop(t *testing.T) {
	svc := &mockQuestionService{}
	c := startedController(t, svc)
	before := c.View()

	for _, text := range []string{"", "   ", "\n\t"} {
		if err := c.SubmitAnswer(context.Background(), text); !errors.Is(err, ErrEmptyAnswer) {
			t.Fatalf("expected ErrEmptyAnswer for %q, got %v", text, err)
		}
	}
	after := c.View()
	if len(after.Messages) != len(before.Messages) || after.Busy != before.Busy {
		t.Fatalf("expected timeline and busy unchanged")
	}
	if svc.answerCalls != 0 {
		t.Fatalf("expected no service call, got %d", svc.answerCalls)
	}
}

func TestSubmitAnswer_WhileBusyIsNoop(t *testing.T) {
	svc := &mockQuestionService{answerRes: domain.NextQuestion("Q2")}
	c := startedController(t, svc)

	inCall := make(chan struct{})
	unblock := make(chan struct{})
	svc.onAnswer = func() {
		close(inCall)
		<-unblock
	}

	done := make(chan error, 1)
	go func() { done <- c.SubmitAnswer(context.Background(), "first") }()
	<-inCall

	lenBefore := len(c.View().Messages)
	if err := c.SubmitAnswer(context.Background(), "second"); !errors.Is(err, ErrBusy) {
		t.Fatalf("expected ErrBusy, got %v", err)
	}
	if err := c.RequestSummary(context.Background()); !errors.Is(err, ErrBusy) {
		t.Fatalf("expected ErrBusy for summary, got %v", err)
	}
	if got := len(c.View().Messages); got != lenBefore {
		t.Fatalf("expected timeline unchanged while busy, got %d messages", got)
	}

	close(unblock)
	if err := <-done; err != nil {
		t.Fatalf("expected first submission to succeed, got %v", err)
	}
	if svc.answerCalls != 1 {
		t.Fatalf("expected exactly one answer call, got %d", svc.answerCalls)
	}
}

func TestSubmitAnswer_ClosingMessage(t *testing.T) {
	svc := &mockQuestionService{answerRes: domain.InterviewClosed("Interview complete")}
	c := startedController(t, svc)

	if err := c.SubmitAnswer(context.Background(), "done"); err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	c.timeline.Flush()
	v := c.View()
	last := v.Messages[len(v.Messages)-1]
	if last.Speaker != domain.SpeakerInterviewer || last.Kind != domain.KindQuestionAnswer || last.Revealed != "Interview complete" {
		t.Fatalf("unexpected closing message %+v", last)
	}
	if v.State != domain.StateClosed {
		t.Fatalf("expected closed, got %s", v.State)
	}
}

func TestSubmitAnswer_MalformedResponse(t *testing.T) {
	svc := &mockQuestionService{answerRes: domain.MalformedAnswer("neither next_question nor message")}
	c := startedController(t, svc)

	err := c.SubmitAnswer(context.Background(), "42")
	var protoErr *domain.ProtocolError
	if !errors.As(err, &protoErr) {
		t.Fatalf("expected ProtocolError, got %v", err)
	}
	v := c.View()
	last := v.Messages[len(v.Messages)-1]
	if last.Kind != domain.KindNotice || !last.Complete {
		t.Fatalf("expected visible notice, got %+v", last)
	}
	if v.Busy || v.State != domain.StateAwaitingAnswer {
		t.Fatalf("expected recoverable state, busy=%v state=%s", v.Busy, v.State)
	}
}

func TestSubmitAnswer_ServiceError(t *testing.T) {
	svc := &mockQuestionService{answerErr: &domain.ServiceError{Op: "answer", Err: errors.New("connection refused")}}
	c := startedController(t, svc)

	err := c.SubmitAnswer(context.Background(), "42")
	var svcErr *domain.ServiceError
	if !errors.As(err, &svcErr) {
		t.Fatalf("expected ServiceError, got %v", err)
	}
	if c.Busy() {
		t.Fatalf("expected busy cleared on failure")
	}
	_ = c.SubmitAnswer(context.Background(), "again")
	if svc.answerCalls != 2 {
		t.Fatalf("expected second attempt to reach the service, got %d calls", svc.answerCalls)
	}
}

func TestSubmitAnswer_BeforeSession(t *testing.T) {
	svc := &mockQuestionService{}
	c := setupController(t, svc)

	if err := c.SubmitAnswer(context.Background(), "42"); !errors.Is(err, ErrNoSession) {
		t.Fatalf("expected ErrNoSession, got %v", err)
	}
	if len(c.View().Messages) != 0 {
		t.Fatalf("expected empty timeline")
	}
}

func TestSubmitAnswer_AfterClosed(t *testing.T) {
	svc := &mockQuestionService{answerRes: domain.InterviewClosed("bye")}
	c := startedController(t, svc)
	_ = c.SubmitAnswer(context.Background(), "done")

	svc.answerRes = domain.InterviewClosed("still here")
	if err := c.SubmitAnswer(context.Background(), "one more?"); err != nil {
		t.Fatalf("expected closed interview to accept another answer, got %v", err)
	}
}

func TestSubmitAnswer_KeepsNewerDraft(t *testing.T) {
	svc := &mockQuestionService{answerRes: domain.NextQuestion("Q2")}
	c := startedController(t, svc)

	c.SetDraft("next thought")
	if err := c.SubmitAnswer(context.Background(), "first answer"); err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if svc.lastAnswer != "first answer" {
		t.Fatalf("expected submitted text sent, got %q", svc.lastAnswer)
	}
	if c.Draft() != "next thought" {
		t.Fatalf("expected newer draft kept, got %q", c.Draft())
	}
}

func TestSubmitDraft_ClearsBuffer(t *testing.T) {
	svc := &mockQuestionService{answerRes: domain.NextQuestion("Q2")}
	c := startedController(t, svc)

	c.SetDraft("SUM(A1:A3)")
	if err := c.SubmitDraft(context.Background()); err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if c.Draft() != "" {
		t.Fatalf("expected draft cleared, got %q", c.Draft())
	}
	if svc.lastAnswer != "SUM(A1:A3)" {
		t.Fatalf("expected draft sent, got %q", svc.lastAnswer)
	}
}

func TestRequestSummary_ShownImmediately(t *testing.T) {
	svc := &mockQuestionService{summaryText: "Good job"}
	c := startedController(t, svc)

	rec := &viewRecorder{}
	c.Subscribe(rec.record)

	var summaryStateDuringCall domain.SummaryState
	svc.onSummary = func() { summaryStateDuringCall = c.View().SummaryState }

	if err := c.RequestSummary(context.Background()); err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if summaryStateDuringCall != domain.SummaryRequested {
		t.Fatalf("expected requested during call, got %s", summaryStateDuringCall)
	}

	v := c.View()
	last := v.Messages[len(v.Messages)-1]
	if last.Kind != domain.KindSummary || last.Revealed != "Good job" || !last.Complete {
		t.Fatalf("unexpected summary message %+v", last)
	}
	if v.SummaryState != domain.SummaryShown || v.Busy {
		t.Fatalf("unexpected view summary=%s busy=%v", v.SummaryState, v.Busy)
	}

	for _, view := range rec.snapshot() {
		for _, m := range view.Messages {
			if m.Kind == domain.KindSummary && m.Revealed != "Good job" {
				t.Fatalf("observed partial summary %q", m.Revealed)
			}
		}
	}
}

func TestRequestSummary_FromClosed(t *testing.T) {
	svc := &mockQuestionService{answerRes: domain.InterviewClosed("bye"), summaryText: "Score: 7/10"}
	c := startedController(t, svc)
	_ = c.SubmitAnswer(context.Background(), "done")

	if err := c.RequestSummary(context.Background()); err != nil {
		t.Fatalf("expected summary allowed when closed, got %v", err)
	}
	if c.State() != domain.StateClosed {
		t.Fatalf("expected state to stay closed, got %s", c.State())
	}
}

func TestRequestSummary_NoSession(t *testing.T) {
	c := setupController(t, &mockQuestionService{})
	if err := c.RequestSummary(context.Background()); !errors.Is(err, ErrNoSession) {
		t.Fatalf("expected ErrNoSession, got %v", err)
	}
}

func TestRequestSummary_Failure(t *testing.T) {
	svc := &mockQuestionService{summaryErr: &domain.ServiceError{Op: "summary", StatusCode: 404, Message: "session not found"}}
	c := startedController(t, svc)

	if err := c.RequestSummary(context.Background()); err == nil {
		t.Fatalf("expected error")
	}
	v := c.View()
	if v.Busy || v.SummaryState != domain.SummaryNone {
		t.Fatalf("expected busy cleared and summary reset, busy=%v summary=%s", v.Busy, v.SummaryState)
	}
	last := v.Messages[len(v.Messages)-1]
	if last.Kind != domain.KindNotice {
		t.Fatalf("expected notice, got %+v", last)
	}
}

func TestReportEvent(t *testing.T) {
	svc := &mockQuestionService{}
	c := setupController(t, svc)
	if err := c.ReportEvent(context.Background(), "paste", ""); !errors.Is(err, ErrNoSession) {
		t.Fatalf("expected ErrNoSession, got %v", err)
	}

	c = startedController(t, svc)
	lenBefore := len(c.View().Messages)
	if err := c.ReportEvent(context.Background(), "focus_lost", "alt-tab"); err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if svc.lastEventType != "focus_lost" || svc.lastDetails != "alt-tab" || svc.lastSession != "s1" {
		t.Fatalf("unexpected event forwarded: %+v", svc)
	}
	if len(c.View().Messages) != lenBefore || c.Busy() {
		t.Fatalf("expected report event to leave timeline and busy untouched")
	}

	svc.eventErr = errors.New("boom")
	if err := c.ReportEvent(context.Background(), "paste", ""); err == nil {
		t.Fatalf("expected error")
	}
}
