package questionclient

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"go.uber.org/zap"

	"mock-interviewer/internal/domain"
)

// Client implementa interview.QuestionService contra el Question Service por HTTP.
type Client struct {
	baseURL string
	client  *http.Client
	logger  *zap.Logger
}

// NewClient construye un cliente apuntando a baseURL. Un httpClient nil usa un
// http.Client con timeout de 90s (el servicio llama a un LLM por turno).
func NewClient(baseURL string, httpClient *http.Client, logger *zap.Logger) *Client {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 90 * time.Second}
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		client:  httpClient,
		logger:  logger,
	}
}

// BaseURL devuelve la ubicación del servicio.
func (c *Client) BaseURL() string {
	return c.baseURL
}

func (c *Client) Start(ctx context.Context) (domain.StartResult, error) {
	var out startResponse
	if err := c.do(ctx, "start", http.MethodPost, "/start", nil, &out); err != nil {
		return domain.StartResult{}, err
	}
	return domain.StartResult{SessionID: out.SessionID, Question: out.Question}, nil
}

func (c *Client) Answer(ctx context.Context, sessionID, answer string) (domain.AnswerResult, error) {
	var out answerResponse
	err := c.do(ctx, "answer", http.MethodPost, "/answer", answerRequest{SessionID: sessionID, Answer: answer}, &out)
	if err != nil {
		return domain.AnswerResult{}, err
	}
	return out.result(), nil
}

func (c *Client) Summary(ctx context.Context, sessionID string) (string, error) {
	var out summaryResponse
	path := "/summary?" + url.Values{"session_id": {sessionID}}.Encode()
	if err := c.do(ctx, "summary", http.MethodGet, path, nil, &out); err != nil {
		return "", err
	}
	if out.Summary == nil {
		return "", &domain.ProtocolError{Op: "summary", Reason: "missing summary"}
	}
	return *out.Summary, nil
}

func (c *Client) LogEvent(ctx context.Context, sessionID, eventType, details string) error {
	req := logEventRequest{SessionID: sessionID, EventType: eventType, Details: details}
	return c.do(ctx, "log_event", http.MethodPost, "/log_event", req, nil)
}

func (c *Client) do(ctx context.Context, op, method, path string, body, out any) error {
	var reader io.Reader
	if body != nil {
		bodyBytes, err := json.Marshal(body)
		if err != nil {
			return &domain.ServiceError{Op: op, Err: fmt.Errorf("marshal request: %w", err)}
		}
		reader = bytes.NewReader(bodyBytes)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return &domain.ServiceError{Op: op, Err: fmt.Errorf("create request: %w", err)}
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	start := time.Now()
	resp, err := c.client.Do(req)
	if err != nil {
		return &domain.ServiceError{Op: op, Err: fmt.Errorf("do request: %w", err)}
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return &domain.ServiceError{Op: op, StatusCode: resp.StatusCode, Err: fmt.Errorf("read response: %w", err)}
	}

	c.logger.Debug("question service call",
		zap.String("op", op),
		zap.Int("status", resp.StatusCode),
		zap.Duration("latency", time.Since(start)),
	)

	if resp.StatusCode >= 400 {
		c.logger.Warn("question service error status",
			zap.String("op", op),
			zap.Int("status", resp.StatusCode),
			zap.ByteString("body", respBody),
		)
		return &domain.ServiceError{Op: op, StatusCode: resp.StatusCode, Message: errorMessage(respBody)}
	}

	if out == nil {
		return nil
	}
	if err := json.Unmarshal(respBody, out); err != nil {
		return &domain.ProtocolError{Op: op, Reason: fmt.Sprintf("unmarshal response: %v", err)}
	}
	return nil
}

// errorMessage extrae el detalle de un cuerpo de error. Acepta {"error": "..."} y
// {"detail": "..."}.
func errorMessage(body []byte) string {
	var e errorResponse
	if err := json.Unmarshal(body, &e); err != nil {
		return ""
	}
	if e.Error != "" {
		return e.Error
	}
	var detail string
	if len(e.Detail) > 0 && json.Unmarshal(e.Detail, &detail) == nil {
		return detail
	}
	return ""
}

type startResponse struct {
	SessionID string `json:"session_id"`
	Question  string `json:"question"`
}

type answerRequest struct {
	SessionID string `json:"session_id"`
	Answer    string `json:"answer"`
}

type answerResponse struct {
	NextQuestion *string `json:"next_question"`
	Message      *string `json:"message"`
}

// result convierte la forma con campos opcionales en el resultado etiquetado.
// next_question gana si vienen los dos; una cadena vacía cuenta como ausente.
func (r answerResponse) result() domain.AnswerResult {
	switch {
	case r.NextQuestion != nil && *r.NextQuestion != "":
		return domain.NextQuestion(*r.NextQuestion)
	case r.Message != nil && *r.Message != "":
		return domain.InterviewClosed(*r.Message)
	default:
		return domain.MalformedAnswer("neither next_question nor message present")
	}
}

type summaryResponse struct {
	SessionID string  `json:"session_id"`
	Summary   *string `json:"summary"`
}

type logEventRequest struct {
	SessionID string `json:"session_id"`
	EventType string `json:"event_type"`
	Details   string `json:"details,omitempty"`
}

type errorResponse struct {
	Error  string          `json:"error"`
	Detail json.RawMessage `json:"detail"`
}
