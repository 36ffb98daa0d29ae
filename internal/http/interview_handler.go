package http

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"mock-interviewer/internal/domain"
	"mock-interviewer/internal/service"
)

// InterviewHandler expone el Question Service por HTTP.
type InterviewHandler struct {
	logger  *zap.Logger
	svc     *service.InterviewService
	limiter service.StartRateLimiter
}

// NewInterviewHandler crea el handler. limiter puede ser nil (sin límite).
func NewInterviewHandler(logger *zap.Logger, svc *service.InterviewService, limiter service.StartRateLimiter) *InterviewHandler {
	return &InterviewHandler{
		logger:  logger,
		svc:     svc,
		limiter: limiter,
	}
}

// Start maneja POST /start.
func (h *InterviewHandler) Start(c *gin.Context) {
	if h.limiter != nil && !h.limiter.Allow(c.ClientIP()) {
		h.logger.Warn("start rate limited", zap.String("client_ip", c.ClientIP()))
		c.JSON(http.StatusTooManyRequests, gin.H{"error": "too many interviews started, try again later"})
		return
	}

	res, err := h.svc.Start(c.Request.Context())
	if err != nil {
		h.logger.Error("start interview failed", zap.Error(err))
		c.JSON(http.StatusBadGateway, gin.H{"error": "could not start interview"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"session_id": res.SessionID, "question": res.Question})
}

// Answer maneja POST /answer.
func (h *InterviewHandler) Answer(c *gin.Context) {
	var req struct {
		SessionID string `json:"session_id" binding:"required"`
		Answer    string `json:"answer"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		h.logger.Warn("invalid answer request", zap.Error(err))
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request"})
		return
	}

	res, err := h.svc.Answer(c.Request.Context(), req.SessionID, req.Answer)
	if err != nil {
		h.writeError(c, "answer", err)
		return
	}

	switch res.Outcome {
	case domain.OutcomeNextQuestion:
		c.JSON(http.StatusOK, gin.H{"next_question": res.Text})
	default:
		c.JSON(http.StatusOK, gin.H{"message": res.Text})
	}
}

// Summary maneja GET /summary?session_id=.
func (h *InterviewHandler) Summary(c *gin.Context) {
	sessionID := c.Query("session_id")
	if sessionID == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "session_id is required"})
		return
	}

	summary, err := h.svc.Summary(c.Request.Context(), sessionID)
	if err != nil {
		h.writeError(c, "summary", err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"session_id": sessionID, "summary": summary})
}

// LogEvent maneja POST /log_event.
func (h *InterviewHandler) LogEvent(c *gin.Context) {
	var req struct {
		SessionID string `json:"session_id" binding:"required"`
		EventType string `json:"event_type" binding:"required"`
		Details   string `json:"details"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		h.logger.Warn("invalid log event request", zap.Error(err))
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request"})
		return
	}

	ev, err := h.svc.LogEvent(c.Request.Context(), req.SessionID, req.EventType, req.Details)
	if err != nil {
		h.writeError(c, "log_event", err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"status": "logged", "event": ev})
}

func (h *InterviewHandler) writeError(c *gin.Context, op string, err error) {
	switch {
	case errors.Is(err, domain.ErrSessionNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "session not found"})
	case errors.Is(err, service.ErrInterviewInvalidInput):
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request"})
	default:
		h.logger.Error(op+" failed", zap.Error(err))
		c.JSON(http.StatusBadGateway, gin.H{"error": "could not complete " + op})
	}
}
