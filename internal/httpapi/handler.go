package httpapi

import (
	"context"
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/jyotish-ai/server/internal/agent/model"
	"github.com/jyotish-ai/server/internal/agent/session"
	errx "github.com/jyotish-ai/server/internal/core/error"
	logx "github.com/jyotish-ai/server/pkg/logger"
)

// Sessions is satisfied by *session.Manager.
type Sessions interface {
	Start(ctx context.Context, req session.StartRequest) (model.ChatSession, error)
	Ask(ctx context.Context, id, question string) (string, error)
	History(ctx context.Context, id string) ([]session.RenderedMessage, error)
	End(ctx context.Context, id string, purge bool) error
}

type Handler struct {
	sessions Sessions
}

func NewHandler(sessions Sessions) *Handler {
	return &Handler{sessions: sessions}
}

type askRequest struct {
	Question string `json:"question"`
}

type askResponse struct {
	SessionID string `json:"session_id"`
	Answer    string `json:"answer"`
}

func (h *Handler) Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

func (h *Handler) StartSession(c *gin.Context) {
	var req session.StartRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeError(c, errx.NewInput("invalid request body"))
		return
	}
	sess, err := h.sessions.Start(c.Request.Context(), req)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, sess)
}

func (h *Handler) Ask(c *gin.Context) {
	var req askRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeError(c, errx.NewInput("invalid request body"))
		return
	}
	id := c.Param("id")
	answer, err := h.sessions.Ask(c.Request.Context(), id, req.Question)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, askResponse{SessionID: id, Answer: answer})
}

func (h *Handler) History(c *gin.Context) {
	id := c.Param("id")
	msgs, err := h.sessions.History(c.Request.Context(), id)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"session_id": id, "messages": msgs})
}

func (h *Handler) EndSession(c *gin.Context) {
	purge, _ := strconv.ParseBool(c.DefaultQuery("purge", "false"))
	if err := h.sessions.End(c.Request.Context(), c.Param("id"), purge); err != nil {
		writeError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// writeError maps domain errors onto status codes and a flat {"error": ...} body.
func writeError(c *gin.Context, err error) {
	if ae, ok := session.IsAgentError(err); ok {
		body := gin.H{"error": errx.RetryLaterMessage}
		if ae.RetryAfterSeconds != nil {
			body["retry_after_seconds"] = *ae.RetryAfterSeconds
			c.Header("Retry-After", strconv.Itoa(int(*ae.RetryAfterSeconds+0.999)))
		}
		c.JSON(http.StatusServiceUnavailable, body)
		return
	}

	status := errx.StatusOf(err)
	message := errx.SystemErrorMessage
	var appErr *errx.AppError
	if errors.As(err, &appErr) && status < http.StatusInternalServerError {
		message = appErr.Message
	}
	if status >= http.StatusInternalServerError {
		logx.Error().Err(err).Str("request_id", c.GetString(requestIDKey)).Int("status", status).Msg("request failed")
	}
	c.JSON(status, gin.H{"error": message})
}
