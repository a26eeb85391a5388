package v1

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/xiaot623/clompanion/internal/domain"
)

// HistoryResponse is the body of GET /api/chat/:session_id/history.
type HistoryResponse struct {
	SessionID string           `json:"session_id"`
	Messages  []domain.Message `json:"messages"`
}

// GetHistory returns the message log of a session.
// GET /api/chat/:session_id/history
func (h *Handler) GetHistory(c echo.Context) error {
	ctx := c.Request().Context()
	sessionID := c.Param("session_id")

	messages, err := h.service.GetHistory(ctx, sessionID)
	if err != nil {
		return writeError(c, err)
	}
	if messages == nil {
		messages = []domain.Message{}
	}

	return c.JSON(http.StatusOK, HistoryResponse{
		SessionID: sessionID,
		Messages:  messages,
	})
}

// ClearHistory deletes a session. Always succeeds for unknown ids.
// DELETE /api/chat/:session_id
func (h *Handler) ClearHistory(c echo.Context) error {
	ctx := c.Request().Context()

	if err := h.service.ClearHistory(ctx, c.Param("session_id")); err != nil {
		return writeError(c, err)
	}

	return c.JSON(http.StatusOK, map[string]string{
		"message": "Chat history cleared",
	})
}

// ListSessions lists every active session.
// GET /api/sessions
func (h *Handler) ListSessions(c echo.Context) error {
	ctx := c.Request().Context()

	sessions, err := h.service.ListSessions(ctx)
	if err != nil {
		return writeError(c, err)
	}

	return c.JSON(http.StatusOK, map[string]interface{}{
		"sessions": sessions,
	})
}
