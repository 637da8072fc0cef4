package server

import (
	"context"
	"net/http"
	"strings"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/coursebuddy/coursebuddy/internal/chat"
)

// Exchanger answers one question within a course session.
type Exchanger interface {
	Exchange(ctx context.Context, courseID int, sessionID, message string) (string, error)
	Reset(ctx context.Context, courseID int, sessionID string) error
}

type ChatHandler struct {
	Chat Exchanger
}

func (h *ChatHandler) Register(g *echo.Group) {
	g.POST("", h.exchange)
	g.DELETE("/reset", h.reset)
}

type chatRequest struct {
	CourseID  int    `json:"course_id"`
	SessionID string `json:"session_id"`
	Message   string `json:"message"`
}

func (h *ChatHandler) exchange(c echo.Context) error {
	var req chatRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	if req.CourseID <= 0 {
		return echo.NewHTTPError(http.StatusBadRequest, "course_id must be a positive integer")
	}
	if strings.TrimSpace(req.Message) == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "message required")
	}
	// a blank session id starts a fresh session owned by the server
	if strings.TrimSpace(req.SessionID) == "" {
		req.SessionID = uuid.NewString()
	}

	answer, err := h.Chat.Exchange(c.Request().Context(), req.CourseID, req.SessionID, req.Message)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	chatExchanges.Inc()
	if answer == chat.FallbackAnswer {
		chatFallbacks.Inc()
	}
	return c.JSON(http.StatusOK, map[string]string{
		"answer":     answer,
		"session_id": req.SessionID,
	})
}

func (h *ChatHandler) reset(c echo.Context) error {
	var req chatRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	if req.CourseID <= 0 || strings.TrimSpace(req.SessionID) == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "course_id and session_id required")
	}
	if err := h.Chat.Reset(c.Request().Context(), req.CourseID, req.SessionID); err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusOK, map[string]string{"status": "cleared"})
}
