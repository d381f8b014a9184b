package interview

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"cvpulse-backend/internal/sessions"
	"cvpulse-backend/internal/shared/server/respond"
)

type Handler struct {
	service *Service
}

func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

func (h *Handler) Register(rg *gin.RouterGroup) {
	rg.POST("/interview/start", h.start)
	rg.POST("/interview/answer", h.answer)
}

type startRequest struct {
	Role   string   `json:"role"`
	Level  string   `json:"level"`
	Topics []string `json:"topics"`
}

func (h *Handler) start(c *gin.Context) {
	var req startRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respond.Error(c, http.StatusBadRequest, "VALIDATION", "invalid request body", nil)
		return
	}
	if req.Role == "" {
		respond.Error(c, http.StatusBadRequest, "VALIDATION", "role is required", nil)
		return
	}
	if req.Level == "" {
		req.Level = "intermediate"
	}

	respond.OK(c, h.service.Start(c.Request.Context(), req.Role, req.Level, req.Topics))
}

type answerRequest struct {
	SessionID string `json:"sessionId"`
	Response  string `json:"response"`
}

func (h *Handler) answer(c *gin.Context) {
	var req answerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respond.Error(c, http.StatusBadRequest, "VALIDATION", "invalid request body", nil)
		return
	}
	if req.SessionID == "" || req.Response == "" {
		respond.Error(c, http.StatusBadRequest, "VALIDATION", "sessionId and response are required", nil)
		return
	}

	reply, err := h.service.Answer(c.Request.Context(), req.SessionID, req.Response)
	if err != nil {
		if errors.Is(err, sessions.ErrNotFound) {
			respond.Error(c, http.StatusNotFound, "NOT_FOUND", "interview session not found or expired", nil)
			return
		}
		respond.Error(c, http.StatusInternalServerError, "SERVER_ERROR", "could not continue the interview", nil)
		return
	}
	respond.OK(c, reply)
}
