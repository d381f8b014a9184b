package jdmatch

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"cvpulse-backend/internal/shared/server/respond"
)

type Handler struct {
	service *Service
}

func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

func (h *Handler) Register(rg *gin.RouterGroup) {
	rg.POST("/jd/match", h.match)
}

type matchRequest struct {
	ResumeText     string `json:"resumeText"`
	JobDescription string `json:"jobDescription"`
}

func (h *Handler) match(c *gin.Context) {
	var req matchRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respond.Error(c, http.StatusBadRequest, "VALIDATION", "invalid request body", nil)
		return
	}
	if req.ResumeText == "" || req.JobDescription == "" {
		respond.Error(c, http.StatusBadRequest, "VALIDATION",
			"resumeText and jobDescription are required", nil)
		return
	}

	analysis := h.service.Compare(c.Request.Context(), req.ResumeText, req.JobDescription)
	respond.OK(c, gin.H{"analysis": analysis})
}
