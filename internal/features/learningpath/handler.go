package learningpath

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
	rg.POST("/learning-path", h.generate)
}

type generateRequest struct {
	ResumeText string `json:"resumeText"`
	TargetRole string `json:"targetRole"`
}

func (h *Handler) generate(c *gin.Context) {
	var req generateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respond.Error(c, http.StatusBadRequest, "VALIDATION", "invalid request body", nil)
		return
	}
	if req.ResumeText == "" || req.TargetRole == "" {
		respond.Error(c, http.StatusBadRequest, "VALIDATION",
			"resumeText and targetRole are required", nil)
		return
	}

	plan := h.service.Generate(c.Request.Context(), req.ResumeText, req.TargetRole)
	respond.OK(c, gin.H{"learningPath": plan})
}
