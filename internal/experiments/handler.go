package experiments

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"cvpulse-backend/internal/shared/server/middleware"
	"cvpulse-backend/internal/shared/server/respond"
)

// Handler exposes experiment administration. All routes require the
// admin role.
type Handler struct {
	service *Service
}

func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

func (h *Handler) Register(rg *gin.RouterGroup) {
	admin := rg.Group("/experiments", middleware.RequireAdmin())
	admin.POST("", h.create)
	admin.GET("", h.list)
	admin.POST("/:name/start", h.start)
	admin.PATCH("/:name/status", h.setStatus)
}

type createRequest struct {
	Name        string    `json:"name"`
	Description string    `json:"description"`
	Status      string    `json:"status"`
	Variants    []Variant `json:"variants"`
	Metrics     []string  `json:"metrics"`
}

func (h *Handler) create(c *gin.Context) {
	var req createRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respond.Error(c, http.StatusBadRequest, "VALIDATION", "invalid request body", nil)
		return
	}

	exp, err := h.service.Create(c.Request.Context(), Experiment{
		Name:        req.Name,
		Description: req.Description,
		Status:      req.Status,
		Variants:    req.Variants,
		Metrics:     req.Metrics,
	})
	if err != nil {
		switch {
		case errors.Is(err, ErrAlreadyExists):
			respond.Error(c, http.StatusConflict, "CONFLICT", "experiment already exists", nil)
		case errors.Is(err, ErrBadStatus):
			respond.Error(c, http.StatusBadRequest, "VALIDATION", "invalid experiment status", nil)
		default:
			respond.Error(c, http.StatusBadRequest, "VALIDATION", err.Error(), nil)
		}
		return
	}
	respond.JSON(c, http.StatusCreated, exp)
}

func (h *Handler) list(c *gin.Context) {
	exps, err := h.service.List(c.Request.Context())
	if err != nil {
		respond.Error(c, http.StatusInternalServerError, "SERVER_ERROR", "could not list experiments", nil)
		return
	}
	if exps == nil {
		exps = []Experiment{}
	}
	respond.OK(c, gin.H{"experiments": exps})
}

// start transitions an experiment to active.
func (h *Handler) start(c *gin.Context) {
	exp, err := h.service.SetStatus(c.Request.Context(), c.Param("name"), StatusActive)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			respond.Error(c, http.StatusNotFound, "NOT_FOUND", "experiment not found", nil)
			return
		}
		respond.Error(c, http.StatusInternalServerError, "SERVER_ERROR", "could not start experiment", nil)
		return
	}
	respond.OK(c, exp)
}

type statusRequest struct {
	Status string `json:"status"`
}

func (h *Handler) setStatus(c *gin.Context) {
	var req statusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respond.Error(c, http.StatusBadRequest, "VALIDATION", "invalid request body", nil)
		return
	}

	exp, err := h.service.SetStatus(c.Request.Context(), c.Param("name"), req.Status)
	if err != nil {
		switch {
		case errors.Is(err, ErrNotFound):
			respond.Error(c, http.StatusNotFound, "NOT_FOUND", "experiment not found", nil)
		case errors.Is(err, ErrBadStatus):
			respond.Error(c, http.StatusBadRequest, "VALIDATION", "invalid experiment status", nil)
		default:
			respond.Error(c, http.StatusInternalServerError, "SERVER_ERROR", "could not update experiment", nil)
		}
		return
	}
	respond.OK(c, exp)
}
