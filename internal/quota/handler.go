package quota

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"cvpulse-backend/internal/shared/server/middleware"
	"cvpulse-backend/internal/shared/server/respond"
)

// Handler serves the usage snapshot endpoint.
type Handler struct {
	service *Service
}

func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

// Register mounts the usage routes. Requires an authenticated user.
func (h *Handler) Register(rg *gin.RouterGroup) {
	rg.GET("/usage", middleware.RequireUser(), h.getUsage)
}

func (h *Handler) getUsage(c *gin.Context) {
	userID := middleware.UserIDFromContext(c)

	st, err := h.service.Snapshot(c.Request.Context(), userID)
	if err != nil {
		respond.Error(c, http.StatusInternalServerError, "SERVER_ERROR", "could not load usage", nil)
		return
	}

	limit := st.Plan.Allowance()
	respond.JSON(c, http.StatusOK, gin.H{
		"plan":         st.Plan,
		"monthlyCount": st.MonthlyCount,
		"monthlyLimit": limit,
		"totalCount":   st.TotalCount,
		"remaining":    st.Remaining(),
		"resetsAt":     st.ResetsAt(),
	})
}
