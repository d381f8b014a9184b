package analyses

import (
	"errors"
	"io"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"cvpulse-backend/internal/shared/server/middleware"
	"cvpulse-backend/internal/shared/server/respond"
)

// uploadHeadroom is extra read budget beyond the validation cap so an
// oversize file reaches the pipeline and gets the proper 413 reason
// instead of an opaque body-read error.
const uploadHeadroom = 3 << 20

// Handler serves the resume analysis endpoints.
type Handler struct {
	service *Service
}

func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

func (h *Handler) Register(rg *gin.RouterGroup) {
	rg.POST("/resumes/analyze", h.analyze)
	rg.GET("/resumes", middleware.RequireUser(), h.history)
	rg.GET("/resumes/:id", middleware.RequireUser(), h.detail)
}

func (h *Handler) analyze(c *gin.Context) {
	maxRead := h.service.Guard.MaxBytes() + uploadHeadroom
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxRead)

	file, header, err := c.Request.FormFile("resume")
	if err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			respond.Error(c, http.StatusRequestEntityTooLarge, ReasonFileTooLarge,
				"File exceeds the maximum allowed size.", nil)
			return
		}
		respond.Error(c, http.StatusBadRequest, "VALIDATION",
			`multipart field "resume" is required`, nil)
		return
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			respond.Error(c, http.StatusRequestEntityTooLarge, ReasonFileTooLarge,
				"File exceeds the maximum allowed size.", nil)
			return
		}
		respond.Error(c, http.StatusBadRequest, "VALIDATION", "could not read the uploaded file", nil)
		return
	}

	caller := Caller{
		UserID:   middleware.UserIDFromContext(c),
		Role:     middleware.UserRoleFromContext(c),
		ClientIP: c.ClientIP(),
	}
	sub := Submission{
		FileName:       header.Filename,
		MimeType:       header.Header.Get("Content-Type"),
		Size:           header.Size,
		Data:           data,
		JobDescription: c.PostForm("jobDescription"),
		TargetRole:     c.PostForm("targetRole"),
	}

	outcome, err := h.service.Submit(c.Request.Context(), caller, sub)
	if err != nil {
		var rej *Rejection
		if errors.As(err, &rej) {
			status := statusForReason(rej.Reason)
			if rej.RetryAfter > 0 {
				c.Header("Retry-After", strconv.Itoa(rej.RetryAfter))
			}
			respond.ErrorWithRetry(c, status, rej.Reason, rej.Message, rej.RetryAfter, nil)
			return
		}
		respond.Error(c, http.StatusInternalServerError, ReasonServerError,
			"Analysis failed. Please try again.", nil)
		return
	}

	respond.JSON(c, http.StatusCreated, gin.H{
		"recordId":  outcome.ID,
		"fileName":  outcome.FileName,
		"analysis":  outcome.Result,
		"fallback":  outcome.Fallback,
		"createdAt": outcome.CreatedAt,
	})
}

func (h *Handler) history(c *gin.Context) {
	userID := middleware.UserIDFromContext(c)

	limit := 50
	if raw := c.Query("limit"); raw != "" {
		if parsed, err := strconv.Atoi(raw); err == nil && parsed > 0 && parsed <= 100 {
			limit = parsed
		}
	}

	summaries, err := h.service.History(c.Request.Context(), userID, limit)
	if err != nil {
		respond.Error(c, http.StatusInternalServerError, ReasonServerError,
			"Could not load your analyses.", nil)
		return
	}
	if summaries == nil {
		summaries = []Summary{}
	}
	respond.OK(c, gin.H{"analyses": summaries})
}

func (h *Handler) detail(c *gin.Context) {
	userID := middleware.UserIDFromContext(c)

	rec, err := h.service.Detail(c.Request.Context(), c.Param("id"))
	if err != nil {
		if errors.Is(err, ErrRecordNotFound) {
			respond.Error(c, http.StatusNotFound, "NOT_FOUND", "Analysis not found.", nil)
			return
		}
		respond.Error(c, http.StatusInternalServerError, ReasonServerError,
			"Could not load the analysis.", nil)
		return
	}
	if rec.UserID != userID && middleware.UserRoleFromContext(c) != "admin" {
		respond.Error(c, http.StatusForbidden, "FORBIDDEN", "This analysis belongs to another account.", nil)
		return
	}
	respond.OK(c, rec)
}

func statusForReason(reason string) int {
	switch reason {
	case ReasonFileTooLarge:
		return http.StatusRequestEntityTooLarge
	case ReasonRateLimited, ReasonQuotaExceeded:
		return http.StatusTooManyRequests
	case ReasonServerError:
		return http.StatusInternalServerError
	default:
		return http.StatusBadRequest
	}
}
