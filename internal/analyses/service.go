package analyses

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"cvpulse-backend/internal/experiments"
	"cvpulse-backend/internal/extract"
	"cvpulse-backend/internal/fileguard"
	"cvpulse-backend/internal/provider"
	"cvpulse-backend/internal/quota"
	"cvpulse-backend/internal/ratelimit"
	"cvpulse-backend/internal/shared/metrics"
	"cvpulse-backend/internal/shared/storage/object"
	"cvpulse-backend/internal/shared/telemetry"
)

// ExperimentName is the prompt experiment the pipeline consults on every
// submission.
const ExperimentName = "analysis-prompt"

const uploadBucket = "upload"

// Caller identifies who is submitting. Anonymous callers have an empty
// UserID and are keyed by client IP.
type Caller struct {
	UserID   string
	Role     string
	ClientIP string
}

// Key is the identity used for rate limiting and experiment assignment.
func (c Caller) Key() string {
	if c.UserID != "" {
		return c.UserID
	}
	return c.ClientIP
}

// limiterRole maps the caller onto a rate-limit tier.
func (c Caller) limiterRole() string {
	if c.UserID == "" {
		return "anonymous"
	}
	if c.Role == "" {
		return "default"
	}
	return c.Role
}

// Service runs the analysis pipeline: validate, extract, admit, analyze,
// persist, then account. Admission checks run in a fixed order and the
// quota is only committed after the record is safely stored.
type Service struct {
	Guard       *fileguard.Guard
	Limiter     *ratelimit.Limiter
	Quota       *quota.Service
	Experiments *experiments.Service
	Provider    provider.Provider
	Fallback    provider.Provider
	Repo        Repo
	Objects     object.Store

	now         func() time.Time
	newID       func() string
	extractText func(ctx context.Context, data []byte) (string, error)
}

// NewService wires the pipeline. Objects may be nil; raw uploads are
// then not archived.
func NewService(
	guard *fileguard.Guard,
	limiter *ratelimit.Limiter,
	quotaSvc *quota.Service,
	experimentsSvc *experiments.Service,
	prov provider.Provider,
	fallback provider.Provider,
	repo Repo,
	objects object.Store,
) *Service {
	return &Service{
		Guard:       guard,
		Limiter:     limiter,
		Quota:       quotaSvc,
		Experiments: experimentsSvc,
		Provider:    prov,
		Fallback:    fallback,
		Repo:        repo,
		Objects:     objects,
		now:         time.Now,
		newID:       uuid.NewString,
		extractText: extract.Text,
	}
}

// Submit runs one upload through the full pipeline. It returns an
// Outcome on success or a *Rejection describing why the upload was
// refused. Once a submission is admitted it runs to completion even if
// the caller disconnects.
func (s *Service) Submit(ctx context.Context, caller Caller, sub Submission) (Outcome, error) {
	metrics.IncAnalysisStarted()
	started := s.now()

	if err := s.Guard.Check(fileguard.Artifact{
		Name:     sub.FileName,
		MimeType: sub.MimeType,
		Size:     sub.Size,
		Data:     sub.Data,
	}); err != nil {
		metrics.IncAnalysisRejected()
		return Outcome{}, guardRejection(err, s.Guard.MaxBytes())
	}

	text, err := s.extractText(ctx, sub.Data)
	if err != nil {
		if errors.Is(err, extract.ErrUnreadableDocument) {
			metrics.IncAnalysisRejected()
			return Outcome{}, reject(ReasonUnreadable,
				"We could not read this document. It may be corrupted, password protected, or contain only images.")
		}
		metrics.IncAnalysisFailed()
		return Outcome{}, reject(ReasonServerError, "Analysis failed. Please try again.")
	}

	if rej := s.admit(ctx, caller); rej != nil {
		metrics.IncAnalysisRejected()
		return Outcome{}, rej
	}

	// Admitted: from here the work runs to completion regardless of the
	// client connection.
	runCtx := context.WithoutCancel(ctx)
	runCtx, usedFallback := provider.WithFallbackFlag(runCtx)

	variant := experiments.ControlVariant
	if s.Experiments != nil {
		variant = s.Experiments.Assign(runCtx, ExperimentName, caller.Key())
	}

	input := provider.Input{
		Text:           text,
		JobDescription: strings.TrimSpace(sub.JobDescription),
		TargetRole:     strings.TrimSpace(sub.TargetRole),
	}

	raw, err := s.Provider.Analyze(runCtx, input, provider.PromptVariant(variant))
	if err != nil {
		// The failover chain ends in the heuristic, so this is a wiring
		// fault rather than a provider outage.
		metrics.IncAnalysisFailed()
		telemetry.Error("analysis.provider_failed", map[string]any{"error": err.Error()})
		return Outcome{}, reject(ReasonServerError, "Analysis failed. Please try again.")
	}

	result, err := ParseResult(raw)
	if err != nil {
		*usedFallback = true
		raw, err = s.Fallback.Analyze(runCtx, input, provider.PromptVariant(variant))
		if err == nil {
			result, err = ParseResult(raw)
		}
		if err != nil {
			metrics.IncAnalysisFailed()
			telemetry.Error("analysis.fallback_failed", map[string]any{"error": err.Error()})
			return Outcome{}, reject(ReasonServerError, "Analysis failed. Please try again.")
		}
	}

	rec := Record{
		ID:            s.newID(),
		UserID:        caller.UserID,
		FileName:      sub.FileName,
		ExtractedText: text,
		Result:        result,
		CreatedAt:     s.now().UTC(),
	}
	if err := s.Repo.Create(runCtx, rec); err != nil {
		metrics.IncAnalysisFailed()
		telemetry.Error("analysis.persist_failed", map[string]any{
			"analysis_id": rec.ID,
			"error":       err.Error(),
		})
		return Outcome{}, reject(ReasonServerError, "Could not save the analysis. Please try again.")
	}

	s.archive(runCtx, caller, sub, rec.ID, text)

	// Quota commits exactly once, only after the record exists. A commit
	// failure must not fail the request the user already paid for.
	if caller.UserID != "" && s.Quota != nil {
		if _, err := s.Quota.Commit(runCtx, caller.UserID); err != nil {
			telemetry.Warn("analysis.quota_commit_failed", map[string]any{
				"analysis_id": rec.ID,
				"error":       err.Error(),
			})
		}
	}

	if s.Experiments != nil {
		go s.Experiments.RecordMetric(runCtx,
			ExperimentName, caller.Key(), "overallScore", float64(result.OverallScore))
	}

	metrics.IncAnalysisCompleted()
	metrics.ObserveAnalysisDurationMs(float64(s.now().Sub(started).Milliseconds()))

	return Outcome{
		ID:        rec.ID,
		FileName:  rec.FileName,
		Result:    rec.Result,
		Fallback:  *usedFallback,
		CreatedAt: rec.CreatedAt,
	}, nil
}

// admit runs the policy gates after extraction: a throttled or
// over-quota caller never reaches a provider.
func (s *Service) admit(ctx context.Context, caller Caller) *Rejection {
	decision := s.Limiter.Admit(caller.Key(), uploadBucket, caller.limiterRole())
	if !decision.Allowed {
		r := reject(ReasonRateLimited, "Too many requests. Please try again later.")
		r.RetryAfter = decision.RetryAfter
		return r
	}

	if caller.UserID != "" && s.Quota != nil {
		ok, st, err := s.Quota.CanAdmit(ctx, caller.UserID)
		if err != nil {
			telemetry.Error("analysis.quota_check_failed", map[string]any{"error": err.Error()})
			return reject(ReasonServerError, "Analysis failed. Please try again.")
		}
		if !ok {
			return reject(ReasonQuotaExceeded, fmt.Sprintf(
				"You have used all %d analyses on the %s plan this month. Upgrade for more.",
				st.Plan.Allowance(), st.Plan))
		}
	}
	return nil
}

// archive stores the original upload and the extracted text. Best
// effort: the analysis result is already safe in the repo.
func (s *Service) archive(ctx context.Context, caller Caller, sub Submission, analysisID, text string) {
	if s.Objects == nil {
		return
	}
	desc, err := s.Objects.Put(ctx, caller.Key(), sub.FileName, bytes.NewReader(sub.Data))
	if err != nil {
		telemetry.Warn("analysis.archive_failed", map[string]any{
			"analysis_id": analysisID,
			"error":       err.Error(),
		})
		return
	}
	if _, err := s.Objects.PutSidecar(ctx, desc.Key+".extracted.txt",
		"text/plain; charset=utf-8", strings.NewReader(text)); err != nil {
		telemetry.Warn("analysis.archive_sidecar_failed", map[string]any{
			"analysis_id": analysisID,
			"error":       err.Error(),
		})
	}
}

func guardRejection(err error, maxBytes int64) *Rejection {
	switch {
	case errors.Is(err, fileguard.ErrFileTooLarge):
		return reject(ReasonFileTooLarge, fmt.Sprintf("File exceeds the %d MB limit.", maxBytes>>20))
	case errors.Is(err, fileguard.ErrEmptyFile):
		return reject(ReasonEmptyFile, "The uploaded file is empty.")
	case errors.Is(err, fileguard.ErrUnsupportedType):
		return reject(ReasonUnsupportedType, "Only PDF files are supported.")
	case errors.Is(err, fileguard.ErrInvalidSignature):
		return reject(ReasonInvalidSignature, "The file content does not look like a PDF document.")
	case errors.Is(err, fileguard.ErrInvalidFilename):
		return reject(ReasonInvalidFilename, "The file name contains unsupported characters.")
	default:
		return reject(ReasonServerError, "Analysis failed. Please try again.")
	}
}

// History lists the caller's past analyses, newest first.
func (s *Service) History(ctx context.Context, userID string, limit int) ([]Summary, error) {
	return s.Repo.ListByUser(ctx, userID, limit)
}

// Detail fetches one analysis. Records belong to their creator; asking
// for someone else's returns ErrRecordNotFound semantics at the handler
// level via the returned record's UserID.
func (s *Service) Detail(ctx context.Context, id string) (Record, error) {
	return s.Repo.Get(ctx, id)
}
