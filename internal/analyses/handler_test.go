package analyses

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/textproto"
	"testing"

	"github.com/gin-gonic/gin"

	"cvpulse-backend/internal/experiments"
	"cvpulse-backend/internal/fileguard"
	"cvpulse-backend/internal/quota"
	"cvpulse-backend/internal/ratelimit"
)

func newTestRouter(t *testing.T, userID string) (*gin.Engine, *Service) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	prov := &stubProvider{raw: goodResult()}
	svc := NewService(
		fileguard.New(0),
		ratelimit.New(ratelimit.DefaultWindow),
		quota.NewService(),
		experiments.NewService(),
		prov,
		prov,
		NewMemoryRepo(),
		nil,
	)
	svc.extractText = func(ctx context.Context, data []byte) (string, error) {
		return "extracted resume text with plenty of words", nil
	}

	r := gin.New()
	if userID != "" {
		r.Use(func(c *gin.Context) {
			c.Set("userId", userID)
			c.Next()
		})
	}
	NewHandler(svc).Register(r.Group("/api/v1"))
	return r, svc
}

func multipartPDF(t *testing.T, field, filename string, payload []byte) (*bytes.Buffer, string) {
	t.Helper()
	body := &bytes.Buffer{}
	w := multipart.NewWriter(body)
	h := textproto.MIMEHeader{}
	h.Set("Content-Disposition", fmt.Sprintf(`form-data; name=%q; filename=%q`, field, filename))
	h.Set("Content-Type", "application/pdf")
	part, err := w.CreatePart(h)
	if err != nil {
		t.Fatalf("create part: %v", err)
	}
	if _, err := part.Write(payload); err != nil {
		t.Fatalf("write part: %v", err)
	}
	if err := w.Close(); err != nil {
		t.Fatalf("close writer: %v", err)
	}
	return body, w.FormDataContentType()
}

func TestAnalyzeEndpointHappyPath(t *testing.T) {
	r, _ := newTestRouter(t, "")

	payload := append([]byte("%PDF-1.7\n"), make([]byte, 512)...)
	body, contentType := multipartPDF(t, "resume", "resume.pdf", payload)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/resumes/analyze", body)
	req.Header.Set("Content-Type", contentType)
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)

	if rec.Code != http.StatusCreated {
		t.Fatalf("status = %d, body = %s", rec.Code, rec.Body.String())
	}
	var out struct {
		RecordID string `json:"recordId"`
		Analysis Result `json:"analysis"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &out); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if out.RecordID == "" {
		t.Fatal("recordId missing from response")
	}
	if out.Analysis.OverallScore != 82 {
		t.Fatalf("overallScore = %d, want 82", out.Analysis.OverallScore)
	}
}

func TestAnalyzeEndpointMissingFile(t *testing.T) {
	r, _ := newTestRouter(t, "")

	body, contentType := multipartPDF(t, "document", "resume.pdf", []byte("%PDF-1.7"))
	req := httptest.NewRequest(http.MethodPost, "/api/v1/resumes/analyze", body)
	req.Header.Set("Content-Type", contentType)
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rec.Code)
	}
}

func TestAnalyzeEndpointOversizeFile(t *testing.T) {
	r, _ := newTestRouter(t, "")

	payload := append([]byte("%PDF-1.7\n"), make([]byte, 6<<20)...)
	body, contentType := multipartPDF(t, "resume", "resume.pdf", payload)
	req := httptest.NewRequest(http.MethodPost, "/api/v1/resumes/analyze", body)
	req.Header.Set("Content-Type", contentType)
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)

	if rec.Code != http.StatusRequestEntityTooLarge {
		t.Fatalf("status = %d, want 413, body = %s", rec.Code, rec.Body.String())
	}
	var resp struct {
		Error struct {
			Type string `json:"type"`
		} `json:"error"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if resp.Error.Type != ReasonFileTooLarge {
		t.Fatalf("error type = %q, want %q", resp.Error.Type, ReasonFileTooLarge)
	}
}

func TestAnalyzeEndpointRateLimitHeaders(t *testing.T) {
	r, _ := newTestRouter(t, "")

	payload := append([]byte("%PDF-1.7\n"), make([]byte, 512)...)
	var rec *httptest.ResponseRecorder
	for i := 0; i < 6; i++ {
		body, contentType := multipartPDF(t, "resume", "resume.pdf", payload)
		req := httptest.NewRequest(http.MethodPost, "/api/v1/resumes/analyze", body)
		req.Header.Set("Content-Type", contentType)
		rec = httptest.NewRecorder()
		r.ServeHTTP(rec, req)
	}

	if rec.Code != http.StatusTooManyRequests {
		t.Fatalf("status = %d, want 429", rec.Code)
	}
	if rec.Header().Get("Retry-After") == "" {
		t.Fatal("Retry-After header missing")
	}
	var resp struct {
		Error struct {
			Type       string `json:"type"`
			RetryAfter int    `json:"retryAfter"`
		} `json:"error"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if resp.Error.Type != ReasonRateLimited || resp.Error.RetryAfter <= 0 {
		t.Fatalf("error = %+v, want RATE_LIMITED with retryAfter", resp.Error)
	}
}

func TestHistoryRequiresAuth(t *testing.T) {
	r, _ := newTestRouter(t, "")
	req := httptest.NewRequest(http.MethodGet, "/api/v1/resumes", nil)
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("status = %d, want 401", rec.Code)
	}
}

func TestDetailForbiddenForForeignRecord(t *testing.T) {
	r, svc := newTestRouter(t, "intruder")

	if err := svc.Repo.Create(context.Background(), Record{
		ID:     "rec-1",
		UserID: "owner",
		Result: Result{OverallScore: 70},
	}); err != nil {
		t.Fatalf("seed record: %v", err)
	}

	req := httptest.NewRequest(http.MethodGet, "/api/v1/resumes/rec-1", nil)
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	if rec.Code != http.StatusForbidden {
		t.Fatalf("status = %d, want 403", rec.Code)
	}
}

func TestDetailNotFound(t *testing.T) {
	r, _ := newTestRouter(t, "u1")
	req := httptest.NewRequest(http.MethodGet, "/api/v1/resumes/nope", nil)
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	if rec.Code != http.StatusNotFound {
		t.Fatalf("status = %d, want 404", rec.Code)
	}
}
