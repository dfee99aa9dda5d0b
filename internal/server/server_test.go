// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package server

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pdiddy/course-engine/internal/agent"
	"github.com/pdiddy/course-engine/internal/llm"
	"github.com/pdiddy/course-engine/internal/outline"
	"github.com/pdiddy/course-engine/internal/parse"
	"github.com/pdiddy/course-engine/internal/pdf"
	"github.com/pdiddy/course-engine/internal/session"
	"github.com/pdiddy/course-engine/pkg/types"
)

func init() {
	gin.SetMode(gin.TestMode)
}

const requestBody = `{
  "course_title": "Introduction to Databases",
  "course_description": "Relational modelling, SQL and transactions.",
  "audience_level": "undergraduate",
  "audience_category": "cs_major",
  "learning_mode": "synchronous",
  "depth_requirement": "applied",
  "duration_hours": 20,
  "pdf_path": "/etc/passwd"
}`

// recordingGenerator wraps a real orchestrator and records what it was asked.
type recordingGenerator struct {
	inner Generator
	reqs  []types.CourseRequest
	opts  []agent.GenerateOptions
}

func (r *recordingGenerator) Generate(ctx context.Context, req *types.CourseRequest, opts agent.GenerateOptions) (*outline.Result, error) {
	r.reqs = append(r.reqs, *req)
	r.opts = append(r.opts, opts)
	return r.inner.Generate(ctx, req, opts)
}

type failingGenerator struct{ err error }

func (f failingGenerator) Generate(context.Context, *types.CourseRequest, agent.GenerateOptions) (*outline.Result, error) {
	return nil, f.err
}

func testServer(t *testing.T, gen Generator) (*Server, *session.Manager) {
	t.Helper()
	sessions := session.NewManager(types.SessionConfig{TTL: time.Minute, Capacity: 10, TempDir: t.TempDir()})
	return New(types.ServerConfig{MaxUploadBytes: 1024}, gen, sessions, nil), sessions
}

func sampleGenerator() *recordingGenerator {
	o := agent.NewCourseOrchestrator(agent.NewModuleCreationAgent(llm.SampleProvider{}, nil, nil), nil)
	o.PDF = &pdf.AutoExtractor{}
	return &recordingGenerator{inner: o}
}

func do(t *testing.T, s *Server, method, path string, body io.Reader, contentType string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, body)
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	rec := httptest.NewRecorder()
	s.Engine.ServeHTTP(rec, req)
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &v), rec.Body.String())
	return v
}

func multipartFile(t *testing.T, name, content string) (*bytes.Buffer, string) {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	fw, err := mw.CreateFormFile("file", name)
	require.NoError(t, err)
	_, err = fw.Write([]byte(content))
	require.NoError(t, err)
	require.NoError(t, mw.Close())
	return &buf, mw.FormDataContentType()
}

func TestHealth(t *testing.T) {
	s, _ := testServer(t, sampleGenerator())
	rec := do(t, s, http.MethodGet, "/healthz", nil, "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"ok","sessions":0}`, rec.Body.String())
}

func TestGenerateOutline(t *testing.T) {
	gen := sampleGenerator()
	s, _ := testServer(t, gen)

	rec := do(t, s, http.MethodPost, "/api/v1/outlines?web=false", strings.NewReader(requestBody), "application/json")
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	body := decode[outlineResponse](t, rec)
	require.NotNil(t, body.Outline)
	assert.Equal(t, "Introduction to Databases", body.Outline.CourseTitle)
	assert.Len(t, body.Outline.Modules, 4)

	require.Len(t, gen.reqs, 1)
	assert.Empty(t, gen.reqs[0].PDFPath, "client-supplied paths are dropped")
	assert.True(t, gen.opts[0].NoWeb)
	assert.False(t, gen.opts[0].NoLibrary)
}

func TestGenerateOutlineErrors(t *testing.T) {
	tests := []struct {
		name       string
		gen        Generator
		body       string
		wantStatus int
		wantCode   string
	}{
		{"malformed JSON", sampleGenerator(), `{"course_title":`, http.StatusBadRequest, CodeInvalidRequest},
		{"invalid field", sampleGenerator(), strings.Replace(requestBody, `"duration_hours": 20`, `"duration_hours": 900`, 1), http.StatusBadRequest, CodeInvalidRequest},
		{"provider down", failingGenerator{&agent.StageError{Stage: agent.StageInvokeLLM, Err: errors.New("timeout")}}, requestBody, http.StatusBadGateway, CodeLLMUnavailable},
		{"parse failure", failingGenerator{&agent.StageError{Stage: agent.StageParseResponse, Err: &parse.ParseError{Preview: "nope"}}}, requestBody, http.StatusBadGateway, CodeLLMParseFailed},
		{"schema failure", failingGenerator{&agent.StageError{Stage: agent.StageValidateSchema, Err: &outline.SchemaError{Field: "modules", Reason: "empty"}}}, requestBody, http.StatusBadGateway, CodeOutlineInvalid},
		{"unexpected", failingGenerator{errors.New("boom")}, requestBody, http.StatusInternalServerError, CodeInternal},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s, _ := testServer(t, tt.gen)
			rec := do(t, s, http.MethodPost, "/api/v1/outlines", strings.NewReader(tt.body), "application/json")
			assert.Equal(t, tt.wantStatus, rec.Code)
			env := decode[ErrorEnvelope](t, rec)
			assert.Equal(t, tt.wantCode, env.Error.Code)
			assert.NotEmpty(t, env.Error.Message)
		})
	}
}

func TestSessionLifecycle(t *testing.T) {
	gen := sampleGenerator()
	s, _ := testServer(t, gen)

	rec := do(t, s, http.MethodPost, "/api/v1/sessions", nil, "")
	require.Equal(t, http.StatusCreated, rec.Code)
	created := decode[session.Session](t, rec)
	require.NotEmpty(t, created.ID)
	base := "/api/v1/sessions/" + created.ID

	rec = do(t, s, http.MethodGet, base+"/outline", nil, "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, CodeNoOutline, decode[ErrorEnvelope](t, rec).Error.Code)

	body, ct := multipartFile(t, "syllabus.md", "# Syllabus\n\nWeek 1: ER diagrams.")
	rec = do(t, s, http.MethodPut, base+"/pdf", body, ct)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, "syllabus.md", decode[session.Session](t, rec).PDFName)

	rec = do(t, s, http.MethodPost, base+"/outline", strings.NewReader(requestBody), "application/json")
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	generated := decode[outlineResponse](t, rec)
	assert.Equal(t, created.ID, generated.SessionID)

	require.Len(t, gen.reqs, 1)
	assert.True(t, strings.HasSuffix(gen.reqs[0].PDFPath, "syllabus.md"))
	assert.Equal(t, created.ID, gen.opts[0].SessionID)
	refs := generated.Outline.References
	require.NotEmpty(t, refs)
	assert.Equal(t, types.SourcePDF, refs[len(refs)-1].SourceType)

	rec = do(t, s, http.MethodGet, base+"/outline", nil, "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, generated.Outline.CourseTitle, decode[outlineResponse](t, rec).Outline.CourseTitle)

	rec = do(t, s, http.MethodGet, base+"/outline.md", nil, "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Header().Get("Content-Type"), "text/markdown")
	assert.True(t, strings.HasPrefix(rec.Body.String(), "# Introduction to Databases"))

	rec = do(t, s, http.MethodGet, base, nil, "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.NotContains(t, rec.Body.String(), "/etc/passwd")
	assert.NotContains(t, rec.Body.String(), "pdf_path")

	// Empty body regenerates from the stored request.
	rec = do(t, s, http.MethodPost, base+"/outline", nil, "")
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	require.Len(t, gen.reqs, 2)
	assert.Equal(t, gen.reqs[0], gen.reqs[1])

	pdfPath := gen.reqs[0].PDFPath
	rec = do(t, s, http.MethodDelete, base, nil, "")
	assert.Equal(t, http.StatusNoContent, rec.Code)
	_, err := os.Stat(pdfPath)
	assert.True(t, os.IsNotExist(err), "upload removed with the session")

	rec = do(t, s, http.MethodGet, base+"/outline", nil, "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, CodeSessionNotFound, decode[ErrorEnvelope](t, rec).Error.Code)
}

func TestUploadErrors(t *testing.T) {
	s, sessions := testServer(t, sampleGenerator())
	id := sessions.Create().ID

	body, ct := multipartFile(t, "big.pdf", strings.Repeat("x", 2048))
	rec := do(t, s, http.MethodPut, "/api/v1/sessions/"+id+"/pdf", body, ct)
	assert.Equal(t, http.StatusRequestEntityTooLarge, rec.Code)
	assert.Equal(t, CodeFileTooLarge, decode[ErrorEnvelope](t, rec).Error.Code)

	rec = do(t, s, http.MethodPut, "/api/v1/sessions/"+id+"/pdf", strings.NewReader("plain"), "text/plain")
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	body, ct = multipartFile(t, "a.pdf", "x")
	rec = do(t, s, http.MethodPut, "/api/v1/sessions/missing/pdf", body, ct)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = do(t, s, http.MethodDelete, "/api/v1/sessions/missing", nil, "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestClassify(t *testing.T) {
	tests := []struct {
		err        error
		wantStatus int
		wantCode   string
	}{
		{&types.ValidationError{Field: "f", Reason: "r"}, http.StatusBadRequest, CodeInvalidRequest},
		{&agent.StageError{Stage: agent.StageValidateContext, Err: agent.ErrMissingRequest}, http.StatusBadRequest, CodeInvalidRequest},
		{&agent.StageError{Stage: agent.StageStructureOutline, Err: errors.New("x")}, http.StatusBadGateway, CodeOutlineInvalid},
		{session.ErrNotFound, http.StatusNotFound, CodeSessionNotFound},
		{context.Canceled, StatusClientClosedRequest, CodeCancelled},
		{&agent.StageError{Stage: agent.StageInvokeLLM, Err: fmt.Errorf("gemini: %w", context.Canceled)}, StatusClientClosedRequest, CodeCancelled},
		{&agent.StageError{Stage: agent.StageInvokeLLM, Err: errors.New("HTTP 503")}, http.StatusBadGateway, CodeLLMUnavailable},
		{&agent.StageError{Stage: agent.StageParseResponse, Err: errors.New("x")}, http.StatusBadGateway, CodeLLMParseFailed},
	}
	for _, tt := range tests {
		status, code := classify(tt.err)
		assert.Equal(t, tt.wantStatus, status, tt.err.Error())
		assert.Equal(t, tt.wantCode, code, tt.err.Error())
	}
}

func TestRunShutsDown(t *testing.T) {
	s, _ := testServer(t, sampleGenerator())
	s.cfg.Addr = "127.0.0.1:0"

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- s.Run(ctx) }()

	time.Sleep(50 * time.Millisecond)
	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("server did not shut down")
	}
}
