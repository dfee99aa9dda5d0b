// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package server

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/pdiddy/course-engine/internal/agent"
	"github.com/pdiddy/course-engine/internal/outline"
	"github.com/pdiddy/course-engine/internal/session"
	"github.com/pdiddy/course-engine/pkg/types"
)

// outlineResponse is the body returned for a generated or stored outline.
type outlineResponse struct {
	SessionID string               `json:"session_id,omitempty"`
	Outline   *types.CourseOutline `json:"outline"`
	Defaults  []string             `json:"defaults,omitempty"`
}

func newOutlineResponse(sessionID string, res *outline.Result) outlineResponse {
	return outlineResponse{SessionID: sessionID, Outline: res.Outline, Defaults: res.Defaults}
}

// GET /healthz
func (s *Server) health(c *gin.Context) {
	body := gin.H{"status": "ok"}
	if s.sessions != nil {
		body["sessions"] = s.sessions.Len()
	}
	RespondOK(c, body)
}

// bindRequest decodes a CourseRequest body. Server-side file paths are never
// taken from clients.
func bindRequest(c *gin.Context) (*types.CourseRequest, bool) {
	var req types.CourseRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		RespondError(c, http.StatusBadRequest, CodeInvalidRequest, fmt.Errorf("decoding request body: %w", err))
		return nil, false
	}
	req.PDFPath = ""
	return &req, true
}

func generateOptions(c *gin.Context, sessionID string) agent.GenerateOptions {
	return agent.GenerateOptions{
		SessionID: sessionID,
		NoWeb:     c.Query("web") == "false",
		NoLibrary: c.Query("library") == "false",
	}
}

// POST /api/v1/outlines
// One-shot generation; nothing is stored.
func (s *Server) generateOutline(c *gin.Context) {
	req, ok := bindRequest(c)
	if !ok {
		return
	}
	res, err := s.gen.Generate(c.Request.Context(), req, generateOptions(c, ""))
	if err != nil {
		respondErr(c, err)
		return
	}
	RespondOK(c, newOutlineResponse("", res))
}

// POST /api/v1/sessions
func (s *Server) createSession(c *gin.Context) {
	c.JSON(http.StatusCreated, s.sessions.Create())
}

// GET /api/v1/sessions/:id
func (s *Server) getSession(c *gin.Context) {
	sess, err := s.sessions.Get(c.Param("id"))
	if err != nil {
		respondErr(c, err)
		return
	}
	RespondOK(c, gin.H{
		"session":     sess,
		"has_outline": sess.HasOutline(),
	})
}

// DELETE /api/v1/sessions/:id
// Removes the session and any uploaded files.
func (s *Server) deleteSession(c *gin.Context) {
	if !s.sessions.Cleanup(c.Param("id")) {
		respondErr(c, session.ErrNotFound)
		return
	}
	c.Status(http.StatusNoContent)
}

// PUT /api/v1/sessions/:id/pdf
// Multipart upload with the document in the "file" field. A new upload
// replaces the previous one.
func (s *Server) uploadPDF(c *gin.Context) {
	id := c.Param("id")
	if _, err := s.sessions.Get(id); err != nil {
		respondErr(c, err)
		return
	}

	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, s.cfg.MaxUploadBytes+1<<20)
	fh, err := c.FormFile("file")
	if err != nil {
		var mbe *http.MaxBytesError
		if errors.As(err, &mbe) {
			respondErr(c, session.ErrTooLarge)
			return
		}
		RespondError(c, http.StatusBadRequest, CodeInvalidRequest, fmt.Errorf("reading upload: %w", err))
		return
	}
	if fh.Size > s.cfg.MaxUploadBytes {
		respondErr(c, session.ErrTooLarge)
		return
	}
	f, err := fh.Open()
	if err != nil {
		RespondError(c, http.StatusBadRequest, CodeInvalidRequest, fmt.Errorf("opening upload: %w", err))
		return
	}
	defer f.Close()

	sess, err := s.sessions.AttachPDF(id, fh.Filename, f, s.cfg.MaxUploadBytes)
	if err != nil {
		respondErr(c, err)
		return
	}
	RespondOK(c, sess)
}

// POST /api/v1/sessions/:id/outline
// Generates an outline for the session. The body is a CourseRequest; an
// empty body regenerates from the session's last request. An uploaded
// document is used as the PDF channel.
func (s *Server) generateSessionOutline(c *gin.Context) {
	id := c.Param("id")
	sess, err := s.sessions.Get(id)
	if err != nil {
		respondErr(c, err)
		return
	}

	var req *types.CourseRequest
	if c.Request.ContentLength == 0 && sess.Request != nil {
		cp := *sess.Request
		req = &cp
	} else {
		var ok bool
		if req, ok = bindRequest(c); !ok {
			return
		}
	}
	req.PDFPath = sess.PDFPath

	res, err := s.gen.Generate(c.Request.Context(), req, generateOptions(c, id))
	if err != nil {
		respondErr(c, err)
		return
	}

	if _, err := s.sessions.Update(id, func(sess *session.Session) error {
		stored := *req
		stored.PDFPath = ""
		sess.Request = &stored
		sess.Result = res
		return nil
	}); err != nil {
		respondErr(c, err)
		return
	}
	RespondOK(c, newOutlineResponse(id, res))
}

func (s *Server) storedOutline(c *gin.Context) (*outline.Result, bool) {
	sess, err := s.sessions.Get(c.Param("id"))
	if err != nil {
		respondErr(c, err)
		return nil, false
	}
	if !sess.HasOutline() {
		RespondError(c, http.StatusNotFound, CodeNoOutline, errors.New("session has no outline yet"))
		return nil, false
	}
	return sess.Result, true
}

// GET /api/v1/sessions/:id/outline
func (s *Server) getSessionOutline(c *gin.Context) {
	res, ok := s.storedOutline(c)
	if !ok {
		return
	}
	RespondOK(c, newOutlineResponse(c.Param("id"), res))
}

// GET /api/v1/sessions/:id/outline.md
func (s *Server) getSessionOutlineMarkdown(c *gin.Context) {
	res, ok := s.storedOutline(c)
	if !ok {
		return
	}
	c.Data(http.StatusOK, "text/markdown; charset=utf-8", []byte(outline.RenderMarkdown(res.Outline)))
}
