// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package server

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/pdiddy/course-engine/internal/agent"
	"github.com/pdiddy/course-engine/internal/session"
	"github.com/pdiddy/course-engine/pkg/types"
)

// Error codes returned in the envelope.
const (
	CodeInvalidRequest  = "invalid_request"
	CodeSessionNotFound = "session_not_found"
	CodeNoOutline       = "outline_not_found"
	CodeFileTooLarge    = "file_too_large"
	CodeLLMUnavailable  = "llm_unavailable"
	CodeLLMParseFailed  = "llm_parse_failed"
	CodeOutlineInvalid  = "outline_invalid"
	CodeCancelled       = "request_cancelled"
	CodeInternal        = "internal_error"
)

// StatusClientClosedRequest reports a request the client abandoned.
const StatusClientClosedRequest = 499

// APIError is the body of an error response.
type APIError struct {
	Message string `json:"message"`
	Code    string `json:"code"`
}

// ErrorEnvelope wraps every error response.
type ErrorEnvelope struct {
	Error APIError `json:"error"`
}

// RespondError writes an error envelope.
func RespondError(c *gin.Context, status int, code string, err error) {
	msg := "unknown error"
	if err != nil {
		msg = err.Error()
	}
	c.AbortWithStatusJSON(status, ErrorEnvelope{
		Error: APIError{Message: msg, Code: code},
	})
}

// RespondOK writes payload as JSON with status 200.
func RespondOK(c *gin.Context, payload any) {
	c.JSON(http.StatusOK, payload)
}

// classify maps a pipeline or session error onto an HTTP status and code.
func classify(err error) (int, string) {
	var ve *types.ValidationError
	switch {
	case errors.As(err, &ve):
		return http.StatusBadRequest, CodeInvalidRequest
	case errors.Is(err, session.ErrNotFound):
		return http.StatusNotFound, CodeSessionNotFound
	case errors.Is(err, session.ErrTooLarge):
		return http.StatusRequestEntityTooLarge, CodeFileTooLarge
	case errors.Is(err, context.Canceled):
		return StatusClientClosedRequest, CodeCancelled
	}

	switch agent.FailedStage(err) {
	case agent.StageValidateContext:
		return http.StatusBadRequest, CodeInvalidRequest
	case agent.StageInvokeLLM:
		return http.StatusBadGateway, CodeLLMUnavailable
	case agent.StageParseResponse:
		return http.StatusBadGateway, CodeLLMParseFailed
	case agent.StageStructureOutline, agent.StageValidateSchema:
		return http.StatusBadGateway, CodeOutlineInvalid
	}
	return http.StatusInternalServerError, CodeInternal
}

func respondErr(c *gin.Context, err error) {
	status, code := classify(err)
	RespondError(c, status, code, err)
}
