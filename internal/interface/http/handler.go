package http

import (
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/yanqian/meeting-summarizer/internal/domain/dispatch"
	"github.com/yanqian/meeting-summarizer/internal/domain/summary"
	"github.com/yanqian/meeting-summarizer/internal/ratelimit"
	"github.com/yanqian/meeting-summarizer/internal/validation"
	apperrors "github.com/yanqian/meeting-summarizer/pkg/errors"
)

// Handler wires the HTTP transport to the domain pipelines.
type Handler struct {
	summarySvc  summary.Service
	dispatchSvc dispatch.Service
	logger      *slog.Logger
}

// NewHandler constructs the root HTTP handler.
func NewHandler(summarySvc summary.Service, dispatchSvc dispatch.Service, logger *slog.Logger) *Handler {
	return &Handler{
		summarySvc:  summarySvc,
		dispatchSvc: dispatchSvc,
		logger:      logger.With("component", "http.handler"),
	}
}

// Summarize handles POST /api/summarize.
func (h *Handler) Summarize(c *gin.Context) {
	var req summary.Request
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithError(c, NewHTTPError(http.StatusBadRequest, "invalid_request", errMessage(err), err))
		return
	}
	if err := validateSummarizeRequest(req); err != nil {
		abortWithError(c, asHTTPError(err))
		return
	}
	req.ClientKey = clientKey(c)

	resp, err := h.summarySvc.Summarize(c.Request.Context(), req)
	if err != nil {
		h.abortPipelineError(c, err)
		return
	}

	c.JSON(http.StatusOK, resp)
}

// SendEmail handles POST /api/send-email.
func (h *Handler) SendEmail(c *gin.Context) {
	var req dispatch.Request
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithError(c, NewHTTPError(http.StatusBadRequest, "invalid_request", errMessage(err), err))
		return
	}
	if err := validateDispatchRequest(req); err != nil {
		abortWithError(c, asHTTPError(err))
		return
	}
	req.ClientKey = clientKey(c)

	resp, err := h.dispatchSvc.Dispatch(c.Request.Context(), req)
	if err != nil {
		if apperrors.IsCode(err, apperrors.CodeAllRecipientsFailed) {
			// The 500 still carries the per-recipient listing.
			h.logger.Error("all email sends failed", "failed", len(resp.Failed))
			c.JSON(http.StatusInternalServerError, gin.H{
				"error": gin.H{
					"code":    apperrors.CodeAllRecipientsFailed,
					"message": "all email sends failed",
				},
				"failed": resp.Failed,
			})
			return
		}
		h.abortPipelineError(c, err)
		return
	}

	c.JSON(http.StatusOK, resp)
}

// Health is a liveness probe.
func (h *Handler) Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// abortPipelineError hands a pipeline failure to the error middleware,
// attaching rate-limit headers when the failure carries them.
func (h *Handler) abortPipelineError(c *gin.Context, err error) {
	var rlErr *ratelimit.Error
	if errors.As(err, &rlErr) {
		writeRateLimitHeaders(c, rlErr.Budget, 0, rlErr.RetryAfter)
	}
	abortWithError(c, asHTTPError(err))
}

// The request boundary applies the same checks as the pipeline entry, so a
// malformed payload is rejected before it is charged against the pipeline
// rate limit. The pipelines keep their own copies for callers that bypass
// the router.
func validateSummarizeRequest(req summary.Request) error {
	if !validation.IsValidTranscriptLength(req.Transcript) {
		return apperrors.Wrap(apperrors.CodeValidation, "transcript must be between 11 and 50000 characters", nil)
	}
	if !validation.IsValidInstructionLength(req.Instruction) {
		return apperrors.Wrap(apperrors.CodeValidation, "instruction must be at most 500 characters", nil)
	}
	return nil
}

func validateDispatchRequest(req dispatch.Request) error {
	if len(req.Recipients) == 0 {
		return apperrors.Wrap(apperrors.CodeValidation, "recipients list cannot be empty", nil)
	}
	if len(req.Recipients) > dispatch.MaxRecipients {
		return apperrors.Wrap(apperrors.CodeValidation, "too many recipients", nil)
	}
	if strings.TrimSpace(req.Summary) == "" {
		return apperrors.Wrap(apperrors.CodeValidation, "summary cannot be empty", nil)
	}
	for _, raw := range req.Recipients {
		if validation.IsValidEmail(strings.TrimSpace(raw)) {
			return nil
		}
	}
	return apperrors.Wrap(apperrors.CodeValidation, "no valid recipients", nil)
}

func errMessage(err error) string {
	if err == nil {
		return ""
	}
	return err.Error()
}
