package dispatch

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/yanqian/meeting-summarizer/internal/infra/mailer"
	"github.com/yanqian/meeting-summarizer/internal/ratelimit"
	"github.com/yanqian/meeting-summarizer/internal/validation"
	apperrors "github.com/yanqian/meeting-summarizer/pkg/errors"
	"github.com/yanqian/meeting-summarizer/pkg/util"
)

// Service exposes the email dispatch pipeline.
type Service interface {
	Dispatch(ctx context.Context, req Request) (Response, error)
}

type service struct {
	cfg     Config
	mail    Mailer
	limiter *ratelimit.Limiter
	logger  *slog.Logger
	now     func() time.Time
}

// NewService is a wire provider for the dispatch domain.
func NewService(cfg Config, mail Mailer, limiters *ratelimit.Set, logger *slog.Logger) Service {
	return &service{
		cfg:     cfg,
		mail:    mail,
		limiter: limiters.Email,
		logger:  logger.With("component", "dispatch.service"),
		now:     util.NowUTC,
	}
}

// Dispatch sends the summary to each valid recipient independently. Every
// recipient gets exactly one attempt; one failure never cancels or rolls
// back another send. When every attempted send fails the response still
// carries the per-recipient listing alongside the error.
func (s *service) Dispatch(ctx context.Context, req Request) (Response, error) {
	limit := s.limiter.Consume(req.ClientKey)
	if !limit.Allowed {
		rlErr := &ratelimit.Error{Policy: s.limiter.Policy().Name, Budget: s.limiter.Policy().Budget, RetryAfter: limit.RetryAfter}
		return Response{}, apperrors.Wrap(apperrors.CodeRateLimited, "too many email requests", rlErr)
	}

	if len(req.Recipients) == 0 {
		return Response{}, apperrors.Wrap(apperrors.CodeValidation, "recipients list cannot be empty", nil)
	}
	if len(req.Recipients) > MaxRecipients {
		return Response{}, apperrors.Wrap(apperrors.CodeValidation, fmt.Sprintf("at most %d recipients are allowed", MaxRecipients), nil)
	}
	if strings.TrimSpace(req.Summary) == "" {
		return Response{}, apperrors.Wrap(apperrors.CodeValidation, "summary cannot be empty", nil)
	}

	var (
		recipients []string
		failed     []Failure
	)
	for _, raw := range req.Recipients {
		trimmed := strings.TrimSpace(raw)
		if !validation.IsValidEmail(trimmed) {
			// Excluded before any send attempt.
			failed = append(failed, Failure{Email: trimmed, Error: "invalid email address"})
			continue
		}
		recipients = append(recipients, validation.SanitizeText(trimmed))
	}
	if len(recipients) == 0 {
		return Response{}, apperrors.Wrap(apperrors.CodeValidation, "no valid recipients", nil)
	}

	if !s.mail.Configured() {
		return Response{}, apperrors.Wrap(apperrors.CodeConfig, "email service is not configured", nil)
	}

	summaryText := validation.SanitizeText(req.Summary)
	instruction := validation.SanitizeText(req.Instruction)
	timestamp := util.FormatEmailTimestamp(strings.TrimSpace(req.Timestamp), s.now())

	html, err := renderHTML(summaryText, instruction, timestamp)
	if err != nil {
		return Response{}, apperrors.Wrap(apperrors.CodeUpstreamError, "failed to render summary email", err)
	}
	subject := s.subjectLine(timestamp)

	// One goroutine per recipient, joined with a wait-for-all so a failing
	// send never cancels the others.
	sendErrs := make([]error, len(recipients))
	var wg sync.WaitGroup
	for i, rcpt := range recipients {
		wg.Add(1)
		go func(i int, rcpt string) {
			defer wg.Done()
			sendErrs[i] = s.mail.Send(ctx, mailer.Message{To: rcpt, Subject: subject, HTMLBody: html})
		}(i, rcpt)
	}
	wg.Wait()

	var successful []string
	for i, rcpt := range recipients {
		if sendErrs[i] != nil {
			failed = append(failed, Failure{Email: rcpt, Error: sendErrs[i].Error()})
			continue
		}
		successful = append(successful, rcpt)
	}

	resp := Response{
		Message:    fmt.Sprintf("summary sent to %d of %d recipients", len(successful), len(req.Recipients)),
		Successful: successful,
		Failed:     failed,
		Remaining:  limit.Remaining,
	}
	s.logger.Info("dispatch finished", "successful", len(successful), "failed", len(failed))

	if len(successful) == 0 {
		return resp, apperrors.Wrap(apperrors.CodeAllRecipientsFailed, "all email sends failed", nil)
	}
	return resp, nil
}

func (s *service) subjectLine(timestamp string) string {
	prefix := s.cfg.SubjectPrefix
	if prefix == "" {
		prefix = "Meeting Summary"
	}
	return prefix + " - " + timestamp
}
