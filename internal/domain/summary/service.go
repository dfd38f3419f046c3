package summary

import (
	"context"
	"errors"
	"log/slog"
	"strings"

	"github.com/yanqian/meeting-summarizer/internal/infra/llm/chatgpt"
	"github.com/yanqian/meeting-summarizer/internal/ratelimit"
	"github.com/yanqian/meeting-summarizer/internal/validation"
	apperrors "github.com/yanqian/meeting-summarizer/pkg/errors"
	"github.com/yanqian/meeting-summarizer/pkg/metrics"
)

// Service exposes the summarization pipeline.
type Service interface {
	Summarize(ctx context.Context, req Request) (Response, error)
}

// ChatClient is the completion surface the pipeline depends on.
type ChatClient interface {
	CreateChatCompletion(ctx context.Context, req chatgpt.ChatCompletionRequest) (chatgpt.ChatCompletionResponse, error)
}

type service struct {
	cfg     Config
	client  ChatClient
	store   Store
	limiter *ratelimit.Limiter
	tokens  TokenEstimator
	logger  *slog.Logger
}

// NewService is a wire provider for the summarization domain.
func NewService(cfg Config, client ChatClient, store Store, limiters *ratelimit.Set, tokens TokenEstimator, logger *slog.Logger) Service {
	return &service{
		cfg:     cfg,
		client:  client,
		store:   store,
		limiter: limiters.Summarize,
		tokens:  tokens,
		logger:  logger.With("component", "summary.service"),
	}
}

// Summarize runs the pipeline stages in order: rate limit, validate, cache,
// upstream call, cache store. The upstream call is attempted exactly once.
func (s *service) Summarize(ctx context.Context, req Request) (Response, error) {
	limit := s.limiter.Consume(req.ClientKey)
	if !limit.Allowed {
		rlErr := &ratelimit.Error{Policy: s.limiter.Policy().Name, Budget: s.limiter.Policy().Budget, RetryAfter: limit.RetryAfter}
		return Response{}, apperrors.Wrap(apperrors.CodeRateLimited, "too many summarize requests", rlErr)
	}

	if !validation.IsValidTranscriptLength(req.Transcript) {
		return Response{}, apperrors.Wrap(apperrors.CodeValidation, "transcript must be between 11 and 50000 characters", nil)
	}
	if !validation.IsValidInstructionLength(req.Instruction) {
		return Response{}, apperrors.Wrap(apperrors.CodeValidation, "instruction must be at most 500 characters", nil)
	}
	transcript := validation.SanitizeText(req.Transcript)
	instruction := validation.SanitizeText(req.Instruction)

	key := cacheKey(transcript, instruction)
	if cached, hit, err := s.store.Get(ctx, key); err != nil {
		// A broken cache degrades to a miss.
		s.logger.Warn("cache lookup failed", "error", err)
	} else if hit {
		s.logger.Debug("cache hit", "key", key)
		return Response{Summary: cached, Cached: true, Remaining: limit.Remaining}, nil
	}

	if instruction == "" {
		instruction = s.cfg.DefaultInstruction
	}
	messages := buildMessages(transcript, instruction)

	callCtx, cancel := context.WithTimeout(ctx, s.cfg.UpstreamTimeout)
	defer cancel()

	resp, err := s.client.CreateChatCompletion(callCtx, chatgpt.ChatCompletionRequest{
		Model:       s.cfg.Model,
		Messages:    messages,
		Temperature: s.cfg.Temperature,
	})
	if err != nil {
		return Response{}, s.classifyUpstreamError(err)
	}
	if len(resp.Choices) == 0 {
		return Response{}, apperrors.Wrap(apperrors.CodeUpstreamError, "completion returned no choices", nil)
	}

	summaryText := strings.TrimSpace(resp.Choices[0].Message.Content)
	if summaryText == "" {
		return Response{}, apperrors.Wrap(apperrors.CodeUpstreamError, "completion returned empty content", nil)
	}

	if err := s.store.Set(ctx, key, summaryText); err != nil {
		s.logger.Warn("cache store failed", "error", err)
	}

	return Response{
		Summary:    summaryText,
		Remaining:  limit.Remaining,
		TokenUsage: s.usageFor(resp, messages),
	}, nil
}

func (s *service) classifyUpstreamError(err error) error {
	switch {
	case errors.Is(err, chatgpt.ErrMissingAPIKey):
		return apperrors.Wrap(apperrors.CodeConfig, "summarization service is not configured", err)
	case errors.Is(err, context.DeadlineExceeded):
		return apperrors.Wrap(apperrors.CodeUpstreamTimeout, "summarization timed out", err)
	}
	var apiErr *chatgpt.APIError
	if errors.As(err, &apiErr) {
		s.logger.Error("completion call rejected", "status", apiErr.StatusCode, "body", apiErr.Body)
		if apiErr.StatusCode == 401 || apiErr.StatusCode == 403 {
			return apperrors.Wrap(apperrors.CodeUpstreamAuth, "summarization provider rejected credentials", apiErr)
		}
		return apperrors.Wrap(apperrors.CodeUpstreamError, "summarization provider request failed", apiErr)
	}
	return apperrors.Wrap(apperrors.CodeUpstreamError, "summarization request failed", err)
}

func (s *service) usageFor(resp chatgpt.ChatCompletionResponse, messages []chatgpt.Message) *metrics.TokenUsage {
	usage := metrics.TokenUsage{
		PromptTokens:     resp.Usage.PromptTokens,
		CompletionTokens: resp.Usage.CompletionTokens,
		TotalTokens:      resp.Usage.TotalTokens,
	}
	if usage.IsZero() && s.tokens != nil {
		var prompt strings.Builder
		for _, m := range messages {
			prompt.WriteString(m.Content)
			prompt.WriteByte('\n')
		}
		estimate := s.tokens.Estimate(prompt.String())
		usage = metrics.TokenUsage{PromptTokens: estimate, TotalTokens: estimate}
	}
	if usage.IsZero() {
		return nil
	}
	s.logger.Debug("token usage", "prompt", usage.PromptTokens, "total", usage.TotalTokens)
	return &usage
}
