package summary_test

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/yanqian/meeting-summarizer/internal/domain/summary"
	"github.com/yanqian/meeting-summarizer/internal/infra/llm/chatgpt"
	"github.com/yanqian/meeting-summarizer/internal/infra/summarycache"
	"github.com/yanqian/meeting-summarizer/internal/ratelimit"
	apperrors "github.com/yanqian/meeting-summarizer/pkg/errors"
)

const testTranscript = "Alice: Let's ship v2 Friday. Bob: I'll write the migration guide."

func testConfig() summary.Config {
	return summary.Config{
		Model:              "test-model",
		Temperature:        0.3,
		DefaultInstruction: "Provide a clear, well-organized summary of this meeting transcript.",
		UpstreamTimeout:    30 * time.Second,
	}
}

func testLimiters() *ratelimit.Set {
	policy := func(name string, budget int) *ratelimit.Limiter {
		return ratelimit.NewLimiter(ratelimit.Policy{Name: name, Budget: budget, Window: time.Minute, Block: 2 * time.Minute})
	}
	return &ratelimit.Set{
		Summarize: policy("summarize", 10),
		Email:     policy("email", 5),
		General:   policy("general", 100),
	}
}

func newTestLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

type stubChatClient struct {
	resp     chatgpt.ChatCompletionResponse
	err      error
	calls    int
	requests []chatgpt.ChatCompletionRequest
}

func (s *stubChatClient) CreateChatCompletion(_ context.Context, req chatgpt.ChatCompletionRequest) (chatgpt.ChatCompletionResponse, error) {
	s.calls++
	s.requests = append(s.requests, req)
	if s.err != nil {
		return chatgpt.ChatCompletionResponse{}, s.err
	}
	return s.resp, nil
}

type stubEstimator struct {
	tokens int
}

func (s *stubEstimator) Estimate(string) int { return s.tokens }

func completionWith(content string) chatgpt.ChatCompletionResponse {
	return chatgpt.ChatCompletionResponse{Choices: []chatgpt.Choice{{Message: chatgpt.Message{Content: content}}}}
}

func newService(client summary.ChatClient, store summary.Store) summary.Service {
	return summary.NewService(testConfig(), client, store, testLimiters(), &stubEstimator{tokens: 42}, newTestLogger())
}

func newMemoryStore() *summarycache.MemoryStore {
	return summarycache.NewMemoryStore(5*time.Minute, 100)
}

func TestSummarizeSuccess(t *testing.T) {
	client := &stubChatClient{resp: completionWith("- Ship v2 on Friday\n- Bob writes the migration guide")}
	svc := newService(client, newMemoryStore())

	resp, err := svc.Summarize(context.Background(), summary.Request{Transcript: testTranscript, ClientKey: "1.2.3.4"})
	require.NoError(t, err)
	require.Equal(t, "- Ship v2 on Friday\n- Bob writes the migration guide", resp.Summary)
	require.False(t, resp.Cached)
	require.Equal(t, 9, resp.Remaining)
	require.NotNil(t, resp.TokenUsage)
	require.Equal(t, 42, resp.TokenUsage.PromptTokens)
}

func TestSummarizePromptStructure(t *testing.T) {
	client := &stubChatClient{resp: completionWith("summary")}
	svc := newService(client, newMemoryStore())

	_, err := svc.Summarize(context.Background(), summary.Request{Transcript: testTranscript, ClientKey: "1.2.3.4"})
	require.NoError(t, err)
	require.Len(t, client.requests, 1)

	var prompt strings.Builder
	for _, m := range client.requests[0].Messages {
		prompt.WriteString(m.Content)
		prompt.WriteByte('\n')
	}
	full := prompt.String()
	require.Contains(t, full, testTranscript)
	require.Contains(t, full, testConfig().DefaultInstruction)
	for _, section := range []string{
		"Key topics discussed",
		"Decisions made",
		"Action items",
		"Important dates and deadlines",
		"Notable insights",
	} {
		require.Contains(t, full, section)
	}
}

func TestSummarizeUsesCustomInstruction(t *testing.T) {
	client := &stubChatClient{resp: completionWith("summary")}
	svc := newService(client, newMemoryStore())

	_, err := svc.Summarize(context.Background(), summary.Request{
		Transcript:  testTranscript,
		Instruction: "Focus on action items only.",
		ClientKey:   "1.2.3.4",
	})
	require.NoError(t, err)
	require.Contains(t, client.requests[0].Messages[1].Content, "Focus on action items only.")
	require.NotContains(t, client.requests[0].Messages[1].Content, testConfig().DefaultInstruction)
}

func TestSummarizeRejectsShortTranscriptWithoutUpstreamCall(t *testing.T) {
	client := &stubChatClient{}
	svc := newService(client, newMemoryStore())

	_, err := svc.Summarize(context.Background(), summary.Request{Transcript: "too short", ClientKey: "1.2.3.4"})
	require.True(t, apperrors.IsCode(err, apperrors.CodeValidation))
	require.Zero(t, client.calls)
}

func TestSummarizeRejectsOversizedTranscriptWithoutUpstreamCall(t *testing.T) {
	client := &stubChatClient{}
	svc := newService(client, newMemoryStore())

	_, err := svc.Summarize(context.Background(), summary.Request{Transcript: strings.Repeat("a", 50001), ClientKey: "1.2.3.4"})
	require.True(t, apperrors.IsCode(err, apperrors.CodeValidation))
	require.Zero(t, client.calls)
}

func TestSummarizeRejectsLongInstruction(t *testing.T) {
	client := &stubChatClient{}
	svc := newService(client, newMemoryStore())

	_, err := svc.Summarize(context.Background(), summary.Request{
		Transcript:  testTranscript,
		Instruction: strings.Repeat("a", 501),
		ClientKey:   "1.2.3.4",
	})
	require.True(t, apperrors.IsCode(err, apperrors.CodeValidation))
	require.Zero(t, client.calls)
}

func TestSummarizeCacheHitSkipsUpstream(t *testing.T) {
	client := &stubChatClient{resp: completionWith("memoized summary")}
	svc := newService(client, newMemoryStore())
	req := summary.Request{Transcript: testTranscript, ClientKey: "1.2.3.4"}

	first, err := svc.Summarize(context.Background(), req)
	require.NoError(t, err)
	require.False(t, first.Cached)

	second, err := svc.Summarize(context.Background(), req)
	require.NoError(t, err)
	require.True(t, second.Cached)
	require.Equal(t, first.Summary, second.Summary)
	require.Equal(t, 1, client.calls)
}

func TestSummarizeCacheExpiryTriggersFreshCall(t *testing.T) {
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	store := newMemoryStore().WithClock(func() time.Time { return now })
	client := &stubChatClient{resp: completionWith("summary")}
	svc := newService(client, store)
	req := summary.Request{Transcript: testTranscript, ClientKey: "1.2.3.4"}

	_, err := svc.Summarize(context.Background(), req)
	require.NoError(t, err)

	now = now.Add(5*time.Minute + time.Second)
	_, err = svc.Summarize(context.Background(), req)
	require.NoError(t, err)
	require.Equal(t, 2, client.calls)
}

func TestSummarizeDistinctInstructionsMissCache(t *testing.T) {
	client := &stubChatClient{resp: completionWith("summary")}
	svc := newService(client, newMemoryStore())

	_, err := svc.Summarize(context.Background(), summary.Request{Transcript: testTranscript, Instruction: "Short bullets", ClientKey: "1.2.3.4"})
	require.NoError(t, err)
	_, err = svc.Summarize(context.Background(), summary.Request{Transcript: testTranscript, Instruction: "Long prose", ClientKey: "1.2.3.4"})
	require.NoError(t, err)
	require.Equal(t, 2, client.calls)
}

func TestSummarizeRateLimited(t *testing.T) {
	client := &stubChatClient{resp: completionWith("summary")}
	limiters := testLimiters()
	limiters.Summarize = ratelimit.NewLimiter(ratelimit.Policy{Name: "summarize", Budget: 1, Window: time.Minute, Block: 2 * time.Minute})
	svc := summary.NewService(testConfig(), client, newMemoryStore(), limiters, &stubEstimator{}, newTestLogger())
	req := summary.Request{Transcript: testTranscript, ClientKey: "1.2.3.4"}

	_, err := svc.Summarize(context.Background(), req)
	require.NoError(t, err)

	_, err = svc.Summarize(context.Background(), req)
	require.True(t, apperrors.IsCode(err, apperrors.CodeRateLimited))
	require.Equal(t, 1, client.calls)
}

func TestSummarizeUpstreamTimeout(t *testing.T) {
	client := &stubChatClient{err: fmt.Errorf("request chat completion: %w", context.DeadlineExceeded)}
	svc := newService(client, newMemoryStore())

	_, err := svc.Summarize(context.Background(), summary.Request{Transcript: testTranscript, ClientKey: "1.2.3.4"})
	require.True(t, apperrors.IsCode(err, apperrors.CodeUpstreamTimeout))
}

func TestSummarizeUpstreamAuthFailure(t *testing.T) {
	client := &stubChatClient{err: &chatgpt.APIError{StatusCode: 401}}
	svc := newService(client, newMemoryStore())

	_, err := svc.Summarize(context.Background(), summary.Request{Transcript: testTranscript, ClientKey: "1.2.3.4"})
	require.True(t, apperrors.IsCode(err, apperrors.CodeUpstreamAuth))
}

func TestSummarizeUpstreamServerError(t *testing.T) {
	client := &stubChatClient{err: &chatgpt.APIError{StatusCode: 503}}
	svc := newService(client, newMemoryStore())

	_, err := svc.Summarize(context.Background(), summary.Request{Transcript: testTranscript, ClientKey: "1.2.3.4"})
	require.True(t, apperrors.IsCode(err, apperrors.CodeUpstreamError))
	// Single attempt only.
	require.Equal(t, 1, client.calls)
}

func TestSummarizeMissingAPIKey(t *testing.T) {
	client := &stubChatClient{err: chatgpt.ErrMissingAPIKey}
	svc := newService(client, newMemoryStore())

	_, err := svc.Summarize(context.Background(), summary.Request{Transcript: testTranscript, ClientKey: "1.2.3.4"})
	require.True(t, apperrors.IsCode(err, apperrors.CodeConfig))
}

func TestSummarizeEmptyChoices(t *testing.T) {
	client := &stubChatClient{resp: chatgpt.ChatCompletionResponse{}}
	svc := newService(client, newMemoryStore())

	_, err := svc.Summarize(context.Background(), summary.Request{Transcript: testTranscript, ClientKey: "1.2.3.4"})
	require.True(t, apperrors.IsCode(err, apperrors.CodeUpstreamError))
}

func TestSummarizePrefersProviderUsage(t *testing.T) {
	resp := completionWith("summary")
	resp.Usage = chatgpt.Usage{PromptTokens: 100, CompletionTokens: 20, TotalTokens: 120}
	client := &stubChatClient{resp: resp}
	svc := newService(client, newMemoryStore())

	got, err := svc.Summarize(context.Background(), summary.Request{Transcript: testTranscript, ClientKey: "1.2.3.4"})
	require.NoError(t, err)
	require.NotNil(t, got.TokenUsage)
	require.Equal(t, 100, got.TokenUsage.PromptTokens)
	require.Equal(t, 120, got.TokenUsage.TotalTokens)
}
