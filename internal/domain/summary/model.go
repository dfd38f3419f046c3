package summary

import (
	"context"
	"time"

	"github.com/yanqian/meeting-summarizer/pkg/metrics"
)

// Config configures the summarization pipeline.
type Config struct {
	Model              string
	Temperature        float32
	DefaultInstruction string
	UpstreamTimeout    time.Duration
}

// Request represents the incoming summarization payload. ClientKey is
// resolved by the transport, never by the caller.
type Request struct {
	Transcript  string `json:"transcript"`
	Instruction string `json:"instruction,omitempty"`
	ClientKey   string `json:"-"`
}

// Response is returned by the summarize endpoint.
type Response struct {
	Summary    string              `json:"summary"`
	Cached     bool                `json:"cached,omitempty"`
	Remaining  int                 `json:"remainingRequests"`
	TokenUsage *metrics.TokenUsage `json:"tokenUsage,omitempty"`
}

// Store memoizes summaries per normalized (transcript, instruction) pair.
// A miss must always be safe; a hit must return the text previously stored
// for the identical key.
type Store interface {
	Get(ctx context.Context, key string) (string, bool, error)
	Set(ctx context.Context, key, summaryText string) error
}

// TokenEstimator reports the approximate token count of a prompt.
type TokenEstimator interface {
	Estimate(text string) int
}
