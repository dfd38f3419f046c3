package dispatch

import (
	"context"

	"github.com/yanqian/meeting-summarizer/internal/infra/mailer"
)

// MaxRecipients bounds one dispatch request.
const MaxRecipients = 10

// Config configures the dispatch pipeline.
type Config struct {
	SubjectPrefix string
}

// Request represents the incoming send-email payload. ClientKey is resolved
// by the transport, never by the caller.
type Request struct {
	Recipients  []string `json:"recipients"`
	Summary     string   `json:"summary"`
	Instruction string   `json:"instruction,omitempty"`
	Timestamp   string   `json:"timestamp,omitempty"`
	ClientKey   string   `json:"-"`
}

// Failure records one recipient that did not receive the summary, whether it
// was excluded at validation or its send attempt errored.
type Failure struct {
	Email string `json:"email"`
	Error string `json:"error"`
}

// Response aggregates per-recipient outcomes.
type Response struct {
	Message    string    `json:"message"`
	Successful []string  `json:"successful"`
	Failed     []Failure `json:"failed"`
	Remaining  int       `json:"remainingRequests"`
}

// Mailer is the SMTP surface the pipeline depends on.
type Mailer interface {
	Send(ctx context.Context, msg mailer.Message) error
	Configured() bool
}
