package tokenizer

import (
	"sync"

	"github.com/pkoukk/tiktoken-go"
)

const fallbackEncoding = "cl100k_base"

// TiktokenEstimator counts prompt tokens with the model's BPE vocabulary.
// Encoder setup is deferred to first use and failures degrade to a zero
// estimate, since token accounting is informational only.
type TiktokenEstimator struct {
	model string
	once  sync.Once
	enc   *tiktoken.Tiktoken
}

// New constructs an estimator for the configured model.
func New(model string) *TiktokenEstimator {
	return &TiktokenEstimator{model: model}
}

// Estimate returns the token count of text, or 0 when no encoder is
// available.
func (e *TiktokenEstimator) Estimate(text string) int {
	e.once.Do(func() {
		enc, err := tiktoken.EncodingForModel(e.model)
		if err != nil {
			enc, err = tiktoken.GetEncoding(fallbackEncoding)
			if err != nil {
				return
			}
		}
		e.enc = enc
	})
	if e.enc == nil {
		return 0
	}
	return len(e.enc.Encode(text, nil, nil))
}
