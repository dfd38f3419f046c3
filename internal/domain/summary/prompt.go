package summary

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"

	"github.com/yanqian/meeting-summarizer/internal/infra/llm/chatgpt"
)

const systemPrompt = `You are an expert meeting assistant. You produce accurate, well-structured summaries of meeting transcripts in markdown.

Every summary must contain these sections:
- Key topics discussed
- Decisions made
- Action items (with owners where stated)
- Important dates and deadlines
- Notable insights

Omit a section's bullet points only when the transcript truly contains nothing for it, and say so explicitly.`

func buildMessages(transcript, instruction string) []chatgpt.Message {
	user := fmt.Sprintf("Instruction: %s\n\nTranscript:\n%s", instruction, transcript)
	return []chatgpt.Message{
		{Role: "system", Content: systemPrompt},
		{Role: "user", Content: user},
	}
}

// cacheKey derives the memoization key from the sanitized pair. Fields are
// length-prefixed before hashing so the encoding is injective and distinct
// pairs cannot collide on a delimiter.
func cacheKey(transcript, instruction string) string {
	sum := sha256.Sum256([]byte(fmt.Sprintf("%d:%s|%d:%s", len(transcript), transcript, len(instruction), instruction)))
	return hex.EncodeToString(sum[:])
}
