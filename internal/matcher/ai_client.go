package matcher

import "context"

// AIClient is the interface to the assistant used for AI-assisted loan
// association. Implementations make an out-of-process call and must honor
// ctx cancellation; callers always invoke them under a timeout and treat
// failures as recoverable.
type AIClient interface {
	// Complete sends a system prompt and a user prompt and returns the raw
	// assistant content.
	Complete(ctx context.Context, systemPrompt, userPrompt string) (string, error)
}
