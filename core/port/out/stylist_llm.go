package out

import "context"

// TextCompleter is an optional external text-completion service. Callers
// must treat every error as a signal to use their deterministic fallback.
type TextCompleter interface {
	Complete(ctx context.Context, prompt string, opts ...CompletionOption) (string, error)
	CompleteWithSystem(ctx context.Context, systemPrompt, userPrompt string, opts ...CompletionOption) (string, error)
	// CompleteJSON requests a JSON object and decodes it into result.
	CompleteJSON(ctx context.Context, systemPrompt, userPrompt string, result interface{}, opts ...CompletionOption) error
}

// CompletionSettings overrides client defaults for a single call. Zero values keep the default.
type CompletionSettings struct {
	Temperature *float32
	MaxTokens   int
}

type CompletionOption func(*CompletionSettings)

func WithTemperature(t float32) CompletionOption {
	return func(s *CompletionSettings) { s.Temperature = &t }
}

func WithMaxTokens(n int) CompletionOption {
	return func(s *CompletionSettings) { s.MaxTokens = n }
}

// ApplyCompletionOptions folds opts into a settings value.
func ApplyCompletionOptions(opts []CompletionOption) CompletionSettings {
	var s CompletionSettings
	for _, opt := range opts {
		if opt != nil {
			opt(&s)
		}
	}
	return s
}
