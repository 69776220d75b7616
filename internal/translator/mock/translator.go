package mock

import (
	"context"
	"sync"
)

// TranslateCall records one backend invocation for test assertions.
type TranslateCall struct {
	Text           string
	TargetLanguage string
	SourceLanguage string
}

// Translator is an in-memory mock of the translation backend. The fan-out
// runs calls concurrently, so recorded state is mutex-protected.
type Translator struct {
	mu    sync.Mutex
	Calls []TranslateCall

	TranslateFn func(ctx context.Context, text, targetLanguage, sourceLanguage string) (string, error)
}

func (m *Translator) Translate(ctx context.Context, text, targetLanguage, sourceLanguage string) (string, error) {
	m.mu.Lock()
	m.Calls = append(m.Calls, TranslateCall{Text: text, TargetLanguage: targetLanguage, SourceLanguage: sourceLanguage})
	m.mu.Unlock()

	if m.TranslateFn != nil {
		return m.TranslateFn(ctx, text, targetLanguage, sourceLanguage)
	}
	return "[" + targetLanguage + "] " + text, nil
}

// CallCount returns the number of recorded backend invocations.
func (m *Translator) CallCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.Calls)
}
