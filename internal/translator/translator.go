package translator

import (
	"context"
	"errors"
)

// Translator is the client-side contract of the text-generation backend:
// one call per (text, target language) pair, synchronous from the caller's
// perspective. Implementations must be safe for concurrent use.
type Translator interface {
	// Translate sends a single translation exchange and returns the
	// translated text. Rate-limit signals surface as ErrThrottled so the
	// caller's retry policy can distinguish them from permanent failures.
	Translate(ctx context.Context, text, targetLanguage, sourceLanguage string) (string, error)
}

var (
	// ErrThrottled marks a transient rate-limit or timeout signal from the
	// backend. Callers should retry with backoff before giving up.
	ErrThrottled = errors.New("translation backend throttled")

	// ErrBackend marks a non-retryable backend failure for a single call:
	// a malformed or empty response, or a non-throttle error status.
	ErrBackend = errors.New("translation backend error")
)
