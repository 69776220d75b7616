package translator

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"

	"go.uber.org/zap"
)

const completionsPath = "/chat/completions"

// Client is a stateless adapter over a chat-completion style text-generation
// endpoint. It normalizes the backend's heterogeneous response shapes into
// plain translated text.
type Client struct {
	baseURL    string
	apiKey     string
	model      string
	maxTokens  int
	httpClient *http.Client
	logger     *zap.Logger
}

var _ Translator = (*Client)(nil)

// NewClient creates a translation backend client. httpClient may carry a
// timeout; if nil, http.DefaultClient is used.
func NewClient(baseURL, apiKey, model string, maxTokens int, httpClient *http.Client, logger *zap.Logger) *Client {
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	if maxTokens <= 0 {
		maxTokens = 1000
	}
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		apiKey:     apiKey,
		model:      model,
		maxTokens:  maxTokens,
		httpClient: httpClient,
		logger:     logger,
	}
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type generationRequest struct {
	Model     string        `json:"model,omitempty"`
	Messages  []chatMessage `json:"messages"`
	MaxTokens int           `json:"max_tokens"`
}

// generationResponse covers the response shapes the backend is known to
// produce: OpenAI-style choices, Anthropic-style content blocks, and the
// flat output_text / outputText variants.
type generationResponse struct {
	Choices []struct {
		Message chatMessage `json:"message"`
	} `json:"choices"`
	Content []struct {
		Text string `json:"text"`
	} `json:"content"`
	OutputText    string `json:"output_text"`
	OutputTextAlt string `json:"outputText"`
	Error         *struct {
		Message string `json:"message"`
	} `json:"error"`
}

// text extracts the translated text from whichever shape is populated.
func (r *generationResponse) text() string {
	if len(r.Choices) > 0 && r.Choices[0].Message.Content != "" {
		return r.Choices[0].Message.Content
	}
	if len(r.Content) > 0 && r.Content[0].Text != "" {
		return r.Content[0].Text
	}
	if r.OutputText != "" {
		return r.OutputText
	}
	return r.OutputTextAlt
}

// Translate implements Translator over one request/response exchange.
func (c *Client) Translate(ctx context.Context, text, targetLanguage, sourceLanguage string) (string, error) {
	prompt := fmt.Sprintf(
		"You are a professional translator.\n"+
			"Translate the following text from %s to %s.\n"+
			"Return only the translated text.\n\nText:\n%s",
		sourceLanguage, targetLanguage, text,
	)

	payload := generationRequest{
		Model:     c.model,
		Messages:  []chatMessage{{Role: "user", Content: prompt}},
		MaxTokens: c.maxTokens,
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return "", fmt.Errorf("marshal generation request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+completionsPath, bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("build generation request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		// Timeouts are handled like throttling: transient, worth a retry.
		if os.IsTimeout(err) || ctx.Err() == context.DeadlineExceeded {
			return "", fmt.Errorf("%w: %v", ErrThrottled, err)
		}
		return "", fmt.Errorf("%w: %v", ErrBackend, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("%w: read response: %v", ErrBackend, err)
	}

	switch {
	case resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode == http.StatusServiceUnavailable:
		return "", fmt.Errorf("%w: status %d", ErrThrottled, resp.StatusCode)
	case resp.StatusCode < 200 || resp.StatusCode >= 300:
		return "", fmt.Errorf("%w: status %d: %s", ErrBackend, resp.StatusCode, truncate(raw, 256))
	}

	var parsed generationResponse
	if err := json.Unmarshal(raw, &parsed); err != nil {
		return "", fmt.Errorf("%w: malformed response: %v", ErrBackend, err)
	}
	if parsed.Error != nil && parsed.Error.Message != "" {
		return "", fmt.Errorf("%w: %s", ErrBackend, parsed.Error.Message)
	}

	translated := strings.TrimSpace(parsed.text())
	if translated == "" {
		return "", fmt.Errorf("%w: empty translation in response", ErrBackend)
	}

	c.logger.Debug("Translated text",
		zap.String("target_language", targetLanguage),
		zap.Int("input_len", len(text)),
		zap.Int("output_len", len(translated)),
	)
	return translated, nil
}

func truncate(b []byte, n int) string {
	if len(b) <= n {
		return string(b)
	}
	return string(b[:n]) + "..."
}
