// Package advisor asks the Gemini API to turn a user's recent entries into
// short, actionable spending advice. It wraps the official Go SDK.
package advisor

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"google.golang.org/genai"

	"github.com/tallyhq/tally/internal/ledger"
)

// ErrNoAdvice is returned when the model responds without any usable text.
var ErrNoAdvice = errors.New("advisor: empty response from model")

// Client generates advice and videos through the Gemini API. The zero value
// is not usable; use New.
type Client struct {
	genai        *genai.Client
	model        string
	pollInterval time.Duration
	log          *slog.Logger
}

type options struct {
	baseURL      string
	httpClient   *http.Client
	pollInterval time.Duration
}

// Option customizes a Client.
type Option func(*options)

// WithBaseURL overrides the API host, used by tests.
func WithBaseURL(u string) Option {
	return func(o *options) { o.baseURL = strings.TrimRight(u, "/") }
}

// WithHTTPClient overrides the underlying HTTP client.
func WithHTTPClient(h *http.Client) Option {
	return func(o *options) { o.httpClient = h }
}

// WithPollInterval changes how often long-running operations are polled.
func WithPollInterval(d time.Duration) Option {
	return func(o *options) { o.pollInterval = d }
}

// New builds a Client for the given API key and model.
func New(ctx context.Context, apiKey, model string, log *slog.Logger, opts ...Option) (*Client, error) {
	o := options{pollInterval: 10 * time.Second}
	for _, opt := range opts {
		opt(&o)
	}
	cfg := &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	}
	if o.httpClient != nil {
		cfg.HTTPClient = o.httpClient
	}
	if o.baseURL != "" {
		cfg.HTTPOptions.BaseURL = o.baseURL
	}
	gc, err := genai.NewClient(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("create genai client: %w", err)
	}
	return &Client{genai: gc, model: model, pollInterval: o.pollInterval, log: log}, nil
}

// Advise summarizes the user's entries into a prompt and asks the model for
// three concise tips. Entries should already be sorted newest first; only the
// most recent fifty are included to keep the prompt bounded.
func (c *Client) Advise(ctx context.Context, username string, entries []ledger.Entry) (string, error) {
	prompt := buildPrompt(username, entries)

	resp, err := c.genai.Models.GenerateContent(ctx, c.model, genai.Text(prompt), nil)
	if err != nil {
		c.log.Warn("model call failed", "err", err)
		return "", fmt.Errorf("call model: %w", err)
	}
	if len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil || len(resp.Candidates[0].Content.Parts) == 0 {
		return "", ErrNoAdvice
	}
	text := strings.TrimSpace(resp.Candidates[0].Content.Parts[0].Text)
	if text == "" {
		return "", ErrNoAdvice
	}
	return text, nil
}

const maxPromptEntries = 50

func buildPrompt(username string, entries []ledger.Entry) string {
	var b strings.Builder
	fmt.Fprintf(&b, "You are a personal finance assistant. The user %q has recorded the following transactions:\n", username)
	if len(entries) == 0 {
		b.WriteString("(no transactions yet)\n")
	}
	n := len(entries)
	if n > maxPromptEntries {
		n = maxPromptEntries
	}
	for _, e := range entries[:n] {
		fmt.Fprintf(&b, "%s: %s of %v for %s\n", e.OccurredOn, e.Kind, e.Amount, e.Category)
	}
	b.WriteString("\nGive exactly 3 short, practical tips to improve their finances. Keep each tip to one sentence.")
	return b.String()
}
