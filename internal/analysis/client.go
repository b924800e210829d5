// Package analysis sends the cycle prompts to the completion API and turns
// its reply into a validated analysis result.
package analysis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"

	"github.com/starford/lifedash/internal/apperr"
)

// Defaults for the messages API.
const (
	DefaultAPIURL    = "https://api.anthropic.com"
	DefaultModel     = "claude-sonnet-4-20250514"
	DefaultMaxTokens = 4096
)

var (
	// ErrRequest wraps network failures and non-2xx replies.
	ErrRequest = errors.New("analysis: request failed")
	// ErrParse is returned when the reply text is not a JSON object.
	ErrParse = errors.New("analysis: response is not valid JSON")
)

// Config configures the completion client.
type Config struct {
	APIKey    string
	Model     string
	APIURL    string
	MaxTokens int
	Timeout   time.Duration
}

// Client calls the messages API once per analysis, without streaming or retries.
type Client struct {
	cfg Config
	api anthropic.Client
}

// NewClient creates a Client, filling unset fields with defaults.
func NewClient(cfg Config) *Client {
	if cfg.Model == "" {
		cfg.Model = DefaultModel
	}
	if cfg.APIURL == "" {
		cfg.APIURL = DefaultAPIURL
	}
	if cfg.MaxTokens <= 0 {
		cfg.MaxTokens = DefaultMaxTokens
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 90 * time.Second
	}
	return &Client{
		cfg: cfg,
		api: anthropic.NewClient(
			option.WithAPIKey(cfg.APIKey),
			option.WithBaseURL(cfg.APIURL),
			option.WithHTTPClient(&http.Client{Timeout: cfg.Timeout}),
			option.WithMaxRetries(0),
		),
	}
}

// IsConfigured reports whether an API key is set.
func (c *Client) IsConfigured() bool {
	return c != nil && c.cfg.APIKey != ""
}

// Complete sends one request and returns the text of the first text block.
func (c *Client) Complete(ctx context.Context, system, user string) (string, error) {
	if !c.IsConfigured() {
		return "", fmt.Errorf("analysis: api key: %w", apperr.ErrNotConfigured)
	}

	msg, err := c.api.Messages.New(ctx, anthropic.MessageNewParams{
		Model:     anthropic.Model(c.cfg.Model),
		MaxTokens: int64(c.cfg.MaxTokens),
		System:    []anthropic.TextBlockParam{{Text: system}},
		Messages: []anthropic.MessageParam{
			anthropic.NewUserMessage(anthropic.NewTextBlock(user)),
		},
	})
	if err != nil {
		var apiErr *anthropic.Error
		if errors.As(err, &apiErr) {
			return "", fmt.Errorf("%w: status %d: %v", ErrRequest, apiErr.StatusCode, err)
		}
		return "", fmt.Errorf("%w: %v", ErrRequest, err)
	}
	for _, block := range msg.Content {
		if block.Type == "text" {
			return block.Text, nil
		}
	}
	return "", nil
}

// Analyze sends the prompts and returns the reply as a raw JSON object,
// with any code fence removed. Fields are not interpreted here; use
// Validate and Decode.
func (c *Client) Analyze(ctx context.Context, system, user string) (json.RawMessage, error) {
	text, err := c.Complete(ctx, system, user)
	if err != nil {
		return nil, err
	}
	return ParseResponse(text)
}

// ParseResponse strips a surrounding code fence and checks that what is
// left is a JSON object.
func ParseResponse(text string) (json.RawMessage, error) {
	cleaned := strings.TrimSpace(StripCodeFence(strings.TrimSpace(text)))
	if !strings.HasPrefix(cleaned, "{") || !json.Valid([]byte(cleaned)) {
		return nil, ErrParse
	}
	return json.RawMessage(cleaned), nil
}

// StripCodeFence removes the first line if it opens a fence and the last
// line if it closes one.
func StripCodeFence(s string) string {
	if !strings.HasPrefix(s, "```") {
		return s
	}
	lines := strings.Split(s, "\n")
	lines = lines[1:]
	if len(lines) > 0 && strings.HasPrefix(strings.TrimSpace(lines[len(lines)-1]), "```") {
		lines = lines[:len(lines)-1]
	}
	return strings.Join(lines, "\n")
}
