// Package llm adapts the Anthropic API as the optional narrator and as
// the normalizer fallback. Every caller degrades on error: narration
// falls back to the deterministic renderer and normalization keeps the
// pattern result, so a missing key or an unreachable endpoint never
// blocks a turn.
package llm

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
	"go.uber.org/zap"

	"github.com/icruces/mazmorra/internal/config"
)

// defaultTimeout bounds one API call when the configuration does not.
const defaultTimeout = 30 * time.Second

// defaultMaxTokens bounds a completion when the configuration does not.
// Narration runs two to four sentences; 500 tokens is generous.
const defaultMaxTokens = 500

// Client wraps the Anthropic API. The key is read from the environment
// by the SDK (ANTHROPIC_API_KEY); configuration carries only model,
// token and deadline settings.
type Client struct {
	api       anthropic.Client
	model     string
	maxTokens int64
	timeout   time.Duration
	log       *zap.Logger
}

// New builds a client from configuration. Extra request options pass
// through to the SDK; the tests use that to point the client at a local
// server.
func New(cfg config.LLMConfig, log *zap.Logger, opts ...option.RequestOption) *Client {
	if log == nil {
		log = zap.NewNop()
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	maxTokens := int64(cfg.MaxTokens)
	if maxTokens < 1 {
		maxTokens = defaultMaxTokens
	}
	return &Client{
		api:       anthropic.NewClient(opts...),
		model:     cfg.Model,
		maxTokens: maxTokens,
		timeout:   timeout,
		log:       log,
	}
}

// complete runs one system+user exchange and returns the joined text
// blocks of the reply. The per-call deadline stacks under any deadline
// already on ctx.
func (c *Client) complete(ctx context.Context, system, user string, temperature float64) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	start := time.Now()
	msg, err := c.api.Messages.New(ctx, anthropic.MessageNewParams{
		Model:       anthropic.Model(c.model),
		MaxTokens:   c.maxTokens,
		Temperature: anthropic.Float(temperature),
		System:      []anthropic.TextBlockParam{{Text: system}},
		Messages:    []anthropic.MessageParam{anthropic.NewUserMessage(anthropic.NewTextBlock(user))},
	})
	if err != nil {
		return "", fmt.Errorf("llm completion: %w", err)
	}

	var sb strings.Builder
	for _, block := range msg.Content {
		switch variant := block.AsAny().(type) {
		case anthropic.TextBlock:
			sb.WriteString(variant.Text)
		}
	}
	text := strings.TrimSpace(sb.String())
	c.log.Debug("llm completion",
		zap.String("model", c.model),
		zap.Int("reply_chars", len(text)),
		zap.Duration("elapsed", time.Since(start)))
	if text == "" {
		return "", errors.New("llm returned an empty completion")
	}
	return text, nil
}
