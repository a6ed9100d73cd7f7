// Package llm wraps the chat-completion providers behind one small interface.
package llm

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/avast/retry-go/v4"
	"go.uber.org/zap"

	appcfg "github.com/rulemate-india/core/internal/config"
)

// ErrEmptyCompletion is returned when a provider answers with no text.
var ErrEmptyCompletion = errors.New("empty response from AI")

// Request is a single system + user exchange.
type Request struct {
	System      string
	Prompt      string
	Temperature float64
	MaxTokens   int
}

// Completer produces the assistant text for a request.
type Completer interface {
	Complete(ctx context.Context, req Request) (string, error)
}

type backend interface {
	generate(ctx context.Context, req Request) (string, error)
}

// Client applies the configured per-call timeout and retry policy on top of
// a provider backend.
type Client struct {
	backend  backend
	provider string
	model    string
	timeout  time.Duration
	attempts uint
	delay    time.Duration
	logger   *zap.Logger
}

// New builds a Client for cfg.Provider.
func New(cfg appcfg.AIConfig, logger *zap.Logger) (*Client, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	apiKey := strings.TrimSpace(cfg.APIKey)
	if apiKey == "" {
		return nil, errors.New("AI provider api key is empty")
	}

	var (
		b   backend
		err error
	)
	switch cfg.Provider {
	case "openai", "anthropic":
		b, err = newJetifyBackend(cfg.Provider, apiKey, cfg.Endpoint, cfg.Model)
	case "openai-compatible":
		b, err = newCompatibleBackend(apiKey, cfg.Endpoint, cfg.Model)
	case "google":
		b, err = newGoogleBackend(apiKey, cfg.Model)
	default:
		err = fmt.Errorf("unsupported AI provider %q", cfg.Provider)
	}
	if err != nil {
		return nil, err
	}

	return newClient(b, cfg, logger), nil
}

func newClient(b backend, cfg appcfg.AIConfig, logger *zap.Logger) *Client {
	c := &Client{
		backend:  b,
		provider: cfg.Provider,
		model:    cfg.Model,
		timeout:  cfg.Timeout,
		attempts: 1,
		delay:    500 * time.Millisecond,
		logger:   logger,
	}
	if cfg.Retries > 1 {
		c.attempts = uint(cfg.Retries)
	}
	return c
}

// Provider returns the configured provider name.
func (c *Client) Provider() string { return c.provider }

// Model returns the configured model id.
func (c *Client) Model() string { return c.model }

// SingleAttempt returns a view of c that never retries.
func (c *Client) SingleAttempt() Completer {
	cp := *c
	cp.attempts = 1
	return &cp
}

// Complete runs req, retrying transient failures up to the configured number
// of attempts. Each attempt gets its own timeout.
func (c *Client) Complete(ctx context.Context, req Request) (string, error) {
	var text string
	err := retry.Do(
		func() error {
			out, err := c.once(ctx, req)
			if err != nil {
				return err
			}
			text = out
			return nil
		},
		retry.Context(ctx),
		retry.Attempts(c.attempts),
		retry.Delay(c.delay),
		retry.DelayType(retry.FixedDelay),
		retry.LastErrorOnly(true),
		retry.RetryIf(func(err error) bool {
			return ctx.Err() == nil && !errors.Is(err, context.Canceled)
		}),
		retry.OnRetry(func(n uint, err error) {
			c.logger.Warn("AI completion retry",
				zap.String("provider", c.provider),
				zap.Uint("attempt", n+1),
				zap.Error(err),
			)
		}),
	)
	if err != nil {
		return "", err
	}
	return text, nil
}

func (c *Client) once(ctx context.Context, req Request) (string, error) {
	callCtx := ctx
	if c.timeout > 0 {
		var cancel context.CancelFunc
		callCtx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}

	text, err := c.backend.generate(callCtx, req)
	if err != nil {
		if errors.Is(callCtx.Err(), context.DeadlineExceeded) && ctx.Err() == nil {
			return "", fmt.Errorf("%s completion timed out after %s: %w", c.provider, c.timeout, err)
		}
		return "", fmt.Errorf("%s completion: %w", c.provider, err)
	}
	text = strings.TrimSpace(text)
	if text == "" {
		return "", ErrEmptyCompletion
	}
	return text, nil
}
