package texttransform

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
	"github.com/sony/gobreaker"

	"yana/internal/domain/entity"
	"yana/internal/resilience/circuitbreaker"
	"yana/internal/resilience/retry"
	"yana/internal/utils/text"
)

// Claude implements Transformer using Anthropic's Messages API.
type Claude struct {
	client         anthropic.Client
	circuitBreaker *circuitbreaker.CircuitBreaker
	retryConfig    retry.Config
	config         Config
	metrics        MetricsRecorder
}

func NewClaude(apiKey string) *Claude {
	cfg := Config{
		CharacterLimit: LoadCharacterLimitFromEnv(),
		Model:          string(anthropic.ModelClaudeSonnet4_5_20250929),
		MaxTokens:      1024,
		Timeout:        60 * time.Second,
	}
	return &Claude{
		client:         anthropic.NewClient(option.WithAPIKey(apiKey)),
		circuitBreaker: circuitbreaker.New(circuitbreaker.ClaudeAPIConfig()),
		retryConfig:    retry.AIAPIConfig(),
		config:         cfg,
		metrics:        NewPrometheusMetrics(),
	}
}

func (c *Claude) Transform(ctx context.Context, content string, hints entity.AIHints) (string, error) {
	prompt := buildPrompt(hints, c.config.CharacterLimit)
	if prompt == "" {
		return content, nil
	}

	ctx, cancel := context.WithTimeout(ctx, c.config.Timeout)
	defer cancel()

	var result string
	retryErr := retry.WithBackoff(ctx, c.retryConfig, func() error {
		cbResult, err := c.circuitBreaker.Execute(func() (interface{}, error) {
			return c.doTransform(ctx, prompt, content)
		})
		if err != nil {
			if errors.Is(err, gobreaker.ErrOpenState) {
				slog.Warn("claude circuit breaker open, request rejected",
					slog.String("service", "claude-api"),
					slog.String("state", c.circuitBreaker.State().String()))
				c.metrics.RecordError("claude")
				return fmt.Errorf("claude api unavailable: circuit breaker open")
			}
			return err
		}
		result = cbResult.(string)
		return nil
	})
	if retryErr != nil {
		c.metrics.RecordError("claude")
		return "", fmt.Errorf("claude transform failed after retries: %w", retryErr)
	}
	return result, nil
}

func (c *Claude) doTransform(ctx context.Context, prompt, content string) (string, error) {
	const maxChars = 10000
	truncated := content
	if len(content) > maxChars {
		truncated = content[:maxChars] + "...\n(truncated)"
	}

	start := time.Now()
	message, err := c.client.Messages.New(ctx, anthropic.MessageNewParams{
		Model:     anthropic.Model(c.config.Model),
		MaxTokens: int64(c.config.MaxTokens),
		Messages: []anthropic.MessageParam{
			anthropic.NewUserMessage(anthropic.NewTextBlock(prompt + truncated)),
		},
	})
	duration := time.Since(start)
	c.metrics.RecordDuration("claude", duration)
	if err != nil {
		return "", fmt.Errorf("claude api error: %w", err)
	}
	if len(message.Content) == 0 {
		return "", fmt.Errorf("claude api returned empty response")
	}
	textBlock, ok := message.Content[0].AsAny().(anthropic.TextBlock)
	if !ok {
		return "", fmt.Errorf("claude api returned unexpected response type")
	}
	c.metrics.RecordOutputLength(text.CountRunes(textBlock.Text))
	return textBlock.Text, nil
}
