package texttransform

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	openai "github.com/sashabaranov/go-openai"
	"github.com/sony/gobreaker"

	"yana/internal/domain/entity"
	"yana/internal/resilience/circuitbreaker"
	"yana/internal/resilience/retry"
	"yana/internal/utils/text"
)

// OpenAI implements Transformer using the Chat Completions API.
type OpenAI struct {
	client         *openai.Client
	circuitBreaker *circuitbreaker.CircuitBreaker
	retryConfig    retry.Config
	config         Config
	metrics        MetricsRecorder
}

func NewOpenAI(apiKey string) *OpenAI {
	return &OpenAI{
		client:         openai.NewClient(apiKey),
		circuitBreaker: circuitbreaker.New(circuitbreaker.OpenAIAPIConfig()),
		retryConfig:    retry.AIAPIConfig(),
		config: Config{
			CharacterLimit: LoadCharacterLimitFromEnv(),
			Model:          openai.GPT3Dot5Turbo,
			MaxTokens:      1024,
			Timeout:        60 * time.Second,
		},
		metrics: NewPrometheusMetrics(),
	}
}

func (o *OpenAI) Transform(ctx context.Context, content string, hints entity.AIHints) (string, error) {
	prompt := buildPrompt(hints, o.config.CharacterLimit)
	if prompt == "" {
		return content, nil
	}

	ctx, cancel := context.WithTimeout(ctx, o.config.Timeout)
	defer cancel()

	var result string
	retryErr := retry.WithBackoff(ctx, o.retryConfig, func() error {
		cbResult, err := o.circuitBreaker.Execute(func() (interface{}, error) {
			return o.doTransform(ctx, prompt, content)
		})
		if err != nil {
			if errors.Is(err, gobreaker.ErrOpenState) {
				slog.Warn("openai circuit breaker open, request rejected",
					slog.String("service", "openai-api"),
					slog.String("state", o.circuitBreaker.State().String()))
				o.metrics.RecordError("openai")
				return fmt.Errorf("openai api unavailable: circuit breaker open")
			}
			return err
		}
		result = cbResult.(string)
		return nil
	})
	if retryErr != nil {
		o.metrics.RecordError("openai")
		return "", fmt.Errorf("openai transform failed after retries: %w", retryErr)
	}
	return result, nil
}

func (o *OpenAI) doTransform(ctx context.Context, prompt, content string) (string, error) {
	const maxChars = 10000
	truncated := content
	if len(content) > maxChars {
		truncated = content[:maxChars] + "...\n(truncated)"
	}

	start := time.Now()
	resp, err := o.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: o.config.Model,
		Messages: []openai.ChatCompletionMessage{{
			Role:    openai.ChatMessageRoleSystem,
			Content: prompt + truncated,
		}},
	})
	duration := time.Since(start)
	o.metrics.RecordDuration("openai", duration)
	if err != nil {
		return "", fmt.Errorf("openai api error: %w", err)
	}
	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("openai api returned empty response")
	}
	out := resp.Choices[0].Message.Content
	o.metrics.RecordOutputLength(text.CountRunes(out))
	return out, nil
}
