// Package llm ходит в OpenAI-совместимый chat completions API (по умолчанию Groq).
package llm

import (
	"context"
	"errors"
	"strings"

	"github.com/DRSN-tech/shop-assistant/internal/cfg"
	"github.com/DRSN-tech/shop-assistant/pkg/e"
	"github.com/DRSN-tech/shop-assistant/pkg/logger"
	"github.com/DRSN-tech/shop-assistant/pkg/metrics"
	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
)

type Client struct {
	client openai.Client
	model  string
	logger logger.Logger
}

func NewClient(cfg *cfg.LLMCfg, logger logger.Logger, opts ...option.RequestOption) *Client {
	base := []option.RequestOption{
		option.WithBaseURL(cfg.BaseURL),
		option.WithAPIKey(cfg.APIKey),
		option.WithMaxRetries(2),
	}
	if cfg.Timeout > 0 {
		base = append(base, option.WithRequestTimeout(cfg.Timeout))
	}

	return &Client{
		client: openai.NewClient(append(base, opts...)...),
		model:  cfg.Model,
		logger: logger,
	}
}

// Complete отправляет один пользовательский промпт и возвращает текст первого ответа.
func (c *Client) Complete(ctx context.Context, prompt string) (string, error) {
	const op = "llm.Complete"

	completion, err := c.client.Chat.Completions.New(ctx, openai.ChatCompletionNewParams{
		Model:    c.model,
		Messages: []openai.ChatCompletionMessageParamUnion{openai.UserMessage(prompt)},
	})
	metrics.LLMCalls.WithLabelValues(metrics.Result(err)).Inc()
	if err != nil {
		var apiErr *openai.Error
		if errors.As(err, &apiErr) {
			c.logger.Warnf("LLM API error: status %d", apiErr.StatusCode)
		}
		return "", errors.Join(e.ErrUpstream, e.Wrap(op, err))
	}

	if len(completion.Choices) == 0 {
		return "", e.Wrap(op, e.ErrUpstream)
	}

	return strings.TrimSpace(completion.Choices[0].Message.Content), nil
}
