package usecase

import (
	"context"
	"fmt"
	"strings"

	"github.com/DRSN-tech/shop-assistant/pkg/e"
	"github.com/DRSN-tech/shop-assistant/pkg/logger"
)

// AssistantUseCase — чат-ассистент магазина и рекламное описание корзины.
type AssistantUseCase struct {
	llm      LLMInfra
	markdown MarkdownInfra
	logger   logger.Logger
}

func NewAssistantUC(llm LLMInfra, markdown MarkdownInfra, logger logger.Logger) *AssistantUseCase {
	return &AssistantUseCase{
		llm:      llm,
		markdown: markdown,
		logger:   logger,
	}
}

// Chat пересылает вопрос модели и возвращает ответ в markdown и HTML.
func (a *AssistantUseCase) Chat(ctx context.Context, query string) (*ChatRes, error) {
	const op = "AssistantUseCase.Chat"

	query = strings.TrimSpace(query)
	if query == "" {
		return nil, e.Wrap(op, e.ErrEmptyText)
	}

	raw, err := a.llm.Complete(ctx, query)
	if err != nil {
		return nil, e.Wrap(op, err)
	}

	html, err := a.markdown.ToHTML(raw)
	if err != nil {
		return nil, e.Wrap(op, err)
	}

	return &ChatRes{
		ResponseRaw:  raw,
		ResponseHTML: html,
	}, nil
}

// CartSummary генерирует короткое рекламное описание товаров из корзины.
func (a *AssistantUseCase) CartSummary(ctx context.Context, items []string) (*CartSummaryRes, error) {
	const op = "AssistantUseCase.CartSummary"

	names := make([]string, 0, len(items))
	for _, it := range items {
		if it = strings.TrimSpace(it); it != "" {
			names = append(names, it)
		}
	}
	if len(names) == 0 {
		return nil, e.Wrap(op, e.ErrEmptyCart)
	}

	prompt := fmt.Sprintf("Generate a short promotional sales pitch for the following products: %s", strings.Join(names, ", "))

	text, err := a.llm.Complete(ctx, prompt)
	if err != nil {
		return nil, e.Wrap(op, err)
	}

	return &CartSummaryRes{SummaryText: text}, nil
}
