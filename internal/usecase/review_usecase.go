package usecase

import (
	"context"
	"fmt"
	"strings"

	"github.com/DRSN-tech/shop-assistant/internal/review"
	"github.com/DRSN-tech/shop-assistant/pkg/e"
	"github.com/DRSN-tech/shop-assistant/pkg/logger"
)

const autoLang = "auto"

// ReviewUseCase анализирует отзывы: тональность, перевод и проверка на накрутку.
type ReviewUseCase struct {
	llm    LLMInfra
	logger logger.Logger
}

func NewReviewUC(llm LLMInfra, logger logger.Logger) *ReviewUseCase {
	return &ReviewUseCase{
		llm:    llm,
		logger: logger,
	}
}

func (r *ReviewUseCase) Sentiment(ctx context.Context, text string) (*SentimentRes, error) {
	const op = "ReviewUseCase.Sentiment"

	if strings.TrimSpace(text) == "" {
		return nil, e.Wrap(op, e.ErrEmptyText)
	}

	s := review.Analyze(text)

	return &SentimentRes{
		Sentiment: string(s.Label),
		Score:     s.Scores.Compound,
		Neg:       s.Scores.Neg,
		Neu:       s.Scores.Neu,
		Pos:       s.Scores.Pos,
	}, nil
}

// Translate переводит отзыв на английский. Пустой или "auto" код языка
// оставляет определение исходного языка модели.
func (r *ReviewUseCase) Translate(ctx context.Context, req *TranslateReq) (*TranslateRes, error) {
	const op = "ReviewUseCase.Translate"

	text := strings.TrimSpace(req.Text)
	if text == "" {
		return nil, e.Wrap(op, e.ErrEmptyText)
	}

	lang := strings.ToLower(strings.TrimSpace(req.LangCode))
	if lang == "en" {
		return &TranslateRes{Translated: text}, nil
	}

	source := "the source language"
	if lang != "" && lang != autoLang {
		source = fmt.Sprintf("language code %q", lang)
	}

	prompt := fmt.Sprintf(
		"Translate the following product review from %s to English. "+
			"Reply with the translation only, without quotes or comments.\n\n%s",
		source, text,
	)

	translated, err := r.llm.Complete(ctx, prompt)
	if err != nil {
		return nil, e.Wrap(op, err)
	}

	return &TranslateRes{Translated: strings.TrimSpace(translated)}, nil
}

func (r *ReviewUseCase) CheckFake(ctx context.Context, text string) (*FakeCheckRes, error) {
	const op = "ReviewUseCase.CheckFake"

	if strings.TrimSpace(text) == "" {
		return nil, e.Wrap(op, e.ErrEmptyText)
	}

	a := review.CheckFake(text)

	return &FakeCheckRes{
		IsFake:     a.IsFake,
		Confidence: a.Confidence,
		Reasons:    a.Reasons,
	}, nil
}
