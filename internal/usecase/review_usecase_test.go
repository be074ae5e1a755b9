package usecase

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/DRSN-tech/shop-assistant/pkg/e"
	"github.com/DRSN-tech/shop-assistant/pkg/logger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeLLM struct {
	prompts []string
	reply   string
	err     error
}

func (f *fakeLLM) Complete(_ context.Context, prompt string) (string, error) {
	f.prompts = append(f.prompts, prompt)
	return f.reply, f.err
}

type upperMarkdown struct{}

func (upperMarkdown) ToHTML(md string) (string, error) {
	return "<p>" + md + "</p>\n", nil
}

func TestReviewSentiment(t *testing.T) {
	uc := NewReviewUC(&fakeLLM{}, logger.NewNopLogger())

	res, err := uc.Sentiment(context.Background(), "Bad product. Broke after a week. Not good.")
	require.NoError(t, err)
	assert.Equal(t, "negative", res.Sentiment)
	assert.Less(t, res.Score, -0.3)

	_, err = uc.Sentiment(context.Background(), "   ")
	assert.ErrorIs(t, err, e.ErrEmptyText)
}

func TestReviewTranslate(t *testing.T) {
	llm := &fakeLLM{reply: "  I bought these for my trip.\n"}
	uc := NewReviewUC(llm, logger.NewNopLogger())

	res, err := uc.Translate(context.Background(), NewTranslateReq("Compré estos para mi viaje.", "es"))
	require.NoError(t, err)
	assert.Equal(t, "I bought these for my trip.", res.Translated)
	require.Len(t, llm.prompts, 1)
	assert.Contains(t, llm.prompts[0], `language code "es"`)
	assert.True(t, strings.HasSuffix(llm.prompts[0], "Compré estos para mi viaje."))

	same, err := uc.Translate(context.Background(), NewTranslateReq("Already English", "EN"))
	require.NoError(t, err)
	assert.Equal(t, "Already English", same.Translated)
	assert.Len(t, llm.prompts, 1)

	_, err = uc.Translate(context.Background(), NewTranslateReq("", "de"))
	assert.ErrorIs(t, err, e.ErrEmptyText)
}

func TestReviewTranslateUpstreamError(t *testing.T) {
	uc := NewReviewUC(&fakeLLM{err: e.ErrUpstream}, logger.NewNopLogger())

	_, err := uc.Translate(context.Background(), NewTranslateReq("Hallo", "auto"))
	assert.ErrorIs(t, err, e.ErrUpstream)
}

func TestReviewCheckFake(t *testing.T) {
	uc := NewReviewUC(&fakeLLM{}, logger.NewNopLogger())

	res, err := uc.CheckFake(context.Background(), "BUY NOW!!! Best product ever!!! Amazing amazing amazing!!!")
	require.NoError(t, err)
	assert.True(t, res.IsFake)
	assert.Greater(t, res.Confidence, 85.0)

	_, err = uc.CheckFake(context.Background(), "")
	assert.ErrorIs(t, err, e.ErrEmptyText)
}

func TestAssistantChat(t *testing.T) {
	llm := &fakeLLM{reply: "**Yes**, we ship worldwide."}
	uc := NewAssistantUC(llm, upperMarkdown{}, logger.NewNopLogger())

	res, err := uc.Chat(context.Background(), " Do you ship abroad? ")
	require.NoError(t, err)
	assert.Equal(t, "**Yes**, we ship worldwide.", res.ResponseRaw)
	assert.Equal(t, "<p>**Yes**, we ship worldwide.</p>\n", res.ResponseHTML)
	assert.Equal(t, []string{"Do you ship abroad?"}, llm.prompts)

	_, err = uc.Chat(context.Background(), "")
	assert.ErrorIs(t, err, e.ErrEmptyText)
}

func TestAssistantCartSummary(t *testing.T) {
	llm := &fakeLLM{reply: "Run faster, carry lighter!"}
	uc := NewAssistantUC(llm, upperMarkdown{}, logger.NewNopLogger())

	res, err := uc.CartSummary(context.Background(), []string{"Red Running Shoes", " ", "Leather Wallet"})
	require.NoError(t, err)
	assert.Equal(t, "Run faster, carry lighter!", res.SummaryText)
	assert.Equal(t,
		"Generate a short promotional sales pitch for the following products: Red Running Shoes, Leather Wallet",
		llm.prompts[0])

	_, err = uc.CartSummary(context.Background(), nil)
	assert.ErrorIs(t, err, e.ErrEmptyCart)

	uc = NewAssistantUC(&fakeLLM{err: errors.New("quota")}, upperMarkdown{}, logger.NewNopLogger())
	_, err = uc.CartSummary(context.Background(), []string{"Wallet"})
	assert.Error(t, err)
}
