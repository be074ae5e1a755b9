package http

import (
	"net/http"

	"github.com/DRSN-tech/shop-assistant/internal/usecase"
	"github.com/DRSN-tech/shop-assistant/pkg/logger"
)

type ReviewHandler struct {
	reviewUsecase    usecase.ReviewUC
	assistantUsecase usecase.AssistantUC
	logger           logger.Logger
}

func NewReviewHandler(reviewUsecase usecase.ReviewUC, assistantUsecase usecase.AssistantUC, logger logger.Logger) *ReviewHandler {
	return &ReviewHandler{reviewUsecase: reviewUsecase, assistantUsecase: assistantUsecase, logger: logger}
}

type reviewRequest struct {
	Review string `json:"review"`
}

type reviewTextRequest struct {
	ReviewText string `json:"reviewText"`
	LangCode   string `json:"langCode,omitempty"`
}

type sentimentScores struct {
	Neg      float64 `json:"neg"`
	Neu      float64 `json:"neu"`
	Pos      float64 `json:"pos"`
	Compound float64 `json:"compound"`
}

type analyzeReviewResponse struct {
	Sentiment string          `json:"sentiment"`
	Scores    sentimentScores `json:"scores"`
}

type sentimentResponse struct {
	Sentiment string  `json:"sentiment"`
	Score     float64 `json:"score"`
}

type translateResponse struct {
	Translated string `json:"translated"`
}

type fakeCheckResponse struct {
	IsFake     bool     `json:"isFake"`
	Confidence float64  `json:"confidence"`
	Reasons    []string `json:"reasons"`
}

type chatRequest struct {
	Query string `json:"query"`
}

type chatResponse struct {
	ResponseRaw  string `json:"response_raw"`
	ResponseHTML string `json:"response_html"`
}

type cartSummaryRequest struct {
	CartItems []string `json:"cartItems"`
}

type cartSummaryResponse struct {
	SummaryText string `json:"summaryText"`
}

// analyzeReview
//
//	@Summary	Тональность отзыва с разбивкой по шкалам
//	@Tags		reviews
//	@Accept		json
//	@Produce	json
//	@Param		body	body		reviewRequest	true	"Отзыв"
//	@Success	200		{object}	analyzeReviewResponse
//	@Failure	400		{object}	ErrorResponse
//	@Router		/analyze-review [post]
func (h *ReviewHandler) analyzeReview(w http.ResponseWriter, r *http.Request) {
	var req reviewRequest
	if err := decodeJSON(w, r, &req); err != nil {
		WriteError(w, err)
		return
	}

	res, err := h.reviewUsecase.Sentiment(r.Context(), req.Review)
	if err != nil {
		WriteError(w, err)
		return
	}

	WriteSuccess(w, http.StatusOK, analyzeReviewResponse{
		Sentiment: res.Sentiment,
		Scores: sentimentScores{
			Neg:      res.Neg,
			Neu:      res.Neu,
			Pos:      res.Pos,
			Compound: res.Score,
		},
	})
}

// sentiment
//
//	@Summary	Тональность отзыва
//	@Tags		reviews
//	@Accept		json
//	@Produce	json
//	@Param		body	body		reviewRequest	true	"Отзыв"
//	@Success	200		{object}	sentimentResponse
//	@Failure	400		{object}	ErrorResponse
//	@Router		/reviews/sentiment [post]
func (h *ReviewHandler) sentiment(w http.ResponseWriter, r *http.Request) {
	var req reviewRequest
	if err := decodeJSON(w, r, &req); err != nil {
		WriteError(w, err)
		return
	}

	res, err := h.reviewUsecase.Sentiment(r.Context(), req.Review)
	if err != nil {
		WriteError(w, err)
		return
	}

	WriteSuccess(w, http.StatusOK, sentimentResponse{Sentiment: res.Sentiment, Score: res.Score})
}

// translate
//
//	@Summary		Перевод отзыва
//	@Description	Переводит отзыв на язык langCode через LLM. Для "en" текст возвращается как есть
//	@Tags			reviews
//	@Accept			json
//	@Produce		json
//	@Param			body	body		reviewTextRequest	true	"Отзыв и язык"
//	@Success		200		{object}	translateResponse
//	@Failure		400		{object}	ErrorResponse
//	@Failure		502		{object}	ErrorResponse
//	@Router			/reviews/translate [post]
func (h *ReviewHandler) translate(w http.ResponseWriter, r *http.Request) {
	var req reviewTextRequest
	if err := decodeJSON(w, r, &req); err != nil {
		WriteError(w, err)
		return
	}

	res, err := h.reviewUsecase.Translate(r.Context(), usecase.NewTranslateReq(req.ReviewText, req.LangCode))
	if err != nil {
		h.logger.Warnf("translate review: %v", err)
		WriteError(w, err)
		return
	}

	WriteSuccess(w, http.StatusOK, translateResponse{Translated: res.Translated})
}

// checkFake
//
//	@Summary	Проверка отзыва на подлинность
//	@Tags		reviews
//	@Accept		json
//	@Produce	json
//	@Param		body	body		reviewTextRequest	true	"Отзыв"
//	@Success	200		{object}	fakeCheckResponse
//	@Failure	400		{object}	ErrorResponse
//	@Router		/reviews/check [post]
func (h *ReviewHandler) checkFake(w http.ResponseWriter, r *http.Request) {
	var req reviewTextRequest
	if err := decodeJSON(w, r, &req); err != nil {
		WriteError(w, err)
		return
	}

	res, err := h.reviewUsecase.CheckFake(r.Context(), req.ReviewText)
	if err != nil {
		WriteError(w, err)
		return
	}

	reasons := res.Reasons
	if reasons == nil {
		reasons = []string{}
	}

	WriteSuccess(w, http.StatusOK, fakeCheckResponse{
		IsFake:     res.IsFake,
		Confidence: res.Confidence,
		Reasons:    reasons,
	})
}

// chatbot
//
//	@Summary	Вопрос ассистенту магазина
//	@Tags		assistant
//	@Accept		json
//	@Produce	json
//	@Param		body	body		chatRequest	true	"Вопрос"
//	@Success	200		{object}	chatResponse
//	@Failure	400		{object}	ErrorResponse
//	@Failure	429		{object}	ErrorResponse
//	@Failure	502		{object}	ErrorResponse
//	@Router		/chatbot [post]
func (h *ReviewHandler) chatbot(w http.ResponseWriter, r *http.Request) {
	var req chatRequest
	if err := decodeJSON(w, r, &req); err != nil {
		WriteError(w, err)
		return
	}

	res, err := h.assistantUsecase.Chat(r.Context(), req.Query)
	if err != nil {
		h.logger.Warnf("chatbot: %v", err)
		WriteError(w, err)
		return
	}

	WriteSuccess(w, http.StatusOK, chatResponse{ResponseRaw: res.ResponseRaw, ResponseHTML: res.ResponseHTML})
}

// cartSummary
//
//	@Summary	Краткое описание корзины
//	@Tags		assistant
//	@Accept		json
//	@Produce	json
//	@Param		body	body		cartSummaryRequest	true	"Названия товаров в корзине"
//	@Success	200		{object}	cartSummaryResponse
//	@Failure	400		{object}	ErrorResponse
//	@Failure	502		{object}	ErrorResponse
//	@Router		/cart/summary [post]
func (h *ReviewHandler) cartSummary(w http.ResponseWriter, r *http.Request) {
	var req cartSummaryRequest
	if err := decodeJSON(w, r, &req); err != nil {
		WriteError(w, err)
		return
	}

	res, err := h.assistantUsecase.CartSummary(r.Context(), req.CartItems)
	if err != nil {
		h.logger.Warnf("cart summary: %v", err)
		WriteError(w, err)
		return
	}

	WriteSuccess(w, http.StatusOK, cartSummaryResponse{SummaryText: res.SummaryText})
}
