package review

import (
	"regexp"
	"strings"
)

const (
	baseConfidence = 50
	maxConfidence  = 99
	// FakeThreshold — отзыв считается накрученным, если уверенность выше порога.
	FakeThreshold = 85
)

var (
	promoWords = map[string]struct{}{
		"best": {}, "amazing": {}, "perfect": {}, "incredible": {}, "unbelievable": {},
		"flawless": {}, "guaranteed": {}, "miracle": {}, "life-changing": {}, "must-have": {},
		"100%": {}, "ever": {}, "greatest": {}, "unbeatable": {},
	}

	genericPraise = map[string]struct{}{
		"good": {}, "great": {}, "nice": {}, "ok": {}, "okay": {}, "excellent": {},
		"awesome": {}, "product": {}, "item": {}, "love": {}, "it": {}, "very": {},
	}

	buyPattern = regexp.MustCompile(`(?i)\b(buy|order|get)\s+(it\s+)?(now|today|this|immediately)\b`)
	urlPattern = regexp.MustCompile(`(?i)(https?://|www\.)\S+`)
)

// Authenticity — результат эвристической проверки отзыва.
type Authenticity struct {
	IsFake     bool
	Confidence float64 // в диапазоне [50, 99]
	Reasons    []string
}

type signal struct {
	reason string
	weight float64
}

// CheckFake оценивает, насколько отзыв похож на накрутку: рекламные превосходные
// степени, призывы купить, ссылки, обилие восклицаний, капс, повторы и короткая общая похвала.
// Результат детерминирован для одного и того же текста.
func CheckFake(text string) Authenticity {
	words := strings.Fields(strings.TrimSpace(text))
	lower := make([]string, len(words))
	for i, w := range words {
		lower[i] = strings.ToLower(strings.Trim(w, ".,!?;:\"()"))
	}

	var signals []signal

	promo := 0
	for _, w := range lower {
		if _, ok := promoWords[w]; ok {
			promo++
		}
	}
	if promo > 0 {
		signals = append(signals, signal{reason: "promotional superlatives", weight: float64(min(promo, 3)) * 8})
	}

	if buyPattern.MatchString(text) {
		signals = append(signals, signal{reason: "call to action", weight: 15})
	}

	if urlPattern.MatchString(text) {
		signals = append(signals, signal{reason: "contains link", weight: 20})
	}

	if excl := strings.Count(text, "!"); excl >= 3 || (len(words) > 0 && float64(excl)/float64(len(words)) > 0.2) {
		signals = append(signals, signal{reason: "excessive exclamation", weight: 12})
	}

	if shoutingRatio(words) > 0.3 {
		signals = append(signals, signal{reason: "shouting", weight: 15})
	}

	if maxRepeat(lower) >= 3 {
		signals = append(signals, signal{reason: "repetitive wording", weight: 10})
	}

	if isShortGeneric(lower) {
		signals = append(signals, signal{reason: "short generic praise", weight: 15})
	}

	confidence := float64(baseConfidence)
	reasons := make([]string, 0, len(signals))
	for _, s := range signals {
		confidence += s.weight
		reasons = append(reasons, s.reason)
	}
	confidence = min(confidence, maxConfidence)

	return Authenticity{
		IsFake:     confidence > FakeThreshold,
		Confidence: confidence,
		Reasons:    reasons,
	}
}

func shoutingRatio(words []string) float64 {
	var long, upper int
	for _, w := range words {
		w = strings.Trim(w, ".,!?;:\"()")
		if len(w) < 3 {
			continue
		}
		long++
		if isUpper(w) {
			upper++
		}
	}
	if long == 0 {
		return 0
	}

	return float64(upper) / float64(long)
}

func maxRepeat(words []string) int {
	counts := make(map[string]int, len(words))
	best := 0
	for _, w := range words {
		if len(w) < 4 {
			continue
		}
		counts[w]++
		best = max(best, counts[w])
	}

	return best
}

func isShortGeneric(words []string) bool {
	if len(words) == 0 || len(words) > 4 {
		return false
	}

	for _, w := range words {
		if _, ok := genericPraise[w]; !ok {
			return false
		}
	}

	return true
}
