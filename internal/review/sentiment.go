// Package review анализирует тексты отзывов: тональность и признаки накрутки.
package review

import (
	"math"
	"strings"
	"unicode"
)

const (
	boosterIncr = 0.293
	boosterDecr = -0.293
	capsIncr    = 0.733
	negScalar   = -0.74
	normAlpha   = 15

	// Пороги, по которым compound превращается в метку.
	PositiveThreshold = 0.3
	NegativeThreshold = -0.3
)

type Label string

const (
	Positive Label = "positive"
	Negative Label = "negative"
	Neutral  Label = "neutral"
)

// Scores — доли позитивных, негативных и нейтральных слов и итоговый compound в [-1, 1].
type Scores struct {
	Neg      float64 `json:"neg"`
	Neu      float64 `json:"neu"`
	Pos      float64 `json:"pos"`
	Compound float64 `json:"compound"`
}

// Sentiment — результат анализа тональности.
type Sentiment struct {
	Label  Label
	Scores Scores
}

// Analyze оценивает тональность текста по словарю с учётом отрицаний,
// усилителей, капса, союза "but" и восклицательных знаков.
func Analyze(text string) Sentiment {
	words := splitWords(text)
	capsDiff := hasCapsDifferential(words)

	valences := make([]float64, len(words))
	for i, w := range words {
		lw := strings.ToLower(w)
		if _, ok := boosters[lw]; ok {
			continue
		}

		v, ok := lexicon[lw]
		if !ok {
			continue
		}

		if capsDiff && isUpper(w) {
			v += math.Copysign(capsIncr, v)
		}

		for back := 1; back <= 3 && i-back >= 0; back++ {
			prev := words[i-back]
			lprev := strings.ToLower(prev)
			if _, inLex := lexicon[lprev]; inLex {
				continue
			}

			if b, ok := boosters[lprev]; ok {
				s := b
				if v < 0 {
					s = -s
				}
				if capsDiff && isUpper(prev) {
					s += math.Copysign(capsIncr, s)
				}
				switch back {
				case 2:
					s *= 0.95
				case 3:
					s *= 0.9
				}
				v += s
			}

			if isNegation(lprev) {
				v *= negScalar
			}
		}

		valences[i] = v
	}

	applyBut(words, valences)

	return scoreValences(valences, punctuationEmphasis(text))
}

func scoreValences(valences []float64, punct float64) Sentiment {
	var sum, pos, neg, neu float64
	for _, v := range valences {
		sum += v
		switch {
		case v > 0:
			pos += v + 1
		case v < 0:
			neg += v - 1
		default:
			neu++
		}
	}

	var compound float64
	if sum != 0 {
		if sum > 0 {
			sum += punct
		} else {
			sum -= punct
		}
		compound = math.Max(-1, math.Min(1, sum/math.Sqrt(sum*sum+normAlpha)))

		if pos > math.Abs(neg) {
			pos += punct
		} else if pos < math.Abs(neg) {
			neg -= punct
		}
	}

	s := Scores{Compound: round(compound, 4)}
	if total := pos + math.Abs(neg) + neu; total > 0 {
		s.Pos = round(pos/total, 3)
		s.Neg = round(math.Abs(neg)/total, 3)
		s.Neu = round(neu/total, 3)
	}

	return Sentiment{Label: labelFor(s.Compound), Scores: s}
}

func labelFor(compound float64) Label {
	switch {
	case compound > PositiveThreshold:
		return Positive
	case compound < NegativeThreshold:
		return Negative
	default:
		return Neutral
	}
}

// applyBut ослабляет оценки до "but" и усиливает после.
func applyBut(words []string, valences []float64) {
	at := -1
	for i, w := range words {
		if strings.EqualFold(w, "but") {
			at = i
			break
		}
	}
	if at < 0 {
		return
	}

	for i := range valences {
		switch {
		case i < at:
			valences[i] *= 0.5
		case i > at:
			valences[i] *= 1.5
		}
	}
}

func punctuationEmphasis(text string) float64 {
	ep := float64(min(strings.Count(text, "!"), 4)) * 0.292

	var qm float64
	if n := strings.Count(text, "?"); n > 1 {
		if n <= 3 {
			qm = float64(n) * 0.18
		} else {
			qm = 0.96
		}
	}

	return ep + qm
}

// splitWords делит текст по пробелам, срезает пунктуацию по краям и выкидывает
// однобуквенные токены. Апостроф внутри слова удаляется: "don't" -> "dont".
func splitWords(text string) []string {
	fields := strings.Fields(text)
	out := make([]string, 0, len(fields))
	for _, f := range fields {
		f = strings.TrimFunc(f, func(r rune) bool {
			return unicode.IsPunct(r) || unicode.IsSymbol(r)
		})
		f = strings.NewReplacer("'", "", "’", "").Replace(f)
		if len([]rune(f)) <= 1 {
			continue
		}
		out = append(out, f)
	}

	return out
}

func isNegation(w string) bool {
	_, ok := negations[w]
	return ok
}

func isUpper(w string) bool {
	hasLetter := false
	for _, r := range w {
		if unicode.IsLetter(r) {
			hasLetter = true
			if !unicode.IsUpper(r) {
				return false
			}
		}
	}

	return hasLetter
}

// hasCapsDifferential сообщает, что капсом написана только часть слов.
func hasCapsDifferential(words []string) bool {
	upper := 0
	for _, w := range words {
		if isUpper(w) {
			upper++
		}
	}

	return upper > 0 && upper < len(words)
}

func round(x float64, places int) float64 {
	p := math.Pow(10, float64(places))
	return math.Round(x*p) / p
}
