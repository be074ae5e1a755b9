// Package tfidf строит разреженные TF-IDF векторы по названиям товаров.
//
// Схема повторяет умолчания TfidfVectorizer из scikit-learn: токены из двух и более
// буквенно-цифровых символов в нижнем регистре, сырая частота термина, сглаженный
// idf = ln((1+n)/(1+df)) + 1 и L2-нормализация итогового вектора.
package tfidf

import (
	"math"
	"regexp"
	"sort"
	"strings"
)

// tokenPattern — юникодный аналог \b\w\w+\b.
var tokenPattern = regexp.MustCompile(`[\p{L}\p{N}_]{2,}`)

// Vector — разреженный вектор. Indices отсортированы по возрастанию.
type Vector struct {
	Indices []int
	Values  []float64
}

// IsZero сообщает, что у вектора нет ненулевых компонент.
func (v Vector) IsZero() bool {
	return len(v.Indices) == 0
}

// Dot возвращает скалярное произведение двух разреженных векторов.
// Для L2-нормализованных векторов это косинусная близость.
func Dot(a, b Vector) float64 {
	var (
		sum  float64
		i, j int
	)
	for i < len(a.Indices) && j < len(b.Indices) {
		switch {
		case a.Indices[i] == b.Indices[j]:
			sum += a.Values[i] * b.Values[j]
			i++
			j++
		case a.Indices[i] < b.Indices[j]:
			i++
		default:
			j++
		}
	}

	return sum
}

// Vectorizer хранит словарь и idf, обученные на корпусе. После Fit не изменяется.
type Vectorizer struct {
	vocabulary map[string]int
	terms      []string
	idf        []float64
}

// Fit обучает словарь на документах. Столбцы упорядочены по алфавиту термов,
// поэтому два Fit на одинаковом корпусе дают одинаковые векторы.
func Fit(docs []string) *Vectorizer {
	df := make(map[string]int)
	for _, doc := range docs {
		seen := make(map[string]struct{})
		for _, tok := range Tokenize(doc) {
			if _, ok := seen[tok]; ok {
				continue
			}
			seen[tok] = struct{}{}
			df[tok]++
		}
	}

	terms := make([]string, 0, len(df))
	for term := range df {
		terms = append(terms, term)
	}
	sort.Strings(terms)

	v := &Vectorizer{
		vocabulary: make(map[string]int, len(terms)),
		terms:      terms,
		idf:        make([]float64, len(terms)),
	}

	n := float64(len(docs))
	for i, term := range terms {
		v.vocabulary[term] = i
		v.idf[i] = math.Log((1+n)/(1+float64(df[term]))) + 1
	}

	return v
}

// Transform переводит текст в пространство обученного словаря.
// Термины вне словаря игнорируются; пустой или полностью незнакомый текст даёт нулевой вектор.
func (v *Vectorizer) Transform(text string) Vector {
	tf := make(map[int]int)
	for _, tok := range Tokenize(text) {
		if idx, ok := v.vocabulary[tok]; ok {
			tf[idx]++
		}
	}
	if len(tf) == 0 {
		return Vector{}
	}

	indices := make([]int, 0, len(tf))
	for idx := range tf {
		indices = append(indices, idx)
	}
	sort.Ints(indices)

	values := make([]float64, len(indices))
	var norm float64
	for i, idx := range indices {
		values[i] = float64(tf[idx]) * v.idf[idx]
		norm += values[i] * values[i]
	}

	norm = math.Sqrt(norm)
	for i := range values {
		values[i] /= norm
	}

	return Vector{Indices: indices, Values: values}
}

// Vocabulary возвращает термы в порядке столбцов.
func (v *Vectorizer) Vocabulary() []string {
	out := make([]string, len(v.terms))
	copy(out, v.terms)
	return out
}

// Tokenize разбивает текст на термы в нижнем регистре.
func Tokenize(text string) []string {
	return tokenPattern.FindAllString(strings.ToLower(text), -1)
}
