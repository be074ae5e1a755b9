package search

import "sort"

type candidate struct {
	pos   int
	score float64
}

// topK выбирает k лучших позиций по убыванию score. При равенстве выигрывает
// позиция, раньше встретившаяся в каталоге. Позиция exclude (если >= 0) пропускается.
func topK(scores []float64, k int, exclude int) []candidate {
	if k <= 0 {
		return nil
	}

	cands := make([]candidate, 0, len(scores))
	for pos, s := range scores {
		if pos == exclude {
			continue
		}
		cands = append(cands, candidate{pos: pos, score: s})
	}

	sort.SliceStable(cands, func(i, j int) bool {
		return cands[i].score > cands[j].score
	})

	if k > len(cands) {
		k = len(cands)
	}

	return cands[:k]
}
