package semantic

import (
	"container/heap"
	"math"
)

// CosineSimilarity computes the cosine similarity between two vectors.
// Returns 0 when either vector has zero magnitude or the lengths differ;
// that is an edge policy, not an error.
func CosineSimilarity(a, b []float32) float32 {
	if len(a) != len(b) || len(a) == 0 {
		return 0
	}

	var dot, normA, normB float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		normA += float64(a[i]) * float64(a[i])
		normB += float64(b[i]) * float64(b[i])
	}

	denom := math.Sqrt(normA) * math.Sqrt(normB)
	if denom == 0 {
		return 0
	}
	return float32(dot / denom)
}

// MeanVector computes the element-wise arithmetic mean of the given
// vectors. Returns ErrEmptyInput for an empty slice; callers must guard
// against an empty library before calling.
func MeanVector(vecs [][]float32) ([]float32, error) {
	if len(vecs) == 0 {
		return nil, ErrEmptyInput
	}

	mean := make([]float32, len(vecs[0]))
	for _, v := range vecs {
		for i := range v {
			mean[i] += v[i]
		}
	}
	n := float32(len(vecs))
	for i := range mean {
		mean[i] /= n
	}
	return mean, nil
}

// scoredID pairs a paper id with its similarity to the query.
type scoredID struct {
	id    int64
	score float32
}

// ranksBelow reports whether a sorts after b: lower similarity first,
// higher id first on equal similarity. The inverse of result order.
func ranksBelow(a, b scoredID) bool {
	if a.score != b.score {
		return a.score < b.score
	}
	return a.id > b.id
}

// candidateHeap is a min-heap over the k best candidates seen so far,
// with the worst candidate at the root.
type candidateHeap []scoredID

func (h candidateHeap) Len() int            { return len(h) }
func (h candidateHeap) Less(i, j int) bool  { return ranksBelow(h[i], h[j]) }
func (h candidateHeap) Swap(i, j int)       { h[i], h[j] = h[j], h[i] }
func (h *candidateHeap) Push(x interface{}) { *h = append(*h, x.(scoredID)) }
func (h *candidateHeap) Pop() interface{} {
	old := *h
	n := len(old)
	x := old[n-1]
	*h = old[:n-1]
	return x
}

// RankAgainst scores every row of snap against query and returns up to
// topK paper ids, best first. Ids in exclude are never returned. Order
// is descending similarity with ascending-id tie-break, identical to a
// full sort followed by truncation; a bounded heap keeps the selection
// at O(n log k) instead of sorting the whole snapshot.
func RankAgainst(query []float32, snap *Snapshot, topK int, exclude map[int64]struct{}) []int64 {
	if snap == nil || snap.Len() == 0 || topK <= 0 {
		return nil
	}

	best := make(candidateHeap, 0, topK)
	for row, id := range snap.ids {
		if _, skip := exclude[id]; skip {
			continue
		}
		cand := scoredID{id: id, score: CosineSimilarity(query, snap.vecs[row])}
		if len(best) < topK {
			heap.Push(&best, cand)
			continue
		}
		if ranksBelow(best[0], cand) {
			best[0] = cand
			heap.Fix(&best, 0)
		}
	}

	out := make([]int64, len(best))
	for i := len(best) - 1; i >= 0; i-- {
		out[i] = heap.Pop(&best).(scoredID).id
	}
	return out
}
