package vector

import (
	"math"
	"sort"
)

// Document is one scored unit of a run-scoped similarity search. The index is
// rebuilt for every pipeline run; nothing survives between runs.
type Document struct {
	Offset int
	Text   string
	Vector []float32
}

type Match struct {
	Document
	Score float64
}

// TopK scores every document against the query vector and returns the best k
// by cosine similarity, highest first. Ties keep document order.
func TopK(docs []Document, query []float32, k int) []Match {
	if k <= 0 {
		k = 4
	}
	matches := make([]Match, 0, len(docs))
	for _, d := range docs {
		matches = append(matches, Match{Document: d, Score: Cosine(d.Vector, query)})
	}
	sort.SliceStable(matches, func(i, j int) bool { return matches[i].Score > matches[j].Score })
	if len(matches) > k {
		matches = matches[:k]
	}
	return matches
}

func Cosine(a, b []float32) float64 {
	n := len(a)
	if len(b) < n {
		n = len(b)
	}
	var dot, na, nb float64
	for i := 0; i < n; i++ {
		dot += float64(a[i]) * float64(b[i])
		na += float64(a[i]) * float64(a[i])
		nb += float64(b[i]) * float64(b[i])
	}
	if na == 0 || nb == 0 {
		return 0
	}
	return dot / (math.Sqrt(na) * math.Sqrt(nb))
}
