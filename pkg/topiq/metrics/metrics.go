// Package metrics scores topic quality: coherence, distinctiveness,
// diversity, coverage and silhouette. All functions take plain term
// and embedding slices so callers can adapt whatever topic shape they
// hold; degenerate inputs return neutral values instead of failing.
package metrics

import (
	"math"
	"strings"
)

// DefaultTopTermSet is the number of leading terms compared when two
// topics' term sets are measured against each other.
const DefaultTopTermSet = 20

// Calculator computes topic quality metrics
type Calculator struct {
	topTermSet int
}

// NewCalculator creates a calculator comparing the leading
// DefaultTopTermSet terms of each topic.
func NewCalculator() *Calculator {
	return &Calculator{topTermSet: DefaultTopTermSet}
}

// Coherence computes UMass coherence over the top topN terms.
//
// A pair of terms co-occurs in a document when both appear as
// substrings of the lowercased text. For each ordered pair (i > j)
// with co-occurrence c > 0 and document frequency df_j > 0 the score
// ln((c+1)/df_j) is accumulated; the raw score is the mean over
// evaluated pairs (0 if none) and is squashed into [0,1] with the
// logistic function. Empty term lists score 0.
func (c *Calculator) Coherence(termList []string, documents []string, topN int) float64 {
	if len(termList) == 0 || len(documents) == 0 {
		return 0.0
	}
	if topN <= 0 {
		topN = 10
	}
	if len(termList) > topN {
		termList = termList[:topN]
	}

	lowered := make([]string, len(documents))
	for i, doc := range documents {
		lowered[i] = strings.ToLower(doc)
	}

	df := make([]int, len(termList))
	for i, term := range termList {
		for _, doc := range lowered {
			if strings.Contains(doc, term) {
				df[i]++
			}
		}
	}

	var sum float64
	var pairs int
	for i := 1; i < len(termList); i++ {
		for j := 0; j < i; j++ {
			if df[j] == 0 {
				continue
			}
			co := 0
			for _, doc := range lowered {
				if strings.Contains(doc, termList[i]) && strings.Contains(doc, termList[j]) {
					co++
				}
			}
			if co == 0 {
				continue
			}
			sum += math.Log(float64(co+1) / float64(df[j]))
			pairs++
		}
	}

	raw := 0.0
	if pairs > 0 {
		raw = sum / float64(pairs)
	}
	return logistic(raw)
}

// Distinctiveness measures how much a topic's leading terms differ
// from every other topic's. Returns 1 when there is nothing to
// compare against.
func (c *Calculator) Distinctiveness(topicTerms []string, otherTerms [][]string) float64 {
	if len(otherTerms) == 0 {
		return 1.0
	}
	own := termSet(topicTerms, c.topTermSet)

	var sum float64
	var compared int
	for _, other := range otherTerms {
		sum += jaccard(own, termSet(other, c.topTermSet))
		compared++
	}
	if compared == 0 {
		return 1.0
	}
	return 1.0 - sum/float64(compared)
}

// Diversity is the mean pairwise Jaccard distance between all topics'
// leading term sets; fewer than two topics score 0.
func (c *Calculator) Diversity(topicTerms [][]string) float64 {
	if len(topicTerms) < 2 {
		return 0.0
	}
	sets := make([]map[string]struct{}, len(topicTerms))
	for i, ts := range topicTerms {
		sets[i] = termSet(ts, c.topTermSet)
	}

	var sum float64
	var pairs int
	for i := 0; i < len(sets); i++ {
		for j := i + 1; j < len(sets); j++ {
			sum += 1.0 - jaccard(sets[i], sets[j])
			pairs++
		}
	}
	return sum / float64(pairs)
}

// Coverage is the fraction of the corpus assigned to any topic.
func (c *Calculator) Coverage(topicSizes []int, totalDocuments int) float64 {
	if totalDocuments == 0 {
		return 0.0
	}
	assigned := 0
	for _, size := range topicSizes {
		assigned += size
	}
	return float64(assigned) / float64(totalDocuments)
}

// Silhouette computes the mean silhouette score of a topic's points.
// For each point, a is the mean distance to the rest of its own topic
// (0 for a single member) and b the minimum over other topics of the
// mean distance to that topic's points.
func (c *Calculator) Silhouette(own [][]float64, others [][][]float64) float64 {
	if len(own) == 0 || len(others) == 0 {
		return 0.0
	}

	var sum float64
	for i, point := range own {
		a := 0.0
		if len(own) > 1 {
			var dist float64
			for j, peer := range own {
				if j == i {
					continue
				}
				dist += euclidean(point, peer)
			}
			a = dist / float64(len(own)-1)
		}

		b := math.Inf(1)
		for _, group := range others {
			if len(group) == 0 {
				continue
			}
			var dist float64
			for _, peer := range group {
				dist += euclidean(point, peer)
			}
			if mean := dist / float64(len(group)); mean < b {
				b = mean
			}
		}
		if math.IsInf(b, 1) {
			continue
		}

		denom := math.Max(a, b)
		if denom == 0 {
			continue
		}
		sum += (b - a) / denom
	}
	return sum / float64(len(own))
}

func logistic(x float64) float64 {
	return 1.0 / (1.0 + math.Exp(-x))
}

func termSet(termList []string, top int) map[string]struct{} {
	if len(termList) > top {
		termList = termList[:top]
	}
	set := make(map[string]struct{}, len(termList))
	for _, t := range termList {
		set[t] = struct{}{}
	}
	return set
}

func jaccard(a, b map[string]struct{}) float64 {
	if len(a) == 0 && len(b) == 0 {
		return 0.0
	}
	inter := 0
	for t := range a {
		if _, ok := b[t]; ok {
			inter++
		}
	}
	union := len(a) + len(b) - inter
	if union == 0 {
		return 0.0
	}
	return float64(inter) / float64(union)
}

func euclidean(a, b []float64) float64 {
	n := len(a)
	if len(b) < n {
		n = len(b)
	}
	var sum float64
	for i := 0; i < n; i++ {
		d := a[i] - b[i]
		sum += d * d
	}
	return math.Sqrt(sum)
}
