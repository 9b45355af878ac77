package cluster

import (
	"fmt"
	"math"

	"github.com/cognicore/topiq/pkg/topiq/internalerr"
)

// Centroid is a greedy single-pass clusterer: each row joins the
// first cluster whose running centroid is at least Threshold cosine
// similar, otherwise it starts a new cluster. Clusters smaller than
// MinClusterSize are dissolved into outliers and the surviving ids
// compacted to 0..k-1 in first-seen order.
type Centroid struct {
	Threshold      float64 // minimum cosine similarity, default 0.7
	MinClusterSize int     // default 2

	centroids [][]float64
}

type runningCluster struct {
	sum     []float64
	members []int
}

// FitPredict clusters the rows and returns one id (or Outlier) each.
func (c *Centroid) FitPredict(embeddings [][]float64) ([]int, error) {
	if len(embeddings) == 0 {
		return nil, fmt.Errorf("centroid clusterer: %w: empty input", internalerr.ErrTooFewSamples)
	}
	threshold := c.Threshold
	if threshold <= 0 {
		threshold = 0.7
	}
	minSize := c.MinClusterSize
	if minSize <= 0 {
		minSize = 2
	}

	var clusters []runningCluster
	for i, vec := range embeddings {
		best := -1
		bestSim := threshold
		for j := range clusters {
			mean := scale(clusters[j].sum, 1.0/float64(len(clusters[j].members)))
			if sim := cosine(vec, mean); sim >= bestSim {
				best = j
				bestSim = sim
			}
		}
		if best < 0 {
			clusters = append(clusters, runningCluster{sum: clone(vec), members: []int{i}})
			continue
		}
		add(clusters[best].sum, vec)
		clusters[best].members = append(clusters[best].members, i)
	}

	assignments := make([]int, len(embeddings))
	for i := range assignments {
		assignments[i] = Outlier
	}

	c.centroids = nil
	next := 0
	for _, cl := range clusters {
		if len(cl.members) < minSize {
			continue
		}
		for _, idx := range cl.members {
			assignments[idx] = next
		}
		c.centroids = append(c.centroids, scale(cl.sum, 1.0/float64(len(cl.members))))
		next++
	}
	return assignments, nil
}

// ApproximatePredict assigns new rows to the nearest fitted centroid,
// or Outlier when none clears the similarity threshold.
func (c *Centroid) ApproximatePredict(embeddings [][]float64) ([]int, error) {
	if c.centroids == nil {
		return nil, fmt.Errorf("centroid clusterer: %w", internalerr.ErrNotFitted)
	}
	threshold := c.Threshold
	if threshold <= 0 {
		threshold = 0.7
	}

	assignments := make([]int, len(embeddings))
	for i, vec := range embeddings {
		best := Outlier
		bestSim := threshold
		for id, centroid := range c.centroids {
			if sim := cosine(vec, centroid); sim > bestSim {
				best = id
				bestSim = sim
			}
		}
		assignments[i] = best
	}
	return assignments, nil
}

func cosine(a, b []float64) float64 {
	n := len(a)
	if len(b) < n {
		n = len(b)
	}
	var dot, na, nb float64
	for i := 0; i < n; i++ {
		dot += a[i] * b[i]
		na += a[i] * a[i]
		nb += b[i] * b[i]
	}
	if na == 0 || nb == 0 {
		return 0
	}
	return dot / (math.Sqrt(na) * math.Sqrt(nb))
}

func clone(v []float64) []float64 {
	out := make([]float64, len(v))
	copy(out, v)
	return out
}

func add(dst, src []float64) {
	for i := 0; i < len(dst) && i < len(src); i++ {
		dst[i] += src[i]
	}
}

func scale(v []float64, f float64) []float64 {
	out := make([]float64, len(v))
	for i := range v {
		out[i] = v[i] * f
	}
	return out
}
