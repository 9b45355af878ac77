// Package cluster defines the clustering collaborator contract used
// by the engine, plus a simple built-in greedy centroid clusterer.
package cluster

// Outlier is the reserved cluster id meaning "not assigned to any
// cluster".
const Outlier = -1

// Clusterer assigns one cluster id (or Outlier) per input row, in
// input order.
type Clusterer interface {
	FitPredict(embeddings [][]float64) ([]int, error)
}

// ApproximatePredictor is an optional capability: assign new rows to
// existing clusters without retraining.
type ApproximatePredictor interface {
	ApproximatePredict(embeddings [][]float64) ([]int, error)
}
