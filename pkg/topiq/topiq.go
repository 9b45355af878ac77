// Package topiq discovers labeled, scored topic clusters from
// document embeddings. The engine orchestrates optional
// dimensionality reduction, clustering, topic construction,
// distinctive-term extraction and label synthesis; the reduction,
// clustering and generative collaborators are injected.
package topiq

import (
	"context"
	"fmt"
	"math"

	"github.com/cognicore/topiq/pkg/topiq/cluster"
	"github.com/cognicore/topiq/pkg/topiq/internalerr"
	"github.com/cognicore/topiq/pkg/topiq/label"
	"github.com/cognicore/topiq/pkg/topiq/metrics"
	"github.com/cognicore/topiq/pkg/topiq/reduce"
	"github.com/cognicore/topiq/pkg/topiq/terms"
	"github.com/cognicore/topiq/pkg/topiq/topic"
)

const (
	// minViableSamples is the smallest valid-row count reduction will
	// proceed with.
	minViableSamples = 10

	// maxComponents caps the reduction target regardless of config.
	maxComponents = 50

	// labelSampleDocs is how many of a topic's documents the labeler
	// sees.
	labelSampleDocs = 3
)

// Config tunes the fit pipeline.
type Config struct {
	MinClusterSize   int
	MinSamples       int
	ReduceDimensions bool
	NComponents      int
	NNeighbors       int
	TopTerms         int
	LabelingMethod   label.Method
}

// DefaultConfig returns the engine defaults.
func DefaultConfig() Config {
	return Config{
		MinClusterSize:   2,
		MinSamples:       2,
		ReduceDimensions: false,
		NComponents:      5,
		NNeighbors:       15,
		TopTerms:         10,
		LabelingMethod:   label.MethodHybrid,
	}
}

// Options carries the engine's collaborators. Clusterer is required;
// Reducer and Generator are explicit optionals whose absence disables
// reduction and generative labeling respectively.
type Options struct {
	Clusterer cluster.Clusterer
	Reducer   reduce.Reducer
	Generator label.Generator
	Extractor *terms.Extractor
	Config    Config
}

// Engine runs the topic discovery pipeline. One engine holds the
// state of its latest Fit call; concurrent Fit calls on a single
// instance are not supported.
type Engine struct {
	clusterer cluster.Clusterer
	reducer   reduce.Reducer
	labeler   *label.Labeler
	extractor *terms.Extractor
	calc      *metrics.Calculator
	cfg       Config

	assignments []int
	topics      []*topic.Topic
	nDocs       int
	report      FitReport
}

// FitReport summarizes the latest Fit call.
type FitReport struct {
	Topics               int
	Outliers             int
	DiscardedInvalidType int
	DiscardedNaN         int
	DiscardedInfinite    int
	Coverage             float64
}

// New creates an engine. A missing clusterer is a construction error.
func New(opts Options) (*Engine, error) {
	if opts.Clusterer == nil {
		return nil, fmt.Errorf("%w: inject a cluster.Clusterer (for example &cluster.Centroid{}) in Options.Clusterer",
			internalerr.ErrNoClusterer)
	}
	cfg := opts.Config
	if cfg.TopTerms <= 0 {
		cfg = DefaultConfig()
	}
	extractor := opts.Extractor
	if extractor == nil {
		extractor = terms.NewExtractor(terms.NewTokenizer(nil, 0, 0))
	}
	return &Engine{
		clusterer: opts.Clusterer,
		reducer:   opts.Reducer,
		labeler:   label.NewLabeler(cfg.LabelingMethod, opts.Generator),
		extractor: extractor,
		calc:      metrics.NewCalculator(),
		cfg:       cfg,
	}, nil
}

// Fit discovers topics in one batch of embeddings and documents.
// metadata may be nil; otherwise it must parallel documents. The
// returned topics are ordered by ascending id and should be treated
// as read-only.
func (e *Engine) Fit(ctx context.Context, embeddings [][]float64, documents []string, metadata []map[string]string) ([]*topic.Topic, error) {
	if len(embeddings) != len(documents) {
		return nil, fmt.Errorf("%w: %d embeddings vs %d documents",
			internalerr.ErrLengthMismatch, len(embeddings), len(documents))
	}
	if metadata != nil && len(metadata) != len(documents) {
		return nil, fmt.Errorf("%w: %d metadata entries vs %d documents",
			internalerr.ErrLengthMismatch, len(metadata), len(documents))
	}

	e.assignments = nil
	e.topics = nil
	e.nDocs = len(documents)
	e.report = FitReport{}

	working, workingIdx, err := e.reduceStep(embeddings)
	if err != nil {
		return nil, err
	}

	clusterIDs, err := e.clusterer.FitPredict(working)
	if err != nil {
		return nil, fmt.Errorf("clustering failed: %v (likely causes: invalid embedding values, "+
			"incompatible parameters, or too few samples; try lowering min_cluster_size or min_samples)", err)
	}
	if len(clusterIDs) != len(working) {
		return nil, fmt.Errorf("clusterer returned %d assignments for %d rows", len(clusterIDs), len(working))
	}

	// Expand to one assignment per original document; rows discarded
	// during validation stay outliers.
	assignments := make([]int, len(documents))
	for i := range assignments {
		assignments[i] = cluster.Outlier
	}
	vectorAt := make([][]float64, len(documents))
	for i, orig := range workingIdx {
		id := clusterIDs[i]
		if id < 0 {
			id = cluster.Outlier
		}
		assignments[orig] = id
		vectorAt[orig] = working[i]
	}
	e.assignments = assignments

	topics, err := e.buildTopics(assignments, documents, vectorAt, metadata)
	if err != nil {
		return nil, err
	}

	for _, t := range topics {
		scored := e.extractor.DistinctiveTerms(t.Documents, documents, e.cfg.TopTerms)
		t.SetTerms(terms.Texts(scored))

		samples := t.Documents
		if len(samples) > labelSampleDocs {
			samples = samples[:labelSampleDocs]
		}
		res := e.labeler.GenerateLabel(ctx, label.Input{
			TopicID:   t.ID,
			Terms:     scored,
			Documents: samples,
		})
		t.ApplyLabel(topic.LabelInfo{
			Label:       res.Label,
			Description: res.Description,
			Confidence:  res.Confidence,
			Themes:      res.Themes,
		})
	}

	e.topics = topics
	e.report.Topics = len(topics)
	e.report.Outliers = len(e.Outliers())
	sizes := make([]int, len(topics))
	for i, t := range topics {
		sizes[i] = t.Size()
	}
	e.report.Coverage = e.calc.Coverage(sizes, len(documents))
	return topics, nil
}

// reduceStep validates and optionally reduces the embeddings,
// returning the working matrix and the original index of each row.
func (e *Engine) reduceStep(embeddings [][]float64) ([][]float64, []int, error) {
	allIdx := make([]int, len(embeddings))
	for i := range allIdx {
		allIdx[i] = i
	}

	width := 0
	if len(embeddings) > 0 {
		width = len(embeddings[0])
	}
	if !e.cfg.ReduceDimensions || e.reducer == nil || width <= e.cfg.NComponents {
		return embeddings, allIdx, nil
	}

	v := validateEmbeddings(embeddings)
	e.report.DiscardedInvalidType = v.invalidType
	e.report.DiscardedNaN = v.nan
	e.report.DiscardedInfinite = v.inf

	if len(v.valid) == 0 {
		return nil, nil, fmt.Errorf("%w: all %d embeddings are invalid (%d wrong shape, %d NaN, %d infinite); "+
			"check the embedding pipeline output before fitting",
			internalerr.ErrTooFewSamples, len(embeddings), v.invalidType, v.nan, v.inf)
	}
	if len(v.valid) < minViableSamples {
		return nil, nil, fmt.Errorf("%w: only %d of %d embeddings are valid (%d wrong shape, %d NaN, %d infinite); "+
			"at least %d are needed; fix the invalid rows or disable dimensionality reduction",
			internalerr.ErrTooFewSamples, len(v.valid), len(embeddings), v.invalidType, v.nan, v.inf, minViableSamples)
	}

	components := e.cfg.NComponents
	if limit := len(v.valid) - 1; components > limit {
		components = limit
	}
	if components > maxComponents {
		components = maxComponents
	}
	neighbors := e.cfg.NNeighbors
	if limit := len(v.valid) - 1; neighbors > limit {
		neighbors = limit
	}

	reduced, err := e.reducer.FitTransform(v.valid, components, neighbors)
	if err != nil {
		return nil, nil, fmt.Errorf("dimensionality reduction failed: %v (likely causes: invalid embedding values, "+
			"incompatible parameters, or too few samples; try lowering n_components or n_neighbors)", err)
	}
	if len(reduced) != len(v.valid) {
		return nil, nil, fmt.Errorf("reducer returned %d rows for %d inputs", len(reduced), len(v.valid))
	}
	return reduced, v.indices, nil
}

// buildTopics groups document indices by non-outlier cluster id, in
// ascending id order.
func (e *Engine) buildTopics(assignments []int, documents []string, vectorAt [][]float64, metadata []map[string]string) ([]*topic.Topic, error) {
	groups := make(map[int][]int)
	maxID := -1
	for idx, id := range assignments {
		if id == cluster.Outlier {
			continue
		}
		groups[id] = append(groups[id], idx)
		if id > maxID {
			maxID = id
		}
	}

	var topics []*topic.Topic
	for id := 0; id <= maxID; id++ {
		indices, ok := groups[id]
		if !ok {
			continue
		}
		docs := make([]string, len(indices))
		vecs := make([][]float64, len(indices))
		var meta []map[string]string
		if metadata != nil {
			meta = make([]map[string]string, len(indices))
		}
		for i, idx := range indices {
			docs[i] = documents[idx]
			vecs[i] = vectorAt[idx]
			if meta != nil {
				meta[i] = metadata[idx]
			}
		}
		t, err := topic.New(id, indices, docs, vecs, meta)
		if err != nil {
			return nil, err
		}
		topics = append(topics, t)
	}
	return topics, nil
}

// Topics returns the latest fit result, ordered by ascending id.
func (e *Engine) Topics() []*topic.Topic {
	return e.topics
}

// Report returns the summary of the latest Fit call.
func (e *Engine) Report() FitReport {
	return e.report
}

// Outliers returns the document indices the latest fit left
// unassigned, including rows discarded during validation.
func (e *Engine) Outliers() []int {
	var outliers []int
	for idx, id := range e.assignments {
		if id == cluster.Outlier {
			outliers = append(outliers, idx)
		}
	}
	return outliers
}

// Transform assigns new embeddings to the fitted topics. When the
// clusterer supports approximate prediction it is delegated to;
// otherwise each row goes to the topic with the nearest centroid
// under Euclidean distance, ties to the lowest topic id. Vectors must
// be in the space the topics were fitted in.
func (e *Engine) Transform(newEmbeddings [][]float64) ([]int, error) {
	if len(e.topics) == 0 {
		return nil, fmt.Errorf("%w: call Fit (or load a run) before Transform", internalerr.ErrNotFitted)
	}

	if ap, ok := e.clusterer.(cluster.ApproximatePredictor); ok {
		ids, err := ap.ApproximatePredict(newEmbeddings)
		if err == nil {
			return ids, nil
		}
		// Fall through to centroid assignment when the approximate
		// path is unavailable for this clusterer state.
	}

	ids := make([]int, len(newEmbeddings))
	for i, vec := range newEmbeddings {
		best := cluster.Outlier
		bestDist := math.Inf(1)
		for _, t := range e.topics {
			centroid := t.Centroid()
			if centroid == nil {
				continue
			}
			if d := euclidean(vec, centroid); d < bestDist {
				bestDist = d
				best = t.ID
			}
		}
		ids[i] = best
	}
	return ids, nil
}

// Quality scores the latest fit with the metrics calculator.
type Quality struct {
	Diversity            float64
	Coverage             float64
	TopicCoherence       map[int]float64
	TopicDistinctiveness map[int]float64
	TopicSilhouette      map[int]float64
}

// Quality computes per-topic and aggregate quality metrics for the
// latest fit.
func (e *Engine) Quality() Quality {
	q := Quality{
		TopicCoherence:       make(map[int]float64),
		TopicDistinctiveness: make(map[int]float64),
		TopicSilhouette:      make(map[int]float64),
	}
	if len(e.topics) == 0 {
		return q
	}

	termSets := make([][]string, len(e.topics))
	sizes := make([]int, len(e.topics))
	for i, t := range e.topics {
		termSets[i] = t.Terms()
		sizes[i] = t.Size()
	}
	q.Diversity = e.calc.Diversity(termSets)
	q.Coverage = e.calc.Coverage(sizes, e.nDocs)

	for i, t := range e.topics {
		others := make([][]string, 0, len(e.topics)-1)
		otherVecs := make([][][]float64, 0, len(e.topics)-1)
		for j, o := range e.topics {
			if j == i {
				continue
			}
			others = append(others, o.Terms())
			otherVecs = append(otherVecs, o.Embeddings)
		}
		q.TopicCoherence[t.ID] = t.Coherence()
		q.TopicDistinctiveness[t.ID] = e.calc.Distinctiveness(t.Terms(), others)
		q.TopicSilhouette[t.ID] = e.calc.Silhouette(t.Embeddings, otherVecs)
	}
	return q
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
