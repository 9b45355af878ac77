package topiq

import (
	"context"
	"errors"
	"math"
	"path/filepath"
	"reflect"
	"strings"
	"testing"

	"github.com/cognicore/topiq/pkg/topiq/cluster"
	"github.com/cognicore/topiq/pkg/topiq/internalerr"
)

// stubClusterer returns a fixed assignment vector.
type stubClusterer struct {
	ids []int
	err error
}

func (s *stubClusterer) FitPredict([][]float64) ([]int, error) {
	return s.ids, s.err
}

// approxClusterer adds a canned approximate-prediction capability.
type approxClusterer struct {
	stubClusterer
	approx []int
}

func (a *approxClusterer) ApproximatePredict([][]float64) ([]int, error) {
	return a.approx, nil
}

// truncReducer keeps the first `components` columns of each row.
type truncReducer struct{}

func (truncReducer) FitTransform(rows [][]float64, components, _ int) ([][]float64, error) {
	out := make([][]float64, len(rows))
	for i, row := range rows {
		out[i] = row[:components]
	}
	return out, nil
}

func twoGroupCorpus() ([][]float64, []string) {
	embeddings := [][]float64{
		{1.0, 0.0}, {0.9, 0.1}, {1.1, 0.0}, {0.95, 0.05}, {1.05, -0.05},
		{0.0, 1.0}, {0.1, 0.9}, {0.0, 1.1}, {-0.05, 0.95},
	}
	documents := []string{
		"neural networks learn features",
		"deep neural networks scale",
		"training neural networks",
		"neural network architectures",
		"networks with neural layers",
		"stock markets fell today",
		"markets rally on earnings",
		"bond markets are quiet",
		"emerging markets update",
	}
	return embeddings, documents
}

func newTestEngine(t *testing.T, c cluster.Clusterer) *Engine {
	t.Helper()
	e, err := New(Options{Clusterer: c, Config: DefaultConfig()})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return e
}

func TestNewRequiresClusterer(t *testing.T) {
	_, err := New(Options{})
	if !errors.Is(err, internalerr.ErrNoClusterer) {
		t.Errorf("err = %v, want ErrNoClusterer", err)
	}
}

func TestFitRejectsLengthMismatch(t *testing.T) {
	e := newTestEngine(t, &stubClusterer{})
	_, err := e.Fit(context.Background(), [][]float64{{1}}, []string{"a", "b"}, nil)
	if !errors.Is(err, internalerr.ErrLengthMismatch) {
		t.Errorf("err = %v, want ErrLengthMismatch", err)
	}

	_, err = e.Fit(context.Background(), [][]float64{{1}}, []string{"a"}, []map[string]string{{}, {}})
	if !errors.Is(err, internalerr.ErrLengthMismatch) {
		t.Errorf("metadata err = %v, want ErrLengthMismatch", err)
	}
}

func TestFitTwoGroupScenario(t *testing.T) {
	embeddings, documents := twoGroupCorpus()
	e := newTestEngine(t, &stubClusterer{ids: []int{0, 0, 0, 0, 0, 1, 1, 1, 1}})

	topics, err := e.Fit(context.Background(), embeddings, documents, nil)
	if err != nil {
		t.Fatalf("Fit: %v", err)
	}

	if len(topics) != 2 {
		t.Fatalf("got %d topics, want 2", len(topics))
	}
	if topics[0].ID != 0 || topics[1].ID != 1 {
		t.Errorf("topic ids = %d, %d", topics[0].ID, topics[1].ID)
	}
	if topics[0].Size() != 5 || topics[1].Size() != 4 {
		t.Errorf("sizes = %d, %d, want 5, 4", topics[0].Size(), topics[1].Size())
	}
	if outliers := e.Outliers(); len(outliers) != 0 {
		t.Errorf("outliers = %v, want none", outliers)
	}

	// Parallel-slice invariant: documents and embeddings match the
	// original arrays at the recorded indices.
	for _, tp := range topics {
		for i, idx := range tp.DocumentIndices {
			if tp.Documents[i] != documents[idx] {
				t.Errorf("topic %d doc %d mismatch", tp.ID, i)
			}
			if !reflect.DeepEqual(tp.Embeddings[i], embeddings[idx]) {
				t.Errorf("topic %d embedding %d mismatch", tp.ID, i)
			}
		}
	}

	// Every topic got terms and a label.
	for _, tp := range topics {
		if len(tp.Terms()) == 0 {
			t.Errorf("topic %d has no terms", tp.ID)
		}
		if tp.Label() == "" {
			t.Errorf("topic %d unlabeled", tp.ID)
		}
	}
}

func TestFitSizesPlusOutliersCoverCorpus(t *testing.T) {
	embeddings, documents := twoGroupCorpus()
	e := newTestEngine(t, &stubClusterer{ids: []int{0, 0, 0, 0, -1, 1, 1, 1, -1}})

	topics, err := e.Fit(context.Background(), embeddings, documents, nil)
	if err != nil {
		t.Fatalf("Fit: %v", err)
	}

	total := 0
	for _, tp := range topics {
		total += tp.Size()
	}
	if total+len(e.Outliers()) != len(documents) {
		t.Errorf("sizes %d + outliers %d != %d documents", total, len(e.Outliers()), len(documents))
	}
	if !reflect.DeepEqual(e.Outliers(), []int{4, 8}) {
		t.Errorf("outliers = %v, want [4 8]", e.Outliers())
	}
}

func TestFitSkipsMissingClusterIDs(t *testing.T) {
	embeddings, documents := twoGroupCorpus()
	// Cluster ids with a gap: 0 and 2. Topic ids stay unique and
	// ascending; no empty topic is materialized for id 1.
	e := newTestEngine(t, &stubClusterer{ids: []int{0, 0, 0, 0, 0, 2, 2, 2, 2}})

	topics, err := e.Fit(context.Background(), embeddings, documents, nil)
	if err != nil {
		t.Fatalf("Fit: %v", err)
	}
	if len(topics) != 2 || topics[0].ID != 0 || topics[1].ID != 2 {
		t.Fatalf("topics = %v", topics)
	}
}

func TestFitWrapsClustererFailure(t *testing.T) {
	embeddings, documents := twoGroupCorpus()
	e := newTestEngine(t, &stubClusterer{err: errors.New("singular matrix")})

	_, err := e.Fit(context.Background(), embeddings, documents, nil)
	if err == nil {
		t.Fatal("expected error")
	}
	if got := err.Error(); !strings.Contains(got, "singular matrix") || !strings.Contains(got, "min_cluster_size") {
		t.Errorf("error should preserve detail and suggest adjustments: %q", got)
	}
}

func TestFitMetadataCarriedPerTopic(t *testing.T) {
	embeddings, documents := twoGroupCorpus()
	metadata := make([]map[string]string, len(documents))
	for i := range metadata {
		metadata[i] = map[string]string{"pos": string(rune('a' + i))}
	}
	e := newTestEngine(t, &stubClusterer{ids: []int{0, 0, 0, 0, 0, 1, 1, 1, 1}})

	topics, err := e.Fit(context.Background(), embeddings, documents, metadata)
	if err != nil {
		t.Fatalf("Fit: %v", err)
	}
	for _, tp := range topics {
		for i, idx := range tp.DocumentIndices {
			if tp.Metadata[i]["pos"] != metadata[idx]["pos"] {
				t.Errorf("topic %d metadata %d mismatch", tp.ID, i)
			}
		}
	}
}

func reductionConfig() Config {
	cfg := DefaultConfig()
	cfg.ReduceDimensions = true
	cfg.NComponents = 2
	return cfg
}

func TestFitReductionDiscardsInvalidRows(t *testing.T) {
	// 12 valid 4-wide rows plus one NaN row and one ragged row.
	var embeddings [][]float64
	var documents []string
	ids := make([]int, 12)
	for i := 0; i < 12; i++ {
		embeddings = append(embeddings, []float64{float64(i), 1, 2, 3})
		documents = append(documents, "valid document text")
		ids[i] = 0
	}
	embeddings = append(embeddings, []float64{math.NaN(), 1, 2, 3})
	documents = append(documents, "nan row")
	embeddings = append(embeddings, []float64{1})
	documents = append(documents, "ragged row")

	e, err := New(Options{
		Clusterer: &stubClusterer{ids: ids},
		Reducer:   truncReducer{},
		Config:    reductionConfig(),
	})
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	topics, err := e.Fit(context.Background(), embeddings, documents, nil)
	if err != nil {
		t.Fatalf("Fit: %v", err)
	}

	if len(topics) != 1 || topics[0].Size() != 12 {
		t.Fatalf("topics = %d, size = %d", len(topics), topics[0].Size())
	}
	// Invalid rows become forced outliers, never synthetic points.
	if !reflect.DeepEqual(e.Outliers(), []int{12, 13}) {
		t.Errorf("outliers = %v, want [12 13]", e.Outliers())
	}

	report := e.Report()
	if report.DiscardedNaN != 1 || report.DiscardedInvalidType != 1 {
		t.Errorf("report = %+v", report)
	}

	// Topic embeddings live in the reduced space.
	if got := len(topics[0].Embeddings[0]); got != 2 {
		t.Errorf("reduced width = %d, want 2", got)
	}
}

func TestFitReductionTooFewValidRows(t *testing.T) {
	var embeddings [][]float64
	var documents []string
	for i := 0; i < 5; i++ {
		embeddings = append(embeddings, []float64{float64(i), 1, 2, 3})
		documents = append(documents, "doc")
	}
	for i := 0; i < 4; i++ {
		embeddings = append(embeddings, []float64{math.Inf(1), 1, 2, 3})
		documents = append(documents, "doc")
	}

	e, err := New(Options{
		Clusterer: &stubClusterer{},
		Reducer:   truncReducer{},
		Config:    reductionConfig(),
	})
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	_, err = e.Fit(context.Background(), embeddings, documents, nil)
	if !errors.Is(err, internalerr.ErrTooFewSamples) {
		t.Errorf("err = %v, want ErrTooFewSamples", err)
	}
}

func TestTransformBeforeFit(t *testing.T) {
	e := newTestEngine(t, &stubClusterer{})
	if _, err := e.Transform([][]float64{{1, 0}}); !errors.Is(err, internalerr.ErrNotFitted) {
		t.Errorf("err = %v, want ErrNotFitted", err)
	}
}

func TestTransformNearestCentroid(t *testing.T) {
	// Symmetric groups so centroids land exactly on (1,0) and (0,1).
	embeddings := [][]float64{{1, 0}, {1, 0}, {0, 1}, {0, 1}}
	documents := []string{
		"neural networks research",
		"neural networks training",
		"stock markets report",
		"stock markets analysis",
	}
	e := newTestEngine(t, &stubClusterer{ids: []int{0, 0, 1, 1}})
	if _, err := e.Fit(context.Background(), embeddings, documents, nil); err != nil {
		t.Fatalf("Fit: %v", err)
	}

	got, err := e.Transform([][]float64{
		{0.9, 0.1}, // near group 0
		{0.1, 0.9}, // near group 1
		{0.5, 0.5}, // equidistant: lowest id wins
	})
	if err != nil {
		t.Fatalf("Transform: %v", err)
	}
	want := []int{0, 1, 0}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("Transform = %v, want %v", got, want)
	}
}

func TestTransformDelegatesToApproximatePredictor(t *testing.T) {
	embeddings, documents := twoGroupCorpus()
	c := &approxClusterer{
		stubClusterer: stubClusterer{ids: []int{0, 0, 0, 0, 0, 1, 1, 1, 1}},
		approx:        []int{1, 1},
	}
	e := newTestEngine(t, c)
	if _, err := e.Fit(context.Background(), embeddings, documents, nil); err != nil {
		t.Fatalf("Fit: %v", err)
	}

	got, err := e.Transform([][]float64{{1, 0}, {1, 0}})
	if err != nil {
		t.Fatalf("Transform: %v", err)
	}
	if !reflect.DeepEqual(got, []int{1, 1}) {
		t.Errorf("Transform = %v, want the approximate predictor's answer", got)
	}
}

func TestQuality(t *testing.T) {
	embeddings, documents := twoGroupCorpus()
	e := newTestEngine(t, &stubClusterer{ids: []int{0, 0, 0, 0, 0, 1, 1, 1, 1}})
	if _, err := e.Fit(context.Background(), embeddings, documents, nil); err != nil {
		t.Fatalf("Fit: %v", err)
	}

	q := e.Quality()
	if q.Coverage != 1.0 {
		t.Errorf("coverage = %f, want 1", q.Coverage)
	}
	if q.Diversity <= 0.5 {
		t.Errorf("diversity = %f, want high for disjoint vocabularies", q.Diversity)
	}
	for id, s := range q.TopicSilhouette {
		if s <= 0 {
			t.Errorf("silhouette[%d] = %f, want positive for separated groups", id, s)
		}
	}
	for id, d := range q.TopicDistinctiveness {
		if d <= 0.5 {
			t.Errorf("distinctiveness[%d] = %f, want high", id, d)
		}
	}
}

func TestSaveLoadRoundTrip(t *testing.T) {
	embeddings, documents := twoGroupCorpus()
	e := newTestEngine(t, &stubClusterer{ids: []int{0, 0, 0, 0, 0, 1, 1, 1, 1}})
	if _, err := e.Fit(context.Background(), embeddings, documents, nil); err != nil {
		t.Fatalf("Fit: %v", err)
	}

	path := filepath.Join(t.TempDir(), "topics.json")
	if err := e.Save(path); err != nil {
		t.Fatalf("Save: %v", err)
	}

	loaded := newTestEngine(t, &stubClusterer{})
	if err := loaded.Load(path); err != nil {
		t.Fatalf("Load: %v", err)
	}

	orig := e.Topics()
	got := loaded.Topics()
	if len(got) != len(orig) {
		t.Fatalf("loaded %d topics, want %d", len(got), len(orig))
	}
	for i, tp := range got {
		if tp.ID != orig[i].ID || tp.Label() != orig[i].Label() || tp.Size() != orig[i].Size() {
			t.Errorf("topic %d id/label/size changed", i)
		}
		if !reflect.DeepEqual(tp.Terms(), orig[i].Terms()) {
			t.Errorf("topic %d terms = %v, want %v", i, tp.Terms(), orig[i].Terms())
		}
		if tp.Coherence() != orig[i].Coherence() {
			t.Errorf("topic %d coherence = %f, want %f", i, tp.Coherence(), orig[i].Coherence())
		}
		// Documented limitation: content is not persisted.
		if len(tp.Documents) != 0 || len(tp.Embeddings) != 0 {
			t.Errorf("topic %d should load without documents/embeddings", i)
		}
	}

	// Transform still works through the persisted centroids.
	ids, err := loaded.Transform([][]float64{{1, 0}})
	if err != nil {
		t.Fatalf("Transform after Load: %v", err)
	}
	if ids[0] != 0 {
		t.Errorf("Transform after Load = %v", ids)
	}
}
