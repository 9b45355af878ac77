package topiq

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/cognicore/topiq/pkg/topiq/label"
	"github.com/cognicore/topiq/pkg/topiq/store"
	"github.com/cognicore/topiq/pkg/topiq/topic"
)

// snapshotDoc is the persisted topic-set document. It carries topic
// metadata and the run configuration; documents and embeddings are
// not persisted, which loading callers must accommodate.
type snapshotDoc struct {
	Topics []topicSnapshot `json:"topics"`
	Config configSnapshot  `json:"config"`
}

type topicSnapshot struct {
	ID              int       `json:"id"`
	Label           string    `json:"label"`
	DocumentIndices []int     `json:"document_indices"`
	Terms           []string  `json:"terms"`
	Centroid        []float64 `json:"centroid"`
	Size            int       `json:"size"`
	Coherence       float64   `json:"coherence"`
}

type configSnapshot struct {
	MinClusterSize   int    `json:"min_cluster_size"`
	MinSamples       int    `json:"min_samples"`
	ReduceDimensions bool   `json:"reduce_dimensions"`
	NComponents      int    `json:"n_components"`
	LabelingMethod   string `json:"labeling_method"`
}

func (e *Engine) snapshot() snapshotDoc {
	doc := snapshotDoc{
		Topics: make([]topicSnapshot, 0, len(e.topics)),
		Config: configSnapshot{
			MinClusterSize:   e.cfg.MinClusterSize,
			MinSamples:       e.cfg.MinSamples,
			ReduceDimensions: e.cfg.ReduceDimensions,
			NComponents:      e.cfg.NComponents,
			LabelingMethod:   string(e.cfg.LabelingMethod),
		},
	}
	for _, t := range e.topics {
		doc.Topics = append(doc.Topics, topicSnapshot{
			ID:              t.ID,
			Label:           t.Label(),
			DocumentIndices: t.DocumentIndices,
			Terms:           t.Terms(),
			Centroid:        t.Centroid(),
			Size:            t.Size(),
			Coherence:       t.Coherence(),
		})
	}
	return doc
}

func (e *Engine) restore(doc snapshotDoc) {
	e.topics = nil
	e.assignments = nil
	e.nDocs = 0
	e.report = FitReport{}
	for _, ts := range doc.Topics {
		e.topics = append(e.topics, topic.Restore(
			ts.ID, ts.DocumentIndices, ts.Terms, ts.Label, ts.Centroid, ts.Coherence))
	}
	e.cfg.MinClusterSize = doc.Config.MinClusterSize
	e.cfg.MinSamples = doc.Config.MinSamples
	e.cfg.ReduceDimensions = doc.Config.ReduceDimensions
	e.cfg.NComponents = doc.Config.NComponents
	if doc.Config.LabelingMethod != "" {
		e.cfg.LabelingMethod = label.ParseMethod(doc.Config.LabelingMethod)
	}
}

// Save writes the current topic set and configuration to path as
// JSON.
func (e *Engine) Save(path string) error {
	data, err := json.MarshalIndent(e.snapshot(), "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o644)
}

// Load replaces the engine's topics with a previously saved set.
// Loaded topics have no documents or embeddings; Transform works via
// the persisted centroids, Outliers reports nothing.
func (e *Engine) Load(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	var doc snapshotDoc
	if err := json.Unmarshal(data, &doc); err != nil {
		return fmt.Errorf("load %s: %v", path, err)
	}
	e.restore(doc)
	return nil
}

// SaveRun persists the current topic set to st under a fresh run id.
func (e *Engine) SaveRun(ctx context.Context, st store.Store) (string, error) {
	doc := e.snapshot()
	run := store.Run{
		ID:        store.NewRunID(),
		CreatedAt: time.Now().UTC(),
		Config: store.RunConfig{
			MinClusterSize:   doc.Config.MinClusterSize,
			MinSamples:       doc.Config.MinSamples,
			ReduceDimensions: doc.Config.ReduceDimensions,
			NComponents:      doc.Config.NComponents,
			LabelingMethod:   doc.Config.LabelingMethod,
		},
	}
	for _, ts := range doc.Topics {
		run.Topics = append(run.Topics, store.TopicRecord{
			ID:              ts.ID,
			Label:           ts.Label,
			DocumentIndices: ts.DocumentIndices,
			Terms:           ts.Terms,
			Centroid:        ts.Centroid,
			Size:            ts.Size,
			Coherence:       ts.Coherence,
		})
	}
	if err := st.SaveRun(ctx, run); err != nil {
		return "", err
	}
	return run.ID, nil
}

// LoadRun replaces the engine's topics with a stored run. The same
// documents/embeddings limitation as Load applies.
func (e *Engine) LoadRun(ctx context.Context, st store.Store, id string) error {
	run, err := st.GetRun(ctx, id)
	if err != nil {
		return err
	}
	doc := snapshotDoc{
		Config: configSnapshot{
			MinClusterSize:   run.Config.MinClusterSize,
			MinSamples:       run.Config.MinSamples,
			ReduceDimensions: run.Config.ReduceDimensions,
			NComponents:      run.Config.NComponents,
			LabelingMethod:   run.Config.LabelingMethod,
		},
	}
	for _, t := range run.Topics {
		doc.Topics = append(doc.Topics, topicSnapshot{
			ID:              t.ID,
			Label:           t.Label,
			DocumentIndices: t.DocumentIndices,
			Terms:           t.Terms,
			Centroid:        t.Centroid,
			Size:            t.Size,
			Coherence:       t.Coherence,
		})
	}
	e.restore(doc)
	return nil
}
