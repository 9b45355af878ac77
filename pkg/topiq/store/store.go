package store

import (
	"context"
	"time"
)

// Store persists fitted topic runs.
type Store interface {
	Close() error

	SaveRun(ctx context.Context, r Run) error
	GetRun(ctx context.Context, id string) (Run, error)
	ListRuns(ctx context.Context, limit int) ([]RunSummary, error)
	DeleteRun(ctx context.Context, id string) error
}

// Run is one persisted fit result: the topic snapshots plus the
// configuration that produced them. Documents and embeddings are not
// persisted.
type Run struct {
	ID        string
	CreatedAt time.Time
	Config    RunConfig
	Topics    []TopicRecord
}

// RunConfig is the engine configuration recorded with a run.
type RunConfig struct {
	MinClusterSize   int
	MinSamples       int
	ReduceDimensions bool
	NComponents      int
	LabelingMethod   string
}

// TopicRecord is the persisted form of one topic.
type TopicRecord struct {
	ID              int
	Label           string
	DocumentIndices []int
	Terms           []string
	Centroid        []float64
	Size            int
	Coherence       float64
}

// RunSummary lists a stored run without its topic payload.
type RunSummary struct {
	ID        string
	CreatedAt time.Time
	Topics    int
}
