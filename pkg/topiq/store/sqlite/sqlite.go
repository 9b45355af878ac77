// Package sqlite persists topic runs in a SQLite database.
package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	_ "modernc.org/sqlite"

	"github.com/cognicore/topiq/pkg/topiq/internalerr"
	"github.com/cognicore/topiq/pkg/topiq/store"
)

// sqliteStore implements the Store interface using SQLite
type sqliteStore struct {
	db *sql.DB
}

// Open opens a SQLite database with WAL mode enabled and initializes
// the schema.
func Open(ctx context.Context, path string) (store.Store, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}

	// Enable WAL mode for better concurrency
	if _, err := db.ExecContext(ctx, "PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, err
	}
	if _, err := db.ExecContext(ctx, "PRAGMA foreign_keys=ON"); err != nil {
		db.Close()
		return nil, err
	}

	if err := initSchema(ctx, db); err != nil {
		db.Close()
		return nil, err
	}
	return &sqliteStore{db: db}, nil
}

func (s *sqliteStore) Close() error {
	return s.db.Close()
}

func initSchema(ctx context.Context, db *sql.DB) error {
	schema := `
CREATE TABLE IF NOT EXISTS runs (
	id TEXT PRIMARY KEY,
	created_at TEXT NOT NULL,
	config TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS run_topics (
	run_id TEXT NOT NULL,
	topic_id INTEGER NOT NULL,
	label TEXT,
	doc_indices TEXT NOT NULL,
	terms TEXT NOT NULL,
	centroid TEXT NOT NULL,
	size INTEGER NOT NULL,
	coherence REAL NOT NULL,
	PRIMARY KEY(run_id, topic_id),
	FOREIGN KEY(run_id) REFERENCES runs(id) ON DELETE CASCADE
);

CREATE INDEX IF NOT EXISTS idx_run_topics_run ON run_topics(run_id);
`
	_, err := db.ExecContext(ctx, schema)
	return err
}

type configRow struct {
	MinClusterSize   int    `json:"min_cluster_size"`
	MinSamples       int    `json:"min_samples"`
	ReduceDimensions bool   `json:"reduce_dimensions"`
	NComponents      int    `json:"n_components"`
	LabelingMethod   string `json:"labeling_method"`
}

// SaveRun writes the run and its topics in one transaction,
// replacing any prior run with the same id.
func (s *sqliteStore) SaveRun(ctx context.Context, r store.Run) error {
	if r.ID == "" {
		return fmt.Errorf("sqlite: run id required")
	}

	cfg, err := json.Marshal(configRow{
		MinClusterSize:   r.Config.MinClusterSize,
		MinSamples:       r.Config.MinSamples,
		ReduceDimensions: r.Config.ReduceDimensions,
		NComponents:      r.Config.NComponents,
		LabelingMethod:   r.Config.LabelingMethod,
	})
	if err != nil {
		return err
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx,
		`INSERT OR REPLACE INTO runs (id, created_at, config) VALUES (?, ?, ?)`,
		r.ID, r.CreatedAt.UTC().Format(time.RFC3339Nano), string(cfg)); err != nil {
		return err
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM run_topics WHERE run_id = ?`, r.ID); err != nil {
		return err
	}

	for _, t := range r.Topics {
		indices, err := json.Marshal(t.DocumentIndices)
		if err != nil {
			return err
		}
		termList, err := json.Marshal(t.Terms)
		if err != nil {
			return err
		}
		centroid, err := json.Marshal(t.Centroid)
		if err != nil {
			return err
		}
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO run_topics (run_id, topic_id, label, doc_indices, terms, centroid, size, coherence)
			 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
			r.ID, t.ID, t.Label, string(indices), string(termList), string(centroid), t.Size, t.Coherence); err != nil {
			return err
		}
	}

	return tx.Commit()
}

// GetRun loads a run and its topics ordered by topic id.
func (s *sqliteStore) GetRun(ctx context.Context, id string) (store.Run, error) {
	var (
		run       store.Run
		createdAt string
		cfgJSON   string
	)
	err := s.db.QueryRowContext(ctx,
		`SELECT id, created_at, config FROM runs WHERE id = ?`, id).
		Scan(&run.ID, &createdAt, &cfgJSON)
	if err == sql.ErrNoRows {
		return store.Run{}, fmt.Errorf("sqlite: run %s: %w", id, internalerr.ErrNotFound)
	}
	if err != nil {
		return store.Run{}, err
	}

	if run.CreatedAt, err = time.Parse(time.RFC3339Nano, createdAt); err != nil {
		return store.Run{}, fmt.Errorf("sqlite: bad created_at for run %s: %v", id, err)
	}
	var cfg configRow
	if err := json.Unmarshal([]byte(cfgJSON), &cfg); err != nil {
		return store.Run{}, fmt.Errorf("sqlite: bad config for run %s: %v", id, err)
	}
	run.Config = store.RunConfig{
		MinClusterSize:   cfg.MinClusterSize,
		MinSamples:       cfg.MinSamples,
		ReduceDimensions: cfg.ReduceDimensions,
		NComponents:      cfg.NComponents,
		LabelingMethod:   cfg.LabelingMethod,
	}

	rows, err := s.db.QueryContext(ctx,
		`SELECT topic_id, label, doc_indices, terms, centroid, size, coherence
		 FROM run_topics WHERE run_id = ? ORDER BY topic_id ASC`, id)
	if err != nil {
		return store.Run{}, err
	}
	defer rows.Close()

	for rows.Next() {
		var (
			t        store.TopicRecord
			indices  string
			termList string
			centroid string
		)
		if err := rows.Scan(&t.ID, &t.Label, &indices, &termList, &centroid, &t.Size, &t.Coherence); err != nil {
			return store.Run{}, err
		}
		if err := json.Unmarshal([]byte(indices), &t.DocumentIndices); err != nil {
			return store.Run{}, err
		}
		if err := json.Unmarshal([]byte(termList), &t.Terms); err != nil {
			return store.Run{}, err
		}
		if err := json.Unmarshal([]byte(centroid), &t.Centroid); err != nil {
			return store.Run{}, err
		}
		run.Topics = append(run.Topics, t)
	}
	return run, rows.Err()
}

// ListRuns returns run summaries, newest first.
func (s *sqliteStore) ListRuns(ctx context.Context, limit int) ([]store.RunSummary, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT r.id, r.created_at, COUNT(t.topic_id)
		 FROM runs r LEFT JOIN run_topics t ON t.run_id = r.id
		 GROUP BY r.id ORDER BY r.created_at DESC LIMIT ?`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var summaries []store.RunSummary
	for rows.Next() {
		var (
			s         store.RunSummary
			createdAt string
		)
		if err := rows.Scan(&s.ID, &createdAt, &s.Topics); err != nil {
			return nil, err
		}
		if s.CreatedAt, err = time.Parse(time.RFC3339Nano, createdAt); err != nil {
			return nil, err
		}
		summaries = append(summaries, s)
	}
	return summaries, rows.Err()
}

// DeleteRun removes a run and, via the cascade, its topics.
func (s *sqliteStore) DeleteRun(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM runs WHERE id = ?`, id)
	if err != nil {
		return err
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return fmt.Errorf("sqlite: run %s: %w", id, internalerr.ErrNotFound)
	}
	return nil
}
