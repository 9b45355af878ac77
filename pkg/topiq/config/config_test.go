package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/cognicore/topiq/pkg/topiq/internalerr"
)

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write %s: %v", name, err)
	}
	return path
}

func TestLoadLayersOverDefaults(t *testing.T) {
	path := writeFile(t, "config.yaml", `
engine:
  min_cluster_size: 5
  reduce_dimensions: true
labeling:
  method: fast
llm:
  base_url: http://localhost:8080/v1/chat/completions
  model: test-model
`)

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	if cfg.Engine.MinClusterSize != 5 || !cfg.Engine.ReduceDimensions {
		t.Errorf("engine overrides not applied: %+v", cfg.Engine)
	}
	// Untouched fields keep their defaults.
	if cfg.Engine.NComponents != 5 || cfg.Engine.NNeighbors != 15 {
		t.Errorf("defaults lost: %+v", cfg.Engine)
	}
	if cfg.Terms.TopTerms != 10 || cfg.Terms.MinTokenLength != 3 {
		t.Errorf("term defaults lost: %+v", cfg.Terms)
	}
	if cfg.Labeling.Method != "fast" {
		t.Errorf("method = %q", cfg.Labeling.Method)
	}
	if cfg.LLM.Model != "test-model" {
		t.Errorf("llm = %+v", cfg.LLM)
	}
}

func TestLoadRejectsMalformedYAML(t *testing.T) {
	path := writeFile(t, "bad.yaml", "engine: [not a mapping")
	if _, err := Load(path); !errors.Is(err, internalerr.ErrInvalidConfig) {
		t.Errorf("err = %v, want ErrInvalidConfig", err)
	}
}

func TestLoadRejectsNonPositiveValues(t *testing.T) {
	path := writeFile(t, "zero.yaml", `
engine:
  n_components: 0
`)
	if _, err := Load(path); !errors.Is(err, internalerr.ErrInvalidConfig) {
		t.Errorf("err = %v, want ErrInvalidConfig", err)
	}
}

func TestLoadMissingFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "absent.yaml")); err == nil {
		t.Error("missing file should fail")
	}
}

func TestDefaultValues(t *testing.T) {
	cfg := Default()
	if cfg.Engine.ClusterThreshold != 0.7 {
		t.Errorf("cluster_threshold = %f", cfg.Engine.ClusterThreshold)
	}
	if cfg.Labeling.Method != "hybrid" {
		t.Errorf("method = %q", cfg.Labeling.Method)
	}
	if cfg.Engine.ReduceDimensions {
		t.Error("reduction should default off")
	}
}

func TestLoadStopwords(t *testing.T) {
	path := writeFile(t, "stopwords.yaml", `
terms:
  - the
  - and
  - with
`)
	sw, err := LoadStopwords(path)
	if err != nil {
		t.Fatalf("LoadStopwords: %v", err)
	}
	if len(sw.Terms) != 3 || sw.Terms[0] != "the" {
		t.Errorf("terms = %v", sw.Terms)
	}
}
