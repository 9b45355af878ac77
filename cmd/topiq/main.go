// Command topiq fits labeled topics over an embedded corpus.
//
// The input file is a JSON array of records:
//
//	[{"text": "...", "embedding": [0.1, ...], "metadata": {"source": "..."}}, ...]
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"os"
	"strings"

	"github.com/cognicore/topiq/internal/llm"
	"github.com/cognicore/topiq/pkg/topiq"
	"github.com/cognicore/topiq/pkg/topiq/cluster"
	"github.com/cognicore/topiq/pkg/topiq/config"
	"github.com/cognicore/topiq/pkg/topiq/label"
	"github.com/cognicore/topiq/pkg/topiq/preprocess"
	"github.com/cognicore/topiq/pkg/topiq/reduce"
	"github.com/cognicore/topiq/pkg/topiq/store/sqlite"
	"github.com/cognicore/topiq/pkg/topiq/terms"
)

type record struct {
	Text      string            `json:"text"`
	Embedding []float64         `json:"embedding"`
	Metadata  map[string]string `json:"metadata"`
}

func main() {
	var (
		input     = flag.String("input", "", "Path to corpus JSON file (required)")
		cfgPath   = flag.String("config", "", "Optional: YAML config file")
		stopwords = flag.String("stopwords", "", "Optional: YAML stopword list")
		savePath  = flag.String("save", "", "Optional: write the topic snapshot JSON here")
		dbPath    = flag.String("db", "", "Optional: persist the run to this SQLite database")
		stripHTML = flag.Bool("strip-html", false, "Strip HTML from document text before fitting")
		llmBase   = flag.String("llm-base", "", "Optional: OpenAI-compatible endpoint for labeling")
		llmModel  = flag.String("llm-model", "", "Optional: model name for labeling")
		llmAPIKey = flag.String("llm-api-key", "", "Optional: API key for the labeling endpoint")
		method    = flag.String("label-method", "", "Labeling method: term_based, llm_based or hybrid")
	)
	flag.Parse()

	if *input == "" {
		log.Fatal("--input required")
	}

	cfg := config.Default()
	if *cfgPath != "" {
		var err error
		if cfg, err = config.Load(*cfgPath); err != nil {
			log.Fatalf("load config: %v", err)
		}
	}
	if *method != "" {
		cfg.Labeling.Method = *method
	}

	var stops []string
	if *stopwords != "" {
		sw, err := config.LoadStopwords(*stopwords)
		if err != nil {
			log.Fatalf("load stopwords: %v", err)
		}
		stops = sw.Terms
	}

	records, err := loadCorpus(*input)
	if err != nil {
		log.Fatalf("load corpus: %v", err)
	}

	documents := make([]string, len(records))
	embeddings := make([][]float64, len(records))
	metadata := make([]map[string]string, len(records))
	for i, r := range records {
		text := r.Text
		if *stripHTML {
			text = preprocess.StripHTML(text)
		}
		documents[i] = text
		embeddings[i] = r.Embedding
		metadata[i] = r.Metadata
	}

	var generator label.Generator
	if *llmBase != "" && *llmModel != "" {
		generator = &llm.Client{BaseURL: *llmBase, APIKey: *llmAPIKey, Model: *llmModel}
	}

	tokenizer := terms.NewTokenizer(stops, cfg.Terms.MinTokenLength, cfg.Terms.MaxTokenLength)
	engine, err := topiq.New(topiq.Options{
		Clusterer: &cluster.Centroid{
			Threshold:      cfg.Engine.ClusterThreshold,
			MinClusterSize: cfg.Engine.MinClusterSize,
		},
		Reducer:   reduce.PCA{},
		Generator: generator,
		Extractor: terms.NewExtractor(tokenizer),
		Config: topiq.Config{
			MinClusterSize:   cfg.Engine.MinClusterSize,
			MinSamples:       cfg.Engine.MinSamples,
			ReduceDimensions: cfg.Engine.ReduceDimensions,
			NComponents:      cfg.Engine.NComponents,
			NNeighbors:       cfg.Engine.NNeighbors,
			TopTerms:         cfg.Terms.TopTerms,
			LabelingMethod:   label.ParseMethod(cfg.Labeling.Method),
		},
	})
	if err != nil {
		log.Fatalf("engine: %v", err)
	}

	ctx := context.Background()
	topics, err := engine.Fit(ctx, embeddings, documents, metadata)
	if err != nil {
		log.Fatalf("fit: %v", err)
	}

	report := engine.Report()
	fmt.Printf("%d documents -> %d topics, %d outliers (coverage %.0f%%)\n",
		len(documents), report.Topics, report.Outliers, report.Coverage*100)
	if dropped := report.DiscardedInvalidType + report.DiscardedNaN + report.DiscardedInfinite; dropped > 0 {
		fmt.Printf("discarded %d invalid embeddings (%d wrong shape, %d NaN, %d infinite)\n",
			dropped, report.DiscardedInvalidType, report.DiscardedNaN, report.DiscardedInfinite)
	}
	for _, t := range topics {
		fmt.Printf("\n[%d] %s (%d docs, confidence %.2f)\n", t.ID, t.Label(), t.Size(), t.Confidence())
		if desc := t.Description(); desc != "" {
			fmt.Printf("    %s\n", desc)
		}
		fmt.Printf("    terms: %s\n", strings.Join(t.Terms(), ", "))
	}

	if *savePath != "" {
		if err := engine.Save(*savePath); err != nil {
			log.Fatalf("save snapshot: %v", err)
		}
		fmt.Printf("\nsnapshot written to %s\n", *savePath)
	}

	if *dbPath != "" {
		st, err := sqlite.Open(ctx, *dbPath)
		if err != nil {
			log.Fatalf("open store: %v", err)
		}
		defer st.Close()
		runID, err := engine.SaveRun(ctx, st)
		if err != nil {
			log.Fatalf("save run: %v", err)
		}
		fmt.Printf("run %s saved to %s\n", runID, *dbPath)
	}
}

func loadCorpus(path string) ([]record, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var records []record
	if err := json.Unmarshal(data, &records); err != nil {
		return nil, fmt.Errorf("parse %s: %v", path, err)
	}
	return records, nil
}
