// Package topic defines the data object representing one discovered
// cluster of documents.
package topic

import (
	"fmt"

	"github.com/cognicore/topiq/pkg/topiq/metrics"
)

// Topic is one discovered cluster. DocumentIndices, Documents,
// Embeddings and Metadata are parallel slices fixed at construction;
// terms and label fields are filled in by the fit pipeline.
type Topic struct {
	ID              int
	DocumentIndices []int
	Documents       []string
	Embeddings      [][]float64
	Metadata        []map[string]string

	termList []string
	info     LabelInfo
	labeled  bool

	centroid     []float64
	coherence    float64
	hasCoherence bool
}

// LabelInfo is the normalized labeling result applied to a topic.
type LabelInfo struct {
	Label       string
	Description string
	Confidence  float64
	Themes      []string
}

// New creates a topic from parallel index/document/embedding slices.
// Metadata may be nil; any other length mismatch is an error.
func New(id int, indices []int, documents []string, embeddings [][]float64, metadata []map[string]string) (*Topic, error) {
	if len(indices) != len(documents) || len(documents) != len(embeddings) {
		return nil, fmt.Errorf("topic %d: indices/documents/embeddings lengths %d/%d/%d differ",
			id, len(indices), len(documents), len(embeddings))
	}
	if metadata != nil && len(metadata) != len(documents) {
		return nil, fmt.Errorf("topic %d: metadata length %d does not match %d documents",
			id, len(metadata), len(documents))
	}
	return &Topic{
		ID:              id,
		DocumentIndices: indices,
		Documents:       documents,
		Embeddings:      embeddings,
		Metadata:        metadata,
	}, nil
}

// Restore rebuilds a topic from persisted fields. Documents and
// embeddings are not part of the persisted form and stay empty.
func Restore(id int, indices []int, termList []string, label string, centroid []float64, coherence float64) *Topic {
	t := &Topic{
		ID:              id,
		DocumentIndices: indices,
		termList:        termList,
		centroid:        centroid,
		coherence:       coherence,
		hasCoherence:    true,
	}
	if label != "" {
		t.info.Label = label
		t.labeled = true
	}
	return t
}

// Size returns the number of documents in the topic.
func (t *Topic) Size() int {
	return len(t.DocumentIndices)
}

// Terms returns the distinctive terms, most distinctive first.
func (t *Topic) Terms() []string {
	return t.termList
}

// SetTerms replaces the topic's terms and clears the cached
// coherence, which depends on them.
func (t *Topic) SetTerms(termList []string) {
	t.termList = termList
	t.hasCoherence = false
}

// ApplyLabel sets label, description, confidence and themes in one
// call.
func (t *Topic) ApplyLabel(info LabelInfo) {
	t.info = info
	t.labeled = true
}

// Label returns the assigned label, or a positional placeholder when
// labeling has not run.
func (t *Topic) Label() string {
	if !t.labeled || t.info.Label == "" {
		return fmt.Sprintf("Topic %d", t.ID)
	}
	return t.info.Label
}

// Description returns the assigned description, or "" when unset.
func (t *Topic) Description() string {
	return t.info.Description
}

// Confidence returns the labeling confidence in [0,1]; 0 when unset.
func (t *Topic) Confidence() float64 {
	return t.info.Confidence
}

// Themes returns the assigned theme list; never nil.
func (t *Topic) Themes() []string {
	if t.info.Themes == nil {
		return []string{}
	}
	return t.info.Themes
}

// Centroid returns the coordinate-wise mean of the topic's
// embeddings, computed once and cached. Empty topics yield nil.
func (t *Topic) Centroid() []float64 {
	if t.centroid != nil {
		return t.centroid
	}
	if len(t.Embeddings) == 0 {
		return nil
	}
	dim := len(t.Embeddings[0])
	centroid := make([]float64, dim)
	for _, vec := range t.Embeddings {
		for i := 0; i < dim && i < len(vec); i++ {
			centroid[i] += vec[i]
		}
	}
	for i := range centroid {
		centroid[i] /= float64(len(t.Embeddings))
	}
	t.centroid = centroid
	return centroid
}

// Coherence returns the UMass coherence of the topic's terms over its
// own documents, computed once and cached until SetTerms runs.
func (t *Topic) Coherence() float64 {
	if t.hasCoherence {
		return t.coherence
	}
	t.coherence = metrics.NewCalculator().Coherence(t.termList, t.Documents, 10)
	t.hasCoherence = true
	return t.coherence
}
