package terms

import (
	"math"
	"sort"
	"strings"
)

// Term is a scored candidate term for a topic.
type Term struct {
	Text  string
	Score float64
}

// Extractor computes distinctive terms for a group of documents
// against a background corpus.
type Extractor struct {
	tok *Tokenizer
}

// NewExtractor creates an extractor using the given tokenizer.
func NewExtractor(tok *Tokenizer) *Extractor {
	return &Extractor{tok: tok}
}

// Tokenizer returns the tokenizer the extractor was built with.
func (e *Extractor) Tokenizer() *Tokenizer {
	return e.tok
}

// DistinctiveTerms scores terms of topicDocs against allDocs using
// class-based TF-IDF:
//
//	score(t) = tf(t) * ln(N / df(t))
//
// Where tf is the token count within topicDocs, df the number of
// documents in allDocs containing t at least once, and N the size of
// allDocs. A df of zero is treated as one. The top topN terms are
// returned in descending score order; ties keep first-seen order.
func (e *Extractor) DistinctiveTerms(topicDocs, allDocs []string, topN int) []Term {
	if len(topicDocs) == 0 || topN <= 0 {
		return nil
	}

	tf := make(map[string]int)
	var order []string
	for _, doc := range topicDocs {
		for _, tok := range e.tok.Tokenize(doc) {
			if tf[tok] == 0 {
				order = append(order, tok)
			}
			tf[tok]++
		}
	}
	if len(order) == 0 {
		return nil
	}

	df := e.documentFrequencies(allDocs)
	n := float64(len(allDocs))

	scored := make([]Term, 0, len(order))
	for _, tok := range order {
		d := df[tok]
		if d == 0 {
			d = 1
		}
		scored = append(scored, Term{
			Text:  tok,
			Score: float64(tf[tok]) * math.Log(n/float64(d)),
		})
	}

	return topTerms(scored, topN)
}

// TFIDFTerms aggregates standard per-document TF-IDF over docs: each
// document contributes tf(t,doc)/len(doc) * ln(N/df(t)) and per-term
// contributions are summed.
func (e *Extractor) TFIDFTerms(docs []string, topN int) []Term {
	if len(docs) == 0 || topN <= 0 {
		return nil
	}

	df := e.documentFrequencies(docs)
	n := float64(len(docs))

	agg := make(map[string]float64)
	var order []string
	for _, doc := range docs {
		tokens := e.tok.Tokenize(doc)
		if len(tokens) == 0 {
			continue
		}
		counts := make(map[string]int, len(tokens))
		for _, tok := range tokens {
			counts[tok]++
		}
		for tok, c := range counts {
			idf := math.Log(n / float64(df[tok]))
			if _, ok := agg[tok]; !ok {
				order = append(order, tok)
			}
			agg[tok] += float64(c) / float64(len(tokens)) * idf
		}
	}

	scored := make([]Term, 0, len(order))
	for _, tok := range order {
		scored = append(scored, Term{Text: tok, Score: agg[tok]})
	}
	return topTerms(scored, topN)
}

// FrequentTerms returns the topN terms by raw token count.
func (e *Extractor) FrequentTerms(docs []string, topN int) []Term {
	if len(docs) == 0 || topN <= 0 {
		return nil
	}
	counts := make(map[string]int)
	var order []string
	for _, doc := range docs {
		for _, tok := range e.tok.Tokenize(doc) {
			if counts[tok] == 0 {
				order = append(order, tok)
			}
			counts[tok]++
		}
	}
	scored := make([]Term, 0, len(order))
	for _, tok := range order {
		scored = append(scored, Term{Text: tok, Score: float64(counts[tok])})
	}
	return topTerms(scored, topN)
}

// KeyPhrases extracts mixed unigrams and bigrams by count, keeping
// only candidates that occur more than once.
func (e *Extractor) KeyPhrases(docs []string, topN int) []Term {
	if len(docs) == 0 || topN <= 0 {
		return nil
	}
	counts := make(map[string]int)
	var order []string
	bump := func(phrase string) {
		if counts[phrase] == 0 {
			order = append(order, phrase)
		}
		counts[phrase]++
	}
	for _, doc := range docs {
		tokens := e.tok.Tokenize(doc)
		for i, tok := range tokens {
			bump(tok)
			if i+1 < len(tokens) {
				bump(tok + " " + tokens[i+1])
			}
		}
	}
	scored := make([]Term, 0, len(order))
	for _, phrase := range order {
		if counts[phrase] <= 1 {
			continue
		}
		scored = append(scored, Term{Text: phrase, Score: float64(counts[phrase])})
	}
	return topTerms(scored, topN)
}

// documentFrequencies counts, per term, the number of documents that
// contain it at least once.
func (e *Extractor) documentFrequencies(docs []string) map[string]int {
	df := make(map[string]int)
	for _, doc := range docs {
		for _, tok := range e.tok.UniqueTokens(doc) {
			df[tok]++
		}
	}
	return df
}

// topTerms sorts by descending score keeping first-seen order on ties
// and truncates to topN.
func topTerms(scored []Term, topN int) []Term {
	sort.SliceStable(scored, func(i, j int) bool {
		return scored[i].Score > scored[j].Score
	})
	if len(scored) > topN {
		scored = scored[:topN]
	}
	return scored
}

// Texts returns just the term strings, preserving order.
func Texts(ts []Term) []string {
	out := make([]string, len(ts))
	for i, t := range ts {
		out[i] = t.Text
	}
	return out
}

// HasScores reports whether any term carries a non-zero score.
func HasScores(ts []Term) bool {
	for _, t := range ts {
		if t.Score != 0 {
			return true
		}
	}
	return false
}

// FromTexts wraps plain strings as unscored terms.
func FromTexts(texts []string) []Term {
	out := make([]Term, len(texts))
	for i, s := range texts {
		out[i] = Term{Text: strings.TrimSpace(s)}
	}
	return out
}
