package terms

import (
	"strings"
	"unicode"
)

// Tokenizer handles text tokenization and normalization
type Tokenizer struct {
	stopwords map[string]struct{}
	minLength int
	maxLength int
}

// NewTokenizer creates a tokenizer with the given stopword list and
// token length bounds. Non-positive bounds fall back to 3 and 20.
func NewTokenizer(stopwords []string, minLength, maxLength int) *Tokenizer {
	if minLength <= 0 {
		minLength = 3
	}
	if maxLength <= 0 {
		maxLength = 20
	}
	stops := make(map[string]struct{}, len(stopwords))
	for _, w := range stopwords {
		stops[strings.ToLower(w)] = struct{}{}
	}
	return &Tokenizer{stopwords: stops, minLength: minLength, maxLength: maxLength}
}

// Tokenize splits text into lowercase tokens at non-word boundaries,
// dropping tokens outside the length bounds, pure-numeric tokens and
// stopwords.
func (t *Tokenizer) Tokenize(text string) []string {
	var tokens []string
	var current strings.Builder

	for _, r := range text {
		if unicode.IsLetter(r) || unicode.IsDigit(r) || r == '_' {
			current.WriteRune(unicode.ToLower(r))
		} else {
			if current.Len() > 0 {
				if word := t.processToken(current.String()); word != "" {
					tokens = append(tokens, word)
				}
				current.Reset()
			}
		}
	}

	// Don't forget the last token
	if current.Len() > 0 {
		if word := t.processToken(current.String()); word != "" {
			tokens = append(tokens, word)
		}
	}

	return tokens
}

// UniqueTokens returns the set of distinct tokens in text, in first-seen order.
func (t *Tokenizer) UniqueTokens(text string) []string {
	seen := make(map[string]struct{})
	var unique []string
	for _, tok := range t.Tokenize(text) {
		if _, ok := seen[tok]; ok {
			continue
		}
		seen[tok] = struct{}{}
		unique = append(unique, tok)
	}
	return unique
}

func (t *Tokenizer) processToken(token string) string {
	n := len([]rune(token))
	if n < t.minLength || n > t.maxLength {
		return ""
	}
	if isNumericOnly(token) {
		return ""
	}
	if _, ok := t.stopwords[token]; ok {
		return ""
	}
	return token
}

// isNumericOnly returns true if the token contains only digits.
func isNumericOnly(s string) bool {
	for _, r := range s {
		if !unicode.IsDigit(r) {
			return false
		}
	}
	return true
}

// AddStopword adds a word to the stopword list
func (t *Tokenizer) AddStopword(word string) {
	t.stopwords[strings.ToLower(word)] = struct{}{}
}

// RemoveStopword removes a word from the stopword list
func (t *Tokenizer) RemoveStopword(word string) {
	delete(t.stopwords, strings.ToLower(word))
}
