package embedder

import (
	"context"
	"fmt"
	"math"
	"regexp"
	"sort"
	"strings"
	"sync"
)

// tokenPattern matches letter/digit runs; punctuation separates tokens.
var tokenPattern = regexp.MustCompile(`[\p{L}\p{N}]+`)

// TFIDF is a term-frequency/inverse-document-frequency embedding backend.
//
// The vectorizer is stateful with a one-shot fit: the first Embed call fits
// the vocabulary and IDF weights from its batch, subsequent calls transform
// using the fitted model. The vocabulary is capped at Dimension terms
// (highest corpus frequency wins) so fitted output needs no truncation;
// smaller vocabularies produce rows that are zero-padded up to Dimension.
// Rows are L2-normalised.
type TFIDF struct {
	mu         sync.Mutex
	fitted     bool
	vocabulary map[string]int
	idf        []float64
	stopwords  map[string]struct{}
}

// NewTFIDF constructs an unfitted TF-IDF backend.
func NewTFIDF() *TFIDF {
	return &TFIDF{stopwords: stopwords()}
}

// Name returns the backend label.
func (t *TFIDF) Name() string { return "tfidf" }

// Model returns the model identifier for diagnostics.
func (t *TFIDF) Model() string {
	return fmt.Sprintf("tfidf-%d", Dimension)
}

// Embed converts texts into TF-IDF vectors. The first call fits the model
// on its batch; later calls transform against the fitted vocabulary.
func (t *TFIDF) Embed(_ context.Context, texts []string) ([][]float32, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if !t.fitted {
		if err := t.fit(texts); err != nil {
			return nil, err
		}
	}

	out := make([][]float32, len(texts))
	for i, text := range texts {
		out[i] = t.transform(text)
	}
	return out, nil
}

// fit builds the vocabulary and smoothed IDF weights from the corpus.
// Caller holds t.mu.
func (t *TFIDF) fit(corpus []string) error {
	if len(corpus) == 0 {
		return fmt.Errorf("tfidf: empty corpus for fit")
	}

	// Document frequency and total occurrence count per term.
	df := make(map[string]int)
	total := make(map[string]int)
	for _, text := range corpus {
		seen := make(map[string]struct{})
		for _, tok := range t.tokenize(text) {
			total[tok]++
			if _, ok := seen[tok]; ok {
				continue
			}
			seen[tok] = struct{}{}
			df[tok]++
		}
	}
	if len(df) == 0 {
		return fmt.Errorf("tfidf: no usable tokens in fit corpus")
	}

	terms := make([]string, 0, len(df))
	for term := range df {
		terms = append(terms, term)
	}

	// Cap the vocabulary at Dimension terms, keeping the most frequent
	// (ties broken alphabetically for determinism), then index the kept
	// terms in sorted order.
	if len(terms) > Dimension {
		sort.Slice(terms, func(i, j int) bool {
			if total[terms[i]] != total[terms[j]] {
				return total[terms[i]] > total[terms[j]]
			}
			return terms[i] < terms[j]
		})
		terms = terms[:Dimension]
	}
	sort.Strings(terms)

	t.vocabulary = make(map[string]int, len(terms))
	t.idf = make([]float64, len(terms))
	n := float64(len(corpus))
	for i, term := range terms {
		t.vocabulary[term] = i
		// Smoothed IDF, never zero or negative.
		t.idf[i] = math.Log((1+n)/(1+float64(df[term]))) + 1
	}

	t.fitted = true
	return nil
}

// transform computes the L2-normalised TF-IDF row for one text, padded to
// Dimension. Caller holds t.mu.
func (t *TFIDF) transform(text string) []float32 {
	vec := make([]float64, len(t.idf))

	tf := make(map[int]int)
	var count int
	for _, tok := range t.tokenize(text) {
		if idx, ok := t.vocabulary[tok]; ok {
			tf[idx]++
			count++
		}
	}
	if count == 0 {
		return make([]float32, Dimension)
	}

	var norm float64
	for idx, c := range tf {
		v := float64(c) / float64(count) * t.idf[idx]
		vec[idx] = v
		norm += v * v
	}
	norm = math.Sqrt(norm)

	out := make([]float32, Dimension)
	for idx, v := range vec {
		if norm > 0 {
			out[idx] = float32(v / norm)
		}
	}
	return out
}

// tokenize lowercases text and returns its non-stopword tokens.
func (t *TFIDF) tokenize(text string) []string {
	raw := tokenPattern.FindAllString(strings.ToLower(text), -1)
	out := raw[:0]
	for _, tok := range raw {
		if _, stop := t.stopwords[tok]; stop {
			continue
		}
		out = append(out, tok)
	}
	return out
}

// stopwords returns the default English stopword set.
func stopwords() map[string]struct{} {
	words := []string{
		"a", "an", "the", "and", "or", "but", "if", "then", "else", "for",
		"to", "of", "in", "on", "at", "by", "with", "as", "is", "are",
		"was", "were", "be", "been", "being", "it", "this", "that", "these",
		"those", "from", "up", "down", "over", "under", "again", "further",
		"than", "so", "such", "into", "about", "between", "through",
		"during", "before", "after", "above", "below", "out", "off", "own",
		"same", "too", "very", "can", "will", "just", "should", "now",
		"how", "what", "when", "where", "which", "who", "why", "do", "does",
		"did", "i", "you", "your", "we", "they", "he", "she", "not", "no",
	}
	m := make(map[string]struct{}, len(words))
	for _, w := range words {
		m[w] = struct{}{}
	}
	return m
}
