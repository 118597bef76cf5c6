package resources

import (
	"strings"
	"unicode"
)

// Stopwords is an immutable set of common English words excluded from
// tokenization, e.g. when an extractor or a presenter needs to summarize a
// span for a shortlist.
type Stopwords struct {
	words map[string]bool
}

// defaultStopwords mirrors the word list used elsewhere in the ecosystem
// for lightweight English tokenization.
var defaultStopwords = []string{
	"the", "a", "an", "is", "are", "was", "were", "do", "does", "did",
	"have", "has", "had", "be", "been", "being", "will", "would", "could",
	"should", "may", "might", "can", "shall", "not", "no", "and", "or",
	"but", "if", "then", "than", "so", "as", "at", "by", "for", "from",
	"in", "into", "of", "on", "to", "with", "about", "up", "out", "it",
	"its", "this", "that", "what", "which", "who", "how", "when", "where",
	"why", "you", "me", "i", "my", "your", "we", "they", "he", "she",
	"her", "him", "us", "them",
}

// NewStopwords builds a Stopwords set from the default English list.
func NewStopwords() *Stopwords {
	s := &Stopwords{words: make(map[string]bool, len(defaultStopwords))}
	for _, w := range defaultStopwords {
		s.words[w] = true
	}
	return s
}

// Contains reports whether word (already lowercased) is a stopword.
func (s *Stopwords) Contains(word string) bool { return s.words[word] }

// Tokenize splits text into unique lowercase non-stopword tokens.
func (s *Stopwords) Tokenize(text string) []string {
	words := strings.FieldsFunc(strings.ToLower(text), func(r rune) bool {
		return !unicode.IsLetter(r)
	})
	seen := make(map[string]bool)
	var tokens []string
	for _, w := range words {
		if len(w) < 2 || s.words[w] || seen[w] {
			continue
		}
		seen[w] = true
		tokens = append(tokens, w)
	}
	return tokens
}
