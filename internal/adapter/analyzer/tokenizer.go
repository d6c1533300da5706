package analyzer

import (
	"strings"
	"unicode"

	porterstemmer "github.com/blevesearch/go-porterstemmer"
)

// Tokenizer splits text into lowercase tokens with optional stemming and
// stopword removal.
type Tokenizer struct {
	stopwords map[string]struct{}
	useStem   bool
}

// NewTokenizer creates a new Tokenizer.
func NewTokenizer(useStemming bool) *Tokenizer {
	return &Tokenizer{
		stopwords: defaultStopwords(),
		useStem:   useStemming,
	}
}

// Tokenize splits text into tokens.
func (t *Tokenizer) Tokenize(text string) []string {
	words := splitWords(text)
	tokens := make([]string, 0, len(words))

	for _, word := range words {
		word = strings.ToLower(word)
		if len(word) < 2 {
			continue
		}
		if _, isStop := t.stopwords[word]; isStop {
			continue
		}
		if t.useStem {
			word = porterstemmer.StemString(word)
		}
		tokens = append(tokens, word)
	}

	return tokens
}

// TokenSet returns the distinct tokens of text.
func (t *Tokenizer) TokenSet(text string) map[string]struct{} {
	tokens := t.Tokenize(text)
	set := make(map[string]struct{}, len(tokens))
	for _, tok := range tokens {
		set[tok] = struct{}{}
	}
	return set
}

// Jaccard computes the Jaccard similarity of two token sets. Two empty sets
// are identical.
func Jaccard(a, b map[string]struct{}) float64 {
	if len(a) == 0 && len(b) == 0 {
		return 1.0
	}
	if len(a) == 0 || len(b) == 0 {
		return 0.0
	}

	intersection := 0
	for tok := range a {
		if _, ok := b[tok]; ok {
			intersection++
		}
	}

	union := len(a) + len(b) - intersection
	return float64(intersection) / float64(union)
}

// splitWords splits text into words using unicode letter/digit runs.
func splitWords(text string) []string {
	var words []string
	var current strings.Builder

	for _, r := range text {
		if unicode.IsLetter(r) || unicode.IsDigit(r) || r == '_' {
			current.WriteRune(r)
		} else {
			if current.Len() > 0 {
				words = append(words, current.String())
				current.Reset()
			}
		}
	}
	if current.Len() > 0 {
		words = append(words, current.String())
	}

	return words
}

// defaultStopwords returns a set of common English stopwords.
func defaultStopwords() map[string]struct{} {
	stops := []string{
		"a", "an", "and", "are", "as", "at", "be", "by", "for",
		"from", "has", "he", "in", "is", "it", "its", "of", "on",
		"that", "the", "to", "was", "were", "will", "with", "this",
		"have", "had", "but", "not", "you", "your", "we", "our",
		"they", "their", "she", "her", "his", "if", "or", "so",
		"no", "can", "do", "does", "did", "been", "being", "would",
		"could", "should", "may", "might", "must", "shall", "which",
		"who", "whom", "what", "when", "where", "why", "how", "all",
		"each", "every", "both", "few", "more", "most", "other",
		"some", "such", "than", "too", "very", "just", "also",
	}
	m := make(map[string]struct{}, len(stops))
	for _, s := range stops {
		m[s] = struct{}{}
	}
	return m
}
