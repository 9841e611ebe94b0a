package embedding

import "strings"

// Kind selects how text is formatted before embedding. Asymmetric
// models (E5 family) expect queries and passages to carry distinct
// literal prefixes; raw passes text through untouched.
type Kind int

const (
	KindRaw Kind = iota
	KindQuery
	KindPassage
)

// Embedder converts batches of text into numeric vector representations.
// The returned slice matches the input in order and length; empty input
// yields empty output without touching the backend.
type Embedder interface {
	Name() string
	Dimension() int
	EmbedBatch(texts []string, kind Kind) ([][]float64, error)
}

// Format prepares one text for embedding according to kind.
func Format(text string, kind Kind) string {
	t := strings.TrimSpace(text)
	if t == "" {
		return t
	}
	switch kind {
	case KindQuery:
		return "query: " + t
	case KindPassage:
		return "passage: " + t
	}
	return t
}

// Chunk splits texts into batches of at most n, preserving order.
func Chunk(texts []string, n int) [][]string {
	if n < 1 {
		n = 1
	}
	var out [][]string
	for i := 0; i < len(texts); i += n {
		end := i + n
		if end > len(texts) {
			end = len(texts)
		}
		out = append(out, texts[i:end])
	}
	return out
}
