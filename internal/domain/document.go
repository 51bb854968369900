package domain

import "fmt"

// Document is a read-only snapshot of a candidate document. The ranking
// engine never mutates documents; re-embedding produces a replacement, not
// an in-place update.
type Document struct {
	ID        string
	ScopeKey  string
	Text      string
	Embedding []float32 // nil until computed
	SourceRef string
}

// HasEmbedding reports whether an embedding has been computed for the document.
func (d Document) HasEmbedding() bool { return len(d.Embedding) > 0 }

// Clone returns an independent copy, including the embedding slice, so a
// snapshot handed to a caller cannot alias store-owned memory.
func (d Document) Clone() Document {
	c := d
	if d.Embedding != nil {
		c.Embedding = make([]float32, len(d.Embedding))
		copy(c.Embedding, d.Embedding)
	}
	return c
}

// Validate checks the fields required at the ingestion boundary.
func (d Document) Validate() error {
	if d.ID == "" {
		return fmt.Errorf("%w: missing id", ErrInvalidDocument)
	}
	if d.ScopeKey == "" {
		return fmt.Errorf("%w: missing scope key", ErrInvalidDocument)
	}
	if d.Text == "" {
		return fmt.Errorf("%w: missing text", ErrInvalidDocument)
	}
	return nil
}

// Query is an ephemeral ranking request. RequestedCount <= 0 means
// "not specified": the engine extracts a count from RawText or defaults.
type Query struct {
	ScopeKey       string
	RawText        string
	RequestedCount int
}

// MatchResult is one scored document in a ranking. Score is in [0,1].
// VectorScore and LexicalScore are the unweighted components; in lexical
// fallback mode VectorScore is always 0.
type MatchResult struct {
	DocumentID   string
	Score        float64
	VectorScore  float64
	LexicalScore float64
}

// Mode identifies the ranking strategy that produced a result set.
// Scores are not comparable across modes.
type Mode string

const (
	// ModeHybrid combines vector similarity with lexical overlap.
	ModeHybrid Mode = "hybrid"
	// ModeLexical is the fallback used when embeddings are unavailable.
	ModeLexical Mode = "lexical"
)

// Ranking is the ordered outcome of one ranking request.
type Ranking struct {
	Mode    Mode
	Results []MatchResult
}
