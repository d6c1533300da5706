package domain

import "time"

// Document is one rendered catalog entry.
type Document struct {
	Index int
	Name  string
	Text  string
}

// Chunk is a window of a document's text. Offset is measured in runes.
type Chunk struct {
	ID       string `json:"id"`
	DocIndex int    `json:"doc_index"`
	Seq      int    `json:"seq"`
	Offset   int    `json:"offset"`
	Text     string `json:"text"`
}

// Hit is a raw nearest-neighbour result: a position in the index and its
// Euclidean distance to the query.
type Hit struct {
	Position int
	Distance float64
}

// ScoredChunk is a retrieved chunk. Lower distance is more relevant.
type ScoredChunk struct {
	Chunk    Chunk
	Distance float64
}

// Assessment holds the display fields parsed out of chunk text.
type Assessment struct {
	Name        string `json:"name"`
	Type        string `json:"type"`
	Skills      string `json:"skills"`
	Roles       string `json:"roles"`
	Description string `json:"description"`
	Duration    string `json:"duration"`
}

type Recommendation struct {
	Assessment
	ChunkID  string  `json:"chunk_id"`
	Distance float64 `json:"distance"`
}

// EvalRecord is one labeled query of an evaluation set.
type EvalRecord struct {
	Query               string   `json:"query"`
	RelevantAssessments []string `json:"relevant_assessments"`
}

type QueryScore struct {
	Query          string   `json:"query"`
	Precision      float64  `json:"precision"`
	HitRate        int      `json:"hit_rate"`
	ReciprocalRank float64  `json:"reciprocal_rank"`
	Retrieved      []string `json:"retrieved"`
}

type EvalReport struct {
	K             int          `json:"k"`
	Matcher       string       `json:"matcher"`
	Queries       int          `json:"queries"`
	MeanPrecision float64      `json:"mean_precision"`
	HitRate       float64      `json:"hit_rate"`
	MRR           float64      `json:"mrr"`
	Scores        []QueryScore `json:"scores"`
}

// GenerationInfo describes a persisted index generation.
type GenerationInfo struct {
	ID         string    `json:"id"`
	Model      string    `json:"model"`
	Dimension  int       `json:"dimension"`
	Chunks     int       `json:"chunks"`
	Documents  int       `json:"documents"`
	ConfigHash string    `json:"config_hash"`
	BuiltAt    time.Time `json:"built_at"`
}
