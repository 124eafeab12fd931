package model

// Passage is one retrieved chunk of the source text.
type Passage struct {
	ID      string
	Content string
	Source  string
	Page    int
	Score   float64
}

// ChunkRecord is one embedded chunk ready for upsert into the vector index.
type ChunkRecord struct {
	ID        string
	Namespace string
	Source    string
	Page      int
	Chunk     int
	Content   string
	Embedding []float32
}
