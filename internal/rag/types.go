package rag

import "fmt"

// Chunk is one word-window of corpus text, identified by its sequence
// position. Ids are deterministic, so rebuilding an unchanged corpus
// reproduces them exactly and re-upserts are no-ops.
type Chunk struct {
	Seq  int
	Text string
}

// ID returns the chunk's stable identifier.
func (c Chunk) ID() string {
	return ChunkID(c.Seq)
}

// ChunkID formats the identifier for a chunk at the given sequence position.
func ChunkID(seq int) string {
	return fmt.Sprintf("chunk_%d", seq)
}

// Citation maps a context marker back to the stored chunk it came from.
// Citations are recomputed per query and never persisted.
type Citation struct {
	Marker  string
	Source  string
	ChunkID int
}

// String renders the human-readable citation line shown alongside an answer.
func (c Citation) String() string {
	return fmt.Sprintf("[%s] source=%s chunk_id=%d", c.Marker, c.Source, c.ChunkID)
}
