// Package vectorstore persists embedded text chunks in named collections and
// answers k-nearest-neighbor queries over them.
//
// The backing store is a single SQLite database (modernc.org/sqlite, pure Go)
// opened in WAL mode, which gives the single-writer/multi-reader discipline
/// the serving path relies on: index builds run as an offline batch, queries
// run concurrently without locking each other out.
//
// Each collection records the embedding model that produced its vectors and
// the vector dimension. Opening a collection with a different model, or
// feeding it vectors of a different dimension, fails with a MismatchError
// instead of silently producing meaningless similarity scores.
package vectorstore

import (
	"context"
	"database/sql"
	"encoding/binary"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"sort"

	_ "modernc.org/sqlite" // SQLite driver
)

const schema = `
CREATE TABLE IF NOT EXISTS collections (
	name            TEXT PRIMARY KEY,
	embedding_model TEXT NOT NULL,
	dimension       INTEGER NOT NULL DEFAULT 0,
	created_at      DATETIME DEFAULT CURRENT_TIMESTAMP
);
CREATE TABLE IF NOT EXISTS chunks (
	collection TEXT NOT NULL REFERENCES collections(name) ON DELETE CASCADE,
	id         TEXT NOT NULL,
	text       TEXT NOT NULL,
	embedding  BLOB NOT NULL,
	source     TEXT NOT NULL,
	chunk_id   INTEGER NOT NULL,
	PRIMARY KEY (collection, id)
);
`

// Store is a SQLite-backed vector database holding named collections.
type Store struct {
	db   *sql.DB
	path string
}

// Open creates or opens the vector database under dataDir.
func Open(dataDir string) (*Store, error) {
	if err := os.MkdirAll(dataDir, 0o755); err != nil {
		return nil, fmt.Errorf("creating data directory: %w", err)
	}
	dbPath := filepath.Join(dataDir, "vectors.db")

	db, err := sql.Open("sqlite", dbPath+"?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}
	if _, err := db.Exec("PRAGMA foreign_keys = ON"); err != nil {
		db.Close()
		return nil, fmt.Errorf("enabling foreign keys: %w", err)
	}
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating schema: %w", err)
	}

	return &Store{db: db, path: dbPath}, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// Path returns the database file path.
func (s *Store) Path() string {
	return s.path
}

// MismatchError reports a collection opened or used with an embedding space
// different from the one it was built with.
type MismatchError struct {
	Collection string
	Field      string
	Stored     string
	Requested  string
}

func (e *MismatchError) Error() string {
	return fmt.Sprintf("collection %q was built with %s %s, requested %s",
		e.Collection, e.Field, e.Stored, e.Requested)
}

// Record is one chunk to persist: id, text, unit-length embedding, and the
// metadata retrieval hands back.
type Record struct {
	ID        string
	Text      string
	Embedding []float64
	Source    string
	ChunkID   int
}

// Result is one retrieved chunk with its similarity to the query vector.
type Result struct {
	ID         string
	Text       string
	Source     string
	ChunkID    int
	Similarity float64
}

// Collection is a handle on one named collection. It is pinned to the
// embedding model it was opened with.
type Collection struct {
	store     *Store
	name      string
	model     string
	dimension int
}

// Collection opens or creates the named collection, pinning it to the given
// embedding model. Reopening an existing collection with a different model
// returns a MismatchError.
func (s *Store) Collection(ctx context.Context, name, embeddingModel string) (*Collection, error) {
	var storedModel string
	var dimension int
	err := s.db.QueryRowContext(ctx,
		"SELECT embedding_model, dimension FROM collections WHERE name = ?", name).
		Scan(&storedModel, &dimension)
	switch {
	case err == sql.ErrNoRows:
		if _, err := s.db.ExecContext(ctx,
			"INSERT INTO collections (name, embedding_model) VALUES (?, ?)",
			name, embeddingModel); err != nil {
			return nil, fmt.Errorf("creating collection: %w", err)
		}
		return &Collection{store: s, name: name, model: embeddingModel}, nil
	case err != nil:
		return nil, fmt.Errorf("loading collection: %w", err)
	}

	if storedModel != embeddingModel {
		return nil, &MismatchError{
			Collection: name,
			Field:      "embedding model",
			Stored:     storedModel,
			Requested:  embeddingModel,
		}
	}
	return &Collection{store: s, name: name, model: embeddingModel, dimension: dimension}, nil
}

// Name returns the collection name.
func (c *Collection) Name() string { return c.name }

// Model returns the embedding model the collection is pinned to.
func (c *Collection) Model() string { return c.model }

// Upsert writes records keyed by id. Repeating an upsert with identical
// content changes nothing; upserting an existing id with different content
// replaces the prior entry entirely.
func (c *Collection) Upsert(ctx context.Context, records []Record) error {
	if len(records) == 0 {
		return nil
	}

	dim := len(records[0].Embedding)
	for _, rec := range records {
		if len(rec.Embedding) != dim {
			return fmt.Errorf("record %q has dimension %d, batch started with %d", rec.ID, len(rec.Embedding), dim)
		}
	}
	if err := c.ensureDimension(ctx, dim); err != nil {
		return err
	}

	tx, err := c.store.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO chunks (collection, id, text, embedding, source, chunk_id)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT(collection, id) DO UPDATE SET
			text = excluded.text,
			embedding = excluded.embedding,
			source = excluded.source,
			chunk_id = excluded.chunk_id
	`)
	if err != nil {
		return fmt.Errorf("preparing statement: %w", err)
	}
	defer stmt.Close()

	for _, rec := range records {
		blob := floatsToBytes(rec.Embedding)
		if _, err := stmt.ExecContext(ctx, c.name, rec.ID, rec.Text, blob, rec.Source, rec.ChunkID); err != nil {
			return fmt.Errorf("saving chunk %q: %w", rec.ID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing transaction: %w", err)
	}
	return nil
}

func (c *Collection) ensureDimension(ctx context.Context, dim int) error {
	if c.dimension == 0 {
		if _, err := c.store.db.ExecContext(ctx,
			"UPDATE collections SET dimension = ? WHERE name = ?", dim, c.name); err != nil {
			return fmt.Errorf("recording dimension: %w", err)
		}
		c.dimension = dim
		return nil
	}
	if dim != c.dimension {
		return &MismatchError{
			Collection: c.name,
			Field:      "dimension",
			Stored:     fmt.Sprintf("%d", c.dimension),
			Requested:  fmt.Sprintf("%d", dim),
		}
	}
	return nil
}

// Query returns up to k chunks ranked by descending cosine similarity to the
// query vector (a dot product, since all vectors are unit length). Ties keep
// insertion order. An empty collection yields an empty result, not an error.
func (c *Collection) Query(ctx context.Context, vector []float64, k int) ([]Result, error) {
	if k <= 0 {
		return nil, nil
	}
	if c.dimension != 0 && len(vector) != c.dimension {
		return nil, &MismatchError{
			Collection: c.name,
			Field:      "dimension",
			Stored:     fmt.Sprintf("%d", c.dimension),
			Requested:  fmt.Sprintf("%d", len(vector)),
		}
	}

	// Upserts update rows in place, so rowid order is insertion order.
	rows, err := c.store.db.QueryContext(ctx, `
		SELECT id, text, embedding, source, chunk_id
		FROM chunks WHERE collection = ?
		ORDER BY rowid
	`, c.name)
	if err != nil {
		return nil, fmt.Errorf("querying chunks: %w", err)
	}
	defer rows.Close()

	var results []Result
	for rows.Next() {
		var r Result
		var blob []byte
		if err := rows.Scan(&r.ID, &r.Text, &blob, &r.Source, &r.ChunkID); err != nil {
			return nil, fmt.Errorf("scanning chunk: %w", err)
		}
		r.Similarity = dot(vector, bytesToFloats(blob))
		results = append(results, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating chunks: %w", err)
	}

	sort.SliceStable(results, func(i, j int) bool {
		return results[i].Similarity > results[j].Similarity
	})
	if k > len(results) {
		k = len(results)
	}
	return results[:k], nil
}

// Count returns the number of chunks stored in the collection.
func (c *Collection) Count(ctx context.Context) (int, error) {
	var n int
	err := c.store.db.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM chunks WHERE collection = ?", c.name).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("counting chunks: %w", err)
	}
	return n, nil
}

func dot(a, b []float64) float64 {
	n := len(a)
	if len(b) < n {
		n = len(b)
	}
	sum := 0.0
	for i := 0; i < n; i++ {
		sum += a[i] * b[i]
	}
	return sum
}

// floatsToBytes serializes a vector as little-endian float64s.
func floatsToBytes(floats []float64) []byte {
	buf := make([]byte, len(floats)*8)
	for i, f := range floats {
		binary.LittleEndian.PutUint64(buf[i*8:], math.Float64bits(f))
	}
	return buf
}

// bytesToFloats deserializes a little-endian float64 vector.
func bytesToFloats(data []byte) []float64 {
	floats := make([]float64, len(data)/8)
	for i := range floats {
		floats[i] = math.Float64frombits(binary.LittleEndian.Uint64(data[i*8:]))
	}
	return floats
}
