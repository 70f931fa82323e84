// Package sqlite provides a persistent vector store backed by SQLite.
// Embeddings are stored as little-endian float32 blobs and scored with
// brute-force cosine similarity, which is plenty for the chunk counts a
// single tender document produces.
package sqlite

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

	"github.com/tenderlens/tenderlens-cli/internal/core/domain"
	"github.com/tenderlens/tenderlens-cli/internal/core/ports/driven"
)

// Ensure Store implements the interface.
var _ driven.VectorStore = (*Store)(nil)

// Store is a SQLite-backed vector store scoped by namespace.
type Store struct {
	db   *sql.DB
	path string
}

const schema = `
CREATE TABLE IF NOT EXISTS chunks (
	namespace_id TEXT NOT NULL,
	id           TEXT NOT NULL,
	content      TEXT NOT NULL,
	span_start   INTEGER NOT NULL,
	span_end     INTEGER NOT NULL,
	embedding    BLOB NOT NULL,
	PRIMARY KEY (namespace_id, id)
);
CREATE INDEX IF NOT EXISTS idx_chunks_namespace ON chunks(namespace_id);
`

// NewStore opens (or creates) the vector store at the data directory.
// If dataDir is empty, defaults to ~/.tenderlens/data.
func NewStore(dataDir string) (*Store, error) {
	if dataDir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("getting home directory: %w", err)
		}
		dataDir = filepath.Join(home, ".tenderlens", "data")
	}

	if err := os.MkdirAll(dataDir, 0700); err != nil {
		return nil, fmt.Errorf("creating data directory: %w", err)
	}

	dbPath := filepath.Join(dataDir, "vectors.db")

	// WAL mode for better concurrency between indexing and retrieval.
	db, err := sql.Open("sqlite", dbPath+"?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating schema: %w", err)
	}

	return &Store{db: db, path: dbPath}, nil
}

// Path returns the database file path.
func (s *Store) Path() string { return s.path }

// Upsert stores chunks under their namespace, overwriting by chunk ID.
func (s *Store) Upsert(ctx context.Context, namespaceID string, chunks []domain.Chunk) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin upsert: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck // no-op after commit

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO chunks (namespace_id, id, content, span_start, span_end, embedding)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT (namespace_id, id) DO UPDATE SET
			content = excluded.content,
			span_start = excluded.span_start,
			span_end = excluded.span_end,
			embedding = excluded.embedding`)
	if err != nil {
		return fmt.Errorf("prepare upsert: %w", err)
	}
	defer stmt.Close()

	for _, chunk := range chunks {
		_, err := stmt.ExecContext(ctx, namespaceID, chunk.ID, chunk.Content,
			chunk.Span.Start, chunk.Span.End, encodeVector(chunk.Embedding))
		if err != nil {
			return fmt.Errorf("upsert chunk %s: %w", chunk.ID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit upsert: %w", err)
	}
	return nil
}

// Query returns the k most similar chunks within the namespace, ordered
// descending by cosine similarity.
func (s *Store) Query(ctx context.Context, namespaceID string, vector []float32, k int) ([]driven.VectorHit, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, content, span_start, span_end, embedding FROM chunks WHERE namespace_id = ?`,
		namespaceID)
	if err != nil {
		return nil, fmt.Errorf("query namespace %s: %w", namespaceID, err)
	}
	defer rows.Close()

	var hits []driven.VectorHit
	for rows.Next() {
		var (
			chunk domain.Chunk
			blob  []byte
		)
		chunk.NamespaceID = namespaceID
		if err := rows.Scan(&chunk.ID, &chunk.Content, &chunk.Span.Start, &chunk.Span.End, &blob); err != nil {
			return nil, fmt.Errorf("scan chunk: %w", err)
		}
		chunk.Embedding = decodeVector(blob)
		hits = append(hits, driven.VectorHit{
			Chunk:      chunk,
			Similarity: cosineSimilarity(vector, chunk.Embedding),
		})
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate chunks: %w", err)
	}

	sort.Slice(hits, func(i, j int) bool {
		if hits[i].Similarity != hits[j].Similarity {
			return hits[i].Similarity > hits[j].Similarity
		}
		return hits[i].Chunk.ID < hits[j].Chunk.ID
	})

	if k > 0 && len(hits) > k {
		hits = hits[:k]
	}
	return hits, nil
}

// Clear removes every chunk stored under the namespace in one statement.
func (s *Store) Clear(ctx context.Context, namespaceID string) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM chunks WHERE namespace_id = ?`, namespaceID); err != nil {
		return fmt.Errorf("clear namespace %s: %w", namespaceID, err)
	}
	return nil
}

// Ping validates the database is reachable.
func (s *Store) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// encodeVector serialises a float32 vector as little-endian bytes.
func encodeVector(v []float32) []byte {
	buf := make([]byte, 4*len(v))
	for i, f := range v {
		binary.LittleEndian.PutUint32(buf[i*4:], math.Float32bits(f))
	}
	return buf
}

// decodeVector deserialises a little-endian float32 vector.
func decodeVector(buf []byte) []float32 {
	v := make([]float32, len(buf)/4)
	for i := range v {
		v[i] = math.Float32frombits(binary.LittleEndian.Uint32(buf[i*4:]))
	}
	return v
}

// cosineSimilarity computes the cosine similarity of two vectors,
// mapped into [0, 1]. Mismatched or zero vectors score 0.
func cosineSimilarity(a, b []float32) float64 {
	if len(a) == 0 || len(a) != len(b) {
		return 0
	}

	var dot, normA, normB float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		normA += float64(a[i]) * float64(a[i])
		normB += float64(b[i]) * float64(b[i])
	}
	if normA == 0 || normB == 0 {
		return 0
	}

	cos := dot / (math.Sqrt(normA) * math.Sqrt(normB))
	return (cos + 1) / 2
}
