package knowledge

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jyotish-ai/server/internal/agent/model"
	errx "github.com/jyotish-ai/server/internal/core/error"
	pgvector "github.com/pgvector/pgvector-go"
)

// VectorIndex stores chunk embeddings and answers nearest-neighbour queries.
type VectorIndex interface {
	EnsureSchema(ctx context.Context) error
	Upsert(ctx context.Context, records []model.ChunkRecord) error
	Query(ctx context.Context, vector []float32, topK int) ([]model.Passage, error)
}

// PGVectorIndex keeps chunks in a Postgres table with a pgvector column and
// ranks them by cosine distance.
type PGVectorIndex struct {
	pool      *pgxpool.Pool
	table     string
	namespace string
	dimension int
}

func NewPGVectorIndex(pool *pgxpool.Pool, table, namespace string, dimension int) *PGVectorIndex {
	return &PGVectorIndex{pool: pool, table: table, namespace: namespace, dimension: dimension}
}

func (ix *PGVectorIndex) ident() string {
	return pgx.Identifier{ix.table}.Sanitize()
}

// ExistingDimension reports the width of the embedding column, or found=false
// when the table does not exist yet.
func (ix *PGVectorIndex) ExistingDimension(ctx context.Context) (int, bool, error) {
	var dim int
	err := ix.pool.QueryRow(ctx, `
		SELECT atttypmod
		FROM pg_attribute
		WHERE attrelid = to_regclass($1) AND attname = 'embedding' AND NOT attisdropped
	`, ix.table).Scan(&dim)
	if errors.Is(err, pgx.ErrNoRows) {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, errx.WrapPostgres(err)
	}
	return dim, true, nil
}

// CheckDimension fails fast when an existing index was built for another width.
func (ix *PGVectorIndex) CheckDimension(ctx context.Context) error {
	dim, found, err := ix.ExistingDimension(ctx)
	if err != nil {
		return err
	}
	if found && dim != ix.dimension {
		return fmt.Errorf("%w: table %s has %d, embedding provider produces %d", ErrDimensionMismatch, ix.table, dim, ix.dimension)
	}
	return nil
}

// EnsureSchema creates the table and cosine index when missing.
func (ix *PGVectorIndex) EnsureSchema(ctx context.Context) error {
	if _, err := ix.pool.Exec(ctx, `CREATE EXTENSION IF NOT EXISTS vector`); err != nil {
		return errx.WrapPostgres(err)
	}
	if err := ix.CheckDimension(ctx); err != nil {
		return err
	}
	stmts := []string{
		fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s (
			id TEXT PRIMARY KEY,
			namespace TEXT NOT NULL,
			source TEXT NOT NULL,
			page INT NOT NULL,
			chunk_index INT NOT NULL,
			content TEXT NOT NULL,
			embedding vector(%d) NOT NULL,
			created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
		)`, ix.ident(), ix.dimension),
		fmt.Sprintf(`CREATE INDEX IF NOT EXISTS %s ON %s (namespace)`,
			pgx.Identifier{ix.table + "_namespace_idx"}.Sanitize(), ix.ident()),
		fmt.Sprintf(`CREATE INDEX IF NOT EXISTS %s ON %s USING hnsw (embedding vector_cosine_ops)`,
			pgx.Identifier{ix.table + "_embedding_idx"}.Sanitize(), ix.ident()),
	}
	for _, stmt := range stmts {
		if _, err := ix.pool.Exec(ctx, stmt); err != nil {
			return errx.WrapPostgres(err)
		}
	}
	return nil
}

// Upsert writes records keyed by their deterministic id, so re-ingesting a
// source overwrites rather than duplicates.
func (ix *PGVectorIndex) Upsert(ctx context.Context, records []model.ChunkRecord) error {
	if len(records) == 0 {
		return nil
	}
	query := fmt.Sprintf(`
		INSERT INTO %s (id, namespace, source, page, chunk_index, content, embedding)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (id) DO UPDATE
		SET content = EXCLUDED.content, embedding = EXCLUDED.embedding, created_at = NOW()
	`, ix.ident())

	batch := &pgx.Batch{}
	for _, r := range records {
		batch.Queue(query, r.ID, r.Namespace, r.Source, r.Page, r.Chunk, r.Content, pgvector.NewVector(r.Embedding))
	}
	if err := ix.pool.SendBatch(ctx, batch).Close(); err != nil {
		return errx.WrapPostgres(err)
	}
	return nil
}

func (ix *PGVectorIndex) Query(ctx context.Context, vector []float32, topK int) ([]model.Passage, error) {
	rows, err := ix.pool.Query(ctx, fmt.Sprintf(`
		SELECT id, content, source, page, 1 - (embedding <=> $1) AS score
		FROM %s
		WHERE namespace = $2
		ORDER BY embedding <=> $1
		LIMIT $3
	`, ix.ident()), pgvector.NewVector(vector), ix.namespace, topK)
	if err != nil {
		return nil, errx.WrapPostgres(err)
	}
	defer rows.Close()

	var out []model.Passage
	for rows.Next() {
		var p model.Passage
		if err := rows.Scan(&p.ID, &p.Content, &p.Source, &p.Page, &p.Score); err != nil {
			return nil, errx.WrapPostgres(err)
		}
		out = append(out, p)
	}
	return out, errx.WrapPostgres(rows.Err())
}

var _ VectorIndex = (*PGVectorIndex)(nil)
