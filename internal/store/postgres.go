package store

import (
	"context"
	"log"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/pgvector/pgvector-go"

	"payrollassist/internal/rag"
)

// PostgresRetriever queries the documents table directly over pgx for
// deployments that point at the database instead of the PostgREST layer.
// Same degradation contract as the Supabase client: failures mean no matches.
type PostgresRetriever struct {
	db *pgxpool.Pool
}

func NewPostgresRetriever(db *pgxpool.Pool) *PostgresRetriever {
	return &PostgresRetriever{db: db}
}

func (r *PostgresRetriever) Search(ctx context.Context, vector []float32, threshold float64, limit int) ([]rag.Passage, error) {
	if limit <= 0 {
		limit = 5
	}

	vec := pgvector.NewVector(vector)

	rows, err := r.db.Query(ctx, `
		SELECT content, similarity
		FROM (
			SELECT content, 1 - (embedding <=> $1) AS similarity
			FROM documents
		) matches
		WHERE similarity >= $2
		ORDER BY similarity DESC
		LIMIT $3
	`, vec, threshold, limit)
	if err != nil {
		log.Printf("store: pg vector search failed, treating as no matches: %v", err)
		return nil, nil
	}
	defer rows.Close()

	var passages []rag.Passage
	for rows.Next() {
		var p rag.Passage
		if err := rows.Scan(&p.Content, &p.Similarity); err != nil {
			log.Printf("store: scan search row: %v", err)
			return nil, nil
		}
		passages = append(passages, p)
	}
	if err := rows.Err(); err != nil {
		log.Printf("store: read search rows: %v", err)
		return nil, nil
	}

	return passages, nil
}

var _ rag.Retriever = (*PostgresRetriever)(nil)
