package database

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
)

// EnsureSchema creates the support tables and the pgvector-backed knowledge
// table if they do not exist. The dimension parameter fixes the width of the
// embedding column and must match the configured embedding model.
func EnsureSchema(ctx context.Context, pool *pgxpool.Pool, dimension int) error {
	if dimension <= 0 {
		return fmt.Errorf("embedding dimension must be positive")
	}

	stmts := []string{
		"CREATE EXTENSION IF NOT EXISTS vector",
		`CREATE TABLE IF NOT EXISTS customers (
			customer_id TEXT PRIMARY KEY,
			name TEXT NOT NULL,
			email TEXT UNIQUE NOT NULL,
			plan TEXT NOT NULL,
			created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
		)`,
		`CREATE TABLE IF NOT EXISTS billing_history (
			invoice_number TEXT PRIMARY KEY,
			customer_id TEXT NOT NULL REFERENCES customers(customer_id) ON DELETE CASCADE,
			amount NUMERIC(10, 2) NOT NULL,
			status TEXT NOT NULL,
			billing_date TIMESTAMPTZ NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS tickets (
			ticket_id UUID PRIMARY KEY,
			customer_id TEXT NOT NULL REFERENCES customers(customer_id) ON DELETE CASCADE,
			issue_type TEXT NOT NULL,
			subject TEXT NOT NULL,
			description TEXT NOT NULL,
			status TEXT NOT NULL DEFAULT 'open',
			priority TEXT NOT NULL DEFAULT 'medium',
			created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
		)`,
		`CREATE TABLE IF NOT EXISTS plans (
			plan_id TEXT PRIMARY KEY,
			plan_name TEXT NOT NULL,
			price NUMERIC(10, 2) NOT NULL,
			billing_cycle TEXT NOT NULL,
			features TEXT NOT NULL,
			active BOOLEAN NOT NULL DEFAULT TRUE
		)`,
		fmt.Sprintf(`CREATE TABLE IF NOT EXISTS kb_chunks (
			collection TEXT NOT NULL,
			id TEXT NOT NULL,
			source TEXT NOT NULL,
			chunk_index INT NOT NULL,
			content TEXT NOT NULL,
			embedding VECTOR(%d) NOT NULL,
			created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
			updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
			PRIMARY KEY (collection, id)
		)`, dimension),
		"CREATE INDEX IF NOT EXISTS idx_billing_history_customer ON billing_history(customer_id, billing_date DESC)",
		"CREATE INDEX IF NOT EXISTS idx_tickets_customer ON tickets(customer_id, created_at DESC)",
		"CREATE INDEX IF NOT EXISTS idx_kb_chunks_embedding ON kb_chunks USING ivfflat (embedding vector_l2_ops)",
	}

	for _, stmt := range stmts {
		if _, err := pool.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("execute schema statement: %w", err)
		}
	}

	return nil
}
