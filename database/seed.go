package database

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Seed inserts demo customers, plans, billing history, and tickets so the
// agent can be exercised without a production data import. Existing rows with
// the same keys are left untouched.
func Seed(ctx context.Context, pool *pgxpool.Pool) error {
	plans := []Plan{
		{ID: "basic", Name: "Basic", Price: 9.99, BillingCycle: "month", Features: "1 project, email support", Active: true},
		{ID: "pro", Name: "Pro", Price: 29.99, BillingCycle: "month", Features: "10 projects, priority support, API access", Active: true},
		{ID: "enterprise", Name: "Enterprise", Price: 99.99, BillingCycle: "month", Features: "Unlimited projects, dedicated support, SSO, audit logs", Active: true},
	}
	for _, p := range plans {
		if _, err := pool.Exec(ctx, `
			INSERT INTO plans (plan_id, plan_name, price, billing_cycle, features, active)
			VALUES ($1, $2, $3, $4, $5, $6)
			ON CONFLICT (plan_id) DO NOTHING
		`, p.ID, p.Name, p.Price, p.BillingCycle, p.Features, p.Active); err != nil {
			return fmt.Errorf("seed plan %s: %w", p.ID, err)
		}
	}

	customers := []Customer{
		{ID: "CUST001", Name: "Alice Moreau", Email: "alice@example.com", Plan: "pro"},
		{ID: "CUST002", Name: "Bram de Vries", Email: "bram@example.com", Plan: "basic"},
		{ID: "CUST003", Name: "Carla Jensen", Email: "carla@example.com", Plan: "enterprise"},
	}
	for _, c := range customers {
		if _, err := pool.Exec(ctx, `
			INSERT INTO customers (customer_id, name, email, plan, created_at)
			VALUES ($1, $2, $3, $4, NOW())
			ON CONFLICT (customer_id) DO NOTHING
		`, c.ID, c.Name, c.Email, c.Plan); err != nil {
			return fmt.Errorf("seed customer %s: %w", c.ID, err)
		}
	}

	type invoice struct {
		number   string
		customer string
		amount   float64
		status   string
		daysAgo  int
	}
	invoices := []invoice{
		{"INV-1001", "CUST001", 29.99, "paid", 60},
		{"INV-1002", "CUST001", 29.99, "paid", 30},
		{"INV-1003", "CUST001", 29.99, "failed", 2},
		{"INV-2001", "CUST002", 9.99, "paid", 15},
		{"INV-3001", "CUST003", 99.99, "paid", 10},
	}
	for _, inv := range invoices {
		if _, err := pool.Exec(ctx, `
			INSERT INTO billing_history (invoice_number, customer_id, amount, status, billing_date)
			VALUES ($1, $2, $3, $4, NOW() - make_interval(days => $5))
			ON CONFLICT (invoice_number) DO NOTHING
		`, inv.number, inv.customer, inv.amount, inv.status, inv.daysAgo); err != nil {
			return fmt.Errorf("seed invoice %s: %w", inv.number, err)
		}
	}

	if _, err := pool.Exec(ctx, `
		INSERT INTO tickets (ticket_id, customer_id, issue_type, subject, description, status, priority, created_at)
		VALUES ($1, 'CUST002', 'login', 'Cannot sign in', 'Password reset email never arrives.', 'resolved', 'high', NOW() - INTERVAL '20 days')
		ON CONFLICT (ticket_id) DO NOTHING
	`, uuid.New()); err != nil {
		return fmt.Errorf("seed ticket: %w", err)
	}

	return nil
}
