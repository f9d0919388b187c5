package database

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// ErrNotFound is returned by single-row lookups when no record matches.
var ErrNotFound = errors.New("record not found")

type Customer struct {
	ID        string
	Name      string
	Email     string
	Plan      string
	CreatedAt time.Time
}

type BillingRecord struct {
	InvoiceNumber string
	CustomerID    string
	Amount        float64
	Status        string
	BillingDate   time.Time
}

type Ticket struct {
	ID          uuid.UUID
	CustomerID  string
	IssueType   string
	Subject     string
	Description string
	Status      string
	Priority    string
	CreatedAt   time.Time
}

type Plan struct {
	ID           string
	Name         string
	Price        float64
	BillingCycle string
	Features     string
	Active       bool
}

// Store is the relational lookup surface the agents depend on.
type Store interface {
	GetCustomer(ctx context.Context, customerID string) (Customer, error)
	GetCustomerByEmail(ctx context.Context, email string) (Customer, error)
	GetBillingHistory(ctx context.Context, customerID string) ([]BillingRecord, error)
	GetFailedPayments(ctx context.Context, customerID string) ([]BillingRecord, error)
	GetTickets(ctx context.Context, customerID string) ([]Ticket, error)
	GetTicketsByStatus(ctx context.Context, customerID, status string) ([]Ticket, error)
	CreateTicket(ctx context.Context, customerID, issueType, subject, description, priority string) (uuid.UUID, error)
	GetPlan(ctx context.Context, planID string) (Plan, error)
	GetAllPlans(ctx context.Context) ([]Plan, error)
}

type PostgresStore struct {
	pool *pgxpool.Pool
}

func NewPostgresStore(pool *pgxpool.Pool) *PostgresStore {
	return &PostgresStore{pool: pool}
}

func (s *PostgresStore) GetCustomer(ctx context.Context, customerID string) (Customer, error) {
	return s.queryCustomer(ctx, "SELECT customer_id, name, email, plan, created_at FROM customers WHERE customer_id = $1", customerID)
}

func (s *PostgresStore) GetCustomerByEmail(ctx context.Context, email string) (Customer, error) {
	return s.queryCustomer(ctx, "SELECT customer_id, name, email, plan, created_at FROM customers WHERE email = $1", email)
}

func (s *PostgresStore) queryCustomer(ctx context.Context, query, arg string) (Customer, error) {
	var c Customer
	err := s.pool.QueryRow(ctx, query, arg).Scan(&c.ID, &c.Name, &c.Email, &c.Plan, &c.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Customer{}, ErrNotFound
		}
		return Customer{}, fmt.Errorf("query customer: %w", err)
	}
	return c, nil
}

func (s *PostgresStore) GetBillingHistory(ctx context.Context, customerID string) ([]BillingRecord, error) {
	return s.queryBilling(ctx, `
		SELECT invoice_number, customer_id, amount, status, billing_date
		FROM billing_history
		WHERE customer_id = $1
		ORDER BY billing_date DESC
	`, customerID)
}

func (s *PostgresStore) GetFailedPayments(ctx context.Context, customerID string) ([]BillingRecord, error) {
	return s.queryBilling(ctx, `
		SELECT invoice_number, customer_id, amount, status, billing_date
		FROM billing_history
		WHERE customer_id = $1 AND status = 'failed'
		ORDER BY billing_date DESC
	`, customerID)
}

func (s *PostgresStore) queryBilling(ctx context.Context, query, customerID string) ([]BillingRecord, error) {
	rows, err := s.pool.Query(ctx, query, customerID)
	if err != nil {
		return nil, fmt.Errorf("query billing history: %w", err)
	}
	defer rows.Close()

	records := make([]BillingRecord, 0)
	for rows.Next() {
		var r BillingRecord
		if err := rows.Scan(&r.InvoiceNumber, &r.CustomerID, &r.Amount, &r.Status, &r.BillingDate); err != nil {
			return nil, fmt.Errorf("scan billing record: %w", err)
		}
		records = append(records, r)
	}
	return records, rows.Err()
}

func (s *PostgresStore) GetTickets(ctx context.Context, customerID string) ([]Ticket, error) {
	return s.queryTickets(ctx, `
		SELECT ticket_id, customer_id, issue_type, subject, description, status, priority, created_at
		FROM tickets
		WHERE customer_id = $1
		ORDER BY created_at DESC
	`, customerID)
}

func (s *PostgresStore) GetTicketsByStatus(ctx context.Context, customerID, status string) ([]Ticket, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT ticket_id, customer_id, issue_type, subject, description, status, priority, created_at
		FROM tickets
		WHERE customer_id = $1 AND status = $2
		ORDER BY created_at DESC
	`, customerID, status)
	if err != nil {
		return nil, fmt.Errorf("query tickets: %w", err)
	}
	defer rows.Close()
	return scanTickets(rows)
}

func (s *PostgresStore) queryTickets(ctx context.Context, query, customerID string) ([]Ticket, error) {
	rows, err := s.pool.Query(ctx, query, customerID)
	if err != nil {
		return nil, fmt.Errorf("query tickets: %w", err)
	}
	defer rows.Close()
	return scanTickets(rows)
}

func scanTickets(rows pgx.Rows) ([]Ticket, error) {
	tickets := make([]Ticket, 0)
	for rows.Next() {
		var t Ticket
		if err := rows.Scan(&t.ID, &t.CustomerID, &t.IssueType, &t.Subject, &t.Description, &t.Status, &t.Priority, &t.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan ticket: %w", err)
		}
		tickets = append(tickets, t)
	}
	return tickets, rows.Err()
}

func (s *PostgresStore) CreateTicket(ctx context.Context, customerID, issueType, subject, description, priority string) (uuid.UUID, error) {
	if priority == "" {
		priority = "medium"
	}

	ticketID := uuid.New()
	_, err := s.pool.Exec(ctx, `
		INSERT INTO tickets (ticket_id, customer_id, issue_type, subject, description, status, priority, created_at)
		VALUES ($1, $2, $3, $4, $5, 'open', $6, NOW())
	`, ticketID, customerID, issueType, subject, description, priority)
	if err != nil {
		return uuid.Nil, fmt.Errorf("insert ticket: %w", err)
	}
	return ticketID, nil
}

func (s *PostgresStore) GetPlan(ctx context.Context, planID string) (Plan, error) {
	var p Plan
	err := s.pool.QueryRow(ctx, `
		SELECT plan_id, plan_name, price, billing_cycle, features, active
		FROM plans
		WHERE plan_id = $1
	`, planID).Scan(&p.ID, &p.Name, &p.Price, &p.BillingCycle, &p.Features, &p.Active)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Plan{}, ErrNotFound
		}
		return Plan{}, fmt.Errorf("query plan: %w", err)
	}
	return p, nil
}

func (s *PostgresStore) GetAllPlans(ctx context.Context) ([]Plan, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT plan_id, plan_name, price, billing_cycle, features, active
		FROM plans
		WHERE active = TRUE
		ORDER BY price
	`)
	if err != nil {
		return nil, fmt.Errorf("query plans: %w", err)
	}
	defer rows.Close()

	plans := make([]Plan, 0)
	for rows.Next() {
		var p Plan
		if err := rows.Scan(&p.ID, &p.Name, &p.Price, &p.BillingCycle, &p.Features, &p.Active); err != nil {
			return nil, fmt.Errorf("scan plan: %w", err)
		}
		plans = append(plans, p)
	}
	return plans, rows.Err()
}

var _ Store = (*PostgresStore)(nil)
