// Package agents implements the department specialists. Each agent gathers a
// customer's structured records, pulls knowledge-base context through the
// retriever, and composes a single prompt for the generation service. Agents
// hold only collaborators; all per-call state arrives as arguments.
package agents

import (
	"context"
	"fmt"
	"strings"

	"github.com/assistly/support-agent/database"
	"github.com/assistly/support-agent/llm"
)

// AccountNotFoundMessage is returned verbatim when the customer id cannot be
// resolved. No model call is made in that case.
const AccountNotFoundMessage = "I couldn't find your account. Please verify your customer ID."

// historyTurnLimit bounds how much conversation history reaches the prompt:
// the most recent 6 turns (3 exchanges).
const historyTurnLimit = 6

// Retriever is the knowledge-base surface the agents consume.
type Retriever interface {
	ForBilling(ctx context.Context, query string) (string, error)
	ForTechnical(ctx context.Context, query string) (string, error)
	ForSales(ctx context.Context, query string) (string, error)
}

// FormatHistory renders the most recent turns as alternating Customer/Agent
// lines, capped at historyTurnLimit. Empty history renders as an empty string.
func FormatHistory(history []llm.Message) string {
	if len(history) == 0 {
		return ""
	}

	turns := history
	if len(turns) > historyTurnLimit {
		turns = turns[len(turns)-historyTurnLimit:]
	}

	var sb strings.Builder
	sb.WriteString("PREVIOUS CONVERSATION:\n")
	for _, turn := range turns {
		role := "Agent"
		if turn.Role == llm.RoleUser {
			role = "Customer"
		}
		sb.WriteString(role)
		sb.WriteString(": ")
		sb.WriteString(turn.Content)
		sb.WriteString("\n")
	}
	sb.WriteString("\n")
	return sb.String()
}

func formatBillingRecords(records []database.BillingRecord) string {
	if len(records) == 0 {
		return "No billing history found."
	}

	lines := make([]string, 0, len(records))
	for _, r := range records {
		lines = append(lines, fmt.Sprintf("- %s: $%.2f (%s) Invoice: %s",
			r.BillingDate.Format("2006-01-02"), r.Amount, r.Status, r.InvoiceNumber))
	}
	return strings.Join(lines, "\n")
}

func formatTickets(tickets []database.Ticket) string {
	if len(tickets) == 0 {
		return "No previous tickets found."
	}

	lines := make([]string, 0, len(tickets))
	for _, t := range tickets {
		lines = append(lines, fmt.Sprintf("- Ticket #%s: %s (%s) - %s",
			t.ID, t.Subject, t.Status, t.CreatedAt.Format("2006-01-02")))
	}
	return strings.Join(lines, "\n")
}

func formatPlans(plans []database.Plan) string {
	if len(plans) == 0 {
		return "No plans available."
	}

	lines := make([]string, 0, len(plans))
	for _, p := range plans {
		lines = append(lines, fmt.Sprintf("- %s: $%.2f/%s\n  Features: %s",
			p.Name, p.Price, p.BillingCycle, p.Features))
	}
	return strings.Join(lines, "\n")
}

func capBilling(records []database.BillingRecord, max int) []database.BillingRecord {
	if len(records) > max {
		return records[:max]
	}
	return records
}

func capTickets(tickets []database.Ticket, max int) []database.Ticket {
	if len(tickets) > max {
		return tickets[:max]
	}
	return tickets
}
