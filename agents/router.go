package agents

import (
	"context"
	"fmt"
	"log"
	"strings"

	"github.com/assistly/support-agent/llm"
)

// Route identifies the department that handles a query.
type Route string

const (
	RouteBilling   Route = "billing"
	RouteTechnical Route = "technical"
	RouteSales     Route = "sales"
)

// routerTemperature stays low so the one-word classification is as repeatable
// as the model allows.
const routerTemperature = 0.1

const routerSystemPrompt = `You are a routing agent for Assistly customer support.

Your job is to analyze the customer's query and determine which specialist should handle it.

Available specialists:
- BILLING: Payment issues, refunds, invoices, subscription changes, billing errors
- TECHNICAL: Login problems, bugs, performance issues, integration problems, errors
- SALES: Product questions, plan upgrades, feature inquiries, pricing, demos

Rules:
- Respond with ONLY ONE WORD: BILLING, TECHNICAL, or SALES
- If query mentions money/payment/invoice/refund -> BILLING
- If query mentions error/bug/not working/slow/login -> TECHNICAL
- If query mentions features/plans/pricing/upgrade -> SALES
- If unclear, default to TECHNICAL

Examples:
"I was charged twice" -> BILLING
"Can't login to my account" -> TECHNICAL
"What features are in Pro plan?" -> SALES
"My dashboard is slow" -> TECHNICAL`

// Router classifies a query into a department with a single model call. It is
// a best-effort heuristic: the raw reply is keyword-matched and anything
// unrecognized falls back to technical.
type Router struct {
	llm    llm.Client
	logger *log.Logger
}

func NewRouter(client llm.Client, logger *log.Logger) *Router {
	if logger == nil {
		logger = log.Default()
	}
	return &Router{llm: client, logger: logger}
}

func (r *Router) Classify(ctx context.Context, query string) (Route, error) {
	messages := []llm.Message{
		{Role: llm.RoleSystem, Content: routerSystemPrompt},
		{Role: llm.RoleUser, Content: "Customer query: " + query},
	}

	reply, err := r.llm.Generate(ctx, messages, llm.Params{Temperature: routerTemperature})
	if err != nil {
		return "", fmt.Errorf("route query: %w", err)
	}

	route := ParseLabel(reply)
	r.logger.Printf("routed query to %s", route)
	return route, nil
}

// ParseLabel matches the model reply case-insensitively against the known
// labels in fixed priority order. No match defaults to technical.
func ParseLabel(reply string) Route {
	decision := strings.ToLower(reply)
	switch {
	case strings.Contains(decision, string(RouteBilling)):
		return RouteBilling
	case strings.Contains(decision, string(RouteTechnical)):
		return RouteTechnical
	case strings.Contains(decision, string(RouteSales)):
		return RouteSales
	default:
		return RouteTechnical
	}
}
