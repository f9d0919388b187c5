package agents

import (
	"context"
	"errors"
	"fmt"
	"log"

	"github.com/assistly/support-agent/database"
	"github.com/assistly/support-agent/llm"
)

// Slightly warmer than the other specialists for friendlier replies.
const salesTemperature = 0.4

const salesSystemPrompt = `You are a sales specialist at Assistly.

Your responsibilities:
- Answer questions about features and plans
- Help customers choose the right plan
- Explain upgrade/downgrade processes
- Highlight value and benefits
- Compare plan features

Guidelines:
- Be enthusiastic but not pushy
- Focus on customer needs, not just features
- Provide clear plan comparisons
- Mention current plan and suggest relevant upgrades
- Be honest about limitations of each plan
- Provide specific pricing and feature details
- Make it easy to take next steps
- Remember what you've already explained in the conversation

Tone: Friendly, helpful, value-focused`

// SalesAgent answers product, plan, and upgrade questions.
type SalesAgent struct {
	db        database.Store
	retriever Retriever
	llm       llm.Client
	logger    *log.Logger
}

func NewSalesAgent(db database.Store, retriever Retriever, client llm.Client, logger *log.Logger) *SalesAgent {
	if logger == nil {
		logger = log.Default()
	}
	return &SalesAgent{db: db, retriever: retriever, llm: client, logger: logger}
}

func (a *SalesAgent) Handle(ctx context.Context, customerID, query string, history []llm.Message) (string, error) {
	customer, err := a.db.GetCustomer(ctx, customerID)
	if err != nil {
		if errors.Is(err, database.ErrNotFound) {
			return AccountNotFoundMessage, nil
		}
		return "", fmt.Errorf("look up customer: %w", err)
	}

	currentPlanLine := fmt.Sprintf("- Current Plan: %s", customer.Plan)
	currentPlan, err := a.db.GetPlan(ctx, customer.Plan)
	if err != nil && !errors.Is(err, database.ErrNotFound) {
		return "", fmt.Errorf("current plan: %w", err)
	}
	if err == nil {
		currentPlanLine = fmt.Sprintf("- Current Plan: %s ($%.2f/%s)", currentPlan.Name, currentPlan.Price, currentPlan.BillingCycle)
	}

	allPlans, err := a.db.GetAllPlans(ctx)
	if err != nil {
		return "", fmt.Errorf("list plans: %w", err)
	}

	knowledge, err := a.retriever.ForSales(ctx, query)
	if err != nil {
		return "", fmt.Errorf("retrieve sales context: %w", err)
	}

	prompt := fmt.Sprintf(`%sCUSTOMER INFORMATION:
- Name: %s
%s

ALL AVAILABLE PLANS:
%s

PRODUCT INFORMATION:
%s

CURRENT CUSTOMER MESSAGE:
%s

INSTRUCTIONS:
- If customer asked follow-up questions, answer them in context of previous discussion
- Be conversational and remember what you've already explained
- Don't repeat information unless asked`,
		FormatHistory(history),
		customer.Name,
		currentPlanLine,
		formatPlans(allPlans),
		knowledge,
		query,
	)

	messages := []llm.Message{
		{Role: llm.RoleSystem, Content: salesSystemPrompt},
		{Role: llm.RoleUser, Content: prompt},
	}

	reply, err := a.llm.Generate(ctx, messages, llm.Params{Temperature: salesTemperature})
	if err != nil {
		return "", fmt.Errorf("generate sales reply: %w", err)
	}
	return reply, nil
}
