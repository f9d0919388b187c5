package agents

import (
	"context"
	"errors"
	"fmt"
	"log"

	"github.com/assistly/support-agent/database"
	"github.com/assistly/support-agent/llm"
)

const billingTemperature = 0.3

// billingHistoryCap bounds how many recent invoices reach the prompt.
const billingHistoryCap = 5

const billingSystemPrompt = `You are a billing specialist at Assistly customer support.

Your responsibilities:
- Help with payment issues, refunds, invoices
- Explain billing policies clearly
- Check customer billing history in database
- Resolve billing disputes professionally

Guidelines:
- Be empathetic and understanding about billing concerns
- Always check the database for customer's actual billing data
- Use the knowledge base for policy information
- Provide specific invoice numbers and dates
- Offer concrete solutions, not just explanations
- Escalate complex issues to human support if needed
- If this is a follow-up message, acknowledge previous conversation

Tone: Professional, empathetic, solution-oriented`

// BillingAgent answers payment, refund, and subscription queries.
type BillingAgent struct {
	db        database.Store
	retriever Retriever
	llm       llm.Client
	logger    *log.Logger
}

func NewBillingAgent(db database.Store, retriever Retriever, client llm.Client, logger *log.Logger) *BillingAgent {
	if logger == nil {
		logger = log.Default()
	}
	return &BillingAgent{db: db, retriever: retriever, llm: client, logger: logger}
}

func (a *BillingAgent) Handle(ctx context.Context, customerID, query string, history []llm.Message) (string, error) {
	customer, err := a.db.GetCustomer(ctx, customerID)
	if err != nil {
		if errors.Is(err, database.ErrNotFound) {
			return AccountNotFoundMessage, nil
		}
		return "", fmt.Errorf("look up customer: %w", err)
	}

	billingHistory, err := a.db.GetBillingHistory(ctx, customerID)
	if err != nil {
		return "", fmt.Errorf("billing history: %w", err)
	}
	failedPayments, err := a.db.GetFailedPayments(ctx, customerID)
	if err != nil {
		return "", fmt.Errorf("failed payments: %w", err)
	}

	knowledge, err := a.retriever.ForBilling(ctx, query)
	if err != nil {
		return "", fmt.Errorf("retrieve billing context: %w", err)
	}

	failedText := "None"
	if len(failedPayments) > 0 {
		failedText = formatBillingRecords(failedPayments)
	}

	prompt := fmt.Sprintf(`%sCUSTOMER INFORMATION:
- Name: %s
- Email: %s
- Current Plan: %s

RECENT BILLING HISTORY:
%s

FAILED PAYMENTS:
%s

RELEVANT POLICIES:
%s

CURRENT CUSTOMER MESSAGE:
%s

INSTRUCTIONS:
- If this is a follow-up to previous conversation, acknowledge the context
- Answer the current question while considering conversation history
- Be conversational and natural`,
		FormatHistory(history),
		customer.Name, customer.Email, customer.Plan,
		formatBillingRecords(capBilling(billingHistory, billingHistoryCap)),
		failedText,
		knowledge,
		query,
	)

	messages := []llm.Message{
		{Role: llm.RoleSystem, Content: billingSystemPrompt},
		{Role: llm.RoleUser, Content: prompt},
	}

	reply, err := a.llm.Generate(ctx, messages, llm.Params{Temperature: billingTemperature})
	if err != nil {
		return "", fmt.Errorf("generate billing reply: %w", err)
	}
	return reply, nil
}
