package agents

import (
	"context"
	"errors"
	"fmt"
	"log"

	"github.com/assistly/support-agent/database"
	"github.com/assistly/support-agent/llm"
)

const technicalTemperature = 0.3

// ticketCap bounds how many recent tickets reach the prompt.
const ticketCap = 3

const technicalSystemPrompt = `You are a technical support specialist at Assistly.

Your responsibilities:
- Troubleshoot technical issues (login, performance, bugs)
- Provide step-by-step solutions
- Reference troubleshooting guides from knowledge base
- Check customer's past tickets for recurring issues

Guidelines:
- Be patient and clear with technical instructions
- Provide numbered step-by-step solutions
- Use simple language, avoid jargon
- Ask clarifying questions if needed
- Reference specific error messages or symptoms
- Offer alternative solutions if first doesn't work
- Create support tickets for unresolved issues
- If customer provides information in response to your questions, acknowledge it and continue troubleshooting

Tone: Patient, helpful, technically accurate`

// TechnicalAgent troubleshoots product and account issues.
type TechnicalAgent struct {
	db        database.Store
	retriever Retriever
	llm       llm.Client
	logger    *log.Logger
}

func NewTechnicalAgent(db database.Store, retriever Retriever, client llm.Client, logger *log.Logger) *TechnicalAgent {
	if logger == nil {
		logger = log.Default()
	}
	return &TechnicalAgent{db: db, retriever: retriever, llm: client, logger: logger}
}

func (a *TechnicalAgent) Handle(ctx context.Context, customerID, query string, history []llm.Message) (string, error) {
	customer, err := a.db.GetCustomer(ctx, customerID)
	if err != nil {
		if errors.Is(err, database.ErrNotFound) {
			return AccountNotFoundMessage, nil
		}
		return "", fmt.Errorf("look up customer: %w", err)
	}

	tickets, err := a.db.GetTickets(ctx, customerID)
	if err != nil {
		return "", fmt.Errorf("past tickets: %w", err)
	}

	knowledge, err := a.retriever.ForTechnical(ctx, query)
	if err != nil {
		return "", fmt.Errorf("retrieve technical context: %w", err)
	}

	prompt := fmt.Sprintf(`%sCUSTOMER INFORMATION:
- Name: %s
- Plan: %s (determines available features)

PAST TECHNICAL ISSUES:
%s

TROUBLESHOOTING GUIDES:
%s

CURRENT CUSTOMER MESSAGE:
%s

INSTRUCTIONS:
- If customer provided information in response to your previous questions, acknowledge it
- Continue troubleshooting based on conversation history
- Be patient and guide them step-by-step`,
		FormatHistory(history),
		customer.Name, customer.Plan,
		formatTickets(capTickets(tickets, ticketCap)),
		knowledge,
		query,
	)

	messages := []llm.Message{
		{Role: llm.RoleSystem, Content: technicalSystemPrompt},
		{Role: llm.RoleUser, Content: prompt},
	}

	reply, err := a.llm.Generate(ctx, messages, llm.Params{Temperature: technicalTemperature})
	if err != nil {
		return "", fmt.Errorf("generate technical reply: %w", err)
	}
	return reply, nil
}
