// Package workflow wires the routing graph: one classification step fanning
// out to exactly one department handler, then done. The graph is held as a
// transition table rather than control flow so dispatch stays testable apart
// from the handlers.
package workflow

import (
	"context"
	"fmt"
	"log"

	"github.com/assistly/support-agent/agents"
	"github.com/assistly/support-agent/llm"
)

// Classifier decides which department handles a query. The production
// implementation is agents.Router; tests substitute a deterministic stub.
type Classifier interface {
	Classify(ctx context.Context, query string) (agents.Route, error)
}

// Handler produces the department response for a routed query.
type Handler interface {
	Handle(ctx context.Context, customerID, query string, history []llm.Message) (string, error)
}

// Workflow runs the fixed pipeline: classify, dispatch, return. No retries,
// no branching back.
type Workflow struct {
	classifier Classifier
	handlers   map[agents.Route]Handler
	logger     *log.Logger
}

func New(classifier Classifier, billing, technical, sales Handler, logger *log.Logger) (*Workflow, error) {
	if classifier == nil {
		return nil, fmt.Errorf("classifier is required")
	}
	if billing == nil || technical == nil || sales == nil {
		return nil, fmt.Errorf("all three department handlers are required")
	}
	if logger == nil {
		logger = log.Default()
	}

	return &Workflow{
		classifier: classifier,
		handlers: map[agents.Route]Handler{
			agents.RouteBilling:   billing,
			agents.RouteTechnical: technical,
			agents.RouteSales:     sales,
		},
		logger: logger,
	}, nil
}

// Run is the sole public operation of the pipeline: a customer id, the query
// text, and the caller-owned conversation history in, the department's
// response text out, unchanged.
func (w *Workflow) Run(ctx context.Context, customerID, query string, history []llm.Message) (string, error) {
	route, err := w.classifier.Classify(ctx, query)
	if err != nil {
		return "", fmt.Errorf("classify query: %w", err)
	}

	handler, ok := w.handlers[route]
	if !ok {
		// Classifier contract violation; the router itself never emits
		// anything outside the table.
		return "", fmt.Errorf("no handler for route %q", route)
	}

	w.logger.Printf("dispatching query for %s to %s", customerID, route)

	response, err := handler.Handle(ctx, customerID, query, history)
	if err != nil {
		return "", fmt.Errorf("%s handler: %w", route, err)
	}
	return response, nil
}
