package unit

import (
	"context"
	"errors"
	"io"
	"log"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/assistly/support-agent/agents"
	"github.com/assistly/support-agent/llm"
)

type stubLLM struct {
	reply string
	err   error
	calls int
	// last captured request for prompt assertions
	lastMessages []llm.Message
	lastParams   llm.Params
}

func (s *stubLLM) Generate(ctx context.Context, messages []llm.Message, params llm.Params) (string, error) {
	s.calls++
	s.lastMessages = messages
	s.lastParams = params
	if s.err != nil {
		return "", s.err
	}
	return s.reply, nil
}

var _ llm.Client = (*stubLLM)(nil)

func discardLogger() *log.Logger {
	return log.New(io.Discard, "", 0)
}

func TestParseLabel(t *testing.T) {
	cases := []struct {
		reply string
		want  agents.Route
	}{
		{"BILLING", agents.RouteBilling},
		{"billing", agents.RouteBilling},
		{"I would route this to BILLING.", agents.RouteBilling},
		{"TECHNICAL", agents.RouteTechnical},
		{"  sales \n", agents.RouteSales},
		{"no idea", agents.RouteTechnical},
		{"", agents.RouteTechnical},
		// fixed priority order: billing wins over sales when both appear
		{"billing or maybe sales", agents.RouteBilling},
		{"technical, possibly sales", agents.RouteTechnical},
	}

	for _, tc := range cases {
		require.Equalf(t, tc.want, agents.ParseLabel(tc.reply), "reply %q", tc.reply)
	}
}

func TestClassifyUsesModelReply(t *testing.T) {
	client := &stubLLM{reply: " SALES \n"}
	router := agents.NewRouter(client, discardLogger())

	route, err := router.Classify(context.Background(), "what does the Pro plan cost?")
	require.NoError(t, err)
	require.Equal(t, agents.RouteSales, route)
	require.Equal(t, 1, client.calls)

	require.Len(t, client.lastMessages, 2)
	require.Equal(t, llm.RoleSystem, client.lastMessages[0].Role)
	require.Contains(t, client.lastMessages[1].Content, "what does the Pro plan cost?")
	require.InDelta(t, 0.1, client.lastParams.Temperature, 0.001)
}

func TestClassifyDefaultsToTechnicalOnAmbiguousReply(t *testing.T) {
	router := agents.NewRouter(&stubLLM{reply: "hmm, unclear"}, discardLogger())

	route, err := router.Classify(context.Background(), "hello?")
	require.NoError(t, err)
	require.Equal(t, agents.RouteTechnical, route)
}

func TestClassifyPropagatesGenerationError(t *testing.T) {
	router := agents.NewRouter(&stubLLM{err: errors.New("model offline")}, discardLogger())

	_, err := router.Classify(context.Background(), "anything")
	require.ErrorContains(t, err, "route query")
}
