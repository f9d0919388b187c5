// Package api exposes the support pipeline over HTTP.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/assistly/support-agent/database"
	"github.com/assistly/support-agent/ingestion"
	"github.com/assistly/support-agent/llm"
	"github.com/assistly/support-agent/rag"
	"github.com/assistly/support-agent/workflow"
)

const httpShutdownTimeout = 10 * time.Second

type Server struct {
	flow    *workflow.Workflow
	ingest  *ingestion.Service
	index   *rag.Store
	store   database.Store
	logger  *log.Logger
	handler http.Handler
}

type errorResponse struct {
	Error string `json:"error"`
}

type messageResponse struct {
	Message string `json:"message"`
}

type historyTurn struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type queryRequest struct {
	CustomerID string        `json:"customerId"`
	Query      string        `json:"query"`
	History    []historyTurn `json:"history"`
}

type queryResponse struct {
	RequestID string `json:"requestId"`
	Response  string `json:"response"`
}

type ingestRequest struct {
	Dir string `json:"dir"`
}

type clearRequest struct {
	Confirm bool `json:"confirm"`
}

type ticketRequest struct {
	CustomerID  string `json:"customerId"`
	IssueType   string `json:"issueType"`
	Subject     string `json:"subject"`
	Description string `json:"description"`
	Priority    string `json:"priority"`
}

type ticketResponse struct {
	TicketID string `json:"ticketId"`
}

// New constructs a Server over already-built collaborators. Services are
// created once at process start and reused across requests.
func New(flow *workflow.Workflow, ingest *ingestion.Service, index *rag.Store, store database.Store, logger *log.Logger) *Server {
	if logger == nil {
		logger = log.Default()
	}

	s := &Server{flow: flow, ingest: ingest, index: index, store: store, logger: logger}
	s.handler = s.routes()
	return s
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.handler.ServeHTTP(w, r)
}

func (s *Server) routes() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", s.handleHealth)
	mux.HandleFunc("/v1/query", s.handleQuery)
	mux.HandleFunc("/v1/ingest", s.handleIngest)
	mux.HandleFunc("/v1/clear", s.handleClear)
	mux.HandleFunc("/v1/tickets", s.handleCreateTicket)
	return mux
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	writeJSON(w, http.StatusOK, messageResponse{Message: "ok"})
}

func (s *Server) handleQuery(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	var req queryRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if strings.TrimSpace(req.CustomerID) == "" || strings.TrimSpace(req.Query) == "" {
		writeError(w, http.StatusBadRequest, "customerId and query are required")
		return
	}

	history := make([]llm.Message, 0, len(req.History))
	for _, turn := range req.History {
		history = append(history, llm.Message{Role: turn.Role, Content: turn.Content})
	}

	requestID := uuid.New().String()
	response, err := s.flow.Run(r.Context(), req.CustomerID, req.Query, history)
	if err != nil {
		s.logger.Printf("query %s failed: %v", requestID, err)
		writeError(w, http.StatusBadGateway, "query processing failed")
		return
	}

	writeJSON(w, http.StatusOK, queryResponse{RequestID: requestID, Response: response})
}

func (s *Server) handleIngest(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	var req ingestRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.Dir == "" {
		writeError(w, http.StatusBadRequest, "dir is required")
		return
	}

	if err := s.ingest.IngestDirectory(r.Context(), req.Dir); err != nil {
		s.logger.Printf("ingest failed: %v", err)
		writeError(w, http.StatusInternalServerError, "ingestion failed")
		return
	}

	count, err := s.index.Count(r.Context())
	if err != nil {
		s.logger.Printf("count after ingest failed: %v", err)
		writeError(w, http.StatusInternalServerError, "ingestion finished but count failed")
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{"message": "ingestion complete", "indexed": count})
}

func (s *Server) handleClear(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	var req clearRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if !req.Confirm {
		writeError(w, http.StatusBadRequest, "clearing the knowledge base requires confirm: true")
		return
	}

	if err := s.index.Clear(r.Context()); err != nil {
		s.logger.Printf("clear failed: %v", err)
		writeError(w, http.StatusInternalServerError, "clear failed")
		return
	}

	writeJSON(w, http.StatusOK, messageResponse{Message: "knowledge base cleared"})
}

func (s *Server) handleCreateTicket(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	var req ticketRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.CustomerID == "" || req.Subject == "" {
		writeError(w, http.StatusBadRequest, "customerId and subject are required")
		return
	}

	if _, err := s.store.GetCustomer(r.Context(), req.CustomerID); err != nil {
		if errors.Is(err, database.ErrNotFound) {
			writeError(w, http.StatusNotFound, "customer not found")
			return
		}
		s.logger.Printf("ticket lookup failed: %v", err)
		writeError(w, http.StatusInternalServerError, "ticket creation failed")
		return
	}

	ticketID, err := s.store.CreateTicket(r.Context(), req.CustomerID, req.IssueType, req.Subject, req.Description, req.Priority)
	if err != nil {
		s.logger.Printf("ticket creation failed: %v", err)
		writeError(w, http.StatusInternalServerError, "ticket creation failed")
		return
	}

	writeJSON(w, http.StatusCreated, ticketResponse{TicketID: ticketID.String()})
}

// ListenAndServe blocks serving the API until the context is canceled.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	srv := &http.Server{Addr: addr, Handler: s.handler}

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), httpShutdownTimeout)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	}
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, errorResponse{Error: message})
}
