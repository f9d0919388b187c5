package main

import (
	"bufio"
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/assistly/support-agent/agents"
	"github.com/assistly/support-agent/api"
	"github.com/assistly/support-agent/config"
	"github.com/assistly/support-agent/database"
	"github.com/assistly/support-agent/embeddings"
	"github.com/assistly/support-agent/ingestion"
	"github.com/assistly/support-agent/llm"
	"github.com/assistly/support-agent/rag"
	"github.com/assistly/support-agent/workflow"
)

func main() {
	logger := log.New(os.Stdout, "", log.LstdFlags)

	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	cfg := config.Load()

	switch os.Args[1] {
	case "setup":
		setupCmd(cfg, logger, os.Args[2:])
	case "ingest":
		ingestCmd(cfg, logger, os.Args[2:])
	case "chat":
		chatCmd(cfg, logger, os.Args[2:])
	case "clear":
		clearCmd(cfg, logger, os.Args[2:])
	case "serve":
		serveCmd(cfg, logger, os.Args[2:])
	default:
		logger.Printf("unknown command: %s", os.Args[1])
		printUsage()
		os.Exit(1)
	}
}

func setupCmd(cfg config.Config, logger *log.Logger, args []string) {
	flags := flag.NewFlagSet("setup", flag.ExitOnError)
	seed := flags.Bool("seed", true, "insert demo customers, plans, and tickets")
	if err := flags.Parse(args); err != nil {
		logger.Fatalf("parse setup flags: %v", err)
	}

	ctx, cancel := signalContext()
	defer cancel()

	pool, err := database.NewPostgresPool(ctx, cfg.PostgresDSN)
	if err != nil {
		logger.Fatalf("postgres connection: %v", err)
	}
	defer pool.Close()

	if err := database.EnsureSchema(ctx, pool, cfg.Embeddings.Dimension); err != nil {
		logger.Fatalf("ensure schema: %v", err)
	}
	logger.Println("schema ready")

	if *seed {
		if err := database.Seed(ctx, pool); err != nil {
			logger.Fatalf("seed demo data: %v", err)
		}
		logger.Println("demo data seeded")
	}
}

func ingestCmd(cfg config.Config, logger *log.Logger, args []string) {
	flags := flag.NewFlagSet("ingest", flag.ExitOnError)
	dataDir := flags.String("dir", cfg.KnowledgeDir, "path to directory containing knowledge documents")
	if err := flags.Parse(args); err != nil {
		logger.Fatalf("parse ingest flags: %v", err)
	}

	ctx, cancel := signalContext()
	defer cancel()

	pool, err := database.NewPostgresPool(ctx, cfg.PostgresDSN)
	if err != nil {
		logger.Fatalf("postgres connection: %v", err)
	}
	defer pool.Close()

	if err := database.EnsureSchema(ctx, pool, cfg.Embeddings.Dimension); err != nil {
		logger.Fatalf("ensure schema: %v", err)
	}

	embedder, err := embeddings.NewEmbedder(cfg)
	if err != nil {
		logger.Fatalf("embedder setup: %v", err)
	}

	index := rag.NewStore(pool, cfg.Collection)
	chunker := rag.NewChunker(rag.DefaultChunkSize, rag.DefaultChunkOverlap)
	svc := ingestion.NewService(index, embedder, chunker, logger)

	logger.Printf("ingesting documents from %s using %s/%s embeddings", *dataDir, strings.ToUpper(cfg.Embeddings.Provider), cfg.Embeddings.Model)
	if err := svc.IngestDirectory(ctx, *dataDir); err != nil {
		logger.Fatalf("ingestion failed: %v", err)
	}
}

func chatCmd(cfg config.Config, logger *log.Logger, args []string) {
	flags := flag.NewFlagSet("chat", flag.ExitOnError)
	customerID := flags.String("customer", "", "customer id (e.g. CUST001)")
	question := flags.String("question", "", "one-shot question; omit for an interactive session")
	if err := flags.Parse(args); err != nil {
		logger.Fatalf("parse chat flags: %v", err)
	}
	if strings.TrimSpace(*customerID) == "" {
		logger.Fatal("--customer is required")
	}

	ctx, cancel := signalContext()
	defer cancel()

	pool, err := database.NewPostgresPool(ctx, cfg.PostgresDSN)
	if err != nil {
		logger.Fatalf("postgres connection: %v", err)
	}
	defer pool.Close()

	flow, _, _, err := buildWorkflow(cfg, pool, logger)
	if err != nil {
		logger.Fatalf("workflow setup: %v", err)
	}

	if strings.TrimSpace(*question) != "" {
		response, err := flow.Run(ctx, *customerID, *question, nil)
		if err != nil {
			logger.Fatalf("chat failed: %v", err)
		}
		fmt.Println(response)
		return
	}

	// Interactive session: the caller (this loop) owns the history.
	history := make([]llm.Message, 0)
	scanner := bufio.NewScanner(os.Stdin)
	for {
		fmt.Print("You: ")
		if !scanner.Scan() {
			break
		}
		query := strings.TrimSpace(scanner.Text())
		if query == "" {
			continue
		}
		if query == "exit" || query == "quit" {
			break
		}

		response, err := flow.Run(ctx, *customerID, query, history)
		if err != nil {
			logger.Printf("chat failed: %v", err)
			continue
		}

		fmt.Printf("Agent: %s\n\n", response)
		history = append(history,
			llm.Message{Role: llm.RoleUser, Content: query},
			llm.Message{Role: llm.RoleAssistant, Content: response},
		)
	}
	if err := scanner.Err(); err != nil {
		logger.Fatalf("read input: %v", err)
	}
}

func clearCmd(cfg config.Config, logger *log.Logger, args []string) {
	flags := flag.NewFlagSet("clear", flag.ExitOnError)
	confirmed := flags.Bool("confirm", false, "skip confirmation prompt")
	if err := flags.Parse(args); err != nil {
		logger.Fatalf("parse clear flags: %v", err)
	}

	if !*confirmed {
		fmt.Printf("This will permanently delete the %q knowledge collection. Continue? [y/N]: ", cfg.Collection)
		scanner := bufio.NewScanner(os.Stdin)
		if !scanner.Scan() {
			if err := scanner.Err(); err != nil {
				logger.Fatalf("read confirmation: %v", err)
			}
			logger.Println("clear aborted")
			return
		}
		answer := strings.ToLower(strings.TrimSpace(scanner.Text()))
		if answer != "y" && answer != "yes" {
			logger.Println("clear aborted")
			return
		}
	}

	ctx, cancel := signalContext()
	defer cancel()

	pool, err := database.NewPostgresPool(ctx, cfg.PostgresDSN)
	if err != nil {
		logger.Fatalf("postgres connection: %v", err)
	}
	defer pool.Close()

	index := rag.NewStore(pool, cfg.Collection)
	if err := index.Clear(ctx); err != nil {
		logger.Fatalf("clear knowledge base: %v", err)
	}
	logger.Printf("cleared collection %s", cfg.Collection)
}

func serveCmd(cfg config.Config, logger *log.Logger, args []string) {
	flags := flag.NewFlagSet("serve", flag.ExitOnError)
	addr := flags.String("addr", cfg.ListenAddr, "HTTP listen address")
	if err := flags.Parse(args); err != nil {
		logger.Fatalf("parse serve flags: %v", err)
	}

	ctx, cancel := signalContext()
	defer cancel()

	pool, err := database.NewPostgresPool(ctx, cfg.PostgresDSN)
	if err != nil {
		logger.Fatalf("postgres connection: %v", err)
	}
	defer pool.Close()

	if err := database.EnsureSchema(ctx, pool, cfg.Embeddings.Dimension); err != nil {
		logger.Fatalf("ensure schema: %v", err)
	}

	flow, index, store, err := buildWorkflow(cfg, pool, logger)
	if err != nil {
		logger.Fatalf("workflow setup: %v", err)
	}

	embedder, err := embeddings.NewEmbedder(cfg)
	if err != nil {
		logger.Fatalf("embedder setup: %v", err)
	}
	chunker := rag.NewChunker(rag.DefaultChunkSize, rag.DefaultChunkOverlap)
	ingestSvc := ingestion.NewService(index, embedder, chunker, logger)

	server := api.New(flow, ingestSvc, index, store, logger)
	logger.Printf("listening on %s", *addr)
	if err := server.ListenAndServe(ctx, *addr); err != nil {
		logger.Fatalf("serve: %v", err)
	}
}

// buildWorkflow wires the full query pipeline once: router, the three
// department agents, and the retrieval stack they share.
func buildWorkflow(cfg config.Config, pool *pgxpool.Pool, logger *log.Logger) (*workflow.Workflow, *rag.Store, database.Store, error) {
	embedder, err := embeddings.NewEmbedder(cfg)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("embedder setup: %w", err)
	}

	llmClient, err := llm.NewClient(cfg)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("llm setup: %w", err)
	}

	index := rag.NewStore(pool, cfg.Collection)
	retriever := rag.NewRetriever(embedder, index)
	store := database.NewPostgresStore(pool)

	router := agents.NewRouter(llmClient, logger)
	billing := agents.NewBillingAgent(store, retriever, llmClient, logger)
	technical := agents.NewTechnicalAgent(store, retriever, llmClient, logger)
	sales := agents.NewSalesAgent(store, retriever, llmClient, logger)

	flow, err := workflow.New(router, billing, technical, sales, logger)
	if err != nil {
		return nil, nil, nil, err
	}
	return flow, index, store, nil
}

func signalContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
}

func printUsage() {
	fmt.Println("Usage: support-agent <command> [options]")
	fmt.Println("Commands:")
	fmt.Println("  setup    Create database schema and optionally seed demo data")
	fmt.Println("  ingest   Load knowledge documents into the vector index (use --dir to override)")
	fmt.Println("  chat     Talk to the support agent as a customer (use --question for one-shot)")
	fmt.Println("  clear    Delete the knowledge collection")
	fmt.Println("  serve    Run the HTTP API")
}
