package config

import (
	"os"
	"strconv"
)

const (
	ProviderOllama = "ollama"
	ProviderOpenAI = "openai"
)

type EmbeddingConfig struct {
	Provider  string
	Model     string
	Dimension int
}

type LLMConfig struct {
	Provider string
	Model    string
}

type Config struct {
	PostgresDSN string

	OllamaHost    string
	OpenAIAPIKey  string
	OpenAIBaseURL string

	Embeddings EmbeddingConfig
	LLM        LLMConfig

	// Collection is the knowledge-base collection name inside the vector index.
	Collection string
	// KnowledgeDir is the default directory scanned by the ingest command.
	KnowledgeDir string
	// ListenAddr is the HTTP API bind address for the serve command.
	ListenAddr string
}

func Load() Config {
	return Config{
		PostgresDSN:   getEnv("POSTGRES_DSN", "postgres://localhost:5432/assistly?sslmode=disable"),
		OllamaHost:    getEnv("OLLAMA_HOST", "http://localhost:11434"),
		OpenAIAPIKey:  getEnv("OPENAI_API_KEY", ""),
		OpenAIBaseURL: getEnv("OPENAI_BASE_URL", ""),
		Embeddings: EmbeddingConfig{
			Provider:  getEnv("EMBEDDINGS_PROVIDER", ProviderOllama),
			Model:     getEnv("EMBEDDINGS_MODEL", "nomic-embed-text"),
			Dimension: getEnvInt("EMBEDDINGS_DIMENSION", 768),
		},
		LLM: LLMConfig{
			Provider: getEnv("LLM_PROVIDER", ProviderOllama),
			Model:    getEnv("LLM_MODEL", "llama3.1"),
		},
		Collection:   getEnv("KB_COLLECTION", "assistly_knowledge"),
		KnowledgeDir: getEnv("KNOWLEDGE_DIR", "knowledge_base"),
		ListenAddr:   getEnv("LISTEN_ADDR", ":8080"),
	}
}

func getEnv(key, fallback string) string {
	if value, ok := os.LookupEnv(key); ok && value != "" {
		return value
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if value, ok := os.LookupEnv(key); ok && value != "" {
		if parsed, err := strconv.Atoi(value); err == nil {
			return parsed
		}
	}
	return fallback
}
