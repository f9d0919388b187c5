package unit

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/assistly/support-agent/config"
	"github.com/assistly/support-agent/embeddings"
	"github.com/assistly/support-agent/llm"
)

func TestNewEmbedderDefaults(t *testing.T) {
	cfg := config.Config{
		Embeddings: config.EmbeddingConfig{
			Provider:  config.ProviderOllama,
			Model:     "nomic-embed-text",
			Dimension: 3,
		},
		OllamaHost: "http://localhost:11434",
	}

	embedder, err := embeddings.NewEmbedder(cfg)
	require.NoError(t, err)
	require.NotNil(t, embedder)
}

func TestNewEmbedderOpenAIMissingKey(t *testing.T) {
	cfg := config.Config{
		Embeddings: config.EmbeddingConfig{
			Provider:  config.ProviderOpenAI,
			Model:     "text-embedding-3-small",
			Dimension: 1536,
		},
	}

	_, err := embeddings.NewEmbedder(cfg)
	require.Error(t, err)
}

func TestNewEmbedderUnknownProvider(t *testing.T) {
	cfg := config.Config{Embeddings: config.EmbeddingConfig{Provider: "carrier-pigeon"}}
	_, err := embeddings.NewEmbedder(cfg)
	require.ErrorContains(t, err, "unknown embedding provider")
}

func TestNewClientDefaults(t *testing.T) {
	cfg := config.Config{
		LLM: config.LLMConfig{
			Provider: config.ProviderOllama,
			Model:    "llama3.1",
		},
		OllamaHost: "http://localhost:11434",
	}

	client, err := llm.NewClient(cfg)
	require.NoError(t, err)
	require.NotNil(t, client)
}

func TestNewClientOpenAIRequiresAPIKey(t *testing.T) {
	cfg := config.Config{
		LLM: config.LLMConfig{
			Provider: config.ProviderOpenAI,
			Model:    "gpt-4o",
		},
	}

	_, err := llm.NewClient(cfg)
	require.Error(t, err)
}

func TestConfigLoadDefaultsAndOverrides(t *testing.T) {
	t.Setenv("POSTGRES_DSN", "postgres://db.internal:5432/assistly")
	t.Setenv("EMBEDDINGS_DIMENSION", "1536")
	t.Setenv("LLM_PROVIDER", "")

	cfg := config.Load()
	require.Equal(t, "postgres://db.internal:5432/assistly", cfg.PostgresDSN)
	require.Equal(t, 1536, cfg.Embeddings.Dimension)
	require.Equal(t, config.ProviderOllama, cfg.LLM.Provider)
	require.Equal(t, "assistly_knowledge", cfg.Collection)
}
