package embedder

import (
	"context"
	"fmt"
	"strings"
)

// Client produces embedding vectors for text.
type Client interface {
	// Embed returns one vector per input text, in input order.
	Embed(ctx context.Context, texts []string) ([][]float32, error)
	// EmbedSingle embeds one text.
	EmbedSingle(ctx context.Context, text string) ([]float32, error)
	// Dimensions returns the vector length, or 0 if not yet known.
	Dimensions() int
	// Close releases model or connection resources.
	Close() error
}

// Provider names.
const (
	ProviderEmbedEverything = "embedeverything"
	ProviderOpenAI          = "openai"
	ProviderHash            = "hash"
)

// DefaultLocalModel is the sentence-transformer used by the local provider.
const DefaultLocalModel = "sentence-transformers/all-MiniLM-L6-v2"

// Config holds embedder settings.
type Config struct {
	Provider   string `mapstructure:"provider" json:"provider"`
	Model      string `mapstructure:"model" json:"model"`
	APIKey     string `mapstructure:"api_key" json:"-"`
	BaseURL    string `mapstructure:"base_url" json:"base_url"`
	Dimensions int    `mapstructure:"dimensions" json:"dimensions"`
	BatchSize  int    `mapstructure:"batch_size" json:"batch_size"`
	// CacheSize is the number of texts memoized; 0 disables the cache.
	CacheSize int `mapstructure:"cache_size" json:"cache_size"`
}

// New creates the client named by cfg.Provider, wrapped in a cache when
// cfg.CacheSize is positive.
func New(cfg Config) (Client, error) {
	var (
		client Client
		err    error
	)
	switch strings.ToLower(cfg.Provider) {
	case "", ProviderEmbedEverything, "local":
		client, err = NewEmbedEverythingClient(&EmbedEverythingConfig{Config: &cfg})
	case ProviderOpenAI:
		client = NewOpenAIEmbedder(cfg.APIKey, cfg)
	case ProviderHash, "hashing":
		client = NewHashEmbedder(cfg.Dimensions)
	default:
		return nil, fmt.Errorf("unknown embedding provider %q", cfg.Provider)
	}
	if err != nil {
		return nil, err
	}
	if cfg.CacheSize > 0 {
		return NewCachedClient(client, cfg.CacheSize)
	}
	return client, nil
}

func embedSingle(ctx context.Context, c Client, text string) ([]float32, error) {
	embeddings, err := c.Embed(ctx, []string{text})
	if err != nil {
		return nil, err
	}
	if len(embeddings) == 0 {
		return nil, fmt.Errorf("no embeddings returned")
	}
	return embeddings[0], nil
}
