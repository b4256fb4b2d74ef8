package embedder

import (
	"context"
	"fmt"
	"sync"

	"github.com/sashabaranov/go-openai"

	"github.com/soundprediction/aboxlink/pkg/utils"
)

// DefaultOpenAIModel is used when Config.Model is empty.
const DefaultOpenAIModel = "text-embedding-3-small"

var openAIDimensions = map[string]int{
	"text-embedding-ada-002": 1536,
	"text-embedding-3-small": 1536,
	"text-embedding-3-large": 3072,
}

// OpenAIEmbedder calls an OpenAI-compatible embedding endpoint.
type OpenAIEmbedder struct {
	client *openai.Client
	config Config

	mu   sync.Mutex
	dims int
}

// NewOpenAIEmbedder creates an embedder for the OpenAI API or any endpoint
// speaking the same protocol when config.BaseURL is set.
func NewOpenAIEmbedder(apiKey string, config Config) *OpenAIEmbedder {
	if config.Model == "" {
		config.Model = DefaultOpenAIModel
	}
	if config.BatchSize <= 0 {
		config.BatchSize = utils.DefaultBatchSize
	}
	if apiKey == "" {
		// Local services usually ignore the key but the SDK wants one.
		apiKey = "unused"
	}

	clientConfig := openai.DefaultConfig(apiKey)
	if config.BaseURL != "" {
		clientConfig.BaseURL = config.BaseURL
	}

	dims := config.Dimensions
	if dims <= 0 {
		dims = openAIDimensions[config.Model]
	}
	if dims <= 0 {
		dims = 1536
	}

	return &OpenAIEmbedder{
		client: openai.NewClientWithConfig(clientConfig),
		config: config,
		dims:   dims,
	}
}

// Embed generates embeddings for the given texts.
func (o *OpenAIEmbedder) Embed(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return [][]float32{}, nil
	}

	out := make([][]float32, 0, len(texts))
	for _, batch := range utils.Batch(texts, o.config.BatchSize) {
		req := openai.EmbeddingRequest{
			Input: batch,
			Model: openai.EmbeddingModel(o.config.Model),
		}
		if o.config.Dimensions > 0 {
			req.Dimensions = o.config.Dimensions
		}

		resp, err := o.client.CreateEmbeddings(ctx, req)
		if err != nil {
			return nil, fmt.Errorf("embedding API call failed: %w", err)
		}
		if len(resp.Data) != len(batch) {
			return nil, fmt.Errorf("API returned %d embeddings for %d texts", len(resp.Data), len(batch))
		}

		// Data carries its own index; do not assume response order.
		vectors := make([][]float32, len(batch))
		for _, d := range resp.Data {
			if d.Index < 0 || d.Index >= len(batch) {
				return nil, fmt.Errorf("API returned out-of-range index %d", d.Index)
			}
			vectors[d.Index] = d.Embedding
		}
		out = append(out, vectors...)
	}

	if len(out) > 0 && len(out[0]) > 0 {
		o.mu.Lock()
		o.dims = len(out[0])
		o.mu.Unlock()
	}
	return out, nil
}

// EmbedSingle generates an embedding for a single text.
func (o *OpenAIEmbedder) EmbedSingle(ctx context.Context, text string) ([]float32, error) {
	return embedSingle(ctx, o, text)
}

// Dimensions returns the expected vector length for the configured model.
func (o *OpenAIEmbedder) Dimensions() int {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.dims
}

// Close is a no-op.
func (o *OpenAIEmbedder) Close() error {
	return nil
}
