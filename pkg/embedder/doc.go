// Package embedder provides text embedding clients for vector representations.
//
// This package defines the Client interface and provides implementations for
// several embedding backends.
//
// # Supported Providers
//
//   - embedeverything: local sentence-transformer models (default
//     sentence-transformers/all-MiniLM-L6-v2) via go-embedeverything
//   - openai: OpenAI or any OpenAI-compatible embedding endpoint
//   - hash: a deterministic feature-hashing embedder with no model weights,
//     useful for tests and offline runs
//
// # Usage
//
//	client, err := embedder.New(embedder.Config{
//	    Provider:  "embedeverything",
//	    CacheSize: 4096,
//	})
//	if err != nil {
//	    return err
//	}
//	defer client.Close()
//
//	vectors, err := client.Embed(ctx, []string{"fire plug", "hydrant"})
//
// # Batch Processing
//
// Embed takes many texts in one call and returns vectors in input order.
// Implementations split requests according to Config.BatchSize. Wrapping a
// client with NewCachedClient memoizes vectors per text so that repeated
// mentions are embedded once.
package embedder
