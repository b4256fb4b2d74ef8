package extract

import (
	"context"
	"log/slog"

	"github.com/soundprediction/aboxlink/pkg/triples"
)

// Provider extracts raw triples from text.
type Provider interface {
	Extract(ctx context.Context, text string) ([]triples.RawTriple, error)
}

// ProviderFunc adapts a function to Provider.
type ProviderFunc func(ctx context.Context, text string) ([]triples.RawTriple, error)

// Extract implements Provider.
func (f ProviderFunc) Extract(ctx context.Context, text string) ([]triples.RawTriple, error) {
	return f(ctx, text)
}

type safeProvider struct {
	provider Provider
	logger   *slog.Logger
}

// Safe wraps p so that errors and panics become zero triples and a warning.
func Safe(p Provider, logger *slog.Logger) Provider {
	if logger == nil {
		logger = slog.Default()
	}
	return &safeProvider{provider: p, logger: logger}
}

func (s *safeProvider) Extract(ctx context.Context, text string) (raws []triples.RawTriple, err error) {
	defer func() {
		if r := recover(); r != nil {
			s.logger.Warn("extraction provider panicked", "panic", r)
			raws, err = nil, nil
		}
	}()

	raws, err = s.provider.Extract(ctx, text)
	if err != nil {
		s.logger.Warn("extraction failed, continuing with no triples", "error", err)
		return nil, nil
	}
	return raws, nil
}

// Multi runs providers in order and concatenates their triples. The first
// error stops the run.
func Multi(providers ...Provider) Provider {
	return ProviderFunc(func(ctx context.Context, text string) ([]triples.RawTriple, error) {
		var out []triples.RawTriple
		for _, p := range providers {
			raws, err := p.Extract(ctx, text)
			if err != nil {
				return nil, err
			}
			out = append(out, raws...)
		}
		return out, nil
	})
}
