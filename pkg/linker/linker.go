// Package linker ranks vocabulary terms against free-text mentions by cosine
// similarity of their embeddings.
//
// A Linker embeds every label of the three vocabulary pools once at
// construction. After that it is read-only and safe for concurrent use.
package linker

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"

	"github.com/soundprediction/aboxlink/pkg/embedder"
	"github.com/soundprediction/aboxlink/pkg/types"
	"github.com/soundprediction/aboxlink/pkg/utils"
	"github.com/soundprediction/aboxlink/pkg/vocab"
)

// Candidate is one ranked vocabulary match for a mention.
type Candidate struct {
	// Score is the cosine similarity clamped to [0, 1].
	Score float64
	Entry vocab.Entry
	// Label is the pool row that produced the score.
	Label string
}

// Kind returns the property kind of the candidate. The boolean is false for
// class candidates.
func (c Candidate) Kind() (types.PropertyKind, bool) {
	return c.Entry.Kind.PropertyKind()
}

type pool struct {
	labels vocab.LabelPool
	// units holds one unit-length vector per label row.
	units [][]float32
}

// Linker is a similarity index over a vocabulary snapshot.
type Linker struct {
	idx     *vocab.Index
	client  embedder.Client
	pools   map[vocab.Kind]*pool
	workers int
	logger  *slog.Logger
}

// Option configures a Linker.
type Option func(*Linker)

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(l *Linker) { l.logger = logger }
}

// WithWorkers bounds the goroutines used by the batch link methods.
func WithWorkers(n int) Option {
	return func(l *Linker) { l.workers = n }
}

// New embeds all label pools of idx, one Embed call per pool.
func New(ctx context.Context, idx *vocab.Index, client embedder.Client, opts ...Option) (*Linker, error) {
	if idx == nil {
		return nil, errors.New("linker: vocabulary index is required")
	}
	if client == nil {
		return nil, errors.New("linker: embedder is required")
	}
	l := &Linker{
		idx:    idx,
		client: client,
		pools:  make(map[vocab.Kind]*pool, 3),
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(l)
	}
	if l.workers <= 0 {
		l.workers = utils.DefaultWorkers()
	}

	for _, kind := range []vocab.Kind{vocab.KindClass, vocab.KindObjectProperty, vocab.KindDataProperty} {
		lp := idx.Pool(kind)
		p := &pool{labels: lp}
		if lp.Len() > 0 {
			vectors, err := client.Embed(ctx, lp.Labels)
			if err != nil {
				return nil, fmt.Errorf("embed %s labels: %w", kind, err)
			}
			if len(vectors) != lp.Len() {
				return nil, fmt.Errorf("embed %s labels: got %d vectors for %d labels", kind, len(vectors), lp.Len())
			}
			p.units = utils.NormalizeRows(vectors)
		}
		l.pools[kind] = p
		l.logger.Debug("embedded label pool", "kind", kind, "rows", lp.Len())
	}
	return l, nil
}

// Index returns the vocabulary snapshot the linker was built from.
func (l *Linker) Index() *vocab.Index {
	return l.idx
}

// LinkEntity ranks class labels against mention. It returns at most topK
// candidates scoring at least threshold, best first. An empty result is not
// an error.
func (l *Linker) LinkEntity(ctx context.Context, mention string, topK int, threshold float64) ([]Candidate, error) {
	vec, err := l.client.EmbedSingle(ctx, mention)
	if err != nil {
		return nil, fmt.Errorf("embed mention: %w", err)
	}
	return l.rankEntity(utils.Normalize(vec), topK, threshold), nil
}

// LinkProperty ranks object and data property labels against mention. Each
// pool is ranked independently, then the results are merged and truncated to
// topK so that both property kinds compete.
func (l *Linker) LinkProperty(ctx context.Context, mention string, topK int, threshold float64) ([]Candidate, error) {
	vec, err := l.client.EmbedSingle(ctx, mention)
	if err != nil {
		return nil, fmt.Errorf("embed mention: %w", err)
	}
	return l.rankProperty(utils.Normalize(vec), topK, threshold), nil
}

// LinkEntities is the batch form of LinkEntity. All mentions are embedded in
// one call; result i belongs to mentions[i].
func (l *Linker) LinkEntities(ctx context.Context, mentions []string, topK int, threshold float64) ([][]Candidate, error) {
	return l.linkBatch(ctx, mentions, func(v []float32) []Candidate {
		return l.rankEntity(v, topK, threshold)
	})
}

// LinkProperties is the batch form of LinkProperty.
func (l *Linker) LinkProperties(ctx context.Context, mentions []string, topK int, threshold float64) ([][]Candidate, error) {
	return l.linkBatch(ctx, mentions, func(v []float32) []Candidate {
		return l.rankProperty(v, topK, threshold)
	})
}

func (l *Linker) linkBatch(ctx context.Context, mentions []string, rank func([]float32) []Candidate) ([][]Candidate, error) {
	if len(mentions) == 0 {
		return [][]Candidate{}, nil
	}
	vectors, err := l.client.Embed(ctx, mentions)
	if err != nil {
		return nil, fmt.Errorf("embed mentions: %w", err)
	}
	if len(vectors) != len(mentions) {
		return nil, fmt.Errorf("embed mentions: got %d vectors for %d mentions", len(vectors), len(mentions))
	}

	wp := utils.NewWorkerPool(l.workers, func(_ context.Context, v []float32) ([]Candidate, error) {
		return rank(utils.Normalize(v)), nil
	})
	results, errs := wp.ProcessItems(ctx, vectors)
	if err := errors.Join(errs...); err != nil {
		return nil, err
	}
	return results, nil
}

func (l *Linker) rankEntity(vec []float32, topK int, threshold float64) []Candidate {
	return rankPool(l.pools[vocab.KindClass], vec, topK, threshold)
}

func (l *Linker) rankProperty(vec []float32, topK int, threshold float64) []Candidate {
	merged := rankPool(l.pools[vocab.KindObjectProperty], vec, topK, threshold)
	merged = append(merged, rankPool(l.pools[vocab.KindDataProperty], vec, topK, threshold)...)
	// Stable: on equal scores object properties stay ahead of data properties.
	slices.SortStableFunc(merged, byScoreDesc)
	return truncate(merged, topK)
}

// rankPool scores every row, keeps the topK best by stable order and then
// drops rows below threshold.
func rankPool(p *pool, unit []float32, topK int, threshold float64) []Candidate {
	if p == nil || p.labels.Len() == 0 || topK <= 0 {
		return nil
	}
	scored := make([]Candidate, p.labels.Len())
	for i := range scored {
		scored[i] = Candidate{
			Score: utils.UnitSimilarity(unit, p.units[i]),
			Entry: p.labels.Entries[i],
			Label: p.labels.Labels[i],
		}
	}
	slices.SortStableFunc(scored, byScoreDesc)
	scored = truncate(scored, topK)

	out := scored[:0]
	for _, c := range scored {
		if c.Score >= threshold {
			out = append(out, c)
		}
	}
	return out
}

func byScoreDesc(a, b Candidate) int {
	switch {
	case a.Score > b.Score:
		return -1
	case a.Score < b.Score:
		return 1
	default:
		return 0
	}
}

func truncate(cs []Candidate, k int) []Candidate {
	if len(cs) > k {
		return cs[:k]
	}
	return cs
}
