package aboxlink

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/soundprediction/aboxlink/pkg/abox"
	"github.com/soundprediction/aboxlink/pkg/embedder"
	"github.com/soundprediction/aboxlink/pkg/linker"
	"github.com/soundprediction/aboxlink/pkg/triples"
	"github.com/soundprediction/aboxlink/pkg/types"
	"github.com/soundprediction/aboxlink/pkg/vocab"
)

// Linking defaults.
const (
	DefaultThreshold   = 0.55
	DefaultTopK        = 1
	DefaultHintSearchK = 5
)

// DefaultFocusMentions are the generic subject mentions replaced by
// Config.FocusSubject.
var DefaultFocusMentions = []string{"building", "tunnel", "asset"}

// Config holds configuration for a Pipeline.
type Config struct {
	// Threshold is the minimum similarity for a vocabulary link.
	Threshold float64
	// TopK bounds the candidates considered per mention.
	TopK int
	// HintSearchK bounds the candidates searched for one of the hinted
	// property kind when a triple carries a hint or literal flag.
	HintSearchK int
	// ExactMatch resolves mentions that equal a vocabulary label after
	// normalization without consulting the embedder.
	ExactMatch bool
	// DropUnlinkedEntities skips triples whose subject or resource object
	// has no class link instead of keeping the node untyped.
	DropUnlinkedEntities bool
	// FocusSubject, when set, replaces subjects matching FocusMentions.
	FocusSubject  string
	FocusMentions []string
	// MaxSkipSamples bounds the skip and warning records in a Summary.
	MaxSkipSamples int
	// Workers bounds concurrent ranking in the linker.
	Workers int
}

// NewDefaultConfig returns the default pipeline configuration.
func NewDefaultConfig() *Config {
	return &Config{
		Threshold:      DefaultThreshold,
		TopK:           DefaultTopK,
		HintSearchK:    DefaultHintSearchK,
		ExactMatch:     true,
		FocusMentions:  DefaultFocusMentions,
		MaxSkipSamples: abox.DefaultMaxSamples,
	}
}

// Extractor supplies raw triples for a text.
type Extractor interface {
	Extract(ctx context.Context, text string) ([]triples.RawTriple, error)
}

// Pipeline links raw triples to a vocabulary and assembles the assertion
// graph. A Pipeline is safe for concurrent use; each Run builds its own graph.
type Pipeline struct {
	idx       *vocab.Index
	linker    *linker.Linker
	gazetteer *vocab.Gazetteer
	assembler *abox.Assembler
	config    *Config
	logger    *slog.Logger
}

// Result is the outcome of one run.
type Result struct {
	Graph   *abox.Graph
	Linked  []types.LinkedTriple
	Summary Summary
}

// NewPipeline embeds the vocabulary label pools and prepares the pipeline.
func NewPipeline(ctx context.Context, idx *vocab.Index, embedderClient embedder.Client, config *Config, logger *slog.Logger) (*Pipeline, error) {
	if idx == nil {
		return nil, errors.New("vocabulary index is required")
	}
	if config == nil {
		config = NewDefaultConfig()
	}
	cfg := *config
	config = &cfg
	if config.TopK <= 0 {
		config.TopK = DefaultTopK
	}
	if config.HintSearchK < config.TopK {
		config.HintSearchK = max(DefaultHintSearchK, config.TopK)
	}
	if config.MaxSkipSamples <= 0 {
		config.MaxSkipSamples = abox.DefaultMaxSamples
	}
	if logger == nil {
		logger = slog.Default()
	}

	start := time.Now()
	l, err := linker.New(ctx, idx, embedderClient, linker.WithLogger(logger), linker.WithWorkers(config.Workers))
	if err != nil {
		return nil, fmt.Errorf("build linker: %w", err)
	}
	stats := idx.Stats()
	logger.Info("vocabulary indexed",
		"classes", stats.Classes,
		"object_properties", stats.ObjectProperties,
		"data_properties", stats.DataProperties,
		"label_rows", stats.ClassLabels+stats.ObjectPropertyLabels+stats.DataPropertyLabels,
		"duration", time.Since(start))

	return &Pipeline{
		idx:       idx,
		linker:    l,
		gazetteer: vocab.NewGazetteer(idx),
		assembler: abox.NewAssembler(idx.Namespace, idx.Prefix,
			abox.WithMaxSamples(config.MaxSkipSamples), abox.WithLogger(logger)),
		config: config,
		logger: logger,
	}, nil
}

// Index returns the vocabulary the pipeline links against.
func (p *Pipeline) Index() *vocab.Index {
	return p.idx
}

// Linker returns the underlying similarity linker.
func (p *Pipeline) Linker() *linker.Linker {
	return p.linker
}

// Run normalizes, links and assembles a batch. Per-triple failures are
// recorded in the summary and never abort the batch; an error is returned
// only when the embedder fails or ctx is cancelled.
func (p *Pipeline) Run(ctx context.Context, raws []triples.RawTriple) (*Result, error) {
	start := time.Now()
	sum := newSummary(len(raws), p.config.MaxSkipSamples)

	normalized, unusable := triples.NormalizeAll(raws)
	for _, skip := range unusable {
		sum.Unusable++
		sum.skip(skip)
		p.logger.Debug("triple skipped", "index", skip.Index, "reason", skip.Error())
	}

	linked, err := p.link(ctx, normalized, &sum)
	if err != nil {
		return nil, err
	}

	graph, report := p.assembler.Assemble(linked)
	sum.Attempted = report.Attempted
	sum.Succeeded = report.Succeeded
	sum.Skipped = report.Skipped
	sum.TypeAssertions = report.Types
	sum.Statements = graph.Len()
	for _, r := range report.Samples {
		sum.record(r)
	}
	sum.Duration = time.Since(start)

	p.logger.Info("batch linked",
		"run_id", sum.RunID,
		"total", sum.Total,
		"unusable", sum.Unusable,
		"unresolved", sum.Unresolved,
		"attempted", sum.Attempted,
		"succeeded", sum.Succeeded,
		"skipped", sum.Skipped,
		"statements", sum.Statements,
		"duration", sum.Duration)

	return &Result{Graph: graph, Linked: linked, Summary: sum}, nil
}

// RunText extracts triples from text and runs them. An extractor failure is
// treated as zero triples and logged, not returned.
func (p *Pipeline) RunText(ctx context.Context, extractor Extractor, text string) (*Result, error) {
	raws, err := extractor.Extract(ctx, text)
	if err != nil {
		p.logger.Warn("extraction failed, continuing with no triples", "error", err)
		raws = nil
	}
	return p.Run(ctx, raws)
}

func newRunID() string {
	return uuid.NewString()
}
