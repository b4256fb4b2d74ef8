package aboxlink

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/soundprediction/aboxlink"
	"github.com/soundprediction/aboxlink/pkg/abox"
	"github.com/soundprediction/aboxlink/pkg/driver"
	"github.com/soundprediction/aboxlink/pkg/embedder"
	"github.com/soundprediction/aboxlink/pkg/extract"
	"github.com/soundprediction/aboxlink/pkg/nlp"
	"github.com/soundprediction/aboxlink/pkg/vocab"
)

// Extractor names accepted by --extractor.
const (
	ExtractorLLM   = "llm"
	ExtractorRules = "rules"
	ExtractorAll   = "all"
)

func (c *cli) loadVocabulary() (*vocab.Index, error) {
	idx, err := vocab.Load(c.cfg.Vocabulary.Path)
	if err != nil {
		c.logger.Error("vocabulary load failed", "path", c.cfg.Vocabulary.Path, "error", err)
		return nil, err
	}
	return idx, nil
}

// newPipeline loads the vocabulary and embeds it. The returned embedder
// must be closed by the caller.
func (c *cli) newPipeline(ctx context.Context) (*aboxlink.Pipeline, embedder.Client, error) {
	idx, err := c.loadVocabulary()
	if err != nil {
		return nil, nil, err
	}
	emb, err := embedder.New(c.cfg.Embedding)
	if err != nil {
		return nil, nil, fmt.Errorf("create embedder: %w", err)
	}
	p, err := aboxlink.NewPipeline(ctx, idx, emb, c.cfg.PipelineConfig(), c.logger)
	if err != nil {
		_ = emb.Close()
		return nil, nil, err
	}
	return p, emb, nil
}

// newChatClient layers retries and a circuit breaker over the provider client.
func (c *cli) newChatClient() (nlp.Client, error) {
	switch strings.ToLower(c.cfg.NLP.Provider) {
	case "", "openai":
	default:
		return nil, fmt.Errorf("unknown nlp provider %q", c.cfg.NLP.Provider)
	}
	base, err := nlp.NewOpenAIClient(c.cfg.NLP.APIKey, c.cfg.ChatConfig())
	if err != nil {
		return nil, fmt.Errorf("create chat client: %w", err)
	}
	retry := nlp.NewRetryClient(base, c.cfg.RetryConfig()).WithLogger(c.logger)
	return nlp.NewCircuitBreakerClient(retry, c.cfg.CircuitBreaker, "extraction", c.logger), nil
}

// newExtractor returns the named provider and a close func for any client it owns.
func (c *cli) newExtractor(kind, subjectID string) (aboxlink.Extractor, func() error, error) {
	noop := func() error { return nil }
	rules := func() extract.Provider { return extract.NewRuleExtractor(subjectID) }
	llm := func() (extract.Provider, func() error, error) {
		client, err := c.newChatClient()
		if err != nil {
			return nil, nil, err
		}
		e := extract.NewLLMExtractor(client,
			extract.WithTimeout(c.cfg.ChatTimeout()),
			extract.WithLogger(c.logger))
		return e, client.Close, nil
	}

	switch strings.ToLower(kind) {
	case ExtractorRules:
		return extract.Safe(rules(), c.logger), noop, nil
	case ExtractorLLM, "":
		e, closeFn, err := llm()
		if err != nil {
			return nil, nil, err
		}
		return extract.Safe(e, c.logger), closeFn, nil
	case ExtractorAll:
		e, closeFn, err := llm()
		if err != nil {
			return nil, nil, err
		}
		// Rules first: their triples survive an LLM failure.
		return extract.Multi(extract.Safe(rules(), c.logger), extract.Safe(e, c.logger)), closeFn, nil
	default:
		return nil, nil, fmt.Errorf("unknown extractor %q (want llm, rules or all)", kind)
	}
}

// newGraphWriter connects to the configured database, or returns nil when
// none is configured.
func (c *cli) newGraphWriter(ctx context.Context) (driver.GraphWriter, error) {
	if !c.cfg.Database.Enabled() {
		return nil, nil
	}
	db := c.cfg.Database
	w, err := driver.NewNeo4jWriter(db.URI, db.Username, db.Password, db.Database, c.logger)
	if err != nil {
		return nil, err
	}
	if err := w.VerifyConnectivity(ctx); err != nil {
		_ = w.Close(ctx)
		return nil, fmt.Errorf("connect to %s: %w", db.URI, err)
	}
	if err := w.CreateConstraints(ctx); err != nil {
		_ = w.Close(ctx)
		return nil, err
	}
	return w, nil
}

// finish serializes the graph, writes the summary and optionally persists.
func (c *cli) finish(ctx context.Context, cmd *cobra.Command, result *aboxlink.Result, persist bool) error {
	format, err := abox.ParseFormat(c.cfg.Output.Format)
	if err != nil {
		return err
	}

	if persist {
		writer, err := c.newGraphWriter(ctx)
		if err != nil {
			return err
		}
		if writer == nil {
			return fmt.Errorf("--persist requires database.uri (or NEO4J_URI)")
		}
		defer writer.Close(ctx)
		if _, err := writer.WriteGraph(ctx, result.Graph); err != nil {
			return err
		}
	}

	if err := writeGraph(cmd.OutOrStdout(), c.cfg.Output.Path, result.Graph, format); err != nil {
		return err
	}
	if path := c.cfg.Output.SummaryPath; path != "" {
		if err := writeSummary(path, result.Summary); err != nil {
			return err
		}
	}
	return nil
}

func writeGraph(stdout io.Writer, path string, g *abox.Graph, format abox.Format) error {
	if path == "" || path == "-" {
		return abox.Write(stdout, g, format)
	}
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create output: %w", err)
	}
	if err := abox.Write(f, g, format); err != nil {
		f.Close()
		return fmt.Errorf("write %s: %w", path, err)
	}
	return f.Close()
}

func writeSummary(path string, s aboxlink.Summary) error {
	data, err := json.MarshalIndent(s, "", "  ")
	if err != nil {
		return err
	}
	if err := os.WriteFile(path, append(data, '\n'), 0o644); err != nil {
		return fmt.Errorf("write summary: %w", err)
	}
	return nil
}

// readInput reads path, or stdin when path is "-".
func readInput(stdin io.Reader, path string) ([]byte, error) {
	if path == "-" {
		return io.ReadAll(stdin)
	}
	return os.ReadFile(path)
}
