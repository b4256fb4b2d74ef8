package extract

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"regexp"
	"strings"
	"time"

	"github.com/kaptinlin/jsonrepair"

	"github.com/soundprediction/aboxlink/pkg/nlp"
	"github.com/soundprediction/aboxlink/pkg/triples"
)

// SystemPrompt instructs the model on the triple format.
const SystemPrompt = `Extract factual triples from the text as JSON.
- Use keys: subject, predicate, object, object_is_literal (bool), datatype (optional), confidence (0..1)
- Subjects/objects should be short noun phrases.
- Predicates should be verbs or ontology-like properties (e.g., hasHeight, hasRiskLevel).
- Prefer canonical spellings (singular).`

// DefaultTimeout bounds a single extraction call.
const DefaultTimeout = 60 * time.Second

// LLMExtractor extracts triples with a chat model.
type LLMExtractor struct {
	client  nlp.Client
	timeout time.Duration
	logger  *slog.Logger
}

// LLMOption configures an LLMExtractor.
type LLMOption func(*LLMExtractor)

// WithTimeout bounds each Extract call. Non-positive values disable the bound.
func WithTimeout(d time.Duration) LLMOption {
	return func(e *LLMExtractor) { e.timeout = d }
}

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) LLMOption {
	return func(e *LLMExtractor) {
		if logger != nil {
			e.logger = logger
		}
	}
}

// NewLLMExtractor creates an extractor over client.
func NewLLMExtractor(client nlp.Client, opts ...LLMOption) *LLMExtractor {
	e := &LLMExtractor{
		client:  client,
		timeout: DefaultTimeout,
		logger:  slog.Default(),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Extract implements Provider. A response without a JSON array yields no
// triples and no error; only mapping records are kept.
func (e *LLMExtractor) Extract(ctx context.Context, text string) ([]triples.RawTriple, error) {
	if strings.TrimSpace(text) == "" {
		return nil, nil
	}
	if e.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, e.timeout)
		defer cancel()
	}

	resp, err := e.client.Chat(ctx, nlp.Prompt(SystemPrompt,
		fmt.Sprintf("Text:\n%s\n\nReturn a JSON array of triples.", text)))
	if err != nil {
		return nil, fmt.Errorf("llm extraction: %w", err)
	}

	raws, err := ParseResponse(resp.Content)
	if err != nil {
		e.logger.Debug("discarding unparseable extraction response", "error", err)
		return nil, nil
	}
	e.logger.Debug("llm extraction complete", "triples", len(raws), "model", resp.Model)
	return raws, nil
}

var thinkTags = regexp.MustCompile(`(?s)<think>.*?</think>`)

// ParseResponse slices the outermost JSON array out of a model response,
// repairs it and keeps the mapping records it holds.
func ParseResponse(content string) ([]triples.RawTriple, error) {
	content = strings.TrimSpace(thinkTags.ReplaceAllString(content, ""))
	start := strings.Index(content, "[")
	end := strings.LastIndex(content, "]")
	if start == -1 || end == -1 || end < start {
		return nil, nil
	}

	payload, err := jsonrepair.JSONRepair(content[start : end+1])
	if err != nil {
		return nil, fmt.Errorf("repair response: %w", err)
	}
	var items []any
	dec := json.NewDecoder(strings.NewReader(payload))
	dec.UseNumber()
	if err := dec.Decode(&items); err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}

	out := make([]triples.RawTriple, 0, len(items))
	for _, item := range items {
		if m, ok := item.(map[string]any); ok {
			out = append(out, triples.MappingTriple(m))
		}
	}
	return out, nil
}
