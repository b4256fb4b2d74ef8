// Package dto defines the request and response bodies of the HTTP API.
package dto

import (
	"encoding/json"
	"errors"
	"strings"

	"github.com/soundprediction/aboxlink"
	"github.com/soundprediction/aboxlink/pkg/driver"
	"github.com/soundprediction/aboxlink/pkg/vocab"
)

// MaxTextLength bounds the text accepted for extraction.
const MaxTextLength = 1 << 20

// Request validation errors.
var (
	ErrNoInput      = errors.New("either triples or text is required")
	ErrBothInputs   = errors.New("triples and text are mutually exclusive")
	ErrTextTooLong  = errors.New("text exceeds maximum length")
	ErrNoExtraction = errors.New("text extraction is not configured")
)

// LinkRequest is the body of POST /api/v1/link.
type LinkRequest struct {
	// Triples holds raw triple records: a JSON array of arrays or objects.
	Triples json.RawMessage `json:"triples,omitempty"`
	// Text is run through the configured extraction provider instead.
	Text string `json:"text,omitempty"`
	// Format is turtle (default) or ntriples.
	Format string `json:"format,omitempty"`
	// Persist writes the graph to the configured database.
	Persist bool `json:"persist,omitempty"`
}

// Validate performs validation on LinkRequest
func (r *LinkRequest) Validate() error {
	hasTriples := len(r.Triples) > 0 && string(r.Triples) != "null"
	hasText := strings.TrimSpace(r.Text) != ""
	switch {
	case !hasTriples && !hasText:
		return ErrNoInput
	case hasTriples && hasText:
		return ErrBothInputs
	case len(r.Text) > MaxTextLength:
		return ErrTextTooLong
	}
	return nil
}

// LinkResponse is the body returned by POST /api/v1/link.
type LinkResponse struct {
	Summary   aboxlink.Summary   `json:"summary"`
	Format    string             `json:"format"`
	Graph     string             `json:"graph"`
	Persisted *driver.WriteStats `json:"persisted,omitempty"`
}

// VocabularyResponse is the body returned by GET /api/v1/vocabulary.
type VocabularyResponse struct {
	Namespace string      `json:"namespace"`
	Prefix    string      `json:"prefix"`
	Stats     vocab.Stats `json:"stats"`
	// Entries is filled when a kind is requested.
	Entries []vocab.Entry `json:"entries,omitempty"`
}

// ErrorResponse represents an error response
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message,omitempty"`
}
