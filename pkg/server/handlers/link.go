package handlers

import (
	"bytes"
	"errors"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/soundprediction/aboxlink"
	"github.com/soundprediction/aboxlink/pkg/abox"
	"github.com/soundprediction/aboxlink/pkg/driver"
	"github.com/soundprediction/aboxlink/pkg/server/dto"
	"github.com/soundprediction/aboxlink/pkg/triples"
)

// PipelineSource yields the current pipeline. The pipeline may be swapped
// between requests when the vocabulary is reloaded.
type PipelineSource interface {
	Pipeline() *aboxlink.Pipeline
}

// Recorder observes completed runs.
type Recorder interface {
	ObserveRun(summary aboxlink.Summary, source string)
}

// LinkHandler runs batches through the linking pipeline.
type LinkHandler struct {
	pipelines PipelineSource
	recorder  Recorder
	extractor aboxlink.Extractor
	writer    driver.GraphWriter
	logger    *slog.Logger
}

// NewLinkHandler creates a link handler. extractor and writer may be nil,
// which disables text requests and persistence respectively.
func NewLinkHandler(pipelines PipelineSource, extractor aboxlink.Extractor, writer driver.GraphWriter, recorder Recorder, logger *slog.Logger) *LinkHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &LinkHandler{
		pipelines: pipelines,
		recorder:  recorder,
		extractor: extractor,
		writer:    writer,
		logger:    logger,
	}
}

func writeError(c *gin.Context, status int, code string, err error) {
	c.JSON(status, dto.ErrorResponse{Error: code, Message: err.Error()})
}

// Link handles POST /api/v1/link
func (h *LinkHandler) Link(c *gin.Context) {
	var req dto.LinkRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeError(c, http.StatusBadRequest, "invalid_request", err)
		return
	}
	if err := req.Validate(); err != nil {
		writeError(c, http.StatusBadRequest, "invalid_request", err)
		return
	}
	format, err := abox.ParseFormat(req.Format)
	if err != nil {
		writeError(c, http.StatusBadRequest, "invalid_request", err)
		return
	}
	if req.Persist && h.writer == nil {
		writeError(c, http.StatusBadRequest, "invalid_request", errors.New("no database configured"))
		return
	}

	pipeline := h.pipelines.Pipeline()
	ctx := c.Request.Context()
	source := "triples"
	var result *aboxlink.Result
	if req.Text != "" {
		source = "text"
		if h.extractor == nil {
			writeError(c, http.StatusBadRequest, "invalid_request", dto.ErrNoExtraction)
			return
		}
		result, err = pipeline.RunText(ctx, h.extractor, req.Text)
	} else {
		var raws []triples.RawTriple
		raws, err = triples.DecodeBatch(req.Triples)
		if err != nil {
			writeError(c, http.StatusBadRequest, "invalid_triples", err)
			return
		}
		result, err = pipeline.Run(ctx, raws)
	}
	if err != nil {
		h.logger.Error("link request failed", "error", err)
		writeError(c, http.StatusInternalServerError, "link_failed", err)
		return
	}

	if h.recorder != nil {
		h.recorder.ObserveRun(result.Summary, source)
	}

	var buf bytes.Buffer
	if err := abox.Write(&buf, result.Graph, format); err != nil {
		writeError(c, http.StatusInternalServerError, "serialize_failed", err)
		return
	}

	resp := dto.LinkResponse{
		Summary: result.Summary,
		Format:  string(format),
		Graph:   buf.String(),
	}
	if req.Persist {
		stats, err := h.writer.WriteGraph(ctx, result.Graph)
		if err != nil {
			h.logger.Error("graph write failed", "run_id", result.Summary.RunID, "error", err)
			writeError(c, http.StatusBadGateway, "persist_failed", err)
			return
		}
		resp.Persisted = stats
	}
	c.JSON(http.StatusOK, resp)
}
