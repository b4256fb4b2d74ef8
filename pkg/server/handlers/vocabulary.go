package handlers

import (
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/soundprediction/aboxlink/pkg/server/dto"
	"github.com/soundprediction/aboxlink/pkg/vocab"
)

// VocabularyHandler describes the indexed vocabulary.
type VocabularyHandler struct {
	pipelines PipelineSource
}

// NewVocabularyHandler creates a vocabulary handler.
func NewVocabularyHandler(pipelines PipelineSource) *VocabularyHandler {
	return &VocabularyHandler{pipelines: pipelines}
}

// Get handles GET /api/v1/vocabulary[?kind=class|object_property|data_property]
func (h *VocabularyHandler) Get(c *gin.Context) {
	idx := h.pipelines.Pipeline().Index()
	resp := dto.VocabularyResponse{
		Namespace: idx.Namespace,
		Prefix:    idx.Prefix,
		Stats:     idx.Stats(),
	}

	if kind := c.Query("kind"); kind != "" {
		switch k := vocab.Kind(kind); k {
		case vocab.KindClass, vocab.KindObjectProperty, vocab.KindDataProperty:
			resp.Entries = idx.Entries(k)
		default:
			writeError(c, http.StatusBadRequest, "invalid_request", fmt.Errorf("unknown kind %q", kind))
			return
		}
	}
	c.JSON(http.StatusOK, resp)
}
