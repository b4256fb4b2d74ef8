package server

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/soundprediction/aboxlink"
	"github.com/soundprediction/aboxlink/pkg/abox"
	"github.com/soundprediction/aboxlink/pkg/config"
	"github.com/soundprediction/aboxlink/pkg/driver"
	"github.com/soundprediction/aboxlink/pkg/embedder"
	"github.com/soundprediction/aboxlink/pkg/extract"
	"github.com/soundprediction/aboxlink/pkg/server/dto"
	"github.com/soundprediction/aboxlink/pkg/vocab"
)

type fakeWriter struct {
	graphs []*abox.Graph
	err    error
	ping   error
}

func (f *fakeWriter) WriteGraph(_ context.Context, g *abox.Graph) (*driver.WriteStats, error) {
	if f.err != nil {
		return nil, f.err
	}
	f.graphs = append(f.graphs, g)
	return driver.BuildBatch(g).Stats(), nil
}

func (f *fakeWriter) Close(context.Context) error { return nil }

func (f *fakeWriter) VerifyConnectivity(context.Context) error { return f.ping }

func testConfig() *config.Config {
	return &config.Config{
		Server: config.ServerConfig{Host: "localhost", Port: 8080, Mode: gin.TestMode},
	}
}

func newTestServer(t *testing.T, opts ...Option) *Server {
	t.Helper()
	idx, err := vocab.Builtin("aec")
	require.NoError(t, err)
	p, err := aboxlink.NewPipeline(context.Background(), idx, embedder.NewHashEmbedder(256), nil, nil)
	require.NoError(t, err)

	s := New(testConfig(), p, opts...)
	require.NoError(t, s.Setup())
	return s
}

func do(t *testing.T, s *Server, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	s.Handler().ServeHTTP(w, req)
	return w
}

func TestSetup(t *testing.T) {
	s := New(testConfig(), nil)
	require.NoError(t, s.Setup())
	require.NotNil(t, s.router)
	require.NotNil(t, s.server)
	assert.Equal(t, "localhost:8080", s.server.Addr)
}

func TestHealthEndpoint(t *testing.T) {
	s := New(testConfig(), nil)
	require.NoError(t, s.Setup())

	w := do(t, s, http.MethodGet, "/health", nil)
	assert.Equal(t, http.StatusOK, w.Code)

	var resp map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "healthy", resp["status"])
	assert.Equal(t, "aboxlink", resp["service"])
}

func TestReadyEndpoint(t *testing.T) {
	t.Run("no pipeline", func(t *testing.T) {
		s := New(testConfig(), nil)
		require.NoError(t, s.Setup())
		assert.Equal(t, http.StatusServiceUnavailable, do(t, s, http.MethodGet, "/ready", nil).Code)
	})

	t.Run("ready", func(t *testing.T) {
		s := newTestServer(t, WithGraphWriter(&fakeWriter{}))
		assert.Equal(t, http.StatusOK, do(t, s, http.MethodGet, "/ready", nil).Code)
	})

	t.Run("database down", func(t *testing.T) {
		s := newTestServer(t, WithGraphWriter(&fakeWriter{ping: errors.New("refused")}))
		w := do(t, s, http.MethodGet, "/ready", nil)
		assert.Equal(t, http.StatusServiceUnavailable, w.Code)
		assert.Contains(t, w.Body.String(), "refused")
	})
}

func TestLinkTriples(t *testing.T) {
	s := newTestServer(t)

	w := do(t, s, http.MethodPost, "/api/v1/link", map[string]any{
		"triples": []any{
			map[string]any{"subject": "Tunnel_1", "predicate": "tunnelLength", "object": 1200, "object_is_literal": true},
			[]any{"", "hasRisk", "FireRisk"},
		},
		"format": "ntriples",
	})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var resp dto.LinkResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "ntriples", resp.Format)
	assert.Equal(t, 2, resp.Summary.Total)
	assert.Equal(t, 1, resp.Summary.Unusable)
	assert.Equal(t, 1, resp.Summary.Succeeded)
	assert.Contains(t, resp.Graph, `<http://example.org/aec#Tunnel_1> <http://example.org/aec#tunnelLength> "1200.0"^^<http://www.w3.org/2001/XMLSchema#float> .`)
	assert.Nil(t, resp.Persisted)
}

func TestLinkPersist(t *testing.T) {
	fw := &fakeWriter{}
	s := newTestServer(t, WithGraphWriter(fw))

	w := do(t, s, http.MethodPost, "/api/v1/link", map[string]any{
		"triples": []any{[]any{"Tunnel_1", "hasSafetyMeasure", "Tunnel_1_Hydrant", "object"}},
		"persist": true,
	})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var resp dto.LinkResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	require.NotNil(t, resp.Persisted)
	assert.Equal(t, 1, resp.Persisted.Relationships)
	assert.Len(t, fw.graphs, 1)

	fw.err = errors.New("tx aborted")
	w = do(t, s, http.MethodPost, "/api/v1/link", map[string]any{
		"triples": []any{[]any{"Tunnel_1", "hasSafetyMeasure", "Tunnel_1_Hydrant", "object"}},
		"persist": true,
	})
	assert.Equal(t, http.StatusBadGateway, w.Code)
}

func TestLinkText(t *testing.T) {
	s := newTestServer(t, WithExtractor(extract.NewRuleExtractor("Tunnel_9")))

	w := do(t, s, http.MethodPost, "/api/v1/link", map[string]any{
		"text": "The tunnel length: 800 m.",
	})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var resp dto.LinkResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, 2, resp.Summary.Total)
	assert.Contains(t, resp.Graph, "ex:Tunnel_9_Spec ex:tunnelLength")
}

func TestLinkBadRequests(t *testing.T) {
	s := newTestServer(t)

	tests := []struct {
		name string
		body any
	}{
		{"empty", map[string]any{}},
		{"both inputs", map[string]any{"triples": []any{}, "text": "x"}},
		{"bad format", map[string]any{"triples": []any{[]any{"a", "b", "c"}}, "format": "xml"}},
		{"text without extractor", map[string]any{"text": "tunnel length 5 m"}},
		{"persist without database", map[string]any{"triples": []any{[]any{"a", "b", "c"}}, "persist": true}},
		{"malformed triples", map[string]any{"triples": "nope"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := do(t, s, http.MethodPost, "/api/v1/link", tt.body)
			assert.Equal(t, http.StatusBadRequest, w.Code, w.Body.String())
		})
	}
}

func TestVocabularyEndpoint(t *testing.T) {
	s := newTestServer(t)

	w := do(t, s, http.MethodGet, "/api/v1/vocabulary", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var resp dto.VocabularyResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "ex", resp.Prefix)
	assert.Equal(t, 8, resp.Stats.ObjectProperties)
	assert.Empty(t, resp.Entries)

	w = do(t, s, http.MethodGet, "/api/v1/vocabulary?kind=data_property", nil)
	require.Equal(t, http.StatusOK, w.Code)
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Len(t, resp.Entries, 7)

	w = do(t, s, http.MethodGet, "/api/v1/vocabulary?kind=widgets", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestCORSPreflight(t *testing.T) {
	s := newTestServer(t)
	w := do(t, s, http.MethodOptions, "/api/v1/link", nil)
	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.Equal(t, "*", w.Header().Get("Access-Control-Allow-Origin"))
}

func TestMetricsEndpoint(t *testing.T) {
	s := newTestServer(t)

	w := do(t, s, http.MethodPost, "/api/v1/link", map[string]any{
		"triples": []any{
			[]any{"Tunnel_1", "hasRisk", "Tunnel_1_FireRisk", "object"},
			[]any{"", "hasRisk", "FireRisk"},
		},
	})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	w = do(t, s, http.MethodGet, "/metrics", nil)
	require.Equal(t, http.StatusOK, w.Code)
	body := w.Body.String()
	assert.Contains(t, body, `aboxlink_link_runs_total{source="triples"} 1`)
	assert.Contains(t, body, `aboxlink_link_triples_total{outcome="unusable"} 1`)
	assert.Contains(t, body, `aboxlink_link_triples_total{outcome="succeeded"} 1`)
	assert.Contains(t, body, `aboxlink_http_request_duration_seconds_count{route="/api/v1/link",status="200"} 1`)
}

func TestSharedRegistryConflict(t *testing.T) {
	reg := prometheus.NewRegistry()
	first := New(testConfig(), nil, WithRegistry(reg))
	require.NoError(t, first.Setup())

	second := New(testConfig(), nil, WithRegistry(reg))
	assert.Error(t, second.Setup())
}

func TestPipelineSwap(t *testing.T) {
	s := newTestServer(t)

	idx, err := vocab.Parse([]byte(`namespace: "http://example.org/plant#"
prefix: plant
classes:
  - name: Pump
object_properties:
  - name: feeds
data_properties:
  - name: flowRate
    range: float
`), "inline")
	require.NoError(t, err)
	p, err := aboxlink.NewPipeline(context.Background(), idx, embedder.NewHashEmbedder(256), nil, nil)
	require.NoError(t, err)

	s.ReloadFailed(errors.New("bad yaml"))
	assert.Equal(t, "ex", s.Pipeline().Index().Prefix)

	s.Reloaded(p)
	s.SetPipeline(nil)
	assert.Same(t, p, s.Pipeline())

	w := do(t, s, http.MethodGet, "/api/v1/vocabulary", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var resp dto.VocabularyResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "plant", resp.Prefix)
	assert.Equal(t, 1, resp.Stats.DataProperties)

	w = do(t, s, http.MethodGet, "/metrics", nil)
	assert.Contains(t, w.Body.String(), `aboxlink_vocabulary_reloads_total{status="error"} 1`)
	assert.Contains(t, w.Body.String(), `aboxlink_vocabulary_reloads_total{status="ok"} 1`)
}
