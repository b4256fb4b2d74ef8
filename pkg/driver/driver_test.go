package driver_test

import (
	"context"
	"math/big"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/soundprediction/aboxlink/pkg/abox"
	"github.com/soundprediction/aboxlink/pkg/driver"
	"github.com/soundprediction/aboxlink/pkg/types"
)

const ns = "http://example.org/aec#"

func sampleGraph(t *testing.T) *abox.Graph {
	t.Helper()
	g := abox.NewGraph(ns, "ex")
	add := func(s, p string, o abox.Term) {
		_, err := g.Add(abox.Statement{Subject: ns + s, Predicate: p, Object: o})
		require.NoError(t, err)
	}
	add("T1", abox.RDFType, abox.IRI(ns+"Tunnel"))
	add("T1", ns+"hasSpecification", abox.IRI(ns+"T1_Spec"))
	add("T1_Spec", abox.RDFType, abox.IRI(ns+"TunnelStructureSpec"))
	add("T1_Spec", ns+"tunnelLength", abox.Lit(types.Literal{Value: 1200.0, Datatype: types.DatatypeFloat}))
	add("T1_Spec", ns+"numberOfCrossPassages", abox.Lit(types.Literal{Value: int64(12), Datatype: types.DatatypeInteger}))
	add("T1_Spec", ns+"numberOfCrossPassages", abox.Lit(types.Literal{Value: int64(14), Datatype: types.DatatypeInteger}))
	return g
}

func TestPropertyKey(t *testing.T) {
	assert.Equal(t, "tunnelLength", driver.PropertyKey(ns+"tunnelLength"))
	assert.Equal(t, "length", driver.PropertyKey("http://example.org/vocab/length"))
	assert.Equal(t, "plain", driver.PropertyKey("plain"))
	assert.Equal(t, "http://example.org/", driver.PropertyKey("http://example.org/"))
	assert.Equal(t, "data_iri", driver.PropertyKey(ns+"iri"))
	assert.Equal(t, "data_rdf_type", driver.PropertyKey(ns+"rdf_type"))
}

func TestBuildBatchKeepsNodeKeys(t *testing.T) {
	g := abox.NewGraph(ns, "ex")
	add := func(p string, o abox.Term) {
		_, err := g.Add(abox.Statement{Subject: ns + "Doc_1", Predicate: p, Object: o})
		require.NoError(t, err)
	}
	add(abox.RDFType, abox.IRI(ns+"TunnelSafetyDoc"))
	add(ns+"iri", abox.Lit(types.Literal{Value: "urn:doc:1", Datatype: types.DatatypeString}))
	add(ns+"rdf_type", abox.Lit(types.Literal{Value: "pdf", Datatype: types.DatatypeString}))

	b := driver.BuildBatch(g)
	require.Len(t, b.Resources, 1)
	res := b.Resources[0]
	assert.Equal(t, ns+"Doc_1", res["iri"])
	assert.Equal(t, []string{ns + "TunnelSafetyDoc"}, res["rdf_type"])

	props := res["properties"].(map[string]any)
	assert.Equal(t, map[string]any{"data_iri": "urn:doc:1", "data_rdf_type": "pdf"}, props)
	assert.NotContains(t, props, "iri")
	assert.NotContains(t, props, "rdf_type")
}

func TestBuildBatchBigIntegers(t *testing.T) {
	huge, ok := new(big.Int).SetString("99999999999999999999", 10)
	require.True(t, ok)

	g := abox.NewGraph(ns, "ex")
	add := func(s string, v any) {
		_, err := g.Add(abox.Statement{Subject: ns + s, Predicate: ns + "count", Object: abox.Lit(types.Literal{Value: v, Datatype: types.DatatypeInteger})})
		require.NoError(t, err)
	}
	add("a", huge)
	add("b", int64(1))
	add("b", huge)

	b := driver.BuildBatch(g)
	require.Len(t, b.Resources, 2)
	assert.Equal(t, "99999999999999999999", b.Resources[0]["properties"].(map[string]any)["count"])
	assert.Equal(t, []string{"1", "99999999999999999999"}, b.Resources[1]["properties"].(map[string]any)["count"])
}

func TestBuildBatch(t *testing.T) {
	b := driver.BuildBatch(sampleGraph(t))

	require.Len(t, b.Resources, 2)
	assert.Equal(t, ns+"T1", b.Resources[0]["iri"])
	assert.Equal(t, []string{ns + "Tunnel"}, b.Resources[0]["rdf_type"])
	assert.Empty(t, b.Resources[0]["properties"])

	spec := b.Resources[1]
	assert.Equal(t, ns+"T1_Spec", spec["iri"])
	props := spec["properties"].(map[string]any)
	assert.Equal(t, 1200.0, props["tunnelLength"])
	assert.Equal(t, []int64{12, 14}, props["numberOfCrossPassages"])

	require.Len(t, b.Edges, 1)
	assert.Equal(t, map[string]any{
		"source":    ns + "T1",
		"predicate": ns + "hasSpecification",
		"target":    ns + "T1_Spec",
	}, b.Edges[0])

	stats := b.Stats()
	assert.Equal(t, &driver.WriteStats{Resources: 2, Relationships: 1, Properties: 2}, stats)
}

func TestBuildBatchUntypedAndMixed(t *testing.T) {
	g := abox.NewGraph(ns, "ex")
	_, err := g.Add(abox.Statement{Subject: ns + "x", Predicate: ns + "note", Object: abox.Lit(types.Literal{Value: "a", Datatype: types.DatatypeString})})
	require.NoError(t, err)
	_, err = g.Add(abox.Statement{Subject: ns + "x", Predicate: ns + "note", Object: abox.Lit(types.Literal{Value: int64(2), Datatype: types.DatatypeInteger})})
	require.NoError(t, err)

	b := driver.BuildBatch(g)
	require.Len(t, b.Resources, 1)
	assert.Equal(t, []string{}, b.Resources[0]["rdf_type"])
	assert.Equal(t, []string{"a", "2"}, b.Resources[0]["properties"].(map[string]any)["note"])
}

func TestBuildBatchEmpty(t *testing.T) {
	b := driver.BuildBatch(abox.NewGraph(ns, "ex"))
	assert.Empty(t, b.Resources)
	assert.Empty(t, b.Edges)
}

// Set NEO4J_URI, NEO4J_USER and NEO4J_PASSWORD to run against a live database.
func TestNeo4jWriterIntegration(t *testing.T) {
	uri := os.Getenv("NEO4J_URI")
	if uri == "" {
		t.Skip("NEO4J_URI not set")
	}

	w, err := driver.NewNeo4jWriter(uri, os.Getenv("NEO4J_USER"), os.Getenv("NEO4J_PASSWORD"), os.Getenv("NEO4J_DATABASE"), nil)
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	defer w.Close(ctx)

	if err := w.VerifyConnectivity(ctx); err != nil {
		t.Skipf("Neo4j not reachable at %s: %v", uri, err)
	}
	require.NoError(t, w.CreateConstraints(ctx))

	g := sampleGraph(t)
	stats, err := w.WriteGraph(ctx, g)
	require.NoError(t, err)
	assert.Equal(t, 2, stats.Resources)

	// Idempotent.
	_, err = w.WriteGraph(ctx, g)
	require.NoError(t, err)

	res, err := w.Resource(ctx, ns+"T1")
	require.NoError(t, err)
	assert.Equal(t, []string{ns + "Tunnel"}, res.Types)
	assert.Equal(t, []string{ns + "T1_Spec"}, res.Asserts[ns+"hasSpecification"])

	spec, err := w.Resource(ctx, ns+"T1_Spec")
	require.NoError(t, err)
	assert.Equal(t, 1200.0, spec.Properties["tunnelLength"])
}
