package driver

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/neo4j/neo4j-go-driver/v5/neo4j"

	"github.com/soundprediction/aboxlink/pkg/abox"
	"github.com/soundprediction/aboxlink/pkg/types"
)

var _ GraphWriter = (*Neo4jWriter)(nil)

// Neo4jWriter implements GraphWriter for Neo4j and Bolt-compatible databases.
type Neo4jWriter struct {
	client   neo4j.DriverWithContext
	database string
	logger   *slog.Logger
}

// NewNeo4jWriter creates a new Neo4j writer. The connection is opened lazily;
// call VerifyConnectivity to fail fast.
func NewNeo4jWriter(uri, username, password, database string, logger *slog.Logger) (*Neo4jWriter, error) {
	client, err := neo4j.NewDriverWithContext(uri, neo4j.BasicAuth(username, password, ""))
	if err != nil {
		return nil, fmt.Errorf("failed to create neo4j driver: %w", err)
	}
	if database == "" {
		database = "neo4j"
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Neo4jWriter{
		client:   client,
		database: database,
		logger:   logger,
	}, nil
}

// VerifyConnectivity checks that the database is reachable.
func (w *Neo4jWriter) VerifyConnectivity(ctx context.Context) error {
	return w.client.VerifyConnectivity(ctx)
}

// CreateConstraints makes Resource.iri unique, which also indexes it for MERGE.
func (w *Neo4jWriter) CreateConstraints(ctx context.Context) error {
	session := w.client.NewSession(ctx, neo4j.SessionConfig{DatabaseName: w.database})
	defer session.Close(ctx)

	_, err := session.ExecuteWrite(ctx, func(tx neo4j.ManagedTransaction) (any, error) {
		_, err := tx.Run(ctx,
			`CREATE CONSTRAINT resource_iri IF NOT EXISTS FOR (r:Resource) REQUIRE r.iri IS UNIQUE`, nil)
		return nil, err
	})
	if err != nil {
		return fmt.Errorf("failed to create constraints: %w", err)
	}
	return nil
}

// WriteGraph writes g in one transaction. Re-writing the same graph is
// idempotent: resources and relationships are merged, rdf_type lists are
// unioned and literal properties are overwritten.
func (w *Neo4jWriter) WriteGraph(ctx context.Context, g *abox.Graph) (*WriteStats, error) {
	batch := BuildBatch(g)
	stats := batch.Stats()
	if len(batch.Resources) == 0 {
		return stats, nil
	}

	session := w.client.NewSession(ctx, neo4j.SessionConfig{DatabaseName: w.database})
	defer session.Close(ctx)

	_, err := session.ExecuteWrite(ctx, func(tx neo4j.ManagedTransaction) (any, error) {
		query := `
			UNWIND $resources AS res
			MERGE (r:Resource {iri: res.iri})
			SET r += res.properties
			SET r.rdf_type = coalesce(r.rdf_type, []) +
				[t IN res.rdf_type WHERE NOT t IN coalesce(r.rdf_type, [])]
		`
		if _, err := tx.Run(ctx, query, map[string]any{"resources": batch.Resources}); err != nil {
			return nil, fmt.Errorf("failed to merge resources: %w", err)
		}

		if len(batch.Edges) == 0 {
			return nil, nil
		}
		query = `
			UNWIND $edges AS edge
			MATCH (s:Resource {iri: edge.source})
			MATCH (t:Resource {iri: edge.target})
			MERGE (s)-[:ASSERTS {predicate: edge.predicate}]->(t)
		`
		if _, err := tx.Run(ctx, query, map[string]any{"edges": batch.Edges}); err != nil {
			return nil, fmt.Errorf("failed to merge relationships: %w", err)
		}
		return nil, nil
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %w", types.ErrGraphWriteFailure, err)
	}

	w.logger.Info("graph persisted",
		"database", w.database,
		"resources", stats.Resources,
		"relationships", stats.Relationships)
	return stats, nil
}

// StoredResource is a Resource node read back from the database.
type StoredResource struct {
	IRI        string
	Types      []string
	Properties map[string]any
	Asserts    map[string][]string
}

// Resource reads a resource and its outgoing ASSERTS relationships.
func (w *Neo4jWriter) Resource(ctx context.Context, iri string) (*StoredResource, error) {
	session := w.client.NewSession(ctx, neo4j.SessionConfig{DatabaseName: w.database})
	defer session.Close(ctx)

	result, err := session.ExecuteRead(ctx, func(tx neo4j.ManagedTransaction) (any, error) {
		res, err := tx.Run(ctx, `
			MATCH (r:Resource {iri: $iri})
			OPTIONAL MATCH (r)-[a:ASSERTS]->(t:Resource)
			RETURN r, collect([a.predicate, t.iri]) AS asserts
		`, map[string]any{"iri": iri})
		if err != nil {
			return nil, err
		}
		return res.Single(ctx)
	})
	if err != nil {
		return nil, fmt.Errorf("resource %s: %w", iri, err)
	}

	record, err := MustRecord(result, "result")
	if err != nil {
		return nil, err
	}
	nodeValue, _ := record.Get("r")
	node, err := MustDBNode(nodeValue, "r")
	if err != nil {
		return nil, err
	}

	out := &StoredResource{
		IRI:        iri,
		Properties: make(map[string]any),
		Asserts:    make(map[string][]string),
	}
	for k, v := range node.Props {
		switch k {
		case "iri":
		case "rdf_type":
			out.Types, _ = AsStringSlice(v)
		default:
			out.Properties[k] = v
		}
	}

	assertsValue, _ := record.Get("asserts")
	pairs, _ := AsAnySlice(assertsValue)
	for _, p := range pairs {
		pair, ok := AsAnySlice(p)
		if !ok || len(pair) != 2 {
			continue
		}
		pred, ok1 := AsString(pair[0])
		target, ok2 := AsString(pair[1])
		if ok1 && ok2 {
			out.Asserts[pred] = append(out.Asserts[pred], target)
		}
	}
	return out, nil
}

// Close releases the underlying driver.
func (w *Neo4jWriter) Close(ctx context.Context) error {
	return w.client.Close(ctx)
}
