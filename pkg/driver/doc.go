// Package driver writes assertion graphs to graph databases.
//
// A GraphWriter persists one assembled graph per call. Neo4jWriter maps every
// IRI to a (:Resource {iri}) node, collects rdf:type objects in the node's
// rdf_type list, stores literal-valued statements as node properties keyed by
// the predicate's local name, and merges resource-valued statements as
// [:ASSERTS {predicate}] relationships. A graph is written in a single
// transaction: either every statement lands or none does.
//
// # Usage
//
//	w, err := driver.NewNeo4jWriter(uri, username, password, "neo4j", logger)
//	if err != nil {
//		return err
//	}
//	defer w.Close(ctx)
//
//	stats, err := w.WriteGraph(ctx, graph)
package driver
