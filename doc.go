// Package aboxlink turns loosely structured triples extracted from text into
// a typed assertion graph (an ABox) over a fixed vocabulary.
//
// A run has four stages:
//
//   - the vocabulary (pkg/vocab) is loaded and its label pools embedded once
//   - raw triples are normalized and their objects classified (pkg/triples)
//   - predicates, subjects and resource objects are linked to vocabulary
//     terms by embedding similarity (pkg/linker)
//   - linked triples are assembled into a deduplicated graph that asserts
//     each node's class at most once (pkg/abox)
//
// Per-triple problems never abort a batch. They are counted in the Summary
// and a bounded sample of them is kept for diagnostics. Only a vocabulary
// that cannot be loaded is fatal.
//
// # Basic Usage
//
//	idx, err := vocab.Load("builtin:aec")
//	if err != nil {
//		log.Fatal(err)
//	}
//
//	emb, err := embedder.New(embedder.Config{Provider: "embedeverything"})
//	if err != nil {
//		log.Fatal(err)
//	}
//	defer emb.Close()
//
//	pipeline, err := aboxlink.NewPipeline(ctx, idx, emb, aboxlink.NewDefaultConfig(), logger)
//	if err != nil {
//		log.Fatal(err)
//	}
//
//	raws, err := triples.ReadFile("triples.json")
//	if err != nil {
//		log.Fatal(err)
//	}
//
//	result, err := pipeline.Run(ctx, raws)
//	if err != nil {
//		log.Fatal(err)
//	}
//	abox.WriteTurtle(os.Stdout, result.Graph)
//
// # Text Input
//
// RunText feeds text through an Extractor (see pkg/extract) first. An
// extractor failure yields an empty graph rather than an error.
package aboxlink
