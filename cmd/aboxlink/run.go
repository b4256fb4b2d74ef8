package aboxlink

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/soundprediction/aboxlink/pkg/triples"
)

// linkFlags are shared by run and extract.
var linkFlags = map[string]string{
	"vocabulary":    "vocabulary.path",
	"output":        "output.path",
	"format":        "output.format",
	"summary":       "output.summary_path",
	"threshold":     "linking.threshold",
	"top-k":         "linking.top_k",
	"focus-subject": "linking.focus_subject",
	"embedder":      "embedding.provider",
}

func addLinkFlags(cmd *cobra.Command) {
	f := cmd.Flags()
	f.String("vocabulary", "", "vocabulary file or builtin:<name> (default builtin:aec)")
	f.StringP("output", "o", "-", "output graph path, - for stdout")
	f.String("format", "turtle", "output format (turtle, ntriples)")
	f.String("summary", "", "write the run summary as JSON to this path")
	f.Float64("threshold", 0, "minimum similarity for a vocabulary link (default 0.55)")
	f.Int("top-k", 0, "candidates considered per mention (default 1)")
	f.String("focus-subject", "", "identifier substituted for generic subjects such as \"the tunnel\"")
	f.String("embedder", "", "embedding provider (embedeverything, openai, hash)")
	f.Bool("persist", false, "also write the graph to the configured Neo4j database")
}

func (c *cli) newRunCommand() *cobra.Command {
	var input string
	cmd := &cobra.Command{
		Use:   "run",
		Short: "Link a batch of raw triples and write the assertion graph",
		Long: `Read raw triples, link them to the vocabulary and write the graph.

Input is a JSON array of triples, an object with a "triples" array, or JSON
Lines. Each triple is either positional ["subject", "predicate", "object",
"object"|"data"] or a mapping with subject, predicate, object and optional
object_is_literal, datatype, confidence and property_type fields.

Triples that cannot be linked are skipped and reported; the command still
succeeds and writes whatever graph was built.`,
		Example: `  aboxlink run --input triples.json --output abox.ttl
  cat triples.jsonl | aboxlink run --vocabulary vocab.yaml --format ntriples`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if err := c.setup(cmd, linkFlags); err != nil {
				return err
			}
			ctx := cmd.Context()

			data, err := readInput(cmd.InOrStdin(), input)
			if err != nil {
				return fmt.Errorf("read triples: %w", err)
			}
			raws, err := triples.DecodeBatch(data)
			if err != nil {
				return fmt.Errorf("read triples %s: %w", input, err)
			}

			pipeline, emb, err := c.newPipeline(ctx)
			if err != nil {
				return err
			}
			defer emb.Close()

			result, err := pipeline.Run(ctx, raws)
			if err != nil {
				return err
			}
			persist, _ := cmd.Flags().GetBool("persist")
			return c.finish(ctx, cmd, result, persist)
		},
	}
	cmd.Flags().StringVarP(&input, "input", "i", "-", "raw triples path, - for stdin")
	addLinkFlags(cmd)
	return cmd
}
