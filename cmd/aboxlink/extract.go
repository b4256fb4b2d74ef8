package aboxlink

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/soundprediction/aboxlink/pkg/extract"
)

func (c *cli) newExtractCommand() *cobra.Command {
	var (
		textPath  string
		kind      string
		subjectID string
	)
	cmd := &cobra.Command{
		Use:   "extract",
		Short: "Extract triples from text, link them and write the assertion graph",
		Long: `Extract raw triples from a text document and run them through the
linking pipeline.

The llm extractor asks the configured chat model for triples. The rules
extractor matches tunnel specification patterns (length, cross passages,
hydrant pressure, extinguisher weight) and attributes them to --subject-id.
An extraction failure yields an empty graph, not an error.`,
		Example: `  aboxlink extract --text spec.txt --extractor rules --subject-id Tunnel_7
  OPENAI_API_KEY=... aboxlink extract --text spec.txt -o abox.ttl`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if err := c.setup(cmd, linkFlags); err != nil {
				return err
			}
			ctx := cmd.Context()

			text, err := readInput(cmd.InOrStdin(), textPath)
			if err != nil {
				return fmt.Errorf("read text: %w", err)
			}

			extractor, closeExtractor, err := c.newExtractor(kind, subjectID)
			if err != nil {
				return err
			}
			defer closeExtractor()

			pipeline, emb, err := c.newPipeline(ctx)
			if err != nil {
				return err
			}
			defer emb.Close()

			result, err := pipeline.RunText(ctx, extractor, string(text))
			if err != nil {
				return err
			}
			persist, _ := cmd.Flags().GetBool("persist")
			return c.finish(ctx, cmd, result, persist)
		},
	}
	cmd.Flags().StringVarP(&textPath, "text", "t", "-", "text document path, - for stdin")
	cmd.Flags().StringVar(&kind, "extractor", ExtractorLLM, "extraction provider (llm, rules, all)")
	cmd.Flags().StringVar(&subjectID, "subject-id", extract.DefaultSubjectID, "subject identifier for rule-extracted triples")
	addLinkFlags(cmd)
	return cmd
}
