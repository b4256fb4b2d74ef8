package aboxlink

import (
	"encoding/json"
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/soundprediction/aboxlink/pkg/vocab"
)

func (c *cli) newVocabCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "vocab",
		Short: "Vocabulary utilities",
	}
	cmd.AddCommand(c.newVocabInspectCommand())
	return cmd
}

func (c *cli) newVocabInspectCommand() *cobra.Command {
	var (
		asJSON bool
		list   string
	)
	cmd := &cobra.Command{
		Use:   "inspect",
		Short: "Print the label pools of a vocabulary",
		Long: `Load and validate a vocabulary, then print the size of each label pool.
Exits with status 2 when the vocabulary cannot be loaded.`,
		Example: `  aboxlink vocab inspect --vocabulary vocab.yaml
  aboxlink vocab inspect --list data_property`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if err := c.setup(cmd, map[string]string{"vocabulary": "vocabulary.path"}); err != nil {
				return err
			}
			idx, err := c.loadVocabulary()
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if asJSON {
				enc := json.NewEncoder(out)
				enc.SetIndent("", "  ")
				return enc.Encode(map[string]any{
					"source":    c.cfg.Vocabulary.Path,
					"namespace": idx.Namespace,
					"prefix":    idx.Prefix,
					"stats":     idx.Stats(),
				})
			}

			stats := idx.Stats()
			fmt.Fprintf(out, "source:    %s\nnamespace: %s\nprefix:    %s\n\n", c.cfg.Vocabulary.Path, idx.Namespace, idx.Prefix)
			tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "POOL\tTERMS\tLABEL ROWS")
			fmt.Fprintf(tw, "%s\t%d\t%d\n", vocab.KindClass, stats.Classes, stats.ClassLabels)
			fmt.Fprintf(tw, "%s\t%d\t%d\n", vocab.KindObjectProperty, stats.ObjectProperties, stats.ObjectPropertyLabels)
			fmt.Fprintf(tw, "%s\t%d\t%d\n", vocab.KindDataProperty, stats.DataProperties, stats.DataPropertyLabels)
			if err := tw.Flush(); err != nil {
				return err
			}

			if list == "" {
				return nil
			}
			kind := vocab.Kind(list)
			if _, ok := kind.PropertyKind(); !ok && kind != vocab.KindClass {
				return fmt.Errorf("unknown kind %q (want class, object_property or data_property)", list)
			}
			fmt.Fprintln(out)
			tw = tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "NAME\tDOMAIN\tRANGE\tLABELS")
			for _, e := range idx.Entries(kind) {
				fmt.Fprintf(tw, "%s\t%s\t%s\t%v\n", e.Name, e.Domain, e.Range, e.Labels)
			}
			return tw.Flush()
		},
	}
	cmd.Flags().String("vocabulary", "", "vocabulary file or builtin:<name> (default builtin:aec)")
	cmd.Flags().BoolVar(&asJSON, "json", false, "print as JSON")
	cmd.Flags().StringVar(&list, "list", "", "also list the entries of one pool (class, object_property, data_property)")
	return cmd
}
