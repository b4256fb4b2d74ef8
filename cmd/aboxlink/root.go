// Package aboxlink implements the aboxlink command line.
package aboxlink

import (
	"errors"
	"fmt"
	"log/slog"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/soundprediction/aboxlink/pkg/config"
	"github.com/soundprediction/aboxlink/pkg/logger"
	"github.com/soundprediction/aboxlink/pkg/vocab"
)

// Exit codes.
const (
	ExitOK              = 0
	ExitFailure         = 1
	ExitVocabularyError = 2
)

// cli carries per-invocation state. Each command builds its configuration
// from a fresh viper instance in its RunE.
type cli struct {
	configFile string

	cfg    *config.Config
	logger *slog.Logger
}

// NewRootCommand builds the command tree.
func NewRootCommand() *cobra.Command {
	c := &cli{}
	root := &cobra.Command{
		Use:   "aboxlink",
		Short: "aboxlink: link extracted triples to an ontology vocabulary",
		Long: `aboxlink maps free-form (subject, predicate, object) triples onto the
classes and properties of a fixed vocabulary using embedding similarity,
and writes the resulting assertion graph as Turtle or N-Triples.

Triples can be supplied directly (JSON, JSON Lines) or extracted from text
by an LLM or by regex rules. Graphs can additionally be persisted to Neo4j.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	root.PersistentFlags().StringVar(&c.configFile, "config", "", "config file (default is ./.aboxlink.yaml or $HOME/.aboxlink.yaml)")
	root.PersistentFlags().String("log-level", "info", "log level (debug, info, warn, error)")

	root.AddCommand(
		c.newRunCommand(),
		c.newExtractCommand(),
		c.newVocabCommand(),
		c.newServeCommand(),
	)
	return root
}

// Execute runs the root command and prints any error.
func Execute() error {
	root := NewRootCommand()
	if err := root.Execute(); err != nil {
		fmt.Fprintln(root.ErrOrStderr(), color.RedString("Error:"), err)
		return err
	}
	return nil
}

// ExitCode maps a command error to the process exit status.
func ExitCode(err error) int {
	switch {
	case err == nil:
		return ExitOK
	case errors.Is(err, vocab.ErrVocabularyLoad):
		return ExitVocabularyError
	default:
		return ExitFailure
	}
}

// setup loads configuration with the command's flags bound to their keys,
// then builds the logger.
func (c *cli) setup(cmd *cobra.Command, keys map[string]string) error {
	v, err := config.New(c.configFile)
	if err != nil {
		return err
	}

	bind := map[string]string{"log-level": "log.level"}
	for flag, key := range keys {
		bind[flag] = key
	}
	for flag, key := range bind {
		f := cmd.Flags().Lookup(flag)
		if f == nil {
			continue
		}
		if err := v.BindPFlag(key, f); err != nil {
			return fmt.Errorf("bind --%s: %w", flag, err)
		}
	}

	cfg, err := config.Load(v)
	if err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}
	c.cfg = cfg
	c.logger = logger.NewLogger(logger.Config{
		Level:  logger.ParseLevel(cfg.Log.Level),
		Format: cfg.Log.Format,
		Writer: cmd.ErrOrStderr(),
	})
	return nil
}
