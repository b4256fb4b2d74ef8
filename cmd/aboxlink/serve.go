package aboxlink

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/soundprediction/aboxlink"
	"github.com/soundprediction/aboxlink/pkg/extract"
	"github.com/soundprediction/aboxlink/pkg/server"
	"github.com/soundprediction/aboxlink/pkg/vocab"
)

const shutdownTimeout = 30 * time.Second

func (c *cli) newServeCommand() *cobra.Command {
	var (
		kind      string
		subjectID string
	)
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the aboxlink HTTP server",
		Long: `Start the HTTP server.

The server provides endpoints for:
- Linking triples or text (POST /api/v1/link)
- Inspecting the vocabulary (GET /api/v1/vocabulary)
- Health, readiness and Prometheus metrics

With --watch a file vocabulary is reloaded when it changes. A revision that
fails to load keeps the previous vocabulary serving.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if err := c.setup(cmd, map[string]string{
				"host":       "server.host",
				"port":       "server.port",
				"mode":       "server.mode",
				"vocabulary": "vocabulary.path",
				"watch":      "vocabulary.watch",
				"embedder":   "embedding.provider",
			}); err != nil {
				return err
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			pipeline, emb, err := c.newPipeline(ctx)
			if err != nil {
				return err
			}
			defer emb.Close()

			opts := []server.Option{server.WithLogger(c.logger)}
			if kind != "" {
				extractor, closeExtractor, err := c.newExtractor(kind, subjectID)
				if err != nil {
					return err
				}
				defer closeExtractor()
				opts = append(opts, server.WithExtractor(extractor))
			}

			writer, err := c.newGraphWriter(ctx)
			if err != nil {
				return err
			}
			if writer != nil {
				defer writer.Close(context.Background())
				opts = append(opts, server.WithGraphWriter(writer))
			}

			srv := server.New(c.cfg, pipeline, opts...)
			if err := srv.Setup(); err != nil {
				return err
			}

			if c.cfg.Vocabulary.Watch {
				watcher, err := vocab.NewWatcher(c.cfg.Vocabulary.Path,
					func(ctx context.Context, idx *vocab.Index) error {
						p, err := aboxlink.NewPipeline(ctx, idx, emb, c.cfg.PipelineConfig(), c.logger)
						if err != nil {
							return err
						}
						srv.Reloaded(p)
						return nil
					},
					vocab.WithDebounce(c.cfg.Vocabulary.Debounce),
					vocab.WithErrorHandler(srv.ReloadFailed),
					vocab.WithWatcherLogger(c.logger))
				if err != nil {
					return err
				}
				go func() {
					if err := watcher.Run(ctx); err != nil {
						c.logger.Error("vocabulary watcher stopped", "error", err)
					}
				}()
			}

			return c.serve(ctx, srv)
		},
	}

	f := cmd.Flags()
	f.String("host", "localhost", "server host")
	f.Int("port", 8080, "server port")
	f.String("mode", "release", "gin mode (debug, release, test)")
	f.String("vocabulary", "", "vocabulary file or builtin:<name> (default builtin:aec)")
	f.Bool("watch", false, "reload a file vocabulary when it changes")
	f.String("embedder", "", "embedding provider (embedeverything, openai, hash)")
	f.StringVar(&kind, "extractor", "", "enable text requests with this extractor (llm, rules, all)")
	f.StringVar(&subjectID, "subject-id", extract.DefaultSubjectID, "subject identifier for rule-extracted triples")
	return cmd
}

// serve runs srv until ctx is cancelled, then drains it.
func (c *cli) serve(ctx context.Context, srv *server.Server) error {
	errCh := make(chan error, 1)
	go func() {
		if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return fmt.Errorf("server error: %w", err)
	case <-ctx.Done():
		c.logger.Info("shutdown requested")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := srv.Stop(shutdownCtx); err != nil {
			return fmt.Errorf("server shutdown error: %w", err)
		}
		c.logger.Info("server stopped gracefully")
		return nil
	}
}
