package cmd

import (
	"context"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/msrch/mailindex/internal/api"
	"github.com/msrch/mailindex/internal/engine"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the search index HTTP server",
	Long: `Run the index as a long-running HTTP server.

On startup the index is restored from the configured snapshot file if
one exists; on graceful shutdown (Ctrl+C or SIGTERM) the current
contents are written back to it. Without a snapshot_path the index is
purely in memory.

Endpoints:
  GET    /search?q=...        ranked search
  GET    /suggest?prefix=...  autocomplete
  GET    /stats               index statistics
  POST   /emails              index one record (upsert)
  POST   /emails/bulk         index an array of records
  DELETE /emails/{id}         remove a record
  GET    /snapshot            export records as JSON
  POST   /snapshot            import records, replacing the index`,
	RunE: runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	idx := engine.New()
	if path := cfg.Index.SnapshotPath; path != "" {
		if err := idx.LoadFile(path); err != nil {
			return err
		}
		logger.Info("snapshot restored", "path", path, "emails", idx.Stats().TotalIndexed)
	}

	srv := api.NewServer(cfg, idx, logger)

	g, ctx := errgroup.WithContext(ctx)
	g.Go(srv.Start)
	g.Go(func() error {
		<-ctx.Done()

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return srv.Stop(shutdownCtx)
	})

	err := g.Wait()

	if path := cfg.Index.SnapshotPath; path != "" {
		if saveErr := idx.SaveFile(path); saveErr != nil {
			logger.Error("snapshot save failed", "path", path, "error", saveErr)
			if err == nil {
				err = saveErr
			}
		} else {
			logger.Info("snapshot saved", "path", path, "emails", idx.Stats().TotalIndexed)
		}
	}

	return err
}
