package cli

import (
	"fmt"
	"net/http"

	"github.com/spf13/cobra"

	"github.com/trajectly/trajectly/internal/httpapi"
	"github.com/trajectly/trajectly/internal/store"
)

var serveAddr string

func init() {
	rootCmd.AddCommand(serveCmd)
	serveCmd.Flags().StringVar(&serveAddr, "addr", ":8787", "address to listen on")
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve persisted reports over HTTP",
	Long:  "Starts a read-only HTTP API over the reports directory, watching it with fsnotify so /v1/reports/latest never reads stale cache after a run finishes.",
	Args:  cobra.NoArgs,
	RunE:  runServe,
}

func runServe(cmd *cobra.Command, args []string) error {
	logger, err := newLogger()
	if err != nil {
		return err
	}
	defer logger.Sync()

	artifacts, err := store.NewArtifactStore(stateDir)
	if err != nil {
		return fmt.Errorf("cli: build artifact store: %w", err)
	}

	server := httpapi.NewServer(artifacts, logger)

	ctx := cmd.Context()
	go func() {
		if err := server.Watch(ctx, stateDir+"/reports"); err != nil {
			logger.Sugar().Warnf("report watch stopped: %v", err)
		}
	}()

	logger.Sugar().Infof("listening on %s", serveAddr)
	return http.ListenAndServe(serveAddr, server)
}
