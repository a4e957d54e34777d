package cmd

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"teraproxy/internal"
	"teraproxy/server"
)

const shutdownTimeout = 10 * time.Second

var (
	listenAddr  string
	requestRate float64
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP API",
	Long: `Run the HTTP API that resolves share links and proxies file streams.

Examples:
  teraproxy serve
  teraproxy serve --listen 127.0.0.1:9000 --rate 2`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		if cmd.Flags().Changed("listen") {
			config.Listen = listenAddr
		}
		if cmd.Flags().Changed("rate") {
			if requestRate < 0 {
				return internal.NewValidationErrorWithValue("rate", "must be >= 0", requestRate)
			}
			config.RequestsPerSecond = requestRate
		}

		if !config.HasCredential() {
			internal.LogWarn("No cookie configured, most shares will refuse to list files")
		}

		client, err := newClient()
		if err != nil {
			return err
		}
		srv := server.New(config, client, version)

		ctx, stop := signalContext()
		defer stop()

		errCh := make(chan error, 1)
		go func() {
			errCh <- srv.Start()
		}()

		select {
		case err := <-errCh:
			if err != nil {
				return fmt.Errorf("server failed: %w", err)
			}
			return nil
		case <-ctx.Done():
			internal.LogInfo("Received shutdown signal")
		}

		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("shutdown failed: %w", err)
		}
		return <-errCh
	},
}

func init() {
	serveCmd.Flags().StringVarP(&listenAddr, "listen", "l", "", "Listen address (env: TERAPROXY_LISTEN) (default :8080)")
	serveCmd.Flags().Float64Var(&requestRate, "rate", 0, "Requests per second per client, 0 disables limiting (env: TERAPROXY_RATE_LIMIT) (default 5)")
}
