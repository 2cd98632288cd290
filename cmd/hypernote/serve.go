package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/futurepaul/hypernote-pages/internal/logging"
	httpAdapter "github.com/futurepaul/hypernote-pages/pkg/adapters/http"
	"github.com/futurepaul/hypernote-pages/pkg/adapters/memory"
	"github.com/futurepaul/hypernote-pages/pkg/observability"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the stateless HTTP server",
	Long:  `Starts a stateless JSON API that renders posted documents and executes their actions.`,
	Run: func(cmd *cobra.Command, args []string) {
		port, _ := cmd.Flags().GetString("port")
		pubkey, _ := cmd.Flags().GetString("pubkey")

		logger := logging.New(slog.LevelInfo)
		registry := prometheus.NewRegistry()
		metrics := observability.New(registry)

		queries := memory.NewQuerySource()
		deps := httpAdapter.Deps{
			Queries:  queries,
			Records:  queries,
			Fetcher:  httpAdapter.NewFetcher(nil),
			Logger:   logger,
			Metrics:  metrics,
			Gatherer: registry,
		}
		if pubkey != "" {
			deps.Signer = memory.NewSigner(pubkey)
			deps.Publisher = memory.NewPublisher()
		}

		srv := &http.Server{
			Addr:    ":" + port,
			Handler: httpAdapter.NewHandler(deps),
		}

		serverErrors := make(chan error, 1)
		go func() {
			fmt.Printf("Starting Hypernote server on %s\n", srv.Addr)
			serverErrors <- srv.ListenAndServe()
		}()

		shutdown := make(chan os.Signal, 1)
		signal.Notify(shutdown, os.Interrupt, syscall.SIGTERM)

		select {
		case err := <-serverErrors:
			fmt.Printf("Server error: %v\n", err)
			os.Exit(1)
		case sig := <-shutdown:
			fmt.Printf("\nStart shutdown... Signal: %v\n", sig)
			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			if err := srv.Shutdown(ctx); err != nil {
				_ = srv.Close()
			}
		}
	},
}

func init() {
	serveCmd.Flags().String("port", "8080", "Port to listen on")
	serveCmd.Flags().String("pubkey", "", "Identity to sign actions as (stub signer)")
	rootCmd.AddCommand(serveCmd)
}
