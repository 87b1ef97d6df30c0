package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/mcauduro0/macro-signal-pipeline/internal/metrics"
)

func newServeCmd() *cobra.Command {
	var addr string
	var inflationTarget float64

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run a long-lived process exposing /healthz and /metrics",
		RunE: func(cmd *cobra.Command, args []string) error {
			rt, cleanup, err := buildRuntime(inflationTarget)
			if err != nil {
				return err
			}
			defer cleanup()

			mux := http.NewServeMux()
			mux.Handle("/metrics", metrics.Default.Handler())
			mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
				ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
				defer cancel()
				if err := rt.health.Ping(ctx); err != nil {
					w.WriteHeader(http.StatusServiceUnavailable)
					fmt.Fprintf(w, "db unreachable: %v\n", err)
					return
				}
				w.WriteHeader(http.StatusOK)
				fmt.Fprintln(w, "ok")
			})

			server := &http.Server{
				Addr:         addr,
				Handler:      mux,
				ReadTimeout:  10 * time.Second,
				WriteTimeout: 10 * time.Second,
				IdleTimeout:  60 * time.Second,
			}

			shutdownCtx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			go func() {
				<-shutdownCtx.Done()
				log.Info().Msg("shutdown signal received, closing server")
				ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
				defer cancel()
				if err := server.Shutdown(ctx); err != nil {
					log.Error().Err(err).Msg("server shutdown failed")
				}
			}()

			log.Info().Str("addr", addr).Msg("serving /healthz and /metrics")
			if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
				return err
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&addr, "addr", ":8090", "address to listen on")
	cmd.Flags().Float64Var(&inflationTarget, "inflation-target", defaultInflationTarget, "monetary agent's inflation target")
	return cmd
}
