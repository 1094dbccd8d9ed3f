package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/rivulet-go/rivulet/pkg/tap"
)

func serveCmd() *cobra.Command {
	var (
		addr     string
		interval time.Duration
	)

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the tap server with a demo feed",
		Long: `Start the tap server. A demo feed publishes a tick counter and a
parity-checking gated operation whose values, errors and rejections are
each tapped as their own stream.

Examples:
  rivulet-tap serve
  rivulet-tap serve --addr=:9000 --interval=250ms`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(addr, interval)
		},
	}

	cmd.Flags().StringVarP(&addr, "addr", "a", ":8090", "Address to listen on")
	cmd.Flags().DurationVar(&interval, "interval", time.Second, "Demo feed tick interval")

	return cmd
}

func runServe(addr string, interval time.Duration) error {
	logger := slog.New(slog.NewTextHandler(os.Stderr, nil))

	hub := tap.NewHub()
	feed, err := startDemoFeed(hub, interval)
	if err != nil {
		return err
	}
	defer feed.Dispose()

	srv := tap.NewServer(hub, tap.WithLogger(logger))
	httpSrv := &http.Server{
		Addr:              addr,
		Handler:           srv.Router(),
		ReadHeaderTimeout: 5 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("tap server listening", "addr", addr)
		errCh <- httpSrv.ListenAndServe()
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-stop:
		logger.Info("shutting down")
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return httpSrv.Shutdown(ctx)
	}
}
