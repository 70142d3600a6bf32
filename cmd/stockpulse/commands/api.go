package commands

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/quantlens/stockpulse/internal/api"
	"github.com/quantlens/stockpulse/internal/api/handlers"
)

var apiCmd = &cobra.Command{
	Use:   "api",
	Short: "Start the HTTP API server",
	Long: `Start the REST API server exposing securities, institutional
holdings and quarterly result endpoints.`,
	RunE: runAPIServer,
}

func init() {
	rootCmd.AddCommand(apiCmd)
}

func runAPIServer(cmd *cobra.Command, args []string) error {
	a, err := newApp()
	if err != nil {
		return err
	}
	defer a.Close()

	securityHandler := handlers.NewSecurityHandler(a.engine, a.snapshotRepo, a.log)
	holdingHandler := handlers.NewHoldingHandler(a.engine, a.holdingRepo, a.log)
	resultHandler := handlers.NewResultHandler(a.engine, a.resultRepo, a.log)

	router := api.NewRouter(securityHandler, holdingHandler, resultHandler, a.log)
	server := api.New(a.cfg, a.log, router)

	fmt.Printf("stockpulse API listening on :%s (env=%s)\n", a.cfg.Port, a.cfg.Env)

	errCh := make(chan error, 1)
	go func() {
		errCh <- server.Start()
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-errCh:
		return err
	case sig := <-sigCh:
		a.log.WithField("signal", sig.String()).Info("Shutdown signal received")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	return server.Shutdown(ctx)
}
