/*
 * Copyright 2025 Humaid Alqasimi
 * SPDX-License-Identifier: Apache-2.0
 */
package cmd

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/flamego/flamego"
	"github.com/urfave/cli/v3"

	"github.com/humaidq/bookkeeper/routes"
)

const shutdownTimeout = 10 * time.Second

var CmdStart = &cli.Command{
	Name:    "start",
	Aliases: []string{"run"},
	Usage:   "Start the finance API server",
	Flags:   serverFlags(),
	Action:  start,
}

func start(ctx context.Context, cmd *cli.Command) error {
	cfg, err := serverConfigFromCommand(cmd)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	stack, closeFinance, err := openFinance(ctx, cfg.financeConfig)
	if err != nil {
		return err
	}
	defer closeFinance()

	if cfg.AutoPay {
		stack.scheduler.StartDaily(ctx)
	} else {
		appLogger.Info("Auto-pay scheduler disabled")
	}

	srv := &http.Server{
		Addr:         fmt.Sprintf("0.0.0.0:%s", cfg.Port),
		Handler:      newRouter(stack.api),
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 10 * time.Second,
		ErrorLog:     requestStdLogger,
	}

	go func() {
		<-ctx.Done()

		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()

		if err := srv.Shutdown(shutdownCtx); err != nil {
			appLogger.Error("Failed to shut down web server", "error", err)
		}
	}()

	appLogger.Info("Starting web server", "port", cfg.Port)

	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("web server failed: %w", err)
	}

	appLogger.Info("Web server stopped")

	return nil
}

func newRouter(svc *routes.Finance) *flamego.Flame {
	f := flamego.New()
	f.Use(flamego.Recovery())
	f.Use(routes.RequestLogger)
	f.Use(routes.MapFinance(svc))

	f.Get("/health", routes.Health)
	routes.Register(f)

	return f
}
