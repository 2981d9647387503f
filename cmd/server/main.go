package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"gridhost/internal/api"
	"gridhost/internal/config"
	"gridhost/internal/engine"
	"gridhost/internal/observability"
	"gridhost/internal/render"
)

func main() {
	configPath := flag.String("config", "", "path to a YAML config file")
	dump := flag.Bool("dump", false, "print the grid to stdout after every change")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintln(os.Stderr, "config error:", err)
		os.Exit(1)
	}
	logger := observability.NewLogger("grid-server", cfg.Level())

	rnd := engine.NewTimeRandomizer()
	if cfg.Seed != 0 {
		rnd = engine.NewRandomizer(cfg.Seed)
	}
	grid := engine.NewGrid(engine.Options{Randomizer: rnd, Logger: logger})
	if *dump {
		grid.Subscribe(render.NewText(os.Stdout))
	}

	// 1. API is live right away; the grid reads as empty until the first load
	h := api.NewHandler(grid, api.Options{
		Rows:      cfg.Rows,
		Shuffle:   cfg.Shuffle,
		PageLimit: cfg.PageLimit,
		Logger:    logger,
	})
	e := api.NewServer(h)

	// 2. Initial load in background
	go func() {
		t0 := time.Now()
		if _, err := grid.Load(engine.LoadOptions{RowCount: cfg.Rows, Shuffle: cfg.Shuffle}); err != nil {
			logger.Warn("initial load", "error", err)
		}
		logger.Info("initial load complete", "elapsed", time.Since(t0))
	}()

	// 3. Serve until interrupted
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	go func() {
		logger.Info("server ready", "addr", cfg.Addr)
		if err := e.Start(cfg.Addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("server stopped", "error", err)
			stop()
		}
	}()

	<-ctx.Done()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		logger.Error("shutdown", "error", err)
	}
}
