package main

import (
	"flag"
	"fmt"
	"os"

	"gridhost/internal/config"
	"gridhost/internal/engine"
	"gridhost/internal/observability"
	"gridhost/internal/tui"
)

func main() {
	configPath := flag.String("config", "", "path to a YAML config file")
	logPath := flag.String("log", "grid.log", "log file (the terminal belongs to the UI)")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintln(os.Stderr, "config error:", err)
		os.Exit(1)
	}

	logFile, err := os.OpenFile(*logPath, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		fmt.Fprintln(os.Stderr, "log file:", err)
		os.Exit(1)
	}
	defer logFile.Close()
	logger := observability.NewLoggerTo(logFile, "grid-tui", cfg.Level())

	rnd := engine.NewTimeRandomizer()
	if cfg.Seed != 0 {
		rnd = engine.NewRandomizer(cfg.Seed)
	}
	grid := engine.NewGrid(engine.Options{Randomizer: rnd, Logger: logger})

	load := engine.LoadOptions{RowCount: cfg.Rows, Shuffle: cfg.Shuffle}
	view := tui.New(grid, load)
	if _, err := grid.Load(load); err != nil {
		logger.Warn("initial load", "error", err)
	}

	if err := view.Run(); err != nil {
		fmt.Fprintln(os.Stderr, "ui error:", err)
		os.Exit(1)
	}
}
