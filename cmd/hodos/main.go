// Package main is the development CLI for the technique engine. It wires
// configuration, PostgreSQL, the Redis combo tracker, content catalogs, and
// Lua quest gates, then runs one engine operation per invocation.
//
// Usage:
//
//	hodos [-config path] <command> [flags]
//
// Commands: seed-npc, init-skill, learn, train, activate, end-encounter, history.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/AmirZhou/hodos-sub001/internal/config"
	"github.com/AmirZhou/hodos-sub001/internal/observability"
)

func main() {
	start := time.Now()

	configPath := flag.String("config", "configs/dev.yaml", "path to configuration file")
	flag.Usage = usage
	flag.Parse()
	if flag.NArg() < 1 {
		usage()
		os.Exit(2)
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("loading config: %v", err)
	}

	logger, err := observability.NewLogger(cfg.Logging, "hodos")
	if err != nil {
		log.Fatalf("initializing logger: %v", err)
	}
	defer func() { _ = logger.Sync() }()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	app, err := newApp(ctx, cfg, logger)
	if err != nil {
		logger.Fatal("wiring engine", zap.Error(err))
	}
	defer app.Close()
	logger.Debug("engine ready", zap.Duration("startup", time.Since(start)))

	if err := app.dispatch(ctx, flag.Arg(0), flag.Args()[1:], os.Stdout); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func usage() {
	fmt.Fprintf(os.Stderr, "usage: %s [-config path] <command> [flags]\n\n", os.Args[0])
	fmt.Fprintln(os.Stderr, "commands: seed-npc, init-skill, learn, train, activate, end-encounter, history")
	flag.PrintDefaults()
}
