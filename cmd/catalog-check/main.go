// Package main loads the whole content catalog, cross-checks its references,
// and dry-runs every quest gate script. It exits non-zero on any problem.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"time"

	"go.uber.org/zap"

	"github.com/AmirZhou/hodos-sub001/internal/config"
	"github.com/AmirZhou/hodos-sub001/internal/game/content"
	"github.com/AmirZhou/hodos-sub001/internal/observability"
	"github.com/AmirZhou/hodos-sub001/internal/scripting"
)

func main() {
	start := time.Now()

	configPath := flag.String("config", "configs/dev.yaml", "path to configuration file")
	root := flag.String("content", "", "content root (overrides content.root)")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("loading config: %v", err)
	}
	if *root != "" {
		cfg.Content.Root = *root
	}

	logger, err := observability.NewLogger(cfg.Logging, "catalog-check")
	if err != nil {
		log.Fatalf("initializing logger: %v", err)
	}
	defer func() { _ = logger.Sync() }()

	os.Exit(run(context.Background(), cfg.Content, logger, start))
}

func run(ctx context.Context, cfg config.ContentConfig, logger *zap.Logger, start time.Time) int {
	cats, err := content.Load(ctx, cfg.Root, observability.Component(logger, "content"))
	if err != nil {
		if problems, ok := content.AsProblems(err); ok {
			for _, p := range problems {
				fmt.Fprintln(os.Stderr, p)
			}
			logger.Error("catalog has broken references", zap.Int("problems", len(problems)))
			return 1
		}
		logger.Error("loading catalog", zap.Error(err))
		return 1
	}

	gates := content.QuestGates(cats.NPCs)
	if cfg.ScriptDir != "" && len(gates) > 0 {
		qg, err := scripting.LoadQuestGates(cfg.ScriptDir, cfg.InstructionLimit, observability.Component(logger, "scripting"))
		if err != nil {
			logger.Error("loading quest gate scripts", zap.Error(err))
			return 1
		}
		defer qg.Close()
		// A fresh entity with no history must be refused by every gate.
		for _, gate := range gates {
			ok, err := qg.Satisfied(ctx, gate, "catalog-check")
			if err != nil {
				logger.Error("evaluating quest gate", zap.String("gate", gate), zap.Error(err))
				return 1
			}
			if ok {
				fmt.Fprintf(os.Stderr, "quest gate %q is open to an entity with no history\n", gate)
				return 1
			}
		}
	}

	logger.Info("catalog ok",
		zap.Int("skills", len(cats.Techniques.Skills())),
		zap.Int("techniques", len(cats.Techniques.Techniques())),
		zap.Int("quest_gates", len(gates)),
		zap.Duration("elapsed", time.Since(start)),
	)
	return 0
}
