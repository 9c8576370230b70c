package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"syscall"

	"github.com/councildigest/core/internal/config"
	"github.com/councildigest/core/internal/database"
	"github.com/councildigest/core/internal/modules/pipeline"
	"github.com/councildigest/core/internal/modules/summary"
	"github.com/councildigest/core/internal/pkg/logger"
	pkgredis "github.com/councildigest/core/internal/pkg/redis"
	"go.uber.org/zap"
)

func main() {
	configPath := flag.String("config", config.DefaultConfigPath, "Path to YAML config file")
	styleFlag := flag.String("style", string(summary.StyleConcise), "Summary style to generate")
	resetStructured := flag.Bool("reset-structured", false, "Invalidate stored summaries for structured legislative actions before running")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		panic(err)
	}

	log, err := logger.New(cfg.IsDev())
	if err != nil {
		panic(err)
	}
	defer log.Sync()

	db, err := database.Connect(cfg, true)
	if err != nil {
		log.Fatal("database", zap.Error(err))
	}
	rc, err := pkgredis.Connect(cfg.RedisURL)
	if err != nil {
		log.Fatal("redis", zap.Error(err))
	}
	gen, err := summary.NewGenerator(cfg.AI)
	if err != nil {
		log.Fatal("generator", zap.Error(err))
	}

	store := summary.NewGormStore(db)
	svc := summary.NewService(rc, store, gen, cfg.Summary, log)
	loader := summary.NewLoader(db, store)
	runner := pipeline.NewRunner(db, svc, loader, log)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	style := summary.Style(*styleFlag)

	if *resetStructured {
		if _, err := runner.ResetStructured(ctx, style); err != nil {
			log.Fatal("reset failed", zap.Error(err))
		}
	}

	stats, err := runner.Run(ctx, style)
	if err != nil {
		log.Error("batch run aborted", zap.Error(err))
		os.Exit(1)
	}

	log.Info("done",
		zap.Int("documents", stats.Documents.Processed),
		zap.Int("legislations", stats.Legislations.Processed),
		zap.Int("meetings", stats.Meetings.Processed))
}
