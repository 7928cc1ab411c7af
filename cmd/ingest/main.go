// Package main 离线构建向量索引的命令行工具
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"time"

	"poetry-chef-api/internal/config"
	"poetry-chef-api/internal/wire"
	"poetry-chef-api/pkg/logger"

	"github.com/joho/godotenv"
)

func main() {
	force := flag.Bool("force", false, "重建索引：先清空已有集合再重新写入")
	timeout := flag.Duration("timeout", 30*time.Minute, "构建超时时间")
	flag.Parse()

	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		fmt.Printf("Failed to load config: %v\n", err)
		os.Exit(1)
	}

	logger.Init(
		cfg.Observability.Logging.Level,
		cfg.Observability.Logging.Format,
	)

	ctx, cancel := context.WithTimeout(context.Background(), *timeout)
	defer cancel()

	log := logger.FromContext(ctx)
	log.Info("starting ingest",
		"mode", cfg.RAG.Mode,
		"data_dir", cfg.Corpus.DataDir,
		"force", *force,
	)

	app, cleanup, err := wire.InitializeIngest(ctx, cfg)
	if err != nil {
		logger.Fatal(ctx, "failed to initialize ingest", err)
	}
	defer cleanup()

	start := time.Now()
	if err := app.Asker.Ingest(ctx, *force); err != nil {
		logger.Fatal(ctx, "ingest failed", err)
	}

	log.Info("ingest finished", "elapsed", time.Since(start).String())
}
