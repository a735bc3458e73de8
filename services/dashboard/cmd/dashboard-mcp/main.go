package main

import (
	"fmt"
	"os"

	"aijobsdash/common/cache"
	"aijobsdash/common/cache/memory"
	"aijobsdash/services/dashboard/internal/config"
	"aijobsdash/services/dashboard/internal/dataset"
	"aijobsdash/services/dashboard/internal/loader"
	"aijobsdash/services/dashboard/internal/mcptools"
	"aijobsdash/services/dashboard/internal/messaging"
	"aijobsdash/services/dashboard/internal/warehouse"

	_ "github.com/joho/godotenv/autoload"
	"github.com/mark3labs/mcp-go/server"
	"go.uber.org/zap"
)

func main() {
	// zap's development logger writes to stderr, leaving stdout to the protocol.
	logger, err := zap.NewDevelopment()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to create logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	cfg, err := config.LoadConfig()
	if err != nil {
		logger.Fatal("invalid configuration", zap.Error(err))
	}

	opts := cache.DefaultOptions()
	opts.DefaultTTL = cfg.CacheTTL
	c := memory.New(opts)
	defer c.Close()

	store := dataset.NewStore(
		logger,
		loader.FileSource{Path: cfg.DatasetPath},
		loader.New(logger),
		c,
		messaging.NewPublisher(logger, nil),
		warehouse.Disabled(),
	)

	s := server.NewMCPServer("ai-jobs-dashboard", "1.0.0")
	mcptools.Register(s, store)

	logger.Info("serving MCP over stdio", zap.String("dataset", cfg.DatasetPath))
	if err := server.ServeStdio(s); err != nil {
		fmt.Fprintf(os.Stderr, "Server error: %v\n", err)
		os.Exit(1)
	}
}
