package main

import (
	"context"
	"flag"
	"log"
	"time"

	"aijobsdash/common/database"
	"aijobsdash/common/database/schema/migrations"

	"go.uber.org/zap"
)

func main() {
	addr := flag.String("addr", "127.0.0.1:9000", "ClickHouse native address")
	db := flag.String("database", "aijobs", "ClickHouse database")
	user := flag.String("user", "default", "ClickHouse user")
	password := flag.String("password", "", "ClickHouse password")
	down := flag.Int("down", 0, "roll back this many applied migrations instead of migrating up")
	flag.Parse()

	logger, err := zap.NewDevelopment()
	if err != nil {
		log.Fatalf("Failed to create logger: %v", err)
	}
	defer logger.Sync()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()

	conn, err := database.New(ctx, database.Options{
		DSN:      *addr,
		Username: *user,
		Password: *password,
		Database: *db,
	}, logger)
	if err != nil {
		logger.Fatal("Failed to connect to ClickHouse", zap.Error(err))
	}
	defer conn.Close()

	if *down > 0 {
		if err := conn.Rollback(ctx, migrations.All, *down); err != nil {
			logger.Fatal("Failed to roll back migrations", zap.Error(err))
		}
		logger.Info("Rollback completed", zap.Int("steps", *down))
		return
	}

	if err := conn.Migrate(ctx, migrations.All); err != nil {
		logger.Fatal("Failed to apply migrations", zap.Error(err))
	}

	logger.Info("All migrations completed successfully")
}
