package database

import (
	"context"
	"fmt"
	"strings"
	"time"

	"aijobsdash/common/database/schema"

	"github.com/ClickHouse/clickhouse-go/v2"
	"go.uber.org/zap"
)

type Options struct {
	DSN             string
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
	Username        string
	Password        string
	Database        string
	DialTimeout     time.Duration
}

type Database struct {
	conn   clickhouse.Conn
	logger *zap.Logger
}

func New(ctx context.Context, opts Options, logger *zap.Logger) (*Database, error) {
	hostAndParams := strings.Split(opts.DSN, "?")
	hosts := strings.Split(hostAndParams[0], ",")

	dialTimeout := opts.DialTimeout
	if dialTimeout == 0 {
		dialTimeout = 30 * time.Second
	}

	conn, err := clickhouse.Open(&clickhouse.Options{
		Protocol: clickhouse.Native,
		Addr:     hosts,
		Settings: clickhouse.Settings{
			"max_execution_time": 60,
		},
		Auth: clickhouse.Auth{
			Database: opts.Database,
			Username: opts.Username,
			Password: opts.Password,
		},
		DialTimeout:     dialTimeout,
		MaxOpenConns:    opts.MaxOpenConns,
		MaxIdleConns:    opts.MaxIdleConns,
		ConnMaxLifetime: opts.ConnMaxLifetime,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create clickhouse connection: %w", err)
	}

	if err := conn.Ping(ctx); err != nil {
		return nil, fmt.Errorf("failed to ping clickhouse: %w", err)
	}

	logger.Info("connected to clickhouse",
		zap.Strings("hosts", hosts),
		zap.String("database", opts.Database))

	return &Database{
		conn:   conn,
		logger: logger,
	}, nil
}

// Migrate applies every migration not yet recorded.
func (db *Database) Migrate(ctx context.Context, migrations []schema.Migration) error {
	return schema.NewMigrator(db.conn, db.logger).Run(ctx, migrations)
}

// Rollback reverts the newest steps applied migrations.
func (db *Database) Rollback(ctx context.Context, migrations []schema.Migration, steps int) error {
	return schema.NewMigrator(db.conn, db.logger).Rollback(ctx, migrations, steps)
}

func (db *Database) Close() error {
	return db.conn.Close()
}

func (db *Database) Conn() clickhouse.Conn {
	return db.conn
}
