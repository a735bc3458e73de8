package config

import (
	"testing"
	"time"
)

func TestLoadConfigDefaults(t *testing.T) {
	t.Setenv("DATASET_PATH", "data/jobs.csv")
	t.Setenv("WAREHOUSE_DRIVER", "")

	cfg, err := LoadConfig()
	if err != nil {
		t.Fatalf("LoadConfig failed: %v", err)
	}
	if cfg.DatasetPath != "data/jobs.csv" || cfg.HTTPAddr == "" {
		t.Errorf("config = %+v", cfg)
	}
	if cfg.MaxPostingsLimit <= 0 {
		t.Errorf("max postings limit = %d", cfg.MaxPostingsLimit)
	}
}

func TestLoadConfigOverrides(t *testing.T) {
	t.Setenv("HTTP_ADDR", ":9999")
	t.Setenv("CACHE_TTL", "90s")
	t.Setenv("REDIS_DB", "3")
	t.Setenv("WAREHOUSE_DRIVER", "SQLite")
	t.Setenv("CLICKHOUSE_AUTO_MIGRATE", "false")
	t.Setenv("HTTP_READ_TIMEOUT", "not-a-duration")

	cfg, err := LoadConfig()
	if err != nil {
		t.Fatalf("LoadConfig failed: %v", err)
	}
	if cfg.HTTPAddr != ":9999" || cfg.CacheTTL != 90*time.Second || cfg.RedisDB != 3 {
		t.Errorf("overrides not applied: %+v", cfg)
	}
	if cfg.WarehouseDriver != WarehouseSQLite || cfg.ClickHouseAutoMigrate {
		t.Errorf("warehouse = %q, auto migrate = %v", cfg.WarehouseDriver, cfg.ClickHouseAutoMigrate)
	}
	if cfg.HTTPReadTimeout != 15*time.Second {
		t.Errorf("invalid duration should fall back to the default, got %v", cfg.HTTPReadTimeout)
	}
}

func TestValidate(t *testing.T) {
	valid := Config{DatasetPath: "jobs.csv", MaxPostingsLimit: 10}

	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr bool
	}{
		{"valid", func(*Config) {}, false},
		{"clickhouse", func(c *Config) { c.WarehouseDriver = WarehouseClickHouse }, false},
		{"empty dataset path", func(c *Config) { c.DatasetPath = "" }, true},
		{"unknown warehouse", func(c *Config) { c.WarehouseDriver = "postgres" }, true},
		{"zero limit", func(c *Config) { c.MaxPostingsLimit = 0 }, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := valid
			tt.mutate(&cfg)
			if err := cfg.Validate(); (err != nil) != tt.wantErr {
				t.Errorf("Validate() = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}
