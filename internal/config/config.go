package config

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/xxxsen/common/logger"
)

type Config struct {
	Port              int              `json:"port"`
	JWTSecret         string           `json:"jwt_secret"`
	CORSAllowlist     []string         `json:"cors_allowlist"`
	RateLimitWindowMS int              `json:"rate_limit_window_ms"`
	LogConfig         logger.LogConfig `json:"log_config"`
	Database          DatabaseConfig   `json:"database"`
	AI                AIConfig         `json:"ai"`
	Engine            EngineConfig     `json:"engine"`
	Credit            CreditConfig     `json:"credit"`
	FileStore         FileStoreConfig  `json:"file_store"`
}

type DatabaseConfig struct {
	Host     string `json:"host"`
	Port     int    `json:"port"`
	User     string `json:"user"`
	Password string `json:"password"`
	DBName   string `json:"db_name"`
	SSLMode  string `json:"ssl_mode"`
}

type AIConfig struct {
	Provider string      `json:"provider"`
	Model    string      `json:"model"`
	Timeout  int         `json:"timeout"`
	Data     interface{} `json:"data"`
}

type EngineConfig struct {
	CounterStore    string `json:"counter_store"`
	CounterName     string `json:"counter_name"`
	MaxConcurrent   int64  `json:"max_concurrent"`
	RetryDelayMS    int    `json:"retry_delay_ms"`
	TargetChunkSize int    `json:"target_chunk_size"`
	CheckpointEvery int    `json:"checkpoint_every"`
	DelayMinMS      int    `json:"delay_min_ms"`
	DelayMaxMS      int    `json:"delay_max_ms"`
	MinInputChars   int    `json:"min_input_chars"`
}

type CreditConfig struct {
	MonthlyQuota int64  `json:"monthly_quota"`
	GrantCron    string `json:"grant_cron"`
	SweepCron    string `json:"sweep_cron"`
}

type FileStoreConfig struct {
	Type string      `json:"type"`
	Data interface{} `json:"data"`
}

func Load(path string) (*Config, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open config: %w", err)
	}
	defer file.Close()

	var cfg Config
	if err := json.NewDecoder(file).Decode(&cfg); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}
	if cfg.Port == 0 {
		return nil, fmt.Errorf("port is required")
	}
	if cfg.JWTSecret == "" {
		return nil, fmt.Errorf("jwt_secret is required")
	}
	if cfg.Database.Host == "" || cfg.Database.User == "" || cfg.Database.DBName == "" {
		return nil, fmt.Errorf("database host/user/db_name are required")
	}
	if cfg.Database.Port == 0 {
		cfg.Database.Port = 5432
	}
	if cfg.Database.SSLMode == "" {
		cfg.Database.SSLMode = "disable"
	}
	if cfg.LogConfig.Level == "" {
		cfg.LogConfig.Level = "info"
	}
	if cfg.AI.Provider == "" {
		return nil, fmt.Errorf("ai.provider is required")
	}
	if cfg.AI.Model == "" {
		return nil, fmt.Errorf("ai.model is required")
	}
	applyEngineDefaults(&cfg.Engine)
	if cfg.Credit.MonthlyQuota == 0 {
		cfg.Credit.MonthlyQuota = 30
	}
	if cfg.Credit.GrantCron == "" {
		cfg.Credit.GrantCron = "0 0 1 * *"
	}
	if cfg.Credit.SweepCron == "" {
		cfg.Credit.SweepCron = "*/5 * * * *"
	}
	if cfg.FileStore.Type == "" {
		cfg.FileStore.Type = "local"
	}
	if cfg.RateLimitWindowMS <= 0 {
		cfg.RateLimitWindowMS = 3000
	}
	return &cfg, nil
}

func applyEngineDefaults(cfg *EngineConfig) {
	if cfg.CounterStore == "" {
		cfg.CounterStore = "postgres"
	}
	if cfg.CounterName == "" {
		cfg.CounterName = "ai_inflight"
	}
	if cfg.MaxConcurrent <= 0 {
		cfg.MaxConcurrent = 4
	}
	if cfg.RetryDelayMS <= 0 {
		cfg.RetryDelayMS = 500
	}
	if cfg.TargetChunkSize <= 0 {
		cfg.TargetChunkSize = 90000
	}
	if cfg.CheckpointEvery <= 0 {
		cfg.CheckpointEvery = 6
	}
	if cfg.DelayMinMS <= 0 {
		cfg.DelayMinMS = 400
	}
	if cfg.DelayMaxMS < cfg.DelayMinMS {
		cfg.DelayMaxMS = cfg.DelayMinMS + 800
	}
	if cfg.MinInputChars <= 0 {
		cfg.MinInputChars = 80
	}
}
