package config

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/xxxsen/common/logger"
)

type Config struct {
	Port             int              `json:"port"`
	LogConfig        logger.LogConfig `json:"log_config"`
	CORSAllowlist    []string         `json:"cors_allowlist"`
	RateLimitSeconds int              `json:"rate_limit_seconds"`
	MaxUploadBytes   int64            `json:"max_upload_bytes"`
	DocStore         StoreConfig      `json:"doc_store"`
	FileStore        StoreConfig      `json:"file_store"`
	AI               AIConfig         `json:"ai"`
	Jobs             JobsConfig       `json:"jobs"`
}

// StoreConfig selects a registered backend by type; Data carries the
// backend specific options and is decoded by the backend factory.
type StoreConfig struct {
	Type string      `json:"type"`
	Data interface{} `json:"data"`
}

type AIConfig struct {
	Providers      []ProviderConfig `json:"providers"`
	TimeoutSeconds int              `json:"timeout_seconds"`
	MaxPromptChars int              `json:"max_prompt_chars"`
}

type ProviderConfig struct {
	Name     string      `json:"name"`
	Provider string      `json:"provider"`
	Model    string      `json:"model"`
	Data     interface{} `json:"data"`
}

type JobsConfig struct {
	UploadCleanupCron string `json:"upload_cleanup_cron"`
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
	if cfg.LogConfig.Level == "" {
		cfg.LogConfig.Level = "info"
	}
	if cfg.MaxUploadBytes <= 0 {
		cfg.MaxUploadBytes = 10 << 20
	}
	if cfg.DocStore.Type == "" {
		cfg.DocStore.Type = "memory"
	}
	// FileStore.Type stays empty when unset: raw uploads are then not retained.
	for i, p := range cfg.AI.Providers {
		if p.Provider == "" {
			return nil, fmt.Errorf("ai.providers[%d].provider is required", i)
		}
		if p.Model == "" {
			return nil, fmt.Errorf("ai.providers[%d].model is required", i)
		}
		if p.Name == "" {
			cfg.AI.Providers[i].Name = p.Provider
		}
	}
	if cfg.AI.TimeoutSeconds <= 0 {
		cfg.AI.TimeoutSeconds = 30
	}
	if cfg.AI.MaxPromptChars <= 0 {
		cfg.AI.MaxPromptChars = 24000
	}
	return &cfg, nil
}
