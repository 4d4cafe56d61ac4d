// In file: cmd/gateway/config.go
package main

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"
)

const (
	defaultToolsConfigPath = "./tools.yaml"
	defaultRunVersion      = "1.0"
)

// ToolConfig selects one remote flow to expose as a tool.
type ToolConfig struct {
	// ID is the Wordware app identifier.
	ID string `yaml:"id"`
}

// toolsFile is the structure of the tools configuration file.
type toolsFile struct {
	Tools []ToolConfig `yaml:"tools"`
}

// AppConfig holds all configuration for the gateway, loaded from the
// environment and the tools file.
type AppConfig struct {
	APIKey          string
	APIURL          string
	RedisAddr       string
	HTTPPort        string
	RunVersion      string
	StreamBudget    time.Duration
	ToolsConfigPath string
	Tools           []ToolConfig
}

// LoadConfig loads configuration from a .env file (local development only)
// and environment variables, then reads the tools file. A missing or
// malformed tools file is not fatal: the gateway proceeds with an empty tool
// list so the failure stays visible in logs instead of killing the process.
func LoadConfig(logger *zap.Logger) *AppConfig {
	if os.Getenv("GIN_MODE") != "release" {
		if err := godotenv.Load(); err != nil {
			logger.Warn("no .env file found for local development")
		}
	}

	cfg := &AppConfig{
		APIKey:          os.Getenv("WORDWARE_API_KEY"),
		APIURL:          os.Getenv("WORDWARE_API_URL"),
		RedisAddr:       os.Getenv("REDIS_ADDR"),
		HTTPPort:        os.Getenv("PORT"),
		RunVersion:      defaultRunVersion,
		ToolsConfigPath: defaultToolsConfigPath,
	}
	if v := os.Getenv("WORDWARE_RUN_VERSION"); v != "" {
		cfg.RunVersion = v
	}
	if path := os.Getenv("TOOLS_CONFIG"); path != "" {
		cfg.ToolsConfigPath = path
	}
	if budget := os.Getenv("WORDWARE_STREAM_BUDGET_SECONDS"); budget != "" {
		if seconds, err := strconv.Atoi(budget); err == nil && seconds > 0 {
			cfg.StreamBudget = time.Duration(seconds) * time.Second
		} else {
			logger.Warn("ignoring invalid WORDWARE_STREAM_BUDGET_SECONDS", zap.String("value", budget))
		}
	}

	// The API key is an opaque string validated only by the remote service's
	// response codes, so an empty key is a warning rather than an error.
	if cfg.APIKey == "" {
		logger.Warn("WORDWARE_API_KEY is not set; remote calls will be rejected upstream")
	}

	tools, err := loadToolsFile(cfg.ToolsConfigPath)
	if err != nil {
		logger.Error("failed to load tools configuration, proceeding with no tools",
			zap.String("path", cfg.ToolsConfigPath), zap.Error(err))
	} else {
		cfg.Tools = tools
		logger.Info("tools configuration loaded", zap.Int("tools", len(tools)))
	}

	return cfg
}

// loadToolsFile reads the YAML tools file listing the flows to register.
func loadToolsFile(path string) ([]ToolConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read tools file: %w", err)
	}
	var file toolsFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("failed to parse tools file: %w", err)
	}
	return file.Tools, nil
}
