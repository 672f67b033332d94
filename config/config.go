package config

import (
	"fmt"
	"os"
)

type SystemConfig struct {
	DataDirectory string `toml:"data_directory"`
}

type APIConfig struct {
	Endpoint string `toml:"endpoint"`
}

type UserConfig struct {
	API                 APIConfig `toml:"api"`
	ListenAddr          string    `toml:"listen_addr"`
	DefaultSystemPrompt string    `toml:"default_system_prompt,omitempty"`
}

type Config struct {
	DataDirectory       string
	Endpoint            string
	ListenAddr          string
	DefaultSystemPrompt string
}

func (c *Config) DataDir() string {
	return ExpandPath(c.DataDirectory)
}

func (c *Config) applyEnvOverrides() {
	if endpoint := os.Getenv("HEJCHAT_ENDPOINT"); endpoint != "" {
		c.Endpoint = endpoint
	}
	if addr := os.Getenv("HEJCHAT_LISTEN_ADDR"); addr != "" {
		c.ListenAddr = addr
	}
	if dataDir := os.Getenv("HEJCHAT_DATA_DIR"); dataDir != "" {
		c.DataDirectory = dataDir
	}
}

func CheckDebug() bool {
	debug := os.Getenv("HEJCHAT_DEBUG")
	return debug == "true" || debug == "1"
}

func Load() (*Config, error) {
	defaults := DefaultUserConfig()
	cfg := &Config{
		DataDirectory:       DefaultSystemConfig().DataDirectory,
		Endpoint:            defaults.API.Endpoint,
		ListenAddr:          defaults.ListenAddr,
		DefaultSystemPrompt: DefaultSystemPromptText,
	}

	systemCfg, err := LoadSystemConfig()
	if err != nil {
		return nil, fmt.Errorf("failed to load system config: %w", err)
	}
	if systemCfg.DataDirectory != "" {
		cfg.DataDirectory = systemCfg.DataDirectory
	}

	cfg.applyEnvOverrides()

	dataDir := cfg.DataDir()
	if err := os.MkdirAll(dataDir, 0700); err != nil {
		return nil, fmt.Errorf("failed to create data directory: %w", err)
	}

	// Ensure data directory has correct permissions (fix if needed)
	if err := EnsureDataDirPermissions(dataDir); err != nil {
		return nil, fmt.Errorf("failed to set data directory permissions: %w", err)
	}

	userCfg, err := LoadUserConfig(dataDir)
	if err != nil {
		return nil, fmt.Errorf("failed to load user config: %w", err)
	}
	if userCfg.API.Endpoint != "" {
		cfg.Endpoint = userCfg.API.Endpoint
	}
	if userCfg.ListenAddr != "" {
		cfg.ListenAddr = userCfg.ListenAddr
	}
	if userCfg.DefaultSystemPrompt != "" {
		cfg.DefaultSystemPrompt = userCfg.DefaultSystemPrompt
	}

	cfg.applyEnvOverrides()

	return cfg, nil
}
