// Package config loads the felix configuration once at process start.
// Values come from .felix/config.yaml, overridden by FELIX_* environment
// variables; a .env file next to the working directory is honored when
// present. The resulting struct is passed by reference into
// collaborators so no package performs ambient lookups.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config represents the felix configuration
type Config struct {
	Repo   RepoConfig   `mapstructure:"repo"`
	LLM    LLMConfig    `mapstructure:"llm"`
	GitHub GitHubConfig `mapstructure:"github"`
}

// RepoConfig contains working-copy settings
type RepoConfig struct {
	Path         string   `mapstructure:"path"`
	BaseBranch   string   `mapstructure:"base_branch"`
	BranchPrefix string   `mapstructure:"branch_prefix"`
	TestCommands []string `mapstructure:"test_commands"`
}

// LLMConfig contains model endpoint settings
type LLMConfig struct {
	APIKey  string `mapstructure:"api_key"`
	BaseURL string `mapstructure:"base_url"`
	Model   string `mapstructure:"model"`
}

// GitHubConfig contains pull-request settings; all empty means push
// without opening a PR.
type GitHubConfig struct {
	Token   string `mapstructure:"token"`
	Repo    string `mapstructure:"repo"`
	BaseURL string `mapstructure:"base_url"`
}

// Load reads the config for the working directory.
func Load(workDir string) (*Config, error) {
	// Best effort; missing .env is the normal case.
	godotenv.Load(filepath.Join(workDir, ".env"))

	v := viper.New()
	v.SetEnvPrefix("FELIX")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	setDefaults(v)

	configPath := filepath.Join(workDir, ".felix", "config.yaml")
	if _, err := os.Stat(configPath); err == nil {
		v.SetConfigFile(configPath)
		v.SetConfigType("yaml")
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	applyFallbacks(&cfg)
	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("repo.path", "")
	v.SetDefault("repo.base_branch", "master")
	v.SetDefault("repo.branch_prefix", "felix")
	v.SetDefault("repo.test_commands", []string{})
	v.SetDefault("llm.api_key", "")
	v.SetDefault("llm.base_url", "")
	v.SetDefault("llm.model", "gpt-4o")
	v.SetDefault("github.token", "")
	v.SetDefault("github.repo", "")
	v.SetDefault("github.base_url", "")
}

// applyFallbacks honors the conventional provider variables when the
// felix-specific ones are unset.
func applyFallbacks(cfg *Config) {
	if cfg.LLM.APIKey == "" {
		cfg.LLM.APIKey = os.Getenv("OPENAI_API_KEY")
	}
	if cfg.GitHub.Token == "" {
		cfg.GitHub.Token = os.Getenv("GITHUB_TOKEN")
	}
}
