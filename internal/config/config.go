package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config is everything the server, agent and CLI need to run.
type Config struct {
	Server   ServerConfig   `mapstructure:"server"`
	Agent    AgentConfig    `mapstructure:"agent"`
	Workflow WorkflowConfig `mapstructure:"workflow"`
	Tools    ToolsConfig    `mapstructure:"tools"`
	Storage  StorageConfig  `mapstructure:"storage"`
}

type ServerConfig struct {
	Address       string `mapstructure:"address"`
	WebhookSecret string `mapstructure:"webhook_secret"`
}

type AgentConfig struct {
	Address string `mapstructure:"address"` // listen address of the agent
	URL     string `mapstructure:"url"`     // when set, the runner delegates jobs here
}

type WorkflowConfig struct {
	Path      string `mapstructure:"path"`       // workflow yaml
	RepoDir   string `mapstructure:"repo_dir"`   // checkout the jobs operate on
	ScriptDir string `mapstructure:"script_dir"` // scan directory, SCRIPT_DIR
}

type ToolsConfig struct {
	Shellcheck  string        `mapstructure:"shellcheck"`
	Shfmt       string        `mapstructure:"shfmt"`
	StepTimeout time.Duration `mapstructure:"step_timeout"`
}

type StorageConfig struct {
	LogsDir     string `mapstructure:"logs_dir"`
	JournalPath string `mapstructure:"journal_path"`
	KeysDir     string `mapstructure:"keys_dir"`
}

// Load reads configuration from an optional yaml file, SHELLCI_* environment
// variables and defaults, in that priority order.
func Load(configPath string) (*Config, error) {
	v := viper.New()
	v.SetConfigType("yaml")

	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		v.SetConfigName("shellci")
		v.AddConfigPath(".")
		if home, err := os.UserHomeDir(); err == nil {
			v.AddConfigPath(home + "/.shellci")
		}
	}

	v.SetDefault("server.address", ":8080")
	v.SetDefault("server.webhook_secret", "")
	v.SetDefault("agent.address", ":9090")
	v.SetDefault("agent.url", "")
	v.SetDefault("workflow.path", "workflow.yaml")
	v.SetDefault("workflow.repo_dir", ".")
	v.SetDefault("workflow.script_dir", "util")
	v.SetDefault("tools.shellcheck", "shellcheck")
	v.SetDefault("tools.shfmt", "shfmt")
	v.SetDefault("tools.step_timeout", 5*time.Minute)
	v.SetDefault("storage.logs_dir", "./logs")
	v.SetDefault("storage.journal_path", "./journal.jsonl")
	v.SetDefault("storage.keys_dir", "./keys")

	v.AutomaticEnv()
	v.SetEnvPrefix("SHELLCI")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	// SCRIPT_DIR is honored as a plain variable, it predates the prefix
	if dir := os.Getenv("SCRIPT_DIR"); dir != "" {
		v.Set("workflow.script_dir", dir)
	}

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("read config file: %w", err)
		}
		// no config file is fine, defaults apply
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}
	return &cfg, nil
}
