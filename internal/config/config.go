package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/iksnae/llmcan/internal"
	"github.com/spf13/viper"
)

// EnvPrefix prefixes every environment override, e.g. LLMCAN_LLM_MODEL.
const EnvPrefix = "LLMCAN"

// Config is the full agent configuration
type Config struct {
	DataDir    string           `mapstructure:"data_dir"`
	EnvFile    string           `mapstructure:"env_file"`
	LLM        LLMConfig        `mapstructure:"llm"`
	Search     SearchConfig     `mapstructure:"search"`
	Tor        TorConfig        `mapstructure:"tor"`
	History    HistoryConfig    `mapstructure:"history"`
	Preprocess PreprocessConfig `mapstructure:"preprocess"`
	Report     ReportConfig     `mapstructure:"report"`
	Log        LogConfig        `mapstructure:"log"`
}

type LLMConfig struct {
	Backend string        `mapstructure:"backend"` // "ollama" or "openai"
	Host    string        `mapstructure:"host"`
	Model   string        `mapstructure:"model"`
	Timeout time.Duration `mapstructure:"timeout"`
	APIKey  string        `mapstructure:"api_key"`
}

type SearchConfig struct {
	Command     string        `mapstructure:"command"`
	Results     int           `mapstructure:"results"`
	MaxRetries  int           `mapstructure:"max_retries"`
	Backoff     time.Duration `mapstructure:"backoff"`
	Parallelism int           `mapstructure:"parallelism"`
	DumpDir     string        `mapstructure:"dump_dir"`
}

type TorConfig struct {
	Enabled       bool          `mapstructure:"enabled"`
	Command       string        `mapstructure:"command"`
	Unit          string        `mapstructure:"unit"`
	UseSudo       bool          `mapstructure:"use_sudo"`
	SocksAddr     string        `mapstructure:"socks_addr"`
	IPEchoURL     string        `mapstructure:"ip_echo_url"`
	ActiveTimeout time.Duration `mapstructure:"active_timeout"`
	VerifyIP      bool          `mapstructure:"verify_ip"`
}

type HistoryConfig struct {
	Path            string `mapstructure:"path"`
	MaxLength       int    `mapstructure:"max_length"`
	PersistEachTurn bool   `mapstructure:"persist_each_turn"`
	ContextTurns    int    `mapstructure:"context_turns"`
}

type PreprocessConfig struct {
	MaxQueries int `mapstructure:"max_queries"`
}

type ReportConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	Path    string `mapstructure:"path"`
}

type LogConfig struct {
	Level string `mapstructure:"level"`
	File  string `mapstructure:"file"`
}

// defaults are registered with viper so that env overrides of nested keys
// are picked up by Unmarshal.
var defaults = map[string]any{
	"data_dir":                  "data",
	"env_file":                  ".env",
	"llm.backend":               "ollama",
	"llm.host":                  "http://127.0.0.1:11434",
	"llm.model":                 "qwen2:7b",
	"llm.timeout":               60 * time.Second,
	"llm.api_key":               "ollama",
	"search.command":            "ddgr",
	"search.results":            0,
	"search.max_retries":        3,
	"search.backoff":            2 * time.Second,
	"search.parallelism":        1,
	"search.dump_dir":           "",
	"tor.enabled":               false,
	"tor.command":               "torsocks",
	"tor.unit":                  "tor",
	"tor.use_sudo":              false,
	"tor.socks_addr":            "127.0.0.1:9050",
	"tor.ip_echo_url":           "https://api.ipify.org?format=json",
	"tor.active_timeout":        30 * time.Second,
	"tor.verify_ip":             true,
	"history.path":              "cognitive_agent_history.json",
	"history.max_length":        100,
	"history.persist_each_turn": true,
	"history.context_turns":     5,
	"preprocess.max_queries":    4,
	"report.enabled":            true,
	"report.path":               "cognitive_agent_reports.txt",
	"log.level":                 "INFO",
	"log.file":                  "",
}

// Default returns the built-in configuration
func Default() *Config {
	cfg, err := load(newViper(), false)
	if err != nil {
		// defaults always validate
		panic(err)
	}
	return cfg
}

func newViper() *viper.Viper {
	v := viper.New()
	for k, val := range defaults {
		v.SetDefault(k, val)
	}
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	return v
}

// Load reads llmcan.yaml from path (a file) or, when path is empty, from the
// working directory and $HOME/.config/llmcan. A missing default file is not
// an error; a missing explicit file is.
func Load(path string) (*Config, error) {
	v := newViper()
	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("llmcan")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		if home, err := os.UserHomeDir(); err == nil {
			v.AddConfigPath(filepath.Join(home, ".config", "llmcan"))
		}
	}
	return load(v, true)
}

func load(v *viper.Viper, readFile bool) (*Config, error) {
	if readFile {
		if err := v.ReadInConfig(); err != nil {
			var notFound viper.ConfigFileNotFoundError
			if !errors.As(err, &notFound) {
				return nil, &internal.ConfigError{Key: "file", Err: err}
			}
			internal.LogDebug("config file not found, relying on defaults and %s_* env vars", EnvPrefix)
		} else {
			internal.LogDebug("using config file %s", v.ConfigFileUsed())
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, &internal.ConfigError{Key: "unmarshal", Err: err}
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks value ranges
func (c *Config) Validate() error {
	switch c.LLM.Backend {
	case "ollama", "openai":
	default:
		return &internal.ConfigError{Key: "llm.backend", Err: fmt.Errorf("unsupported backend %q (supported: ollama, openai)", c.LLM.Backend)}
	}
	if strings.TrimSpace(c.LLM.Host) == "" {
		return &internal.ConfigError{Key: "llm.host", Err: errors.New("must not be empty")}
	}
	if c.LLM.Timeout <= 0 {
		return &internal.ConfigError{Key: "llm.timeout", Err: errors.New("must be positive")}
	}
	if c.Search.MaxRetries < 1 {
		return &internal.ConfigError{Key: "search.max_retries", Err: fmt.Errorf("must be >= 1, got %d", c.Search.MaxRetries)}
	}
	if c.Search.Backoff < 0 {
		return &internal.ConfigError{Key: "search.backoff", Err: errors.New("must not be negative")}
	}
	if c.Search.Parallelism < 1 {
		return &internal.ConfigError{Key: "search.parallelism", Err: fmt.Errorf("must be >= 1, got %d", c.Search.Parallelism)}
	}
	if c.Search.Results < 0 || c.Search.Results > 25 {
		return &internal.ConfigError{Key: "search.results", Err: fmt.Errorf("must be within 0..25, got %d", c.Search.Results)}
	}
	if c.History.MaxLength < 1 {
		return &internal.ConfigError{Key: "history.max_length", Err: fmt.Errorf("must be >= 1, got %d", c.History.MaxLength)}
	}
	if c.Preprocess.MaxQueries < 1 {
		return &internal.ConfigError{Key: "preprocess.max_queries", Err: fmt.Errorf("must be >= 1, got %d", c.Preprocess.MaxQueries)}
	}
	if _, err := internal.ParseLogLevel(c.Log.Level); err != nil {
		return &internal.ConfigError{Key: "log.level", Err: err}
	}
	return nil
}

// LogLevel returns the parsed log level
func (c *Config) LogLevel() internal.LogLevel {
	level, _ := internal.ParseLogLevel(c.Log.Level)
	return level
}

// Paths resolves the data files relative to DataDir
func (c *Config) Paths() (internal.DataPaths, error) {
	return internal.ResolveDataPaths(c.DataDir, c.History.Path, c.Report.Path, c.EnvFile)
}
