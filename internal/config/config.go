// Package config loads settings from defaults, an optional olier.yaml,
// OLIER_* environment variables (a .env file included) and command-line flags,
// in increasing order of precedence.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/petasbytes/olier/internal/provider"
	"github.com/petasbytes/olier/internal/session"
	"github.com/petasbytes/olier/internal/windowing"
)

const (
	EnvPrefix  = "OLIER"
	ConfigName = "olier"
)

// DefaultSystemPrompt opens every conversation.
const DefaultSystemPrompt = "You are Olier, an AI boy. You are very loving and brings a quiet poetry and humour to all you say, making complex topics simple. You are an obedient servant of Sri Aurobindo and answer questions in detail with reference to their teachings."

// DefaultDisclaimer is shown in the page sidebar.
const DefaultDisclaimer = "Olier is an artificial intelligence infused with the wisdom and light of Sri Aurobindo and the Mother. He is not a search engine for quotes but a creative AI boy who helps you to discover new perspectives. Olier's knowledge is a work in progress, and you are encouraged to click 'Search' to learn more from the original words of the Masters based on your last query."

type Config struct {
	Provider  ProviderConfig  `mapstructure:"provider"`
	Chat      ChatConfig      `mapstructure:"chat"`
	Server    ServerConfig    `mapstructure:"server"`
	Session   SessionConfig   `mapstructure:"session"`
	UI        UIConfig        `mapstructure:"ui"`
	Log       LogConfig       `mapstructure:"log"`
	Telemetry TelemetryConfig `mapstructure:"telemetry"`
}

type ProviderConfig struct {
	Kind       string `mapstructure:"kind"`     // "openai" or "anthropic"
	BaseURL    string `mapstructure:"base_url"` // empty selects the SDK default
	APIKey     string `mapstructure:"api_key"`
	MaxRetries int    `mapstructure:"max_retries"`
}

type ChatConfig struct {
	SystemPrompt  string        `mapstructure:"system_prompt"`
	Window        int           `mapstructure:"window"` // non-system turns sent with each request
	MaxTokens     int64         `mapstructure:"max_tokens"`
	N             int64         `mapstructure:"n"`
	Temperature   float64       `mapstructure:"temperature"`
	StreamTimeout time.Duration `mapstructure:"stream_timeout"` // 0 disables
	TranscriptDir string        `mapstructure:"transcript_dir"` // where olier chat saves transcripts
}

type ServerConfig struct {
	Addr string `mapstructure:"addr"`
}

type SessionConfig struct {
	IdleTTL time.Duration `mapstructure:"idle_ttl"`
}

type UIConfig struct {
	Title       string `mapstructure:"title"`
	Disclaimer  string `mapstructure:"disclaimer"`
	FeedbackURL string `mapstructure:"feedback_url"`
	SearchSite  string `mapstructure:"search_site"`
}

type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"` // "text" or "json"
}

type TelemetryConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	Dir     string `mapstructure:"dir"`
}

// Params returns the sampling settings for completion requests.
func (c ChatConfig) Params() provider.Params {
	return provider.Params{MaxTokens: c.MaxTokens, N: c.N, Temperature: c.Temperature}
}

// Client converts to the client settings of package provider.
func (p ProviderConfig) Client() provider.Config {
	return provider.Config{Kind: p.Kind, BaseURL: p.BaseURL, APIKey: p.APIKey, MaxRetries: p.MaxRetries}
}

// flagKeys maps command-line flag names to configuration keys.
var flagKeys = map[string]string{
	"addr":           "server.addr",
	"provider":       "provider.kind",
	"base-url":       "provider.base_url",
	"window":         "chat.window",
	"stream-timeout": "chat.stream_timeout",
	"log-level":      "log.level",
	"log-format":     "log.format",
	"telemetry":      "telemetry.enabled",
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("provider.kind", provider.KindOpenAI)
	v.SetDefault("provider.base_url", provider.DefaultOpenAIBaseURL)
	v.SetDefault("provider.api_key", "")
	v.SetDefault("provider.max_retries", 0)

	d := provider.DefaultParams
	v.SetDefault("chat.system_prompt", DefaultSystemPrompt)
	v.SetDefault("chat.window", windowing.DefaultWindow)
	v.SetDefault("chat.max_tokens", d.MaxTokens)
	v.SetDefault("chat.n", d.N)
	v.SetDefault("chat.temperature", d.Temperature)
	v.SetDefault("chat.stream_timeout", "0s")
	v.SetDefault("chat.transcript_dir", "transcripts")

	v.SetDefault("server.addr", ":8501")
	v.SetDefault("session.idle_ttl", session.DefaultIdleTTL.String())

	v.SetDefault("ui.title", "Olier")
	v.SetDefault("ui.disclaimer", DefaultDisclaimer)
	v.SetDefault("ui.feedback_url", "https://forms.gle/P2eo6oe7vEijkpzG7")
	v.SetDefault("ui.search_site", "motherandsriaurobindo.in")

	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "text")

	v.SetDefault("telemetry.enabled", false)
	v.SetDefault("telemetry.dir", ".olier")
}

// LoadDotEnv loads variables from the given .env files (".env" when none)
// without overriding ones already set. Missing files are ignored.
func LoadDotEnv(paths ...string) error {
	if len(paths) == 0 {
		paths = []string{".env"}
	}
	for _, p := range paths {
		if err := godotenv.Load(p); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("load %s: %w", p, err)
		}
	}
	return nil
}

// Load resolves the configuration. path names a config file; when empty,
// olier.yaml is looked up in the working directory and skipped if absent.
// flags may be nil; only flags the user set override other sources.
func Load(path string, flags *pflag.FlagSet) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName(ConfigName)
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
	}
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if path != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("read config: %w", err)
		}
	}

	if flags != nil {
		for name, key := range flagKeys {
			if f := flags.Lookup(name); f != nil {
				if err := v.BindPFlag(key, f); err != nil {
					return nil, fmt.Errorf("bind flag %s: %w", name, err)
				}
			}
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate rejects settings no component can run with.
func (c *Config) Validate() error {
	var errs []error
	switch c.Provider.Kind {
	case provider.KindOpenAI, provider.KindAnthropic:
	default:
		errs = append(errs, fmt.Errorf("provider.kind: %w: %q", provider.ErrUnknownKind, c.Provider.Kind))
	}
	if c.Chat.Window <= 0 {
		errs = append(errs, fmt.Errorf("chat.window must be positive, got %d", c.Chat.Window))
	}
	if c.Chat.MaxTokens <= 0 {
		errs = append(errs, fmt.Errorf("chat.max_tokens must be positive, got %d", c.Chat.MaxTokens))
	}
	if c.Chat.N < 1 {
		errs = append(errs, fmt.Errorf("chat.n must be at least 1, got %d", c.Chat.N))
	}
	if c.Chat.Temperature < 0 || c.Chat.Temperature > 2 {
		errs = append(errs, fmt.Errorf("chat.temperature must be within [0, 2], got %g", c.Chat.Temperature))
	}
	if c.Chat.StreamTimeout < 0 {
		errs = append(errs, fmt.Errorf("chat.stream_timeout must not be negative"))
	}
	if strings.TrimSpace(c.Chat.SystemPrompt) == "" {
		errs = append(errs, errors.New("chat.system_prompt must not be empty"))
	}
	return errors.Join(errs...)
}
