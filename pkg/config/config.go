// Package config loads aboxlink configuration from defaults, an optional
// YAML file, environment variables and command-line flags, in increasing
// order of precedence.
package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/soundprediction/aboxlink"
	"github.com/soundprediction/aboxlink/pkg/abox"
	"github.com/soundprediction/aboxlink/pkg/embedder"
	"github.com/soundprediction/aboxlink/pkg/nlp"
	"github.com/soundprediction/aboxlink/pkg/vocab"
)

// EnvPrefix prefixes environment overrides, e.g. ABOXLINK_LINKING_THRESHOLD.
const EnvPrefix = "ABOXLINK"

// Config holds all configuration for the application
type Config struct {
	Log            LogConfig                `mapstructure:"log"`
	Server         ServerConfig             `mapstructure:"server"`
	Vocabulary     VocabularyConfig         `mapstructure:"vocabulary"`
	Embedding      embedder.Config          `mapstructure:"embedding"`
	Linking        LinkingConfig            `mapstructure:"linking"`
	NLP            NLPConfig                `mapstructure:"nlp"`
	CircuitBreaker nlp.CircuitBreakerConfig `mapstructure:"circuit_breaker"`
	Output         OutputConfig             `mapstructure:"output"`
	Database       DatabaseConfig           `mapstructure:"database"`
}

// LogConfig holds logging configuration
type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"` // color, text, json
}

// ServerConfig holds server configuration
type ServerConfig struct {
	Host string `mapstructure:"host"`
	Port int    `mapstructure:"port"`
	Mode string `mapstructure:"mode"` // gin mode: debug, release, test
}

// Addr returns host:port.
func (s ServerConfig) Addr() string {
	return fmt.Sprintf("%s:%d", s.Host, s.Port)
}

// VocabularyConfig locates the vocabulary document.
type VocabularyConfig struct {
	// Path is a file path or a builtin locator such as "builtin:aec".
	Path string `mapstructure:"path"`
	// Watch reloads a file vocabulary on change while serving.
	Watch    bool          `mapstructure:"watch"`
	Debounce time.Duration `mapstructure:"debounce"`
}

// LinkingConfig mirrors aboxlink.Config.
type LinkingConfig struct {
	Threshold            float64  `mapstructure:"threshold"`
	TopK                 int      `mapstructure:"top_k"`
	HintSearchK          int      `mapstructure:"hint_search_k"`
	Workers              int      `mapstructure:"workers"`
	ExactMatch           bool     `mapstructure:"exact_match"`
	DropUnlinkedEntities bool     `mapstructure:"drop_unlinked_entities"`
	FocusSubject         string   `mapstructure:"focus_subject"`
	FocusMentions        []string `mapstructure:"focus_mentions"`
}

// NLPConfig configures the chat model used for extraction.
type NLPConfig struct {
	Provider       string  `mapstructure:"provider"` // openai
	Model          string  `mapstructure:"model"`
	APIKey         string  `mapstructure:"api_key"`
	BaseURL        string  `mapstructure:"base_url"`
	Temperature    float32 `mapstructure:"temperature"`
	MaxTokens      int     `mapstructure:"max_tokens"`
	TimeoutSeconds int     `mapstructure:"timeout_seconds"`
	MaxRetries     int     `mapstructure:"max_retries"`
}

// OutputConfig controls serialization and reporting.
type OutputConfig struct {
	Path           string `mapstructure:"path"`
	Format         string `mapstructure:"format"` // turtle, ntriples
	SummaryPath    string `mapstructure:"summary_path"`
	MaxSkipSamples int    `mapstructure:"max_skip_samples"`
}

// DatabaseConfig holds database configuration
type DatabaseConfig struct {
	Driver   string `mapstructure:"driver"` // neo4j, or empty for none
	URI      string `mapstructure:"uri"`
	Username string `mapstructure:"username"`
	Password string `mapstructure:"password"`
	Database string `mapstructure:"database"`
}

// Enabled reports whether a graph database is configured.
func (d DatabaseConfig) Enabled() bool {
	return d.Driver != "" && d.URI != ""
}

// New returns a viper instance with defaults and environment bindings, and
// reads configFile when given. Without one, .aboxlink.yaml is looked up in
// the working directory and then the home directory; its absence is not an
// error.
func New(configFile string) (*viper.Viper, error) {
	v := viper.New()
	SetDefaults(v)

	bindEnv(v)

	if configFile != "" {
		v.SetConfigFile(configFile)
	} else {
		v.SetConfigName(".aboxlink")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		if home, err := os.UserHomeDir(); err == nil {
			v.AddConfigPath(home)
		}
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if configFile != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("read config: %w", err)
		}
	}
	return v, nil
}

// bindEnv binds ABOXLINK_<SECTION>_<KEY> for every known key. Keys are bound
// one by one rather than through AutomaticEnv, which would read
// ABOXLINK_VOCABULARY as a value for the whole vocabulary section and
// shadow every key under it.
func bindEnv(v *viper.Viper) {
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	for _, key := range v.AllKeys() {
		if key == "vocabulary.path" {
			// ABOXLINK_VOCABULARY is the short alias.
			_ = v.BindEnv(key, EnvPrefix+"_VOCABULARY_PATH", EnvPrefix+"_VOCABULARY")
			continue
		}
		_ = v.BindEnv(key)
	}
}

// SetDefaults sets default configuration values. Every key the Config
// struct decodes has a default here, so that bindEnv sees it.
func SetDefaults(v *viper.Viper) {
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "color")

	v.SetDefault("server.host", "localhost")
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.mode", "release")

	v.SetDefault("vocabulary.path", "builtin:aec")
	v.SetDefault("vocabulary.watch", false)
	v.SetDefault("vocabulary.debounce", vocab.DefaultDebounce)

	v.SetDefault("embedding.provider", embedder.ProviderEmbedEverything)
	v.SetDefault("embedding.model", embedder.DefaultLocalModel)
	v.SetDefault("embedding.api_key", "")
	v.SetDefault("embedding.base_url", "")
	v.SetDefault("embedding.dimensions", 0)
	v.SetDefault("embedding.batch_size", 64)
	v.SetDefault("embedding.cache_size", 4096)

	v.SetDefault("linking.threshold", aboxlink.DefaultThreshold)
	v.SetDefault("linking.top_k", aboxlink.DefaultTopK)
	v.SetDefault("linking.hint_search_k", aboxlink.DefaultHintSearchK)
	v.SetDefault("linking.workers", 0)
	v.SetDefault("linking.exact_match", true)
	v.SetDefault("linking.drop_unlinked_entities", false)
	v.SetDefault("linking.focus_subject", "")
	v.SetDefault("linking.focus_mentions", aboxlink.DefaultFocusMentions)

	v.SetDefault("nlp.provider", "openai")
	v.SetDefault("nlp.model", nlp.DefaultChatModel)
	v.SetDefault("nlp.api_key", "")
	v.SetDefault("nlp.base_url", "")
	v.SetDefault("nlp.temperature", 0.2)
	v.SetDefault("nlp.max_tokens", 0)
	v.SetDefault("nlp.timeout_seconds", 60)
	v.SetDefault("nlp.max_retries", 3)

	cb := nlp.DefaultCircuitBreakerConfig()
	v.SetDefault("circuit_breaker.enabled", cb.Enabled)
	v.SetDefault("circuit_breaker.max_requests", cb.MaxRequests)
	v.SetDefault("circuit_breaker.interval", cb.Interval)
	v.SetDefault("circuit_breaker.timeout", cb.Timeout)
	v.SetDefault("circuit_breaker.ready_to_trip_ratio", cb.ReadyToTripRatio)
	v.SetDefault("circuit_breaker.min_requests", cb.MinRequests)

	v.SetDefault("output.path", "-")
	v.SetDefault("output.format", string(abox.FormatTurtle))
	v.SetDefault("output.summary_path", "")
	v.SetDefault("output.max_skip_samples", abox.DefaultMaxSamples)

	v.SetDefault("database.driver", "")
	v.SetDefault("database.uri", "")
	v.SetDefault("database.username", "")
	v.SetDefault("database.password", "")
	v.SetDefault("database.database", "neo4j")
}

// Load decodes v and applies the well-known environment variables.
func Load(v *viper.Viper) (*Config, error) {
	config := &Config{}
	if err := v.Unmarshal(config); err != nil {
		return nil, fmt.Errorf("unable to decode config: %w", err)
	}
	overrideWithEnv(config)
	if err := config.Validate(); err != nil {
		return nil, err
	}
	return config, nil
}

// Validate checks value ranges.
func (c *Config) Validate() error {
	var errs []error
	if c.Linking.Threshold < 0 || c.Linking.Threshold > 1 {
		errs = append(errs, fmt.Errorf("linking.threshold must be in [0, 1], got %v", c.Linking.Threshold))
	}
	if c.Linking.TopK < 1 {
		errs = append(errs, fmt.Errorf("linking.top_k must be at least 1, got %d", c.Linking.TopK))
	}
	if _, err := abox.ParseFormat(c.Output.Format); err != nil {
		errs = append(errs, err)
	}
	if c.Vocabulary.Watch && strings.HasPrefix(c.Vocabulary.Path, vocab.BuiltinPrefix) {
		errs = append(errs, fmt.Errorf("vocabulary.watch requires a file vocabulary, got %q", c.Vocabulary.Path))
	}
	if c.Database.Driver != "" && c.Database.Driver != "neo4j" {
		errs = append(errs, fmt.Errorf("unsupported database driver %q", c.Database.Driver))
	}
	return errors.Join(errs...)
}

// overrideWithEnv applies the unprefixed variables shared with other tools.
func overrideWithEnv(config *Config) {
	if apiKey := os.Getenv("OPENAI_API_KEY"); apiKey != "" {
		if config.NLP.APIKey == "" {
			config.NLP.APIKey = apiKey
		}
		if config.Embedding.APIKey == "" {
			config.Embedding.APIKey = apiKey
		}
	}

	if uri := os.Getenv("NEO4J_URI"); uri != "" {
		config.Database.URI = uri
		if config.Database.Driver == "" {
			config.Database.Driver = "neo4j"
		}
	}
	if user := os.Getenv("NEO4J_USER"); user != "" {
		config.Database.Username = user
	}
	if pass := os.Getenv("NEO4J_PASSWORD"); pass != "" {
		config.Database.Password = pass
	}
}

// PipelineConfig converts the linking and output sections.
func (c *Config) PipelineConfig() *aboxlink.Config {
	pc := aboxlink.NewDefaultConfig()
	pc.Threshold = c.Linking.Threshold
	pc.TopK = c.Linking.TopK
	pc.HintSearchK = c.Linking.HintSearchK
	pc.Workers = c.Linking.Workers
	pc.ExactMatch = c.Linking.ExactMatch
	pc.DropUnlinkedEntities = c.Linking.DropUnlinkedEntities
	pc.FocusSubject = c.Linking.FocusSubject
	if len(c.Linking.FocusMentions) > 0 {
		pc.FocusMentions = c.Linking.FocusMentions
	}
	if c.Output.MaxSkipSamples > 0 {
		pc.MaxSkipSamples = c.Output.MaxSkipSamples
	}
	return pc
}

// ChatConfig converts the nlp section.
func (c *Config) ChatConfig() nlp.Config {
	cfg := nlp.Config{Model: c.NLP.Model, BaseURL: c.NLP.BaseURL}
	temp := c.NLP.Temperature
	cfg.Temperature = &temp
	if c.NLP.MaxTokens > 0 {
		maxTokens := c.NLP.MaxTokens
		cfg.MaxTokens = &maxTokens
	}
	return cfg
}

// ChatTimeout returns the extraction timeout.
func (c *Config) ChatTimeout() time.Duration {
	return time.Duration(c.NLP.TimeoutSeconds) * time.Second
}

// RetryConfig returns retry settings for the chat client.
func (c *Config) RetryConfig() *nlp.RetryConfig {
	rc := nlp.DefaultRetryConfig()
	rc.MaxRetries = c.NLP.MaxRetries
	return rc
}
