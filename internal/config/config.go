package config

import (
	"fmt"
	"strings"

	"github.com/rotisserie/eris"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/sells-group/lead-cli/internal/cost"
)

// Config holds the full application configuration.
type Config struct {
	Store      StoreConfig      `yaml:"store" mapstructure:"store"`
	Anthropic  AnthropicConfig  `yaml:"anthropic" mapstructure:"anthropic"`
	Gemini     GeminiConfig     `yaml:"gemini" mapstructure:"gemini"`
	AI         AIConfig         `yaml:"ai" mapstructure:"ai"`
	Jina       JinaConfig       `yaml:"jina" mapstructure:"jina"`
	Firecrawl  FirecrawlConfig  `yaml:"firecrawl" mapstructure:"firecrawl"`
	Scrape     ScrapeConfig     `yaml:"scrape" mapstructure:"scrape"`
	Enrich     EnrichConfig     `yaml:"enrich" mapstructure:"enrich"`
	Batch      BatchConfig      `yaml:"batch" mapstructure:"batch"`
	Circuit    CircuitConfig    `yaml:"circuit" mapstructure:"circuit"`
	Pricing    cost.Rates       `yaml:"pricing" mapstructure:"pricing"`
	Monitoring MonitoringConfig `yaml:"monitoring" mapstructure:"monitoring"`
	Log        LogConfig        `yaml:"log" mapstructure:"log"`
}

// StoreConfig configures the database backend.
type StoreConfig struct {
	Driver      string     `yaml:"driver" mapstructure:"driver"`
	DatabaseURL string     `yaml:"database_url" mapstructure:"database_url"`
	Pool        PoolConfig `yaml:"pool" mapstructure:"pool"`
}

// PoolConfig tunes the Postgres connection pool.
type PoolConfig struct {
	MaxConns int32 `yaml:"max_conns" mapstructure:"max_conns"`
	MinConns int32 `yaml:"min_conns" mapstructure:"min_conns"`
}

// AnthropicConfig holds Anthropic API settings.
type AnthropicConfig struct {
	Key   string `yaml:"key" mapstructure:"key"`
	Model string `yaml:"model" mapstructure:"model"`
}

// GeminiConfig holds Google Gemini API settings.
type GeminiConfig struct {
	Key   string `yaml:"key" mapstructure:"key"`
	Model string `yaml:"model" mapstructure:"model"`
}

// AIConfig selects the biography extraction back end.
type AIConfig struct {
	// Provider is "anthropic", "gemini" or "none".
	Provider     string `yaml:"provider" mapstructure:"provider"`
	MinBioLength int    `yaml:"min_bio_length" mapstructure:"min_bio_length"`
}

// JinaConfig holds Jina AI Reader settings.
type JinaConfig struct {
	Key     string `yaml:"key" mapstructure:"key"`
	BaseURL string `yaml:"base_url" mapstructure:"base_url"`
}

// FirecrawlConfig holds Firecrawl settings. An empty key leaves Firecrawl
// out of the website chain.
type FirecrawlConfig struct {
	Key     string `yaml:"key" mapstructure:"key"`
	BaseURL string `yaml:"base_url" mapstructure:"base_url"`
}

// ScrapeConfig configures website fetching.
type ScrapeConfig struct {
	TimeoutSecs  int      `yaml:"timeout_secs" mapstructure:"timeout_secs"`
	Browser      bool     `yaml:"browser" mapstructure:"browser"`
	BrowserBin   string   `yaml:"browser_bin" mapstructure:"browser_bin"`
	ExcludePaths []string `yaml:"exclude_paths" mapstructure:"exclude_paths"`
}

// EnrichConfig configures the orchestrator.
type EnrichConfig struct {
	// RulesPath points to a YAML file merged over the built-in tables.
	RulesPath string `yaml:"rules_path" mapstructure:"rules_path"`
}

// BatchConfig configures batch processing.
type BatchConfig struct {
	PageSize    int  `yaml:"page_size" mapstructure:"page_size"`
	DelayMs     int  `yaml:"delay_ms" mapstructure:"delay_ms"`
	Concurrency int  `yaml:"concurrency" mapstructure:"concurrency"`
	Limit       int  `yaml:"limit" mapstructure:"limit"`
	Unenriched  bool `yaml:"unenriched" mapstructure:"unenriched"`
}

// CircuitConfig configures the collaborator circuit breakers.
type CircuitConfig struct {
	FailureThreshold int `yaml:"failure_threshold" mapstructure:"failure_threshold"`
	CooldownSecs     int `yaml:"cooldown_secs" mapstructure:"cooldown_secs"`
}

// MonitoringConfig configures post-run alerting.
type MonitoringConfig struct {
	WebhookURL string `yaml:"webhook_url" mapstructure:"webhook_url"`
	// ErrorRateThreshold is the share of failed leads that triggers an
	// alert. Zero disables the check.
	ErrorRateThreshold float64 `yaml:"error_rate_threshold" mapstructure:"error_rate_threshold"`
	// CostThresholdUSD is the per-run spend that triggers an alert. Zero
	// disables the check.
	CostThresholdUSD float64 `yaml:"cost_threshold_usd" mapstructure:"cost_threshold_usd"`
}

// LogConfig configures logging.
type LogConfig struct {
	Level  string `yaml:"level" mapstructure:"level"`
	Format string `yaml:"format" mapstructure:"format"`
}

// Load reads configuration from ./config.yaml (optional) and environment.
func Load() (*Config, error) {
	return LoadFile("")
}

// LoadFile is Load with an explicit config file. Unlike the default
// ./config.yaml, an explicit file must exist.
func LoadFile(path string) (*Config, error) {
	v := viper.New()

	// Config file
	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("config")
		v.AddConfigPath(".")
	}
	v.SetConfigType("yaml")

	// Environment
	v.SetEnvPrefix("LEADS")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Defaults
	v.SetDefault("store.driver", "postgres")
	v.SetDefault("store.database_url", "")
	v.SetDefault("anthropic.key", "")
	v.SetDefault("anthropic.model", "claude-haiku-4-5-20251001")
	v.SetDefault("gemini.key", "")
	v.SetDefault("gemini.model", "gemini-2.5-flash-lite")
	v.SetDefault("ai.provider", "anthropic")
	v.SetDefault("ai.min_bio_length", 30)
	v.SetDefault("jina.key", "")
	v.SetDefault("jina.base_url", "https://r.jina.ai")
	v.SetDefault("firecrawl.key", "")
	v.SetDefault("firecrawl.base_url", "https://api.firecrawl.dev/v1")
	v.SetDefault("scrape.timeout_secs", 15)
	v.SetDefault("scrape.browser", false)
	v.SetDefault("enrich.rules_path", "")
	v.SetDefault("batch.page_size", 100)
	v.SetDefault("batch.delay_ms", 500)
	v.SetDefault("batch.concurrency", 1)
	v.SetDefault("batch.limit", 0)
	v.SetDefault("batch.unenriched", true)
	v.SetDefault("circuit.failure_threshold", 5)
	v.SetDefault("circuit.cooldown_secs", 30)
	v.SetDefault("pricing.jina.per_mtok", 0.02)
	v.SetDefault("monitoring.webhook_url", "")
	v.SetDefault("monitoring.error_rate_threshold", 0.10)
	v.SetDefault("monitoring.cost_threshold_usd", 0.0)
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")

	// Read config file (optional)
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, eris.Wrap(err, "config: read file")
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, eris.Wrap(err, "config: unmarshal")
	}
	cfg.applyPricingDefaults()

	return &cfg, nil
}

// applyPricingDefaults fills model tables left out of the config file.
func (c *Config) applyPricingDefaults() {
	def := cost.DefaultRates()
	if len(c.Pricing.Anthropic) == 0 {
		c.Pricing.Anthropic = def.Anthropic
	}
	if len(c.Pricing.Gemini) == 0 {
		c.Pricing.Gemini = def.Gemini
	}
}

// Validate checks the settings a command mode needs before it starts.
// Modes: "batch", "run", "migrate", "validate".
func (c *Config) Validate(mode string) error {
	var errs []string
	switch mode {
	case "validate":
	case "migrate":
		errs = append(errs, c.storeErrors()...)
	case "batch", "run":
		errs = append(errs, c.storeErrors()...)
		errs = append(errs, c.aiErrors()...)
		if c.Batch.PageSize < 1 || c.Batch.PageSize > 1000 {
			errs = append(errs, "batch.page_size must be between 1 and 1000")
		}
		if c.Batch.Concurrency < 1 || c.Batch.Concurrency > 32 {
			errs = append(errs, "batch.concurrency must be between 1 and 32")
		}
		if c.Batch.DelayMs < 0 {
			errs = append(errs, "batch.delay_ms must be >= 0")
		}
	default:
		return eris.Errorf("config: unknown mode %q", mode)
	}
	if len(errs) > 0 {
		return eris.Errorf("config: %s", strings.Join(errs, "; "))
	}
	return nil
}

func (c *Config) storeErrors() []string {
	var errs []string
	switch c.Store.Driver {
	case "postgres", "sqlite":
	default:
		errs = append(errs, fmt.Sprintf("store.driver %q is not supported", c.Store.Driver))
	}
	if c.Store.DatabaseURL == "" {
		errs = append(errs, "store.database_url is required")
	}
	return errs
}

func (c *Config) aiErrors() []string {
	switch c.AI.Provider {
	case "none":
		return nil
	case "anthropic":
		if c.Anthropic.Key == "" {
			return []string{"anthropic.key is required"}
		}
	case "gemini":
		if c.Gemini.Key == "" {
			return []string{"gemini.key is required"}
		}
	default:
		return []string{fmt.Sprintf("ai.provider %q is not supported", c.AI.Provider)}
	}
	return nil
}

// InitLogger initializes the global zap logger.
func InitLogger(cfg LogConfig) error {
	var zapCfg zap.Config
	if cfg.Format == "console" {
		zapCfg = zap.NewDevelopmentConfig()
	} else {
		zapCfg = zap.NewProductionConfig()
	}

	level, err := zapcore.ParseLevel(cfg.Level)
	if err != nil {
		return eris.Wrap(err, "config: parse log level")
	}
	zapCfg.Level.SetLevel(level)

	logger, err := zapCfg.Build()
	if err != nil {
		return eris.Wrap(err, "config: build logger")
	}
	zap.ReplaceGlobals(logger)

	return nil
}
