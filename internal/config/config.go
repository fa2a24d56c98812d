package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"MarketBriefing/internal/domain"
	"MarketBriefing/internal/topics"
)

const (
	defaultTimezone = "America/New_York"
	configPathEnv   = "BRIEFING_CONFIG"

	logLevelEnv         = "LOG_LEVEL"
	sentimentModelEnv   = "SENTIMENT_MODEL"
	sentimentURLEnv     = "SENTIMENT_ENDPOINT"
	sentimentKeyEnv     = "SENTIMENT_API_KEY"
	requestTimeoutEnv   = "REQUEST_TIMEOUT_SECS"
	useSnippetsEnv      = "USE_SNIPPETS"
	topKEnv             = "TOP_K_PER_TOPIC"
	maxItemsEnv         = "MAX_ITEMS_PER_FEED"
	saveDailyLogEnv     = "SAVE_DAILY_LOG"
	logDirEnv           = "LOG_DIR"
	keepLogDaysEnv      = "KEEP_LOG_DAYS"
	timezoneEnv         = "BRIEFING_TIMEZONE"
	scheduleEnv         = "BRIEFING_SCHEDULE"
	databaseDSNEnv      = "DATABASE_DSN"
	secUserAgentEnv     = "SEC_USER_AGENT"
	quiverAPIKeyEnv     = "QUIVER_API_KEY"
	telegramTokenEnv    = "TELEGRAM_BOT_TOKEN"
	telegramChatIDEnv   = "TELEGRAM_CHAT_ID"
	defaultSentimentID  = "ProsusAI/finbert"
	defaultFeedAgent    = "Mozilla/5.0 (compatible; MarketBriefing/1.0)"
	defaultRequestSecs  = 12
	defaultTopK         = 6
	defaultMaxItems     = 30
	defaultKeepLogDays  = 10
	defaultLogDirectory = "logs"
)

// Config holds every setting of a briefing run. It is read once at start.
type Config struct {
	Logging       LoggingConfig      `yaml:"logging"`
	Timezone      string             `yaml:"timezone"`
	Sentiment     SentimentConfig    `yaml:"sentiment"`
	Scan          ScanConfig         `yaml:"scan"`
	Report        ReportConfig       `yaml:"report"`
	Database      DatabaseConfig     `yaml:"database"`
	Disclosures   DisclosureConfig   `yaml:"disclosures"`
	Notifications NotificationConfig `yaml:"notifications"`
	Scheduler     SchedulerConfig    `yaml:"scheduler"`
	Topics        []domain.TopicSpec `yaml:"topics"`

	location *time.Location
}

// LoggingConfig sets the slog level.
type LoggingConfig struct {
	Level string `yaml:"level"`
}

// SentimentConfig points at the primary model server. An empty endpoint means
// lexicon-only scoring.
type SentimentConfig struct {
	Endpoint string `yaml:"endpoint"`
	APIKey   string `yaml:"apiKey"`
	Model    string `yaml:"model"`
}

// ScanConfig controls retrieval and ranking.
type ScanConfig struct {
	Mode               string `yaml:"mode"`
	TopK               int    `yaml:"topK"`
	MaxItemsPerFeed    int    `yaml:"maxItemsPerFeed"`
	UseSnippets        bool   `yaml:"useSnippets"`
	RequestTimeoutSecs int    `yaml:"requestTimeoutSecs"`
	UserAgent          string `yaml:"userAgent"`
}

// RequestTimeout is the per-request HTTP timeout.
func (s ScanConfig) RequestTimeout() time.Duration {
	return time.Duration(s.RequestTimeoutSecs) * time.Second
}

// ReportConfig controls the daily text archive.
type ReportConfig struct {
	SaveDailyLog bool   `yaml:"saveDailyLog"`
	LogDir       string `yaml:"logDir"`
	KeepLogDays  int    `yaml:"keepLogDays"`
}

// DatabaseConfig selects the store. postgres:// DSNs use Postgres, anything
// else is a SQLite file; empty disables storage.
type DatabaseConfig struct {
	DSN string `yaml:"dsn"`
}

// DisclosureConfig holds credentials and limits of the SEC and Quiver lookups.
type DisclosureConfig struct {
	SECUserAgent     string `yaml:"secUserAgent"`
	QuiverAPIKey     string `yaml:"quiverApiKey"`
	TickersPerTopic  int    `yaml:"tickersPerTopic"`
	FilingsPerTicker int    `yaml:"filingsPerTicker"`
	TradeLimit       int    `yaml:"tradeLimit"`
}

// NotificationConfig encapsulates outbound channels.
type NotificationConfig struct {
	Telegram TelegramConfig `yaml:"telegram"`
}

// TelegramConfig wires all data required to send messages.
type TelegramConfig struct {
	BotToken string `yaml:"botToken"`
	ChatID   string `yaml:"chatId"`
}

// Enabled reports whether both token and chat are set.
func (t TelegramConfig) Enabled() bool {
	return t.BotToken != "" && t.ChatID != ""
}

// SchedulerConfig defines when recurring briefings run. Empty runs once.
type SchedulerConfig struct {
	CronExpression string `yaml:"cronExpression"`
}

// ConfigError reports an invalid setting.
type ConfigError struct {
	Field   string
	Message string
}

func (e *ConfigError) Error() string {
	return e.Field + ": " + e.Message
}

// Location resolves the reference timezone.
func (c Config) Location() *time.Location {
	if c.location != nil {
		return c.location
	}
	loc, err := time.LoadLocation(defaultTimezone)
	if err != nil {
		return time.UTC
	}
	return loc
}

// Load reads .env, the optional YAML file named by BRIEFING_CONFIG and the
// process environment, in that order of increasing precedence.
func Load() (Config, error) {
	_ = godotenv.Load()
	return LoadFrom(os.Getenv(configPathEnv), os.Getenv)
}

// LoadFrom builds a config from an optional YAML file and an env lookup.
func LoadFrom(path string, getenv func(string) string) (Config, error) {
	cfg := defaultConfig()

	if path != "" {
		raw, err := os.ReadFile(path)
		if err != nil {
			return Config{}, fmt.Errorf("read config %s: %w", path, err)
		}
		if err := yaml.Unmarshal(raw, &cfg); err != nil {
			return Config{}, fmt.Errorf("parse config %s: %w", path, err)
		}
	}

	if err := cfg.applyEnvOverrides(getenv); err != nil {
		return Config{}, err
	}
	if err := cfg.validate(); err != nil {
		return Config{}, err
	}
	if err := cfg.bindTimezone(); err != nil {
		return Config{}, err
	}

	if len(cfg.Topics) == 0 {
		cfg.Topics = topics.DefaultSpecs()
	}
	return cfg, nil
}

// TopicRegistry builds the ordered topic registry from the configured list.
func (c Config) TopicRegistry() (*topics.Registry, error) {
	reg, err := topics.New(c.Topics)
	if err != nil {
		return nil, &ConfigError{Field: "topics", Message: err.Error()}
	}
	return reg, nil
}

func (c *Config) applyEnvOverrides(getenv func(string) string) error {
	strs := []struct {
		key string
		dst *string
	}{
		{logLevelEnv, &c.Logging.Level},
		{sentimentModelEnv, &c.Sentiment.Model},
		{sentimentURLEnv, &c.Sentiment.Endpoint},
		{sentimentKeyEnv, &c.Sentiment.APIKey},
		{logDirEnv, &c.Report.LogDir},
		{timezoneEnv, &c.Timezone},
		{scheduleEnv, &c.Scheduler.CronExpression},
		{databaseDSNEnv, &c.Database.DSN},
		{secUserAgentEnv, &c.Disclosures.SECUserAgent},
		{quiverAPIKeyEnv, &c.Disclosures.QuiverAPIKey},
		{telegramTokenEnv, &c.Notifications.Telegram.BotToken},
		{telegramChatIDEnv, &c.Notifications.Telegram.ChatID},
	}
	for _, s := range strs {
		if v := strings.TrimSpace(getenv(s.key)); v != "" {
			*s.dst = v
		}
	}

	ints := []struct {
		key string
		dst *int
	}{
		{requestTimeoutEnv, &c.Scan.RequestTimeoutSecs},
		{topKEnv, &c.Scan.TopK},
		{maxItemsEnv, &c.Scan.MaxItemsPerFeed},
		{keepLogDaysEnv, &c.Report.KeepLogDays},
	}
	for _, i := range ints {
		v := strings.TrimSpace(getenv(i.key))
		if v == "" {
			continue
		}
		n, err := strconv.Atoi(v)
		if err != nil {
			return &ConfigError{Field: i.key, Message: fmt.Sprintf("not an integer: %q", v)}
		}
		*i.dst = n
	}

	bools := []struct {
		key string
		dst *bool
	}{
		{useSnippetsEnv, &c.Scan.UseSnippets},
		{saveDailyLogEnv, &c.Report.SaveDailyLog},
	}
	for _, b := range bools {
		v := strings.TrimSpace(getenv(b.key))
		if v == "" {
			continue
		}
		parsed, ok := parseBool(v)
		if !ok {
			return &ConfigError{Field: b.key, Message: fmt.Sprintf("not a boolean: %q", v)}
		}
		*b.dst = parsed
	}
	return nil
}

// parseBool accepts the usual 1/0, true/false and yes/no spellings.
func parseBool(v string) (bool, bool) {
	switch strings.ToLower(v) {
	case "1", "true", "yes", "on":
		return true, true
	case "0", "false", "no", "off":
		return false, true
	}
	return false, false
}

func (c *Config) validate() error {
	switch {
	case c.Scan.TopK < 0:
		return &ConfigError{Field: topKEnv, Message: "must not be negative"}
	case c.Scan.MaxItemsPerFeed <= 0:
		return &ConfigError{Field: maxItemsEnv, Message: "must be positive"}
	case c.Scan.RequestTimeoutSecs <= 0:
		return &ConfigError{Field: requestTimeoutEnv, Message: "must be positive"}
	case c.Report.KeepLogDays < 0:
		return &ConfigError{Field: keepLogDaysEnv, Message: "must not be negative"}
	case c.Report.SaveDailyLog && strings.TrimSpace(c.Report.LogDir) == "":
		return &ConfigError{Field: logDirEnv, Message: "required when the daily log is enabled"}
	}
	return nil
}

func (c *Config) bindTimezone() error {
	tz := c.Timezone
	if tz == "" {
		tz = defaultTimezone
	}
	loc, err := time.LoadLocation(tz)
	if err != nil {
		return &ConfigError{Field: timezoneEnv, Message: fmt.Sprintf("unknown timezone %q", tz)}
	}
	c.Timezone = tz
	c.location = loc
	return nil
}

func defaultConfig() Config {
	return Config{
		Logging:  LoggingConfig{Level: "info"},
		Timezone: defaultTimezone,
		Sentiment: SentimentConfig{
			Model: defaultSentimentID,
		},
		Scan: ScanConfig{
			Mode:               "auto",
			TopK:               defaultTopK,
			MaxItemsPerFeed:    defaultMaxItems,
			UseSnippets:        true,
			RequestTimeoutSecs: defaultRequestSecs,
			UserAgent:          defaultFeedAgent,
		},
		Report: ReportConfig{
			SaveDailyLog: true,
			LogDir:       defaultLogDirectory,
			KeepLogDays:  defaultKeepLogDays,
		},
		Disclosures: DisclosureConfig{
			TickersPerTopic:  3,
			FilingsPerTicker: 2,
			TradeLimit:       50,
		},
	}
}
