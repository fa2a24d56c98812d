package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	_ "time/tzdata"
)

func envMap(m map[string]string) func(string) string {
	return func(k string) string { return m[k] }
}

func TestLoadDefaults(t *testing.T) {
	t.Parallel()

	cfg, err := LoadFrom("", envMap(nil))
	if err != nil {
		t.Fatalf("LoadFrom: %v", err)
	}
	if cfg.Scan.TopK != 6 || cfg.Scan.MaxItemsPerFeed != 30 || !cfg.Scan.UseSnippets {
		t.Fatalf("unexpected scan defaults: %+v", cfg.Scan)
	}
	if cfg.Scan.RequestTimeout().Seconds() != 12 {
		t.Fatalf("timeout = %s", cfg.Scan.RequestTimeout())
	}
	if !cfg.Report.SaveDailyLog || cfg.Report.LogDir != "logs" || cfg.Report.KeepLogDays != 10 {
		t.Fatalf("unexpected report defaults: %+v", cfg.Report)
	}
	if cfg.Sentiment.Model != "ProsusAI/finbert" || cfg.Sentiment.Endpoint != "" {
		t.Fatalf("unexpected sentiment defaults: %+v", cfg.Sentiment)
	}
	if cfg.Location().String() != "America/New_York" {
		t.Fatalf("location = %s", cfg.Location())
	}
	if cfg.Notifications.Telegram.Enabled() {
		t.Fatalf("telegram must be disabled by default")
	}

	reg, err := cfg.TopicRegistry()
	if err != nil {
		t.Fatalf("TopicRegistry: %v", err)
	}
	if got := reg.Keys(); len(got) != 5 || got[0] != "gold" || got[4] != "world" {
		t.Fatalf("unexpected default topics %v", got)
	}
}

func TestLoadFileThenEnv(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "briefing.yaml")
	yamlDoc := `
logging:
  level: debug
scan:
  topK: 4
  useSnippets: false
report:
  saveDailyLog: false
scheduler:
  cronExpression: "30 8 * * 1-5"
topics:
  - key: Rates
    queries: ["treasury yields"]
    tickers: ["TLT"]
  - key: fx
    extraFeeds: ["https://example.com/fx.xml"]
`
	if err := os.WriteFile(path, []byte(yamlDoc), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}

	cfg, err := LoadFrom(path, envMap(map[string]string{
		"TOP_K_PER_TOPIC":   "9",
		"USE_SNIPPETS":      "yes",
		"BRIEFING_TIMEZONE": "Europe/London",
		"QUIVER_API_KEY":    " key ",
	}))
	if err != nil {
		t.Fatalf("LoadFrom: %v", err)
	}

	if cfg.Logging.Level != "debug" || cfg.Report.SaveDailyLog {
		t.Fatalf("file values not applied: %+v %+v", cfg.Logging, cfg.Report)
	}
	if cfg.Scan.TopK != 9 || !cfg.Scan.UseSnippets {
		t.Fatalf("env must win over file: %+v", cfg.Scan)
	}
	if cfg.Scan.MaxItemsPerFeed != 30 {
		t.Fatalf("unset keys keep defaults: %+v", cfg.Scan)
	}
	if cfg.Scheduler.CronExpression != "30 8 * * 1-5" {
		t.Fatalf("schedule = %q", cfg.Scheduler.CronExpression)
	}
	if cfg.Location().String() != "Europe/London" {
		t.Fatalf("location = %s", cfg.Location())
	}
	if cfg.Disclosures.QuiverAPIKey != "key" {
		t.Fatalf("quiver key = %q", cfg.Disclosures.QuiverAPIKey)
	}

	reg, err := cfg.TopicRegistry()
	if err != nil {
		t.Fatalf("TopicRegistry: %v", err)
	}
	if got := reg.Keys(); len(got) != 2 || got[0] != "rates" || got[1] != "fx" {
		t.Fatalf("topics = %v", got)
	}
}

func TestLoadRejectsInvalidValues(t *testing.T) {
	t.Parallel()

	cases := map[string]map[string]string{
		"TOP_K_PER_TOPIC":      {"TOP_K_PER_TOPIC": "six"},
		"USE_SNIPPETS":         {"USE_SNIPPETS": "maybe"},
		"MAX_ITEMS_PER_FEED":   {"MAX_ITEMS_PER_FEED": "0"},
		"REQUEST_TIMEOUT_SECS": {"REQUEST_TIMEOUT_SECS": "-1"},
		"BRIEFING_TIMEZONE":    {"BRIEFING_TIMEZONE": "Mars/Olympus"},
	}
	for field, env := range cases {
		_, err := LoadFrom("", envMap(env))
		var cerr *ConfigError
		if !errors.As(err, &cerr) {
			t.Fatalf("%s: expected ConfigError, got %v", field, err)
		}
		if cerr.Field != field {
			t.Fatalf("%s: error names field %q", field, cerr.Field)
		}
	}

	if _, err := LoadFrom(filepath.Join(t.TempDir(), "missing.yaml"), envMap(nil)); err == nil {
		t.Fatalf("expected error for missing config file")
	}
}

func TestTopicRegistryRejectsDuplicates(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "dup.yaml")
	doc := "topics:\n  - key: gold\n    queries: [a]\n  - key: GOLD\n    queries: [b]\n"
	if err := os.WriteFile(path, []byte(doc), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}
	cfg, err := LoadFrom(path, envMap(nil))
	if err != nil {
		t.Fatalf("LoadFrom: %v", err)
	}
	var cerr *ConfigError
	if _, err := cfg.TopicRegistry(); !errors.As(err, &cerr) || cerr.Field != "topics" {
		t.Fatalf("expected topics ConfigError, got %v", err)
	}
}
