package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"sort"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"
)

var (
	ErrMissingSecret = errors.New("SECRET_KEY is required")
	ErrNoZones       = errors.New("at least one zone is required")
)

const (
	SourceNewsAPI = "newsapi"
	SourceRSS     = "rss"

	ProviderGemini = "gemini"
	ProviderOpenAI = "openai"
)

type Config struct {
	// Server settings
	Port       int
	Debug      bool
	SecretKey  string
	SessionTTL time.Duration

	// News source settings
	NewsSource      string // newsapi | rss
	NewsAPIKey      string
	NewsAPIURL      string
	NewsLanguage    string
	RSSSearchURL    string // {keyword} and {lang} are substituted
	FetchCacheSize  int
	FetchAttempts   int
	FetchRetryDelay time.Duration
	EnrichFullText  bool

	// Translation / summarization settings
	TranslateURL       string
	SummarizerProvider string // gemini | openai
	GeminiAPIKey       string
	GeminiModel        string
	OpenAIAPIKey       string
	OpenAIModel        string
	OpenAIBaseURL      string

	RequestTimeout time.Duration

	// Zone name -> search keywords
	ZonesFile string
	Zones     map[string][]string
}

// DefaultZones is the zone table used when no ZONES_FILE is configured.
func DefaultZones() map[string][]string {
	return map[string][]string{
		"tech":          {"technology"},
		"business":      {"business"},
		"entertainment": {"entertainment"},
		"economy":       {"economy"},
		"health":        {"health", "medicine"},
		"science":       {"science"},
	}
}

// Load reads .env (if present), an optional config.yaml and the environment.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("failed to load .env: %w", err)
	}

	v := viper.New()
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.AddConfigPath("./config")
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	return LoadFrom(v)
}

// LoadFrom builds a Config from an already prepared viper instance, applying
// defaults and environment bindings.
func LoadFrom(v *viper.Viper) (*Config, error) {
	setDefaults(v)
	v.AutomaticEnv()
	_ = v.BindEnv("secret_key", "SECRET_KEY", "FLASK_SECRET_KEY")

	cfg := &Config{
		Port:               v.GetInt("port"),
		Debug:              v.GetBool("debug"),
		SecretKey:          v.GetString("secret_key"),
		SessionTTL:         v.GetDuration("session_ttl"),
		NewsSource:         strings.ToLower(v.GetString("news_source")),
		NewsAPIKey:         v.GetString("news_api_key"),
		NewsAPIURL:         v.GetString("news_api_url"),
		NewsLanguage:       v.GetString("news_language"),
		RSSSearchURL:       v.GetString("rss_search_url"),
		FetchCacheSize:     v.GetInt("fetch_cache_size"),
		FetchAttempts:      v.GetInt("fetch_attempts"),
		FetchRetryDelay:    v.GetDuration("fetch_retry_delay"),
		EnrichFullText:     v.GetBool("enrich_full_text"),
		TranslateURL:       v.GetString("translate_url"),
		SummarizerProvider: strings.ToLower(v.GetString("summarizer_provider")),
		GeminiAPIKey:       v.GetString("gemini_api_key"),
		GeminiModel:        v.GetString("gemini_model"),
		OpenAIAPIKey:       v.GetString("openai_api_key"),
		OpenAIModel:        v.GetString("openai_model"),
		OpenAIBaseURL:      v.GetString("openai_base_url"),
		RequestTimeout:     v.GetDuration("request_timeout"),
		ZonesFile:          v.GetString("zones_file"),
	}

	cfg.Zones = DefaultZones()
	if cfg.ZonesFile != "" {
		zones, err := LoadZones(cfg.ZonesFile)
		if err != nil {
			return nil, fmt.Errorf("failed to load zones: %w", err)
		}
		cfg.Zones = zones
	}

	return cfg, cfg.Validate()
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("port", 5000)
	v.SetDefault("debug", false)
	v.SetDefault("session_ttl", 24*time.Hour)
	v.SetDefault("news_source", SourceNewsAPI)
	v.SetDefault("news_api_url", "https://newsapi.org/v2/everything")
	v.SetDefault("news_language", "en")
	v.SetDefault("rss_search_url", "https://news.google.com/rss/search?q={keyword}&hl={lang}")
	v.SetDefault("fetch_cache_size", 128)
	v.SetDefault("fetch_attempts", 1)
	v.SetDefault("fetch_retry_delay", 500*time.Millisecond)
	v.SetDefault("enrich_full_text", false)
	v.SetDefault("translate_url", "https://translate.googleapis.com/translate_a/single")
	v.SetDefault("summarizer_provider", ProviderGemini)
	v.SetDefault("gemini_model", "gemini-1.5-flash")
	v.SetDefault("openai_model", "gpt-4o-mini")
	v.SetDefault("request_timeout", 15*time.Second)
}

// ZonesFile is the YAML structure of a zones file:
//
//	zones:
//	  tech: [technology]
//	  health: [health, medicine]
type ZonesFile struct {
	Zones map[string][]string `yaml:"zones"`
}

// LoadZones reads the zone table from a YAML file.
func LoadZones(path string) (map[string][]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var zf ZonesFile
	dec := yaml.NewDecoder(f)
	if err := dec.Decode(&zf); err != nil {
		return nil, fmt.Errorf("failed to decode %s: %w", path, err)
	}
	if len(zf.Zones) == 0 {
		return nil, ErrNoZones
	}
	return zf.Zones, nil
}

// ZoneNames returns the configured zone names in a stable order.
func (c *Config) ZoneNames() []string {
	names := make([]string, 0, len(c.Zones))
	for name := range c.Zones {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func (c *Config) Validate() error {
	if c.SecretKey == "" {
		return ErrMissingSecret
	}
	if len(c.Zones) == 0 {
		return ErrNoZones
	}
	switch c.NewsSource {
	case SourceNewsAPI:
		if c.NewsAPIKey == "" {
			return fmt.Errorf("NEWS_API_KEY is required when NEWS_SOURCE=%s", SourceNewsAPI)
		}
		if c.NewsAPIURL == "" {
			return fmt.Errorf("NEWS_API_URL is required when NEWS_SOURCE=%s", SourceNewsAPI)
		}
	case SourceRSS:
		if !strings.Contains(c.RSSSearchURL, "{keyword}") {
			return fmt.Errorf("RSS_SEARCH_URL must contain {keyword}")
		}
	default:
		return fmt.Errorf("NEWS_SOURCE must be '%s' or '%s'", SourceNewsAPI, SourceRSS)
	}
	switch c.SummarizerProvider {
	case ProviderGemini:
		if c.GeminiAPIKey == "" {
			return fmt.Errorf("GEMINI_API_KEY is required when SUMMARIZER_PROVIDER=%s", ProviderGemini)
		}
	case ProviderOpenAI:
		if c.OpenAIAPIKey == "" {
			return fmt.Errorf("OPENAI_API_KEY is required when SUMMARIZER_PROVIDER=%s", ProviderOpenAI)
		}
	default:
		return fmt.Errorf("SUMMARIZER_PROVIDER must be '%s' or '%s'", ProviderGemini, ProviderOpenAI)
	}
	if c.FetchCacheSize <= 0 {
		return fmt.Errorf("FETCH_CACHE_SIZE must be positive")
	}
	if c.FetchAttempts < 1 {
		return fmt.Errorf("FETCH_ATTEMPTS must be at least 1")
	}
	return nil
}
