package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"
	"time"

	"classifybot/internal/logger"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

const (
	defaultLLMTimeoutSeconds          = 120
	defaultExternalHTTPTimeoutSeconds = 90
	defaultOllamaModel                = "llama3.1"
	defaultOllamaBaseURL              = "http://localhost:11434"
	defaultMaxContentChars            = 20000
)

type Config struct {
	LLMProvider       string `yaml:"llm_provider"`
	LLMModel          string `yaml:"llm_model"`
	LLMBaseURL        string `yaml:"llm_base_url"`
	LLMTimeoutSeconds int    `yaml:"llm_timeout_seconds"`
	AnthropicAPIKey   string `yaml:"anthropic_api_key"`
	OpenAIAPIKey      string `yaml:"openai_api_key"`
	ArkAPIKey         string `yaml:"ark_api_key"`
	DeepSeekAPIKey    string `yaml:"deepseek_api_key"`
	GeminiAPIKey      string `yaml:"gemini_api_key"`

	DepartmentsPath string `yaml:"departments_path"`
	RegulationPath  string `yaml:"regulation_path"`

	StoreBackend string `yaml:"store_backend"`
	DataDir      string `yaml:"data_dir"`
	DBPath       string `yaml:"db_path"`
	RedisURL     string `yaml:"redis_url"`

	FeedbackExampleLimit       int `yaml:"feedback_example_limit"`
	MaxContentChars            int `yaml:"max_content_chars"`
	ExternalHTTPTimeoutSeconds int `yaml:"external_http_timeout_seconds"`

	SlackBotToken        string `yaml:"slack_bot_token"`
	ReviewChannelID      string `yaml:"review_channel_id"`
	ReviewDigestSchedule string `yaml:"review_digest_schedule"`
	Timezone             string `yaml:"timezone"`

	Log logger.Config `yaml:"log"`

	Location *time.Location `yaml:"-"` // computed from Timezone
}

// LoadConfig reads .env (optional), then config.yaml or CONFIG_PATH, then
// applies environment overrides and defaults before validating.
func LoadConfig() (Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return Config{}, fmt.Errorf("load .env: %w", err)
	}

	var cfg Config
	configPath := "config.yaml"
	if envPath := os.Getenv("CONFIG_PATH"); envPath != "" {
		configPath = envPath
	}
	data, err := os.ReadFile(configPath)
	switch {
	case err == nil:
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return Config{}, fmt.Errorf("parse %s: %w", configPath, err)
		}
	case errors.Is(err, fs.ErrNotExist):
		// Running from env alone is supported.
	default:
		return Config{}, fmt.Errorf("read %s: %w", configPath, err)
	}

	if err := applyEnv(&cfg); err != nil {
		return Config{}, err
	}
	applyDefaults(&cfg)
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func applyEnv(cfg *Config) error {
	envOverride(&cfg.LLMProvider, "LLM_PROVIDER")
	envOverride(&cfg.LLMModel, "LLM_MODEL")
	envOverride(&cfg.LLMBaseURL, "LLM_BASE_URL")
	envOverride(&cfg.AnthropicAPIKey, "ANTHROPIC_API_KEY")
	envOverride(&cfg.OpenAIAPIKey, "OPENAI_API_KEY")
	envOverride(&cfg.ArkAPIKey, "ARK_API_KEY")
	envOverride(&cfg.DeepSeekAPIKey, "DEEPSEEK_API_KEY")
	envOverride(&cfg.GeminiAPIKey, "GEMINI_API_KEY")
	envOverride(&cfg.DepartmentsPath, "DEPARTMENTS_PATH")
	envOverride(&cfg.RegulationPath, "REGULATION_PATH")
	envOverride(&cfg.StoreBackend, "STORE_BACKEND")
	envOverride(&cfg.DataDir, "DATA_DIR")
	envOverride(&cfg.DBPath, "DB_PATH")
	envOverride(&cfg.RedisURL, "REDIS_URL")
	envOverride(&cfg.SlackBotToken, "SLACK_BOT_TOKEN")
	envOverrideAllowEmpty(&cfg.ReviewChannelID, "REVIEW_CHANNEL_ID")
	envOverride(&cfg.ReviewDigestSchedule, "REVIEW_DIGEST_SCHEDULE")
	envOverride(&cfg.Timezone, "TIMEZONE")
	envOverride(&cfg.Log.Level, "LOG_LEVEL")
	envOverride(&cfg.Log.Format, "LOG_FORMAT")
	envOverride(&cfg.Log.Output, "LOG_OUTPUT")
	envOverride(&cfg.Log.FilePath, "LOG_FILE_PATH")

	ints := []struct {
		field *int
		key   string
	}{
		{&cfg.LLMTimeoutSeconds, "LLM_TIMEOUT_SECONDS"},
		{&cfg.FeedbackExampleLimit, "FEEDBACK_EXAMPLE_LIMIT"},
		{&cfg.MaxContentChars, "MAX_CONTENT_CHARS"},
		{&cfg.ExternalHTTPTimeoutSeconds, "EXTERNAL_HTTP_TIMEOUT_SECONDS"},
	}
	for _, o := range ints {
		if err := envOverrideInt(o.field, o.key); err != nil {
			return err
		}
	}
	return nil
}

func applyDefaults(cfg *Config) {
	if cfg.LLMProvider == "" {
		cfg.LLMProvider = "ollama"
	}
	cfg.LLMProvider = strings.ToLower(strings.TrimSpace(cfg.LLMProvider))
	if cfg.LLMModel == "" {
		cfg.LLMModel = defaultModel(cfg.LLMProvider)
	}
	if cfg.LLMBaseURL == "" && cfg.LLMProvider == "ollama" {
		cfg.LLMBaseURL = defaultOllamaBaseURL
	}
	if cfg.LLMTimeoutSeconds == 0 {
		cfg.LLMTimeoutSeconds = defaultLLMTimeoutSeconds
	}
	if cfg.DepartmentsPath == "" {
		cfg.DepartmentsPath = "./departments.txt"
	}
	if cfg.RegulationPath == "" {
		cfg.RegulationPath = "./regulation.pdf"
	}
	if cfg.StoreBackend == "" {
		cfg.StoreBackend = "file"
	}
	cfg.StoreBackend = strings.ToLower(strings.TrimSpace(cfg.StoreBackend))
	if cfg.DataDir == "" {
		cfg.DataDir = "./data"
	}
	if cfg.DBPath == "" {
		cfg.DBPath = "./classifybot.db"
	}
	if cfg.MaxContentChars == 0 {
		cfg.MaxContentChars = defaultMaxContentChars
	}
	if cfg.ExternalHTTPTimeoutSeconds == 0 {
		cfg.ExternalHTTPTimeoutSeconds = defaultExternalHTTPTimeoutSeconds
	}
	if cfg.ReviewDigestSchedule == "" {
		cfg.ReviewDigestSchedule = "0 9 * * 1-5"
	}
	if cfg.Timezone == "" {
		cfg.Timezone = "Local"
	}
	if cfg.Log.Level == "" {
		cfg.Log.Level = "info"
	}
	if cfg.Log.Format == "" {
		cfg.Log.Format = "console"
	}
	if cfg.Log.Output == "" {
		cfg.Log.Output = "stderr"
	}
}

func defaultModel(provider string) string {
	switch provider {
	case "anthropic":
		return "claude-sonnet-4-5"
	case "openai":
		return "gpt-4o-mini"
	case "deepseek":
		return "deepseek-chat"
	case "gemini":
		return "gemini-2.5-flash"
	case "ark":
		// Ark requires an endpoint id; there is no usable default.
		return ""
	default:
		return defaultOllamaModel
	}
}

// Validate checks provider credentials and numeric ranges, and resolves
// Location from Timezone.
func (c *Config) Validate() error {
	switch c.LLMProvider {
	case "ollama":
	case "anthropic":
		if c.AnthropicAPIKey == "" {
			return fmt.Errorf("anthropic_api_key is required when llm_provider=anthropic")
		}
	case "openai":
		if c.OpenAIAPIKey == "" {
			return fmt.Errorf("openai_api_key is required when llm_provider=openai")
		}
	case "ark":
		if c.ArkAPIKey == "" {
			return fmt.Errorf("ark_api_key is required when llm_provider=ark")
		}
		if c.LLMModel == "" {
			return fmt.Errorf("llm_model (ark endpoint id) is required when llm_provider=ark")
		}
	case "deepseek":
		if c.DeepSeekAPIKey == "" {
			return fmt.Errorf("deepseek_api_key is required when llm_provider=deepseek")
		}
	case "gemini":
		if c.GeminiAPIKey == "" {
			return fmt.Errorf("gemini_api_key is required when llm_provider=gemini")
		}
	default:
		return fmt.Errorf("llm_provider must be one of ollama, openai, ark, deepseek, anthropic, gemini; got '%s'", c.LLMProvider)
	}

	switch c.StoreBackend {
	case "file", "sqlite":
	case "redis":
		if c.RedisURL == "" {
			return fmt.Errorf("redis_url is required when store_backend=redis")
		}
	default:
		return fmt.Errorf("store_backend must be 'file', 'sqlite' or 'redis', got '%s'", c.StoreBackend)
	}

	if c.LLMTimeoutSeconds < 1 {
		return fmt.Errorf("invalid llm_timeout_seconds '%d': must be >= 1", c.LLMTimeoutSeconds)
	}
	if c.ExternalHTTPTimeoutSeconds < 5 {
		return fmt.Errorf("invalid external_http_timeout_seconds '%d': must be >= 5", c.ExternalHTTPTimeoutSeconds)
	}
	if c.FeedbackExampleLimit < 0 {
		return fmt.Errorf("invalid feedback_example_limit '%d': must be >= 0", c.FeedbackExampleLimit)
	}
	if c.MaxContentChars < 1 {
		return fmt.Errorf("invalid max_content_chars '%d': must be >= 1", c.MaxContentChars)
	}

	if strings.EqualFold(c.Timezone, "Local") {
		c.Location = time.Local
	} else {
		loc, err := time.LoadLocation(c.Timezone)
		if err != nil {
			return fmt.Errorf("invalid timezone '%s': %w", c.Timezone, err)
		}
		c.Location = loc
	}
	return nil
}

func (c Config) LLMTimeout() time.Duration {
	return time.Duration(c.LLMTimeoutSeconds) * time.Second
}

func (c Config) ExternalHTTPTimeout() time.Duration {
	return time.Duration(c.ExternalHTTPTimeoutSeconds) * time.Second
}

func (c Config) ReviewConfigured() bool {
	return c.SlackBotToken != "" && c.ReviewChannelID != ""
}

func envOverride(field *string, envKey string) {
	if val := os.Getenv(envKey); val != "" {
		*field = val
	}
}

func envOverrideAllowEmpty(field *string, envKey string) {
	if val, ok := os.LookupEnv(envKey); ok {
		*field = val
	}
}

func envOverrideInt(field *int, envKey string) error {
	if val := os.Getenv(envKey); val != "" {
		parsed, err := strconv.Atoi(val)
		if err != nil {
			return fmt.Errorf("invalid %s '%s': %w", envKey, val, err)
		}
		*field = parsed
	}
	return nil
}
