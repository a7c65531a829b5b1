package config

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// ErrMissingAPIKey is returned when no completion endpoint credential is configured.
var ErrMissingAPIKey = errors.New("OPENAI_API_KEY not set; use .env or export it")

type Config struct {
	LLM     LLMConfig
	Prompts PromptsConfig
	Metrics MetricsConfig
	Redis   RedisConfig
	Logging LoggingConfig
}

type LLMConfig struct {
	APIKey          string
	Model           string
	BaseURL         string
	TimeoutSec      int
	InputCostPer1M  float64
	OutputCostPer1M float64
}

type PromptsConfig struct {
	SystemPromptPath     string
	BadWordsPath         string
	InjectionPhrasesPath string
}

type MetricsConfig struct {
	Path         string
	SQLitePath   string
	TextfilePath string
}

type RedisConfig struct {
	Addr     string
	Password string
	DB       int
}

type LoggingConfig struct {
	Level      string
	Format     string
	OutputPath string
}

// Load reads configuration from .env, an optional YAML file and the environment.
// An empty configFile searches the default locations.
func Load(configFile string) (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("failed to load .env: %w", err)
	}

	v := viper.New()
	if configFile != "" {
		v.SetConfigFile(configFile)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("./config")
	}

	v.SetEnvPrefix("SUPPORT_QUERY")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)

	if err := bindEnv(v); err != nil {
		return nil, err
	}

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	return &config, nil
}

// Validate reports configuration that makes a query impossible.
func (c *Config) Validate() error {
	if strings.TrimSpace(c.LLM.APIKey) == "" {
		return ErrMissingAPIKey
	}
	return nil
}

// LoadSystemPrompt reads the trusted system instructions. The file must never contain user input.
func LoadSystemPrompt(path string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("failed to read system prompt: %w", err)
	}
	return strings.TrimSpace(string(data)), nil
}

func bindEnv(v *viper.Viper) error {
	bindings := map[string][]string{
		"llm.apiKey":  {"SUPPORT_QUERY_LLM_APIKEY", "OPENAI_API_KEY"},
		"llm.model":   {"SUPPORT_QUERY_LLM_MODEL", "OPENAI_MODEL"},
		"llm.baseURL": {"SUPPORT_QUERY_LLM_BASEURL", "OPENAI_BASE_URL"},
	}
	for key, envs := range bindings {
		if err := v.BindEnv(append([]string{key}, envs...)...); err != nil {
			return fmt.Errorf("failed to bind env for %s: %w", key, err)
		}
	}
	return nil
}

// setDefaults registers every key. AutomaticEnv is only consulted by Unmarshal for
// keys viper already knows about.
func setDefaults(v *viper.Viper) {
	v.SetDefault("llm.model", "gpt-4o-mini")
	v.SetDefault("llm.timeoutSec", 0)
	// gpt-4o-mini list prices, USD per million tokens.
	v.SetDefault("llm.inputCostPer1M", 0.15)
	v.SetDefault("llm.outputCostPer1M", 0.60)

	v.SetDefault("prompts.systemPromptPath", "prompts/system_prompt.txt")
	v.SetDefault("prompts.badWordsPath", "prompts/bad_words.txt")
	v.SetDefault("prompts.injectionPhrasesPath", "prompts/injection_phrases.txt")

	v.SetDefault("metrics.path", "metrics/metrics.json")
	v.SetDefault("metrics.sqlitePath", "")
	v.SetDefault("metrics.textfilePath", "")

	v.SetDefault("redis.addr", "")
	v.SetDefault("redis.password", "")
	v.SetDefault("redis.db", 0)

	v.SetDefault("logging.level", "warn")
	v.SetDefault("logging.format", "console")
	v.SetDefault("logging.outputPath", "stderr")
}
