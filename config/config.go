package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds all configuration for the coursebuddy backend.
type Config struct {
	General   GeneralConfig   `mapstructure:"general"`
	Canvas    CanvasConfig    `mapstructure:"canvas"`
	Providers ProvidersConfig `mapstructure:"providers"`
	Pinecone  PineconeConfig  `mapstructure:"pinecone"`
	Ingest    IngestConfig    `mapstructure:"ingest"`
	Memory    MemoryConfig    `mapstructure:"memory"`
	Storage   StorageConfig   `mapstructure:"storage"`
}

// GeneralConfig contains general application settings
type GeneralConfig struct {
	Listen    string `mapstructure:"listen"`
	Debug     bool   `mapstructure:"debug"`
	JWTSecret string `mapstructure:"jwt_secret"`
}

// CanvasConfig contains Canvas LMS API settings
type CanvasConfig struct {
	BaseURL      string        `mapstructure:"base_url"`
	AccessToken  string        `mapstructure:"access_token"`
	ClientID     string        `mapstructure:"client_id"`
	ClientSecret string        `mapstructure:"client_secret"`
	RedirectURI  string        `mapstructure:"redirect_uri"`
	PageCap      int           `mapstructure:"page_cap"`
	Timeout      time.Duration `mapstructure:"timeout"`
}

func (c CanvasConfig) Validate() error {
	if strings.TrimSpace(c.BaseURL) == "" {
		return fmt.Errorf("canvas.base_url required")
	}
	if strings.TrimSpace(c.AccessToken) == "" {
		return fmt.Errorf("canvas.access_token required")
	}
	return nil
}

// ProvidersConfig contains LLM provider configurations
type ProvidersConfig struct {
	OpenAI OpenAIConfig `mapstructure:"openai"`
}

// OpenAIConfig contains OpenAI API settings for completions and embeddings
type OpenAIConfig struct {
	APIKey          string        `mapstructure:"api_key"`
	BaseURL         string        `mapstructure:"base_url"`
	CompletionModel string        `mapstructure:"completion_model"`
	EmbeddingModel  string        `mapstructure:"embedding_model"`
	Temperature     float64       `mapstructure:"temperature"`
	MaxTokens       int           `mapstructure:"max_tokens"`
	EmbedBatchSize  int           `mapstructure:"embed_batch_size"`
	Timeout         time.Duration `mapstructure:"timeout"`
}

func (o OpenAIConfig) Validate() error {
	if strings.TrimSpace(o.APIKey) == "" {
		return fmt.Errorf("providers.openai.api_key required")
	}
	return nil
}

// PineconeConfig contains vector index settings
type PineconeConfig struct {
	APIKey      string        `mapstructure:"api_key"`
	IndexHost   string        `mapstructure:"index_host"`
	Dimension   int           `mapstructure:"dimension"`
	TopK        int           `mapstructure:"top_k"`
	UpsertBatch int           `mapstructure:"upsert_batch"`
	Timeout     time.Duration `mapstructure:"timeout"`
}

func (p PineconeConfig) Validate() error {
	if strings.TrimSpace(p.APIKey) == "" {
		return fmt.Errorf("pinecone.api_key required")
	}
	if strings.TrimSpace(p.IndexHost) == "" {
		return fmt.Errorf("pinecone.index_host required")
	}
	return nil
}

// IngestConfig contains chunking settings
type IngestConfig struct {
	MaxChars int `mapstructure:"max_chars"`
	Overlap  int `mapstructure:"overlap"`
}

func (i IngestConfig) Validate() error {
	if i.MaxChars <= 0 {
		return fmt.Errorf("ingest.max_chars must be > 0")
	}
	if i.Overlap < 0 || i.Overlap >= i.MaxChars {
		return fmt.Errorf("ingest.overlap must satisfy 0 <= overlap < max_chars")
	}
	return nil
}

// MemoryConfig contains session memory settings
type MemoryConfig struct {
	Redis         RedisConfig   `mapstructure:"redis"`
	TTL           time.Duration `mapstructure:"ttl"`
	HistoryWindow int           `mapstructure:"history_window"`
}

// RedisConfig contains Redis connection settings
type RedisConfig struct {
	Host     string `mapstructure:"host"`
	Port     string `mapstructure:"port"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
}

func (r RedisConfig) Validate() error {
	if strings.TrimSpace(r.Host) == "" {
		return fmt.Errorf("memory.redis.host required")
	}
	if strings.TrimSpace(r.Port) == "" {
		return fmt.Errorf("memory.redis.port required")
	}
	return nil
}

// StorageConfig contains optional relational storage settings
type StorageConfig struct {
	Postgres PostgresConfig `mapstructure:"postgres"`
}

// PostgresConfig contains Postgres connection settings for the ingestion
// audit log. Leave everything empty to disable the audit log.
type PostgresConfig struct {
	URL      string `mapstructure:"url"`
	Host     string `mapstructure:"host"`
	Port     string `mapstructure:"port"`
	User     string `mapstructure:"user"`
	Password string `mapstructure:"password"`
	DBName   string `mapstructure:"dbname"`
	SSLMode  string `mapstructure:"sslmode"`
}

// Enabled reports whether a Postgres target is configured at all.
func (p PostgresConfig) Enabled() bool {
	return strings.TrimSpace(p.URL) != "" || strings.TrimSpace(p.Host) != ""
}

// DSN builds a connection string from the individual fields unless a full
// URL was given.
func (p PostgresConfig) DSN() string {
	if strings.TrimSpace(p.URL) != "" {
		return p.URL
	}
	port := p.Port
	if port == "" {
		port = "5432"
	}
	ssl := p.SSLMode
	if ssl == "" {
		ssl = "disable"
	}
	return fmt.Sprintf("postgres://%s:%s@%s:%s/%s?sslmode=%s", p.User, p.Password, p.Host, port, p.DBName, ssl)
}

// LoadConfig loads config from file with COURSEBUDDY_* env overrides.
func LoadConfig(path string) *Config {
	viper.SetConfigName("config")
	viper.SetConfigType("json")

	viper.SetDefault("general.listen", ":8000")
	viper.SetDefault("canvas.page_cap", 500)
	viper.SetDefault("canvas.timeout", 30*time.Second)
	viper.SetDefault("providers.openai.completion_model", "gpt-4o-mini")
	viper.SetDefault("providers.openai.embedding_model", "text-embedding-3-large")
	viper.SetDefault("providers.openai.temperature", 0.2)
	viper.SetDefault("providers.openai.max_tokens", 400)
	viper.SetDefault("providers.openai.embed_batch_size", 50)
	viper.SetDefault("providers.openai.timeout", 60*time.Second)
	viper.SetDefault("pinecone.dimension", 3072)
	viper.SetDefault("pinecone.top_k", 20)
	viper.SetDefault("pinecone.upsert_batch", 100)
	viper.SetDefault("pinecone.timeout", 30*time.Second)
	viper.SetDefault("ingest.max_chars", 2000)
	viper.SetDefault("ingest.overlap", 200)
	viper.SetDefault("memory.ttl", 1800*time.Second)
	viper.SetDefault("memory.history_window", 5)
	viper.SetDefault("memory.redis.host", "localhost")
	viper.SetDefault("memory.redis.port", "6379")

	if path == "" {
		viper.AddConfigPath("./config")
		viper.AddConfigPath(".")
	} else {
		viper.SetConfigFile(path)
	}

	viper.SetEnvPrefix("COURSEBUDDY")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err != nil {
		if _, notFound := err.(viper.ConfigFileNotFoundError); !notFound {
			panic(fmt.Errorf("fatal error config file: %w", err))
		}
	}

	var config Config
	if err := viper.Unmarshal(&config); err != nil {
		panic(fmt.Errorf("fatal error config file: %w", err))
	}

	if err := config.Ingest.Validate(); err != nil {
		panic(err)
	}
	if err := config.Memory.Redis.Validate(); err != nil {
		panic(err)
	}
	return &config
}
