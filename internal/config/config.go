package config

import (
	"fmt"
	"log"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
)

type Config struct {
	Port  string `envconfig:"PORT" default:"8080"`
	Debug bool   `envconfig:"DEBUG" default:"false"`

	OpenAIAPIKey   string `envconfig:"OPENAI_API_KEY"`
	EmbeddingModel string `envconfig:"EMBEDDING_MODEL" default:"text-embedding-ada-002"`
	ChatModel      string `envconfig:"CHAT_MODEL" default:"gpt-3.5-turbo"`

	// SerpAPIKey is reserved for a web-search collaborator. Absence degrades
	// the fallback path to answering without web context.
	SerpAPIKey string `envconfig:"SERPAPI_KEY"`

	// Chunking
	ChunkSize     int `envconfig:"CHUNK_SIZE" default:"1000"`
	ChunkOverlap  int `envconfig:"CHUNK_OVERLAP" default:"200"`
	MinChunkChars int `envconfig:"MIN_CHUNK_CHARS" default:"50"`

	// SimilarityThreshold is a distance cutoff: smaller is more relevant,
	// results at or above it are considered too weak to answer from.
	SimilarityThreshold float64 `envconfig:"SIMILARITY_THRESHOLD" default:"0.5"`
	TopK                int     `envconfig:"TOP_K" default:"3"`

	MaxUploadBytes int64 `envconfig:"MAX_UPLOAD_BYTES" default:"10485760"`

	// Idle sessions are evicted in the background.
	SessionMaxIdle      time.Duration `envconfig:"SESSION_MAX_IDLE" default:"1h"`
	SessionReapInterval time.Duration `envconfig:"SESSION_REAP_INTERVAL" default:"5m"`

	// DatabaseURL switches sessions to the pgvector index strategy when set
	// and IndexBackend is "pgvector".
	DatabaseURL  string `envconfig:"DATABASE_URL"`
	IndexBackend string `envconfig:"INDEX_BACKEND" default:"memory"`

	S3Endpoint  string `envconfig:"S3_ENDPOINT"`
	S3AccessKey string `envconfig:"S3_ACCESS_KEY_ID"`
	S3SecretKey string `envconfig:"S3_SECRET_ACCESS_KEY"`
	S3Bucket    string `envconfig:"S3_BUCKET" default:"ira-uploads"`
	S3Region    string `envconfig:"S3_REGION" default:"us-east-1"`
}

func Load() (*Config, error) {
	_ = godotenv.Load()

	var cfg Config
	if err := envconfig.Process("IRA", &cfg); err != nil {
		return nil, fmt.Errorf("failed to process config: %w", err)
	}

	return &cfg, nil
}

func MustLoad() *Config {
	cfg, err := Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}
	return cfg
}

func (c *Config) HasOpenAI() bool {
	return c.OpenAIAPIKey != ""
}

func (c *Config) HasS3() bool {
	return c.S3Endpoint != "" && c.S3AccessKey != "" && c.S3SecretKey != ""
}

func (c *Config) UsePGVector() bool {
	return c.IndexBackend == "pgvector" && c.DatabaseURL != ""
}
