// ABOUTME: Centralized configuration for the video chat system
// ABOUTME: Loads from environment variables with validation and defaults
package config

import (
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/harper/vidchat/internal/models"
)

// Backend and provider names accepted in configuration
const (
	IndexMemory   = "memory"
	IndexSQLite   = "sqlite"
	IndexPGVector = "pgvector"

	StoreSQLite = "sqlite"
	StoreCharm  = "charm"
	StoreRedis  = "redis"

	EmbedderHash   = "hash"
	EmbedderOpenAI = "openai"

	ProviderOpenAI    = "openai"
	ProviderAnthropic = "anthropic"
	ProviderNone      = "none"

	AnalyzerNone   = "none"
	AnalyzerOpenAI = "openai"
)

// Config holds all configuration for the video chat system
type Config struct {
	// Storage layout
	DataDir      string
	IndexBackend string
	PGVectorDSN  string
	StoreBackend string

	// Redis settings
	RedisAddr     string
	RedisPassword string
	RedisDB       int

	// Charm settings
	CharmHost   string
	CharmDBName string
	AutoSync    bool

	// Provider settings
	OpenAIKey      string
	AnthropicKey   string
	Embedder       string
	EmbeddingModel string
	Generator      string
	ChatModel      string
	VisionModel    string
	AnthropicModel string
	FrameAnalyzer  string
	Timeout        time.Duration
	MaxRetries     int
	RetryDelay     time.Duration

	// Retrieval settings
	VectorDimension  int
	ChunkWords       int
	MaxContextFrames int
	MaxExcerptChars  int

	// Video processing settings
	FrameInterval     int
	MaxFramesPerVideo int
	MaxFileSize       int64
}

// Load reads configuration from environment variables
func Load() (*Config, error) {
	cfg := &Config{
		DataDir:           getEnv("VIDCHAT_DATA_DIR", DefaultDataDir()),
		IndexBackend:      strings.ToLower(getEnv("INDEX_BACKEND", IndexSQLite)),
		PGVectorDSN:       os.Getenv("PGVECTOR_DSN"),
		StoreBackend:      strings.ToLower(getEnv("STORE_BACKEND", StoreSQLite)),
		RedisAddr:         getEnv("REDIS_ADDR", "localhost:6379"),
		RedisPassword:     os.Getenv("REDIS_PASSWORD"),
		RedisDB:           getEnvInt("REDIS_DB", 0),
		CharmHost:         getEnv("CHARM_HOST", "cloud.charm.sh"),
		CharmDBName:       getEnv("CHARM_DB", "vidchat"),
		AutoSync:          getEnvBool("CHARM_AUTO_SYNC", true),
		OpenAIKey:         os.Getenv("OPENAI_API_KEY"),
		AnthropicKey:      os.Getenv("ANTHROPIC_API_KEY"),
		Embedder:          strings.ToLower(getEnv("EMBEDDER", EmbedderHash)),
		EmbeddingModel:    getEnv("EMBEDDING_MODEL", "text-embedding-3-small"),
		Generator:         strings.ToLower(getEnv("GENERATOR_PROVIDER", defaultGenerator())),
		ChatModel:         getEnv("CHAT_MODEL", "gpt-4o-mini"),
		VisionModel:       getEnv("VISION_MODEL", "gpt-4o"),
		AnthropicModel:    getEnv("ANTHROPIC_MODEL", "claude-sonnet-4-20250514"),
		FrameAnalyzer:     strings.ToLower(getEnv("FRAME_ANALYZER", AnalyzerNone)),
		Timeout:           getEnvDuration("OPENAI_TIMEOUT", 30*time.Second),
		MaxRetries:        getEnvInt("OPENAI_MAX_RETRIES", 3),
		RetryDelay:        getEnvDuration("OPENAI_RETRY_DELAY", 2*time.Second),
		VectorDimension:   getEnvInt("VECTOR_DIMENSION", 384),
		ChunkWords:        getEnvInt("CHUNK_WORDS", 500),
		MaxContextFrames:  getEnvInt("MAX_CONTEXT_FRAMES", 5),
		MaxExcerptChars:   getEnvInt("MAX_EXCERPT_CHARS", 8000),
		FrameInterval:     getEnvInt("FRAME_INTERVAL", 1),
		MaxFramesPerVideo: getEnvInt("MAX_FRAMES_PER_VIDEO", 300),
		MaxFileSize:       int64(getEnvInt("MAX_FILE_SIZE", 100*1024*1024)),
	}

	return cfg, cfg.Validate()
}

// Validate checks the configuration; every failure is a ConfigurationError
func (c *Config) Validate() error {
	switch c.IndexBackend {
	case IndexMemory:
	case IndexSQLite:
		if strings.TrimSpace(c.DataDir) == "" {
			return models.NewConfigurationError("VIDCHAT_DATA_DIR", "index path is required for the sqlite backend")
		}
	case IndexPGVector:
		if c.PGVectorDSN == "" {
			return models.NewConfigurationError("PGVECTOR_DSN", "connection string is required for the pgvector backend")
		}
	default:
		return models.NewConfigurationError("INDEX_BACKEND", "unknown backend %q", c.IndexBackend)
	}

	switch c.StoreBackend {
	case StoreSQLite, StoreCharm, StoreRedis:
	default:
		return models.NewConfigurationError("STORE_BACKEND", "unknown backend %q", c.StoreBackend)
	}

	switch c.Embedder {
	case EmbedderHash:
	case EmbedderOpenAI:
		if c.OpenAIKey == "" {
			return models.NewConfigurationError("OPENAI_API_KEY", "required for the openai embedder")
		}
	default:
		return models.NewConfigurationError("EMBEDDER", "unknown embedder %q", c.Embedder)
	}

	switch c.Generator {
	case ProviderOpenAI, ProviderAnthropic, ProviderNone:
	default:
		return models.NewConfigurationError("GENERATOR_PROVIDER", "unknown provider %q", c.Generator)
	}

	switch c.FrameAnalyzer {
	case AnalyzerNone, AnalyzerOpenAI:
	default:
		return models.NewConfigurationError("FRAME_ANALYZER", "unknown analyzer %q", c.FrameAnalyzer)
	}

	if c.VectorDimension <= 0 {
		return models.NewConfigurationError("VECTOR_DIMENSION", "must be positive, got %d", c.VectorDimension)
	}
	if c.ChunkWords <= 0 {
		return models.NewConfigurationError("CHUNK_WORDS", "must be positive, got %d", c.ChunkWords)
	}
	if c.MaxContextFrames <= 0 || c.MaxContextFrames > 50 {
		return models.NewConfigurationError("MAX_CONTEXT_FRAMES", "must be 1-50, got %d", c.MaxContextFrames)
	}
	if c.MaxExcerptChars < 0 {
		return models.NewConfigurationError("MAX_EXCERPT_CHARS", "must be >= 0, got %d", c.MaxExcerptChars)
	}
	if c.FrameInterval <= 0 {
		return models.NewConfigurationError("FRAME_INTERVAL", "must be positive, got %d", c.FrameInterval)
	}
	if c.MaxFramesPerVideo <= 0 {
		return models.NewConfigurationError("MAX_FRAMES_PER_VIDEO", "must be positive, got %d", c.MaxFramesPerVideo)
	}
	if c.MaxRetries < 0 || c.MaxRetries > 10 {
		return models.NewConfigurationError("OPENAI_MAX_RETRIES", "must be 0-10, got %d", c.MaxRetries)
	}
	return nil
}

// IndexPath is the sqlite file holding the vector index and the sqlite stores
func (c *Config) IndexPath() string {
	return filepath.Join(c.DataDir, "vidchat.db")
}

// FramesDir is where extracted frames are written, one directory per video
func (c *Config) FramesDir() string {
	return filepath.Join(c.DataDir, "frames")
}

// VideosDir is where uploaded videos are copied before processing
func (c *Config) VideosDir() string {
	return filepath.Join(c.DataDir, "videos")
}

// DefaultDataDir returns the default data directory following the XDG spec
func DefaultDataDir() string {
	dataHome := os.Getenv("XDG_DATA_HOME")
	if dataHome == "" {
		homeDir, err := os.UserHomeDir()
		if err != nil {
			return filepath.Join(".local", "share", "vidchat")
		}
		dataHome = filepath.Join(homeDir, ".local", "share")
	}
	return filepath.Join(dataHome, "vidchat")
}

// defaultGenerator picks the first provider with a key
func defaultGenerator() string {
	if os.Getenv("OPENAI_API_KEY") != "" {
		return ProviderOpenAI
	}
	if os.Getenv("ANTHROPIC_API_KEY") != "" {
		return ProviderAnthropic
	}
	return ProviderNone
}

// Helper functions
func getEnv(key, defaultVal string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return defaultVal
}

func getEnvBool(key string, defaultVal bool) bool {
	v := os.Getenv(key)
	if v == "" {
		return defaultVal
	}
	return v == "true" || v == "1"
}

func getEnvInt(key string, defaultVal int) int {
	if v := os.Getenv(key); v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
	}
	return defaultVal
}

func getEnvDuration(key string, defaultVal time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return defaultVal
}
