// ABOUTME: Builds the index, stores, providers and services from configuration
// ABOUTME: Shared by the CLI, the MCP server, and the benchmark runner
package app

import (
	"context"
	"errors"
	"fmt"

	"github.com/charmbracelet/log"

	"github.com/harper/vidchat/internal/charm"
	"github.com/harper/vidchat/internal/config"
	"github.com/harper/vidchat/internal/core"
	"github.com/harper/vidchat/internal/index"
	"github.com/harper/vidchat/internal/llm"
	"github.com/harper/vidchat/internal/logging"
	"github.com/harper/vidchat/internal/media"
	"github.com/harper/vidchat/internal/models"
	"github.com/harper/vidchat/internal/storage"
	"github.com/harper/vidchat/internal/storage/redis"
	"github.com/harper/vidchat/internal/storage/sqlite"
)

// App holds every long-lived component of one process
type App struct {
	Config    *config.Config
	Index     index.Index
	Embedder  core.Embedder
	Store     storage.Store
	Generator core.Generator
	Assembler *core.ContextAssembler
	Ingestion *core.IngestionPipeline
	Chat      *core.ChatService
	Processor *core.Processor

	openai *llm.OpenAIClient
	db     *sqlite.DB
	logger *log.Logger
}

// New wires the application; it fails fast on any ConfigurationError
func New(ctx context.Context, cfg *config.Config) (*App, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	a := &App{Config: cfg, logger: logging.For("app")}
	ok := false
	defer func() {
		if !ok {
			_ = a.Close()
		}
	}()

	if cfg.OpenAIKey != "" {
		client, err := llm.NewOpenAIClient(a.clientConfig(cfg.OpenAIKey, cfg.ChatModel))
		if err != nil {
			return nil, err
		}
		a.openai = client
	}

	var err error
	if a.Embedder, err = a.buildEmbedder(); err != nil {
		return nil, err
	}
	// assigned only on success so Close never sees a typed nil
	idx, err := a.buildIndex(ctx)
	if err != nil {
		return nil, err
	}
	a.Index = idx
	store, err := a.buildStore(ctx)
	if err != nil {
		return nil, err
	}
	a.Store = store
	if a.Generator, err = a.buildGenerator(); err != nil {
		return nil, err
	}

	if a.Assembler, err = core.NewContextAssembler(a.Index, a.Embedder, cfg.MaxExcerptChars); err != nil {
		return nil, err
	}
	if a.Ingestion, err = core.NewIngestionPipeline(a.Index, a.Embedder, core.NewChunker(cfg.ChunkWords)); err != nil {
		return nil, err
	}
	a.Chat = core.NewChatService(a.Store, a.Store, a.Assembler, a.Ingestion, a.Generator, cfg.MaxContextFrames)

	tools := media.Tools{}
	processor, err := core.NewProcessor(core.ProcessorConfig{
		Videos:      a.Store,
		Decoder:     media.NewFFmpegDecoder(tools, cfg.FramesDir(), cfg.FrameInterval, cfg.MaxFramesPerVideo),
		Transcriber: a.buildTranscriber(tools),
		Analyzer:    a.buildAnalyzer(),
		Ingestion:   a.Ingestion,
		VideosDir:   cfg.VideosDir(),
		MaxFileSize: cfg.MaxFileSize,
	})
	if err != nil {
		return nil, err
	}
	a.Processor = processor

	a.logger.Debug("initialized", "index", cfg.IndexBackend, "store", cfg.StoreBackend,
		"embedder", cfg.Embedder, "generator", a.Generator.Name(), "dimension", a.Index.Dimension())
	ok = true
	return a, nil
}

// Close waits for background processing, then releases every backend
func (a *App) Close() error {
	if a.Processor != nil {
		a.Processor.Wait()
	}
	var errs []error
	if a.Store != nil {
		errs = append(errs, a.Store.Close())
	}
	if a.Index != nil {
		errs = append(errs, a.Index.Close())
	}
	if a.db != nil {
		errs = append(errs, a.db.Close())
	}
	return errors.Join(errs...)
}

func (a *App) clientConfig(apiKey, chatModel string) *llm.ClientConfig {
	cfg := a.Config
	cc := llm.DefaultConfig(apiKey)
	cc.ChatModel = chatModel
	cc.VisionModel = cfg.VisionModel
	cc.EmbeddingModel = cfg.EmbeddingModel
	cc.EmbeddingDimension = cfg.VectorDimension
	cc.Timeout = cfg.Timeout
	cc.MaxRetries = cfg.MaxRetries
	cc.RetryDelay = cfg.RetryDelay
	return cc
}

// sharedDB opens the sqlite file once for the index and the stores
func (a *App) sharedDB() (*sqlite.DB, error) {
	if a.db != nil {
		return a.db, nil
	}
	db, err := sqlite.Open(a.Config.IndexPath())
	if err != nil {
		return nil, err
	}
	a.db = db
	return db, nil
}

func (a *App) buildEmbedder() (core.Embedder, error) {
	switch a.Config.Embedder {
	case config.EmbedderOpenAI:
		if a.openai == nil {
			return nil, models.NewConfigurationError("OPENAI_API_KEY", "required for the openai embedder")
		}
		return a.openai, nil
	default:
		return llm.NewHashEmbedder(a.Config.VectorDimension)
	}
}

func (a *App) buildIndex(ctx context.Context) (index.Index, error) {
	dim := a.Config.VectorDimension
	switch a.Config.IndexBackend {
	case config.IndexMemory:
		return index.NewMemoryIndex(dim)
	case config.IndexPGVector:
		return index.NewPGVectorIndex(ctx, a.Config.PGVectorDSN, dim)
	default:
		db, err := a.sharedDB()
		if err != nil {
			return nil, err
		}
		return index.NewSQLiteIndex(db, dim)
	}
}

func (a *App) buildStore(ctx context.Context) (storage.Store, error) {
	cfg := a.Config
	switch cfg.StoreBackend {
	case config.StoreCharm:
		return charm.Open(&charm.Config{Host: cfg.CharmHost, DBName: cfg.CharmDBName, AutoSync: cfg.AutoSync})
	case config.StoreRedis:
		return redis.Open(ctx, redis.Options{Addr: cfg.RedisAddr, Password: cfg.RedisPassword, DB: cfg.RedisDB})
	default:
		db, err := a.sharedDB()
		if err != nil {
			return nil, err
		}
		return sqlite.NewStorageWithDB(db), nil
	}
}

func (a *App) buildGenerator() (core.Generator, error) {
	cfg := a.Config
	switch cfg.Generator {
	case config.ProviderOpenAI:
		if a.openai == nil {
			return nil, models.NewConfigurationError("OPENAI_API_KEY", "required for the openai generator")
		}
		return llm.NewOpenAIGenerator(a.openai), nil
	case config.ProviderAnthropic:
		if cfg.AnthropicKey == "" {
			return nil, models.NewConfigurationError("ANTHROPIC_API_KEY", "required for the anthropic generator")
		}
		return llm.NewAnthropicGenerator(a.clientConfig(cfg.AnthropicKey, cfg.AnthropicModel))
	default:
		return llm.StaticGenerator{}, nil
	}
}

func (a *App) buildAnalyzer() core.FrameAnalyzer {
	if a.Config.FrameAnalyzer == config.AnalyzerOpenAI && a.openai != nil {
		return llm.NewVisionAnalyzer(a.openai)
	}
	return core.PlaceholderAnalyzer{}
}

func (a *App) buildTranscriber(tools media.Tools) core.Transcriber {
	if a.openai == nil {
		a.logger.Debug("no OPENAI_API_KEY, videos will have empty transcripts")
		return core.NoopTranscriber{}
	}
	return media.NewAudioTranscriber(tools, a.openai)
}

// Describe summarises the wiring for the status output
func (a *App) Describe() string {
	return fmt.Sprintf("index=%s store=%s embedder=%s generator=%s dim=%d",
		a.Config.IndexBackend, a.Config.StoreBackend, a.Config.Embedder, a.Generator.Name(), a.Index.Dimension())
}
