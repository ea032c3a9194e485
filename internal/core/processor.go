// ABOUTME: Processor runs decode, transcription, frame analysis and ingestion for uploaded videos
// ABOUTME: Each video is processed by one detached goroutine, supervised by video ID
package core

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/charmbracelet/log"

	"github.com/harper/vidchat/internal/logging"
	"github.com/harper/vidchat/internal/models"
	"github.com/harper/vidchat/internal/storage"
)

// DecodeResult is what a decoder extracts from a video file
type DecodeResult struct {
	Frames     []models.Frame
	Duration   float64
	FPS        float64
	Resolution string
}

// Decoder extracts timestamped frames and stream metadata from a video
type Decoder interface {
	Decode(ctx context.Context, videoPath, videoID string) (*DecodeResult, error)
}

// Transcriber turns a video's audio track into text
type Transcriber interface {
	Transcribe(ctx context.Context, videoPath string) (string, error)
}

// NoopTranscriber is used when no speech-to-text provider is configured
type NoopTranscriber struct{}

// Transcribe always returns an empty transcript
func (NoopTranscriber) Transcribe(ctx context.Context, videoPath string) (string, error) {
	return "", nil
}

// ProcessorConfig holds the collaborators and limits of a Processor
type ProcessorConfig struct {
	Videos      storage.VideoStore
	Decoder     Decoder
	Transcriber Transcriber
	Analyzer    FrameAnalyzer
	Ingestion   *IngestionPipeline
	// VideosDir, when set, receives a copy of every upload named <video-id><ext>
	VideosDir   string
	MaxFileSize int64
}

// Processor supervises background processing, one task per video ID
type Processor struct {
	cfg    ProcessorConfig
	logger *log.Logger

	mu      sync.Mutex
	running map[string]struct{}
	wg      sync.WaitGroup
}

// NewProcessor creates a processor; nil transcriber and analyzer fall back to no-ops
func NewProcessor(cfg ProcessorConfig) (*Processor, error) {
	if cfg.Videos == nil || cfg.Decoder == nil || cfg.Ingestion == nil {
		return nil, errors.New("processor needs a video store, a decoder, and an ingestion pipeline")
	}
	if cfg.Transcriber == nil {
		cfg.Transcriber = NoopTranscriber{}
	}
	if cfg.Analyzer == nil {
		cfg.Analyzer = PlaceholderAnalyzer{}
	}
	return &Processor{
		cfg:     cfg,
		logger:  logging.For("processor"),
		running: make(map[string]struct{}),
	}, nil
}

// Upload registers a local video file and starts processing it in the background
func (p *Processor) Upload(ctx context.Context, path string) (*models.VideoInfo, error) {
	info, storedPath, err := p.Register(ctx, path)
	if err != nil {
		return nil, err
	}
	if err := p.Submit(ctx, info, storedPath); err != nil {
		return nil, err
	}
	return info, nil
}

// Register validates the file, copies it into the videos directory, and
// records the video in the uploading state. It returns the path to process.
func (p *Processor) Register(ctx context.Context, path string) (*models.VideoInfo, string, error) {
	stat, err := os.Stat(path)
	if err != nil {
		return nil, "", fmt.Errorf("read video file: %w", err)
	}
	if stat.IsDir() {
		return nil, "", fmt.Errorf("%s is a directory", path)
	}
	if p.cfg.MaxFileSize > 0 && stat.Size() > p.cfg.MaxFileSize {
		return nil, "", fmt.Errorf("file too large: %d bytes exceeds limit of %d", stat.Size(), p.cfg.MaxFileSize)
	}

	info, err := models.NewVideoInfo(filepath.Base(path), stat.Size())
	if err != nil {
		return nil, "", err
	}

	storedPath := path
	if p.cfg.VideosDir != "" {
		info.Filename = info.ID + strings.ToLower(filepath.Ext(path))
		storedPath = filepath.Join(p.cfg.VideosDir, info.Filename)
		if err := copyFile(path, storedPath); err != nil {
			return nil, "", fmt.Errorf("store upload: %w", err)
		}
	}

	if err := p.cfg.Videos.SaveVideo(ctx, info); err != nil {
		return nil, "", err
	}
	p.logger.Info("registered video", "video_id", info.ID, "file", info.OriginalFilename, "bytes", info.FileSize)
	return info, storedPath, nil
}

// Submit starts background processing. A video that is still being
// processed is rejected with ErrAlreadyProcessing. The task is detached
// from ctx's cancellation and runs to completion.
func (p *Processor) Submit(ctx context.Context, info *models.VideoInfo, path string) error {
	p.mu.Lock()
	if _, busy := p.running[info.ID]; busy {
		p.mu.Unlock()
		return fmt.Errorf("%w: %s", models.ErrAlreadyProcessing, info.ID)
	}
	p.running[info.ID] = struct{}{}
	p.wg.Add(1)
	p.mu.Unlock()

	// the task owns its own copy; callers may keep reading info
	task := *info
	taskCtx := context.WithoutCancel(ctx)
	go func() {
		defer p.wg.Done()
		defer p.finish(task.ID)

		if err := p.Process(taskCtx, &task, path); err != nil {
			p.logger.Error("processing failed", "video_id", info.ID, "err", err)
		}
	}()
	return nil
}

// IsProcessing reports whether a background task for the video is running
func (p *Processor) IsProcessing(videoID string) bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	_, busy := p.running[videoID]
	return busy
}

// Wait blocks until every submitted task has finished
func (p *Processor) Wait() {
	p.wg.Wait()
}

func (p *Processor) finish(videoID string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	delete(p.running, videoID)
}

// Process runs the whole pipeline synchronously and leaves the video ready
// or failed. The returned error is the one recorded on the video.
func (p *Processor) Process(ctx context.Context, info *models.VideoInfo, path string) error {
	info.Status = models.StatusProcessing
	info.Error = ""
	if err := p.cfg.Videos.SaveVideo(ctx, info); err != nil {
		return err
	}

	decoded, err := p.cfg.Decoder.Decode(ctx, path, info.ID)
	if err != nil {
		return p.fail(ctx, info, fmt.Errorf("decode: %w", err))
	}
	info.Duration = decoded.Duration
	info.FPS = decoded.FPS
	info.Resolution = decoded.Resolution
	info.FrameCount = len(decoded.Frames)

	transcript, err := p.cfg.Transcriber.Transcribe(ctx, path)
	if err != nil {
		p.logger.Warn("transcription failed, continuing without transcript", "video_id", info.ID, "err", err)
		transcript = ""
	}
	info.Transcript = transcript

	frames := decoded.Frames
	for i := range frames {
		analysis, err := p.cfg.Analyzer.Analyze(ctx, frames[i])
		if err != nil {
			p.logger.Warn("frame analysis failed", "video_id", info.ID, "frame", frames[i].FrameNumber, "err", err)
			continue
		}
		frames[i].Apply(analysis)
		frames[i].Description = DescribeFrame(frames[i])
	}

	report, err := p.cfg.Ingestion.IngestVideo(ctx, info, frames)
	if err != nil {
		return p.fail(ctx, info, fmt.Errorf("ingest: %w", err))
	}
	if report.Chunks+report.Frames == 0 && report.Failed() > 0 {
		return p.fail(ctx, info, fmt.Errorf("ingest: nothing could be indexed: %w", errors.Join(report.Errors...)))
	}

	info.MarkReady(time.Now().UTC())
	if err := p.cfg.Videos.SaveVideo(ctx, info); err != nil {
		return err
	}
	p.logger.Info("video ready", "video_id", info.ID, "frames", info.FrameCount,
		"transcript_words", len(strings.Fields(transcript)), "duration", info.Duration)
	return nil
}

func (p *Processor) fail(ctx context.Context, info *models.VideoInfo, cause error) error {
	info.MarkFailed(cause)
	if err := p.cfg.Videos.SaveVideo(ctx, info); err != nil {
		return errors.Join(cause, err)
	}
	return cause
}

func copyFile(src, dst string) error {
	if err := os.MkdirAll(filepath.Dir(dst), 0755); err != nil {
		return err
	}
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer func() { _ = in.Close() }()

	out, err := os.Create(dst)
	if err != nil {
		return err
	}
	if _, err := io.Copy(out, in); err != nil {
		_ = out.Close()
		return err
	}
	return out.Close()
}
