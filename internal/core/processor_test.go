// ABOUTME: Tests for background video processing with a fake decoder
// ABOUTME: Status transitions, duplicate submission, and degraded transcription
package core

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/harper/vidchat/internal/models"
)

// fakeDecoder yields n cat frames, optionally waiting on gate first
type fakeDecoder struct {
	frames int
	err    error
	gate   chan struct{}
}

func (d *fakeDecoder) Decode(ctx context.Context, videoPath, videoID string) (*DecodeResult, error) {
	if d.gate != nil {
		<-d.gate
	}
	if d.err != nil {
		return nil, d.err
	}
	frames := make([]models.Frame, 0, d.frames)
	for i := 0; i < d.frames; i++ {
		frames = append(frames, models.NewFrame(videoID, float64(i), i, filepath.Join("/frames", videoID, "f.jpg")))
	}
	return &DecodeResult{Frames: frames, Duration: float64(d.frames), FPS: 30, Resolution: "640x480"}, nil
}

type fakeTranscriber struct {
	text string
	err  error
}

func (t fakeTranscriber) Transcribe(ctx context.Context, videoPath string) (string, error) {
	return t.text, t.err
}

type catAnalyzer struct{}

func (catAnalyzer) Analyze(ctx context.Context, frame models.Frame) (models.FrameAnalysis, error) {
	return models.FrameAnalysis{Objects: []string{"cat"}, Actions: []string{"sitting"}}, nil
}

func writeVideo(t *testing.T, size int) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "Clip.MP4")
	require.NoError(t, os.WriteFile(path, make([]byte, size), 0644))
	return path
}

func newProcessor(t *testing.T, f *fixture, dec Decoder, tr Transcriber) (*Processor, string) {
	t.Helper()
	videosDir := t.TempDir()
	p, err := NewProcessor(ProcessorConfig{
		Videos:      f.videos,
		Decoder:     dec,
		Transcriber: tr,
		Analyzer:    catAnalyzer{},
		Ingestion:   f.ingestion,
		VideosDir:   videosDir,
		MaxFileSize: 1024,
	})
	require.NoError(t, err)
	return p, videosDir
}

func TestProcessor_UploadToReady(t *testing.T) {
	f := newFixture(t, 500)
	ctx := context.Background()
	p, videosDir := newProcessor(t, f, &fakeDecoder{frames: 3}, fakeTranscriber{text: "a cat sits quietly"})

	info, err := p.Upload(ctx, writeVideo(t, 100))
	require.NoError(t, err)
	assert.Equal(t, "Clip.MP4", info.OriginalFilename)
	assert.Equal(t, info.ID+".mp4", info.Filename)
	assert.FileExists(t, filepath.Join(videosDir, info.Filename))

	p.Wait()
	assert.False(t, p.IsProcessing(info.ID))

	stored, err := f.videos.GetVideo(ctx, info.ID)
	require.NoError(t, err)
	assert.Equal(t, models.StatusReady, stored.Status)
	assert.Equal(t, 3, stored.FrameCount)
	assert.Equal(t, "640x480", stored.Resolution)
	assert.Equal(t, "a cat sits quietly", stored.Transcript)
	assert.NotNil(t, stored.ProcessedAt)
	assert.Empty(t, stored.Error)

	bundle, err := f.assembler.GetContext(ctx, "cat", info.ID, 5)
	require.NoError(t, err)
	require.Len(t, bundle.Frames, 3)
	assert.Contains(t, bundle.Frames[0].Description, "Objects: cat")
	assert.Contains(t, bundle.Frames[0].Description, "Actions: sitting")
}

func TestProcessor_DecodeFailure(t *testing.T) {
	f := newFixture(t, 500)
	ctx := context.Background()
	p, _ := newProcessor(t, f, &fakeDecoder{err: errors.New("corrupt container")}, nil)

	info, err := p.Upload(ctx, writeVideo(t, 10))
	require.NoError(t, err)
	p.Wait()

	stored, err := f.videos.GetVideo(ctx, info.ID)
	require.NoError(t, err)
	assert.Equal(t, models.StatusError, stored.Status)
	assert.Contains(t, stored.Error, "corrupt container")
	assert.Nil(t, stored.ProcessedAt)
}

func TestProcessor_TranscriptionFailureStillReady(t *testing.T) {
	f := newFixture(t, 500)
	ctx := context.Background()
	p, _ := newProcessor(t, f, &fakeDecoder{frames: 1}, fakeTranscriber{err: errors.New("no audio stream")})

	info, _, err := p.Register(ctx, writeVideo(t, 10))
	require.NoError(t, err)
	require.NoError(t, p.Process(ctx, info, "unused"))

	stored, err := f.videos.GetVideo(ctx, info.ID)
	require.NoError(t, err)
	assert.Equal(t, models.StatusReady, stored.Status)
	assert.Empty(t, stored.Transcript)
}

func TestProcessor_NothingIndexedFails(t *testing.T) {
	f := newFixture(t, 500)
	ctx := context.Background()

	pipeline, err := NewIngestionPipeline(f.index, failingEmbedder{inner: f.embedder}, nil)
	require.NoError(t, err)
	p, err := NewProcessor(ProcessorConfig{
		Videos:    f.videos,
		Decoder:   &fakeDecoder{frames: 2},
		Ingestion: pipeline,
	})
	require.NoError(t, err)

	info, _, err := p.Register(ctx, writeVideo(t, 10))
	require.NoError(t, err)
	err = p.Process(ctx, info, "unused")
	require.Error(t, err)

	stored, err := f.videos.GetVideo(ctx, info.ID)
	require.NoError(t, err)
	assert.Equal(t, models.StatusError, stored.Status)
	assert.Contains(t, stored.Error, "nothing could be indexed")
}

func TestProcessor_AlreadyProcessing(t *testing.T) {
	f := newFixture(t, 500)
	ctx := context.Background()
	dec := &fakeDecoder{frames: 1, gate: make(chan struct{})}
	p, _ := newProcessor(t, f, dec, nil)

	info, path, err := p.Register(ctx, writeVideo(t, 10))
	require.NoError(t, err)
	require.NoError(t, p.Submit(ctx, info, path))
	assert.True(t, p.IsProcessing(info.ID))

	err = p.Submit(ctx, info, path)
	assert.ErrorIs(t, err, models.ErrAlreadyProcessing)

	close(dec.gate)
	p.Wait()
	assert.False(t, p.IsProcessing(info.ID))
}

func TestProcessor_SurvivesCallerCancel(t *testing.T) {
	f := newFixture(t, 500)
	ctx, cancel := context.WithCancel(context.Background())
	dec := &fakeDecoder{frames: 1, gate: make(chan struct{})}
	p, _ := newProcessor(t, f, dec, nil)

	info, err := p.Upload(ctx, writeVideo(t, 10))
	require.NoError(t, err)
	cancel()
	close(dec.gate)
	p.Wait()

	stored, err := f.videos.GetVideo(context.Background(), info.ID)
	require.NoError(t, err)
	assert.Equal(t, models.StatusReady, stored.Status)
}

func TestProcessor_Register(t *testing.T) {
	f := newFixture(t, 500)
	p, _ := newProcessor(t, f, &fakeDecoder{}, nil)
	ctx := context.Background()

	_, _, err := p.Register(ctx, writeVideo(t, 2048))
	assert.ErrorContains(t, err, "file too large")

	_, _, err = p.Register(ctx, filepath.Join(t.TempDir(), "missing.mp4"))
	assert.Error(t, err)

	_, _, err = p.Register(ctx, t.TempDir())
	assert.ErrorContains(t, err, "directory")

	info, _, err := p.Register(ctx, writeVideo(t, 10))
	require.NoError(t, err)
	stored, err := f.videos.GetVideo(ctx, info.ID)
	require.NoError(t, err)
	assert.Equal(t, models.StatusUploading, stored.Status)
}

func TestNewProcessor_RequiresCollaborators(t *testing.T) {
	_, err := NewProcessor(ProcessorConfig{})
	assert.Error(t, err)
}
