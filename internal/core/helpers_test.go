// ABOUTME: Shared fixtures for core tests: hash embedder, memory index, sqlite stores
// ABOUTME: Also provides failing collaborators for error-path tests
package core

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/harper/vidchat/internal/index"
	"github.com/harper/vidchat/internal/llm"
	"github.com/harper/vidchat/internal/models"
	"github.com/harper/vidchat/internal/storage/sqlite"
)

const testDim = 256

type fixture struct {
	index     *index.MemoryIndex
	embedder  *llm.HashEmbedder
	assembler *ContextAssembler
	ingestion *IngestionPipeline
	videos    *sqlite.VideoStore
	messages  *sqlite.MessageStore
}

func newFixture(t *testing.T, chunkWords int) *fixture {
	t.Helper()

	idx, err := index.NewMemoryIndex(testDim)
	require.NoError(t, err)
	emb, err := llm.NewHashEmbedder(testDim)
	require.NoError(t, err)

	assembler, err := NewContextAssembler(idx, emb, DefaultMaxExcerptChars)
	require.NoError(t, err)
	ingestion, err := NewIngestionPipeline(idx, emb, NewChunker(chunkWords))
	require.NoError(t, err)

	db, err := sqlite.OpenInMemory()
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	return &fixture{
		index:     idx,
		embedder:  emb,
		assembler: assembler,
		ingestion: ingestion,
		videos:    sqlite.NewVideoStore(db),
		messages:  sqlite.NewMessageStore(db),
	}
}

// readyVideo stores a ready video with the given transcript
func (f *fixture) readyVideo(t *testing.T, transcript string) *models.VideoInfo {
	t.Helper()
	info, err := models.NewVideoInfo("clip.mp4", 1024)
	require.NoError(t, err)
	info.Transcript = transcript
	info.Status = models.StatusReady
	require.NoError(t, f.videos.SaveVideo(context.Background(), info))
	return info
}

func catFrame(videoID string) models.Frame {
	frame := models.NewFrame(videoID, 1, 1, "/frames/"+videoID+"/frame_0001.jpg")
	frame.Objects = []string{"cat"}
	return frame
}

// failingEmbedder fails for any text containing trigger
type failingEmbedder struct {
	inner   Embedder
	trigger string
}

func (f failingEmbedder) Embed(ctx context.Context, text string) ([]float64, error) {
	if f.trigger == "" || strings.Contains(text, f.trigger) {
		return nil, errors.New("embedding service unavailable")
	}
	return f.inner.Embed(ctx, text)
}

func (f failingEmbedder) Dimension() int { return f.inner.Dimension() }

// brokenIndex answers every call with an error
type brokenIndex struct {
	dim int
}

var errIndexDown = errors.New("index unreachable")

func (b brokenIndex) Add(ctx context.Context, ns models.Namespace, rec models.Record) error {
	return errIndexDown
}

func (b brokenIndex) Query(ctx context.Context, ns models.Namespace, vector []float64, k int, filter models.Filter) ([]models.Hit, error) {
	return nil, errIndexDown
}

func (b brokenIndex) Delete(ctx context.Context, ns models.Namespace, filter models.Filter) (int, error) {
	return 0, errIndexDown
}

func (b brokenIndex) Count(ctx context.Context, ns models.Namespace, filter models.Filter) (int, error) {
	return 0, errIndexDown
}

func (b brokenIndex) List(ctx context.Context, ns models.Namespace, filter models.Filter) ([]models.Record, error) {
	return nil, errIndexDown
}

func (b brokenIndex) Dimension() int { return b.dim }

func (b brokenIndex) Close() error { return nil }

// stubGenerator returns a canned answer or error and records its inputs
type stubGenerator struct {
	content   string
	err       error
	gotBundle models.ContextBundle
	gotVision bool
	calls     int
}

func (s *stubGenerator) Name() string { return "stub" }

func (s *stubGenerator) Generate(ctx context.Context, query string, bundle models.ContextBundle, useVision bool) (models.Generation, error) {
	s.calls++
	s.gotBundle = bundle
	s.gotVision = useVision
	if s.err != nil {
		return models.Generation{}, s.err
	}
	return models.Generation{Content: s.content, Confidence: 0.8}, nil
}
