// ABOUTME: Shared test helpers for CLI commands
// ABOUTME: Swaps in an offline application and runs commands through the root command
package commands

import (
	"bytes"
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/harper/vidchat/internal/app"
	"github.com/harper/vidchat/internal/config"
	"github.com/harper/vidchat/internal/models"
)

// useOfflineApp points every command at a sqlite-backed app in a temp dir
func useOfflineApp(t *testing.T) *config.Config {
	t.Helper()
	cfg := &config.Config{
		DataDir:           t.TempDir(),
		IndexBackend:      config.IndexSQLite,
		StoreBackend:      config.StoreSQLite,
		Embedder:          config.EmbedderHash,
		Generator:         config.ProviderNone,
		FrameAnalyzer:     config.AnalyzerNone,
		VectorDimension:   64,
		ChunkWords:        4,
		MaxContextFrames:  5,
		MaxExcerptChars:   8000,
		FrameInterval:     1,
		MaxFramesPerVideo: 10,
		MaxFileSize:       1 << 20,
	}

	original := newApp
	newApp = func(ctx context.Context) (*app.App, error) {
		c := *cfg
		return app.New(ctx, &c)
	}
	t.Cleanup(func() { newApp = original })
	return cfg
}

// seedVideo stores a ready video with a transcript and one indexed cat frame
func seedVideo(t *testing.T) *models.VideoInfo {
	t.Helper()
	ctx := context.Background()
	a, err := newApp(ctx)
	require.NoError(t, err)
	defer func() { _ = a.Close() }()

	info, err := models.NewVideoInfo("cats.mp4", 2048)
	require.NoError(t, err)
	info.Transcript = "the cat sat on the mat and looked at the camera"
	info.Duration = 75
	info.FrameCount = 1
	info.MarkReady(info.UploadedAt)
	require.NoError(t, a.Store.SaveVideo(ctx, info))

	frame := models.NewFrame(info.ID, 3, 3, "/frames/cats/frame_0004.jpg")
	frame.Objects = []string{"cat", "mat"}
	_, err = a.Ingestion.IngestVideo(ctx, info, []models.Frame{frame})
	require.NoError(t, err)
	return info
}

func runCmd(t *testing.T, args ...string) (string, error) {
	t.Helper()
	cmd := NewRootCmd()
	var output bytes.Buffer
	cmd.SetOut(&output)
	cmd.SetErr(&output)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return output.String(), err
}

func findSubstring(s, substr string) bool {
	return strings.Contains(s, substr)
}
