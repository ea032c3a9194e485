// ABOUTME: Tests for the ingestion pipeline
// ABOUTME: Covers stale chunk cleanup, per-item failures, and chat turn indexing
package core

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/harper/vidchat/internal/models"
)

func TestIngestVideo_Counts(t *testing.T) {
	f := newFixture(t, 3)
	ctx := context.Background()

	info := f.readyVideo(t, "the cat sat on the mat again")
	frames := []models.Frame{catFrame(info.ID), catFrame(info.ID)}

	report, err := f.ingestion.IngestVideo(ctx, info, frames)
	require.NoError(t, err)
	assert.Equal(t, info.ID, report.VideoID)
	assert.Equal(t, 3, report.Chunks)
	assert.Equal(t, 2, report.Frames)
	assert.Zero(t, report.Failed())

	n, err := f.index.Count(ctx, models.NamespaceTranscript, models.VideoFilter(info.ID))
	require.NoError(t, err)
	assert.Equal(t, 3, n)
	n, err = f.index.Count(ctx, models.NamespaceFrames, models.VideoFilter(info.ID))
	require.NoError(t, err)
	assert.Equal(t, 2, n)
}

func TestIngestVideo_ClearsStaleChunks(t *testing.T) {
	f := newFixture(t, 2)
	ctx := context.Background()

	info := f.readyVideo(t, "one two three four five six")
	_, err := f.ingestion.IngestVideo(ctx, info, nil)
	require.NoError(t, err)

	info.Transcript = "one two"
	report, err := f.ingestion.IngestVideo(ctx, info, nil)
	require.NoError(t, err)
	assert.Equal(t, 3, report.StaleRemoved)
	assert.Equal(t, 1, report.Chunks)

	n, err := f.index.Count(ctx, models.NamespaceTranscript, models.VideoFilter(info.ID))
	require.NoError(t, err)
	assert.Equal(t, 1, n)
}

func TestIngestVideo_KeepsStaleChunksWhenDisabled(t *testing.T) {
	f := newFixture(t, 2)
	ctx := context.Background()
	f.ingestion.ClearStaleChunks = false

	info := f.readyVideo(t, "one two three four five six")
	_, err := f.ingestion.IngestVideo(ctx, info, nil)
	require.NoError(t, err)

	info.Transcript = "uno dos"
	report, err := f.ingestion.IngestVideo(ctx, info, nil)
	require.NoError(t, err)
	assert.Zero(t, report.StaleRemoved)

	// chunk 0 is overwritten in place, chunks 1 and 2 survive
	n, err := f.index.Count(ctx, models.NamespaceTranscript, models.VideoFilter(info.ID))
	require.NoError(t, err)
	assert.Equal(t, 3, n)
}

func TestIngestVideo_SkipsFailedItems(t *testing.T) {
	f := newFixture(t, 2)
	ctx := context.Background()

	pipeline, err := NewIngestionPipeline(f.index, failingEmbedder{inner: f.embedder, trigger: "poison"}, NewChunker(2))
	require.NoError(t, err)

	info := f.readyVideo(t, "good words poison here more words")
	bad := catFrame(info.ID)
	bad.SceneDescription = "poison"
	frames := []models.Frame{catFrame(info.ID), bad}

	report, err := pipeline.IngestVideo(ctx, info, frames)
	require.NoError(t, err)
	assert.Equal(t, 2, report.Chunks)
	assert.Equal(t, 1, report.Frames)
	require.Equal(t, 2, report.Failed())

	var ingestErr *models.IngestionError
	require.ErrorAs(t, report.Errors[0], &ingestErr)
	assert.Equal(t, models.NamespaceTranscript, ingestErr.Namespace)
	assert.Equal(t, models.TranscriptChunkID(info.ID, 1), ingestErr.RecordID)

	require.ErrorAs(t, report.Errors[1], &ingestErr)
	assert.Equal(t, models.NamespaceFrames, ingestErr.Namespace)
	assert.Equal(t, bad.ID, ingestErr.RecordID)
}

func TestIngestVideo_CleanupFailure(t *testing.T) {
	f := newFixture(t, 2)
	pipeline, err := NewIngestionPipeline(brokenIndex{dim: testDim}, f.embedder, nil)
	require.NoError(t, err)

	info := f.readyVideo(t, "hello")
	_, err = pipeline.IngestVideo(context.Background(), info, nil)
	assert.ErrorIs(t, err, errIndexDown)
}

func TestFrameRecord(t *testing.T) {
	frame := models.NewFrame("vid", 2.5, 3, "/frames/vid/frame_0003.jpg")
	frame.Actions = []string{"jumping"}

	rec := FrameRecord(frame)
	assert.Equal(t, frame.ID, rec.ID)
	assert.Equal(t, "Actions: jumping | Timestamp: 2.50 seconds", rec.Document)
	assert.Equal(t, "vid", rec.Metadata[models.MetaVideoID])
	assert.Equal(t, "frame", rec.Metadata[models.MetaType])
	assert.Equal(t, "2.5", rec.Metadata[models.MetaTimestamp])
	assert.Equal(t, "3", rec.Metadata[models.MetaFrameNumber])
	assert.Equal(t, "[]", rec.Metadata[models.MetaObjects])
	assert.Equal(t, `["jumping"]`, rec.Metadata[models.MetaActions])
}

func TestFrameFromRecord(t *testing.T) {
	frame := models.NewFrame("vid", 2.5, 3, "/frames/vid/frame_0003.jpg")
	frame.Objects = []string{"dog", "ball"}
	frame.Actions = []string{"jumping"}
	frame.SceneDescription = "a park"

	got := FrameFromRecord(FrameRecord(frame))
	assert.Equal(t, frame.ID, got.ID)
	assert.Equal(t, "vid", got.VideoID)
	assert.Equal(t, 2.5, got.Timestamp)
	assert.Equal(t, 3, got.FrameNumber)
	assert.Equal(t, frame.ImagePath, got.ImagePath)
	assert.Equal(t, frame.Objects, got.Objects)
	assert.Equal(t, frame.Actions, got.Actions)
	assert.Equal(t, "a park", got.SceneDescription)
	assert.Equal(t, DescribeFrame(frame), got.Description)
}

func TestIngestChatMessage(t *testing.T) {
	f := newFixture(t, 500)
	ctx := context.Background()

	msg, err := models.NewChatMessage("vid", models.RoleAssistant, "The cat jumps at 3 seconds", []string{"f1", "f2"})
	require.NoError(t, err)
	require.NoError(t, f.ingestion.IngestChatMessage(ctx, msg))

	vector, err := f.embedder.Embed(ctx, "cat jumps")
	require.NoError(t, err)
	hits, err := f.index.Query(ctx, models.NamespaceChat, vector, 5, models.VideoFilter("vid"))
	require.NoError(t, err)
	require.Len(t, hits, 1)

	hit := hits[0]
	assert.Equal(t, msg.ID, hit.ID)
	assert.Equal(t, msg.Content, hit.Document)
	assert.Equal(t, "assistant", hit.Metadata[models.MetaRole])
	assert.Equal(t, "chat", hit.Metadata[models.MetaType])

	var frameIDs []string
	require.NoError(t, json.Unmarshal([]byte(hit.Metadata[models.MetaContextFrameIDs]), &frameIDs))
	assert.Equal(t, []string{"f1", "f2"}, frameIDs)

	removed, err := f.ingestion.ForgetChat(ctx, "vid")
	require.NoError(t, err)
	assert.Equal(t, 1, removed)
}
