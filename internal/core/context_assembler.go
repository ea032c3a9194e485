// ABOUTME: ContextAssembler turns a question into a ranked, bounded ContextBundle for one video
// ABOUTME: It embeds the query once, over-fetches frames and transcript, then ranks and trims
package core

import (
	"context"
	"math"
	"sort"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/charmbracelet/log"

	"github.com/harper/vidchat/internal/index"
	"github.com/harper/vidchat/internal/logging"
	"github.com/harper/vidchat/internal/models"
)

const (
	// DefaultMaxFrames is used when a caller asks for zero or fewer frames
	DefaultMaxFrames = 5
	// DefaultMaxExcerptChars bounds the transcript excerpt handed to the generator
	DefaultMaxExcerptChars = 8000
	overFetchFactor        = 2
)

// ContextAssembler orchestrates the embedder and the index
type ContextAssembler struct {
	index           index.Index
	embedder        Embedder
	maxExcerptChars int
	logger          *log.Logger
}

// NewContextAssembler wires an index and an embedder of matching dimension.
// maxExcerptChars of 0 disables the excerpt cap; negative uses the default.
func NewContextAssembler(idx index.Index, embedder Embedder, maxExcerptChars int) (*ContextAssembler, error) {
	if err := index.Check(idx, embedder.Dimension()); err != nil {
		return nil, err
	}
	if maxExcerptChars < 0 {
		maxExcerptChars = DefaultMaxExcerptChars
	}
	return &ContextAssembler{
		index:           idx,
		embedder:        embedder,
		maxExcerptChars: maxExcerptChars,
		logger:          logging.For("context"),
	}, nil
}

// GetContext retrieves at most maxFrames frames and a transcript excerpt relevant to query.
// Any embedder or index failure is returned as a RetrievalError.
func (a *ContextAssembler) GetContext(ctx context.Context, query, videoID string, maxFrames int) (models.ContextBundle, error) {
	if maxFrames <= 0 {
		maxFrames = DefaultMaxFrames
	}
	k := overFetchFactor * maxFrames
	filter := models.VideoFilter(videoID)

	vector, err := a.embedder.Embed(ctx, query)
	if err != nil {
		return models.ContextBundle{}, &models.RetrievalError{VideoID: videoID, Err: err}
	}

	frameHits, err := a.index.Query(ctx, models.NamespaceFrames, vector, k, filter)
	if err != nil {
		return models.ContextBundle{}, &models.RetrievalError{VideoID: videoID, Err: err}
	}
	transcriptHits, err := a.index.Query(ctx, models.NamespaceTranscript, vector, k, filter)
	if err != nil {
		return models.ContextBundle{}, &models.RetrievalError{VideoID: videoID, Err: err}
	}

	frames := make([]models.FrameContext, 0, len(frameHits))
	for _, hit := range frameHits {
		frames = append(frames, frameContext(hit))
	}
	sort.SliceStable(frames, func(i, j int) bool {
		return frames[i].Relevance > frames[j].Relevance
	})
	if len(frames) > maxFrames {
		frames = frames[:maxFrames]
	}

	docs := make([]string, 0, len(transcriptHits))
	for _, hit := range transcriptHits {
		docs = append(docs, hit.Document)
	}
	excerpt := capExcerpt(strings.Join(docs, " "), a.maxExcerptChars)

	a.logger.Debug("assembled context", "video_id", videoID, "frames", len(frames), "transcript_chunks", len(docs), "excerpt_chars", len(excerpt))

	return models.ContextBundle{Frames: frames, Transcript: excerpt}, nil
}

// Relevance converts a cosine distance into a score clamped to [0,1]
func Relevance(distance float64) float64 {
	r := 1 - distance
	switch {
	case math.IsNaN(r), r < 0:
		return 0
	case r > 1:
		return 1
	}
	return r
}

// Frames returns every indexed frame of a video ordered by timestamp
func (a *ContextAssembler) Frames(ctx context.Context, videoID string) ([]models.Frame, error) {
	records, err := a.index.List(ctx, models.NamespaceFrames, models.VideoFilter(videoID))
	if err != nil {
		return nil, &models.RetrievalError{VideoID: videoID, Err: err}
	}

	frames := make([]models.Frame, 0, len(records))
	for _, rec := range records {
		frames = append(frames, FrameFromRecord(rec))
	}
	sort.SliceStable(frames, func(i, j int) bool {
		if frames[i].Timestamp != frames[j].Timestamp {
			return frames[i].Timestamp < frames[j].Timestamp
		}
		return frames[i].FrameNumber < frames[j].FrameNumber
	})
	return frames, nil
}

func frameContext(hit models.Hit) models.FrameContext {
	frameID := hit.Metadata[models.MetaFrameID]
	if frameID == "" {
		frameID = hit.ID
	}
	ts, _ := strconv.ParseFloat(hit.Metadata[models.MetaTimestamp], 64)
	return models.FrameContext{
		FrameID:     frameID,
		ImagePath:   hit.Metadata[models.MetaImagePath],
		Timestamp:   ts,
		Description: hit.Document,
		Relevance:   Relevance(hit.Distance),
	}
}

// capExcerpt trims text to at most limit bytes, cutting at the last word boundary
func capExcerpt(text string, limit int) string {
	if limit <= 0 || len(text) <= limit {
		return text
	}
	// a limit landing on a space already ends on a whole word
	if text[limit] == ' ' {
		return strings.TrimSpace(text[:limit])
	}
	for limit > 0 && !utf8.RuneStart(text[limit]) {
		limit--
	}
	cut := text[:limit]
	if i := strings.LastIndexByte(cut, ' '); i > 0 {
		cut = cut[:i]
	}
	return strings.TrimSpace(cut)
}
