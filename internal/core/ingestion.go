// ABOUTME: IngestionPipeline feeds frames, transcript chunks, and chat turns into the vector index
// ABOUTME: Failures are per item: a bad frame or chunk is logged and skipped, never fatal
package core

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	"github.com/charmbracelet/log"

	"github.com/harper/vidchat/internal/index"
	"github.com/harper/vidchat/internal/logging"
	"github.com/harper/vidchat/internal/models"
)

// IngestReport summarises one IngestVideo call
type IngestReport struct {
	VideoID      string  `json:"video_id"`
	Chunks       int     `json:"chunks"`
	Frames       int     `json:"frames"`
	StaleRemoved int     `json:"stale_removed"`
	Errors       []error `json:"-"`
}

// Failed returns the number of items that could not be indexed
func (r IngestReport) Failed() int {
	return len(r.Errors)
}

// IngestionPipeline writes content into the index through the chunker and embedder
type IngestionPipeline struct {
	index    index.Index
	embedder Embedder
	chunker  *Chunker
	logger   *log.Logger

	// ClearStaleChunks deletes a video's previous transcript records before
	// re-ingesting, so a shorter transcript leaves no orphaned chunks behind.
	ClearStaleChunks bool
}

// NewIngestionPipeline wires an index, an embedder of matching dimension, and a chunker
func NewIngestionPipeline(idx index.Index, embedder Embedder, chunker *Chunker) (*IngestionPipeline, error) {
	if err := index.Check(idx, embedder.Dimension()); err != nil {
		return nil, err
	}
	if chunker == nil {
		chunker = NewChunker(DefaultChunkWords)
	}
	return &IngestionPipeline{
		index:            idx,
		embedder:         embedder,
		chunker:          chunker,
		logger:           logging.For("ingest"),
		ClearStaleChunks: true,
	}, nil
}

// IngestVideo indexes a video's transcript chunks and frames.
// It only returns an error when the stale-chunk cleanup fails; per-item
// failures are collected in the report.
func (p *IngestionPipeline) IngestVideo(ctx context.Context, info *models.VideoInfo, frames []models.Frame) (IngestReport, error) {
	report := IngestReport{VideoID: info.ID}

	if p.ClearStaleChunks {
		removed, err := p.index.Delete(ctx, models.NamespaceTranscript, models.VideoFilter(info.ID))
		if err != nil {
			return report, fmt.Errorf("clear stale transcript chunks: %w", err)
		}
		report.StaleRemoved = removed
	}

	if info.Transcript != "" {
		for _, chunk := range p.chunker.ChunkTranscript(info.ID, info.Transcript) {
			rec := models.Record{
				ID:       chunk.ID(),
				Document: chunk.Text,
				Metadata: map[string]string{
					models.MetaVideoID:    info.ID,
					models.MetaType:       string(models.NamespaceTranscript),
					models.MetaChunkIndex: strconv.Itoa(chunk.Index),
				},
			}
			if err := p.add(ctx, models.NamespaceTranscript, rec); err != nil {
				report.Errors = append(report.Errors, err)
				continue
			}
			report.Chunks++
		}
	}

	for _, frame := range frames {
		rec := FrameRecord(frame)
		if err := p.add(ctx, models.NamespaceFrames, rec); err != nil {
			report.Errors = append(report.Errors, err)
			continue
		}
		report.Frames++
	}

	p.logger.Info("ingested video", "video_id", info.ID, "chunks", report.Chunks, "frames", report.Frames,
		"stale_removed", report.StaleRemoved, "failed", report.Failed())
	return report, nil
}

// IngestChatMessage indexes one chat turn so later turns can retrieve it
func (p *IngestionPipeline) IngestChatMessage(ctx context.Context, msg *models.ChatMessage) error {
	frameIDs, err := json.Marshal(msg.ContextFrameIDs)
	if err != nil {
		return err
	}
	rec := models.Record{
		ID:       msg.ID,
		Document: msg.Content,
		Metadata: map[string]string{
			models.MetaVideoID:         msg.VideoID,
			models.MetaType:            string(models.NamespaceChat),
			models.MetaMessageID:       msg.ID,
			models.MetaRole:            string(msg.Role),
			models.MetaTimestamp:       msg.CreatedAt.Format(time.RFC3339Nano),
			models.MetaContextFrameIDs: string(frameIDs),
		},
	}
	return p.add(ctx, models.NamespaceChat, rec)
}

// ForgetChat removes every indexed chat turn of a video
func (p *IngestionPipeline) ForgetChat(ctx context.Context, videoID string) (int, error) {
	return p.index.Delete(ctx, models.NamespaceChat, models.VideoFilter(videoID))
}

// FrameRecord builds the index record for a frame; the document is its description
func FrameRecord(frame models.Frame) models.Record {
	objects, _ := json.Marshal(nonNil(frame.Objects))
	actions, _ := json.Marshal(nonNil(frame.Actions))
	return models.Record{
		ID:       frame.ID,
		Document: DescribeFrame(frame),
		Metadata: map[string]string{
			models.MetaVideoID:          frame.VideoID,
			models.MetaType:             "frame",
			models.MetaFrameID:          frame.ID,
			models.MetaTimestamp:        strconv.FormatFloat(frame.Timestamp, 'f', -1, 64),
			models.MetaFrameNumber:      strconv.Itoa(frame.FrameNumber),
			models.MetaImagePath:        frame.ImagePath,
			models.MetaObjects:          string(objects),
			models.MetaActions:          string(actions),
			models.MetaSceneDescription: frame.SceneDescription,
		},
	}
}

// FrameFromRecord rebuilds a frame from its index record; Description is the indexed surrogate
func FrameFromRecord(rec models.Record) models.Frame {
	frame := models.Frame{
		ID:               rec.Metadata[models.MetaFrameID],
		VideoID:          rec.Metadata[models.MetaVideoID],
		ImagePath:        rec.Metadata[models.MetaImagePath],
		Description:      rec.Document,
		SceneDescription: rec.Metadata[models.MetaSceneDescription],
	}
	if frame.ID == "" {
		frame.ID = rec.ID
	}
	frame.Timestamp, _ = strconv.ParseFloat(rec.Metadata[models.MetaTimestamp], 64)
	frame.FrameNumber, _ = strconv.Atoi(rec.Metadata[models.MetaFrameNumber])
	_ = json.Unmarshal([]byte(rec.Metadata[models.MetaObjects]), &frame.Objects)
	_ = json.Unmarshal([]byte(rec.Metadata[models.MetaActions]), &frame.Actions)
	return frame
}

// add embeds the record's document and upserts it, wrapping failures as IngestionError
func (p *IngestionPipeline) add(ctx context.Context, ns models.Namespace, rec models.Record) error {
	vector, err := p.embedder.Embed(ctx, rec.Document)
	if err == nil {
		rec.Vector = vector
		err = p.index.Add(ctx, ns, rec)
	}
	if err != nil {
		ingestErr := &models.IngestionError{Namespace: ns, RecordID: rec.ID, Err: err}
		p.logger.Warn("skipping record", "namespace", ns, "id", rec.ID, "err", err)
		return ingestErr
	}
	return nil
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
