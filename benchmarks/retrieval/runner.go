// ABOUTME: Benchmark runner that ingests synthetic videos and scores retrieval
// ABOUTME: Every scenario gets a fresh memory index and hash embedder, so runs are reproducible

package retrieval

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/charmbracelet/log"

	"github.com/harper/vidchat/internal/core"
	"github.com/harper/vidchat/internal/index"
	"github.com/harper/vidchat/internal/llm"
	"github.com/harper/vidchat/internal/logging"
	"github.com/harper/vidchat/internal/models"
)

// Defaults keep hash collisions rare and transcript chunks sentence-sized
const (
	DefaultDimension  = 4096
	DefaultChunkWords = 7
)

// Runner executes retrieval scenarios
type Runner struct {
	dimension  int
	chunkWords int
	out        io.Writer
	verbose    bool
	logger     *log.Logger
}

// NewRunner creates a runner; non-positive sizes fall back to the defaults
func NewRunner(dimension, chunkWords int, out io.Writer, verbose bool) *Runner {
	if dimension <= 0 {
		dimension = DefaultDimension
	}
	if chunkWords <= 0 {
		chunkWords = DefaultChunkWords
	}
	if out == nil {
		out = io.Discard
	}
	return &Runner{
		dimension:  dimension,
		chunkWords: chunkWords,
		out:        out,
		verbose:    verbose,
		logger:     logging.For("benchmark"),
	}
}

// RunScenario ingests the scenario's videos into a fresh index and evaluates every query
func (r *Runner) RunScenario(ctx context.Context, scenario Scenario) (ScenarioResult, error) {
	if r.verbose {
		fmt.Fprintf(r.out, "\n========================================\n")
		fmt.Fprintf(r.out, "RUNNING: %s\n", scenario.Name)
		fmt.Fprintf(r.out, "========================================\n")
		fmt.Fprintf(r.out, "Description: %s\n\n", scenario.Description)
	}

	idx, err := index.NewMemoryIndex(r.dimension)
	if err != nil {
		return ScenarioResult{}, err
	}
	defer func() { _ = idx.Close() }()

	embedder, err := llm.NewHashEmbedder(r.dimension)
	if err != nil {
		return ScenarioResult{}, err
	}
	ingestion, err := core.NewIngestionPipeline(idx, embedder, core.NewChunker(r.chunkWords))
	if err != nil {
		return ScenarioResult{}, err
	}
	assembler, err := core.NewContextAssembler(idx, embedder, 0)
	if err != nil {
		return ScenarioResult{}, err
	}

	videoIDs := make(map[string]string, len(scenario.Videos))
	frameIDs := make(map[string]map[string]bool, len(scenario.Videos))
	for _, v := range scenario.Videos {
		id, frames, err := r.ingest(ctx, ingestion, v)
		if err != nil {
			return ScenarioResult{}, fmt.Errorf("ingest %s: %w", v.Key, err)
		}
		videoIDs[v.Key] = id
		frameIDs[v.Key] = frames
	}

	queries := make([]QueryResult, 0, len(scenario.Queries))
	for _, q := range scenario.Queries {
		videoID, ok := videoIDs[q.VideoKey]
		if !ok {
			return ScenarioResult{}, fmt.Errorf("query %q names unknown video %q", q.Text, q.VideoKey)
		}
		bundle, err := assembler.GetContext(ctx, q.Text, videoID, q.MaxFrames)
		if err != nil {
			return ScenarioResult{}, fmt.Errorf("query %q: %w", q.Text, err)
		}

		qr := EvaluateQuery(q, bundle, frameIDs[q.VideoKey])
		if r.verbose {
			fmt.Fprintf(r.out, "  [%s] %q: hit=%.2f recall=%.2f isolated=%v\n",
				q.VideoKey, q.Text, qr.FrameHitRate, qr.TranscriptRecall, qr.Isolated)
		}
		queries = append(queries, qr)
	}

	result := Summarize(scenario, queries)
	r.logger.Debug("scenario finished", "scenario", scenario.ID, "status", result.Status)
	return result, nil
}

// RunAll executes every scenario; a scenario error is recorded, not fatal
func (r *Runner) RunAll(ctx context.Context, scenarios []Scenario) []ScenarioResult {
	results := make([]ScenarioResult, 0, len(scenarios))
	for _, scenario := range scenarios {
		result, err := r.RunScenario(ctx, scenario)
		if err != nil {
			result = ScenarioResult{
				ScenarioID:   scenario.ID,
				ScenarioName: scenario.Name,
				Status:       "FAIL",
				ErrorMessage: err.Error(),
			}
		}
		results = append(results, result)
	}
	return results
}

// ExportResults writes the results and a pass/fail summary as JSON
func (r *Runner) ExportResults(results []ScenarioResult, outputPath string) error {
	passed := 0
	for _, result := range results {
		if result.Status == "PASS" {
			passed++
		}
	}

	summary := map[string]interface{}{
		"timestamp":   time.Now().Format(time.RFC3339),
		"dimension":   r.dimension,
		"chunk_words": r.chunkWords,
		"total_tests": len(results),
		"passed":      passed,
		"failed":      len(results) - passed,
		"results":     results,
	}

	jsonData, err := json.MarshalIndent(summary, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal results: %w", err)
	}
	if err := os.WriteFile(outputPath, jsonData, 0644); err != nil {
		return fmt.Errorf("failed to write results file: %w", err)
	}
	return nil
}

func (r *Runner) ingest(ctx context.Context, ingestion *core.IngestionPipeline, v SyntheticVideo) (string, map[string]bool, error) {
	info, err := models.NewVideoInfo(v.Filename, 0)
	if err != nil {
		return "", nil, err
	}
	info.Transcript = v.Transcript

	frames := make([]models.Frame, 0, len(v.Frames))
	ids := make(map[string]bool, len(v.Frames))
	for i, sf := range v.Frames {
		frame := models.NewFrame(info.ID, sf.Timestamp, i, fmt.Sprintf("/synthetic/%s/frame_%04d.jpg", v.Key, i+1))
		frame.Apply(models.FrameAnalysis{Objects: sf.Objects, Actions: sf.Actions, SceneDescription: sf.Scene})
		frame.Description = core.DescribeFrame(frame)
		frames = append(frames, frame)
		ids[frame.ID] = true
	}

	report, err := ingestion.IngestVideo(ctx, info, frames)
	if err != nil {
		return "", nil, err
	}
	if report.Failed() > 0 {
		return "", nil, fmt.Errorf("%d records failed to index", report.Failed())
	}
	return info.ID, ids, nil
}
