// ABOUTME: Retrieval metrics: frame hit rate, transcript recall, and video isolation
// ABOUTME: Deterministic evaluation against each query's ground truth

package retrieval

import (
	"fmt"
	"math"
	"strings"

	"github.com/harper/vidchat/internal/models"
)

// PassThreshold is the minimum hit rate and recall for a passing query
const PassThreshold = 0.9

// QueryResult holds the scores of one query
type QueryResult struct {
	VideoKey         string   `json:"video_key"`
	Query            string   `json:"query"`
	FrameHitRate     float64  `json:"frame_hit_rate"`
	TranscriptRecall float64  `json:"transcript_recall"`
	Isolated         bool     `json:"isolated"`
	FramesReturned   int      `json:"frames_returned"`
	Details          []string `json:"details,omitempty"`
}

// Passed reports whether the query met every threshold
func (q QueryResult) Passed() bool {
	return q.Isolated && q.FrameHitRate >= PassThreshold && q.TranscriptRecall >= PassThreshold
}

// ScenarioResult aggregates the query results of one scenario
type ScenarioResult struct {
	ScenarioID       string        `json:"scenario_id"`
	ScenarioName     string        `json:"scenario_name"`
	FrameHitRate     float64       `json:"frame_hit_rate"`
	TranscriptRecall float64       `json:"transcript_recall"`
	IsolationRate    float64       `json:"isolation_rate"`
	Status           string        `json:"status"`
	Queries          []QueryResult `json:"queries"`
	ErrorMessage     string        `json:"error_message,omitempty"`
}

// FrameHitRate is the share of expected timestamps present among the returned frames
func FrameHitRate(frames []models.FrameContext, expected []float64) (float64, string) {
	if len(expected) == 0 {
		return 1.0, ""
	}

	missing := []float64{}
	for _, ts := range expected {
		found := false
		for _, f := range frames {
			if math.Abs(f.Timestamp-ts) < 1e-6 {
				found = true
				break
			}
		}
		if !found {
			missing = append(missing, ts)
		}
	}

	rate := float64(len(expected)-len(missing)) / float64(len(expected))
	if len(missing) == 0 {
		return rate, ""
	}
	return rate, fmt.Sprintf("missing frames at %v", missing)
}

// TranscriptRecall is the share of expected phrases found in the excerpt, case-insensitive
func TranscriptRecall(excerpt string, expected []string) (float64, string) {
	if len(expected) == 0 {
		return 1.0, ""
	}

	upper := strings.ToUpper(excerpt)
	missing := []string{}
	for _, phrase := range expected {
		if !strings.Contains(upper, strings.ToUpper(phrase)) {
			missing = append(missing, phrase)
		}
	}

	recall := float64(len(expected)-len(missing)) / float64(len(expected))
	if len(missing) == 0 {
		return recall, ""
	}
	return recall, fmt.Sprintf("missing transcript phrases %v", missing)
}

// Isolation checks that every frame belongs to the queried video and no forbidden phrase leaked in
func Isolation(bundle models.ContextBundle, ownFrames map[string]bool, forbidden []string) (bool, string) {
	for _, f := range bundle.Frames {
		if !ownFrames[f.FrameID] {
			return false, fmt.Sprintf("frame %s belongs to another video", f.FrameID)
		}
	}

	var all strings.Builder
	all.WriteString(strings.ToUpper(bundle.Transcript))
	for _, f := range bundle.Frames {
		all.WriteString(" ")
		all.WriteString(strings.ToUpper(f.Description))
	}
	text := all.String()
	for _, phrase := range forbidden {
		if strings.Contains(text, strings.ToUpper(phrase)) {
			return false, fmt.Sprintf("context contains %q from another video", phrase)
		}
	}
	return true, ""
}

// EvaluateQuery scores one bundle against its query's ground truth
func EvaluateQuery(q Query, bundle models.ContextBundle, ownFrames map[string]bool) QueryResult {
	result := QueryResult{
		VideoKey:       q.VideoKey,
		Query:          q.Text,
		FramesReturned: len(bundle.Frames),
	}

	var detail string
	result.FrameHitRate, detail = FrameHitRate(bundle.Frames, q.ExpectedFrameTimestamps)
	result.Details = appendDetail(result.Details, detail)

	result.TranscriptRecall, detail = TranscriptRecall(bundle.Transcript, q.ExpectedInTranscript)
	result.Details = appendDetail(result.Details, detail)

	result.Isolated, detail = Isolation(bundle, ownFrames, q.ForbiddenInContext)
	result.Details = appendDetail(result.Details, detail)

	return result
}

// Summarize averages the query scores; a scenario passes only if every query passed
func Summarize(scenario Scenario, queries []QueryResult) ScenarioResult {
	result := ScenarioResult{
		ScenarioID:   scenario.ID,
		ScenarioName: scenario.Name,
		Queries:      queries,
		Status:       "PASS",
	}
	if len(queries) == 0 {
		result.Status = "FAIL"
		result.ErrorMessage = "no queries"
		return result
	}

	isolated := 0
	for _, q := range queries {
		result.FrameHitRate += q.FrameHitRate
		result.TranscriptRecall += q.TranscriptRecall
		if q.Isolated {
			isolated++
		}
		if !q.Passed() {
			result.Status = "FAIL"
		}
	}
	n := float64(len(queries))
	result.FrameHitRate /= n
	result.TranscriptRecall /= n
	result.IsolationRate = float64(isolated) / n
	return result
}

func appendDetail(details []string, detail string) []string {
	if detail == "" {
		return details
	}
	return append(details, detail)
}
