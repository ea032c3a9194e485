// ABOUTME: Scenario definitions for the retrieval benchmarks
// ABOUTME: Synthetic videos with annotated frames and transcripts, plus queries with ground truth

package retrieval

// Scenario is one self-contained benchmark run over fresh synthetic videos
type Scenario struct {
	ID          string
	Name        string
	Description string
	Videos      []SyntheticVideo
	Queries     []Query
}

// SyntheticVideo stands in for a processed upload
type SyntheticVideo struct {
	Key        string
	Filename   string
	Transcript string
	Frames     []SyntheticFrame
}

// SyntheticFrame is a frame with its analysis already filled in
type SyntheticFrame struct {
	Timestamp float64
	Scene     string
	Objects   []string
	Actions   []string
}

// Query is one question asked against one video, with its ground truth
type Query struct {
	VideoKey  string
	Text      string
	MaxFrames int

	// Frames at these timestamps must be among the returned frames
	ExpectedFrameTimestamps []float64
	// Phrases that must appear in the transcript excerpt
	ExpectedInTranscript []string
	// Phrases from other videos that must never appear in the bundle
	ForbiddenInContext []string
}

// GetAllScenarios returns every benchmark scenario in run order
func GetAllScenarios() []Scenario {
	return []Scenario{
		GetFrameLookup(),
		GetTranscriptRecall(),
		GetVideoIsolation(),
	}
}

// GetFrameLookup checks that an object query lands on the frame showing it
func GetFrameLookup() Scenario {
	return Scenario{
		ID:          "frame_lookup",
		Name:        "Frame Lookup",
		Description: "Object queries retrieve the frame where the object appears",
		Videos: []SyntheticVideo{
			{
				Key:        "tour",
				Filename:   "house-tour.mp4",
				Transcript: "welcome to the house tour we start inside and end on the street",
				Frames: []SyntheticFrame{
					{Timestamp: 0, Scene: "a kitchen counter", Objects: []string{"stove", "kettle"}},
					{Timestamp: 1, Scene: "a garden lawn", Objects: []string{"dog", "ball"}, Actions: []string{"fetching"}},
					{Timestamp: 2, Scene: "a desk by the window", Objects: []string{"laptop", "coffee"}},
					{Timestamp: 3, Scene: "a street at dusk", Objects: []string{"bicycle", "helmet"}},
					{Timestamp: 4, Scene: "a small stage", Objects: []string{"guitar", "amplifier"}, Actions: []string{"strumming"}},
				},
			},
		},
		Queries: []Query{
			{VideoKey: "tour", Text: "dog", MaxFrames: 2, ExpectedFrameTimestamps: []float64{1}},
			{VideoKey: "tour", Text: "guitar", MaxFrames: 2, ExpectedFrameTimestamps: []float64{4}},
			{VideoKey: "tour", Text: "bicycle helmet", MaxFrames: 2, ExpectedFrameTimestamps: []float64{3}},
			{VideoKey: "tour", Text: "kettle", MaxFrames: 2, ExpectedFrameTimestamps: []float64{0}},
		},
	}
}

// GetTranscriptRecall checks that the excerpt carries the passage that answers the query
func GetTranscriptRecall() Scenario {
	return Scenario{
		ID:          "transcript_recall",
		Name:        "Transcript Recall",
		Description: "Transcript chunks matching the query are included in the excerpt",
		Videos: []SyntheticVideo{
			{
				Key:      "baking",
				Filename: "baking.mp4",
				Transcript: "hello and welcome back to the channel " +
					"today we are baking a simple loaf " +
					"the dough needs flour butter and yeast " +
					"knead it for ten minutes on the bench " +
					"then let it rise somewhere warm " +
					"the oven should be very hot " +
					"bake until the crust sounds hollow " +
					"thanks for watching see you next week",
				Frames: []SyntheticFrame{
					{Timestamp: 0, Scene: "a presenter in a kitchen", Objects: []string{"apron"}},
					{Timestamp: 5, Scene: "a mixing bowl", Objects: []string{"flour", "butter"}},
				},
			},
		},
		Queries: []Query{
			{VideoKey: "baking", Text: "flour butter yeast", MaxFrames: 1, ExpectedInTranscript: []string{"flour butter and yeast"}},
			{VideoKey: "baking", Text: "oven hot crust", MaxFrames: 1, ExpectedInTranscript: []string{"oven should be very hot"}},
		},
	}
}

// GetVideoIsolation checks that nothing from another video leaks into a bundle
func GetVideoIsolation() Scenario {
	return Scenario{
		ID:          "video_isolation",
		Name:        "Video Isolation",
		Description: "Two videos share subjects; results only ever come from the queried video",
		Videos: []SyntheticVideo{
			{
				Key:        "north",
				Filename:   "north.mp4",
				Transcript: "the cat naps at the alpine station",
				Frames: []SyntheticFrame{
					{Timestamp: 0, Scene: "a snowy station", Objects: []string{"cat", "sled"}},
					{Timestamp: 1, Scene: "a mountain ridge", Objects: []string{"flag"}},
				},
			},
			{
				Key:        "south",
				Filename:   "south.mp4",
				Transcript: "the cat hunts along the harbor wall",
				Frames: []SyntheticFrame{
					{Timestamp: 0, Scene: "a sunny harbor", Objects: []string{"cat", "boat"}},
					{Timestamp: 1, Scene: "a fish market", Objects: []string{"crate"}},
					{Timestamp: 2, Scene: "a harbor pier", Objects: []string{"cat", "net"}},
				},
			},
		},
		Queries: []Query{
			{VideoKey: "north", Text: "cat", MaxFrames: 5, ExpectedFrameTimestamps: []float64{0}, ForbiddenInContext: []string{"harbor", "boat"}},
			{VideoKey: "south", Text: "cat", MaxFrames: 5, ExpectedFrameTimestamps: []float64{0, 2}, ForbiddenInContext: []string{"alpine", "sled"}},
		},
	}
}
