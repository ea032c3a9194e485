// ABOUTME: Record and Hit are the units stored in and returned from the vector index
// ABOUTME: Namespaces keep frames, transcript chunks, and chat history apart
package models

// Namespace is an isolated vector index collection for one content class
type Namespace string

const (
	NamespaceFrames     Namespace = "frames"
	NamespaceTranscript Namespace = "transcript"
	NamespaceChat       Namespace = "chat"
)

// Namespaces lists every namespace an index must provide
var Namespaces = []Namespace{NamespaceFrames, NamespaceTranscript, NamespaceChat}

// IsValid returns true for the three known namespaces
func (n Namespace) IsValid() bool {
	switch n {
	case NamespaceFrames, NamespaceTranscript, NamespaceChat:
		return true
	}
	return false
}

// Metadata keys shared across namespaces
const (
	MetaVideoID          = "video_id"
	MetaType             = "type"
	MetaChunkIndex       = "chunk_index"
	MetaFrameID          = "frame_id"
	MetaTimestamp        = "timestamp"
	MetaFrameNumber      = "frame_number"
	MetaImagePath        = "image_path"
	MetaObjects          = "objects"
	MetaActions          = "actions"
	MetaSceneDescription = "scene_description"
	MetaMessageID        = "message_id"
	MetaRole             = "role"
	MetaContextFrameIDs  = "context_frame_ids"
)

// Record is one indexed entry: vector, document text, and metadata
type Record struct {
	ID       string            `json:"id"`
	Vector   []float64         `json:"vector"`
	Document string            `json:"document"`
	Metadata map[string]string `json:"metadata"`
}

// Hit is a query result ordered by ascending cosine distance
type Hit struct {
	ID       string            `json:"id"`
	Document string            `json:"document"`
	Metadata map[string]string `json:"metadata"`
	Distance float64           `json:"distance"`
}

// Filter is an exact-match constraint over record metadata
type Filter map[string]string

// VideoFilter scopes a query to a single video
func VideoFilter(videoID string) Filter {
	return Filter{MetaVideoID: videoID}
}

// Matches returns true if every filter pair is present in metadata
func (f Filter) Matches(metadata map[string]string) bool {
	for k, v := range f {
		if metadata[k] != v {
			return false
		}
	}
	return true
}
