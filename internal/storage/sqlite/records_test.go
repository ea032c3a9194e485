// ABOUTME: Tests for vector record persistence
// ABOUTME: Verifies blob round-trips, upsert ordering, and deletion
package sqlite

import (
	"context"
	"math"
	"testing"

	"github.com/harper/vidchat/internal/models"
)

func newRecord(id, videoID, doc string, vector []float64) models.Record {
	return models.Record{
		ID:       id,
		Vector:   vector,
		Document: doc,
		Metadata: map[string]string{models.MetaVideoID: videoID, models.MetaType: "transcript"},
	}
}

func TestRecordStore_UpsertAndList(t *testing.T) {
	db, err := OpenInMemory()
	if err != nil {
		t.Fatalf("OpenInMemory() error = %v", err)
	}
	defer func() { _ = db.Close() }()

	ctx := context.Background()
	store := NewRecordStore(db)

	vector := make([]float64, 64)
	for i := range vector {
		vector[i] = float64(i) / 64.0
	}

	if err := store.Upsert(ctx, models.NamespaceTranscript, newRecord("a", "v1", "first", vector)); err != nil {
		t.Fatalf("Upsert() error = %v", err)
	}
	if err := store.Upsert(ctx, models.NamespaceTranscript, newRecord("b", "v1", "second", vector)); err != nil {
		t.Fatalf("Upsert() error = %v", err)
	}

	records, err := store.ListByVideo(ctx, models.NamespaceTranscript, "v1")
	if err != nil {
		t.Fatalf("ListByVideo() error = %v", err)
	}
	if len(records) != 2 {
		t.Fatalf("ListByVideo() returned %d records, want 2", len(records))
	}
	if records[0].ID != "a" || records[1].ID != "b" {
		t.Errorf("order = %s,%s, want a,b", records[0].ID, records[1].ID)
	}
	if records[0].Metadata[models.MetaType] != "transcript" {
		t.Errorf("metadata type = %q", records[0].Metadata[models.MetaType])
	}
	for i, v := range records[0].Vector {
		if math.Abs(v-vector[i]) > 1e-12 {
			t.Fatalf("Vector[%d] = %v, want %v", i, v, vector[i])
		}
	}
}

func TestRecordStore_OverwriteKeepsPosition(t *testing.T) {
	db, err := OpenInMemory()
	if err != nil {
		t.Fatalf("OpenInMemory() error = %v", err)
	}
	defer func() { _ = db.Close() }()

	ctx := context.Background()
	store := NewRecordStore(db)
	vec := []float64{1, 0}

	_ = store.Upsert(ctx, models.NamespaceFrames, newRecord("a", "v1", "old", vec))
	_ = store.Upsert(ctx, models.NamespaceFrames, newRecord("b", "v1", "b", vec))
	_ = store.Upsert(ctx, models.NamespaceFrames, newRecord("a", "v1", "new", vec))

	records, err := store.ListByVideo(ctx, models.NamespaceFrames, "v1")
	if err != nil {
		t.Fatalf("ListByVideo() error = %v", err)
	}
	if len(records) != 2 {
		t.Fatalf("got %d records, want 2", len(records))
	}
	if records[0].ID != "a" || records[0].Document != "new" {
		t.Errorf("records[0] = %s/%s, want a/new", records[0].ID, records[0].Document)
	}
}

func TestRecordStore_NamespacesAndVideosIsolated(t *testing.T) {
	db, err := OpenInMemory()
	if err != nil {
		t.Fatalf("OpenInMemory() error = %v", err)
	}
	defer func() { _ = db.Close() }()

	ctx := context.Background()
	store := NewRecordStore(db)
	vec := []float64{0, 1}

	_ = store.Upsert(ctx, models.NamespaceFrames, newRecord("x", "v1", "frame", vec))
	_ = store.Upsert(ctx, models.NamespaceChat, newRecord("x", "v1", "chat", vec))
	_ = store.Upsert(ctx, models.NamespaceChat, newRecord("y", "v2", "other video", vec))

	chat, _ := store.ListByVideo(ctx, models.NamespaceChat, "v1")
	if len(chat) != 1 || chat[0].Document != "chat" {
		t.Errorf("chat records for v1 = %+v", chat)
	}

	n, err := store.DeleteIDs(ctx, models.NamespaceChat, []string{"x"})
	if err != nil || n != 1 {
		t.Fatalf("DeleteIDs() = %d, %v", n, err)
	}

	frames, _ := store.ListByVideo(ctx, models.NamespaceFrames, "v1")
	if len(frames) != 1 {
		t.Errorf("deleting a chat record removed a frame record")
	}
}

func TestVectorBlobRoundTrip(t *testing.T) {
	vec := []float64{0, -1.5, math.Pi, 1e-300}
	got := blobToVector(vectorToBlob(vec))
	if len(got) != len(vec) {
		t.Fatalf("len = %d, want %d", len(got), len(vec))
	}
	for i := range vec {
		if got[i] != vec[i] {
			t.Errorf("got[%d] = %v, want %v", i, got[i], vec[i])
		}
	}
}

func TestRecordStore_EnsureDimension(t *testing.T) {
	db, err := OpenInMemory()
	if err != nil {
		t.Fatalf("OpenInMemory() error = %v", err)
	}
	defer func() { _ = db.Close() }()

	ctx := context.Background()
	store := NewRecordStore(db)

	got, err := store.EnsureDimension(ctx, 16)
	if err != nil {
		t.Fatalf("EnsureDimension() error = %v", err)
	}
	if got != 16 {
		t.Errorf("first EnsureDimension() = %d, want 16", got)
	}

	// The first recorded value sticks
	got, err = store.EnsureDimension(ctx, 32)
	if err != nil {
		t.Fatalf("EnsureDimension() error = %v", err)
	}
	if got != 16 {
		t.Errorf("second EnsureDimension() = %d, want 16", got)
	}
}

func TestRecordStore_EnsureDimensionFromStoredVectors(t *testing.T) {
	db, err := OpenInMemory()
	if err != nil {
		t.Fatalf("OpenInMemory() error = %v", err)
	}
	defer func() { _ = db.Close() }()

	ctx := context.Background()
	store := NewRecordStore(db)
	if err := store.Upsert(ctx, models.NamespaceFrames, newRecord("f", "v1", "frame", make([]float64, 3))); err != nil {
		t.Fatalf("Upsert() error = %v", err)
	}

	got, err := store.EnsureDimension(ctx, 8)
	if err != nil {
		t.Fatalf("EnsureDimension() error = %v", err)
	}
	if got != 3 {
		t.Errorf("EnsureDimension() = %d, want 3 from the stored vector", got)
	}
}
