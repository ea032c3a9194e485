// ABOUTME: Behavioural tests shared by every vector index backend
// ABOUTME: pgvector runs only when PGVECTOR_TEST_DSN points at a live database
package index

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/harper/vidchat/internal/models"
	"github.com/harper/vidchat/internal/storage/sqlite"
)

const testDim = 4

type factory func(t *testing.T) Index

func backends(t *testing.T) map[string]factory {
	b := map[string]factory{
		"memory": func(t *testing.T) Index {
			idx, err := NewMemoryIndex(testDim)
			require.NoError(t, err)
			return idx
		},
		"sqlite": func(t *testing.T) Index {
			idx, err := OpenSQLiteIndex(filepath.Join(t.TempDir(), "index.db"), testDim)
			require.NoError(t, err)
			t.Cleanup(func() { _ = idx.Close() })
			return idx
		},
	}
	if dsn := os.Getenv("PGVECTOR_TEST_DSN"); dsn != "" {
		b["pgvector"] = func(t *testing.T) Index {
			idx, err := NewPGVectorIndex(context.Background(), dsn, testDim)
			require.NoError(t, err)
			t.Cleanup(func() { _ = idx.Close() })
			return idx
		}
	}
	return b
}

// uniqueVideo keeps pgvector runs from seeing rows written by earlier runs
func uniqueVideo(t *testing.T, name string) string {
	return fmt.Sprintf("%s-%s", t.Name(), name)
}

func rec(id, videoID string, vec []float64, extra ...string) models.Record {
	meta := map[string]string{models.MetaVideoID: videoID}
	for i := 0; i+1 < len(extra); i += 2 {
		meta[extra[i]] = extra[i+1]
	}
	return models.Record{ID: id, Vector: vec, Document: "doc " + id, Metadata: meta}
}

func TestIndexBackends(t *testing.T) {
	for name, newIndex := range backends(t) {
		t.Run(name, func(t *testing.T) {
			t.Run("ordering", func(t *testing.T) { testOrdering(t, newIndex(t)) })
			t.Run("video isolation", func(t *testing.T) { testVideoIsolation(t, newIndex(t)) })
			t.Run("namespace isolation", func(t *testing.T) { testNamespaceIsolation(t, newIndex(t)) })
			t.Run("idempotent upsert", func(t *testing.T) { testIdempotentUpsert(t, newIndex(t)) })
			t.Run("fewer than k", func(t *testing.T) { testFewerThanK(t, newIndex(t)) })
			t.Run("filter required", func(t *testing.T) { testFilterRequired(t, newIndex(t)) })
			t.Run("dimension", func(t *testing.T) { testDimension(t, newIndex(t)) })
			t.Run("delete and count", func(t *testing.T) { testDeleteAndCount(t, newIndex(t)) })
			t.Run("extra filter keys", func(t *testing.T) { testExtraFilterKeys(t, newIndex(t)) })
			t.Run("list", func(t *testing.T) { testList(t, newIndex(t)) })
			t.Run("concurrent add and query", func(t *testing.T) { testConcurrentAddQuery(t, newIndex(t)) })
		})
	}
}

func testOrdering(t *testing.T, idx Index) {
	ctx := context.Background()
	v := uniqueVideo(t, "v")

	require.NoError(t, idx.Add(ctx, models.NamespaceFrames, rec("far", v, []float64{0, 1, 0, 0})))
	require.NoError(t, idx.Add(ctx, models.NamespaceFrames, rec("near", v, []float64{1, 0, 0, 0})))
	require.NoError(t, idx.Add(ctx, models.NamespaceFrames, rec("mid", v, []float64{1, 1, 0, 0})))

	hits, err := idx.Query(ctx, models.NamespaceFrames, []float64{1, 0, 0, 0}, 3, models.VideoFilter(v))
	require.NoError(t, err)
	require.Len(t, hits, 3)

	assert.Equal(t, "near", hits[0].ID)
	assert.Equal(t, "mid", hits[1].ID)
	assert.Equal(t, "far", hits[2].ID)
	assert.InDelta(t, 0.0, hits[0].Distance, 1e-6)
	assert.InDelta(t, 1.0, hits[2].Distance, 1e-6)
	assert.Equal(t, "doc near", hits[0].Document)
	assert.Equal(t, v, hits[0].Metadata[models.MetaVideoID])
}

func testVideoIsolation(t *testing.T, idx Index) {
	ctx := context.Background()
	a, b := uniqueVideo(t, "a"), uniqueVideo(t, "b")
	vec := []float64{1, 0, 0, 0}

	require.NoError(t, idx.Add(ctx, models.NamespaceTranscript, rec("a1", a, vec)))
	require.NoError(t, idx.Add(ctx, models.NamespaceTranscript, rec("b1", b, vec)))

	hits, err := idx.Query(ctx, models.NamespaceTranscript, vec, 10, models.VideoFilter(a))
	require.NoError(t, err)
	require.Len(t, hits, 1)
	assert.Equal(t, "a1", hits[0].ID)
}

func testNamespaceIsolation(t *testing.T, idx Index) {
	ctx := context.Background()
	v := uniqueVideo(t, "v")
	vec := []float64{0, 0, 1, 0}

	require.NoError(t, idx.Add(ctx, models.NamespaceFrames, rec("f", v, vec)))

	for _, ns := range []models.Namespace{models.NamespaceTranscript, models.NamespaceChat} {
		hits, err := idx.Query(ctx, ns, vec, 10, models.VideoFilter(v))
		require.NoError(t, err)
		assert.Empty(t, hits, "namespace %s saw a frame record", ns)
	}
}

func testIdempotentUpsert(t *testing.T, idx Index) {
	ctx := context.Background()
	v := uniqueVideo(t, "v")

	first := rec("x", v, []float64{1, 0, 0, 0})
	require.NoError(t, idx.Add(ctx, models.NamespaceChat, first))
	require.NoError(t, idx.Add(ctx, models.NamespaceChat, first))

	second := rec("x", v, []float64{0, 1, 0, 0})
	second.Document = "updated"
	require.NoError(t, idx.Add(ctx, models.NamespaceChat, second))

	n, err := idx.Count(ctx, models.NamespaceChat, models.VideoFilter(v))
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	hits, err := idx.Query(ctx, models.NamespaceChat, []float64{0, 1, 0, 0}, 1, models.VideoFilter(v))
	require.NoError(t, err)
	require.Len(t, hits, 1)
	assert.Equal(t, "updated", hits[0].Document)
	assert.InDelta(t, 0.0, hits[0].Distance, 1e-6)
}

func testFewerThanK(t *testing.T, idx Index) {
	ctx := context.Background()
	v := uniqueVideo(t, "v")

	require.NoError(t, idx.Add(ctx, models.NamespaceFrames, rec("only", v, []float64{1, 1, 1, 1})))

	hits, err := idx.Query(ctx, models.NamespaceFrames, []float64{1, 0, 0, 0}, 5, models.VideoFilter(v))
	require.NoError(t, err)
	assert.Len(t, hits, 1)

	hits, err = idx.Query(ctx, models.NamespaceFrames, []float64{1, 0, 0, 0}, 5, models.VideoFilter(uniqueVideo(t, "none")))
	require.NoError(t, err)
	assert.Empty(t, hits)
}

func testFilterRequired(t *testing.T, idx Index) {
	ctx := context.Background()

	_, err := idx.Query(ctx, models.NamespaceFrames, []float64{1, 0, 0, 0}, 5, models.Filter{})
	assert.True(t, errors.Is(err, models.ErrMissingVideoFilter), "got %v", err)

	_, err = idx.Query(ctx, models.NamespaceFrames, []float64{1, 0, 0, 0}, 5, nil)
	assert.True(t, errors.Is(err, models.ErrMissingVideoFilter), "got %v", err)

	_, err = idx.Delete(ctx, models.NamespaceChat, models.Filter{models.MetaRole: "user"})
	assert.True(t, errors.Is(err, models.ErrMissingVideoFilter), "got %v", err)

	err = idx.Add(ctx, models.NamespaceFrames, models.Record{ID: "orphan", Vector: []float64{1, 0, 0, 0}})
	assert.Error(t, err)
}

func testDimension(t *testing.T, idx Index) {
	ctx := context.Background()
	v := uniqueVideo(t, "v")

	assert.Equal(t, testDim, idx.Dimension())

	err := idx.Add(ctx, models.NamespaceFrames, rec("short", v, []float64{1, 0}))
	var cfgErr *models.ConfigurationError
	assert.True(t, errors.As(err, &cfgErr), "Add() error = %v, want ConfigurationError", err)
	assert.True(t, errors.Is(err, models.ErrDimensionMismatch))

	_, err = idx.Query(ctx, models.NamespaceFrames, []float64{1, 0, 0, 0, 0}, 1, models.VideoFilter(v))
	assert.True(t, errors.As(err, &cfgErr), "Query() error = %v, want ConfigurationError", err)

	assert.NoError(t, Check(idx, testDim))
	assert.Error(t, Check(idx, testDim+1))
}

func testDeleteAndCount(t *testing.T, idx Index) {
	ctx := context.Background()
	a, b := uniqueVideo(t, "a"), uniqueVideo(t, "b")
	vec := []float64{1, 0, 0, 0}

	for i := 0; i < 3; i++ {
		require.NoError(t, idx.Add(ctx, models.NamespaceTranscript, rec(models.TranscriptChunkID(a, i), a, vec)))
	}
	require.NoError(t, idx.Add(ctx, models.NamespaceTranscript, rec(models.TranscriptChunkID(b, 0), b, vec)))

	n, err := idx.Count(ctx, models.NamespaceTranscript, models.VideoFilter(a))
	require.NoError(t, err)
	assert.Equal(t, 3, n)

	deleted, err := idx.Delete(ctx, models.NamespaceTranscript, models.VideoFilter(a))
	require.NoError(t, err)
	assert.Equal(t, 3, deleted)

	n, err = idx.Count(ctx, models.NamespaceTranscript, models.VideoFilter(a))
	require.NoError(t, err)
	assert.Zero(t, n)

	n, err = idx.Count(ctx, models.NamespaceTranscript, models.VideoFilter(b))
	require.NoError(t, err)
	assert.Equal(t, 1, n)
}

func testExtraFilterKeys(t *testing.T, idx Index) {
	ctx := context.Background()
	v := uniqueVideo(t, "v")
	vec := []float64{0, 0, 0, 1}

	require.NoError(t, idx.Add(ctx, models.NamespaceChat, rec("u", v, vec, models.MetaRole, "user")))
	require.NoError(t, idx.Add(ctx, models.NamespaceChat, rec("a", v, vec, models.MetaRole, "assistant")))

	hits, err := idx.Query(ctx, models.NamespaceChat, vec, 10, models.Filter{models.MetaVideoID: v, models.MetaRole: "assistant"})
	require.NoError(t, err)
	require.Len(t, hits, 1)
	assert.Equal(t, "a", hits[0].ID)
}

func testList(t *testing.T, idx Index) {
	ctx := context.Background()
	v, other := uniqueVideo(t, "v"), uniqueVideo(t, "other")

	require.NoError(t, idx.Add(ctx, models.NamespaceFrames, rec("b", v, []float64{0, 1, 0, 0})))
	require.NoError(t, idx.Add(ctx, models.NamespaceFrames, rec("a", v, []float64{1, 0, 0, 0})))
	require.NoError(t, idx.Add(ctx, models.NamespaceFrames, rec("x", other, []float64{1, 0, 0, 0})))
	require.NoError(t, idx.Add(ctx, models.NamespaceFrames, rec("b", v, []float64{0, 0, 1, 0})))

	got, err := idx.List(ctx, models.NamespaceFrames, models.VideoFilter(v))
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "b", got[0].ID, "insertion order survives an overwrite")
	assert.Equal(t, "a", got[1].ID)
	assert.InDeltaSlice(t, []float64{0, 0, 1, 0}, got[0].Vector, 1e-6)
	assert.Equal(t, v, got[0].Metadata[models.MetaVideoID])

	got, err = idx.List(ctx, models.NamespaceTranscript, models.VideoFilter(v))
	require.NoError(t, err)
	assert.Empty(t, got)

	_, err = idx.List(ctx, models.NamespaceFrames, models.Filter{})
	assert.ErrorIs(t, err, models.ErrMissingVideoFilter)
}

func testConcurrentAddQuery(t *testing.T, idx Index) {
	ctx := context.Background()
	v := uniqueVideo(t, "v")
	const writers, perWriter = 4, 10

	var wg sync.WaitGroup
	errs := make(chan error, writers*perWriter*3)
	for w := 0; w < writers; w++ {
		wg.Add(1)
		go func(w int) {
			defer wg.Done()
			for i := 0; i < perWriter; i++ {
				vec := []float64{float64(w + 1), float64(i + 1), 0, 1}
				if err := idx.Add(ctx, models.NamespaceFrames, rec(fmt.Sprintf("w%d-%d", w, i), v, vec)); err != nil {
					errs <- err
				}
			}
		}(w)
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := 0; i < perWriter; i++ {
				hits, err := idx.Query(ctx, models.NamespaceFrames, []float64{1, 1, 0, 1}, 5, models.VideoFilter(v))
				if err != nil {
					errs <- err
					continue
				}
				for _, h := range hits {
					if h.Metadata[models.MetaVideoID] != v {
						errs <- fmt.Errorf("hit %s belongs to %s", h.ID, h.Metadata[models.MetaVideoID])
					}
				}
				if _, err := idx.Count(ctx, models.NamespaceFrames, models.VideoFilter(v)); err != nil {
					errs <- err
				}
			}
		}()
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		t.Error(err)
	}

	n, err := idx.Count(ctx, models.NamespaceFrames, models.VideoFilter(v))
	require.NoError(t, err)
	assert.Equal(t, writers*perWriter, n)

	n, err = idx.Count(ctx, models.NamespaceTranscript, models.VideoFilter(v))
	require.NoError(t, err)
	assert.Zero(t, n, "writes to frames never land in another namespace")
}

func TestSQLiteIndex_ReopenWithOtherDimension(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "index.db")

	idx, err := OpenSQLiteIndex(path, testDim)
	require.NoError(t, err)
	require.NoError(t, idx.Add(ctx, models.NamespaceFrames, rec("f1", "v", []float64{1, 0, 0, 0})))
	require.NoError(t, idx.Close())

	_, err = OpenSQLiteIndex(path, 8)
	var cfgErr *models.ConfigurationError
	require.ErrorAs(t, err, &cfgErr)
	assert.ErrorIs(t, err, models.ErrDimensionMismatch)

	idx, err = OpenSQLiteIndex(path, testDim)
	require.NoError(t, err, "the original dimension still opens")
	defer func() { _ = idx.Close() }()

	hits, err := idx.Query(ctx, models.NamespaceFrames, []float64{1, 0, 0, 0}, 1, models.VideoFilter("v"))
	require.NoError(t, err)
	require.Len(t, hits, 1)
	assert.InDelta(t, 0.0, hits[0].Distance, 1e-9)
}

func TestSQLiteIndex_DimensionFromExistingRows(t *testing.T) {
	ctx := context.Background()
	db, err := sqlite.OpenInMemory()
	require.NoError(t, err)
	defer func() { _ = db.Close() }()

	// Rows written before the dimension was recorded
	require.NoError(t, sqlite.NewRecordStore(db).Upsert(ctx, models.NamespaceFrames, rec("old", "v", []float64{1, 0, 0, 0})))

	_, err = NewSQLiteIndex(db, 8)
	assert.ErrorIs(t, err, models.ErrDimensionMismatch)

	_, err = NewSQLiteIndex(db, testDim)
	assert.NoError(t, err)
}

func TestRank_RejectsMismatchedVectors(t *testing.T) {
	candidates := []models.Record{
		rec("ok", "v", []float64{1, 0, 0, 0}),
		rec("short", "v", []float64{1, 0}),
	}
	_, err := rank([]float64{1, 0, 0, 0}, candidates, 2, models.VideoFilter("v"))
	assert.ErrorIs(t, err, models.ErrDimensionMismatch)

	hits, err := rank([]float64{1, 0, 0, 0}, candidates[:1], 2, models.VideoFilter("v"))
	require.NoError(t, err)
	assert.Len(t, hits, 1)
}

func TestMemoryIndex_TiesKeepInsertionOrder(t *testing.T) {
	ctx := context.Background()
	idx, err := NewMemoryIndex(testDim)
	require.NoError(t, err)

	vec := []float64{1, 0, 0, 0}
	for _, id := range []string{"first", "second", "third"} {
		require.NoError(t, idx.Add(ctx, models.NamespaceFrames, rec(id, "v", vec)))
	}
	// Overwriting keeps the original slot
	require.NoError(t, idx.Add(ctx, models.NamespaceFrames, rec("first", "v", vec)))

	hits, err := idx.Query(ctx, models.NamespaceFrames, vec, 3, models.VideoFilter("v"))
	require.NoError(t, err)
	require.Len(t, hits, 3)
	assert.Equal(t, []string{"first", "second", "third"}, []string{hits[0].ID, hits[1].ID, hits[2].ID})
}

func TestNewSQLiteIndex_SharedDB(t *testing.T) {
	db, err := sqlite.OpenInMemory()
	require.NoError(t, err)
	defer func() { _ = db.Close() }()

	idx, err := NewSQLiteIndex(db, testDim)
	require.NoError(t, err)
	require.NoError(t, idx.Close())

	// Close must not close a database the index does not own
	require.NoError(t, db.Conn().Ping())
}

func TestNewIndex_InvalidDimension(t *testing.T) {
	_, err := NewMemoryIndex(0)
	var cfgErr *models.ConfigurationError
	assert.True(t, errors.As(err, &cfgErr))

	_, err = OpenSQLiteIndex("", testDim)
	assert.True(t, errors.As(err, &cfgErr))

	_, err = NewPGVectorIndex(context.Background(), "", testDim)
	assert.True(t, errors.As(err, &cfgErr))
}

func TestCosineDistance(t *testing.T) {
	tests := []struct {
		name string
		a, b []float64
		want float64
	}{
		{"identical", []float64{1, 2, 3}, []float64{1, 2, 3}, 0},
		{"orthogonal", []float64{1, 0}, []float64{0, 1}, 1},
		{"opposite", []float64{1, 0}, []float64{-1, 0}, 2},
		{"zero vector", []float64{0, 0}, []float64{1, 0}, 1},
		{"length mismatch", []float64{1}, []float64{1, 0}, 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.InDelta(t, tt.want, CosineDistance(tt.a, tt.b), 1e-9)
		})
	}
}
