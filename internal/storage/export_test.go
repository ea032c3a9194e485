// ABOUTME: Tests for video export in every supported format
// ABOUTME: Uses the in-memory SQLite storage as the backing store
package storage_test

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/harper/vidchat/internal/models"
	"github.com/harper/vidchat/internal/storage"
	"github.com/harper/vidchat/internal/storage/sqlite"
)

func seed(t *testing.T) (*sqlite.Storage, string) {
	t.Helper()
	store, err := sqlite.NewStorageInMemory()
	if err != nil {
		t.Fatalf("NewStorageInMemory() error = %v", err)
	}
	t.Cleanup(func() { _ = store.Close() })

	ctx := context.Background()
	info, err := models.NewVideoInfo("cats.mp4", 2048)
	if err != nil {
		t.Fatal(err)
	}
	info.Transcript = "the cat sat on the mat"
	info.FrameCount = 4
	info.MarkReady(time.Now().UTC())
	if err := store.SaveVideo(ctx, info); err != nil {
		t.Fatal(err)
	}

	user, _ := models.NewChatMessage(info.ID, models.RoleUser, "what animal?", nil)
	bot, _ := models.NewChatMessage(info.ID, models.RoleAssistant, "A cat.", []string{"f1"})
	bot.Confidence = 0.8
	for _, m := range []*models.ChatMessage{user, bot} {
		if err := store.AppendMessage(ctx, m); err != nil {
			t.Fatal(err)
		}
	}
	return store, info.ID
}

func TestExport(t *testing.T) {
	store, id := seed(t)

	data, err := storage.Export(context.Background(), store, store, id)
	if err != nil {
		t.Fatalf("Export() error = %v", err)
	}
	if data.Video.ID != id || data.Video.Status != "ready" || data.Video.ProcessedAt == "" {
		t.Errorf("Video = %+v", data.Video)
	}
	if len(data.Messages) != 2 {
		t.Fatalf("Messages = %d, want 2", len(data.Messages))
	}
	if data.Messages[1].Role != "assistant" || data.Messages[1].Confidence != 0.8 {
		t.Errorf("assistant message = %+v", data.Messages[1])
	}
}

func TestExport_UnknownVideo(t *testing.T) {
	store, _ := seed(t)
	_, err := storage.Export(context.Background(), store, store, "missing")
	if err == nil || !strings.Contains(err.Error(), models.ErrVideoNotFound.Error()) {
		t.Errorf("Export() error = %v, want video not found", err)
	}
}

func TestWrite_Formats(t *testing.T) {
	store, id := seed(t)
	data, err := storage.Export(context.Background(), store, store, id)
	if err != nil {
		t.Fatal(err)
	}

	var buf bytes.Buffer
	if err := storage.Write(&buf, data, storage.FormatYAML); err != nil {
		t.Fatalf("Write(yaml) error = %v", err)
	}
	var fromYAML storage.ExportData
	if err := yaml.Unmarshal(buf.Bytes(), &fromYAML); err != nil {
		t.Fatalf("yaml.Unmarshal() error = %v", err)
	}
	if fromYAML.Video.ID != id || len(fromYAML.Messages) != 2 {
		t.Errorf("yaml round trip = %+v", fromYAML)
	}

	buf.Reset()
	if err := storage.Write(&buf, data, storage.FormatJSON); err != nil {
		t.Fatalf("Write(json) error = %v", err)
	}
	var fromJSON storage.ExportData
	if err := json.Unmarshal(buf.Bytes(), &fromJSON); err != nil {
		t.Fatalf("json.Unmarshal() error = %v", err)
	}
	if fromJSON.Video.Transcript != "the cat sat on the mat" {
		t.Errorf("json transcript = %q", fromJSON.Video.Transcript)
	}

	buf.Reset()
	if err := storage.Write(&buf, data, "md"); err != nil {
		t.Fatalf("Write(markdown) error = %v", err)
	}
	md := buf.String()
	for _, want := range []string{"# cats.mp4", "## Transcript", "**User:** what animal?", "**Assistant:** A cat."} {
		if !strings.Contains(md, want) {
			t.Errorf("markdown missing %q:\n%s", want, md)
		}
	}

	if err := storage.Write(&buf, data, "csv"); err == nil {
		t.Error("Write(csv) should fail")
	}
}

func TestWriteFile(t *testing.T) {
	store, id := seed(t)
	data, err := storage.Export(context.Background(), store, store, id)
	if err != nil {
		t.Fatal(err)
	}

	path := filepath.Join(t.TempDir(), "out", "export.md")
	if err := storage.WriteFile(path, data, storage.FormatFromPath(path)); err != nil {
		t.Fatalf("WriteFile() error = %v", err)
	}
	content, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.HasPrefix(string(content), "# cats.mp4") {
		t.Errorf("file content = %q", content)
	}
}

func TestFormatFromPath(t *testing.T) {
	tests := map[string]string{
		"a.json":     storage.FormatJSON,
		"a.md":       storage.FormatMarkdown,
		"a.markdown": storage.FormatMarkdown,
		"a.yaml":     storage.FormatYAML,
		"a":          storage.FormatYAML,
	}
	for path, want := range tests {
		if got := storage.FormatFromPath(path); got != want {
			t.Errorf("FormatFromPath(%q) = %q, want %q", path, got, want)
		}
	}
}
