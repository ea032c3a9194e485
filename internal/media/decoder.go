// ABOUTME: FFmpegDecoder samples one frame per interval into <frames>/<video-id>/
// ABOUTME: Frames are JPEG files named frame_NNNN.jpg, timestamps derive from their index
package media

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"github.com/charmbracelet/log"

	"github.com/harper/vidchat/internal/core"
	"github.com/harper/vidchat/internal/logging"
	"github.com/harper/vidchat/internal/models"
)

const (
	DefaultFrameInterval = 1
	DefaultMaxFrames     = 300
	framePrefix          = "frame_"
	frameExt             = ".jpg"
)

// FFmpegDecoder implements core.Decoder with the ffmpeg command line tools
type FFmpegDecoder struct {
	tools     Tools
	framesDir string
	interval  int
	maxFrames int
	logger    *log.Logger
}

var _ core.Decoder = (*FFmpegDecoder)(nil)

// NewFFmpegDecoder writes frames under framesDir, one every interval seconds, at most maxFrames
func NewFFmpegDecoder(tools Tools, framesDir string, interval, maxFrames int) *FFmpegDecoder {
	if interval <= 0 {
		interval = DefaultFrameInterval
	}
	if maxFrames <= 0 {
		maxFrames = DefaultMaxFrames
	}
	return &FFmpegDecoder{
		tools:     tools,
		framesDir: framesDir,
		interval:  interval,
		maxFrames: maxFrames,
		logger:    logging.For("decoder"),
	}
}

// Decode probes the file, extracts frames, and returns them in timestamp order
func (d *FFmpegDecoder) Decode(ctx context.Context, videoPath, videoID string) (*core.DecodeResult, error) {
	probe, err := d.tools.ProbeFile(ctx, videoPath)
	if err != nil {
		return nil, fmt.Errorf("probe video: %w", err)
	}

	dir := filepath.Join(d.framesDir, videoID)
	// a re-run must not pick up frames from an earlier attempt
	if err := os.RemoveAll(dir); err != nil {
		return nil, fmt.Errorf("reset frames directory: %w", err)
	}
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("create frames directory: %w", err)
	}

	pattern := filepath.Join(dir, framePrefix+"%04d"+frameExt)
	_, err = run(ctx, d.tools.ffmpeg(),
		"-y", "-v", "error",
		"-i", videoPath,
		"-vf", fmt.Sprintf("fps=1/%d", d.interval),
		"-frames:v", strconv.Itoa(d.maxFrames),
		"-q:v", "2",
		pattern)
	if err != nil {
		return nil, fmt.Errorf("extract frames: %w", err)
	}

	frames, err := enumerateFrames(dir, videoID, d.interval, d.maxFrames)
	if err != nil {
		return nil, err
	}
	if len(frames) == 0 {
		return nil, fmt.Errorf("no frames extracted from %s", filepath.Base(videoPath))
	}

	d.logger.Debug("decoded video", "video_id", videoID, "frames", len(frames),
		"duration", probe.Duration, "fps", probe.FPS, "resolution", probe.Resolution)

	return &core.DecodeResult{
		Frames:     frames,
		Duration:   probe.Duration,
		FPS:        probe.FPS,
		Resolution: probe.Resolution,
	}, nil
}

// enumerateFrames lists frame_NNNN.jpg files; file N (1-based) was sampled at (N-1)*interval seconds
func enumerateFrames(dir, videoID string, interval, maxFrames int) ([]models.Frame, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("read frames directory: %w", err)
	}

	indexes := make([]int, 0, len(entries))
	for _, e := range entries {
		name := e.Name()
		if e.IsDir() || !strings.HasPrefix(name, framePrefix) || filepath.Ext(name) != frameExt {
			continue
		}
		n, err := strconv.Atoi(strings.TrimSuffix(strings.TrimPrefix(name, framePrefix), frameExt))
		if err != nil || n <= 0 {
			continue
		}
		indexes = append(indexes, n)
	}
	sort.Ints(indexes)
	if len(indexes) > maxFrames {
		indexes = indexes[:maxFrames]
	}

	frames := make([]models.Frame, 0, len(indexes))
	for i, n := range indexes {
		path := filepath.Join(dir, fmt.Sprintf("%s%04d%s", framePrefix, n, frameExt))
		frames = append(frames, models.NewFrame(videoID, float64((n-1)*interval), i, path))
	}
	return frames, nil
}
