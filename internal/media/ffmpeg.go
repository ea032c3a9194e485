// ABOUTME: Thin wrappers around the ffmpeg and ffprobe command line tools
// ABOUTME: Stream metadata comes from ffprobe's JSON output
package media

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"os/exec"
	"strconv"
	"strings"
)

// Tools names the ffmpeg and ffprobe binaries; empty fields use the PATH defaults
type Tools struct {
	FFmpeg  string
	FFprobe string
}

func (t Tools) ffmpeg() string {
	if t.FFmpeg == "" {
		return "ffmpeg"
	}
	return t.FFmpeg
}

func (t Tools) ffprobe() string {
	if t.FFprobe == "" {
		return "ffprobe"
	}
	return t.FFprobe
}

// Available reports whether both binaries can be found
func (t Tools) Available() bool {
	if _, err := exec.LookPath(t.ffmpeg()); err != nil {
		return false
	}
	_, err := exec.LookPath(t.ffprobe())
	return err == nil
}

// run executes a tool and folds its stderr into the error
func run(ctx context.Context, name string, args ...string) ([]byte, error) {
	var stdout, stderr bytes.Buffer
	cmd := exec.CommandContext(ctx, name, args...)
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		msg := strings.TrimSpace(stderr.String())
		if i := strings.LastIndexByte(msg, '\n'); i >= 0 {
			msg = msg[i+1:]
		}
		if msg == "" {
			return nil, fmt.Errorf("%s: %w", name, err)
		}
		return nil, fmt.Errorf("%s: %w: %s", name, err, msg)
	}
	return stdout.Bytes(), nil
}

// Probe is the stream metadata of a video file
type Probe struct {
	Duration   float64
	FPS        float64
	Width      int
	Height     int
	HasAudio   bool
	Resolution string
}

type probeOutput struct {
	Streams []struct {
		CodecType    string `json:"codec_type"`
		Width        int    `json:"width"`
		Height       int    `json:"height"`
		AvgFrameRate string `json:"avg_frame_rate"`
		RFrameRate   string `json:"r_frame_rate"`
	} `json:"streams"`
	Format struct {
		Duration string `json:"duration"`
	} `json:"format"`
}

// ProbeFile runs ffprobe against path
func (t Tools) ProbeFile(ctx context.Context, path string) (*Probe, error) {
	out, err := run(ctx, t.ffprobe(),
		"-v", "error",
		"-show_entries", "stream=codec_type,width,height,avg_frame_rate,r_frame_rate:format=duration",
		"-of", "json",
		path)
	if err != nil {
		return nil, err
	}
	return parseProbe(out)
}

func parseProbe(data []byte) (*Probe, error) {
	var raw probeOutput
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("parse ffprobe output: %w", err)
	}

	p := &Probe{}
	foundVideo := false
	for _, s := range raw.Streams {
		switch s.CodecType {
		case "video":
			if foundVideo {
				continue
			}
			foundVideo = true
			p.Width, p.Height = s.Width, s.Height
			p.FPS = parseFrameRate(s.AvgFrameRate)
			if p.FPS == 0 {
				p.FPS = parseFrameRate(s.RFrameRate)
			}
		case "audio":
			p.HasAudio = true
		}
	}
	if !foundVideo {
		return nil, fmt.Errorf("no video stream found")
	}
	if raw.Format.Duration != "" {
		d, err := strconv.ParseFloat(raw.Format.Duration, 64)
		if err == nil && d > 0 {
			p.Duration = d
		}
	}
	if p.Width > 0 && p.Height > 0 {
		p.Resolution = fmt.Sprintf("%dx%d", p.Width, p.Height)
	}
	return p, nil
}

// parseFrameRate reads ffprobe's "num/den" rates; unparseable input is 0
func parseFrameRate(s string) float64 {
	num, den, found := strings.Cut(s, "/")
	n, err := strconv.ParseFloat(num, 64)
	if err != nil {
		return 0
	}
	if !found {
		return n
	}
	d, err := strconv.ParseFloat(den, 64)
	if err != nil || d == 0 {
		return 0
	}
	return n / d
}
