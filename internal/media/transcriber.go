// ABOUTME: AudioTranscriber extracts a mono 16 kHz track with ffmpeg and sends it to speech-to-text
// ABOUTME: Videos without an audio stream transcribe to an empty string
package media

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/charmbracelet/log"

	"github.com/harper/vidchat/internal/core"
	"github.com/harper/vidchat/internal/logging"
)

// SpeechToText turns an audio file into text
type SpeechToText interface {
	Transcribe(ctx context.Context, audioPath string) (string, error)
}

// AudioTranscriber implements core.Transcriber on top of a SpeechToText service
type AudioTranscriber struct {
	tools  Tools
	stt    SpeechToText
	logger *log.Logger
}

var _ core.Transcriber = (*AudioTranscriber)(nil)

// NewAudioTranscriber creates a transcriber; stt is usually an llm.OpenAIClient
func NewAudioTranscriber(tools Tools, stt SpeechToText) *AudioTranscriber {
	return &AudioTranscriber{tools: tools, stt: stt, logger: logging.For("transcriber")}
}

// Transcribe extracts the audio into a temporary wav and transcribes it
func (a *AudioTranscriber) Transcribe(ctx context.Context, videoPath string) (string, error) {
	probe, err := a.tools.ProbeFile(ctx, videoPath)
	if err != nil {
		return "", fmt.Errorf("probe video: %w", err)
	}
	if !probe.HasAudio {
		a.logger.Debug("no audio stream", "file", filepath.Base(videoPath))
		return "", nil
	}

	tmp, err := os.MkdirTemp("", "vidchat-audio-")
	if err != nil {
		return "", err
	}
	defer func() { _ = os.RemoveAll(tmp) }()

	audioPath := filepath.Join(tmp, "audio.wav")
	if err := a.ExtractAudio(ctx, videoPath, audioPath); err != nil {
		return "", err
	}

	text, err := a.stt.Transcribe(ctx, audioPath)
	if err != nil {
		return "", fmt.Errorf("transcribe audio: %w", err)
	}
	return strings.TrimSpace(text), nil
}

// ExtractAudio writes the first audio stream of videoPath as 16 kHz mono wav
func (a *AudioTranscriber) ExtractAudio(ctx context.Context, videoPath, audioPath string) error {
	_, err := run(ctx, a.tools.ffmpeg(),
		"-y", "-v", "error",
		"-i", videoPath,
		"-vn", "-ac", "1", "-ar", "16000", "-f", "wav",
		audioPath)
	if err != nil {
		return fmt.Errorf("extract audio: %w", err)
	}
	return nil
}
