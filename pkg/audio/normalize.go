package audio

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/sirupsen/logrus"
)

// Upload constraints. Duration is only enforceable for decodable WAV input;
// other formats are bounded by size alone.
const (
	MaxUploadBytes     = 50 << 20
	MaxDurationSeconds = 1800
)

var allowedExtensions = map[string]bool{
	".wav": true,
	".mp3": true,
	".m4a": true,
}

// ValidationError indicates the uploaded audio was rejected before any
// processing. It maps to a client error at the HTTP boundary.
type ValidationError struct {
	Reason string
}

func (e *ValidationError) Error() string { return e.Reason }

// Normalizer is the phase 1 intake gate: it validates the upload and hands
// clean bytes to the rest of the pipeline.
type Normalizer struct {
	logger *logrus.Logger
}

// NewNormalizer creates an audio normalizer.
func NewNormalizer(logger *logrus.Logger) *Normalizer {
	return &Normalizer{logger: logger}
}

// Normalize validates filename, size, and (for WAV) decodability and
// duration. It returns the audio bytes unchanged on success: providers
// consume the original encoding directly.
func (n *Normalizer) Normalize(audioBytes []byte, filename string) ([]byte, error) {
	if strings.TrimSpace(filename) == "" {
		return nil, &ValidationError{Reason: "filename is missing"}
	}
	ext := strings.ToLower(filepath.Ext(filename))
	if !allowedExtensions[ext] {
		return nil, &ValidationError{Reason: fmt.Sprintf(
			"unsupported file type %q, allowed: .m4a, .mp3, .wav", ext)}
	}
	if len(audioBytes) == 0 {
		return nil, &ValidationError{Reason: "audio file is empty"}
	}
	if len(audioBytes) > MaxUploadBytes {
		return nil, &ValidationError{Reason: fmt.Sprintf(
			"audio file exceeds maximum size of %d bytes", MaxUploadBytes)}
	}

	if ext == ".wav" {
		info, err := decodeWAV(audioBytes)
		if err != nil {
			return nil, &ValidationError{Reason: "audio file is corrupt or could not be decoded"}
		}
		duration := float64(len(info.samples)) / float64(info.sampleRate)
		if duration == 0 {
			return nil, &ValidationError{Reason: "audio file has zero duration"}
		}
		if duration > MaxDurationSeconds {
			return nil, &ValidationError{Reason: fmt.Sprintf(
				"audio duration %.0fs exceeds maximum allowed (%ds)", duration, MaxDurationSeconds)}
		}
		n.logger.WithFields(logrus.Fields{
			"filename":    filename,
			"duration_s":  duration,
			"sample_rate": info.sampleRate,
		}).Debug("Audio upload validated")
	} else {
		n.logger.WithFields(logrus.Fields{
			"filename": filename,
			"bytes":    len(audioBytes),
		}).Debug("Audio upload validated (non-WAV, duration unchecked)")
	}

	return audioBytes, nil
}
