package audio

import (
	"encoding/binary"
	"math"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testLogger() *logrus.Logger {
	logger := logrus.New()
	logger.SetLevel(logrus.PanicLevel)
	return logger
}

// buildWAV produces a mono 16-bit PCM WAV of the given duration containing a
// sine tone plus low-level noise-like ripple.
func buildWAV(t *testing.T, sampleRate int, seconds float64) []byte {
	t.Helper()

	n := int(float64(sampleRate) * seconds)
	pcm := make([]byte, n*2)
	for i := 0; i < n; i++ {
		ts := float64(i) / float64(sampleRate)
		v := 0.5*math.Sin(2*math.Pi*210.0*ts) + 0.05*math.Sin(2*math.Pi*1733.0*ts)
		binary.LittleEndian.PutUint16(pcm[i*2:], uint16(int16(v*32767)))
	}

	header := make([]byte, 44)
	copy(header[0:4], "RIFF")
	binary.LittleEndian.PutUint32(header[4:8], uint32(36+len(pcm)))
	copy(header[8:12], "WAVE")
	copy(header[12:16], "fmt ")
	binary.LittleEndian.PutUint32(header[16:20], 16)
	binary.LittleEndian.PutUint16(header[20:22], 1) // PCM
	binary.LittleEndian.PutUint16(header[22:24], 1) // mono
	binary.LittleEndian.PutUint32(header[24:28], uint32(sampleRate))
	binary.LittleEndian.PutUint32(header[28:32], uint32(sampleRate*2))
	binary.LittleEndian.PutUint16(header[32:34], 2)
	binary.LittleEndian.PutUint16(header[34:36], 16)
	copy(header[36:40], "data")
	binary.LittleEndian.PutUint32(header[40:44], uint32(len(pcm)))

	return append(header, pcm...)
}

func TestNormalizeAcceptsValidWAV(t *testing.T) {
	n := NewNormalizer(testLogger())
	wav := buildWAV(t, 16000, 2.0)

	out, err := n.Normalize(wav, "call.wav")
	require.NoError(t, err)
	assert.Equal(t, wav, out)
}

func TestNormalizeAcceptsNonWAVExtensions(t *testing.T) {
	n := NewNormalizer(testLogger())

	for _, filename := range []string{"call.mp3", "call.m4a", "CALL.MP3"} {
		out, err := n.Normalize([]byte{0x49, 0x44, 0x33, 0x04}, filename)
		require.NoError(t, err, filename)
		assert.NotEmpty(t, out)
	}
}

func TestNormalizeRejections(t *testing.T) {
	n := NewNormalizer(testLogger())

	tests := []struct {
		name     string
		audio    []byte
		filename string
		reason   string
	}{
		{"missing filename", []byte{1, 2, 3}, "", "filename is missing"},
		{"unsupported extension", []byte{1, 2, 3}, "call.flac", "unsupported file type"},
		{"no extension", []byte{1, 2, 3}, "call", "unsupported file type"},
		{"empty payload", nil, "call.wav", "audio file is empty"},
		{"undecodable wav", []byte("definitely not RIFF data"), "call.wav", "corrupt"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := n.Normalize(tt.audio, tt.filename)
			require.Error(t, err)

			var verr *ValidationError
			require.ErrorAs(t, err, &verr)
			assert.Contains(t, verr.Reason, tt.reason)
		})
	}
}

func TestDecodeWAV(t *testing.T) {
	wav := buildWAV(t, 16000, 1.0)

	info, err := decodeWAV(wav)
	require.NoError(t, err)
	assert.Equal(t, 16000, info.sampleRate)
	assert.Len(t, info.samples, 16000)

	for i, s := range info.samples {
		if s < -1.0 || s > 1.0 {
			t.Fatalf("sample %d out of range: %v", i, s)
		}
	}
}

func TestDecodeWAVRejectsNonRIFF(t *testing.T) {
	_, err := decodeWAV([]byte("OggS\x00\x02 not a wave file at all, just noise"))
	assert.ErrorIs(t, err, errNotWAV)
}
