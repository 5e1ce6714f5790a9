package audio

import (
	"encoding/binary"
	"errors"
	"fmt"
)

// Minimal RIFF/WAVE PCM reader. The analyzer only needs raw samples as
// floats; anything fancier (compressed codecs, multi-chunk extensions) is
// handled by degrading to default quality signals upstream.

var errNotWAV = errors.New("not a RIFF/WAVE file")

type wavInfo struct {
	sampleRate  int
	numChannels int
	samples     []float64
}

// decodeWAV parses PCM WAV bytes into normalized float64 samples in
// [-1.0, 1.0]. Multi-channel audio is averaged down to mono.
func decodeWAV(data []byte) (*wavInfo, error) {
	if len(data) < 44 || string(data[0:4]) != "RIFF" || string(data[8:12]) != "WAVE" {
		return nil, errNotWAV
	}

	var (
		sampleRate    int
		numChannels   int
		bitsPerSample int
		audioFormat   int
		pcmData       []byte
	)

	// Walk the chunk list. Only fmt and data chunks matter.
	offset := 12
	for offset+8 <= len(data) {
		chunkID := string(data[offset : offset+4])
		chunkSize := int(binary.LittleEndian.Uint32(data[offset+4 : offset+8]))
		body := offset + 8
		if body+chunkSize > len(data) {
			chunkSize = len(data) - body
		}

		switch chunkID {
		case "fmt ":
			if chunkSize < 16 {
				return nil, fmt.Errorf("malformed fmt chunk (%d bytes)", chunkSize)
			}
			audioFormat = int(binary.LittleEndian.Uint16(data[body : body+2]))
			numChannels = int(binary.LittleEndian.Uint16(data[body+2 : body+4]))
			sampleRate = int(binary.LittleEndian.Uint32(data[body+4 : body+8]))
			bitsPerSample = int(binary.LittleEndian.Uint16(data[body+14 : body+16]))
		case "data":
			pcmData = data[body : body+chunkSize]
		}

		// Chunks are word-aligned.
		offset = body + chunkSize
		if chunkSize%2 == 1 {
			offset++
		}
	}

	if audioFormat != 1 {
		return nil, fmt.Errorf("unsupported WAV format code %d (PCM only)", audioFormat)
	}
	if numChannels < 1 || sampleRate <= 0 || len(pcmData) == 0 {
		return nil, errors.New("WAV file has no decodable PCM data")
	}

	var samples []float64
	switch bitsPerSample {
	case 8:
		samples = make([]float64, len(pcmData))
		for i, b := range pcmData {
			samples[i] = (float64(b) - 128.0) / 128.0
		}
	case 16:
		n := len(pcmData) / 2
		samples = make([]float64, n)
		for i := 0; i < n; i++ {
			v := int16(binary.LittleEndian.Uint16(pcmData[i*2 : i*2+2]))
			samples[i] = float64(v) / 32768.0
		}
	case 32:
		n := len(pcmData) / 4
		samples = make([]float64, n)
		for i := 0; i < n; i++ {
			v := int32(binary.LittleEndian.Uint32(pcmData[i*4 : i*4+4]))
			samples[i] = float64(v) / 2147483648.0
		}
	default:
		return nil, fmt.Errorf("unsupported bit depth %d", bitsPerSample)
	}

	if numChannels > 1 {
		mono := make([]float64, 0, len(samples)/numChannels)
		for i := 0; i+numChannels <= len(samples); i += numChannels {
			var sum float64
			for c := 0; c < numChannels; c++ {
				sum += samples[i+c]
			}
			mono = append(mono, sum/float64(numChannels))
		}
		samples = mono
	}

	return &wavInfo{sampleRate: sampleRate, numChannels: 1, samples: samples}, nil
}
