package audio

import (
	"math"
	"sort"

	"github.com/sirupsen/logrus"

	"voiceops-server/pkg/phase"
)

// Empirically tuned thresholds for 16 kHz mono speech.
const (
	noiseThresholdHigh   = 0.08
	noiseThresholdMedium = 0.03

	stabilityThresholdLow    = 1.5
	stabilityThresholdMedium = 0.8

	// Autocorrelation peak regularity at or above this is flagged as
	// synthetic-sounding speech.
	naturalnessRegularityThreshold = 0.92
)

// QualityAnalyzer derives the phase 1 call-quality signals from recorded
// audio. It is deterministic: identical bytes yield identical signals.
type QualityAnalyzer struct {
	logger *logrus.Logger
}

// NewQualityAnalyzer creates a quality analyzer.
func NewQualityAnalyzer(logger *logrus.Logger) *QualityAnalyzer {
	return &QualityAnalyzer{logger: logger}
}

// Analyze classifies noise level, call stability and speech naturalness.
// Undecodable audio degrades to neutral defaults rather than failing the
// request; downstream verification still applies to the returned record.
func (a *QualityAnalyzer) Analyze(audioBytes []byte) phase.AudioQuality {
	info, err := decodeWAV(audioBytes)
	if err != nil {
		a.logger.WithError(err).Warn("Audio quality analysis failed, returning defaults")
		return phase.AudioQuality{
			NoiseLevel:        phase.LevelMedium,
			CallStability:     phase.LevelMedium,
			SpeechNaturalness: phase.NaturalnessNormal,
		}
	}

	quality := phase.AudioQuality{
		NoiseLevel:        estimateNoiseLevel(info.samples, info.sampleRate),
		CallStability:     estimateCallStability(info.samples, info.sampleRate),
		SpeechNaturalness: estimateSpeechNaturalness(info.samples, info.sampleRate),
	}

	a.logger.WithFields(logrus.Fields{
		"noise_level":        quality.NoiseLevel,
		"call_stability":     quality.CallStability,
		"speech_naturalness": quality.SpeechNaturalness,
	}).Info("Audio quality analysis complete")

	return quality
}

// estimateNoiseLevel takes the RMS of the quietest 20% of 100ms frames as
// the noise floor.
func estimateNoiseLevel(samples []float64, sampleRate int) phase.Level {
	frameSize := sampleRate / 10
	if frameSize == 0 {
		return phase.LevelMedium
	}
	nFrames := len(samples) / frameSize
	if nFrames < 2 {
		return phase.LevelMedium
	}

	energies := make([]float64, 0, nFrames)
	for i := 0; i < nFrames; i++ {
		frame := samples[i*frameSize : (i+1)*frameSize]
		energies = append(energies, rms(frame))
	}
	sort.Float64s(energies)

	cut := nFrames / 5
	if cut < 1 {
		cut = 1
	}
	avgNoise := mean(energies[:cut])

	switch {
	case avgNoise >= noiseThresholdHigh:
		return phase.LevelHigh
	case avgNoise >= noiseThresholdMedium:
		return phase.LevelMedium
	default:
		return phase.LevelLow
	}
}

// estimateCallStability uses the coefficient of variation of per-frame
// zero-crossing rates. Dropouts and codec glitches spike the variance.
func estimateCallStability(samples []float64, sampleRate int) phase.Level {
	frameSize := sampleRate / 10
	if frameSize == 0 {
		return phase.LevelMedium
	}
	nFrames := len(samples) / frameSize
	if nFrames < 3 {
		return phase.LevelMedium
	}

	zcrValues := make([]float64, 0, nFrames)
	for i := 0; i < nFrames; i++ {
		frame := samples[i*frameSize : (i+1)*frameSize]
		zcrValues = append(zcrValues, zeroCrossingRate(frame))
	}

	meanZCR := mean(zcrValues)
	if meanZCR == 0 {
		return phase.LevelLow
	}
	cv := stddev(zcrValues) / meanZCR

	switch {
	case cv >= stabilityThresholdLow:
		return phase.LevelLow
	case cv >= stabilityThresholdMedium:
		return phase.LevelMedium
	default:
		return phase.LevelHigh
	}
}

// estimateSpeechNaturalness flags unnaturally regular pitch. The first
// autocorrelation peak per one-second window approximates the pitch period;
// near-identical peak positions across windows indicate TTS-like speech.
func estimateSpeechNaturalness(samples []float64, sampleRate int) phase.Naturalness {
	windowSize := sampleRate
	if windowSize == 0 {
		return phase.NaturalnessNormal
	}
	nWindows := len(samples) / windowSize
	if nWindows < 2 {
		return phase.NaturalnessNormal
	}
	if nWindows > 10 {
		nWindows = 10
	}

	// Pitch search range: 2ms to 50ms lag.
	searchStart := sampleRate / 500
	searchEnd := sampleRate / 20

	var peakPositions []float64
	for i := 0; i < nWindows; i++ {
		window := samples[i*windowSize : (i+1)*windowSize]
		peak, ok := firstAutocorrPeak(window, searchStart, searchEnd)
		if ok {
			peakPositions = append(peakPositions, float64(peak))
		}
	}

	if len(peakPositions) < 3 {
		return phase.NaturalnessNormal
	}

	meanPeak := mean(peakPositions)
	if meanPeak == 0 {
		return phase.NaturalnessNormal
	}
	regularity := 1.0 - stddev(peakPositions)/meanPeak
	if regularity >= naturalnessRegularityThreshold {
		return phase.NaturalnessSuspicious
	}
	return phase.NaturalnessNormal
}

// firstAutocorrPeak returns the lag (relative to searchStart) of the
// strongest normalized autocorrelation value in [searchStart, searchEnd).
func firstAutocorrPeak(window []float64, searchStart, searchEnd int) (int, bool) {
	if searchEnd > len(window) {
		searchEnd = len(window)
	}
	if searchEnd-searchStart < 3 {
		return 0, false
	}

	var energy float64
	for _, v := range window {
		energy += v * v
	}
	if energy == 0 {
		return 0, false
	}

	bestLag, bestVal := 0, math.Inf(-1)
	for lag := searchStart; lag < searchEnd; lag++ {
		var ac float64
		for j := 0; j+lag < len(window); j++ {
			ac += window[j] * window[j+lag]
		}
		ac /= energy
		if ac > bestVal {
			bestVal = ac
			bestLag = lag - searchStart
		}
	}
	return bestLag, true
}

func rms(frame []float64) float64 {
	if len(frame) == 0 {
		return 0
	}
	var sum float64
	for _, v := range frame {
		sum += v * v
	}
	return math.Sqrt(sum / float64(len(frame)))
}

func zeroCrossingRate(frame []float64) float64 {
	if len(frame) < 2 {
		return 0
	}
	crossings := 0
	for i := 1; i < len(frame); i++ {
		if (frame[i-1] >= 0) != (frame[i] >= 0) {
			crossings++
		}
	}
	return float64(crossings) / float64(len(frame))
}

func mean(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	var sum float64
	for _, v := range values {
		sum += v
	}
	return sum / float64(len(values))
}

func stddev(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	m := mean(values)
	var sum float64
	for _, v := range values {
		d := v - m
		sum += d * d
	}
	return math.Sqrt(sum / float64(len(values)))
}
