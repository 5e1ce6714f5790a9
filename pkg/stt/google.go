package stt

import (
	"context"
	"fmt"
	"os"

	speech "cloud.google.com/go/speech/apiv1"
	"cloud.google.com/go/speech/apiv1/speechpb"
	"github.com/sirupsen/logrus"
	"google.golang.org/api/option"

	"voiceops-server/pkg/phase"
)

// GoogleProvider transcribes recordings with the Google Cloud Speech-to-Text
// batch API. Word time offsets are requested so segments carry real
// timestamps rather than estimates.
type GoogleProvider struct {
	logger       *logrus.Logger
	client       *speech.Client
	languageCode string
	sampleRate   int
}

// NewGoogleProvider creates a Google Speech-to-Text provider.
func NewGoogleProvider(logger *logrus.Logger, languageCode string, sampleRate int) *GoogleProvider {
	if languageCode == "" {
		languageCode = "en-US"
	}
	if sampleRate <= 0 {
		sampleRate = 16000
	}
	return &GoogleProvider{
		logger:       logger,
		languageCode: languageCode,
		sampleRate:   sampleRate,
	}
}

// Name implements Transcriber.
func (p *GoogleProvider) Name() string {
	return "google"
}

// Initialize implements Transcriber. Credentials come from
// GOOGLE_APPLICATION_CREDENTIALS or GOOGLE_API_KEY.
func (p *GoogleProvider) Initialize() error {
	ctx := context.Background()

	var opts []option.ClientOption
	if apiKey := os.Getenv("GOOGLE_API_KEY"); apiKey != "" {
		opts = append(opts, option.WithAPIKey(apiKey))
	} else if credFile := os.Getenv("GOOGLE_APPLICATION_CREDENTIALS"); credFile != "" {
		opts = append(opts, option.WithCredentialsFile(credFile))
	}

	client, err := speech.NewClient(ctx, opts...)
	if err != nil {
		return fmt.Errorf("failed to create Google Speech client: %w", err)
	}
	p.client = client
	p.logger.WithField("language", p.languageCode).Info("Initialized Google Speech-to-Text provider")
	return nil
}

// Transcribe implements Transcriber.
func (p *GoogleProvider) Transcribe(ctx context.Context, audio []byte, filename string) ([]phase.TranscriptSegment, error) {
	if p.client == nil {
		return nil, ErrInitializationFailed
	}

	req := &speechpb.RecognizeRequest{
		Config: &speechpb.RecognitionConfig{
			Encoding:              speechpb.RecognitionConfig_LINEAR16,
			SampleRateHertz:       int32(p.sampleRate),
			LanguageCode:          p.languageCode,
			EnableWordTimeOffsets: true,
		},
		Audio: &speechpb.RecognitionAudio{
			AudioSource: &speechpb.RecognitionAudio_Content{Content: audio},
		},
	}

	resp, err := p.client.Recognize(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("google recognition failed: %w", err)
	}

	var segments []phase.TranscriptSegment
	for _, result := range resp.Results {
		if len(result.Alternatives) == 0 {
			continue
		}
		alt := result.Alternatives[0]
		if alt.Transcript == "" {
			continue
		}

		seg := phase.TranscriptSegment{Text: alt.Transcript}
		if n := len(alt.Words); n > 0 {
			seg.StartTime = alt.Words[0].StartTime.AsDuration().Seconds()
			seg.EndTime = alt.Words[n-1].EndTime.AsDuration().Seconds()
		}
		segments = append(segments, seg)
	}

	p.logger.WithFields(logrus.Fields{
		"filename": filename,
		"segments": len(segments),
	}).Debug("Google transcription finished")
	return segments, nil
}

// Close releases the underlying client.
func (p *GoogleProvider) Close() error {
	if p.client != nil {
		return p.client.Close()
	}
	return nil
}
