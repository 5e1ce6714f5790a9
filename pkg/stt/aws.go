package stt

import (
	"context"
	"fmt"
	"os"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/transcribestreaming"
	"github.com/aws/aws-sdk-go-v2/service/transcribestreaming/types"
	"github.com/sirupsen/logrus"

	"voiceops-server/pkg/phase"
)

const awsAudioChunkSize = 8 * 1024

// AWSProvider transcribes recordings through Amazon Transcribe streaming.
// The full recording is chunked and replayed over the stream, and only
// final (non-partial) results are collected.
type AWSProvider struct {
	logger       *logrus.Logger
	client       *transcribestreaming.Client
	region       string
	languageCode string
	sampleRate   int
}

// NewAWSProvider creates an Amazon Transcribe provider.
func NewAWSProvider(logger *logrus.Logger, region, languageCode string, sampleRate int) *AWSProvider {
	if region == "" {
		region = "us-east-1"
	}
	if languageCode == "" {
		languageCode = "en-US"
	}
	if sampleRate <= 0 {
		sampleRate = 16000
	}
	return &AWSProvider{
		logger:       logger,
		region:       region,
		languageCode: languageCode,
		sampleRate:   sampleRate,
	}
}

// Name implements Transcriber.
func (p *AWSProvider) Name() string {
	return "aws"
}

// Initialize implements Transcriber. Static credentials from the
// environment take precedence over the default chain.
func (p *AWSProvider) Initialize() error {
	ctx := context.Background()

	opts := []func(*awsconfig.LoadOptions) error{
		awsconfig.WithRegion(p.region),
		awsconfig.WithRetryMaxAttempts(3),
	}
	accessKey := os.Getenv("AWS_ACCESS_KEY_ID")
	secretKey := os.Getenv("AWS_SECRET_ACCESS_KEY")
	if accessKey != "" && secretKey != "" {
		opts = append(opts, awsconfig.WithCredentialsProvider(
			aws.CredentialsProviderFunc(func(ctx context.Context) (aws.Credentials, error) {
				return aws.Credentials{
					AccessKeyID:     accessKey,
					SecretAccessKey: secretKey,
					SessionToken:    os.Getenv("AWS_SESSION_TOKEN"),
				}, nil
			}),
		))
	}

	cfg, err := awsconfig.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return fmt.Errorf("failed to load AWS config: %w", err)
	}
	p.client = transcribestreaming.NewFromConfig(cfg)
	p.logger.WithFields(logrus.Fields{
		"region":   p.region,
		"language": p.languageCode,
	}).Info("Initialized Amazon Transcribe provider")
	return nil
}

// Transcribe implements Transcriber.
func (p *AWSProvider) Transcribe(ctx context.Context, audio []byte, filename string) ([]phase.TranscriptSegment, error) {
	if p.client == nil {
		return nil, ErrInitializationFailed
	}

	resp, err := p.client.StartStreamTranscription(ctx, &transcribestreaming.StartStreamTranscriptionInput{
		LanguageCode:         types.LanguageCode(p.languageCode),
		MediaSampleRateHertz: aws.Int32(int32(p.sampleRate)),
		MediaEncoding:        types.MediaEncodingPcm,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to start transcription stream: %w", err)
	}
	stream := resp.GetStream()
	defer stream.Close()

	sendErr := make(chan error, 1)
	go func() {
		defer close(sendErr)
		for offset := 0; offset < len(audio); offset += awsAudioChunkSize {
			end := offset + awsAudioChunkSize
			if end > len(audio) {
				end = len(audio)
			}
			event := &types.AudioStreamMemberAudioEvent{
				Value: types.AudioEvent{AudioChunk: audio[offset:end]},
			}
			if err := stream.Send(ctx, event); err != nil {
				sendErr <- fmt.Errorf("failed to send audio chunk: %w", err)
				return
			}
		}
	}()

	var segments []phase.TranscriptSegment
	for event := range stream.Events() {
		switch e := event.(type) {
		case *types.TranscriptResultStreamMemberTranscriptEvent:
			for _, result := range e.Value.Transcript.Results {
				if result.IsPartial || len(result.Alternatives) == 0 {
					continue
				}
				transcript := aws.ToString(result.Alternatives[0].Transcript)
				if transcript == "" {
					continue
				}
				segments = append(segments, phase.TranscriptSegment{
					Text:      transcript,
					StartTime: result.StartTime,
					EndTime:   result.EndTime,
				})
			}
		}
	}

	if err := <-sendErr; err != nil {
		return nil, err
	}
	if err := stream.Err(); err != nil {
		return nil, fmt.Errorf("transcription stream error: %w", err)
	}

	p.logger.WithFields(logrus.Fields{
		"filename": filename,
		"segments": len(segments),
		"bytes":    len(audio),
	}).Debug("Amazon Transcribe transcription finished")
	return segments, nil
}
