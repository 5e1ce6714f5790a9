package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/sirupsen/logrus"

	"voiceops-server/pkg/audio"
	"voiceops-server/pkg/config"
	http_server "voiceops-server/pkg/http"
	"voiceops-server/pkg/messaging"
	"voiceops-server/pkg/metrics"
	"voiceops-server/pkg/nlp"
	"voiceops-server/pkg/pipeline"
	"voiceops-server/pkg/rag"
	"voiceops-server/pkg/stt"
	"voiceops-server/pkg/version"
)

var logger = logrus.New()

func main() {
	// Basic logger config until the real one is loaded
	logger.SetFormatter(&logrus.JSONFormatter{
		TimestampFormat: time.RFC3339Nano,
		FieldMap: logrus.FieldMap{
			logrus.FieldKeyTime:  "timestamp",
			logrus.FieldKeyLevel: "level",
			logrus.FieldKeyMsg:   "message",
		},
	})
	logger.SetOutput(os.Stdout)

	rootCtx, rootCancel := context.WithCancel(context.Background())
	defer rootCancel()

	cfg, err := config.Load(logger)
	if err != nil {
		logger.WithError(err).Fatal("Failed to load configuration")
	}
	if err := cfg.ApplyLogging(logger); err != nil {
		logger.WithError(err).Fatal("Failed to apply logging configuration")
	}

	logger.WithField("version", version.Version).Info("Starting VoiceOps server")

	metrics.StartMetrics(logger, cfg.HTTP.EnableMetrics)

	riskOpts, err := cfg.RiskOptions()
	if err != nil {
		logger.WithError(err).Fatal("Invalid risk scoring configuration")
	}

	// Transcription providers
	sttManager := stt.NewManager(logger, cfg.STT.DefaultProvider)
	for _, name := range cfg.STT.Providers {
		var provider stt.Transcriber
		switch name {
		case "mock":
			provider = stt.NewMockProvider(logger)
		case "google":
			provider = stt.NewGoogleProvider(logger, cfg.STT.LanguageCode, cfg.STT.SampleRate)
		case "aws":
			provider = stt.NewAWSProvider(logger, cfg.STT.AWSRegion, cfg.STT.LanguageCode, cfg.STT.SampleRate)
		}
		if provider == nil {
			continue
		}
		if err := sttManager.Register(provider); err != nil {
			logger.WithError(err).WithField("provider", name).Warn("Skipping transcription provider")
		}
	}

	// Language analysis is rule based and deterministic
	heuristic := nlp.NewHeuristic(logger)

	eventHub := http_server.NewEventHub(logger)
	go eventHub.Run(rootCtx)

	orchestrator := pipeline.New(logger, pipeline.Deps{
		Normalizer:      audio.NewNormalizer(logger),
		Quality:         audio.NewQualityAnalyzer(logger),
		Transcriber:     sttManager,
		Structurer:      heuristic,
		Sentiment:       heuristic,
		Intent:          heuristic,
		Contradictions:  heuristic,
		Entities:        heuristic,
		Summarizer:      rag.NewGenerator(logger, nil),
		RiskOptions:     riskOpts,
		CallLanguage:    cfg.Pipeline.CallLanguage,
		DefaultProvider: cfg.STT.DefaultProvider,
		Events:          eventHub,
	})

	server := http_server.NewServer(logger, &cfg.HTTP, orchestrator, audio.MaxUploadBytes, cfg.Pipeline.RequestTimeout)
	server.SetEventHub(eventHub)

	// AMQP is optional; a missing broker only disables assessment publishing
	var amqpClient *messaging.AMQPClient
	if cfg.Messaging.AMQPUrl != "" {
		amqpClient = messaging.NewAMQPClient(logger, messaging.AMQPConfig{
			URL:       cfg.Messaging.AMQPUrl,
			QueueName: cfg.Messaging.AMQPQueueName,
			Exchange:  cfg.Messaging.AMQPExchange,
		})
		if err := amqpClient.Connect(); err != nil {
			logger.WithError(err).Warn("AMQP connection failed, continuing without assessment publishing")
		}
		server.SetAMQPClient(amqpClient)
	}

	server.Start()

	// Graceful shutdown handling
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM, syscall.SIGINT)
	sig := <-sigChan
	logger.WithField("signal", sig.String()).Info("Received shutdown signal, cleaning up...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.WithError(err).Error("HTTP server shutdown failed")
	}
	if amqpClient != nil {
		amqpClient.Disconnect()
	}
	rootCancel()

	logger.Info("Shutdown complete")
}
