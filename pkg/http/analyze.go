package http

import (
	"context"
	"encoding/json"
	stderrors "errors"
	"io"
	"net/http"

	"github.com/sirupsen/logrus"

	"voiceops-server/pkg/audio"
	"voiceops-server/pkg/errors"
	"voiceops-server/pkg/phase"
)

// AnalyzeCallHandler accepts one audio file via multipart/form-data and
// returns the final structured record. No call, customer, or loan
// identifiers are accepted or produced.
func (s *Server) AnalyzeCallHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.Header().Set("Allow", http.MethodPost)
		errors.WriteError(w, errors.NewInvalidInput("method not allowed, use POST"))
		return
	}

	requestID := RequestID(r.Context())
	log := s.logger.WithField("request_id", requestID)

	if err := r.ParseMultipartForm(s.maxUpload); err != nil {
		errors.WriteError(w, errors.NewInvalidInput("failed to parse multipart form"))
		return
	}

	file, header, err := r.FormFile("audio_file")
	if err != nil {
		errors.WriteError(w, errors.NewInvalidInput("Audio file is required."))
		return
	}
	defer file.Close()

	log.WithFields(logrus.Fields{
		"filename": header.Filename,
		"size":     header.Size,
	}).Info("Audio file received")

	audioBytes, err := io.ReadAll(io.LimitReader(file, s.maxUpload+1))
	if err != nil {
		errors.WriteError(w, errors.NewInvalidInput("Failed to read uploaded file."))
		return
	}

	provider := r.FormValue("provider")

	ctx := r.Context()
	if s.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.timeout)
		defer cancel()
	}

	output, err := s.orchestrator.Run(ctx, requestID, audioBytes, header.Filename, provider)
	if err != nil {
		s.writePipelineError(w, log, err)
		return
	}

	payload, err := json.Marshal(output)
	if err != nil {
		errors.WriteError(w, errors.NewInternalError("failed to encode analysis result"))
		return
	}

	// Publishing is best effort: the response does not depend on the broker.
	if s.amqpClient != nil {
		if pubErr := s.amqpClient.PublishAssessment(
			requestID,
			string(output.RiskAssessment.FraudLikelihood),
			output.RiskAssessment.RiskScore,
			payload,
		); pubErr != nil {
			log.WithError(pubErr).Warn("Failed to publish assessment to AMQP")
		}
	}

	if s.eventHub != nil {
		s.eventHub.NotifyCompleted(requestID, string(output.RiskAssessment.FraudLikelihood))
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	w.Write(payload)
}

// writePipelineError maps pipeline failures to HTTP responses: rejected
// uploads are the client's fault, broken phase contracts are ours.
func (s *Server) writePipelineError(w http.ResponseWriter, log *logrus.Entry, err error) {
	var validationErr *audio.ValidationError
	if stderrors.As(err, &validationErr) {
		log.WithError(err).Info("Upload rejected")
		errors.WriteError(w, errors.NewUnsupportedAudio(validationErr.Reason))
		return
	}

	if verr, ok := phase.AsVerification(err); ok {
		log.WithError(err).Error("Phase verification failed")
		errors.WriteError(w, errors.NewPhaseVerification(verr.Phase, verr.Cause))
		return
	}

	log.WithError(err).Error("Pipeline failed")
	errors.WriteError(w, errors.NewInternalError(err.Error()))
}
