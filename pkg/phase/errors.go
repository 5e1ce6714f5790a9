package phase

import (
	"errors"
	"fmt"
)

// VerificationError reports that a phase output violated its contract. It is
// the only error type the orchestrator translates into a user-facing phase
// failure; everything else is treated as a collaborator failure at the phase
// boundary where it surfaced.
type VerificationError struct {
	Phase string
	Cause string
}

func (e *VerificationError) Error() string {
	return fmt.Sprintf("phase %s verification failed: %s", e.Phase, e.Cause)
}

// Errorf builds a VerificationError for the given phase.
func Errorf(phase, format string, args ...interface{}) *VerificationError {
	return &VerificationError{Phase: phase, Cause: fmt.Sprintf(format, args...)}
}

// AsVerification unwraps err into a VerificationError if it is one.
func AsVerification(err error) (*VerificationError, bool) {
	var verr *VerificationError
	if errors.As(err, &verr) {
		return verr, true
	}
	return nil, false
}
