package triage

import (
	"errors"
	"fmt"
)

// Sentinel errors for the turn-orchestration error taxonomy. Grounded on the
// ai package's ErrAI* sentinel + ClassifiedError shape, adapted to the
// kinds spec.md §7 names.
var (
	ErrInputValidation     = errors.New("triage_input_validation")
	ErrSessionNotFound     = errors.New("triage_session_not_found")
	ErrSessionComplete     = errors.New("triage_session_complete")
	ErrSessionConflict     = errors.New("triage_session_conflict")
	ErrReferenceDataMissing = errors.New("triage_reference_data_missing")
	ErrDeadlineExceeded    = errors.New("triage_deadline_exceeded")
	ErrDownstreamFailure   = errors.New("triage_downstream_failure")
)

// TurnError wraps a sentinel with the fields needed to render an ERROR
// envelope: a wire code, a Turkish user-facing message, and a retry flag.
type TurnError struct {
	Err       error
	Code      string
	MessageTR string
	Retryable bool
}

func (e *TurnError) Error() string {
	return fmt.Sprintf("%s: %v", e.Code, e.Err)
}

func (e *TurnError) Unwrap() error {
	return e.Err
}

// Turn-error constructors. Each pins the Code/MessageTR/Retryable triple
// the orchestrator needs to build an ERROR envelope without re-deriving it
// at every call site.

func NewInputValidationError(messageTR string) *TurnError {
	return &TurnError{Err: ErrInputValidation, Code: "INPUT_VALIDATION", MessageTR: messageTR, Retryable: true}
}

func NewSessionNotFoundError() *TurnError {
	return &TurnError{Err: ErrSessionNotFound, Code: "SESSION_NOT_FOUND", MessageTR: "Oturum bulunamadı.", Retryable: false}
}

func NewSessionCompleteError() *TurnError {
	return &TurnError{Err: ErrSessionComplete, Code: "SESSION_COMPLETE", MessageTR: "Bu oturum tamamlandı, yeni bir oturum başlatın.", Retryable: false}
}

func NewSessionConflictError() *TurnError {
	return &TurnError{Err: ErrSessionConflict, Code: "SESSION_CONFLICT", MessageTR: "Oturum güncellenirken çakışma oluştu, lütfen tekrar deneyin.", Retryable: true}
}

func NewDeadlineExceededError() *TurnError {
	return &TurnError{Err: ErrDeadlineExceeded, Code: "DEADLINE_EXCEEDED", MessageTR: "İstek zaman aşımına uğradı, lütfen tekrar deneyin.", Retryable: true}
}

func NewDownstreamFailureError(messageTR string) *TurnError {
	return &TurnError{Err: ErrDownstreamFailure, Code: "DOWNSTREAM_FAILURE", MessageTR: messageTR, Retryable: true}
}

// ToErrorEnvelope renders a TurnError as an ERROR envelope.
func (e *TurnError) ToErrorEnvelope(sessionID string, turnIndex int) Envelope {
	return BuildErrorEnvelope(sessionID, turnIndex, e.Code, e.MessageTR, e.Retryable)
}
