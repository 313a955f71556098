package services

import (
	"context"
	"errors"
	"fmt"
)

// ErrorKind names a failure class. Values appear in logs, metrics and
// persisted screening rows.
type ErrorKind string

const (
	KindEndpointUnavailable  ErrorKind = "endpoint_unavailable"
	KindEndpointTimeout      ErrorKind = "endpoint_timeout"
	KindEndpointError        ErrorKind = "endpoint_error"
	KindMalformedModelOutput ErrorKind = "malformed_model_output"
	KindSchemaViolation      ErrorKind = "schema_violation"
	KindUnsupportedFormat    ErrorKind = "unsupported_format"
	KindExtractionError      ErrorKind = "extraction_error"
	KindEmptyTranscript      ErrorKind = "empty_transcript"
	KindCancelled            ErrorKind = "cancelled"
	KindInternal             ErrorKind = "internal"
)

// Pipeline stages, used to tag StageError and log events.
const (
	StageExtract    = "extract"
	StageTranscribe = "transcribe"
	StagePrompt     = "prompt"
	StageGenerate   = "generate"
	StageNormalize  = "normalize"
	StageValidate   = "validate"
	StageAggregate  = "aggregate"
	StageReport     = "report"
	StagePersist    = "persist"
)

var (
	ErrEmptyTranscript = errors.New("empty transcription result")
	ErrBatchAborted    = errors.New("batch aborted: generation endpoint unavailable for every document")
)

// EndpointError is a transport or server failure of the generation endpoint.
// It is the only retryable kind.
type EndpointError struct {
	Kind       ErrorKind
	StatusCode int
	Err        error
}

func (e *EndpointError) Error() string {
	switch e.Kind {
	case KindEndpointTimeout:
		return fmt.Sprintf("generation endpoint timed out: %v", e.Err)
	case KindEndpointError:
		return fmt.Sprintf("generation endpoint returned status %d: %v", e.StatusCode, e.Err)
	default:
		return fmt.Sprintf("generation endpoint unavailable: %v", e.Err)
	}
}

func (e *EndpointError) Unwrap() error {
	return e.Err
}

// maxExcerptLen bounds the diagnostic text carried by MalformedOutputError.
const maxExcerptLen = 200

// MalformedOutputError means the model text could not be decoded into a
// JSON object after both decode attempts.
type MalformedOutputError struct {
	Reason  string
	Excerpt string
}

func newMalformedOutputError(reason, cleaned string) *MalformedOutputError {
	return &MalformedOutputError{
		Reason:  truncateRunes(reason, maxExcerptLen),
		Excerpt: truncateRunes(cleaned, maxExcerptLen),
	}
}

func (e *MalformedOutputError) Error() string {
	return fmt.Sprintf("malformed model output: %s; excerpt: %s", e.Reason, e.Excerpt)
}

type ViolationReason string

const (
	ViolationMissingKey ViolationReason = "missing_key"
	ViolationBadType    ViolationReason = "bad_type"
	ViolationEmptyValue ViolationReason = "empty_value"
)

// SchemaViolationError means the decoded mapping lacks the required shape.
// Key is the dotted path of the offending field.
type SchemaViolationError struct {
	Kind   SchemaKind
	Reason ViolationReason
	Key    string
	Detail string
}

func (e *SchemaViolationError) Error() string {
	msg := fmt.Sprintf("%s schema violation: %s %q", e.Kind, e.Reason, e.Key)
	if e.Detail != "" {
		msg += ": " + e.Detail
	}
	return msg
}

// ExtractionError is raised by text extraction collaborators.
type ExtractionError struct {
	Kind ErrorKind
	Path string
	Err  error
}

func (e *ExtractionError) Error() string {
	if e.Kind == KindUnsupportedFormat {
		return fmt.Sprintf("unsupported format: %v", e.Err)
	}
	return fmt.Sprintf("extraction failed: %v", e.Err)
}

func (e *ExtractionError) Unwrap() error {
	return e.Err
}

// StageError attaches the document id and pipeline stage to a failure.
type StageError struct {
	DocumentID string
	Stage      string
	Err        error
}

func (e *StageError) Error() string {
	return fmt.Sprintf("%s: %s: %v", e.DocumentID, e.Stage, e.Err)
}

func (e *StageError) Unwrap() error {
	return e.Err
}

// KindOf classifies any error produced by the pipeline.
func KindOf(err error) ErrorKind {
	if err == nil {
		return ""
	}

	var endpointErr *EndpointError
	var malformedErr *MalformedOutputError
	var schemaErr *SchemaViolationError
	var extractErr *ExtractionError

	switch {
	case errors.As(err, &endpointErr):
		return endpointErr.Kind
	case errors.As(err, &malformedErr):
		return KindMalformedModelOutput
	case errors.As(err, &schemaErr):
		return KindSchemaViolation
	case errors.As(err, &extractErr):
		return extractErr.Kind
	case errors.Is(err, ErrEmptyTranscript):
		return KindEmptyTranscript
	case errors.Is(err, context.Canceled):
		return KindCancelled
	default:
		return KindInternal
	}
}

// IsRetryable reports whether err is a transport/server failure worth
// another attempt with the same prompt.
func IsRetryable(err error) bool {
	var endpointErr *EndpointError
	return errors.As(err, &endpointErr)
}

// StageOf returns the stage recorded on err, if any.
func StageOf(err error) string {
	var stageErr *StageError
	if errors.As(err, &stageErr) {
		return stageErr.Stage
	}
	return ""
}

func truncateRunes(s string, n int) string {
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	return string(runes[:n])
}
