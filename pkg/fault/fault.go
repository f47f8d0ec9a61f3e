package fault

import (
	"errors"
	"fmt"
)

var (
	ErrNotFound            = errors.New("resource not found")
	ErrInvalidIdentifier   = errors.New("invalid identifier")
	ErrUniqueViolation     = errors.New("unique violation")
	ErrForeignKeyViolation = errors.New("restricted for deletion")

	ErrInvalidAnswer   = errors.New("invalid answer")
	ErrSessionActive   = errors.New("session already active")
	ErrSurveyCompleted = errors.New("survey already completed")
	ErrNoSession       = errors.New("session not found")
)

type ErrorType int

const (
	ErrClient ErrorType = iota
	ErrInternal
	ErrStructural
)

type Fault struct {
	Type    ErrorType
	Message string
	// Subject names the offending question, option or condition target of a
	// structural fault.
	Subject string
	Err     error
}

func (e *Fault) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("[%s] %s: %v", e.typeString(), e.Message, e.Err)
	}
	return fmt.Sprintf("[%s] %s", e.typeString(), e.Message)
}

// Unwrap allows errors.Is and errors.As to work.
func (e *Fault) Unwrap() error {
	return e.Err
}

// typeString returns a human-readable representation of the error type.
func (e *Fault) typeString() string {
	switch e.Type {
	case ErrClient:
		return "ClientError"
	case ErrInternal:
		return "InternalError"
	case ErrStructural:
		return "StructuralError"
	default:
		return "UnknownError"
	}
}

// NewClientError creates a new client error.
func NewClientError(msg string, err error) error {
	return &Fault{
		Type:    ErrClient,
		Message: msg,
		Err:     err,
	}
}

// NewInternalError creates a new internal server error.
func NewInternalError(msg string, err error) error {
	return &Fault{
		Type:    ErrInternal,
		Message: msg,
		Err:     err,
	}
}

// NewStructuralError reports a survey that breaks one of its graph
// invariants. subject is the id the check tripped on.
func NewStructuralError(msg string, subject string) error {
	return &Fault{
		Type:    ErrStructural,
		Message: msg,
		Subject: subject,
	}
}

// IsClientError checks if an error is a client error.
func IsClientError(err error) bool {
	var ce *Fault
	if errors.As(err, &ce) {
		return ce.Type == ErrClient
	}
	return false
}

// IsInternalError checks if an error is an internal error.
func IsInternalError(err error) bool {
	var ce *Fault
	if errors.As(err, &ce) {
		return ce.Type == ErrInternal
	}
	return false
}

// IsStructuralError checks if an error is a survey structure violation.
func IsStructuralError(err error) bool {
	var ce *Fault
	if errors.As(err, &ce) {
		return ce.Type == ErrStructural
	}
	return false
}

// Message returns the caller-facing message of a fault, or the error text
// for anything else.
func Message(err error) string {
	var ce *Fault
	if errors.As(err, &ce) {
		return ce.Message
	}
	return err.Error()
}
