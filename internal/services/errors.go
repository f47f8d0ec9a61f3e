package services

import (
	"errors"

	"github.com/paulexconde/surveychat/pkg/fault"
)

// classify turns a repository error into a client or internal fault. Errors
// that are already faults pass through unchanged.
func classify(err error, subject string) error {
	var f *fault.Fault
	if errors.As(err, &f) {
		return err
	}

	switch {
	case errors.Is(err, fault.ErrNotFound):
		return fault.NewClientError(subject+" not found", err)
	case errors.Is(err, fault.ErrInvalidIdentifier):
		return fault.NewClientError("invalid "+subject+" id", err)
	case errors.Is(err, fault.ErrUniqueViolation):
		return fault.NewClientError(subject+" already exists", err)
	case errors.Is(err, fault.ErrForeignKeyViolation):
		return fault.NewClientError(subject+" is still referenced", err)
	default:
		return fault.NewInternalError("failed to access "+subject, err)
	}
}
