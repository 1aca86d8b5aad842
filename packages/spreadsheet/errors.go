package spreadsheet

import "fmt"

// AppErrorCode represents gRPC-style error codes for application-level errors.
// note that we are skipping error codes that don't make sense for our use-case,
// like unauthenticated, or permission denied.
type AppErrorCode int

const (
	// OK indicates the operation completed successfully.
	OK AppErrorCode = 0

	// Unknown error. Errors raised by APIs that do not return enough error
	// information may be converted to this error.
	Unknown AppErrorCode = 2

	// InvalidArgument indicates client specified an invalid argument, here
	// a cell name that fails the name syntax or the sheet's validator.
	InvalidArgument AppErrorCode = 3

	// FailedPrecondition indicates operation was rejected because the
	// system is not in a state required for the operation's execution. a
	// formula that would close a dependency cycle is rejected this way.
	FailedPrecondition AppErrorCode = 9

	// DataLoss indicates a snapshot could not be read or written.
	DataLoss AppErrorCode = 15
)

func (c AppErrorCode) String() string {
	switch c {
	case OK:
		return "ok"
	case InvalidArgument:
		return "invalid argument"
	case FailedPrecondition:
		return "failed precondition"
	case DataLoss:
		return "data loss"
	default:
		return "unknown"
	}
}

// AppError represents errors at the application level (not formula
// evaluation errors, those are cell values)
type AppError struct {
	Code    AppErrorCode
	Message string
	Err     error // underlying cause, if any
}

func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *AppError) Unwrap() error {
	return e.Err
}

// Is matches any AppError with the same code, so callers can write
// errors.Is(err, ErrCircularDependency).
func (e *AppError) Is(target error) bool {
	t, ok := target.(*AppError)
	return ok && t.Code == e.Code
}

// NewApplicationError creates a new application error
func NewApplicationError(code AppErrorCode, message string) *AppError {
	return &AppError{
		Code:    code,
		Message: message,
	}
}

// sentinels for errors.Is
var (
	ErrInvalidName        = NewApplicationError(InvalidArgument, "invalid cell name")
	ErrCircularDependency = NewApplicationError(FailedPrecondition, "circular dependency")
	ErrReadWrite          = NewApplicationError(DataLoss, "spreadsheet read/write failure")
)

func newInvalidNameError(name, normalized string) *AppError {
	if name == normalized {
		return NewApplicationError(InvalidArgument, fmt.Sprintf("invalid cell name %q", name))
	}
	return NewApplicationError(InvalidArgument, fmt.Sprintf("invalid cell name %q (normalized to %q)", name, normalized))
}

func newCircularDependencyError(name string) *AppError {
	return NewApplicationError(FailedPrecondition, fmt.Sprintf("circular dependency through cell %s", name))
}

// NewReadWriteError wraps a storage failure. stores outside this package use
// it so every snapshot failure has the same kind.
func NewReadWriteError(message string, cause error) *AppError {
	return &AppError{
		Code:    DataLoss,
		Message: message,
		Err:     cause,
	}
}
