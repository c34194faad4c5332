package errors

import (
	"context"
	"errors"
	"log/slog"

	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

type ErrorClass int

const (
	ClassInternal ErrorClass = iota
	ClassValidation
	ClassAuthentication
	ClassRejected
	ClassRemote
	ClassCanceled
)

func (c ErrorClass) String() string {
	switch c {
	case ClassValidation:
		return "validation"
	case ClassAuthentication:
		return "authentication"
	case ClassRejected:
		return "rejected"
	case ClassRemote:
		return "remote"
	case ClassCanceled:
		return "canceled"
	default:
		return "internal"
	}
}

// ClassifiedError is the outcome of classifying an SDK error for reporting.
type ClassifiedError struct {
	Class         ErrorClass
	Code          codes.Code
	InternalError error
	OperationName string
}

type ErrorClassifier struct {
	logger *slog.Logger
}

func NewErrorClassifier(logger *slog.Logger) *ErrorClassifier {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &ErrorClassifier{logger: logger}
}

// Classify sorts err into a class using the SDK sentinels first and the gRPC
// status code second.
func (ec *ErrorClassifier) Classify(err error, operation string) *ClassifiedError {
	classified := &ClassifiedError{
		InternalError: err,
		OperationName: operation,
		Code:          status.Code(err),
	}

	switch {
	case errors.Is(err, ErrInvalidFormat),
		errors.Is(err, ErrInvalidAddressFormat),
		errors.Is(err, ErrMissingRequiredField),
		errors.Is(err, ErrMissingCredential),
		errors.Is(err, ErrTrackingRequiresHTML),
		errors.Is(err, ErrInvalidSchemaVersion):
		classified.Class = ClassValidation
	case errors.Is(err, ErrAuthExchangeFailed):
		classified.Class = ClassAuthentication
	case errors.Is(err, ErrOperationRejected):
		classified.Class = ClassRejected
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		classified.Class = ClassCanceled
	case errors.Is(err, ErrRemoteCallFailed):
		classified.Class = classFromCode(classified.Code)
	default:
		classified.Class = ClassInternal
	}

	return classified
}

func classFromCode(code codes.Code) ErrorClass {
	switch code {
	case codes.Unauthenticated, codes.PermissionDenied:
		return ClassAuthentication
	case codes.InvalidArgument:
		return ClassValidation
	case codes.Canceled, codes.DeadlineExceeded:
		return ClassCanceled
	default:
		return ClassRemote
	}
}

// Log writes the classified error and returns the original error unchanged.
func (ec *ErrorClassifier) Log(ctx context.Context, classified *ClassifiedError) error {
	ec.logger.ErrorContext(ctx, "operation failed",
		"operation", classified.OperationName,
		"error_class", classified.Class.String(),
		"grpc_code", classified.Code.String(),
		"error", classified.InternalError.Error(),
	)
	return classified.InternalError
}

// ExitCode maps a class to a process exit status for command line use.
func (c ErrorClass) ExitCode() int {
	switch c {
	case ClassValidation:
		return 2
	case ClassAuthentication:
		return 3
	case ClassRejected:
		return 4
	case ClassRemote:
		return 5
	case ClassCanceled:
		return 6
	default:
		return 1
	}
}
