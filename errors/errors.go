package errors

import (
	stderrors "errors"
	"fmt"

	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

var (
	ErrNotFound          = fmt.Errorf("not found")
	ErrForbidden         = fmt.Errorf("forbidden")
	ErrInvalidState      = fmt.Errorf("invalid state")
	ErrInvalidArgument   = fmt.Errorf("invalid argument")
	ErrResourceExhausted = fmt.Errorf("resource exhausted")
	ErrUnavailable       = fmt.Errorf("store unavailable")
	ErrUnauthenticated   = fmt.Errorf("unauthenticated")

	// ErrSubscriptionIdle ends a subscription that saw no transport activity.
	// Clients handle it like any disconnect and subscribe again.
	ErrSubscriptionIdle = fmt.Errorf("subscription idle")

	ErrWorkerPanic = fmt.Errorf("worker panic")
)

// Is and As mirror the standard library so callers need a single errors import.
func Is(err, target error) bool { return stderrors.Is(err, target) }

func As(err error, target any) bool { return stderrors.As(err, target) }

// MapToGRPCError converts a domain error into a gRPC status error.
// Errors that are already statuses pass through unchanged.
func MapToGRPCError(err error) error {
	if err == nil {
		return nil
	}
	if _, ok := status.FromError(err); ok {
		return err
	}
	return status.Error(Code(err), err.Error())
}

// Code returns the gRPC code matching the taxonomy kind of err.
func Code(err error) codes.Code {
	switch {
	case err == nil:
		return codes.OK
	case stderrors.Is(err, ErrNotFound):
		return codes.NotFound
	case stderrors.Is(err, ErrForbidden):
		return codes.PermissionDenied
	case stderrors.Is(err, ErrInvalidState):
		return codes.FailedPrecondition
	case stderrors.Is(err, ErrInvalidArgument):
		return codes.InvalidArgument
	case stderrors.Is(err, ErrResourceExhausted):
		return codes.ResourceExhausted
	case stderrors.Is(err, ErrUnavailable), stderrors.Is(err, ErrSubscriptionIdle):
		return codes.Unavailable
	case stderrors.Is(err, ErrUnauthenticated):
		return codes.Unauthenticated
	default:
		return codes.Internal
	}
}

// FromCode rebuilds a taxonomy error on the client side of a gRPC call.
func FromCode(err error) error {
	st, ok := status.FromError(err)
	if !ok {
		return err
	}
	var kind error
	switch st.Code() {
	case codes.NotFound:
		kind = ErrNotFound
	case codes.PermissionDenied:
		kind = ErrForbidden
	case codes.FailedPrecondition:
		kind = ErrInvalidState
	case codes.InvalidArgument:
		kind = ErrInvalidArgument
	case codes.ResourceExhausted:
		kind = ErrResourceExhausted
	case codes.Unavailable:
		kind = ErrUnavailable
	case codes.Unauthenticated:
		kind = ErrUnauthenticated
	default:
		return err
	}
	return fmt.Errorf("%w: %s", kind, st.Message())
}

// Kind names the taxonomy kind of err, used by transports that speak JSON.
func Kind(err error) string {
	switch Code(err) {
	case codes.NotFound:
		return "not_found"
	case codes.PermissionDenied:
		return "forbidden"
	case codes.FailedPrecondition:
		return "invalid_state"
	case codes.InvalidArgument:
		return "invalid_argument"
	case codes.ResourceExhausted:
		return "resource_exhausted"
	case codes.Unavailable:
		return "unavailable"
	case codes.Unauthenticated:
		return "unauthenticated"
	default:
		return "internal"
	}
}
