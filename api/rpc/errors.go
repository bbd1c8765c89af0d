package rpc

import (
	"context"
	"errors"
	"net/http"

	"github.com/grpc-ecosystem/grpc-gateway/v2/runtime"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

// ErrorBody is the HTTP error envelope.
type ErrorBody struct {
	Message    string `json:"message"`
	Code       string `json:"code"`
	HTTPStatus int    `json:"httpStatus"`
	Path       string `json:"path"`
}

var trpcCodes = map[codes.Code]string{
	codes.InvalidArgument:    "BAD_REQUEST",
	codes.OutOfRange:         "BAD_REQUEST",
	codes.Unauthenticated:    "UNAUTHORIZED",
	codes.PermissionDenied:   "FORBIDDEN",
	codes.NotFound:           "NOT_FOUND",
	codes.AlreadyExists:      "CONFLICT",
	codes.FailedPrecondition: "PRECONDITION_FAILED",
	codes.ResourceExhausted:  "TOO_MANY_REQUESTS",
	codes.Unimplemented:      "METHOD_NOT_SUPPORTED",
	codes.DeadlineExceeded:   "TIMEOUT",
	codes.Canceled:           "CLIENT_CLOSED_REQUEST",
}

// CodeName returns the client-facing name of a gRPC code.
func CodeName(c codes.Code) string {
	if name, ok := trpcCodes[c]; ok {
		return name
	}
	return "INTERNAL_SERVER_ERROR"
}

func errorBody(err error, path string) ErrorBody {
	st := status.Convert(err)
	return ErrorBody{
		Message:    st.Message(),
		Code:       CodeName(st.Code()),
		HTTPStatus: runtime.HTTPStatusFromCode(st.Code()),
		Path:       path,
	}
}

// normalize turns non-status errors into an opaque Internal status.
func normalize(err error) error {
	if err == nil {
		return nil
	}
	if _, ok := status.FromError(err); ok {
		return err
	}
	switch {
	case errors.Is(err, context.Canceled):
		return status.Error(codes.Canceled, "request canceled")
	case errors.Is(err, context.DeadlineExceeded):
		return status.Error(codes.DeadlineExceeded, "request timed out")
	}
	return status.Error(codes.Internal, http.StatusText(http.StatusInternalServerError))
}
