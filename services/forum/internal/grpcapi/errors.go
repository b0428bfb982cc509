package grpcapi

import (
	"errors"
	"sort"

	"google.golang.org/genproto/googleapis/rpc/errdetails"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/example/forum-platform/services/forum/internal/app"
	"github.com/example/forum-platform/services/forum/internal/store"
)

const errorDomain = "forum"

func statusErr(c codes.Code, reason, msg string) error {
	st := status.New(c, msg)
	st2, err := st.WithDetails(&errdetails.ErrorInfo{Reason: reason, Domain: errorDomain})
	if err != nil {
		return st.Err()
	}
	return st2.Err()
}

func errInvalidArgument(verr *app.ValidationError) error {
	st := status.New(codes.InvalidArgument, "Invalid request")
	bad := &errdetails.BadRequest{}
	fields := make([]string, 0, len(verr.Fields))
	for f := range verr.Fields {
		fields = append(fields, f)
	}
	sort.Strings(fields)
	for _, f := range fields {
		bad.FieldViolations = append(bad.FieldViolations, &errdetails.BadRequest_FieldViolation{Field: f, Description: verr.Fields[f]})
	}
	st2, err := st.WithDetails(&errdetails.ErrorInfo{Reason: "VALIDATION_FAILED", Domain: errorDomain}, bad)
	if err != nil {
		return st.Err()
	}
	return st2.Err()
}

// toStatus maps app and store errors to gRPC codes. Reasons match the HTTP
// error codes.
func toStatus(err error) error {
	var verr *app.ValidationError
	switch {
	case err == nil:
		return nil
	case errors.As(err, &verr):
		return errInvalidArgument(verr)
	case errors.Is(err, app.ErrUnauthenticated):
		return statusErr(codes.Unauthenticated, "AUTH_MISSING", "Authentication required")
	case errors.Is(err, store.ErrInvalidCredentials):
		return statusErr(codes.Unauthenticated, "INVALID_CREDENTIALS", "Invalid username or password")
	case errors.Is(err, store.ErrNotFound):
		return statusErr(codes.NotFound, "NOT_FOUND", "Post not found")
	case errors.Is(err, store.ErrForbidden):
		return statusErr(codes.PermissionDenied, "FORBIDDEN", "Only the author or an admin may do that")
	case errors.Is(err, store.ErrUsernameTaken):
		return statusErr(codes.AlreadyExists, "USERNAME_TAKEN", "Username is already taken")
	default:
		return statusErr(codes.Internal, "INTERNAL", "Internal error")
	}
}
