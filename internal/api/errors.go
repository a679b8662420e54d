package api

import (
	"context"
	"errors"

	"github.com/chatconsole/chatconsole/internal/auth"
	"github.com/chatconsole/chatconsole/internal/blob"
	"github.com/chatconsole/chatconsole/internal/chat"
	"google.golang.org/grpc/codes"
	grpcstatus "google.golang.org/grpc/status"
)

// toStatus maps domain errors to gRPC status errors.
func toStatus(err error) error {
	if err == nil {
		return nil
	}
	var code codes.Code
	switch {
	case errors.Is(err, chat.ErrNotOperator), errors.Is(err, chat.ErrForbidden):
		code = codes.PermissionDenied
	case errors.Is(err, chat.ErrEmptyMessage),
		errors.Is(err, chat.ErrInvalidConversation),
		errors.Is(err, chat.ErrInvalidCallKind),
		errors.Is(err, blob.ErrInvalidKey):
		code = codes.InvalidArgument
	case errors.Is(err, chat.ErrNotFound):
		code = codes.NotFound
	case errors.Is(err, context.Canceled):
		code = codes.Canceled
	case errors.Is(err, context.DeadlineExceeded):
		code = codes.DeadlineExceeded
	default:
		code = codes.Internal
	}
	return grpcstatus.Error(code, err.Error())
}

// operator returns the authenticated operator of the call.
func operator(ctx context.Context) (string, error) {
	op, ok := auth.OperatorFrom(ctx)
	if !ok {
		return "", grpcstatus.Error(codes.Unauthenticated, "no operator identity")
	}
	return op, nil
}

// authorize returns the operator if they own conversationID.
func authorize(ctx context.Context, conversationID string) (string, error) {
	op, err := operator(ctx)
	if err != nil {
		return "", err
	}
	if err := chat.CheckAccess(op, conversationID); err != nil {
		return "", toStatus(err)
	}
	return op, nil
}
