package api

import (
	"bytes"
	"context"

	"github.com/chatconsole/chatconsole/internal/chat"
	"github.com/chatconsole/chatconsole/internal/rpc"
	"go.uber.org/zap"
	"google.golang.org/grpc/codes"
	grpcstatus "google.golang.org/grpc/status"
)

// MessageService implements the MessageService gRPC service.
type MessageService struct {
	messenger *chat.Messenger
	watcher   *chat.Watcher
	logger    *zap.Logger
}

// NewMessageService creates a new message service.
func NewMessageService(m *chat.Messenger, w *chat.Watcher, logger *zap.Logger) *MessageService {
	return &MessageService{messenger: m, watcher: w, logger: logger}
}

func (s *MessageService) ListMessages(ctx context.Context, req *rpc.ListMessagesRequest) (*rpc.ListMessagesResponse, error) {
	if _, err := authorize(ctx, req.ConversationID); err != nil {
		return nil, err
	}
	snap, err := s.watcher.Snapshot(ctx, req.ConversationID)
	if err != nil {
		return nil, toStatus(err)
	}
	return &rpc.ListMessagesResponse{Messages: snap.Messages}, nil
}

func (s *MessageService) SendText(ctx context.Context, req *rpc.SendTextRequest) (*rpc.SendMessageResponse, error) {
	op, err := authorize(ctx, req.ConversationID)
	if err != nil {
		return nil, err
	}
	msg, err := s.messenger.SendText(ctx, req.ConversationID, op, req.Text)
	if err != nil {
		s.logger.Error("send text", zap.String("conversation", req.ConversationID), zap.Error(err))
		return nil, toStatus(err)
	}
	return &rpc.SendMessageResponse{Message: *msg}, nil
}

func (s *MessageService) SendMedia(ctx context.Context, req *rpc.SendMediaRequest) (*rpc.SendMessageResponse, error) {
	op, err := authorize(ctx, req.ConversationID)
	if err != nil {
		return nil, err
	}
	msg, err := s.messenger.SendMedia(ctx, req.ConversationID, op, chat.File{
		Name:        req.FileName,
		ContentType: req.ContentType,
		Body:        bytes.NewReader(req.Data),
	})
	if err != nil {
		s.logger.Error("send media", zap.String("conversation", req.ConversationID),
			zap.String("file", req.FileName), zap.Error(err))
		return nil, toStatus(err)
	}
	return &rpc.SendMessageResponse{Message: *msg}, nil
}

func (s *MessageService) WatchThread(req *rpc.WatchThreadRequest, stream rpc.ThreadStream) error {
	ctx := stream.Context()
	if _, err := authorize(ctx, req.ConversationID); err != nil {
		return err
	}
	snapshots, err := s.watcher.Watch(ctx, req.ConversationID)
	if err != nil {
		return toStatus(err)
	}
	for snap := range snapshots {
		if err := stream.Send(&snap); err != nil {
			return err
		}
	}
	if ctx.Err() != nil {
		return nil
	}
	return grpcstatus.Error(codes.Internal, "thread snapshot failed")
}
