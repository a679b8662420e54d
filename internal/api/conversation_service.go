package api

import (
	"context"

	"github.com/chatconsole/chatconsole/internal/chat"
	"github.com/chatconsole/chatconsole/internal/rpc"
	"go.uber.org/zap"
)

// ConversationService implements the ConversationService gRPC service.
type ConversationService struct {
	aggregator *chat.Aggregator
	logger     *zap.Logger
}

// NewConversationService creates a new conversation service.
func NewConversationService(a *chat.Aggregator, logger *zap.Logger) *ConversationService {
	return &ConversationService{aggregator: a, logger: logger}
}

func (s *ConversationService) ListConversations(ctx context.Context, _ *rpc.ListConversationsRequest) (*rpc.ListConversationsResponse, error) {
	op, err := operator(ctx)
	if err != nil {
		return nil, err
	}
	summaries, err := s.aggregator.Summaries(ctx, op)
	if err != nil {
		s.logger.Error("aggregate conversations", zap.String("operator", op), zap.Error(err))
		return nil, toStatus(err)
	}
	return &rpc.ListConversationsResponse{Operator: op, Conversations: summaries}, nil
}
