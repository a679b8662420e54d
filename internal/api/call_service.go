package api

import (
	"context"

	"github.com/chatconsole/chatconsole/internal/chat"
	"github.com/chatconsole/chatconsole/internal/rpc"
)

// CallService builds call screen links.
type CallService struct {
	baseURL string
}

// NewCallService creates a call service linking to baseURL.
func NewCallService(baseURL string) *CallService {
	return &CallService{baseURL: baseURL}
}

func (s *CallService) StartCall(ctx context.Context, req *rpc.StartCallRequest) (*rpc.StartCallResponse, error) {
	if _, err := authorize(ctx, req.ConversationID); err != nil {
		return nil, err
	}
	kind, err := chat.ParseCallKind(req.Kind)
	if err != nil {
		return nil, toStatus(err)
	}
	u, err := chat.CallURL(s.baseURL, req.ConversationID, kind)
	if err != nil {
		return nil, toStatus(err)
	}
	return &rpc.StartCallResponse{URL: u}, nil
}
