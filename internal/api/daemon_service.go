package api

import (
	"context"
	"time"

	"github.com/chatconsole/chatconsole/internal/auth"
	"github.com/chatconsole/chatconsole/internal/rpc"
	"github.com/chatconsole/chatconsole/internal/store"
	"go.uber.org/zap"
)

// DaemonService reports daemon health.
type DaemonService struct {
	instance  string
	startedAt time.Time
	operators *auth.Operators
	db        *store.DB
	logger    *zap.Logger
}

// NewDaemonService creates a new daemon service.
func NewDaemonService(instance string, operators *auth.Operators, db *store.DB, logger *zap.Logger) *DaemonService {
	return &DaemonService{
		instance:  instance,
		startedAt: time.Now(),
		operators: operators,
		db:        db,
		logger:    logger,
	}
}

func (s *DaemonService) GetStatus(ctx context.Context, _ *rpc.GetStatusRequest) (*rpc.GetStatusResponse, error) {
	resp := &rpc.GetStatusResponse{
		Instance:  s.instance,
		UptimeMs:  time.Since(s.startedAt).Milliseconds(),
		Operators: s.operators.List(),
	}

	// Counts are best effort.
	if n, err := s.db.ConversationCount(ctx); err == nil {
		resp.ConversationCount = n
	} else {
		s.logger.Warn("count conversations", zap.Error(err))
	}
	if n, err := s.db.MessageCount(ctx); err == nil {
		resp.MessageCount = n
	} else {
		s.logger.Warn("count messages", zap.Error(err))
	}
	return resp, nil
}
