package daemon

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os"
	"time"

	"github.com/chatconsole/chatconsole/internal/api"
	"github.com/chatconsole/chatconsole/internal/auth"
	"github.com/chatconsole/chatconsole/internal/blob"
	"github.com/chatconsole/chatconsole/internal/chat"
	"github.com/chatconsole/chatconsole/internal/httpapi"
	"github.com/chatconsole/chatconsole/internal/instance"
	"github.com/chatconsole/chatconsole/internal/rpc"
	"github.com/chatconsole/chatconsole/internal/webconsole"
	"go.uber.org/zap"
	"google.golang.org/grpc"
)

// Server manages the gRPC server lifecycle for an instance daemon.
type Server struct {
	grpcServer *grpc.Server
	listener   net.Listener
	socketPath string
	logger     *zap.Logger
}

// ServiceSet groups the gRPC service implementations.
type ServiceSet struct {
	Daemon       *api.DaemonService
	Conversation *api.ConversationService
	Message      *api.MessageService
	Call         *api.CallService
	Appointment  *api.AppointmentService
}

// NewServer creates a gRPC server bound to the instance's Unix domain socket.
func NewServer(
	p Params,
	logger *zap.Logger,
	verifier *auth.JWTVerifier,
	ops *auth.Operators,
	daemonSvc *api.DaemonService,
	conversationSvc *api.ConversationService,
	messageSvc *api.MessageService,
	callSvc *api.CallService,
	appointmentSvc *api.AppointmentService,
) (*Server, error) {
	socketPath := p.SocketPath
	if socketPath == "" {
		socketPath = instance.SocketPath(p.Instance)
	}
	return newServer(socketPath, verifier, ops, ServiceSet{
		Daemon:       daemonSvc,
		Conversation: conversationSvc,
		Message:      messageSvc,
		Call:         callSvc,
		Appointment:  appointmentSvc,
	}, logger)
}

func newServer(socketPath string, verifier auth.TokenVerifier, ops auth.Authorizer, svc ServiceSet, logger *zap.Logger) (*Server, error) {
	// Clean stale socket if it exists. The instance lock guarantees no
	// other daemon owns it.
	if _, err := os.Stat(socketPath); err == nil {
		_ = os.Remove(socketPath)
	}

	listener, err := net.Listen("unix", socketPath)
	if err != nil {
		return nil, fmt.Errorf("listen unix socket: %w", err)
	}

	if err := os.Chmod(socketPath, 0600); err != nil {
		_ = listener.Close()
		return nil, fmt.Errorf("chmod socket: %w", err)
	}

	srv := grpc.NewServer(
		grpc.UnaryInterceptor(auth.UnaryInterceptor(verifier, ops, logger)),
		grpc.StreamInterceptor(auth.StreamInterceptor(verifier, ops, logger)),
		grpc.MaxRecvMsgSize(rpc.MaxMessageBytes),
		grpc.MaxSendMsgSize(rpc.MaxMessageBytes),
	)
	rpc.RegisterDaemonServer(srv, svc.Daemon)
	rpc.RegisterConversationServer(srv, svc.Conversation)
	rpc.RegisterMessageServer(srv, svc.Message)
	rpc.RegisterCallServer(srv, svc.Call)
	rpc.RegisterAppointmentServer(srv, svc.Appointment)

	return &Server{
		grpcServer: srv,
		listener:   listener,
		socketPath: socketPath,
		logger:     logger,
	}, nil
}

// Start begins serving gRPC requests. Blocks until stopped.
func (s *Server) Start() error {
	s.logger.Info("gRPC server starting", zap.String("socket", s.socketPath))
	return s.grpcServer.Serve(s.listener)
}

// Stop performs a graceful shutdown and removes the socket file.
// Open thread watches are cut off once ctx is done.
func (s *Server) Stop(ctx context.Context) {
	s.logger.Info("gRPC server stopping")
	done := make(chan struct{})
	go func() {
		s.grpcServer.GracefulStop()
		close(done)
	}()
	select {
	case <-done:
	case <-ctx.Done():
		s.grpcServer.Stop()
	}
	_ = os.Remove(s.socketPath)
}

// HTTPServer serves the web console and JSON API.
type HTTPServer struct {
	srv      *http.Server
	listener net.Listener
	logger   *zap.Logger
}

// NewHTTPServer binds the configured HTTP address.
func NewHTTPServer(
	p Params,
	logger *zap.Logger,
	verifier *auth.JWTVerifier,
	ops *auth.Operators,
	media *auth.MediaSigner,
	blobs *blob.Store,
	agg *chat.Aggregator,
	messenger *chat.Messenger,
	watcher *chat.Watcher,
	web *webconsole.Handler,
) (*HTTPServer, error) {
	router := httpapi.NewRouter(httpapi.Deps{
		Aggregator: agg,
		Messenger:  messenger,
		Watcher:    watcher,
		Blobs:      blobs,
		Media:      media,
		Verifier:   verifier,
		Operators:  ops,
		Web:        web,
		CallBase:   callBase(p.Config),
		Logger:     logger,
	})

	listener, err := net.Listen("tcp", p.Config.Server.HTTPAddr)
	if err != nil {
		return nil, fmt.Errorf("listen http: %w", err)
	}
	return &HTTPServer{
		srv: &http.Server{
			Handler:           router,
			ReadHeaderTimeout: 10 * time.Second,
		},
		listener: listener,
		logger:   logger,
	}, nil
}

// Addr returns the bound address.
func (s *HTTPServer) Addr() string {
	return s.listener.Addr().String()
}

// Start serves HTTP until stopped.
func (s *HTTPServer) Start() error {
	s.logger.Info("HTTP server starting", zap.String("addr", s.Addr()))
	if err := s.srv.Serve(s.listener); !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Stop shuts the server down; event streams still open when ctx ends are closed.
func (s *HTTPServer) Stop(ctx context.Context) {
	s.logger.Info("HTTP server stopping")
	if err := s.srv.Shutdown(ctx); err != nil {
		_ = s.srv.Close()
	}
}
