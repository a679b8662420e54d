package client

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/chatconsole/chatconsole/internal/auth"
	"github.com/chatconsole/chatconsole/internal/chat"
	"github.com/chatconsole/chatconsole/internal/rpc"
	"go.uber.org/zap"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/status"
)

// Client wraps the gRPC connection to the daemon.
type Client struct {
	conn   *grpc.ClientConn
	logger *zap.Logger
}

// New dials the daemon's Unix domain socket. Every call carries token as a
// bearer credential.
func New(socketPath, token string, logger *zap.Logger) (*Client, error) {
	conn, err := grpc.NewClient(
		"unix://"+socketPath,
		grpc.WithTransportCredentials(insecure.NewCredentials()),
		grpc.WithPerRPCCredentials(auth.BearerToken(token)),
		grpc.WithDefaultCallOptions(
			grpc.CallContentSubtype(rpc.CodecName),
			grpc.MaxCallRecvMsgSize(rpc.MaxMessageBytes),
			grpc.MaxCallSendMsgSize(rpc.MaxMessageBytes),
		),
	)
	if err != nil {
		return nil, fmt.Errorf("dial daemon: %w", err)
	}
	return &Client{conn: conn, logger: logger}, nil
}

// Close closes the gRPC connection.
func (c *Client) Close() error {
	return c.conn.Close()
}

func invoke[Resp any](ctx context.Context, c *Client, method string, req any) (*Resp, error) {
	out := new(Resp)
	if err := c.conn.Invoke(ctx, method, req, out); err != nil {
		return nil, err
	}
	return out, nil
}

// Status returns daemon status.
func (c *Client) Status(ctx context.Context) (*rpc.GetStatusResponse, error) {
	return invoke[rpc.GetStatusResponse](ctx, c, rpc.MethodGetStatus, &rpc.GetStatusRequest{})
}

// ListConversations returns the caller's conversation summaries.
func (c *Client) ListConversations(ctx context.Context) ([]chat.Summary, error) {
	resp, err := invoke[rpc.ListConversationsResponse](ctx, c, rpc.MethodListConversations, &rpc.ListConversationsRequest{})
	if err != nil {
		return nil, err
	}
	return resp.Conversations, nil
}

// ListMessages returns the thread of a conversation, oldest first.
func (c *Client) ListMessages(ctx context.Context, conversationID string) ([]chat.Message, error) {
	resp, err := invoke[rpc.ListMessagesResponse](ctx, c, rpc.MethodListMessages, &rpc.ListMessagesRequest{ConversationID: conversationID})
	if err != nil {
		return nil, err
	}
	return resp.Messages, nil
}

// SendText sends a text message.
func (c *Client) SendText(ctx context.Context, conversationID, text string) (*chat.Message, error) {
	resp, err := invoke[rpc.SendMessageResponse](ctx, c, rpc.MethodSendText, &rpc.SendTextRequest{
		ConversationID: conversationID,
		Text:           text,
	})
	if err != nil {
		return nil, err
	}
	return &resp.Message, nil
}

// SendMedia uploads one file as a media message.
func (c *Client) SendMedia(ctx context.Context, conversationID string, f chat.File) (*chat.Message, error) {
	data, err := io.ReadAll(io.LimitReader(f.Body, rpc.MaxMessageBytes+1))
	if err != nil {
		return nil, fmt.Errorf("read %q: %w", f.Name, err)
	}
	if len(data) > rpc.MaxMessageBytes {
		return nil, fmt.Errorf("%q exceeds %d bytes", f.Name, rpc.MaxMessageBytes)
	}
	resp, err := invoke[rpc.SendMessageResponse](ctx, c, rpc.MethodSendMedia, &rpc.SendMediaRequest{
		ConversationID: conversationID,
		FileName:       f.Name,
		ContentType:    f.ContentType,
		Data:           data,
	})
	if err != nil {
		return nil, err
	}
	return &resp.Message, nil
}

// StartCall returns the call screen URL for a conversation.
func (c *Client) StartCall(ctx context.Context, conversationID string, kind chat.CallKind) (string, error) {
	resp, err := invoke[rpc.StartCallResponse](ctx, c, rpc.MethodStartCall, &rpc.StartCallRequest{
		ConversationID: conversationID,
		Kind:           string(kind),
	})
	if err != nil {
		return "", err
	}
	return resp.URL, nil
}

// ImportAppointments stores appointment records on the daemon.
func (c *Client) ImportAppointments(ctx context.Context, appts []rpc.Appointment) (int, error) {
	resp, err := invoke[rpc.ImportAppointmentsResponse](ctx, c, rpc.MethodImportAppointments, &rpc.ImportAppointmentsRequest{Appointments: appts})
	if err != nil {
		return 0, err
	}
	return resp.Imported, nil
}

var watchStreamDesc = &grpc.StreamDesc{StreamName: "WatchThread", ServerStreams: true}

// WatchThread streams thread snapshots until ctx ends or the stream fails.
func (c *Client) WatchThread(ctx context.Context, conversationID string) (<-chan chat.Snapshot, error) {
	stream, err := c.conn.NewStream(ctx, watchStreamDesc, rpc.MethodWatchThread)
	if err != nil {
		return nil, err
	}
	if err := stream.SendMsg(&rpc.WatchThreadRequest{ConversationID: conversationID}); err != nil {
		return nil, err
	}
	if err := stream.CloseSend(); err != nil {
		return nil, err
	}

	out := make(chan chat.Snapshot, 1)
	go func() {
		defer close(out)
		for {
			snap := new(chat.Snapshot)
			if err := stream.RecvMsg(snap); err != nil {
				if !errors.Is(err, io.EOF) && status.Code(err) != codes.Canceled {
					c.logger.Error("thread stream failed", zap.String("conversation", conversationID), zap.Error(err))
				}
				return
			}
			select {
			case out <- *snap:
			case <-ctx.Done():
				return
			}
		}
	}()
	return out, nil
}
