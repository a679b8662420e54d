package rpc

import (
	"context"

	"github.com/chatconsole/chatconsole/internal/chat"
	"google.golang.org/grpc"
)

const servicePrefix = "chatconsole.v1."

// Full method names.
const (
	MethodGetStatus          = "/" + servicePrefix + "DaemonService/GetStatus"
	MethodListConversations  = "/" + servicePrefix + "ConversationService/ListConversations"
	MethodListMessages       = "/" + servicePrefix + "MessageService/ListMessages"
	MethodSendText           = "/" + servicePrefix + "MessageService/SendText"
	MethodSendMedia          = "/" + servicePrefix + "MessageService/SendMedia"
	MethodWatchThread        = "/" + servicePrefix + "MessageService/WatchThread"
	MethodStartCall          = "/" + servicePrefix + "CallService/StartCall"
	MethodImportAppointments = "/" + servicePrefix + "AppointmentService/ImportAppointments"
)

type DaemonServer interface {
	GetStatus(context.Context, *GetStatusRequest) (*GetStatusResponse, error)
}

type ConversationServer interface {
	ListConversations(context.Context, *ListConversationsRequest) (*ListConversationsResponse, error)
}

type MessageServer interface {
	ListMessages(context.Context, *ListMessagesRequest) (*ListMessagesResponse, error)
	SendText(context.Context, *SendTextRequest) (*SendMessageResponse, error)
	SendMedia(context.Context, *SendMediaRequest) (*SendMessageResponse, error)
	WatchThread(*WatchThreadRequest, ThreadStream) error
}

type CallServer interface {
	StartCall(context.Context, *StartCallRequest) (*StartCallResponse, error)
}

type AppointmentServer interface {
	ImportAppointments(context.Context, *ImportAppointmentsRequest) (*ImportAppointmentsResponse, error)
}

// ThreadStream is the server side of WatchThread.
type ThreadStream interface {
	Send(*chat.Snapshot) error
	grpc.ServerStream
}

type threadStream struct {
	grpc.ServerStream
}

func (s threadStream) Send(snap *chat.Snapshot) error {
	return s.SendMsg(snap)
}

// unary adapts a typed method to a grpc.MethodHandler.
func unary[Req, Resp any](fullMethod string, call func(srv any, ctx context.Context, req *Req) (*Resp, error)) grpc.MethodHandler {
	return func(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
		in := new(Req)
		if err := dec(in); err != nil {
			return nil, err
		}
		if interceptor == nil {
			return call(srv, ctx, in)
		}
		info := &grpc.UnaryServerInfo{Server: srv, FullMethod: fullMethod}
		handler := func(ctx context.Context, req any) (any, error) {
			return call(srv, ctx, req.(*Req))
		}
		return interceptor(ctx, in, info, handler)
	}
}

var daemonServiceDesc = grpc.ServiceDesc{
	ServiceName: servicePrefix + "DaemonService",
	HandlerType: (*DaemonServer)(nil),
	Methods: []grpc.MethodDesc{{
		MethodName: "GetStatus",
		Handler: unary(MethodGetStatus, func(srv any, ctx context.Context, req *GetStatusRequest) (*GetStatusResponse, error) {
			return srv.(DaemonServer).GetStatus(ctx, req)
		}),
	}},
}

var conversationServiceDesc = grpc.ServiceDesc{
	ServiceName: servicePrefix + "ConversationService",
	HandlerType: (*ConversationServer)(nil),
	Methods: []grpc.MethodDesc{{
		MethodName: "ListConversations",
		Handler: unary(MethodListConversations, func(srv any, ctx context.Context, req *ListConversationsRequest) (*ListConversationsResponse, error) {
			return srv.(ConversationServer).ListConversations(ctx, req)
		}),
	}},
}

var messageServiceDesc = grpc.ServiceDesc{
	ServiceName: servicePrefix + "MessageService",
	HandlerType: (*MessageServer)(nil),
	Methods: []grpc.MethodDesc{
		{
			MethodName: "ListMessages",
			Handler: unary(MethodListMessages, func(srv any, ctx context.Context, req *ListMessagesRequest) (*ListMessagesResponse, error) {
				return srv.(MessageServer).ListMessages(ctx, req)
			}),
		},
		{
			MethodName: "SendText",
			Handler: unary(MethodSendText, func(srv any, ctx context.Context, req *SendTextRequest) (*SendMessageResponse, error) {
				return srv.(MessageServer).SendText(ctx, req)
			}),
		},
		{
			MethodName: "SendMedia",
			Handler: unary(MethodSendMedia, func(srv any, ctx context.Context, req *SendMediaRequest) (*SendMessageResponse, error) {
				return srv.(MessageServer).SendMedia(ctx, req)
			}),
		},
	},
	Streams: []grpc.StreamDesc{{
		StreamName:    "WatchThread",
		ServerStreams: true,
		Handler: func(srv any, stream grpc.ServerStream) error {
			in := new(WatchThreadRequest)
			if err := stream.RecvMsg(in); err != nil {
				return err
			}
			return srv.(MessageServer).WatchThread(in, threadStream{stream})
		},
	}},
}

var callServiceDesc = grpc.ServiceDesc{
	ServiceName: servicePrefix + "CallService",
	HandlerType: (*CallServer)(nil),
	Methods: []grpc.MethodDesc{{
		MethodName: "StartCall",
		Handler: unary(MethodStartCall, func(srv any, ctx context.Context, req *StartCallRequest) (*StartCallResponse, error) {
			return srv.(CallServer).StartCall(ctx, req)
		}),
	}},
}

var appointmentServiceDesc = grpc.ServiceDesc{
	ServiceName: servicePrefix + "AppointmentService",
	HandlerType: (*AppointmentServer)(nil),
	Methods: []grpc.MethodDesc{{
		MethodName: "ImportAppointments",
		Handler: unary(MethodImportAppointments, func(srv any, ctx context.Context, req *ImportAppointmentsRequest) (*ImportAppointmentsResponse, error) {
			return srv.(AppointmentServer).ImportAppointments(ctx, req)
		}),
	}},
}

func RegisterDaemonServer(s grpc.ServiceRegistrar, srv DaemonServer) {
	s.RegisterService(&daemonServiceDesc, srv)
}

func RegisterConversationServer(s grpc.ServiceRegistrar, srv ConversationServer) {
	s.RegisterService(&conversationServiceDesc, srv)
}

func RegisterMessageServer(s grpc.ServiceRegistrar, srv MessageServer) {
	s.RegisterService(&messageServiceDesc, srv)
}

func RegisterCallServer(s grpc.ServiceRegistrar, srv CallServer) {
	s.RegisterService(&callServiceDesc, srv)
}

func RegisterAppointmentServer(s grpc.ServiceRegistrar, srv AppointmentServer) {
	s.RegisterService(&appointmentServiceDesc, srv)
}
