package server

import (
	"context"

	"google.golang.org/grpc"
	"google.golang.org/protobuf/types/known/structpb"
)

// ServiceName is the fully qualified gRPC service name.
const ServiceName = "boxscore.v1.ReviewService"

// Method names of the review service.
const (
	MethodStartSession   = "StartSession"
	MethodGetSession     = "GetSession"
	MethodEdit           = "Edit"
	MethodAddRow         = "AddRow"
	MethodRemoveRow      = "RemoveRow"
	MethodOverride       = "Override"
	MethodCommit         = "Commit"
	MethodAbandon        = "Abandon"
	MethodListSessions   = "ListSessions"
	MethodExportWorkbook = "ExportWorkbook"
)

// ReviewServer is the review service. Requests and responses are
// google.protobuf.Struct messages.
type ReviewServer interface {
	StartSession(context.Context, *structpb.Struct) (*structpb.Struct, error)
	GetSession(context.Context, *structpb.Struct) (*structpb.Struct, error)
	Edit(context.Context, *structpb.Struct) (*structpb.Struct, error)
	AddRow(context.Context, *structpb.Struct) (*structpb.Struct, error)
	RemoveRow(context.Context, *structpb.Struct) (*structpb.Struct, error)
	Override(context.Context, *structpb.Struct) (*structpb.Struct, error)
	Commit(context.Context, *structpb.Struct) (*structpb.Struct, error)
	Abandon(context.Context, *structpb.Struct) (*structpb.Struct, error)
	ListSessions(context.Context, *structpb.Struct) (*structpb.Struct, error)
	ExportWorkbook(context.Context, *structpb.Struct) (*structpb.Struct, error)
}

type call func(ReviewServer, context.Context, *structpb.Struct) (*structpb.Struct, error)

func unary(name string, fn call) grpc.MethodDesc {
	return grpc.MethodDesc{
		MethodName: name,
		Handler: func(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
			in := new(structpb.Struct)
			if err := dec(in); err != nil {
				return nil, err
			}
			if interceptor == nil {
				return fn(srv.(ReviewServer), ctx, in)
			}
			info := &grpc.UnaryServerInfo{Server: srv, FullMethod: "/" + ServiceName + "/" + name}
			return interceptor(ctx, in, info, func(ctx context.Context, req any) (any, error) {
				return fn(srv.(ReviewServer), ctx, req.(*structpb.Struct))
			})
		},
	}
}

// ReviewServiceDesc describes the review service to grpc.Server.
var ReviewServiceDesc = grpc.ServiceDesc{
	ServiceName: ServiceName,
	HandlerType: (*ReviewServer)(nil),
	Methods: []grpc.MethodDesc{
		unary(MethodStartSession, ReviewServer.StartSession),
		unary(MethodGetSession, ReviewServer.GetSession),
		unary(MethodEdit, ReviewServer.Edit),
		unary(MethodAddRow, ReviewServer.AddRow),
		unary(MethodRemoveRow, ReviewServer.RemoveRow),
		unary(MethodOverride, ReviewServer.Override),
		unary(MethodCommit, ReviewServer.Commit),
		unary(MethodAbandon, ReviewServer.Abandon),
		unary(MethodListSessions, ReviewServer.ListSessions),
		unary(MethodExportWorkbook, ReviewServer.ExportWorkbook),
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "boxscore/v1/review.proto",
}

func RegisterReviewServer(s grpc.ServiceRegistrar, srv ReviewServer) {
	s.RegisterService(&ReviewServiceDesc, srv)
}

// ReviewClient calls the review service over a client connection.
type ReviewClient struct {
	cc grpc.ClientConnInterface
}

func NewReviewClient(cc grpc.ClientConnInterface) *ReviewClient {
	return &ReviewClient{cc: cc}
}

// Call invokes method with req and returns the response as plain values.
func (c *ReviewClient) Call(ctx context.Context, method string, req map[string]any, opts ...grpc.CallOption) (map[string]any, error) {
	in, err := structpb.NewStruct(req)
	if err != nil {
		return nil, err
	}
	out := new(structpb.Struct)
	if err := c.cc.Invoke(ctx, "/"+ServiceName+"/"+method, in, out, opts...); err != nil {
		return nil, err
	}
	return out.AsMap(), nil
}
