package modald

import (
	"context"

	"google.golang.org/grpc"
	"google.golang.org/protobuf/types/known/structpb"
)

// ServiceName is the fully qualified gRPC service name.
const ServiceName = "webmodal.v1.ModalService"

// Method names.
const (
	MethodOpenDialog             = "OpenDialog"
	MethodCloseDialog            = "CloseDialog"
	MethodSetCloseOnInterstitial = "SetCloseOnInterstitial"
	MethodSetVisibility          = "SetVisibility"
	MethodAttachInterstitial     = "AttachInterstitial"
	MethodCloseAll               = "CloseAll"
	MethodGetSurface             = "GetSurface"
	MethodListSurfaces           = "ListSurfaces"
	MethodPing                   = "Ping"
)

// FullMethod returns the gRPC path for a method name.
func FullMethod(method string) string {
	return "/" + ServiceName + "/" + method
}

// ModalServiceServer is the server API for the modal service. Requests
// and responses are structpb.Struct values carrying the JSON form of the
// request and response types in this package.
type ModalServiceServer interface {
	OpenDialog(context.Context, *structpb.Struct) (*structpb.Struct, error)
	CloseDialog(context.Context, *structpb.Struct) (*structpb.Struct, error)
	SetCloseOnInterstitial(context.Context, *structpb.Struct) (*structpb.Struct, error)
	SetVisibility(context.Context, *structpb.Struct) (*structpb.Struct, error)
	AttachInterstitial(context.Context, *structpb.Struct) (*structpb.Struct, error)
	CloseAll(context.Context, *structpb.Struct) (*structpb.Struct, error)
	GetSurface(context.Context, *structpb.Struct) (*structpb.Struct, error)
	ListSurfaces(context.Context, *structpb.Struct) (*structpb.Struct, error)
	Ping(context.Context, *structpb.Struct) (*structpb.Struct, error)
}

type unaryCall func(ModalServiceServer, context.Context, *structpb.Struct) (*structpb.Struct, error)

func unaryMethod(method string, call unaryCall) grpc.MethodDesc {
	return grpc.MethodDesc{
		MethodName: method,
		Handler: func(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
			in := new(structpb.Struct)
			if err := dec(in); err != nil {
				return nil, err
			}
			if interceptor == nil {
				return call(srv.(ModalServiceServer), ctx, in)
			}
			info := &grpc.UnaryServerInfo{
				Server:     srv,
				FullMethod: FullMethod(method),
			}
			handler := func(ctx context.Context, req any) (any, error) {
				return call(srv.(ModalServiceServer), ctx, req.(*structpb.Struct))
			}
			return interceptor(ctx, in, info, handler)
		},
	}
}

// ModalServiceDesc describes the modal service for grpc.Server.RegisterService.
var ModalServiceDesc = grpc.ServiceDesc{
	ServiceName: ServiceName,
	HandlerType: (*ModalServiceServer)(nil),
	Methods: []grpc.MethodDesc{
		unaryMethod(MethodOpenDialog, ModalServiceServer.OpenDialog),
		unaryMethod(MethodCloseDialog, ModalServiceServer.CloseDialog),
		unaryMethod(MethodSetCloseOnInterstitial, ModalServiceServer.SetCloseOnInterstitial),
		unaryMethod(MethodSetVisibility, ModalServiceServer.SetVisibility),
		unaryMethod(MethodAttachInterstitial, ModalServiceServer.AttachInterstitial),
		unaryMethod(MethodCloseAll, ModalServiceServer.CloseAll),
		unaryMethod(MethodGetSurface, ModalServiceServer.GetSurface),
		unaryMethod(MethodListSurfaces, ModalServiceServer.ListSurfaces),
		unaryMethod(MethodPing, ModalServiceServer.Ping),
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "webmodal/v1/modal.proto",
}

// RegisterModalServiceServer registers srv with s.
func RegisterModalServiceServer(s grpc.ServiceRegistrar, srv ModalServiceServer) {
	s.RegisterService(&ModalServiceDesc, srv)
}
