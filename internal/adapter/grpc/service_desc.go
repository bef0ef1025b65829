package grpc

import (
	"context"

	"google.golang.org/grpc"
	"google.golang.org/protobuf/types/known/structpb"
)

// ServiceName is the fully qualified gRPC service name
const ServiceName = "essentials.v1.EssentialsService"

const (
	MethodCreateEssential = "CreateEssential"
	MethodUpdateEssential = "UpdateEssential"
	MethodDeleteEssential = "DeleteEssential"
	MethodListEssentials  = "ListEssentials"
	MethodGetEssential    = "GetEssential"
	MethodAddPrice        = "AddPrice"
	MethodGetPriceHistory = "GetPriceHistory"
	MethodGetStats        = "GetStats"
	MethodGetChart        = "GetChart"
	MethodGetOverview     = "GetOverview"
)

// FullMethod returns the "/service/method" path of a method
func FullMethod(method string) string {
	return "/" + ServiceName + "/" + method
}

// EssentialsServiceServer is the server API for the essentials service
type EssentialsServiceServer interface {
	CreateEssential(context.Context, *structpb.Struct) (*structpb.Struct, error)
	UpdateEssential(context.Context, *structpb.Struct) (*structpb.Struct, error)
	DeleteEssential(context.Context, *structpb.Struct) (*structpb.Struct, error)
	ListEssentials(context.Context, *structpb.Struct) (*structpb.Struct, error)
	GetEssential(context.Context, *structpb.Struct) (*structpb.Struct, error)
	AddPrice(context.Context, *structpb.Struct) (*structpb.Struct, error)
	GetPriceHistory(context.Context, *structpb.Struct) (*structpb.Struct, error)
	GetStats(context.Context, *structpb.Struct) (*structpb.Struct, error)
	GetChart(context.Context, *structpb.Struct) (*structpb.Struct, error)
	GetOverview(context.Context, *structpb.Struct) (*structpb.Struct, error)
}

type unaryCall func(EssentialsServiceServer, context.Context, *structpb.Struct) (*structpb.Struct, error)

func unaryHandler(method string, call unaryCall) grpc.MethodDesc {
	return grpc.MethodDesc{
		MethodName: method,
		Handler: func(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
			in := new(structpb.Struct)
			if err := dec(in); err != nil {
				return nil, err
			}
			if interceptor == nil {
				return call(srv.(EssentialsServiceServer), ctx, in)
			}
			info := &grpc.UnaryServerInfo{
				Server:     srv,
				FullMethod: FullMethod(method),
			}
			handler := func(ctx context.Context, req any) (any, error) {
				return call(srv.(EssentialsServiceServer), ctx, req.(*structpb.Struct))
			}
			return interceptor(ctx, in, info, handler)
		},
	}
}

// EssentialsServiceDesc describes the essentials service for grpc.Server.RegisterService
// It mirrors api/essentials/v1/essentials.proto
var EssentialsServiceDesc = grpc.ServiceDesc{
	ServiceName: ServiceName,
	HandlerType: (*EssentialsServiceServer)(nil),
	Methods: []grpc.MethodDesc{
		unaryHandler(MethodCreateEssential, EssentialsServiceServer.CreateEssential),
		unaryHandler(MethodUpdateEssential, EssentialsServiceServer.UpdateEssential),
		unaryHandler(MethodDeleteEssential, EssentialsServiceServer.DeleteEssential),
		unaryHandler(MethodListEssentials, EssentialsServiceServer.ListEssentials),
		unaryHandler(MethodGetEssential, EssentialsServiceServer.GetEssential),
		unaryHandler(MethodAddPrice, EssentialsServiceServer.AddPrice),
		unaryHandler(MethodGetPriceHistory, EssentialsServiceServer.GetPriceHistory),
		unaryHandler(MethodGetStats, EssentialsServiceServer.GetStats),
		unaryHandler(MethodGetChart, EssentialsServiceServer.GetChart),
		unaryHandler(MethodGetOverview, EssentialsServiceServer.GetOverview),
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "essentials/v1/essentials.proto",
}

// RegisterEssentialsServiceServer registers srv on s
func RegisterEssentialsServiceServer(s grpc.ServiceRegistrar, srv EssentialsServiceServer) {
	s.RegisterService(&EssentialsServiceDesc, srv)
}
