package meterv1

import (
	"context"

	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/dynamicpb"
	"google.golang.org/protobuf/types/known/emptypb"
)

const ServiceName = "meterwatch.v1.MeterService"

const (
	MeterService_SubmitReading_FullMethodName  = "/meterwatch.v1.MeterService/SubmitReading"
	MeterService_QueryReadings_FullMethodName  = "/meterwatch.v1.MeterService/QueryReadings"
	MeterService_QueryAnomalies_FullMethodName = "/meterwatch.v1.MeterService/QueryAnomalies"
	MeterService_ListMeters_FullMethodName     = "/meterwatch.v1.MeterService/ListMeters"
)

// MeterServiceClient is the client API for MeterService.
type MeterServiceClient interface {
	SubmitReading(ctx context.Context, in *SubmitReadingRequest, opts ...grpc.CallOption) (*SubmitReadingResponse, error)
	QueryReadings(ctx context.Context, in *RangeRequest, opts ...grpc.CallOption) (*QueryReadingsResponse, error)
	QueryAnomalies(ctx context.Context, in *RangeRequest, opts ...grpc.CallOption) (*QueryAnomaliesResponse, error)
	ListMeters(ctx context.Context, in *emptypb.Empty, opts ...grpc.CallOption) (*ListMetersResponse, error)
}

type meterServiceClient struct {
	cc grpc.ClientConnInterface
}

func NewMeterServiceClient(cc grpc.ClientConnInterface) MeterServiceClient {
	return &meterServiceClient{cc}
}

func (c *meterServiceClient) SubmitReading(ctx context.Context, in *SubmitReadingRequest, opts ...grpc.CallOption) (*SubmitReadingResponse, error) {
	wire := dynamicpb.NewMessage(submitReadingResponseDesc)
	if err := c.cc.Invoke(ctx, MeterService_SubmitReading_FullMethodName, in.toProto(), wire, opts...); err != nil {
		return nil, err
	}
	out := new(SubmitReadingResponse)
	out.fromProto(wire)
	return out, nil
}

func (c *meterServiceClient) QueryReadings(ctx context.Context, in *RangeRequest, opts ...grpc.CallOption) (*QueryReadingsResponse, error) {
	wire := dynamicpb.NewMessage(queryReadingsResponseDesc)
	if err := c.cc.Invoke(ctx, MeterService_QueryReadings_FullMethodName, in.toProto(), wire, opts...); err != nil {
		return nil, err
	}
	out := new(QueryReadingsResponse)
	out.fromProto(wire)
	return out, nil
}

func (c *meterServiceClient) QueryAnomalies(ctx context.Context, in *RangeRequest, opts ...grpc.CallOption) (*QueryAnomaliesResponse, error) {
	wire := dynamicpb.NewMessage(queryAnomaliesResponseDesc)
	if err := c.cc.Invoke(ctx, MeterService_QueryAnomalies_FullMethodName, in.toProto(), wire, opts...); err != nil {
		return nil, err
	}
	out := new(QueryAnomaliesResponse)
	out.fromProto(wire)
	return out, nil
}

func (c *meterServiceClient) ListMeters(ctx context.Context, in *emptypb.Empty, opts ...grpc.CallOption) (*ListMetersResponse, error) {
	if in == nil {
		in = &emptypb.Empty{}
	}
	wire := dynamicpb.NewMessage(listMetersResponseDesc)
	if err := c.cc.Invoke(ctx, MeterService_ListMeters_FullMethodName, in, wire, opts...); err != nil {
		return nil, err
	}
	out := new(ListMetersResponse)
	out.fromProto(wire)
	return out, nil
}

// MeterServiceServer is the server API for MeterService.
type MeterServiceServer interface {
	SubmitReading(context.Context, *SubmitReadingRequest) (*SubmitReadingResponse, error)
	QueryReadings(context.Context, *RangeRequest) (*QueryReadingsResponse, error)
	QueryAnomalies(context.Context, *RangeRequest) (*QueryAnomaliesResponse, error)
	ListMeters(context.Context, *emptypb.Empty) (*ListMetersResponse, error)
}

// UnimplementedMeterServiceServer can be embedded to have forward compatible
// implementations.
type UnimplementedMeterServiceServer struct{}

func (UnimplementedMeterServiceServer) SubmitReading(context.Context, *SubmitReadingRequest) (*SubmitReadingResponse, error) {
	return nil, status.Errorf(codes.Unimplemented, "method SubmitReading not implemented")
}
func (UnimplementedMeterServiceServer) QueryReadings(context.Context, *RangeRequest) (*QueryReadingsResponse, error) {
	return nil, status.Errorf(codes.Unimplemented, "method QueryReadings not implemented")
}
func (UnimplementedMeterServiceServer) QueryAnomalies(context.Context, *RangeRequest) (*QueryAnomaliesResponse, error) {
	return nil, status.Errorf(codes.Unimplemented, "method QueryAnomalies not implemented")
}
func (UnimplementedMeterServiceServer) ListMeters(context.Context, *emptypb.Empty) (*ListMetersResponse, error) {
	return nil, status.Errorf(codes.Unimplemented, "method ListMeters not implemented")
}

// reply converts a typed response into its wire form. Interceptors see the
// typed request and response; only the codec sees dynamic messages.
func reply(out interface{}, err error) (interface{}, error) {
	if err != nil {
		return nil, err
	}
	if m, ok := out.(wireMessage); ok {
		return m.toProto(), nil
	}
	return out, nil
}

func RegisterMeterServiceServer(s grpc.ServiceRegistrar, srv MeterServiceServer) {
	s.RegisterService(&MeterService_ServiceDesc, srv)
}

func _MeterService_SubmitReading_Handler(srv interface{}, ctx context.Context, dec func(interface{}) error, interceptor grpc.UnaryServerInterceptor) (interface{}, error) {
	wire := dynamicpb.NewMessage(submitReadingRequestDesc)
	if err := dec(wire); err != nil {
		return nil, err
	}
	in := new(SubmitReadingRequest)
	in.fromProto(wire)
	if interceptor == nil {
		return reply(srv.(MeterServiceServer).SubmitReading(ctx, in))
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: MeterService_SubmitReading_FullMethodName}
	handler := func(ctx context.Context, req interface{}) (interface{}, error) {
		return srv.(MeterServiceServer).SubmitReading(ctx, req.(*SubmitReadingRequest))
	}
	return reply(interceptor(ctx, in, info, handler))
}

func _MeterService_QueryReadings_Handler(srv interface{}, ctx context.Context, dec func(interface{}) error, interceptor grpc.UnaryServerInterceptor) (interface{}, error) {
	wire := dynamicpb.NewMessage(rangeRequestDesc)
	if err := dec(wire); err != nil {
		return nil, err
	}
	in := new(RangeRequest)
	in.fromProto(wire)
	if interceptor == nil {
		return reply(srv.(MeterServiceServer).QueryReadings(ctx, in))
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: MeterService_QueryReadings_FullMethodName}
	handler := func(ctx context.Context, req interface{}) (interface{}, error) {
		return srv.(MeterServiceServer).QueryReadings(ctx, req.(*RangeRequest))
	}
	return reply(interceptor(ctx, in, info, handler))
}

func _MeterService_QueryAnomalies_Handler(srv interface{}, ctx context.Context, dec func(interface{}) error, interceptor grpc.UnaryServerInterceptor) (interface{}, error) {
	wire := dynamicpb.NewMessage(rangeRequestDesc)
	if err := dec(wire); err != nil {
		return nil, err
	}
	in := new(RangeRequest)
	in.fromProto(wire)
	if interceptor == nil {
		return reply(srv.(MeterServiceServer).QueryAnomalies(ctx, in))
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: MeterService_QueryAnomalies_FullMethodName}
	handler := func(ctx context.Context, req interface{}) (interface{}, error) {
		return srv.(MeterServiceServer).QueryAnomalies(ctx, req.(*RangeRequest))
	}
	return reply(interceptor(ctx, in, info, handler))
}

func _MeterService_ListMeters_Handler(srv interface{}, ctx context.Context, dec func(interface{}) error, interceptor grpc.UnaryServerInterceptor) (interface{}, error) {
	in := new(emptypb.Empty)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return reply(srv.(MeterServiceServer).ListMeters(ctx, in))
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: MeterService_ListMeters_FullMethodName}
	handler := func(ctx context.Context, req interface{}) (interface{}, error) {
		return srv.(MeterServiceServer).ListMeters(ctx, req.(*emptypb.Empty))
	}
	return reply(interceptor(ctx, in, info, handler))
}

// MeterService_ServiceDesc is the grpc.ServiceDesc for MeterService.
var MeterService_ServiceDesc = grpc.ServiceDesc{
	ServiceName: ServiceName,
	HandlerType: (*MeterServiceServer)(nil),
	Methods: []grpc.MethodDesc{
		{MethodName: "SubmitReading", Handler: _MeterService_SubmitReading_Handler},
		{MethodName: "QueryReadings", Handler: _MeterService_QueryReadings_Handler},
		{MethodName: "QueryAnomalies", Handler: _MeterService_QueryAnomalies_Handler},
		{MethodName: "ListMeters", Handler: _MeterService_ListMeters_Handler},
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: ProtoFile,
}
