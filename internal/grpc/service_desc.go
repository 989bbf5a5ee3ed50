package grpc

import (
	"context"

	"google.golang.org/grpc"
	"google.golang.org/protobuf/types/known/emptypb"
	"google.golang.org/protobuf/types/known/structpb"
)

const (
	ServiceName = "evalreport.v1.ReportService"

	generateReportsMethod = "/" + ServiceName + "/GenerateReports"
	getLastRunMethod      = "/" + ServiceName + "/GetLastRun"
)

// ReportServer is the administrator API. Both calls take no arguments and
// answer with the run summary as a protobuf Struct.
type ReportServer interface {
	GenerateReports(context.Context, *emptypb.Empty) (*structpb.Struct, error)
	GetLastRun(context.Context, *emptypb.Empty) (*structpb.Struct, error)
}

func RegisterReportServer(s grpc.ServiceRegistrar, srv ReportServer) {
	s.RegisterService(&ReportServiceDesc, srv)
}

var ReportServiceDesc = grpc.ServiceDesc{
	ServiceName: ServiceName,
	HandlerType: (*ReportServer)(nil),
	Methods: []grpc.MethodDesc{
		{MethodName: "GenerateReports", Handler: generateReportsHandler},
		{MethodName: "GetLastRun", Handler: getLastRunHandler},
	},
	Streams: []grpc.StreamDesc{},
}

func generateReportsHandler(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
	in := new(emptypb.Empty)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(ReportServer).GenerateReports(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: generateReportsMethod}
	handler := func(ctx context.Context, req any) (any, error) {
		return srv.(ReportServer).GenerateReports(ctx, req.(*emptypb.Empty))
	}
	return interceptor(ctx, in, info, handler)
}

func getLastRunHandler(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
	in := new(emptypb.Empty)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(ReportServer).GetLastRun(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: getLastRunMethod}
	handler := func(ctx context.Context, req any) (any, error) {
		return srv.(ReportServer).GetLastRun(ctx, req.(*emptypb.Empty))
	}
	return interceptor(ctx, in, info, handler)
}

// ReportClient calls a remote ReportServer.
type ReportClient struct {
	cc grpc.ClientConnInterface
}

func NewReportClient(cc grpc.ClientConnInterface) *ReportClient {
	return &ReportClient{cc: cc}
}

func (c *ReportClient) GenerateReports(ctx context.Context, opts ...grpc.CallOption) (*structpb.Struct, error) {
	out := new(structpb.Struct)
	if err := c.cc.Invoke(ctx, generateReportsMethod, &emptypb.Empty{}, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *ReportClient) GetLastRun(ctx context.Context, opts ...grpc.CallOption) (*structpb.Struct, error) {
	out := new(structpb.Struct)
	if err := c.cc.Invoke(ctx, getLastRunMethod, &emptypb.Empty{}, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}
