package charityv1

import (
	"context"

	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

// ServiceName is the fully qualified service name.
const ServiceName = "charityledger.v1.CharityService"

// Full method names.
const (
	CharityService_Initialize_FullMethodName     = "/" + ServiceName + "/Initialize"
	CharityService_Donate_FullMethodName         = "/" + ServiceName + "/Donate"
	CharityService_Settle_FullMethodName         = "/" + ServiceName + "/Settle"
	CharityService_GetCharityInfo_FullMethodName = "/" + ServiceName + "/GetCharityInfo"
)

// CharityServiceServer is the server API for CharityService.
type CharityServiceServer interface {
	Initialize(context.Context, *InitializeRequest) (*InitializeResponse, error)
	Donate(context.Context, *DonateRequest) (*DonateResponse, error)
	Settle(context.Context, *SettleRequest) (*SettleResponse, error)
	GetCharityInfo(context.Context, *GetCharityInfoRequest) (*GetCharityInfoResponse, error)
}

// UnimplementedCharityServiceServer can be embedded to have forward compatible implementations.
type UnimplementedCharityServiceServer struct{}

func (UnimplementedCharityServiceServer) Initialize(context.Context, *InitializeRequest) (*InitializeResponse, error) {
	return nil, status.Error(codes.Unimplemented, "method Initialize not implemented")
}

func (UnimplementedCharityServiceServer) Donate(context.Context, *DonateRequest) (*DonateResponse, error) {
	return nil, status.Error(codes.Unimplemented, "method Donate not implemented")
}

func (UnimplementedCharityServiceServer) Settle(context.Context, *SettleRequest) (*SettleResponse, error) {
	return nil, status.Error(codes.Unimplemented, "method Settle not implemented")
}

func (UnimplementedCharityServiceServer) GetCharityInfo(context.Context, *GetCharityInfoRequest) (*GetCharityInfoResponse, error) {
	return nil, status.Error(codes.Unimplemented, "method GetCharityInfo not implemented")
}

// RegisterCharityServiceServer registers srv on s.
func RegisterCharityServiceServer(s grpc.ServiceRegistrar, srv CharityServiceServer) {
	s.RegisterService(&CharityService_ServiceDesc, srv)
}

// unaryHandler adapts a typed method to a grpc.MethodDesc handler.
func unaryHandler[Req any, Resp any](fullMethod string, call func(CharityServiceServer, context.Context, *Req) (*Resp, error)) grpc.MethodHandler {
	return func(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
		in := new(Req)
		if err := dec(in); err != nil {
			return nil, err
		}
		if interceptor == nil {
			return call(srv.(CharityServiceServer), ctx, in)
		}
		info := &grpc.UnaryServerInfo{Server: srv, FullMethod: fullMethod}
		handler := func(ctx context.Context, req any) (any, error) {
			return call(srv.(CharityServiceServer), ctx, req.(*Req))
		}
		return interceptor(ctx, in, info, handler)
	}
}

// CharityService_ServiceDesc is the grpc.ServiceDesc for CharityService.
var CharityService_ServiceDesc = grpc.ServiceDesc{
	ServiceName: ServiceName,
	HandlerType: (*CharityServiceServer)(nil),
	Methods: []grpc.MethodDesc{
		{
			MethodName: "Initialize",
			Handler:    unaryHandler(CharityService_Initialize_FullMethodName, CharityServiceServer.Initialize),
		},
		{
			MethodName: "Donate",
			Handler:    unaryHandler(CharityService_Donate_FullMethodName, CharityServiceServer.Donate),
		},
		{
			MethodName: "Settle",
			Handler:    unaryHandler(CharityService_Settle_FullMethodName, CharityServiceServer.Settle),
		},
		{
			MethodName: "GetCharityInfo",
			Handler:    unaryHandler(CharityService_GetCharityInfo_FullMethodName, CharityServiceServer.GetCharityInfo),
		},
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "charityledger/v1/charity.proto",
}

// NewResponse returns an empty response message for fullMethod, or nil.
func NewResponse(fullMethod string) any {
	switch fullMethod {
	case CharityService_Initialize_FullMethodName:
		return new(InitializeResponse)
	case CharityService_Donate_FullMethodName:
		return new(DonateResponse)
	case CharityService_Settle_FullMethodName:
		return new(SettleResponse)
	case CharityService_GetCharityInfo_FullMethodName:
		return new(GetCharityInfoResponse)
	default:
		return nil
	}
}

// CharityServiceClient is the client API for CharityService.
type CharityServiceClient struct {
	cc grpc.ClientConnInterface
}

// NewCharityServiceClient creates a client that speaks the JSON codec.
func NewCharityServiceClient(cc grpc.ClientConnInterface) *CharityServiceClient {
	return &CharityServiceClient{cc: cc}
}

func (c *CharityServiceClient) invoke(ctx context.Context, method string, in, out any, opts []grpc.CallOption) error {
	opts = append([]grpc.CallOption{grpc.CallContentSubtype(CodecName)}, opts...)
	return c.cc.Invoke(ctx, method, in, out, opts...)
}

func (c *CharityServiceClient) Initialize(ctx context.Context, in *InitializeRequest, opts ...grpc.CallOption) (*InitializeResponse, error) {
	out := new(InitializeResponse)
	if err := c.invoke(ctx, CharityService_Initialize_FullMethodName, in, out, opts); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *CharityServiceClient) Donate(ctx context.Context, in *DonateRequest, opts ...grpc.CallOption) (*DonateResponse, error) {
	out := new(DonateResponse)
	if err := c.invoke(ctx, CharityService_Donate_FullMethodName, in, out, opts); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *CharityServiceClient) Settle(ctx context.Context, in *SettleRequest, opts ...grpc.CallOption) (*SettleResponse, error) {
	out := new(SettleResponse)
	if err := c.invoke(ctx, CharityService_Settle_FullMethodName, in, out, opts); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *CharityServiceClient) GetCharityInfo(ctx context.Context, in *GetCharityInfoRequest, opts ...grpc.CallOption) (*GetCharityInfoResponse, error) {
	out := new(GetCharityInfoResponse)
	if err := c.invoke(ctx, CharityService_GetCharityInfo_FullMethodName, in, out, opts); err != nil {
		return nil, err
	}
	return out, nil
}
