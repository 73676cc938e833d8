package grpc

import (
	"context"

	"google.golang.org/grpc"
	"google.golang.org/protobuf/types/known/structpb"
)

// QueryClient calls the query service over an existing connection
type QueryClient struct {
	cc grpc.ClientConnInterface
}

// NewQueryClient creates a new QueryClient instance
func NewQueryClient(cc grpc.ClientConnInterface) *QueryClient {
	return &QueryClient{cc: cc}
}

func (c *QueryClient) invoke(ctx context.Context, method string, in *structpb.Struct, opts ...grpc.CallOption) (*structpb.Struct, error) {
	if in == nil {
		in = &structpb.Struct{}
	}
	out := new(structpb.Struct)
	if err := c.cc.Invoke(ctx, "/"+QueryServiceName+"/"+method, in, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}

// GetNetWorth fetches the current net worth
func (c *QueryClient) GetNetWorth(ctx context.Context, opts ...grpc.CallOption) (*structpb.Struct, error) {
	return c.invoke(ctx, "GetNetWorth", nil, opts...)
}

// GetMonthSummary fetches the disposable-income summary of month ("YYYY-MM")
func (c *QueryClient) GetMonthSummary(ctx context.Context, month string, opts ...grpc.CallOption) (*structpb.Struct, error) {
	in := &structpb.Struct{Fields: map[string]*structpb.Value{
		"month": structpb.NewStringValue(month),
	}}
	return c.invoke(ctx, "GetMonthSummary", in, opts...)
}

// GetPortfolio fetches every holding with its unrealized result
func (c *QueryClient) GetPortfolio(ctx context.Context, opts ...grpc.CallOption) (*structpb.Struct, error) {
	return c.invoke(ctx, "GetPortfolio", nil, opts...)
}
