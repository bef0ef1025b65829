package grpc

import (
	"context"

	"google.golang.org/grpc"
	"google.golang.org/grpc/metadata"
	"google.golang.org/protobuf/types/known/structpb"
)

// Client is a client of the essentials service
type Client struct {
	cc grpc.ClientConnInterface
}

// NewClient creates a new Client over an established connection
func NewClient(cc grpc.ClientConnInterface) *Client {
	return &Client{cc: cc}
}

// TokenInterceptor returns a unary client interceptor that attaches the API token
func TokenInterceptor(token string) grpc.UnaryClientInterceptor {
	return func(ctx context.Context, method string, req, reply any, cc *grpc.ClientConn, invoker grpc.UnaryInvoker, opts ...grpc.CallOption) error {
		ctx = metadata.AppendToOutgoingContext(ctx, "authorization", token)
		return invoker(ctx, method, req, reply, cc, opts...)
	}
}

// Call invokes a method with the given request fields
func (c *Client) Call(ctx context.Context, method string, fields map[string]any, opts ...grpc.CallOption) (*structpb.Struct, error) {
	in, err := structpb.NewStruct(fields)
	if err != nil {
		return nil, err
	}
	out := new(structpb.Struct)
	if err := c.cc.Invoke(ctx, FullMethod(method), in, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) CreateEssential(ctx context.Context, name, category, unit, icon string) (*structpb.Struct, error) {
	return c.Call(ctx, MethodCreateEssential, map[string]any{
		"name":     name,
		"category": category,
		"unit":     unit,
		"icon":     icon,
	})
}

// UpdateEssential sends only the fields present in changes
func (c *Client) UpdateEssential(ctx context.Context, id string, changes map[string]any) (*structpb.Struct, error) {
	fields := map[string]any{"id": id}
	for k, v := range changes {
		fields[k] = v
	}
	return c.Call(ctx, MethodUpdateEssential, fields)
}

func (c *Client) DeleteEssential(ctx context.Context, id string) (*structpb.Struct, error) {
	return c.Call(ctx, MethodDeleteEssential, map[string]any{"id": id})
}

func (c *Client) ListEssentials(ctx context.Context) (*structpb.Struct, error) {
	return c.Call(ctx, MethodListEssentials, nil)
}

func (c *Client) GetEssential(ctx context.Context, id string) (*structpb.Struct, error) {
	return c.Call(ctx, MethodGetEssential, map[string]any{"id": id})
}

// AddPrice records a price; extra carries optional location, notes and created_at
func (c *Client) AddPrice(ctx context.Context, essentialID, price string, extra map[string]any) (*structpb.Struct, error) {
	fields := map[string]any{"essential_id": essentialID, "price": price}
	for k, v := range extra {
		fields[k] = v
	}
	return c.Call(ctx, MethodAddPrice, fields)
}

func (c *Client) GetPriceHistory(ctx context.Context, essentialID string, limit int) (*structpb.Struct, error) {
	return c.Call(ctx, MethodGetPriceHistory, map[string]any{"essential_id": essentialID, "limit": limit})
}

func (c *Client) GetStats(ctx context.Context, essentialID string) (*structpb.Struct, error) {
	return c.Call(ctx, MethodGetStats, map[string]any{"essential_id": essentialID})
}

func (c *Client) GetChart(ctx context.Context, essentialID, chartType string) (*structpb.Struct, error) {
	return c.Call(ctx, MethodGetChart, map[string]any{"essential_id": essentialID, "type": chartType})
}

func (c *Client) GetOverview(ctx context.Context) (*structpb.Struct, error) {
	return c.Call(ctx, MethodGetOverview, nil)
}
