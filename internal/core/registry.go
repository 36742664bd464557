package core

import (
	context "context"
	"sync"

	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/emptypb"
	"google.golang.org/protobuf/types/known/structpb"
	"google.golang.org/protobuf/types/known/wrapperspb"

	"github.com/joshp123/gohome-floureon/internal/rpc"
)

const RegistryServiceName = "gohome.registry.v1.Registry"

// RegistryServer is the server API for the plugin registry.
type RegistryServer interface {
	ListPlugins(context.Context, *emptypb.Empty) (*structpb.Struct, error)
	DescribePlugin(context.Context, *wrapperspb.StringValue) (*structpb.Struct, error)
}

// RegistryService provides plugin discovery to clients.
type RegistryService struct {
	plugins []Plugin
	mu      sync.RWMutex
}

func NewRegistryService(plugins []Plugin) *RegistryService {
	return &RegistryService{plugins: plugins}
}

func registryDefinition() rpc.Service {
	return rpc.Service{
		Package:     "gohome.registry.v1",
		Name:        "Registry",
		HandlerType: (*RegistryServer)(nil),
		Methods: []rpc.Method{
			{
				Name:    "ListPlugins",
				Input:   &emptypb.Empty{},
				Output:  &structpb.Struct{},
				Handler: rpc.Unary(newEmpty, RegistryServer.ListPlugins),
			},
			{
				Name:    "DescribePlugin",
				Input:   &wrapperspb.StringValue{},
				Output:  &structpb.Struct{},
				Handler: rpc.Unary(newStringValue, RegistryServer.DescribePlugin),
			},
		},
	}
}

// RegisterRegistryServer registers the registry on a gRPC server.
func RegisterRegistryServer(server *grpc.Server, srv RegistryServer) error {
	desc, err := registryDefinition().Describe()
	if err != nil {
		return err
	}
	server.RegisterService(desc, srv)
	return nil
}

func (r *RegistryService) ListPlugins(ctx context.Context, _ *emptypb.Empty) (*structpb.Struct, error) {
	_ = ctx

	r.mu.RLock()
	defer r.mu.RUnlock()

	summaries := make([]any, 0, len(r.plugins))
	for _, p := range r.plugins {
		manifest := p.Manifest()
		summaries = append(summaries, map[string]any{
			"plugin_id":    manifest.PluginID,
			"display_name": manifest.DisplayName,
			"version":      manifest.Version,
			"status":       string(p.Health()),
		})
	}

	resp, err := structpb.NewStruct(map[string]any{"plugins": summaries})
	if err != nil {
		return nil, status.Errorf(codes.Internal, "encode plugins: %v", err)
	}
	return resp, nil
}

func (r *RegistryService) DescribePlugin(ctx context.Context, req *wrapperspb.StringValue) (*structpb.Struct, error) {
	_ = ctx

	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, p := range r.plugins {
		manifest := p.Manifest()
		if manifest.PluginID != req.GetValue() {
			continue
		}

		services := make([]any, 0, len(manifest.Services))
		for _, svc := range manifest.Services {
			services = append(services, svc)
		}
		dashboards := make([]any, 0)
		for _, d := range p.Dashboards() {
			dashboards = append(dashboards, map[string]any{
				"name": d.Name,
				"path": DashboardPath(manifest.PluginID, d.Name),
			})
		}

		resp, err := structpb.NewStruct(map[string]any{
			"plugin": map[string]any{
				"plugin_id":      manifest.PluginID,
				"display_name":   manifest.DisplayName,
				"version":        manifest.Version,
				"services":       services,
				"agents_md":      p.AgentsMD(),
				"status":         string(p.Health()),
				"health_message": p.HealthMessage(),
				"dashboards":     dashboards,
			},
		})
		if err != nil {
			return nil, status.Errorf(codes.Internal, "encode plugin: %v", err)
		}
		return resp, nil
	}

	return &structpb.Struct{}, nil
}

// RegistryClient calls the registry over a client connection.
type RegistryClient struct {
	cc grpc.ClientConnInterface
}

func NewRegistryClient(cc grpc.ClientConnInterface) *RegistryClient {
	return &RegistryClient{cc: cc}
}

func (c *RegistryClient) ListPlugins(ctx context.Context) (*structpb.Struct, error) {
	out := &structpb.Struct{}
	if err := c.cc.Invoke(ctx, rpc.FullMethod(RegistryServiceName, "ListPlugins"), &emptypb.Empty{}, out); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *RegistryClient) DescribePlugin(ctx context.Context, pluginID string) (*structpb.Struct, error) {
	out := &structpb.Struct{}
	if err := c.cc.Invoke(ctx, rpc.FullMethod(RegistryServiceName, "DescribePlugin"), wrapperspb.String(pluginID), out); err != nil {
		return nil, err
	}
	return out, nil
}

func newEmpty() *emptypb.Empty { return &emptypb.Empty{} }

func newStringValue() *wrapperspb.StringValue { return &wrapperspb.StringValue{} }
