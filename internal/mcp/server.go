package mcp

import (
	"context"

	"github.com/mark3labs/mcp-go/server"
	"google.golang.org/protobuf/types/known/structpb"
)

// Thermostat is the slice of the Floureon gRPC client the tools use.
type Thermostat interface {
	GetState(ctx context.Context) (*structpb.Struct, error)
	Refresh(ctx context.Context) (*structpb.Struct, error)
	SetTemperature(ctx context.Context, celsius float64) (bool, error)
	SetHVACMode(ctx context.Context, mode string) (bool, error)
}

// Registry lists the plugins loaded by the daemon.
type Registry interface {
	ListPlugins(ctx context.Context) (*structpb.Struct, error)
}

// Server exposes GoHome thermostat control as MCP tools.
type Server struct {
	mcpServer  *server.MCPServer
	thermostat Thermostat
	registry   Registry
}

func NewServer(thermostat Thermostat, registry Registry) *Server {
	s := &Server{
		thermostat: thermostat,
		registry:   registry,
	}
	s.mcpServer = server.NewMCPServer(
		"gohome",
		"0.1.0",
		server.WithToolCapabilities(true),
	)
	s.registerTools()
	return s
}

// ServeStdio blocks serving MCP over stdin/stdout.
func (s *Server) ServeStdio() error {
	return server.ServeStdio(s.mcpServer)
}
