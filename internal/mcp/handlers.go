package mcp

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/rs/zerolog/log"
	"google.golang.org/grpc/status"
)

func (s *Server) handleListPlugins(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	resp, err := s.registry.ListPlugins(ctx)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("failed to list plugins: %s", rpcMessage(err))), nil
	}
	return mcp.NewToolResultText(formatJSON(resp.AsMap())), nil
}

func (s *Server) handleGetThermostat(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	get := s.thermostat.GetState
	if refresh, ok := request.GetArguments()["refresh"].(bool); ok && refresh {
		get = s.thermostat.Refresh
	}

	state, err := get(ctx)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("failed to read thermostat: %s", rpcMessage(err))), nil
	}
	return mcp.NewToolResultText(formatJSON(state.AsMap())), nil
}

func (s *Server) handleSetTemperature(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	temp, ok := request.GetArguments()["temperature"].(float64)
	if !ok {
		return mcp.NewToolResultError(`required parameter "temperature" must be a number`), nil
	}

	accepted, err := s.thermostat.SetTemperature(ctx, temp)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("failed to set temperature: %s", rpcMessage(err))), nil
	}
	log.Info().Float64("temperature", temp).Bool("accepted", accepted).Msg("set_temperature")
	return commandResult(accepted, map[string]any{"temperature": temp, "accepted": accepted}), nil
}

func (s *Server) handleSetHVACMode(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	mode, err := requiredString(request, "hvac_mode")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	accepted, err := s.thermostat.SetHVACMode(ctx, mode)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("failed to set hvac mode: %s", rpcMessage(err))), nil
	}
	log.Info().Str("hvac_mode", mode).Bool("accepted", accepted).Msg("set_hvac_mode")
	return commandResult(accepted, map[string]any{"hvac_mode": mode, "accepted": accepted}), nil
}

func commandResult(accepted bool, out map[string]any) *mcp.CallToolResult {
	if !accepted {
		return mcp.NewToolResultError("the thermostat cloud rejected the command: " + formatJSON(out))
	}
	return mcp.NewToolResultText(formatJSON(out))
}

func requiredString(request mcp.CallToolRequest, key string) (string, error) {
	v, ok := request.GetArguments()[key]
	if !ok || v == nil {
		return "", fmt.Errorf("required parameter %q is missing", key)
	}
	s, ok := v.(string)
	if !ok || s == "" {
		return "", fmt.Errorf("parameter %q must be a non-empty string", key)
	}
	return s, nil
}

// rpcMessage strips the gRPC status prefix so agents see the server's reason.
func rpcMessage(err error) string {
	if st, ok := status.FromError(err); ok {
		return st.Message()
	}
	return err.Error()
}

func formatJSON(v any) string {
	b, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Sprintf(`{"error":"failed to marshal response: %s"}`, err)
	}
	return string(b)
}
