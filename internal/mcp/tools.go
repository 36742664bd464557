package mcp

import "github.com/mark3labs/mcp-go/mcp"

func (s *Server) registerTools() {
	s.mcpServer.AddTool(
		mcp.NewTool("list_plugins",
			mcp.WithDescription("List the GoHome plugins loaded by the daemon with their health status"),
		),
		s.handleListPlugins,
	)

	s.mcpServer.AddTool(
		mcp.NewTool("get_thermostat",
			mcp.WithDescription("Get the Floureon thermostat state: current and target temperature in Celsius, power and HVAC mode"),
			mcp.WithBoolean("refresh",
				mcp.Description("Fetch a fresh shadow from the cloud instead of the last polled values (default false)"),
			),
		),
		s.handleGetThermostat,
	)

	s.mcpServer.AddTool(
		mcp.NewTool("set_temperature",
			mcp.WithDescription("Set the thermostat target temperature in Celsius, 15 to 30 in 0.5 steps"),
			mcp.WithNumber("temperature",
				mcp.Required(),
				mcp.Description("Target temperature in Celsius"),
				mcp.Min(15),
				mcp.Max(30),
			),
		),
		s.handleSetTemperature,
	)

	s.mcpServer.AddTool(
		mcp.NewTool("set_hvac_mode",
			mcp.WithDescription("Switch the thermostat on (heat) or off; both switch it to manual mode first"),
			mcp.WithString("hvac_mode",
				mcp.Required(),
				mcp.Enum("heat", "off"),
				mcp.Description("heat or off"),
			),
		),
		s.handleSetHVACMode,
	)
}
