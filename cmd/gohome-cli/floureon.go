package main

import (
	"context"
	"fmt"
	"os"
	"strconv"

	"google.golang.org/grpc"
	"google.golang.org/protobuf/types/known/structpb"

	"github.com/joshp123/gohome-floureon/plugins/floureon"
)

func floureonCmd(ctx context.Context, conn *grpc.ClientConn, args []string, out outputMode) {
	if len(args) == 0 {
		floureonUsage()
		os.Exit(2)
	}

	client := floureon.NewServiceClient(conn)
	switch args[0] {
	case "state", "status":
		resp, err := client.GetState(ctx)
		if err != nil {
			fatal("floureon state", err)
		}
		printThermostat(out, resp)
	case "refresh":
		resp, err := client.Refresh(ctx)
		if err != nil {
			fatal("floureon refresh", err)
		}
		printThermostat(out, resp)
	case "set":
		if len(args) < 2 {
			fatal("floureon set", fmt.Errorf("usage: gohome-cli floureon set <temp>"))
		}
		temp, err := strconv.ParseFloat(args[1], 64)
		if err != nil {
			fatal("floureon set", fmt.Errorf("invalid temperature %q", args[1]))
		}
		accepted, err := client.SetTemperature(ctx, temp)
		if err != nil {
			fatal("floureon set", err)
		}
		printCommand(out, map[string]any{"temperature_celsius": temp, "accepted": accepted})
	case "mode":
		if len(args) < 2 {
			fatal("floureon mode", fmt.Errorf("usage: gohome-cli floureon mode <heat|off>"))
		}
		accepted, err := client.SetHVACMode(ctx, args[1])
		if err != nil {
			fatal("floureon mode", err)
		}
		printCommand(out, map[string]any{"hvac_mode": args[1], "accepted": accepted})
	default:
		floureonUsage()
		os.Exit(2)
	}
}

func printThermostat(out outputMode, state *structpb.Struct) {
	if out.json {
		out.printJSON(state.AsMap())
		return
	}
	rows := [][]string{{"NAME", "MODE", "CURRENT", "TARGET", "UPDATED"}}
	rows = append(rows, []string{
		stringField(state, "name"),
		stringField(state, "hvac_mode"),
		celsiusField(state, "current_temperature"),
		celsiusField(state, "target_temperature"),
		stringField(state, "updated_at"),
	})
	out.table(rows)
}

func celsiusField(state *structpb.Struct, key string) string {
	value, ok := state.GetFields()[key]
	if !ok {
		return "-"
	}
	return fmt.Sprintf("%.1f°C", value.GetNumberValue())
}

func printCommand(out outputMode, result map[string]any) {
	if out.json {
		out.printJSON(result)
		return
	}
	if result["accepted"] == true {
		fmt.Println("ok: command accepted")
		return
	}
	fmt.Println("rejected: the thermostat cloud did not accept the command")
	os.Exit(1)
}

func floureonUsage() {
	fmt.Println("gohome-cli floureon <command>")
	fmt.Println("")
	fmt.Println("Commands:")
	fmt.Println("  state")
	fmt.Println("  refresh")
	fmt.Println("  set <temp>")
	fmt.Println("  mode <heat|off>")
}
