package floureon

import (
	"context"
	"net"
	"testing"

	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/status"
	"google.golang.org/grpc/test/bufconn"
)

func dialService(t *testing.T, thermo *Thermostat) *ServiceClient {
	t.Helper()
	listener := bufconn.Listen(1 << 20)
	server := grpc.NewServer()
	if err := RegisterFloureonService(server, thermo); err != nil {
		t.Fatalf("RegisterFloureonService: %v", err)
	}
	go func() { _ = server.Serve(listener) }()
	t.Cleanup(server.Stop)

	conn, err := grpc.NewClient("passthrough:///bufnet",
		grpc.WithContextDialer(func(ctx context.Context, _ string) (net.Conn, error) {
			return listener.DialContext(ctx)
		}),
		grpc.WithTransportCredentials(insecure.NewCredentials()),
	)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	t.Cleanup(func() { _ = conn.Close() })
	return NewServiceClient(conn)
}

func TestServiceStateAndRefresh(t *testing.T) {
	thermo, client := newTestThermostat()
	svc := dialService(t, thermo)
	ctx := context.Background()

	state, err := svc.GetState(ctx)
	if err != nil {
		t.Fatalf("GetState: %v", err)
	}
	if _, ok := state.Fields["current_temperature"]; ok {
		t.Fatalf("expected no temperature before refresh")
	}
	if state.Fields["hvac_mode"].GetStringValue() != "off" {
		t.Fatalf("unexpected mode: %v", state.Fields["hvac_mode"])
	}

	state, err = svc.Refresh(ctx)
	if err != nil {
		t.Fatalf("Refresh: %v", err)
	}
	if state.Fields["current_temperature"].GetNumberValue() != 21.5 {
		t.Fatalf("unexpected current: %v", state.Fields["current_temperature"])
	}
	if state.Fields["target_temperature"].GetNumberValue() != 21 || !state.Fields["is_on"].GetBoolValue() {
		t.Fatalf("unexpected state: %v", state)
	}
	if client.fetches() != 1 {
		t.Fatalf("expected one fetch, got %d", client.fetches())
	}
}

func TestServiceCommands(t *testing.T) {
	thermo, client := newTestThermostat()
	svc := dialService(t, thermo)
	ctx := context.Background()

	accepted, err := svc.SetTemperature(ctx, 19.5)
	if err != nil || !accepted {
		t.Fatalf("SetTemperature: accepted=%v err=%v", accepted, err)
	}
	accepted, err = svc.SetHVACMode(ctx, "heat")
	if err != nil || !accepted {
		t.Fatalf("SetHVACMode: accepted=%v err=%v", accepted, err)
	}
	cmds := client.commands()
	if len(cmds) != 3 || cmds[0].value != float64(39) || cmds[2].value != "on" {
		t.Fatalf("unexpected commands: %+v", cmds)
	}

	if _, err := svc.SetTemperature(ctx, 31); status.Code(err) != codes.InvalidArgument {
		t.Fatalf("expected InvalidArgument, got %v", err)
	}
	if _, err := svc.SetHVACMode(ctx, "cool"); status.Code(err) != codes.InvalidArgument {
		t.Fatalf("expected InvalidArgument, got %v", err)
	}

	client.status = 500
	accepted, err = svc.SetHVACMode(ctx, "off")
	if err != nil || accepted {
		t.Fatalf("expected rejected command without error, got accepted=%v err=%v", accepted, err)
	}
}

func TestServiceWithoutThermostat(t *testing.T) {
	svc := dialService(t, nil)
	if _, err := svc.GetState(context.Background()); status.Code(err) != codes.FailedPrecondition {
		t.Fatalf("expected FailedPrecondition, got %v", err)
	}
}
