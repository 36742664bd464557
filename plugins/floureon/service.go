package floureon

import (
	"context"
	"fmt"
	"math"
	"time"

	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/emptypb"
	"google.golang.org/protobuf/types/known/structpb"
	"google.golang.org/protobuf/types/known/wrapperspb"

	"github.com/joshp123/gohome-floureon/internal/core"
	"github.com/joshp123/gohome-floureon/internal/rpc"
)

const ServiceName = "gohome.plugins.floureon.v1.FloureonService"

// FloureonServer is the gRPC surface of the thermostat.
type FloureonServer interface {
	GetState(context.Context, *emptypb.Empty) (*structpb.Struct, error)
	Refresh(context.Context, *emptypb.Empty) (*structpb.Struct, error)
	SetTemperature(context.Context, *wrapperspb.DoubleValue) (*wrapperspb.BoolValue, error)
	SetHVACMode(context.Context, *wrapperspb.StringValue) (*wrapperspb.BoolValue, error)
}

type service struct {
	thermostat *Thermostat
}

func serviceDefinition() rpc.Service {
	return rpc.Service{
		Package:     "gohome.plugins.floureon.v1",
		Name:        "FloureonService",
		HandlerType: (*FloureonServer)(nil),
		Methods: []rpc.Method{
			{Name: "GetState", Input: &emptypb.Empty{}, Output: &structpb.Struct{}, Handler: rpc.Unary(newEmpty, FloureonServer.GetState)},
			{Name: "Refresh", Input: &emptypb.Empty{}, Output: &structpb.Struct{}, Handler: rpc.Unary(newEmpty, FloureonServer.Refresh)},
			{Name: "SetTemperature", Input: &wrapperspb.DoubleValue{}, Output: &wrapperspb.BoolValue{}, Handler: rpc.Unary(newDoubleValue, FloureonServer.SetTemperature)},
			{Name: "SetHVACMode", Input: &wrapperspb.StringValue{}, Output: &wrapperspb.BoolValue{}, Handler: rpc.Unary(newStringValue, FloureonServer.SetHVACMode)},
		},
	}
}

func RegisterFloureonService(server *grpc.Server, thermostat *Thermostat) error {
	desc, err := serviceDefinition().Describe()
	if err != nil {
		return err
	}
	server.RegisterService(desc, &service{thermostat: thermostat})
	return nil
}

func (s *service) GetState(ctx context.Context, _ *emptypb.Empty) (*structpb.Struct, error) {
	if s.thermostat == nil {
		return nil, status.Error(codes.FailedPrecondition, "floureon thermostat not configured")
	}
	return stateStruct(s.thermostat)
}

func (s *service) Refresh(ctx context.Context, _ *emptypb.Empty) (*structpb.Struct, error) {
	if s.thermostat == nil {
		return nil, status.Error(codes.FailedPrecondition, "floureon thermostat not configured")
	}
	if err := s.thermostat.Update(ctx); err != nil {
		return nil, status.Errorf(codes.Unavailable, "refresh: %v", err)
	}
	return stateStruct(s.thermostat)
}

func (s *service) SetTemperature(ctx context.Context, req *wrapperspb.DoubleValue) (*wrapperspb.BoolValue, error) {
	if s.thermostat == nil {
		return nil, status.Error(codes.FailedPrecondition, "floureon thermostat not configured")
	}
	if err := s.thermostat.validateTemperature(req.GetValue()); err != nil {
		return nil, status.Error(codes.InvalidArgument, err.Error())
	}
	return wrapperspb.Bool(s.thermostat.ApplyTemperature(ctx, req.GetValue())), nil
}

func (s *service) SetHVACMode(ctx context.Context, req *wrapperspb.StringValue) (*wrapperspb.BoolValue, error) {
	if s.thermostat == nil {
		return nil, status.Error(codes.FailedPrecondition, "floureon thermostat not configured")
	}
	mode, err := parseHVACMode(req.GetValue())
	if err != nil {
		return nil, status.Error(codes.InvalidArgument, err.Error())
	}
	return wrapperspb.Bool(s.thermostat.ApplyHVACMode(ctx, mode)), nil
}

func (t *Thermostat) validateTemperature(celsius float64) error {
	if math.IsNaN(celsius) || celsius < t.MinTemp() || celsius > t.MaxTemp() {
		return fmt.Errorf("temperature must be between %.1f and %.1f", t.MinTemp(), t.MaxTemp())
	}
	return nil
}

func parseHVACMode(value string) (core.HVACMode, error) {
	switch core.HVACMode(value) {
	case core.HVACModeHeat:
		return core.HVACModeHeat, nil
	case core.HVACModeOff:
		return core.HVACModeOff, nil
	default:
		return "", fmt.Errorf("hvac_mode must be heat or off, got %q", value)
	}
}

func stateMap(t *Thermostat) map[string]any {
	state := t.State()
	out := map[string]any{
		"name":        state.Name,
		"device":      t.device.Name(),
		"unit":        string(t.TemperatureUnit()),
		"is_on":       state.IsOn,
		"hvac_mode":   string(state.HVACMode),
		"hvac_modes":  []any{string(core.HVACModeHeat), string(core.HVACModeOff)},
		"min_temp":    t.MinTemp(),
		"max_temp":    t.MaxTemp(),
		"target_step": t.TargetTemperatureStep(),
	}
	if state.CurrentTemperature != nil {
		out["current_temperature"] = *state.CurrentTemperature
	}
	if state.TargetTemperature != nil {
		out["target_temperature"] = *state.TargetTemperature
	}
	if !state.UpdatedAt.IsZero() {
		out["updated_at"] = state.UpdatedAt.UTC().Format(time.RFC3339)
	}
	return out
}

func stateStruct(t *Thermostat) (*structpb.Struct, error) {
	st, err := structpb.NewStruct(stateMap(t))
	if err != nil {
		return nil, status.Errorf(codes.Internal, "encode state: %v", err)
	}
	return st, nil
}

// ServiceClient is a typed client for FloureonService.
type ServiceClient struct {
	cc grpc.ClientConnInterface
}

func NewServiceClient(cc grpc.ClientConnInterface) *ServiceClient {
	return &ServiceClient{cc: cc}
}

func (c *ServiceClient) GetState(ctx context.Context) (*structpb.Struct, error) {
	out := &structpb.Struct{}
	if err := c.cc.Invoke(ctx, rpc.FullMethod(ServiceName, "GetState"), &emptypb.Empty{}, out); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *ServiceClient) Refresh(ctx context.Context) (*structpb.Struct, error) {
	out := &structpb.Struct{}
	if err := c.cc.Invoke(ctx, rpc.FullMethod(ServiceName, "Refresh"), &emptypb.Empty{}, out); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *ServiceClient) SetTemperature(ctx context.Context, celsius float64) (bool, error) {
	out := &wrapperspb.BoolValue{}
	if err := c.cc.Invoke(ctx, rpc.FullMethod(ServiceName, "SetTemperature"), wrapperspb.Double(celsius), out); err != nil {
		return false, err
	}
	return out.GetValue(), nil
}

func (c *ServiceClient) SetHVACMode(ctx context.Context, mode string) (bool, error) {
	out := &wrapperspb.BoolValue{}
	if err := c.cc.Invoke(ctx, rpc.FullMethod(ServiceName, "SetHVACMode"), wrapperspb.String(mode), out); err != nil {
		return false, err
	}
	return out.GetValue(), nil
}

func newEmpty() *emptypb.Empty                { return &emptypb.Empty{} }
func newDoubleValue() *wrapperspb.DoubleValue { return &wrapperspb.DoubleValue{} }
func newStringValue() *wrapperspb.StringValue { return &wrapperspb.StringValue{} }
