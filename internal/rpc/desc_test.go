package rpc

import (
	"context"
	"testing"

	"google.golang.org/protobuf/reflect/protoreflect"
	"google.golang.org/protobuf/reflect/protoregistry"
	"google.golang.org/protobuf/types/known/emptypb"
	"google.golang.org/protobuf/types/known/structpb"
	"google.golang.org/protobuf/types/known/wrapperspb"
)

type echoServer interface {
	Echo(context.Context, *wrapperspb.StringValue) (*structpb.Struct, error)
}

type echo struct{}

func (echo) Echo(_ context.Context, in *wrapperspb.StringValue) (*structpb.Struct, error) {
	return structpb.NewStruct(map[string]any{"value": in.GetValue()})
}

func testService() Service {
	return Service{
		Package:     "gohome.test.v1",
		Name:        "EchoService",
		HandlerType: (*echoServer)(nil),
		Methods: []Method{
			{
				Name:    "Echo",
				Input:   &wrapperspb.StringValue{},
				Output:  &structpb.Struct{},
				Handler: Unary(func() *wrapperspb.StringValue { return &wrapperspb.StringValue{} }, echoServer.Echo),
			},
			{
				Name:    "Ping",
				Input:   &emptypb.Empty{},
				Output:  &emptypb.Empty{},
				Handler: Unary(func() *emptypb.Empty { return &emptypb.Empty{} }, func(echoServer, context.Context, *emptypb.Empty) (*emptypb.Empty, error) { return &emptypb.Empty{}, nil }),
			},
		},
	}
}

func TestDescribeRegistersDescriptor(t *testing.T) {
	svc := testService()
	desc, err := svc.Describe()
	if err != nil {
		t.Fatalf("Describe: %v", err)
	}
	if desc.ServiceName != "gohome.test.v1.EchoService" {
		t.Fatalf("unexpected service name: %s", desc.ServiceName)
	}
	if len(desc.Methods) != 2 {
		t.Fatalf("expected 2 methods, got %d", len(desc.Methods))
	}

	found, err := protoregistry.GlobalFiles.FindDescriptorByName("gohome.test.v1.EchoService")
	if err != nil {
		t.Fatalf("service not registered: %v", err)
	}
	sd, ok := found.(protoreflect.ServiceDescriptor)
	if !ok {
		t.Fatalf("expected service descriptor, got %T", found)
	}
	method := sd.Methods().ByName("Echo")
	if method == nil {
		t.Fatalf("Echo method missing")
	}
	if method.Input().FullName() != "google.protobuf.StringValue" {
		t.Fatalf("unexpected input type: %s", method.Input().FullName())
	}

	if _, err := svc.Describe(); err != nil {
		t.Fatalf("second Describe should reuse the registered file: %v", err)
	}
}

func TestUnaryHandlerDecodesAndCalls(t *testing.T) {
	desc, err := testService().Describe()
	if err != nil {
		t.Fatalf("Describe: %v", err)
	}

	handler := desc.Methods[0].Handler
	dec := func(v any) error {
		v.(*wrapperspb.StringValue).Value = "hi"
		return nil
	}
	out, err := handler(echo{}, context.Background(), dec, nil)
	if err != nil {
		t.Fatalf("handler: %v", err)
	}
	got := out.(*structpb.Struct).GetFields()["value"].GetStringValue()
	if got != "hi" {
		t.Fatalf("unexpected echo value: %q", got)
	}
}

func TestFullMethod(t *testing.T) {
	if got := FullMethod("a.b.Svc", "Do"); got != "/a.b.Svc/Do" {
		t.Fatalf("unexpected full method: %s", got)
	}
}
