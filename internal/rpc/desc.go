// Package rpc declares gRPC services whose request and response messages are
// existing proto types, and publishes their descriptors so reflection-based
// clients (grpcurl, gohome-cli) can describe them.
package rpc

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"

	"google.golang.org/grpc"
	"google.golang.org/protobuf/proto"
	"google.golang.org/protobuf/reflect/protodesc"
	"google.golang.org/protobuf/reflect/protoreflect"
	"google.golang.org/protobuf/reflect/protoregistry"
	"google.golang.org/protobuf/types/descriptorpb"
)

var registerMu sync.Mutex

// Method declares one unary method.
type Method struct {
	Name    string
	Input   proto.Message
	Output  proto.Message
	Handler func(fullMethod string) grpc.MethodHandler
}

// Service declares a gRPC service.
type Service struct {
	Package     string
	Name        string
	HandlerType any
	Methods     []Method
}

// FullName returns the fully-qualified service name.
func (s Service) FullName() string {
	return s.Package + "." + s.Name
}

// FilePath returns the synthetic proto file path the service is registered under.
func (s Service) FilePath() string {
	return strings.ReplaceAll(s.Package, ".", "/") + "/" + strings.ToLower(s.Name) + ".proto"
}

// FullMethod returns the invoke path for a method of a service.
func FullMethod(service, method string) string {
	return "/" + service + "/" + method
}

// Describe registers the service descriptor (once per process) and returns
// the grpc.ServiceDesc to hand to grpc.Server.RegisterService.
func (s Service) Describe() (*grpc.ServiceDesc, error) {
	if s.Package == "" || s.Name == "" {
		return nil, fmt.Errorf("rpc service package and name are required")
	}
	if err := s.register(); err != nil {
		return nil, err
	}

	desc := &grpc.ServiceDesc{
		ServiceName: s.FullName(),
		HandlerType: s.HandlerType,
		Streams:     []grpc.StreamDesc{},
		Metadata:    s.FilePath(),
	}
	for _, m := range s.Methods {
		desc.Methods = append(desc.Methods, grpc.MethodDesc{
			MethodName: m.Name,
			Handler:    m.Handler(FullMethod(s.FullName(), m.Name)),
		})
	}
	return desc, nil
}

func (s Service) register() error {
	registerMu.Lock()
	defer registerMu.Unlock()

	path := s.FilePath()
	if _, err := protoregistry.GlobalFiles.FindFileByPath(path); err == nil {
		return nil
	}

	fd, err := protodesc.NewFile(s.fileProto(), protoregistry.GlobalFiles)
	if err != nil {
		return fmt.Errorf("build descriptor %s: %w", path, err)
	}
	if err := protoregistry.GlobalFiles.RegisterFile(fd); err != nil {
		return fmt.Errorf("register descriptor %s: %w", path, err)
	}
	return nil
}

func (s Service) fileProto() *descriptorpb.FileDescriptorProto {
	deps := map[string]struct{}{}
	methods := make([]*descriptorpb.MethodDescriptorProto, 0, len(s.Methods))
	for _, m := range s.Methods {
		in := m.Input.ProtoReflect().Descriptor()
		out := m.Output.ProtoReflect().Descriptor()
		deps[in.ParentFile().Path()] = struct{}{}
		deps[out.ParentFile().Path()] = struct{}{}
		methods = append(methods, &descriptorpb.MethodDescriptorProto{
			Name:       proto.String(m.Name),
			InputType:  proto.String(typeRef(in)),
			OutputType: proto.String(typeRef(out)),
		})
	}

	dependency := make([]string, 0, len(deps))
	for dep := range deps {
		dependency = append(dependency, dep)
	}
	sort.Strings(dependency)

	return &descriptorpb.FileDescriptorProto{
		Name:       proto.String(s.FilePath()),
		Package:    proto.String(s.Package),
		Syntax:     proto.String("proto3"),
		Dependency: dependency,
		Service: []*descriptorpb.ServiceDescriptorProto{{
			Name:   proto.String(s.Name),
			Method: methods,
		}},
	}
}

func typeRef(md protoreflect.MessageDescriptor) string {
	return "." + string(md.FullName())
}

// Unary adapts a typed server method into a grpc.MethodHandler, the same way
// generated *_grpc.pb.go handlers do.
func Unary[S any, Req proto.Message, Resp proto.Message](newReq func() Req, call func(S, context.Context, Req) (Resp, error)) func(string) grpc.MethodHandler {
	return func(fullMethod string) grpc.MethodHandler {
		return func(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
			in := newReq()
			if err := dec(in); err != nil {
				return nil, err
			}
			if interceptor == nil {
				return call(srv.(S), ctx, in)
			}
			info := &grpc.UnaryServerInfo{Server: srv, FullMethod: fullMethod}
			handler := func(ctx context.Context, req any) (any, error) {
				return call(srv.(S), ctx, req.(Req))
			}
			return interceptor(ctx, in, info, handler)
		}
	}
}
