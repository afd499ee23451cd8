// Package control exposes the daemon's control surface over gRPC: forcing
// a pattern and reading the current LED and notification state.
//
// The service is described by a hand-written grpc.ServiceDesc whose messages
// are protobuf well-known types, so no generated code is needed.
package control
