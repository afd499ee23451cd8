package control

import (
	"context"
	"errors"
	"strings"

	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/emptypb"
	"google.golang.org/protobuf/types/known/structpb"
	"google.golang.org/protobuf/types/known/wrapperspb"

	"github.com/oshokin/build-tv/internal/logger"
	"github.com/oshokin/build-tv/internal/service/led"
)

// Service abstracts the daemon operations the transport layer depends on.
type Service interface {
	SetPattern(ctx context.Context, name string) error
	State(ctx context.Context) *State
}

// Server implements the ControlService gRPC API.
type Server struct {
	// service provides the daemon operations.
	service Service
}

// NewServer wires the provided service implementation into a gRPC handler.
func NewServer(service Service) *Server {
	return &Server{
		service: service,
	}
}

// SetPattern forces the named pattern until the next merge recompute.
func (s *Server) SetPattern(ctx context.Context, req *wrapperspb.StringValue) (*emptypb.Empty, error) {
	name := strings.TrimSpace(req.GetValue())
	if name == "" {
		return nil, status.Error(codes.InvalidArgument, "pattern name is required")
	}

	actor := actorFromContext(ctx)
	err := s.service.SetPattern(ctx, name)

	switch {
	case err == nil:
		logger.InfoKV(ctx, "Pattern forced", "pattern", name, "actor", actor)

		return new(emptypb.Empty), nil
	case errors.Is(err, led.ErrUnknownPattern):
		logger.WarnKV(ctx, "Unknown pattern requested", "pattern", name, "actor", actor)

		return nil, status.Errorf(codes.NotFound, "unknown pattern %q", name)
	case errors.Is(err, led.ErrNotRunning):
		return nil, status.Error(codes.FailedPrecondition, "LED service is not running")
	default:
		logger.ErrorKV(ctx, "SetPattern failed", "pattern", name, "error", err)

		return nil, status.Error(codes.Internal, "unable to set pattern")
	}
}

// GetState returns the current daemon state.
func (s *Server) GetState(ctx context.Context, _ *emptypb.Empty) (*structpb.Struct, error) {
	state := s.service.State(ctx)
	if state == nil {
		state = new(State)
	}

	encoded, err := toStruct(state)
	if err != nil {
		return nil, status.Error(codes.Internal, err.Error())
	}

	return encoded, nil
}
