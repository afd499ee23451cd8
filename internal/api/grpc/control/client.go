package control

import (
	"context"
	"errors"
	"fmt"
	"time"

	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/protobuf/types/known/emptypb"
	"google.golang.org/protobuf/types/known/structpb"
	"google.golang.org/protobuf/types/known/wrapperspb"

	"github.com/oshokin/build-tv/internal/config"
)

// Client calls the control service of a running daemon.
type Client struct {
	// conn is the underlying gRPC connection to the daemon.
	conn *grpc.ClientConn

	// callTimeout is the default timeout for individual RPC calls.
	callTimeout time.Duration
}

// Option configures client behaviour.
type Option func(*Client)

// WithCallTimeout sets a default timeout for service calls.
func WithCallTimeout(timeout time.Duration) Option {
	return func(c *Client) {
		if timeout > 0 {
			c.callTimeout = timeout
		}
	}
}

// errAddressRequired is returned when a required address value is missing.
var errAddressRequired = errors.New("address must be provided")

// Dial prepares a connection to the daemon's control address.
// The control API listens on loopback by default, so the transport is insecure.
func Dial(address string, opts ...Option) (*Client, error) {
	if address == "" {
		return nil, errAddressRequired
	}

	return DialWith(address, []grpc.DialOption{grpc.WithTransportCredentials(insecure.NewCredentials())}, opts...)
}

// DialWith prepares a connection with explicit dial options.
func DialWith(address string, dialOptions []grpc.DialOption, opts ...Option) (*Client, error) {
	conn, err := grpc.NewClient(address, dialOptions...)
	if err != nil {
		return nil, fmt.Errorf("dial build-tv daemon: %w", err)
	}

	client := &Client{
		conn:        conn,
		callTimeout: config.DefaultTimeout,
	}

	for _, opt := range opts {
		opt(client)
	}

	return client, nil
}

// Close releases the underlying gRPC connection.
func (c *Client) Close() error {
	if c == nil || c.conn == nil {
		return nil
	}

	return c.conn.Close()
}

// SetPattern asks the daemon to render the named pattern.
func (c *Client) SetPattern(ctx context.Context, name string) error {
	callCtx, cancel := c.callContext(ctx)
	defer cancel()

	if err := c.conn.Invoke(callCtx, SetPatternMethod, wrapperspb.String(name), new(emptypb.Empty)); err != nil {
		return fmt.Errorf("set pattern: %w", err)
	}

	return nil
}

// GetState retrieves the daemon state.
func (c *Client) GetState(ctx context.Context) (*State, error) {
	callCtx, cancel := c.callContext(ctx)
	defer cancel()

	response := new(structpb.Struct)
	if err := c.conn.Invoke(callCtx, GetStateMethod, new(emptypb.Empty), response); err != nil {
		return nil, fmt.Errorf("get state: %w", err)
	}

	return fromStruct(response), nil
}

// callContext returns a context with the client's call timeout if configured,
// otherwise a cancellable child context without a deadline.
func (c *Client) callContext(ctx context.Context) (context.Context, context.CancelFunc) {
	if c.callTimeout <= 0 {
		return context.WithCancel(ctx)
	}

	return context.WithTimeout(ctx, c.callTimeout)
}
