package control

import (
	"context"
	"fmt"
	"os"
	"os/user"

	"google.golang.org/grpc/metadata"
)

// actorMetadataKey carries the user@host that issued a control call.
const actorMetadataKey = "x-build-tv-actor"

// unknownActor is logged when a call carries no actor.
const unknownActor = "<unknown>"

// DetectActor returns user@host of the current process for the audit log.
func DetectActor() (string, error) {
	hostname, err := os.Hostname()
	if err != nil {
		return "", fmt.Errorf("hostname: %w", err)
	}

	currentUser, err := user.Current()
	if err != nil {
		return "", fmt.Errorf("current user: %w", err)
	}

	return currentUser.Username + "@" + hostname, nil
}

// WithActor attaches actor to outgoing calls made with ctx.
func WithActor(ctx context.Context, actor string) context.Context {
	if actor == "" {
		return ctx
	}

	return metadata.AppendToOutgoingContext(ctx, actorMetadataKey, actor)
}

// actorFromContext reads the actor of an incoming call.
func actorFromContext(ctx context.Context) string {
	md, ok := metadata.FromIncomingContext(ctx)
	if !ok {
		return unknownActor
	}

	if values := md.Get(actorMetadataKey); len(values) > 0 && values[0] != "" {
		return values[0]
	}

	return unknownActor
}
