package control

import (
	"fmt"
	"time"

	"google.golang.org/protobuf/types/known/structpb"
)

// State is a snapshot of what the daemon shows.
type State struct {
	// ActivePattern is the pattern the render loop draws; empty when stopped.
	ActivePattern string
	// Frames counts frames written to the strip.
	Frames uint64
	// FrameFailures counts failed strip writes.
	FrameFailures uint64
	// Swaps counts render loop replacements.
	Swaps uint64
	// Sources lists the registered pattern sources in registration order.
	Sources []SourceState
	// Notification is the notification on screen, nil when hidden.
	Notification *NotificationState
}

// SourceState is one pattern source vote.
type SourceState struct {
	Name     string
	Priority int
	Pattern  string
}

// NotificationState describes the notification on screen.
type NotificationState struct {
	Source   string
	Header   string
	Text     string
	Color    string
	Priority int
	Lifespan time.Duration
}

// toStruct encodes the state as a protobuf Struct.
func toStruct(state *State) (*structpb.Struct, error) {
	sources := make([]any, 0, len(state.Sources))
	for _, src := range state.Sources {
		sources = append(sources, map[string]any{
			"name":     src.Name,
			"priority": src.Priority,
			"pattern":  src.Pattern,
		})
	}

	fields := map[string]any{
		"active_pattern": state.ActivePattern,
		"frames":         state.Frames,
		"frame_failures": state.FrameFailures,
		"swaps":          state.Swaps,
		"sources":        sources,
		"notification":   nil,
	}

	if n := state.Notification; n != nil {
		fields["notification"] = map[string]any{
			"source":      n.Source,
			"header":      n.Header,
			"text":        n.Text,
			"color":       n.Color,
			"priority":    n.Priority,
			"lifespan_ms": n.Lifespan.Milliseconds(),
		}
	}

	encoded, err := structpb.NewStruct(fields)
	if err != nil {
		return nil, fmt.Errorf("encode state: %w", err)
	}

	return encoded, nil
}

// fromStruct decodes a state produced by toStruct. Missing fields stay zero.
func fromStruct(encoded *structpb.Struct) *State {
	fields := encoded.GetFields()

	state := &State{
		ActivePattern: fields["active_pattern"].GetStringValue(),
		Frames:        uint64(fields["frames"].GetNumberValue()),
		FrameFailures: uint64(fields["frame_failures"].GetNumberValue()),
		Swaps:         uint64(fields["swaps"].GetNumberValue()),
	}

	for _, value := range fields["sources"].GetListValue().GetValues() {
		src := value.GetStructValue().GetFields()
		state.Sources = append(state.Sources, SourceState{
			Name:     src["name"].GetStringValue(),
			Priority: int(src["priority"].GetNumberValue()),
			Pattern:  src["pattern"].GetStringValue(),
		})
	}

	if n := fields["notification"].GetStructValue(); n != nil {
		nf := n.GetFields()
		state.Notification = &NotificationState{
			Source:   nf["source"].GetStringValue(),
			Header:   nf["header"].GetStringValue(),
			Text:     nf["text"].GetStringValue(),
			Color:    nf["color"].GetStringValue(),
			Priority: int(nf["priority"].GetNumberValue()),
			Lifespan: time.Duration(nf["lifespan_ms"].GetNumberValue()) * time.Millisecond,
		}
	}

	return state
}
