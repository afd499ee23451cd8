package display

import (
	"context"
	"errors"
	"fmt"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"
	jsoniter "github.com/json-iterator/go"

	"github.com/oshokin/build-tv/internal/domain/notification"
	"github.com/oshokin/build-tv/internal/logger"
)

const (
	// DefaultClientID identifies the daemon at the broker when none is configured.
	DefaultClientID = "build-tv-daemon"

	// qosAtLeastOnce makes the broker acknowledge every notification.
	qosAtLeastOnce byte = 1
	// disconnectQuiesceMs is how long pending work may finish on Close.
	disconnectQuiesceMs = 250
)

var (
	// ErrNotConnected is returned when the broker connection is down.
	ErrNotConnected = errors.New("mqtt client is not connected")
	// errTimeout is returned when the broker does not answer in time.
	errTimeout = errors.New("mqtt operation timed out")

	//nolint:gochecknoglobals // Stateless codec shared by every publish.
	json = jsoniter.ConfigCompatibleWithStandardLibrary
)

// MQTTOptions configures the MQTT display.
type MQTTOptions struct {
	// Broker is the broker URL, e.g. tcp://localhost:1883.
	Broker string
	// Topic receives the retained notification payload.
	Topic string
	// ClientID identifies this daemon at the broker.
	ClientID string
	// Timeout bounds connect and publish.
	Timeout time.Duration
}

// Payload is the JSON document read by the remote notification client.
type Payload struct {
	Header     string `json:"header"`
	Text       string `json:"text,omitempty"`
	LifespanMs int64  `json:"lifespan_ms"`
	Color      string `json:"color"`
	Priority   int    `json:"priority"`
	Visible    bool   `json:"visible"`
}

// MQTT publishes the displayed notification as a retained message.
type MQTT struct {
	client  mqtt.Client
	topic   string
	timeout time.Duration
}

// NewMQTT connects to the broker and returns a display publishing to opts.Topic.
func NewMQTT(ctx context.Context, opts MQTTOptions) (*MQTT, error) {
	if opts.ClientID == "" {
		opts.ClientID = DefaultClientID
	}

	clientOptions := mqtt.NewClientOptions().
		AddBroker(opts.Broker).
		SetClientID(opts.ClientID).
		SetAutoReconnect(true).
		SetConnectTimeout(opts.Timeout).
		SetMaxReconnectInterval(30 * time.Second)

	clientOptions.OnConnectionLost = func(_ mqtt.Client, err error) {
		logger.WarnKV(ctx, "MQTT connection lost, reconnecting", "broker", opts.Broker, "error", err)
	}

	client := mqtt.NewClient(clientOptions)

	logger.InfoKV(ctx, "Connecting to MQTT broker", "broker", opts.Broker, "topic", opts.Topic)

	if err := wait(client.Connect(), opts.Timeout); err != nil {
		return nil, fmt.Errorf("connect to %s: %w", opts.Broker, err)
	}

	return newMQTTWithClient(client, opts.Topic, opts.Timeout), nil
}

// newMQTTWithClient wraps an existing client.
func newMQTTWithClient(client mqtt.Client, topic string, timeout time.Duration) *MQTT {
	return &MQTT{
		client:  client,
		topic:   topic,
		timeout: timeout,
	}
}

// Show publishes n as the visible notification.
func (m *MQTT) Show(_ context.Context, n *notification.Notification) error {
	return m.publish(NewPayload(n))
}

// Hide publishes an invisible payload so the remote client clears its screen.
func (m *MQTT) Hide(context.Context) error {
	return m.publish(Payload{})
}

// Close disconnects from the broker.
func (m *MQTT) Close() {
	m.client.Disconnect(disconnectQuiesceMs)
}

// publish encodes and sends a retained payload.
func (m *MQTT) publish(payload Payload) error {
	if !m.client.IsConnected() {
		return ErrNotConnected
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal notification: %w", err)
	}

	if err := wait(m.client.Publish(m.topic, qosAtLeastOnce, true, body), m.timeout); err != nil {
		return fmt.Errorf("publish to %s: %w", m.topic, err)
	}

	return nil
}

// NewPayload converts a notification to its wire form.
func NewPayload(n *notification.Notification) Payload {
	if n == nil {
		return Payload{}
	}

	return Payload{
		Header:     n.Header,
		Text:       n.Text,
		LifespanMs: n.Lifespan.Milliseconds(),
		Color:      n.Color.Hex(),
		Priority:   n.Priority,
		Visible:    true,
	}
}

// wait blocks until the token completes or timeout passes.
func wait(token mqtt.Token, timeout time.Duration) error {
	if timeout > 0 && !token.WaitTimeout(timeout) {
		return errTimeout
	}

	if timeout <= 0 {
		token.Wait()
	}

	return token.Error()
}
