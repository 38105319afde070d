package telemetry

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math/rand"
	"strconv"
	"strings"
	"sync"
	"time"

	"brewtemp/internal/config"

	mqtt "github.com/eclipse/paho.mqtt.golang"
)

const topicPrefix = "/v1.6/devices/"

// MQTTOptions builds client options for the Ubidots broker. The account
// token is the username; the password is unused.
func MQTTOptions(host string, port int, token string) *mqtt.ClientOptions {
	opts := mqtt.NewClientOptions()
	opts.AddBroker(fmt.Sprintf("tcp://%s:%d", host, port))
	opts.SetClientID(fmt.Sprintf("brewtemp_%d", rand.Intn(100000)))
	opts.SetUsername(token)
	opts.SetPassword("")
	opts.SetAutoReconnect(false)
	return opts
}

// NewMQTTClient returns an unconnected paho client for a telemetry table.
func NewMQTTClient(cfg config.TelemetryConfig, port int, token string) mqtt.Client {
	return mqtt.NewClient(MQTTOptions(cfg.Host, port, token))
}

// MQTTTransport publishes to the device topic and keeps the last value of
// every subscribed control variable.
type MQTTTransport struct {
	client  mqtt.Client
	timeout time.Duration

	mu     sync.RWMutex
	last   map[string]float64
	device string
	subs   []string
}

func NewMQTTTransport(client mqtt.Client, timeout time.Duration) *MQTTTransport {
	return &MQTTTransport{client: client, timeout: timeout, last: make(map[string]float64)}
}

var _ Transport = (*MQTTTransport)(nil)

func deviceTopic(device string) string { return topicPrefix + device }

func lastValueTopic(device, label string) string {
	return topicPrefix + device + "/" + label + "/lv"
}

func (t *MQTTTransport) wait(ctx context.Context, tok mqtt.Token, what string) error {
	select {
	case <-tok.Done():
		return tok.Error()
	case <-ctx.Done():
		return fmt.Errorf("mqtt %s: %w", what, ctx.Err())
	case <-time.After(t.timeout):
		return fmt.Errorf("mqtt %s timed out", what)
	}
}

// Connect dials the broker when the client is down. A new session starts
// with an empty cache and the saved feeds subscribed again.
func (t *MQTTTransport) Connect(ctx context.Context) error {
	if t.client.IsConnected() {
		return nil
	}
	if err := t.wait(ctx, t.client.Connect(), "connect"); err != nil {
		return err
	}
	t.mu.Lock()
	clear(t.last)
	device, subs := t.device, append([]string(nil), t.subs...)
	t.mu.Unlock()
	if len(subs) == 0 {
		return nil
	}
	if err := t.subscribe(ctx, device, subs); err != nil {
		return fmt.Errorf("restore subscriptions: %w", err)
	}
	return nil
}

func (t *MQTTTransport) Publish(ctx context.Context, device string, values map[string]float64) error {
	payload, err := json.Marshal(values)
	if err != nil {
		return fmt.Errorf("encode values: %w", err)
	}
	if err := t.Connect(ctx); err != nil {
		return err
	}
	return t.wait(ctx, t.client.Publish(deviceTopic(device), 1, false, payload), "publish")
}

// LastValue answers from the subscription cache.
func (t *MQTTTransport) LastValue(_ context.Context, _ string, label string) (float64, error) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	v, ok := t.last[label]
	if !ok {
		return 0, ErrNoValue
	}
	return v, nil
}

func (t *MQTTTransport) handle(label string) mqtt.MessageHandler {
	return func(_ mqtt.Client, msg mqtt.Message) {
		v, err := strconv.ParseFloat(strings.TrimSpace(string(msg.Payload())), 64)
		if err != nil {
			return
		}
		t.mu.Lock()
		t.last[label] = v
		t.mu.Unlock()
	}
}

// Subscribe starts the last-value feeds for labels.
func (t *MQTTTransport) Subscribe(ctx context.Context, device string, labels []string) error {
	if err := t.Connect(ctx); err != nil {
		return err
	}
	err := t.subscribe(ctx, device, labels)
	t.mu.Lock()
	t.device = device
	t.subs = append(t.subs[:0], labels...)
	t.mu.Unlock()
	return err
}

func (t *MQTTTransport) subscribe(ctx context.Context, device string, labels []string) error {
	var errs []error
	for _, l := range labels {
		topic := lastValueTopic(device, l)
		if err := t.wait(ctx, t.client.Subscribe(topic, 1, t.handle(l)), "subscribe "+topic); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// Resubscribe drops the current feeds and subscribes again.
func (t *MQTTTransport) Resubscribe(ctx context.Context, device string, labels []string) error {
	t.mu.RLock()
	old := append([]string(nil), t.subs...)
	t.mu.RUnlock()

	if len(old) > 0 && t.client.IsConnected() {
		topics := make([]string, 0, len(old))
		for _, l := range old {
			topics = append(topics, lastValueTopic(device, l))
		}
		// a stale subscription is replaced below either way
		_ = t.wait(ctx, t.client.Unsubscribe(topics...), "unsubscribe")
	}
	return t.Subscribe(ctx, device, labels)
}

func (t *MQTTTransport) Close() error {
	if t.client.IsConnected() {
		t.client.Disconnect(uint(t.timeout.Milliseconds()))
	}
	return nil
}
