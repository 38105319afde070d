// Package telemetry talks to the Ubidots cloud: it publishes labelled readings
// and reads back the last value of the control variables.
package telemetry

import (
	"context"
	"errors"
)

// ErrNoValue is returned by LastValue when the cloud holds no value yet.
var ErrNoValue = errors.New("no value for label")

type Transport interface {
	Publish(ctx context.Context, device string, values map[string]float64) error
	LastValue(ctx context.Context, device, label string) (float64, error)
	// Resubscribe re-establishes the control variable feeds after repeated
	// failures. Transports without subscriptions treat it as a no-op.
	Resubscribe(ctx context.Context, device string, labels []string) error
	Close() error
}
