// Package events publishes typed JSON analytics events over NATS with
// OpenTelemetry trace propagation. Publishing is always best-effort: a nil
// publisher or broker failure is silently a no-op for the caller.
package events

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"github.com/nats-io/nats.go"
	"go.opentelemetry.io/otel"
)

// Subjects emitted by the engine.
const (
	SubjectDecode = "vinsight.decode"
	SubjectAction = "vinsight.action"
)

// DecodeEvent records one completed decode.
type DecodeEvent struct {
	UserID   string    `json:"user_id"`
	VIN      string    `json:"vin"`
	Provider string    `json:"provider"`
	CacheHit bool      `json:"cache_hit"`
	Level    string    `json:"level"`
	Richness float64   `json:"richness"`
	At       time.Time `json:"at"`
}

// ActionEvent records one navigation action.
type ActionEvent struct {
	UserID string    `json:"user_id"`
	Verb   string    `json:"verb"`
	VIN    string    `json:"vin,omitempty"`
	At     time.Time `json:"at"`
}

// msgCarrier adapts NATS headers for the OTel TextMapCarrier.
type msgCarrier nats.Msg

func (c *msgCarrier) Get(key string) string {
	if c.Header == nil {
		return ""
	}
	return c.Header.Get(key)
}

func (c *msgCarrier) Set(key, val string) {
	if c.Header == nil {
		c.Header = make(nats.Header)
	}
	c.Header.Set(key, val)
}

func (c *msgCarrier) Keys() []string {
	keys := make([]string, 0, len(c.Header))
	for k := range c.Header {
		keys = append(keys, k)
	}
	return keys
}

// Publisher emits events to a NATS connection. The zero value and nil are
// both safe no-ops so the engine never depends on a broker being configured.
type Publisher struct {
	nc     *nats.Conn
	logger *slog.Logger
}

// NewPublisher wraps an established NATS connection.
func NewPublisher(nc *nats.Conn, logger *slog.Logger) *Publisher {
	if logger == nil {
		logger = slog.Default()
	}
	return &Publisher{nc: nc, logger: logger}
}

// Publish serializes v as JSON onto subject, injecting trace context into the
// message headers. Failures are logged, never returned.
func Publish[T any](ctx context.Context, p *Publisher, subject string, v T) {
	if p == nil || p.nc == nil {
		return
	}
	data, err := json.Marshal(v)
	if err != nil {
		p.logger.Warn("event marshal failed", "subject", subject, "err", err)
		return
	}
	msg := &nats.Msg{Subject: subject, Data: data}
	otel.GetTextMapPropagator().Inject(ctx, (*msgCarrier)(msg))
	if err := p.nc.PublishMsg(msg); err != nil {
		p.logger.Warn("event publish failed", "subject", subject, "err", err)
	}
}
