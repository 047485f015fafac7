package nats

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/jrybusiness/stylerental-backend/internal/listing/domain"
	"github.com/jrybusiness/stylerental-backend/internal/platform/logger"
	"github.com/nats-io/nats.go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/propagation"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
)

type captureConn struct {
	msgs []*nats.Msg
	err  error
}

func (c *captureConn) PublishMsg(m *nats.Msg) error {
	if c.err != nil {
		return c.err
	}
	c.msgs = append(c.msgs, m)
	return nil
}

func TestPublishEncodesJSONAndPropagatesTrace(t *testing.T) {
	tp := sdktrace.NewTracerProvider()
	defer func() { _ = tp.Shutdown(context.Background()) }()
	otel.SetTracerProvider(tp)
	otel.SetTextMapPropagator(propagation.TraceContext{})

	conn := &captureConn{}
	p := &Publisher{pub: conn, logger: logger.NewNop()}

	ctx, span := tp.Tracer("test").Start(context.Background(), "parent")
	defer span.End()

	err := p.Publish(ctx, domain.SubjectListingDeleted, domain.ListingEvent{ListingID: "l1", Purged: []string{"x"}})
	require.NoError(t, err)
	require.Len(t, conn.msgs, 1)

	msg := conn.msgs[0]
	assert.Equal(t, domain.SubjectListingDeleted, msg.Subject)
	var ev domain.ListingEvent
	require.NoError(t, json.Unmarshal(msg.Data, &ev))
	assert.Equal(t, "l1", ev.ListingID)
	assert.Equal(t, []string{"x"}, ev.Purged)
	assert.Contains(t, msg.Header.Get("traceparent"), span.SpanContext().TraceID().String())
}

func TestPublishReportsConnectionErrors(t *testing.T) {
	p := &Publisher{pub: &captureConn{err: errors.New("closed")}, logger: logger.NewNop()}

	err := p.Publish(context.Background(), "s", map[string]string{"a": "b"})
	assert.Error(t, err)
}

func TestPublishRejectsUnencodablePayload(t *testing.T) {
	p := &Publisher{pub: &captureConn{}, logger: logger.NewNop()}

	err := p.Publish(context.Background(), "s", make(chan int))
	assert.Error(t, err)
}

func TestHeaderCarrier(t *testing.T) {
	c := HeaderCarrier(nats.Header{})
	c.Set("traceparent", "00-abc")
	assert.Equal(t, "00-abc", c.Get("traceparent"))
	assert.Equal(t, []string{"traceparent"}, c.Keys())
}
