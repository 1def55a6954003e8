package otel

import (
	"context"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"

	"github.com/Strob0t/rentalmanager/internal/domain/event"
	"github.com/Strob0t/rentalmanager/internal/service"
)

const meterName = "rentalmanager"

// Metrics holds all Rental Manager metric instruments.
type Metrics struct {
	RecordWrites metric.Int64Counter
	AuthChanges  metric.Int64Counter
	Uploads      metric.Int64Counter
	UploadBytes  metric.Int64Histogram
}

// NewMetrics creates all metric instruments on mp (usually otel.GetMeterProvider()).
func NewMetrics(mp metric.MeterProvider) (*Metrics, error) {
	meter := mp.Meter(meterName)
	m := &Metrics{}
	var err error

	m.RecordWrites, err = meter.Int64Counter("rentalmanager.records.writes",
		metric.WithDescription("Number of successful record writes"))
	if err != nil {
		return nil, err
	}

	m.AuthChanges, err = meter.Int64Counter("rentalmanager.auth.changes",
		metric.WithDescription("Number of session transitions"))
	if err != nil {
		return nil, err
	}

	m.Uploads, err = meter.Int64Counter("rentalmanager.uploads",
		metric.WithDescription("Number of document uploads by outcome"))
	if err != nil {
		return nil, err
	}

	m.UploadBytes, err = meter.Int64Histogram("rentalmanager.upload.size_bytes",
		metric.WithDescription("Size of uploaded files"),
		metric.WithUnit("By"))
	if err != nil {
		return nil, err
	}

	return m, nil
}

// CountUpload records one upload attempt.
func (m *Metrics) CountUpload(ctx context.Context, size int64, err error) {
	outcome := "ok"
	if err != nil {
		outcome = "error"
	}
	m.Uploads.Add(ctx, 1, metric.WithAttributes(attribute.String("outcome", outcome)))
	if err == nil && size >= 0 {
		m.UploadBytes.Record(ctx, size)
	}
}

// CountAuth records a session transition. It has the shape of an auth listener.
func (m *Metrics) CountAuth(ev event.AuthState) {
	m.AuthChanges.Add(context.Background(), 1, metric.WithAttributes(attribute.String("change", string(ev.Change))))
}

// RecordNotifier counts record writes and passes them on to next.
func (m *Metrics) RecordNotifier(next service.RecordNotifier) service.RecordNotifier {
	return &countingNotifier{m: m, next: next}
}

type countingNotifier struct {
	m    *Metrics
	next service.RecordNotifier
}

func (c *countingNotifier) RecordChanged(ctx context.Context, collection event.Collection, op event.Op, id string) {
	c.m.RecordWrites.Add(ctx, 1, metric.WithAttributes(
		attribute.String("collection", string(collection)),
		attribute.String("op", string(op)),
	))
	if c.next != nil {
		c.next.RecordChanged(ctx, collection, op, id)
	}
}
