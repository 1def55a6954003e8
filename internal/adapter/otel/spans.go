package otel

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

const tracerName = "rentalmanager"

// StartUploadSpan starts a span for a document upload.
func StartUploadSpan(ctx context.Context, fileName string, size int64) (context.Context, trace.Span) {
	return otel.Tracer(tracerName).Start(ctx, "document.upload",
		trace.WithAttributes(
			attribute.String("file.name", fileName),
			attribute.Int64("file.size", size),
		),
	)
}

// StartSaveSpan starts a span for a record save (write then refetch).
func StartSaveSpan(ctx context.Context, collection, id string) (context.Context, trace.Span) {
	return otel.Tracer(tracerName).Start(ctx, "record.save",
		trace.WithAttributes(
			attribute.String("record.collection", collection),
			attribute.String("record.id", id),
		),
	)
}
