package reference

import (
	"context"
	"fmt"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

const instrumentationName = "github.com/william251082/fileupload/reference"

type metrics struct {
	uploaded        metric.Int64Counter
	uploadBytes     metric.Int64Counter
	deleted         metric.Int64Counter
	cleanupFailures metric.Int64Counter
}

func newMetrics(mp metric.MeterProvider) (*metrics, error) {
	if mp == nil {
		mp = otel.GetMeterProvider()
	}
	meter := mp.Meter(instrumentationName)

	var m metrics
	var err error
	if m.uploaded, err = meter.Int64Counter("references.uploaded",
		metric.WithDescription("References created by successful uploads.")); err != nil {
		return nil, fmt.Errorf("references.uploaded: %w", err)
	}
	if m.uploadBytes, err = meter.Int64Counter("references.upload_bytes",
		metric.WithDescription("Bytes written to storage by successful uploads."),
		metric.WithUnit("By")); err != nil {
		return nil, fmt.Errorf("references.upload_bytes: %w", err)
	}
	if m.deleted, err = meter.Int64Counter("references.deleted",
		metric.WithDescription("References removed.")); err != nil {
		return nil, fmt.Errorf("references.deleted: %w", err)
	}
	if m.cleanupFailures, err = meter.Int64Counter("references.cleanup_failures",
		metric.WithDescription("Blob deletions that failed after the metadata was removed.")); err != nil {
		return nil, fmt.Errorf("references.cleanup_failures: %w", err)
	}
	return &m, nil
}

func (m *metrics) recordUpload(ctx context.Context, mimeType string, size int64) {
	attrs := metric.WithAttributes(attribute.String("mime_type", mimeType))
	m.uploaded.Add(ctx, 1, attrs)
	m.uploadBytes.Add(ctx, size, attrs)
}
