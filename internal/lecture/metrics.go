package lecture

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

type serviceMetrics struct {
	requests metric.Int64Counter
	chunks   metric.Int64Counter
	bytes    metric.Int64Counter
}

func newServiceMetrics() serviceMetrics {
	meter := otel.Meter("github.com/edinai/lecture-audio/internal/lecture")
	requests, _ := meter.Int64Counter("lecture_audio_requests_total",
		metric.WithDescription("Synthesis requests processed, by outcome"))
	chunks, _ := meter.Int64Counter("lecture_audio_chunks_total",
		metric.WithDescription("Text chunks synthesized"))
	bytes, _ := meter.Int64Counter("lecture_audio_bytes_total",
		metric.WithDescription("Audio bytes written to artifacts"))
	return serviceMetrics{requests: requests, chunks: chunks, bytes: bytes}
}

func (m serviceMetrics) observe(ctx context.Context, status string, result Result) {
	m.requests.Add(ctx, 1, metric.WithAttributes(attribute.String("status", status)))
	if result.Chunks > 0 {
		m.chunks.Add(ctx, int64(result.Chunks))
	}
	if result.Bytes > 0 {
		m.bytes.Add(ctx, result.Bytes)
	}
}
