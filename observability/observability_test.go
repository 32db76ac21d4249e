package observability

import (
	"context"
	"errors"
	"io"
	"net/http/httptest"
	"strings"
	"testing"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"

	"github.com/william251082/fileupload/logger"
)

func TestConfigDefaultsAndValidate(t *testing.T) {
	var cfg Config
	cfg.ApplyDefaults()
	if cfg.Tracing.Endpoint != "localhost:4318" || cfg.Tracing.SampleRate != 1.0 {
		t.Errorf("tracing defaults = %+v", cfg.Tracing)
	}
	if cfg.Metrics.Namespace != "fileupload" {
		t.Errorf("namespace = %q", cfg.Metrics.Namespace)
	}
	cfg.Tracing.SampleRate = 1.5
	if err := cfg.Validate(); err == nil {
		t.Error("expected error for sample rate above 1")
	}
}

func TestStartAndEndSpan(t *testing.T) {
	recorder := tracetest.NewSpanRecorder()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(recorder))
	prev := otel.GetTracerProvider()
	otel.SetTracerProvider(tp)
	t.Cleanup(func() { otel.SetTracerProvider(prev) })

	_, span := StartSpan(context.Background(), "reference.upload", attribute.Int64("article.id", 7))
	EndSpan(span, errors.New("boom"))

	_, ok := StartSpan(context.Background(), "reference.list")
	EndSpan(ok, nil)

	spans := recorder.Ended()
	if len(spans) != 2 {
		t.Fatalf("ended spans = %d, want 2", len(spans))
	}
	if spans[0].Status().Code != codes.Error {
		t.Errorf("failed span status = %v", spans[0].Status())
	}
	if len(spans[0].Events()) == 0 {
		t.Error("error was not recorded as a span event")
	}
	if spans[1].Status().Code == codes.Error {
		t.Error("successful span marked as error")
	}
}

func TestMetricsPipeline(t *testing.T) {
	prev := otel.GetMeterProvider()
	t.Cleanup(func() { otel.SetMeterProvider(prev) })

	c, err := NewComponent(Config{Metrics: MeterConfig{Enabled: true}}, "fileupload", "test", "test", logger.Nop())
	if err != nil {
		t.Fatalf("NewComponent: %v", err)
	}
	defer c.Stop(context.Background())

	counter, err := c.MeterProvider().Meter("test").Int64Counter("references.uploaded")
	if err != nil {
		t.Fatal(err)
	}
	counter.Add(context.Background(), 3)

	srv := httptest.NewServer(c.MetricsHandler())
	defer srv.Close()
	resp, err := srv.Client().Get(srv.URL)
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()
	body, _ := io.ReadAll(resp.Body)

	found := false
	for _, line := range strings.Split(string(body), "\n") {
		if strings.HasPrefix(line, "fileupload_references_uploaded_total") && strings.HasSuffix(line, " 3") {
			found = true
		}
	}
	if !found {
		t.Errorf("scrape does not contain the counter:\n%s", body)
	}
	if !strings.Contains(string(body), "go_goroutines") {
		t.Error("runtime collectors missing from scrape")
	}
}

func TestMetricsDisabled(t *testing.T) {
	c, err := NewComponent(Config{}, "fileupload", "test", "test", logger.Nop())
	if err != nil {
		t.Fatal(err)
	}
	if c.MetricsHandler() != nil {
		t.Error("handler should be nil when metrics are disabled")
	}
	if c.MeterProvider() == nil {
		t.Error("MeterProvider should fall back to the global provider")
	}
	if err := c.Start(context.Background()); err != nil {
		t.Errorf("Start with tracing disabled: %v", err)
	}
}
