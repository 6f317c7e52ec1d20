package telemetry

import (
	"context"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracehttp"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.21.0"
	"go.uber.org/zap"
)

// Logger is replaced by InitTelemetry; the nop default keeps package
// consumers safe in tests that never initialize telemetry.
var Logger = zap.NewNop()

var tracerProvider *sdktrace.TracerProvider

var remoteCallDuration = promauto.NewHistogramVec(
	prometheus.HistogramOpts{
		Name:    "donation_remote_call_duration_seconds",
		Help:    "Duration of remote calls to payment providers.",
		Buckets: prometheus.DefBuckets,
	},
	[]string{"provider", "operation", "outcome"},
)

func InitTelemetry(serviceName string) error {
	logger, err := zap.NewProduction()
	if err != nil {
		return err
	}
	Logger = logger

	// The OTLP endpoint comes from the standard OTEL_EXPORTER_OTLP_*
	// environment handled by the exporter itself.
	exporter, err := otlptracehttp.New(context.Background())
	if err != nil {
		return err
	}

	res, err := resource.New(context.Background(),
		resource.WithAttributes(
			semconv.ServiceName(serviceName),
		),
	)
	if err != nil {
		return err
	}

	tracerProvider = sdktrace.NewTracerProvider(
		sdktrace.WithBatcher(exporter),
		sdktrace.WithResource(res),
	)
	otel.SetTracerProvider(tracerProvider)
	otel.SetTextMapPropagator(propagation.NewCompositeTextMapPropagator(
		propagation.TraceContext{},
		propagation.Baggage{},
	))

	return nil
}

func Shutdown(ctx context.Context) {
	if tracerProvider != nil {
		if err := tracerProvider.Shutdown(ctx); err != nil {
			Logger.Error("Failed to shut down tracer provider", zap.Error(err))
		}
	}
	_ = Logger.Sync()
}

func TracingMiddleware() gin.HandlerFunc {
	tracer := otel.Tracer("donation-gateway")
	return func(c *gin.Context) {
		ctx := otel.GetTextMapPropagator().Extract(
			c.Request.Context(),
			propagation.HeaderCarrier(c.Request.Header),
		)
		ctx, span := tracer.Start(ctx, c.FullPath())
		defer span.End()

		c.Request = c.Request.WithContext(ctx)
		c.Next()

		span.SetAttributes(
			attribute.String("http.method", c.Request.Method),
			attribute.Int("http.status_code", c.Writer.Status()),
		)
	}
}

// ObserveRemoteCall records one provider round trip on the duration
// histogram. Failed calls are observed too; the telemetry contract
// requires a duration for every call regardless of outcome.
func ObserveRemoteCall(provider, operation string, succeeded bool, d time.Duration) {
	outcome := "success"
	if !succeeded {
		outcome = "failure"
	}
	remoteCallDuration.WithLabelValues(provider, operation, outcome).Observe(d.Seconds())
}
