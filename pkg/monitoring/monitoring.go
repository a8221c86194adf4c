package monitoring

import (
	"context"

	texporter "github.com/GoogleCloudPlatform/opentelemetry-operations-go/exporter/trace"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.21.0"

	"github.com/eventhive/eh-registration/pkg/applogger"
)

type Monitoring interface {
	Start(ctx context.Context)
	Stop(ctx context.Context)
}

type openTelemetry struct {
	serviceName string
	environment string
	projectID   string
	provider    *sdktrace.TracerProvider
}

func NewOpenTelemetry(serviceName, environment, projectID string) Monitoring {
	return &openTelemetry{
		serviceName: serviceName,
		environment: environment,
		projectID:   projectID,
	}
}

func (m *openTelemetry) Start(ctx context.Context) {
	logger := applogger.GetLogrus()

	exporter, err := texporter.New(texporter.WithProjectID(m.projectID))
	if err != nil {
		logger.WithError(err).Error("unable to create trace exporter, tracing disabled")
		return
	}

	res, err := resource.New(ctx,
		resource.WithAttributes(
			semconv.ServiceName(m.serviceName),
			attribute.String("environment", m.environment),
		),
	)
	if err != nil {
		logger.WithError(err).Error("unable to build trace resource, tracing disabled")
		return
	}

	m.provider = sdktrace.NewTracerProvider(
		sdktrace.WithBatcher(exporter),
		sdktrace.WithResource(res),
	)

	otel.SetTracerProvider(m.provider)
}

func (m *openTelemetry) Stop(ctx context.Context) {
	if m.provider == nil {
		return
	}

	if err := m.provider.Shutdown(ctx); err != nil {
		applogger.GetLogrus().WithError(err).Error("unable to shut down trace provider")
	}
}
