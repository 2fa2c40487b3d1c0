package observability

import (
	"context"
	"errors"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/require"
)

func TestInitTracing_Disabled(t *testing.T) {
	logger, hook := test.NewNullLogger()

	shutdown, err := InitTracing(context.Background(), TracingConfig{}, logger)
	require.NoError(t, err)
	require.NoError(t, shutdown(context.Background()))
	require.Equal(t, "tracing disabled; using noop tracer provider", hook.LastEntry().Message)
}

func TestInitTracing_UnsupportedExporter(t *testing.T) {
	logger, _ := test.NewNullLogger()

	_, err := InitTracing(context.Background(), TracingConfig{Enabled: true, Exporter: "zipkin"}, logger)
	require.ErrorContains(t, err, "unsupported tracing exporter")
}

func TestShutdownWithTimeout_LogsFailure(t *testing.T) {
	logger, hook := test.NewNullLogger()

	ShutdownWithTimeout(context.Background(), func(ctx context.Context) error {
		_, ok := ctx.Deadline()
		require.True(t, ok)
		return errors.New("flush failed")
	}, logger)

	require.Equal(t, logrus.WarnLevel, hook.LastEntry().Level)
	require.Equal(t, "tracing shutdown failed", hook.LastEntry().Message)

	require.NotPanics(t, func() { ShutdownWithTimeout(context.Background(), nil, logger) })
}
