package tracing

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/d60-Lab/postboard/config"
)

func TestInitDisabledIsNoop(t *testing.T) {
	shutdown, err := Init(context.Background(), config.TracingConfig{Enabled: false})
	require.NoError(t, err)
	assert.NoError(t, shutdown(context.Background()))
}

func TestInitEnabled(t *testing.T) {
	// the exporter connects lazily, so no collector is needed to build the provider
	shutdown, err := Init(context.Background(), config.TracingConfig{
		Enabled:     true,
		Endpoint:    "127.0.0.1:4318",
		ServiceName: "postboard-test",
		SampleRatio: 1,
	})
	require.NoError(t, err)
	require.NotNil(t, shutdown)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_ = shutdown(ctx)
}
