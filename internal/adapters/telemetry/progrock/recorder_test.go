package progrock_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.trai.ch/kiln/internal/adapters/telemetry/progrock"
	"go.trai.ch/kiln/internal/core/domain"
	"go.trai.ch/kiln/internal/core/ports"
)

func TestNew(t *testing.T) {
	recorder := progrock.New()
	assert.NotNil(t, recorder)
}

func TestRecorder_RecordStoresVertexInContext(t *testing.T) {
	recorder := progrock.New()

	ctx, vertex := recorder.Record(context.Background(), string(domain.StepResolve))
	got, ok := ports.VertexFromContext(ctx)
	require.True(t, ok)
	assert.Same(t, vertex, got)

	vertex.Complete(nil)
	require.NoError(t, recorder.Close())
}

func TestRecorder_StepChain(t *testing.T) {
	recorder := progrock.New()
	ctx := context.Background()

	_, load := recorder.Record(ctx, string(domain.StepLoad))
	load.Log(domain.LogLevelInfo, "manifest kiln.yaml")
	load.Complete(nil)

	_, fetch := recorder.Record(ctx, string(domain.StepFetch), ports.WithInputs(string(domain.StepLoad)))
	_, err := fetch.Stderr().Write([]byte("conan: downloading geos/3.13.0\n"))
	require.NoError(t, err)
	fetch.Complete(errors.New("exit status 1"))

	require.NoError(t, recorder.Close())
}
