package broker_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/riverforge/statestream/pkg/broker"
	"github.com/riverforge/statestream/pkg/streamplatform"
)

type fakeAdapter struct{ platform streamplatform.Platform }

func (a *fakeAdapter) Type() streamplatform.Platform    { return a.platform }
func (a *fakeAdapter) Capabilities() streamplatform.Capability { return streamplatform.Capability{} }
func (a *fakeAdapter) Connect(ctx context.Context, config broker.ConnectionConfig) (broker.Connection, error) {
	return nil, nil
}

func TestRegisterAdapterMakesGetAdapterSucceed(t *testing.T) {
	const platform = streamplatform.Platform("registry-test-fake")
	broker.RegisterAdapter(platform, func() broker.StreamAdapter { return &fakeAdapter{platform: platform} })

	got, err := broker.GetAdapter(platform)
	require.NoError(t, err)
	assert.Equal(t, platform, got.Type())
}

func TestRegisterAdapterReplacesPriorFactory(t *testing.T) {
	const platform = streamplatform.Platform("registry-test-replace")
	broker.RegisterAdapter(platform, func() broker.StreamAdapter { return &fakeAdapter{platform: "first"} })
	broker.RegisterAdapter(platform, func() broker.StreamAdapter { return &fakeAdapter{platform: "second"} })

	got, err := broker.GetAdapter(platform)
	require.NoError(t, err)
	assert.Equal(t, streamplatform.Platform("second"), got.Type())
}

func TestGetAdapterReportsUnregisteredPlatform(t *testing.T) {
	_, err := broker.GetAdapter(streamplatform.Platform("registry-test-never-registered"))
	require.Error(t, err)
}
