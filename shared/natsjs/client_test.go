package natsjs

import (
	"testing"
	"time"

	"github.com/nats-io/nats.go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func applyOptions(t *testing.T, opts []nats.Option) nats.Options {
	t.Helper()

	applied := nats.GetDefaultOptions()
	for _, opt := range opts {
		require.NoError(t, opt(&applied))
	}
	return applied
}

func TestConnectOptions(t *testing.T) {
	applied := applyOptions(t, connectOptions(&Config{
		DrainTimeout: 5 * time.Second,
	}))

	assert.Equal(t, -1, applied.MaxReconnect)
	assert.Equal(t, 2*time.Second, applied.ReconnectWait)
	assert.Equal(t, 5*time.Second, applied.DrainTimeout)
}

func TestConnectOptions_DefaultDrainTimeout(t *testing.T) {
	// An unset drain timeout keeps the client default instead of
	// disabling the drain deadline.
	applied := applyOptions(t, connectOptions(&Config{}))

	assert.Equal(t, nats.DefaultDrainTimeout, applied.DrainTimeout)
}
