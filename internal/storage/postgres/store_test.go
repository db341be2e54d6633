package postgres

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestPoolOptions_WithDefaults(t *testing.T) {
	defaults := DefaultPoolOptions()

	require.Equal(t, defaults, PoolOptions{}.withDefaults())
	require.Equal(t, defaults, PoolOptions{MaxOpenConns: -1, ConnMaxLifetime: -time.Second}.withDefaults())

	small := PoolOptions{MaxOpenConns: 4, ConnMaxLifetime: time.Minute}.withDefaults()
	require.Equal(t, 4, small.MaxOpenConns)
	require.Equal(t, 4, small.MaxIdleConns, "idle pool never exceeds open connections")
	require.Equal(t, time.Minute, small.ConnMaxLifetime)
	require.Equal(t, defaults.ConnMaxIdleTime, small.ConnMaxIdleTime)
}
