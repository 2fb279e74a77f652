package video_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/framebridge/framebridge/pkg/video"
)

func TestResourcePoolAlignment(t *testing.T) {
	pool, err := video.NewResourcePool(video.WithStrideAlignment(16))
	require.NoError(t, err)

	v, err := pool.NewI420(33, 7)
	require.NoError(t, err)
	defer v.Release()

	for plane, expected := range []int{48, 32, 32} {
		stride, err := v.Stride(plane)
		require.NoError(t, err)
		assert.Equal(t, expected, stride, "plane %d", plane)

		rowBytes, err := v.RowBytes(plane)
		require.NoError(t, err)
		assert.GreaterOrEqual(t, stride, rowBytes)
	}
}

func TestResourcePoolInvalidAlignment(t *testing.T) {
	for _, align := range []int{0, -4, 3, 24} {
		_, err := video.NewResourcePool(video.WithStrideAlignment(align))
		assert.Error(t, err, "alignment %d", align)
	}
}

func TestResourcePoolStats(t *testing.T) {
	pool, err := video.NewResourcePool()
	require.NoError(t, err)

	for i := 0; i < 5; i++ {
		v, err := pool.NewI420(16, 16)
		require.NoError(t, err)
		v.Release()
	}

	stats := pool.Stats()
	assert.Equal(t, uint64(5), stats.Hits+stats.Misses)
	assert.GreaterOrEqual(t, stats.Misses, uint64(1))
}

func TestResourcePoolInvalidSize(t *testing.T) {
	pool, err := video.NewResourcePool()
	require.NoError(t, err)

	_, err = pool.NewI420(0, 4)
	assert.ErrorIs(t, err, video.ErrInvalidFrame)
}
