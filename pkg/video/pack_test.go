package video_test

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/framebridge/framebridge/pkg/video"
)

func newSequenceI420(t *testing.T) *video.I420 {
	t.Helper()
	var planes [3][]byte
	strides := [3]int{8, 4, 6}
	for plane, base := range []int{0, 100, 200} {
		rows := 3
		if plane > 0 {
			rows = 2
		}
		planes[plane] = make([]byte, strides[plane]*rows)
		for i := range planes[plane] {
			planes[plane][i] = byte(base + i)
		}
	}
	v, err := video.NewI420(5, 3, planes, strides, nil)
	require.NoError(t, err)
	return v
}

func TestPackI420(t *testing.T) {
	v := newSequenceI420(t)
	defer v.Release()

	assert.Equal(t, 15+3+3, video.I420Size(5, 3))

	buf := make([]byte, 32)
	n, err := video.PackI420(buf, v)
	require.NoError(t, err)
	assert.Equal(t, 21, n)
	assert.Equal(t, []byte{
		0, 1, 2, 3, 4,
		8, 9, 10, 11, 12,
		16, 17, 18, 19, 20,
		// U
		100, 101, 102,
		104, 105, 106,
		// V
		200, 201, 202,
		206, 207, 208,
	}, buf[:n])
}

func TestPackI420InsufficientBuffer(t *testing.T) {
	v := newSequenceI420(t)
	defer v.Release()

	buf := make([]byte, 20)
	n, err := video.PackI420(buf, v)
	assert.Equal(t, 0, n)

	var e *video.InsufficientBufferError
	require.True(t, errors.As(err, &e))
	assert.Equal(t, 21, e.RequiredSize)
	assert.Equal(t, make([]byte, 20), buf)
}
