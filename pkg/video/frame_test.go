package video_test

import (
	"fmt"
	"image"
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/framebridge/framebridge/pkg/frame"
	"github.com/framebridge/framebridge/pkg/video"
	"github.com/framebridge/framebridge/pkg/video/videotest"
)

func allocPlanes(format frame.Format, width, height int) frame.Planes {
	var planes frame.Planes
	for plane := 0; plane < format.NumPlanes(); plane++ {
		rows, _ := frame.Rows(format, plane, height)
		rowBytes, _ := frame.RowBytes(format, plane, width)
		planes.Data = append(planes.Data, make([]byte, rows*rowBytes))
		planes.Strides = append(planes.Strides, rowBytes)
	}
	return planes
}

func TestMemoryFrameVisibleOrigin(t *testing.T) {
	cases := map[string]struct {
		format frame.Format
		origin image.Point
		valid  bool
	}{
		"YUY2OddX":  {frame.FormatYUY2, image.Pt(1, 0), false},
		"UYVYOddX":  {frame.FormatUYVY, image.Pt(3, 2), false},
		"YUY2OddY":  {frame.FormatYUY2, image.Pt(2, 1), true},
		"I420OddX":  {frame.FormatI420, image.Pt(1, 0), false},
		"I420OddY":  {frame.FormatI420, image.Pt(0, 1), false},
		"NV12OddXY": {frame.FormatNV12, image.Pt(1, 1), false},
		"I422OddY":  {frame.FormatI422, image.Pt(2, 1), true},
		"I444OddXY": {frame.FormatI444, image.Pt(1, 1), true},
		"RGBAOddXY": {frame.FormatRGBA, image.Pt(1, 1), true},
		"I420Even":  {frame.FormatI420, image.Pt(2, 2), true},
	}
	for name, c := range cases {
		c := c
		t.Run(name, func(t *testing.T) {
			planes := allocPlanes(c.format, 12, 8)
			visible := image.Rectangle{Min: c.origin, Max: c.origin.Add(image.Pt(6, 4))}

			f, err := video.NewMemoryFrame(c.format, visible, 0, planes)
			if c.valid {
				require.NoError(t, err)
				assert.Equal(t, visible, f.VisibleRect())
				return
			}
			assert.ErrorIs(t, err, video.ErrInvalidFrame)
			assert.Nil(t, f)
		})
	}
}

// A cropped frame must convert to exactly the picture of the same frame
// without a margin; margin and padding bytes never leak into the result.
func TestConvertCroppedMatchesUncropped(t *testing.T) {
	pool := newPool(t)
	formats := []frame.Format{
		frame.FormatYUY2, frame.FormatUYVY, frame.FormatNV12, frame.FormatNV21,
		frame.FormatI420, frame.FormatI422, frame.FormatI444, frame.FormatBGRA,
	}
	for _, format := range formats {
		for _, size := range [][2]int{{14, 4}, {13, 5}, {1, 1}} {
			format, w, h := format, size[0], size[1]
			t.Run(fmt.Sprintf("%s/%dx%d", format, w, h), func(t *testing.T) {
				plain := video.NewHandle(nextFrame(t, w, h, format), video.WithConverter(video.NewSoftwareConverter(), pool))
				defer plain.Release()
				cropped := video.NewHandle(nextFrame(t, w, h, format, videotest.WithMargin(2), videotest.WithPadding(3)),
					video.WithConverter(video.NewSoftwareConverter(), pool))
				defer cropped.Release()

				expected, err := plain.ToPlanar()
				require.NoError(t, err)
				defer expected.Release()
				got, err := cropped.ToPlanar()
				require.NoError(t, err)
				defer got.Release()

				assert.Equal(t, pack(t, expected), pack(t, got))
			})
		}
	}
}

func TestPatternRejectsSplitMargin(t *testing.T) {
	for _, format := range []frame.Format{frame.FormatYUY2, frame.FormatUYVY, frame.FormatI420, frame.FormatNV12} {
		_, err := videotest.NewPattern(14, 4, format, videotest.WithMargin(1))
		assert.ErrorIs(t, err, video.ErrInvalidFrame, string(format))
	}

	_, err := videotest.NewPattern(14, 4, frame.FormatRGBA, videotest.WithMargin(1))
	assert.NoError(t, err)
}

func TestPatternFrameRate(t *testing.T) {
	for _, fps := range []float32{0, -30, float32(math.Inf(1)), float32(math.NaN())} {
		_, err := videotest.NewPattern(4, 4, frame.FormatI420, videotest.WithFrameRate(fps))
		assert.Error(t, err, "fps %v", fps)
	}

	p, err := videotest.NewPattern(4, 4, frame.FormatI420, videotest.WithFrameRate(25))
	require.NoError(t, err)
	for i := 0; i < 3; i++ {
		f, err := p.Next()
		require.NoError(t, err)
		assert.Equal(t, time.Duration(i)*40*time.Millisecond, f.Timestamp())
	}
}
