package video

import (
	"fmt"
	"image"
	"sync/atomic"
	"time"

	"github.com/framebridge/framebridge/pkg/frame"
)

// I420 is a read-only view over a frame in I420 layout: plane 0 is Y, plane 1
// is U (Cb) and plane 2 is V (Cr), each row-major with stride >= row bytes.
//
// I420 never owns pixel memory. It borrows it either from the frame it was
// created from (zero-copy) or from a ResourcePool buffer. The memory stays
// valid until the last reference is released; the view must not be used
// afterwards.
type I420 struct {
	width, height int

	timestamp    time.Duration
	hasTimestamp bool

	planes  [3][]byte
	strides [3]int

	refs    atomic.Int32
	release func()
}

// NewI420 builds a view over caller provided planes. release, if not nil, is
// called once the last reference is dropped. Conversion services outside
// this package use it to hand their results to a Handle.
func NewI420(width, height int, planes [3][]byte, strides [3]int, release func()) (*I420, error) {
	p := frame.Planes{Data: planes[:], Strides: strides[:]}
	if err := p.Validate(frame.FormatI420, width, height); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidFrame, err)
	}

	v := &I420{
		width:   width,
		height:  height,
		strides: strides,
		release: release,
	}
	for plane := range planes {
		rows, _ := frame.Rows(frame.FormatI420, plane, height)
		v.planes[plane] = planeSlice(planes[plane], strides[plane], rows)
	}
	v.refs.Store(1)
	return v, nil
}

// planeSlice trims data to stride*rows bytes, or less when the final row has
// no padding in the underlying allocation.
func planeSlice(data []byte, stride, rows int) []byte {
	n := min(stride*rows, len(data))
	return data[:n:n]
}

func (v *I420) Width() int  { return v.width }
func (v *I420) Height() int { return v.height }

// Timestamp returns the capture time of the source frame. Views produced by
// a conversion service report ok=false: the conversion result has no
// meaningful capture time of its own.
func (v *I420) Timestamp() (ts time.Duration, ok bool) {
	return v.timestamp, v.hasTimestamp
}

func (v *I420) Format() frame.Format           { return frame.FormatI420 }
func (v *I420) StorageType() frame.StorageType { return frame.StorageOwnedMemory }
func (v *I420) IsMappable() bool               { return true }
func (v *I420) HasTextures() bool              { return false }
func (v *I420) HasGPUMemoryBuffer() bool       { return false }

func checkI420Plane(plane int) error {
	if plane < 0 || plane >= 3 {
		return fmt.Errorf("I420 plane %d: %w", plane, frame.ErrPlaneOutOfRange)
	}
	return nil
}

// Stride returns the byte distance between rows of plane.
func (v *I420) Stride(plane int) (int, error) {
	if err := checkI420Plane(plane); err != nil {
		return 0, err
	}
	return v.strides[plane], nil
}

// Data returns the memory of plane starting at row 0.
func (v *I420) Data(plane int) ([]byte, error) {
	if err := checkI420Plane(plane); err != nil {
		return nil, err
	}
	return v.planes[plane], nil
}

// RowBytes returns the meaningful bytes per row of plane.
func (v *I420) RowBytes(plane int) (int, error) {
	return frame.RowBytes(frame.FormatI420, plane, v.width)
}

// Rows returns the number of rows of plane.
func (v *I420) Rows(plane int) (int, error) {
	return frame.Rows(frame.FormatI420, plane, v.height)
}

// YCbCr returns an image.YCbCr sharing the view's memory. image.YCbCr has a
// single chroma stride, so the U and V strides must match.
func (v *I420) YCbCr() (*image.YCbCr, error) {
	if v.strides[1] != v.strides[2] {
		return nil, fmt.Errorf("U stride (%d) and V stride (%d) differ", v.strides[1], v.strides[2])
	}
	return &image.YCbCr{
		Y:              v.planes[0],
		Cb:             v.planes[1],
		Cr:             v.planes[2],
		YStride:        v.strides[0],
		CStride:        v.strides[1],
		SubsampleRatio: image.YCbCrSubsampleRatio420,
		Rect:           image.Rect(0, 0, v.width, v.height),
	}, nil
}

// Retain adds a reference and returns v.
func (v *I420) Retain() *I420 {
	v.refs.Add(1)
	return v
}

// Release drops a reference. The backing memory is given back to its owner
// when the last reference goes away.
func (v *I420) Release() {
	switch n := v.refs.Add(-1); {
	case n == 0:
		if v.release != nil {
			v.release()
		}
	case n < 0:
		panic("video: I420 released more times than retained")
	}
}
