package frame

import (
	"errors"
	"fmt"
	"image"
)

var (
	// ErrPlaneOutOfRange is returned when a plane index does not exist in a format.
	ErrPlaneOutOfRange = errors.New("plane index out of range")
	// ErrUnsupportedFormat is returned for formats without a known raw layout.
	ErrUnsupportedFormat = errors.New("unsupported format")
)

// MaxPlanes is the largest plane count of any supported format.
const MaxPlanes = 3

// planeLayout describes a single plane. A sample covers xSub x ySub pixels
// and occupies bytesPerSample bytes.
type planeLayout struct {
	xSub, ySub     int
	bytesPerSample int
}

var planeLayouts = map[Format][]planeLayout{
	FormatI420: {{1, 1, 1}, {2, 2, 1}, {2, 2, 1}},
	FormatI422: {{1, 1, 1}, {2, 1, 1}, {2, 1, 1}},
	FormatI444: {{1, 1, 1}, {1, 1, 1}, {1, 1, 1}},
	FormatNV12: {{1, 1, 1}, {2, 2, 2}},
	FormatNV21: {{1, 1, 1}, {2, 2, 2}},
	// A YUY2/UYVY macropixel is 2 pixels packed in 4 bytes
	FormatYUY2: {{2, 1, 4}},
	FormatUYVY: {{2, 1, 4}},
	FormatRGBA: {{1, 1, 4}},
	FormatBGRA: {{1, 1, 4}},
}

func ceilDiv(n, d int) int {
	return (n + d - 1) / d
}

func layout(f Format, plane int) (planeLayout, error) {
	planes, ok := planeLayouts[f]
	if !ok {
		return planeLayout{}, fmt.Errorf("%s: %w", f, ErrUnsupportedFormat)
	}
	if plane < 0 || plane >= len(planes) {
		return planeLayout{}, fmt.Errorf("plane %d of %s: %w", plane, f, ErrPlaneOutOfRange)
	}
	return planes[plane], nil
}

// NumPlanes returns the number of planes of f, or 0 when f has no raw layout.
func (f Format) NumPlanes() int {
	return len(planeLayouts[f])
}

// Rows returns the number of rows in plane for a frame of the given height.
// Sub-sampled planes round up so that odd dimensions keep their last row.
func Rows(f Format, plane, height int) (int, error) {
	l, err := layout(f, plane)
	if err != nil {
		return 0, err
	}
	return ceilDiv(height, l.ySub), nil
}

// RowBytes returns the number of meaningful bytes in one row of plane.
func RowBytes(f Format, plane, width int) (int, error) {
	l, err := layout(f, plane)
	if err != nil {
		return 0, err
	}
	return ceilDiv(width, l.xSub) * l.bytesPerSample, nil
}

// OriginAligned reports whether origin falls on a sample boundary of every
// plane of f. A crop starting inside a sub-sampled block or a packed
// macropixel cannot be addressed by a byte offset.
func OriginAligned(f Format, origin image.Point) bool {
	for _, l := range planeLayouts[f] {
		if origin.X%l.xSub != 0 || origin.Y%l.ySub != 0 {
			return false
		}
	}
	return true
}

// PlaneOffset returns the byte offset of the sample covering origin within a
// plane that has the given stride.
func PlaneOffset(f Format, plane, stride int, origin image.Point) (int, error) {
	l, err := layout(f, plane)
	if err != nil {
		return 0, err
	}
	return (origin.Y/l.ySub)*stride + (origin.X/l.xSub)*l.bytesPerSample, nil
}

// MinPlaneLen returns the smallest slice that can hold rows of plane with the
// given stride. The last row does not need its padding.
func MinPlaneLen(f Format, plane, stride, width, height int) (int, error) {
	rows, err := Rows(f, plane, height)
	if err != nil {
		return 0, err
	}
	rowBytes, err := RowBytes(f, plane, width)
	if err != nil {
		return 0, err
	}
	if rows == 0 {
		return 0, nil
	}
	return (rows-1)*stride + rowBytes, nil
}

// Size returns the number of bytes a tightly packed frame occupies in f.
func Size(f Format, width, height int) (int, error) {
	if f.IsCompressed() {
		return 0, fmt.Errorf("%s is compressed, size is unknown: %w", f, ErrUnsupportedFormat)
	}
	var size int
	for plane := 0; plane < f.NumPlanes(); plane++ {
		rows, _ := Rows(f, plane, height)
		rowBytes, _ := RowBytes(f, plane, width)
		size += rows * rowBytes
	}
	if size == 0 && f.NumPlanes() == 0 {
		return 0, fmt.Errorf("%s: %w", f, ErrUnsupportedFormat)
	}
	return size, nil
}
