package video

import (
	"github.com/framebridge/framebridge/pkg/frame"
)

// I420Size returns the length of a tightly packed I420 frame.
func I420Size(width, height int) int {
	size, _ := frame.Size(frame.FormatI420, width, height)
	return size
}

// PackI420 copies the Y, U and V rows of v into dst without stride padding
// and returns the number of bytes written. If dst is too small it returns an
// InsufficientBufferError and writes nothing.
func PackI420(dst []byte, v *I420) (int, error) {
	size := I420Size(v.width, v.height)
	if len(dst) < size {
		return 0, &InsufficientBufferError{size}
	}

	var n int
	for plane := 0; plane < 3; plane++ {
		rows, _ := v.Rows(plane)
		rowBytes, _ := v.RowBytes(plane)
		stride := v.strides[plane]
		data := v.planes[plane]
		for y := 0; y < rows; y++ {
			n += copy(dst[n:n+rowBytes], data[y*stride:y*stride+rowBytes])
		}
	}
	return n, nil
}
