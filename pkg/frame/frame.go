package frame

import (
	"fmt"
	"image"
)

// Planes is the CPU memory of one frame. Data[i] starts at the first visible
// sample of plane i and Strides[i] is the byte distance between its rows.
type Planes struct {
	Data    [][]byte
	Strides []int
}

type Decoder interface {
	Decode(p Planes, width, height int) (image.Image, func(), error)
}

// DecoderFunc is a proxy type for Decoder
type decoderFunc func(p Planes, width, height int) (image.Image, func(), error)

func (f decoderFunc) Decode(p Planes, width, height int) (image.Image, func(), error) {
	return f(p, width, height)
}

// Validate checks that p holds enough memory for a width x height frame in f.
func (p Planes) Validate(f Format, width, height int) error {
	if width <= 0 || height <= 0 {
		return fmt.Errorf("invalid frame size %dx%d", width, height)
	}

	if f.IsCompressed() {
		if len(p.Data) < 1 || len(p.Data[0]) == 0 {
			return fmt.Errorf("%s frame has no payload", f)
		}
		return nil
	}

	n := f.NumPlanes()
	if n == 0 {
		return fmt.Errorf("%s: %w", f, ErrUnsupportedFormat)
	}
	if len(p.Data) < n || len(p.Strides) < n {
		return fmt.Errorf("%s needs %d planes, got %d data and %d strides", f, n, len(p.Data), len(p.Strides))
	}

	for plane := 0; plane < n; plane++ {
		rowBytes, _ := RowBytes(f, plane, width)
		if p.Strides[plane] < rowBytes {
			return fmt.Errorf("plane %d stride (%d) less than row bytes (%d)", plane, p.Strides[plane], rowBytes)
		}
		need, _ := MinPlaneLen(f, plane, p.Strides[plane], width, height)
		if len(p.Data[plane]) < need {
			return fmt.Errorf("plane %d length (%d) less than expected (%d)", plane, len(p.Data[plane]), need)
		}
	}
	return nil
}
