package frame

import (
	"image"
)

// decodePlanarYUV wraps the planes without copying. image.YCbCr shares one
// stride between Cb and Cr, so Cr is only copied when the strides differ.
func decodePlanarYUV(f Format, ratio image.YCbCrSubsampleRatio) decoderFunc {
	return func(p Planes, width, height int) (image.Image, func(), error) {
		if err := p.Validate(f, width, height); err != nil {
			return nil, func() {}, err
		}

		cStride := p.Strides[1]
		cr := p.Data[2]
		if p.Strides[2] != cStride {
			rows, _ := Rows(f, 2, height)
			rowBytes, _ := RowBytes(f, 2, width)
			cr = make([]byte, (rows-1)*cStride+rowBytes)
			for y := 0; y < rows; y++ {
				copy(cr[y*cStride:y*cStride+rowBytes], p.Data[2][y*p.Strides[2]:])
			}
		}

		return &image.YCbCr{
			Y:              p.Data[0],
			YStride:        p.Strides[0],
			Cb:             p.Data[1],
			Cr:             cr,
			CStride:        cStride,
			SubsampleRatio: ratio,
			Rect:           image.Rect(0, 0, width, height),
		}, func() {}, nil
	}
}

// decodeSemiPlanar splits the interleaved chroma plane of NV12 (Cb first)
// or NV21 (Cr first).
func decodeSemiPlanar(f Format, crFirst bool) decoderFunc {
	return func(p Planes, width, height int) (image.Image, func(), error) {
		if err := p.Validate(f, width, height); err != nil {
			return nil, func() {}, err
		}

		cw := (width + 1) / 2
		ch := (height + 1) / 2
		cb := make([]byte, cw*ch)
		cr := make([]byte, cw*ch)

		for y := 0; y < ch; y++ {
			row := p.Data[1][y*p.Strides[1]:]
			for x := 0; x < cw; x++ {
				u, v := row[2*x], row[2*x+1]
				if crFirst {
					u, v = v, u
				}
				cb[y*cw+x] = u
				cr[y*cw+x] = v
			}
		}

		return &image.YCbCr{
			Y:              p.Data[0],
			YStride:        p.Strides[0],
			Cb:             cb,
			Cr:             cr,
			CStride:        cw,
			SubsampleRatio: image.YCbCrSubsampleRatio420,
			Rect:           image.Rect(0, 0, width, height),
		}, func() {}, nil
	}
}

// decodePacked422 unpacks 4-byte macropixels holding two luma samples and
// one Cb/Cr pair. The offsets give the position of each sample in the
// macropixel.
func decodePacked422(f Format, y0, y1, cbOff, crOff int) decoderFunc {
	return func(p Planes, width, height int) (image.Image, func(), error) {
		if err := p.Validate(f, width, height); err != nil {
			return nil, func() {}, err
		}

		cw := (width + 1) / 2
		y := make([]byte, width*height)
		cb := make([]byte, cw*height)
		cr := make([]byte, cw*height)

		for row := 0; row < height; row++ {
			src := p.Data[0][row*p.Strides[0]:]
			yi := row * width
			ci := row * cw
			for x := 0; x < cw; x++ {
				m := src[4*x : 4*x+4]
				y[yi+2*x] = m[y0]
				// Odd widths drop the second luma sample of the last macropixel
				if 2*x+1 < width {
					y[yi+2*x+1] = m[y1]
				}
				cb[ci+x] = m[cbOff]
				cr[ci+x] = m[crOff]
			}
		}

		return &image.YCbCr{
			Y:              y,
			YStride:        width,
			Cb:             cb,
			Cr:             cr,
			CStride:        cw,
			SubsampleRatio: image.YCbCrSubsampleRatio422,
			Rect:           image.Rect(0, 0, width, height),
		}, func() {}, nil
	}
}
