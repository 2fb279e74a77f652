package frame

import (
	"image"
)

func decodeRGBA(p Planes, width, height int) (image.Image, func(), error) {
	if err := p.Validate(FormatRGBA, width, height); err != nil {
		return nil, func() {}, err
	}

	return &image.RGBA{
		Pix:    p.Data[0],
		Stride: p.Strides[0],
		Rect:   image.Rect(0, 0, width, height),
	}, func() {}, nil
}

// decodeBGRA swaps into a new buffer. The source planes belong to the
// producer and must not be modified.
func decodeBGRA(p Planes, width, height int) (image.Image, func(), error) {
	if err := p.Validate(FormatBGRA, width, height); err != nil {
		return nil, func() {}, err
	}

	dst := image.NewRGBA(image.Rect(0, 0, width, height))
	for y := 0; y < height; y++ {
		src := p.Data[0][y*p.Strides[0]:]
		out := dst.Pix[y*dst.Stride:]
		for x := 0; x < 4*width; x += 4 {
			out[x+0] = src[x+2]
			out[x+1] = src[x+1]
			out[x+2] = src[x+0]
			out[x+3] = src[x+3]
		}
	}
	return dst, func() {}, nil
}
