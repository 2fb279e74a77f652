package frame

import (
	"bytes"
	"fmt"
	"image"
	"image/jpeg"
)

func decodeMJPEG(p Planes, width, height int) (image.Image, func(), error) {
	if err := p.Validate(FormatMJPEG, width, height); err != nil {
		return nil, func() {}, err
	}

	img, err := jpeg.Decode(bytes.NewReader(p.Data[0]))
	if err != nil {
		return nil, func() {}, err
	}
	if b := img.Bounds(); b.Dx() != width || b.Dy() != height {
		return nil, func() {}, fmt.Errorf("jpeg size %dx%d does not match frame size %dx%d", b.Dx(), b.Dy(), width, height)
	}
	return img, func() {}, nil
}
