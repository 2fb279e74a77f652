package video

import (
	"errors"
	"fmt"
	"image"
	"image/color"

	"golang.org/x/image/draw"

	"github.com/framebridge/framebridge/pkg/frame"
)

// Converter turns frames of any storage into I420. Convert may block, for
// example on a GPU readback.
type Converter interface {
	CanConvert(f Frame) bool
	Convert(f Frame, pool *ResourcePool) (*I420, error)
}

// SoftwareConverter converts on the CPU. Frames that are not in CPU memory
// are first copied out through the pool's Device.
type SoftwareConverter struct{}

func NewSoftwareConverter() *SoftwareConverter {
	return &SoftwareConverter{}
}

// CanConvert reports whether f has a decodable format and a storage this
// converter can reach. GPU-backed frames additionally need a Device that
// accepts them, which is checked by Convert.
func (c *SoftwareConverter) CanConvert(f Frame) bool {
	if f == nil {
		return false
	}
	if _, err := frame.NewDecoder(f.Format()); err != nil {
		return false
	}

	if f.StorageType().IsMappable() {
		_, ok := f.(Mapper)
		return ok
	}
	_, ok := f.(GPUFrame)
	return ok
}

func (c *SoftwareConverter) Convert(f Frame, pool *ResourcePool) (*I420, error) {
	if pool == nil {
		return nil, errors.New("video: conversion needs a resource pool")
	}

	m, done, err := c.mapFrame(f, pool)
	if err != nil {
		return nil, err
	}
	defer done()

	decoder, err := frame.NewDecoder(f.Format())
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnsupportedConversion, err)
	}

	rect := f.VisibleRect()
	img, release, err := decoder.Decode(m.Planes(), rect.Dx(), rect.Dy())
	if err != nil {
		return nil, err
	}
	defer release()

	dst, err := pool.NewI420(rect.Dx(), rect.Dy())
	if err != nil {
		return nil, err
	}
	imageToI420(dst, img)
	return dst, nil
}

// mapFrame returns CPU access to f, reading it back from the GPU if needed.
func (c *SoftwareConverter) mapFrame(f Frame, pool *ResourcePool) (Mapper, func(), error) {
	if f.StorageType().IsMappable() {
		m, ok := f.(Mapper)
		if !ok {
			return nil, nil, fmt.Errorf("%w: %s frame exposes no planes", ErrUnsupportedConversion, f.StorageType())
		}
		return m, func() {}, nil
	}

	device := pool.Device()
	if device == nil || !device.CanReadback(f) {
		return nil, nil, fmt.Errorf("%w: no device can read back %s storage", ErrUnsupportedConversion, f.StorageType())
	}

	logger.Tracef("reading back %s frame (%s)", f.StorageType(), f.Format())
	mf, err := device.Readback(f)
	if err != nil {
		return nil, nil, fmt.Errorf("readback: %w", err)
	}
	if mf.Format() != f.Format() || mf.VisibleRect().Size() != f.VisibleRect().Size() {
		mf.Release()
		return nil, nil, fmt.Errorf("readback returned %s %v for %s %v", mf.Format(), mf.VisibleRect(), f.Format(), f.VisibleRect())
	}
	return mf, mf.Release, nil
}

// imageToI420 writes src into dst. Each chroma sample is the rounded mean of
// the source chroma covering its 2x2 luma block, clipped at odd edges.
func imageToI420(dst *I420, src image.Image) {
	switch s := src.(type) {
	case *image.YCbCr:
		yCbCrToI420(dst, s)
	case *image.RGBA:
		rgbaToI420(dst, s)
	default:
		b := src.Bounds()
		rgba := image.NewRGBA(image.Rect(0, 0, b.Dx(), b.Dy()))
		draw.Draw(rgba, rgba.Bounds(), src, b.Min, draw.Src)
		rgbaToI420(dst, rgba)
	}
}

func yCbCrToI420(dst *I420, src *image.YCbCr) {
	b := src.Rect
	w, h := b.Dx(), b.Dy()

	for y := 0; y < h; y++ {
		off := src.YOffset(b.Min.X, b.Min.Y+y)
		copy(dst.planes[0][y*dst.strides[0]:y*dst.strides[0]+w], src.Y[off:off+w])
	}

	cw, ch := (w+1)/2, (h+1)/2
	if src.SubsampleRatio == image.YCbCrSubsampleRatio420 && b.Min == (image.Point{}) {
		for y := 0; y < ch; y++ {
			off := y * src.CStride
			copy(dst.planes[1][y*dst.strides[1]:y*dst.strides[1]+cw], src.Cb[off:off+cw])
			copy(dst.planes[2][y*dst.strides[2]:y*dst.strides[2]+cw], src.Cr[off:off+cw])
		}
		return
	}

	for cy := 0; cy < ch; cy++ {
		for cx := 0; cx < cw; cx++ {
			var cb, cr, n int
			for y := 2 * cy; y < min(2*cy+2, h); y++ {
				for x := 2 * cx; x < min(2*cx+2, w); x++ {
					off := src.COffset(b.Min.X+x, b.Min.Y+y)
					cb += int(src.Cb[off])
					cr += int(src.Cr[off])
					n++
				}
			}
			dst.planes[1][cy*dst.strides[1]+cx] = uint8((cb + n/2) / n)
			dst.planes[2][cy*dst.strides[2]+cx] = uint8((cr + n/2) / n)
		}
	}
}

// rgbaToI420 ignores alpha and uses the JFIF conversion of image/color.
func rgbaToI420(dst *I420, src *image.RGBA) {
	b := src.Rect
	w, h := b.Dx(), b.Dy()
	cw, ch := (w+1)/2, (h+1)/2

	for cy := 0; cy < ch; cy++ {
		for cx := 0; cx < cw; cx++ {
			var cb, cr, n int
			for y := 2 * cy; y < min(2*cy+2, h); y++ {
				for x := 2 * cx; x < min(2*cx+2, w); x++ {
					i := src.PixOffset(b.Min.X+x, b.Min.Y+y)
					yy, u, v := color.RGBToYCbCr(src.Pix[i], src.Pix[i+1], src.Pix[i+2])
					dst.planes[0][y*dst.strides[0]+x] = yy
					cb += int(u)
					cr += int(v)
					n++
				}
			}
			dst.planes[1][cy*dst.strides[1]+cx] = uint8((cb + n/2) / n)
			dst.planes[2][cy*dst.strides[2]+cx] = uint8((cr + n/2) / n)
		}
	}
}
