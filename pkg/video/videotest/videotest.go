// Package videotest provides deterministic test pattern frames in every
// supported format and storage kind, and a Device that reads back the GPU
// variants.
package videotest

import (
	"bytes"
	"fmt"
	"image"
	"image/color"
	"image/jpeg"
	"math"
	"math/rand"
	"sync/atomic"
	"time"

	"github.com/framebridge/framebridge/pkg/frame"
	"github.com/framebridge/framebridge/pkg/video"
)

var colors = [][3]byte{
	{235, 128, 128},
	{210, 16, 146},
	{170, 166, 16},
	{145, 54, 34},
	{107, 202, 222},
	{82, 90, 240},
	{41, 240, 110},
}

// Pattern produces color bar frames.
type Pattern struct {
	width, height int
	format        frame.Format
	storage       frame.StorageType
	padding       int
	margin        int
	fps           float32
	interval      time.Duration

	seq    int
	random *rand.Rand
}

type Option func(*Pattern)

// WithStorage selects where frames live. GPU storage kinds wrap a CPU copy
// that Device reads back.
func WithStorage(s frame.StorageType) Option {
	return func(p *Pattern) {
		p.storage = s
	}
}

// WithPadding adds n bytes at the end of every row of every plane.
func WithPadding(n int) Option {
	return func(p *Pattern) {
		p.padding = n
	}
}

// WithMargin surrounds the visible picture with n black pixels on each side
// of the allocation.
func WithMargin(n int) Option {
	return func(p *Pattern) {
		p.margin = n
	}
}

// WithFrameRate sets the timestamp step between frames. fps must be
// positive.
func WithFrameRate(fps float32) Option {
	return func(p *Pattern) {
		p.fps = fps
	}
}

func NewPattern(width, height int, format frame.Format, opts ...Option) (*Pattern, error) {
	p := &Pattern{
		width:   width,
		height:  height,
		format:  format,
		storage: frame.StorageOwnedMemory,
		fps:     30,
		random:  rand.New(rand.NewSource(0)),
	}
	for _, opt := range opts {
		opt(p)
	}

	if width <= 0 || height <= 0 {
		return nil, fmt.Errorf("invalid pattern size %dx%d", width, height)
	}
	if p.padding < 0 || p.margin < 0 {
		return nil, fmt.Errorf("padding and margin must not be negative")
	}
	if !(p.fps > 0) || math.IsInf(float64(p.fps), 1) {
		return nil, fmt.Errorf("invalid frame rate %v", p.fps)
	}
	p.interval = time.Duration(float64(time.Second) / float64(p.fps))
	if format.IsCompressed() && (p.margin != 0 || p.padding != 0) {
		return nil, fmt.Errorf("%s patterns cannot have margin or padding", format)
	}
	if !frame.OriginAligned(format, image.Pt(p.margin, p.margin)) {
		return nil, fmt.Errorf("%w: margin %d splits a %s sample block", video.ErrInvalidFrame, p.margin, format)
	}
	if _, err := frame.NewDecoder(format); err != nil {
		return nil, err
	}
	return p, nil
}

// Next returns the next frame of the pattern.
func (p *Pattern) Next() (video.Frame, error) {
	ts := time.Duration(p.seq) * p.interval
	p.seq++

	noise := p.noise()
	visible := image.Rect(p.margin, p.margin, p.margin+p.width, p.margin+p.height)

	planes, err := p.encode(noise)
	if err != nil {
		return nil, err
	}

	storage := p.storage
	if !storage.IsMappable() {
		storage = frame.StorageOwnedMemory
	}
	mf, err := video.NewMemoryFrame(p.format, visible, ts, planes, video.WithStorage(storage))
	if err != nil {
		return nil, err
	}

	switch p.storage {
	case frame.StorageTextures:
		return video.NewTextureFrame(p.format, visible, ts, []any{mf}, nil)
	case frame.StorageGPUMemoryBuffer:
		return video.NewGPUBufferFrame(p.format, visible, ts, mf, nil)
	}
	return mf, nil
}

func (p *Pattern) noise() []byte {
	n := make([]byte, p.width*p.height)
	for i := range n {
		n[i] = uint8(p.random.Int31n(2) * 255)
	}
	return n
}

// colorAt returns the YCbCr sample at allocation coordinates x, y.
func (p *Pattern) colorAt(noise []byte, x, y int) (uint8, uint8, uint8) {
	vx, vy := x-p.margin, y-p.margin
	if vx < 0 || vy < 0 || vx >= p.width || vy >= p.height {
		return 16, 128, 128
	}

	if vy < p.height*3/4 {
		// Color bar
		c := colors[vx*7/p.width]
		return uint8(uint16(c[0]) * 75 / 100), c[1], c[2]
	}
	wGradationEnd := p.width * 5 / 7
	if vx < wGradationEnd {
		// Gray gradation
		return uint8(vx * 255 / wGradationEnd), 128, 128
	}
	return noise[vy*p.width+vx], 128, 128
}

func (p *Pattern) encode(noise []byte) (frame.Planes, error) {
	w, h := p.width+2*p.margin, p.height+2*p.margin

	if p.format == frame.FormatMJPEG {
		img := image.NewYCbCr(image.Rect(0, 0, w, h), image.YCbCrSubsampleRatio444)
		for y := 0; y < h; y++ {
			for x := 0; x < w; x++ {
				i := y*img.YStride + x
				img.Y[i], img.Cb[i], img.Cr[i] = p.colorAt(noise, x, y)
			}
		}
		var buf bytes.Buffer
		if err := jpeg.Encode(&buf, img, &jpeg.Options{Quality: 90}); err != nil {
			return frame.Planes{}, err
		}
		return frame.Planes{Data: [][]byte{buf.Bytes()}}, nil
	}

	var planes frame.Planes
	for plane := 0; plane < p.format.NumPlanes(); plane++ {
		rows, _ := frame.Rows(p.format, plane, h)
		rowBytes, _ := frame.RowBytes(p.format, plane, w)
		stride := rowBytes + p.padding
		planes.Data = append(planes.Data, make([]byte, stride*rows))
		planes.Strides = append(planes.Strides, stride)
	}

	switch p.format {
	case frame.FormatI420:
		p.writePlanar(noise, planes, w, h, 2, 2)
	case frame.FormatI422:
		p.writePlanar(noise, planes, w, h, 2, 1)
	case frame.FormatI444:
		p.writePlanar(noise, planes, w, h, 1, 1)
	case frame.FormatNV12, frame.FormatNV21:
		p.writeSemiPlanar(noise, planes, w, h, p.format == frame.FormatNV21)
	case frame.FormatYUY2:
		p.writePacked(noise, planes, w, h, 0, 2, 1, 3)
	case frame.FormatUYVY:
		p.writePacked(noise, planes, w, h, 1, 3, 0, 2)
	case frame.FormatRGBA, frame.FormatBGRA:
		p.writeRGB(noise, planes, w, h, p.format == frame.FormatBGRA)
	default:
		return frame.Planes{}, fmt.Errorf("%s: %w", p.format, frame.ErrUnsupportedFormat)
	}
	return planes, nil
}

func (p *Pattern) writePlanar(noise []byte, planes frame.Planes, w, h, xs, ys int) {
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			yy, _, _ := p.colorAt(noise, x, y)
			planes.Data[0][y*planes.Strides[0]+x] = yy
		}
	}
	for cy := 0; cy < (h+ys-1)/ys; cy++ {
		for cx := 0; cx < (w+xs-1)/xs; cx++ {
			_, cb, cr := p.colorAt(noise, cx*xs, cy*ys)
			planes.Data[1][cy*planes.Strides[1]+cx] = cb
			planes.Data[2][cy*planes.Strides[2]+cx] = cr
		}
	}
}

func (p *Pattern) writeSemiPlanar(noise []byte, planes frame.Planes, w, h int, crFirst bool) {
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			yy, _, _ := p.colorAt(noise, x, y)
			planes.Data[0][y*planes.Strides[0]+x] = yy
		}
	}
	for cy := 0; cy < (h+1)/2; cy++ {
		for cx := 0; cx < (w+1)/2; cx++ {
			_, cb, cr := p.colorAt(noise, 2*cx, 2*cy)
			if crFirst {
				cb, cr = cr, cb
			}
			i := cy*planes.Strides[1] + 2*cx
			planes.Data[1][i] = cb
			planes.Data[1][i+1] = cr
		}
	}
}

func (p *Pattern) writePacked(noise []byte, planes frame.Planes, w, h, y0, y1, cbOff, crOff int) {
	for y := 0; y < h; y++ {
		row := planes.Data[0][y*planes.Strides[0]:]
		for cx := 0; cx < (w+1)/2; cx++ {
			m := row[4*cx : 4*cx+4]
			yy, cb, cr := p.colorAt(noise, 2*cx, y)
			m[y0], m[cbOff], m[crOff] = yy, cb, cr
			if 2*cx+1 < w {
				m[y1], _, _ = p.colorAt(noise, 2*cx+1, y)
			}
		}
	}
}

func (p *Pattern) writeRGB(noise []byte, planes frame.Planes, w, h int, bgr bool) {
	for y := 0; y < h; y++ {
		row := planes.Data[0][y*planes.Strides[0]:]
		for x := 0; x < w; x++ {
			r, g, b := color.YCbCrToRGB(p.colorAt(noise, x, y))
			if bgr {
				r, b = b, r
			}
			row[4*x+0], row[4*x+1], row[4*x+2], row[4*x+3] = r, g, b, 0xFF
		}
	}
}

// Device reads back frames produced by a Pattern with GPU storage.
type Device struct {
	readbacks atomic.Int64
}

func (d *Device) backing(f video.Frame) (*video.MemoryFrame, bool) {
	g, ok := f.(video.GPUFrame)
	if !ok {
		return nil, false
	}
	switch b := g.Backing().(type) {
	case *video.MemoryFrame:
		return b, true
	case []any:
		if len(b) > 0 {
			mf, ok := b[0].(*video.MemoryFrame)
			return mf, ok
		}
	}
	return nil, false
}

func (d *Device) CanReadback(f video.Frame) bool {
	_, ok := d.backing(f)
	return ok
}

// Readback copies the backing planes into a new CPU frame.
func (d *Device) Readback(f video.Frame) (*video.MemoryFrame, error) {
	mf, ok := d.backing(f)
	if !ok {
		return nil, fmt.Errorf("videotest: %T is not backed by a pattern frame", f)
	}
	d.readbacks.Add(1)

	src := mf.Planes()
	planes := frame.Planes{Strides: append([]int(nil), src.Strides...)}
	for _, data := range src.Data {
		planes.Data = append(planes.Data, append([]byte(nil), data...))
	}
	visible := image.Rectangle{Max: mf.VisibleRect().Size()}
	return video.NewMemoryFrame(mf.Format(), visible, mf.Timestamp(), planes)
}

// Readbacks returns how many frames were read back.
func (d *Device) Readbacks() int64 {
	return d.readbacks.Load()
}
