package video

import (
	"errors"
	"fmt"
	"image"
	"time"

	"github.com/framebridge/framebridge/pkg/frame"
)

// ErrInvalidFrame is returned when a frame description is inconsistent.
var ErrInvalidFrame = errors.New("video: invalid frame")

// Frame is the producer side of a video frame. Every frame reports the
// visible rectangle; the allocation around it is never exposed as picture
// content.
type Frame interface {
	Format() frame.Format
	StorageType() frame.StorageType
	VisibleRect() image.Rectangle
	Timestamp() time.Duration
}

// Mapper is implemented by frames whose planes live in CPU memory.
type Mapper interface {
	// Planes returns plane memory starting at the visible origin.
	Planes() frame.Planes
}

// GPUFrame is implemented by frames backed by GPU resources. The backing is
// opaque to this package and only interpreted by a Device.
type GPUFrame interface {
	Frame
	Backing() any
}

type frameInfo struct {
	format    frame.Format
	storage   frame.StorageType
	visible   image.Rectangle
	timestamp time.Duration
}

func (i *frameInfo) Format() frame.Format           { return i.format }
func (i *frameInfo) StorageType() frame.StorageType { return i.storage }
func (i *frameInfo) VisibleRect() image.Rectangle   { return i.visible }
func (i *frameInfo) Timestamp() time.Duration       { return i.timestamp }

func newFrameInfo(format frame.Format, storage frame.StorageType, visible image.Rectangle, ts time.Duration) (frameInfo, error) {
	if visible.Empty() || visible.Min.X < 0 || visible.Min.Y < 0 {
		return frameInfo{}, fmt.Errorf("%w: visible rect %v", ErrInvalidFrame, visible)
	}
	if format.NumPlanes() == 0 && !format.IsCompressed() {
		return frameInfo{}, fmt.Errorf("%w: %s: %v", ErrInvalidFrame, format, frame.ErrUnsupportedFormat)
	}
	return frameInfo{
		format:    format,
		storage:   storage,
		visible:   visible,
		timestamp: ts,
	}, nil
}

// MemoryFrame is a frame whose planes are in CPU memory.
type MemoryFrame struct {
	frameInfo
	planes  frame.Planes
	release func()
}

type MemoryFrameOption func(*MemoryFrame)

// WithStorage overrides the default StorageOwnedMemory classification. It
// must be one of the mappable storage types.
func WithStorage(s frame.StorageType) MemoryFrameOption {
	return func(f *MemoryFrame) {
		f.storage = s
	}
}

// WithReleaseFunc registers a hook called when the last Handle wrapping the
// frame is released.
func WithReleaseFunc(release func()) MemoryFrameOption {
	return func(f *MemoryFrame) {
		f.release = release
	}
}

// NewMemoryFrame wraps planes of a frame without copying them. planes
// describe the whole allocation; visible selects the picture inside it.
// The visible origin must be even on any axis a plane sub-samples or packs.
// Compressed formats carry their payload in plane 0 and must have a visible
// rectangle anchored at the origin.
func NewMemoryFrame(format frame.Format, visible image.Rectangle, ts time.Duration, planes frame.Planes, opts ...MemoryFrameOption) (*MemoryFrame, error) {
	info, err := newFrameInfo(format, frame.StorageOwnedMemory, visible, ts)
	if err != nil {
		return nil, err
	}

	f := &MemoryFrame{frameInfo: info}
	for _, opt := range opts {
		opt(f)
	}
	if !f.storage.IsMappable() {
		return nil, fmt.Errorf("%w: storage %s is not CPU memory", ErrInvalidFrame, f.storage)
	}

	if format.IsCompressed() {
		if visible.Min != (image.Point{}) {
			return nil, fmt.Errorf("%w: compressed frames cannot be cropped", ErrInvalidFrame)
		}
		f.planes = planes
	} else {
		if !frame.OriginAligned(format, visible.Min) {
			return nil, fmt.Errorf("%w: visible origin %v splits a %s sample block", ErrInvalidFrame, visible.Min, format)
		}
		f.planes, err = visiblePlanes(format, planes, visible.Min)
		if err != nil {
			return nil, err
		}
	}

	if err := f.planes.Validate(format, visible.Dx(), visible.Dy()); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidFrame, err)
	}
	return f, nil
}

func visiblePlanes(format frame.Format, planes frame.Planes, origin image.Point) (frame.Planes, error) {
	n := format.NumPlanes()
	if len(planes.Data) < n || len(planes.Strides) < n {
		return frame.Planes{}, fmt.Errorf("%w: %s needs %d planes", ErrInvalidFrame, format, n)
	}

	visible := frame.Planes{
		Data:    make([][]byte, n),
		Strides: make([]int, n),
	}
	for plane := 0; plane < n; plane++ {
		off, err := frame.PlaneOffset(format, plane, planes.Strides[plane], origin)
		if err != nil {
			return frame.Planes{}, err
		}
		if off > len(planes.Data[plane]) {
			return frame.Planes{}, fmt.Errorf("%w: visible origin %v outside plane %d", ErrInvalidFrame, origin, plane)
		}
		visible.Data[plane] = planes.Data[plane][off:]
		visible.Strides[plane] = planes.Strides[plane]
	}
	return visible, nil
}

// NewI420Frame allocates a tightly packed owned I420 frame.
func NewI420Frame(width, height int, ts time.Duration) (*MemoryFrame, error) {
	var planes frame.Planes
	for plane := 0; plane < 3; plane++ {
		rows, _ := frame.Rows(frame.FormatI420, plane, height)
		rowBytes, _ := frame.RowBytes(frame.FormatI420, plane, width)
		planes.Data = append(planes.Data, make([]byte, rows*rowBytes))
		planes.Strides = append(planes.Strides, rowBytes)
	}
	return NewMemoryFrame(frame.FormatI420, image.Rect(0, 0, width, height), ts, planes)
}

// Planes implements Mapper.
func (f *MemoryFrame) Planes() frame.Planes {
	return f.planes
}

// Release runs the release hook given at construction, if any.
func (f *MemoryFrame) Release() {
	if f.release != nil {
		f.release()
	}
}

// TextureFrame is a frame that only exists as GPU textures.
type TextureFrame struct {
	frameInfo
	textures []any
	release  func()
}

// NewTextureFrame wraps opaque texture references.
func NewTextureFrame(format frame.Format, visible image.Rectangle, ts time.Duration, textures []any, release func()) (*TextureFrame, error) {
	info, err := newFrameInfo(format, frame.StorageTextures, visible, ts)
	if err != nil {
		return nil, err
	}
	if len(textures) == 0 {
		return nil, fmt.Errorf("%w: texture frame without textures", ErrInvalidFrame)
	}
	return &TextureFrame{frameInfo: info, textures: textures, release: release}, nil
}

func (f *TextureFrame) NumTextures() int { return len(f.textures) }

// Backing returns the texture references as []any.
func (f *TextureFrame) Backing() any { return f.textures }

func (f *TextureFrame) Release() {
	if f.release != nil {
		f.release()
	}
}

// GPUBufferFrame is a frame stored in a GPU memory buffer.
type GPUBufferFrame struct {
	frameInfo
	buffer  any
	release func()
}

// NewGPUBufferFrame wraps an opaque GPU memory buffer reference.
func NewGPUBufferFrame(format frame.Format, visible image.Rectangle, ts time.Duration, buffer any, release func()) (*GPUBufferFrame, error) {
	info, err := newFrameInfo(format, frame.StorageGPUMemoryBuffer, visible, ts)
	if err != nil {
		return nil, err
	}
	if buffer == nil {
		return nil, fmt.Errorf("%w: gpu buffer frame without buffer", ErrInvalidFrame)
	}
	return &GPUBufferFrame{frameInfo: info, buffer: buffer, release: release}, nil
}

func (f *GPUBufferFrame) Backing() any { return f.buffer }

func (f *GPUBufferFrame) Release() {
	if f.release != nil {
		f.release()
	}
}
