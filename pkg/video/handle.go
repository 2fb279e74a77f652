package video

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"github.com/framebridge/framebridge/internal/metrics"
	"github.com/framebridge/framebridge/pkg/frame"
)

// Handle owns a reference to one video frame of any storage kind and
// converts it to I420 on demand.
//
// A Handle starts with one reference. Consumers sharing the frame call Retain
// and each of them calls Release when done; the wrapped frame's release hook
// and any memoized conversion are released with the last reference.
//
// Handle methods are safe for concurrent use. ToPlanar may block on a GPU
// readback and should not be called from latency critical goroutines.
type Handle struct {
	id    uuid.UUID
	frame Frame

	converter Converter
	pool      *ResourcePool
	memoize   bool

	refs atomic.Int32

	mu     sync.Mutex
	cached *I420
}

type HandleOption func(*Handle)

// WithConverter sets the conversion service and the shared pool it converts
// with. Without a converter only I420 frames in CPU memory can be viewed.
func WithConverter(c Converter, pool *ResourcePool) HandleOption {
	return func(h *Handle) {
		h.converter = c
		h.pool = pool
	}
}

// WithMemoization makes ToPlanar keep its first conversion result for the
// lifetime of the handle. Frames are immutable, so the cached view never goes
// stale; it is released together with the handle's last reference. Without
// memoization every ToPlanar call converts again.
func WithMemoization() HandleOption {
	return func(h *Handle) {
		h.memoize = true
	}
}

// NewHandle wraps f. A nil f gives an empty handle: accessors return zero
// values or ErrEmptyFrame.
func NewHandle(f Frame, opts ...HandleOption) *Handle {
	h := &Handle{
		id:    uuid.New(),
		frame: f,
	}
	for _, opt := range opts {
		opt(h)
	}
	h.refs.Store(1)
	return h
}

func (h *Handle) empty() bool {
	return h == nil || h.frame == nil
}

// ID identifies the handle in logs and debug dumps.
func (h *Handle) ID() uuid.UUID {
	if h == nil {
		return uuid.Nil
	}
	return h.id
}

// Frame returns the wrapped frame, or nil for an empty handle.
func (h *Handle) Frame() Frame {
	if h.empty() {
		return nil
	}
	return h.frame
}

// Width returns the width of the visible rectangle.
func (h *Handle) Width() int {
	if h.empty() {
		return 0
	}
	return h.frame.VisibleRect().Dx()
}

// Height returns the height of the visible rectangle.
func (h *Handle) Height() int {
	if h.empty() {
		return 0
	}
	return h.frame.VisibleRect().Dy()
}

func (h *Handle) Timestamp() time.Duration {
	if h.empty() {
		return 0
	}
	return h.frame.Timestamp()
}

// LegacyTimestamp returns the timestamp in microseconds truncated to 32 bits,
// as older consumers expect. It wraps around after about 71.6 minutes; use
// Timestamp for anything that can run longer.
func (h *Handle) LegacyTimestamp() uint32 {
	return uint32(h.Timestamp().Microseconds())
}

func (h *Handle) Format() frame.Format {
	if h.empty() {
		return ""
	}
	return h.frame.Format()
}

func (h *Handle) StorageType() frame.StorageType {
	if h.empty() {
		return frame.StorageUnknown
	}
	return h.frame.StorageType()
}

func (h *Handle) IsMappable() bool {
	if h.empty() || !h.frame.StorageType().IsMappable() {
		return false
	}
	_, ok := h.frame.(Mapper)
	return ok
}

func (h *Handle) HasTextures() bool {
	return h.StorageType() == frame.StorageTextures
}

func (h *Handle) HasGPUMemoryBuffer() bool {
	return h.StorageType() == frame.StorageGPUMemoryBuffer
}

func (h *Handle) NumTextures() int {
	if h.empty() {
		return 0
	}
	if t, ok := h.frame.(interface{ NumTextures() int }); ok {
		return t.NumTextures()
	}
	return 0
}

// mapped returns the CPU planes of the frame after checking plane.
func (h *Handle) mapped(plane int) (frame.Planes, error) {
	if h.empty() {
		return frame.Planes{}, ErrEmptyFrame
	}
	if !h.IsMappable() {
		return frame.Planes{}, fmt.Errorf("%w: %s storage", ErrNotMappable, h.frame.StorageType())
	}
	if n := h.frame.Format().NumPlanes(); plane < 0 || plane >= n {
		return frame.Planes{}, fmt.Errorf("plane %d of %s: %w", plane, h.frame.Format(), frame.ErrPlaneOutOfRange)
	}
	return h.frame.(Mapper).Planes(), nil
}

// Stride returns the byte distance between rows of plane. It is only valid
// for frames in CPU memory; other frames return ErrNotMappable.
func (h *Handle) Stride(plane int) (int, error) {
	p, err := h.mapped(plane)
	if err != nil {
		return 0, err
	}
	return p.Strides[plane], nil
}

// Data returns the visible memory of plane starting at its first visible
// row.
func (h *Handle) Data(plane int) ([]byte, error) {
	p, err := h.mapped(plane)
	if err != nil {
		return nil, err
	}
	rows, err := frame.Rows(h.frame.Format(), plane, h.Height())
	if err != nil {
		return nil, err
	}
	return planeSlice(p.Data[plane], p.Strides[plane], rows), nil
}

func (h *Handle) RowBytes(plane int) (int, error) {
	if _, err := h.mapped(plane); err != nil {
		return 0, err
	}
	return frame.RowBytes(h.frame.Format(), plane, h.Width())
}

func (h *Handle) Rows(plane int) (int, error) {
	if _, err := h.mapped(plane); err != nil {
		return 0, err
	}
	return frame.Rows(h.frame.Format(), plane, h.Height())
}

// ToPlanar returns an I420 view of the frame. Callers must Release the view.
//
// I420 frames in CPU memory are viewed without copying; the view keeps the
// handle alive. Anything else goes through the converter, which may block.
// ErrEmptyFrame and ErrUnsupportedConversion are expected outcomes.
func (h *Handle) ToPlanar() (*I420, error) {
	if h.empty() {
		return nil, ErrEmptyFrame
	}

	f := h.frame
	format := string(f.Format())
	if f.Format() == frame.FormatI420 && h.IsMappable() {
		v, err := h.wrapI420(f.(Mapper).Planes())
		if err != nil {
			metrics.ObserveConversion(format, metrics.ResultError, 0)
			return nil, err
		}
		metrics.ObserveConversion(format, metrics.ResultOK, 0)
		return v, nil
	}

	if h.memoize {
		h.mu.Lock()
		defer h.mu.Unlock()
		if h.cached != nil {
			metrics.ObserveConversion(format, metrics.ResultCached, 0)
			return h.cached.Retain(), nil
		}
	}

	if h.converter == nil || !h.converter.CanConvert(f) {
		metrics.ObserveConversion(format, metrics.ResultUnsupported, 0)
		return nil, fmt.Errorf("%w: %s frame in %s storage", ErrUnsupportedConversion, f.Format(), f.StorageType())
	}

	start := time.Now()
	v, err := h.converter.Convert(f, h.pool)
	if err != nil {
		result := metrics.ResultError
		if errors.Is(err, ErrUnsupportedConversion) {
			result = metrics.ResultUnsupported
		} else {
			logger.Warnf("handle %s: converting %s frame: %v", h.id, f.Format(), err)
		}
		metrics.ObserveConversion(format, result, 0)
		return nil, err
	}
	metrics.ObserveConversion(format, metrics.ResultOK, time.Since(start))

	if h.memoize {
		h.cached = v
		return v.Retain(), nil
	}
	return v, nil
}

func (h *Handle) wrapI420(p frame.Planes) (*I420, error) {
	var (
		planes  [3][]byte
		strides [3]int
	)
	copy(planes[:], p.Data)
	copy(strides[:], p.Strides)

	h.Retain()
	v, err := NewI420(h.Width(), h.Height(), planes, strides, h.Release)
	if err != nil {
		h.Release()
		return nil, err
	}
	v.timestamp, v.hasTimestamp = h.frame.Timestamp(), true
	return v, nil
}

// Retain adds a reference and returns h.
func (h *Handle) Retain() *Handle {
	h.refs.Add(1)
	return h
}

// Release drops a reference. With the last one the memoized view and the
// wrapped frame are released.
func (h *Handle) Release() {
	if h == nil {
		return
	}

	n := h.refs.Add(-1)
	if n > 0 {
		return
	}
	if n < 0 {
		panic("video: Handle released more times than retained")
	}

	h.mu.Lock()
	cached := h.cached
	h.cached = nil
	h.mu.Unlock()
	if cached != nil {
		cached.Release()
	}

	if r, ok := h.frame.(interface{ Release() }); ok {
		r.Release()
	}
}

// DumpDebug writes every attribute and capability of the frame to w. An
// empty handle writes a single "null frame" line.
func (h *Handle) DumpDebug(w io.Writer) error {
	_, err := io.WriteString(w, h.String())
	return err
}

// LogDebug writes the DumpDebug output to the package logger at debug level.
func (h *Handle) LogDebug() {
	logger.Debug(h.String())
}

func (h *Handle) String() string {
	if h.empty() {
		return "null frame\n"
	}

	var b bytes.Buffer
	fmt.Fprintf(&b, "Video frame %s\n", h.id)
	fmt.Fprintf(&b, "IsMappable %t\n", h.IsMappable())
	fmt.Fprintf(&b, "HasTextures %t\n", h.HasTextures())
	fmt.Fprintf(&b, "NumTextures %d\n", h.NumTextures())
	fmt.Fprintf(&b, "HasGpuMemoryBuffer %t\n", h.HasGPUMemoryBuffer())
	fmt.Fprintf(&b, "Format %s\n", h.Format())
	fmt.Fprintf(&b, "Storage type %s\n", h.StorageType())
	fmt.Fprintf(&b, "Width %d\n", h.Width())
	fmt.Fprintf(&b, "Height %d\n", h.Height())
	fmt.Fprintf(&b, "Visible rect %v\n", h.frame.VisibleRect())
	fmt.Fprintf(&b, "Planes %d\n", h.Format().NumPlanes())
	fmt.Fprintf(&b, "Timestamp %s\n", h.Timestamp())
	return b.String()
}
