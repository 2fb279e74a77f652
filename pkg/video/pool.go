package video

import (
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/framebridge/framebridge/internal/metrics"
	"github.com/framebridge/framebridge/pkg/frame"
)

// Device is the GPU readback capability of a ResourcePool. Readback copies a
// GPU-backed frame into CPU memory in the same pixel format.
type Device interface {
	CanReadback(f Frame) bool
	Readback(f Frame) (*MemoryFrame, error)
}

// ResourcePool holds the resources shared by all conversions: reusable
// conversion buffers and the optional GPU device. Create it once and pass it
// to every Handle that converts. It is safe for concurrent use.
type ResourcePool struct {
	device Device
	align  int

	mu      sync.Mutex
	buffers map[int]*sync.Pool

	hits   atomic.Uint64
	misses atomic.Uint64
}

// PoolStats is a snapshot of buffer reuse.
type PoolStats struct {
	Hits   uint64
	Misses uint64
}

type PoolOption func(*ResourcePool)

// WithDevice attaches a GPU readback device.
func WithDevice(d Device) PoolOption {
	return func(p *ResourcePool) {
		p.device = d
	}
}

// WithStrideAlignment pads every converted row to a multiple of n bytes.
// n must be a power of two.
func WithStrideAlignment(n int) PoolOption {
	return func(p *ResourcePool) {
		p.align = n
	}
}

func NewResourcePool(opts ...PoolOption) (*ResourcePool, error) {
	p := &ResourcePool{
		align:   1,
		buffers: make(map[int]*sync.Pool),
	}
	for _, opt := range opts {
		opt(p)
	}

	if p.align <= 0 || p.align&(p.align-1) != 0 {
		return nil, fmt.Errorf("stride alignment %d is not a power of two", p.align)
	}

	logger.Debugf("resource pool created: alignment=%d device=%v", p.align, p.device != nil)
	return p, nil
}

// Device returns the readback device, or nil when the pool has none.
func (p *ResourcePool) Device() Device {
	return p.device
}

// Stride rounds rowBytes up to the pool alignment.
func (p *ResourcePool) Stride(rowBytes int) int {
	return (rowBytes + p.align - 1) &^ (p.align - 1)
}

func (p *ResourcePool) Stats() PoolStats {
	return PoolStats{Hits: p.hits.Load(), Misses: p.misses.Load()}
}

func (p *ResourcePool) sizedPool(size int) *sync.Pool {
	p.mu.Lock()
	defer p.mu.Unlock()

	sp, ok := p.buffers[size]
	if !ok {
		sp = &sync.Pool{}
		p.buffers[size] = sp
	}
	return sp
}

func (p *ResourcePool) get(size int) *[]byte {
	if b, ok := p.sizedPool(size).Get().(*[]byte); ok {
		p.hits.Add(1)
		metrics.ObservePoolBuffer(true)
		return b
	}
	p.misses.Add(1)
	metrics.ObservePoolBuffer(false)
	b := make([]byte, size)
	return &b
}

func (p *ResourcePool) put(b *[]byte) {
	p.sizedPool(len(*b)).Put(b)
}

// NewI420 returns a writable I420 view backed by one pooled buffer. The
// buffer goes back to the pool when the view's last reference is released,
// so it is never handed to another conversion while still referenced.
func (p *ResourcePool) NewI420(width, height int) (*I420, error) {
	if width <= 0 || height <= 0 {
		return nil, fmt.Errorf("%w: size %dx%d", ErrInvalidFrame, width, height)
	}

	var (
		strides [3]int
		sizes   [3]int
		total   int
	)
	for plane := 0; plane < 3; plane++ {
		rows, _ := frame.Rows(frame.FormatI420, plane, height)
		rowBytes, _ := frame.RowBytes(frame.FormatI420, plane, width)
		strides[plane] = p.Stride(rowBytes)
		sizes[plane] = strides[plane] * rows
		total += sizes[plane]
	}

	buf := p.get(total)
	var planes [3][]byte
	var offset int
	for plane := 0; plane < 3; plane++ {
		planes[plane] = (*buf)[offset : offset+sizes[plane] : offset+sizes[plane]]
		offset += sizes[plane]
	}

	return NewI420(width, height, planes, strides, func() { p.put(buf) })
}
