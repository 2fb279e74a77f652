// Package sink pushes I420 frames to an external overlay process through a
// send function that is resolved lazily from a shared library.
package sink

import (
	"errors"
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/framebridge/framebridge/internal/metrics"
	"github.com/framebridge/framebridge/pkg/video"
)

var (
	// ErrUnavailable is returned by every send once resolving the send
	// function has failed. A missing overlay is a normal condition.
	ErrUnavailable = errors.New("sink: send function unavailable")
	// ErrInvalidFrame is returned for sends without a process id, with zero
	// dimensions or with too little data.
	ErrInvalidFrame = errors.New("sink: invalid frame")
	// ErrRejected is returned when the send function reports failure.
	ErrRejected = errors.New("sink: frame rejected")
)

// SendFunc delivers one tightly packed I420 frame to process pid.
type SendFunc func(pid, width, height uint32, data []byte) bool

// Resolver looks up the send function.
type Resolver interface {
	Resolve() (SendFunc, error)
}

// ResolverFunc adapts a function to Resolver.
type ResolverFunc func() (SendFunc, error)

func (f ResolverFunc) Resolve() (SendFunc, error) {
	return f()
}

// Sink sends frames to one overlay process. The send function is resolved on
// the first send and cached for the life of the Sink; a failed resolution is
// logged once and turns every send into ErrUnavailable.
type Sink struct {
	resolver Resolver
	pid      atomic.Uint32

	once    sync.Once
	send    SendFunc
	loadErr error

	bufMu sync.Mutex
	buf   []byte
}

// New returns a Sink that resolves its send function with r.
func New(r Resolver) *Sink {
	return &Sink{resolver: r}
}

func (s *Sink) SetProcessID(pid uint32) {
	s.pid.Store(pid)
}

func (s *Sink) ProcessID() uint32 {
	return s.pid.Load()
}

func (s *Sink) resolve() (SendFunc, error) {
	s.once.Do(func() {
		if s.resolver == nil {
			s.loadErr = errors.New("no resolver")
		} else {
			s.send, s.loadErr = s.resolver.Resolve()
			if s.loadErr == nil && s.send == nil {
				s.loadErr = errors.New("resolver returned no function")
			}
		}
		if s.loadErr != nil {
			logger.Warnf("overlay send function unavailable, frames will be dropped: %v", s.loadErr)
			return
		}
		logger.Debug("overlay send function resolved")
	})
	if s.loadErr != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnavailable, s.loadErr)
	}
	return s.send, nil
}

// Available resolves the send function if needed and reports whether it
// exists.
func (s *Sink) Available() bool {
	_, err := s.resolve()
	return err == nil
}

// SendFrame sends a tightly packed I420 frame of width x height. data must
// hold at least video.I420Size(width, height) bytes; any excess is passed
// through unchanged.
func (s *Sink) SendFrame(width, height uint32, data []byte) error {
	pid := s.pid.Load()
	switch {
	case pid == 0:
		metrics.ObserveSinkFrame(metrics.ResultInvalid)
		return fmt.Errorf("%w: no process id", ErrInvalidFrame)
	case width == 0 || height == 0:
		metrics.ObserveSinkFrame(metrics.ResultInvalid)
		return fmt.Errorf("%w: size %dx%d", ErrInvalidFrame, width, height)
	}
	if size := video.I420Size(int(width), int(height)); len(data) < size {
		metrics.ObserveSinkFrame(metrics.ResultInvalid)
		return fmt.Errorf("%w: %d bytes for %dx%d, need %d", ErrInvalidFrame, len(data), width, height, size)
	}

	send, err := s.resolve()
	if err != nil {
		metrics.ObserveSinkFrame(metrics.ResultUnavailable)
		return err
	}
	if !send(pid, width, height, data) {
		metrics.ObserveSinkFrame(metrics.ResultError)
		return ErrRejected
	}
	metrics.ObserveSinkFrame(metrics.ResultOK)
	return nil
}

// SendPlanar packs v into the sink's scratch buffer and sends it. Concurrent
// calls are serialized on the buffer.
func (s *Sink) SendPlanar(v *video.I420) error {
	if v == nil {
		metrics.ObserveSinkFrame(metrics.ResultInvalid)
		return fmt.Errorf("%w: nil frame", ErrInvalidFrame)
	}

	s.bufMu.Lock()
	defer s.bufMu.Unlock()

	size := video.I420Size(v.Width(), v.Height())
	if cap(s.buf) < size {
		s.buf = make([]byte, size)
	}
	n, err := video.PackI420(s.buf[:size], v)
	if err != nil {
		return err
	}
	return s.SendFrame(uint32(v.Width()), uint32(v.Height()), s.buf[:n])
}
