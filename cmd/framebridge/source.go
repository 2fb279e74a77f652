package main

import (
	"errors"
	"fmt"
	"image"
	"strings"
	"time"

	"github.com/kbinani/screenshot"

	"github.com/framebridge/framebridge/pkg/frame"
	"github.com/framebridge/framebridge/pkg/video"
	"github.com/framebridge/framebridge/pkg/video/videotest"
)

var errNoDisplay = errors.New("no active display")

// source produces frames. Sources are not safe for concurrent use.
type source interface {
	Next() (video.Frame, error)
	Close() error
}

type sourceOptions struct {
	kind    string
	format  string
	width   int
	height  int
	storage string
	fps     float32
	display int
	device  string
}

func (o *sourceOptions) parseFormat() (frame.Format, error) {
	f := frame.Format(strings.ToUpper(o.format))
	if f == "YUYV" {
		f = frame.FormatYUYV
	}
	for _, known := range frame.Formats {
		if f == known {
			return f, nil
		}
	}
	return "", fmt.Errorf("%s: %w", o.format, frame.ErrUnsupportedFormat)
}

// openSource opens the source named by o.kind. The returned device reads
// back GPU frames of the source, if it produces any.
func openSource(o *sourceOptions) (source, video.Device, error) {
	storage, err := frame.ParseStorageType(o.storage)
	if err != nil {
		return nil, nil, err
	}

	switch o.kind {
	case "pattern":
		format, err := o.parseFormat()
		if err != nil {
			return nil, nil, err
		}
		p, err := videotest.NewPattern(o.width, o.height, format, videotest.WithStorage(storage), videotest.WithFrameRate(o.fps))
		if err != nil {
			return nil, nil, err
		}
		var device video.Device
		if !storage.IsMappable() {
			device = &videotest.Device{}
		}
		return patternSource{p}, device, nil
	case "screen", "camera":
		if !storage.IsMappable() {
			return nil, nil, fmt.Errorf("%s frames are always in CPU memory, not %s", o.kind, storage)
		}
		if o.kind == "screen" {
			s, err := newScreenSource(o.display)
			if err != nil {
				return nil, nil, err
			}
			return s, nil, nil
		}
		format, err := o.parseFormat()
		if err != nil {
			return nil, nil, err
		}
		c, err := newCameraSource(o.device, format, o.width, o.height)
		if err != nil {
			return nil, nil, err
		}
		return c, nil, nil
	}
	return nil, nil, fmt.Errorf("unknown source %q", o.kind)
}

type patternSource struct {
	*videotest.Pattern
}

func (patternSource) Close() error { return nil }

type screenSource struct {
	display int
	start   time.Time
}

func newScreenSource(display int) (*screenSource, error) {
	n := screenshot.NumActiveDisplays()
	if n == 0 {
		return nil, errNoDisplay
	}
	if display < 0 || display >= n {
		return nil, fmt.Errorf("display %d out of range, %d active", display, n)
	}
	logger.Infof("capturing display %d (%v)", display, screenshot.GetDisplayBounds(display))
	return &screenSource{display: display, start: time.Now()}, nil
}

func (s *screenSource) Next() (video.Frame, error) {
	img, err := screenshot.CaptureDisplay(s.display)
	if err != nil {
		return nil, err
	}
	size := img.Rect.Size()
	planes := frame.Planes{Data: [][]byte{img.Pix}, Strides: []int{img.Stride}}
	return video.NewMemoryFrame(frame.FormatRGBA, image.Rectangle{Max: size}, time.Since(s.start), planes)
}

func (s *screenSource) Close() error { return nil }
