package main

import (
	"errors"
	"fmt"
	"image"
	"os"
	"path/filepath"
	"time"

	"github.com/blackjack/webcam"

	"github.com/framebridge/framebridge/pkg/frame"
	"github.com/framebridge/framebridge/pkg/video"
)

const (
	maxEmptyFrameCount = 5
	frameTimeout       = 5 // seconds
)

var (
	errReadTimeout = errors.New("read timeout")
	errEmptyFrame  = errors.New("empty frame")
)

func fourcc(a, b, c, d byte) webcam.PixelFormat {
	return webcam.PixelFormat(uint32(a) | uint32(b)<<8 | uint32(c)<<16 | uint32(d)<<24)
}

var cameraFormats = map[frame.Format]webcam.PixelFormat{
	frame.FormatYUYV:  fourcc('Y', 'U', 'Y', 'V'),
	frame.FormatUYVY:  fourcc('U', 'Y', 'V', 'Y'),
	frame.FormatNV12:  fourcc('N', 'V', '1', '2'),
	frame.FormatNV21:  fourcc('N', 'V', '2', '1'),
	frame.FormatMJPEG: fourcc('M', 'J', 'P', 'G'),
}

// cameraSource captures from a V4L2 device.
type cameraSource struct {
	cam    *webcam.Webcam
	format frame.Format
	width  int
	height int
	start  time.Time
}

// defaultCameraDevice returns the first device under /dev/v4l/by-path.
func defaultCameraDevice() (string, error) {
	const searchPath = "/dev/v4l/by-path/"
	devices, err := os.ReadDir(searchPath)
	if err != nil || len(devices) == 0 {
		return "", errors.New("no v4l device found")
	}
	return filepath.Join(searchPath, devices[0].Name()), nil
}

func newCameraSource(path string, format frame.Format, width, height int) (*cameraSource, error) {
	pf, ok := cameraFormats[format]
	if !ok {
		return nil, fmt.Errorf("camera: %s: %w", format, frame.ErrUnsupportedFormat)
	}
	if path == "" {
		var err error
		if path, err = defaultCameraDevice(); err != nil {
			return nil, err
		}
	}

	cam, err := webcam.Open(path)
	if err != nil {
		return nil, err
	}
	if _, ok := cam.GetSupportedFormats()[pf]; !ok {
		cam.Close()
		return nil, fmt.Errorf("camera %s does not support %s", path, format)
	}

	_, w, h, err := cam.SetImageFormat(pf, uint32(width), uint32(height))
	if err != nil {
		cam.Close()
		return nil, err
	}
	if err := cam.StartStreaming(); err != nil {
		cam.Close()
		return nil, err
	}
	logger.Infof("capturing %s %dx%d from %s", format, w, h, path)

	return &cameraSource{
		cam:    cam,
		format: format,
		width:  int(w),
		height: int(h),
		start:  time.Now(),
	}, nil
}

func (c *cameraSource) Next() (video.Frame, error) {
	for i := 0; i < maxEmptyFrameCount; i++ {
		err := c.cam.WaitForFrame(frameTimeout)
		switch err.(type) {
		case nil:
		case *webcam.Timeout:
			return nil, errReadTimeout
		default:
			return nil, err
		}

		b, err := c.cam.ReadFrame()
		if err != nil {
			return nil, err
		}
		if len(b) == 0 {
			continue
		}

		// The mmap buffer is reused by the driver; frames outlive it.
		data := append([]byte(nil), b...)
		return c.frame(data)
	}
	return nil, errEmptyFrame
}

func (c *cameraSource) frame(data []byte) (video.Frame, error) {
	visible := image.Rect(0, 0, c.width, c.height)
	ts := time.Since(c.start)
	if c.format.IsCompressed() {
		return video.NewMemoryFrame(c.format, visible, ts, frame.Planes{Data: [][]byte{data}})
	}

	var planes frame.Planes
	var offset int
	for plane := 0; plane < c.format.NumPlanes(); plane++ {
		rows, _ := frame.Rows(c.format, plane, c.height)
		rowBytes, _ := frame.RowBytes(c.format, plane, c.width)
		end := min(offset+rows*rowBytes, len(data))
		planes.Data = append(planes.Data, data[offset:end])
		planes.Strides = append(planes.Strides, rowBytes)
		offset = end
	}
	return video.NewMemoryFrame(c.format, visible, ts, planes)
}

func (c *cameraSource) Close() error {
	// StopStreaming frees the mmap buffers; frames were copied out in Next.
	if err := c.cam.StopStreaming(); err != nil {
		logger.Warnf("stopping camera: %v", err)
	}
	return c.cam.Close()
}
