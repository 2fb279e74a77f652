//go:build !linux

package main

import (
	"errors"
	"fmt"
	"runtime"

	"github.com/framebridge/framebridge/pkg/frame"
	"github.com/framebridge/framebridge/pkg/video"
)

var errNoCamera = errors.New("camera capture needs V4L2")

type cameraSource struct{}

func newCameraSource(path string, format frame.Format, width, height int) (*cameraSource, error) {
	return nil, fmt.Errorf("%w: not available on %s", errNoCamera, runtime.GOOS)
}

func (*cameraSource) Next() (video.Frame, error) { return nil, errNoCamera }
func (*cameraSource) Close() error               { return nil }
