package main

import (
	"github.com/spf13/pflag"
)

func addSourceFlags(fs *pflag.FlagSet, o *sourceOptions) {
	fs.StringVarP(&o.kind, "source", "s", "pattern", "Frame source (pattern, screen, camera)")
	fs.StringVarP(&o.format, "format", "f", "I420", "Pixel format of pattern and camera frames")
	fs.IntVar(&o.width, "width", 640, "Frame width")
	fs.IntVar(&o.height, "height", 480, "Frame height")
	fs.StringVar(&o.storage, "storage", "owned-memory", "Storage of pattern frames (owned-memory, shared-memory, textures, gpu-memory-buffer)")
	fs.Float32Var(&o.fps, "fps", 30, "Timestamp rate of pattern frames")
	fs.IntVar(&o.display, "display", 0, "Display index for the screen source")
	fs.StringVar(&o.device, "device", "", "V4L2 device for the camera source (default: first in /dev/v4l/by-path)")
}
