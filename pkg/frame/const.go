package frame

type Format string

const (
	// YUV Formats

	// FormatI420 https://www.fourcc.org/pixel-format/yuv-i420/
	FormatI420 Format = "I420"
	// FormatI422 is a planar YUV format with horizontal chroma sub-sampling only
	FormatI422 Format = "I422"
	// FormatI444 is a YUV format without sub-sampling
	FormatI444 Format = "I444"
	// FormatNV12 https://www.fourcc.org/pixel-format/yuv-nv12/
	FormatNV12 Format = "NV12"
	// FormatNV21 https://www.fourcc.org/pixel-format/yuv-nv21/
	FormatNV21 Format = "NV21"
	// FormatYUY2 https://www.fourcc.org/pixel-format/yuv-yuy2/
	FormatYUY2 Format = "YUY2"
	// FormatUYVY https://www.fourcc.org/pixel-format/yuv-uyvy/
	FormatUYVY Format = "UYVY"

	// RGB Formats

	// FormatRGBA is packed 8-bit R, G, B, A
	FormatRGBA Format = "RGBA"
	// FormatBGRA is packed 8-bit B, G, R, A
	FormatBGRA Format = "BGRA"

	// Compressed Formats

	// FormatMJPEG https://www.fourcc.org/mjpg/
	FormatMJPEG Format = "MJPEG"
)

// YUV aliases

// FormatYUYV is an alias of FormatYUY2
const FormatYUYV = FormatYUY2

// Formats lists every format this package knows about.
var Formats = []Format{
	FormatI420,
	FormatI422,
	FormatI444,
	FormatNV12,
	FormatNV21,
	FormatYUY2,
	FormatUYVY,
	FormatRGBA,
	FormatBGRA,
	FormatMJPEG,
}

// IsCompressed reports whether f carries a compressed bitstream instead of
// raw planes.
func (f Format) IsCompressed() bool {
	return f == FormatMJPEG
}

// IsPlanarYUV reports whether every component of f lives in its own plane.
func (f Format) IsPlanarYUV() bool {
	switch f {
	case FormatI420, FormatI422, FormatI444:
		return true
	}
	return false
}
