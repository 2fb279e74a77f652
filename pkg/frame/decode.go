package frame

import (
	"fmt"
	"image"
)

func NewDecoder(f Format) (Decoder, error) {
	var buildDecoder func() decoderFunc

	switch f {
	case FormatI420:
		buildDecoder = func() decoderFunc { return decodePlanarYUV(f, image.YCbCrSubsampleRatio420) }
	case FormatI422:
		buildDecoder = func() decoderFunc { return decodePlanarYUV(f, image.YCbCrSubsampleRatio422) }
	case FormatI444:
		buildDecoder = func() decoderFunc { return decodePlanarYUV(f, image.YCbCrSubsampleRatio444) }
	case FormatNV12:
		buildDecoder = func() decoderFunc { return decodeSemiPlanar(f, false) }
	case FormatNV21:
		buildDecoder = func() decoderFunc { return decodeSemiPlanar(f, true) }
	case FormatYUY2:
		buildDecoder = func() decoderFunc { return decodePacked422(f, 0, 2, 1, 3) }
	case FormatUYVY:
		buildDecoder = func() decoderFunc { return decodePacked422(f, 1, 3, 0, 2) }
	case FormatRGBA:
		buildDecoder = func() decoderFunc { return decodeRGBA }
	case FormatBGRA:
		buildDecoder = func() decoderFunc { return decodeBGRA }
	case FormatMJPEG:
		buildDecoder = func() decoderFunc { return decodeMJPEG }
	default:
		return nil, fmt.Errorf("%s is not supported: %w", f, ErrUnsupportedFormat)
	}

	return buildDecoder(), nil
}
