// Package codec describes the compressed format a frame is associated with.
// Frames in this module are always raw; the codec and profile only travel
// alongside them as metadata for downstream consumers.
package codec

import "fmt"

// Codec identifies a video codec.
type Codec int

const (
	CodecUnknown Codec = iota
	CodecH264
	CodecVC1
	CodecMPEG2
	CodecMPEG4
	CodecTheora
	CodecVP8
	CodecVP9
	CodecHEVC
	CodecDolbyVision
	CodecAV1

	// CodecMax is the largest valid Codec.
	CodecMax = CodecAV1
)

var codecNames = [...]string{
	CodecUnknown:     "unknown",
	CodecH264:        "h264",
	CodecVC1:         "vc1",
	CodecMPEG2:       "mpeg2",
	CodecMPEG4:       "mpeg4",
	CodecTheora:      "theora",
	CodecVP8:         "vp8",
	CodecVP9:         "vp9",
	CodecHEVC:        "hevc",
	CodecDolbyVision: "dolbyvision",
	CodecAV1:         "av1",
}

// Valid reports whether c is a known codec.
func (c Codec) Valid() bool {
	return c >= CodecUnknown && c <= CodecMax
}

func (c Codec) String() string {
	if !c.Valid() {
		return fmt.Sprintf("Codec(%d)", int(c))
	}
	return codecNames[c]
}

// Profile identifies a codec profile.
type Profile int

const (
	ProfileUnknown Profile = iota - 1
	H264ProfileBaseline
	H264ProfileMain
	H264ProfileExtended
	H264ProfileHigh
	H264ProfileHigh10
	H264ProfileHigh422
	H264ProfileHigh444Predictive
	H264ProfileScalableBaseline
	H264ProfileScalableHigh
	H264ProfileStereoHigh
	H264ProfileMultiviewHigh
	VP8ProfileAny
	VP9Profile0
	VP9Profile1
	VP9Profile2
	VP9Profile3
	HEVCProfileMain
	HEVCProfileMain10
	HEVCProfileMainStillPicture
	DolbyVisionProfile0
	DolbyVisionProfile4
	DolbyVisionProfile5
	DolbyVisionProfile7
	TheoraProfileAny
	AV1ProfileMain
	AV1ProfileHigh
	AV1ProfilePro
	DolbyVisionProfile8
	DolbyVisionProfile9

	// ProfileMax is the largest valid Profile.
	ProfileMax = DolbyVisionProfile9
)

// Valid reports whether p is a known profile.
func (p Profile) Valid() bool {
	return p >= ProfileUnknown && p <= ProfileMax
}

// Codec returns the codec p belongs to.
func (p Profile) Codec() Codec {
	switch {
	case p >= H264ProfileBaseline && p <= H264ProfileMultiviewHigh:
		return CodecH264
	case p == VP8ProfileAny:
		return CodecVP8
	case p >= VP9Profile0 && p <= VP9Profile3:
		return CodecVP9
	case p >= HEVCProfileMain && p <= HEVCProfileMainStillPicture:
		return CodecHEVC
	case p >= DolbyVisionProfile0 && p <= DolbyVisionProfile7,
		p == DolbyVisionProfile8, p == DolbyVisionProfile9:
		return CodecDolbyVision
	case p == TheoraProfileAny:
		return CodecTheora
	case p >= AV1ProfileMain && p <= AV1ProfilePro:
		return CodecAV1
	}
	return CodecUnknown
}

func (p Profile) String() string {
	if !p.Valid() {
		return fmt.Sprintf("Profile(%d)", int(p))
	}
	if p == ProfileUnknown {
		return "unknown"
	}
	return fmt.Sprintf("%s/%d", p.Codec(), int(p))
}
