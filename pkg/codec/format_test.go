package codec

import (
	"errors"
	"testing"
)

func TestSetCodec(t *testing.T) {
	f := NewVideoFormat()
	if err := f.SetCodec(CodecVP8); err != nil {
		t.Fatal(err)
	}

	for _, c := range []Codec{CodecMax + 1, CodecMax + 100, -1} {
		err := f.SetCodec(c)
		if !errors.Is(err, ErrInvalidCodec) {
			t.Errorf("SetCodec(%d): expected ErrInvalidCodec, got %v", int(c), err)
		}
		if f.Codec() != CodecVP8 {
			t.Errorf("SetCodec(%d) changed the stored codec to %s", int(c), f.Codec())
		}
	}

	if err := f.SetCodec(CodecMax); err != nil {
		t.Errorf("CodecMax should be accepted: %v", err)
	}
	if f.Codec() != CodecAV1 {
		t.Errorf("expected %s, got %s", CodecAV1, f.Codec())
	}
}

func TestSetProfile(t *testing.T) {
	f := NewVideoFormat()
	if f.Profile() != ProfileUnknown {
		t.Fatalf("expected unknown profile, got %s", f.Profile())
	}
	if err := f.SetProfile(VP9Profile2); err != nil {
		t.Fatal(err)
	}

	for _, p := range []Profile{ProfileMax + 1, ProfileUnknown - 1} {
		if err := f.SetProfile(p); !errors.Is(err, ErrInvalidProfile) {
			t.Errorf("SetProfile(%d): expected ErrInvalidProfile, got %v", int(p), err)
		}
		if f.Profile() != VP9Profile2 {
			t.Errorf("SetProfile(%d) changed the stored profile to %s", int(p), f.Profile())
		}
	}

	if err := f.SetProfile(ProfileMax); err != nil {
		t.Errorf("ProfileMax should be accepted: %v", err)
	}
}

func TestProfileCodec(t *testing.T) {
	cases := map[Profile]Codec{
		ProfileUnknown:      CodecUnknown,
		H264ProfileHigh:     CodecH264,
		VP8ProfileAny:       CodecVP8,
		VP9Profile3:         CodecVP9,
		HEVCProfileMain10:   CodecHEVC,
		DolbyVisionProfile8: CodecDolbyVision,
		TheoraProfileAny:    CodecTheora,
		AV1ProfilePro:       CodecAV1,
	}
	for p, expected := range cases {
		if got := p.Codec(); got != expected {
			t.Errorf("%d: expected %s, got %s", int(p), expected, got)
		}
	}
}
