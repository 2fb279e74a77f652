package codec

import (
	"errors"
	"fmt"
	"sync"
)

var (
	ErrInvalidCodec   = errors.New("codec: invalid codec")
	ErrInvalidProfile = errors.New("codec: invalid profile")
)

// VideoFormat holds the codec and profile negotiated for a stream. Setters
// reject out of range values and leave the stored value untouched.
// VideoFormat is safe for concurrent use.
type VideoFormat struct {
	mu      sync.RWMutex
	codec   Codec
	profile Profile
}

// NewVideoFormat returns a format with unknown codec and profile.
func NewVideoFormat() *VideoFormat {
	return &VideoFormat{
		codec:   CodecUnknown,
		profile: ProfileUnknown,
	}
}

func (f *VideoFormat) SetCodec(c Codec) error {
	if !c.Valid() {
		return fmt.Errorf("%w: %d is above %d or negative", ErrInvalidCodec, int(c), int(CodecMax))
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	f.codec = c
	return nil
}

func (f *VideoFormat) Codec() Codec {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return f.codec
}

func (f *VideoFormat) SetProfile(p Profile) error {
	if !p.Valid() {
		return fmt.Errorf("%w: %d is outside [%d, %d]", ErrInvalidProfile, int(p), int(ProfileUnknown), int(ProfileMax))
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	f.profile = p
	return nil
}

func (f *VideoFormat) Profile() Profile {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return f.profile
}
