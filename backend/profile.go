// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

package backend

// Profile is a codec profile a decoder context is created for.
type Profile int

// H.264 decode profiles, ordered least to most capable. The order
// matters: profile substitution walks it upward.
const (
	ProfileH264ConstrainedBaseline Profile = iota
	ProfileH264Baseline
	ProfileH264Main
	ProfileH264High

	profileCount
)

var profileNames = [...]string{
	"h264-constrained-baseline",
	"h264-baseline",
	"h264-main",
	"h264-high",
}

func (p Profile) String() string {
	if p < 0 || p >= profileCount {
		return "unknown"
	}
	return profileNames[p]
}

// Valid reports whether p names a known profile.
func (p Profile) Valid() bool { return p >= 0 && p < profileCount }

// Substitutes returns the profiles to try for p, starting with p itself
// and ending with the most capable. A driver advertising only a more
// capable profile can still decode the lesser stream, so creation walks
// this list and stops at the first success.
func (p Profile) Substitutes() []Profile {
	if !p.Valid() {
		return nil
	}
	subs := make([]Profile, 0, profileCount-p)
	for q := p; q < profileCount; q++ {
		subs = append(subs, q)
	}
	return subs
}

// NewDecoderWithFallback creates a decoder for the first profile in p's
// substitution list the device accepts. It returns the decoder created,
// which may report a more capable profile than requested, or
// ErrUnsupportedProfile once the list is exhausted.
func NewDecoderWithFallback(dev Device, p Profile, width, height, maxRefs int) (Decoder, error) {
	if !p.Valid() {
		return nil, ErrUnsupportedProfile
	}
	var lastErr error
	for _, q := range p.Substitutes() {
		dec, err := dev.NewDecoder(q, width, height, maxRefs)
		if err == nil {
			return dec, nil
		}
		lastErr = err
	}
	if lastErr == nil {
		lastErr = ErrUnsupportedProfile
	}
	return nil, lastErr
}
