package server

import (
	"fmt"
	"strings"
	"time"
)

// Profile is an immutable quality preset: JPEG quality and the pause
// between frames sent to each viewer.
type Profile struct {
	Key     string
	Name    string
	Quality int
	Delay   time.Duration
}

// FPS returns the upper bound on frames per second the delay allows.
func (p Profile) FPS() float64 {
	if p.Delay <= 0 {
		return 0
	}
	return float64(time.Second) / float64(p.Delay)
}

func (p Profile) String() string {
	return fmt.Sprintf("%s (quality %d, %s)", p.Name, p.Quality, p.Delay)
}

// Preset keys.
const (
	ProfileHigh   = "high"
	ProfileMedium = "medium"
	ProfileLow    = "low"
)

var profiles = []Profile{
	{Key: ProfileHigh, Name: "High (LAN)", Quality: 90, Delay: 30 * time.Millisecond},
	{Key: ProfileMedium, Name: "Medium (Wi-Fi)", Quality: 75, Delay: 50 * time.Millisecond},
	{Key: ProfileLow, Name: "Low (Slow Net)", Quality: 50, Delay: 100 * time.Millisecond},
}

// Profiles returns the presets from highest to lowest quality.
func Profiles() []Profile {
	out := make([]Profile, len(profiles))
	copy(out, profiles)
	return out
}

// DefaultProfile returns the preset selected when none is given.
func DefaultProfile() Profile {
	return profiles[1]
}

// LookupProfile finds a preset by key or display name, ignoring case.
// An empty name selects the default.
func LookupProfile(name string) (Profile, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return DefaultProfile(), nil
	}
	for _, p := range profiles {
		if strings.EqualFold(name, p.Key) || strings.EqualFold(name, p.Name) {
			return p, nil
		}
	}
	return Profile{}, fmt.Errorf("%w: %q", ErrUnknownProfile, name)
}
