package server

import (
	"errors"
	"testing"
	"time"
)

func TestLookupProfile(t *testing.T) {
	tests := []struct {
		name    string
		key     string
		quality int
		delay   time.Duration
	}{
		{"high", ProfileHigh, 90, 30 * time.Millisecond},
		{"High (LAN)", ProfileHigh, 90, 30 * time.Millisecond},
		{"MEDIUM", ProfileMedium, 75, 50 * time.Millisecond},
		{"medium (wi-fi)", ProfileMedium, 75, 50 * time.Millisecond},
		{"", ProfileMedium, 75, 50 * time.Millisecond},
		{" low ", ProfileLow, 50, 100 * time.Millisecond},
		{"Low (Slow Net)", ProfileLow, 50, 100 * time.Millisecond},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			p, err := LookupProfile(tc.name)
			if err != nil {
				t.Fatalf("LookupProfile(%q) error = %v", tc.name, err)
			}
			if p.Key != tc.key || p.Quality != tc.quality || p.Delay != tc.delay {
				t.Errorf("LookupProfile(%q) = %+v", tc.name, p)
			}
		})
	}

	if _, err := LookupProfile("ultra"); !errors.Is(err, ErrUnknownProfile) {
		t.Errorf("LookupProfile(ultra) error = %v, want ErrUnknownProfile", err)
	}
}

func TestProfilesAreCopies(t *testing.T) {
	ps := Profiles()
	if len(ps) != 3 {
		t.Fatalf("len(Profiles()) = %d, want 3", len(ps))
	}
	ps[0].Quality = 1

	if p, _ := LookupProfile(ProfileHigh); p.Quality != 90 {
		t.Error("mutating Profiles() result changed the presets")
	}
}

func TestProfileFPS(t *testing.T) {
	p, _ := LookupProfile(ProfileLow)
	if fps := p.FPS(); fps != 10 {
		t.Errorf("FPS() = %v, want 10", fps)
	}
	if (Profile{}).FPS() != 0 {
		t.Error("zero profile FPS should be 0")
	}
}
