package model

import "testing"

func TestNormalizeClampsRanges(t *testing.T) {
	tests := []struct {
		name string
		in   MixSettings
		want MixSettings
	}{
		{
			name: "negative values pulled to zero",
			in:   MixSettings{NextSongStartOffset: -3, EndEarlySeconds: -1, CrossfadeSeconds: -5, MaxTempoPercent: -10, TempoMode: TempoModeAuto},
			want: MixSettings{NextSongStartOffset: 0, EndEarlySeconds: 0, CrossfadeSeconds: 1, MaxTempoPercent: 0, TempoMode: TempoModeAuto},
		},
		{
			name: "excessive values pulled to upper bounds",
			in:   MixSettings{EndEarlySeconds: 500, CrossfadeSeconds: 90, MaxTempoPercent: 250, TempoMode: TempoModeLocked},
			want: MixSettings{EndEarlySeconds: 60, CrossfadeSeconds: 20, MaxTempoPercent: 100, TempoMode: TempoModeLocked},
		},
		{
			name: "in-range values untouched",
			in:   MixSettings{NextSongStartOffset: 15, EndEarlySeconds: 5, CrossfadeSeconds: 8, MaxTempoPercent: 8, TempoMode: TempoModeOriginal},
			want: MixSettings{NextSongStartOffset: 15, EndEarlySeconds: 5, CrossfadeSeconds: 8, MaxTempoPercent: 8, TempoMode: TempoModeOriginal},
		},
		{
			name: "unknown tempo mode falls back to auto",
			in:   MixSettings{CrossfadeSeconds: 8, TempoMode: "turbo"},
			want: MixSettings{CrossfadeSeconds: 8, TempoMode: TempoModeAuto},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := tt.in
			got.Normalize()
			if got.NextSongStartOffset != tt.want.NextSongStartOffset ||
				got.EndEarlySeconds != tt.want.EndEarlySeconds ||
				got.CrossfadeSeconds != tt.want.CrossfadeSeconds ||
				got.MaxTempoPercent != tt.want.MaxTempoPercent ||
				got.TempoMode != tt.want.TempoMode {
				t.Errorf("Normalize() = %+v, want %+v", got, tt.want)
			}
		})
	}
}

func TestDefaultMixSettings(t *testing.T) {
	s := DefaultMixSettings()
	if s.NextSongStartOffset != 15 || s.EndEarlySeconds != 5 || s.CrossfadeSeconds != 8 || s.MaxTempoPercent != 8 {
		t.Errorf("unexpected defaults: %+v", s)
	}
	if !s.TempoControlEnabled || s.TempoMode != TempoModeAuto || s.LoopPlaylist {
		t.Errorf("unexpected default flags: %+v", s)
	}

	// Defaults must survive Normalize unchanged.
	n := s
	n.Normalize()
	if n != s {
		t.Errorf("Normalize changed defaults: %+v != %+v", n, s)
	}
}

func TestMaxStartOffsetFor(t *testing.T) {
	tests := []struct {
		duration float64
		want     float64
	}{
		{0, 0},
		{-10, 0},
		{60, 15},    // quarter of the track
		{120, 30},   // quarter of the track
		{600, 60}, // capped at a minute
		{100000, 60},
	}
	for _, tt := range tests {
		if got := MaxStartOffsetFor(tt.duration); got != tt.want {
			t.Errorf("MaxStartOffsetFor(%v) = %v, want %v", tt.duration, got, tt.want)
		}
	}
}

func TestEffectiveEnd(t *testing.T) {
	tests := []struct {
		name  string
		track Track
		want  float64
	}{
		{"true end inside track", Track{Duration: 200, TrueEndTime: 185}, 185},
		{"no true end", Track{Duration: 200}, 200},
		{"true end past duration ignored", Track{Duration: 200, TrueEndTime: 250}, 200},
		{"negative true end ignored", Track{Duration: 200, TrueEndTime: -1}, 200},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.track.EffectiveEnd(); got != tt.want {
				t.Errorf("EffectiveEnd() = %v, want %v", got, tt.want)
			}
		})
	}
}
