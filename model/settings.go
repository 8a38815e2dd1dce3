package model

import "time"

// TempoMode controls how the engine picks the incoming deck's playback rate.
type TempoMode string

const (
	TempoModeAuto     TempoMode = "auto"     // match the current track's effective BPM
	TempoModeLocked   TempoMode = "locked"   // fixed mood preset via the preset resolver
	TempoModeOriginal TempoMode = "original" // always play at the recorded tempo
)

// MixSettings are the user-editable transition timing knobs. A single row is
// persisted via GORM; the engine only ever reads a normalized snapshot.
type MixSettings struct {
	ID                  int64     `json:"-" gorm:"primaryKey"`
	NextSongStartOffset float64   `json:"nextSongStartOffset"` // seconds skipped into the incoming track
	EndEarlySeconds     float64   `json:"endEarlySeconds"`     // fade-out begins this early before the true end
	CrossfadeSeconds    float64   `json:"crossfadeSeconds"`    // audible overlap duration
	MaxTempoPercent     float64   `json:"maxTempoPercent"`     // cap on automatic tempo shift, percent units
	TempoControlEnabled bool      `json:"tempoControlEnabled"` // master toggle for any automatic rate change
	TempoMode           TempoMode `json:"tempoMode"`
	LockedPreset        string    `json:"lockedPreset"` // preset name used when TempoMode is "locked"
	LoopPlaylist        bool      `json:"loopPlaylist"`
	UpdatedAt           time.Time `json:"updatedAt"`
}

// Literal defaults, also used by the settings reset endpoint.
const (
	DefaultNextSongStartOffset = 15.0
	DefaultEndEarlySeconds     = 5.0
	DefaultCrossfadeSeconds    = 8.0
	DefaultMaxTempoPercent     = 8.0
)

// DefaultMixSettings returns the reset-to-defaults settings.
func DefaultMixSettings() MixSettings {
	return MixSettings{
		NextSongStartOffset: DefaultNextSongStartOffset,
		EndEarlySeconds:     DefaultEndEarlySeconds,
		CrossfadeSeconds:    DefaultCrossfadeSeconds,
		MaxTempoPercent:     DefaultMaxTempoPercent,
		TempoControlEnabled: true,
		TempoMode:           TempoModeAuto,
		LockedPreset:        "neutral",
		LoopPlaylist:        false,
	}
}

// Normalize clamps every field to its legal range. Out-of-bound values are
// silently pulled to the nearest bound rather than rejected: a playback glitch
// is worse than a suboptimal mix.
func (s *MixSettings) Normalize() {
	if s.NextSongStartOffset < 0 {
		s.NextSongStartOffset = 0
	}
	if s.EndEarlySeconds < 0 {
		s.EndEarlySeconds = 0
	} else if s.EndEarlySeconds > 60 {
		s.EndEarlySeconds = 60
	}
	if s.CrossfadeSeconds < 1 {
		s.CrossfadeSeconds = 1
	} else if s.CrossfadeSeconds > 20 {
		s.CrossfadeSeconds = 20
	}
	if s.MaxTempoPercent < 0 {
		s.MaxTempoPercent = 0
	} else if s.MaxTempoPercent > 100 {
		s.MaxTempoPercent = 100
	}
	switch s.TempoMode {
	case TempoModeAuto, TempoModeLocked, TempoModeOriginal:
	default:
		s.TempoMode = TempoModeAuto
	}
}

// MaxStartOffsetFor bounds NextSongStartOffset for a given incoming track:
// the offset scales with the track but never eats more than a quarter of it,
// and never exceeds one minute.
func MaxStartOffsetFor(trackDuration float64) float64 {
	if trackDuration <= 0 {
		return 0
	}
	max := trackDuration / 4
	if max > 60 {
		max = 60
	}
	return max
}
