package party

import (
	"context"

	"DeckFM/model"
)

// DeckOutput is the host audio pipeline behind one deck. The engine never
// touches audio samples itself; it only turns these knobs. Implementations:
// the beep speaker output for real playback, a fake for tests.
type DeckOutput interface {
	// Load prepares the deck's audio source for the given track. A failed
	// load is recoverable: the engine skips the track and tries the next one.
	Load(ctx context.Context, track *model.Track) error
	// Play starts playback offsetSec seconds into the loaded track.
	Play(offsetSec float64)
	Pause()
	Resume()
	// Stop halts playback and releases the loaded source.
	Stop()
	// SetRate applies a playback-rate ratio, 1.0 = original tempo.
	SetRate(rate float64)
	// SetVolume applies a linear gain in [0,1].
	SetVolume(vol float64)
	// Position reports the current play position in track seconds.
	Position() float64
}

// TrackProvider supplies track metadata to the engine. Satisfied by
// repository.TrackRepository.
type TrackProvider interface {
	GetTrackByID(id int64) (*model.Track, error)
}

// SettingsProvider returns the current mix settings. The engine normalizes
// the snapshot itself, so a stale or out-of-bound row cannot break playback.
type SettingsProvider interface {
	Current() model.MixSettings
}

// deck pairs the loaded track with its mutable playback record. Both live
// exclusively inside the engine; the UI only ever sees DeckState copies.
type deck struct {
	track *model.Track
	state model.DeckState
}

func (d *deck) clear() {
	d.track = nil
	d.state = model.DeckState{PlaybackRate: 1, Volume: 1}
}

func (d *deck) loaded(t *model.Track, rate float64) {
	d.track = t
	d.state = model.DeckState{
		TrackID:      t.ID,
		Title:        t.Title,
		Artist:       t.Artist,
		Duration:     t.Duration,
		PlaybackRate: rate,
		Volume:       1,
	}
}
