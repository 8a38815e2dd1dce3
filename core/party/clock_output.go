package party

import (
	"context"
	"fmt"
	"sync"
	"time"

	"DeckFM/model"
)

// ClockOutput is a silent DeckOutput for headless deployments: it produces no
// audio and advances the play position by wall time scaled with the playback
// rate. The engine's scheduling behaves exactly as with a real speaker, so a
// server without an audio device can still drive the party feed.
type ClockOutput struct {
	mu      sync.Mutex
	loaded  bool
	playing bool
	pos     float64
	rate    float64
	lastAt  time.Time
}

func NewClockOutput() *ClockOutput {
	return &ClockOutput{rate: 1}
}

func (o *ClockOutput) Load(ctx context.Context, track *model.Track) error {
	if track == nil {
		return fmt.Errorf("no track to load")
	}
	o.mu.Lock()
	defer o.mu.Unlock()
	o.loaded = true
	o.playing = false
	o.pos = 0
	return nil
}

func (o *ClockOutput) Play(offsetSec float64) {
	o.mu.Lock()
	defer o.mu.Unlock()
	if !o.loaded {
		return
	}
	o.pos = offsetSec
	o.playing = true
	o.lastAt = time.Now()
}

func (o *ClockOutput) Pause() {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.advanceLocked()
	o.playing = false
}

func (o *ClockOutput) Resume() {
	o.mu.Lock()
	defer o.mu.Unlock()
	if !o.loaded {
		return
	}
	o.playing = true
	o.lastAt = time.Now()
}

func (o *ClockOutput) Stop() {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.loaded = false
	o.playing = false
	o.pos = 0
	o.rate = 1
}

func (o *ClockOutput) SetRate(rate float64) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.advanceLocked()
	if rate > 0 {
		o.rate = rate
	}
}

func (o *ClockOutput) SetVolume(vol float64) {}

func (o *ClockOutput) Position() float64 {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.advanceLocked()
	return o.pos
}

// advanceLocked folds elapsed wall time into the position. Caller holds mu.
func (o *ClockOutput) advanceLocked() {
	if !o.playing {
		return
	}
	now := time.Now()
	o.pos += now.Sub(o.lastAt).Seconds() * o.rate
	o.lastAt = now
}
