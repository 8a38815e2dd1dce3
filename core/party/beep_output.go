package party

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"math"
	"sync"
	"time"

	"github.com/gopxl/beep"
	"github.com/gopxl/beep/effects"
	beepmp3 "github.com/gopxl/beep/mp3"
	"github.com/gopxl/beep/speaker"

	"DeckFM/model"
)

// ObjectFetcher opens the original audio object for a track, usually backed
// by MinIO.
type ObjectFetcher func(ctx context.Context, objectPath string) (io.ReadCloser, error)

// InitSpeaker opens the host audio device once and returns the shared mixer
// both deck outputs play through.
func InitSpeaker(sr beep.SampleRate) (*beep.Mixer, error) {
	if err := speaker.Init(sr, sr.N(100*time.Millisecond)); err != nil {
		return nil, fmt.Errorf("speaker init failed: %w", err)
	}
	mixer := &beep.Mixer{}
	speaker.Play(mixer)
	return mixer, nil
}

// BeepOutput drives one deck through the beep speaker. The streamer chain is
// seekable source -> rate resampler -> pause ctrl -> volume, mirroring the
// knobs DeckOutput exposes.
type BeepOutput struct {
	fetch       ObjectFetcher
	mixer       *beep.Mixer
	speakerRate beep.SampleRate

	mu        sync.Mutex
	stream    beep.StreamSeekCloser
	format    beep.Format
	resampler *beep.Resampler
	ctrl      *beep.Ctrl
	volume    *effects.Volume
	rate      float64
}

// NewBeepOutput creates a deck output on the shared mixer.
func NewBeepOutput(fetch ObjectFetcher, mixer *beep.Mixer, speakerRate beep.SampleRate) *BeepOutput {
	return &BeepOutput{fetch: fetch, mixer: mixer, speakerRate: speakerRate, rate: 1}
}

// Load fetches and decodes the track's audio object. The object is buffered
// in memory so the MP3 streamer can seek for the start-offset jump.
func (o *BeepOutput) Load(ctx context.Context, track *model.Track) error {
	rc, err := o.fetch(ctx, track.ObjectPath)
	if err != nil {
		return fmt.Errorf("fetch %s: %w", track.ObjectPath, err)
	}
	data, err := io.ReadAll(rc)
	rc.Close()
	if err != nil {
		return fmt.Errorf("read %s: %w", track.ObjectPath, err)
	}

	stream, format, err := beepmp3.Decode(nopCloser{bytes.NewReader(data)})
	if err != nil {
		return fmt.Errorf("decode %s: %w", track.ObjectPath, err)
	}

	o.mu.Lock()
	defer o.mu.Unlock()
	o.dropLocked()

	o.stream = stream
	o.format = format
	o.rate = 1
	// The resampler does double duty: file rate -> device rate conversion and
	// the tempo-shift knob, folded into one ratio.
	o.resampler = beep.ResampleRatio(4, o.ratioLocked(), stream)
	o.ctrl = &beep.Ctrl{Streamer: o.resampler, Paused: true}
	o.volume = &effects.Volume{Streamer: o.ctrl, Base: 2, Volume: 0, Silent: false}

	speaker.Lock()
	o.mixer.Add(o.volume)
	speaker.Unlock()
	return nil
}

func (o *BeepOutput) Play(offsetSec float64) {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.stream == nil {
		return
	}
	pos := o.format.SampleRate.N(time.Duration(offsetSec * float64(time.Second)))
	speaker.Lock()
	// A failed seek is not fatal: the track just plays from the top.
	_ = o.stream.Seek(pos)
	o.ctrl.Paused = false
	speaker.Unlock()
}

func (o *BeepOutput) Pause() {
	o.setPaused(true)
}

func (o *BeepOutput) Resume() {
	o.setPaused(false)
}

func (o *BeepOutput) setPaused(paused bool) {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.ctrl == nil {
		return
	}
	speaker.Lock()
	o.ctrl.Paused = paused
	speaker.Unlock()
}

// Stop detaches the streamer chain; the mixer drops a drained streamer on its
// own once Ctrl loses its source.
func (o *BeepOutput) Stop() {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.dropLocked()
}

func (o *BeepOutput) SetRate(rate float64) {
	o.mu.Lock()
	defer o.mu.Unlock()
	if rate <= 0 {
		rate = 1
	}
	o.rate = rate
	if o.resampler == nil {
		return
	}
	speaker.Lock()
	o.resampler.SetRatio(o.ratioLocked())
	speaker.Unlock()
}

func (o *BeepOutput) SetVolume(vol float64) {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.volume == nil {
		return
	}
	speaker.Lock()
	if vol <= 0.001 {
		o.volume.Silent = true
	} else {
		o.volume.Silent = false
		// effects.Volume is exponential (Base**Volume); invert for linear gain.
		o.volume.Volume = math.Log2(vol)
	}
	speaker.Unlock()
}

func (o *BeepOutput) Position() float64 {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.stream == nil {
		return 0
	}
	speaker.Lock()
	pos := o.stream.Position()
	speaker.Unlock()
	return float64(pos) / float64(o.format.SampleRate)
}

func (o *BeepOutput) ratioLocked() float64 {
	return float64(o.format.SampleRate) / float64(o.speakerRate) * o.rate
}

func (o *BeepOutput) dropLocked() {
	if o.ctrl != nil {
		speaker.Lock()
		o.ctrl.Paused = true
		o.ctrl.Streamer = nil
		speaker.Unlock()
	}
	if o.stream != nil {
		o.stream.Close()
	}
	o.stream = nil
	o.resampler = nil
	o.ctrl = nil
	o.volume = nil
}

type nopCloser struct{ *bytes.Reader }

func (nopCloser) Close() error { return nil }
