package party

import (
	"context"
	"errors"
	"testing"
	"time"

	"DeckFM/model"
)

// fakeOutput is a deterministic DeckOutput driven entirely by test code.
type fakeOutput struct {
	loaded    *model.Track
	playing   bool
	pos       float64
	rate      float64
	volume    float64
	playCalls int
	failLoad  map[int64]bool
}

func newFakeOutput() *fakeOutput {
	return &fakeOutput{rate: 1, volume: 1, failLoad: map[int64]bool{}}
}

func (f *fakeOutput) Load(_ context.Context, t *model.Track) error {
	if f.failLoad[t.ID] {
		return errors.New("decode failed")
	}
	f.loaded = t
	return nil
}

func (f *fakeOutput) Play(offset float64) { f.playing = true; f.pos = offset; f.playCalls++ }
func (f *fakeOutput) Pause()              { f.playing = false }
func (f *fakeOutput) Resume()             { f.playing = true }
func (f *fakeOutput) Stop()               { f.playing = false; f.loaded = nil; f.pos = 0 }
func (f *fakeOutput) SetRate(r float64)   { f.rate = r }
func (f *fakeOutput) SetVolume(v float64) { f.volume = v }
func (f *fakeOutput) Position() float64   { return f.pos }

// advance moves the fake playhead, like the host pipeline would.
func (f *fakeOutput) advance(sec float64) {
	if f.playing {
		f.pos += sec
	}
}

type fakeTracks struct {
	byID map[int64]*model.Track
}

func (f *fakeTracks) GetTrackByID(id int64) (*model.Track, error) {
	return f.byID[id], nil
}

type fixedSettings struct{ s model.MixSettings }

func (f *fixedSettings) Current() model.MixSettings { return f.s }

type harness struct {
	engine   *Engine
	outputs  [2]*fakeOutput
	tracks   *fakeTracks
	settings *fixedSettings
	events   []Event
	now      time.Time
}

func newHarness(t *testing.T, tracks []*model.Track, s model.MixSettings) *harness {
	t.Helper()
	h := &harness{
		outputs:  [2]*fakeOutput{newFakeOutput(), newFakeOutput()},
		tracks:   &fakeTracks{byID: map[int64]*model.Track{}},
		settings: &fixedSettings{s: s},
		now:      time.Unix(1000, 0),
	}
	var queue []int64
	for _, tr := range tracks {
		h.tracks.byID[tr.ID] = tr
		queue = append(queue, tr.ID)
	}
	h.engine = NewEngine(h.tracks, h.settings,
		[2]DeckOutput{h.outputs[0], h.outputs[1]},
		func(ev Event) { h.events = append(h.events, ev) })
	h.engine.SetQueue(queue, 0)
	return h
}

// run advances simulated time in fixed ticks.
func (h *harness) run(seconds float64, tick time.Duration) {
	steps := int(seconds / tick.Seconds())
	for i := 0; i < steps; i++ {
		h.now = h.now.Add(tick)
		h.outputs[0].advance(tick.Seconds())
		h.outputs[1].advance(tick.Seconds())
		h.engine.Tick(context.Background(), h.now)
	}
}

func testSettings() model.MixSettings {
	s := model.DefaultMixSettings()
	s.NextSongStartOffset = 0
	s.EndEarlySeconds = 0
	s.CrossfadeSeconds = 4
	s.TempoMode = model.TempoModeOriginal
	return s
}

func track(id int64, duration, bpm float64) *model.Track {
	return &model.Track{
		ID:       id,
		Title:    "t",
		Duration: duration,
		BPM:      bpm,
		Status:   model.TrackStatusReady,
	}
}

func TestEngineFullQueueRunsToIdle(t *testing.T) {
	h := newHarness(t, []*model.Track{
		track(1, 60, 120),
		track(2, 60, 120),
		track(3, 60, 120),
	}, testSettings())

	if err := h.engine.Play(context.Background()); err != nil {
		t.Fatalf("Play: %v", err)
	}
	if st := h.engine.Status(); st.State != StatePlaying || st.ActiveDeck != "A" {
		t.Fatalf("unexpected start state: %+v", st)
	}

	// Three 60s tracks with two 4s overlaps finish well within 200s.
	h.run(200, 250*time.Millisecond)

	st := h.engine.Status()
	if st.State != StateIdle {
		t.Fatalf("engine should be idle after the last track, got %s", st.State)
	}
	if h.outputs[0].playing || h.outputs[1].playing {
		t.Error("both outputs must be stopped at the end of the queue")
	}

	var started, finished int
	for _, ev := range h.events {
		switch ev.Type {
		case EventTrackStarted:
			started++
		case EventQueueFinished:
			finished++
		}
	}
	if started != 3 {
		t.Errorf("track_started events = %d, want 3", started)
	}
	if finished != 1 {
		t.Errorf("queue_finished events = %d, want 1", finished)
	}
}

func TestEngineLoopWrapsToFirstTrack(t *testing.T) {
	s := testSettings()
	s.LoopPlaylist = true
	h := newHarness(t, []*model.Track{track(1, 60, 120), track(2, 60, 120)}, s)

	if err := h.engine.Play(context.Background()); err != nil {
		t.Fatalf("Play: %v", err)
	}
	// Enough to play track 1, fade to 2, and fade back to 1.
	h.run(125, 250*time.Millisecond)

	st := h.engine.Status()
	if st.State == StateIdle {
		t.Fatal("looping queue must never go idle on its own")
	}
	if st.NowPlayingIndex != 0 {
		t.Errorf("nowPlayingIndex = %d, want wrap to 0", st.NowPlayingIndex)
	}
}

func TestEngineTickIdempotentDuringCrossfade(t *testing.T) {
	h := newHarness(t, []*model.Track{track(1, 60, 120), track(2, 60, 120)}, testSettings())
	if err := h.engine.Play(context.Background()); err != nil {
		t.Fatalf("Play: %v", err)
	}

	// Run until the crossfade is underway.
	h.run(57, 250*time.Millisecond)
	st := h.engine.Status()
	if st.State != StateCrossfading {
		t.Fatalf("expected crossfading at 57s, got %s", st.State)
	}
	playCallsBefore := h.outputs[1].playCalls
	indexBefore := st.NowPlayingIndex

	// Hammer the transition check without advancing playback.
	for i := 0; i < 50; i++ {
		h.engine.Tick(context.Background(), h.now)
	}

	st = h.engine.Status()
	if st.State != StateCrossfading {
		t.Fatalf("repeated ticks must not leave crossfading early, got %s", st.State)
	}
	if h.outputs[1].playCalls != playCallsBefore {
		t.Errorf("incoming deck restarted by a repeated tick: %d -> %d", playCallsBefore, h.outputs[1].playCalls)
	}
	if st.NowPlayingIndex != indexBefore {
		t.Errorf("nowPlayingIndex advanced during the fade: %d -> %d", indexBefore, st.NowPlayingIndex)
	}
}

func TestEngineCrossfadeRampAndCommit(t *testing.T) {
	h := newHarness(t, []*model.Track{track(1, 60, 120), track(2, 60, 120)}, testSettings())
	if err := h.engine.Play(context.Background()); err != nil {
		t.Fatalf("Play: %v", err)
	}

	h.run(58, 250*time.Millisecond)
	st := h.engine.Status()
	if st.State != StateCrossfading {
		t.Fatalf("expected crossfading, got %s", st.State)
	}
	// Mid-fade: volumes ramp in opposite directions.
	if h.outputs[0].volume >= 1 || h.outputs[1].volume <= 0 {
		t.Errorf("volumes not ramping: out=%v in=%v", h.outputs[0].volume, h.outputs[1].volume)
	}
	if sum := h.outputs[0].volume + h.outputs[1].volume; sum < 0.99 || sum > 1.01 {
		t.Errorf("linear ramp should be complementary, sum=%v", sum)
	}

	h.run(5, 250*time.Millisecond)
	st = h.engine.Status()
	if st.State != StatePlaying {
		t.Fatalf("fade should have committed, got %s", st.State)
	}
	if st.ActiveDeck != "B" {
		t.Errorf("active deck should flip to B, got %s", st.ActiveDeck)
	}
	if h.outputs[0].playing {
		t.Error("outgoing deck must be stopped after the commit")
	}
	if h.outputs[1].volume != 1 {
		t.Errorf("incoming deck volume should settle at 1, got %v", h.outputs[1].volume)
	}
}

func TestEngineSkipsUnloadableTrack(t *testing.T) {
	h := newHarness(t, []*model.Track{
		track(1, 60, 120),
		track(2, 60, 120), // will fail to load
		track(3, 60, 120),
	}, testSettings())
	h.outputs[1].failLoad[2] = true

	if err := h.engine.Play(context.Background()); err != nil {
		t.Fatalf("Play: %v", err)
	}
	h.run(58, 250*time.Millisecond)

	st := h.engine.Status()
	if st.State != StateCrossfading {
		t.Fatalf("expected crossfading into track 3, got %s", st.State)
	}
	if h.outputs[1].loaded == nil || h.outputs[1].loaded.ID != 3 {
		t.Fatalf("idle deck should hold track 3, got %+v", h.outputs[1].loaded)
	}

	var skipped []int64
	for _, ev := range h.events {
		if ev.Type == EventTrackSkipped {
			skipped = append(skipped, ev.TrackID)
		}
	}
	if len(skipped) != 1 || skipped[0] != 2 {
		t.Errorf("skipped = %v, want [2]", skipped)
	}
}

func TestEngineAutoTempoMatchAndOverCapFallback(t *testing.T) {
	s := testSettings()
	s.TempoMode = model.TempoModeAuto
	s.MaxTempoPercent = 8

	// 124 -> 128 is a 3.2% shift, within the cap.
	h := newHarness(t, []*model.Track{track(1, 60, 128), track(2, 60, 124)}, s)
	if err := h.engine.Play(context.Background()); err != nil {
		t.Fatalf("Play: %v", err)
	}
	h.run(58, 250*time.Millisecond)

	wantRate := 128.0 / 124.0
	if got := h.outputs[1].rate; got < wantRate-1e-9 || got > wantRate+1e-9 {
		t.Errorf("incoming rate = %v, want %v", got, wantRate)
	}
	st := h.engine.Status()
	if st.Decision == nil || !st.Decision.WillTempoMatch || st.Decision.OverCap {
		t.Errorf("unexpected tempo decision: %+v", st.Decision)
	}

	// 90 -> 128 needs 42%: over the cap, incoming plays at its original rate.
	h2 := newHarness(t, []*model.Track{track(1, 60, 128), track(2, 60, 90)}, s)
	if err := h2.engine.Play(context.Background()); err != nil {
		t.Fatalf("Play: %v", err)
	}
	h2.run(58, 250*time.Millisecond)

	if got := h2.outputs[1].rate; got != 1 {
		t.Errorf("over-cap transition must fall back to rate 1, got %v", got)
	}
	st2 := h2.engine.Status()
	if st2.Decision == nil || !st2.Decision.OverCap || st2.Decision.WillTempoMatch {
		t.Errorf("unexpected over-cap decision: %+v", st2.Decision)
	}
}

func TestEngineStartOffsetClamped(t *testing.T) {
	s := testSettings()
	s.NextSongStartOffset = 55 // next track is 100s: dynamic max is 25s
	h := newHarness(t, []*model.Track{track(1, 60, 120), track(2, 100, 120)}, s)

	if err := h.engine.Play(context.Background()); err != nil {
		t.Fatalf("Play: %v", err)
	}
	// Track 1 itself starts at its clamped offset (60s track: max 15s), so it
	// hits the fade trigger at 56s around 41s of wall time.
	if got := h.outputs[0].pos; got != 15 {
		t.Fatalf("first track start position = %v, want clamp to 15", got)
	}
	h.run(42, 250*time.Millisecond)

	if h.engine.Status().State != StateCrossfading {
		t.Fatalf("expected crossfading, got %s", h.engine.Status().State)
	}
	// Incoming deck started at the clamped offset, not the raw 55s.
	if got := h.outputs[1].pos; got < 24.5 || got > 27 {
		t.Errorf("incoming start position = %v, want ~25", got)
	}
}

func TestEngineStopMidFadeResetsBothDecks(t *testing.T) {
	h := newHarness(t, []*model.Track{track(1, 60, 120), track(2, 60, 120)}, testSettings())
	if err := h.engine.Play(context.Background()); err != nil {
		t.Fatalf("Play: %v", err)
	}
	h.run(58, 250*time.Millisecond)
	if h.engine.Status().State != StateCrossfading {
		t.Fatalf("expected crossfading, got %s", h.engine.Status().State)
	}

	h.engine.Stop()

	st := h.engine.Status()
	if st.State != StateIdle {
		t.Fatalf("stop mid-fade must land in idle, got %s", st.State)
	}
	for i, out := range h.outputs {
		if out.playing {
			t.Errorf("deck %d still playing after stop", i)
		}
		if out.volume != 1 {
			t.Errorf("deck %d volume not reset, got %v", i, out.volume)
		}
	}
	if st.Decks[0].TrackID != 0 || st.Decks[1].TrackID != 0 {
		t.Error("decks must be cleared after stop")
	}
}

func TestEngineSkipCommand(t *testing.T) {
	h := newHarness(t, []*model.Track{track(1, 60, 120), track(2, 60, 120)}, testSettings())
	if err := h.engine.Play(context.Background()); err != nil {
		t.Fatalf("Play: %v", err)
	}
	h.run(5, 250*time.Millisecond)

	h.engine.Skip(context.Background(), h.now)
	st := h.engine.Status()
	if st.State != StateCrossfading {
		t.Fatalf("skip should begin a crossfade, got %s", st.State)
	}
	if h.outputs[1].loaded == nil || h.outputs[1].loaded.ID != 2 {
		t.Fatalf("skip should have prepared track 2")
	}

	// Skipping again mid-fade jumps to the commit point.
	h.engine.Skip(context.Background(), h.now)
	st = h.engine.Status()
	if st.State != StatePlaying || st.ActiveDeck != "B" {
		t.Fatalf("second skip should commit the fade: %+v", st)
	}

	// Skipping past the last track with loop off ends the party.
	h.engine.Skip(context.Background(), h.now)
	if st := h.engine.Status(); st.State != StateIdle {
		t.Fatalf("skip past the end should go idle, got %s", st.State)
	}
}

func TestEnginePauseFreezesTransitions(t *testing.T) {
	h := newHarness(t, []*model.Track{track(1, 60, 120), track(2, 60, 120)}, testSettings())
	if err := h.engine.Play(context.Background()); err != nil {
		t.Fatalf("Play: %v", err)
	}
	h.run(10, 250*time.Millisecond)

	h.engine.Pause()
	if h.outputs[0].playing {
		t.Error("pause must stop the active output")
	}
	// Ticks while paused change nothing, however much wall time passes.
	for i := 0; i < 400; i++ {
		h.now = h.now.Add(250 * time.Millisecond)
		h.engine.Tick(context.Background(), h.now)
	}
	if st := h.engine.Status(); st.State != StatePlaying || st.Paused != true {
		t.Fatalf("paused engine drifted: %+v", st)
	}

	if err := h.engine.Play(context.Background()); err != nil {
		t.Fatalf("resume: %v", err)
	}
	if !h.outputs[0].playing {
		t.Error("resume must restart the active output")
	}
}

func TestEngineSkipWhilePausedMidCrossfade(t *testing.T) {
	h := newHarness(t, []*model.Track{
		track(1, 60, 120),
		track(2, 60, 120),
		track(3, 60, 120),
	}, testSettings())
	if err := h.engine.Play(context.Background()); err != nil {
		t.Fatalf("Play: %v", err)
	}
	h.run(58, 250*time.Millisecond)
	if h.engine.Status().State != StateCrossfading {
		t.Fatalf("expected crossfading, got %s", h.engine.Status().State)
	}

	h.engine.Pause()
	h.engine.Skip(context.Background(), h.now)

	st := h.engine.Status()
	if st.State != StatePlaying || st.Paused {
		t.Fatalf("skip while paused should land in playing: %+v", st)
	}
	if !h.outputs[1].playing {
		t.Fatal("surviving deck output must be playing after the skip")
	}

	// The playhead must keep moving; a deck left paused would freeze here.
	posBefore := h.outputs[1].pos
	h.run(10, 250*time.Millisecond)
	if got := h.outputs[1].pos; got <= posBefore {
		t.Errorf("playhead frozen after skip: %v -> %v", posBefore, got)
	}
	if got := h.engine.Status().Decks[1].CurrentTime; got <= posBefore {
		t.Errorf("deck position not advancing after skip: %v", got)
	}
}

func TestEngineLoopEnabledOnFinalTrack(t *testing.T) {
	h := newHarness(t, []*model.Track{track(1, 60, 120), track(2, 60, 120)}, testSettings())
	if err := h.engine.Play(context.Background()); err != nil {
		t.Fatalf("Play: %v", err)
	}
	// Deep into track 2 with loop off: there is nothing left to prepare.
	h.run(110, 250*time.Millisecond)
	st := h.engine.Status()
	if st.State != StatePlaying || st.NowPlayingIndex != 1 {
		t.Fatalf("expected track 2 playing, got %+v", st)
	}

	// Flipping loop on while the final track plays must still wrap.
	h.settings.s.LoopPlaylist = true
	h.run(20, 250*time.Millisecond)

	st = h.engine.Status()
	if st.State == StateIdle {
		t.Fatal("queue went idle despite looping being enabled")
	}
	if st.NowPlayingIndex != 0 {
		t.Errorf("nowPlayingIndex = %d, want wrap to 0", st.NowPlayingIndex)
	}
	if h.outputs[0].loaded == nil || h.outputs[0].loaded.ID != 1 {
		t.Errorf("deck A should hold track 1 after the wrap, got %+v", h.outputs[0].loaded)
	}
}

func TestEnginePausedTimeExcludedFromFade(t *testing.T) {
	h := newHarness(t, []*model.Track{track(1, 60, 120), track(2, 60, 120)}, testSettings())
	if err := h.engine.Play(context.Background()); err != nil {
		t.Fatalf("Play: %v", err)
	}
	// One second into the 4s fade.
	h.run(57, 250*time.Millisecond)
	if h.engine.Status().State != StateCrossfading {
		t.Fatalf("expected crossfading, got %s", h.engine.Status().State)
	}

	h.engine.Pause()
	// A long paused stretch with the tick loop still running.
	for i := 0; i < 200; i++ {
		h.now = h.now.Add(250 * time.Millisecond)
		h.engine.Tick(context.Background(), h.now)
	}
	if err := h.engine.Play(context.Background()); err != nil {
		t.Fatalf("resume: %v", err)
	}

	// One more second of fade: the ramp resumes where it left off instead of
	// committing instantly.
	h.run(1, 250*time.Millisecond)
	st := h.engine.Status()
	if st.State != StateCrossfading {
		t.Fatalf("fade should still be running after resume, got %s", st.State)
	}
	if got := h.outputs[0].volume; got < 0.4 || got > 0.6 {
		t.Errorf("outgoing volume = %v, want ~0.5 two fade-seconds in", got)
	}

	// The remaining window still completes normally.
	h.run(4, 250*time.Millisecond)
	if st := h.engine.Status(); st.State != StatePlaying || st.ActiveDeck != "B" {
		t.Fatalf("fade should have committed after its full window: %+v", st)
	}
}

func TestEnginePlayOnEmptyQueue(t *testing.T) {
	h := newHarness(t, nil, testSettings())
	if err := h.engine.Play(context.Background()); err != ErrEmptyQueue {
		t.Fatalf("err = %v, want ErrEmptyQueue", err)
	}
}
