package party

import (
	"context"
	"errors"
	"math"
	"sync"
	"time"

	"DeckFM/core/tempo"
	"DeckFM/logger"
	"DeckFM/model"
)

// State is the engine's continuous-playback phase.
type State string

const (
	StateIdle          State = "idle"
	StatePlaying       State = "playing"
	StatePreparingNext State = "preparing_next"
	StateCrossfading   State = "crossfading"
)

// The idle deck is prepared this many seconds before the crossfade trigger,
// giving the loader headroom without pinning decoded buffers early.
const prepareLeadSec = 10.0

var (
	ErrEmptyQueue      = errors.New("party queue is empty")
	ErrNoPlayableTrack = errors.New("no playable track in queue")
)

// Event types surfaced to clients on the websocket feed.
const (
	EventTrackStarted  = "track_started"
	EventTrackSkipped  = "track_skipped"
	EventQueueFinished = "queue_finished"
)

// Event is an engine notification. Handlers are called with the engine lock
// held and must not call back into it; the websocket hub just forwards them.
type Event struct {
	Type    string `json:"type"`
	TrackID int64  `json:"trackId,omitempty"`
	Message string `json:"message,omitempty"`
}

// Status is a read-only snapshot for the API and websocket feed.
type Status struct {
	State           State                `json:"state"`
	ActiveDeck      string               `json:"activeDeck"`
	Paused          bool                 `json:"paused"`
	Decks           [2]model.DeckState   `json:"decks"`
	Queue           []int64              `json:"queue"`
	NowPlayingIndex int                  `json:"nowPlayingIndex"`
	Decision        *model.TempoDecision `json:"tempoDecision,omitempty"`
}

// Engine owns both decks, the active-deck pointer and the transition state
// machine. All mutation goes through its command methods (Play, Pause, Skip,
// Stop, SetQueue, Tick); nothing else ever touches deck state. The active
// pointer only flips at one commit point, the end of a crossfade.
type Engine struct {
	mu       sync.Mutex
	tracks   TrackProvider
	settings SettingsProvider
	outputs  [2]DeckOutput
	events   func(Event)

	decks      [2]deck
	active     model.DeckID
	state      State
	paused     bool
	queue      []int64
	nowPlaying int
	nextIndex  int // queue index loaded on the idle deck while preparing
	endOfQueue bool
	decision   *model.TempoDecision

	fadeProgress float64
	fadeTickAt   time.Time
	fadeSec      float64
}

// NewEngine wires an engine over two deck outputs. events may be nil.
func NewEngine(tracks TrackProvider, settings SettingsProvider, outputs [2]DeckOutput, events func(Event)) *Engine {
	e := &Engine{
		tracks:   tracks,
		settings: settings,
		outputs:  outputs,
		events:   events,
		state:    StateIdle,
	}
	e.decks[0].clear()
	e.decks[1].clear()
	return e
}

// SetQueue replaces the party queue. Any running playback is stopped first.
func (e *Engine) SetQueue(ids []int64, startIndex int) {
	e.mu.Lock()
	defer e.mu.Unlock()

	e.stopLocked()
	e.queue = append([]int64(nil), ids...)
	if startIndex < 0 || startIndex >= len(e.queue) {
		startIndex = 0
	}
	e.nowPlaying = startIndex
}

// Play starts playback from the queue position, or resumes after a pause.
func (e *Engine) Play(ctx context.Context) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.state != StateIdle {
		if e.paused {
			e.resumeLocked()
		}
		return nil
	}

	if len(e.queue) == 0 {
		return ErrEmptyQueue
	}

	s := e.currentSettings()
	idx, ok := e.loadPlayable(ctx, e.active, e.nowPlaying, s, true)
	if !ok {
		return ErrNoPlayableTrack
	}
	e.nowPlaying = idx

	d := &e.decks[e.active]
	offset := clampStartOffset(s.NextSongStartOffset, d.track.Duration)
	e.outputs[e.active].SetVolume(1)
	e.outputs[e.active].Play(offset)
	d.state.CurrentTime = offset
	d.state.IsPlaying = true
	e.state = StatePlaying
	e.emit(Event{Type: EventTrackStarted, TrackID: d.track.ID})
	return nil
}

// Pause freezes playback without losing any deck state.
func (e *Engine) Pause() {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.state == StateIdle || e.paused {
		return
	}
	e.paused = true
	for i := range e.outputs {
		if e.decks[i].state.IsPlaying {
			e.outputs[i].Pause()
			e.decks[i].state.IsPlaying = false
		}
	}
}

// Skip forces the next transition. During a crossfade it jumps straight to
// the commit point; otherwise it prepares the next track and fades into it.
func (e *Engine) Skip(ctx context.Context, now time.Time) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.paused {
		e.resumeLocked()
	}
	switch e.state {
	case StateIdle:
	case StateCrossfading:
		e.commitCrossfade()
	case StatePlaying, StatePreparingNext:
		s := e.currentSettings()
		if e.state == StatePlaying {
			e.prepareNext(ctx, s)
		}
		if e.state == StatePreparingNext {
			e.beginCrossfade(now, s)
		} else {
			// Nothing left to play.
			e.stopLocked()
			e.emit(Event{Type: EventQueueFinished})
		}
	}
}

// Stop halts both decks and resets volumes as a single state transition, so a
// cancelled mid-fade never leaves a deck half-audible.
func (e *Engine) Stop() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.stopLocked()
}

// Tick is the scheduler heartbeat, driven by the host's time-update loop. It
// is idempotent: re-evaluating while already preparing or crossfading never
// double-triggers a transition, so tick jitter is harmless.
func (e *Engine) Tick(ctx context.Context, now time.Time) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.state == StateIdle || e.paused {
		if e.state == StateCrossfading {
			// Paused wall time must not count toward the fade window.
			e.fadeTickAt = now
		}
		return
	}
	e.syncPositions()
	s := e.currentSettings()

	switch e.state {
	case StatePlaying:
		if e.endOfQueue && s.LoopPlaylist {
			// Looping was switched on after the end latched: re-evaluate.
			e.endOfQueue = false
		}
		if !e.endOfQueue && e.remaining(s) <= s.CrossfadeSeconds+prepareLeadSec {
			e.prepareNext(ctx, s)
		}
		e.checkTransition(now, s)
	case StatePreparingNext:
		e.checkTransition(now, s)
	case StateCrossfading:
		e.advanceFade(now)
	}
}

// Status returns a consistent snapshot for display.
func (e *Engine) Status() Status {
	e.mu.Lock()
	defer e.mu.Unlock()

	var decision *model.TempoDecision
	if e.decision != nil {
		d := *e.decision
		decision = &d
	}
	return Status{
		State:           e.state,
		ActiveDeck:      e.active.String(),
		Paused:          e.paused,
		Decks:           [2]model.DeckState{e.decks[0].state, e.decks[1].state},
		Queue:           append([]int64(nil), e.queue...),
		NowPlayingIndex: e.nowPlaying,
		Decision:        decision,
	}
}

// --- internals, all called with e.mu held ---

func (e *Engine) currentSettings() model.MixSettings {
	s := e.settings.Current()
	s.Normalize()
	return s
}

// resumeLocked restarts whatever a pause froze. During a crossfade both decks
// are audible, so both come back.
func (e *Engine) resumeLocked() {
	e.paused = false
	e.outputs[e.active].Resume()
	e.decks[e.active].state.IsPlaying = true
	if e.state == StateCrossfading {
		e.outputs[e.active.Other()].Resume()
		e.decks[e.active.Other()].state.IsPlaying = true
	}
}

func (e *Engine) emit(ev Event) {
	if e.events != nil {
		e.events(ev)
	}
}

func (e *Engine) syncPositions() {
	for i := range e.decks {
		if e.decks[i].state.IsPlaying {
			e.decks[i].state.CurrentTime = e.outputs[i].Position()
		}
	}
}

// remaining is the time left before the active track's fade-out point.
func (e *Engine) remaining(s model.MixSettings) float64 {
	d := &e.decks[e.active]
	if d.track == nil {
		return 0
	}
	end := d.track.EffectiveEnd() - s.EndEarlySeconds
	return end - d.state.CurrentTime
}

// checkTransition starts the crossfade once the active deck crosses the
// trigger line, or winds the party down when the queue is exhausted.
func (e *Engine) checkTransition(now time.Time, s model.MixSettings) {
	rem := e.remaining(s)
	if e.state == StatePreparingNext && rem <= s.CrossfadeSeconds {
		e.beginCrossfade(now, s)
		return
	}
	if e.endOfQueue && rem <= 0 {
		// Last track ran to its effective end: no crossfade into silence.
		e.stopLocked()
		e.emit(Event{Type: EventQueueFinished})
	}
}

// prepareNext loads the upcoming track into the idle deck and computes its
// playback rate. Unloadable tracks are skipped with a notification; the
// engine keeps walking the queue so a single bad file never stalls playback.
func (e *Engine) prepareNext(ctx context.Context, s model.MixSettings) {
	next := e.nowPlaying + 1
	if next >= len(e.queue) {
		if !s.LoopPlaylist {
			e.endOfQueue = true
			return
		}
		next = 0
	}

	idx, ok := e.loadPlayable(ctx, e.active.Other(), next, s, s.LoopPlaylist)
	if !ok {
		e.endOfQueue = true
		return
	}
	e.nextIndex = idx
	e.state = StatePreparingNext
}

// loadPlayable walks the queue from startIdx looking for a track that loads,
// placing it paused on deck d with its resolved rate. wrap allows the search
// to continue from index 0. Returns the queue index that stuck.
func (e *Engine) loadPlayable(ctx context.Context, d model.DeckID, startIdx int, s model.MixSettings, wrap bool) (int, bool) {
	if len(e.queue) == 0 {
		return 0, false
	}

	idx := startIdx
	for attempts := 0; attempts < len(e.queue); attempts++ {
		if idx >= len(e.queue) {
			if !wrap {
				break
			}
			idx = 0
		}

		id := e.queue[idx]
		track, err := e.tracks.GetTrackByID(id)
		if err != nil || track == nil {
			logger.Warn("queue references unknown track, skipping",
				logger.Int64("trackId", id), logger.ErrorField(err))
			e.emit(Event{Type: EventTrackSkipped, TrackID: id, Message: "track not found"})
			idx++
			continue
		}

		if err := e.outputs[d].Load(ctx, track); err != nil {
			logger.Warn("track failed to load, skipping",
				logger.Int64("trackId", id), logger.ErrorField(err))
			e.emit(Event{Type: EventTrackSkipped, TrackID: id, Message: "audio source failed to load"})
			idx++
			continue
		}

		rate, decision := e.resolveRate(track, s)
		e.outputs[d].SetRate(rate)
		e.decks[d].loaded(track, rate)
		e.decision = decision
		return idx, true
	}
	return 0, false
}

// resolveRate picks the incoming track's playback rate per the tempo mode.
// Over-cap never silently exceeds the bound: the track simply plays at its
// original tempo.
func (e *Engine) resolveRate(next *model.Track, s model.MixSettings) (float64, *model.TempoDecision) {
	switch s.TempoMode {
	case model.TempoModeOriginal:
		return 1, nil

	case model.TempoModeLocked:
		pt := tempo.ComputePresetTempo(next.BPM, tempo.ParsePreset(s.LockedPreset))
		ratio := pt.Ratio
		if !s.TempoControlEnabled {
			ratio = 1
		}
		shiftPct := math.Abs(ratio-1) * 100
		return ratio, &model.TempoDecision{
			RequiredShiftPct: shiftPct,
			Interpretation:   string(tempo.InterpNormal),
			Zone:             string(tempo.ComputeTempoMatchZone(shiftPct)),
			WillTempoMatch:   ratio != 1,
			Variant:          string(tempo.VariantUnderCap),
			AppliedRate:      ratio,
		}

	default: // auto
		var targetBPM float64
		if cur := &e.decks[e.active]; cur.track != nil {
			// The felt tempo of what is playing now: stored BPM scaled by the
			// rate the deck is actually running at.
			targetBPM = cur.track.BPM * cur.state.PlaybackRate
		}
		if targetBPM <= 0 {
			// Nothing audible to match against (party start, or the current
			// track has no BPM): play as recorded.
			return 1, nil
		}
		info := tempo.ComputeTempoShiftInfo(next.BPM, targetBPM)
		capDec := tempo.GetTempoCapDecision(tempo.CapInput{
			TempoControlEnabled: s.TempoControlEnabled,
			Mode:                string(model.TempoModeAuto),
			RequiredShiftPct:    info.RequiredShiftPct,
			RawMaxTempoPercent:  s.MaxTempoPercent,
		})

		rate := 1.0
		if capDec.WillTempoMatch && !math.IsInf(info.RequiredShiftPct, 1) {
			rate = info.IdealRatio
		}
		return rate, &model.TempoDecision{
			RequiredShiftPct: info.RequiredShiftPct,
			Interpretation:   string(info.Interpretation),
			Zone:             string(tempo.ComputeTempoMatchZone(info.RequiredShiftPct)),
			CapPctUsed:       capDec.CapPctUsed,
			OverCap:          capDec.OverCap,
			NearCap:          capDec.NearCap,
			WillTempoMatch:   capDec.WillTempoMatch && rate != 1,
			Variant:          string(capDec.Variant),
			AppliedRate:      rate,
		}
	}
}

// beginCrossfade starts the incoming deck at its configured offset and opens
// the volume ramp window.
func (e *Engine) beginCrossfade(now time.Time, s model.MixSettings) {
	in := e.active.Other()
	d := &e.decks[in]
	if d.track == nil {
		return
	}

	offset := clampStartOffset(s.NextSongStartOffset, d.track.Duration)
	e.outputs[in].SetVolume(0)
	d.state.Volume = 0
	e.outputs[in].Play(offset)
	d.state.CurrentTime = offset
	d.state.IsPlaying = true

	e.fadeProgress = 0
	e.fadeTickAt = now
	e.fadeSec = s.CrossfadeSeconds
	e.state = StateCrossfading
	logger.Info("crossfade started",
		logger.Int64("incomingTrackId", d.track.ID),
		logger.Float64("startOffset", offset),
		logger.Float64("crossfadeSeconds", e.fadeSec),
	)
}

// advanceFade linearly ramps the two decks in opposite directions and commits
// the flip once the window elapses.
func (e *Engine) advanceFade(now time.Time) {
	if d := now.Sub(e.fadeTickAt).Seconds(); d > 0 {
		e.fadeProgress += d / e.fadeSec
	}
	e.fadeTickAt = now
	if e.fadeProgress >= 1 {
		e.commitCrossfade()
		return
	}

	progress := e.fadeProgress
	out, in := e.active, e.active.Other()
	e.outputs[out].SetVolume(1 - progress)
	e.decks[out].state.Volume = 1 - progress
	e.outputs[in].SetVolume(progress)
	e.decks[in].state.Volume = progress
}

// commitCrossfade is the single point where the active pointer flips.
func (e *Engine) commitCrossfade() {
	out := e.active
	e.outputs[out].Stop()
	e.decks[out].clear()

	e.active = out.Other()
	e.outputs[e.active].SetVolume(1)
	e.decks[e.active].state.Volume = 1
	e.nowPlaying = e.nextIndex
	e.state = StatePlaying
	e.emit(Event{Type: EventTrackStarted, TrackID: e.decks[e.active].state.TrackID})
}

func (e *Engine) stopLocked() {
	for i := range e.outputs {
		e.outputs[i].Stop()
		e.outputs[i].SetVolume(1)
	}
	e.decks[0].clear()
	e.decks[1].clear()
	e.state = StateIdle
	e.paused = false
	e.endOfQueue = false
	e.decision = nil
}

func clampStartOffset(offset, trackDuration float64) float64 {
	max := model.MaxStartOffsetFor(trackDuration)
	if offset < 0 {
		return 0
	}
	if offset > max {
		return max
	}
	return offset
}
