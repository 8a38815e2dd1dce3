package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"DeckFM/cache"
	"DeckFM/core/party"
	"DeckFM/logger"
)

// GetQueueHandler returns the party queue with the now-playing position.
func (h *APIHandler) GetQueueHandler(w http.ResponseWriter, r *http.Request) {
	status := h.engine.Status()
	respondJSON(w, http.StatusOK, map[string]interface{}{
		"trackIds":        status.Queue,
		"nowPlayingIndex": status.NowPlayingIndex,
	})
}

// SetQueueHandler replaces the party queue. Playback restarts from the given
// index on the next play command.
func (h *APIHandler) SetQueueHandler(w http.ResponseWriter, r *http.Request) {
	var req struct {
		TrackIDs   []int64 `json:"trackIds"`
		StartIndex int     `json:"startIndex"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}
	if len(req.TrackIDs) == 0 {
		http.Error(w, "Track IDs list cannot be empty", http.StatusBadRequest)
		return
	}

	h.engine.SetQueue(req.TrackIDs, req.StartIndex)

	ctx := r.Context()
	if err := cache.SaveQueue(ctx, req.TrackIDs); err != nil {
		logger.Warn("failed to persist party queue", logger.ErrorField(err))
	}
	if err := cache.SaveNowPlayingIndex(ctx, req.StartIndex); err != nil {
		logger.Warn("failed to persist queue index", logger.ErrorField(err))
	}

	logger.Info("party queue replaced",
		logger.Int("tracks", len(req.TrackIDs)),
		logger.Int("startIndex", req.StartIndex))
	respondMessage(w, http.StatusOK, "Queue updated")
}

// PlayHandler starts playback or resumes after a pause.
func (h *APIHandler) PlayHandler(w http.ResponseWriter, r *http.Request) {
	if err := h.engine.Play(r.Context()); err != nil {
		switch {
		case errors.Is(err, party.ErrEmptyQueue):
			http.Error(w, "Party queue is empty", http.StatusConflict)
		case errors.Is(err, party.ErrNoPlayableTrack):
			http.Error(w, "No playable track in queue", http.StatusConflict)
		default:
			http.Error(w, fmt.Sprintf("Failed to start playback: %v", err), http.StatusInternalServerError)
		}
		return
	}
	respondMessage(w, http.StatusOK, "Playing")
}

// PauseHandler pauses playback, freezing any transition in flight.
func (h *APIHandler) PauseHandler(w http.ResponseWriter, r *http.Request) {
	h.engine.Pause()
	respondMessage(w, http.StatusOK, "Paused")
}

// SkipHandler jumps to the next track immediately.
func (h *APIHandler) SkipHandler(w http.ResponseWriter, r *http.Request) {
	h.engine.Skip(r.Context(), time.Now())
	respondMessage(w, http.StatusOK, "Skipped")
}

// StopHandler stops playback and resets both decks.
func (h *APIHandler) StopHandler(w http.ResponseWriter, r *http.Request) {
	h.engine.Stop()
	respondMessage(w, http.StatusOK, "Stopped")
}

// StatusHandler returns the full engine snapshot: state, both decks, the
// active tempo decision and the queue position.
func (h *APIHandler) StatusHandler(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, h.engine.Status())
}
