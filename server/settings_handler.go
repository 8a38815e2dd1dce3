package server

import (
	"encoding/json"
	"fmt"
	"net/http"

	"DeckFM/core/tempo"
	"DeckFM/logger"
	"DeckFM/model"
)

// GetSettingsHandler returns the current mix settings.
func (h *APIHandler) GetSettingsHandler(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, h.settingsRepo.Current())
}

// UpdateSettingsHandler replaces the mix settings. Values outside their
// documented ranges are clamped, not rejected.
func (h *APIHandler) UpdateSettingsHandler(w http.ResponseWriter, r *http.Request) {
	var settings model.MixSettings
	if err := json.NewDecoder(r.Body).Decode(&settings); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	updated, err := h.settingsRepo.Update(settings)
	if err != nil {
		http.Error(w, fmt.Sprintf("Failed to update settings: %v", err), http.StatusInternalServerError)
		return
	}

	logger.Info("mix settings updated",
		logger.String("tempoMode", string(updated.TempoMode)),
		logger.Float64("crossfadeSeconds", updated.CrossfadeSeconds),
		logger.Float64("maxTempoPercent", updated.MaxTempoPercent),
		logger.Bool("loopPlaylist", updated.LoopPlaylist))
	respondJSON(w, http.StatusOK, updated)
}

// ResetSettingsHandler restores the default mix settings.
func (h *APIHandler) ResetSettingsHandler(w http.ResponseWriter, r *http.Request) {
	settings, err := h.settingsRepo.Reset()
	if err != nil {
		http.Error(w, fmt.Sprintf("Failed to reset settings: %v", err), http.StatusInternalServerError)
		return
	}
	logger.Info("mix settings reset to defaults")
	respondJSON(w, http.StatusOK, settings)
}

// GetPresetsHandler lists the available tempo presets.
func (h *APIHandler) GetPresetsHandler(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, tempo.Presets())
}
