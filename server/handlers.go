package server

import (
	"encoding/json"
	"net/http"

	"DeckFM/config"
	"DeckFM/core/library"
	"DeckFM/core/party"
	"DeckFM/repository"
)

// APIHandler carries the shared dependencies of every HTTP handler.
type APIHandler struct {
	trackRepo    repository.TrackRepository
	settingsRepo repository.SettingsRepository
	engine       *party.Engine
	importer     *library.Importer
	hub          *PartyHub
	cfg          *config.Config
}

// NewAPIHandler creates the API handler set.
func NewAPIHandler(
	trackRepo repository.TrackRepository,
	settingsRepo repository.SettingsRepository,
	engine *party.Engine,
	importer *library.Importer,
	hub *PartyHub,
	cfg *config.Config,
) *APIHandler {
	return &APIHandler{
		trackRepo:    trackRepo,
		settingsRepo: settingsRepo,
		engine:       engine,
		importer:     importer,
		hub:          hub,
		cfg:          cfg,
	}
}

func respondJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(payload)
}

func respondMessage(w http.ResponseWriter, status int, msg string) {
	respondJSON(w, status, map[string]string{"message": msg})
}
