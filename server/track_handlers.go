package server

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strconv"

	"github.com/gorilla/mux"

	"DeckFM/logger"
	"DeckFM/storage"
)

// GetTracksHandler returns every track in the library.
func (h *APIHandler) GetTracksHandler(w http.ResponseWriter, r *http.Request) {
	tracks, err := h.trackRepo.GetAllTracks()
	if err != nil {
		http.Error(w, fmt.Sprintf("Failed to retrieve tracks: %v", err), http.StatusInternalServerError)
		return
	}
	respondJSON(w, http.StatusOK, tracks)
}

// GetTrackHandler returns a single track by id.
func (h *APIHandler) GetTrackHandler(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	trackID, err := strconv.ParseInt(vars["id"], 10, 64)
	if err != nil {
		http.Error(w, "Invalid track ID format", http.StatusBadRequest)
		return
	}

	track, err := h.trackRepo.GetTrackByID(trackID)
	if err != nil {
		http.Error(w, fmt.Sprintf("Failed to get track %d: %v", trackID, err), http.StatusInternalServerError)
		return
	}
	if track == nil {
		http.Error(w, fmt.Sprintf("Track with ID %d not found", trackID), http.StatusNotFound)
		return
	}
	respondJSON(w, http.StatusOK, track)
}

// DeleteTrackHandler removes a track row and its stored audio object.
func (h *APIHandler) DeleteTrackHandler(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	trackID, err := strconv.ParseInt(vars["id"], 10, 64)
	if err != nil {
		http.Error(w, "Invalid track ID format", http.StatusBadRequest)
		return
	}

	track, err := h.trackRepo.GetTrackByID(trackID)
	if err != nil {
		http.Error(w, fmt.Sprintf("Failed to get track %d: %v", trackID, err), http.StatusInternalServerError)
		return
	}
	if track == nil {
		http.Error(w, fmt.Sprintf("Track with ID %d not found", trackID), http.StatusNotFound)
		return
	}

	if err := h.trackRepo.DeleteTrack(trackID); err != nil {
		http.Error(w, fmt.Sprintf("Failed to delete track %d: %v", trackID, err), http.StatusInternalServerError)
		return
	}
	if err := storage.RemoveAudio(r.Context(), h.cfg.MinioBucket, track.ObjectPath); err != nil {
		// The row is gone; a leaked object is only wasted space.
		logger.Warn("failed to remove audio object",
			logger.String("objectPath", track.ObjectPath), logger.ErrorField(err))
	}

	logger.Info("track deleted", logger.Int64("trackId", trackID))
	w.WriteHeader(http.StatusNoContent)
}

// UploadTrackHandler accepts a multipart audio upload and runs it through the
// import pipeline. Expected form field: trackFile.
func (h *APIHandler) UploadTrackHandler(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseMultipartForm(64 << 20); err != nil { // 64MB max memory
		http.Error(w, fmt.Sprintf("Failed to parse multipart form: %v", err), http.StatusBadRequest)
		return
	}

	trackFile, trackHeader, err := r.FormFile("trackFile")
	if err != nil {
		http.Error(w, "Missing 'trackFile' in form", http.StatusBadRequest)
		return
	}
	defer trackFile.Close()

	// Stage to a temp dir, keeping the original filename so the importer can
	// use it as the track title.
	tmpDir, err := os.MkdirTemp("", "upload-")
	if err != nil {
		http.Error(w, "Failed to stage upload", http.StatusInternalServerError)
		return
	}
	defer os.RemoveAll(tmpDir)

	stagedPath := filepath.Join(tmpDir, filepath.Base(trackHeader.Filename))
	staged, err := os.Create(stagedPath)
	if err != nil {
		http.Error(w, "Failed to stage upload", http.StatusInternalServerError)
		return
	}
	if _, err := io.Copy(staged, trackFile); err != nil {
		staged.Close()
		http.Error(w, fmt.Sprintf("Failed to save upload: %v", err), http.StatusInternalServerError)
		return
	}
	staged.Close()

	trackID, err := h.importer.ImportFile(r.Context(), stagedPath)
	if err != nil {
		http.Error(w, fmt.Sprintf("Failed to import track: %v", err), http.StatusBadRequest)
		return
	}

	logger.Info("track uploaded",
		logger.Int64("trackId", trackID),
		logger.String("filename", trackHeader.Filename))
	respondJSON(w, http.StatusCreated, map[string]interface{}{
		"message": "Track uploaded successfully",
		"trackId": trackID,
	})
}

// ImportURLHandler downloads a remote audio file into the library.
func (h *APIHandler) ImportURLHandler(w http.ResponseWriter, r *http.Request) {
	var req struct {
		URL string `json:"url"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.URL == "" {
		http.Error(w, "Invalid request body, expected {\"url\": ...}", http.StatusBadRequest)
		return
	}

	trackID, err := h.importer.ImportURL(r.Context(), req.URL)
	if err != nil {
		http.Error(w, fmt.Sprintf("Failed to import from URL: %v", err), http.StatusBadRequest)
		return
	}
	respondJSON(w, http.StatusCreated, map[string]interface{}{
		"message": "Track imported successfully",
		"trackId": trackID,
	})
}

// ImportScanHandler triggers a one-shot scan of the import directory.
func (h *APIHandler) ImportScanHandler(w http.ResponseWriter, r *http.Request) {
	count, err := h.importer.ScanOnce(r.Context())
	if err != nil {
		http.Error(w, fmt.Sprintf("Import scan failed: %v", err), http.StatusInternalServerError)
		return
	}
	respondJSON(w, http.StatusOK, map[string]interface{}{
		"message": fmt.Sprintf("Imported %d files", count),
		"count":   count,
	})
}
