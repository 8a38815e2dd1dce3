// Package library owns the import pipeline: original files go to MinIO,
// metadata rows to MySQL, and a small worker pool runs the offline analyzers
// (duration, BPM, true end time) off the playback-critical path.
package library

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/google/uuid"

	"DeckFM/cache"
	"DeckFM/config"
	"DeckFM/core/analysis"
	"DeckFM/logger"
	"DeckFM/model"
	"DeckFM/repository"
	"DeckFM/storage"
)

// job is one queued analysis task.
type job struct {
	id         string // correlation id for logs
	trackID    int64
	objectPath string
	hash       string
}

// Importer manages background workers for track import and analysis.
type Importer struct {
	cfg  *config.Config
	repo repository.TrackRepository
	jobs chan job
	wg   sync.WaitGroup
}

// NewImporter creates an importer with a bounded job queue.
func NewImporter(cfg *config.Config, repo repository.TrackRepository) *Importer {
	return &Importer{
		cfg:  cfg,
		repo: repo,
		jobs: make(chan job, 64),
	}
}

// Start launches the analysis workers.
func (im *Importer) Start(workers int) {
	if workers < 1 {
		workers = 1
	}
	for i := 0; i < workers; i++ {
		im.wg.Add(1)
		go func() {
			defer im.wg.Done()
			for j := range im.jobs {
				im.processJob(j)
			}
		}()
	}
}

// Stop waits for workers to finish after closing the queue.
func (im *Importer) Stop() {
	close(im.jobs)
	im.wg.Wait()
}

// ImportFile uploads one local audio file and queues its analysis. Objects
// are content-addressed (audio/<sha256>.<ext>), so re-importing the same file
// is a cheap no-op.
func (im *Importer) ImportFile(ctx context.Context, path string) (int64, error) {
	if !strings.EqualFold(filepath.Ext(path), im.cfg.AudioExt) {
		return 0, fmt.Errorf("unsupported file type: %s", path)
	}

	f, err := os.Open(path)
	if err != nil {
		return 0, fmt.Errorf("failed to open %s: %w", path, err)
	}
	defer f.Close()

	hasher := sha256.New()
	size, err := io.Copy(hasher, f)
	if err != nil {
		return 0, fmt.Errorf("failed to hash %s: %w", path, err)
	}
	hash := hex.EncodeToString(hasher.Sum(nil))
	objectPath := fmt.Sprintf("audio/%s%s", hash, strings.ToLower(filepath.Ext(path)))

	if existing, err := im.repo.GetTrackByObjectPath(objectPath); err != nil {
		return 0, err
	} else if existing != nil {
		logger.Info("file already imported", logger.String("path", path), logger.Int64("trackId", existing.ID))
		return existing.ID, nil
	}

	if _, err := f.Seek(0, io.SeekStart); err != nil {
		return 0, fmt.Errorf("failed to rewind %s: %w", path, err)
	}
	if err := storage.UploadAudio(ctx, im.cfg.MinioBucket, objectPath, f, size, "audio/mpeg"); err != nil {
		return 0, err
	}

	track := &model.Track{
		Title:      titleFromFilename(path),
		ObjectPath: objectPath,
		Status:     model.TrackStatusPending,
	}
	id, err := im.repo.CreateTrack(track)
	if err != nil {
		return 0, err
	}

	j := job{id: uuid.NewString(), trackID: id, objectPath: objectPath, hash: hash}
	select {
	case im.jobs <- j:
	default:
		// Queue full: leave the row pending, a rescan will pick it up.
		logger.Warn("analysis queue full, deferring job",
			logger.String("jobId", j.id), logger.Int64("trackId", id))
	}
	return id, nil
}

// processJob runs the offline analyzers for one imported track.
func (im *Importer) processJob(j job) {
	ctx := context.Background()

	if err := im.repo.UpdateTrackStatus(j.trackID, model.TrackStatusAnalyzing); err != nil {
		logger.Error("failed to mark track analyzing", logger.String("jobId", j.id), logger.ErrorField(err))
	}

	// Content-hash cache first: a re-imported file never decodes twice.
	if entry, err := cache.GetAnalysis(ctx, j.hash); err == nil && entry != nil {
		if err := im.repo.UpdateTrackAnalysis(j.trackID, entry.Duration, entry.BPM, entry.TrueEndTime, model.TrackStatusReady); err != nil {
			logger.Error("failed to store cached analysis", logger.String("jobId", j.id), logger.ErrorField(err))
		}
		return
	}

	rc, err := storage.FetchAudio(ctx, im.cfg.MinioBucket, j.objectPath)
	if err != nil {
		im.failJob(j, err)
		return
	}
	defer rc.Close()

	res, err := analysis.AnalyzeMP3(rc)
	if err != nil {
		im.failJob(j, err)
		return
	}

	if err := im.repo.UpdateTrackAnalysis(j.trackID, res.Duration, res.BPM, res.TrueEndTime, model.TrackStatusReady); err != nil {
		logger.Error("failed to store analysis", logger.String("jobId", j.id), logger.ErrorField(err))
		return
	}
	if err := cache.PutAnalysis(ctx, j.hash, cache.AnalysisEntry{
		Duration:    res.Duration,
		BPM:         res.BPM,
		TrueEndTime: res.TrueEndTime,
	}); err != nil {
		logger.Warn("failed to cache analysis", logger.String("jobId", j.id), logger.ErrorField(err))
	}
}

// failJob marks the track failed but keeps it in the library: a track that
// won't decode for analysis may still stream, it just can't tempo-match.
func (im *Importer) failJob(j job, err error) {
	logger.Warn("track analysis failed",
		logger.String("jobId", j.id),
		logger.Int64("trackId", j.trackID),
		logger.ErrorField(err),
	)
	if uerr := im.repo.UpdateTrackStatus(j.trackID, model.TrackStatusFailed); uerr != nil {
		logger.Error("failed to mark track failed", logger.String("jobId", j.id), logger.ErrorField(uerr))
	}
}

func titleFromFilename(path string) string {
	base := filepath.Base(path)
	return strings.TrimSuffix(base, filepath.Ext(base))
}
