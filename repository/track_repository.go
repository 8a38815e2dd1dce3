package repository

import (
	"database/sql"
	"fmt"
	"time"

	"DeckFM/db"
	"DeckFM/logger"
	"DeckFM/model"
)

// TrackRepository defines the interface for track data operations.
type TrackRepository interface {
	CreateTrack(track *model.Track) (int64, error)
	GetTrackByID(id int64) (*model.Track, error)
	GetAllTracks() ([]*model.Track, error)
	GetTrackByObjectPath(objectPath string) (*model.Track, error)
	UpdateTrackStatus(trackID int64, status string) error
	UpdateTrackAnalysis(trackID int64, duration, bpm, trueEndTime float64, status string) error
	DeleteTrack(trackID int64) error
}

// mysqlTrackRepository implements TrackRepository for MySQL.
type mysqlTrackRepository struct {
	DB *sql.DB
}

// NewMySQLTrackRepository creates a new instance of mysqlTrackRepository.
func NewMySQLTrackRepository() TrackRepository {
	return &mysqlTrackRepository{DB: db.DB}
}

const trackColumns = `id, title, artist, album, object_path, duration, bpm, true_end_time, status, created_at, updated_at`

func scanTrack(row interface{ Scan(dest ...any) error }) (*model.Track, error) {
	track := &model.Track{}
	err := row.Scan(&track.ID, &track.Title, &track.Artist, &track.Album, &track.ObjectPath,
		&track.Duration, &track.BPM, &track.TrueEndTime, &track.Status, &track.CreatedAt, &track.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return track, nil
}

// CreateTrack adds a new track to the database.
func (r *mysqlTrackRepository) CreateTrack(track *model.Track) (int64, error) {
	query := `INSERT INTO tracks (title, artist, album, object_path, duration, bpm, true_end_time, status, created_at, updated_at)
	           VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`
	stmt, err := r.DB.Prepare(query)
	if err != nil {
		return 0, fmt.Errorf("failed to prepare statement for CreateTrack: %w", err)
	}
	defer stmt.Close()

	now := time.Now()
	res, err := stmt.Exec(track.Title, track.Artist, track.Album, track.ObjectPath,
		track.Duration, track.BPM, track.TrueEndTime, track.Status, now, now)
	if err != nil {
		return 0, fmt.Errorf("failed to execute CreateTrack: %w", err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("failed to get last insert ID for CreateTrack: %w", err)
	}
	logger.Info("track created", logger.Int64("trackId", id), logger.String("title", track.Title))
	return id, nil
}

// GetTrackByID retrieves a track by its ID.
func (r *mysqlTrackRepository) GetTrackByID(id int64) (*model.Track, error) {
	query := `SELECT ` + trackColumns + ` FROM tracks WHERE id = ?`
	track, err := scanTrack(r.DB.QueryRow(query, id))
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil // Track not found
		}
		return nil, fmt.Errorf("failed to scan track by ID %d: %w", id, err)
	}
	return track, nil
}

// GetAllTracks retrieves the whole library, newest first.
func (r *mysqlTrackRepository) GetAllTracks() ([]*model.Track, error) {
	query := `SELECT ` + trackColumns + ` FROM tracks ORDER BY created_at DESC`
	rows, err := r.DB.Query(query)
	if err != nil {
		return nil, fmt.Errorf("failed to query tracks: %w", err)
	}
	defer rows.Close()

	tracks := make([]*model.Track, 0)
	for rows.Next() {
		track, err := scanTrack(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan track in GetAllTracks: %w", err)
		}
		tracks = append(tracks, track)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error during rows iteration in GetAllTracks: %w", err)
	}
	return tracks, nil
}

// GetTrackByObjectPath checks for an already-imported file.
func (r *mysqlTrackRepository) GetTrackByObjectPath(objectPath string) (*model.Track, error) {
	query := `SELECT ` + trackColumns + ` FROM tracks WHERE object_path = ?`
	track, err := scanTrack(r.DB.QueryRow(query, objectPath))
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to scan track by object path %s: %w", objectPath, err)
	}
	return track, nil
}

// UpdateTrackStatus moves a track through the import pipeline states.
func (r *mysqlTrackRepository) UpdateTrackStatus(trackID int64, status string) error {
	query := `UPDATE tracks SET status = ?, updated_at = ? WHERE id = ?`
	if _, err := r.DB.Exec(query, status, time.Now(), trackID); err != nil {
		return fmt.Errorf("failed to execute UpdateTrackStatus for track ID %d: %w", trackID, err)
	}
	return nil
}

// UpdateTrackAnalysis persists the import-time analysis results.
func (r *mysqlTrackRepository) UpdateTrackAnalysis(trackID int64, duration, bpm, trueEndTime float64, status string) error {
	query := `UPDATE tracks SET duration = ?, bpm = ?, true_end_time = ?, status = ?, updated_at = ? WHERE id = ?`
	stmt, err := r.DB.Prepare(query)
	if err != nil {
		return fmt.Errorf("failed to prepare statement for UpdateTrackAnalysis: %w", err)
	}
	defer stmt.Close()

	if _, err = stmt.Exec(duration, bpm, trueEndTime, status, time.Now(), trackID); err != nil {
		return fmt.Errorf("failed to execute UpdateTrackAnalysis for track ID %d: %w", trackID, err)
	}
	logger.Info("track analysis updated",
		logger.Int64("trackId", trackID),
		logger.Float64("duration", duration),
		logger.Float64("bpm", bpm),
		logger.Float64("trueEndTime", trueEndTime),
	)
	return nil
}

// DeleteTrack removes a track row.
func (r *mysqlTrackRepository) DeleteTrack(trackID int64) error {
	if _, err := r.DB.Exec(`DELETE FROM tracks WHERE id = ?`, trackID); err != nil {
		return fmt.Errorf("failed to execute DeleteTrack for track ID %d: %w", trackID, err)
	}
	return nil
}
