package model

import "time"

// Track analysis status values.
const (
	TrackStatusPending   = "pending"   // imported, waiting for analysis
	TrackStatusAnalyzing = "analyzing" // analysis job running
	TrackStatusReady     = "ready"     // analysis finished, full metadata available
	TrackStatusFailed    = "failed"    // decode/analysis failed, playable without tempo matching
)

// Track represents an audio track in the music library.
// BPM and TrueEndTime are filled in by the import-time analyzer; both stay 0
// until Status reaches "ready". TrueEndTime is the perceptual end of content
// (trailing silence trimmed), always within [0, Duration].
type Track struct {
	ID          int64     `json:"id"`
	Title       string    `json:"title"`
	Artist      string    `json:"artist"`
	Album       string    `json:"album"`
	ObjectPath  string    `json:"-"`           // MinIO object path of the original audio file
	Duration    float64   `json:"duration"`    // Container-reported duration in seconds
	BPM         float64   `json:"bpm"`         // Estimated tempo, 0 = unknown
	TrueEndTime float64   `json:"trueEndTime"` // Seconds, 0 = not analyzed
	Status      string    `json:"status"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

// EffectiveEnd returns the moment playback should be considered over:
// the analyzed true end when available, the container duration otherwise.
func (t *Track) EffectiveEnd() float64 {
	if t.TrueEndTime > 0 && t.TrueEndTime <= t.Duration {
		return t.TrueEndTime
	}
	return t.Duration
}
