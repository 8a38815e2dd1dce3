package model

// DeckID indexes the two playback decks.
type DeckID int

const (
	DeckA DeckID = 0
	DeckB DeckID = 1
)

func (d DeckID) String() string {
	if d == DeckA {
		return "A"
	}
	return "B"
}

// Other returns the opposite deck.
func (d DeckID) Other() DeckID {
	return 1 - d
}

// DeckState is the per-deck playback record, owned exclusively by the party
// engine and read by the UI over the websocket feed.
type DeckState struct {
	TrackID      int64   `json:"trackId"` // 0 = deck empty
	Title        string  `json:"title,omitempty"`
	Artist       string  `json:"artist,omitempty"`
	CurrentTime  float64 `json:"currentTime"`
	Duration     float64 `json:"duration"`
	PlaybackRate float64 `json:"playbackRate"` // 1.0 = unmodified tempo
	Volume       float64 `json:"volume"`       // 0..1, crossfade ramp
	IsPlaying    bool    `json:"isPlaying"`
}

// TempoDecision is the per-transition tempo matching outcome, computed when
// the next deck is prepared. Transient: exposed for display, never persisted.
type TempoDecision struct {
	RequiredShiftPct float64 `json:"requiredShiftPct"`
	Interpretation   string  `json:"interpretation"` // normal, half, double
	Zone             string  `json:"zone"`           // green, yellow, orange, red
	CapPctUsed       float64 `json:"capPctUsed"`
	OverCap          bool    `json:"overCap"`
	NearCap          bool    `json:"nearCap"`
	WillTempoMatch   bool    `json:"willTempoMatch"`
	Variant          string  `json:"variant"` // disabled, under_cap, near_cap, over_cap
	AppliedRate      float64 `json:"appliedRate"`
}
