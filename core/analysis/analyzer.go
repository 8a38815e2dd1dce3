package analysis

import (
	"fmt"
	"io"

	"DeckFM/logger"
)

// Result is everything import-time analysis learns about one track.
type Result struct {
	Duration    float64
	BPM         float64 // 0 = could not be estimated
	TrueEndTime float64
}

// AnalyzeMP3 decodes a full MP3 stream and runs the offline analyzers over
// it: duration from the decoded sample count, tempo estimation and the
// trailing-silence scan. It is the single entry point the importer calls,
// once per file; results are persisted on the Track and never recomputed
// during playback.
func AnalyzeMP3(r io.Reader) (*Result, error) {
	decoded, err := DecodeMP3(r)
	if err != nil {
		return nil, fmt.Errorf("analysis decode: %w", err)
	}

	res := &Result{
		Duration:    decoded.Duration,
		BPM:         EstimateBPM(decoded.Samples, decoded.SampleRate),
		TrueEndTime: DetectTrueEndTime(decoded.Samples, decoded.SampleRate, decoded.Duration, DefaultSilenceOptions()),
	}

	logger.Debug("track analyzed",
		logger.Float64("duration", res.Duration),
		logger.Float64("bpm", res.BPM),
		logger.Float64("trueEndTime", res.TrueEndTime),
	)
	return res, nil
}
