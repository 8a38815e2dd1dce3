package analysis

import "math"

// SilenceOptions tune the trailing-silence scan.
type SilenceOptions struct {
	ThresholdDB        float64 // amplitude below 10^(dB/20) counts as silence
	MinSilenceMs       float64 // a run shorter than this is a pause, not the end
	MinCutBeforeEndSec float64 // guard window: never cut this close to the nominal end
}

// DefaultSilenceOptions returns the import-time defaults.
func DefaultSilenceOptions() SilenceOptions {
	return SilenceOptions{
		ThresholdDB:        -55,
		MinSilenceMs:       700,
		MinCutBeforeEndSec: 1.5,
	}
}

// DetectTrueEndTime locates the last moment before sustained trailing silence
// in a decoded mono buffer and returns it in seconds. When no silent run of at
// least MinSilenceMs exists, the nominal duration comes back unchanged. The
// result never lands inside the guard window near the nominal end and never
// goes below zero.
//
// This scan is O(samples) and runs once per track at import time; the result
// is cached on the Track row, never recomputed during playback.
func DetectTrueEndTime(samples []float64, sampleRate int, durationSec float64, opts SilenceOptions) float64 {
	if len(samples) == 0 || sampleRate <= 0 {
		return durationSec
	}
	if math.IsNaN(durationSec) || math.IsInf(durationSec, 0) || durationSec <= 0 {
		return durationSec
	}

	threshold := math.Pow(10, opts.ThresholdDB/20)
	minRun := int(opts.MinSilenceMs / 1000 * float64(sampleRate))
	if minRun < 1 {
		minRun = 1
	}

	// Walk backward from the last sample. Once a run of minRun silent samples
	// is seen, keep extending it toward the front; the first louder sample
	// after that marks the transition point and ends the scan.
	run := 0
	onset := -1
	for i := len(samples) - 1; i >= 0; i-- {
		if math.Abs(samples[i]) < threshold {
			run++
			if run >= minRun {
				onset = i
			}
			continue
		}
		if onset >= 0 {
			break
		}
		run = 0
	}

	if onset < 0 {
		return durationSec
	}

	trueEnd := float64(onset) / float64(sampleRate)
	if max := durationSec - opts.MinCutBeforeEndSec; trueEnd > max {
		trueEnd = max
	}
	if trueEnd < 0 {
		trueEnd = 0
	}
	return trueEnd
}
