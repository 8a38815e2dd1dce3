package analysis

import "math"

// BPM search range. Readings outside it are musically ambiguous anyway; the
// tempo evaluator's half/double disambiguation covers the rest.
const (
	minSearchBPM = 60.0
	maxSearchBPM = 200.0
)

// EstimateBPM estimates the tempo of a decoded mono buffer by
// autocorrelating its onset-energy envelope. Returns 0 when the buffer is too
// short or carries no rhythmic energy; callers treat 0 as "BPM unknown".
//
// Offline import-time analysis only, same as the silence scan.
func EstimateBPM(samples []float64, sampleRate int) float64 {
	if sampleRate <= 0 || len(samples) == 0 {
		return 0
	}

	// 10ms hops keep the envelope small enough to autocorrelate cheaply.
	hop := sampleRate / 100
	if hop < 1 {
		return 0
	}
	numFrames := len(samples) / hop
	hopSec := float64(hop) / float64(sampleRate)

	maxLag := int(60 / (minSearchBPM * hopSec))
	minLag := int(math.Ceil(60 / (maxSearchBPM * hopSec)))
	if minLag < 1 {
		minLag = 1
	}
	// Need at least a few beat periods at the slowest tempo to correlate.
	if numFrames < maxLag*3 {
		return 0
	}

	env := make([]float64, numFrames)
	for i := 0; i < numFrames; i++ {
		var sum float64
		base := i * hop
		for j := 0; j < hop; j++ {
			s := samples[base+j]
			sum += s * s
		}
		env[i] = math.Sqrt(sum / float64(hop))
	}

	// Positive energy flux: rises mark onsets, decays are ignored.
	flux := make([]float64, numFrames)
	for i := 1; i < numFrames; i++ {
		if d := env[i] - env[i-1]; d > 0 {
			flux[i] = d
		}
	}

	// Raw correlation sums: the fundamental period strictly outscores its
	// double because it pairs more onsets.
	bestLag, bestScore := 0, 0.0
	for lag := minLag; lag <= maxLag; lag++ {
		var score float64
		for i := 0; i+lag < numFrames; i++ {
			score += flux[i] * flux[i+lag]
		}
		if score > bestScore {
			bestScore = score
			bestLag = lag
		}
	}

	if bestLag == 0 || bestScore <= 0 {
		return 0
	}
	return 60 / (float64(bestLag) * hopSec)
}
