package analysis

import (
	"math"
	"testing"
)

// makeSamples builds a buffer where loud[i]=true frames hold a clearly
// audible amplitude and the rest sit at digital zero.
func makeSamples(n int, loud func(i int) bool) []float64 {
	s := make([]float64, n)
	for i := range s {
		if loud(i) {
			s[i] = 0.5
		}
	}
	return s
}

func TestDetectTrueEndTimeNoSilence(t *testing.T) {
	samples := makeSamples(100, func(int) bool { return true })
	got := DetectTrueEndTime(samples, 10, 10, DefaultSilenceOptions())
	if got != 10 {
		t.Errorf("buffer with no silence should keep full duration, got %v", got)
	}
}

func TestDetectTrueEndTimeTrailingSilence(t *testing.T) {
	// 10s at a synthetic 10 Hz rate, last 2s silent. minSilenceMs=700 needs a
	// run of 7 samples; the 20-sample tail qualifies and starts at sample 80.
	samples := makeSamples(100, func(i int) bool { return i < 80 })
	got := DetectTrueEndTime(samples, 10, 10, DefaultSilenceOptions())
	if got != 8 {
		t.Errorf("trueEndTime = %v, want 8", got)
	}
}

func TestDetectTrueEndTimeShortRunIgnored(t *testing.T) {
	// Trailing 500ms of silence is below the 700ms minimum, even though it is
	// the literal tail of the file.
	samples := makeSamples(100, func(i int) bool { return i < 95 })
	got := DetectTrueEndTime(samples, 10, 10, DefaultSilenceOptions())
	if got != 10 {
		t.Errorf("sub-minimum silent run must be ignored, got %v", got)
	}
}

func TestDetectTrueEndTimeGuardWindow(t *testing.T) {
	// Silence starts 1s before the end; a 1s run qualifies (>=700ms) but the
	// cut may not land inside the last 1.5s.
	samples := makeSamples(100, func(i int) bool { return i < 90 })
	got := DetectTrueEndTime(samples, 10, 10, DefaultSilenceOptions())
	if got != 8.5 {
		t.Errorf("cut must respect the guard window, got %v, want 8.5", got)
	}
}

func TestDetectTrueEndTimeInteriorGapBeforeLoudTail(t *testing.T) {
	// A long interior gap followed by more music: the scan runs from the back,
	// the loud tail resets the counter, and the interior gap becomes the
	// transition point only when the tail itself never qualifies.
	samples := makeSamples(200, func(i int) bool {
		return i < 100 || i >= 150 // 5s gap at 10s..15s, then 5s of music
	})
	got := DetectTrueEndTime(samples, 10, 20, DefaultSilenceOptions())
	if got != 10 {
		t.Errorf("expected the interior silence onset at 10s, got %v", got)
	}
}

func TestDetectTrueEndTimeDegenerateInput(t *testing.T) {
	opts := DefaultSilenceOptions()
	if got := DetectTrueEndTime(nil, 44100, 123, opts); got != 123 {
		t.Errorf("empty buffer: got %v", got)
	}
	if got := DetectTrueEndTime(make([]float64, 10), 0, 123, opts); got != 123 {
		t.Errorf("zero sample rate: got %v", got)
	}
	if got := DetectTrueEndTime(make([]float64, 10), -4, 123, opts); got != 123 {
		t.Errorf("negative sample rate: got %v", got)
	}
	nan := math.NaN()
	if got := DetectTrueEndTime(make([]float64, 10), 10, nan, opts); !math.IsNaN(got) {
		t.Errorf("NaN duration should come back unchanged, got %v", got)
	}
}

func TestDetectTrueEndTimeFullySilent(t *testing.T) {
	// Whole buffer silent: onset is sample 0, clamped to >= 0.
	samples := makeSamples(100, func(int) bool { return false })
	got := DetectTrueEndTime(samples, 10, 10, DefaultSilenceOptions())
	if got != 0 {
		t.Errorf("fully silent buffer should cut at 0, got %v", got)
	}
}
