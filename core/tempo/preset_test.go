package tempo

import (
	"math"
	"testing"
)

func TestComputePresetTempoClampsToPresetCap(t *testing.T) {
	tests := []struct {
		preset    Preset
		wantRatio float64
	}{
		{PresetChill, 0.80},     // nominal 0.75 clamped by the 20% stretch cap
		{PresetRelaxed, 0.88},   // within its 15% cap
		{PresetNeutral, 1.00},   // cap 0, always unity
		{PresetEnergetic, 1.08}, // within its 10% cap
		{PresetPeak, 1.15},      // nominal 1.20 clamped by the 15% stretch cap
	}
	for _, tc := range tests {
		t.Run(string(tc.preset), func(t *testing.T) {
			got := ComputePresetTempo(120, tc.preset)
			if math.Abs(got.Ratio-tc.wantRatio) > 1e-9 {
				t.Errorf("ratio = %v, want %v", got.Ratio, tc.wantRatio)
			}
			if want := 120 * tc.wantRatio; math.Abs(got.TargetBPM-want) > 1e-9 {
				t.Errorf("targetBPM = %v, want %v", got.TargetBPM, want)
			}
		})
	}
}

func TestComputePresetTempoNoOps(t *testing.T) {
	if got := ComputePresetTempo(128, PresetOriginal); got.Ratio != 1 || got.TargetBPM != 128 {
		t.Errorf("original preset must be a no-op, got %+v", got)
	}
	if got := ComputePresetTempo(0, PresetPeak); got.Ratio != 1 || got.TargetBPM != 0 {
		t.Errorf("unknown BPM must be a no-op, got %+v", got)
	}
	if got := ComputePresetTempo(math.NaN(), PresetChill); got.Ratio != 1 || got.TargetBPM != 0 {
		t.Errorf("NaN BPM must be a no-op, got %+v", got)
	}
}

func TestParsePreset(t *testing.T) {
	if got := ParsePreset("peak"); got != PresetPeak {
		t.Errorf("ParsePreset(peak) = %s", got)
	}
	if got := ParsePreset("original"); got != PresetOriginal {
		t.Errorf("ParsePreset(original) = %s", got)
	}
	if got := ParsePreset("warp-speed"); got != PresetNeutral {
		t.Errorf("unknown preset should fall back to neutral, got %s", got)
	}
}
