package tempo

import (
	"math"
	"testing"
)

func TestComputeTempoShiftInfoPicksMinimalCandidate(t *testing.T) {
	tests := []struct {
		name      string
		source    float64
		target    float64
		interp    Interpretation
		wantPct   float64
		wantRatio float64
	}{
		{"exact match", 128, 128, InterpNormal, 0, 1.0},
		{"double time wins", 65, 130, InterpDouble, 0, 1.0},
		{"half time wins", 170, 85, InterpHalf, 0, 1.0},
		{"normal small shift", 124, 128, InterpNormal, 100 * (128.0/124.0 - 1), 128.0 / 124.0},
		{"double over large normal shift", 70, 132, InterpDouble, 100 * (1 - 132.0/140.0), 132.0 / 140.0},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			info := ComputeTempoShiftInfo(tc.source, tc.target)
			if info.Interpretation != tc.interp {
				t.Fatalf("interpretation = %s, want %s", info.Interpretation, tc.interp)
			}
			if math.Abs(info.RequiredShiftPct-tc.wantPct) > 1e-9 {
				t.Errorf("requiredShiftPct = %v, want %v", info.RequiredShiftPct, tc.wantPct)
			}
			if math.Abs(info.IdealRatio-tc.wantRatio) > 1e-9 {
				t.Errorf("idealRatio = %v, want %v", info.IdealRatio, tc.wantRatio)
			}
		})
	}
}

func TestComputeTempoShiftInfoInvalidInput(t *testing.T) {
	for _, tc := range []struct {
		name           string
		source, target float64
	}{
		{"zero source", 0, 128},
		{"zero target", 128, 0},
		{"negative source", -120, 128},
		{"nan target", 128, math.NaN()},
		{"inf source", math.Inf(1), 128},
		{"implausible source", 10, 128}, // 10, 5 and 20 are all outside [40,400]
	} {
		t.Run(tc.name, func(t *testing.T) {
			info := ComputeTempoShiftInfo(tc.source, tc.target)
			if !math.IsInf(info.RequiredShiftPct, 1) {
				t.Errorf("requiredShiftPct = %v, want +Inf", info.RequiredShiftPct)
			}
			if info.Interpretation != InterpNormal {
				t.Errorf("interpretation = %s, want normal", info.Interpretation)
			}
			if info.IdealRatio != 1 {
				t.Errorf("idealRatio = %v, want 1", info.IdealRatio)
			}
		})
	}
}

func TestComputeTempoMatchZoneBoundaries(t *testing.T) {
	tests := []struct {
		pct  float64
		want Zone
	}{
		{0, ZoneGreen},
		{6, ZoneGreen},
		{7, ZoneYellow},
		{10, ZoneYellow},
		{11, ZoneOrange},
		{15, ZoneOrange},
		{16, ZoneRed},
		{math.Inf(1), ZoneRed},
	}
	for _, tc := range tests {
		if got := ComputeTempoMatchZone(tc.pct); got != tc.want {
			t.Errorf("ComputeTempoMatchZone(%v) = %s, want %s", tc.pct, got, tc.want)
		}
	}
}

func TestGetTempoCapDecisionBoundary(t *testing.T) {
	base := CapInput{TempoControlEnabled: true, Mode: "auto", RawMaxTempoPercent: 8}

	in := base
	in.RequiredShiftPct = 8
	if d := GetTempoCapDecision(in); d.OverCap || !d.WillTempoMatch {
		t.Errorf("shift exactly at the cap must not be over-cap: %+v", d)
	}

	in.RequiredShiftPct = 8.0001
	if d := GetTempoCapDecision(in); !d.OverCap || d.WillTempoMatch || d.Variant != VariantOverCap {
		t.Errorf("shift just above the cap must be over-cap: %+v", d)
	}
}

func TestGetTempoCapDecisionNearCap(t *testing.T) {
	d := GetTempoCapDecision(CapInput{
		TempoControlEnabled: true,
		Mode:                "auto",
		RequiredShiftPct:    6.5, // >= 8 * 0.8
		RawMaxTempoPercent:  8,
	})
	if !d.NearCap || d.OverCap || d.Variant != VariantNearCap {
		t.Errorf("expected near-cap: %+v", d)
	}

	d = GetTempoCapDecision(CapInput{
		TempoControlEnabled: true,
		Mode:                "auto",
		RequiredShiftPct:    3,
		RawMaxTempoPercent:  8,
	})
	if d.NearCap || d.Variant != VariantUnderCap {
		t.Errorf("expected under-cap: %+v", d)
	}
}

func TestGetTempoCapDecisionDisabledAndModes(t *testing.T) {
	d := GetTempoCapDecision(CapInput{
		TempoControlEnabled: false,
		Mode:                "auto",
		RequiredShiftPct:    0,
		RawMaxTempoPercent:  8,
	})
	if d.Variant != VariantDisabled || d.WillTempoMatch {
		t.Errorf("disabled control must never match: %+v", d)
	}

	// In locked/original modes the cap does not apply.
	for _, mode := range []string{"locked", "original"} {
		d := GetTempoCapDecision(CapInput{
			TempoControlEnabled: true,
			Mode:                mode,
			RequiredShiftPct:    50,
			RawMaxTempoPercent:  8,
		})
		if !d.WillTempoMatch || d.Variant != VariantUnderCap {
			t.Errorf("mode %s: %+v", mode, d)
		}
	}
}

func TestGetTempoCapDecisionLegacyFractionCap(t *testing.T) {
	d := GetTempoCapDecision(CapInput{
		TempoControlEnabled: true,
		Mode:                "auto",
		RequiredShiftPct:    7,
		RawMaxTempoPercent:  0.08, // legacy fraction, means 8%
	})
	if d.CapPctUsed != 8 {
		t.Errorf("capPctUsed = %v, want 8", d.CapPctUsed)
	}
	if d.OverCap {
		t.Errorf("7%% under an 8%% cap must not be over-cap: %+v", d)
	}

	d = GetTempoCapDecision(CapInput{
		TempoControlEnabled: true,
		Mode:                "auto",
		RequiredShiftPct:    1,
		RawMaxTempoPercent:  250,
	})
	if d.CapPctUsed != 100 {
		t.Errorf("cap should clamp to 100, got %v", d.CapPctUsed)
	}
}

func TestGetTempoCapDecisionInfiniteShift(t *testing.T) {
	d := GetTempoCapDecision(CapInput{
		TempoControlEnabled: true,
		Mode:                "auto",
		RequiredShiftPct:    math.Inf(1),
		RawMaxTempoPercent:  8,
	})
	if !d.OverCap || d.WillTempoMatch {
		t.Errorf("infinite shift must be over-cap: %+v", d)
	}
}
