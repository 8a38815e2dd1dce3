package tempo

import "math"

// Interpretation names which BPM reading of the source track won the
// candidate search. A track tagged at 65 BPM is usually felt at 130; matching
// against the doubled reading avoids a useless 100% stretch.
type Interpretation string

const (
	InterpNormal Interpretation = "normal"
	InterpHalf   Interpretation = "half"
	InterpDouble Interpretation = "double"
)

// Plausible felt-tempo range. Candidates outside it are discarded.
const (
	minPlausibleBPM = 40.0
	maxPlausibleBPM = 400.0
)

// ShiftInfo is the result of the half/double tempo disambiguation.
type ShiftInfo struct {
	RequiredShiftPct   float64        // percent deviation from 1.0, +Inf when unmatchable
	IdealRatio         float64        // playback rate that lands the source on the target
	Interpretation     Interpretation // which candidate won
	InterpretedBaseBPM float64        // the winning candidate's BPM
}

// ComputeTempoShiftInfo resolves the minimal tempo shift that moves sourceBPM
// onto targetBPM, considering the source at face value, half time and double
// time. Invalid input never panics: it degrades to an infinite required shift
// so the caller falls back to the original tempo.
func ComputeTempoShiftInfo(sourceBPM, targetBPM float64) ShiftInfo {
	none := ShiftInfo{
		RequiredShiftPct:   math.Inf(1),
		IdealRatio:         1,
		Interpretation:     InterpNormal,
		InterpretedBaseBPM: sourceBPM,
	}
	if !positiveFinite(sourceBPM) || !positiveFinite(targetBPM) {
		return none
	}

	candidates := [3]struct {
		bpm    float64
		interp Interpretation
	}{
		{sourceBPM, InterpNormal},
		{sourceBPM / 2, InterpHalf},
		{sourceBPM * 2, InterpDouble},
	}

	best := none
	for _, c := range candidates {
		if c.bpm < minPlausibleBPM || c.bpm > maxPlausibleBPM {
			continue
		}
		ratio := targetBPM / c.bpm
		pct := math.Abs(ratio-1) * 100
		if pct < best.RequiredShiftPct {
			best = ShiftInfo{
				RequiredShiftPct:   pct,
				IdealRatio:         ratio,
				Interpretation:     c.interp,
				InterpretedBaseBPM: c.bpm,
			}
		}
	}
	return best
}

// Zone is the UI-facing match quality band. These are display colors, not
// safety gates; the cap decision is what actually disables matching.
type Zone string

const (
	ZoneGreen  Zone = "green"
	ZoneYellow Zone = "yellow"
	ZoneOrange Zone = "orange"
	ZoneRed    Zone = "red"
)

// ComputeTempoMatchZone classifies a required shift percentage.
func ComputeTempoMatchZone(pct float64) Zone {
	switch {
	case pct <= 6:
		return ZoneGreen
	case pct <= 10:
		return ZoneYellow
	case pct <= 15:
		return ZoneOrange
	default:
		return ZoneRed
	}
}

// CapVariant describes how the configured tempo cap applied to a transition.
type CapVariant string

const (
	VariantDisabled CapVariant = "disabled"
	VariantUnderCap CapVariant = "under_cap"
	VariantNearCap  CapVariant = "near_cap"
	VariantOverCap  CapVariant = "over_cap"
)

// CapInput carries everything the cap decision depends on.
type CapInput struct {
	TempoControlEnabled bool
	Mode                string  // "auto", "locked" or "original"; cap only gates auto
	RequiredShiftPct    float64
	RawMaxTempoPercent  float64 // raw configured cap; values <=1 are a legacy fraction
	NearCapFraction     float64 // 0 means the default 0.8
}

// CapDecision is the resolved verdict for one transition.
type CapDecision struct {
	CapPctUsed     float64
	OverCap        bool
	NearCap        bool
	WillTempoMatch bool
	Variant        CapVariant
}

// GetTempoCapDecision resolves whether an automatic tempo shift is allowed.
// The raw cap is normalized first: an old settings version stored the cap as a
// fraction, so values <=1 are multiplied by 100 before clamping to [0,100].
// The over-cap compare rounds both sides to 4 decimals before the epsilon
// test, which makes the boundary deterministic: a shift exactly equal to the
// cap is not over it.
func GetTempoCapDecision(in CapInput) CapDecision {
	capPct := in.RawMaxTempoPercent
	if capPct <= 1 {
		capPct *= 100
	}
	if capPct < 0 || math.IsNaN(capPct) {
		capPct = 0
	} else if capPct > 100 {
		capPct = 100
	}

	if !in.TempoControlEnabled {
		return CapDecision{CapPctUsed: capPct, Variant: VariantDisabled}
	}
	if in.Mode != "auto" {
		return CapDecision{CapPctUsed: capPct, WillTempoMatch: true, Variant: VariantUnderCap}
	}

	frac := in.NearCapFraction
	if frac <= 0 {
		frac = 0.8
	}

	overCap := round4(in.RequiredShiftPct)-round4(capPct) > 1e-6
	nearCap := !overCap && in.RequiredShiftPct >= capPct*frac

	variant := VariantUnderCap
	if overCap {
		variant = VariantOverCap
	} else if nearCap {
		variant = VariantNearCap
	}

	return CapDecision{
		CapPctUsed:     capPct,
		OverCap:        overCap,
		NearCap:        nearCap,
		WillTempoMatch: !overCap,
		Variant:        variant,
	}
}

func round4(v float64) float64 {
	if math.IsInf(v, 0) || math.IsNaN(v) {
		return v
	}
	return math.Round(v*1e4) / 1e4
}

func positiveFinite(v float64) bool {
	return v > 0 && !math.IsInf(v, 1) && !math.IsNaN(v)
}
