package tempo

// Preset is a mood-based tempo target, independent of any specific track.
type Preset string

const (
	PresetOriginal  Preset = "original"
	PresetChill     Preset = "chill"
	PresetRelaxed   Preset = "relaxed"
	PresetNeutral   Preset = "neutral"
	PresetEnergetic Preset = "energetic"
	PresetPeak      Preset = "peak"
)

// presetDef carries the nominal tempo ratio and the preset's own max-stretch
// cap in percent. The cap is independent of the global MaxTempoPercent
// setting: even an extreme preset never leaves its declared bound.
type presetDef struct {
	ratio      float64
	maxStretch float64
}

var presetDefs = map[Preset]presetDef{
	PresetChill:     {ratio: 0.75, maxStretch: 20},
	PresetRelaxed:   {ratio: 0.88, maxStretch: 15},
	PresetNeutral:   {ratio: 1.00, maxStretch: 0},
	PresetEnergetic: {ratio: 1.08, maxStretch: 10},
	PresetPeak:      {ratio: 1.20, maxStretch: 15},
}

// PresetInfo describes one preset for API listings.
type PresetInfo struct {
	Name       Preset  `json:"name"`
	Ratio      float64 `json:"ratio"`
	MaxStretch float64 `json:"maxStretchPct"`
}

// Presets lists every preset in a stable order, original first.
func Presets() []PresetInfo {
	order := []Preset{PresetOriginal, PresetChill, PresetRelaxed, PresetNeutral, PresetEnergetic, PresetPeak}
	out := make([]PresetInfo, 0, len(order))
	for _, p := range order {
		if p == PresetOriginal {
			out = append(out, PresetInfo{Name: p, Ratio: 1})
			continue
		}
		def := presetDefs[p]
		out = append(out, PresetInfo{Name: p, Ratio: def.ratio, MaxStretch: def.maxStretch})
	}
	return out
}

// PresetTempo is the resolved target for one track under one preset.
type PresetTempo struct {
	TargetBPM float64 // 0 when the track's BPM is unknown
	Ratio     float64
}

// ParsePreset maps a settings string to a Preset, defaulting to neutral.
func ParsePreset(s string) Preset {
	p := Preset(s)
	if _, ok := presetDefs[p]; ok || p == PresetOriginal {
		return p
	}
	return PresetNeutral
}

// ComputePresetTempo resolves the playback ratio a preset asks for, clamped
// to the preset's own stretch cap. Unknown BPM or the original preset is a
// no-op: ratio 1.0, target equal to whatever the track reported.
func ComputePresetTempo(trackBPM float64, preset Preset) PresetTempo {
	if preset == PresetOriginal || !positiveFinite(trackBPM) {
		out := PresetTempo{Ratio: 1}
		if positiveFinite(trackBPM) {
			out.TargetBPM = trackBPM
		}
		return out
	}

	def, ok := presetDefs[preset]
	if !ok {
		return PresetTempo{TargetBPM: trackBPM, Ratio: 1}
	}

	lo := 1 - def.maxStretch/100
	hi := 1 + def.maxStretch/100
	ratio := def.ratio
	if ratio < lo {
		ratio = lo
	} else if ratio > hi {
		ratio = hi
	}

	return PresetTempo{TargetBPM: trackBPM * ratio, Ratio: ratio}
}
