package config

import "sort"

// Family is a physical travel range for the indicator.
type Family struct {
	MinAngle float64
	MaxAngle float64
}

var Families = map[string]Family{
	"potentiometer": {MinAngle: -145, MaxAngle: 145},
	"dial270":       {MinAngle: -135, MaxAngle: 135},
}

// Size is the rendered footprint of a knob. Pixel values describe the web
// rendering; Cells is the terminal canvas width in character cells.
type Size struct {
	KnobPx      int
	ContainerPx int
	Shadow      string
	Cells       int
}

var Sizes = map[string]Size{
	"small":  {KnobPx: 40, ContainerPx: 70, Shadow: "4px 4px 8px rgba(0, 0, 0, 0.5)", Cells: 10},
	"medium": {KnobPx: 55, ContainerPx: 100, Shadow: "10px 10px 18px rgba(0, 0, 0, 0.9)", Cells: 14},
	"large":  {KnobPx: 110, ContainerPx: 200, Shadow: "10px 10px 18px rgba(0, 0, 0, 0.9)", Cells: 24},
}

// KnobTypes names the three cap artworks.
var KnobTypes = map[string]string{
	"1": "chrome",
	"2": "black",
	"3": "vintage",
}

var Presets = map[string]*Config{
	"single": {
		Title: "single knob",
		Knobs: []KnobConfig{DefaultKnob("knob1")},
	},
	"demo": {
		Title: "Streamlit Knobs",
		Knobs: []KnobConfig{
			{ID: "knob1", Title: "KNOB 1", KnobType: "1", Size: "medium", MinValue: 0, MaxValue: 3000},
			{ID: "knob2", Title: "KNOB 2", KnobType: "2", Size: "medium", MinValue: 0, MaxValue: 7000},
			{ID: "knob3", Title: "KNOB 3", KnobType: "3", Size: "medium", MinValue: 0, MaxValue: 10000},
		},
	},
	"mixer": {
		Title: "mixer",
		Knobs: []KnobConfig{
			{ID: "gain", Title: "GAIN", KnobType: "1", Size: "large", Mode: "absolute", MinValue: -60, MaxValue: 12, Step: Float(0.5), InitialValue: Float(0)},
			{ID: "pan", Title: "PAN", KnobType: "2", Size: "medium", MinValue: -50, MaxValue: 50, InitialValue: Float(0)},
			{ID: "fine", Title: "FINE", KnobType: "3", Size: "small", Mode: "focus", MinValue: 0, MaxValue: 1, Step: Float(0.01), InitialValue: Float(0.5)},
		},
	},
	"dial": {
		Title: "dial",
		Knobs: []KnobConfig{
			{ID: "dial", Title: "DIAL", KnobType: "2", Size: "large", Family: "dial270", Mode: "absolute", MinValue: 0, MaxValue: 10, Step: Float(0)},
		},
	},
}

// GetPreset returns a normalized copy of the named preset, or nil.
func GetPreset(name string) *Config {
	p, ok := Presets[name]
	if !ok {
		return nil
	}
	cfg := DefaultConfig()
	cfg.Title = p.Title
	cfg.Knobs = append([]KnobConfig(nil), p.Knobs...)
	cfg.Normalize()
	return cfg
}

func ListPresets() []string {
	names := make([]string, 0, len(Presets))
	for name := range Presets {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func ListFamilies() []string {
	names := make([]string, 0, len(Families))
	for name := range Families {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
