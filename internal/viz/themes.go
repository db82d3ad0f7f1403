package viz

import "github.com/charmbracelet/lipgloss"

// Theme is the page palette. Cap colors are indexed by knob_type.
type Theme struct {
	Name      string
	Title     lipgloss.Color
	Text      lipgloss.Color
	Muted     lipgloss.Color
	Focus     lipgloss.Color
	Indicator lipgloss.Color
	Caps      map[string]lipgloss.Color
}

var (
	ThemeStudio = Theme{
		Name:      "studio",
		Title:     lipgloss.Color("#00cccc"),
		Text:      lipgloss.Color("#ffffff"),
		Muted:     lipgloss.Color("#666688"),
		Focus:     lipgloss.Color("#ff00ff"),
		Indicator: lipgloss.Color("#ffff00"),
		Caps: map[string]lipgloss.Color{
			"1": lipgloss.Color("#c0c8d0"), // chrome
			"2": lipgloss.Color("#8a8a8a"), // black
			"3": lipgloss.Color("#d9a05b"), // vintage
		},
	}

	ThemeRetroGreen = Theme{
		Name:      "retro",
		Title:     lipgloss.Color("#00ff00"),
		Text:      lipgloss.Color("#00ff00"),
		Muted:     lipgloss.Color("#005500"),
		Focus:     lipgloss.Color("#88ff88"),
		Indicator: lipgloss.Color("#ffff00"),
		Caps: map[string]lipgloss.Color{
			"1": lipgloss.Color("#88ff88"),
			"2": lipgloss.Color("#00cc00"),
			"3": lipgloss.Color("#00aa00"),
		},
	}

	ThemeMinimal = Theme{
		Name:      "minimal",
		Title:     lipgloss.Color("#ffffff"),
		Text:      lipgloss.Color("#ffffff"),
		Muted:     lipgloss.Color("#888888"),
		Focus:     lipgloss.Color("#0088ff"),
		Indicator: lipgloss.Color("#ffffff"),
		Caps: map[string]lipgloss.Color{
			"1": lipgloss.Color("#cccccc"),
			"2": lipgloss.Color("#aaaaaa"),
			"3": lipgloss.Color("#eeeeee"),
		},
	}

	ThemeSunset = Theme{
		Name:      "sunset",
		Title:     lipgloss.Color("#ff6b6b"),
		Text:      lipgloss.Color("#fff5f5"),
		Muted:     lipgloss.Color("#8b6b8c"),
		Focus:     lipgloss.Color("#ff9ff3"),
		Indicator: lipgloss.Color("#feca57"),
		Caps: map[string]lipgloss.Color{
			"1": lipgloss.Color("#ffc048"),
			"2": lipgloss.Color("#ff4757"),
			"3": lipgloss.Color("#5fd068"),
		},
	}

	Themes = []Theme{
		ThemeStudio,
		ThemeRetroGreen,
		ThemeMinimal,
		ThemeSunset,
	}
)

// GetTheme returns a theme by name, falling back to studio.
func GetTheme(name string) Theme {
	for _, t := range Themes {
		if t.Name == name {
			return t
		}
	}
	return ThemeStudio
}

// Next returns the theme after t in Themes, wrapping around.
func (t Theme) Next() Theme {
	for i, th := range Themes {
		if th.Name == t.Name {
			return Themes[(i+1)%len(Themes)]
		}
	}
	return Themes[0]
}

// Cap returns the cap color for a knob_type.
func (t Theme) Cap(knobType string) lipgloss.Color {
	if c, ok := t.Caps[knobType]; ok {
		return c
	}
	return t.Text
}

func ThemeNames() []string {
	names := make([]string, len(Themes))
	for i, t := range Themes {
		names[i] = t.Name
	}
	return names
}
