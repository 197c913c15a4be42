package render

import "github.com/MeKo-Tech/gobitmap/internal/graphics"

// Theme styles the tracks and the map background. Colors are 0xAARRGGBB.
type Theme struct {
	TrackColor      uint32
	TrackFadedColor uint32
	// DarkMap inverts the grayscale background.
	DarkMap bool
}

// DefaultTheme draws blue tracks over a dark map.
var DefaultTheme = Theme{
	TrackColor:      0xFF0077FF,
	TrackFadedColor: 0x400040A0,
	DarkMap:         true,
}

// ThemeFromColors starts from DefaultTheme and replaces the colors that
// parse with a # or 0x prefix.
func ThemeFromColors(highlighted, faded string, darkMap bool) (Theme, error) {
	theme := DefaultTheme
	theme.DarkMap = darkMap

	c, ok, err := graphics.ParseColor(highlighted)
	if err != nil {
		return Theme{}, err
	}
	if ok {
		theme.TrackColor = c
	}

	c, ok, err = graphics.ParseColor(faded)
	if err != nil {
		return Theme{}, err
	}
	if ok {
		theme.TrackFadedColor = c
	}
	return theme, nil
}
