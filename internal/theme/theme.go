// Copyright (C) 2025 Dyne.org foundation
// designed, written and maintained by Denis Roio <jaromil@dyne.org>
//
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as
// published by the Free Software Foundation, either version 3 of the
// License, or (at your option) any later version.
//
// This program is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
// GNU Affero General Public License for more details.
//
// You should have received a copy of the GNU Affero General Public License
// along with this program.  If not, see <https://www.gnu.org/licenses/>.

package theme

import (
	"encoding/json"
	"os"
	"strconv"
	"strings"

	"github.com/fatih/color"
	"github.com/pterm/pterm"
)

// Theme represents the color theme for the console
type Theme struct {
	HeaderColor   string `json:"header_color"`
	PromptColor   string `json:"prompt_color"`
	OutputColor   string `json:"output_color"`
	ErrorColor    string `json:"error_color"`
	SuccessColor  string `json:"success_color"`
	MutedColor    string `json:"muted_color"`
	ProgressColor string `json:"progress_color"`
}

// ColorScheme provides pterm and color styles based on theme
type ColorScheme struct {
	Header   *pterm.Style
	Prompt   *color.Color
	Output   *color.Color
	Error    *color.Color
	Success  *color.Color
	Muted    *color.Color
	Progress *pterm.Style
}

// DefaultTheme returns a theme with default values
func DefaultTheme() *Theme {
	return &Theme{
		HeaderColor:   "#cba6f7",
		PromptColor:   "#89b4fa",
		OutputColor:   "#a6e3a1",
		ErrorColor:    "#f38ba8",
		SuccessColor:  "#a6e3a1",
		MutedColor:    "#6c7086",
		ProgressColor: "#fab387",
	}
}

// LoadTheme loads theme configuration from a JSON file. Colors missing from
// the file keep their defaults.
func LoadTheme(filepath string) (*Theme, error) {
	theme := DefaultTheme()

	// If theme file doesn't exist, return default theme
	if _, err := os.Stat(filepath); os.IsNotExist(err) {
		return theme, nil
	}

	data, err := os.ReadFile(filepath)
	if err != nil {
		return nil, err
	}

	if err := json.Unmarshal(data, theme); err != nil {
		return nil, err
	}

	return theme, nil
}

// ToColorScheme converts theme to pterm/color styles. Text roles use the
// exact RGB value; pterm styles use the nearest ANSI color.
func (t *Theme) ToColorScheme() *ColorScheme {
	return &ColorScheme{
		Header:   pterm.NewStyle(nearestANSI(t.HeaderColor), pterm.Bold),
		Prompt:   rgbColor(t.PromptColor, color.FgBlue),
		Output:   rgbColor(t.OutputColor, color.FgGreen),
		Error:    rgbColor(t.ErrorColor, color.FgRed),
		Success:  rgbColor(t.SuccessColor, color.FgGreen),
		Muted:    rgbColor(t.MutedColor, color.FgHiBlack),
		Progress: pterm.NewStyle(nearestANSI(t.ProgressColor)),
	}
}

// DefaultColorScheme returns a simple color scheme using pterm defaults
func DefaultColorScheme() *ColorScheme {
	return &ColorScheme{
		Header:   pterm.NewStyle(pterm.FgCyan, pterm.Bold),
		Prompt:   color.New(color.FgBlue),
		Output:   color.New(color.FgGreen),
		Error:    color.New(color.FgRed, color.Bold),
		Success:  color.New(color.FgGreen),
		Muted:    color.New(color.FgHiBlack),
		Progress: pterm.NewStyle(pterm.FgYellow),
	}
}

// DisabledColorScheme returns a color scheme with all colors disabled (for NO_COLOR).
func DisabledColorScheme() *ColorScheme {
	color.NoColor = true
	pterm.DisableColor()

	return &ColorScheme{
		Header:   pterm.NewStyle(),
		Prompt:   color.New(),
		Output:   color.New(),
		Error:    color.New(),
		Success:  color.New(),
		Muted:    color.New(),
		Progress: pterm.NewStyle(),
	}
}

// parseHex reads #RGB or #RRGGBB.
func parseHex(hex string) (pterm.RGB, bool) {
	s := strings.TrimPrefix(hex, "#")
	if len(s) == 3 {
		s = string([]byte{s[0], s[0], s[1], s[1], s[2], s[2]})
	}
	if len(s) != 6 {
		return pterm.RGB{}, false
	}
	v, err := strconv.ParseUint(s, 16, 32)
	if err != nil {
		return pterm.RGB{}, false
	}
	return pterm.RGB{R: uint8(v >> 16), G: uint8(v >> 8), B: uint8(v)}, true
}

func rgbColor(hex string, fallback color.Attribute) *color.Color {
	rgb, ok := parseHex(hex)
	if !ok {
		return color.New(fallback)
	}
	return color.RGB(int(rgb.R), int(rgb.G), int(rgb.B))
}

var ansiPalette = []struct {
	rgb   pterm.RGB
	color pterm.Color
}{
	{pterm.RGB{R: 0, G: 0, B: 0}, pterm.FgBlack},
	{pterm.RGB{R: 205, G: 49, B: 49}, pterm.FgRed},
	{pterm.RGB{R: 13, G: 188, B: 121}, pterm.FgGreen},
	{pterm.RGB{R: 229, G: 229, B: 16}, pterm.FgYellow},
	{pterm.RGB{R: 36, G: 114, B: 200}, pterm.FgBlue},
	{pterm.RGB{R: 188, G: 63, B: 188}, pterm.FgMagenta},
	{pterm.RGB{R: 17, G: 168, B: 205}, pterm.FgCyan},
	{pterm.RGB{R: 229, G: 229, B: 229}, pterm.FgWhite},
	{pterm.RGB{R: 102, G: 102, B: 102}, pterm.FgGray},
	{pterm.RGB{R: 241, G: 76, B: 76}, pterm.FgLightRed},
	{pterm.RGB{R: 35, G: 209, B: 139}, pterm.FgLightGreen},
	{pterm.RGB{R: 245, G: 245, B: 67}, pterm.FgLightYellow},
	{pterm.RGB{R: 59, G: 142, B: 234}, pterm.FgLightBlue},
	{pterm.RGB{R: 214, G: 112, B: 214}, pterm.FgLightMagenta},
	{pterm.RGB{R: 41, G: 184, B: 219}, pterm.FgLightCyan},
	{pterm.RGB{R: 255, G: 255, B: 255}, pterm.FgLightWhite},
}

// nearestANSI maps a hex color to the closest 16-color terminal color.
func nearestANSI(hex string) pterm.Color {
	rgb, ok := parseHex(hex)
	if !ok {
		return pterm.FgDefault
	}
	best, bestDist := pterm.FgDefault, -1
	for _, entry := range ansiPalette {
		dr := int(rgb.R) - int(entry.rgb.R)
		dg := int(rgb.G) - int(entry.rgb.G)
		db := int(rgb.B) - int(entry.rgb.B)
		dist := dr*dr + dg*dg + db*db
		if bestDist < 0 || dist < bestDist {
			best, bestDist = entry.color, dist
		}
	}
	return best
}
