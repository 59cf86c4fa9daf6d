package theme

import (
	"errors"
	"fmt"
	"regexp"
)

// Common validation errors
var (
	ErrInvalidColor  = errors.New("invalid color format")
	ErrEmptyColor    = errors.New("color cannot be empty")
	ErrInvalidScheme = errors.New("invalid color scheme")
)

// hexColorRegex matches valid hex color codes (#RGB or #RRGGBB)
var hexColorRegex = regexp.MustCompile(`^#([0-9a-fA-F]{3}|[0-9a-fA-F]{6})$`)

// ValidateTheme validates all theme color values.
func ValidateTheme(t *Theme) error {
	if t == nil {
		return fmt.Errorf("theme is nil")
	}

	fields := []struct{ name, value string }{
		{"header_color", t.HeaderColor},
		{"prompt_color", t.PromptColor},
		{"output_color", t.OutputColor},
		{"error_color", t.ErrorColor},
		{"success_color", t.SuccessColor},
		{"muted_color", t.MutedColor},
		{"progress_color", t.ProgressColor},
	}

	for _, f := range fields {
		if err := ValidateColor(f.value); err != nil {
			return fmt.Errorf("%s: %w", f.name, err)
		}
	}

	return nil
}

// ValidateColor validates a single color value (hex format).
func ValidateColor(color string) error {
	if color == "" {
		return ErrEmptyColor
	}

	if !hexColorRegex.MatchString(color) {
		return fmt.Errorf("%w: %q (expected #RGB or #RRGGBB)", ErrInvalidColor, color)
	}

	return nil
}
