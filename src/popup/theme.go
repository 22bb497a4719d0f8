package popup

import (
	"fmt"
	"image/color"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/theme"
)

// variantTheme pins the default theme to one variant.
type variantTheme struct {
	fyne.Theme
	variant fyne.ThemeVariant
}

func (t variantTheme) Color(name fyne.ThemeColorName, _ fyne.ThemeVariant) color.Color {
	return t.Theme.Color(name, t.variant)
}

// ThemeFor maps a config theme name to a fyne theme. "system" returns nil,
// leaving the platform preference in charge.
func ThemeFor(name string) (fyne.Theme, error) {
	switch name {
	case "dark":
		return variantTheme{Theme: theme.DefaultTheme(), variant: theme.VariantDark}, nil
	case "light":
		return variantTheme{Theme: theme.DefaultTheme(), variant: theme.VariantLight}, nil
	case "system", "":
		return nil, nil
	default:
		return nil, fmt.Errorf("invalid theme %q: expected dark, light or system", name)
	}
}
