package main

import (
	"image/color"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/theme"

	"github.com/kodabkr/Multi-Clicker/internal/core/accent"
)

// multiTheme is the dark theme with the user's accent applied. A new value
// is installed whenever the accent changes.
type multiTheme struct {
	base   fyne.Theme
	colors accent.Colors
}

func newMultiTheme(colors accent.Colors) fyne.Theme {
	return &multiTheme{base: theme.DarkTheme(), colors: colors}
}

func withAlpha(c color.NRGBA, alpha uint8) color.NRGBA {
	c.A = alpha
	return c
}

func (t *multiTheme) Color(name fyne.ThemeColorName, variant fyne.ThemeVariant) color.Color {
	switch name {
	case theme.ColorNameBackground:
		return color.NRGBA{R: 0x1a, G: 0x1a, B: 0x1a, A: 0xff}
	case theme.ColorNameHeaderBackground:
		return color.NRGBA{R: 0x21, G: 0x21, B: 0x21, A: 0xff}
	case theme.ColorNameButton:
		return color.NRGBA{R: 0x2b, G: 0x2b, B: 0x2b, A: 0xff}
	case theme.ColorNameDisabledButton:
		return color.NRGBA{R: 0x24, G: 0x24, B: 0x24, A: 0xff}
	case theme.ColorNameInputBackground:
		return color.NRGBA{R: 0x34, G: 0x36, B: 0x38, A: 0xff}
	case theme.ColorNameInputBorder, theme.ColorNameSeparator:
		return color.NRGBA{R: 0x56, G: 0x5b, B: 0x5e, A: 0xff}
	case theme.ColorNamePrimary, theme.ColorNameHyperlink:
		return t.colors.Accent
	case theme.ColorNameFocus:
		return t.colors.Focus
	case theme.ColorNameHover:
		return withAlpha(t.colors.Hover, 0x33)
	case theme.ColorNamePressed:
		return withAlpha(t.colors.Pressed, 0x55)
	case theme.ColorNameSelection:
		return withAlpha(t.colors.Accent, 0x44)
	case theme.ColorNameScrollBar:
		return withAlpha(t.colors.Accent, 0x99)
	case theme.ColorNameForeground:
		return color.NRGBA{R: 0xdc, G: 0xe4, B: 0xee, A: 0xff}
	case theme.ColorNameError:
		return color.NRGBA{R: 0xff, G: 0x55, B: 0x55, A: 0xff}
	}
	return t.base.Color(name, variant)
}

func (t *multiTheme) Font(style fyne.TextStyle) fyne.Resource {
	return t.base.Font(style)
}

func (t *multiTheme) Icon(name fyne.ThemeIconName) fyne.Resource {
	return t.base.Icon(name)
}

func (t *multiTheme) Size(name fyne.ThemeSizeName) float32 {
	switch name {
	case theme.SizeNamePadding:
		return 6
	case theme.SizeNameInputRadius:
		return 6
	}
	return t.base.Size(name)
}
