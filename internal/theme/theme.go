package theme

import (
	"image/color"
)

// Theme defines the color palette for the annotation window.
type Theme struct {
	Name string

	// General
	Background color.RGBA // Window background behind the plan
	Foreground color.RGBA // Main text color

	// Toolbar & status bar
	ToolbarBackground color.RGBA
	StatusBackground  color.RGBA
	StatusText        color.RGBA
	SectionText       color.RGBA // Group headings in the toolbar

	// Buttons
	ButtonBackground      color.RGBA
	ButtonBackgroundHover color.RGBA
	ButtonBackgroundPress color.RGBA // Selected mode or location
	ButtonText            color.RGBA
	ButtonBorder          color.RGBA
	ActiveBorder          color.RGBA // Outline of the selected category

	// Plan
	PlanBorder color.RGBA
}

// Default returns the hardcoded default light theme (fallback).
func Default() *Theme {
	return &Theme{
		Name:                  "Default",
		Background:            color.RGBA{240, 242, 246, 255},
		Foreground:            color.RGBA{0, 0, 0, 255},
		ToolbarBackground:     color.RGBA{220, 220, 220, 255},
		StatusBackground:      color.RGBA{200, 200, 200, 255},
		StatusText:            color.RGBA{0, 0, 0, 255},
		SectionText:           color.RGBA{80, 80, 80, 255},
		ButtonBackground:      color.RGBA{200, 200, 200, 255},
		ButtonBackgroundHover: color.RGBA{180, 180, 180, 255},
		ButtonBackgroundPress: color.RGBA{150, 150, 150, 255},
		ButtonText:            color.RGBA{0, 0, 0, 255},
		ButtonBorder:          color.RGBA{0, 0, 0, 255},
		ActiveBorder:          color.RGBA{51, 51, 51, 255},
		PlanBorder:            color.RGBA{160, 160, 160, 255},
	}
}
