package main

import (
	"github.com/charmbracelet/lipgloss"
	colorful "github.com/lucasb-eyer/go-colorful"
	"github.com/ravelin-dev/structom/pkg/stomtypes"
)

var (
	primaryColor = lipgloss.Color("#7D56F4")
	mutedColor   = lipgloss.Color("#666666")
	borderColor  = lipgloss.Color("#383838")
	errorColor   = lipgloss.Color("#FF4B4B")

	headerStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(primaryColor).
			Padding(0, 1).
			MarginBottom(1)

	paneStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(borderColor).
			Padding(0, 1)

	activePaneStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(primaryColor).
			Padding(0, 1)

	cursorStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#1A1A1A")).
			Background(primaryColor)

	dimStyle = lipgloss.NewStyle().Foreground(mutedColor)

	statusStyle = lipgloss.NewStyle().Foreground(mutedColor).Italic(true)

	errorStyle = lipgloss.NewStyle().Foreground(errorColor).Bold(true)

	kindColors = buildKindPalette()
)

// buildKindPalette spaces a distinct hue around the color wheel for each
// Kind so a glance at the tree's type column tells scalars from
// containers apart without reading the text.
func buildKindPalette() map[stomtypes.Kind]lipgloss.Color {
	kinds := []stomtypes.Kind{
		stomtypes.KBool, stomtypes.KInt, stomtypes.KUint, stomtypes.KBigInt,
		stomtypes.KFloat, stomtypes.KStr, stomtypes.KInst, stomtypes.KDur,
		stomtypes.KUUID, stomtypes.KArr, stomtypes.KMap,
	}
	palette := make(map[stomtypes.Kind]lipgloss.Color, len(kinds))
	n := len(kinds)
	for i, k := range kinds {
		hue := 360.0 * float64(i) / float64(n)
		c := colorful.Hsv(hue, 0.55, 0.95)
		palette[k] = lipgloss.Color(c.Hex())
	}
	return palette
}

func styleForKind(k stomtypes.Kind) lipgloss.Style {
	return lipgloss.NewStyle().Foreground(kindColors[k])
}
