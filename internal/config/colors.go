package config

import (
	"fmt"

	"github.com/ajramos/courrier/internal/courrier"
	"github.com/derailed/tcell/v2"
)

// Color is a theme colour: a #rrggbb value, a tcell colour name, or
// "default" for the terminal's own colour
type Color string

// DefaultColor leaves the terminal colour untouched
const DefaultColor Color = "default"

// NewColor returns a new color
func NewColor(c string) Color {
	return Color(c)
}

// String returns the colour as #rrggbb, or "-" when it has no RGB value
func (c Color) String() string {
	if len(c) == 7 && c[0] == '#' {
		return string(c)
	}
	if c == DefaultColor {
		return "-"
	}
	if hex := c.Color().TrueColor().Hex(); hex >= 0 {
		return fmt.Sprintf("#%06x", hex)
	}
	return "-"
}

// Color returns the tcell colour
func (c Color) Color() tcell.Color {
	if c == DefaultColor || c == "" {
		return tcell.ColorDefault
	}
	return tcell.GetColor(string(c)).TrueColor()
}

// StatusColors defines one colour per record status
type StatusColors struct {
	Pending    Color `yaml:"pending"`
	InProgress Color `yaml:"inProgress"`
	Processed  Color `yaml:"processed"`
	Archived   Color `yaml:"archived"`
	Unknown    Color `yaml:"unknown"`
}

// BorderColors colours table borders; the focused register uses FocusColor
type BorderColors struct {
	FgColor    Color `yaml:"fgColor"`
	FocusColor Color `yaml:"focusColor"`
}

// TitleColors colours table titles and the active search filter
type TitleColors struct {
	FgColor     Color `yaml:"fgColor"`
	FilterColor Color `yaml:"filterColor"`
}

// FrameColors defines colors for UI frame elements
type FrameColors struct {
	Border BorderColors `yaml:"border"`
	Title  TitleColors  `yaml:"title"`
}

// TableColors defines colors for table elements
type TableColors struct {
	FgColor       Color `yaml:"fgColor"`
	BgColor       Color `yaml:"bgColor"`
	HeaderFgColor Color `yaml:"headerFgColor"`
}

// BodyColors defines colors for body elements
type BodyColors struct {
	FgColor Color `yaml:"fgColor"`
	BgColor Color `yaml:"bgColor"`
}

// Theme defines the complete color configuration
type Theme struct {
	Name   string       `yaml:"name,omitempty"`
	Body   BodyColors   `yaml:"body"`
	Frame  FrameColors  `yaml:"frame"`
	Table  TableColors  `yaml:"table"`
	Status StatusColors `yaml:"status"`
}

// StatusColor returns the colour of s, using Unknown for unrecognized values
func (t *Theme) StatusColor(s courrier.Status) Color {
	if t == nil {
		return DefaultColor
	}
	var c Color
	switch s.Canonical() {
	case courrier.StatusPending:
		c = t.Status.Pending
	case courrier.StatusInProgress:
		c = t.Status.InProgress
	case courrier.StatusProcessed:
		c = t.Status.Processed
	case courrier.StatusArchived:
		c = t.Status.Archived
	default:
		c = t.Status.Unknown
	}
	if c == "" {
		return DefaultColor
	}
	return c
}

// DefaultTheme returns the built-in dark theme
func DefaultTheme() *Theme {
	return &Theme{
		Name: "courrier-dark",
		Body: BodyColors{FgColor: "#f8f8f2", BgColor: "#282a36"},
		Frame: FrameColors{
			Border: BorderColors{FgColor: "#44475a", FocusColor: "#6272a4"},
			Title:  TitleColors{FgColor: "#f8f8f2", FilterColor: "#8be9fd"},
		},
		Table: TableColors{FgColor: "#f8f8f2", BgColor: "#282a36", HeaderFgColor: "#50fa7b"},
		Status: StatusColors{
			Pending:    "#f1fa8c",
			InProgress: "#8be9fd",
			Processed:  "#50fa7b",
			Archived:   "#6272a4",
			Unknown:    "#ff5555",
		},
	}
}
