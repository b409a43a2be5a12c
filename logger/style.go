package logger

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
)

// colors lifted from the pack's console-styling convention: a small fixed
// palette keyed by level/field name rather than a generic theme.
const (
	colorGray    = "#8d8d8d"
	colorBlue    = "#78a9ff"
	colorGreen   = "#42be65"
	colorOrange  = "#ff832b"
	colorRed     = "#da1e28"
	colorRedHot  = "#ff0000"
)

type styles struct {
	Levels          map[string]lipgloss.Style
	DefaultKeyStyle lipgloss.Style
	MessageStyle    lipgloss.Style
}

func defaultStyles() *styles {
	return &styles{
		DefaultKeyStyle: lipgloss.NewStyle().Foreground(lipgloss.Color(colorBlue)),
		MessageStyle:    lipgloss.NewStyle(),
		Levels: map[string]lipgloss.Style{
			"debug": lipgloss.NewStyle().Foreground(lipgloss.Color(colorGray)),
			"info":  lipgloss.NewStyle().Foreground(lipgloss.Color(colorGreen)),
			"warn":  lipgloss.NewStyle().Foreground(lipgloss.Color(colorOrange)),
			"error": lipgloss.NewStyle().Foreground(lipgloss.Color(colorRed)),
			"panic": lipgloss.NewStyle().Foreground(lipgloss.Color(colorRedHot)),
		},
	}
}

func (s *styles) formatLevel(i any) string {
	lvl := fmt.Sprintf("%v", i)
	style, ok := s.Levels[strings.ToLower(lvl)]
	if !ok {
		return strings.ToUpper(lvl)
	}
	return style.Render(strings.ToUpper(lvl))
}

func (s *styles) formatFieldName(i any) string {
	return s.DefaultKeyStyle.Render(fmt.Sprintf("%v=", i))
}

func (s *styles) formatMessage(i any) string {
	if i == nil {
		return ""
	}
	return s.MessageStyle.Render(fmt.Sprintf("%v", i))
}
