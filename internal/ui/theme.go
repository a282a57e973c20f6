package ui

import "github.com/charmbracelet/lipgloss"

// Theme is the set of styles the TUI renders with.
type Theme struct {
	Name      string
	Title     lipgloss.Style
	Header    lipgloss.Style
	Row       lipgloss.Style
	Selected  lipgloss.Style
	Completed lipgloss.Style
	Muted     lipgloss.Style
	Error     lipgloss.Style
	Label     lipgloss.Style
	Focused   lipgloss.Style
	Category  map[string]lipgloss.Style
	Priority  map[string]lipgloss.Style
}

// ThemeByName returns the named theme; anything but "light" is dark.
func ThemeByName(name string) Theme {
	if name == "light" {
		return LightTheme()
	}
	return DarkTheme()
}

// DarkTheme is for terminals with a dark background.
func DarkTheme() Theme {
	return Theme{
		Name:      "dark",
		Title:     lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("255")).Background(lipgloss.Color("62")).Padding(0, 1),
		Header:    lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("250")),
		Row:       lipgloss.NewStyle().Foreground(lipgloss.Color("252")),
		Selected:  lipgloss.NewStyle().Foreground(lipgloss.Color("255")).Background(lipgloss.Color("237")),
		Completed: lipgloss.NewStyle().Foreground(lipgloss.Color("243")).Strikethrough(true),
		Muted:     lipgloss.NewStyle().Foreground(lipgloss.Color("243")),
		Error:     lipgloss.NewStyle().Foreground(lipgloss.Color("203")),
		Label:     lipgloss.NewStyle().Foreground(lipgloss.Color("245")).Width(13),
		Focused:   lipgloss.NewStyle().Foreground(lipgloss.Color("212")).Bold(true).Width(13),
		Category: map[string]lipgloss.Style{
			"Work":     lipgloss.NewStyle().Foreground(lipgloss.Color("75")),
			"Personal": lipgloss.NewStyle().Foreground(lipgloss.Color("114")),
			"Urgent":   lipgloss.NewStyle().Foreground(lipgloss.Color("203")).Bold(true),
		},
		Priority: map[string]lipgloss.Style{
			"High":   lipgloss.NewStyle().Foreground(lipgloss.Color("203")),
			"Medium": lipgloss.NewStyle().Foreground(lipgloss.Color("221")),
			"Low":    lipgloss.NewStyle().Foreground(lipgloss.Color("246")),
		},
	}
}

// LightTheme is for terminals with a light background.
func LightTheme() Theme {
	return Theme{
		Name:      "light",
		Title:     lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("231")).Background(lipgloss.Color("25")).Padding(0, 1),
		Header:    lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("238")),
		Row:       lipgloss.NewStyle().Foreground(lipgloss.Color("235")),
		Selected:  lipgloss.NewStyle().Foreground(lipgloss.Color("232")).Background(lipgloss.Color("153")),
		Completed: lipgloss.NewStyle().Foreground(lipgloss.Color("247")).Strikethrough(true),
		Muted:     lipgloss.NewStyle().Foreground(lipgloss.Color("244")),
		Error:     lipgloss.NewStyle().Foreground(lipgloss.Color("160")),
		Label:     lipgloss.NewStyle().Foreground(lipgloss.Color("242")).Width(13),
		Focused:   lipgloss.NewStyle().Foreground(lipgloss.Color("25")).Bold(true).Width(13),
		Category: map[string]lipgloss.Style{
			"Work":     lipgloss.NewStyle().Foreground(lipgloss.Color("25")),
			"Personal": lipgloss.NewStyle().Foreground(lipgloss.Color("28")),
			"Urgent":   lipgloss.NewStyle().Foreground(lipgloss.Color("160")).Bold(true),
		},
		Priority: map[string]lipgloss.Style{
			"High":   lipgloss.NewStyle().Foreground(lipgloss.Color("160")),
			"Medium": lipgloss.NewStyle().Foreground(lipgloss.Color("130")),
			"Low":    lipgloss.NewStyle().Foreground(lipgloss.Color("242")),
		},
	}
}

// Toggle returns the other theme.
func (t Theme) Toggle() Theme {
	if t.Name == "light" {
		return DarkTheme()
	}
	return LightTheme()
}

func (t Theme) category(name string) lipgloss.Style {
	if s, ok := t.Category[name]; ok {
		return s
	}
	return t.Row
}

func (t Theme) priority(name string) lipgloss.Style {
	if s, ok := t.Priority[name]; ok {
		return s
	}
	return t.Row
}
