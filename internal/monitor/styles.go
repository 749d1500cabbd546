package monitor

import "github.com/charmbracelet/lipgloss"

// Styles contains styling for the spectator view
type Styles struct {
	Header    lipgloss.Style
	Stage     lipgloss.Style
	Action    lipgloss.Style
	Winner    lipgloss.Style
	CardRed   lipgloss.Style
	CardBlack lipgloss.Style
	Pot       lipgloss.Style
	Warning   lipgloss.Style
	Dim       lipgloss.Style
}

// NewStyles creates the styles for a renderer
func NewStyles(r *lipgloss.Renderer) *Styles {
	return &Styles{
		Header: r.NewStyle().
			Foreground(lipgloss.Color("#FFFFFF")).
			Background(lipgloss.Color("#7D56F4")).
			Padding(0, 2).
			Bold(true),
		Stage: r.NewStyle().
			Foreground(lipgloss.Color("#FFD700")).
			Bold(true),
		Action: r.NewStyle().
			Foreground(lipgloss.Color("#74B9FF")),
		Winner: r.NewStyle().
			Foreground(lipgloss.Color("#FFD700")).
			Bold(true),
		CardRed: r.NewStyle().
			Foreground(lipgloss.Color("#FF6B6B")).
			Bold(true),
		CardBlack: r.NewStyle().
			Foreground(lipgloss.Color("#FAFAFA")).
			Bold(true),
		Pot: r.NewStyle().
			Foreground(lipgloss.Color("#FFD700")).
			Bold(true),
		Warning: r.NewStyle().
			Foreground(lipgloss.Color("#FFEAA7")).
			Bold(true),
		Dim: r.NewStyle().
			Foreground(lipgloss.Color("#626262")),
	}
}
