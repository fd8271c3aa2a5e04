package style

import "github.com/charmbracelet/lipgloss"

var (
	Cyan    = lipgloss.Color("#00E5FF")
	Magenta = lipgloss.Color("#FF1B6B")
	Yellow  = lipgloss.Color("#FFB500")
	Green   = lipgloss.Color("#2AFFAA")
	Red     = lipgloss.Color("#FF5555")

	Base01 = lipgloss.Color("#6C7280") // muted text
	Base2  = lipgloss.Color("#ECEFF4") // primary text

	BuyColor  = Green
	SellColor = Red
)

// Palette groups the colors used by the report views.
type Palette struct {
	Primary   lipgloss.Color
	Accent    lipgloss.Color
	Success   lipgloss.Color
	Error     lipgloss.Color
	Warning   lipgloss.Color
	Text      lipgloss.Color
	TextMuted lipgloss.Color

	Buy  lipgloss.Color
	Sell lipgloss.Color
}

func DefaultPalette() Palette {
	return Palette{
		Primary:   Cyan,
		Accent:    Magenta,
		Success:   Green,
		Error:     Red,
		Warning:   Yellow,
		Text:      Base2,
		TextMuted: Base01,
		Buy:       BuyColor,
		Sell:      SellColor,
	}
}

// ReportStyles styles the simulation summary.
type ReportStyles struct {
	Container lipgloss.Style
	Title     lipgloss.Style
	Label     lipgloss.Style
	Value     lipgloss.Style
	Buy       lipgloss.Style
	Sell      lipgloss.Style
	Migrate   lipgloss.Style
	Failed    lipgloss.Style
}

func NewReportStyles(p Palette) ReportStyles {
	return ReportStyles{
		Container: lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(p.Primary).
			Padding(0, 2).
			MarginBottom(1),
		Title:   lipgloss.NewStyle().Foreground(p.Primary).Bold(true),
		Label:   lipgloss.NewStyle().Foreground(p.TextMuted).Width(16),
		Value:   lipgloss.NewStyle().Foreground(p.Text),
		Buy:     lipgloss.NewStyle().Foreground(p.Buy).Bold(true),
		Sell:    lipgloss.NewStyle().Foreground(p.Sell).Bold(true),
		Migrate: lipgloss.NewStyle().Foreground(p.Accent).Bold(true),
		Failed:  lipgloss.NewStyle().Foreground(p.Warning),
	}
}
