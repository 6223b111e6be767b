package tui

import (
	"github.com/charmbracelet/lipgloss"

	"github.com/stefanpenner/daybook/pkg/feedback"
	"github.com/stefanpenner/daybook/pkg/progress"
	"github.com/stefanpenner/daybook/pkg/store"
)

var (
	ColorPurple      = lipgloss.Color("#7D56F4")
	ColorGreen       = lipgloss.Color("#25A065")
	ColorBlue        = lipgloss.Color("#4285F4")
	ColorRed         = lipgloss.Color("#E05252")
	ColorYellow      = lipgloss.Color("#E5C07B")
	ColorGray        = lipgloss.Color("#626262")
	ColorGrayDim     = lipgloss.Color("#404040")
	ColorWhite       = lipgloss.Color("#FFFFFF")
	ColorOffWhite    = lipgloss.Color("#D0D0D0")
	ColorSelectionBg = lipgloss.Color("#2D3B4D")
	ColorCyan        = lipgloss.Color("#56B6C2")
	ColorOrange      = lipgloss.Color("#D19A66")
	ColorMoveBg      = lipgloss.Color("#3E2F1F")
)

// Header styles
var (
	HeaderStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(ColorPurple)

	HeaderCountStyle = lipgloss.NewStyle().
				Foreground(ColorGray)

	DateStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(ColorWhite).
			Background(ColorPurple).
			Padding(0, 1)

	PastDateStyle = lipgloss.NewStyle().
			Foreground(ColorYellow).
			Padding(0, 1)

	FooterStyle = lipgloss.NewStyle().
			Foreground(ColorGray)

	RunStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(ColorCyan)
)

// Tree item styles
var (
	SelectedStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(ColorWhite).
			Background(ColorSelectionBg)

	CompleteStyle = lipgloss.NewStyle().
			Foreground(ColorGreen)

	IncompleteStyle = lipgloss.NewStyle().
			Foreground(ColorOffWhite)

	MoveStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(ColorOrange).
			Background(ColorMoveBg)

	DetailStyle = lipgloss.NewStyle().
			Foreground(ColorGray)

	DepthIndent = "  "
)

// Tier styles color completion percentages.
var (
	TierHighStyle   = lipgloss.NewStyle().Bold(true).Foreground(ColorGreen)
	TierMediumStyle = lipgloss.NewStyle().Foreground(ColorYellow)
	TierLowStyle    = lipgloss.NewStyle().Foreground(ColorRed)
)

func tierStyle(t progress.Tier) lipgloss.Style {
	switch t {
	case progress.TierHigh:
		return TierHighStyle
	case progress.TierMedium:
		return TierMediumStyle
	default:
		return TierLowStyle
	}
}

// Sidebar section styles
var (
	SectionShortcutsStyle = lipgloss.NewStyle().Bold(true).Foreground(ColorBlue)
	SectionToolsStyle     = lipgloss.NewStyle().Bold(true).Foreground(ColorCyan)
	SectionFoldersStyle   = lipgloss.NewStyle().Bold(true).Foreground(ColorYellow)
	SectionAlertsStyle    = lipgloss.NewStyle().Bold(true).Foreground(ColorRed)
)

func sectionStyle(s SidebarSection) lipgloss.Style {
	switch s {
	case SectionShortcuts:
		return SectionShortcutsStyle
	case SectionTools:
		return SectionToolsStyle
	case SectionFolders:
		return SectionFoldersStyle
	default:
		return SectionAlertsStyle
	}
}

// Severity styles for the notification line.
var (
	SuccessStyle = lipgloss.NewStyle().Foreground(ColorGreen)
	ErrorStyle   = lipgloss.NewStyle().Bold(true).Foreground(ColorRed)
	InfoStyle    = lipgloss.NewStyle().Foreground(ColorCyan)
)

func severityStyle(s feedback.Severity) lipgloss.Style {
	switch s {
	case feedback.SeveritySuccess:
		return SuccessStyle
	case feedback.SeverityError:
		return ErrorStyle
	default:
		return InfoStyle
	}
}

// Modal styles
var (
	ModalStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(ColorPurple).
			Padding(1, 2)

	ModalTitleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(ColorPurple)
)

// Input styles
var (
	InputPromptStyle = lipgloss.NewStyle().
		Foreground(ColorPurple).
		Bold(true)
)

// Search styles
var (
	ColorSearchRowBg  = lipgloss.Color("#1E1A2E")
	ColorSearchCharBg = lipgloss.Color("#2E2545")

	SearchBarStyle = lipgloss.NewStyle().
			Foreground(ColorWhite)

	SearchRowStyle = lipgloss.NewStyle().
			Background(ColorSearchRowBg)

	SearchCharStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(ColorPurple).
			Background(ColorSearchCharBg)

	SearchCharSelectedStyle = lipgloss.NewStyle().
				Bold(true).
				Foreground(ColorPurple).
				Background(ColorSelectionBg)

	SearchCountStyle = lipgloss.NewStyle().
				Foreground(ColorGray)
)

// Icons
const (
	IconComplete   = "✓"
	IconIncomplete = "○"
	IconExpanded   = "▼"
	IconCollapsed  = "▶"
	IconMove       = "↕"
	IconRunning    = "⟳"
)

func kindIcon(k store.TaskKind) string {
	switch k {
	case store.KindDelay:
		return "⏱"
	case store.KindKeys:
		return "⌨"
	default:
		return "↗"
	}
}
