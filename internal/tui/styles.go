package tui

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
)

// Palette used by the wizard and the devices table.
var (
	ColorPrimary   = lipgloss.Color("#0EA5E9") // sky
	ColorSecondary = lipgloss.Color("#F472B6") // pink
	ColorSuccess   = lipgloss.Color("#22C55E")
	ColorWarning   = lipgloss.Color("#F59E0B")
	ColorText      = lipgloss.Color("#F8FAFC")
	ColorMuted     = lipgloss.Color("#94A3B8")
	ColorSubtle    = lipgloss.Color("#64748B")
)

var (
	StyleHeader    = lipgloss.NewStyle().Bold(true).Foreground(ColorPrimary).MarginBottom(1)
	StyleLabel     = lipgloss.NewStyle().Bold(true).Foreground(ColorText)
	StyleSuccess   = lipgloss.NewStyle().Foreground(ColorSuccess)
	StyleWarning   = lipgloss.NewStyle().Foreground(ColorWarning)
	StyleMuted     = lipgloss.NewStyle().Foreground(ColorMuted)
	StyleHighlight = lipgloss.NewStyle().Bold(true).Foreground(ColorSecondary) // default input device
)

const logoASCII = `
           _               _
 _ __ ___ (_) ___ ___  ___| |_ _ __ ___  __ _ _ __ ___
| '_ ` + "`" + ` _ \| |/ __/ __|/ __| __| '__/ _ \/ _` + "`" + ` | '_ ` + "`" + ` _ \
| | | | | | | (__\__ \ (__| |_| | |  __/ (_| | | | | | |
|_| |_| |_|_|\___|___/\___|\__|_|  \___|\__,_|_| |_| |_|`

// Logo returns the micstream banner.
func Logo() string {
	return StyleHeader.Render(strings.Trim(logoASCII, "\n"))
}
