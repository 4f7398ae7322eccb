package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/leonardotrapani/micstream/internal/recording"
)

// RenderDevices formats the input devices as an aligned table. The default
// device is highlighted and marked with an asterisk.
func RenderDevices(devices []recording.Device) string {
	if len(devices) == 0 {
		return StyleWarning.Render("No input devices found")
	}

	nameWidth := len("NAME")
	for _, d := range devices {
		nameWidth = max(nameWidth, lipgloss.Width(d.Name))
	}
	row := func(idx, name, api, ch, rate string) string {
		return fmt.Sprintf("%-4s %-*s  %-12s %3s %8s", idx, nameWidth, name, api, ch, rate)
	}

	var b strings.Builder
	b.WriteString(StyleLabel.Render(row("#", "NAME", "HOST API", "CH", "RATE")))
	b.WriteString("\n")
	for _, d := range devices {
		idx := fmt.Sprintf("%d", d.Index)
		if d.IsDefault {
			idx += "*"
		}
		line := row(idx, d.Name, d.HostAPI, fmt.Sprintf("%d", d.MaxInputChannels), fmt.Sprintf("%.0f", d.DefaultSampleRate))
		if d.IsDefault {
			line = StyleHighlight.Render(line)
		}
		b.WriteString(line)
		b.WriteString("\n")
	}
	b.WriteString(StyleMuted.Render("* system default input"))
	return b.String()
}
