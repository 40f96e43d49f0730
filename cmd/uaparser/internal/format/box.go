package format

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
)

var (
	boxOK = lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(lipgloss.Color("10")).
		Padding(0, 1)
	boxFailed = boxOK.BorderForeground(lipgloss.Color("9"))
	boxTitle  = lipgloss.NewStyle().Bold(true)
	boxKey    = lipgloss.NewStyle().Faint(true)
)

// PrintBox renders lines as an aligned key/value block inside a border that
// is green when ok and red otherwise. Without color the block is printed
// plain.
func (f *formatter) PrintBox(title string, lines [][2]string, ok bool) error {
	if f.quiet {
		return nil
	}

	width := 0
	for _, l := range lines {
		width = max(width, len(l[0]))
	}

	var sb strings.Builder
	for i, l := range lines {
		if i > 0 {
			sb.WriteByte('\n')
		}
		key := fmt.Sprintf("%-*s", width, l[0])
		if f.color {
			key = boxKey.Render(key)
		}
		sb.WriteString(key + "  " + l[1])
	}

	if !f.color {
		_, err := fmt.Fprintf(f.stdout, "%s\n%s\n", title, sb.String())
		return err
	}

	style := boxOK
	if !ok {
		style = boxFailed
	}
	body := lipgloss.JoinVertical(lipgloss.Left, boxTitle.Render(title), "", sb.String())
	_, err := fmt.Fprintln(f.stdout, style.Render(body))
	return err
}
