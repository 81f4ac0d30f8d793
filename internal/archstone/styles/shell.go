package styles

import (
	"strings"

	"github.com/charmbracelet/lipgloss/v2"
	"github.com/charmbracelet/x/exp/charmtone"

	"archstone/internal/isa"
)

// Shell styles.
var (
	Prompt   = lipgloss.NewStyle().Foreground(lipgloss.Color(charmtone.Charple.Hex())).Bold(true)
	Address  = lipgloss.NewStyle().Foreground(lipgloss.Color("240"))
	Text     = lipgloss.NewStyle().Foreground(lipgloss.Color(charmtone.Smoke.Hex()))
	Sentinel = lipgloss.NewStyle().Foreground(lipgloss.Color(charmtone.Cheeky.Hex())).Bold(true)
	Error    = lipgloss.NewStyle().Foreground(lipgloss.Color("196"))
	Menu     = lipgloss.NewStyle().
			Background(lipgloss.Color("235")).
			Foreground(lipgloss.Color("252")).
			Padding(0, 1)
)

// Result renders one shell result line, marking the undefined and
// unpredictable sentinels.
func Result(prefix, text string) string {
	style := Text
	switch strings.ToUpper(text) {
	case isa.TextUndefined, isa.TextUnpredictable, isa.TextUnimplemented:
		style = Sentinel
	}
	return Address.Render(prefix+":") + " " + style.Render(text)
}
