package display

import "fmt"

// Side labels used by the API
const (
	SideA = "a"
	SideB = "b"
)

// SideLabel names a side the way players see the device
func SideLabel(side string) string {
	switch side {
	case SideA:
		return "top"
	case SideB:
		return "bottom"
	default:
		return "-"
	}
}

// TimerLine renders one side's time and move count. Flagged sides are red,
// the running side bold green, paused sides dim.
func TimerLine(side string, seconds, moves int, running, flagged bool) string {
	var color string
	switch {
	case flagged:
		color = Red + Bold
	case running:
		color = Green + Bold
	default:
		color = Dim
	}
	return fmt.Sprintf("  %-6s %s%s%s  moves: %d", SideLabel(side), color, FormatSeconds(seconds), Reset, moves)
}
