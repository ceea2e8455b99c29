package commands

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"

	"chessclock/internal/client/api"
	"chessclock/internal/client/display"
)

func (r *Registry) registerClockCommands() {
	r.Register(&Command{
		Name:        "list",
		ShortName:   "l",
		Description: "List available time controls",
		Usage:       "list",
		Handler:     listHandler,
	})

	r.Register(&Command{
		Name:        "new",
		ShortName:   "n",
		Description: "Create a new clock",
		Usage:       "new [timeControl]",
		Handler:     newClockHandler,
	})

	r.Register(&Command{
		Name:        "join",
		ShortName:   "j",
		Description: "Set current clock ID",
		Usage:       "join <clockId>",
		Handler:     joinHandler,
	})

	r.Register(&Command{
		Name:        "tap",
		ShortName:   "t",
		Description: "Tap after completing a move",
		Usage:       "tap <a|b|top|bottom>",
		Handler:     tapHandler,
	})

	r.Register(&Command{
		Name:        "reset",
		ShortName:   "r",
		Description: "Reset the clock to full time",
		Usage:       "reset",
		Handler:     resetHandler,
	})

	r.Register(&Command{
		Name:        "select",
		ShortName:   "s",
		Description: "Select a time control and reset",
		Usage:       "select <timeControl>",
		Handler:     selectHandler,
	})

	r.Register(&Command{
		Name:        "show",
		ShortName:   "h",
		Description: "Show clock timers",
		Usage:       "show [clockId]",
		Handler:     showHandler,
	})

	r.Register(&Command{
		Name:        "state",
		ShortName:   "z",
		Description: "Show raw clock JSON",
		Usage:       "state",
		Handler:     stateHandler,
	})

	r.Register(&Command{
		Name:        "watch",
		ShortName:   "w",
		Description: "Follow clock updates until the game ends",
		Usage:       "watch [updates]",
		Handler:     watchHandler,
	})

	r.Register(&Command{
		Name:        "delete",
		ShortName:   "d",
		Description: "Delete a clock",
		Usage:       "delete [clockId]",
		Handler:     deleteHandler,
	})
}

// renderClock writes both timers, top side first, under a header line
func renderClock(w io.Writer, c *api.ClockResponse) {
	id := c.ClockID
	if len(id) > 8 {
		id = id[:8]
	}
	fmt.Fprintf(w, "\n%s%s%s  %s%s%s  %s  v%d\n",
		display.White, id, display.Reset,
		display.Cyan, c.TimeControl.ID, display.Reset,
		stateLabel(c), c.Version)

	for _, side := range []string{display.SideA, display.SideB} {
		t := c.SideA
		if side == display.SideB {
			t = c.SideB
		}
		running := c.State == api.StateRunning && c.ActiveSide == side
		flagged := c.GameOver && t.SecondsRemaining == 0
		fmt.Fprintln(w, display.TimerLine(side, t.SecondsRemaining, t.MovesPlayed, running, flagged))
	}
}

func stateLabel(c *api.ClockResponse) string {
	switch c.State {
	case api.StateRunning:
		return display.Green + "running, " + display.SideLabel(c.ActiveSide) + " to move" + display.Reset
	case api.StateGameOver:
		return display.Red + "game over" + display.Reset
	default:
		return display.Yellow + strings.ReplaceAll(c.State, "_", " ") + display.Reset
	}
}

func requireClock(s Session) (string, error) {
	id := s.GetCurrentClock()
	if id == "" {
		return "", fmt.Errorf("no current clock, use 'new' or 'join' first")
	}
	return id, nil
}

// applyClock caches and renders a clock returned by the server
func applyClock(s Session, c *api.ClockResponse) {
	s.SetClockState(c)
	if !s.IsVerbose() {
		renderClock(s.Output(), c)
	}
}

func listHandler(s Session, args []string) error {
	resp, err := s.GetClient().ListTimeControls()
	if err != nil {
		return err
	}

	out := s.Output()
	fmt.Fprintf(out, "%sTime Controls:%s\n", display.Cyan, display.Reset)
	lastCategory := ""
	for _, tc := range resp.TimeControls {
		if tc.Category != lastCategory {
			fmt.Fprintf(out, "  %s%s%s\n", display.Yellow, tc.Category, display.Reset)
			lastCategory = tc.Category
		}
		marker := ""
		if tc.ID == resp.Default {
			marker = display.Green + " (default)" + display.Reset
		}
		fmt.Fprintf(out, "    %-6s %s +%ds%s\n", tc.ID, display.FormatSeconds(tc.StartSeconds), tc.IncrementSeconds, marker)
	}
	return nil
}

func newClockHandler(s Session, args []string) error {
	timeControl := ""
	if len(args) > 0 {
		timeControl = args[0]
	}

	c, err := s.GetClient().CreateClock(timeControl)
	if err != nil {
		return err
	}

	fmt.Fprintf(s.Output(), "%sClock created: %s%s\n", display.Cyan, c.ClockID, display.Reset)
	applyClock(s, c)
	return nil
}

func joinHandler(s Session, args []string) error {
	if len(args) < 1 {
		return fmt.Errorf("usage: join <clockId>")
	}

	c, err := s.GetClient().GetClock(args[0])
	if err != nil {
		return err
	}
	applyClock(s, c)
	return nil
}

func tapHandler(s Session, args []string) error {
	if len(args) < 1 {
		return fmt.Errorf("usage: tap <a|b|top|bottom>")
	}
	id, err := requireClock(s)
	if err != nil {
		return err
	}

	c, err := s.GetClient().Tap(id, strings.ToLower(args[0]))
	if err != nil {
		return err
	}
	applyClock(s, c)
	return nil
}

func resetHandler(s Session, args []string) error {
	id, err := requireClock(s)
	if err != nil {
		return err
	}

	c, err := s.GetClient().Reset(id)
	if err != nil {
		return err
	}
	applyClock(s, c)
	return nil
}

func selectHandler(s Session, args []string) error {
	if len(args) < 1 {
		return fmt.Errorf("usage: select <timeControl>")
	}
	id, err := requireClock(s)
	if err != nil {
		return err
	}

	c, err := s.GetClient().SelectTimeControl(id, args[0])
	if err != nil {
		return err
	}
	applyClock(s, c)
	return nil
}

func showHandler(s Session, args []string) error {
	id := s.GetCurrentClock()
	if len(args) > 0 {
		id = args[0]
	}
	if id == "" {
		return fmt.Errorf("no current clock, use 'new' or 'join' first")
	}

	c, err := s.GetClient().GetClock(id)
	if err != nil {
		return err
	}
	applyClock(s, c)
	return nil
}

func stateHandler(s Session, args []string) error {
	id, err := requireClock(s)
	if err != nil {
		return err
	}

	c, err := s.GetClient().GetClock(id)
	if err != nil {
		return err
	}
	s.SetClockState(c)
	display.PrettyPrintJSON(s.Output(), c)
	return nil
}

// watchHandler long-polls the current clock, rendering every update. It
// stops on game over, when a running clock is reset, when the clock is
// deleted or after the requested number of updates.
func watchHandler(s Session, args []string) error {
	id, err := requireClock(s)
	if err != nil {
		return err
	}

	limit := 0
	if len(args) > 0 {
		limit, err = strconv.Atoi(args[0])
		if err != nil || limit < 1 {
			return fmt.Errorf("updates must be a positive number")
		}
	}

	c := s.GetClockState()
	if c == nil || c.ClockID != id {
		if c, err = s.GetClient().GetClock(id); err != nil {
			return err
		}
		applyClock(s, c)
	}
	if c.GameOver {
		return nil
	}

	out := s.Output()
	fmt.Fprintf(out, "%sWatching %s...%s\n", display.Cyan, id, display.Reset)

	for updates := 0; limit == 0 || updates < limit; updates++ {
		next, err := s.GetClient().GetClockWithPoll(id, c.Version)
		if err != nil {
			var apiErr *api.APIError
			if errors.As(err, &apiErr) && apiErr.Status == http.StatusNotFound {
				s.SetCurrentClock("")
				fmt.Fprintf(out, "%sClock deleted%s\n", display.Yellow, display.Reset)
				return nil
			}
			return err
		}
		if next.Version == c.Version {
			continue // poll window elapsed without change
		}

		wasRunning := c.State == api.StateRunning
		c = next
		applyClock(s, c)

		if c.GameOver || (wasRunning && c.State == api.StateIdle) {
			return nil
		}
	}
	return nil
}

func deleteHandler(s Session, args []string) error {
	id := s.GetCurrentClock()
	if len(args) > 0 {
		id = args[0]
	}
	if id == "" {
		return fmt.Errorf("no clock ID provided and no current clock")
	}

	if err := s.GetClient().DeleteClock(id); err != nil {
		return err
	}

	if id == s.GetCurrentClock() {
		s.SetClockState(nil)
		s.SetCurrentClock("")
	}
	fmt.Fprintf(s.Output(), "%sClock deleted: %s%s\n", display.Cyan, id, display.Reset)
	return nil
}
