// Package main implements an interactive client for the chess clock server API.
package main

import (
	"flag"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/chzyer/readline"

	"chessclock/internal/client/commands"
	"chessclock/internal/client/display"
	"chessclock/internal/client/session"
)

func main() {
	apiURL := flag.String("api", getEnv("CHESSCLOCK_API_URL", "http://localhost:8080"), "Chess clock API base URL")
	history := flag.String("history", ".chessclock_history", "Readline history file")
	flag.Parse()

	s := session.New(strings.TrimRight(*apiURL, "/"))
	registry := commands.NewRegistry(s)

	rl, err := readline.NewEx(&readline.Config{
		Prompt:          display.Prompt("clock"),
		HistoryFile:     *history,
		AutoComplete:    completer(registry),
		InterruptPrompt: "^C",
		EOFPrompt:       "exit",
	})
	if err != nil {
		fmt.Printf("%s%s%s\n", display.Red, err.Error(), display.Reset)
		os.Exit(1)
	}
	defer rl.Close()

	fmt.Printf("%sChess Clock Client%s\n", display.Cyan, display.Reset)
	fmt.Printf("%sAPI: %s%s\n", display.Cyan, s.APIBaseURL, display.Reset)
	fmt.Printf("Type 'help' for commands\n\n")

	for {
		rl.SetPrompt(buildPrompt(s))

		line, err := rl.Readline()
		if err == io.EOF {
			break
		}
		if err != nil {
			continue
		}

		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}

		if line == "exit" || line == "quit" || line == "x" {
			break
		}

		if strings.HasSuffix(line, " -v") {
			s.Verbose = true
			line = strings.TrimSuffix(line, " -v")
		} else {
			s.Verbose = false
		}

		registry.Execute(line)
	}

	fmt.Printf("%sGoodbye!%s\n", display.Cyan, display.Reset)
}

func completer(r *commands.Registry) *readline.PrefixCompleter {
	var items []readline.PrefixCompleterInterface
	for _, name := range r.Names() {
		items = append(items, readline.PcItem(name))
	}
	return readline.NewPrefixCompleter(items...)
}

func buildPrompt(s *session.Session) string {
	promptStr := "clock"

	if s.CurrentClock != "" {
		id := s.CurrentClock
		if len(id) > 8 {
			id = id[:8]
		}
		promptStr += display.Yellow + " [" + display.Reset + display.White + id + display.Reset + display.Yellow + "]"
	}

	if c := s.ClockState; c != nil {
		a := display.FormatSeconds(c.SideA.SecondsRemaining)
		b := display.FormatSeconds(c.SideB.SecondsRemaining)
		switch {
		case c.GameOver:
			promptStr += fmt.Sprintf(" %s%s|%s%s", display.Red, a, b, display.Reset)
		case c.ActiveSide != "":
			promptStr += fmt.Sprintf(" %s %s|%s -> %s", c.TimeControl.ID, a, b, display.SideLabel(c.ActiveSide))
		default:
			promptStr += fmt.Sprintf(" %s %s|%s", c.TimeControl.ID, a, b)
		}
	}

	return display.Prompt(promptStr)
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
