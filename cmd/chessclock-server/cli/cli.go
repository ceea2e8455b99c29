package cli

import (
	"flag"
	"fmt"
	"io"
	"os"
	"strings"
	"text/tabwriter"

	"chessclock/internal/server/storage"
)

// Run is the entry point for the db mini-app
func Run(args []string) error {
	return run(os.Stdout, args)
}

func run(out io.Writer, args []string) error {
	if len(args) == 0 {
		return fmt.Errorf("subcommand required: init, delete, query")
	}

	switch args[0] {
	case "init":
		return runInit(out, args[1:])
	case "delete":
		return runDelete(out, args[1:])
	case "query":
		return runQuery(out, args[1:])
	default:
		return fmt.Errorf("unknown subcommand: %s", args[0])
	}
}

func parsePath(name string, args []string, extra func(fs *flag.FlagSet)) (string, error) {
	fs := flag.NewFlagSet(name, flag.ContinueOnError)
	path := fs.String("path", "", "Database file path (required)")
	if extra != nil {
		extra(fs)
	}

	if err := fs.Parse(args); err != nil {
		return "", err
	}
	if *path == "" {
		return "", fmt.Errorf("database path required")
	}
	return *path, nil
}

func runInit(out io.Writer, args []string) error {
	path, err := parsePath("init", args, nil)
	if err != nil {
		return err
	}

	store, err := storage.NewStore(path, false)
	if err != nil {
		return fmt.Errorf("failed to create store: %w", err)
	}
	defer store.Close()

	if err := store.InitDB(); err != nil {
		return fmt.Errorf("failed to initialize database: %w", err)
	}

	fmt.Fprintf(out, "Database initialized at: %s\n", path)
	return nil
}

func runDelete(out io.Writer, args []string) error {
	path, err := parsePath("delete", args, nil)
	if err != nil {
		return err
	}

	store, err := storage.NewStore(path, false)
	if err != nil {
		return fmt.Errorf("failed to open store: %w", err)
	}

	if err := store.DeleteDB(); err != nil {
		return fmt.Errorf("failed to delete database: %w", err)
	}

	fmt.Fprintf(out, "Database deleted: %s\n", path)
	return nil
}

func runQuery(out io.Writer, args []string) error {
	var clockID, timeControl *string
	path, err := parsePath("query", args, func(fs *flag.FlagSet) {
		clockID = fs.String("clockId", "", "Clock ID to filter (optional, * for all)")
		timeControl = fs.String("timeControl", "", "Time control to filter, e.g. 5+3 (optional, * for all)")
	})
	if err != nil {
		return err
	}

	store, err := storage.NewStore(path, false)
	if err != nil {
		return fmt.Errorf("failed to open store: %w", err)
	}
	defer store.Close()

	clocks, err := store.QueryClocks(*clockID, *timeControl)
	if err != nil {
		return fmt.Errorf("query failed: %w", err)
	}

	if len(clocks) == 0 {
		fmt.Fprintln(out, "No clocks found")
		return nil
	}

	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "Clock ID\tTime Control\tCreated\tUpdated")
	fmt.Fprintln(w, strings.Repeat("-", 80))

	for _, c := range clocks {
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\n",
			c.ClockID,
			c.TimeControl,
			c.CreatedAt.Format("2006-01-02 15:04:05"),
			c.UpdatedAt.Format("2006-01-02 15:04:05"),
		)
	}
	w.Flush()

	fmt.Fprintf(out, "\nFound %d clock(s)\n", len(clocks))
	return nil
}
