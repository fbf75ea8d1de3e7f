package cli

// This file contains the list command for displaying previous reproductions.

import (
	"fmt"
	"io"
	"time"

	"github.com/cfrepro/cfrepro/history"
	"github.com/urfave/cli/v2"
)

func (a *App) list(ctx *cli.Context) error {
	filterTestcase := ctx.String("testcase")
	limit := ctx.Int("limit")

	cfg, err := a.loadConfig(ctx)
	if err != nil {
		return err
	}

	// Load all history entries, newest first
	historyEntries, err := history.LoadEntries(a.logger, cfg.HistoryDir())
	if err != nil {
		return fmt.Errorf("failed to load history: %w", err)
	}

	var filteredEntries []history.Entry
	for _, entry := range historyEntries {
		if filterTestcase == "" || entry.History.TestcaseID == filterTestcase {
			filteredEntries = append(filteredEntries, entry)
		}
	}

	if len(filteredEntries) == 0 {
		if filterTestcase != "" {
			fmt.Fprintf(a.out, "No history entries found for testcase: %s\n", filterTestcase)
		} else {
			fmt.Fprintln(a.out, "No history entries found")
		}
		return nil
	}

	displayRuns := filteredEntries
	if limit > 0 && limit < len(displayRuns) {
		displayRuns = displayRuns[:limit]
	}

	fmt.Fprintf(a.out, "\n=== History (%d total) ===\n\n", len(filteredEntries))
	for _, entry := range displayRuns {
		printEntry(a.out, entry)
	}

	fmt.Fprintf(a.out, "View output: %s view <ID>\n", AppName)
	return nil
}

func printEntry(w io.Writer, entry history.Entry) {
	h := entry.History
	timestamp := h.Timestamp.Format("2006-01-02 15:04:05")
	duration := h.Duration.Round(time.Millisecond)

	// Status indicator
	status := "✓"
	if h.ExitCode != 0 {
		status = "✗"
	}

	fmt.Fprintf(w, "%s  %s  [%s]  testcase=%s  %s  exit=%d  id=%s\n",
		status, timestamp, duration, h.TestcaseID, h.Type, h.ExitCode, shortID(h.ID))
	if h.Revision != nil {
		fmt.Fprintf(w, "   Revision: %d", *h.Revision)
		if h.Git != nil && h.Git.Commit != "" {
			fmt.Fprintf(w, " (%s)", shortID(h.Git.Commit))
		}
		fmt.Fprintln(w)
	}
	if h.Target != nil && h.Target.Binary != "" {
		fmt.Fprintf(w, "   Binary: %s\n", h.Target.Binary)
	}
	for _, artifact := range h.Artifacts {
		fmt.Fprintf(w, "   %s: %s (%.1f KB)\n", artifact.Type, artifact.File, float64(artifact.Size)/1024)
	}
	fmt.Fprintf(w, "   %s\n\n", entry.FullPath)
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}
