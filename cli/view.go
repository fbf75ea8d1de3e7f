package cli

// This file contains the view command for displaying a reproduction from
// history.

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/cfrepro/cfrepro/history"
	"github.com/cfrepro/cfrepro/model"
	"github.com/urfave/cli/v2"
)

func parseViewArgs(in []string) (string, error) {
	if len(in) > 0 && in[0] == "--" {
		in = in[1:]
	}
	switch len(in) {
	case 0:
		return "0", nil
	case 1:
		return in[0], nil
	default:
		return "", fmt.Errorf("expected at most one ID or index, got %d arguments", len(in))
	}
}

// selectEntry picks an entry by index (0 for the last, -1 for the one
// before) or by ID prefix. entries must be sorted newest first.
func selectEntry(entries []history.Entry, arg string) (*history.Entry, error) {
	if len(entries) == 0 {
		return nil, fmt.Errorf("no history entries found")
	}

	if parsed, err := strconv.ParseInt(arg, 10, 64); err == nil {
		if parsed > 0 {
			return nil, fmt.Errorf("invalid index: %s (use 0 for last, -1 for second-to-last, -2 for third-to-last, etc.)", arg)
		}
		index := int(-parsed)
		if index >= len(entries) {
			return nil, fmt.Errorf("index %s out of range (only %d history entries)", arg, len(entries))
		}
		return &entries[index], nil
	}

	prefix := strings.ToLower(arg)
	for i := range entries {
		if strings.HasPrefix(strings.ToLower(entries[i].History.ID), prefix) {
			return &entries[i], nil
		}
	}
	return nil, fmt.Errorf("no history entry found matching ID: %s", arg)
}

func (a *App) view(ctx *cli.Context) error {
	arg, err := parseViewArgs(ctx.Args().Slice())
	if err != nil {
		return err
	}

	cfg, err := a.loadConfig(ctx)
	if err != nil {
		return err
	}

	historyEntries, err := history.LoadEntries(a.logger, cfg.HistoryDir())
	if err != nil {
		return fmt.Errorf("failed to load history: %w", err)
	}

	entry, err := selectEntry(historyEntries, arg)
	if err != nil {
		return err
	}
	return a.displayHistoryEntry(entry)
}

func (a *App) displayHistoryEntry(entry *history.Entry) error {
	h := entry.History

	fmt.Fprintf(a.out, "=== Reproduction: %s ===\n", shortID(h.ID))
	fmt.Fprintf(a.out, "Testcase: %s\n", h.TestcaseID)
	fmt.Fprintf(a.out, "Type: %s\n", h.Type)
	fmt.Fprintf(a.out, "Time: %s\n", h.Timestamp.Format("2006-01-02 15:04:05"))
	fmt.Fprintf(a.out, "Duration: %s\n", h.Duration)
	fmt.Fprintf(a.out, "Exit Code: %d\n", h.ExitCode)
	if h.Revision != nil {
		fmt.Fprintf(a.out, "Revision: %d\n", *h.Revision)
	}
	if h.Git != nil {
		if h.Git.Commit != "" {
			fmt.Fprintf(a.out, "Commit: %s (%s)\n", h.Git.Commit, h.Git.Repo)
		}
		if h.Git.SourceDir != "" {
			fmt.Fprintf(a.out, "Source: %s", h.Git.SourceDir)
			if h.Git.Current {
				fmt.Fprint(a.out, " (current checkout)")
			}
			fmt.Fprintln(a.out)
		}
	}
	if h.Target != nil {
		fmt.Fprintf(a.out, "Command: %s\n", h.Target.Command)
		if h.Target.OS != "" && h.Target.Arch != "" {
			fmt.Fprintf(a.out, "Host: %s/%s\n", h.Target.OS, h.Target.Arch)
		}
	}
	fmt.Fprintln(a.out)

	for i := range h.Artifacts {
		if h.Artifacts[i].Type == model.ArtifactTypeOutput {
			return a.displayOutput(entry.FullPath, &h.Artifacts[i])
		}
	}

	fmt.Fprintln(a.out, "No output recorded")
	fmt.Fprintf(a.out, "History directory: %s\n", entry.FullPath)
	return nil
}

func (a *App) displayOutput(runDir string, artifact *model.Artifact) error {
	outputPath := filepath.Join(runDir, artifact.File)
	fmt.Fprintf(a.out, "Output: %s\n", outputPath)
	data, err := os.ReadFile(outputPath)
	if err != nil {
		return fmt.Errorf("failed to read output: %w", err)
	}
	fmt.Fprintln(a.out, string(data))
	return nil
}
