package history

// This file contains reproduction history utilities for recording,
// loading and parsing previous runs.

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"

	"github.com/cfrepro/cfrepro/model"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

const (
	// FileName is the metadata file inside every run directory.
	FileName = "history.json"
	// OutputFile holds the captured output of the binary.
	OutputFile = "output.txt"
)

type Entry struct {
	History  model.History
	FullPath string
}

// Attachment is a file copied into the run directory.
type Attachment struct {
	Type model.ArtifactType
	Path string
}

// NewID returns a fresh reproduction ID.
func NewID() string {
	return uuid.NewString()
}

// Save writes h, the captured output and the attachments into a new run
// directory below root and returns that directory. Attachments that cannot
// be copied are skipped with a warning.
func Save(logger zerolog.Logger, root string, h *model.History, output string, attachments ...Attachment) (string, error) {
	if h.ID == "" {
		h.ID = NewID()
	}

	// Create directory in <root>/<timestamp>-<testcase>-<id>
	timestamp := h.Timestamp.Format("20060102-150405")
	shortID := h.ID
	if len(shortID) > 8 {
		shortID = shortID[:8]
	}
	runDir := filepath.Join(root, fmt.Sprintf("%s-%s-%s", timestamp, h.TestcaseID, shortID))

	if err := os.MkdirAll(runDir, 0o755); err != nil {
		return "", fmt.Errorf("failed to create run directory: %w", err)
	}

	if output != "" {
		if err := os.WriteFile(filepath.Join(runDir, OutputFile), []byte(output), 0o644); err != nil {
			return "", fmt.Errorf("failed to write output: %w", err)
		}
		h.Artifacts = append(h.Artifacts, model.Artifact{
			Type: model.ArtifactTypeOutput,
			Size: uint64(len(output)),
			File: OutputFile,
		})
	}

	for _, a := range attachments {
		artifact, err := copyAttachment(runDir, a)
		if err != nil {
			logger.Warn().Err(err).Str("path", a.Path).Msg("Failed to save artifact")
			continue
		}
		h.Artifacts = append(h.Artifacts, artifact)
	}

	data, err := json.MarshalIndent(h, "", "  ")
	if err != nil {
		return "", fmt.Errorf("failed to marshal history: %w", err)
	}
	if err := os.WriteFile(filepath.Join(runDir, FileName), data, 0o644); err != nil {
		return "", fmt.Errorf("failed to write history: %w", err)
	}

	logger.Debug().Str("dir", runDir).Str("id", h.ID).Msg("Recorded reproduction")
	return runDir, nil
}

func copyAttachment(runDir string, a Attachment) (model.Artifact, error) {
	src, err := os.Open(a.Path)
	if err != nil {
		return model.Artifact{}, err
	}
	defer src.Close()

	name := filepath.Base(a.Path)
	dst, err := os.Create(filepath.Join(runDir, name))
	if err != nil {
		return model.Artifact{}, err
	}
	n, err := io.Copy(dst, src)
	if err != nil {
		dst.Close()
		return model.Artifact{}, err
	}
	if err := dst.Close(); err != nil {
		return model.Artifact{}, err
	}
	return model.Artifact{Type: a.Type, Size: uint64(n), File: name}, nil
}

// LoadEntries loads all history entries below root, newest first. A missing
// root yields no entries.
func LoadEntries(logger zerolog.Logger, root string) ([]Entry, error) {
	var entries []Entry

	err := filepath.WalkDir(root, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			return err
		}

		if d.IsDir() {
			historyPath := filepath.Join(path, FileName)
			if _, err := os.Stat(historyPath); err == nil {
				history, err := parseHistoryJSON(historyPath)
				if err != nil {
					logger.Warn().Err(err).Str("path", historyPath).Msg("Failed to parse history.json")
					return nil
				}

				entries = append(entries, Entry{
					History:  history,
					FullPath: path,
				})
			}
		}

		return nil
	})

	if errors.Is(err, os.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to walk history directory: %w", err)
	}

	sort.Slice(entries, func(i, j int) bool {
		return entries[i].History.Timestamp.After(entries[j].History.Timestamp)
	})
	return entries, nil
}

// parseHistoryJSON parses a history.json file.
func parseHistoryJSON(historyPath string) (model.History, error) {
	data, err := os.ReadFile(historyPath)
	if err != nil {
		return model.History{}, err
	}

	var history model.History
	if err := json.Unmarshal(data, &history); err != nil {
		return model.History{}, err
	}

	return history, nil
}
