package model

import "time"

// HistoryType identifies how the reproduced binary was obtained.
type HistoryType string

const (
	HistoryTypeDownload HistoryType = "download"
	HistoryTypeBuild    HistoryType = "build"
)

// History represents a single cfrepro reproduction.
type History struct {
	// Unique ID for this reproduction (UUID)
	ID string `json:"id"`
	// How the binary was obtained
	Type HistoryType `json:"type"`
	// Timestamp when the reproduction started
	Timestamp time.Time `json:"timestamp"`
	// Command-line arguments (including command name)
	Args []string `json:"args"`
	// ClusterFuzz testcase ID
	TestcaseID string `json:"testcase_id"`
	// Crash revision recorded by ClusterFuzz, if any
	Revision *int `json:"revision,omitempty"`
	// Exit code of the reproduced binary
	ExitCode int `json:"exit_code"`
	// Duration of the binary's execution
	Duration time.Duration `json:"duration"`
	// Source checkout information (build reproductions only)
	Git *Git `json:"git,omitempty"`
	// Binary and host the reproduction ran on
	Target *Target `json:"target,omitempty"`
	// Artifacts kept for this reproduction
	Artifacts []Artifact `json:"artifacts,omitempty"`
}

// Git contains source checkout information
type Git struct {
	// Commit the checkout was moved to
	Commit string `json:"commit,omitempty"`
	// Repository the revision was resolved in (e.g. "v8/v8")
	Repo string `json:"repo,omitempty"`
	// Checkout location
	SourceDir string `json:"source_dir,omitempty"`
	// Whether the checkout was built as is
	Current bool `json:"current,omitempty"`
}

// Target contains information about the execution environment
type Target struct {
	// Binary that was run
	Binary string `json:"binary"`
	// Full reproduction command
	Command string `json:"command,omitempty"`
	// Operating system of the execution environment
	OS string `json:"os,omitempty"`
	// CPU architecture of the execution environment
	Arch string `json:"arch,omitempty"`
}

// ArtifactType identifies the type of artifact
type ArtifactType uint8

const (
	ArtifactTypeOutput ArtifactType = iota
	ArtifactTypeTestcase
	ArtifactTypeArgsGN
)

// String returns the short name shown in listings.
func (t ArtifactType) String() string {
	switch t {
	case ArtifactTypeOutput:
		return "output"
	case ArtifactTypeTestcase:
		return "testcase"
	case ArtifactTypeArgsGN:
		return "args.gn"
	default:
		return "unknown"
	}
}

// Artifact represents a file kept with a reproduction
type Artifact struct {
	Type ArtifactType `json:"type"`
	Size uint64       `json:"size"`
	File string       `json:"file"` // relative to run dir
}
