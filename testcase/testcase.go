// Package testcase parses ClusterFuzz testcase details and retrieves the
// testcase file.
package testcase

import (
	"bytes"
	"encoding/json"
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

var envLine = regexp.MustCompile(`^\[Environment\] (\S+) = (.*)$`)

// Testcase is the crash record of one ClusterFuzz testcase.
type Testcase struct {
	ID string
	// Revision is nil when ClusterFuzz did not record one.
	Revision         *int
	Environment      map[string]string
	ReproductionArgs string
	BuildURL         string
}

type detail struct {
	ID              flexString `json:"id"`
	CrashStacktrace struct {
		Lines []struct {
			Content string `json:"content"`
		} `json:"lines"`
	} `json:"crash_stacktrace"`
	CrashRevision flexString `json:"crash_revision"`
	Metadata      struct {
		BuildURL string `json:"build_url"`
	} `json:"metadata"`
	Testcase struct {
		WindowArgument     string `json:"window_argument"`
		MinimizedArguments string `json:"minimized_arguments"`
	} `json:"testcase"`
}

// flexString accepts a JSON string, number or null.
type flexString string

func (f *flexString) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		*f = ""
		return nil
	}
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*f = flexString(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return err
	}
	*f = flexString(n.String())
	return nil
}

// Parse decodes the testcase detail JSON returned by ClusterFuzz.
func Parse(data []byte) (*Testcase, error) {
	var d detail
	if err := json.Unmarshal(data, &d); err != nil {
		return nil, fmt.Errorf("failed to decode testcase: %w", err)
	}
	if d.ID == "" {
		return nil, fmt.Errorf("testcase has no id")
	}

	tc := &Testcase{
		ID:          string(d.ID),
		Environment: make(map[string]string),
		BuildURL:    d.Metadata.BuildURL,
		ReproductionArgs: strings.TrimSpace(
			d.Testcase.WindowArgument + " " + d.Testcase.MinimizedArguments),
	}

	if d.CrashRevision != "" {
		rev, err := strconv.Atoi(string(d.CrashRevision))
		if err != nil {
			return nil, fmt.Errorf("invalid crash revision %q: %w", d.CrashRevision, err)
		}
		tc.Revision = &rev
	}

	for _, line := range d.CrashStacktrace.Lines {
		if m := envLine.FindStringSubmatch(line.Content); m != nil {
			tc.Environment[m[1]] = m[2]
		}
	}
	return tc, nil
}
