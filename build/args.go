package build

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/cfrepro/cfrepro/shell"
)

// ArgsFile is the gn arguments file inside a build directory.
const ArgsFile = "args.gn"

// ReadArgs parses the `key = value` lines of the args.gn in dir. A missing
// file yields an empty map; other lines are ignored.
func ReadArgs(dir string) (map[string]string, error) {
	args := make(map[string]string)

	f, err := os.Open(filepath.Join(dir, ArgsFile))
	if errors.Is(err, os.ErrNotExist) {
		return args, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to open %s: %w", ArgsFile, err)
	}
	defer f.Close()

	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		key, value, ok := strings.Cut(scanner.Text(), " = ")
		if !ok {
			continue
		}
		key = strings.TrimSpace(key)
		if key == "" || strings.ContainsAny(key, " \t") {
			continue
		}
		args[key] = strings.TrimSpace(value)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", ArgsFile, err)
	}
	return args, nil
}

// WriteArgs writes args to the args.gn in dir, one sorted `key = value` line
// per entry.
func WriteArgs(dir string, args map[string]string) error {
	keys := make([]string, 0, len(args))
	for k := range args {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var b strings.Builder
	for _, k := range keys {
		fmt.Fprintf(&b, "%s = %s\n", k, args[k])
	}

	if err := os.WriteFile(filepath.Join(dir, ArgsFile), []byte(b.String()), 0o644); err != nil {
		return fmt.Errorf("failed to write %s: %w", ArgsFile, err)
	}
	return nil
}

// PatchArgs merges the args.gn of fallbackDir and buildDir (the latter
// wins), points goma_dir at the configured goma installation, runs gn gen
// and writes the result into buildDir.
func (o *Orchestrator) PatchArgs(ctx context.Context, srcDir, buildDir, fallbackDir string) error {
	merged := make(map[string]string)
	for _, dir := range []string{fallbackDir, buildDir} {
		if dir == "" {
			continue
		}
		args, err := ReadArgs(dir)
		if err != nil {
			return err
		}
		for k, v := range args {
			merged[k] = v
		}
	}
	merged["goma_dir"] = o.gomaDir

	if err := os.MkdirAll(buildDir, 0o755); err != nil {
		return fmt.Errorf("failed to create build directory: %w", err)
	}

	if _, err := o.exec.Execute(ctx, shell.Join("gn", "gen", buildDir), srcDir, shell.Options{}); err != nil {
		return fmt.Errorf("failed to generate build files: %w", err)
	}

	o.logger.Debug().
		Str("build_dir", buildDir).
		Int("args", len(merged)).
		Msg("Writing args.gn")
	return WriteArgs(buildDir, merged)
}
