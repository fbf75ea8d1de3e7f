// Package provider turns a testcase into the path of a runnable binary,
// either by downloading the prebuilt build or by compiling it from a local
// checkout.
package provider

import (
	"context"
	"os"
	"path/filepath"
)

// BinaryName is the binary reproduced against.
const BinaryName = "d8"

// BinaryProvider yields a local binary for one testcase.
type BinaryProvider interface {
	BinaryPath(ctx context.Context) (string, error)
}

// Installer places the build archive behind buildURL into buildDir.
type Installer interface {
	Install(ctx context.Context, buildURL, workDir, buildDir string) error
}

// Ready reports whether dir holds the binary.
func Ready(dir string) bool {
	info, err := os.Stat(filepath.Join(dir, BinaryName))
	return err == nil && !info.IsDir()
}

// DownloadDir is where the prebuilt build of testcase id is unpacked.
func DownloadDir(buildsDir, id string) string {
	return filepath.Join(buildsDir, id+"_build")
}

// OutputDir is where testcase id is compiled inside a checkout.
func OutputDir(srcDir, id string) string {
	return filepath.Join(srcDir, "out", "clusterfuzz_"+id)
}

type options struct {
	buildDir string
	srcDir   string
	current  bool
}

// Option configures a provider.
type Option func(*options)

// WithBuildDir uses dir as is, skipping download and build.
func WithBuildDir(dir string) Option {
	return func(o *options) {
		o.buildDir = dir
	}
}

// WithSourceDir sets the checkout to build from instead of asking.
func WithSourceDir(dir string) Option {
	return func(o *options) {
		o.srcDir = dir
	}
}

// WithCurrent builds the checkout as it is, without moving it to the crash
// revision.
func WithCurrent(current bool) Option {
	return func(o *options) {
		o.current = current
	}
}

func applyOptions(opts []Option) options {
	var o options
	for _, opt := range opts {
		opt(&o)
	}
	return o
}
