package storage

import (
	"archive/zip"
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/cfrepro/cfrepro/shell"
	"github.com/cfrepro/cfrepro/shell/shelltest"
	"github.com/google/go-cmp/cmp"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
)

func TestGSURL(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"https://storage.cloud.google.com/abc.zip", "gs://abc.zip"},
		{"https://storage.cloud.google.com/bucket/dir/build.zip", "gs://bucket/dir/build.zip"},
		{"gs://bucket/build.zip", "gs://bucket/build.zip"},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			require.Equal(t, tt.want, GSURL(tt.in))
		})
	}
}

func TestArchiveName(t *testing.T) {
	require.Equal(t, "abc.zip", ArchiveName("https://storage.cloud.google.com/abc.zip"))
	require.Equal(t, "build.zip", ArchiveName("gs://bucket/dir/build.zip"))
}

func TestSplitGS(t *testing.T) {
	bucket, object, err := splitGS("gs://bucket/dir/build.zip")
	require.NoError(t, err)
	require.Equal(t, "bucket", bucket)
	require.Equal(t, "dir/build.zip", object)

	_, _, err = splitGS("gs://abc.zip")
	require.Error(t, err)

	_, _, err = splitGS("https://example.com/abc.zip")
	require.Error(t, err)
}

func writeZip(t *testing.T, path string, files map[string]string) {
	t.Helper()
	f, err := os.Create(path)
	require.NoError(t, err)
	w := zip.NewWriter(f)
	for name, content := range files {
		fw, err := w.Create(name)
		require.NoError(t, err)
		_, err = fw.Write([]byte(content))
		require.NoError(t, err)
	}
	require.NoError(t, w.Close())
	require.NoError(t, f.Close())
}

func TestUnpack(t *testing.T) {
	t.Run("single top-level directory", func(t *testing.T) {
		root := t.TempDir()
		archive := filepath.Join(root, "abc.zip")
		writeZip(t, archive, map[string]string{
			"abc//args.gn": "is_asan = true\n",
			"abc//d8":      "binary",
		})
		dest := filepath.Join(root, "builds", "1234_build")

		require.NoError(t, Unpack(archive, dest))

		got, err := os.ReadFile(filepath.Join(dest, "args.gn"))
		require.NoError(t, err)
		require.Equal(t, "is_asan = true\n", string(got))
		require.FileExists(t, filepath.Join(dest, "d8"))

		entries, err := os.ReadDir(filepath.Join(root, "builds"))
		require.NoError(t, err)
		require.Len(t, entries, 1, "staging directory should be removed")
	})

	t.Run("flat archive", func(t *testing.T) {
		root := t.TempDir()
		archive := filepath.Join(root, "flat.zip")
		writeZip(t, archive, map[string]string{
			"args.gn": "a = 1\n",
			"d8":      "binary",
		})
		dest := filepath.Join(root, "build")

		require.NoError(t, Unpack(archive, dest))
		require.FileExists(t, filepath.Join(dest, "args.gn"))
		require.FileExists(t, filepath.Join(dest, "d8"))
	})

	t.Run("entry escaping destination", func(t *testing.T) {
		root := t.TempDir()
		archive := filepath.Join(root, "evil.zip")
		writeZip(t, archive, map[string]string{
			"../../evil": "x",
		})

		err := Unpack(archive, filepath.Join(root, "build"))
		require.Error(t, err)
		require.NoFileExists(t, filepath.Join(filepath.Dir(root), "evil"))
	})
}

func TestGSUtil_Fetch(t *testing.T) {
	fake := shelltest.New()
	g := NewGSUtil(zerolog.Nop(), fake)

	path, err := g.Fetch(context.Background(), "https://storage.cloud.google.com/abc.zip", "/cf")
	require.NoError(t, err)
	require.Equal(t, filepath.Join("/cf", "abc.zip"), path)

	want := []shelltest.Call{{Command: "gsutil cp gs://abc.zip .", Dir: "/cf"}}
	if diff := cmp.Diff(want, fake.Calls); diff != "" {
		t.Errorf("calls mismatch (-want +got):\n%s", diff)
	}
}

func TestGSUtil_FetchMissingTool(t *testing.T) {
	fake := shelltest.New()
	fake.Missing = map[string]bool{"gsutil": true}
	g := NewGSUtil(zerolog.Nop(), fake)

	_, err := g.Fetch(context.Background(), "https://storage.cloud.google.com/abc.zip", "/cf")
	var missing *shell.MissingToolError
	require.True(t, errors.As(err, &missing))
	require.Equal(t, "gsutil", missing.Tool)
	require.Empty(t, fake.Calls)
}

func TestInstaller_Install(t *testing.T) {
	home := t.TempDir()
	cf := filepath.Join(home, ".clusterfuzz")
	buildDir := filepath.Join(cf, "builds", "1234_build")

	fake := shelltest.New(shelltest.Response{
		Do: func(call shelltest.Call) error {
			writeZip(t, filepath.Join(call.Dir, "abc.zip"), map[string]string{
				"abc//args.gn": "use_goma = true\n",
				"abc//d8":      "binary",
			})
			return nil
		},
	})
	inst := NewInstaller(zerolog.Nop(), NewGSUtil(zerolog.Nop(), fake))

	require.NoError(t, inst.Install(context.Background(), "https://storage.cloud.google.com/abc.zip", cf, buildDir))

	require.Equal(t, []string{"gsutil cp gs://abc.zip ."}, fake.Commands())
	require.Equal(t, cf, fake.Calls[0].Dir)
	require.FileExists(t, filepath.Join(buildDir, "d8"))
	require.FileExists(t, filepath.Join(buildDir, "args.gn"))
	require.NoFileExists(t, filepath.Join(cf, "abc.zip"))
}

func TestInstaller_InstallFetchError(t *testing.T) {
	cf := t.TempDir()
	fake := shelltest.New(shelltest.Response{
		Err: &shell.CommandError{Command: "gsutil cp gs://abc.zip .", ExitCode: 1},
	})
	inst := NewInstaller(zerolog.Nop(), NewGSUtil(zerolog.Nop(), fake))

	err := inst.Install(context.Background(), "https://storage.cloud.google.com/abc.zip", cf, filepath.Join(cf, "builds", "1_build"))
	var cmdErr *shell.CommandError
	require.True(t, errors.As(err, &cmdErr))
	require.NoDirExists(t, filepath.Join(cf, "builds", "1_build"))
}
