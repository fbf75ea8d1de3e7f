package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func setHome(t *testing.T) string {
	t.Helper()
	home := t.TempDir()
	t.Setenv("HOME", home)
	t.Setenv("XDG_CONFIG_HOME", "")
	t.Setenv("CLUSTERFUZZ_DIR", "")
	t.Setenv("GOMA_DIR", "")
	t.Setenv("V8_SRC", "")
	return home
}

func TestDefaultPath(t *testing.T) {
	home := setHome(t)
	require.Equal(t, filepath.Join(home, ".config", "cfrepro", "config.yaml"), DefaultPath())

	xdg := t.TempDir()
	t.Setenv("XDG_CONFIG_HOME", xdg)
	require.Equal(t, filepath.Join(xdg, "cfrepro", "config.yaml"), DefaultPath())
}

func TestLoad_MissingFile(t *testing.T) {
	home := setHome(t)

	cfg, err := Load(filepath.Join(home, "nope.yaml"))
	require.NoError(t, err)
	require.Equal(t, Default(), cfg)
	require.Equal(t, filepath.Join(home, ".clusterfuzz"), cfg.ClusterfuzzDir)
	require.Equal(t, filepath.Join(home, "goma"), cfg.GomaDir)
	require.Equal(t, 10, cfg.JobsMultiplier)
	require.Equal(t, StorageGSUtil, cfg.StorageBackend)
}

func TestLoad(t *testing.T) {
	tests := []struct {
		name    string
		yaml    string
		env     map[string]string
		check   func(t *testing.T, home string, cfg Config)
		wantErr string
	}{
		{
			name: "file values",
			yaml: "v8_src: ~/v8/src\njobs_multiplier: 4\nstorage_backend: api\n",
			check: func(t *testing.T, home string, cfg Config) {
				require.Equal(t, filepath.Join(home, "v8", "src"), cfg.V8Src)
				require.Equal(t, 4, cfg.JobsMultiplier)
				require.Equal(t, StorageAPI, cfg.StorageBackend)
			},
		},
		{
			name: "environment overrides file",
			yaml: "v8_src: /from/file\ngoma_dir: /goma/file\n",
			env:  map[string]string{"V8_SRC": "/from/env", "GOMA_DIR": "/goma/env", "CLUSTERFUZZ_DIR": "/cf"},
			check: func(t *testing.T, home string, cfg Config) {
				require.Equal(t, "/from/env", cfg.V8Src)
				require.Equal(t, "/goma/env", cfg.GomaDir)
				require.Equal(t, "/cf", cfg.ClusterfuzzDir)
				require.Equal(t, filepath.Join("/cf", "auth_header"), cfg.AuthFile())
				require.Equal(t, filepath.Join("/cf", "builds"), cfg.BuildsDir())
				require.Equal(t, filepath.Join("/cf", "testcases"), cfg.TestcasesDir())
				require.Equal(t, filepath.Join("/cf", "history"), cfg.HistoryDir())
			},
		},
		{
			name:    "unknown storage backend",
			yaml:    "storage_backend: ftp\n",
			wantErr: "StorageBackend",
		},
		{
			name:    "zero multiplier",
			yaml:    "jobs_multiplier: 0\n",
			wantErr: "JobsMultiplier",
		},
		{
			name:    "bad url",
			yaml:    "numbering_url: not a url\n",
			wantErr: "NumberingURL",
		},
		{
			name:    "malformed yaml",
			yaml:    "jobs_multiplier: [\n",
			wantErr: "failed to parse config",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			home := setHome(t)
			for k, v := range tt.env {
				t.Setenv(k, v)
			}
			path := filepath.Join(home, "config.yaml")
			require.NoError(t, os.WriteFile(path, []byte(tt.yaml), 0o644))

			cfg, err := Load(path)
			if tt.wantErr != "" {
				require.ErrorContains(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			tt.check(t, home, cfg)
		})
	}
}

func TestExpandHome(t *testing.T) {
	home := setHome(t)

	require.Equal(t, home, ExpandHome("~"))
	require.Equal(t, filepath.Join(home, "goma"), ExpandHome("~/goma"))
	require.Equal(t, "/abs/path", ExpandHome("/abs/path"))
	require.Equal(t, "~user/x", ExpandHome("~user/x"))
	require.Empty(t, ExpandHome(""))
}
