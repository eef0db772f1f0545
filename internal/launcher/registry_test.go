package launcher_test

import (
	"archive/tar"
	"bytes"
	"compress/gzip"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"runtime"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/donaldgifford/launchpad/internal/config"
	"github.com/donaldgifford/launchpad/internal/launcher"
)

func tarGz(t *testing.T, name, content string) []byte {
	t.Helper()

	var buf bytes.Buffer
	gz := gzip.NewWriter(&buf)
	tw := tar.NewWriter(gz)

	require.NoError(t, tw.WriteHeader(&tar.Header{
		Name:     name,
		Mode:     0o644,
		Size:     int64(len(content)),
		Typeflag: tar.TypeReg,
	}))
	_, err := tw.Write([]byte(content))
	require.NoError(t, err)
	require.NoError(t, tw.Close())
	require.NoError(t, gz.Close())

	return buf.Bytes()
}

// githubStub serves a releases listing for strowk/mcp-k8s-go and the archive it points at.
func githubStub(t *testing.T, archive []byte) (*httptest.Server, *atomic.Int32) {
	t.Helper()

	var downloads atomic.Int32
	mux := http.NewServeMux()

	var srv *httptest.Server

	mux.HandleFunc("/repos/strowk/mcp-k8s-go/releases", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		assert.NoError(t, json.NewEncoder(w).Encode([]map[string]any{
			{
				"tag_name":   "v0.3.2",
				"draft":      false,
				"prerelease": false,
				"assets": []map[string]string{
					{
						"name":                 "mcp-k8s-go_Linux_x86_64.tar.gz",
						"browser_download_url": srv.URL + "/download/mcp-k8s-go_Linux_x86_64.tar.gz",
					},
				},
			},
		}))
	})

	mux.HandleFunc("/download/mcp-k8s-go_Linux_x86_64.tar.gz", func(w http.ResponseWriter, r *http.Request) {
		// go-getter probes with HEAD before the download itself.
		if r.Method == http.MethodGet {
			downloads.Add(1)
		}

		w.Header().Set("Content-Type", "application/octet-stream")
		_, _ = w.Write(archive)
	})

	srv = httptest.NewServer(mux)
	t.Cleanup(srv.Close)

	return srv, &downloads
}

func TestRegistry_ResolveCommand(t *testing.T) {
	t.Parallel()

	if runtime.GOOS == "windows" {
		t.Skip("forward-slash paths differ on windows")
	}

	srv, downloads := githubStub(t, tarGz(t, "mcp-k8s-go", "#!/bin/sh\n"))

	cfg := config.Default()
	cfg.CacheDir = t.TempDir()
	cfg.GitHub.BaseURL = srv.URL
	cfg.GitHub.TokenEnv = ""

	reg := launcher.NewRegistry(cfg, nil, "", launcher.WithPlatform(linuxAmd64))

	cmd, err := reg.ResolveCommand(t.Context(), "", launcher.Project{})
	require.NoError(t, err)

	want := filepath.Join(cfg.CacheDir, "mcp-k8s", "mcp-k8s-go-v0.3.2", "mcp-k8s-go_Linux_x86_64.tar.gz", "mcp-k8s-go")
	assert.Equal(t, want, cmd.Command)

	info, err := os.Stat(cmd.Command)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0o755), info.Mode().Perm())

	assert.Equal(t, int32(1), downloads.Load())

	_, err = reg.ResolveCommand(t.Context(), "mcp-k8s", launcher.Project{})
	require.NoError(t, err)
	assert.Equal(t, int32(1), downloads.Load(), "a warm cache must not download again")
}

func TestRegistry_ProjectRoot(t *testing.T) {
	t.Parallel()

	if runtime.GOOS == "windows" {
		t.Skip("forward-slash paths differ on windows")
	}

	srv, _ := githubStub(t, tarGz(t, "mcp-k8s-go", "#!/bin/sh\n"))

	cfg := config.Default()
	cfg.CacheDir = t.TempDir()
	cfg.GitHub.BaseURL = srv.URL

	project := t.TempDir()
	reg := launcher.NewRegistry(cfg, nil, "", launcher.WithPlatform(linuxAmd64))

	cmd, err := reg.ResolveCommand(t.Context(), "", launcher.Project{Root: project})
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(project, "mcp-k8s-go-v0.3.2", "mcp-k8s-go_Linux_x86_64.tar.gz", "mcp-k8s-go"), cmd.Command)
	assert.NoDirExists(t, filepath.Join(cfg.CacheDir, "mcp-k8s"))
}

func TestRegistry_UnknownServer(t *testing.T) {
	t.Parallel()

	reg := launcher.NewRegistry(config.Default(), nil, "")

	_, err := reg.ResolveCommand(t.Context(), "nope", launcher.Project{})
	require.ErrorIs(t, err, launcher.ErrUnknownServer)
	assert.Contains(t, err.Error(), "nope")
}

func TestRegistry_ServersHaveSeparateRoots(t *testing.T) {
	t.Parallel()

	cfg := &config.Config{
		CacheDir: t.TempDir(),
		Servers: []config.ServerConfig{
			{ID: "a", Tool: "tool-a", Repo: "acme/a"},
			{ID: "b", Tool: "tool-b", Repo: "acme/b"},
		},
	}

	reg := launcher.NewRegistry(cfg, nil, "")

	_, rootA, err := reg.Launcher("a", launcher.Project{})
	require.NoError(t, err)

	_, rootB, err := reg.Launcher("b", launcher.Project{})
	require.NoError(t, err)

	assert.Equal(t, filepath.Join(cfg.CacheDir, "a"), rootA)
	assert.Equal(t, filepath.Join(cfg.CacheDir, "b"), rootB)
}

func TestRegistry_UserAgent(t *testing.T) {
	t.Parallel()

	agents := make(chan string, 1)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case agents <- r.Header.Get("User-Agent"):
		default:
		}

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte("[]"))
	}))
	t.Cleanup(srv.Close)

	cfg := config.Default()
	cfg.CacheDir = t.TempDir()
	cfg.GitHub.BaseURL = srv.URL

	reg := launcher.NewRegistry(cfg, nil, "launchpad/v1.2.3", launcher.WithPlatform(linuxAmd64))

	_, err := reg.ResolveCommand(t.Context(), "", launcher.Project{})
	require.Error(t, err)
	assert.Equal(t, launcher.KindReleaseFetch, launcher.KindOf(err))
	assert.Equal(t, "launchpad/v1.2.3", <-agents)
}
