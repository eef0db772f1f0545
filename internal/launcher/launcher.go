// Package launcher turns a configured server into a ready-to-run Command:
// it detects the platform, resolves the latest release, selects and caches
// the matching asset, then assembles the absolute path of its binary.
package launcher

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/donaldgifford/launchpad/internal/asset"
	"github.com/donaldgifford/launchpad/internal/cache"
	"github.com/donaldgifford/launchpad/internal/config"
	"github.com/donaldgifford/launchpad/internal/execpath"
	"github.com/donaldgifford/launchpad/internal/platform"
	"github.com/donaldgifford/launchpad/internal/release"
)

// Command is what a host runs to start a server.
type Command struct {
	Command string            `json:"command"`
	Args    []string          `json:"args"`
	Env     map[string]string `json:"env"`
}

// Resolver finds the release to install.
type Resolver interface {
	Latest(ctx context.Context, project string, opts release.Options) (*release.Release, error)
}

// Launcher produces the Command for one server.
type Launcher struct {
	server   config.ServerConfig
	root     string
	logger   *slog.Logger
	resolver Resolver
	detect   func() (platform.Platform, error)
	storeOpt []cache.Option
}

// Option configures a Launcher or a Registry.
type Option func(*Launcher)

// WithLogger sets the logger for debug output.
func WithLogger(logger *slog.Logger) Option {
	return func(l *Launcher) {
		l.logger = logger
	}
}

// WithResolver replaces the GitHub release client.
func WithResolver(r Resolver) Option {
	return func(l *Launcher) {
		l.resolver = r
	}
}

// WithPlatform pins the target platform instead of detecting it.
func WithPlatform(p platform.Platform) Option {
	return func(l *Launcher) {
		l.detect = func() (platform.Platform, error) { return p, nil }
	}
}

// WithDownloader replaces the archive downloader of the cache store.
func WithDownloader(d cache.Downloader) Option {
	return func(l *Launcher) {
		l.storeOpt = append(l.storeOpt, cache.WithDownloader(d))
	}
}

// WithLock enables the cross-process cache lock.
func WithLock(enabled bool) Option {
	return func(l *Launcher) {
		l.storeOpt = append(l.storeOpt, cache.WithLock(enabled))
	}
}

// New creates a Launcher for server caching binaries under root.
func New(server config.ServerConfig, root string, opts ...Option) *Launcher {
	l := &Launcher{
		server: server,
		root:   root,
		detect: platform.Detect,
	}

	for _, opt := range opts {
		opt(l)
	}

	if l.logger == nil {
		l.logger = slog.Default()
	}

	if l.resolver == nil {
		l.resolver = release.NewClient(release.WithLogger(l.logger))
	}

	return l
}

// Command runs the pipeline and returns the command to start the server.
// Any failing stage aborts with an *Error; no partial result is returned.
func (l *Launcher) Command(ctx context.Context) (Command, error) {
	id := l.server.ID
	if id == "" {
		id = l.server.Tool
	}

	path, err := l.binaryPath(ctx)
	if err != nil {
		return Command{}, wrap(id, err)
	}

	return Command{
		Command: path,
		Args:    []string{},
		Env:     map[string]string{},
	}, nil
}

func (l *Launcher) binaryPath(ctx context.Context) (string, error) {
	p, err := l.detect()
	if err != nil {
		return "", err
	}

	l.logger.Debug("detected platform", "platform", p.String())

	rel, err := l.resolver.Latest(ctx, l.server.Repo, release.Options{
		PreRelease:    false,
		RequireAssets: true,
		Constraint:    l.server.Version,
	})
	if err != nil {
		return "", err
	}

	selected, err := asset.Select(rel, p, l.server.Tool)
	if err != nil {
		return "", err
	}

	l.logger.Debug("selected asset", "name", selected.Name, "version", rel.Version)

	req := cache.Request{
		Tool:       l.server.Tool,
		Version:    rel.Version,
		Asset:      *selected,
		Format:     p.ArchiveFormat(),
		BinaryName: p.BinaryName(l.server.Tool),
	}

	if l.server.ChecksumAsset != "" {
		sums, ok := asset.Find(rel, l.server.ChecksumAsset)
		if !ok {
			return "", &asset.NotFoundError{Name: l.server.ChecksumAsset, Assets: rel.Assets}
		}

		req.ChecksumURL = sums.DownloadURL
	}

	store := cache.New(l.root, append([]cache.Option{cache.WithLogger(l.logger)}, l.storeOpt...)...)

	entry, err := store.Ensure(ctx, req)
	if err != nil {
		return "", err
	}

	path, err := execpath.Assemble(p.OS, l.root, entry.Name, selected.Name, req.BinaryName)
	if err != nil {
		return "", fmt.Errorf("assembling binary path: %w", err)
	}

	return path, nil
}
