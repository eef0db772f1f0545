package launcher

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/donaldgifford/launchpad/internal/config"
	"github.com/donaldgifford/launchpad/internal/release"
)

// Project is the host's view of the workspace a server is launched for.
type Project struct {
	// Root, when set, is used as the cache root instead of the per-server
	// directory under the configured cache dir.
	Root string
}

// Host resolves the command a host should spawn for a server.
type Host interface {
	ResolveCommand(ctx context.Context, serverID string, project Project) (Command, error)
}

// Registry serves every configured server through the Host interface.
type Registry struct {
	cfg  *config.Config
	opts []Option
}

var _ Host = (*Registry)(nil)

// NewRegistry creates a Registry over cfg. opts are applied to every Launcher
// it creates; a GitHub client built from cfg is used unless WithResolver is given.
// An empty userAgent keeps the release client's default.
func NewRegistry(cfg *config.Config, logger *slog.Logger, userAgent string, opts ...Option) *Registry {
	if logger == nil {
		logger = slog.Default()
	}

	clientOpts := []release.Option{
		release.WithToken(cfg.Token()),
		release.WithLogger(logger),
	}

	if userAgent != "" {
		clientOpts = append(clientOpts, release.WithUserAgent(userAgent))
	}

	if cfg.GitHub.BaseURL != "" {
		clientOpts = append(clientOpts, release.WithBaseURL(cfg.GitHub.BaseURL))
	}

	client := release.NewClient(clientOpts...)

	base := []Option{
		WithLogger(logger),
		WithResolver(client),
		WithLock(cfg.Lock),
	}

	return &Registry{cfg: cfg, opts: append(base, opts...)}
}

// Launcher returns the Launcher for serverID and the cache root it uses.
// An empty serverID selects the default server.
func (r *Registry) Launcher(serverID string, project Project) (*Launcher, string, error) {
	server, err := r.cfg.FindServer(serverID)
	if err != nil {
		return nil, "", fmt.Errorf("%w: %w", ErrUnknownServer, err)
	}

	root := project.Root
	if root == "" {
		root = r.cfg.ServerCacheDir(server.ID)
	}

	return New(*server, root, r.opts...), root, nil
}

// ResolveCommand runs the pipeline for serverID.
func (r *Registry) ResolveCommand(ctx context.Context, serverID string, project Project) (Command, error) {
	l, _, err := r.Launcher(serverID, project)
	if err != nil {
		return Command{}, err
	}

	return l.Command(ctx)
}
