// Package cache manages version-keyed directories of extracted release archives.
//
// Layout under the cache root:
//
//	<root>/<tool>-<version>/<asset-name>/<binary>
//
// Every call to Ensure evicts all other entries of the root, so only the
// version just resolved survives.
package cache

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/gofrs/flock"

	"github.com/donaldgifford/launchpad/internal/getter"
	"github.com/donaldgifford/launchpad/internal/platform"
	"github.com/donaldgifford/launchpad/internal/release"
)

const lockRetryDelay = 100 * time.Millisecond

// Errors returned by Ensure, one per failing step.
var (
	ErrCreateDir  = errors.New("creating cache directory")
	ErrDownload   = errors.New("downloading asset")
	ErrExecutable = errors.New("making binary executable")
	ErrListDir    = errors.New("listing cache directory")
	ErrLock       = errors.New("locking cache")
)

// Downloader fetches an archive and extracts it into dest.
type Downloader interface {
	Fetch(ctx context.Context, src, dest string, opts getter.FetchOpts) error
}

// Store is a cache root holding at most one live version of a tool.
type Store struct {
	root       string
	downloader Downloader
	logger     *slog.Logger
	lock       bool
}

// Option configures a Store.
type Option func(*Store)

// WithLogger sets the logger for debug output.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Store) {
		s.logger = logger
	}
}

// WithDownloader replaces the go-getter based downloader.
func WithDownloader(d Downloader) Option {
	return func(s *Store) {
		s.downloader = d
	}
}

// WithLock serializes Ensure across processes with a lock file in the root.
// Without it, concurrent callers may race on download and eviction.
func WithLock(enabled bool) Option {
	return func(s *Store) {
		s.lock = enabled
	}
}

// New creates a Store rooted at root. The root is created lazily.
func New(root string, opts ...Option) *Store {
	s := &Store{root: root}

	for _, opt := range opts {
		opt(s)
	}

	if s.logger == nil {
		s.logger = slog.Default()
	}

	if s.downloader == nil {
		s.downloader = getter.New(s.logger)
	}

	return s
}

// Request describes the release asset to make available.
type Request struct {
	Tool       string
	Version    string
	Asset      release.Asset
	Format     platform.ArchiveFormat
	BinaryName string
	// ChecksumURL, when set, is a checksum file the download is verified against.
	ChecksumURL string
}

// Entry is the on-disk location of a cached release.
type Entry struct {
	// Name is the version directory name, "<tool>-<version>".
	Name       string
	Directory  string
	AssetPath  string
	BinaryPath string
	// Exists reports whether the asset was already present before this call.
	Exists bool
}

// DirName returns the version directory name for tool at version.
func DirName(tool, version string) string {
	return tool + "-" + version
}

// Ensure makes the requested asset available under the root, downloading and
// extracting it when missing, then evicts every other entry of the root.
func (s *Store) Ensure(ctx context.Context, req Request) (*Entry, error) {
	if strings.ContainsAny(req.Version, `/\`) || req.Version == "." || req.Version == ".." {
		return nil, fmt.Errorf("%w: invalid version %q", ErrCreateDir, req.Version)
	}

	if s.lock {
		unlock, err := s.acquire(ctx, req.Tool)
		if err != nil {
			return nil, err
		}
		defer unlock()
	}

	name := DirName(req.Tool, req.Version)
	dir := filepath.Join(s.root, name)
	entry := &Entry{
		Name:       name,
		Directory:  dir,
		AssetPath:  filepath.Join(dir, req.Asset.Name),
		BinaryPath: filepath.Join(dir, req.Asset.Name, req.BinaryName),
	}

	if err := os.MkdirAll(dir, 0o750); err != nil {
		return nil, fmt.Errorf("%w %s: %w", ErrCreateDir, dir, err)
	}

	_, statErr := os.Stat(entry.AssetPath)
	entry.Exists = statErr == nil

	if entry.Exists {
		s.logger.Debug("cache hit", "tool", req.Tool, "version", req.Version, "path", entry.AssetPath)
	} else {
		s.logger.Debug("cache miss", "tool", req.Tool, "version", req.Version, "url", req.Asset.DownloadURL)

		if err := s.install(ctx, req, entry); err != nil {
			if removeErr := os.RemoveAll(entry.AssetPath); removeErr != nil {
				s.logger.Warn("failed to clean up partial download", "path", entry.AssetPath, "err", removeErr)
			}

			return nil, err
		}
	}

	if err := s.Evict(req.Tool, name); err != nil {
		return nil, err
	}

	return entry, nil
}

func (s *Store) install(ctx context.Context, req Request, entry *Entry) error {
	opts := getter.FetchOpts{
		Archive:     req.Format.Ext(),
		ChecksumURL: req.ChecksumURL,
	}

	if err := s.downloader.Fetch(ctx, req.Asset.DownloadURL, entry.AssetPath, opts); err != nil {
		return fmt.Errorf("%w %s: %w", ErrDownload, req.Asset.Name, err)
	}

	if err := os.Chmod(entry.BinaryPath, 0o755); err != nil { //nolint:gosec // the binary must be executable
		return fmt.Errorf("%w %s: %w", ErrExecutable, entry.BinaryPath, err)
	}

	return nil
}

// Evict removes every top-level entry of the root except keep. Removal
// failures are logged and ignored; only a failure to list the root is returned.
func (s *Store) Evict(tool, keep string) error {
	entries, err := os.ReadDir(s.root)
	if err != nil {
		return fmt.Errorf("%w %s: %w", ErrListDir, s.root, err)
	}

	for _, e := range entries {
		if e.Name() == keep || (s.lock && e.Name() == lockName(tool)) {
			continue
		}

		path := filepath.Join(s.root, e.Name())
		s.logger.Debug("evicting stale cache entry", "path", path)

		if err := os.RemoveAll(path); err != nil {
			s.logger.Debug("failed to evict cache entry", "path", path, "err", err)
		}
	}

	return nil
}

// Versions lists the versions of tool currently cached under the root.
func (s *Store) Versions(tool string) ([]string, error) {
	entries, err := os.ReadDir(s.root)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}

		return nil, fmt.Errorf("%w %s: %w", ErrListDir, s.root, err)
	}

	prefix := tool + "-"

	var versions []string
	for _, e := range entries {
		if e.IsDir() && strings.HasPrefix(e.Name(), prefix) {
			versions = append(versions, strings.TrimPrefix(e.Name(), prefix))
		}
	}

	return versions, nil
}

func lockName(tool string) string {
	return "." + tool + ".lock"
}

// acquire takes the cross-process lock for tool, honoring ctx cancellation.
func (s *Store) acquire(ctx context.Context, tool string) (func(), error) {
	if err := os.MkdirAll(s.root, 0o750); err != nil {
		return nil, fmt.Errorf("%w %s: %w", ErrCreateDir, s.root, err)
	}

	path := filepath.Join(s.root, lockName(tool))
	fl := flock.New(path)

	locked, err := fl.TryLockContext(ctx, lockRetryDelay)
	if err != nil {
		return nil, fmt.Errorf("%w %s: %w", ErrLock, path, err)
	}

	if !locked {
		return nil, fmt.Errorf("%w %s: not acquired", ErrLock, path)
	}

	s.logger.Debug("acquired cache lock", "path", path)

	return func() {
		if err := fl.Unlock(); err != nil {
			s.logger.Warn("failed to release cache lock", "path", path, "err", err)
		}
	}, nil
}
