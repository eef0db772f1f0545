package cmd

import (
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/donaldgifford/launchpad/internal/cache"
	"github.com/donaldgifford/launchpad/internal/config"
	"github.com/donaldgifford/launchpad/internal/ui"
)

var cacheCmd = &cobra.Command{
	Use:   "cache",
	Short: "Manage the launchpad cache",
}

var cacheListCmd = &cobra.Command{
	Use:     "list",
	Short:   "List cached server versions",
	Aliases: []string{"ls"},
	Args:    cobra.NoArgs,
	RunE:    runCacheList,
}

var cacheCleanCmd = &cobra.Command{
	Use:   "clean",
	Short: "Remove cached server binaries",
	Long: `Remove cached binaries to free disk space. By default every configured
server's cache is removed; use --server to clean a single one.`,
	Args: cobra.NoArgs,
	RunE: runCacheClean,
}

func init() {
	cacheCmd.AddCommand(cacheListCmd)
	cacheCmd.AddCommand(cacheCleanCmd)
	rootCmd.AddCommand(cacheCmd)
}

func runCacheList(_ *cobra.Command, _ []string) error {
	w := ui.NewWriter(noColor)

	cfg, err := loadConfig()
	if err != nil {
		w.Error(err.Error())

		return err
	}

	rows, err := cacheRows(cfg, serverID)
	if err != nil {
		w.Error(err.Error())

		return err
	}

	if len(rows) == 0 {
		w.Info("Cache is empty")

		return nil
	}

	return w.Table([]string{"SERVER", "TOOL", "VERSION", "SIZE", "PATH"}, rows)
}

// cacheRows describes every cached version of the selected servers.
func cacheRows(cfg *config.Config, id string) ([][]string, error) {
	servers, err := selectServers(cfg, id)
	if err != nil {
		return nil, err
	}

	var rows [][]string

	for _, s := range servers {
		root := cfg.ServerCacheDir(s.ID)

		versions, err := cache.New(root).Versions(s.Tool)
		if err != nil {
			return nil, fmt.Errorf("listing cache for %s: %w", s.ID, err)
		}

		for _, v := range versions {
			dir := filepath.Join(root, cache.DirName(s.Tool, v))

			size, err := dirSize(dir)
			if err != nil {
				return nil, fmt.Errorf("measuring %s: %w", dir, err)
			}

			rows = append(rows, []string{s.ID, s.Tool, v, formatBytes(size), dir})
		}
	}

	return rows, nil
}

func runCacheClean(_ *cobra.Command, _ []string) error {
	logger := slog.Default()
	w := ui.NewWriter(noColor)

	cfg, err := loadConfig()
	if err != nil {
		w.Error(err.Error())

		return err
	}

	servers, err := selectServers(cfg, serverID)
	if err != nil {
		w.Error(err.Error())

		return err
	}

	var cleaned []string

	var total int64

	for _, s := range servers {
		freed, err := cleanDir(cfg.ServerCacheDir(s.ID), logger)
		if err != nil {
			w.Error(err.Error())

			return fmt.Errorf("cleaning cache for %s: %w", s.ID, err)
		}

		if freed > 0 {
			cleaned = append(cleaned, s.ID)
			total += freed
		}
	}

	if len(cleaned) == 0 && serverID != "" {
		w.Infof("Cache for %s already clean", serverID)

		return nil
	}

	if len(cleaned) == 0 {
		w.Info("Cache already clean")

		return nil
	}

	w.Successf("Cleaned %s (%s)", strings.Join(cleaned, ", "), formatBytes(total))

	return nil
}

// selectServers returns the server named id, or every server when id is empty.
func selectServers(cfg *config.Config, id string) ([]config.ServerConfig, error) {
	if id == "" {
		return cfg.Servers, nil
	}

	s, err := cfg.FindServer(id)
	if err != nil {
		return nil, err
	}

	return []config.ServerConfig{*s}, nil
}

func cleanDir(dir string, logger *slog.Logger) (int64, error) {
	size, err := dirSize(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return 0, nil
		}

		return 0, err
	}

	logger.Debug("removing cache directory", "dir", dir, "size", size)

	if err := os.RemoveAll(dir); err != nil {
		return 0, fmt.Errorf("removing %s: %w", dir, err)
	}

	return size, nil
}

func dirSize(path string) (int64, error) {
	var size int64

	err := filepath.WalkDir(path, func(_ string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}

		if !d.IsDir() {
			info, infoErr := d.Info()
			if infoErr != nil {
				return infoErr
			}

			size += info.Size()
		}

		return nil
	})

	return size, err
}

func formatBytes(b int64) string {
	const (
		kb = 1024
		mb = kb * 1024
		gb = mb * 1024
	)

	switch {
	case b >= gb:
		return fmt.Sprintf("%.1f GB", float64(b)/float64(gb))
	case b >= mb:
		return fmt.Sprintf("%.1f MB", float64(b)/float64(mb))
	case b >= kb:
		return fmt.Sprintf("%.1f KB", float64(b)/float64(kb))
	default:
		return fmt.Sprintf("%d B", b)
	}
}
