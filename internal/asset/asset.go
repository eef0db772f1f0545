// Package asset names and locates the release asset built for a platform.
package asset

import (
	"errors"
	"fmt"
	"strings"

	"github.com/donaldgifford/launchpad/internal/platform"
	"github.com/donaldgifford/launchpad/internal/release"
)

// ErrNotFound is returned when no release asset has the expected name.
var ErrNotFound = errors.New("asset not found")

// NotFoundError carries the computed name and the assets that were searched.
type NotFoundError struct {
	Name   string
	Assets []release.Asset
}

func (e *NotFoundError) Error() string {
	names := make([]string, 0, len(e.Assets))
	for _, a := range e.Assets {
		names = append(names, fmt.Sprintf("%q", a.Name))
	}

	return fmt.Sprintf("could not find asset %q in [%s]", e.Name, strings.Join(names, ", "))
}

// Unwrap lets errors.Is match ErrNotFound.
func (e *NotFoundError) Unwrap() error {
	return ErrNotFound
}

// ExpectedName renders "<binary>_<OsToken>_<ArchToken>.<ext>" for the platform.
func ExpectedName(binaryName string, p platform.Platform) string {
	return fmt.Sprintf("%s_%s_%s.%s", binaryName, p.OSToken(), p.ArchToken(), p.ArchiveFormat().Ext())
}

// Select returns the asset built for p. Matching is exact and case-sensitive.
func Select(rel *release.Release, p platform.Platform, binaryName string) (*release.Asset, error) {
	name := ExpectedName(binaryName, p)

	a, ok := Find(rel, name)
	if !ok {
		return nil, &NotFoundError{Name: name, Assets: rel.Assets}
	}

	return a, nil
}

// Find looks up an asset by exact name.
func Find(rel *release.Release, name string) (*release.Asset, bool) {
	for i := range rel.Assets {
		if rel.Assets[i].Name == name {
			return &rel.Assets[i], true
		}
	}

	return nil, false
}
