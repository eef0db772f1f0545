package launcher

import (
	"errors"
	"fmt"

	"github.com/donaldgifford/launchpad/internal/asset"
	"github.com/donaldgifford/launchpad/internal/cache"
	"github.com/donaldgifford/launchpad/internal/execpath"
	"github.com/donaldgifford/launchpad/internal/platform"
	"github.com/donaldgifford/launchpad/internal/release"
)

// ErrUnknownServer is returned by Registry for an id that is not configured.
var ErrUnknownServer = errors.New("unknown server")

// Kind identifies the pipeline stage an Error originated from.
type Kind int

// Error kinds, one per failing stage.
const (
	KindUnknown Kind = iota
	KindPlatform
	KindReleaseFetch
	KindAssetNotFound
	KindDirectoryCreate
	KindDownload
	KindExecutableFlag
	KindDirectoryList
	KindPathConversion
	KindLock
)

var kindNames = map[Kind]string{
	KindUnknown:         "unknown",
	KindPlatform:        "platform",
	KindReleaseFetch:    "release fetch",
	KindAssetNotFound:   "asset not found",
	KindDirectoryCreate: "directory create",
	KindDownload:        "download",
	KindExecutableFlag:  "executable flag",
	KindDirectoryList:   "directory list",
	KindPathConversion:  "path conversion",
	KindLock:            "lock",
}

func (k Kind) String() string {
	if name, ok := kindNames[k]; ok {
		return name
	}

	return fmt.Sprintf("kind(%d)", int(k))
}

// sentinelKinds maps package sentinels to the stage they belong to.
var sentinelKinds = []struct {
	err  error
	kind Kind
}{
	{platform.ErrUnsupported, KindPlatform},
	{release.ErrFetch, KindReleaseFetch},
	{asset.ErrNotFound, KindAssetNotFound},
	{cache.ErrCreateDir, KindDirectoryCreate},
	{cache.ErrDownload, KindDownload},
	{cache.ErrExecutable, KindExecutableFlag},
	{cache.ErrListDir, KindDirectoryList},
	{cache.ErrLock, KindLock},
	{execpath.ErrConversion, KindPathConversion},
}

// Error is a failure to produce a Command for a server.
type Error struct {
	Kind   Kind
	Server string
	Err    error
}

func (e *Error) Error() string {
	return fmt.Sprintf("launching %s: %s", e.Server, e.Err)
}

// Unwrap returns the underlying stage error.
func (e *Error) Unwrap() error {
	return e.Err
}

// KindOf classifies err by the package sentinel it wraps.
func KindOf(err error) Kind {
	var le *Error
	if errors.As(err, &le) {
		return le.Kind
	}

	for _, sk := range sentinelKinds {
		if errors.Is(err, sk.err) {
			return sk.kind
		}
	}

	return KindUnknown
}

func wrap(server string, err error) error {
	return &Error{Kind: KindOf(err), Server: server, Err: err}
}
