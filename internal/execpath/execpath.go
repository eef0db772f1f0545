// Package execpath builds the absolute path of a cached executable.
package execpath

import (
	"errors"
	"fmt"
	"path"
	"path/filepath"
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/donaldgifford/launchpad/internal/platform"
)

// ErrConversion is returned when the assembled path is not representable as text.
var ErrConversion = errors.New("converting path to string")

// leadingDrive matches "/C:/" at the start of a slash-converted windows path.
var leadingDrive = regexp.MustCompile(`^/([A-Za-z]:/)`)

// Sanitize rewrites a windows path to forward slashes and drops the slash
// before a leading drive letter. Paths for other systems are returned as is.
//
//	C:\work\proj  -> C:/work/proj
//	\C:\work      -> C:/work
func Sanitize(target platform.OS, p string) string {
	if target != platform.Windows {
		return p
	}

	p = strings.ReplaceAll(p, `\`, "/")

	return leadingDrive.ReplaceAllString(p, "$1")
}

// Assemble resolves root to an absolute path and joins elems onto it.
// The launched process may run from a different working directory than the caller.
func Assemble(target platform.OS, root string, elems ...string) (string, error) {
	abs, err := filepath.Abs(root)
	if err != nil {
		return "", fmt.Errorf("%w: resolving %s: %w", ErrConversion, root, err)
	}

	return Join(target, abs, elems...)
}

// Join sanitizes base for target and appends elems with slash separators.
func Join(target platform.OS, base string, elems ...string) (string, error) {
	base = Sanitize(target, base)

	parts := make([]string, 0, len(elems)+1)
	parts = append(parts, base)
	parts = append(parts, elems...)

	joined := path.Join(parts...)
	if !utf8.ValidString(joined) {
		return "", fmt.Errorf("%w: %q", ErrConversion, joined)
	}

	return joined, nil
}
