// Package platform maps the running machine to the OS/architecture pair used to
// pick a release asset, along with the fixed lookup tables derived from it.
package platform

import (
	"errors"
	"fmt"
	"runtime"
)

// ErrUnsupported is returned for a GOOS/GOARCH pair no release is published for.
var ErrUnsupported = errors.New("unsupported platform")

// OS is a canonical operating system.
type OS string

// Arch is a canonical CPU architecture.
type Arch string

// Supported operating systems.
const (
	Mac     OS = "mac"
	Linux   OS = "linux"
	Windows OS = "windows"
)

// Supported architectures.
const (
	Aarch64 Arch = "aarch64"
	X86     Arch = "x86"
	X8664   Arch = "x86_64"
)

// ArchiveFormat is the archive type a release asset is published in.
type ArchiveFormat string

// Archive formats. The value doubles as the file extension.
const (
	GzipTar ArchiveFormat = "tar.gz"
	Zip     ArchiveFormat = "zip"
)

// Ext returns the file extension for the format, without a leading dot.
func (f ArchiveFormat) Ext() string {
	return string(f)
}

// Platform holds OS/architecture information for asset selection.
type Platform struct {
	OS   OS
	Arch Arch
}

func (p Platform) String() string {
	return string(p.OS) + "/" + string(p.Arch)
}

var (
	goosToOS = map[string]OS{
		"darwin":  Mac,
		"linux":   Linux,
		"windows": Windows,
	}

	goarchToArch = map[string]Arch{
		"arm64": Aarch64,
		"386":   X86,
		"amd64": X8664,
	}

	archiveFormats = map[OS]ArchiveFormat{
		Mac:     GzipTar,
		Linux:   GzipTar,
		Windows: Zip,
	}

	osTokens = map[OS]string{
		Mac:     "Darwin",
		Linux:   "Linux",
		Windows: "Windows",
	}

	archTokens = map[Arch]string{
		Aarch64: "arm64",
		X86:     "i386",
		X8664:   "x86_64",
	}

	binarySuffixes = map[OS]string{
		Windows: ".exe",
	}
)

// Detect returns the platform of the running binary.
func Detect() (Platform, error) {
	return DetectFrom(runtime.GOOS, runtime.GOARCH)
}

// DetectFrom maps Go's GOOS/GOARCH values to a Platform.
func DetectFrom(goos, goarch string) (Platform, error) {
	o, ok := goosToOS[goos]
	if !ok {
		return Platform{}, fmt.Errorf("%w: operating system %q", ErrUnsupported, goos)
	}

	a, ok := goarchToArch[goarch]
	if !ok {
		return Platform{}, fmt.Errorf("%w: architecture %q", ErrUnsupported, goarch)
	}

	return Platform{OS: o, Arch: a}, nil
}

// ArchiveFormat returns the archive type releases use for this OS.
func (p Platform) ArchiveFormat() ArchiveFormat {
	return archiveFormats[p.OS]
}

// BinaryName returns the executable file name of tool on this OS.
func (p Platform) BinaryName(tool string) string {
	return tool + binarySuffixes[p.OS]
}

// OSToken returns the OS component of a release asset name.
func (p Platform) OSToken() string {
	return osTokens[p.OS]
}

// ArchToken returns the architecture component of a release asset name.
func (p Platform) ArchToken() string {
	return archTokens[p.Arch]
}
