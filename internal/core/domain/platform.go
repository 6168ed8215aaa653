package domain

import (
	"strings"

	"go.trai.ch/zerr"
)

// OS is the operating system family a resolution targets.
type OS string

const (
	// OSWindows targets Microsoft Windows.
	OSWindows OS = "Windows"
	// OSLinux targets Linux distributions.
	OSLinux OS = "Linux"
	// OSMacos targets Apple macOS.
	OSMacos OS = "Macos"
	// OSOther is any platform kiln has no dedicated rules for.
	OSOther OS = "Other"
)

// ParseOS converts a manifest or CLI spelling into an OS.
// Unknown names map to OSOther.
func ParseOS(s string) OS {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "windows", "win32", "win":
		return OSWindows
	case "linux":
		return OSLinux
	case "macos", "darwin", "osx":
		return OSMacos
	default:
		return OSOther
	}
}

// BuildType is the build variant of the primary application.
type BuildType string

const (
	// BuildTypeDebug is an unoptimized build with debug information.
	BuildTypeDebug BuildType = "Debug"
	// BuildTypeRelease is an optimized build.
	BuildTypeRelease BuildType = "Release"
	// BuildTypeRelWithDebInfo is an optimized build with debug information.
	BuildTypeRelWithDebInfo BuildType = "RelWithDebInfo"
	// BuildTypeMinSizeRel is a size optimized build.
	BuildTypeMinSizeRel BuildType = "MinSizeRel"
)

// ParseBuildType converts a case-insensitive build type name into a BuildType.
func ParseBuildType(s string) (BuildType, error) {
	for _, bt := range []BuildType{BuildTypeDebug, BuildTypeRelease, BuildTypeRelWithDebInfo, BuildTypeMinSizeRel} {
		if strings.EqualFold(string(bt), strings.TrimSpace(s)) {
			return bt, nil
		}
	}
	return "", zerr.With(zerr.Wrap(ErrInvalidManifest, "unknown build type"), "build_type", s)
}

// PlatformContext describes the target of a single resolution pass.
// It is passed by value and never mutated once constructed.
type PlatformContext struct {
	OS        OS
	Compiler  string
	BuildType BuildType
	Arch      string
}

// String renders the context in a compact, log friendly form.
func (p PlatformContext) String() string {
	return string(p.OS) + "/" + p.Compiler + "/" + string(p.BuildType) + "/" + p.Arch
}

// WithBuildType returns a copy of the context targeting another build variant.
func (p PlatformContext) WithBuildType(bt BuildType) PlatformContext {
	p.BuildType = bt
	return p
}
