// Package detector derives the platform context of the host.
package detector

import (
	"os"
	"path/filepath"
	"runtime"
	"strings"

	"go.trai.ch/kiln/internal/core/domain"
	"go.trai.ch/kiln/internal/core/ports"
)

var _ ports.PlatformDetector = (*Detector)(nil)

// Detector implements ports.PlatformDetector from the Go runtime and the CC
// environment variable.
type Detector struct {
	goos   string
	goarch string
	getenv func(string) string
}

// New creates a Detector for the running host.
func New() *Detector {
	return &Detector{
		goos:   runtime.GOOS,
		goarch: runtime.GOARCH,
		getenv: os.Getenv,
	}
}

// NewForHost creates a Detector reporting the given host. getenv may be nil.
func NewForHost(goos, goarch string, getenv func(string) string) *Detector {
	if getenv == nil {
		getenv = func(string) string { return "" }
	}
	return &Detector{goos: goos, goarch: goarch, getenv: getenv}
}

// Detect returns the host platform built with buildType.
func (d *Detector) Detect(buildType domain.BuildType) domain.PlatformContext {
	hostOS := domain.ParseOS(d.goos)
	return domain.PlatformContext{
		OS:        hostOS,
		Compiler:  d.compiler(hostOS),
		BuildType: buildType,
		Arch:      arch(d.goarch),
	}
}

func (d *Detector) compiler(hostOS domain.OS) string {
	if cc := d.getenv("CC"); cc != "" {
		name := strings.TrimSuffix(filepath.Base(cc), filepath.Ext(cc))
		switch {
		case name == "cl" || name == "clang-cl":
			return "msvc"
		case strings.HasPrefix(name, "clang"):
			if hostOS == domain.OSMacos {
				return "apple-clang"
			}
			return "clang"
		case strings.HasPrefix(name, "gcc") || strings.HasSuffix(name, "-gcc"):
			return "gcc"
		default:
			return name
		}
	}

	switch hostOS {
	case domain.OSWindows:
		return "msvc"
	case domain.OSMacos:
		return "apple-clang"
	case domain.OSLinux:
		return "gcc"
	default:
		return "cc"
	}
}

// arch maps GOARCH to the architecture names used in build profiles.
func arch(goarch string) string {
	switch goarch {
	case "amd64":
		return "x86_64"
	case "386":
		return "x86"
	case "arm64":
		return "armv8"
	case "arm":
		return "armv7"
	default:
		return goarch
	}
}
