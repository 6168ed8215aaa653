// Package config provides the manifest loaders for kiln.
package config

import (
	"os"
	"path/filepath"
	"strings"

	"go.trai.ch/kiln/internal/core/domain"
	"go.trai.ch/kiln/internal/core/ports"
	"go.trai.ch/zerr"
	"gopkg.in/yaml.v3"
)

const (
	// DefaultManifest is the manifest looked up when none is given.
	DefaultManifest = "kiln.yaml"
	// DefaultBuildFolder is the build root used when the manifest names none.
	DefaultBuildFolder = "build"
	// CurrentVersion is the only manifest schema version understood.
	CurrentVersion = "1"
)

var _ ports.ManifestLoader = (*Loader)(nil)

// Loader implements ports.ManifestLoader for YAML and HCL manifests.
type Loader struct {
	logger ports.Logger
}

// NewLoader creates a new manifest loader.
func NewLoader(log ports.Logger) *Loader {
	return &Loader{logger: log}
}

// Load reads the manifest at path. Files ending in .hcl are parsed as HCL,
// everything else as YAML.
func (l *Loader) Load(path string) (*domain.Manifest, error) {
	var (
		m   *domain.Manifest
		err error
	)
	if strings.EqualFold(filepath.Ext(path), ".hcl") {
		m, err = LoadHCL(path)
	} else {
		var version string
		m, version, err = loadYAML(path)
		if err == nil && version == "" && l.logger != nil {
			l.logger.Warn("manifest " + path + " has no version, assuming " + CurrentVersion)
		}
	}
	if err != nil {
		return nil, err
	}
	return m, nil
}

// Load reads a YAML manifest from the given path.
func Load(path string) (*domain.Manifest, error) {
	m, _, err := loadYAML(path)
	return m, err
}

func loadYAML(path string) (*domain.Manifest, string, error) {
	data, err := os.ReadFile(path) //nolint:gosec // path is provided by user
	if err != nil {
		return nil, "", zerr.With(zerr.Wrap(err, "failed to read manifest"), "path", path)
	}

	var kf Kilnfile
	if err := yaml.Unmarshal(data, &kf); err != nil {
		return nil, "", zerr.With(zerr.Wrap(err, "failed to parse manifest"), "path", path)
	}

	m, err := kf.toManifest()
	if err != nil {
		return nil, "", zerr.With(err, "path", path)
	}
	return m, kf.Version, nil
}

func (kf *Kilnfile) toManifest() (*domain.Manifest, error) {
	if kf.Version != "" && kf.Version != CurrentVersion {
		return nil, zerr.With(zerr.Wrap(domain.ErrInvalidManifest, "unsupported manifest version"), "version", kf.Version)
	}

	m := newManifest(kf.Name, kf.BuildFolder, kf.BinSubdir)
	m.Commands = domain.Commands{
		Fetch:     kf.Commands.Fetch,
		Configure: kf.Commands.Configure,
		Build:     kf.Commands.Build,
		Install:   kf.Commands.Install,
	}

	for name, dto := range kf.Profiles {
		p, err := dto.toDomain()
		if err != nil {
			return nil, zerr.With(err, "profile", name)
		}
		m.Profiles[name] = p
	}

	for _, dto := range kf.Requires {
		req, err := dto.toDomain()
		if err != nil {
			return nil, err
		}
		m.Requires = append(m.Requires, req)
	}

	for _, rule := range kf.Requirements {
		when, err := rule.When.toDomain()
		if err != nil {
			return nil, err
		}
		for _, dto := range rule.Requires {
			req, err := dto.toDomain()
			if err != nil {
				return nil, err
			}
			m.addRequirement(when, req)
		}
	}

	for _, o := range kf.Overrides {
		when, err := o.When.toDomain()
		if err != nil {
			return nil, err
		}
		req, err := domain.ParseRequirement(o.Ref)
		if err != nil {
			return nil, err
		}
		m.addRequirement(when, req.Forced())
	}

	for _, dto := range kf.DefaultOptions {
		opt, err := dto.toDomain()
		if err != nil {
			return nil, err
		}
		m.Options = append(m.Options, domain.OptionRule{Option: opt})
	}

	for _, rule := range kf.Configure {
		when, err := rule.When.toDomain()
		if err != nil {
			return nil, err
		}
		for _, dto := range rule.Options {
			opt, err := dto.toDomain()
			if err != nil {
				return nil, err
			}
			m.Options = append(m.Options, domain.OptionRule{When: when, Option: opt})
		}
	}

	return m.Manifest, nil
}

// manifestBuilder accumulates a manifest shared by both formats.
type manifestBuilder struct {
	*domain.Manifest
}

func newManifest(name, buildFolder, binSubdir string) manifestBuilder {
	if buildFolder == "" {
		buildFolder = DefaultBuildFolder
	}
	if binSubdir == "" {
		binSubdir = domain.DefaultBinSubdir
	}
	return manifestBuilder{&domain.Manifest{
		Name:        name,
		Profiles:    make(map[string]domain.PlatformContext),
		BuildFolder: buildFolder,
		BinSubdir:   binSubdir,
	}}
}

// addRequirement files unconditional requirements with the base set.
func (b manifestBuilder) addRequirement(when domain.Condition, req domain.Requirement) {
	if when.IsUnconditional() {
		b.Requires = append(b.Requires, req)
		return
	}
	b.ConditionalRequires = append(b.ConditionalRequires, domain.RequirementRule{When: when, Requirement: req})
}

func parseOS(s string) (domain.OS, error) {
	target := domain.ParseOS(s)
	if target == domain.OSOther && !strings.EqualFold(strings.TrimSpace(s), string(domain.OSOther)) {
		return "", zerr.With(zerr.Wrap(domain.ErrInvalidManifest, "unknown operating system"), "os", s)
	}
	return target, nil
}

func parseCondition(oses, compilers, buildTypes, arches []string) (domain.Condition, error) {
	c := domain.Condition{Compiler: compilers, Arch: arches}
	for _, s := range oses {
		target, err := parseOS(s)
		if err != nil {
			return domain.Condition{}, err
		}
		c.OS = append(c.OS, target)
	}
	for _, s := range buildTypes {
		bt, err := domain.ParseBuildType(s)
		if err != nil {
			return domain.Condition{}, err
		}
		c.BuildType = append(c.BuildType, bt)
	}
	return c, nil
}

func parseProfile(osName, compiler, buildType, arch string) (domain.PlatformContext, error) {
	if osName == "" {
		return domain.PlatformContext{}, zerr.Wrap(domain.ErrInvalidManifest, "profile needs an os")
	}
	target, err := parseOS(osName)
	if err != nil {
		return domain.PlatformContext{}, err
	}
	bt := domain.BuildTypeRelease
	if buildType != "" {
		if bt, err = domain.ParseBuildType(buildType); err != nil {
			return domain.PlatformContext{}, err
		}
	}
	return domain.PlatformContext{OS: target, Compiler: compiler, BuildType: bt, Arch: arch}, nil
}
