package domain

import (
	"slices"

	"go.trai.ch/zerr"
)

// DefaultBinSubdir is the executable subdirectory used when the manifest names none.
const DefaultBinSubdir = "bin"

// Commands are the argv templates the build collaborator runs for each step.
// An empty command makes the step a no-op.
type Commands struct {
	Fetch     []string
	Configure []string
	Build     []string
	Install   []string
}

// Manifest is the interpreted dependency descriptor of an application.
type Manifest struct {
	Name string
	// Profiles maps a profile name to the platform it describes.
	Profiles map[string]PlatformContext
	// Requires are the unconditional requirements in declaration order,
	// including unconditional forced overrides, which follow the plain ones.
	Requires []Requirement
	// ConditionalRequires are evaluated after Requires, in order.
	ConditionalRequires []RequirementRule
	// Options holds default options (unconditional rules) followed by
	// configure-time conditional options, in declaration order.
	Options []OptionRule
	// BuildFolder is the build root, relative to the manifest directory.
	BuildFolder string
	// BinSubdir is the subdirectory of the build variant holding the executable.
	BinSubdir string
	Commands  Commands
}

// Profile returns the platform of a named profile.
func (m *Manifest) Profile(name string) (PlatformContext, error) {
	p, ok := m.Profiles[name]
	if !ok {
		names := make([]string, 0, len(m.Profiles))
		for n := range m.Profiles {
			names = append(names, n)
		}
		slices.Sort(names)
		err := zerr.With(zerr.Wrap(ErrUnknownProfile, "profile not declared in manifest"), "profile", name)
		return PlatformContext{}, zerr.With(err, "available", names)
	}
	return p, nil
}

// ConditionedOSes lists every OS named by a conditional rule.
func (m *Manifest) ConditionedOSes() []OS {
	var oses []OS
	for _, r := range m.ConditionalRequires {
		oses = append(oses, r.When.OS...)
	}
	for _, r := range m.Options {
		oses = append(oses, r.When.OS...)
	}
	slices.Sort(oses)
	return slices.Compact(oses)
}
