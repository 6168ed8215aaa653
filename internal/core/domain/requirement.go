package domain

import (
	"strings"

	"go.trai.ch/zerr"
)

// Requirement is a pinned dependency. Name is its identity.
type Requirement struct {
	Name    InternedString
	Version InternedString
	// Force overrides any version of the same name selected earlier.
	Force bool
}

// NewRequirement creates an unforced requirement.
func NewRequirement(name, version string) Requirement {
	return Requirement{
		Name:    NewInternedString(name),
		Version: NewInternedString(version),
	}
}

// ParseRequirement parses a "name/version" reference.
func ParseRequirement(ref string) (Requirement, error) {
	name, version, ok := strings.Cut(strings.TrimSpace(ref), "/")
	if !ok || name == "" || version == "" || strings.ContainsAny(version, "/ ") || strings.Contains(name, " ") {
		return Requirement{}, zerr.With(zerr.Wrap(ErrInvalidRequirement, "expected name/version"), "ref", ref)
	}
	return NewRequirement(name, version), nil
}

// Ref returns the "name/version" reference of the requirement.
func (r Requirement) Ref() string {
	return r.Name.String() + "/" + r.Version.String()
}

// Forced returns a copy of the requirement with Force set.
func (r Requirement) Forced() Requirement {
	r.Force = true
	return r
}

// String implements fmt.Stringer.
func (r Requirement) String() string {
	if r.Force {
		return r.Ref() + " (forced)"
	}
	return r.Ref()
}
