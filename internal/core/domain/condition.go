package domain

import "slices"

// Condition is a declarative predicate over a PlatformContext.
// Every non-empty field must contain the corresponding context value;
// an empty field accepts anything. The zero Condition always matches.
type Condition struct {
	OS        []OS
	Compiler  []string
	BuildType []BuildType
	Arch      []string
}

// Matches reports whether the context satisfies the condition.
func (c Condition) Matches(ctx PlatformContext) bool {
	if len(c.OS) > 0 && !slices.Contains(c.OS, ctx.OS) {
		return false
	}
	if len(c.Compiler) > 0 && !slices.Contains(c.Compiler, ctx.Compiler) {
		return false
	}
	if len(c.BuildType) > 0 && !slices.Contains(c.BuildType, ctx.BuildType) {
		return false
	}
	if len(c.Arch) > 0 && !slices.Contains(c.Arch, ctx.Arch) {
		return false
	}
	return true
}

// IsUnconditional reports whether the condition accepts every context.
func (c Condition) IsUnconditional() bool {
	return len(c.OS) == 0 && len(c.Compiler) == 0 && len(c.BuildType) == 0 && len(c.Arch) == 0
}

// RequirementRule adds Requirement when When matches the platform.
type RequirementRule struct {
	When        Condition
	Requirement Requirement
}

// OptionRule applies Option when When matches the platform.
type OptionRule struct {
	When   Condition
	Option Option
}
