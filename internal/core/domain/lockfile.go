package domain

import "time"

// LockfileVersion is the current lockfile format version.
const LockfileVersion = 1

// LockedRequirement is the serialized form of an effective requirement.
type LockedRequirement struct {
	Ref    string `json:"ref"`
	Forced bool   `json:"forced,omitzero"`
}

// Lockfile is a reproducible snapshot of one resolution pass.
type Lockfile struct {
	// Version is the lockfile format version.
	Version int `json:"version"`
	// Profile is the profile (or "host") the snapshot was resolved for.
	Profile      string              `json:"profile"`
	Platform     string              `json:"platform"`
	Requirements []LockedRequirement `json:"requirements"`
	Options      []Option            `json:"options,omitempty"`
	ResolvedAt   time.Time           `json:"resolved_at,omitzero"`
}
