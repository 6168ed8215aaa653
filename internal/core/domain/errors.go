package domain

import "go.trai.ch/zerr"

var (
	// ErrResolutionConflict is returned when two forced requirements pin the same package to different versions.
	ErrResolutionConflict = zerr.New("resolution conflict")
	// ErrUnsupportedPlatform marks a platform that no OS-conditional rule names.
	// Resolution falls back to the unconditional requirement set.
	ErrUnsupportedPlatform = zerr.New("unsupported platform")
	// ErrCollaboratorFailure is returned when the external build collaborator reports a failure.
	ErrCollaboratorFailure = zerr.New("build collaborator failed")
	// ErrStagingIOFailure is returned when an artifact cannot be copied into the staging directory.
	ErrStagingIOFailure = zerr.New("staging failed")
	// ErrStagingOverlap is returned when the staging directory lies inside a dependency output directory.
	ErrStagingOverlap = zerr.New("staging directory overlaps dependency output")
	// ErrInvalidRequirement is returned for malformed requirement references.
	ErrInvalidRequirement = zerr.New("invalid requirement")
	// ErrInvalidOption is returned for malformed options.
	ErrInvalidOption = zerr.New("invalid option")
	// ErrInvalidManifest is returned when the manifest cannot be interpreted.
	ErrInvalidManifest = zerr.New("invalid manifest")
	// ErrUnknownProfile is returned when a requested profile is not declared in the manifest.
	ErrUnknownProfile = zerr.New("unknown profile")
	// ErrPackageAlreadyExists is returned when attempting to add a package with a name that already exists.
	ErrPackageAlreadyExists = zerr.New("package already exists")
	// ErrPackageNotFound is returned when a requested package is not found in the graph.
	ErrPackageNotFound = zerr.New("package not found")
	// ErrMissingDependency is returned when a package requires a package that is not in the graph.
	ErrMissingDependency = zerr.New("missing dependency")
	// ErrCycleDetected is returned when a cycle is detected in the package dependency graph.
	ErrCycleDetected = zerr.New("cycle detected")
)
