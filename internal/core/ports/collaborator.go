package ports

import (
	"context"

	"go.trai.ch/kiln/internal/core/domain"
)

// BuildCollaborator is the external system that fetches, compiles and installs
// the resolved dependencies and the primary application.
//
// Every method is a hard dependency of the pipeline: a returned error aborts
// the run and is surfaced as is. Implementations must not retry.
//
//go:generate go run go.uber.org/mock/mockgen -source=collaborator.go -destination=mocks/mock_collaborator.go -package=mocks
type BuildCollaborator interface {
	// FetchAndBuild makes every requirement available, configured with the
	// effective options, and reports each package's output directories.
	FetchAndBuild(
		ctx context.Context,
		requirements []domain.Requirement,
		options []domain.Option,
		platform domain.PlatformContext,
	) (*domain.DependencyGraph, error)

	// ConfigureAndBuild configures and builds the primary application.
	ConfigureAndBuild(ctx context.Context, platform domain.PlatformContext) error

	// Install installs or packages the build outputs.
	Install(ctx context.Context, platform domain.PlatformContext) error
}

// CollaboratorFactory binds a BuildCollaborator to a loaded manifest.
type CollaboratorFactory interface {
	// ForManifest returns a collaborator running the manifest's commands
	// from workDir.
	ForManifest(m *domain.Manifest, workDir string) (BuildCollaborator, error)
}
