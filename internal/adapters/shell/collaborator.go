package shell

import (
	"bytes"
	"context"
	"encoding/json"
	"os"

	"go.trai.ch/kiln/internal/core/domain"
	"go.trai.ch/kiln/internal/core/ports"
	"go.trai.ch/zerr"
)

// Environment variables exported to every collaborator command.
const (
	EnvOS         = "KILN_OS"
	EnvCompiler   = "KILN_COMPILER"
	EnvBuildType  = "KILN_BUILD_TYPE"
	EnvArch       = "KILN_ARCH"
	EnvResolution = "KILN_RESOLUTION"
)

var (
	_ ports.BuildCollaborator   = (*Collaborator)(nil)
	_ ports.CollaboratorFactory = (*Factory)(nil)
)

// Factory creates collaborators for loaded manifests.
type Factory struct {
	executor *Executor
}

// NewFactory creates a new Factory.
func NewFactory(executor *Executor) *Factory {
	return &Factory{executor: executor}
}

// ForManifest returns a collaborator running m's commands from workDir.
func (f *Factory) ForManifest(m *domain.Manifest, workDir string) (ports.BuildCollaborator, error) {
	return NewCollaborator(f.executor, m.Commands, workDir), nil
}

// Collaborator implements ports.BuildCollaborator by running the manifest's
// commands. Arguments may reference the KILN_* variables as ${KILN_OS} etc.
type Collaborator struct {
	executor *Executor
	commands domain.Commands
	workDir  string
}

// NewCollaborator creates a Collaborator.
func NewCollaborator(executor *Executor, commands domain.Commands, workDir string) *Collaborator {
	return &Collaborator{
		executor: executor,
		commands: commands,
		workDir:  workDir,
	}
}

// FetchAndBuild runs the fetch command and decodes the dependency graph it
// prints. Without a fetch command every requirement is reported without
// output directories.
func (c *Collaborator) FetchAndBuild(
	ctx context.Context,
	requirements []domain.Requirement,
	options []domain.Option,
	platform domain.PlatformContext,
) (*domain.DependencyGraph, error) {
	if len(c.commands.Fetch) == 0 {
		g := domain.NewDependencyGraph()
		for _, req := range requirements {
			if err := g.AddEntry(&domain.Entry{Requirement: req}); err != nil {
				return nil, err
			}
		}
		return g, nil
	}

	data, err := json.MarshalIndent(newResolutionDocument(requirements, options, platform), "", "  ")
	if err != nil {
		return nil, zerr.Wrap(err, "failed to marshal resolution")
	}

	f, err := os.CreateTemp("", "kiln-resolution-*.json")
	if err != nil {
		return nil, zerr.Wrap(err, "failed to create resolution file")
	}
	defer os.Remove(f.Name()) //nolint:errcheck // Best effort cleanup
	if _, err := f.Write(data); err != nil {
		_ = f.Close()
		return nil, zerr.Wrap(err, "failed to write resolution file")
	}
	if err := f.Close(); err != nil {
		return nil, zerr.Wrap(err, "failed to write resolution file")
	}

	env := platformEnv(platform)
	env[EnvResolution] = f.Name()

	var stdout bytes.Buffer
	if err := c.executor.Run(ctx, expand(c.commands.Fetch, env), c.workDir, env, &stdout, nil); err != nil {
		return nil, err
	}

	return decodeGraph(stdout.Bytes(), requirements, c.workDir)
}

// ConfigureAndBuild runs the configure command, then the build command.
func (c *Collaborator) ConfigureAndBuild(ctx context.Context, platform domain.PlatformContext) error {
	env := platformEnv(platform)
	if err := c.executor.Run(ctx, expand(c.commands.Configure, env), c.workDir, env, nil, nil); err != nil {
		return zerr.Wrap(err, "configure failed")
	}
	if err := c.executor.Run(ctx, expand(c.commands.Build, env), c.workDir, env, nil, nil); err != nil {
		return zerr.Wrap(err, "build failed")
	}
	return nil
}

// Install runs the install command.
func (c *Collaborator) Install(ctx context.Context, platform domain.PlatformContext) error {
	env := platformEnv(platform)
	return c.executor.Run(ctx, expand(c.commands.Install, env), c.workDir, env, nil, nil)
}

func platformEnv(p domain.PlatformContext) map[string]string {
	return map[string]string{
		EnvOS:        string(p.OS),
		EnvCompiler:  p.Compiler,
		EnvBuildType: string(p.BuildType),
		EnvArch:      p.Arch,
	}
}

// expand substitutes the KILN_* variables in argv; other references are
// left for the command itself.
func expand(argv []string, env map[string]string) []string {
	out := make([]string, len(argv))
	for i, arg := range argv {
		out[i] = os.Expand(arg, func(key string) string {
			if v, ok := env[key]; ok {
				return v
			}
			return "${" + key + "}"
		})
	}
	return out
}
