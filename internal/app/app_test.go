package app_test

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.trai.ch/kiln/internal/app"
	"go.trai.ch/kiln/internal/core/domain"
	"go.trai.ch/kiln/internal/core/ports"
	"go.trai.ch/kiln/internal/core/ports/mocks"
	"go.trai.ch/kiln/internal/engine/stager"
	"go.trai.ch/zerr"
	"go.uber.org/mock/gomock"
)

var (
	windows = domain.PlatformContext{OS: domain.OSWindows, Compiler: "msvc", BuildType: domain.BuildTypeRelease, Arch: "x86_64"}
	linux   = domain.PlatformContext{OS: domain.OSLinux, Compiler: "gcc", BuildType: domain.BuildTypeRelease, Arch: "x86_64"}
	fixedAt = time.Date(2026, 10, 19, 12, 0, 0, 0, time.UTC)
)

type vertexRecord struct {
	name   string
	inputs []string
	err    error
}

type harness struct {
	app          *app.App
	loader       *mocks.MockManifestLoader
	factory      *mocks.MockCollaboratorFactory
	collaborator *mocks.MockBuildCollaborator
	stores       *mocks.MockLockStoreFactory
	store        *mocks.MockLockStore
	detector     *mocks.MockPlatformDetector
	logger       *mocks.MockLogger
	vertices     []*vertexRecord
	infos        []string
	warnings     []string
	dir          string
	manifestPath string
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	ctrl := gomock.NewController(t)

	h := &harness{
		loader:       mocks.NewMockManifestLoader(ctrl),
		factory:      mocks.NewMockCollaboratorFactory(ctrl),
		collaborator: mocks.NewMockBuildCollaborator(ctrl),
		stores:       mocks.NewMockLockStoreFactory(ctrl),
		store:        mocks.NewMockLockStore(ctrl),
		detector:     mocks.NewMockPlatformDetector(ctrl),
		logger:       mocks.NewMockLogger(ctrl),
		dir:          t.TempDir(),
	}
	h.manifestPath = filepath.Join(h.dir, "app", "kiln.yaml")
	h.stores.EXPECT().ForDir(filepath.Join(h.dir, "app")).Return(h.store).AnyTimes()

	hasher := mocks.NewMockHasher(ctrl)
	hasher.EXPECT().ComputeFileHash(gomock.Any()).Return(uint64(1), nil).AnyTimes()

	telemetry := mocks.NewMockTelemetry(ctrl)
	telemetry.EXPECT().Record(gomock.Any(), gomock.Any(), gomock.Any()).DoAndReturn(
		func(ctx context.Context, name string, opts ...ports.VertexOption) (context.Context, ports.Vertex) {
			var cfg ports.VertexConfig
			for _, opt := range opts {
				opt(&cfg)
			}
			rec := &vertexRecord{name: name, inputs: cfg.Inputs}
			h.vertices = append(h.vertices, rec)

			vertex := mocks.NewMockVertex(ctrl)
			vertex.EXPECT().Complete(gomock.Any()).Do(func(err error) { rec.err = err }).Times(1)
			return ports.ContextWithVertex(ctx, vertex), vertex
		},
	).AnyTimes()

	h.logger.EXPECT().Info(gomock.Any()).Do(func(msg string) { h.infos = append(h.infos, msg) }).AnyTimes()
	h.logger.EXPECT().Warn(gomock.Any()).Do(func(msg string) { h.warnings = append(h.warnings, msg) }).AnyTimes()

	h.app = app.New(
		h.loader,
		h.factory,
		stager.New(hasher, h.logger),
		h.stores,
		h.detector,
		telemetry,
		h.logger,
	).WithClock(func() time.Time { return fixedAt })
	return h
}

func (h *harness) steps() []string {
	names := make([]string, len(h.vertices))
	for i, v := range h.vertices {
		names[i] = v.name
	}
	return names
}

func manifest() *domain.Manifest {
	return &domain.Manifest{
		Name: "viewer",
		Profiles: map[string]domain.PlatformContext{
			"windows": windows,
			"linux":   linux,
		},
		Requires: []domain.Requirement{
			domain.NewRequirement("zlib", "1.3.1"),
			domain.NewRequirement("openssl", "3.3.2"),
		},
		ConditionalRequires: []domain.RequirementRule{
			{When: domain.Condition{OS: []domain.OS{domain.OSLinux}}, Requirement: domain.NewRequirement("openssl", "3.4.1").Forced()},
		},
		Options: []domain.OptionRule{
			{Option: domain.Option{Pattern: "zlib/*", Key: "shared", Value: domain.BoolValue(true)}},
		},
		BuildFolder: "build",
		BinSubdir:   "bin",
	}
}

func dependencyGraph(t *testing.T, binDir string) *domain.DependencyGraph {
	t.Helper()
	g := domain.NewDependencyGraph()
	require.NoError(t, g.AddEntry(&domain.Entry{
		Requirement: domain.NewRequirement("zlib", "1.3.1"),
		BinDirs:     []string{binDir},
	}))
	require.NoError(t, g.AddEntry(&domain.Entry{
		Requirement: domain.NewRequirement("openssl", "3.3.2"),
		Requires:    domain.NewInternedStrings([]string{"zlib"}),
	}))
	return g
}

func TestApp_Run_FullPipeline(t *testing.T) {
	h := newHarness(t)
	m := manifest()

	binDir := filepath.Join(h.dir, "deps", "zlib", "bin")
	require.NoError(t, os.MkdirAll(binDir, 0o750))
	require.NoError(t, os.WriteFile(filepath.Join(binDir, "zlib1.dll"), []byte("dll"), 0o600))

	var lock domain.Lockfile
	gomock.InOrder(
		h.loader.EXPECT().Load(h.manifestPath).Return(m, nil),
		h.store.EXPECT().Get("windows").Return(nil, nil),
		h.store.EXPECT().Put(gomock.Any()).DoAndReturn(func(l domain.Lockfile) error {
			lock = l
			return nil
		}),
		h.factory.EXPECT().ForManifest(m, filepath.Join(h.dir, "app")).Return(h.collaborator, nil),
		h.collaborator.EXPECT().FetchAndBuild(gomock.Any(), gomock.Any(), gomock.Any(), windows).
			DoAndReturn(func(_ context.Context, reqs []domain.Requirement, opts []domain.Option, _ domain.PlatformContext) (*domain.DependencyGraph, error) {
				assert.Equal(t, []string{"zlib/1.3.1", "openssl/3.3.2"}, []string{reqs[0].String(), reqs[1].String()})
				assert.Len(t, opts, 1)
				return dependencyGraph(t, binDir), nil
			}),
		h.collaborator.EXPECT().ConfigureAndBuild(gomock.Any(), windows).Return(nil),
		h.collaborator.EXPECT().Install(gomock.Any(), windows).Return(nil),
	)

	report, err := h.app.Run(context.Background(), h.manifestPath, app.RunOptions{Profile: "windows"})
	require.NoError(t, err)

	assert.Equal(t, []string{"load", "resolve", "fetch", "stage", "build", "install"}, h.steps())
	assert.Empty(t, h.vertices[0].inputs)
	assert.Equal(t, []string{"stage"}, h.vertices[4].inputs)
	for _, v := range h.vertices {
		assert.NoError(t, v.err, v.name)
	}

	assert.Equal(t, "windows", lock.Profile)
	assert.Equal(t, fixedAt, lock.ResolvedAt)
	assert.Equal(t, "Windows/msvc/Release/x86_64", lock.Platform)

	zlib, ok := report.Graph.Entry("zlib")
	require.True(t, ok)
	shared, ok := zlib.Option("shared")
	require.True(t, ok)
	assert.Equal(t, "True", shared.String())

	staged := filepath.Join(h.dir, "app", "Release", "bin", "zlib1.dll")
	require.Equal(t, 1, report.Staging.Len())
	assert.Equal(t, staged, report.Staging.Artifacts[0].Dest)
	assert.FileExists(t, staged)
	assert.Len(t, h.warnings, 1)
}

func TestApp_Run_SkipBuild(t *testing.T) {
	h := newHarness(t)
	m := manifest()

	h.loader.EXPECT().Load(h.manifestPath).Return(m, nil)
	h.store.EXPECT().Get("linux").Return(nil, nil)
	h.store.EXPECT().Put(gomock.Any()).Return(nil)
	h.factory.EXPECT().ForManifest(m, gomock.Any()).Return(h.collaborator, nil)
	h.collaborator.EXPECT().FetchAndBuild(gomock.Any(), gomock.Any(), gomock.Any(), linux).
		Return(dependencyGraph(t, filepath.Join(h.dir, "missing")), nil)

	report, err := h.app.Run(context.Background(), h.manifestPath, app.RunOptions{Profile: "linux", SkipBuild: true})
	require.NoError(t, err)
	assert.Equal(t, []string{"load", "resolve", "fetch", "stage"}, h.steps())
	assert.Equal(t, 0, report.Staging.Len())

	// Linux picks up the forced override.
	assert.Equal(t, "openssl/3.4.1 (forced)", report.Resolution.Requirements[1].String())
}

func TestApp_Run_SkipInstall(t *testing.T) {
	h := newHarness(t)
	m := manifest()

	h.loader.EXPECT().Load(h.manifestPath).Return(m, nil)
	h.store.EXPECT().Get("linux").Return(nil, nil)
	h.store.EXPECT().Put(gomock.Any()).Return(nil)
	h.factory.EXPECT().ForManifest(m, gomock.Any()).Return(h.collaborator, nil)
	h.collaborator.EXPECT().FetchAndBuild(gomock.Any(), gomock.Any(), gomock.Any(), linux).
		Return(domain.NewDependencyGraph(), nil)
	h.collaborator.EXPECT().ConfigureAndBuild(gomock.Any(), linux).Return(nil)

	_, err := h.app.Run(context.Background(), h.manifestPath, app.RunOptions{Profile: "linux", SkipInstall: true})
	require.NoError(t, err)
	assert.Equal(t, []string{"load", "resolve", "fetch", "stage", "build"}, h.steps())
}

func TestApp_Run_StepFailures(t *testing.T) {
	collaboratorErr := zerr.With(zerr.Wrap(domain.ErrCollaboratorFailure, "command failed"), "exit_code", 2)

	tests := []struct {
		name    string
		setup   func(h *harness, m *domain.Manifest)
		step    string
		wantErr error
	}{
		{
			name: "load",
			setup: func(h *harness, _ *domain.Manifest) {
				h.loader.EXPECT().Load(gomock.Any()).Return(nil, zerr.Wrap(domain.ErrInvalidManifest, "bad version"))
			},
			step:    "load",
			wantErr: domain.ErrInvalidManifest,
		},
		{
			name: "fetch",
			setup: func(h *harness, m *domain.Manifest) {
				h.loader.EXPECT().Load(gomock.Any()).Return(m, nil)
				h.store.EXPECT().Get(gomock.Any()).Return(nil, nil)
				h.store.EXPECT().Put(gomock.Any()).Return(nil)
				h.factory.EXPECT().ForManifest(m, gomock.Any()).Return(h.collaborator, nil)
				h.collaborator.EXPECT().FetchAndBuild(gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any()).
					Return(nil, collaboratorErr)
			},
			step:    "fetch",
			wantErr: domain.ErrCollaboratorFailure,
		},
		{
			name: "build",
			setup: func(h *harness, m *domain.Manifest) {
				h.loader.EXPECT().Load(gomock.Any()).Return(m, nil)
				h.store.EXPECT().Get(gomock.Any()).Return(nil, nil)
				h.store.EXPECT().Put(gomock.Any()).Return(nil)
				h.factory.EXPECT().ForManifest(m, gomock.Any()).Return(h.collaborator, nil)
				h.collaborator.EXPECT().FetchAndBuild(gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any()).
					Return(domain.NewDependencyGraph(), nil)
				h.collaborator.EXPECT().ConfigureAndBuild(gomock.Any(), gomock.Any()).Return(collaboratorErr)
			},
			step:    "build",
			wantErr: domain.ErrCollaboratorFailure,
		},
		{
			name: "invalid graph",
			setup: func(h *harness, m *domain.Manifest) {
				h.loader.EXPECT().Load(gomock.Any()).Return(m, nil)
				h.store.EXPECT().Get(gomock.Any()).Return(nil, nil)
				h.store.EXPECT().Put(gomock.Any()).Return(nil)
				h.factory.EXPECT().ForManifest(m, gomock.Any()).Return(h.collaborator, nil)
				g := domain.NewDependencyGraph()
				_ = g.AddEntry(&domain.Entry{
					Requirement: domain.NewRequirement("openssl", "3.3.2"),
					Requires:    domain.NewInternedStrings([]string{"zlib"}),
				})
				h.collaborator.EXPECT().FetchAndBuild(gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any()).Return(g, nil)
			},
			step:    "fetch",
			wantErr: domain.ErrMissingDependency,
		},
		{
			name: "lockfile",
			setup: func(h *harness, m *domain.Manifest) {
				h.loader.EXPECT().Load(gomock.Any()).Return(m, nil)
				h.store.EXPECT().Get(gomock.Any()).Return(nil, nil)
				h.store.EXPECT().Put(gomock.Any()).Return(errors.New("disk full"))
			},
			step: "resolve",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := newHarness(t)
			tt.setup(h, manifest())

			_, err := h.app.Run(context.Background(), h.manifestPath, app.RunOptions{Profile: "linux"})
			require.Error(t, err)
			if tt.wantErr != nil {
				require.ErrorIs(t, err, tt.wantErr)
			}
			assert.Contains(t, err.Error(), tt.step+" step failed")

			var zErr *zerr.Error
			require.ErrorAs(t, err, &zErr)
			assert.Equal(t, tt.step, zErr.Metadata()["step"])

			last := h.vertices[len(h.vertices)-1]
			assert.Equal(t, tt.step, last.name)
			assert.Equal(t, err, last.err)
		})
	}
}

func requireStepError(t *testing.T, h *harness, err error, step string, want error) {
	t.Helper()
	require.ErrorIs(t, err, want)
	assert.Contains(t, err.Error(), step+" step failed")

	var zErr *zerr.Error
	require.ErrorAs(t, err, &zErr)
	assert.Equal(t, step, zErr.Metadata()["step"])

	last := h.vertices[len(h.vertices)-1]
	assert.Equal(t, step, last.name)
	assert.Equal(t, err, last.err)
}

func TestApp_Run_StagingFailureStopsBeforeBuild(t *testing.T) {
	h := newHarness(t)
	m := manifest()

	binDir := filepath.Join(h.dir, "deps", "zlib", "bin")
	require.NoError(t, os.MkdirAll(binDir, 0o750))
	require.NoError(t, os.WriteFile(filepath.Join(binDir, "zlib1.dll"), []byte("dll"), 0o600))
	// A regular file where the Release variant directory should be.
	require.NoError(t, os.MkdirAll(filepath.Join(h.dir, "app"), 0o750))
	require.NoError(t, os.WriteFile(filepath.Join(h.dir, "app", "Release"), nil, 0o600))

	h.loader.EXPECT().Load(h.manifestPath).Return(m, nil)
	h.store.EXPECT().Get("windows").Return(nil, nil)
	h.store.EXPECT().Put(gomock.Any()).Return(nil)
	h.factory.EXPECT().ForManifest(m, gomock.Any()).Return(h.collaborator, nil)
	h.collaborator.EXPECT().FetchAndBuild(gomock.Any(), gomock.Any(), gomock.Any(), windows).
		Return(dependencyGraph(t, binDir), nil)
	h.collaborator.EXPECT().ConfigureAndBuild(gomock.Any(), gomock.Any()).Times(0)
	h.collaborator.EXPECT().Install(gomock.Any(), gomock.Any()).Times(0)

	_, err := h.app.Run(context.Background(), h.manifestPath, app.RunOptions{Profile: "windows"})
	requireStepError(t, h, err, "stage", domain.ErrStagingIOFailure)
	assert.Equal(t, []string{"load", "resolve", "fetch", "stage"}, h.steps())
}

func TestApp_Run_InstallFailure(t *testing.T) {
	h := newHarness(t)
	m := manifest()
	installErr := zerr.With(zerr.Wrap(domain.ErrCollaboratorFailure, "command failed"), "exit_code", 1)

	h.loader.EXPECT().Load(h.manifestPath).Return(m, nil)
	h.store.EXPECT().Get("linux").Return(nil, nil)
	h.store.EXPECT().Put(gomock.Any()).Return(nil)
	h.factory.EXPECT().ForManifest(m, gomock.Any()).Return(h.collaborator, nil)
	h.collaborator.EXPECT().FetchAndBuild(gomock.Any(), gomock.Any(), gomock.Any(), linux).
		Return(domain.NewDependencyGraph(), nil)
	h.collaborator.EXPECT().ConfigureAndBuild(gomock.Any(), linux).Return(nil)
	h.collaborator.EXPECT().Install(gomock.Any(), linux).Return(installErr)

	report, err := h.app.Run(context.Background(), h.manifestPath, app.RunOptions{Profile: "linux"})
	assert.Nil(t, report)
	requireStepError(t, h, err, "install", domain.ErrCollaboratorFailure)
	assert.Equal(t, []string{"load", "resolve", "fetch", "stage", "build", "install"}, h.steps())
}

func TestApp_Run_UnknownProfile(t *testing.T) {
	h := newHarness(t)
	h.loader.EXPECT().Load(gomock.Any()).Return(manifest(), nil)

	_, err := h.app.Run(context.Background(), h.manifestPath, app.RunOptions{Profile: "solaris"})
	require.ErrorIs(t, err, domain.ErrUnknownProfile)
	assert.Equal(t, []string{"load", "resolve"}, h.steps())
}

func TestApp_Run_ResolutionConflict(t *testing.T) {
	h := newHarness(t)
	m := manifest()
	m.Requires = append(m.Requires, domain.NewRequirement("openssl", "3.0.15").Forced())
	h.loader.EXPECT().Load(gomock.Any()).Return(m, nil)

	_, err := h.app.Run(context.Background(), h.manifestPath, app.RunOptions{Profile: "linux"})
	require.ErrorIs(t, err, domain.ErrResolutionConflict)
}

func TestApp_Resolve_DetectsHost(t *testing.T) {
	h := newHarness(t)
	m := manifest()

	macos := domain.PlatformContext{OS: domain.OSMacos, Compiler: "apple-clang", BuildType: domain.BuildTypeDebug, Arch: "armv8"}
	h.loader.EXPECT().Load(h.manifestPath).Return(m, nil)
	h.detector.EXPECT().Detect(domain.BuildTypeDebug).Return(macos)

	report, err := h.app.Resolve(context.Background(), h.manifestPath, app.RunOptions{BuildType: domain.BuildTypeDebug})
	require.NoError(t, err)

	assert.Equal(t, app.HostProfile, report.Profile)
	// Rules only name Linux.
	assert.True(t, report.Resolution.UnsupportedPlatform)
	require.Len(t, h.warnings, 1)
	assert.Contains(t, h.warnings[0], "unsupported platform")
	assert.Equal(t, []string{"load", "resolve"}, h.steps())

	openssl, ok := report.Graph.Entry("openssl")
	require.True(t, ok)
	assert.Equal(t, "3.3.2", openssl.Requirement.Version.String())
	zlib, ok := report.Graph.Entry("zlib")
	require.True(t, ok)
	_, ok = zlib.Option("shared")
	assert.True(t, ok)
}

func TestApp_Resolve_BuildTypeOverridesProfile(t *testing.T) {
	h := newHarness(t)
	h.loader.EXPECT().Load(gomock.Any()).Return(manifest(), nil)

	report, err := h.app.Resolve(context.Background(), h.manifestPath,
		app.RunOptions{Profile: "linux", BuildType: domain.BuildTypeRelWithDebInfo})
	require.NoError(t, err)
	assert.Equal(t, domain.BuildTypeRelWithDebInfo, report.Resolution.Platform.BuildType)
	assert.Equal(t, domain.OSLinux, report.Resolution.Platform.OS)
}

func TestApp_Run_ReportsChangedLockfile(t *testing.T) {
	h := newHarness(t)
	m := manifest()

	prev := &domain.Lockfile{Profile: "linux", Requirements: []domain.LockedRequirement{{Ref: "zlib/1.2.13"}}}

	h.loader.EXPECT().Load(gomock.Any()).Return(m, nil)
	h.store.EXPECT().Get("linux").Return(prev, nil)
	h.store.EXPECT().Put(gomock.Any()).Return(nil)
	h.factory.EXPECT().ForManifest(m, gomock.Any()).Return(h.collaborator, nil)
	h.collaborator.EXPECT().FetchAndBuild(gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any()).
		Return(domain.NewDependencyGraph(), nil)

	_, err := h.app.Run(context.Background(), h.manifestPath, app.RunOptions{Profile: "linux", SkipBuild: true})
	require.NoError(t, err)
	assert.Contains(t, h.infos, "openssl forced 3.3.2 -> 3.4.1 (upgrade)")
	assert.Contains(t, h.infos, "requirements for profile linux changed since the last resolution")
}
