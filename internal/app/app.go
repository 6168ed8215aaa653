// Package app implements the application layer for kiln.
package app

import (
	"context"
	"fmt"
	"path/filepath"
	"slices"
	"time"

	"go.trai.ch/kiln/internal/core/domain"
	"go.trai.ch/kiln/internal/core/ports"
	"go.trai.ch/kiln/internal/engine/resolver"
	"go.trai.ch/kiln/internal/engine/stager"
	"go.trai.ch/zerr"
)

// HostProfile is the lockfile key used when the platform is detected.
const HostProfile = "host"

// RunOptions configures a pipeline run.
type RunOptions struct {
	// Profile names a manifest profile. Empty detects the host platform.
	Profile string
	// BuildType overrides the profile's build type. Empty keeps it
	// (Release for the host).
	BuildType domain.BuildType
	// SkipBuild stops the pipeline after staging.
	SkipBuild bool
	// SkipInstall stops the pipeline after building the application.
	SkipInstall bool
}

// Report describes what a run produced.
type Report struct {
	Profile    string
	Resolution *resolver.Resolution
	// Graph is the collaborator's graph after a run, or the unbuilt
	// skeleton after Resolve.
	Graph   *domain.DependencyGraph
	Staging *domain.StagingReport
}

// App represents the main application logic.
type App struct {
	loader        ports.ManifestLoader
	collaborators ports.CollaboratorFactory
	stager        *stager.Stager
	stores        ports.LockStoreFactory
	detector      ports.PlatformDetector
	telemetry     ports.Telemetry
	logger        ports.Logger
	now           func() time.Time
}

// New creates a new App instance.
func New(
	loader ports.ManifestLoader,
	collaborators ports.CollaboratorFactory,
	stg *stager.Stager,
	stores ports.LockStoreFactory,
	detector ports.PlatformDetector,
	telemetry ports.Telemetry,
	logger ports.Logger,
) *App {
	return &App{
		loader:        loader,
		collaborators: collaborators,
		stager:        stg,
		stores:        stores,
		detector:      detector,
		telemetry:     telemetry,
		logger:        logger,
		now:           time.Now,
	}
}

// WithClock sets the clock used to timestamp lockfiles.
func (a *App) WithClock(now func() time.Time) *App {
	a.now = now
	return a
}

// Run executes the pipeline for the manifest at manifestPath:
// load, resolve, fetch, stage, build and install.
func (a *App) Run(ctx context.Context, manifestPath string, opts RunOptions) (*Report, error) {
	workDir, err := filepath.Abs(filepath.Dir(manifestPath))
	if err != nil {
		return nil, zerr.With(zerr.Wrap(err, "failed to resolve manifest directory"), "path", manifestPath)
	}

	p := &pipeline{app: a}

	var m *domain.Manifest
	if err := p.step(ctx, domain.StepLoad, func(context.Context) error {
		var err error
		m, err = a.loader.Load(manifestPath)
		return err
	}); err != nil {
		return nil, err
	}

	report := &Report{}
	if err := p.step(ctx, domain.StepResolve, func(context.Context) error {
		var err error
		report.Profile, report.Resolution, err = a.resolve(m, opts)
		if err != nil {
			return err
		}
		return a.persist(a.stores.ForDir(workDir), report.Profile, report.Resolution)
	}); err != nil {
		return nil, err
	}
	platform := report.Resolution.Platform

	var collaborator ports.BuildCollaborator
	if err := p.step(ctx, domain.StepFetch, func(ctx context.Context) error {
		var err error
		collaborator, err = a.collaborators.ForManifest(m, workDir)
		if err != nil {
			return zerr.Wrap(err, "failed to create build collaborator")
		}
		graph, err := collaborator.FetchAndBuild(ctx, report.Resolution.Requirements, report.Resolution.Options, platform)
		if err != nil {
			return err
		}
		if err := resolver.Configure(graph, report.Resolution.Options); err != nil {
			return err
		}
		if err := graph.Validate(); err != nil {
			return err
		}
		report.Graph = graph
		return nil
	}); err != nil {
		return nil, err
	}

	outputDir := stager.StagingDir(filepath.Join(workDir, m.BuildFolder), platform.BuildType, m.BinSubdir)
	if err := p.step(ctx, domain.StepStage, func(ctx context.Context) error {
		var err error
		report.Staging, err = a.stager.Stage(ctx, report.Graph, platform, outputDir)
		if err != nil {
			return err
		}
		a.logger.Info(fmt.Sprintf("staged %d artifacts into %s", report.Staging.Len(), outputDir))
		return nil
	}); err != nil {
		return nil, err
	}

	if opts.SkipBuild {
		return report, nil
	}

	if err := p.step(ctx, domain.StepBuild, func(ctx context.Context) error {
		return collaborator.ConfigureAndBuild(ctx, platform)
	}); err != nil {
		return nil, err
	}

	if opts.SkipInstall {
		return report, nil
	}

	if err := p.step(ctx, domain.StepInstall, func(ctx context.Context) error {
		return collaborator.Install(ctx, platform)
	}); err != nil {
		return nil, err
	}

	return report, nil
}

// Resolve runs only the load and resolve steps and returns the skeleton
// graph with per-package options. Nothing is written to disk.
func (a *App) Resolve(ctx context.Context, manifestPath string, opts RunOptions) (*Report, error) {
	p := &pipeline{app: a}

	var m *domain.Manifest
	if err := p.step(ctx, domain.StepLoad, func(context.Context) error {
		var err error
		m, err = a.loader.Load(manifestPath)
		return err
	}); err != nil {
		return nil, err
	}

	report := &Report{}
	if err := p.step(ctx, domain.StepResolve, func(context.Context) error {
		var err error
		report.Profile, report.Resolution, err = a.resolve(m, opts)
		if err != nil {
			return err
		}
		report.Graph, err = resolver.Skeleton(report.Resolution)
		return err
	}); err != nil {
		return nil, err
	}

	return report, nil
}

func (a *App) resolve(m *domain.Manifest, opts RunOptions) (string, *resolver.Resolution, error) {
	profile, platform, err := a.selectPlatform(m, opts)
	if err != nil {
		return "", nil, err
	}

	res, err := resolver.ResolveManifest(m, platform)
	if err != nil {
		return "", nil, err
	}

	if res.UnsupportedPlatform {
		a.logger.Warn(fmt.Sprintf("%s: no rule names %s, using unconditional requirements only",
			domain.ErrUnsupportedPlatform, platform.OS))
	}
	for _, o := range res.Overrides {
		a.logger.Info(fmt.Sprintf("%s forced %s -> %s (%s)", o.Name, o.From, o.To, o.Direction))
	}
	return profile, res, nil
}

func (a *App) selectPlatform(m *domain.Manifest, opts RunOptions) (string, domain.PlatformContext, error) {
	if opts.Profile == "" {
		bt := opts.BuildType
		if bt == "" {
			bt = domain.BuildTypeRelease
		}
		return HostProfile, a.detector.Detect(bt), nil
	}

	platform, err := m.Profile(opts.Profile)
	if err != nil {
		return "", domain.PlatformContext{}, err
	}
	if opts.BuildType != "" {
		platform = platform.WithBuildType(opts.BuildType)
	}
	return opts.Profile, platform, nil
}

func (a *App) persist(store ports.LockStore, profile string, res *resolver.Resolution) error {
	next := res.Lockfile(profile, a.now())

	prev, err := store.Get(profile)
	if err != nil {
		return zerr.Wrap(err, "failed to read lockfile")
	}
	if prev != nil && !slices.Equal(prev.Requirements, next.Requirements) {
		a.logger.Info(fmt.Sprintf("requirements for profile %s changed since the last resolution", profile))
	}

	if err := store.Put(next); err != nil {
		return zerr.Wrap(err, "failed to write lockfile")
	}
	return nil
}

// pipeline chains the telemetry vertices of consecutive steps.
type pipeline struct {
	app  *App
	last domain.Step
}

func (p *pipeline) step(ctx context.Context, step domain.Step, fn func(context.Context) error) error {
	var opts []ports.VertexOption
	if p.last != "" {
		opts = append(opts, ports.WithInputs(string(p.last)))
	}
	stepCtx, vertex := p.app.telemetry.Record(ctx, string(step), opts...)
	p.last = step

	err := fn(stepCtx)
	if err != nil {
		err = zerr.With(zerr.Wrap(err, fmt.Sprintf("%s step failed", step)), "step", string(step))
	}
	vertex.Complete(err)
	return err
}
