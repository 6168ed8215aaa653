// Package stager copies the shared libraries of built dependencies next to the final executable.
package stager

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"runtime"
	"strings"

	"github.com/samber/lo"
	"go.trai.ch/kiln/internal/core/domain"
	"go.trai.ch/kiln/internal/core/ports"
	"go.trai.ch/zerr"
	"golang.org/x/sync/errgroup"
)

// artifactPatterns lists the runtime loadable files per OS. Linux resolves
// shared objects through rpath/ldconfig, so nothing is staged there.
var artifactPatterns = map[domain.OS][]string{
	domain.OSWindows: {"*.dll"},
	domain.OSMacos:   {"*.dylib"},
}

// ArtifactPatterns returns the file patterns staged for target.
func ArtifactPatterns(target domain.OS) []string {
	return artifactPatterns[target]
}

// StagingDir returns <parent of buildRoot>/<buildType>/<binSubdir>, the
// directory the final executable is produced in.
func StagingDir(buildRoot string, buildType domain.BuildType, binSubdir string) string {
	if binSubdir == "" {
		binSubdir = domain.DefaultBinSubdir
	}
	parent := filepath.Dir(filepath.Clean(buildRoot))
	return filepath.Join(parent, string(buildType), binSubdir)
}

// Stager copies dependency artifacts into a staging directory.
type Stager struct {
	hasher  ports.Hasher
	logger  ports.Logger
	workers int
}

// New creates a Stager.
func New(hasher ports.Hasher, logger ports.Logger) *Stager {
	return &Stager{
		hasher:  hasher,
		logger:  logger,
		workers: runtime.NumCPU(),
	}
}

type copyJob struct {
	pkg    domain.InternedString
	source string
	dest   string
}

// Stage copies every artifact of the graph matching the platform's patterns
// into outputDir. Copies are unconditional and the report follows the graph
// walk order.
func (s *Stager) Stage(
	ctx context.Context,
	graph *domain.DependencyGraph,
	platform domain.PlatformContext,
	outputDir string,
) (*domain.StagingReport, error) {
	report := &domain.StagingReport{OutputDir: outputDir}

	patterns := ArtifactPatterns(platform.OS)
	if len(patterns) == 0 {
		return report, nil
	}

	absOut, err := filepath.Abs(outputDir)
	if err != nil {
		return nil, zerr.With(zerr.Wrap(err, "failed to resolve staging directory"), "path", outputDir)
	}

	jobs, err := s.plan(graph, patterns, absOut, realPath(absOut))
	if err != nil {
		return nil, err
	}
	if len(jobs) == 0 {
		return report, nil
	}

	if err := os.MkdirAll(absOut, 0o750); err != nil {
		return nil, zerr.With(zerr.Wrap(domain.ErrStagingIOFailure, err.Error()), "path", absOut)
	}

	artifacts := make([]domain.StagedArtifact, len(jobs))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.workers)
	for i, job := range jobs {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			if err := copyFile(job.source, job.dest); err != nil {
				return err
			}
			sum, err := s.hasher.ComputeFileHash(job.dest)
			if err != nil {
				return zerr.With(zerr.Wrap(domain.ErrStagingIOFailure, err.Error()), "path", job.dest)
			}
			artifacts[i] = domain.StagedArtifact{
				Package: job.pkg,
				Source:  job.source,
				Dest:    job.dest,
				Digest:  fmt.Sprintf("%016x", sum),
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	report.Artifacts = artifacts
	return report, nil
}

// plan lists the copies in walk order. A file name shipped by several
// packages keeps its first position but takes the later source.
func (s *Stager) plan(graph *domain.DependencyGraph, patterns []string, outputDir, realOut string) ([]copyJob, error) {
	var jobs []copyJob
	byDest := make(map[string]int)

	for entry := range graph.Walk() {
		dirs := lo.Uniq(append(append([]string{}, entry.BinDirs...), entry.LibDirs...))
		for _, dir := range dirs {
			absDir, err := filepath.Abs(dir)
			if err != nil {
				return nil, zerr.With(zerr.Wrap(err, "failed to resolve dependency directory"), "path", dir)
			}
			if within(outputDir, absDir) || within(realOut, realPath(absDir)) {
				err := zerr.With(zerr.Wrap(domain.ErrStagingOverlap, "staging directory inside dependency directory"), "package", entry.Name().String())
				return nil, zerr.With(err, "path", absDir)
			}

			files, err := matchFiles(absDir, patterns)
			if err != nil {
				return nil, err
			}
			for _, src := range files {
				job := copyJob{
					pkg:    entry.Name(),
					source: src,
					dest:   filepath.Join(outputDir, filepath.Base(src)),
				}
				if i, ok := byDest[job.dest]; ok {
					if jobs[i].source != job.source {
						s.logger.Warn(fmt.Sprintf("%s from %s replaces the copy from %s",
							filepath.Base(src), job.pkg, jobs[i].pkg))
					}
					jobs[i] = job
					continue
				}
				byDest[job.dest] = len(jobs)
				jobs = append(jobs, job)
			}
		}
	}

	return jobs, nil
}

// matchFiles returns the regular top-level files of dir matching any pattern,
// sorted by name. A missing directory yields nothing.
func matchFiles(dir string, patterns []string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, zerr.With(zerr.Wrap(domain.ErrStagingIOFailure, err.Error()), "path", dir)
	}

	var files []string
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		name := e.Name()
		if lo.SomeBy(patterns, func(p string) bool {
			ok, _ := filepath.Match(p, name)
			return ok
		}) {
			files = append(files, filepath.Join(dir, name))
		}
	}
	return files, nil
}

// realPath resolves symlinks in the longest existing prefix of path. Parts
// that cannot be resolved are kept as written.
func realPath(path string) string {
	resolved, err := filepath.EvalSymlinks(path)
	if err == nil {
		return resolved
	}
	parent := filepath.Dir(path)
	if !errors.Is(err, fs.ErrNotExist) || parent == path {
		return path
	}
	return filepath.Join(realPath(parent), filepath.Base(path))
}

func within(path, dir string) bool {
	rel, err := filepath.Rel(dir, path)
	if err != nil {
		return false
	}
	return rel == "." || (rel != ".." && !strings.HasPrefix(rel, ".."+string(filepath.Separator)))
}

func copyFile(src, dst string) (err error) {
	info, err := os.Stat(src)
	if err != nil {
		return zerr.With(zerr.Wrap(domain.ErrStagingIOFailure, err.Error()), "path", src)
	}

	// Truncating the destination must never truncate the source.
	if existing, err := os.Stat(dst); err == nil && os.SameFile(info, existing) {
		return zerr.With(zerr.Wrap(domain.ErrStagingOverlap, "staged file is the dependency's own file"), "path", dst)
	}

	in, err := os.Open(src) //nolint:gosec // Path comes from the collaborator's graph
	if err != nil {
		return zerr.With(zerr.Wrap(domain.ErrStagingIOFailure, err.Error()), "path", src)
	}
	defer in.Close() //nolint:errcheck // Read-only handle

	out, err := os.OpenFile(dst, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, info.Mode().Perm()) //nolint:gosec // Path is inside the staging directory
	if err != nil {
		return zerr.With(zerr.Wrap(domain.ErrStagingIOFailure, err.Error()), "path", dst)
	}
	defer func() {
		if cerr := out.Close(); cerr != nil && err == nil {
			err = zerr.With(zerr.Wrap(domain.ErrStagingIOFailure, cerr.Error()), "path", dst)
		}
	}()

	if _, err := io.Copy(out, in); err != nil {
		return zerr.With(zerr.Wrap(domain.ErrStagingIOFailure, err.Error()), "path", dst)
	}
	// OpenFile does not change the mode of an existing file.
	if err := out.Chmod(info.Mode().Perm()); err != nil {
		return zerr.With(zerr.Wrap(domain.ErrStagingIOFailure, err.Error()), "path", dst)
	}
	return nil
}
