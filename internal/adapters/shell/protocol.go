package shell

import (
	"encoding/json"
	"path/filepath"
	"strings"

	"github.com/samber/lo"
	"go.trai.ch/kiln/internal/core/domain"
	"go.trai.ch/zerr"
)

// resolutionDocument is written to the file named by KILN_RESOLUTION for
// the fetch command.
type resolutionDocument struct {
	Platform     platformDocument      `json:"platform"`
	Requirements []requirementDocument `json:"requirements"`
	Options      []domain.Option       `json:"options"`
}

type platformDocument struct {
	OS        domain.OS        `json:"os"`
	Compiler  string           `json:"compiler"`
	BuildType domain.BuildType `json:"build_type"`
	Arch      string           `json:"arch"`
}

type requirementDocument struct {
	Ref    string `json:"ref"`
	Forced bool   `json:"forced,omitzero"`
}

// graphDocument is the JSON the fetch command prints on stdout.
type graphDocument struct {
	Packages []packageDocument `json:"packages"`
}

type packageDocument struct {
	Ref      string   `json:"ref"`
	BinDirs  []string `json:"bin_dirs"`
	LibDirs  []string `json:"lib_dirs"`
	Requires []string `json:"requires"`
}

func newResolutionDocument(
	requirements []domain.Requirement,
	options []domain.Option,
	platform domain.PlatformContext,
) resolutionDocument {
	return resolutionDocument{
		Platform: platformDocument{
			OS:        platform.OS,
			Compiler:  platform.Compiler,
			BuildType: platform.BuildType,
			Arch:      platform.Arch,
		},
		Requirements: lo.Map(requirements, func(r domain.Requirement, _ int) requirementDocument {
			return requirementDocument{Ref: r.Ref(), Forced: r.Force}
		}),
		Options: append([]domain.Option{}, options...),
	}
}

// decodeGraph turns the fetch output into a dependency graph. Every
// requested package must be reported at the requested version; packages
// pulled in transitively are added as reported. Relative directories are
// resolved against workDir.
func decodeGraph(data []byte, requested []domain.Requirement, workDir string) (*domain.DependencyGraph, error) {
	var doc graphDocument
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, zerr.Wrap(domain.ErrCollaboratorFailure, "unparsable fetch output: "+err.Error())
	}

	byName := lo.KeyBy(requested, func(r domain.Requirement) domain.InternedString { return r.Name })

	g := domain.NewDependencyGraph()
	for _, pkg := range doc.Packages {
		req, err := domain.ParseRequirement(pkg.Ref)
		if err != nil {
			return nil, zerr.Wrap(domain.ErrCollaboratorFailure, "invalid package in fetch output: "+err.Error())
		}
		if want, ok := byName[req.Name]; ok {
			if want.Version != req.Version {
				err := zerr.With(zerr.Wrap(domain.ErrCollaboratorFailure, "fetched a different version"), "package", req.Name.String())
				err = zerr.With(err, "requested", want.Version.String())
				return nil, zerr.With(err, "fetched", req.Version.String())
			}
			req = want
		}

		entry := &domain.Entry{
			Requirement: req,
			BinDirs:     absDirs(pkg.BinDirs, workDir),
			LibDirs:     absDirs(pkg.LibDirs, workDir),
			Requires: lo.Map(pkg.Requires, func(dep string, _ int) domain.InternedString {
				name, _, _ := strings.Cut(dep, "/")
				return domain.NewInternedString(name)
			}),
		}
		if err := g.AddEntry(entry); err != nil {
			return nil, zerr.Wrap(domain.ErrCollaboratorFailure, "invalid fetch output: "+err.Error())
		}
	}

	for _, req := range requested {
		if _, ok := g.Entry(req.Name.String()); !ok {
			return nil, zerr.With(zerr.Wrap(domain.ErrCollaboratorFailure, "package missing from fetch output"), "package", req.Ref())
		}
	}

	return g, nil
}

func absDirs(dirs []string, workDir string) []string {
	return lo.Map(dirs, func(d string, _ int) string {
		if filepath.IsAbs(d) {
			return filepath.Clean(d)
		}
		return filepath.Join(workDir, d)
	})
}
