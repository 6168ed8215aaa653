package resolver

import (
	"slices"
	"strings"
	"time"

	"github.com/samber/lo"
	"go.trai.ch/kiln/internal/core/domain"
)

// ConfigurePackage returns the options that apply to req, one per key,
// sorted by key. For each key the most specific matching pattern wins and
// ties go to the latest declaration. Options matching nothing are ignored.
func ConfigurePackage(req domain.Requirement, options []domain.Option) []domain.Option {
	type candidate struct {
		option      domain.Option
		specificity int
	}

	best := make(map[string]candidate)
	for _, opt := range options {
		if !opt.Matches(req) {
			continue
		}
		s := opt.Specificity()
		if c, ok := best[opt.Key]; ok && s < c.specificity {
			continue
		}
		best[opt.Key] = candidate{option: opt, specificity: s}
	}

	keys := lo.Keys(best)
	slices.Sort(keys)
	return lo.Map(keys, func(k string, _ int) domain.Option { return best[k].option })
}

// Configure (re)applies options to every package of the graph.
// Applying the same options twice yields the same configuration.
func Configure(g *domain.DependencyGraph, options []domain.Option) error {
	for _, req := range g.Requirements() {
		entry, _ := g.Entry(req.Name.String())
		entry.Options = ConfigurePackage(entry.Requirement, options)
		if err := g.UpdateEntry(&entry); err != nil {
			return err
		}
	}
	return nil
}

// Skeleton builds the dependency graph of a resolution, before the build
// collaborator fills in output directories.
func Skeleton(res *Resolution) (*domain.DependencyGraph, error) {
	g := domain.NewDependencyGraph()
	for _, req := range res.Requirements {
		entry := &domain.Entry{
			Requirement: req,
			Options:     ConfigurePackage(req, res.Options),
		}
		if err := g.AddEntry(entry); err != nil {
			return nil, err
		}
	}
	return g, nil
}

// Lockfile snapshots the resolution under the given profile name.
func (r *Resolution) Lockfile(profile string, now time.Time) domain.Lockfile {
	return domain.Lockfile{
		Version:  domain.LockfileVersion,
		Profile:  profile,
		Platform: r.Platform.String(),
		Requirements: lo.Map(r.Requirements, func(req domain.Requirement, _ int) domain.LockedRequirement {
			return domain.LockedRequirement{Ref: req.Ref(), Forced: req.Force}
		}),
		Options:    slices.Clone(r.Options),
		ResolvedAt: now,
	}
}

// Summary renders one line per effective requirement with its options.
func Summary(g *domain.DependencyGraph) []string {
	lines := make([]string, 0, g.Len())
	for _, req := range g.Requirements() {
		entry, _ := g.Entry(req.Name.String())
		line := req.String()
		if len(entry.Options) > 0 {
			opts := lo.Map(entry.Options, func(o domain.Option, _ int) string {
				return o.Key + "=" + o.Value.String()
			})
			line += " [" + strings.Join(opts, ", ") + "]"
		}
		lines = append(lines, line)
	}
	return lines
}
