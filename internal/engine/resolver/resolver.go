// Package resolver computes the effective dependency set of a manifest for a platform.
//
// Resolution is a pure function of its inputs: no filesystem or network
// access happens here, and identical inputs always yield identical output.
package resolver

import (
	"slices"

	"github.com/hashicorp/go-version"
	"github.com/samber/lo"
	"go.trai.ch/kiln/internal/core/domain"
	"go.trai.ch/zerr"
)

// Direction tells how a forced override moved a version.
type Direction string

const (
	// DirectionUpgrade means the forced version is newer.
	DirectionUpgrade Direction = "upgrade"
	// DirectionDowngrade means the forced version is older.
	DirectionDowngrade Direction = "downgrade"
	// DirectionSame means both versions compare equal despite different spellings.
	DirectionSame Direction = "same"
	// DirectionUnknown means at least one version is not orderable.
	DirectionUnknown Direction = "unknown"
)

// Override records a forced requirement replacing an earlier pin.
type Override struct {
	Name      string
	From      string
	To        string
	Direction Direction
}

// Resolution is the effective requirement and option set for one platform.
type Resolution struct {
	Platform     domain.PlatformContext
	Requirements []domain.Requirement
	// Options are deduplicated per (pattern, key), last declaration wins.
	Options   []domain.Option
	Overrides []Override
	// UnsupportedPlatform is set when OS-conditional rules exist but none
	// names the platform's OS; only unconditional rules applied.
	UnsupportedPlatform bool
}

// Resolve computes the effective requirements and options.
//
// Requirements are taken in declaration order, base first, then every
// conditional rule whose condition matches ctx. The first requirement seen
// for a name wins unless a later one is forced. Two forced requirements that
// disagree on the version are a manifest bug and fail with
// domain.ErrResolutionConflict.
func Resolve(
	base []domain.Requirement,
	conditional []domain.RequirementRule,
	optionRules []domain.OptionRule,
	ctx domain.PlatformContext,
) (*Resolution, error) {
	res := &Resolution{Platform: ctx}

	sel := newSelection()
	for _, req := range base {
		if err := sel.add(req); err != nil {
			return nil, err
		}
	}
	for _, rule := range conditional {
		if !rule.When.Matches(ctx) {
			continue
		}
		if err := sel.add(rule.Requirement); err != nil {
			return nil, err
		}
	}
	res.Requirements = sel.requirements
	res.Overrides = sel.overrides
	res.Options = selectOptions(optionRules, ctx)

	rules := domain.Manifest{ConditionalRequires: conditional, Options: optionRules}
	oses := rules.ConditionedOSes()
	res.UnsupportedPlatform = len(oses) > 0 && !slices.Contains(oses, ctx.OS)

	return res, nil
}

// ResolveManifest resolves every rule declared by the manifest.
func ResolveManifest(m *domain.Manifest, ctx domain.PlatformContext) (*Resolution, error) {
	return Resolve(m.Requires, m.ConditionalRequires, m.Options, ctx)
}

type selection struct {
	index        map[domain.InternedString]int
	forced       map[domain.InternedString]domain.Requirement
	requirements []domain.Requirement
	overrides    []Override
}

func newSelection() *selection {
	return &selection{
		index:  make(map[domain.InternedString]int),
		forced: make(map[domain.InternedString]domain.Requirement),
	}
}

func (s *selection) add(req domain.Requirement) error {
	idx, seen := s.index[req.Name]
	if !seen {
		s.index[req.Name] = len(s.requirements)
		s.requirements = append(s.requirements, req)
		if req.Force {
			s.forced[req.Name] = req
		}
		return nil
	}

	if !req.Force {
		return nil
	}

	if prev, ok := s.forced[req.Name]; ok && prev.Version != req.Version {
		err := zerr.With(zerr.Wrap(domain.ErrResolutionConflict, "package forced to two versions"), "package", req.Name.String())
		err = zerr.With(err, "first", prev.Version.String())
		return zerr.With(err, "second", req.Version.String())
	}

	current := s.requirements[idx]
	if current.Version != req.Version {
		s.overrides = append(s.overrides, Override{
			Name:      req.Name.String(),
			From:      current.Version.String(),
			To:        req.Version.String(),
			Direction: compareVersions(current.Version.String(), req.Version.String()),
		})
	}
	s.requirements[idx] = req
	s.forced[req.Name] = req
	return nil
}

type optionKey struct {
	pattern string
	key     string
}

// selectOptions filters option rules by condition and keeps the last
// declaration per (pattern, key), at the position of that last declaration,
// so that later slice positions always mean more recent declarations.
func selectOptions(rules []domain.OptionRule, ctx domain.PlatformContext) []domain.Option {
	matched := lo.FilterMap(rules, func(r domain.OptionRule, _ int) (domain.Option, bool) {
		return r.Option, r.When.Matches(ctx)
	})

	latest := make(map[optionKey]int, len(matched))
	for i, opt := range matched {
		latest[optionKey{pattern: opt.Pattern, key: opt.Key}] = i
	}

	var options []domain.Option
	for i, opt := range matched {
		if latest[optionKey{pattern: opt.Pattern, key: opt.Key}] == i {
			options = append(options, opt)
		}
	}
	return options
}

func compareVersions(from, to string) Direction {
	vFrom, err := version.NewVersion(from)
	if err != nil {
		return DirectionUnknown
	}
	vTo, err := version.NewVersion(to)
	if err != nil {
		return DirectionUnknown
	}
	switch vTo.Compare(vFrom) {
	case 1:
		return DirectionUpgrade
	case -1:
		return DirectionDowngrade
	default:
		return DirectionSame
	}
}
