package config

import (
	"github.com/hashicorp/hcl/v2"
	"github.com/hashicorp/hcl/v2/gohcl"
	"github.com/hashicorp/hcl/v2/hclparse"
	"github.com/zclconf/go-cty/cty"
	"go.trai.ch/kiln/internal/core/domain"
	"go.trai.ch/zerr"
)

// hclRoot decodes every top-level construct of a kiln.hcl manifest.
type hclRoot struct {
	Name         string            `hcl:"name,optional"`
	BuildFolder  string            `hcl:"build_folder,optional"`
	BinSubdir    string            `hcl:"bin_subdir,optional"`
	Requires     []string          `hcl:"requires,optional"`
	Profiles     []*hclProfile     `hcl:"profile,block"`
	Options      []*hclOption      `hcl:"option,block"`
	Requirements []*hclRequirement `hcl:"requirement,block"`
	Commands     *hclCommands      `hcl:"commands,block"`
}

type hclProfile struct {
	Name      string `hcl:"name,label"`
	OS        string `hcl:"os"`
	Compiler  string `hcl:"compiler,optional"`
	BuildType string `hcl:"build_type,optional"`
	Arch      string `hcl:"arch,optional"`
}

type hclCondition struct {
	OS        []string `hcl:"os,optional"`
	Compiler  []string `hcl:"compiler,optional"`
	BuildType []string `hcl:"build_type,optional"`
	Arch      []string `hcl:"arch,optional"`
}

type hclOption struct {
	Pattern string         `hcl:"pattern,label"`
	Key     string         `hcl:"key,label"`
	Value   hcl.Expression `hcl:"value"`
	When    *hclCondition  `hcl:"when,block"`
}

type hclRequirement struct {
	Ref   string        `hcl:"ref,label"`
	Force bool          `hcl:"force,optional"`
	When  *hclCondition `hcl:"when,block"`
}

type hclCommands struct {
	Fetch     []string `hcl:"fetch,optional"`
	Configure []string `hcl:"configure,optional"`
	Build     []string `hcl:"build,optional"`
	Install   []string `hcl:"install,optional"`
}

// LoadHCL reads an HCL manifest from the given path.
func LoadHCL(path string) (*domain.Manifest, error) {
	parser := hclparse.NewParser()
	file, diags := parser.ParseHCLFile(path)
	if diags.HasErrors() {
		return nil, zerr.With(zerr.Wrap(diags, "failed to parse manifest"), "path", path)
	}

	var root hclRoot
	if diags := gohcl.DecodeBody(file.Body, nil, &root); diags.HasErrors() {
		return nil, zerr.With(zerr.Wrap(diags, "failed to decode manifest"), "path", path)
	}

	m, err := root.toManifest()
	if err != nil {
		return nil, zerr.With(err, "path", path)
	}
	return m, nil
}

func (r *hclRoot) toManifest() (*domain.Manifest, error) {
	m := newManifest(r.Name, r.BuildFolder, r.BinSubdir)
	if r.Commands != nil {
		m.Commands = domain.Commands{
			Fetch:     r.Commands.Fetch,
			Configure: r.Commands.Configure,
			Build:     r.Commands.Build,
			Install:   r.Commands.Install,
		}
	}

	for _, p := range r.Profiles {
		if _, dup := m.Profiles[p.Name]; dup {
			return nil, zerr.With(zerr.Wrap(domain.ErrInvalidManifest, "profile declared twice"), "profile", p.Name)
		}
		ctx, err := parseProfile(p.OS, p.Compiler, p.BuildType, p.Arch)
		if err != nil {
			return nil, zerr.With(err, "profile", p.Name)
		}
		m.Profiles[p.Name] = ctx
	}

	for _, ref := range r.Requires {
		req, err := domain.ParseRequirement(ref)
		if err != nil {
			return nil, err
		}
		m.Requires = append(m.Requires, req)
	}

	for _, block := range r.Requirements {
		req, err := domain.ParseRequirement(block.Ref)
		if err != nil {
			return nil, err
		}
		req.Force = block.Force
		when, err := block.When.toDomain()
		if err != nil {
			return nil, err
		}
		m.addRequirement(when, req)
	}

	for _, block := range r.Options {
		value, err := evalOptionValue(block.Value)
		if err != nil {
			err = zerr.With(err, "package", block.Pattern)
			return nil, zerr.With(err, "key", block.Key)
		}
		when, err := block.When.toDomain()
		if err != nil {
			return nil, err
		}
		m.Options = append(m.Options, domain.OptionRule{
			When:   when,
			Option: domain.Option{Pattern: block.Pattern, Key: block.Key, Value: value},
		})
	}

	return m.Manifest, nil
}

func (c *hclCondition) toDomain() (domain.Condition, error) {
	if c == nil {
		return domain.Condition{}, nil
	}
	return parseCondition(c.OS, c.Compiler, c.BuildType, c.Arch)
}

// evalOptionValue evaluates a literal option value. Only strings and bools
// are accepted; variables and functions are not available.
func evalOptionValue(expr hcl.Expression) (domain.OptionValue, error) {
	v, diags := expr.Value(nil)
	if diags.HasErrors() {
		return domain.OptionValue{}, zerr.Wrap(domain.ErrInvalidOption, diags.Error())
	}
	if v.IsNull() || !v.IsKnown() {
		return domain.OptionValue{}, zerr.Wrap(domain.ErrInvalidOption, "option value must be a string or a bool")
	}
	switch v.Type() {
	case cty.Bool:
		return domain.BoolValue(v.True()), nil
	case cty.String:
		return domain.StringValue(v.AsString()), nil
	default:
		return domain.OptionValue{}, zerr.With(
			zerr.Wrap(domain.ErrInvalidOption, "option value must be a string or a bool"),
			"type", v.Type().FriendlyName(),
		)
	}
}
