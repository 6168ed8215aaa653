package config

import (
	"strings"

	"go.trai.ch/kiln/internal/core/domain"
	"go.trai.ch/zerr"
	"gopkg.in/yaml.v3"
)

// Kilnfile represents the structure of the kiln.yaml manifest.
type Kilnfile struct {
	Version        string                `yaml:"version"`
	Name           string                `yaml:"name"`
	BuildFolder    string                `yaml:"build_folder"`
	BinSubdir      string                `yaml:"bin_subdir"`
	Profiles       map[string]ProfileDTO `yaml:"profiles"`
	Requires       []RequirementDTO      `yaml:"requires"`
	DefaultOptions []OptionDTO           `yaml:"default_options"`
	Configure      []ConfigureDTO        `yaml:"configure"`
	Requirements   []RequirementsDTO     `yaml:"requirements"`
	Overrides      []OverrideDTO         `yaml:"overrides"`
	Commands       CommandsDTO           `yaml:"commands"`
}

// ProfileDTO is a named platform.
type ProfileDTO struct {
	OS        string `yaml:"os"`
	Compiler  string `yaml:"compiler"`
	BuildType string `yaml:"build_type"`
	Arch      string `yaml:"arch"`
}

// ConditionDTO lists the accepted values per platform setting.
type ConditionDTO struct {
	OS        []string `yaml:"os"`
	Compiler  []string `yaml:"compiler"`
	BuildType []string `yaml:"build_type"`
	Arch      []string `yaml:"arch"`
}

// RequirementDTO is either a "name/version" scalar or a {name, version, force} mapping.
type RequirementDTO struct {
	Ref     string
	Name    string `yaml:"name"`
	Version string `yaml:"version"`
	Force   bool   `yaml:"force"`
}

// UnmarshalYAML accepts both requirement spellings.
func (r *RequirementDTO) UnmarshalYAML(node *yaml.Node) error {
	if node.Kind == yaml.ScalarNode {
		r.Ref = node.Value
		return nil
	}
	type plain RequirementDTO
	var p plain
	if err := node.Decode(&p); err != nil {
		return err
	}
	*r = RequirementDTO(p)
	return nil
}

// OptionDTO sets Key to Value on every package matching Package.
type OptionDTO struct {
	Package string         `yaml:"package"`
	Key     string         `yaml:"key"`
	Value   OptionValueDTO `yaml:"value"`
}

// OptionValueDTO is a YAML boolean or any other scalar taken as a string.
type OptionValueDTO struct {
	Value domain.OptionValue
	Set   bool
}

// UnmarshalYAML decodes a scalar option value.
func (v *OptionValueDTO) UnmarshalYAML(node *yaml.Node) error {
	if node.Kind != yaml.ScalarNode || node.Tag == "!!null" {
		return zerr.With(zerr.Wrap(domain.ErrInvalidOption, "option value must be a string or a bool"), "line", node.Line)
	}
	if node.Tag == "!!bool" {
		var b bool
		if err := node.Decode(&b); err != nil {
			return err
		}
		v.Value = domain.BoolValue(b)
	} else {
		v.Value = domain.StringValue(node.Value)
	}
	v.Set = true
	return nil
}

// ConfigureDTO holds configure-time options applied when When matches.
type ConfigureDTO struct {
	When    ConditionDTO `yaml:"when"`
	Options []OptionDTO  `yaml:"options"`
}

// RequirementsDTO adds requirements when When matches.
type RequirementsDTO struct {
	When     ConditionDTO     `yaml:"when"`
	Requires []RequirementDTO `yaml:"requires"`
}

// OverrideDTO forces a version when When matches.
type OverrideDTO struct {
	Ref  string       `yaml:"ref"`
	When ConditionDTO `yaml:"when"`
}

// CommandsDTO are the collaborator argv templates.
type CommandsDTO struct {
	Fetch     []string `yaml:"fetch"`
	Configure []string `yaml:"configure"`
	Build     []string `yaml:"build"`
	Install   []string `yaml:"install"`
}

func (r RequirementDTO) toDomain() (domain.Requirement, error) {
	var (
		req domain.Requirement
		err error
	)
	if r.Ref != "" {
		req, err = domain.ParseRequirement(r.Ref)
	} else {
		req, err = domain.ParseRequirement(strings.TrimSpace(r.Name) + "/" + strings.TrimSpace(r.Version))
	}
	if err != nil {
		return domain.Requirement{}, err
	}
	req.Force = r.Force
	return req, nil
}

func (o OptionDTO) toDomain() (domain.Option, error) {
	if o.Package == "" || o.Key == "" {
		err := zerr.With(zerr.Wrap(domain.ErrInvalidOption, "option needs a package and a key"), "package", o.Package)
		return domain.Option{}, zerr.With(err, "key", o.Key)
	}
	if !o.Value.Set {
		err := zerr.With(zerr.Wrap(domain.ErrInvalidOption, "option has no value"), "package", o.Package)
		return domain.Option{}, zerr.With(err, "key", o.Key)
	}
	return domain.Option{Pattern: o.Package, Key: o.Key, Value: o.Value.Value}, nil
}

func (c ConditionDTO) toDomain() (domain.Condition, error) {
	return parseCondition(c.OS, c.Compiler, c.BuildType, c.Arch)
}

func (p ProfileDTO) toDomain() (domain.PlatformContext, error) {
	return parseProfile(p.OS, p.Compiler, p.BuildType, p.Arch)
}
