package resolver_test

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.trai.ch/kiln/internal/core/domain"
	"go.trai.ch/kiln/internal/engine/resolver"
	"go.trai.ch/zerr"
)

var (
	linux = domain.PlatformContext{
		OS: domain.OSLinux, Compiler: "gcc", BuildType: domain.BuildTypeRelease, Arch: "x86_64",
	}
	windows = domain.PlatformContext{
		OS: domain.OSWindows, Compiler: "msvc", BuildType: domain.BuildTypeRelease, Arch: "x86_64",
	}
	macos = domain.PlatformContext{
		OS: domain.OSMacos, Compiler: "apple-clang", BuildType: domain.BuildTypeDebug, Arch: "armv8",
	}
	onLinux   = domain.Condition{OS: []domain.OS{domain.OSLinux}}
	onWindows = domain.Condition{OS: []domain.OS{domain.OSWindows}}
)

func req(t *testing.T, ref string) domain.Requirement {
	t.Helper()
	r, err := domain.ParseRequirement(ref)
	require.NoError(t, err)
	return r
}

func refs(reqs []domain.Requirement) []string {
	out := make([]string, len(reqs))
	for i, r := range reqs {
		out[i] = r.String()
	}
	return out
}

func TestResolve_ForcedConditionalOverride(t *testing.T) {
	base := []domain.Requirement{req(t, "zlib/1.3.1"), req(t, "openssl/3.3.2")}
	conditional := []domain.RequirementRule{
		{When: onLinux, Requirement: req(t, "openssl/3.4.1").Forced()},
	}

	res, err := resolver.Resolve(base, conditional, nil, linux)
	require.NoError(t, err)
	if diff := cmp.Diff([]string{"zlib/1.3.1", "openssl/3.4.1 (forced)"}, refs(res.Requirements)); diff != "" {
		t.Errorf("linux requirements mismatch (-want +got):\n%s", diff)
	}
	require.Len(t, res.Overrides, 1)
	assert.Equal(t, resolver.Override{
		Name: "openssl", From: "3.3.2", To: "3.4.1", Direction: resolver.DirectionUpgrade,
	}, res.Overrides[0])

	res, err = resolver.Resolve(base, conditional, nil, windows)
	require.NoError(t, err)
	if diff := cmp.Diff([]string{"zlib/1.3.1", "openssl/3.3.2"}, refs(res.Requirements)); diff != "" {
		t.Errorf("windows requirements mismatch (-want +got):\n%s", diff)
	}
	assert.Empty(t, res.Overrides)
}

func TestResolve_ForceWinsRegardlessOfOrder(t *testing.T) {
	a := req(t, "fmt/10.2.1")
	b := req(t, "fmt/11.0.2").Forced()

	for name, order := range map[string][]domain.Requirement{
		"plain first":  {a, b},
		"forced first": {b, a},
	} {
		t.Run(name, func(t *testing.T) {
			res, err := resolver.Resolve(order, nil, nil, linux)
			require.NoError(t, err)
			require.Len(t, res.Requirements, 1)
			assert.Equal(t, "11.0.2", res.Requirements[0].Version.String())
		})
	}
}

func TestResolve_FirstSeenWinsWithoutForce(t *testing.T) {
	base := []domain.Requirement{req(t, "zlib/1.3.1"), req(t, "zlib/1.2.13")}

	res, err := resolver.Resolve(base, nil, nil, linux)
	require.NoError(t, err)
	assert.Equal(t, []string{"zlib/1.3.1"}, refs(res.Requirements))
	assert.Empty(t, res.Overrides)
}

func TestResolve_ForcedNewDependency(t *testing.T) {
	base := []domain.Requirement{req(t, "libcurl/8.10.1"), req(t, "openssl/3.4.1").Forced()}

	res, err := resolver.Resolve(base, nil, nil, windows)
	require.NoError(t, err)
	assert.Equal(t, []string{"libcurl/8.10.1", "openssl/3.4.1 (forced)"}, refs(res.Requirements))
}

func TestResolve_ConflictingForces(t *testing.T) {
	base := []domain.Requirement{
		req(t, "openssl/3.3.2").Forced(),
		req(t, "openssl/3.4.1").Forced(),
	}

	_, err := resolver.Resolve(base, nil, nil, linux)
	require.ErrorIs(t, err, domain.ErrResolutionConflict)

	zErr, ok := err.(*zerr.Error)
	require.True(t, ok, "expected *zerr.Error, got %T", err)
	meta := zErr.Metadata()
	assert.Equal(t, "openssl", meta["package"])
	assert.Equal(t, "3.3.2", meta["first"])
	assert.Equal(t, "3.4.1", meta["second"])
}

func TestResolve_SameForcedVersionTwice(t *testing.T) {
	base := []domain.Requirement{req(t, "openssl/3.4.1").Forced()}
	conditional := []domain.RequirementRule{{When: onLinux, Requirement: req(t, "openssl/3.4.1").Forced()}}

	res, err := resolver.Resolve(base, conditional, nil, linux)
	require.NoError(t, err)
	assert.Len(t, res.Requirements, 1)
	assert.Empty(t, res.Overrides)
}

func TestResolve_ConditionalIsolation(t *testing.T) {
	conditional := []domain.RequirementRule{{When: onLinux, Requirement: req(t, "onetbb/2021.12.0")}}
	optionRules := []domain.OptionRule{
		{When: onWindows, Option: domain.Option{Pattern: "libcurl", Key: "with_ssl", Value: domain.StringValue("schannel")}},
	}

	res, err := resolver.Resolve(nil, conditional, optionRules, windows)
	require.NoError(t, err)
	assert.Empty(t, res.Requirements)
	assert.Len(t, res.Options, 1)

	res, err = resolver.Resolve(nil, conditional, optionRules, linux)
	require.NoError(t, err)
	assert.Equal(t, []string{"onetbb/2021.12.0"}, refs(res.Requirements))
	assert.Empty(t, res.Options)
}

func TestResolve_OptionsLastWriteWins(t *testing.T) {
	rules := []domain.OptionRule{
		{Option: domain.Option{Pattern: "geos/*", Key: "shared", Value: domain.BoolValue(true)}},
		{Option: domain.Option{Pattern: "libiconv/*", Key: "shared", Value: domain.BoolValue(true)}},
		{When: onLinux, Option: domain.Option{Pattern: "geos/*", Key: "shared", Value: domain.BoolValue(false)}},
	}

	res, err := resolver.Resolve(nil, nil, rules, linux)
	require.NoError(t, err)
	require.Len(t, res.Options, 2)
	assert.Equal(t, "libiconv/*:shared=True", res.Options[0].String())
	assert.Equal(t, "geos/*:shared=False", res.Options[1].String())
}

func TestResolve_RedeclaredOptionBeatsEquallySpecificRival(t *testing.T) {
	rules := []domain.OptionRule{
		{Option: domain.Option{Pattern: "geos/*", Key: "shared", Value: domain.BoolValue(true)}},
		{Option: domain.Option{Pattern: "*s/3.1*", Key: "shared", Value: domain.BoolValue(false)}},
		{When: onLinux, Option: domain.Option{Pattern: "geos/*", Key: "shared", Value: domain.BoolValue(true)}},
	}
	geos := domain.NewRequirement("geos", "3.13.0")

	res, err := resolver.Resolve([]domain.Requirement{geos}, nil, rules, linux)
	require.NoError(t, err)
	assert.Equal(t, []string{"*s/3.1*:shared=False", "geos/*:shared=True"},
		[]string{res.Options[0].String(), res.Options[1].String()})

	got := resolver.ConfigurePackage(geos, res.Options)
	require.Len(t, got, 1)
	assert.Equal(t, "geos/*:shared=True", got[0].String())

	// Without the Linux redeclaration the later rival wins the tie.
	res, err = resolver.Resolve([]domain.Requirement{geos}, nil, rules, windows)
	require.NoError(t, err)
	got = resolver.ConfigurePackage(geos, res.Options)
	require.Len(t, got, 1)
	assert.Equal(t, "*s/3.1*:shared=False", got[0].String())
}

func TestResolve_UnsupportedPlatform(t *testing.T) {
	base := []domain.Requirement{req(t, "zlib/1.3.1")}
	conditional := []domain.RequirementRule{{When: onLinux, Requirement: req(t, "onetbb/2021.12.0")}}
	optionRules := []domain.OptionRule{
		{When: onWindows, Option: domain.Option{Pattern: "libcurl", Key: "with_ssl", Value: domain.StringValue("schannel")}},
	}

	res, err := resolver.Resolve(base, conditional, optionRules, macos)
	require.NoError(t, err)
	assert.True(t, res.UnsupportedPlatform)
	assert.Equal(t, []string{"zlib/1.3.1"}, refs(res.Requirements))

	res, err = resolver.Resolve(base, conditional, optionRules, windows)
	require.NoError(t, err)
	assert.False(t, res.UnsupportedPlatform)

	res, err = resolver.Resolve(base, nil, nil, macos)
	require.NoError(t, err)
	assert.False(t, res.UnsupportedPlatform, "a manifest without OS branches supports every platform")
}

func TestResolve_Deterministic(t *testing.T) {
	m := &domain.Manifest{
		Requires: []domain.Requirement{
			req(t, "boost/1.86.0"), req(t, "geos/3.13.0"), req(t, "openssl/3.3.2"), req(t, "zlib/1.3.1"),
		},
		ConditionalRequires: []domain.RequirementRule{
			{When: onLinux, Requirement: req(t, "onetbb/2021.12.0")},
			{When: onLinux, Requirement: req(t, "openssl/3.4.1").Forced()},
		},
		Options: []domain.OptionRule{
			{Option: domain.Option{Pattern: "geos/*", Key: "shared", Value: domain.BoolValue(true)}},
			{When: onLinux, Option: domain.Option{Pattern: "openssl", Key: "shared", Value: domain.BoolValue(true)}},
		},
	}

	first, err := resolver.ResolveManifest(m, linux)
	require.NoError(t, err)
	for range 10 {
		again, err := resolver.ResolveManifest(m, linux)
		require.NoError(t, err)
		assert.Equal(t, refs(first.Requirements), refs(again.Requirements))
		assert.Equal(t, first.Options, again.Options)
		assert.Equal(t, first.Overrides, again.Overrides)
	}
}

func TestResolve_OverrideDirection(t *testing.T) {
	tests := []struct {
		from, to string
		want     resolver.Direction
	}{
		{"3.3.2", "3.4.1", resolver.DirectionUpgrade},
		{"2.0", "1.9.9", resolver.DirectionDowngrade},
		{"1.0", "1.0.0", resolver.DirectionSame},
		{"cci.20230101", "1.0", resolver.DirectionUnknown},
	}

	for _, tt := range tests {
		t.Run(tt.from+"->"+tt.to, func(t *testing.T) {
			base := []domain.Requirement{
				domain.NewRequirement("pkg", tt.from),
				domain.NewRequirement("pkg", tt.to).Forced(),
			}
			res, err := resolver.Resolve(base, nil, nil, linux)
			require.NoError(t, err)
			require.Len(t, res.Overrides, 1)
			assert.Equal(t, tt.want, res.Overrides[0].Direction)
		})
	}
}
