package domain

import (
	"encoding/json"
	"path"
	"strings"

	"go.trai.ch/zerr"
)

// OptionValue holds either a string or a boolean option value.
type OptionValue struct {
	str    string
	b      bool
	isBool bool
}

// StringValue creates a string option value.
func StringValue(s string) OptionValue {
	return OptionValue{str: s}
}

// BoolValue creates a boolean option value.
func BoolValue(b bool) OptionValue {
	return OptionValue{b: b, isBool: true}
}

// IsBool reports whether the value is a boolean.
func (v OptionValue) IsBool() bool {
	return v.isBool
}

// Bool returns the boolean value and whether the value is a boolean.
func (v OptionValue) Bool() (bool, bool) {
	return v.b, v.isBool
}

// String renders the value. Booleans render as "True"/"False", the spelling
// build collaborators expect on their command lines.
func (v OptionValue) String() string {
	if v.isBool {
		if v.b {
			return "True"
		}
		return "False"
	}
	return v.str
}

// MarshalJSON keeps booleans as JSON booleans.
func (v OptionValue) MarshalJSON() ([]byte, error) {
	if v.isBool {
		return json.Marshal(v.b)
	}
	return json.Marshal(v.str)
}

// UnmarshalJSON accepts a JSON boolean or string.
func (v *OptionValue) UnmarshalJSON(data []byte) error {
	var b bool
	if err := json.Unmarshal(data, &b); err == nil {
		*v = BoolValue(b)
		return nil
	}
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return zerr.With(zerr.Wrap(ErrInvalidOption, "option value must be a string or a bool"), "value", string(data))
	}
	*v = StringValue(s)
	return nil
}

// Option is a per-package configuration override.
type Option struct {
	// Pattern is a bare package name ("openssl") or a glob over the
	// package reference ("geos/*").
	Pattern string      `json:"package"`
	Key     string      `json:"key"`
	Value   OptionValue `json:"value"`
}

// ParseOption parses "pattern:key=value". Values "true"/"false" (any case)
// become booleans.
func ParseOption(s string) (Option, error) {
	lhs, value, ok := strings.Cut(s, "=")
	if !ok {
		return Option{}, zerr.With(zerr.Wrap(ErrInvalidOption, "expected pattern:key=value"), "option", s)
	}
	idx := strings.LastIndex(lhs, ":")
	if idx <= 0 || idx == len(lhs)-1 {
		return Option{}, zerr.With(zerr.Wrap(ErrInvalidOption, "expected pattern:key=value"), "option", s)
	}
	opt := Option{Pattern: lhs[:idx], Key: lhs[idx+1:], Value: StringValue(value)}
	switch strings.ToLower(value) {
	case "true":
		opt.Value = BoolValue(true)
	case "false":
		opt.Value = BoolValue(false)
	}
	return opt, nil
}

// String implements fmt.Stringer.
func (o Option) String() string {
	return o.Pattern + ":" + o.Key + "=" + o.Value.String()
}

// Matches reports whether the option targets the given package.
func (o Option) Matches(req Requirement) bool {
	if !strings.Contains(o.Pattern, "/") {
		if !hasGlob(o.Pattern) {
			return o.Pattern == req.Name.String()
		}
		ok, err := path.Match(o.Pattern, req.Name.String())
		return err == nil && ok
	}
	ok, err := path.Match(o.Pattern, req.Ref())
	return err == nil && ok
}

// Specificity ranks patterns: an exact name outranks any glob, and among
// globs the one with more literal characters wins.
func (o Option) Specificity() int {
	if !hasGlob(o.Pattern) {
		return 1 << 16
	}
	n := 0
	for _, r := range o.Pattern {
		if !strings.ContainsRune(`*?[]\`, r) {
			n++
		}
	}
	return n
}

func hasGlob(pattern string) bool {
	return strings.ContainsAny(pattern, `*?[\`)
}
