package scalar

import (
	"math"
	"regexp"
	"strconv"
	"strings"
)

// YAML core schema tags.
const (
	TagNull  = "tag:yaml.org,2002:null"
	TagBool  = "tag:yaml.org,2002:bool"
	TagInt   = "tag:yaml.org,2002:int"
	TagFloat = "tag:yaml.org,2002:float"
	TagStr   = "tag:yaml.org,2002:str"
)

var kubernetesOctalPattern = regexp.MustCompile(`^(0[0-7][0-7][0-7])$`)

// Rule resolves plain scalars that match Pattern to a value of type Tag.
type Rule struct {
	Pattern *regexp.Regexp
	Resolve func(s string) (any, error)
	Tag     string
}

// Rules is an ordered list of [Rule]s. Earlier rules take precedence.
type Rules []Rule

// DefaultRules returns a new rule list implementing the YAML 1.2 core schema.
func DefaultRules() Rules {
	return Rules{
		{
			Tag:     TagNull,
			Pattern: regexp.MustCompile(`^(?:~|null|Null|NULL)?$`),
			Resolve: func(string) (any, error) { return nil, nil },
		},
		{
			Tag:     TagBool,
			Pattern: regexp.MustCompile(`^(?:true|True|TRUE|false|False|FALSE)$`),
			Resolve: func(s string) (any, error) {
				return s[0] == 't' || s[0] == 'T', nil
			},
		},
		{
			Tag:     TagInt,
			Pattern: regexp.MustCompile(`^0o[0-7]+$`),
			Resolve: func(s string) (any, error) {
				return strconv.ParseInt(s[2:], 8, 64)
			},
		},
		{
			Tag:     TagInt,
			Pattern: regexp.MustCompile(`^[-+]?[0-9]+$`),
			Resolve: func(s string) (any, error) {
				return strconv.ParseInt(s, 10, 64)
			},
		},
		{
			Tag:     TagInt,
			Pattern: regexp.MustCompile(`^0x[0-9a-fA-F]+$`),
			Resolve: func(s string) (any, error) {
				return strconv.ParseInt(s[2:], 16, 64)
			},
		},
		{
			Tag:     TagFloat,
			Pattern: regexp.MustCompile(`^[-+]?\.(?:inf|Inf|INF)$`),
			Resolve: func(s string) (any, error) {
				if strings.HasPrefix(s, "-") {
					return math.Inf(-1), nil
				}

				return math.Inf(1), nil
			},
		},
		{
			Tag:     TagFloat,
			Pattern: regexp.MustCompile(`^\.(?:nan|NaN|NAN)$`),
			Resolve: func(string) (any, error) { return math.NaN(), nil },
		},
		{
			Tag:     TagFloat,
			Pattern: regexp.MustCompile(`^[-+]?(?:\.[0-9]+|[0-9]+(?:\.[0-9]*)?)(?:[eE][-+]?[0-9]+)?$`),
			Resolve: func(s string) (any, error) {
				return strconv.ParseFloat(s, 64)
			},
		},
	}
}

// WithKubernetesOctal returns a new rule list that reads four-digit octal
// literals with a leading zero (e.g. 0644) as base 8 integers, ahead of
// every rule in base. The new rule is derived from the first [TagInt] rule
// in base; if base has none, a copy of base is returned unchanged.
//
// base is never modified.
func WithKubernetesOctal(base Rules) Rules {
	out := make(Rules, 0, len(base)+1)

	for _, r := range base {
		if r.Tag != TagInt {
			continue
		}

		octal := r
		octal.Pattern = kubernetesOctalPattern
		octal.Resolve = func(s string) (any, error) {
			return strconv.ParseInt(s, 8, 64)
		}

		out = append(out, octal)

		break
	}

	return append(out, base...)
}

// Resolve returns the tag and value of the first rule in rs that matches s
// and resolves without error. Unmatched text resolves to itself as a
// [TagStr] string.
func (rs Rules) Resolve(s string) (string, any) {
	for _, r := range rs {
		if r.Pattern == nil || r.Resolve == nil || !r.Pattern.MatchString(s) {
			continue
		}

		v, err := r.Resolve(s)
		if err != nil {
			continue
		}

		return r.Tag, v
	}

	return TagStr, s
}
