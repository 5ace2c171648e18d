// Package scalar resolves plain YAML scalars to typed values using ordered,
// composable rule lists.
//
// A [Rules] value is an ordered list of [Rule]s. [Rules.Resolve] tries each
// rule in turn and returns the value of the first rule whose pattern matches
// and whose resolver succeeds; text that matches nothing is a string.
//
// [DefaultRules] returns the YAML 1.2 core schema. Kubernetes manifests
// still rely on YAML 1.1 style octal integers for fields such as file modes
// (defaultMode: 0644), which the core schema reads as decimal 644.
// [WithKubernetesOctal] derives a new rule list that reads four-digit,
// zero-prefixed octal literals in base 8:
//
//	rules := scalar.WithKubernetesOctal(scalar.DefaultRules())
//	tag, v := rules.Resolve("0644") // "tag:yaml.org,2002:int", int64(420)
//
// Rule lists are plain values. Deriving a list never mutates its input, so a
// list may be shared across goroutines once built.
package scalar
