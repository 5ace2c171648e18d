// Package config loads the kreate CLI configuration.
//
// Values are merged from struct defaults, an optional YAML file, KREATE__
// environment variables, and command line flags, in increasing order of
// precedence, and validated before use.
package config
