// Package version exposes build metadata of the running binary.
package version
