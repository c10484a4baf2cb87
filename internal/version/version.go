// Package version holds the release version stamped into CLI output.
package version

// Current is the module version, without a "v" prefix.
const Current = "0.1.0"
