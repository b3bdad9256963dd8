// Package config loads the run configuration.
//
// Sources are layered, lowest precedence first: built-in defaults, a config
// file (YAML, or CUE checked against an embedded schema), YODASCAN_*
// environment variables, then command-line flags applied by the caller.
// Validate must run after the last layer.
package config
