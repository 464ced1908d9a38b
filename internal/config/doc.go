// Package config holds all runtime configuration for imagescan.
//
// Configuration is built in three layers: defaults from NewConfig, an
// optional YAML file (.imagescan, discovered in the current directory and
// then the home directory), and CLI flags which override both. The resulting
// Config is validated once at startup and then passed through the
// application by dependency injection rather than global state.
//
// Directory defaults follow the XDG Base Directory Specification: uploaded
// artifacts and the report archive live under the data directory, analyzer
// calibration profiles under the cache directory.
package config
