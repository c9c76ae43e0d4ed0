// Package file stores configuration in a TOML file, by default
// ~/.marginalia/config.toml. Dotted keys map to tables, so
// "spatial.color" is written as color under [spatial].
package file
