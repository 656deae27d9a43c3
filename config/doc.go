// Package config loads the process configuration from environment
// variables, once, at startup. Values support strict ${VAR} indirection
// so secret-manager injection fails loudly instead of expanding to "".
package config
