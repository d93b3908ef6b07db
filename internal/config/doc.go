// Package config loads and validates cache database configuration.
//
// Config files are YAML with ${VAR} environment variable expansion, so
// credentials can stay out of the file itself.
package config
