// Package config resolves the service settings and the published environment
// record from YAML files, environment variables and CLI flags with
// precedence: CLI flags > YAML config > Environment variables > Defaults.
package config
