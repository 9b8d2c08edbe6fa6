// Package config loads runtime configuration from multiple sources (YAML files,
// environment variables, CLI flags) with precedence: CLI flags > YAML config >
// Environment variables > Defaults. Defaults describe the reference 42-item
// instance: a probe bounded by 100 seconds and a commit bounded to two
// branch-and-bound nodes, both with feasibility emphasis.
package config
