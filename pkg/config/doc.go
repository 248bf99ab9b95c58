// Package config defines Config, the satellite's flat CLI surface
// (spec.md §6), and its YAML persistence. Grounded on the teacher's
// cmd/giztoy/internal/config package: the generic LoadService[T]/
// SaveService[T] pair over github.com/goccy/go-yaml is adapted here from
// "one YAML file per named service within a context" to "one YAML file
// for the satellite's entire CLI surface," since this process has
// exactly one configuration target rather than a context/service matrix.
package config
