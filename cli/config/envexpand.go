// Package config loads monochrome.yaml configuration files.
package config

import (
	"os"
	"regexp"
)

// envVarPattern matches ${VAR} and ${VAR:-default}.
var envVarPattern = regexp.MustCompile(`\$\{([A-Za-z_][A-Za-z0-9_]*)(?::-([^}]*))?\}`)

// ExpandEnv replaces ${VAR} and ${VAR:-default} with environment values.
//
// ${VAR} expands to the value or to the empty string when unset.
// ${VAR:-default} expands to default when VAR is unset or empty.
// Missing required values surface as validation errors downstream.
func ExpandEnv(input string) string {
	return envVarPattern.ReplaceAllStringFunc(input, func(match string) string {
		groups := envVarPattern.FindStringSubmatch(match)
		if value, ok := os.LookupEnv(groups[1]); ok && value != "" {
			return value
		}
		return groups[2]
	})
}
