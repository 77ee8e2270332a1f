package config

import (
	"log/slog"
	"os"
	"regexp"

	"github.com/joho/godotenv"
)

// envVarPattern matches ${VAR}, ${VAR:-default}, and $VAR references.
var envVarPattern = regexp.MustCompile(`\$\{([A-Za-z_][A-Za-z0-9_]*)(:-([^}]*))?\}|\$([A-Za-z_][A-Za-z0-9_]*)`)

// LoadDotEnv loads variables from a .env file into the process environment.
// Variables already set in the environment win. A missing file is not an
// error.
func LoadDotEnv(path string) error {
	if path == "" {
		path = ".env"
	}
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return nil
	}
	if err := godotenv.Load(path); err != nil {
		return err
	}
	slog.Debug("loaded environment file", "path", path)
	return nil
}

// expandEnvVars walks a decoded YAML tree and substitutes environment
// variable references in every string value.
func expandEnvVars(node any) any {
	switch v := node.(type) {
	case string:
		return expandString(v)
	case map[string]any:
		for key, value := range v {
			v[key] = expandEnvVars(value)
		}
		return v
	case []any:
		for i, value := range v {
			v[i] = expandEnvVars(value)
		}
		return v
	default:
		return node
	}
}

func expandString(s string) string {
	return envVarPattern.ReplaceAllStringFunc(s, func(match string) string {
		groups := envVarPattern.FindStringSubmatch(match)

		name := groups[1]
		if name == "" {
			name = groups[4]
		}

		if value, ok := os.LookupEnv(name); ok {
			return value
		}
		if groups[2] != "" {
			return groups[3]
		}

		slog.Warn("environment variable not set", "name", name)
		return ""
	})
}
