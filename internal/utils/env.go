// Package utils carries the environment lookup helpers the config and
// database layers read their overrides through. Lookups log at debug so
// the effective configuration of a deploy can be read off the startup
// log; a nil logger keeps them silent.
package utils

import (
	"os"
	"strconv"
	"strings"

	"github.com/yungbote/persistsvc/internal/platform/logger"
)

// GetEnv returns the variable's value, or defaultVal when it is unset.
func GetEnv(key, defaultVal string, log *logger.Logger) string {
	val, ok := os.LookupEnv(key)
	if !ok {
		envDebug(log, key, "Environment variable not set, using default", "default", defaultVal)
		return defaultVal
	}
	envDebug(log, key, "Environment variable set", "value", val)
	return val
}

// GetEnvAsInt parses the variable as an integer. Unset falls back to
// defaultVal quietly; a value that does not parse also falls back but
// is logged at warn, because it usually means a typo in the deploy.
func GetEnvAsInt(key string, defaultVal int, log *logger.Logger) int {
	raw, ok := os.LookupEnv(key)
	if !ok {
		envDebug(log, key, "Environment variable not set, using default", "default", defaultVal)
		return defaultVal
	}
	val, err := strconv.Atoi(raw)
	if err != nil {
		if log != nil {
			log.Warn("Environment variable is not an integer, using default",
				"env_var", key, "value", raw, "default", defaultVal, "error", err)
		}
		return defaultVal
	}
	envDebug(log, key, "Environment variable set", "value", val)
	return val
}

// GetEnvAsList splits a comma separated variable into its non-empty,
// trimmed elements. Unset, empty, or all-blank values return defaultVal.
func GetEnvAsList(key string, defaultVal []string, log *logger.Logger) []string {
	raw := GetEnv(key, "", log)
	if raw == "" {
		return defaultVal
	}
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	if len(out) == 0 {
		return defaultVal
	}
	return out
}

func envDebug(log *logger.Logger, key, msg string, kv ...interface{}) {
	if log == nil {
		return
	}
	log.Debug(msg, append([]interface{}{"env_var", key}, kv...)...)
}
