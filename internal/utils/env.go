package utils

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/yungbote/instrument-catalog/internal/pkg/logger"
)

func GetEnv(key, defaultVal string, log *logger.Logger) string {
	if log != nil {
		log = log.With("env_var", key)
	}
	val, ok := os.LookupEnv(key)
	if !ok {
		if log != nil {
			log.Debug("Environment variable not found, using default", "default", defaultVal)
		}
		return defaultVal
	}
	if log != nil {
		log.Debug("Environment variable found, using environment", "environment", val)
	}
	return val
}

func GetEnvAsInt(key string, defaultVal int, log *logger.Logger) int {
	if log != nil {
		log = log.With("env_var", key)
	}
	valStr, ok := os.LookupEnv(key)
	if !ok {
		if log != nil {
			log.Debug("Environment variable not found, using default", "default", defaultVal)
		}
		return defaultVal
	}
	i, err := strconv.Atoi(strings.TrimSpace(valStr))
	if err != nil {
		if log != nil {
			log.Warn("Environment variable could not be parsed as int, using default", "providedVal", valStr, "defaultVal", defaultVal, "error", err)
		}
		return defaultVal
	}
	if log != nil {
		log.Debug("Environment variable found, using it", "value", i)
	}
	return i
}

func GetEnvAsFloat(key string, defaultVal float64, log *logger.Logger) float64 {
	if log != nil {
		log = log.With("env_var", key)
	}
	valStr, ok := os.LookupEnv(key)
	if !ok {
		return defaultVal
	}
	f, err := strconv.ParseFloat(strings.TrimSpace(valStr), 64)
	if err != nil {
		if log != nil {
			log.Warn("Environment variable could not be parsed as float, using default", "providedVal", valStr, "defaultVal", defaultVal, "error", err)
		}
		return defaultVal
	}
	if log != nil {
		log.Debug("Environment variable found, using it", "value", f)
	}
	return f
}

// GetEnvAsBool accepts the strconv.ParseBool spellings plus yes/no and on/off.
func GetEnvAsBool(key string, defaultVal bool, log *logger.Logger) bool {
	if log != nil {
		log = log.With("env_var", key)
	}
	valStr, ok := os.LookupEnv(key)
	if !ok {
		return defaultVal
	}
	switch strings.ToLower(strings.TrimSpace(valStr)) {
	case "yes", "on":
		return true
	case "no", "off":
		return false
	}
	b, err := strconv.ParseBool(strings.TrimSpace(valStr))
	if err != nil {
		if log != nil {
			log.Warn("Environment variable could not be parsed as bool, using default", "providedVal", valStr, "defaultVal", defaultVal, "error", err)
		}
		return defaultVal
	}
	return b
}

// GetEnvAsDuration accepts Go duration strings ("2s", "15m") or a bare number of seconds.
func GetEnvAsDuration(key string, defaultVal time.Duration, log *logger.Logger) time.Duration {
	if log != nil {
		log = log.With("env_var", key)
	}
	valStr, ok := os.LookupEnv(key)
	if !ok {
		return defaultVal
	}
	valStr = strings.TrimSpace(valStr)
	if secs, err := strconv.Atoi(valStr); err == nil {
		return time.Duration(secs) * time.Second
	}
	d, err := time.ParseDuration(valStr)
	if err != nil {
		if log != nil {
			log.Warn("Environment variable could not be parsed as duration, using default", "providedVal", valStr, "defaultVal", defaultVal, "error", err)
		}
		return defaultVal
	}
	if log != nil {
		log.Debug("Environment variable found, using it", "value", d.String())
	}
	return d
}
