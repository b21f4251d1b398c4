package core

import (
	"os"
	"strconv"
	"time"
)

// getEnvOrDefault returns the value of the environment variable or the
// default when unset or empty.
func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// parseIntEnv parses an integer environment variable, falling back to the
// default on absence or parse failure.
func parseIntEnv(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

// parseFloatEnv parses a float64 environment variable, falling back to the
// default on absence or parse failure.
func parseFloatEnv(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if floatValue, err := strconv.ParseFloat(value, 64); err == nil {
			return floatValue
		}
	}
	return defaultValue
}

// parseBoolEnv parses a boolean environment variable. Only the literal
// "true" enables the flag; anything else yields the default when the
// variable is unset, or false otherwise.
func parseBoolEnv(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		return value == "true"
	}
	return defaultValue
}

// parseSecondsEnv parses an environment variable holding a whole number of
// seconds into a time.Duration.
func parseSecondsEnv(key string, defaultSeconds int) time.Duration {
	return time.Duration(parseIntEnv(key, defaultSeconds)) * time.Second
}
