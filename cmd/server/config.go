package main

import (
	"os"
	"strconv"
)

// Config is everything the server reads from the environment.
type Config struct {
	Port        string
	DBType      string
	DatabaseURL string
	DBFile      string
	TilesetFile string
	MatchID     string
	Debug       DebugConfig
	Profiling   ProfilingConfig
}

func LoadConfigFromEnv() Config {
	return Config{
		Port:        getEnv("APP_PORT", "8080"),
		DBType:      getEnv("DB_TYPE", "json"),
		DatabaseURL: getEnv("DATABASE_URL", "host=localhost user=tiles password=tiles dbname=tilefeature sslmode=disable"),
		DBFile:      getEnv("DB_FILE", "matches.json"),
		TilesetFile: os.Getenv("TILESET_FILE"),
		MatchID:     os.Getenv("MATCH_ID"),
		Debug:       GetDebugConfigFromEnv(),
		Profiling:   GetProfilingConfigFromEnv(),
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}

	result, err := strconv.ParseBool(value)
	if err != nil {
		return defaultValue
	}
	return result
}
