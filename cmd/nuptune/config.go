package main

import (
	"path/filepath"

	"github.com/picccassso/nuptune/internal/transcode"
	"github.com/spf13/viper"
)

// GetConfigString retrieves a string config value with proper precedence:
// 1. Command-line flag (if set)
// 2. Environment variable (NUPTUNE_*)
// 3. Config file
// 4. Default value
func GetConfigString(key string, defaultValue string) string {
	val := viper.GetString(key)
	if val == "" {
		return defaultValue
	}
	return val
}

// GetConfigInt retrieves an int config value with proper precedence.
func GetConfigInt(key string, defaultValue int) int {
	val := viper.GetInt(key)
	if val == 0 {
		return defaultValue
	}
	return val
}

// musicDir returns the configured music library root, or "" if unset.
func musicDir() string {
	return viper.GetString("musicDir")
}

// appDataDir returns the configured app-data directory.
func appDataDir() string {
	return GetConfigString("appDataDir", "nuptune-data")
}

// statePath returns the sqlite database path under the app-data dir.
func statePath() string {
	return filepath.Join(appDataDir(), "state.db")
}

// metaCachePath returns the metadata cache path under the app-data dir.
func metaCachePath() string {
	return filepath.Join(appDataDir(), "metadata_cache.json")
}

// transcodeCacheDir returns the transcoded-artifact directory under the
// app-data dir.
func transcodeCacheDir() string {
	return filepath.Join(appDataDir(), "transcoded_cache")
}

// pidFilePath returns the PID file path the running server writes, used
// by status/stop to find it.
func pidFilePath() string {
	return filepath.Join(appDataDir(), "nuptune.pid")
}

// transcodeCacheBudget returns the configured byte budget for the
// transcoded-artifact cache, falling back to transcode.DefaultBudgetBytes
// when unset.
func transcodeCacheBudget() int64 {
	if viper.IsSet("transcodeCacheBytes") {
		return viper.GetInt64("transcodeCacheBytes")
	}
	return transcode.DefaultBudgetBytes
}
