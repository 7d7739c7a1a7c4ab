package main

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"strings"
	"time"

	"github.com/picccassso/nuptune/internal/store"
	"github.com/picccassso/nuptune/internal/transcode"
	"github.com/picccassso/nuptune/internal/util"
	"github.com/spf13/cobra"
	"golang.org/x/sys/unix"
)

var doctorCmd = &cobra.Command{
	Use:   "doctor",
	Short: "Run diagnostic checks on the environment and configuration",
	Long: `Run diagnostic checks to ensure nuptune can operate correctly.

This command checks:
- Optional tools (ffprobe, for durations of non-MP3 files)
- Optional tools (ffmpeg, for transcoding)
- State database accessibility and integrity
- Music directory readability
- Disk space for the app-data directory`,
	RunE: runDoctor,
}

func init() {
	rootCmd.AddCommand(doctorCmd)
}

type checkResult struct {
	name    string
	message string
	error   bool
	warning bool
}

func runDoctor(cmd *cobra.Command, args []string) error {
	util.InfoLog("=== nuptune doctor - system diagnostics ===")
	util.InfoLog("")

	results := []checkResult{}

	results = append(results, checkFFprobe())
	results = append(results, checkFFmpeg())
	results = append(results, checkSQLite())
	results = append(results, checkStateDatabase(statePath()))

	if root := musicDir(); root != "" {
		results = append(results, checkMusicDirectory(root))
		results = append(results, checkDiskSpace(appDataDir(), "app data"))
	} else {
		results = append(results, checkResult{
			name:    "Music directory",
			warning: true,
			message: "not configured (use --music-dir or set musicDir in config)",
		})
	}

	util.InfoLog("")
	util.InfoLog("=== Diagnostic results ===")
	util.InfoLog("")

	hasErrors := false
	hasWarnings := false

	for _, r := range results {
		symbol := "✓"
		if r.error {
			symbol = "✗"
			hasErrors = true
		} else if r.warning {
			symbol = "⚠"
			hasWarnings = true
		}

		line := fmt.Sprintf("[%s] %s", symbol, r.name)
		if r.message != "" {
			line += fmt.Sprintf(": %s", r.message)
		}

		if r.error {
			util.ErrorLog("%s", line)
		} else if r.warning {
			util.WarnLog("%s", line)
		} else {
			util.SuccessLog("%s", line)
		}
	}

	util.InfoLog("")
	if hasErrors {
		util.ErrorLog("Some critical checks failed. Resolve errors before running nuptune start.")
		return fmt.Errorf("system diagnostics failed")
	} else if hasWarnings {
		util.WarnLog("Some checks produced warnings. Review them before proceeding.")
	} else {
		util.SuccessLog("All checks passed. System is ready for nuptune.")
	}

	return nil
}

func checkFFprobe() checkResult {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	out, err := exec.CommandContext(ctx, "ffprobe", "-version").CombinedOutput()
	if err != nil {
		return checkResult{
			name:    "ffprobe (optional)",
			warning: true,
			message: "not found or not executable (durations of non-MP3 files will stay unknown)",
		}
	}

	return checkResult{name: "ffprobe (optional)", message: fmt.Sprintf("version %s", versionWord(out, 2))}
}

func checkFFmpeg() checkResult {
	if !transcode.CheckEncoderAvailable() {
		return checkResult{
			name:    "ffmpeg (optional)",
			warning: true,
			message: "not found (medium/low quality streams will degrade to the original file)",
		}
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	out, _ := exec.CommandContext(ctx, "ffmpeg", "-version").CombinedOutput()
	return checkResult{name: "ffmpeg (optional)", message: fmt.Sprintf("version %s", versionWord(out, 2))}
}

func versionWord(output []byte, index int) string {
	lines := strings.Split(string(output), "\n")
	if len(lines) == 0 {
		return "unknown"
	}
	parts := strings.Fields(lines[0])
	if len(parts) <= index {
		return "unknown"
	}
	return parts[index]
}

func checkSQLite() checkResult {
	version := store.SQLiteVersion()
	if version == "" {
		return checkResult{name: "SQLite", error: true, message: "unable to determine version"}
	}
	return checkResult{name: "SQLite", message: fmt.Sprintf("version %s (built-in)", version)}
}

func checkStateDatabase(dbPath string) checkResult {
	info, err := os.Stat(dbPath)
	if err != nil {
		if os.IsNotExist(err) {
			return checkResult{name: "State database", message: fmt.Sprintf("%s (will be created on first run)", dbPath)}
		}
		return checkResult{name: "State database", error: true, message: fmt.Sprintf("cannot access %s: %v", dbPath, err)}
	}
	if !info.Mode().IsRegular() {
		return checkResult{name: "State database", error: true, message: fmt.Sprintf("%s is not a regular file", dbPath)}
	}

	db, err := store.Open(dbPath)
	if err != nil {
		return checkResult{name: "State database", error: true, message: fmt.Sprintf("cannot open %s: %v", dbPath, err)}
	}
	defer db.Close()

	if err := db.CheckIntegrity(); err != nil {
		return checkResult{name: "State database", error: true, message: fmt.Sprintf("integrity check failed: %v", err)}
	}

	downloads, _ := db.ListDownloads()
	cacheBytes, _ := db.TotalCacheBytes()

	return checkResult{
		name:    "State database",
		message: fmt.Sprintf("%s (%s, %d download tasks, %s transcoded cache)", dbPath, formatBytes(info.Size()), len(downloads), formatBytes(cacheBytes)),
	}
}

func checkMusicDirectory(path string) checkResult {
	info, err := os.Stat(path)
	if err != nil {
		return checkResult{name: "Music directory", error: true, message: fmt.Sprintf("cannot access %s: %v", path, err)}
	}
	if !info.IsDir() {
		return checkResult{name: "Music directory", error: true, message: fmt.Sprintf("%s is not a directory", path)}
	}
	entries, err := os.ReadDir(path)
	if err != nil {
		return checkResult{name: "Music directory", error: true, message: fmt.Sprintf("cannot read %s: %v", path, err)}
	}
	return checkResult{name: "Music directory", message: fmt.Sprintf("%s (%d entries)", path, len(entries))}
}

func checkDiskSpace(path string, label string) checkResult {
	if err := os.MkdirAll(path, 0o755); err != nil {
		return checkResult{name: fmt.Sprintf("Disk space (%s)", label), warning: true, message: fmt.Sprintf("cannot create %s: %v", path, err)}
	}

	var stat unix.Statfs_t
	if err := unix.Statfs(path, &stat); err != nil {
		return checkResult{name: fmt.Sprintf("Disk space (%s)", label), warning: true, message: fmt.Sprintf("cannot determine disk space: %v", err)}
	}

	availBytes := stat.Bavail * uint64(stat.Bsize)
	totalBytes := stat.Blocks * uint64(stat.Bsize)
	usedBytes := totalBytes - (stat.Bfree * uint64(stat.Bsize))

	availGB := float64(availBytes) / (1024 * 1024 * 1024)
	usedPercent := float64(0)
	if totalBytes > 0 {
		usedPercent = float64(usedBytes) / float64(totalBytes) * 100
	}

	warning := false
	warningMsg := ""
	if availGB < 5 {
		warning = true
		warningMsg = " (low space!)"
	} else if usedPercent > 90 {
		warning = true
		warningMsg = " (>90% used)"
	}

	return checkResult{
		name:    fmt.Sprintf("Disk space (%s)", label),
		warning: warning,
		message: fmt.Sprintf("%.1f GB available%s", availGB, warningMsg),
	}
}
