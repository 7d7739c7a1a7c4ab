package main

import (
	"fmt"
	"os"
	"time"

	"github.com/schollz/progressbar/v3"

	"github.com/picccassso/nuptune/internal/apperr"
	"github.com/picccassso/nuptune/internal/library"
	"github.com/picccassso/nuptune/internal/meta"
	"github.com/picccassso/nuptune/internal/metacache"
	"github.com/picccassso/nuptune/internal/scan"
	"github.com/picccassso/nuptune/internal/store"
	"github.com/picccassso/nuptune/internal/util"
	"github.com/spf13/cobra"
)

var rescanCmd = &cobra.Command{
	Use:   "rescan",
	Short: "Run a one-shot full scan of the music directory and print a summary",
	Long: `Run a one-shot full scan of the music directory, refreshing the
persistent metadata cache, without starting the HTTP server or the file
watcher. Useful after a bulk import, or to warm the metadata cache before
the first "nuptune start".`,
	RunE: runRescan,
}

func init() {
	rootCmd.AddCommand(rescanCmd)
}

func runRescan(cmd *cobra.Command, args []string) error {
	util.SetVerbose(false)
	util.SetQuiet(false)

	root := musicDir()
	if root == "" {
		return fmt.Errorf("%w: music directory (use --music-dir or set musicDir in config)", apperr.ErrNotConfigured)
	}

	if err := os.MkdirAll(appDataDir(), 0o755); err != nil {
		return fmt.Errorf("create app data dir: %w", err)
	}

	st, err := store.Open(statePath())
	if err != nil {
		return fmt.Errorf("open state database: %w", err)
	}
	defer st.Close()

	cache := metacache.New(metaCachePath())
	if err := cache.Load(); err != nil {
		util.WarnLog("rescan: loading metadata cache: %v", err)
	}

	lib := library.New(cache)

	util.InfoLog("Scanning %s...", root)
	onProgress := func(scan.ProgressEvent) {}
	var bar *progressbar.ProgressBar
	if util.IsTerminal(os.Stderr.Fd()) {
		bar = progressbar.NewOptions(100,
			progressbar.OptionSetWriter(os.Stderr),
			progressbar.OptionSetDescription("scanning"),
			progressbar.OptionSetWidth(min(util.GetTerminalWidth()-20, 40)),
			progressbar.OptionClearOnFinish(),
		)
		onProgress = func(ev scan.ProgressEvent) {
			bar.Describe(ev.Stage)
			_ = bar.Set(ev.Percentage)
		}
	}

	start := time.Now()
	extractOpts := meta.Options{UseFFprobe: meta.CheckFFprobeAvailable()}
	result, err := lib.Scan(cmd.Context(), root, scan.Options{
		ExtractOpts:   extractOpts,
		DedupProgress: st,
		OnProgress:    onProgress,
	})
	if err != nil {
		return fmt.Errorf("scan failed: %w", err)
	}
	if bar != nil {
		_ = bar.Finish()
	}
	elapsed := time.Since(start)

	songs := result.AllSongs()
	util.SuccessLog("Scan complete in %s", elapsed.Round(time.Millisecond))
	util.InfoLog("Albums: %d", len(result.Albums))
	util.InfoLog("Standalone tracks: %d", len(result.Standalone))
	util.InfoLog("Total songs: %d", len(songs))
	util.InfoLog("Playlists: %d", len(result.Playlists))

	return nil
}
