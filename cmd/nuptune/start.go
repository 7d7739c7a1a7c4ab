package main

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/picccassso/nuptune/internal/apperr"
	"github.com/picccassso/nuptune/internal/catalog"
	"github.com/picccassso/nuptune/internal/change"
	"github.com/picccassso/nuptune/internal/download"
	"github.com/picccassso/nuptune/internal/httpapi"
	"github.com/picccassso/nuptune/internal/library"
	"github.com/picccassso/nuptune/internal/meta"
	"github.com/picccassso/nuptune/internal/metacache"
	"github.com/picccassso/nuptune/internal/report"
	"github.com/picccassso/nuptune/internal/scan"
	"github.com/picccassso/nuptune/internal/store"
	"github.com/picccassso/nuptune/internal/transcode"
	"github.com/picccassso/nuptune/internal/util"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var startCmd = &cobra.Command{
	Use:   "start",
	Short: "Scan the library, watch it for changes, and serve it over HTTP",
	RunE:  runStart,
}

func init() {
	rootCmd.AddCommand(startCmd)
}

func runStart(cmd *cobra.Command, args []string) error {
	util.SetVerbose(viper.GetBool("verbose"))
	util.SetQuiet(viper.GetBool("quiet"))

	root := musicDir()
	if root == "" {
		return fmt.Errorf("%w: music directory (use --music-dir or set musicDir in config)", apperr.ErrNotConfigured)
	}
	if _, err := os.Stat(root); err != nil {
		return fmt.Errorf("music directory not accessible: %w", err)
	}

	if err := os.MkdirAll(appDataDir(), 0o755); err != nil {
		return fmt.Errorf("create app data dir: %w", err)
	}

	st, err := store.Open(statePath())
	if err != nil {
		return fmt.Errorf("open state database: %w", err)
	}
	defer st.Close()

	eventLog, err := report.NewEventLogger(appDataDir(), report.LevelInfo)
	if err != nil {
		util.WarnLog("start: structured event log unavailable: %v", err)
	}
	defer eventLog.Close()

	cache := metacache.New(metaCachePath())
	if err := cache.Load(); err != nil {
		util.WarnLog("start: loading metadata cache: %v", err)
	}

	lib := library.New(cache)

	util.InfoLog("Scanning %s...", root)
	extractOpts := meta.Options{UseFFprobe: meta.CheckFFprobeAvailable()}
	scanStart := time.Now()
	snapshot, err := lib.Scan(cmd.Context(), root, scan.Options{ExtractOpts: extractOpts, DedupProgress: st})
	if err != nil {
		eventLog.LogError(report.EventScan, root, err)
		return fmt.Errorf("initial scan failed: %w", err)
	}
	util.SuccessLog("Scan complete in %v", time.Since(scanStart).Round(time.Millisecond))
	_ = eventLog.Log(&report.Event{
		Level: report.LevelInfo,
		Event: report.EventScan,
		Path:  root,
		Extra: map[string]string{"songs": strconv.Itoa(len(snapshot.AllSongs()))},
	})

	if !transcode.CheckEncoderAvailable() {
		util.WarnLog("ffmpeg not found in PATH - medium/low quality requests will degrade to high")
	}
	tc := transcode.New(transcodeCacheDir(), st, transcodeCacheBudget())
	tc.Logger = eventLog

	baseURL := "http://" + localAddr(viper.GetString("bind"))
	dl := download.New(st, httpFetcher(baseURL))
	dl.Logger = eventLog

	srv := httpapi.New(lib, tc, dl, baseURL)
	srv.Logger = eventLog

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := writePIDFile(); err != nil {
		util.WarnLog("start: writing pid file: %v", err)
	}
	defer os.Remove(pidFilePath())

	watcher, err := change.NewWatcher(root)
	if err != nil {
		util.WarnLog("start: file watcher unavailable: %v", err)
	} else {
		go runWatcher(ctx, watcher, lib, extractOpts, eventLog)
	}

	go dl.Run(ctx)

	httpServer := &http.Server{
		Addr:         viper.GetString("bind"),
		Handler:      srv.Router(),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 0,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()
		_ = httpServer.Shutdown(shutCtx)
	}()

	util.SuccessLog("Listening on %s", viper.GetString("bind"))
	if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("http server: %w", err)
	}
	return nil
}

// runWatcher feeds debounced file-change batches from watcher into the
// change processor and applies the resulting delta to lib.
func runWatcher(ctx context.Context, watcher *change.Watcher, lib *library.Manager, extractOpts meta.Options, eventLog *report.EventLogger) {
	defer watcher.Close()
	err := watcher.Run(ctx, func(changes []catalog.FileChange) {
		current := lib.CurrentLibrary()
		result := change.ProcessBatch(changes, current, extractOpts, time.Now().Unix())
		if len(result.Update.AddedSongIDs)+len(result.Update.RemovedSongIDs)+len(result.Update.ModifiedSongIDs) == 0 {
			return
		}
		next := change.ApplyUpdate(current, result)
		lib.ApplyChangeBatch(next)
		util.InfoLog("change: applied batch (+%d ~%d -%d), %d albums affected",
			len(result.Update.AddedSongIDs), len(result.Update.ModifiedSongIDs),
			len(result.Update.RemovedSongIDs), len(result.Update.AffectedAlbums))
		eventLog.LogChange("batch", fmt.Sprintf("+%d ~%d -%d", len(result.Update.AddedSongIDs),
			len(result.Update.ModifiedSongIDs), len(result.Update.RemovedSongIDs)))
	})
	if err != nil {
		util.WarnLog("start: watcher stopped: %v", err)
	}
}

// httpFetcher returns a download.Scheduler fetch callback that pulls a
// song's original bytes from this same server's /download endpoint.
func httpFetcher(baseURL string) func(ctx context.Context, songID string) (io.ReadCloser, int64, error) {
	client := &http.Client{}
	return func(ctx context.Context, songID string) (io.ReadCloser, int64, error) {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, baseURL+"/download/"+songID, nil)
		if err != nil {
			return nil, 0, err
		}
		resp, err := client.Do(req)
		if err != nil {
			return nil, 0, err
		}
		if resp.StatusCode != http.StatusOK {
			resp.Body.Close()
			return nil, 0, fmt.Errorf("download: unexpected status %s", resp.Status)
		}
		return resp.Body, resp.ContentLength, nil
	}
}

// writePIDFile records the running process's PID so status/stop can
// find it without a more heavyweight IPC mechanism.
func writePIDFile() error {
	return os.WriteFile(pidFilePath(), []byte(strconv.Itoa(os.Getpid())), 0o644)
}

// localAddr rewrites a bare ":port" bind address into a loopback address
// suitable for embedding in URLs and for the client-side fetcher.
func localAddr(bind string) string {
	if len(bind) > 0 && bind[0] == ':' {
		return "127.0.0.1" + bind
	}
	return bind
}
