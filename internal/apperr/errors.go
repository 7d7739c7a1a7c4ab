// Package apperr defines the sentinel error kinds the server surfaces across
// the HTTP API, the CLI, and its internal logs. Callers compare with
// errors.Is against the sentinels below; wrapped context is added with
// fmt.Errorf("...: %w", err).
package apperr

import "errors"

var (
	// ErrNotConfigured means the owner has not completed first-run setup
	// (no music directory recorded yet).
	ErrNotConfigured = errors.New("server not configured")

	// ErrScanBusy means a scan or rescan was requested while one is
	// already running.
	ErrScanBusy = errors.New("scan already in progress")

	// ErrExtractionFailed means metadata extraction failed for a file that
	// otherwise matched a known audio extension.
	ErrExtractionFailed = errors.New("metadata extraction failed")

	// ErrCacheCorrupt means the on-disk metadata cache could not be
	// decoded and was discarded in favor of a full rescan.
	ErrCacheCorrupt = errors.New("metadata cache corrupt")

	// ErrTranscodeUnavailable means no usable encoder was found on PATH,
	// so only pass-through streaming is available.
	ErrTranscodeUnavailable = errors.New("transcoding unavailable")

	// ErrDownloadTransport means a download failed for a transport reason
	// (connection reset, timeout, non-2xx) after exhausting retries.
	ErrDownloadTransport = errors.New("download transport error")

	// ErrArtifactMissing means a requested song/album no longer exists on
	// disk (moved or deleted since the last scan).
	ErrArtifactMissing = errors.New("artifact missing")

	// ErrIntegrityError means a downloaded or cached artifact failed a
	// size/hash verification check.
	ErrIntegrityError = errors.New("integrity check failed")
)
