// Package transcode implements the disk-cached quality-variant pipeline
// (4.J): given a song path and a quality, it returns a readable artifact
// path, transcoding on demand with a single encoder invocation shared
// across concurrent requests for the same key.
package transcode

import (
	"context"
	"fmt"
	"os/exec"

	"github.com/picccassso/nuptune/internal/apperr"
	"github.com/picccassso/nuptune/internal/util"
)

// Quality is one of the three variants a song can be served as.
type Quality string

const (
	High   Quality = "high"
	Medium Quality = "medium"
	Low    Quality = "low"
)

// Valid reports whether q is one of the known quality levels.
func (q Quality) Valid() bool {
	switch q {
	case High, Medium, Low:
		return true
	default:
		return false
	}
}

// bitrateKbps returns the AAC target bitrate for a non-high quality. high
// never reaches this function since it passes the original file through.
func bitrateKbps(q Quality) int {
	if q == Low {
		return 64
	}
	return 128
}

// CheckEncoderAvailable reports whether ffmpeg is on PATH. Callers use
// this to decide whether to degrade medium/low requests to high.
func CheckEncoderAvailable() bool {
	_, err := exec.LookPath("ffmpeg")
	return err == nil
}

// encode runs ffmpeg to produce a `quality` AAC/m4a artifact from srcPath
// at destPath. destPath's parent directory must already exist; encode
// writes to a temp file in the same directory first so a half-written
// artifact is never mistaken for a complete one.
func encode(ctx context.Context, srcPath, destPath string, q Quality) error {
	tmp := destPath + ".tmp"
	cmd := exec.CommandContext(ctx, "ffmpeg",
		"-y",
		"-i", srcPath,
		"-vn",
		"-c:a", "aac",
		"-b:a", fmt.Sprintf("%dk", bitrateKbps(q)),
		"-movflags", "+faststart",
		"-f", "mp4",
		tmp,
	)

	output, err := cmd.CombinedOutput()
	if err != nil {
		return fmt.Errorf("transcode: %s: %w: %s", srcPath, apperr.ErrTranscodeUnavailable, string(output))
	}

	if err := util.RetryableRename(tmp, destPath, util.DefaultRetryConfig()); err != nil {
		return fmt.Errorf("transcode: rename artifact for %s: %w", srcPath, err)
	}
	return nil
}
