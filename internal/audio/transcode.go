package audio

import (
	"context"
	"errors"
	"fmt"
	"os/exec"
)

// ErrTranscode is returned when the raw microphone buffer cannot be
// converted to MP3. Terminal for the session.
var ErrTranscode = errors.New("audio transcode failed")

// Transcoder converts a raw microphone capture into the compressed format
// the transcription service accepts.
type Transcoder interface {
	Transcode(ctx context.Context, srcPath, dstPath string) error
}

// FFmpegTranscoder shells out to ffmpeg, producing 32 kbps mono MP3 — the
// lowest quality the transcription service handles well, keeping uploads
// small.
type FFmpegTranscoder struct {
	// Binary overrides the ffmpeg executable path; empty means "ffmpeg"
	// from PATH.
	Binary string
}

func (t *FFmpegTranscoder) Transcode(ctx context.Context, srcPath, dstPath string) error {
	bin := t.Binary
	if bin == "" {
		bin = "ffmpeg"
	}

	cmd := exec.CommandContext(ctx, bin,
		"-y",
		"-i", srcPath,
		"-b:a", "32k",
		"-ac", "1",
		"-f", "mp3",
		dstPath,
	)
	if out, err := cmd.CombinedOutput(); err != nil {
		return fmt.Errorf("%w: %v: %s", ErrTranscode, err, out)
	}
	return nil
}
