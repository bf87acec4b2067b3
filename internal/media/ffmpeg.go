package media

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"

	"github.com/google/uuid"
)

// ErrConversionFailed is returned when the external converter is missing
// or exits non-zero.
var ErrConversionFailed = errors.New("audio conversion failed")

const defaultFFmpegBin = "ffmpeg"

// FFmpeg converts uploaded recordings into mono 16 kHz PCM WAV by
// invoking the ffmpeg binary as a blocking subprocess.
type FFmpeg struct {
	bin string
}

func NewFFmpeg(bin string) *FFmpeg {
	if bin == "" {
		bin = defaultFFmpegBin
	}
	return &FFmpeg{bin: bin}
}

// Available reports whether the converter binary can be found on PATH.
func (f *FFmpeg) Available() bool {
	_, err := exec.LookPath(f.bin)
	return err == nil
}

// Convert normalizes inputPath into a freshly named WAV file next to it
// and returns the output path. The input is never overwritten.
func (f *FFmpeg) Convert(ctx context.Context, inputPath string) (string, error) {
	out := filepath.Join(filepath.Dir(inputPath), uuid.NewString()+".wav")

	// ffmpeg -y -i input -ar 16000 -ac 1 output.wav
	cmd := exec.CommandContext(ctx, f.bin,
		"-y", "-i", inputPath,
		"-ar", "16000",
		"-ac", "1",
		out,
	)
	var stderr bytes.Buffer
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		_ = os.Remove(out)
		if stderr.Len() > 0 {
			return "", fmt.Errorf("%w: %v: %s", ErrConversionFailed, err, stderr.String())
		}
		return "", fmt.Errorf("%w: %v", ErrConversionFailed, err)
	}
	return out, nil
}
