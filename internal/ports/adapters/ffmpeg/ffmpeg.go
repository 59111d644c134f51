package ffmpeg

import (
	"context"
	"fmt"
	"os/exec"

	"github.com/tidwall/gjson"
)

type Adapter struct {
	ffmpeg  string
	ffprobe string
}

func New(ffmpegPath, ffprobePath string) *Adapter {
	if ffmpegPath == "" {
		ffmpegPath = "ffmpeg"
	}
	if ffprobePath == "" {
		ffprobePath = "ffprobe"
	}
	return &Adapter{ffmpeg: ffmpegPath, ffprobe: ffprobePath}
}

func (a *Adapter) ProbeDuration(ctx context.Context, path string) (float64, error) {
	cmd := exec.CommandContext(ctx, a.ffprobe,
		"-v", "error",
		"-print_format", "json",
		"-show_format",
		path,
	)
	b, err := cmd.Output()
	if err != nil {
		return 0, fmt.Errorf("ffprobe %s: %w", path, err)
	}
	dur := gjson.GetBytes(b, "format.duration")
	if !dur.Exists() {
		return 0, fmt.Errorf("ffprobe %s: no duration in format section", path)
	}
	sec := dur.Float()
	if sec <= 0 {
		return 0, fmt.Errorf("ffprobe %s: non-positive duration %g", path, sec)
	}
	return sec, nil
}

// ExtractAudioMono16k writes the mono 16 kHz WAV consumed by the upstream
// ASR and VAD collaborators.
func (a *Adapter) ExtractAudioMono16k(ctx context.Context, in, outWav string) error {
	cmd := exec.CommandContext(ctx, a.ffmpeg,
		"-y",
		"-i", in,
		"-vn",
		"-ac", "1",
		"-ar", "16000",
		"-f", "wav",
		outWav,
	)
	b, err := cmd.CombinedOutput()
	if err != nil {
		return fmt.Errorf("ffmpeg extract audio: %w\n%s", err, string(b))
	}
	return nil
}
