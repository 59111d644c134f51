package cli

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/farrelfz/clipper/internal/logging"
	"github.com/farrelfz/clipper/internal/pipeline"
	"github.com/farrelfz/clipper/internal/ports/adapters/ffmpeg"
)

func runPlan(cmd *cobra.Command, input string) error {
	analysisDir, _ := cmd.Flags().GetString("analysis")
	configPath, _ := cmd.Flags().GetString("config")
	outDir, _ := cmd.Flags().GetString("out")

	absIn, err := filepath.Abs(input)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(cmd.Context(), 10*time.Minute)
	defer cancel()

	cfg := pipeline.Config{
		Input:       absIn,
		AnalysisDir: analysisDir,
		ConfigPath:  configPath,
		OutDir:      outDir,
		FFmpegPath:  getenvDefault("CLIPPER_FFMPEG", "ffmpeg"),
		FFprobePath: getenvDefault("CLIPPER_FFPROBE", "ffprobe"),
		Logger:      logging.WithComponent("plan"),
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("config: %w", err)
	}
	return pipeline.Run(ctx, cfg)
}

func runAudio(cmd *cobra.Command, args []string) error {
	ctx, cancel := context.WithTimeout(cmd.Context(), 30*time.Minute)
	defer cancel()

	input := args[0]
	var outWav string
	if len(args) > 1 {
		outWav = args[1]
	} else {
		absIn, err := filepath.Abs(input)
		if err != nil {
			return err
		}
		cache, _ := cmd.Flags().GetString("cache")
		dir := pipeline.CacheDirFor(cache, absIn)
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return err
		}
		outWav = filepath.Join(dir, "audio.wav")
		if _, err := os.Stat(outWav); err == nil {
			log.Info().Str("path", outWav).Msg("audio already cached")
			return nil
		}
	}

	tool := ffmpeg.New(getenvDefault("CLIPPER_FFMPEG", "ffmpeg"), getenvDefault("CLIPPER_FFPROBE", "ffprobe"))
	if err := tool.ExtractAudioMono16k(ctx, input, outWav); err != nil {
		return err
	}
	log.Info().Str("path", outWav).Msg("audio extracted")
	return nil
}

func getenvDefault(k, def string) string {
	v := os.Getenv(k)
	if v == "" {
		return def
	}
	return v
}
