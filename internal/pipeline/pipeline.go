package pipeline

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"
	"unicode"

	"github.com/rs/zerolog"

	appconfig "github.com/farrelfz/clipper/internal/config"
	"github.com/farrelfz/clipper/internal/domain/export"
	"github.com/farrelfz/clipper/internal/ports"
	"github.com/farrelfz/clipper/internal/ports/adapters/artifacts"
	"github.com/farrelfz/clipper/internal/ports/adapters/ffmpeg"
	"github.com/farrelfz/clipper/internal/usecase"
)

type Config struct {
	Input       string
	AnalysisDir string
	ConfigPath  string
	OutDir      string

	FFmpegPath  string
	FFprobePath string

	Logger zerolog.Logger
}

// Validate checks the filesystem preconditions. The app config file is loaded
// and validated once, in Run.
func (c Config) Validate() error {
	if c.Input == "" {
		return errors.New("input is empty")
	}
	if _, err := os.Stat(c.Input); err != nil {
		return fmt.Errorf("stat input: %w", err)
	}
	if c.AnalysisDir == "" {
		return errors.New("analysis dir is empty")
	}
	if _, err := os.Stat(c.AnalysisDir); err != nil {
		return fmt.Errorf("stat analysis dir: %w", err)
	}
	return nil
}

// Run wires the adapters, executes the engine and writes the export plan into
// a fresh run directory.
func Run(ctx context.Context, cfg Config) error {
	log := cfg.Logger

	appCfg, err := appconfig.Load(cfg.ConfigPath)
	if err != nil {
		return err
	}
	if err := appCfg.Validate(); err != nil {
		return err
	}

	var prober ports.MediaProber = ffmpeg.New(cfg.FFmpegPath, cfg.FFprobePath)
	var signals ports.SignalSource = artifacts.New(cfg.AnalysisDir)

	uc := usecase.New(usecase.Deps{
		Prober:  prober,
		Signals: signals,
	})

	outDir := cfg.OutDir
	if outDir == "" {
		outDir = "out"
	}
	runOutDir := buildRunOutDir(outDir, cfg.Input, time.Now().UTC())
	if err := os.MkdirAll(runOutDir, 0o755); err != nil {
		return err
	}
	log.Info().Str("dir", runOutDir).Msg("run output dir")

	res, err := uc.Run(ctx, usecase.Input{
		MediaPath: cfg.Input,
		Config:    appCfg,
		Logger:    log,
	})
	if err != nil {
		return err
	}

	planPath := filepath.Join(runOutDir, "export_plan.json")
	if err := export.Write(planPath, res.Plan); err != nil {
		return err
	}
	evt := log.Info()
	if res.Degraded {
		evt = log.Warn().Bool("degraded", true)
	}
	evt.Int("platforms", len(res.Plan.Platforms)).Str("path", planPath).Msg("export plan written")
	return nil
}

// CacheDirFor returns the local artifact directory for one input, keyed by a
// hash of its path so repeated runs against the same media land in the same
// place.
func CacheDirFor(base, input string) string {
	if base == "" {
		base = ".cache"
	}
	return filepath.Join(base, "runs", hash(input))
}

func buildRunOutDir(outRoot, input string, now time.Time) string {
	name := strings.TrimSuffix(filepath.Base(input), filepath.Ext(input))
	name = normalizePathSegment(name)
	if name == "" {
		name = "input"
	}
	ts := now.UTC().Format("20060102-150405Z")
	runSeed := fmt.Sprintf("%s|%d", input, now.UTC().UnixNano())
	suffix := hash(runSeed)[:6]
	return filepath.Join(outRoot, fmt.Sprintf("%s-%s-%s", name, ts, suffix))
}

func normalizePathSegment(s string) string {
	var b strings.Builder
	prevDash := false
	for _, r := range strings.ToLower(strings.TrimSpace(s)) {
		switch {
		case unicode.IsLetter(r), unicode.IsDigit(r):
			b.WriteRune(r)
			prevDash = false
		default:
			if !prevDash {
				b.WriteByte('-')
				prevDash = true
			}
		}
	}
	return strings.Trim(b.String(), "-")
}

func hash(s string) string {
	sum := sha256.Sum256([]byte(s))
	return hex.EncodeToString(sum[:])[:12]
}
