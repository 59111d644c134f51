package usecase

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/farrelfz/clipper/internal/config"
	"github.com/farrelfz/clipper/internal/domain/camera"
	"github.com/farrelfz/clipper/internal/domain/captions"
	"github.com/farrelfz/clipper/internal/domain/export"
	"github.com/farrelfz/clipper/internal/domain/scoring"
	"github.com/farrelfz/clipper/internal/domain/selection"
	"github.com/farrelfz/clipper/internal/domain/signal"
	"github.com/farrelfz/clipper/internal/domain/windows"
	"github.com/farrelfz/clipper/internal/ports"
	"github.com/farrelfz/clipper/internal/types"
)

type Deps struct {
	Prober  ports.MediaProber
	Signals ports.SignalSource
}

type Usecase struct{ d Deps }

func New(d Deps) Usecase { return Usecase{d: d} }

type Input struct {
	MediaPath string
	Config    config.Config
	Logger    zerolog.Logger
}

type Result struct {
	Plan     types.ExportPlan
	Degraded bool
}

// Run executes the full engine: load and normalize the signal set, then per
// platform generate, score and select windows, then build the camera path and
// caption cues for every chosen clip. Platforms and clips are independent and
// run in parallel over the immutable signal set.
func (u Usecase) Run(ctx context.Context, in Input) (Result, error) {
	mediaDuration, err := u.d.Prober.ProbeDuration(ctx, in.MediaPath)
	if err != nil {
		return Result{}, err
	}

	bundle, err := u.loadBundle(ctx)
	if err != nil {
		return Result{}, err
	}
	set, err := signal.Load(bundle, mediaDuration, in.Logger)
	if err != nil {
		return Result{}, err
	}
	in.Logger.Info().
		Float64("media_duration_s", mediaDuration).
		Int("words", len(set.Words)).
		Int("speech_segments", len(set.Speech)).
		Int("face_tracks", len(set.Tracks)).
		Int("speaker_segments", len(set.Speakers)).
		Msg("signal set loaded")

	names := in.Config.PlatformNames()
	results := make([]selection.Result, len(names))

	g, gctx := errgroup.WithContext(ctx)
	for i, name := range names {
		i, name := i, name
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			platform := in.Config.Platforms[name]
			wins := windows.Generate(set, platform, in.Config.Generator)
			cands := scoring.Score(set, wins, platform, in.Config.Scoring)
			log := in.Logger.With().Str("platform", name).Logger()
			log.Debug().Int("windows", len(wins)).Int("candidates", len(cands)).Msg("candidates scored")
			results[i] = selection.Select(cands, mediaDuration, selection.FromConfig(platform, in.Config.Selection), log)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return Result{}, err
	}

	plans := make(map[string][]types.ClipPlan, len(names))
	degraded := false
	g, gctx = errgroup.WithContext(ctx)
	for i, name := range names {
		name := name
		res := results[i]
		if res.Relaxed || res.Synthesized > 0 {
			degraded = true
		}
		platform := in.Config.Platforms[name]
		clips := make([]types.ClipPlan, len(res.Picks))
		plans[name] = clips
		for slot, pick := range res.Picks {
			slot, pick := slot, pick
			g.Go(func() error {
				if err := gctx.Err(); err != nil {
					return err
				}
				clips[slot] = buildClipPlan(name, slot+1, pick, set, platform, in.Config.Camera)
				return nil
			})
		}
	}
	if err := g.Wait(); err != nil {
		return Result{}, err
	}

	for name, clips := range plans {
		if len(clips) != in.Config.Selection.ClipsPerPlatform {
			return Result{}, fmt.Errorf("platform %s: %d clip plans, want %d", name, len(clips), in.Config.Selection.ClipsPerPlatform)
		}
	}
	return Result{
		Plan:     export.Build(mediaDuration, plans),
		Degraded: degraded,
	}, nil
}

func (u Usecase) loadBundle(ctx context.Context) (signal.Bundle, error) {
	var b signal.Bundle
	var err error
	if b.Words, err = u.d.Signals.Transcript(ctx); err != nil {
		return signal.Bundle{}, err
	}
	if b.Speech, err = u.d.Signals.Speech(ctx); err != nil {
		return signal.Bundle{}, err
	}
	if b.Tracks, err = u.d.Signals.FaceTracks(ctx); err != nil {
		return signal.Bundle{}, err
	}
	if b.Speakers, err = u.d.Signals.Speakers(ctx); err != nil {
		return signal.Bundle{}, err
	}
	if b.Energy, err = u.d.Signals.Energy(ctx); err != nil {
		return signal.Bundle{}, err
	}
	return b, nil
}

func buildClipPlan(platformName string, slot int, pick selection.Pick, set *signal.Set, platform config.Platform, cam config.Camera) types.ClipPlan {
	crop := camera.BuildPath(pick.Range, set.Tracks, set.Speakers, cam)
	cues := captions.Align(set.Words, pick.Range, platform.Captions)
	return types.ClipPlan{
		Platform:    platformName,
		Slot:        slot,
		StartSec:    pick.Range.Start,
		EndSec:      pick.Range.End,
		TotalScore:  pick.Total,
		Breakdown:   pick.Breakdown,
		Crop:        crop,
		Cues:        cues,
		Synthesized: pick.Synthesized,
	}
}
